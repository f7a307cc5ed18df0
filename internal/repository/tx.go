package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Repositories groups the stores that take part in one unit of work.
type Repositories struct {
	Goals           GoalRepository
	Milestones      MilestoneRepository
	ProgressEntries ProgressEntryRepository
}

// Transactor runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
type Transactor interface {
	WithTx(ctx context.Context, fn func(repos Repositories) error) error
}

type sqlTransactor struct {
	db *sqlx.DB
}

func NewTransactor(db *sqlx.DB) Transactor {
	return &sqlTransactor{db: db}
}

func (t *sqlTransactor) WithTx(ctx context.Context, fn func(repos Repositories) error) error {
	tx, err := t.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	err = fn(Repositories{
		Goals:           &goalRepository{db: tx},
		Milestones:      &milestoneRepository{db: tx},
		ProgressEntries: &progressEntryRepository{db: tx},
	})
	if err != nil {
		return err
	}

	return tx.Commit()
}

// isUniqueViolation works for both SQLite and PostgreSQL error messages.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func affectedOne(res interface{ RowsAffected() (int64, error) }, notFound error) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound
	}
	return nil
}
