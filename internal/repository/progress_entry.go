package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goaltracker/internal/model"
)

var (
	ErrProgressEntryNotFound  = errors.New("progress entry not found")
	ErrDuplicateProgressEntry = errors.New("progress entry already exists for this week")
)

type ProgressEntryRepository interface {
	Create(ctx context.Context, entry *model.ProgressEntry) error
	ByID(ctx context.Context, entryID string) (*model.ProgressEntry, error)
	ByWeek(ctx context.Context, userID, goalID string, weekStart time.Time) (*model.ProgressEntry, error)
	History(ctx context.Context, userID, goalID string, limit int) ([]model.ProgressEntry, error)
	InWeek(ctx context.Context, userID string, weekStart, weekEnd time.Time) ([]model.ProgressEntry, error)
	Update(ctx context.Context, entry *model.ProgressEntry) error
	Delete(ctx context.Context, entryID string) error
	DeleteAllByGoal(ctx context.Context, goalID string) error
}

type progressEntryRepository struct {
	db sqlx.ExtContext
}

func NewProgressEntryRepository(db *sqlx.DB) ProgressEntryRepository {
	return &progressEntryRepository{db: db}
}

func (r *progressEntryRepository) Create(ctx context.Context, e *model.ProgressEntry) error {
	query := `INSERT INTO progress_entries (id, user_id, goal_id, week_start_date, week_end_date, notes, progress_percentage, hours_spent, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.UserID,
		e.GoalID,
		e.WeekStartDate,
		e.WeekEndDate,
		e.Notes,
		e.ProgressPercentage,
		e.HoursSpent,
		e.CreatedAt,
		e.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateProgressEntry
	}

	return err
}

func (r *progressEntryRepository) ByID(ctx context.Context, entryID string) (*model.ProgressEntry, error) {
	e := &model.ProgressEntry{}
	query := `SELECT * FROM progress_entries WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db, e, query, entryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProgressEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	return e, nil
}

func (r *progressEntryRepository) ByWeek(ctx context.Context, userID, goalID string, weekStart time.Time) (*model.ProgressEntry, error) {
	e := &model.ProgressEntry{}
	query := `SELECT * FROM progress_entries WHERE user_id = $1 AND goal_id = $2 AND week_start_date = $3`

	err := sqlx.GetContext(ctx, r.db, e, query, userID, goalID, weekStart)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProgressEntryNotFound
	}
	if err != nil {
		return nil, err
	}

	return e, nil
}

// History returns the most recent entries first. A limit <= 0 returns all.
func (r *progressEntryRepository) History(ctx context.Context, userID, goalID string, limit int) ([]model.ProgressEntry, error) {
	var entries []model.ProgressEntry
	query := `SELECT * FROM progress_entries WHERE user_id = $1 AND goal_id = $2 ORDER BY week_start_date DESC`
	args := []any{userID, goalID}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	err := sqlx.SelectContext(ctx, r.db, &entries, query, args...)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// InWeek returns the user's entries whose week starts within [weekStart, weekEnd].
func (r *progressEntryRepository) InWeek(ctx context.Context, userID string, weekStart, weekEnd time.Time) ([]model.ProgressEntry, error) {
	var entries []model.ProgressEntry
	query := `SELECT * FROM progress_entries
	          WHERE user_id = $1 AND week_start_date >= $2 AND week_start_date <= $3
	          ORDER BY created_at ASC`

	err := sqlx.SelectContext(ctx, r.db, &entries, query, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *progressEntryRepository) Update(ctx context.Context, e *model.ProgressEntry) error {
	query := `UPDATE progress_entries
	          SET notes = $1, progress_percentage = $2, hours_spent = $3, updated_at = $4
	          WHERE id = $5`

	e.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		e.Notes,
		e.ProgressPercentage,
		e.HoursSpent,
		e.UpdatedAt,
		e.ID,
	)
	if err != nil {
		return err
	}

	return affectedOne(result, ErrProgressEntryNotFound)
}

func (r *progressEntryRepository) Delete(ctx context.Context, entryID string) error {
	query := `DELETE FROM progress_entries WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, entryID)
	if err != nil {
		return err
	}

	return affectedOne(result, ErrProgressEntryNotFound)
}

func (r *progressEntryRepository) DeleteAllByGoal(ctx context.Context, goalID string) error {
	query := `DELETE FROM progress_entries WHERE goal_id = $1`
	_, err := r.db.ExecContext(ctx, query, goalID)
	return err
}
