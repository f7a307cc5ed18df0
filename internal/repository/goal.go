package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/templui/goaltracker/internal/model"
)

const (
	GoalSortRecent   = "recent"
	GoalSortDueDate  = "dueDate"
	GoalSortPriority = "priority"
	GoalSortProgress = "progress"
	GoalSortTitle    = "title"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
)

// GoalFilter narrows a user's goal list. Zero values mean "no filter".
type GoalFilter struct {
	Status   model.GoalStatus
	Category model.Category
	Search   string
	Sort     string
}

type GoalRepository interface {
	Create(ctx context.Context, goal *model.Goal) error
	ByID(ctx context.Context, goalID string) (*model.Goal, error)
	Goals(ctx context.Context, userID string, filter GoalFilter) ([]model.Goal, error)
	Update(ctx context.Context, goal *model.Goal) error
	SaveProgress(ctx context.Context, goal *model.Goal) error
	Delete(ctx context.Context, goalID string) error
}

type goalRepository struct {
	db sqlx.ExtContext
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(ctx context.Context, goal *model.Goal) error {
	query := `INSERT INTO goals (id, user_id, title, description, category, priority, target_date, status, progress, completed_at, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		goal.ID,
		goal.UserID,
		goal.Title,
		goal.Description,
		goal.Category,
		goal.Priority,
		goal.TargetDate,
		goal.Status,
		goal.Progress,
		goal.CompletedAt,
		goal.CreatedAt,
		goal.UpdatedAt,
	)

	return err
}

func (r *goalRepository) ByID(ctx context.Context, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db, goal, query, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (r *goalRepository) Goals(ctx context.Context, userID string, filter GoalFilter) ([]model.Goal, error) {
	var goals []model.Goal

	args := []any{userID}
	where := []string{"user_id = $1"}

	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("category = $%d", len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+strings.ToLower(s)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(LOWER(title) LIKE $%d OR LOWER(description) LIKE $%d)", n, n))
	}

	// Validate and build ORDER BY clause
	var orderBy string
	switch filter.Sort {
	case GoalSortDueDate:
		orderBy = "ORDER BY target_date ASC, created_at DESC"
	case GoalSortPriority:
		orderBy = "ORDER BY CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END DESC, created_at DESC"
	case GoalSortProgress:
		orderBy = "ORDER BY progress DESC, created_at DESC"
	case GoalSortTitle:
		orderBy = "ORDER BY LOWER(title) ASC"
	default: // GoalSortRecent or empty
		orderBy = "ORDER BY created_at DESC"
	}

	query := `SELECT * FROM goals WHERE ` + strings.Join(where, " AND ") + ` ` + orderBy

	err := sqlx.SelectContext(ctx, r.db, &goals, query, args...)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

// Update writes the user-editable fields. Progress is never written here.
func (r *goalRepository) Update(ctx context.Context, goal *model.Goal) error {
	query := `UPDATE goals
	          SET title = $1, description = $2, category = $3, priority = $4, target_date = $5,
	              status = $6, completed_at = $7, updated_at = $8
	          WHERE id = $9`

	goal.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		goal.Title,
		goal.Description,
		goal.Category,
		goal.Priority,
		goal.TargetDate,
		goal.Status,
		goal.CompletedAt,
		goal.UpdatedAt,
		goal.ID,
	)
	if err != nil {
		return err
	}

	return affectedOne(result, ErrGoalNotFound)
}

// SaveProgress persists the derived fields in a single statement so progress
// and status can never be written apart.
func (r *goalRepository) SaveProgress(ctx context.Context, goal *model.Goal) error {
	query := `UPDATE goals
	          SET progress = $1, status = $2, completed_at = $3, updated_at = $4
	          WHERE id = $5`

	goal.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		goal.Progress,
		goal.Status,
		goal.CompletedAt,
		goal.UpdatedAt,
		goal.ID,
	)
	if err != nil {
		return err
	}

	return affectedOne(result, ErrGoalNotFound)
}

func (r *goalRepository) Delete(ctx context.Context, goalID string) error {
	query := `DELETE FROM goals WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, goalID)
	if err != nil {
		return err
	}

	return affectedOne(result, ErrGoalNotFound)
}
