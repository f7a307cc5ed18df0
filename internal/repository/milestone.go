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
	ErrMilestoneNotFound = errors.New("milestone not found")
)

type MilestoneRepository interface {
	Create(ctx context.Context, milestone *model.Milestone) error
	ByID(ctx context.Context, milestoneID string) (*model.Milestone, error)
	ByGoal(ctx context.Context, goalID string) ([]model.Milestone, error)
	ByUser(ctx context.Context, userID string) ([]model.Milestone, error)
	NextOrder(ctx context.Context, goalID string) (int, error)
	Update(ctx context.Context, milestone *model.Milestone) error
	Delete(ctx context.Context, milestoneID string) error
	DeleteAllByGoal(ctx context.Context, goalID string) error
}

type milestoneRepository struct {
	db sqlx.ExtContext
}

func NewMilestoneRepository(db *sqlx.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

func (r *milestoneRepository) Create(ctx context.Context, m *model.Milestone) error {
	query := `INSERT INTO milestones (id, goal_id, title, description, due_date, completed, completed_at, sort_order, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		m.ID,
		m.GoalID,
		m.Title,
		m.Description,
		m.DueDate,
		m.Completed,
		m.CompletedAt,
		m.Order,
		m.CreatedAt,
		m.UpdatedAt,
	)

	return err
}

func (r *milestoneRepository) ByID(ctx context.Context, milestoneID string) (*model.Milestone, error) {
	m := &model.Milestone{}
	query := `SELECT * FROM milestones WHERE id = $1`

	err := sqlx.GetContext(ctx, r.db, m, query, milestoneID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMilestoneNotFound
	}
	if err != nil {
		return nil, err
	}

	return m, nil
}

func (r *milestoneRepository) ByGoal(ctx context.Context, goalID string) ([]model.Milestone, error) {
	var milestones []model.Milestone
	query := `SELECT * FROM milestones WHERE goal_id = $1 ORDER BY sort_order ASC, due_date ASC`

	err := sqlx.SelectContext(ctx, r.db, &milestones, query, goalID)
	if err != nil {
		return nil, err
	}

	return milestones, nil
}

// ByUser returns every milestone across the user's goals.
func (r *milestoneRepository) ByUser(ctx context.Context, userID string) ([]model.Milestone, error) {
	var milestones []model.Milestone
	query := `SELECT m.* FROM milestones m
	          JOIN goals g ON g.id = m.goal_id
	          WHERE g.user_id = $1
	          ORDER BY m.due_date ASC`

	err := sqlx.SelectContext(ctx, r.db, &milestones, query, userID)
	if err != nil {
		return nil, err
	}

	return milestones, nil
}

// NextOrder returns the order value for a milestone appended to the goal.
func (r *milestoneRepository) NextOrder(ctx context.Context, goalID string) (int, error) {
	var next int
	query := `SELECT COALESCE(MAX(sort_order) + 1, 0) FROM milestones WHERE goal_id = $1`

	err := sqlx.GetContext(ctx, r.db, &next, query, goalID)
	if err != nil {
		return 0, err
	}

	return next, nil
}

func (r *milestoneRepository) Update(ctx context.Context, m *model.Milestone) error {
	query := `UPDATE milestones
	          SET title = $1, description = $2, due_date = $3, completed = $4, completed_at = $5, sort_order = $6, updated_at = $7
	          WHERE id = $8`

	m.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		m.Title,
		m.Description,
		m.DueDate,
		m.Completed,
		m.CompletedAt,
		m.Order,
		m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return err
	}

	return affectedOne(result, ErrMilestoneNotFound)
}

func (r *milestoneRepository) Delete(ctx context.Context, milestoneID string) error {
	query := `DELETE FROM milestones WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, milestoneID)
	if err != nil {
		return err
	}

	return affectedOne(result, ErrMilestoneNotFound)
}

func (r *milestoneRepository) DeleteAllByGoal(ctx context.Context, goalID string) error {
	query := `DELETE FROM milestones WHERE goal_id = $1`
	_, err := r.db.ExecContext(ctx, query, goalID)
	return err
}
