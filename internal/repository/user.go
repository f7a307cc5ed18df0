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
	ErrUserNotFound   = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	ByID(ctx context.Context, id string) (*model.User, error)
	ByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePreferences(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id string, at time.Time) error
	WithReminders(ctx context.Context) ([]model.User, error)
	WithDigest(ctx context.Context) ([]model.User, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (id, email, name, password_hash, milestone_reminders, weekly_digest, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.MilestoneReminders,
		user.WeeklyDigest,
		user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}

	return err
}

func (r *userRepository) ByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.GetContext(ctx, user, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) ByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE email = $1`

	err := r.db.GetContext(ctx, user, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) UpdatePreferences(ctx context.Context, user *model.User) error {
	query := `UPDATE users SET name = $1, milestone_reminders = $2, weekly_digest = $3 WHERE id = $4`

	result, err := r.db.ExecContext(ctx, query, user.Name, user.MilestoneReminders, user.WeeklyDigest, user.ID)
	if err != nil {
		return err
	}

	return affectedOne(result, ErrUserNotFound)
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return err
	}

	return affectedOne(result, ErrUserNotFound)
}

// MarkEmailVerified keeps the first verification time if the user was
// already verified.
func (r *userRepository) MarkEmailVerified(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE users SET email_verified_at = COALESCE(email_verified_at, $1) WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}

	return affectedOne(result, ErrUserNotFound)
}

// WithReminders lists users who opted into milestone reminder e-mails.
func (r *userRepository) WithReminders(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.SelectContext(ctx, &users, `SELECT * FROM users WHERE milestone_reminders = $1 ORDER BY created_at ASC`, true)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) WithDigest(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.SelectContext(ctx, &users, `SELECT * FROM users WHERE weekly_digest = $1 ORDER BY created_at ASC`, true)
	if err != nil {
		return nil, err
	}
	return users, nil
}
