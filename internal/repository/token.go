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
	ErrTokenNotFound = errors.New("token not found")
)

type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
	Consume(ctx context.Context, token, tokenType string, now time.Time) (*model.Token, error)
	DeleteByUserAndType(ctx context.Context, userID, tokenType string) error
	CleanupExpired(ctx context.Context, cutoff time.Time) (int64, error)
}

type tokenRepository struct {
	db *sqlx.DB
}

func NewTokenRepository(db *sqlx.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(ctx context.Context, token *model.Token) error {
	query := `INSERT INTO tokens (id, user_id, type, token, expires_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		token.ID,
		token.UserID,
		token.Type,
		token.Token,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}

// Consume marks an unused, unexpired token of the given type as used and
// returns it. Of two concurrent calls for the same token only one succeeds;
// the other gets ErrTokenNotFound.
func (r *tokenRepository) Consume(ctx context.Context, token, tokenType string, now time.Time) (*model.Token, error) {
	var t model.Token
	query := `UPDATE tokens
	          SET used_at = $1
	          WHERE token = $2 AND type = $3 AND used_at IS NULL AND expires_at > $4
	          RETURNING *`

	err := r.db.GetContext(ctx, &t, query, now, token, tokenType, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *tokenRepository) DeleteByUserAndType(ctx context.Context, userID, tokenType string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tokens WHERE user_id = $1 AND type = $2`, userID, tokenType)
	return err
}

// CleanupExpired deletes tokens that expired, or were used, before cutoff.
func (r *tokenRepository) CleanupExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM tokens WHERE (used_at IS NOT NULL AND used_at < $1) OR expires_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
