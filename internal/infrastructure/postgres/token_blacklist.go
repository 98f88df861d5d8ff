package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warungmbahmanto/backend-api/internal/domain/repository"
)

// TokenBlacklist stores revoked session tokens. Rows carry the token's own
// expiry so the table can be pruned once the signature check would reject the
// token anyway.
type TokenBlacklist struct {
	pool *pgxpool.Pool
}

func NewTokenBlacklist(pool *pgxpool.Pool) *TokenBlacklist {
	return &TokenBlacklist{pool: pool}
}

func (r *TokenBlacklist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO blacklisted_tokens (token, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token) DO NOTHING
	`, token, expiresAt)
	return err
}

func (r *TokenBlacklist) Contains(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM blacklisted_tokens WHERE token = $1)
	`, token).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *TokenBlacklist) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.pool.Exec(ctx, `
		DELETE FROM blacklisted_tokens WHERE expires_at < $1
	`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected(), nil
}

var _ repository.TokenBlacklist = (*TokenBlacklist)(nil)
