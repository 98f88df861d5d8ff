package repository

import (
	"context"
	"time"
)

// TokenBlacklist is the revocation list for session tokens. Presence of a
// token is the sole revocation signal; rows past the token's own expiry are
// prunable since the signature check rejects them anyway.
type TokenBlacklist interface {
	// Add records the raw token. Adding the same token twice is a no-op.
	Add(ctx context.Context, token string, expiresAt time.Time) error
	Contains(ctx context.Context, token string) (bool, error)
	// DeleteExpired removes entries whose expires_at has passed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
