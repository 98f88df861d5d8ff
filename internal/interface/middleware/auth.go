package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	repo "github.com/warungmbahmanto/backend-api/internal/domain/repository"
	"github.com/warungmbahmanto/backend-api/pkg/helpers"
	"github.com/warungmbahmanto/backend-api/pkg/response"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxUserID    = "user_id"
	CtxUserEmail = "user_email"
	CtxUserName  = "user_name"
)

// BearerToken extracts the token from the Authorization header; "" when absent
// or malformed.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Auth guards protected routes: it requires a bearer token that is not
// blacklisted, carries a valid signature and expiry, and still maps to an
// existing user. On success the user's id, email and name are attached to the
// context.
//
// A redis hit short-circuits the blacklist lookup; otherwise the store is
// consulted, so a redis outage degrades latency, not correctness.
func Auth(jwt *helpers.JWTManager, blacklist repo.TokenBlacklist, users repo.UserRepository, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "authorization token required", nil)
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		revoked := false
		if rdb != nil {
			if n, err := rdb.Exists(ctx, helpers.KeyBlacklistedToken(token)).Result(); err == nil && n > 0 {
				revoked = true
			}
		}
		if !revoked {
			ok, err := blacklist.Contains(ctx, token)
			if err != nil {
				response.Error[any](c, http.StatusInternalServerError, "failed to validate session", nil)
				c.Abort()
				return
			}
			revoked = ok
		}
		if revoked {
			response.Error[any](c, http.StatusUnauthorized, "session has been revoked", nil)
			c.Abort()
			return
		}

		claims, err := jwt.Parse(token)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid or expired token", nil)
			c.Abort()
			return
		}

		// The account may have been removed after the token was issued.
		u, err := users.GetByID(ctx, claims.UserID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				response.Error[any](c, http.StatusUnauthorized, "user no longer exists", nil)
			} else {
				response.Error[any](c, http.StatusInternalServerError, "failed to validate session", nil)
			}
			c.Abort()
			return
		}

		c.Set(CtxUserID, u.ID)
		c.Set(CtxUserEmail, u.Email)
		c.Set(CtxUserName, u.Name)
		c.Next()
	}
}
