package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warungmbahmanto/backend-api/internal/domain/entity"
	repo "github.com/warungmbahmanto/backend-api/internal/domain/repository"
	"github.com/warungmbahmanto/backend-api/pkg/helpers"
)

type stubUsers struct {
	byID map[string]*entity.User
}

func (s *stubUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return u, nil
}

func (s *stubUsers) GetByEmail(context.Context, string) (*entity.User, error) {
	return nil, repo.ErrNotFound
}
func (s *stubUsers) UpsertRegistration(context.Context, *entity.User) error { return nil }
func (s *stubUsers) SetVerificationOtp(context.Context, string, entity.Otp) error {
	return nil
}
func (s *stubUsers) MarkVerified(context.Context, string, string) (bool, error) { return false, nil }
func (s *stubUsers) SetResetOtp(context.Context, string, entity.Otp) error      { return nil }
func (s *stubUsers) ConfirmResetOtp(context.Context, string, string) (bool, error) {
	return false, nil
}
func (s *stubUsers) UpdatePassword(context.Context, string, string) (bool, error) {
	return false, nil
}

type stubBlacklist struct {
	revoked map[string]bool
}

func (s *stubBlacklist) Add(_ context.Context, token string, _ time.Time) error {
	s.revoked[token] = true
	return nil
}

func (s *stubBlacklist) Contains(_ context.Context, token string) (bool, error) {
	return s.revoked[token], nil
}

func (s *stubBlacklist) DeleteExpired(context.Context, time.Time) (int64, error) { return 0, nil }

func setupProtected(t *testing.T) (*gin.Engine, *helpers.JWTManager, *stubBlacklist) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwt := helpers.NewJWTManager("test-secret", time.Hour)
	blacklist := &stubBlacklist{revoked: map[string]bool{}}
	users := &stubUsers{byID: map[string]*entity.User{
		"u1": {ID: "u1", Email: "a@b.co", Name: "A", IsVerified: true},
	}}

	engine := gin.New()
	engine.GET("/protected", Auth(jwt, blacklist, users, nil), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(CtxUserID),
			"email":   c.GetString(CtxUserEmail),
		})
	})
	return engine, jwt, blacklist
}

func get(engine *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestAuthRejectsMissingToken(t *testing.T) {
	engine, _, _ := setupProtected(t)

	assert.Equal(t, http.StatusUnauthorized, get(engine, "").Code)

	// malformed scheme
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic abc")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	engine, _, _ := setupProtected(t)
	assert.Equal(t, http.StatusUnauthorized, get(engine, "not-a-jwt").Code)

	// valid shape, wrong key
	other := helpers.NewJWTManager("other-secret", time.Hour)
	tok, _, err := other.Generate("u1", "a@b.co", "A")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(engine, tok).Code)
}

func TestAuthRejectsExpiredToken(t *testing.T) {
	engine, _, _ := setupProtected(t)
	expired := helpers.NewJWTManager("test-secret", -time.Minute)
	tok, _, err := expired.Generate("u1", "a@b.co", "A")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(engine, tok).Code)
}

func TestAuthRejectsRevokedToken(t *testing.T) {
	engine, jwt, blacklist := setupProtected(t)
	tok, _, err := jwt.Generate("u1", "a@b.co", "A")
	require.NoError(t, err)

	require.NoError(t, blacklist.Add(context.Background(), tok, time.Now().Add(time.Hour)))
	assert.Equal(t, http.StatusUnauthorized, get(engine, tok).Code)

	// a different live token for the same user is unaffected
	other, _, err := helpers.NewJWTManager("test-secret", 2*time.Hour).Generate("u1", "a@b.co", "A")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(engine, other).Code)
}

func TestAuthRejectsDeletedUser(t *testing.T) {
	engine, jwt, _ := setupProtected(t)
	tok, _, err := jwt.Generate("gone", "x@b.co", "X")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(engine, tok).Code)
}

func TestAuthAttachesPrincipal(t *testing.T) {
	engine, jwt, _ := setupProtected(t)
	tok, _, err := jwt.Generate("u1", "a@b.co", "A")
	require.NoError(t, err)

	w := get(engine, tok)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"u1"`)
	assert.Contains(t, w.Body.String(), `"email":"a@b.co"`)
}
