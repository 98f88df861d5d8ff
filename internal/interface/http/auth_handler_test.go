package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warungmbahmanto/backend-api/internal/application"
	"github.com/warungmbahmanto/backend-api/internal/domain/entity"
	repo "github.com/warungmbahmanto/backend-api/internal/domain/repository"
	"github.com/warungmbahmanto/backend-api/pkg/helpers"
	"github.com/warungmbahmanto/backend-api/pkg/validation"
)

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]*entity.User
	nextID  int
}

func (r *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (r *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return u, nil
}

func (r *fakeUsers) UpsertRegistration(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byEmail[u.Email]; ok {
		if existing.IsVerified {
			return repo.ErrNotFound
		}
		u.ID = existing.ID
	} else {
		r.nextID++
		u.ID = "u1"
	}
	r.byEmail[u.Email] = u
	return nil
}

func (r *fakeUsers) SetVerificationOtp(_ context.Context, email string, otp entity.Otp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok || u.IsVerified {
		return repo.ErrNotFound
	}
	u.VerificationOtp = &otp
	return nil
}

func (r *fakeUsers) MarkVerified(_ context.Context, email, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok || u.IsVerified || !u.VerificationOtp.Matches(code) {
		return false, nil
	}
	u.IsVerified = true
	u.VerificationOtp = nil
	return true, nil
}

func (r *fakeUsers) SetResetOtp(_ context.Context, email string, otp entity.Otp) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok {
		return repo.ErrNotFound
	}
	u.ResetOtp = &otp
	u.IsResetVerified = false
	return nil
}

func (r *fakeUsers) ConfirmResetOtp(_ context.Context, email, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok || !u.ResetOtp.Matches(code) {
		return false, nil
	}
	u.IsResetVerified = true
	return true, nil
}

func (r *fakeUsers) UpdatePassword(_ context.Context, email, hash string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byEmail[email]
	if !ok || !u.IsResetVerified {
		return false, nil
	}
	u.PasswordHash = hash
	u.IsResetVerified = false
	return true, nil
}

type fakeBlacklist struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (b *fakeBlacklist) Add(_ context.Context, token string, _ time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.revoked[token] = true
	return nil
}

func (b *fakeBlacklist) Contains(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.revoked[token], nil
}

func (b *fakeBlacklist) DeleteExpired(context.Context, time.Time) (int64, error) { return 0, nil }

type capturingNotifier struct {
	mu       sync.Mutex
	lastCode string
}

func (n *capturingNotifier) SendOtp(_ context.Context, _, _, code, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lastCode = code
	return nil
}

func (n *capturingNotifier) code() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lastCode
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func setupAuthRoutes(t *testing.T) (*gin.Engine, *capturingNotifier) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	users := &fakeUsers{byEmail: map[string]*entity.User{}}
	blacklist := &fakeBlacklist{revoked: map[string]bool{}}
	notifier := &capturingNotifier{}
	svc := application.NewAuthService(users, blacklist, helpers.NewJWTManager("test-secret", time.Hour), notifier, nil, nil, 5*time.Minute)
	h := NewAuthHandler(svc)

	engine := gin.New()
	g := engine.Group("/api/users")
	g.POST("/register", h.Register)
	g.POST("/verify-otp", h.VerifyRegister)
	g.POST("/resend-otp", h.ResendOtp)
	g.POST("/login", h.Login)
	g.POST("/forgot-password", h.ForgotPassword)
	g.POST("/verify-reset-password", h.VerifyResetOtp)
	g.POST("/reset-password", h.ResetPassword)
	return engine, notifier
}

func postJSON(engine *gin.Engine, path string, body any) (*httptest.ResponseRecorder, envelope) {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func TestRegisterEndpoint(t *testing.T) {
	engine, notifier := setupAuthRoutes(t)

	w, env := postJSON(engine, "/api/users/register", gin.H{
		"email": "a@b.co", "name": "A", "phone": "0800", "password": "secret123",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Len(t, notifier.code(), 6)
}

func TestRegisterEndpointValidation(t *testing.T) {
	engine, _ := setupAuthRoutes(t)

	w, env := postJSON(engine, "/api/users/register", gin.H{
		"email": "not-an-email", "name": "A", "phone": "0800", "password": "short",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	assert.Contains(t, string(env.Error), "email")
	assert.Contains(t, string(env.Error), "password")
}

func TestVerifyRegisterEndpoint(t *testing.T) {
	engine, notifier := setupAuthRoutes(t)
	postJSON(engine, "/api/users/register", gin.H{
		"email": "a@b.co", "name": "A", "phone": "0800", "password": "secret123",
	})

	w, _ := postJSON(engine, "/api/users/verify-otp", gin.H{"email": "a@b.co", "otp": "000000"})
	if notifier.code() == "000000" {
		assert.Equal(t, http.StatusOK, w.Code)
	} else {
		assert.Equal(t, http.StatusBadRequest, w.Code)
	}

	w, _ = postJSON(engine, "/api/users/verify-otp", gin.H{"email": "a@b.co", "otp": notifier.code()})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLoginEndpoint(t *testing.T) {
	engine, notifier := setupAuthRoutes(t)
	postJSON(engine, "/api/users/register", gin.H{
		"email": "a@b.co", "name": "A", "phone": "0800", "password": "secret123",
	})

	// not verified yet
	w, _ := postJSON(engine, "/api/users/login", gin.H{"email": "a@b.co", "password": "secret123"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	postJSON(engine, "/api/users/verify-otp", gin.H{"email": "a@b.co", "otp": notifier.code()})

	w, env := postJSON(engine, "/api/users/login", gin.H{"email": "a@b.co", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.NotEmpty(t, data.Token)
	assert.Equal(t, "a@b.co", data.User.Email)

	// unknown account and wrong password are indistinguishable
	w1, env1 := postJSON(engine, "/api/users/login", gin.H{"email": "a@b.co", "password": "wrongpass"})
	w2, env2 := postJSON(engine, "/api/users/login", gin.H{"email": "nobody@b.co", "password": "whatever1"})
	assert.Equal(t, http.StatusUnauthorized, w1.Code)
	assert.Equal(t, http.StatusUnauthorized, w2.Code)
	assert.Equal(t, env1.Message, env2.Message)
}

func TestPasswordResetEndpoints(t *testing.T) {
	engine, notifier := setupAuthRoutes(t)
	postJSON(engine, "/api/users/register", gin.H{
		"email": "a@b.co", "name": "A", "phone": "0800", "password": "secret123",
	})
	postJSON(engine, "/api/users/verify-otp", gin.H{"email": "a@b.co", "otp": notifier.code()})

	// identical answer for unknown accounts
	w, _ := postJSON(engine, "/api/users/forgot-password", gin.H{"email": "nobody@b.co"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = postJSON(engine, "/api/users/forgot-password", gin.H{"email": "a@b.co"})
	assert.Equal(t, http.StatusOK, w.Code)

	// reset before confirming the code is refused
	w, _ = postJSON(engine, "/api/users/reset-password", gin.H{"email": "a@b.co", "newPassword": "newpass123"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = postJSON(engine, "/api/users/verify-reset-password", gin.H{"email": "a@b.co", "otp": notifier.code()})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = postJSON(engine, "/api/users/reset-password", gin.H{"email": "a@b.co", "newPassword": "newpass123"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = postJSON(engine, "/api/users/login", gin.H{"email": "a@b.co", "password": "newpass123"})
	assert.Equal(t, http.StatusOK, w.Code)
}
