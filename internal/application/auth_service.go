package application

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/warungmbahmanto/backend-api/internal/domain/entity"
	repo "github.com/warungmbahmanto/backend-api/internal/domain/repository"
	"github.com/warungmbahmanto/backend-api/pkg/helpers"
	"github.com/warungmbahmanto/backend-api/pkg/mailer"
)

// Notifier dispatches a one-time code to an address. Dispatch is
// fire-and-forget past this interface: a nil return means the code was handed
// to the transport, not that it arrived.
type Notifier interface {
	SendOtp(ctx context.Context, to, name, code, purpose string) error
}

// AuthService is the credential lifecycle engine: registration, email
// verification, login, password reset, and logout. All state lives in the
// store; the service itself is safe for concurrent use.
type AuthService struct {
	Users     repo.UserRepository
	Blacklist repo.TokenBlacklist
	JWT       *helpers.JWTManager
	Notifier  Notifier
	Redis     *redis.Client // optional blacklist fast path
	Logger    *logrus.Logger
	OtpTTL    time.Duration

	now func() time.Time
}

func NewAuthService(users repo.UserRepository, blacklist repo.TokenBlacklist, jwt *helpers.JWTManager, notifier Notifier, rdb *redis.Client, logger *logrus.Logger, otpTTL time.Duration) *AuthService {
	return &AuthService{
		Users:     users,
		Blacklist: blacklist,
		JWT:       jwt,
		Notifier:  notifier,
		Redis:     rdb,
		Logger:    logger,
		OtpTTL:    otpTTL,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Email    string
	Name     string
	Phone    string
	Password string
}

// PublicProfile is the client-facing view of a user; it never carries the
// password hash or pending codes.
type PublicProfile struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

func publicProfile(u *entity.User) PublicProfile {
	return PublicProfile{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Phone:      u.Phone,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      PublicProfile
}

// Register creates the account, or silently overwrites a previous unverified
// attempt for the same email, then dispatches a fresh verification code. The
// response does not reveal which of the two happened. The user row is
// persisted before dispatch; a notifier failure therefore leaves a registered
// but unnotified account, recoverable via resend.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) error {
	existing, err := s.Users.GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, repo.ErrNotFound) {
		return err
	}
	if existing != nil && existing.IsVerified {
		return ErrEmailTaken
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return err
	}
	code, err := helpers.GenOTPCode()
	if err != nil {
		return err
	}

	u := &entity.User{
		Email:           in.Email,
		Name:            in.Name,
		Phone:           in.Phone,
		PasswordHash:    hash,
		VerificationOtp: &entity.Otp{Code: code, IssuedAt: s.now()},
	}
	if err := s.Users.UpsertRegistration(ctx, u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// A verified row appeared between the check and the upsert.
			return ErrEmailTaken
		}
		return err
	}

	if err := s.Notifier.SendOtp(ctx, u.Email, u.Name, code, mailer.PurposeVerification); err != nil {
		s.logError("otp dispatch failed", err, logrus.Fields{"email": u.Email})
		return ErrDeliveryFailed
	}
	return nil
}

// VerifyRegistration confirms the pending code and flips the account to
// verified. The final flip is conditional on the stored state, so a stale
// decision loses against a concurrent mutation.
func (s *AuthService) VerifyRegistration(ctx context.Context, email, code string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.IsVerified {
		return ErrAlreadyVerified
	}
	if !u.VerificationOtp.Matches(code) {
		return ErrOtpMismatch
	}
	if u.VerificationOtp.ExpiredAt(s.now(), s.OtpTTL) {
		return ErrOtpExpired
	}

	ok, err := s.Users.MarkVerified(ctx, email, code)
	if err != nil {
		return err
	}
	if !ok {
		// The code changed underneath us (resend or racing verify).
		return ErrOtpMismatch
	}
	return nil
}

// ResendRegistrationOtp replaces the pending code; the previous one becomes
// permanently invalid.
func (s *AuthService) ResendRegistrationOtp(ctx context.Context, email string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.IsVerified {
		return ErrAlreadyVerified
	}

	code, err := helpers.GenOTPCode()
	if err != nil {
		return err
	}
	if err := s.Users.SetVerificationOtp(ctx, email, entity.Otp{Code: code, IssuedAt: s.now()}); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	if err := s.Notifier.SendOtp(ctx, u.Email, u.Name, code, mailer.PurposeVerification); err != nil {
		s.logError("otp dispatch failed", err, logrus.Fields{"email": u.Email})
		return ErrDeliveryFailed
	}
	return nil
}

// Login checks the password and issues a session token. An unknown email and
// a wrong password return the same error so callers cannot probe which
// addresses exist.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsVerified {
		return nil, ErrNotVerified
	}

	token, exp, err := s.JWT.Generate(u.ID, u.Email, u.Name)
	if err != nil {
		s.logError("token generation failed", err, logrus.Fields{"user_id": u.ID})
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: publicProfile(u)}, nil
}

// ForgotPassword starts a password reset. The outcome is identical whether or
// not the email exists; even a dispatch failure is only logged, so the
// response never discloses account existence.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return err
	}

	code, err := helpers.GenOTPCode()
	if err != nil {
		return err
	}
	if err := s.Users.SetResetOtp(ctx, email, entity.Otp{Code: code, IssuedAt: s.now()}); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := s.Notifier.SendOtp(ctx, u.Email, u.Name, code, mailer.PurposePasswordReset); err != nil {
		s.logError("reset otp dispatch failed", err, logrus.Fields{"email": u.Email})
	}
	return nil
}

// VerifyResetOtp confirms the reset code. Only the confirmation flag is set;
// the code itself stays until the final password update.
func (s *AuthService) VerifyResetOtp(ctx context.Context, email, code string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if u.ResetOtp == nil {
		return ErrUserNotFound
	}
	if !u.ResetOtp.Matches(code) {
		return ErrOtpMismatch
	}
	if u.ResetOtp.ExpiredAt(s.now(), s.OtpTTL) {
		return ErrOtpExpired
	}

	ok, err := s.Users.ConfirmResetOtp(ctx, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrOtpMismatch
	}
	return nil
}

// ResetPassword stores the new password. It requires a confirmed reset and
// consumes the confirmation, so a second call must re-verify.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword string) error {
	u, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrResetNotConfirmed
		}
		return err
	}
	if !u.IsResetVerified {
		return ErrResetNotConfirmed
	}

	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return err
	}
	ok, err := s.Users.UpdatePassword(ctx, email, hash)
	if err != nil {
		return err
	}
	if !ok {
		return ErrResetNotConfirmed
	}
	return nil
}

// Logout revokes the token for the remainder of its natural lifetime. The
// expiry claim is read without signature verification only to bound how long
// the blacklist entry must live.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrNoToken
	}
	exp := helpers.ExpiryOf(token, s.JWT.TTL)
	if err := s.Blacklist.Add(ctx, token, exp); err != nil {
		return err
	}
	if s.Redis != nil {
		if ttl := exp.Sub(s.now()); ttl > 0 {
			if err := s.Redis.Set(ctx, helpers.KeyBlacklistedToken(token), "1", ttl).Err(); err != nil {
				s.logError("blacklist cache set failed", err, nil)
			}
		}
	}
	return nil
}

// GetProfile resolves a user by id for the protected profile endpoint.
func (s *AuthService) GetProfile(ctx context.Context, id string) (PublicProfile, error) {
	u, err := s.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return PublicProfile{}, ErrUserNotFound
		}
		return PublicProfile{}, err
	}
	return publicProfile(u), nil
}

func (s *AuthService) logError(msg string, err error, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	if fields == nil {
		fields = logrus.Fields{}
	}
	s.Logger.WithError(err).WithFields(fields).Error(msg)
}
