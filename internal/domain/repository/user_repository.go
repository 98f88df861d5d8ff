package repository

import (
	"context"
	"errors"

	"github.com/warungmbahmanto/backend-api/internal/domain/entity"
)

// ErrNotFound is returned by all repositories when no row matches.
var ErrNotFound = errors.New("not found")

// UserRepository is the credential store adapter. Users are keyed by email
// (unique) and id.
//
// The conditional mutators (MarkVerified, ConfirmResetOtp, UpdatePassword)
// only apply when the row is still in the expected prior state and report
// whether a row was updated, so two racing confirmations cannot both win.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)

	// UpsertRegistration creates the user, or overwrites name, phone,
	// password and the pending verification code of an existing unverified
	// row in a single statement. The caller must ensure no verified user
	// exists for the email; the unique constraint is the backstop.
	UpsertRegistration(ctx context.Context, u *entity.User) error

	// SetVerificationOtp replaces the pending registration code.
	SetVerificationOtp(ctx context.Context, email string, otp entity.Otp) error

	// MarkVerified flips is_verified and clears the verification code,
	// provided the stored code still equals code and the row is unverified.
	MarkVerified(ctx context.Context, email, code string) (bool, error)

	// SetResetOtp stores a fresh reset code and drops any prior confirmation.
	SetResetOtp(ctx context.Context, email string, otp entity.Otp) error

	// ConfirmResetOtp sets is_reset_password_verified, provided the stored
	// reset code still equals code. The code itself stays until the final
	// password update.
	ConfirmResetOtp(ctx context.Context, email, code string) (bool, error)

	// UpdatePassword stores the new hash and clears the whole reset state,
	// provided the reset was confirmed.
	UpdatePassword(ctx context.Context, email, passwordHash string) (bool, error)
}
