package application

import "errors"

// Lifecycle and catalog errors surfaced to the HTTP layer. Handlers map each
// to a status code; anything else is treated as an internal store failure.
var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyVerified    = errors.New("account already verified")
	ErrOtpMismatch        = errors.New("incorrect otp")
	ErrOtpExpired         = errors.New("otp expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrResetNotConfirmed  = errors.New("password reset not confirmed")
	ErrNoToken            = errors.New("no token provided")
	ErrDeliveryFailed     = errors.New("failed to send otp email")

	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
)
