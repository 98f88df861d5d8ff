package entity

import (
	"time"
)

// Otp is a pending one-time code together with its issuance time. A nil *Otp
// means no code is pending; a non-nil value always carries both fields, so a
// code without a timestamp is unrepresentable.
type Otp struct {
	Code     string
	IssuedAt time.Time
}

// Matches reports whether the submitted code equals the pending one.
// Comparison is exact string equality, no normalization.
func (o *Otp) Matches(code string) bool {
	return o != nil && o.Code == code
}

// ExpiredAt reports whether the code is older than ttl at the given instant.
func (o *Otp) ExpiredAt(now time.Time, ttl time.Duration) bool {
	return o == nil || now.Sub(o.IssuedAt) > ttl
}

// User is the aggregate root for the account domain.
// PasswordHash holds a bcrypt hash and is never serialized to clients.
type User struct {
	ID           string
	Email        string
	Name         string
	Phone        string
	PasswordHash string

	IsVerified      bool
	VerificationOtp *Otp

	ResetOtp        *Otp
	IsResetVerified bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
