package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/warungmbahmanto/backend-api/internal/domain/entity"
	"github.com/warungmbahmanto/backend-api/internal/domain/repository"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `
	id, email, name, phone, password_hash, is_verified,
	verification_otp, verification_otp_created_at,
	reset_password_otp, reset_otp_created_at, is_reset_password_verified,
	created_at, updated_at
`

func scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var (
		verifyCode *string
		verifyAt   *time.Time
		resetCode  *string
		resetAt    *time.Time
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.PasswordHash, &u.IsVerified,
		&verifyCode, &verifyAt,
		&resetCode, &resetAt, &u.IsResetVerified,
		&u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	// The schema keeps code and timestamp together; tolerate a half-set pair
	// from manual edits by treating it as no pending code.
	if verifyCode != nil && verifyAt != nil {
		u.VerificationOtp = &entity.Otp{Code: *verifyCode, IssuedAt: *verifyAt}
	}
	if resetCode != nil && resetAt != nil {
		u.ResetOtp = &entity.Otp{Code: *resetCode, IssuedAt: *resetAt}
	}
	return u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

// UpsertRegistration inserts the user or overwrites an existing unverified
// row in place. When the conflicting row is already verified the guarded
// update touches nothing and RETURNING yields no row; that surfaces as
// ErrNotFound so the caller can report the address as taken.
func (r *UserRepository) UpsertRegistration(ctx context.Context, u *entity.User) error {
	if u.VerificationOtp == nil {
		return errors.New("registration requires a pending verification code")
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, phone, password_hash, is_verified, verification_otp, verification_otp_created_at)
		VALUES ($1, $2, $3, $4, FALSE, $5, $6)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			password_hash = EXCLUDED.password_hash,
			verification_otp = EXCLUDED.verification_otp,
			verification_otp_created_at = EXCLUDED.verification_otp_created_at,
			updated_at = now()
		WHERE users.is_verified = FALSE
		RETURNING id, created_at, updated_at
	`, u.Email, u.Name, u.Phone, u.PasswordHash, u.VerificationOtp.Code, u.VerificationOtp.IssuedAt)

	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *UserRepository) SetVerificationOtp(ctx context.Context, email string, otp entity.Otp) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET verification_otp = $2, verification_otp_created_at = $3, updated_at = now()
		WHERE email = $1 AND is_verified = FALSE
	`, email, otp.Code, otp.IssuedAt)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) MarkVerified(ctx context.Context, email, code string) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET is_verified = TRUE, verification_otp = NULL, verification_otp_created_at = NULL, updated_at = now()
		WHERE email = $1 AND verification_otp = $2 AND is_verified = FALSE
	`, email, code)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *UserRepository) SetResetOtp(ctx context.Context, email string, otp entity.Otp) error {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET reset_password_otp = $2, reset_otp_created_at = $3, is_reset_password_verified = FALSE, updated_at = now()
		WHERE email = $1
	`, email, otp.Code, otp.IssuedAt)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) ConfirmResetOtp(ctx context.Context, email, code string) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET is_reset_password_verified = TRUE, updated_at = now()
		WHERE email = $1 AND reset_password_otp = $2
	`, email, code)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) (bool, error) {
	res, err := r.pool.Exec(ctx, `
		UPDATE users
		SET password_hash = $2,
			reset_password_otp = NULL, reset_otp_created_at = NULL, is_reset_password_verified = FALSE,
			updated_at = now()
		WHERE email = $1 AND is_reset_password_verified = TRUE
	`, email, passwordHash)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
