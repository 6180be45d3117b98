package storage

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/gymbucket/gymbucket/internal/models"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, is_active, avatar, phone,
	specializations, certifications, experience, email_verified, verification_token,
	reset_token, reset_token_expiry, accepted_newsletter, created_at, last_login`

func scanUser(row pgx.Row) (*models.UserRecord, error) {
	var u models.UserRecord
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.Role,
		&u.IsActive, &u.Avatar, &u.Phone, &u.Specializations, &u.Certifications, &u.Experience,
		&u.EmailVerified, &u.VerificationToken, &u.ResetToken, &u.ResetTokenExpiry,
		&u.AcceptedNewsletter, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts u and fills in its ID and CreatedAt. A taken email
// returns ErrDuplicate.
func (db *DB) CreateUser(ctx context.Context, u *models.UserRecord) error {
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO users (email, password_hash, first_name, last_name, role, is_active, phone,
		 specializations, certifications, experience, email_verified, verification_token, accepted_newsletter)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 RETURNING id, created_at`,
		strings.ToLower(u.Email), u.PasswordHash, u.FirstName, u.LastName, u.Role, u.IsActive, u.Phone,
		nonNil(u.Specializations), nonNil(u.Certifications), u.Experience, u.EmailVerified,
		u.VerificationToken, u.AcceptedNewsletter).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return wrap("inserting user", err)
	}
	return nil
}

// GetUserByID returns the user with the given ID.
func (db *DB) GetUserByID(ctx context.Context, id int64) (*models.UserRecord, error) {
	u, err := scanUser(db.Pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("querying user", err)
	}
	return u, nil
}

// GetUserByEmail looks a user up case-insensitively.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.UserRecord, error) {
	u, err := scanUser(db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, wrap("querying user by email", err)
	}
	return u, nil
}

// GetUserByVerificationToken finds the unverified account holding token.
func (db *DB) GetUserByVerificationToken(ctx context.Context, token string) (*models.UserRecord, error) {
	u, err := scanUser(db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE verification_token = $1 AND verification_token <> ''`, token))
	if err != nil {
		return nil, wrap("querying user by verification token", err)
	}
	return u, nil
}

// GetUserByResetToken finds the account holding a password reset token.
// Expiry is checked by the caller.
func (db *DB) GetUserByResetToken(ctx context.Context, token string) (*models.UserRecord, error) {
	u, err := scanUser(db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token = $1 AND reset_token <> ''`, token))
	if err != nil {
		return nil, wrap("querying user by reset token", err)
	}
	return u, nil
}

// EmailExists reports whether an account uses email.
func (db *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE lower(email) = lower($1))`, email).Scan(&exists)
	if err != nil {
		return false, wrap("checking email", err)
	}
	return exists, nil
}

// UpdateUser writes the mutable account fields: profile, password,
// verification state and one-time tokens.
func (db *DB) UpdateUser(ctx context.Context, u *models.UserRecord) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE users SET first_name = $2, last_name = $3, is_active = $4, avatar = $5, phone = $6,
		 specializations = $7, certifications = $8, experience = $9, password_hash = $10,
		 email_verified = $11, verification_token = $12, reset_token = $13, reset_token_expiry = $14,
		 last_login = $15
		 WHERE id = $1`,
		u.ID, u.FirstName, u.LastName, u.IsActive, u.Avatar, u.Phone,
		nonNil(u.Specializations), nonNil(u.Certifications), u.Experience, u.PasswordHash,
		u.EmailVerified, u.VerificationToken, u.ResetToken, u.ResetTokenExpiry, u.LastLogin)
	if err != nil {
		return wrap("updating user", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin records a successful login.
func (db *DB) TouchLastLogin(ctx context.Context, id int64, at time.Time) error {
	if _, err := db.Pool.Exec(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at); err != nil {
		return wrap("updating last login", err)
	}
	return nil
}

// nonNil keeps NOT NULL array columns from receiving NULL.
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
