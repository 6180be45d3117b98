// Package auth implements trainer accounts: registration, login with JWT
// access and refresh tokens, email verification, password reset and logout.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gymbucket/gymbucket/internal/models"
	"github.com/gymbucket/gymbucket/internal/storage"
	"github.com/gymbucket/gymbucket/internal/validate"
)

// ResetTokenTTL is how long a password reset link stays valid.
const ResetTokenTTL = time.Hour

var (
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrAccountDisabled     = errors.New("account is disabled")
	ErrInvalidResetToken   = errors.New("invalid or expired reset token")
	ErrInvalidVerification = errors.New("invalid verification token")
	ErrAlreadyVerified     = errors.New("email already verified")
	ErrRevoked             = errors.New("token has been revoked")
)

// ValidationError carries form errors out of the service.
type ValidationError struct {
	Errors validate.Errors
}

func (e *ValidationError) Error() string { return e.Errors.Error() }

// UserStore is the account persistence the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.UserRecord) error
	GetUserByID(ctx context.Context, id int64) (*models.UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*models.UserRecord, error)
	GetUserByVerificationToken(ctx context.Context, token string) (*models.UserRecord, error)
	GetUserByResetToken(ctx context.Context, token string) (*models.UserRecord, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateUser(ctx context.Context, u *models.UserRecord) error
	TouchLastLogin(ctx context.Context, id int64, at time.Time) error
}

var _ UserStore = (*storage.DB)(nil)

// Notifier delivers account emails.
type Notifier interface {
	SendVerification(ctx context.Context, u models.User, token string) error
	SendPasswordReset(ctx context.Context, u models.User, token string) error
}

// LoginResult is returned by Login and Refresh. ExpiresIn is the access
// token lifetime in seconds.
type LoginResult struct {
	User         models.User `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"`
}

// Service implements the account operations.
type Service struct {
	store   UserStore
	tokens  *Tokens
	revoker Revoker
	notify  Notifier
	log     *slog.Logger
	now     func() time.Time
}

func NewService(store UserStore, tokens *Tokens, revoker Revoker, notify Notifier, log *slog.Logger) *Service {
	return &Service{store: store, tokens: tokens, revoker: revoker, notify: notify, log: log, now: time.Now}
}

// Register creates an unverified trainer account and mails the
// verification link. Mail failures are logged, not returned.
func (s *Service) Register(ctx context.Context, in validate.RegistrationInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	if errs := validate.Registration(in); !errs.OK() {
		return nil, &ValidationError{Errors: errs}
	}
	exists, err := s.store.EmailExists(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateEmail
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	rec := &models.UserRecord{
		User: models.User{
			Email:           strings.ToLower(in.Email),
			FirstName:       strings.TrimSpace(in.FirstName),
			LastName:        strings.TrimSpace(in.LastName),
			Role:            models.RoleTrainer,
			IsActive:        true,
			Phone:           strings.TrimSpace(in.Phone),
			Specializations: in.Specializations,
			Certifications:  in.Certifications,
			Experience:      in.Experience,
		},
		PasswordHash:       hash,
		VerificationToken:  uuid.NewString(),
		AcceptedNewsletter: in.AcceptedNewsletter,
	}
	if err := s.store.CreateUser(ctx, rec); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	s.log.Info("user registered", "user_id", rec.ID, "email", rec.Email)

	if err := s.notify.SendVerification(ctx, rec.User, rec.VerificationToken); err != nil {
		s.log.Error("sending verification email", "user_id", rec.ID, "error", err)
	}
	return &rec.User, nil
}

// Login checks credentials and issues tokens.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	rec, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(rec.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	if !rec.IsActive {
		return nil, ErrAccountDisabled
	}

	now := s.now()
	if err := s.store.TouchLastLogin(ctx, rec.ID, now); err != nil {
		s.log.Warn("updating last login", "user_id", rec.ID, "error", err)
	}
	rec.LastLogin = &now
	return s.issue(rec.User)
}

// Refresh exchanges a valid refresh token for a new token pair. The old
// refresh token is revoked.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	claims, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	rec, err := s.store.GetUserByEmail(ctx, claims.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if !rec.IsActive {
		return nil, ErrAccountDisabled
	}
	if claims.ID != "" {
		if err := s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt); err != nil {
			return nil, err
		}
	}
	return s.issue(rec.User)
}

func (s *Service) issue(u models.User) (*LoginResult, error) {
	access, refresh, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		User:         u,
		Token:        access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL() / time.Second),
	}, nil
}

// Authenticate verifies an access token and rejects revoked ones.
func (s *Service) Authenticate(ctx context.Context, accessToken string) (*Claims, error) {
	claims, err := s.tokens.ParseAccess(accessToken)
	if err != nil {
		return nil, err
	}
	if err := s.checkRevoked(ctx, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) checkRevoked(ctx context.Context, c *Claims) error {
	if c.ID == "" {
		return nil
	}
	revoked, err := s.revoker.IsRevoked(ctx, c.ID)
	if err != nil {
		return err
	}
	if revoked {
		return ErrRevoked
	}
	return nil
}

// Logout revokes the presented access token until it expires.
func (s *Service) Logout(ctx context.Context, c *Claims) error {
	if c.ID == "" {
		return nil
	}
	return s.revoker.Revoke(ctx, c.ID, c.ExpiresAt)
}

// Me returns the profile of the authenticated user.
func (s *Service) Me(ctx context.Context, userID int64) (*models.User, error) {
	rec, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &rec.User, nil
}

// CheckEmail reports whether email is already registered.
func (s *Service) CheckEmail(ctx context.Context, email string) (bool, error) {
	return s.store.EmailExists(ctx, strings.TrimSpace(email))
}

// ForgotPassword stores a one-hour reset token and mails it when the
// account exists. Unknown addresses are not reported, so callers always
// answer with success.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	rec, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, storage.ErrNotFound) {
		s.log.Info("password reset requested for unknown email")
		return nil
	}
	if err != nil {
		return err
	}

	expiry := s.now().Add(ResetTokenTTL)
	rec.ResetToken = uuid.NewString()
	rec.ResetTokenExpiry = &expiry
	if err := s.store.UpdateUser(ctx, rec); err != nil {
		return err
	}
	if err := s.notify.SendPasswordReset(ctx, rec.User, rec.ResetToken); err != nil {
		s.log.Error("sending password reset email", "user_id", rec.ID, "error", err)
	}
	return nil
}

// ResetPassword sets a new password using a reset token.
func (s *Service) ResetPassword(ctx context.Context, token, password, confirm string) error {
	var errs validate.Errors
	if password != confirm {
		errs = append(errs, "passwords do not match")
	}
	if !validate.StrongPassword(password) {
		errs = append(errs, "password must be at least 8 characters and contain upper and lower case letters, a digit and a special character")
	}
	if !errs.OK() {
		return &ValidationError{Errors: errs}
	}

	rec, err := s.store.GetUserByResetToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && (rec.ResetTokenExpiry == nil || !rec.ResetTokenExpiry.After(s.now()))) {
		return ErrInvalidResetToken
	}
	if err != nil {
		return err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	rec.PasswordHash = hash
	rec.ResetToken = ""
	rec.ResetTokenExpiry = nil
	if err := s.store.UpdateUser(ctx, rec); err != nil {
		return fmt.Errorf("saving new password: %w", err)
	}
	s.log.Info("password reset", "user_id", rec.ID)
	return nil
}

// VerifyEmail marks the account holding token as verified.
func (s *Service) VerifyEmail(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidVerification
	}
	rec, err := s.store.GetUserByVerificationToken(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrInvalidVerification
	}
	if err != nil {
		return err
	}
	rec.EmailVerified = true
	rec.VerificationToken = ""
	return s.store.UpdateUser(ctx, rec)
}

// ResendVerification issues a new verification token and mails it.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	rec, err := s.store.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	if rec.EmailVerified {
		return ErrAlreadyVerified
	}
	rec.VerificationToken = uuid.NewString()
	if err := s.store.UpdateUser(ctx, rec); err != nil {
		return err
	}
	return s.notify.SendVerification(ctx, rec.User, rec.VerificationToken)
}
