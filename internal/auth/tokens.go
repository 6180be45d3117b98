package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/gymbucket/gymbucket/internal/models"
)

// MinSecretLen is the shortest accepted HS512 signing secret, in bytes.
const MinSecretLen = 64

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// ErrInvalidToken is returned for tokens that are malformed, expired,
// wrongly signed or of the wrong kind.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the verified content of an access or refresh token.
type Claims struct {
	ID        string // jti
	Email     string // sub
	UserID    int64
	Role      models.Role
	ExpiresAt time.Time
}

// Tokens issues and verifies HS512 JWTs.
type Tokens struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokens returns a token issuer. The secret must be at least
// MinSecretLen bytes.
func NewTokens(secret string, accessTTL, refreshTTL time.Duration) (*Tokens, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", MinSecretLen)
	}
	return &Tokens{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// AccessTTL is the lifetime of access tokens.
func (t *Tokens) AccessTTL() time.Duration { return t.accessTTL }

// Issue returns a fresh access token and refresh token for u.
func (t *Tokens) Issue(u models.User) (access, refresh string, err error) {
	now := t.now()
	access, err = t.sign(jwt.MapClaims{
		"sub":    u.Email,
		"userId": u.ID,
		"role":   string(u.Role),
		"type":   typeAccess,
		"jti":    uuid.NewString(),
		"iat":    now.Unix(),
		"exp":    now.Add(t.accessTTL).Unix(),
	})
	if err != nil {
		return "", "", err
	}
	refresh, err = t.sign(jwt.MapClaims{
		"sub":  u.Email,
		"type": typeRefresh,
		"jti":  uuid.NewString(),
		"iat":  now.Unix(),
		"exp":  now.Add(t.refreshTTL).Unix(),
	})
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (t *Tokens) sign(c jwt.MapClaims) (string, error) {
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS512, c).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return s, nil
}

// ParseAccess verifies an access token. Refresh tokens are rejected.
func (t *Tokens) ParseAccess(s string) (*Claims, error) {
	return t.parse(s, typeAccess)
}

// ParseRefresh verifies a refresh token. Access tokens are rejected.
func (t *Tokens) ParseRefresh(s string) (*Claims, error) {
	return t.parse(s, typeRefresh)
}

func (t *Tokens) parse(s, wantType string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}))
	token, err := parser.Parse(s, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if typ, _ := mc["type"].(string); typ != wantType {
		return nil, fmt.Errorf("%w: not a %s token", ErrInvalidToken, wantType)
	}

	c := &Claims{}
	c.ID, _ = mc["jti"].(string)
	c.Email, _ = mc["sub"].(string)
	if c.Email == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if uid, ok := mc["userId"].(float64); ok {
		c.UserID = int64(uid)
	}
	if role, ok := mc["role"].(string); ok {
		c.Role = models.Role(role)
	}
	if exp, ok := mc["exp"].(float64); ok {
		c.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return c, nil
}
