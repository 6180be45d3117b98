package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/gymbucket/gymbucket/internal/models"
)

// ErrNotLoggedIn is returned when no usable session is stored.
var ErrNotLoggedIn = errors.New("not logged in; run `gymbucket-cli login`")

// TokenExpired reports whether the JWT's exp claim is at or before now.
// Tokens that cannot be decoded or carry no exp count as expired. The
// signature is not checked; the server does that.
func TokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return true
	}
	return !now.Before(time.Unix(int64(exp), 0))
}

// Session ties the API client to the stored tokens.
type Session struct {
	API   *API
	store *SessionStore
	now   func() time.Time
}

// NewSession returns a session over api backed by store.
func NewSession(api *API, store *SessionStore) *Session {
	return &Session{API: api, store: store, now: time.Now}
}

// Save stores a login or refresh response. With remember set the tokens go
// to the durable store, otherwise they last until the temp dir is wiped.
func (s *Session) Save(res *LoginResponse, remember bool) error {
	if err := s.store.Clear(); err != nil {
		return err
	}
	user, err := json.Marshal(res.User)
	if err != nil {
		return fmt.Errorf("encoding user: %w", err)
	}
	for _, kv := range [][2]string{
		{KeyToken, res.Token},
		{KeyRefreshToken, res.RefreshToken},
		{KeyUser, string(user)},
		{KeyRememberMe, strconv.FormatBool(remember)},
	} {
		if err := s.store.Set(remember, kv[0], kv[1]); err != nil {
			return err
		}
	}
	s.API.SetToken(res.Token)
	return nil
}

// Restore loads the stored session into the API client and returns the
// stored user. An expired access token is refreshed when the refresh token
// is still valid; otherwise the stored session is cleared.
func (s *Session) Restore(ctx context.Context) (*models.User, error) {
	token, ok, err := s.store.Get(KeyToken)
	if err != nil {
		return nil, err
	}
	if !ok || token == "" {
		return nil, ErrNotLoggedIn
	}

	if TokenExpired(token, s.now()) {
		if err := s.refresh(ctx); err != nil {
			_ = s.store.Clear()
			return nil, ErrNotLoggedIn
		}
	} else {
		s.API.SetToken(token)
	}

	u, err := s.User()
	if err != nil {
		_ = s.store.Clear()
		s.API.SetToken("")
		return nil, ErrNotLoggedIn
	}
	return u, nil
}

// User returns the stored profile.
func (s *Session) User() (*models.User, error) {
	raw, ok, err := s.store.Get(KeyUser)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotLoggedIn
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decoding stored user: %w", err)
	}
	return &u, nil
}

func (s *Session) remembered() bool {
	v, _, _ := s.store.Get(KeyRememberMe)
	return v == "true"
}

func (s *Session) refresh(ctx context.Context) error {
	rt, ok, err := s.store.Get(KeyRefreshToken)
	if err != nil {
		return err
	}
	if !ok || TokenExpired(rt, s.now()) {
		return ErrNotLoggedIn
	}
	res, err := s.API.Refresh(ctx, rt)
	if err != nil {
		return err
	}
	return s.Save(res, s.remembered())
}

// Do runs fn and, if the server answers 401, refreshes the tokens once and
// retries.
func (s *Session) Do(ctx context.Context, fn func(context.Context) error) error {
	err := fn(ctx)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.Unauthorized() {
		return err
	}
	if rerr := s.refresh(ctx); rerr != nil {
		_ = s.store.Clear()
		return ErrNotLoggedIn
	}
	return fn(ctx)
}

// Logout revokes the token on the server, best effort, and always clears
// the local session.
func (s *Session) Logout(ctx context.Context) error {
	serverErr := s.API.Logout(ctx)
	if err := s.store.Clear(); err != nil {
		return err
	}
	s.API.SetToken("")
	var apiErr *APIError
	if errors.As(serverErr, &apiErr) && apiErr.Unauthorized() {
		return nil
	}
	return serverErr
}
