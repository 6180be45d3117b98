// Package client talks to the GymBucket server from the terminal and keeps
// the login session between invocations.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gymbucket/gymbucket/internal/calendar"
	"github.com/gymbucket/gymbucket/internal/models"
)

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	Status   int
	Message  string
	Errors   []string
	Conflict *models.Training
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if len(e.Errors) > 0 {
		msg += ": " + strings.Join(e.Errors, "; ")
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, msg)
}

// Unauthorized reports whether the server rejected the credentials.
func (e *APIError) Unauthorized() bool { return e.Status == http.StatusUnauthorized }

// LoginResponse is the body of a successful login or refresh.
type LoginResponse struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message"`
	User         models.User `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"`
}

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	FirstName        string   `json:"firstName"`
	LastName         string   `json:"lastName"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone,omitempty"`
	Password         string   `json:"password"`
	ConfirmPassword  string   `json:"confirmPassword"`
	Specializations  []string `json:"specializations,omitempty"`
	AcceptTerms      bool     `json:"acceptTerms"`
	AcceptNewsletter bool     `json:"acceptNewsletter"`
}

// TrainingQuery narrows ListTrainings. Empty fields do not filter.
type TrainingQuery struct {
	From   string
	To     string
	Client string
	Status models.Status
}

// CheckResult is the answer of the conflict preview endpoint.
type CheckResult struct {
	Valid    bool             `json:"valid"`
	Errors   []string         `json:"errors"`
	Conflict *models.Training `json:"conflict"`
	EndTime  string           `json:"endTime"`
}

// API is a REST client for the GymBucket server.
type API struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// NewAPI creates a client targeting the given base URL.
func NewAPI(baseURL string) *API {
	return &API{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken sets the bearer access token sent with every request.
func (a *API) SetToken(token string) { a.token = token }

func (a *API) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	u := a.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		var env struct {
			Message  string           `json:"message"`
			Errors   []string         `json:"errors"`
			Conflict *models.Training `json:"conflict"`
		}
		if json.Unmarshal(data, &env) == nil {
			apiErr.Message = env.Message
			apiErr.Errors = env.Errors
			apiErr.Conflict = env.Conflict
		} else {
			apiErr.Message = strings.TrimSpace(string(data))
		}
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// Login exchanges credentials for tokens. It does not change the client's
// token; callers store the result through a Session.
func (a *API) Login(ctx context.Context, email, password string, remember bool) (*LoginResponse, error) {
	var res LoginResponse
	err := a.do(ctx, http.MethodPost, "/api/auth/login", nil, map[string]any{
		"email": email, "password": password, "rememberMe": remember,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Register creates a trainer account.
func (a *API) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	var res struct {
		User models.User `json:"user"`
	}
	if err := a.do(ctx, http.MethodPost, "/api/auth/register", nil, req, &res); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Refresh exchanges a refresh token for a new token pair.
func (a *API) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	var res LoginResponse
	err := a.do(ctx, http.MethodPost, "/api/auth/refresh", nil, map[string]string{"refreshToken": refreshToken}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout revokes the current access token on the server.
func (a *API) Logout(ctx context.Context) error {
	return a.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil, nil)
}

// ForgotPassword asks the server to mail a reset link.
func (a *API) ForgotPassword(ctx context.Context, email string) error {
	return a.do(ctx, http.MethodPost, "/api/auth/forgot-password", nil, map[string]string{"email": email}, nil)
}

// Me returns the logged-in user's profile.
func (a *API) Me(ctx context.Context) (*models.User, error) {
	var u models.User
	if err := a.do(ctx, http.MethodGet, "/api/me", nil, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListTrainings returns the trainer's trainings matching q.
func (a *API) ListTrainings(ctx context.Context, q TrainingQuery) ([]models.Training, error) {
	params := url.Values{}
	setIf(params, "from", q.From)
	setIf(params, "to", q.To)
	setIf(params, "client", q.Client)
	setIf(params, "status", string(q.Status))

	var list []models.Training
	if err := a.do(ctx, http.MethodGet, "/api/trainings", params, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateTraining books a training.
func (a *API) CreateTraining(ctx context.Context, in models.TrainingInput) (*models.Training, error) {
	var t models.Training
	if err := a.do(ctx, http.MethodPost, "/api/trainings", nil, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTraining removes a training.
func (a *API) DeleteTraining(ctx context.Context, id uuid.UUID) error {
	return a.do(ctx, http.MethodDelete, "/api/trainings/"+id.String(), nil, nil, nil)
}

// CheckTraining previews validation and conflicts for a proposed booking.
func (a *API) CheckTraining(ctx context.Context, in models.TrainingInput, exclude uuid.UUID) (*CheckResult, error) {
	body := struct {
		models.TrainingInput
		ExcludeID uuid.UUID `json:"excludeId"`
	}{in, exclude}
	var res CheckResult
	if err := a.do(ctx, http.MethodPost, "/api/trainings/check", nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Month returns the month grid containing date (YYYY-MM-DD, empty for
// today).
func (a *API) Month(ctx context.Context, date string) (*calendar.Grid, error) {
	params := url.Values{}
	setIf(params, "date", date)
	var g calendar.Grid
	if err := a.do(ctx, http.MethodGet, "/api/calendar/month", params, nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Week returns the Monday-first week containing date.
func (a *API) Week(ctx context.Context, date string) ([7]calendar.WeekDay, error) {
	params := url.Values{}
	setIf(params, "date", date)
	var week [7]calendar.WeekDay
	err := a.do(ctx, http.MethodGet, "/api/calendar/week", params, nil, &week)
	return week, err
}

// ListPlans returns the workout plans visible to the user. params may
// carry search, category, difficulty, muscleGroup and mine filters.
func (a *API) ListPlans(ctx context.Context, params url.Values) ([]models.WorkoutPlan, error) {
	var list []models.WorkoutPlan
	if err := a.do(ctx, http.MethodGet, "/api/workout-plans", params, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetPlan returns one plan with exercise details attached.
func (a *API) GetPlan(ctx context.Context, id uuid.UUID) (*models.WorkoutPlan, error) {
	var p models.WorkoutPlan
	if err := a.do(ctx, http.MethodGet, "/api/workout-plans/"+id.String(), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListExercises returns the exercise catalogue. params may carry search,
// muscleGroup, equipment and difficulty filters.
func (a *API) ListExercises(ctx context.Context, params url.Values) ([]models.Exercise, error) {
	var list []models.Exercise
	if err := a.do(ctx, http.MethodGet, "/api/exercises", params, nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func setIf(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}
