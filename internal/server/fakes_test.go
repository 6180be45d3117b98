package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gymbucket/gymbucket/internal/auth"
	"github.com/gymbucket/gymbucket/internal/calendar"
	"github.com/gymbucket/gymbucket/internal/models"
	"github.com/gymbucket/gymbucket/internal/storage"
	"github.com/gymbucket/gymbucket/internal/validate"
)

// fakeStore is an in-memory Store with the same ownership and conflict
// rules as the PostgreSQL implementation.
type fakeStore struct {
	mu        sync.Mutex
	trainings map[uuid.UUID]models.Training
	plans     map[uuid.UUID]models.WorkoutPlan
	exercises []models.Exercise
	clients   []models.Client
	pingErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		trainings: make(map[uuid.UUID]models.Training),
		plans:     make(map[uuid.UUID]models.WorkoutPlan),
		exercises: []models.Exercise{
			{ID: "squat", Name: "Back Squat", MuscleGroups: []string{"legs", "glutes"}, Equipment: []string{"barbell", "rack"}, Difficulty: "intermediate"},
			{ID: "pushup", Name: "Push-up", MuscleGroups: []string{"chest"}, Equipment: []string{"bodyweight"}, Difficulty: "beginner"},
		},
	}
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) ListTrainings(_ context.Context, trainerID int64, flt storage.TrainingFilter) ([]models.Training, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Training
	for _, t := range f.trainings {
		if t.TrainerID != trainerID {
			continue
		}
		if flt.From != "" && t.Date < flt.From || flt.To != "" && t.Date > flt.To {
			continue
		}
		if flt.Status != "" && t.Status != flt.Status {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].StartTime < out[j].StartTime
	})
	if flt.Client != "" {
		out = calendar.Filter(out, flt.Client, "")
	}
	return out, nil
}

func (f *fakeStore) ListTrainingsForDate(ctx context.Context, trainerID int64, date string) ([]models.Training, error) {
	return f.ListTrainings(ctx, trainerID, storage.TrainingFilter{From: date, To: date})
}

func (f *fakeStore) GetTraining(_ context.Context, trainerID int64, id uuid.UUID) (*models.Training, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trainings[id]
	if !ok || t.TrainerID != trainerID {
		return nil, storage.ErrNotFound
	}
	return &t, nil
}

func (f *fakeStore) book(t *models.Training) error {
	var sameDay []models.Training
	for _, o := range f.trainings {
		if o.TrainerID == t.TrainerID && o.Date == t.Date {
			sameDay = append(sameDay, o)
		}
	}
	hit, err := calendar.FindConflict(sameDay, calendar.Candidate{
		Date: t.Date, StartTime: t.StartTime, Duration: t.Duration, ExcludeID: t.ID,
	})
	if err != nil {
		return err
	}
	if hit != nil {
		return &storage.ConflictError{With: *hit}
	}
	f.trainings[t.ID] = *t
	return nil
}

func (f *fakeStore) CreateTraining(_ context.Context, t *models.Training) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	return f.book(t)
}

func (f *fakeStore) UpdateTraining(_ context.Context, t *models.Training) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if old, ok := f.trainings[t.ID]; !ok || old.TrainerID != t.TrainerID {
		return storage.ErrNotFound
	}
	t.UpdatedAt = time.Now()
	return f.book(t)
}

func (f *fakeStore) DeleteTraining(_ context.Context, trainerID int64, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.trainings[id]; !ok || t.TrainerID != trainerID {
		return storage.ErrNotFound
	}
	delete(f.trainings, id)
	return nil
}

func (f *fakeStore) ListPlans(_ context.Context, viewerID int64) ([]models.WorkoutPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.WorkoutPlan{}
	for _, p := range f.plans {
		if p.IsPublic || p.CreatedBy == viewerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetPlan(_ context.Context, viewerID int64, id uuid.UUID) (*models.WorkoutPlan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok || !p.IsPublic && p.CreatedBy != viewerID {
		return nil, storage.ErrNotFound
	}
	return &p, nil
}

func (f *fakeStore) CreatePlan(_ context.Context, p *models.WorkoutPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedDate = "2026-03-18"
	p.LastModified = p.CreatedDate
	f.plans[p.ID] = *p
	return nil
}

func (f *fakeStore) UpdatePlan(_ context.Context, p *models.WorkoutPlan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.plans[p.ID]
	if !ok || old.CreatedBy != p.CreatedBy {
		return storage.ErrNotFound
	}
	p.CreatedDate = old.CreatedDate
	p.LastModified = "2026-03-18"
	p.ClientAssignments = old.ClientAssignments
	f.plans[p.ID] = *p
	return nil
}

func (f *fakeStore) DeletePlan(_ context.Context, ownerID int64, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.plans[id]; !ok || p.CreatedBy != ownerID {
		return storage.ErrNotFound
	}
	delete(f.plans, id)
	return nil
}

func (f *fakeStore) AssignPlan(_ context.Context, ownerID int64, id uuid.UUID, clients []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.plans[id]
	if !ok || p.CreatedBy != ownerID {
		return storage.ErrNotFound
	}
	p.ClientAssignments = clients
	f.plans[id] = p
	return nil
}

func (f *fakeStore) ListExercises(context.Context) ([]models.Exercise, error) {
	return f.exercises, nil
}

func (f *fakeStore) GetExercise(_ context.Context, id string) (*models.Exercise, error) {
	for _, e := range f.exercises {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) ListClients(_ context.Context, trainerID int64) ([]models.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Client
	for _, c := range f.clients {
		if c.TrainerID == trainerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateClient(_ context.Context, c *models.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.New()
	f.clients = append(f.clients, *c)
	return nil
}

func (f *fakeStore) CountClients(ctx context.Context, trainerID int64) (int, error) {
	list, err := f.ListClients(ctx, trainerID)
	return len(list), err
}

// Bearer tokens understood by fakeAccounts.
const (
	trainerToken = "trainer-1"
	otherToken   = "trainer-2"
	clientToken  = "client-3"
	revokedToken = "revoked"
)

// fakeAccounts authenticates a fixed set of bearer tokens and one login.
type fakeAccounts struct {
	loggedOut []string
}

var tokenClaims = map[string]*auth.Claims{
	trainerToken: {ID: "jti-1", Email: "anna@example.com", UserID: 1, Role: models.RoleTrainer},
	otherToken:   {ID: "jti-2", Email: "bartek@example.com", UserID: 2, Role: models.RoleTrainer},
	clientToken:  {ID: "jti-3", Email: "client@example.com", UserID: 3, Role: models.RoleClient},
}

func (a *fakeAccounts) Register(_ context.Context, in validate.RegistrationInput) (*models.User, error) {
	if errs := validate.Registration(in); !errs.OK() {
		return nil, &auth.ValidationError{Errors: errs}
	}
	if in.Email == "anna@example.com" {
		return nil, auth.ErrDuplicateEmail
	}
	return &models.User{ID: 9, Email: in.Email, FirstName: in.FirstName, LastName: in.LastName, Role: models.RoleTrainer, IsActive: true}, nil
}

func (a *fakeAccounts) Login(_ context.Context, email, password string) (*auth.LoginResult, error) {
	if email != "anna@example.com" || password != "Secret1!" {
		return nil, auth.ErrInvalidCredentials
	}
	return &auth.LoginResult{
		User:         models.User{ID: 1, Email: email, Role: models.RoleTrainer, IsActive: true},
		Token:        trainerToken,
		RefreshToken: "refresh-1",
		ExpiresIn:    86400,
	}, nil
}

func (a *fakeAccounts) Refresh(ctx context.Context, rt string) (*auth.LoginResult, error) {
	if rt != "refresh-1" {
		return nil, auth.ErrInvalidToken
	}
	return a.Login(ctx, "anna@example.com", "Secret1!")
}

func (a *fakeAccounts) Authenticate(_ context.Context, token string) (*auth.Claims, error) {
	if token == revokedToken {
		return nil, auth.ErrRevoked
	}
	c, ok := tokenClaims[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return c, nil
}

func (a *fakeAccounts) Logout(_ context.Context, c *auth.Claims) error {
	a.loggedOut = append(a.loggedOut, c.ID)
	return nil
}

func (a *fakeAccounts) Me(_ context.Context, id int64) (*models.User, error) {
	for _, c := range tokenClaims {
		if c.UserID == id {
			return &models.User{ID: id, Email: c.Email, Role: c.Role, IsActive: true}, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (a *fakeAccounts) CheckEmail(_ context.Context, email string) (bool, error) {
	return email == "anna@example.com", nil
}

func (a *fakeAccounts) ForgotPassword(context.Context, string) error { return nil }

func (a *fakeAccounts) ResetPassword(_ context.Context, token, _, _ string) error {
	if token != "reset-ok" {
		return auth.ErrInvalidResetToken
	}
	return nil
}

func (a *fakeAccounts) VerifyEmail(_ context.Context, token string) error {
	if token != "verify-ok" {
		return auth.ErrInvalidVerification
	}
	return nil
}

func (a *fakeAccounts) ResendVerification(_ context.Context, email string) error {
	switch email {
	case "anna@example.com":
		return auth.ErrAlreadyVerified
	case "new@example.com":
		return nil
	}
	return storage.ErrNotFound
}

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestServer returns a server whose clock reads 2026-03-18 09:30 UTC.
func newTestServer(store *fakeStore) *Server {
	s := New(store, &fakeAccounts{}, Options{RatePerMinute: 1000}, discardLogger())
	s.now = func() time.Time { return time.Date(2026, 3, 18, 9, 30, 0, 0, time.UTC) }
	return s
}
