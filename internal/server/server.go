package server

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gymbucket/gymbucket/internal/auth"
	"github.com/gymbucket/gymbucket/internal/models"
	"github.com/gymbucket/gymbucket/internal/storage"
	"github.com/gymbucket/gymbucket/internal/validate"
)

// Store is the persistence the HTTP handlers need.
type Store interface {
	Ping(ctx context.Context) error

	ListTrainings(ctx context.Context, trainerID int64, f storage.TrainingFilter) ([]models.Training, error)
	ListTrainingsForDate(ctx context.Context, trainerID int64, date string) ([]models.Training, error)
	GetTraining(ctx context.Context, trainerID int64, id uuid.UUID) (*models.Training, error)
	CreateTraining(ctx context.Context, t *models.Training) error
	UpdateTraining(ctx context.Context, t *models.Training) error
	DeleteTraining(ctx context.Context, trainerID int64, id uuid.UUID) error

	ListPlans(ctx context.Context, viewerID int64) ([]models.WorkoutPlan, error)
	GetPlan(ctx context.Context, viewerID int64, id uuid.UUID) (*models.WorkoutPlan, error)
	CreatePlan(ctx context.Context, p *models.WorkoutPlan) error
	UpdatePlan(ctx context.Context, p *models.WorkoutPlan) error
	DeletePlan(ctx context.Context, ownerID int64, id uuid.UUID) error
	AssignPlan(ctx context.Context, ownerID int64, id uuid.UUID, clients []string) error

	ListExercises(ctx context.Context) ([]models.Exercise, error)
	GetExercise(ctx context.Context, id string) (*models.Exercise, error)

	ListClients(ctx context.Context, trainerID int64) ([]models.Client, error)
	CreateClient(ctx context.Context, c *models.Client) error
	CountClients(ctx context.Context, trainerID int64) (int, error)
}

var _ Store = (*storage.DB)(nil)

// Accounts is the account service behind /api/auth.
type Accounts interface {
	Register(ctx context.Context, in validate.RegistrationInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.LoginResult, error)
	Authenticate(ctx context.Context, accessToken string) (*auth.Claims, error)
	Logout(ctx context.Context, c *auth.Claims) error
	Me(ctx context.Context, userID int64) (*models.User, error)
	CheckEmail(ctx context.Context, email string) (bool, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, confirm string) error
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
}

var _ Accounts = (*auth.Service)(nil)

// Options configures a Server. Zero values get defaults in New.
type Options struct {
	CORSOrigins   []string
	RatePerMinute int
	// TrustProxy keys rate limits on forwarding headers instead of the
	// connection address.
	TrustProxy    bool
	Location      *time.Location
	Version       string
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    Store
	accounts Accounts
	log      *slog.Logger
	loc      *time.Location
	version  string
	limiter  *ipLimiter
	cors     []string
	now      func() time.Time
	router   chi.Router
	mcp      http.Handler
}

// New creates a new Server with all routes configured.
func New(store Store, accounts Accounts, opts Options, log *slog.Logger) *Server {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.RatePerMinute <= 0 {
		opts.RatePerMinute = 20
	}
	s := &Server{
		store:    store,
		accounts: accounts,
		log:      log,
		loc:      opts.Location,
		version:  opts.Version,
		limiter:  newIPLimiter(opts.RatePerMinute, opts.TrustProxy),
		cors:     opts.CORSOrigins,
		now:      time.Now,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS(s.cors))

	s.router.Route("/api/auth", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(RateLimit(s.limiter, s.log))
			r.Post("/login", s.handleLogin)
			r.Post("/register", s.handleRegister)
			r.Post("/forgot-password", s.handleForgotPassword)
			r.Post("/reset-password", s.handleResetPassword)
			r.Post("/verify-email", s.handleVerifyEmail)
			r.Post("/resend-verification", s.handleResendVerification)
			r.Post("/refresh", s.handleRefresh)
			r.Get("/check-email", s.handleCheckEmail)
		})

		r.With(Authenticate(s.accounts)).Post("/logout", s.handleLogout)
	})

	s.router.Group(func(r chi.Router) {
		r.Use(Authenticate(s.accounts))
		r.Use(RequireRole(models.RoleTrainer, models.RoleAdmin))

		r.Get("/api/me", s.handleMe)
		r.Get("/api/dashboard", s.handleDashboard)

		r.Route("/api/trainings", func(r chi.Router) {
			r.Get("/", s.handleListTrainings)
			r.Post("/", s.handleCreateTraining)
			r.Post("/check", s.handleCheckTraining)
			r.Get("/{id}", s.handleGetTraining)
			r.Put("/{id}", s.handleUpdateTraining)
			r.Delete("/{id}", s.handleDeleteTraining)
		})

		r.Route("/api/calendar", func(r chi.Router) {
			r.Get("/month", s.handleCalendarMonth)
			r.Get("/week", s.handleCalendarWeek)
			r.Get("/day", s.handleCalendarDay)
		})

		r.Route("/api/workout-plans", func(r chi.Router) {
			r.Get("/", s.handleListPlans)
			r.Post("/", s.handleCreatePlan)
			r.Get("/{id}", s.handleGetPlan)
			r.Put("/{id}", s.handleUpdatePlan)
			r.Delete("/{id}", s.handleDeletePlan)
			r.Post("/{id}/duplicate", s.handleDuplicatePlan)
			r.Put("/{id}/assignments", s.handleAssignPlan)
		})

		r.Get("/api/exercises", s.handleListExercises)
		r.Get("/api/exercises/{id}", s.handleGetExercise)

		r.Get("/api/clients", s.handleListClients)
		r.Post("/api/clients", s.handleCreateClient)

		r.Handle("/mcp", http.HandlerFunc(s.serveMCP))
	})

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
}

// SetMCP mounts the MCP streamable HTTP handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.mcp = h
}

func (s *Server) serveMCP(w http.ResponseWriter, r *http.Request) {
	if s.mcp == nil {
		writeError(w, http.StatusNotFound, "MCP endpoint disabled")
		return
	}
	s.mcp.ServeHTTP(w, r)
}

// SetFrontend mounts a pre-built SPA filesystem. Unmatched non-API routes
// serve index.html for client-side routing.
func (s *Server) SetFrontend(webFS fs.FS) {
	fileServer := http.FileServerFS(webFS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if isAPIPath(r.URL.Path) {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		f, err := webFS.Open(r.URL.Path[1:])
		if err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}

func isAPIPath(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/") || p == "/mcp"
}
