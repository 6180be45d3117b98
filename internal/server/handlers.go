package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gymbucket/gymbucket/internal/auth"
	"github.com/gymbucket/gymbucket/internal/calendar"
	"github.com/gymbucket/gymbucket/internal/models"
	"github.com/gymbucket/gymbucket/internal/plans"
	"github.com/gymbucket/gymbucket/internal/storage"
	"github.com/gymbucket/gymbucket/internal/validate"
)

// errorBody is the error envelope every endpoint uses.
type errorBody struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Errors   []string         `json:"errors,omitempty"`
	Conflict *models.Training `json:"conflict,omitempty"`
}

type okBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Message: msg})
}

func writeOK(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusOK, okBody{Success: true, Message: msg})
}

func writeValidation(w http.ResponseWriter, errs validate.Errors) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{Message: "validation failed", Errors: errs})
}

// fail maps service and storage errors onto HTTP responses. Unexpected
// errors are logged and reported without detail.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *auth.ValidationError
	var conflict *storage.ConflictError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr.Errors)
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorBody{Message: conflict.Error(), Conflict: &conflict.With})
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrDuplicate):
		writeError(w, http.StatusConflict, "already exists")
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

func pathUUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid ID")
		return uuid.Nil, false
	}
	return id, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := s.store.Ping(r.Context()); err != nil {
		s.log.Warn("health check: database unreachable", "error", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{"status": status, "version": s.version})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.accounts.Me(r.Context(), UserID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type dashboard struct {
	Date          string            `json:"date"`
	TodaySessions int               `json:"todaySessions"`
	Today         []models.Training `json:"today"`
	Upcoming      []models.Training `json:"upcoming"`
	ClientCount   int               `json:"clientCount"`
	PlanCount     int               `json:"planCount"`
}

// upcomingLimit caps the dashboard's upcoming list.
const upcomingLimit = 5

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	uid := UserID(r)
	now := s.now().In(s.loc)
	today := now.Format(models.DateLayout)

	list, err := s.store.ListTrainings(ctx, uid, storage.TrainingFilter{
		From: today,
		To:   now.AddDate(0, 0, 14).Format(models.DateLayout),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	clients, err := s.store.CountClients(ctx, uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	planList, err := s.store.ListPlans(ctx, uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	d := dashboard{Date: today, ClientCount: clients, Today: []models.Training{}, Upcoming: []models.Training{}}
	nowClock := calendar.FormatClock(now.Hour()*60 + now.Minute())
	for _, t := range list {
		if t.Status == models.StatusCancelled {
			continue
		}
		if t.Date == today {
			d.Today = append(d.Today, t)
		}
		if (t.Date > today || t.StartTime >= nowClock) && len(d.Upcoming) < upcomingLimit {
			d.Upcoming = append(d.Upcoming, t)
		}
	}
	d.TodaySessions = len(d.Today)
	d.PlanCount = len(plans.FilterPlans(planList, plans.PlanFilter{OwnerID: uid}))
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListExercises(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, plans.FilterExercises(list, plans.ExerciseFilter{
		Search:      q.Get("search"),
		MuscleGroup: q.Get("muscleGroup"),
		Equipment:   q.Get("equipment"),
		Difficulty:  q.Get("difficulty"),
	}))
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.GetExercise(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleListClients(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListClients(r.Context(), UserID(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []models.Client{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	var c models.Client
	if !decodeJSON(w, r, &c) {
		return
	}
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)

	var errs validate.Errors
	if c.Name == "" {
		errs = append(errs, "client name is required")
	}
	if c.Email != "" && !validate.Email(c.Email) {
		errs = append(errs, "email address is invalid")
	}
	if c.Phone != "" && !validate.Phone(c.Phone) {
		errs = append(errs, "phone number is invalid")
	}
	if !errs.OK() {
		writeValidation(w, errs)
		return
	}

	c.ID = uuid.Nil
	c.TrainerID = UserID(r)
	if err := s.store.CreateClient(r.Context(), &c); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}
