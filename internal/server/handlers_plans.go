package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/gymbucket/gymbucket/internal/models"
	"github.com/gymbucket/gymbucket/internal/plans"
	"github.com/gymbucket/gymbucket/internal/validate"
)

func (s *Server) catalog(r *http.Request) (plans.Catalog, error) {
	list, err := s.store.ListExercises(r.Context())
	if err != nil {
		return nil, err
	}
	return plans.NewCatalog(list), nil
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	uid := UserID(r)
	list, err := s.store.ListPlans(r.Context(), uid)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	f := plans.PlanFilter{
		Search:      q.Get("search"),
		Category:    q.Get("category"),
		Difficulty:  q.Get("difficulty"),
		MuscleGroup: q.Get("muscleGroup"),
	}
	if q.Get("mine") == "true" {
		f.OwnerID = uid
	}
	writeJSON(w, http.StatusOK, plans.FilterPlans(list, f))
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	p, err := s.store.GetPlan(r.Context(), UserID(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.catalog(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	plans.Enrich(p, c)
	writeJSON(w, http.StatusOK, p)
}

// preparePlan normalises a submitted plan, derives its metadata from the
// catalogue and validates it. It writes the response and returns false on
// failure.
func (s *Server) preparePlan(w http.ResponseWriter, r *http.Request, p *models.WorkoutPlan) bool {
	c, err := s.catalog(r)
	if err != nil {
		s.fail(w, r, err)
		return false
	}
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.Category == "" {
		p.Category = models.CategoryMixed
	}
	if p.Difficulty == "" {
		p.Difficulty = models.DifficultyBeginner
	}
	for i := range p.Exercises {
		p.Exercises[i].Exercise = nil
	}
	plans.Normalize(p)
	if errs := validate.Plan(*p, c); !errs.OK() {
		writeValidation(w, errs)
		return false
	}
	plans.RefreshMetadata(p, c)
	return true
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var p models.WorkoutPlan
	if !decodeJSON(w, r, &p) {
		return
	}
	if !s.preparePlan(w, r, &p) {
		return
	}
	p.ID = uuid.Nil
	p.CreatedBy = UserID(r)
	if err := s.store.CreatePlan(r.Context(), &p); err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("workout plan created", "id", p.ID, "owner", p.CreatedBy, "exercises", len(p.Exercises))
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var p models.WorkoutPlan
	if !decodeJSON(w, r, &p) {
		return
	}
	if !s.preparePlan(w, r, &p) {
		return
	}
	p.ID = id
	p.CreatedBy = UserID(r)
	if err := s.store.UpdatePlan(r.Context(), &p); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeletePlan(r.Context(), UserID(r), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDuplicatePlan copies any visible plan into a private plan owned by
// the caller.
func (s *Server) handleDuplicatePlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	uid := UserID(r)
	src, err := s.store.GetPlan(r.Context(), uid, id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	dup := plans.Duplicate(*src, uuid.New(), uid, s.today())
	for i := range dup.Exercises {
		dup.Exercises[i].Exercise = nil
	}
	if err := s.store.CreatePlan(r.Context(), &dup); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dup)
}

type assignRequest struct {
	Clients []string `json:"clients"`
}

func (s *Server) handleAssignPlan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var req assignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	seen := make(map[string]bool)
	clients := make([]string, 0, len(req.Clients))
	for _, c := range req.Clients {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		clients = append(clients, c)
	}
	if err := s.store.AssignPlan(r.Context(), UserID(r), id, clients); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "clientAssignments": clients})
}
