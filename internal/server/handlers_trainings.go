package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gymbucket/gymbucket/internal/calendar"
	"github.com/gymbucket/gymbucket/internal/models"
	"github.com/gymbucket/gymbucket/internal/storage"
	"github.com/gymbucket/gymbucket/internal/validate"
)

func (s *Server) today() time.Time {
	return calendar.Midnight(s.now().In(s.loc))
}

// dateParam parses an optional YYYY-MM-DD query parameter. Missing values
// yield today.
func (s *Server) dateParam(r *http.Request, key string) (time.Time, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return s.today(), true
	}
	d, err := calendar.ParseDate(v, s.loc)
	return d, err == nil
}

func normalizeInput(in *models.TrainingInput) {
	in.Date = strings.TrimSpace(in.Date)
	in.StartTime = strings.TrimSpace(in.StartTime)
	if m, err := calendar.ParseClock(in.StartTime); err == nil {
		in.StartTime = calendar.FormatClock(m)
	}
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.Location = strings.TrimSpace(in.Location)
	if in.Status == "" {
		in.Status = models.StatusConfirmed
	}
}

func (s *Server) handleListTrainings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := storage.TrainingFilter{
		From:   q.Get("from"),
		To:     q.Get("to"),
		Client: q.Get("client"),
		Status: models.Status(q.Get("status")),
	}
	for _, d := range []string{f.From, f.To} {
		if d == "" {
			continue
		}
		if _, err := calendar.ParseDate(d, s.loc); err != nil {
			writeError(w, http.StatusBadRequest, "dates must be YYYY-MM-DD")
			return
		}
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(w, http.StatusBadRequest, "status must be confirmed, pending or cancelled")
		return
	}

	list, err := s.store.ListTrainings(r.Context(), UserID(r), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []models.Training{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetTraining(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	t, err := s.store.GetTraining(r.Context(), UserID(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleCreateTraining validates the form and books it. The overlap check
// runs inside the storage transaction and surfaces as 409.
func (s *Server) handleCreateTraining(w http.ResponseWriter, r *http.Request) {
	var in models.TrainingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	normalizeInput(&in)
	if errs := validate.Training(in, s.today(), nil, uuid.Nil); !errs.OK() {
		writeValidation(w, errs)
		return
	}

	t := models.Training{TrainerID: UserID(r)}
	in.Apply(&t)
	if err := s.store.CreateTraining(r.Context(), &t); err != nil {
		s.fail(w, r, err)
		return
	}
	s.log.Info("training booked", "trainer_id", t.TrainerID, "id", t.ID, "date", t.Date, "start", t.StartTime)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTraining(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	var in models.TrainingInput
	if !decodeJSON(w, r, &in) {
		return
	}
	normalizeInput(&in)

	t, err := s.store.GetTraining(r.Context(), UserID(r), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if errs := validate.Training(in, s.today(), nil, id); !errs.OK() {
		writeValidation(w, errs)
		return
	}
	in.Apply(t)
	if err := s.store.UpdateTraining(r.Context(), t); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTraining(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteTraining(r.Context(), UserID(r), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type checkRequest struct {
	models.TrainingInput
	ExcludeID uuid.UUID `json:"excludeId"`
}

type checkResult struct {
	Valid    bool             `json:"valid"`
	Errors   []string         `json:"errors"`
	Conflict *models.Training `json:"conflict"`
	EndTime  string           `json:"endTime,omitempty"`
}

// handleCheckTraining runs the full form validation, conflict included,
// without saving anything.
func (s *Server) handleCheckTraining(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	in := req.TrainingInput
	normalizeInput(&in)

	var sameDay []models.Training
	if _, err := calendar.ParseDate(in.Date, s.loc); err == nil {
		list, err := s.store.ListTrainingsForDate(r.Context(), UserID(r), in.Date)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		sameDay = list
	}

	errs := validate.Training(in, s.today(), sameDay, req.ExcludeID)
	res := checkResult{Valid: errs.OK(), Errors: errs}
	if res.Errors == nil {
		res.Errors = []string{}
	}
	if hit, err := calendar.FindConflict(sameDay, calendar.Candidate{
		Date: in.Date, StartTime: in.StartTime, Duration: in.Duration, ExcludeID: req.ExcludeID,
	}); err == nil {
		res.Conflict = hit
		t := models.Training{StartTime: in.StartTime, Duration: in.Duration}
		res.EndTime = calendar.EndTime(t)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCalendarMonth(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.dateParam(r, "date")
	if !ok {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	var selected *time.Time
	if r.URL.Query().Get("selected") != "" {
		sel, ok := s.dateParam(r, "selected")
		if !ok {
			writeError(w, http.StatusBadRequest, "selected must be YYYY-MM-DD")
			return
		}
		selected = &sel
	}

	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, s.loc)
	start := calendar.StartOfWeek(first)
	list, err := s.store.ListTrainings(r.Context(), UserID(r), storage.TrainingFilter{
		From:   start.Format(models.DateLayout),
		To:     start.AddDate(0, 0, calendar.GridCells-1).Format(models.DateLayout),
		Client: r.URL.Query().Get("client"),
		Status: models.Status(r.URL.Query().Get("status")),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendar.MonthGrid(ref, s.today(), selected, list))
}

func (s *Server) handleCalendarWeek(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.dateParam(r, "date")
	if !ok {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	start := calendar.StartOfWeek(ref)
	list, err := s.store.ListTrainings(r.Context(), UserID(r), storage.TrainingFilter{
		From: start.Format(models.DateLayout),
		To:   start.AddDate(0, 0, 6).Format(models.DateLayout),
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendar.WeekView(ref, s.today(), list))
}

type daySlot struct {
	Time      string            `json:"time"`
	Trainings []models.Training `json:"trainings"`
}

type dayView struct {
	Date      string            `json:"date"`
	IsToday   bool              `json:"isToday"`
	IsPast    bool              `json:"isPast"`
	Slots     []daySlot         `json:"slots"`
	Trainings []models.Training `json:"trainings"`
}

func (s *Server) handleCalendarDay(w http.ResponseWriter, r *http.Request) {
	ref, ok := s.dateParam(r, "date")
	if !ok {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	date := ref.Format(models.DateLayout)
	list, err := s.store.ListTrainingsForDate(r.Context(), UserID(r), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []models.Training{}
	}

	today := s.today()
	v := dayView{
		Date:      date,
		IsToday:   calendar.SameDay(ref, today),
		IsPast:    calendar.IsPastDate(ref, today),
		Trainings: list,
	}
	for _, slot := range calendar.TimeSlots() {
		in := calendar.TrainingsInSlot(list, date, slot)
		if in == nil {
			in = []models.Training{}
		}
		v.Slots = append(v.Slots, daySlot{Time: slot, Trainings: in})
	}
	writeJSON(w, http.StatusOK, v)
}
