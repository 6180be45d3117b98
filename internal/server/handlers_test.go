package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/uuid"

	"github.com/gymbucket/gymbucket/internal/calendar"
	"github.com/gymbucket/gymbucket/internal/models"
)

// do sends a request through the full router. body is JSON encoded when
// non-nil.
func do(t *testing.T, s http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode error: %v (body %q)", err, rec.Body.String())
	}
}

func trainingInput(date, start string, dur int, client string) models.TrainingInput {
	return models.TrainingInput{Date: date, StartTime: start, Duration: dur, ClientName: client, Location: "Main gym"}
}

// TestCreateTraining verifies a valid booking is stored for the caller
// with the default status.
func TestCreateTraining(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store)

	rec := do(t, s, http.MethodPost, "/api/trainings", trainerToken, trainingInput("2026-03-20", "10:00", 60, "Anna Nowak"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body)
	}
	var got models.Training
	decode(t, rec, &got)
	if got.ID == uuid.Nil || got.TrainerID != 1 || got.Status != models.StatusConfirmed {
		t.Errorf("training = %+v", got)
	}
	if len(store.trainings) != 1 {
		t.Errorf("stored %d trainings, want 1", len(store.trainings))
	}
}

// TestCreateTrainingValidation verifies 422 responses carry the ordered
// error list in the error envelope.
func TestCreateTrainingValidation(t *testing.T) {
	s := newTestServer(newFakeStore())

	rec := do(t, s, http.MethodPost, "/api/trainings", trainerToken, models.TrainingInput{Date: "2026-03-17", Duration: 10})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var body errorBody
	decode(t, rec, &body)
	want := []string{
		"cannot schedule a training in the past",
		"start time is required",
		"client name is required",
		"location is required",
		"duration must be at least 15 minutes",
	}
	if body.Success || strings.Join(body.Errors, "|") != strings.Join(want, "|") {
		t.Errorf("body = %+v, want errors %v", body, want)
	}
}

// TestCreateTrainingStartTimeFormat verifies start times must be two-digit
// HH:MM before they reach the store.
func TestCreateTrainingStartTimeFormat(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store)

	for _, start := range []string{"9:00", "+9:00", "09:5"} {
		rec := do(t, s, http.MethodPost, "/api/trainings", trainerToken, trainingInput("2026-03-20", start, 60, "Anna"))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("start %q: status = %d, want 422", start, rec.Code)
			continue
		}
		var body errorBody
		decode(t, rec, &body)
		if len(body.Errors) != 1 || body.Errors[0] != "start time must be HH:MM" {
			t.Errorf("start %q: errors = %v", start, body.Errors)
		}
	}
	if len(store.trainings) != 0 {
		t.Fatalf("stored %d trainings, want 0", len(store.trainings))
	}

	rec := do(t, s, http.MethodPost, "/api/trainings", trainerToken, trainingInput("2026-03-20", " 09:00 ", 60, "Anna"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("padded start: status = %d: %s", rec.Code, rec.Body)
	}
	var got models.Training
	decode(t, rec, &got)
	if got.StartTime != "09:00" {
		t.Errorf("start time = %q, want 09:00", got.StartTime)
	}
}

// TestCreateTrainingConflict covers the half-open interval rule end to end:
// an overlap is rejected with 409 and the conflicting training, while
// back-to-back bookings are accepted.
func TestCreateTrainingConflict(t *testing.T) {
	s := newTestServer(newFakeStore())
	if rec := do(t, s, http.MethodPost, "/api/trainings", trainerToken, trainingInput("2026-03-20", "09:00", 60, "Anna")); rec.Code != http.StatusCreated {
		t.Fatalf("seed booking: status %d", rec.Code)
	}

	rec := do(t, s, http.MethodPost, "/api/trainings", trainerToken, trainingInput("2026-03-20", "09:30", 30, "Bartek"))
	if rec.Code != http.StatusConflict {
		t.Fatalf("overlap: status = %d, want 409", rec.Code)
	}
	var body errorBody
	decode(t, rec, &body)
	if body.Conflict == nil || body.Conflict.ClientName != "Anna" {
		t.Errorf("conflict = %+v", body.Conflict)
	}
	if body.Message != "time conflict with training: Anna (09:00)" {
		t.Errorf("message = %q", body.Message)
	}

	if rec := do(t, s, http.MethodPost, "/api/trainings", trainerToken, trainingInput("2026-03-20", "10:00", 30, "Bartek")); rec.Code != http.StatusCreated {
		t.Errorf("adjacent: status = %d, want 201", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/trainings", otherToken, trainingInput("2026-03-20", "09:00", 60, "Celina")); rec.Code != http.StatusCreated {
		t.Errorf("other trainer same slot: status = %d, want 201", rec.Code)
	}
}

// TestUpdateTraining verifies a training can be moved within its own slot
// and that other trainers cannot see it.
func TestUpdateTraining(t *testing.T) {
	s := newTestServer(newFakeStore())
	rec := do(t, s, http.MethodPost, "/api/trainings", trainerToken, trainingInput("2026-03-20", "09:00", 60, "Anna"))
	var created models.Training
	decode(t, rec, &created)
	path := "/api/trainings/" + created.ID.String()

	in := trainingInput("2026-03-20", "09:30", 60, "Anna")
	in.Status = models.StatusPending
	rec = do(t, s, http.MethodPut, path, trainerToken, in)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body)
	}
	var updated models.Training
	decode(t, rec, &updated)
	if updated.StartTime != "09:30" || updated.Status != models.StatusPending {
		t.Errorf("updated = %+v", updated)
	}

	if rec := do(t, s, http.MethodGet, path, otherToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("other trainer get: status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodPut, path, trainerToken, trainingInput("2026-03-01", "09:30", 60, "Anna")); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("move into past: status = %d, want 422", rec.Code)
	}
}

// TestDeleteTraining verifies deletion and the 404 on a second attempt.
func TestDeleteTraining(t *testing.T) {
	s := newTestServer(newFakeStore())
	rec := do(t, s, http.MethodPost, "/api/trainings", trainerToken, trainingInput("2026-03-20", "09:00", 60, "Anna"))
	var created models.Training
	decode(t, rec, &created)
	path := "/api/trainings/" + created.ID.String()

	if rec := do(t, s, http.MethodDelete, path, trainerToken, nil); rec.Code != http.StatusNoContent {
		t.Errorf("delete: status = %d, want 204", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, path, trainerToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodDelete, "/api/trainings/not-a-uuid", trainerToken, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want 400", rec.Code)
	}
}

// TestCheckTraining verifies the conflict preview reports the clash
// without saving.
func TestCheckTraining(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store)
	do(t, s, http.MethodPost, "/api/trainings", trainerToken, trainingInput("2026-03-20", "09:00", 60, "Anna"))

	rec := do(t, s, http.MethodPost, "/api/trainings/check", trainerToken, trainingInput("2026-03-20", "09:30", 30, "Bartek"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res checkResult
	decode(t, rec, &res)
	if res.Valid || res.Conflict == nil || res.EndTime != "10:00" {
		t.Errorf("result = %+v", res)
	}
	if len(res.Errors) != 1 || res.Errors[0] != "time conflict with training: Anna (09:00)" {
		t.Errorf("errors = %v", res.Errors)
	}
	if len(store.trainings) != 1 {
		t.Errorf("check saved a training")
	}
}

// TestListTrainingsFilters verifies query filters and input checks.
func TestListTrainingsFilters(t *testing.T) {
	s := newTestServer(newFakeStore())
	do(t, s, http.MethodPost, "/api/trainings", trainerToken, trainingInput("2026-03-20", "09:00", 60, "Łukasz Kowalski"))
	do(t, s, http.MethodPost, "/api/trainings", trainerToken, trainingInput("2026-03-21", "09:00", 60, "Anna Nowak"))

	rec := do(t, s, http.MethodGet, "/api/trainings?client=%C5%82ukasz", trainerToken, nil)
	var got []models.Training
	decode(t, rec, &got)
	if len(got) != 1 || got[0].Date != "2026-03-20" {
		t.Errorf("client filter = %+v", got)
	}

	rec = do(t, s, http.MethodGet, "/api/trainings?from=2026-03-21", trainerToken, nil)
	got = nil
	decode(t, rec, &got)
	if len(got) != 1 || got[0].ClientName != "Anna Nowak" {
		t.Errorf("from filter = %+v", got)
	}

	if rec := do(t, s, http.MethodGet, "/api/trainings?status=done", trainerToken, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad status: %d, want 400", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/trainings?from=21.03.2026", trainerToken, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: %d, want 400", rec.Code)
	}
}

// TestCalendarEndpoints checks the month, week and day views.
func TestCalendarEndpoints(t *testing.T) {
	s := newTestServer(newFakeStore())
	do(t, s, http.MethodPost, "/api/trainings", trainerToken, trainingInput("2026-03-20", "09:00", 90, "Anna"))

	rec := do(t, s, http.MethodGet, "/api/calendar/month?date=2026-03-01&selected=2026-03-20", trainerToken, nil)
	var g calendar.Grid
	decode(t, rec, &g)
	if g.Days[0].Date != "2026-02-23" {
		t.Errorf("first cell = %s", g.Days[0].Date)
	}
	for _, d := range g.Days {
		if d.Date == "2026-03-20" && (!d.IsSelected || len(d.Trainings) != 1) {
			t.Errorf("2026-03-20 cell = %+v", d)
		}
	}

	rec = do(t, s, http.MethodGet, "/api/calendar/week", trainerToken, nil)
	var week []calendar.WeekDay
	decode(t, rec, &week)
	if len(week) != 7 || week[0].Date != "2026-03-16" || !week[2].IsToday || len(week[4].Trainings) != 1 {
		t.Errorf("week = %+v", week)
	}

	rec = do(t, s, http.MethodGet, "/api/calendar/day?date=2026-03-20", trainerToken, nil)
	var day dayView
	decode(t, rec, &day)
	if len(day.Slots) != 34 {
		t.Fatalf("slots = %d, want 34", len(day.Slots))
	}
	occupied := 0
	for _, slot := range day.Slots {
		if len(slot.Trainings) > 0 {
			occupied++
		}
	}
	if occupied != 3 {
		t.Errorf("occupied slots = %d, want 3 (09:00, 09:30, 10:00)", occupied)
	}

	if rec := do(t, s, http.MethodGet, "/api/calendar/month?date=March", trainerToken, nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: status %d", rec.Code)
	}
}

func validPlan() models.WorkoutPlan {
	return models.WorkoutPlan{
		Name:               "Leg Day",
		Description:        "Heavy lower body",
		Category:           models.CategoryStrength,
		Difficulty:         models.DifficultyIntermediate,
		Duration:           60,
		TargetMuscleGroups: []string{"legs"},
		Exercises: []models.WorkoutPlanExercise{
			{ExerciseID: "squat", Sets: 5, Reps: "5", RestTime: 180},
			{ExerciseID: "pushup", Sets: 3, Reps: "max", RestTime: 60},
		},
	}
}

// TestPlanLifecycle covers create, read with details, duplicate, assign and
// ownership checks.
func TestPlanLifecycle(t *testing.T) {
	s := newTestServer(newFakeStore())

	rec := do(t, s, http.MethodPost, "/api/workout-plans", trainerToken, validPlan())
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d: %s", rec.Code, rec.Body)
	}
	var p models.WorkoutPlan
	decode(t, rec, &p)
	if p.CreatedBy != 1 || p.Exercises[1].Order != 2 {
		t.Errorf("plan = %+v", p)
	}
	if strings.Join(p.Equipment, ",") != "barbell,rack,bodyweight" {
		t.Errorf("equipment = %v", p.Equipment)
	}
	path := "/api/workout-plans/" + p.ID.String()

	rec = do(t, s, http.MethodGet, path, trainerToken, nil)
	var got models.WorkoutPlan
	decode(t, rec, &got)
	if got.Exercises[0].Exercise == nil || got.Exercises[0].Exercise.Name != "Back Squat" {
		t.Errorf("exercise details missing: %+v", got.Exercises[0])
	}

	if rec := do(t, s, http.MethodGet, path, otherToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("private plan visible to other trainer: %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPut, path, otherToken, validPlan()); rec.Code != http.StatusNotFound {
		t.Errorf("other trainer update: %d, want 404", rec.Code)
	}

	rec = do(t, s, http.MethodPost, path+"/duplicate", trainerToken, nil)
	var dup models.WorkoutPlan
	decode(t, rec, &dup)
	if rec.Code != http.StatusCreated || dup.Name != "Leg Day (copy)" || dup.ID == p.ID {
		t.Errorf("duplicate = %d %+v", rec.Code, dup)
	}

	rec = do(t, s, http.MethodPut, path+"/assignments", trainerToken, assignRequest{Clients: []string{"Anna", " Anna ", "Bartek", ""}})
	var assigned struct {
		ClientAssignments []string `json:"clientAssignments"`
	}
	decode(t, rec, &assigned)
	if strings.Join(assigned.ClientAssignments, ",") != "Anna,Bartek" {
		t.Errorf("assignments = %v", assigned.ClientAssignments)
	}

	rec = do(t, s, http.MethodGet, "/api/workout-plans?mine=true&search=copy", trainerToken, nil)
	var list []models.WorkoutPlan
	decode(t, rec, &list)
	if len(list) != 1 || list[0].ID != dup.ID {
		t.Errorf("search = %+v", list)
	}
}

// TestCreatePlanValidation verifies unknown exercises and missing fields
// are rejected.
func TestCreatePlanValidation(t *testing.T) {
	s := newTestServer(newFakeStore())
	p := validPlan()
	p.Name = " "
	p.Exercises[0].ExerciseID = "deadlift"

	rec := do(t, s, http.MethodPost, "/api/workout-plans", trainerToken, p)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}
	var body errorBody
	decode(t, rec, &body)
	if len(body.Errors) != 2 || body.Errors[0] != "plan name is required" || !strings.Contains(body.Errors[1], "deadlift") {
		t.Errorf("errors = %v", body.Errors)
	}
}

// TestCreatePlanCategoryAndDifficulty verifies missing values fall back to
// mixed and beginner while unknown ones are rejected.
func TestCreatePlanCategoryAndDifficulty(t *testing.T) {
	s := newTestServer(newFakeStore())

	p := validPlan()
	p.Category, p.Difficulty = "", ""
	rec := do(t, s, http.MethodPost, "/api/workout-plans", trainerToken, p)
	if rec.Code != http.StatusCreated {
		t.Fatalf("defaults: status = %d: %s", rec.Code, rec.Body)
	}
	var got models.WorkoutPlan
	decode(t, rec, &got)
	if got.Category != models.CategoryMixed || got.Difficulty != models.DifficultyBeginner {
		t.Errorf("category/difficulty = %q/%q, want mixed/beginner", got.Category, got.Difficulty)
	}

	tests := []struct {
		name   string
		mutate func(*models.WorkoutPlan)
		want   string
	}{
		{"category", func(p *models.WorkoutPlan) { p.Category = "yoga" }, "category must be strength, cardio, flexibility or mixed"},
		{"difficulty", func(p *models.WorkoutPlan) { p.Difficulty = "expert" }, "difficulty must be beginner, intermediate or advanced"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validPlan()
			tt.mutate(&p)
			rec := do(t, s, http.MethodPost, "/api/workout-plans", trainerToken, p)
			if rec.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422", rec.Code)
			}
			var body errorBody
			decode(t, rec, &body)
			if len(body.Errors) != 1 || body.Errors[0] != tt.want {
				t.Errorf("errors = %v, want [%s]", body.Errors, tt.want)
			}
		})
	}
}

// TestExercisesAndClients covers catalogue filtering and the client roster.
func TestExercisesAndClients(t *testing.T) {
	s := newTestServer(newFakeStore())

	rec := do(t, s, http.MethodGet, "/api/exercises?muscleGroup=chest", trainerToken, nil)
	var ex []models.Exercise
	decode(t, rec, &ex)
	if len(ex) != 1 || ex[0].ID != "pushup" {
		t.Errorf("exercises = %+v", ex)
	}
	if rec := do(t, s, http.MethodGet, "/api/exercises/nope", trainerToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("missing exercise: %d", rec.Code)
	}

	if rec := do(t, s, http.MethodPost, "/api/clients", trainerToken, models.Client{Name: "Anna", Phone: "12"}); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad phone: %d, want 422", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/clients", trainerToken, models.Client{Name: "Anna", Phone: "+48 600 700 800"}); rec.Code != http.StatusCreated {
		t.Errorf("create client: %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/clients", otherToken, nil)
	var clients []models.Client
	decode(t, rec, &clients)
	if len(clients) != 0 {
		t.Errorf("other trainer sees %d clients", len(clients))
	}
}

// TestDashboard verifies today's count skips cancelled sessions and the
// upcoming list starts from the current time.
func TestDashboard(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(store)
	for _, tr := range []models.Training{
		{ID: uuid.New(), TrainerID: 1, Date: "2026-03-18", StartTime: "08:00", Duration: 60, ClientName: "Early", Status: models.StatusConfirmed},
		{ID: uuid.New(), TrainerID: 1, Date: "2026-03-18", StartTime: "12:00", Duration: 60, ClientName: "Noon", Status: models.StatusConfirmed},
		{ID: uuid.New(), TrainerID: 1, Date: "2026-03-18", StartTime: "14:00", Duration: 60, ClientName: "Off", Status: models.StatusCancelled},
		{ID: uuid.New(), TrainerID: 1, Date: "2026-03-19", StartTime: "07:00", Duration: 60, ClientName: "Tomorrow", Status: models.StatusPending},
	} {
		store.trainings[tr.ID] = tr
	}

	rec := do(t, s, http.MethodGet, "/api/dashboard", trainerToken, nil)
	var d dashboard
	decode(t, rec, &d)
	if d.TodaySessions != 2 {
		t.Errorf("today sessions = %d, want 2", d.TodaySessions)
	}
	if len(d.Upcoming) != 2 || d.Upcoming[0].ClientName != "Noon" || d.Upcoming[1].ClientName != "Tomorrow" {
		t.Errorf("upcoming = %+v", d.Upcoming)
	}
}

// TestAuthEndpoints checks the login and registration envelopes and error
// mapping.
func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(newFakeStore())

	rec := do(t, s, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "anna@example.com", Password: "Secret1!"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d", rec.Code)
	}
	var login map[string]any
	decode(t, rec, &login)
	for _, k := range []string{"success", "message", "user", "token", "refreshToken", "expiresIn"} {
		if _, ok := login[k]; !ok {
			t.Errorf("login response missing %q", k)
		}
	}

	rec = do(t, s, http.MethodPost, "/api/auth/login", "", loginRequest{Email: "anna@example.com", Password: "nope"})
	var body errorBody
	decode(t, rec, &body)
	if rec.Code != http.StatusUnauthorized || body.Success || body.Message != "invalid email or password" {
		t.Errorf("bad login = %d %+v", rec.Code, body)
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		want   int
	}{
		{"register duplicate", http.MethodPost, "/api/auth/register", "", map[string]any{
			"firstName": "Anna", "lastName": "Nowak", "email": "anna@example.com",
			"password": "Secret1!", "confirmPassword": "Secret1!", "acceptTerms": true}, http.StatusConflict},
		{"register invalid", http.MethodPost, "/api/auth/register", "", map[string]any{"email": "x"}, http.StatusUnprocessableEntity},
		{"register ok", http.MethodPost, "/api/auth/register", "", map[string]any{
			"firstName": "Ewa", "lastName": "Lis", "email": "ewa@example.com",
			"password": "Secret1!", "confirmPassword": "Secret1!", "acceptTerms": true}, http.StatusCreated},
		{"refresh ok", http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": "refresh-1"}, http.StatusOK},
		{"refresh bad", http.MethodPost, "/api/auth/refresh", "", map[string]string{"refreshToken": "x"}, http.StatusUnauthorized},
		{"refresh missing", http.MethodPost, "/api/auth/refresh", "", map[string]string{}, http.StatusBadRequest},
		{"check email", http.MethodGet, "/api/auth/check-email?email=anna@example.com", "", nil, http.StatusOK},
		{"forgot unknown", http.MethodPost, "/api/auth/forgot-password", "", map[string]string{"email": "ghost@example.com"}, http.StatusOK},
		{"reset bad token", http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": "x"}, http.StatusBadRequest},
		{"reset ok", http.MethodPost, "/api/auth/reset-password", "", map[string]string{"token": "reset-ok"}, http.StatusOK},
		{"verify ok", http.MethodPost, "/api/auth/verify-email", "", map[string]string{"token": "verify-ok"}, http.StatusOK},
		{"resend verified", http.MethodPost, "/api/auth/resend-verification", "", map[string]string{"email": "anna@example.com"}, http.StatusBadRequest},
		{"resend unknown", http.MethodPost, "/api/auth/resend-verification", "", map[string]string{"email": "ghost@example.com"}, http.StatusNotFound},
		{"logout anonymous", http.MethodPost, "/api/auth/logout", "", nil, http.StatusUnauthorized},
		{"logout", http.MethodPost, "/api/auth/logout", trainerToken, nil, http.StatusOK},
		{"me", http.MethodGet, "/api/me", trainerToken, nil, http.StatusOK},
		{"health", http.MethodGet, "/api/auth/health", "", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, tt.token, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

// TestHealthDegraded verifies the health endpoint reports an unreachable
// database.
func TestHealthDegraded(t *testing.T) {
	store := newFakeStore()
	store.pingErr = errBoom
	s := newTestServer(store)
	if rec := do(t, s, http.MethodGet, "/api/auth/health", "", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// TestMCPDisabled verifies /mcp answers 404 until a handler is mounted and
// is auth protected.
func TestMCPDisabled(t *testing.T) {
	s := newTestServer(newFakeStore())
	if rec := do(t, s, http.MethodPost, "/mcp", "", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status = %d, want 401", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/mcp", trainerToken, nil); rec.Code != http.StatusNotFound {
		t.Errorf("disabled: status = %d, want 404", rec.Code)
	}

	var gotUser int64
	s.SetMCP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser = UserID(r)
		w.WriteHeader(http.StatusAccepted)
	}))
	if rec := do(t, s, http.MethodPost, "/mcp", trainerToken, nil); rec.Code != http.StatusAccepted || gotUser != 1 {
		t.Errorf("mounted: status = %d, user = %d", rec.Code, gotUser)
	}
}

// TestSetFrontend verifies SPA fallback for client routes while unknown
// API paths still get JSON 404s.
func TestSetFrontend(t *testing.T) {
	s := newTestServer(newFakeStore())
	s.SetFrontend(fstest.MapFS{
		"index.html": {Data: []byte("<html>spa</html>")},
		"app.js":     {Data: []byte("console.log(1)")},
	})

	for _, path := range []string{"/calendar", "/workout-plans", "/login"} {
		rec := do(t, s, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "spa") {
			t.Errorf("%s: status = %d body = %q", path, rec.Code, rec.Body)
		}
	}
	if rec := do(t, s, http.MethodGet, "/app.js", "", nil); !strings.Contains(rec.Body.String(), "console.log") {
		t.Errorf("static asset not served: %q", rec.Body)
	}
	rec := do(t, s, http.MethodGet, "/api/nope", "", nil)
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Header().Get("Content-Type"), "json") {
		t.Errorf("/api/nope = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
}
