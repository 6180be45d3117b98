package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/gymbucket/gymbucket/internal/client"
	"github.com/gymbucket/gymbucket/internal/models"
	"github.com/gymbucket/gymbucket/internal/storage"
)

func newRemote(t *testing.T, h http.Handler) *RemoteSource {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	store, err := client.OpenSessionStore(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	api := client.NewAPI(srv.URL)
	api.SetToken("tok")
	return NewRemoteSource(client.NewSession(api, store))
}

// TestRemoteSourceListTrainings verifies filters become query parameters.
func TestRemoteSourceListTrainings(t *testing.T) {
	var query string
	rs := newRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		json.NewEncoder(w).Encode([]models.Training{{ClientName: "Jan Kowalski", Date: "2026-03-18"}})
	}))

	list, err := rs.ListTrainings(context.Background(), 0, storage.TrainingFilter{
		From: "2026-03-18", To: "2026-03-25", Status: models.StatusConfirmed,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ClientName != "Jan Kowalski" {
		t.Errorf("list = %+v", list)
	}
	if query != "from=2026-03-18&status=confirmed&to=2026-03-25" {
		t.Errorf("query = %q", query)
	}
}

// TestRemoteSourceNotFound verifies a 404 surfaces as storage.ErrNotFound.
func TestRemoteSourceNotFound(t *testing.T) {
	rs := newRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"not found"}`))
	}))

	_, err := rs.GetPlan(context.Background(), 0, uuid.New())
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

// TestRemoteSourceServesTools verifies the tool handlers work on top of the
// remote source.
func TestRemoteSourceServesTools(t *testing.T) {
	rs := newRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]models.Exercise{
			{ID: "squat", Name: "Back Squat", MuscleGroups: []string{"legs"}},
			{ID: "pushup", Name: "Push-up", MuscleGroups: []string{"chest"}},
		})
	}))

	h := newTestHandlers(rs)
	res, err := h.listExercises(context.Background(), callReq(map[string]any{"muscle_group": "legs"}))
	if err != nil {
		t.Fatal(err)
	}
	var got []models.Exercise
	decodeResult(t, res, &got)
	if len(got) != 1 || got[0].ID != "squat" {
		t.Errorf("exercises = %+v", got)
	}
}
