package mcp

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/gymbucket/gymbucket/internal/client"
	"github.com/gymbucket/gymbucket/internal/models"
	"github.com/gymbucket/gymbucket/internal/storage"
)

// RemoteSource serves MCP tools from a running GymBucket server through
// its REST API. The server scopes every call to the session's user, so the
// user IDs passed in are ignored.
type RemoteSource struct {
	session *client.Session
}

// Compile-time check: *RemoteSource satisfies DataSource.
var _ DataSource = (*RemoteSource)(nil)

// NewRemoteSource wraps an authenticated client session.
func NewRemoteSource(s *client.Session) *RemoteSource {
	return &RemoteSource{session: s}
}

func (r *RemoteSource) ListTrainings(ctx context.Context, _ int64, f storage.TrainingFilter) ([]models.Training, error) {
	var list []models.Training
	err := r.session.Do(ctx, func(ctx context.Context) error {
		var err error
		list, err = r.session.API.ListTrainings(ctx, client.TrainingQuery{
			From: f.From, To: f.To, Client: f.Client, Status: f.Status,
		})
		return err
	})
	return list, remoteErr(err)
}

func (r *RemoteSource) ListPlans(ctx context.Context, _ int64) ([]models.WorkoutPlan, error) {
	var list []models.WorkoutPlan
	err := r.session.Do(ctx, func(ctx context.Context) error {
		var err error
		list, err = r.session.API.ListPlans(ctx, nil)
		return err
	})
	return list, remoteErr(err)
}

func (r *RemoteSource) GetPlan(ctx context.Context, _ int64, id uuid.UUID) (*models.WorkoutPlan, error) {
	var p *models.WorkoutPlan
	err := r.session.Do(ctx, func(ctx context.Context) error {
		var err error
		p, err = r.session.API.GetPlan(ctx, id)
		return err
	})
	return p, remoteErr(err)
}

func (r *RemoteSource) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	var list []models.Exercise
	err := r.session.Do(ctx, func(ctx context.Context) error {
		var err error
		list, err = r.session.API.ListExercises(ctx, nil)
		return err
	})
	return list, remoteErr(err)
}

// remoteErr maps a 404 to storage.ErrNotFound so tools report it the same
// way for both sources.
func remoteErr(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return storage.ErrNotFound
	}
	return err
}
