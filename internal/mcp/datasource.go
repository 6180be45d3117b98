package mcp

import (
	"context"

	"github.com/google/uuid"

	"github.com/gymbucket/gymbucket/internal/models"
	"github.com/gymbucket/gymbucket/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Both *storage.DB (in
// the server) and RemoteSource (the CLI, over the REST API) satisfy it.
type DataSource interface {
	ListTrainings(ctx context.Context, trainerID int64, f storage.TrainingFilter) ([]models.Training, error)
	ListPlans(ctx context.Context, viewerID int64) ([]models.WorkoutPlan, error)
	GetPlan(ctx context.Context, viewerID int64, id uuid.UUID) (*models.WorkoutPlan, error)
	ListExercises(ctx context.Context) ([]models.Exercise, error)
}

// Compile-time check: *storage.DB satisfies DataSource.
var _ DataSource = (*storage.DB)(nil)
