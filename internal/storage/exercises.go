package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/gymbucket/gymbucket/internal/models"
)

const exerciseColumns = `id, name, muscle_groups, equipment, description, instructions, image_url, video_url, difficulty`

func scanExercise(row pgx.Row) (models.Exercise, error) {
	var e models.Exercise
	err := row.Scan(&e.ID, &e.Name, &e.MuscleGroups, &e.Equipment, &e.Description,
		&e.Instructions, &e.ImageURL, &e.VideoURL, &e.Difficulty)
	return e, err
}

// ListExercises returns the whole catalogue ordered by name.
func (db *DB) ListExercises(ctx context.Context) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx, `SELECT `+exerciseColumns+` FROM exercises ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetExercise returns one catalogue entry.
func (db *DB) GetExercise(ctx context.Context, id string) (*models.Exercise, error) {
	e, err := scanExercise(db.Pool.QueryRow(ctx, `SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("querying exercise", err)
	}
	return &e, nil
}

// UpsertExercise inserts or replaces a catalogue entry. Returns true when
// the row was newly inserted.
func (db *DB) UpsertExercise(ctx context.Context, e models.Exercise) (bool, error) {
	var inserted bool
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO exercises (id, name, muscle_groups, equipment, description, instructions, image_url, video_url, difficulty)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, muscle_groups = EXCLUDED.muscle_groups, equipment = EXCLUDED.equipment,
			description = EXCLUDED.description, instructions = EXCLUDED.instructions,
			image_url = EXCLUDED.image_url, video_url = EXCLUDED.video_url, difficulty = EXCLUDED.difficulty
		 RETURNING (xmax = 0)`,
		e.ID, e.Name, nonNil(e.MuscleGroups), nonNil(e.Equipment), e.Description,
		nonNil(e.Instructions), e.ImageURL, e.VideoURL, e.Difficulty).Scan(&inserted)
	if err != nil {
		return false, wrap("upserting exercise", err)
	}
	return inserted, nil
}
