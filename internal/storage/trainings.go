package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gymbucket/gymbucket/internal/calendar"
	"github.com/gymbucket/gymbucket/internal/models"
)

// ConflictError reports that a booking overlaps an existing training.
type ConflictError struct {
	With models.Training
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time conflict with training: %s (%s)", e.With.ClientName, e.With.StartTime)
}

// TrainingFilter narrows ListTrainings. From and To are inclusive
// YYYY-MM-DD dates; empty fields do not filter.
type TrainingFilter struct {
	From   string
	To     string
	Client string
	Status models.Status
}

const trainingColumns = `id, trainer_id, to_char(training_date, 'YYYY-MM-DD'), start_time, duration,
	client_name, location, notes, status, created_at, updated_at`

func scanTraining(row pgx.Row) (models.Training, error) {
	var t models.Training
	err := row.Scan(&t.ID, &t.TrainerID, &t.Date, &t.StartTime, &t.Duration,
		&t.ClientName, &t.Location, &t.Notes, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func collectTrainings(rows pgx.Rows) ([]models.Training, error) {
	defer rows.Close()
	var out []models.Training
	for rows.Next() {
		t, err := scanTraining(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning training: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ListTrainings returns a trainer's trainings ordered by date and start time.
func (db *DB) ListTrainings(ctx context.Context, trainerID int64, f TrainingFilter) ([]models.Training, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+trainingColumns+` FROM trainings
		 WHERE trainer_id = $1
		   AND ($2::text = '' OR training_date >= NULLIF($2, '')::date)
		   AND ($3::text = '' OR training_date <= NULLIF($3, '')::date)
		   AND ($4::text = '' OR status = $4)
		 ORDER BY training_date, start_time`,
		trainerID, f.From, f.To, string(f.Status))
	if err != nil {
		return nil, fmt.Errorf("querying trainings: %w", err)
	}
	list, err := collectTrainings(rows)
	if err != nil {
		return nil, err
	}
	if f.Client != "" {
		list = calendar.Filter(list, f.Client, "")
	}
	return list, nil
}

// ListTrainingsForDate returns every training of a trainer on date.
func (db *DB) ListTrainingsForDate(ctx context.Context, trainerID int64, date string) ([]models.Training, error) {
	return db.ListTrainings(ctx, trainerID, TrainingFilter{From: date, To: date})
}

// GetTraining returns one of the trainer's trainings.
func (db *DB) GetTraining(ctx context.Context, trainerID int64, id uuid.UUID) (*models.Training, error) {
	t, err := scanTraining(db.Pool.QueryRow(ctx,
		`SELECT `+trainingColumns+` FROM trainings WHERE id = $1 AND trainer_id = $2`, id, trainerID))
	if err != nil {
		return nil, wrap("querying training", err)
	}
	return &t, nil
}

// lockDay serialises bookings for one trainer and date until the
// transaction ends.
func lockDay(ctx context.Context, tx pgx.Tx, trainerID int64, date string) error {
	key := fmt.Sprintf("trainings:%d:%s", trainerID, date)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("locking day: %w", err)
	}
	return nil
}

func checkConflict(ctx context.Context, tx pgx.Tx, t *models.Training) error {
	rows, err := tx.Query(ctx,
		`SELECT `+trainingColumns+` FROM trainings
		 WHERE trainer_id = $1 AND training_date = $2::date AND id <> $3
		 ORDER BY start_time`,
		t.TrainerID, t.Date, t.ID)
	if err != nil {
		return fmt.Errorf("querying same-day trainings: %w", err)
	}
	sameDay, err := collectTrainings(rows)
	if err != nil {
		return err
	}
	hit, err := calendar.FindConflict(sameDay, calendar.Candidate{
		Date: t.Date, StartTime: t.StartTime, Duration: t.Duration, ExcludeID: t.ID,
	})
	if err != nil {
		return err
	}
	if hit != nil {
		return &ConflictError{With: *hit}
	}
	return nil
}

// CreateTraining inserts t unless it overlaps another of the trainer's
// trainings that day, in which case a *ConflictError is returned. t.ID is
// assigned when nil.
func (db *DB) CreateTraining(ctx context.Context, t *models.Training) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockDay(ctx, tx, t.TrainerID, t.Date); err != nil {
			return err
		}
		if err := checkConflict(ctx, tx, t); err != nil {
			return err
		}
		err := tx.QueryRow(ctx,
			`INSERT INTO trainings (id, trainer_id, training_date, start_time, duration, client_name, location, notes, status)
			 VALUES ($1,$2,$3::date,$4,$5,$6,$7,$8,$9)
			 RETURNING created_at, updated_at`,
			t.ID, t.TrainerID, t.Date, t.StartTime, t.Duration, t.ClientName, t.Location, t.Notes, t.Status,
		).Scan(&t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return wrap("inserting training", err)
		}
		return nil
	})
}

// UpdateTraining replaces the editable fields of an existing training,
// with the same conflict rule as CreateTraining.
func (db *DB) UpdateTraining(ctx context.Context, t *models.Training) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		if err := lockDay(ctx, tx, t.TrainerID, t.Date); err != nil {
			return err
		}
		if err := checkConflict(ctx, tx, t); err != nil {
			return err
		}
		err := tx.QueryRow(ctx,
			`UPDATE trainings SET training_date = $3::date, start_time = $4, duration = $5,
			 client_name = $6, location = $7, notes = $8, status = $9, updated_at = $10
			 WHERE id = $1 AND trainer_id = $2
			 RETURNING created_at, updated_at`,
			t.ID, t.TrainerID, t.Date, t.StartTime, t.Duration, t.ClientName, t.Location, t.Notes, t.Status,
			time.Now(),
		).Scan(&t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return wrap("updating training", err)
		}
		return nil
	})
}

// DeleteTraining removes one of the trainer's trainings.
func (db *DB) DeleteTraining(ctx context.Context, trainerID int64, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM trainings WHERE id = $1 AND trainer_id = $2`, id, trainerID)
	if err != nil {
		return wrap("deleting training", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
