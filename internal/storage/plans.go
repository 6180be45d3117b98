package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/gymbucket/gymbucket/internal/models"
)

const planColumns = `id, name, description, category, difficulty, duration, target_muscle_groups,
	tags, equipment, is_public, created_by, to_char(created_date, 'YYYY-MM-DD'),
	to_char(last_modified, 'YYYY-MM-DD')`

func scanPlan(row pgx.Row) (models.WorkoutPlan, error) {
	var p models.WorkoutPlan
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Difficulty, &p.Duration,
		&p.TargetMuscleGroups, &p.Tags, &p.Equipment, &p.IsPublic, &p.CreatedBy,
		&p.CreatedDate, &p.LastModified)
	return p, err
}

// ListPlans returns the plans visible to viewerID: public plans and the
// viewer's own, with exercises and assignments attached.
func (db *DB) ListPlans(ctx context.Context, viewerID int64) ([]models.WorkoutPlan, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+planColumns+` FROM workout_plans
		 WHERE is_public OR created_by = $1
		 ORDER BY last_modified DESC, name`, viewerID)
	if err != nil {
		return nil, fmt.Errorf("querying plans: %w", err)
	}
	defer rows.Close()

	var list []models.WorkoutPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning plan: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := db.attachPlanDetails(ctx, list); err != nil {
		return nil, err
	}
	return list, nil
}

// GetPlan returns one plan if it is public or owned by viewerID.
func (db *DB) GetPlan(ctx context.Context, viewerID int64, id uuid.UUID) (*models.WorkoutPlan, error) {
	p, err := scanPlan(db.Pool.QueryRow(ctx,
		`SELECT `+planColumns+` FROM workout_plans
		 WHERE id = $1 AND (is_public OR created_by = $2)`, id, viewerID))
	if err != nil {
		return nil, wrap("querying plan", err)
	}
	list := []models.WorkoutPlan{p}
	if err := db.attachPlanDetails(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (db *DB) attachPlanDetails(ctx context.Context, list []models.WorkoutPlan) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(list))
	index := make(map[uuid.UUID]int, len(list))
	for i, p := range list {
		ids[i] = p.ID
		index[p.ID] = i
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT plan_id, position, exercise_id, sets, reps, weight, duration, rest_time, notes
		 FROM workout_plan_exercises WHERE plan_id = ANY($1) ORDER BY plan_id, position`, ids)
	if err != nil {
		return fmt.Errorf("querying plan exercises: %w", err)
	}
	for rows.Next() {
		var planID uuid.UUID
		var pe models.WorkoutPlanExercise
		if err := rows.Scan(&planID, &pe.Order, &pe.ExerciseID, &pe.Sets, &pe.Reps, &pe.Weight,
			&pe.Duration, &pe.RestTime, &pe.Notes); err != nil {
			rows.Close()
			return fmt.Errorf("scanning plan exercise: %w", err)
		}
		i := index[planID]
		list[i].Exercises = append(list[i].Exercises, pe)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = db.Pool.Query(ctx,
		`SELECT plan_id, client FROM plan_assignments WHERE plan_id = ANY($1) ORDER BY plan_id, client`, ids)
	if err != nil {
		return fmt.Errorf("querying plan assignments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var planID uuid.UUID
		var client string
		if err := rows.Scan(&planID, &client); err != nil {
			return fmt.Errorf("scanning plan assignment: %w", err)
		}
		i := index[planID]
		list[i].ClientAssignments = append(list[i].ClientAssignments, client)
	}
	return rows.Err()
}

func insertPlanExercises(ctx context.Context, tx pgx.Tx, p *models.WorkoutPlan) error {
	for i, pe := range p.Exercises {
		_, err := tx.Exec(ctx,
			`INSERT INTO workout_plan_exercises (plan_id, position, exercise_id, sets, reps, weight, duration, rest_time, notes)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			p.ID, i+1, pe.ExerciseID, pe.Sets, pe.Reps, pe.Weight, pe.Duration, pe.RestTime, pe.Notes)
		if err != nil {
			return wrap("inserting plan exercise", err)
		}
	}
	return nil
}

func replaceAssignments(ctx context.Context, tx pgx.Tx, planID uuid.UUID, clients []string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM plan_assignments WHERE plan_id = $1`, planID); err != nil {
		return wrap("clearing plan assignments", err)
	}
	for _, c := range clients {
		if _, err := tx.Exec(ctx,
			`INSERT INTO plan_assignments (plan_id, client) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			planID, c); err != nil {
			return wrap("inserting plan assignment", err)
		}
	}
	return nil
}

// CreatePlan inserts p with its exercises and assignments. p.ID is assigned
// when nil; exercise order follows slice position.
func (db *DB) CreatePlan(ctx context.Context, p *models.WorkoutPlan) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO workout_plans (id, name, description, category, difficulty, duration,
			 target_muscle_groups, tags, equipment, is_public, created_by)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
			 RETURNING to_char(created_date, 'YYYY-MM-DD'), to_char(last_modified, 'YYYY-MM-DD')`,
			p.ID, p.Name, p.Description, p.Category, p.Difficulty, p.Duration,
			nonNil(p.TargetMuscleGroups), nonNil(p.Tags), nonNil(p.Equipment), p.IsPublic, p.CreatedBy,
		).Scan(&p.CreatedDate, &p.LastModified)
		if err != nil {
			return wrap("inserting plan", err)
		}
		if err := insertPlanExercises(ctx, tx, p); err != nil {
			return err
		}
		return replaceAssignments(ctx, tx, p.ID, p.ClientAssignments)
	})
}

// UpdatePlan replaces an owned plan's fields and exercise list. Plans owned
// by someone else are reported as ErrNotFound.
func (db *DB) UpdatePlan(ctx context.Context, p *models.WorkoutPlan) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`UPDATE workout_plans SET name = $3, description = $4, category = $5, difficulty = $6,
			 duration = $7, target_muscle_groups = $8, tags = $9, equipment = $10, is_public = $11,
			 last_modified = CURRENT_DATE
			 WHERE id = $1 AND created_by = $2
			 RETURNING to_char(created_date, 'YYYY-MM-DD'), to_char(last_modified, 'YYYY-MM-DD')`,
			p.ID, p.CreatedBy, p.Name, p.Description, p.Category, p.Difficulty, p.Duration,
			nonNil(p.TargetMuscleGroups), nonNil(p.Tags), nonNil(p.Equipment), p.IsPublic,
		).Scan(&p.CreatedDate, &p.LastModified)
		if err != nil {
			return wrap("updating plan", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM workout_plan_exercises WHERE plan_id = $1`, p.ID); err != nil {
			return wrap("clearing plan exercises", err)
		}
		return insertPlanExercises(ctx, tx, p)
	})
}

// DeletePlan removes an owned plan.
func (db *DB) DeletePlan(ctx context.Context, ownerID int64, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM workout_plans WHERE id = $1 AND created_by = $2`, id, ownerID)
	if err != nil {
		return wrap("deleting plan", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AssignPlan replaces the client assignments of an owned plan.
func (db *DB) AssignPlan(ctx context.Context, ownerID int64, id uuid.UUID, clients []string) error {
	return db.inTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM workout_plans WHERE id = $1 AND created_by = $2)`,
			id, ownerID).Scan(&exists); err != nil {
			return wrap("checking plan owner", err)
		}
		if !exists {
			return ErrNotFound
		}
		return replaceAssignments(ctx, tx, id, clients)
	})
}
