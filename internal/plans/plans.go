// Package plans implements workout plan authoring: ordering exercises,
// deriving plan metadata from the catalogue, duplication and search.
package plans

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gymbucket/gymbucket/internal/calendar"
	"github.com/gymbucket/gymbucket/internal/models"
)

// ErrUnknownExercise is returned when a plan references an exercise that is
// not in the catalogue.
var ErrUnknownExercise = errors.New("unknown exercise")

// ErrIndex is returned for an exercise position outside the plan.
var ErrIndex = errors.New("exercise index out of range")

// Catalog maps exercise IDs to exercises.
type Catalog map[string]models.Exercise

// NewCatalog indexes a list of exercises by ID.
func NewCatalog(list []models.Exercise) Catalog {
	c := make(Catalog, len(list))
	for _, e := range list {
		c[e.ID] = e
	}
	return c
}

// AddExercise appends pe at the end of the plan and refreshes the derived
// metadata.
func AddExercise(p *models.WorkoutPlan, pe models.WorkoutPlanExercise, c Catalog) error {
	if _, ok := c[pe.ExerciseID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownExercise, pe.ExerciseID)
	}
	pe.Exercise = nil
	pe.Order = len(p.Exercises) + 1
	p.Exercises = append(p.Exercises, pe)
	RefreshMetadata(p, c)
	return nil
}

// RemoveExercise drops the exercise at index i.
func RemoveExercise(p *models.WorkoutPlan, i int, c Catalog) error {
	if i < 0 || i >= len(p.Exercises) {
		return ErrIndex
	}
	p.Exercises = append(p.Exercises[:i], p.Exercises[i+1:]...)
	renumber(p)
	RefreshMetadata(p, c)
	return nil
}

// MoveUp swaps the exercise at i with its predecessor. Moving the first
// exercise is a no-op.
func MoveUp(p *models.WorkoutPlan, i int) error {
	if i < 0 || i >= len(p.Exercises) {
		return ErrIndex
	}
	if i == 0 {
		return nil
	}
	p.Exercises[i-1], p.Exercises[i] = p.Exercises[i], p.Exercises[i-1]
	renumber(p)
	return nil
}

// MoveDown swaps the exercise at i with its successor. Moving the last
// exercise is a no-op.
func MoveDown(p *models.WorkoutPlan, i int) error {
	if i < 0 || i >= len(p.Exercises) {
		return ErrIndex
	}
	if i == len(p.Exercises)-1 {
		return nil
	}
	p.Exercises[i], p.Exercises[i+1] = p.Exercises[i+1], p.Exercises[i]
	renumber(p)
	return nil
}

// Normalize rewrites Order to match slice position.
func Normalize(p *models.WorkoutPlan) { renumber(p) }

func renumber(p *models.WorkoutPlan) {
	for i := range p.Exercises {
		p.Exercises[i].Order = i + 1
	}
}

// RefreshMetadata recomputes plan equipment as the union of its exercises'
// equipment in first-seen order. Target muscle groups are derived the same
// way only when the author has not chosen any.
func RefreshMetadata(p *models.WorkoutPlan, c Catalog) {
	var equipment, muscles []string
	seenEq := map[string]bool{}
	seenMu := map[string]bool{}
	for _, pe := range p.Exercises {
		ex, ok := c[pe.ExerciseID]
		if !ok {
			continue
		}
		for _, e := range ex.Equipment {
			if !seenEq[e] {
				seenEq[e] = true
				equipment = append(equipment, e)
			}
		}
		for _, m := range ex.MuscleGroups {
			if !seenMu[m] {
				seenMu[m] = true
				muscles = append(muscles, m)
			}
		}
	}
	p.Equipment = equipment
	if len(p.TargetMuscleGroups) == 0 {
		p.TargetMuscleGroups = muscles
	}
}

// Enrich attaches catalogue details to every plan exercise for display.
func Enrich(p *models.WorkoutPlan, c Catalog) {
	for i := range p.Exercises {
		if ex, ok := c[p.Exercises[i].ExerciseID]; ok {
			ex := ex
			p.Exercises[i].Exercise = &ex
		}
	}
}

// Duplicate copies p under a new ID for owner. The copy is private, has no
// client assignments and is dated today.
func Duplicate(p models.WorkoutPlan, id uuid.UUID, owner int64, today time.Time) models.WorkoutPlan {
	d := p
	d.ID = id
	d.Name = p.Name + " (copy)"
	d.IsPublic = false
	d.CreatedBy = owner
	d.ClientAssignments = nil
	d.CreatedDate = today.Format(models.DateLayout)
	d.LastModified = d.CreatedDate
	d.Exercises = append([]models.WorkoutPlanExercise(nil), p.Exercises...)
	d.TargetMuscleGroups = append([]string(nil), p.TargetMuscleGroups...)
	d.Tags = append([]string(nil), p.Tags...)
	d.Equipment = append([]string(nil), p.Equipment...)
	return d
}

// PlanFilter selects plans. Zero fields match everything.
type PlanFilter struct {
	Search      string
	Category    string
	Difficulty  string
	MuscleGroup string
	OwnerID     int64 // when non-zero, only plans created by this user
}

// FilterPlans returns the plans matching f, preserving order.
func FilterPlans(list []models.WorkoutPlan, f PlanFilter) []models.WorkoutPlan {
	q := strings.TrimSpace(f.Search)
	out := make([]models.WorkoutPlan, 0, len(list))
	for _, p := range list {
		if q != "" && !calendar.ContainsFold(p.Name, q) && !calendar.ContainsFold(p.Description, q) && !anyContains(p.Tags, q) {
			continue
		}
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Difficulty != "" && p.Difficulty != f.Difficulty {
			continue
		}
		if f.MuscleGroup != "" && !has(p.TargetMuscleGroups, f.MuscleGroup) {
			continue
		}
		if f.OwnerID != 0 && p.CreatedBy != f.OwnerID {
			continue
		}
		out = append(out, p)
	}
	return out
}

// ExerciseFilter selects catalogue exercises. Zero fields match everything.
type ExerciseFilter struct {
	Search      string
	MuscleGroup string
	Equipment   string
	Difficulty  string
}

// FilterExercises returns the exercises matching f, preserving order.
func FilterExercises(list []models.Exercise, f ExerciseFilter) []models.Exercise {
	q := strings.TrimSpace(f.Search)
	out := make([]models.Exercise, 0, len(list))
	for _, e := range list {
		if q != "" && !calendar.ContainsFold(e.Name, q) && !calendar.ContainsFold(e.Description, q) {
			continue
		}
		if f.MuscleGroup != "" && !has(e.MuscleGroups, f.MuscleGroup) {
			continue
		}
		if f.Equipment != "" && !has(e.Equipment, f.Equipment) {
			continue
		}
		if f.Difficulty != "" && e.Difficulty != f.Difficulty {
			continue
		}
		out = append(out, e)
	}
	return out
}

func has(list []string, v string) bool {
	for _, s := range list {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func anyContains(list []string, q string) bool {
	for _, s := range list {
		if calendar.ContainsFold(s, q) {
			return true
		}
	}
	return false
}
