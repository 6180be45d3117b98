package models

import "github.com/google/uuid"

// Difficulty levels shared by exercises and plans.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Plan categories.
const (
	CategoryStrength    = "strength"
	CategoryCardio      = "cardio"
	CategoryFlexibility = "flexibility"
	CategoryMixed       = "mixed"
)

// ValidDifficulty reports whether d is one of the known difficulty levels.
func ValidDifficulty(d string) bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// ValidCategory reports whether c is one of the known plan categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryStrength, CategoryCardio, CategoryFlexibility, CategoryMixed:
		return true
	}
	return false
}

// Exercise is an entry in the shared exercise catalogue.
type Exercise struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	MuscleGroups []string `json:"muscleGroups" yaml:"muscle_groups"`
	Equipment    []string `json:"equipment" yaml:"equipment"`
	Description  string   `json:"description" yaml:"description"`
	Instructions []string `json:"instructions" yaml:"instructions"`
	ImageURL     string   `json:"imageUrl,omitempty" yaml:"image_url"`
	VideoURL     string   `json:"videoUrl,omitempty" yaml:"video_url"`
	Difficulty   string   `json:"difficulty" yaml:"difficulty"`
}

// WorkoutPlanExercise is one prescription inside a plan. Reps is free text
// ("8-10", "12", "max", "30s"). RestTime and Duration are in seconds.
type WorkoutPlanExercise struct {
	ExerciseID string    `json:"exerciseId"`
	Exercise   *Exercise `json:"exercise,omitempty"`
	Sets       int       `json:"sets"`
	Reps       string    `json:"reps"`
	Weight     float64   `json:"weight,omitempty"`
	Duration   int       `json:"duration,omitempty"`
	RestTime   int       `json:"restTime"`
	Notes      string    `json:"notes,omitempty"`
	Order      int       `json:"order"`
}

// WorkoutPlan is an ordered collection of exercise prescriptions.
// Duration is the estimated session length in minutes.
type WorkoutPlan struct {
	ID                 uuid.UUID             `json:"id"`
	Name               string                `json:"name"`
	Description        string                `json:"description"`
	Category           string                `json:"category"`
	Difficulty         string                `json:"difficulty"`
	Duration           int                   `json:"duration"`
	TargetMuscleGroups []string              `json:"targetMuscleGroups"`
	Exercises          []WorkoutPlanExercise `json:"exercises"`
	CreatedDate        string                `json:"createdDate"`
	LastModified       string                `json:"lastModified"`
	IsPublic           bool                  `json:"isPublic"`
	CreatedBy          int64                 `json:"createdBy"`
	Tags               []string              `json:"tags"`
	Equipment          []string              `json:"equipment"`
	ClientAssignments  []string              `json:"clientAssignments,omitempty"`
}
