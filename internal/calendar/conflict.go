package calendar

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/gymbucket/gymbucket/internal/models"
)

// Candidate is a proposed booking checked against existing trainings.
// ExcludeID is the training being edited in place, or uuid.Nil.
type Candidate struct {
	Date      string
	StartTime string
	Duration  int
	ExcludeID uuid.UUID
}

// FindConflict returns the first training on the candidate's date whose
// interval overlaps the candidate's, or nil. Trainings with unparseable
// start times are skipped.
func FindConflict(trainings []models.Training, c Candidate) (*models.Training, error) {
	start, err := ParseClock(c.StartTime)
	if err != nil {
		return nil, fmt.Errorf("candidate start: %w", err)
	}
	end := start + c.Duration

	for i := range trainings {
		t := &trainings[i]
		if t.Date != c.Date || (c.ExcludeID != uuid.Nil && t.ID == c.ExcludeID) {
			continue
		}
		tStart, err := ParseClock(t.StartTime)
		if err != nil {
			continue
		}
		if Overlaps(start, end, tStart, tStart+t.Duration) {
			return t, nil
		}
	}
	return nil, nil
}

// EndTime returns the training's end as "HH:MM", or "" when its start time
// is malformed.
func EndTime(t models.Training) string {
	start, err := ParseClock(t.StartTime)
	if err != nil {
		return ""
	}
	return FormatClock(start + t.Duration)
}
