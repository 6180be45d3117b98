package calendar

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/gymbucket/gymbucket/internal/models"
)

// Day view bounds, in minutes since midnight.
const (
	firstSlot    = 6 * 60
	lastSlot     = 22*60 + 30
	slotInterval = 30
)

// TimeSlots returns the day view rows: 06:00 through 22:30 every 30 minutes.
func TimeSlots() []string {
	slots := make([]string, 0, (lastSlot-firstSlot)/slotInterval+1)
	for m := firstSlot; m <= lastSlot; m += slotInterval {
		slots = append(slots, FormatClock(m))
	}
	return slots
}

// TrainingsInSlot returns the trainings on date that occupy slot, i.e.
// start <= slot < end.
func TrainingsInSlot(trainings []models.Training, date, slot string) []models.Training {
	at, err := ParseClock(slot)
	if err != nil {
		return nil
	}
	var out []models.Training
	for _, t := range trainings {
		if t.Date != date {
			continue
		}
		start, err := ParseClock(t.StartTime)
		if err != nil {
			continue
		}
		if start <= at && at < start+t.Duration {
			out = append(out, t)
		}
	}
	return out
}

// Fold returns s case-folded for caseless matching.
func Fold(s string) string {
	return cases.Fold().String(s)
}

// ContainsFold reports whether substr is within s under Unicode case folding.
func ContainsFold(s, substr string) bool {
	return strings.Contains(Fold(s), Fold(substr))
}

// Filter keeps trainings whose client name contains clientQuery and whose
// status equals status. Empty arguments match everything.
func Filter(trainings []models.Training, clientQuery string, status models.Status) []models.Training {
	q := Fold(strings.TrimSpace(clientQuery))
	out := make([]models.Training, 0, len(trainings))
	for _, t := range trainings {
		if q != "" && !strings.Contains(Fold(t.ClientName), q) {
			continue
		}
		if status != "" && t.Status != status {
			continue
		}
		out = append(out, t)
	}
	return out
}
