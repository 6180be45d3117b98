package calendar

import (
	"time"

	"github.com/gymbucket/gymbucket/internal/models"
)

// GridCells is the fixed size of a month grid: six Monday-first weeks.
const GridCells = 42

// Day is one cell of the month grid.
type Day struct {
	Date           string            `json:"date"`
	DayNumber      int               `json:"dayNumber"`
	IsCurrentMonth bool              `json:"isCurrentMonth"`
	IsToday        bool              `json:"isToday"`
	IsSelected     bool              `json:"isSelected"`
	IsPast         bool              `json:"isPast"`
	Trainings      []models.Training `json:"trainings"`
}

// Grid is a month view padded to full weeks.
type Grid struct {
	Year  int            `json:"year"`
	Month time.Month     `json:"month"`
	Days  [GridCells]Day `json:"days"`
}

// WeekDay is one column of the week view.
type WeekDay struct {
	Date      string            `json:"date"`
	DayName   string            `json:"dayName"`
	DayNumber int               `json:"dayNumber"`
	IsToday   bool              `json:"isToday"`
	IsPast    bool              `json:"isPast"`
	Trainings []models.Training `json:"trainings"`
}

var dayNames = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Midnight truncates t to 00:00 in its own location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns Monday 00:00 of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return Midnight(t).AddDate(0, 0, -offset)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// IsPastDate reports whether d is on a calendar date strictly before today.
func IsPastDate(d, today time.Time) bool {
	return Midnight(d).Before(Midnight(today))
}

// ParseDate parses a YYYY-MM-DD date at midnight in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, s, loc)
}

func byDate(trainings []models.Training) map[string][]models.Training {
	m := make(map[string][]models.Training)
	for _, t := range trainings {
		m[t.Date] = append(m[t.Date], t)
	}
	return m
}

// MonthGrid lays out the month containing ref as 42 cells starting on the
// Monday on or before the 1st. selected may be nil.
func MonthGrid(ref, today time.Time, selected *time.Time, trainings []models.Training) Grid {
	first := time.Date(ref.Year(), ref.Month(), 1, 0, 0, 0, 0, ref.Location())
	start := StartOfWeek(first)
	idx := byDate(trainings)

	g := Grid{Year: first.Year(), Month: first.Month()}
	for i := range g.Days {
		d := start.AddDate(0, 0, i)
		key := d.Format(models.DateLayout)
		g.Days[i] = Day{
			Date:           key,
			DayNumber:      d.Day(),
			IsCurrentMonth: d.Month() == first.Month() && d.Year() == first.Year(),
			IsToday:        SameDay(d, today),
			IsSelected:     selected != nil && SameDay(d, *selected),
			IsPast:         IsPastDate(d, today),
			Trainings:      idx[key],
		}
	}
	return g
}

// WeekView returns the Monday-first week containing ref.
func WeekView(ref, today time.Time, trainings []models.Training) [7]WeekDay {
	start := StartOfWeek(ref)
	idx := byDate(trainings)

	var week [7]WeekDay
	for i := range week {
		d := start.AddDate(0, 0, i)
		key := d.Format(models.DateLayout)
		week[i] = WeekDay{
			Date:      key,
			DayName:   dayNames[i],
			DayNumber: d.Day(),
			IsToday:   SameDay(d, today),
			IsPast:    IsPastDate(d, today),
			Trainings: idx[key],
		}
	}
	return week
}
