package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the booking state of a training.
type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusPending, StatusCancelled:
		return true
	}
	return false
}

// DateLayout is the wire and storage format for calendar dates.
const DateLayout = "2006-01-02"

// Training is a booked session between a trainer and a client.
// Date is a YYYY-MM-DD string and StartTime an HH:MM wall-clock time in the
// server's calendar time zone. Duration is in minutes.
type Training struct {
	ID         uuid.UUID `json:"id"`
	TrainerID  int64     `json:"trainerId"`
	Date       string    `json:"date"`
	StartTime  string    `json:"startTime"`
	Duration   int       `json:"duration"`
	ClientName string    `json:"clientName"`
	Location   string    `json:"location"`
	Notes      string    `json:"notes"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TrainingInput is the editable part of a training as submitted by a form.
type TrainingInput struct {
	Date       string `json:"date"`
	StartTime  string `json:"startTime"`
	Duration   int    `json:"duration"`
	ClientName string `json:"clientName"`
	Location   string `json:"location"`
	Notes      string `json:"notes"`
	Status     Status `json:"status"`
}

// Apply copies the input fields onto t.
func (in TrainingInput) Apply(t *Training) {
	t.Date = in.Date
	t.StartTime = in.StartTime
	t.Duration = in.Duration
	t.ClientName = in.ClientName
	t.Location = in.Location
	t.Notes = in.Notes
	t.Status = in.Status
}

// Client is an entry in a trainer's client roster.
type Client struct {
	ID        uuid.UUID `json:"id"`
	TrainerID int64     `json:"trainerId"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
