package models

import "time"

// Role is the account type of a user.
type Role string

const (
	RoleTrainer Role = "trainer"
	RoleAdmin   Role = "admin"
	RoleClient  Role = "client"
)

// User is the public profile of an account. Secrets never leave storage
// through this type; see UserRecord.
type User struct {
	ID              int64      `json:"id"`
	Email           string     `json:"email"`
	FirstName       string     `json:"firstName"`
	LastName        string     `json:"lastName"`
	Role            Role       `json:"role"`
	IsActive        bool       `json:"isActive"`
	Avatar          string     `json:"avatar,omitempty"`
	Phone           string     `json:"phone,omitempty"`
	Specializations []string   `json:"specializations,omitempty"`
	Certifications  []string   `json:"certification,omitempty"`
	Experience      int        `json:"experience,omitempty"`
	EmailVerified   bool       `json:"emailVerified"`
	CreatedAt       time.Time  `json:"createdAt"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
}

// UserRecord is a stored account including credentials and one-time tokens.
type UserRecord struct {
	User
	PasswordHash       string
	VerificationToken  string
	ResetToken         string
	ResetTokenExpiry   *time.Time
	AcceptedNewsletter bool
}
