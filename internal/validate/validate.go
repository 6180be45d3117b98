// Package validate holds the form checks shared by the API and the CLI.
// Validators never fail fast: every violated rule adds a message, in rule
// order, so a form can show them all at once.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gymbucket/gymbucket/internal/calendar"
	"github.com/gymbucket/gymbucket/internal/models"
)

// MinDuration is the shortest bookable training or plan, in minutes.
const MinDuration = 15

// Errors is an ordered list of human-readable validation failures.
type Errors []string

func (e *Errors) add(msg string) { *e = append(*e, msg) }

func (e *Errors) addf(format string, args ...any) { *e = append(*e, fmt.Sprintf(format, args...)) }

func (e *Errors) check(ok bool, msg string) {
	if !ok {
		e.add(msg)
	}
}

// OK reports whether no rule failed.
func (e Errors) OK() bool { return len(e) == 0 }

// Error joins the messages so Errors can travel as an error value.
func (e Errors) Error() string { return strings.Join(e, "; ") }

// Training checks a training form. existing is the trainer's bookings used
// for conflict detection; editingID excludes the training being edited.
// Dates are interpreted in today's location.
func Training(in models.TrainingInput, today time.Time, existing []models.Training, editingID uuid.UUID) Errors {
	var errs Errors

	dateParsed := false
	switch {
	case strings.TrimSpace(in.Date) == "":
		errs.add("date is required")
	default:
		d, err := calendar.ParseDate(in.Date, today.Location())
		if err != nil {
			errs.add("date must be YYYY-MM-DD")
			break
		}
		dateParsed = true
		errs.check(!calendar.IsPastDate(d, today), "cannot schedule a training in the past")
	}

	startOK := false
	switch {
	case strings.TrimSpace(in.StartTime) == "":
		errs.add("start time is required")
	default:
		if _, err := calendar.ParseClock(in.StartTime); err != nil {
			errs.add("start time must be HH:MM")
		} else {
			startOK = true
		}
	}

	errs.check(strings.TrimSpace(in.ClientName) != "", "client name is required")
	errs.check(strings.TrimSpace(in.Location) != "", "location is required")

	durOK := in.Duration >= MinDuration
	errs.check(durOK, fmt.Sprintf("duration must be at least %d minutes", MinDuration))

	errs.check(in.Status == "" || in.Status.Valid(), "status must be confirmed, pending or cancelled")

	// Past dates still get the conflict check.
	if dateParsed && startOK && durOK {
		c := calendar.Candidate{Date: in.Date, StartTime: in.StartTime, Duration: in.Duration, ExcludeID: editingID}
		if hit, _ := calendar.FindConflict(existing, c); hit != nil {
			errs.addf("time conflict with training: %s (%s)", hit.ClientName, hit.StartTime)
		}
	}
	return errs
}

// Plan checks a workout plan against the exercise catalogue.
func Plan(p models.WorkoutPlan, catalog map[string]models.Exercise) Errors {
	var errs Errors
	errs.check(strings.TrimSpace(p.Name) != "", "plan name is required")
	errs.check(strings.TrimSpace(p.Description) != "", "plan description is required")
	errs.check(len(p.TargetMuscleGroups) > 0, "select at least one muscle group")
	errs.check(len(p.Exercises) > 0, "add at least one exercise")
	errs.check(models.ValidCategory(p.Category), "category must be strength, cardio, flexibility or mixed")
	errs.check(models.ValidDifficulty(p.Difficulty), "difficulty must be beginner, intermediate or advanced")
	if p.Duration != 0 && p.Duration < MinDuration {
		errs.addf("duration must be at least %d minutes", MinDuration)
	}
	for i, pe := range p.Exercises {
		n := i + 1
		if _, ok := catalog[pe.ExerciseID]; !ok {
			errs.addf("exercise %d: unknown exercise %q", n, pe.ExerciseID)
		}
		if pe.Sets < 1 {
			errs.addf("exercise %d: at least one set is required", n)
		}
		if pe.RestTime < 0 {
			errs.addf("exercise %d: rest time cannot be negative", n)
		}
	}
	return errs
}

// RegistrationInput is the sign-up form.
type RegistrationInput struct {
	FirstName          string   `json:"firstName"`
	LastName           string   `json:"lastName"`
	Email              string   `json:"email"`
	Phone              string   `json:"phone"`
	Password           string   `json:"password"`
	ConfirmPassword    string   `json:"confirmPassword"`
	Specializations    []string `json:"specializations"`
	Experience         int      `json:"experience"`
	Certifications     []string `json:"certification"`
	AcceptTerms        bool     `json:"acceptTerms"`
	AcceptedNewsletter bool     `json:"acceptNewsletter"`
}

// Registration checks a sign-up form.
func Registration(in RegistrationInput) Errors {
	var errs Errors
	name(&errs, "first name", in.FirstName)
	name(&errs, "last name", in.LastName)

	switch {
	case strings.TrimSpace(in.Email) == "":
		errs.add("email is required")
	case !Email(in.Email):
		errs.add("email is not valid")
	}

	if strings.TrimSpace(in.Phone) != "" && !Phone(in.Phone) {
		errs.add("phone number is not valid")
	}

	switch {
	case in.Password == "":
		errs.add("password is required")
	case !StrongPassword(in.Password):
		errs.add("password must be at least 8 characters and contain upper and lower case letters, a digit and a special character")
	}
	errs.check(in.Password == in.ConfirmPassword, "passwords do not match")

	errs.check(in.Experience >= 0 && in.Experience <= 50, "experience must be between 0 and 50 years")
	errs.check(in.AcceptTerms, "terms must be accepted")
	return errs
}

func name(errs *Errors, field, v string) {
	v = strings.TrimSpace(v)
	switch n := utf8.RuneCountInString(v); {
	case n == 0:
		errs.addf("%s is required", field)
	case n < 2 || n > 50:
		errs.addf("%s must be between 2 and 50 characters", field)
	}
}

var (
	phoneRE = regexp.MustCompile(`^(\+48\s?)?(\d{3}\s?\d{3}\s?\d{3}|\d{9})$`)
	emailRE = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Phone reports whether s is a Polish phone number, optionally +48 prefixed.
func Phone(s string) bool { return phoneRE.MatchString(strings.TrimSpace(s)) }

// Email reports whether s looks like an email address.
func Email(s string) bool { return emailRE.MatchString(strings.TrimSpace(s)) }

const specialChars = `!@#$%^&*(),.?":{}|<>`

// StrongPassword requires 8+ characters with upper, lower, digit and one of
// !@#$%^&*(),.?":{}|<>.
func StrongPassword(pw string) bool {
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		}
	}
	return upper && lower && digit && special && utf8.RuneCountInString(pw) >= 8
}

// Strength tiers.
const (
	TierWeak       = "weak"
	TierMedium     = "medium"
	TierStrong     = "strong"
	TierVeryStrong = "very strong"
)

// Strength is a password strength score out of 6 and its tier.
type Strength struct {
	Score int    `json:"score"`
	Tier  string `json:"tier"`
}

// PasswordStrength scores one point each for length >= 8, length >= 12,
// a lower-case letter, an upper-case letter, a digit and any other character.
func PasswordStrength(pw string) Strength {
	score := 0
	n := utf8.RuneCountInString(pw)
	if n >= 8 {
		score++
	}
	if n >= 12 {
		score++
	}
	var lower, upper, digit, other bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			other = true
		}
	}
	for _, ok := range []bool{lower, upper, digit, other} {
		if ok {
			score++
		}
	}

	tier := TierVeryStrong
	switch {
	case score <= 2:
		tier = TierWeak
	case score <= 4:
		tier = TierMedium
	case score == 5:
		tier = TierStrong
	}
	return Strength{Score: score, Tier: tier}
}
