// Package validate checks user supplied donor fields before they reach the store.
package validate

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/maruel/donors/internal/donor"
)

// Default age bounds.
const (
	DefaultMinAge = 18
	DefaultMaxAge = 65
)

// BloodGroups are the accepted blood group codes.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// FieldError describes why a single field was rejected.
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Registration is a complete donor registration as entered by a user.
type Registration struct {
	FullName     string    `validate:"min=2"`
	Age          int       `validate:"donorage"`
	BloodGroup   string    `validate:"bloodgroup"`
	Contact      string    `validate:"min=6"`
	Location     string    `validate:"min=2"`
	LastDonation time.Time `validate:"notfuture"`
}

// Validator validates donor fields.
type Validator struct {
	v      *validator.Validate
	minAge int
	maxAge int
	now    func() time.Time
}

// New returns a Validator accepting ages in [minAge, maxAge].
func New(minAge, maxAge int) *Validator {
	val := &Validator{
		v:      validator.New(validator.WithRequiredStructEnabled()),
		minAge: minAge,
		maxAge: maxAge,
		now:    time.Now,
	}
	_ = val.v.RegisterValidation("bloodgroup", isBloodGroup)
	_ = val.v.RegisterValidation("donorage", func(fl validator.FieldLevel) bool {
		n := int(fl.Field().Int())
		return n >= val.minAge && n <= val.maxAge
	})
	_ = val.v.RegisterValidation("notfuture", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		return ok && (t.IsZero() || !day(t).After(day(val.now())))
	})
	return val
}

// isBloodGroup accepts the codes in BloodGroups, ignoring case and
// surrounding whitespace.
func isBloodGroup(fl validator.FieldLevel) bool {
	return slices.Contains(BloodGroups, strings.ToUpper(strings.TrimSpace(fl.Field().String())))
}

// Name returns the trimmed name.
func (v *Validator) Name(s string) (string, error) {
	s = strings.TrimSpace(s)
	return s, v.check("name", s, "min=2", "Invalid name. Please enter at least 2 characters.")
}

// Age parses and bounds checks an age.
func (v *Validator) Age(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &FieldError{Field: "age", Message: "Invalid age. Please enter a number.", Err: err}
	}
	msg := fmt.Sprintf("Age must be between %d and %d.", v.minAge, v.maxAge)
	return n, v.check("age", n, "donorage", msg)
}

// BloodGroup returns the upper-cased, trimmed blood group.
func (v *Validator) BloodGroup(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	return s, v.check("blood group", s, "bloodgroup", "Invalid blood group. Please enter one of "+strings.Join(BloodGroups, ", ")+".")
}

// Contact returns the trimmed contact.
func (v *Validator) Contact(s string) (string, error) {
	s = strings.TrimSpace(s)
	return s, v.check("contact", s, "min=6", "Invalid contact. Please enter at least 6 characters.")
}

// Location returns the trimmed location.
func (v *Validator) Location(s string) (string, error) {
	s = strings.TrimSpace(s)
	return s, v.check("location", s, "min=2", "Invalid location. Please enter at least 2 characters.")
}

// Date parses an optional YYYY-MM-DD date. An empty input returns the zero time.
func (v *Validator) Date(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if err := v.check("date", s, "omitempty,datetime="+donor.DateLayout, "Invalid date format. Use YYYY-MM-DD."); err != nil {
		return time.Time{}, err
	}
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(donor.DateLayout, s)
	if err != nil {
		return time.Time{}, &FieldError{Field: "date", Message: "Invalid date format. Use YYYY-MM-DD.", Err: err}
	}
	if t.After(day(v.now())) {
		return time.Time{}, &FieldError{Field: "date", Message: "The last donation date cannot be in the future."}
	}
	return t, nil
}

// Registration validates a complete registration.
func (v *Validator) Registration(r *Registration) error {
	err := v.v.Struct(r)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return &FieldError{Field: f.Field(), Message: fmt.Sprintf("failed %q check", f.Tag()), Err: err}
	}
	return err
}

// day returns the calendar date of t, in t's own zone, as UTC midnight.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (v *Validator) check(field string, value any, tag, msg string) error {
	if err := v.v.Var(value, tag); err != nil {
		return &FieldError{Field: field, Message: msg, Err: err}
	}
	return nil
}
