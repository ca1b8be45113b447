// Package eligibility decides whether a donor may donate again.
package eligibility

import (
	"fmt"
	"time"

	"github.com/maruel/donors/internal/donor"
)

// DefaultMinGapMonths is the minimum number of months between two donations.
const DefaultMinGapMonths = 3

// Rules holds the eligibility parameters.
type Rules struct {
	MinGapMonths int
}

// Default returns the standard rules.
func Default() Rules {
	return Rules{MinGapMonths: DefaultMinGapMonths}
}

// NextEligibleDate returns the first day a donor whose last donation was on
// last may donate again. A zero last means never donated, in which case today
// is returned.
func (r Rules) NextEligibleDate(last, today time.Time) time.Time {
	if last.IsZero() {
		return day(today)
	}
	return addMonths(day(last), r.MinGapMonths)
}

// IsEligible reports whether a donor may donate on today.
func (r Rules) IsEligible(last, today time.Time) bool {
	if last.IsZero() {
		return true
	}
	return !day(today).Before(r.NextEligibleDate(last, today))
}

// Message describes the donor's status on today for display.
func (r Rules) Message(last, today time.Time) string {
	if r.IsEligible(last, today) {
		return "Eligible to donate now."
	}
	next := r.NextEligibleDate(last, today)
	return fmt.Sprintf("Not eligible yet. Next eligible on %s (in about %d days).", next.Format(donor.DateLayout), max(ApproxDays(day(today), next), 1))
}

// ApproxDays returns the period from start to end as days + months*30 + years*365.
//
// The value is an approximation meant for display; it is not the exact number
// of days between the two dates.
func ApproxDays(start, end time.Time) int {
	years, months, days := period(start, end)
	return days + months*30 + years*365
}

// period splits the calendar interval [start, end) into whole years, months
// and remaining days. end must not be before start.
func period(start, end time.Time) (years, months, days int) {
	total := (end.Year()-start.Year())*12 + int(end.Month()-start.Month())
	days = end.Day() - start.Day()
	if total > 0 && days < 0 {
		total--
		anchor := addMonths(start, total)
		days = int(end.Sub(anchor).Hours() / 24)
	}
	return total / 12, total % 12, days
}

// addMonths adds n calendar months, clamping the day to the last day of the
// resulting month (Jan 31 + 1 month = Feb 28 or 29).
func addMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return time.Date(first.Year(), first.Month(), min(t.Day(), last), 0, 0, 0, 0, time.UTC)
}

// day truncates t to its calendar date in UTC.
func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
