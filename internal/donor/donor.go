// Package donor defines the donor record and its single-line text encoding.
//
// # File Format
//
// One record per line, seven comma separated fields in the order of [Columns].
// A field containing a comma, a quote or a newline is wrapped in quotes with
// every embedded quote doubled. The date is written as YYYY-MM-DD, or left
// empty when the donor never donated.
package donor

import (
	"strings"
	"time"
)

// DateLayout is the on-disk and user-facing calendar date format.
const DateLayout = time.DateOnly

// Columns are the field names, in encoding order.
var Columns = []string{"id", "fullName", "age", "bloodGroup", "contact", "location", "lastDonationDate"}

// Header is the first line of a donor file.
var Header = strings.Join(Columns, ",")

// Donor is one registered donor.
//
// It is a value: the store hands out copies and never mutates a stored record.
type Donor struct {
	ID         string
	FullName   string
	Age        int
	BloodGroup string
	Contact    string
	Location   string
	// LastDonation is the zero time when the donor never donated.
	LastDonation time.Time
}

// HasDonated reports whether a previous donation date is known.
func (d *Donor) HasDonated() bool {
	return !d.LastDonation.IsZero()
}

// LastDonationString returns the ISO date of the last donation, or "" if none.
func (d *Donor) LastDonationString() string {
	if d.LastDonation.IsZero() {
		return ""
	}
	return d.LastDonation.Format(DateLayout)
}
