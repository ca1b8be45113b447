// Encodes and decodes a donor as one delimited line.

package donor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	delim = ','
	quote = '"'
)

// ErrMalformed is wrapped by every decode failure.
var ErrMalformed = errors.New("malformed donor record")

// QuoteField returns s ready to be placed between delimiters.
func QuoteField(s string) string {
	if !strings.ContainsAny(s, ",\"\n") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte(quote)
	for i := 0; i < len(s); i++ {
		if s[i] == quote {
			b.WriteByte(quote)
		}
		b.WriteByte(s[i])
	}
	b.WriteByte(quote)
	return b.String()
}

// SplitLine splits a line into fields, honoring quoted spans.
//
// A doubled quote inside a quoted span is a literal quote. An unterminated
// span runs to the end of the line. The result is padded with empty strings
// up to n fields.
func SplitLine(line string, n int) []string {
	fields := make([]string, 0, n)
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if inQuotes {
			if c == quote {
				if i+1 < len(line) && line[i+1] == quote {
					cur.WriteByte(quote)
					i++
				} else {
					inQuotes = false
				}
			} else {
				cur.WriteByte(c)
			}
			continue
		}
		switch c {
		case quote:
			inQuotes = true
		case delim:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	fields = append(fields, cur.String())
	for len(fields) < n {
		fields = append(fields, "")
	}
	return fields
}

// Balanced reports whether line closes every quoted span it opens.
//
// A line that is not balanced ends inside a quoted field, which means the
// field contained a newline and the record continues on the next line.
func Balanced(line string) bool {
	return strings.Count(line, `"`)%2 == 0
}

// Encode returns the single-line representation of d, without line terminator.
func Encode(d *Donor) string {
	fields := [...]string{
		d.ID,
		d.FullName,
		strconv.Itoa(d.Age),
		d.BloodGroup,
		d.Contact,
		d.Location,
		d.LastDonationString(),
	}
	var b strings.Builder
	for i, f := range fields {
		if i != 0 {
			b.WriteByte(delim)
		}
		b.WriteString(QuoteField(f))
	}
	return b.String()
}

// Decode parses a line produced by [Encode].
func Decode(line string) (Donor, error) {
	f := SplitLine(line, len(Columns))
	if len(f) > len(Columns) {
		return Donor{}, fmt.Errorf("%w: got %d fields, want %d", ErrMalformed, len(f), len(Columns))
	}
	age, err := strconv.Atoi(f[2])
	if err != nil {
		return Donor{}, fmt.Errorf("%w: %s %q is not an integer", ErrMalformed, Columns[2], f[2])
	}
	d := Donor{
		ID:         f[0],
		FullName:   f[1],
		Age:        age,
		BloodGroup: f[3],
		Contact:    f[4],
		Location:   f[5],
	}
	if s := strings.TrimSpace(f[6]); s != "" {
		if d.LastDonation, err = time.Parse(DateLayout, s); err != nil {
			return Donor{}, fmt.Errorf("%w: %s %q is not a YYYY-MM-DD date", ErrMalformed, Columns[6], f[6])
		}
	}
	return d, nil
}
