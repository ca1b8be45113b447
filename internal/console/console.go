// Package console implements the interactive donor menu.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/maruel/donors/internal/donor"
	"github.com/maruel/donors/internal/donordb"
	"github.com/maruel/donors/internal/eligibility"
	"github.com/maruel/donors/internal/validate"
)

// UI reads commands from an input and writes results to an output.
type UI struct {
	r     *bufio.Reader
	lines chan line
	w     io.Writer
	store *donordb.Store
	val   *validate.Validator
	rules eligibility.Rules
	now   func() time.Time
}

// line is one read from the input.
type line struct {
	s   string
	err error
}

// New returns a UI operating on store.
func New(r io.Reader, w io.Writer, store *donordb.Store, val *validate.Validator, rules eligibility.Rules) *UI {
	return &UI{
		r:     bufio.NewReader(r),
		w:     w,
		store: store,
		val:   val,
		rules: rules,
		now:   time.Now,
	}
}

// Run shows the menu until the user exits, the input ends or ctx is done.
//
// Cancelling ctx interrupts a pending prompt. Run must not be called twice.
func (u *UI) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	u.lines = make(chan line)
	go u.readLines(done)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		u.printMenu()
		choice, err := u.prompt(ctx, "Choose an option: ")
		if err == nil {
			switch strings.TrimSpace(choice) {
			case "1":
				err = u.register(ctx)
			case "2":
				err = u.search(ctx)
			case "3":
				err = u.checkEligibility(ctx)
			case "4":
				u.list()
			case "5":
				fmt.Fprintln(u.w, "Goodbye!")
				return nil
			default:
				fmt.Fprintln(u.w, "Invalid option. Please try again.")
			}
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(u.w, "\nGoodbye!")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (u *UI) printMenu() {
	fmt.Fprintln(u.w)
	fmt.Fprintln(u.w, "=== Blood Donation Organizer ===")
	fmt.Fprintln(u.w, "1) Register a new donor")
	fmt.Fprintln(u.w, "2) Search donors")
	fmt.Fprintln(u.w, "3) Check eligibility for a donor")
	fmt.Fprintln(u.w, "4) List all donors")
	fmt.Fprintln(u.w, "5) Exit")
}

// readLines feeds u.lines until the input fails or done is closed.
func (u *UI) readLines(done <-chan struct{}) {
	defer close(u.lines)
	for {
		s, err := u.r.ReadString('\n')
		select {
		case u.lines <- line{s, err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}

// prompt prints msg and returns the next input line without its terminator.
func (u *UI) prompt(ctx context.Context, msg string) (string, error) {
	fmt.Fprint(u.w, msg)
	select {
	case <-ctx.Done():
		fmt.Fprintln(u.w)
		return "", ctx.Err()
	case l, ok := <-u.lines:
		if !ok {
			return "", io.EOF
		}
		if l.err != nil && (!errors.Is(l.err, io.EOF) || l.s == "") {
			return "", l.err
		}
		return strings.TrimRight(l.s, "\r\n"), nil
	}
}

// ask prompts until parse accepts the answer.
func ask[T any](ctx context.Context, u *UI, msg string, parse func(string) (T, error)) (T, error) {
	for {
		s, err := u.prompt(ctx, msg)
		if err != nil {
			var zero T
			return zero, err
		}
		v, err := parse(s)
		if err == nil {
			return v, nil
		}
		var fe *validate.FieldError
		if errors.As(err, &fe) {
			fmt.Fprintln(u.w, fe.Message)
		} else {
			fmt.Fprintln(u.w, err)
		}
	}
}

func (u *UI) register(ctx context.Context) error {
	fmt.Fprintln(u.w, "-- Register New Donor --")
	var reg validate.Registration
	var err error
	if reg.FullName, err = ask(ctx, u, "Full name: ", u.val.Name); err != nil {
		return err
	}
	if reg.Age, err = ask(ctx, u, "Age: ", u.val.Age); err != nil {
		return err
	}
	if reg.BloodGroup, err = ask(ctx, u, "Blood group ("+strings.Join(validate.BloodGroups, ", ")+"): ", u.val.BloodGroup); err != nil {
		return err
	}
	if reg.Contact, err = ask(ctx, u, "Contact (phone/email): ", u.val.Contact); err != nil {
		return err
	}
	if reg.Location, err = ask(ctx, u, "Location (city/district): ", u.val.Location); err != nil {
		return err
	}
	if reg.LastDonation, err = ask(ctx, u, "Last donation date (YYYY-MM-DD) or leave empty if never: ", u.val.Date); err != nil {
		return err
	}
	if err := u.val.Registration(&reg); err != nil {
		fmt.Fprintf(u.w, "Failed to register donor: %v\n", err)
		return nil
	}

	d, err := u.store.Add(reg.FullName, reg.Age, reg.BloodGroup, reg.Contact, reg.Location, reg.LastDonation)
	if err != nil {
		slog.WarnContext(ctx, "Failed to register donor", "err", err)
		fmt.Fprintf(u.w, "Failed to register donor: %v\n", err)
		return nil
	}
	slog.InfoContext(ctx, "Registered donor", "id", d.ID, "group", d.BloodGroup, "location", d.Location)
	fmt.Fprintln(u.w)
	fmt.Fprintf(u.w, "Donor registered with ID: %s\n", d.ID)
	fmt.Fprintf(u.w, "Eligibility: %s\n", u.rules.Message(d.LastDonation, u.now()))
	return nil
}

func (u *UI) search(ctx context.Context) error {
	fmt.Fprintln(u.w, "-- Search Donors --")
	group, err := ask(ctx, u, "Required blood group: ", u.val.BloodGroup)
	if err != nil {
		return err
	}
	location, err := ask(ctx, u, "Location (city/district): ", u.val.Location)
	if err != nil {
		return err
	}
	results := u.store.Cache().FindByGroupAndLocation(group, location)
	if len(results) == 0 {
		fmt.Fprintln(u.w, "No matching donors found.")
		return nil
	}
	today := u.now()
	fmt.Fprintf(u.w, "%d donor(s) found:\n", len(results))
	for _, d := range results {
		status := "Eligible"
		if !u.rules.IsEligible(d.LastDonation, today) {
			status = "Not eligible, next: " + u.rules.NextEligibleDate(d.LastDonation, today).Format(donor.DateLayout)
		}
		fmt.Fprintf(u.w, "- %s | Contact: %s | Location: %s | Last: %s | Status: %s\n", d.FullName, d.Contact, d.Location, lastDonation(&d), status)
	}
	return nil
}

func (u *UI) checkEligibility(ctx context.Context) error {
	fmt.Fprintln(u.w, "-- Check Eligibility --")
	name, err := u.prompt(ctx, "Enter donor full name to check (exact match): ")
	if err != nil {
		return err
	}
	d, ok := findByName(u.store.Cache().All(), name)
	if !ok {
		fmt.Fprintln(u.w, "No donor found with that name.")
		return nil
	}
	fmt.Fprintln(u.w, u.rules.Message(d.LastDonation, u.now()))
	return nil
}

func (u *UI) list() {
	fmt.Fprintln(u.w, "-- All Donors --")
	all := u.store.Cache().All()
	if len(all) == 0 {
		fmt.Fprintln(u.w, "No donors registered yet.")
		return
	}
	fmt.Fprintf(u.w, "%d donor(s) registered:\n", len(all))
	for _, d := range all {
		fmt.Fprintf(u.w, "- %s (%s, %d) | Contact: %s | Location: %s | Last: %s\n", d.FullName, d.BloodGroup, d.Age, d.Contact, d.Location, lastDonation(&d))
	}
}

// findByName returns the first donor whose full name matches name ignoring
// case and surrounding whitespace.
func findByName(all []donor.Donor, name string) (donor.Donor, bool) {
	name = strings.TrimSpace(name)
	for _, d := range all {
		if strings.EqualFold(d.FullName, name) {
			return d, true
		}
	}
	return donor.Donor{}, false
}

func lastDonation(d *donor.Donor) string {
	if !d.HasDonated() {
		return "N/A"
	}
	return d.LastDonationString()
}
