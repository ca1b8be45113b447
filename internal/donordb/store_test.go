package donordb

import (
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/maruel/donors/internal/donor"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "donors.csv"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestStore(t *testing.T) {
	s := openTestStore(t)
	if n := s.Cache().Len(); n != 0 {
		t.Fatalf("Len = %d, want 0", n)
	}

	var alice donor.Donor
	t.Run("Add", func(t *testing.T) {
		var err error
		alice, err = s.Add("Alice Smith", 30, "O+", "alice@x.com", "Springfield", time.Time{})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if alice.ID == "" {
			t.Error("expected non-empty ID")
		}
		if alice.FullName != "Alice Smith" || alice.Age != 30 || alice.HasDonated() {
			t.Errorf("Add returned %+v", alice)
		}
		all := s.Cache().All()
		if len(all) != 1 || all[0] != alice {
			t.Errorf("All = %+v, want [%+v]", all, alice)
		}
		if got := s.Cache().FindByGroupAndLocation("O+", "Springfield"); len(got) != 1 || got[0] != alice {
			t.Errorf("FindByGroupAndLocation(O+, Springfield) = %+v", got)
		}
		if got := s.Cache().FindByGroupAndLocation("O+", "Shelbyville"); len(got) != 0 {
			t.Errorf("FindByGroupAndLocation(O+, Shelbyville) = %+v, want empty", got)
		}
	})

	t.Run("unique ids", func(t *testing.T) {
		a, err := s.Add("Bob", 40, "A-", "bob@x.com", "Shelbyville", time.Date(2024, time.May, 1, 0, 0, 0, 0, time.UTC))
		if err != nil {
			t.Fatal(err)
		}
		b, err := s.Add("Bob", 40, "A-", "bob@x.com", "Shelbyville", time.Time{})
		if err != nil {
			t.Fatal(err)
		}
		if a.ID == b.ID || a.ID == alice.ID {
			t.Errorf("duplicate ids: %q %q %q", alice.ID, a.ID, b.ID)
		}
	})

	t.Run("Size", func(t *testing.T) {
		info, err := os.Stat(s.Path())
		if err != nil {
			t.Fatal(err)
		}
		if s.Size() != info.Size() {
			t.Errorf("Size = %d, want %d", s.Size(), info.Size())
		}
	})

	t.Run("reopen", func(t *testing.T) {
		s2, err := Open(s.Path())
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if got, want := ids(s2.Cache().All()), ids(s.Cache().All()); !slices.Equal(got, want) {
			t.Errorf("reloaded ids = %v, want %v", got, want)
		}
		for _, d := range s.Cache().All() {
			got, ok := s2.Cache().Get(d.ID)
			if !ok || got != d {
				t.Errorf("reloaded %q = %+v, want %+v", d.ID, got, d)
			}
		}
	})
}

func TestStoreIdempotentLoad(t *testing.T) {
	s := openTestStore(t)
	groups := []string{"O+", "o+", "A-", "AB+"}
	locations := []string{"Springfield", " springfield", "Shelbyville"}
	for i := range 24 {
		if _, err := s.Add("Donor, No. "+string(rune('A'+i)), 20+i, groups[i%len(groups)], "contact", locations[i%len(locations)], time.Time{}); err != nil {
			t.Fatal(err)
		}
	}
	s1, err := Open(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	s2, err := Open(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range groups {
		for _, l := range locations {
			a := ids(s1.Cache().FindByGroupAndLocation(g, l))
			b := ids(s2.Cache().FindByGroupAndLocation(g, l))
			c := ids(s.Cache().FindByGroupAndLocation(g, l))
			if !slices.Equal(a, b) || !slices.Equal(a, c) {
				t.Errorf("FindByGroupAndLocation(%q, %q): %v / %v / %v", g, l, a, b, c)
			}
		}
	}
}

func TestStoreAppendFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := Open(filepath.Join(dir, "donors.csv"))
	if err != nil {
		t.Fatal(err)
	}
	// Replace the data directory with a regular file so the append cannot open the path.
	if err := os.RemoveAll(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dir, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add("Alice", 30, "O+", "alice@x.com", "Springfield", time.Time{}); err == nil {
		t.Fatal("Add succeeded, want error")
	}
	if n := len(s.Cache().All()); n != 0 {
		t.Errorf("All has %d records after a failed append, want 0", n)
	}
	if got := s.Cache().FindByGroupAndLocation("O+", "Springfield"); len(got) != 0 {
		t.Errorf("FindByGroupAndLocation = %+v after a failed append", got)
	}
}

func TestStoreDuplicateID(t *testing.T) {
	s := openTestStore(t)
	s.newID = func() string { return "fixed" }
	if _, err := s.Add("A", 20, "O+", "c", "l", time.Time{}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add("B", 20, "O+", "c", "l", time.Time{}); err == nil {
		t.Error("expected error on duplicate id")
	}
	got, err := LoadAll(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("file has %d records, want 1", len(got))
	}
}

func TestStoreConcurrentAdd(t *testing.T) {
	s := openTestStore(t)
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Go(func() {
			for j := range 10 {
				if _, err := s.Add("Name", 20+i, "B+", "contact", "Town", time.Time{}); err != nil {
					t.Errorf("Add %d/%d: %v", i, j, err)
				}
			}
		})
	}
	wg.Wait()
	loaded, err := LoadAll(s.Path())
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 80 || s.Cache().Len() != 80 {
		t.Errorf("file has %d records, cache %d, want 80", len(loaded), s.Cache().Len())
	}
}

func TestOpenErrors(t *testing.T) {
	if _, err := Open(""); err == nil {
		t.Error("Open(\"\") succeeded")
	}
	path := filepath.Join(t.TempDir(), "donors.csv")
	if err := os.WriteFile(path, []byte(donor.Header+"\nid,Name,notanumber,O+,c,l,\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path); err == nil {
		t.Error("Open of a malformed file succeeded")
	}
}

func TestStoreChanged(t *testing.T) {
	s := openTestStore(t)
	if changed, err := s.Changed(); err != nil || changed {
		t.Fatalf("Changed = %t, %v after Open", changed, err)
	}
	if _, err := s.Add("Alice", 30, "O+", "alice@x.com", "Springfield", time.Time{}); err != nil {
		t.Fatal(err)
	}
	if changed, err := s.Changed(); err != nil || changed {
		t.Fatalf("Changed = %t, %v after Add", changed, err)
	}
	d := donor.Donor{ID: "ext", FullName: "Bob", Age: 40, BloodGroup: "A-", Contact: "bob@x.com", Location: "Shelbyville"}
	if err := Append(s.Path(), &d); err != nil {
		t.Fatal(err)
	}
	if changed, err := s.Changed(); err != nil || !changed {
		t.Errorf("Changed = %t, %v after external append, want true", changed, err)
	}
	if err := os.Remove(s.Path()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Changed(); err == nil {
		t.Error("Changed succeeded on a missing file")
	}
}
