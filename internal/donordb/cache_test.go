package donordb

import (
	"fmt"
	"slices"
	"testing"

	"github.com/maruel/donors/internal/donor"
)

func ids(donors []donor.Donor) []string {
	out := make([]string, 0, len(donors))
	for _, d := range donors {
		out = append(out, d.ID)
	}
	return out
}

func TestNormalizeKey(t *testing.T) {
	for in, want := range map[string]string{
		" o+ ":        "O+",
		"O+":          "O+",
		"\tab-\n":     "AB-",
		"Springfield": "SPRINGFIELD",
		"":            "",
	} {
		if got := NormalizeKey(in); got != want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCache(t *testing.T) {
	c := NewCache()
	if c.Len() != 0 || len(c.All()) != 0 {
		t.Fatal("new cache is not empty")
	}
	if got := c.FindByGroupAndLocation("O+", "Springfield"); len(got) != 0 {
		t.Errorf("query on empty cache = %v", got)
	}

	c.Insert(donor.Donor{ID: "a", FullName: "Alice", BloodGroup: "O+", Location: "Springfield"})
	c.Insert(donor.Donor{ID: "b", FullName: "Bob", BloodGroup: "o+", Location: " springfield "})
	c.Insert(donor.Donor{ID: "c", FullName: "Carol", BloodGroup: "O+", Location: "Shelbyville"})
	c.Insert(donor.Donor{ID: "d", FullName: "Dan", BloodGroup: "A-", Location: "Springfield"})
	c.Insert(donor.Donor{ID: "a", FullName: "Impostor", BloodGroup: "B+", Location: "Nowhere"})

	if c.Len() != 4 {
		t.Errorf("Len = %d, want 4", c.Len())
	}
	if got, want := ids(c.All()), []string{"a", "b", "c", "d"}; !slices.Equal(got, want) {
		t.Errorf("All = %v, want %v", got, want)
	}
	if d, ok := c.Get("a"); !ok || d.FullName != "Alice" {
		t.Errorf("Get(a) = %+v, %v", d, ok)
	}
	if _, ok := c.Get("zzz"); ok {
		t.Error("Get(zzz) found a donor")
	}

	tests := []struct {
		group, location string
		want            []string
	}{
		{"O+", "Springfield", []string{"a", "b"}},
		{" o+ ", "SPRINGFIELD", []string{"a", "b"}},
		{"O+", "Shelbyville", []string{"c"}},
		{"A-", "springfield", []string{"d"}},
		{"A-", "Shelbyville", nil},
		{"B+", "Nowhere", nil},
		{"AB+", "Springfield", nil},
	}
	for _, tt := range tests {
		got := ids(c.FindByGroupAndLocation(tt.group, tt.location))
		if !slices.Equal(got, tt.want) {
			t.Errorf("FindByGroupAndLocation(%q, %q) = %v, want %v", tt.group, tt.location, got, tt.want)
		}
	}
}

func TestCacheIndexConsistency(t *testing.T) {
	groups := []string{"A+", " a- ", "B+", "b-", "AB+", "ab-", "O+", " O- "}
	locations := []string{"Springfield", "springfield ", "Shelbyville", "Ogdenville"}
	c := NewCache()
	for i := range 200 {
		c.Insert(donor.Donor{
			ID:         fmt.Sprintf("id%03d", i),
			BloodGroup: groups[(i*7)%len(groups)],
			Location:   locations[(i*3)%len(locations)],
		})
	}
	all := c.All()
	if len(all) != 200 {
		t.Fatalf("len = %d, want 200", len(all))
	}
	for _, d := range all {
		g, l := NormalizeKey(d.BloodGroup), NormalizeKey(d.Location)
		found := c.FindByGroupAndLocation(g, l)
		if !slices.ContainsFunc(found, func(x donor.Donor) bool { return x.ID == d.ID }) {
			t.Errorf("%s missing from FindByGroupAndLocation(%q, %q)", d.ID, g, l)
		}
		for _, x := range found {
			if NormalizeKey(x.BloodGroup) != g || NormalizeKey(x.Location) != l {
				t.Errorf("FindByGroupAndLocation(%q, %q) returned %+v", g, l, x)
			}
		}
		// IDs are zero padded so lexical order is insertion order.
		if !slices.IsSorted(ids(found)) {
			t.Errorf("FindByGroupAndLocation(%q, %q) not in insertion order", g, l)
		}
	}
}
