// In-memory donor lookup structures.

package donordb

import (
	"strings"
	"sync"

	"github.com/maruel/donors/internal/donor"
)

// NormalizeKey trims surrounding whitespace and upper-cases s.
//
// It is applied to both stored values and query values so that lookups are
// insensitive to case and surrounding whitespace.
func NormalizeKey(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Cache holds every known donor keyed by ID plus a secondary grouping by
// normalized blood group.
//
// Entries are only ever added. The zero value is not usable, see [NewCache].
type Cache struct {
	mu      sync.RWMutex
	byID    map[string]donor.Donor
	order   []string
	byGroup map[string][]string
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		byID:    make(map[string]donor.Donor),
		byGroup: make(map[string][]string),
	}
}

// Insert adds d to the cache and appends it to its blood group bucket.
//
// IDs are unique; inserting an ID already present is a no-op.
func (c *Cache) Insert(d donor.Donor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[d.ID]; ok {
		return
	}
	c.byID[d.ID] = d
	c.order = append(c.order, d.ID)
	key := NormalizeKey(d.BloodGroup)
	c.byGroup[key] = append(c.byGroup[key], d.ID)
}

// Len returns the number of donors.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.byID)
}

// Get returns the donor with the given ID.
func (c *Cache) Get(id string) (donor.Donor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.byID[id]
	return d, ok
}

// All returns every donor, in insertion order.
func (c *Cache) All() []donor.Donor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]donor.Donor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// FindByGroupAndLocation returns the donors of the given blood group whose
// location matches, in insertion order. Both keys are normalized.
func (c *Cache) FindByGroupAndLocation(bloodGroup, location string) []donor.Donor {
	loc := NormalizeKey(location)
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []donor.Donor
	for _, id := range c.byGroup[NormalizeKey(bloodGroup)] {
		if d := c.byID[id]; NormalizeKey(d.Location) == loc {
			out = append(out, d)
		}
	}
	return out
}
