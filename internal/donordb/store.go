package donordb

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/maruel/donors/internal/donor"
	"github.com/maruel/ksid"
)

var errPathRequired = errors.New("donor file path is required")

// Store is the donor file plus its in-memory cache.
type Store struct {
	path  string
	cache *Cache
	newID func() string

	mu   sync.Mutex
	size int64
}

// Open initializes the donor file if needed and loads it into a new cache.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errPathRequired
	}
	if err := Initialize(path); err != nil {
		return nil, err
	}
	donors, err := LoadAll(path)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat donor file: %w", err)
	}
	s := &Store{
		path:  path,
		cache: NewCache(),
		newID: func() string { return ksid.NewID().String() },
		size:  info.Size(),
	}
	for _, d := range donors {
		s.cache.Insert(d)
	}
	return s, nil
}

// Path returns the donor file path.
func (s *Store) Path() string {
	return s.path
}

// Cache returns the query side of the store.
func (s *Store) Cache() *Cache {
	return s.cache
}

// Size returns the donor file size as of the last write done by this Store.
func (s *Store) Size() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Add registers a new donor under a fresh ID and returns the stored record.
//
// The record is durably appended before it becomes visible in the cache; on
// error the cache is unchanged. Inputs are trusted, validation happens before.
func (s *Store) Add(fullName string, age int, bloodGroup, contact, location string, lastDonation time.Time) (donor.Donor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := donor.Donor{
		ID:           s.newID(),
		FullName:     fullName,
		Age:          age,
		BloodGroup:   bloodGroup,
		Contact:      contact,
		Location:     location,
		LastDonation: lastDonation,
	}
	if _, ok := s.cache.Get(d.ID); ok {
		return donor.Donor{}, fmt.Errorf("duplicate donor id %q", d.ID)
	}
	size, err := appendLine(s.path, donor.Encode(&d)+"\n")
	if err != nil {
		return donor.Donor{}, err
	}
	s.size = size
	s.cache.Insert(d)
	return d, nil
}

// Changed reports whether the donor file size differs from the size this Store
// last wrote or loaded, meaning another writer touched it.
func (s *Store) Changed() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	info, err := os.Stat(s.path)
	if err != nil {
		return false, err
	}
	return info.Size() != s.size, nil
}
