package allocation

import (
	"sync"

	"github.com/warp/staffing-planner/generic"
)

// =============================================================================
// STORE - Live allocation store (single writer, many readers)
// =============================================================================

// Store guards the live Allocations value. Writers swap in a new value
// under the lock; readers take a Snapshot at call start and then read
// without holding the lock, so an aggregation never observes a torn write.
type Store struct {
	mu   sync.RWMutex
	data Allocations
}

func NewStore() *Store {
	return &Store{data: Allocations{}}
}

// NewStoreFrom wraps an existing value. The value must not be mutated by
// the caller afterwards.
func NewStoreFrom(a Allocations) *Store {
	if a == nil {
		a = Allocations{}
	}
	return &Store{data: a}
}

// Get returns the percent for (id, d), 0 if absent.
func (s *Store) Get(id generic.AssignmentID, d generic.Date) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Get(id, d)
}

// Set writes one cell. 0 deletes the key. Other assignments' maps are
// untouched.
func (s *Store) Set(id generic.AssignmentID, d generic.Date, percent int) error {
	if !generic.ValidPercent(percent) {
		return generic.ErrInvalidPercent
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = s.data.With(id, d, percent)
	return nil
}

// SetBatch writes all entries as one logical operation.
func (s *Store) SetBatch(entries []Entry) error {
	for _, e := range entries {
		if !generic.ValidPercent(e.Percent) {
			return generic.ErrInvalidPercent
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = s.data.Apply(entries)
	return nil
}

// CascadeDelete removes the assignment's entire map.
func (s *Store) CascadeDelete(id generic.AssignmentID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = s.data.Without(id)
}

// Replace swaps in a freshly loaded value (full reload).
func (s *Store) Replace(a Allocations) {
	if a == nil {
		a = Allocations{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = a
}

// Snapshot returns the current value. It stays valid and unchanged no
// matter what is written to the store afterwards.
func (s *Store) Snapshot() Allocations {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}
