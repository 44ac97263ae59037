/*
Package allocation holds the sparse per-assignment map of date -> percent.

PURPOSE:
  Allocations are the single source of truth for commitments. Every other
  figure in the planner (utilization, overallocation, financials) is derived
  from them on read.

SPARSE, NORMALIZED MAP:
  - Absence of a key means 0%.
  - Writing 0% removes the key; writing 1..100 inserts or overwrites.
  - An assignment whose last key is removed disappears from the map.

COPY-ON-WRITE:
  Allocations is a value type. With/Without/Apply never mutate the receiver;
  they return a new value that shares every untouched per-assignment map.
  Holding on to an old value is therefore a consistent snapshot, which is
  what the simulation forks and the live Store's readers rely on.

SEE ALSO:
  - store.go: mutex-guarded live store built on Allocations
  - bulk.go: weekend-skipping range fill
*/
package allocation

import (
	"sort"

	"github.com/warp/staffing-planner/generic"
)

// =============================================================================
// ENTRY - The atomic allocation unit (assignment id, ISO date, integer percent)
// =============================================================================

type Entry struct {
	AssignmentID generic.AssignmentID `json:"assignment_id"`
	Date         generic.Date         `json:"date"`
	Percent      int                  `json:"percent"`
}

// Map is one assignment's allocations. Never mutate a Map obtained from
// an Allocations value.
type Map map[generic.Date]int

// Allocations maps assignment -> per-date percentages.
type Allocations map[generic.AssignmentID]Map

// Reader is the read side shared by Allocations, Snapshot and Store.
type Reader interface {
	Get(id generic.AssignmentID, d generic.Date) int
}

var _ Reader = Allocations(nil)

// Get returns the percent for (id, d), 0 if absent.
func (a Allocations) Get(id generic.AssignmentID, d generic.Date) int {
	return a[id][d]
}

// Has reports whether the assignment has at least one entry.
func (a Allocations) Has(id generic.AssignmentID) bool {
	return len(a[id]) > 0
}

// Len returns the total number of stored entries.
func (a Allocations) Len() int {
	n := 0
	for _, m := range a {
		n += len(m)
	}
	return n
}

// With returns a copy of a with (id, d) set to percent. Only the target
// assignment's map is copied; every other map is shared.
func (a Allocations) With(id generic.AssignmentID, d generic.Date, percent int) Allocations {
	return a.Apply([]Entry{{AssignmentID: id, Date: d, Percent: percent}})
}

// Apply returns a copy of a with all entries written in order.
func (a Allocations) Apply(entries []Entry) Allocations {
	if len(entries) == 0 {
		return a
	}

	out := make(Allocations, len(a)+1)
	for id, m := range a {
		out[id] = m
	}

	copied := make(map[generic.AssignmentID]bool)
	for _, e := range entries {
		if !copied[e.AssignmentID] {
			out[e.AssignmentID] = cloneMap(out[e.AssignmentID])
			copied[e.AssignmentID] = true
		}
		m := out[e.AssignmentID]
		if e.Percent == 0 {
			delete(m, e.Date)
		} else {
			m[e.Date] = e.Percent
		}
	}

	for id := range copied {
		if len(out[id]) == 0 {
			delete(out, id)
		}
	}
	return out
}

// Without returns a copy of a with the assignment's entire map removed.
func (a Allocations) Without(id generic.AssignmentID) Allocations {
	if _, ok := a[id]; !ok {
		return a
	}
	out := make(Allocations, len(a))
	for k, m := range a {
		if k != id {
			out[k] = m
		}
	}
	return out
}

// Entries returns the assignment's entries ordered by date.
func (a Allocations) Entries(id generic.AssignmentID) []Entry {
	m := a[id]
	out := make([]Entry, 0, len(m))
	for d, p := range m {
		out = append(out, Entry{AssignmentID: id, Date: d, Percent: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// All returns every entry ordered by assignment then date.
func (a Allocations) All() []Entry {
	ids := make([]generic.AssignmentID, 0, len(a))
	for id := range a {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []Entry
	for _, id := range ids {
		out = append(out, a.Entries(id)...)
	}
	return out
}

// Clone returns a deep copy. Only needed when handing the map to code
// outside this package that may mutate it.
func (a Allocations) Clone() Allocations {
	out := make(Allocations, len(a))
	for id, m := range a {
		out[id] = cloneMap(m)
	}
	return out
}

// FromEntries builds Allocations from a flat list; zero entries are dropped.
func FromEntries(entries []Entry) Allocations {
	return Allocations{}.Apply(entries)
}

func cloneMap(m Map) Map {
	out := make(Map, len(m)+1)
	for d, p := range m {
		out[d] = p
	}
	return out
}
