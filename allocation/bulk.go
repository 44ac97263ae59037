package allocation

import (
	"github.com/warp/staffing-planner/generic"
)

// =============================================================================
// BULK EDITOR - Fill a date range with one percentage
// =============================================================================

// BulkEntries returns the batch written by a bulk edit: one entry for every
// date in [start, end] that is not a Saturday or Sunday.
//
// The holiday calendar is NOT consulted. Holiday scope depends on the
// resource's location and this operation does not resolve it per date, so a
// bulk edit can write allocation on a company holiday while a single-cell
// edit on the same day is refused. start > end yields an empty batch.
func BulkEntries(id generic.AssignmentID, start, end generic.Date, percent int) []Entry {
	var batch []Entry
	generic.NewPeriod(start, end).Each(func(d generic.Date) {
		if d.IsWeekend() {
			return
		}
		batch = append(batch, Entry{AssignmentID: id, Date: d, Percent: percent})
	})
	return batch
}

// ApplyBulk applies a bulk edit to a value and returns the new value plus
// the batch that was written (for the single-round-trip persistence call).
func ApplyBulk(a Allocations, id generic.AssignmentID, start, end generic.Date, percent int) (Allocations, []Entry, error) {
	if !generic.ValidPercent(percent) {
		return a, nil, generic.ErrInvalidPercent
	}
	batch := BulkEntries(id, start, end, percent)
	return a.Apply(batch), batch, nil
}

// ApplyBulk runs a bulk edit against the live store. It completes
// synchronously and returns the written batch.
func (s *Store) ApplyBulk(id generic.AssignmentID, start, end generic.Date, percent int) ([]Entry, error) {
	if !generic.ValidPercent(percent) {
		return nil, generic.ErrInvalidPercent
	}
	batch := BulkEntries(id, start, end, percent)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = s.data.Apply(batch)
	return batch, nil
}
