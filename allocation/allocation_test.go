package allocation_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/generic"
)

var d = generic.MustParseDate

// =============================================================================
// ALLOCATIONS VALUE
// =============================================================================

func TestSetZeroRemovesKey(t *testing.T) {
	a := allocation.Allocations{}.With("x", d("2024-06-03"), 60)
	require.Equal(t, 60, a.Get("x", d("2024-06-03")))

	a = a.With("x", d("2024-06-03"), 0)

	assert.Equal(t, 0, a.Get("x", d("2024-06-03")))
	_, present := a["x"][d("2024-06-03")]
	assert.False(t, present, "zero must delete the key, not store 0")
	assert.False(t, a.Has("x"), "an emptied assignment map is dropped")
}

func TestWithLeavesOriginalAndOtherAssignmentsUntouched(t *testing.T) {
	// GIVEN: two assignments with one entry each
	base := allocation.FromEntries([]allocation.Entry{
		{AssignmentID: "x", Date: d("2024-06-03"), Percent: 60},
		{AssignmentID: "y", Date: d("2024-06-03"), Percent: 40},
	})

	// WHEN: x is overwritten
	next := base.With("x", d("2024-06-03"), 90)

	// THEN: the original value is unchanged and y's map is shared, not copied
	assert.Equal(t, 60, base.Get("x", d("2024-06-03")))
	assert.Equal(t, 90, next.Get("x", d("2024-06-03")))
	assert.Equal(t, 40, next.Get("y", d("2024-06-03")))

	next["y"][d("2024-06-04")] = 10 // shared map: visible through base too
	assert.Equal(t, 10, base.Get("y", d("2024-06-04")))
	next["x"][d("2024-06-05")] = 10 // copied map: not visible through base
	assert.Equal(t, 0, base.Get("x", d("2024-06-05")))
}

func TestWithoutRemovesWholeMap(t *testing.T) {
	a := allocation.FromEntries([]allocation.Entry{
		{AssignmentID: "x", Date: d("2024-06-03"), Percent: 60},
		{AssignmentID: "x", Date: d("2024-06-04"), Percent: 60},
		{AssignmentID: "y", Date: d("2024-06-03"), Percent: 40},
	})

	b := a.Without("x")

	assert.False(t, b.Has("x"))
	assert.Equal(t, 40, b.Get("y", d("2024-06-03")))
	assert.Equal(t, 3, a.Len(), "original keeps its entries")
	assert.Equal(t, 1, b.Len())
}

func TestAllIsOrdered(t *testing.T) {
	a := allocation.FromEntries([]allocation.Entry{
		{AssignmentID: "b", Date: d("2024-06-04"), Percent: 20},
		{AssignmentID: "a", Date: d("2024-06-05"), Percent: 30},
		{AssignmentID: "a", Date: d("2024-06-03"), Percent: 10},
		{AssignmentID: "c", Date: d("2024-06-03"), Percent: 0},
	})

	assert.Equal(t, []allocation.Entry{
		{AssignmentID: "a", Date: d("2024-06-03"), Percent: 10},
		{AssignmentID: "a", Date: d("2024-06-05"), Percent: 30},
		{AssignmentID: "b", Date: d("2024-06-04"), Percent: 20},
	}, a.All())
}

func TestCloneIsDeep(t *testing.T) {
	a := allocation.Allocations{}.With("x", d("2024-06-03"), 60)
	c := a.Clone()

	c["x"][d("2024-06-03")] = 10

	assert.Equal(t, 60, a.Get("x", d("2024-06-03")))
}

// =============================================================================
// STORE
// =============================================================================

func TestStoreSetValidatesPercent(t *testing.T) {
	s := allocation.NewStore()

	assert.ErrorIs(t, s.Set("x", d("2024-06-03"), 101), generic.ErrInvalidPercent)
	assert.ErrorIs(t, s.Set("x", d("2024-06-03"), -1), generic.ErrInvalidPercent)
	assert.ErrorIs(t, s.SetBatch([]allocation.Entry{
		{AssignmentID: "x", Date: d("2024-06-03"), Percent: 50},
		{AssignmentID: "x", Date: d("2024-06-04"), Percent: 150},
	}), generic.ErrInvalidPercent)
	assert.Equal(t, 0, s.Snapshot().Len(), "a rejected batch writes nothing")

	require.NoError(t, s.Set("x", d("2024-06-03"), 100))
	assert.Equal(t, 100, s.Get("x", d("2024-06-03")))
}

func TestStoreSnapshotIsStable(t *testing.T) {
	s := allocation.NewStore()
	require.NoError(t, s.Set("x", d("2024-06-03"), 60))
	snap := s.Snapshot()

	require.NoError(t, s.Set("x", d("2024-06-03"), 20))
	s.CascadeDelete("x")

	assert.Equal(t, 60, snap.Get("x", d("2024-06-03")))
	assert.Equal(t, 0, s.Get("x", d("2024-06-03")))
}

func TestStoreCascadeDelete(t *testing.T) {
	s := allocation.NewStoreFrom(allocation.FromEntries([]allocation.Entry{
		{AssignmentID: "x", Date: d("2024-06-03"), Percent: 60},
		{AssignmentID: "y", Date: d("2024-06-03"), Percent: 40},
	}))

	s.CascadeDelete("x")

	assert.Equal(t, 0, s.Get("x", d("2024-06-03")))
	assert.Equal(t, 40, s.Get("y", d("2024-06-03")))
}

func TestStoreConcurrentWriters(t *testing.T) {
	s := allocation.NewStore()
	days := generic.NewPeriod(d("2024-06-03"), d("2024-06-30")).Days()

	var wg sync.WaitGroup
	for _, id := range []generic.AssignmentID{"a", "b", "c", "d"} {
		wg.Add(1)
		go func(id generic.AssignmentID) {
			defer wg.Done()
			for _, day := range days {
				_ = s.Set(id, day, 25)
				_ = s.Snapshot().Get(id, day)
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 4*len(days), s.Snapshot().Len())
}

// =============================================================================
// BULK EDITOR
// =============================================================================

func TestBulkSkipsWeekends(t *testing.T) {
	// GIVEN: a range starting on Saturday 2024-06-01 and ending Monday 06-03
	s := allocation.NewStore()

	// WHEN
	batch, err := s.ApplyBulk("x", d("2024-06-01"), d("2024-06-03"), 50)

	// THEN: only Monday is written
	require.NoError(t, err)
	assert.Equal(t, []allocation.Entry{{AssignmentID: "x", Date: d("2024-06-03"), Percent: 50}}, batch)
	snap := s.Snapshot()
	assert.Equal(t, 50, snap.Get("x", d("2024-06-03")))
	for _, weekend := range []string{"2024-06-01", "2024-06-02"} {
		_, present := snap["x"][d(weekend)]
		assert.False(t, present, weekend)
	}
}

func TestBulkWritesOnHolidays(t *testing.T) {
	// No calendar input: a weekday holiday is written like any other weekday.
	batch := allocation.BulkEntries("x", d("2024-12-23"), d("2024-12-27"), 40)

	assert.Len(t, batch, 5)
}

func TestBulkZeroClearsRange(t *testing.T) {
	a, _, err := allocation.ApplyBulk(allocation.Allocations{}, "x", d("2024-06-03"), d("2024-06-14"), 80)
	require.NoError(t, err)
	require.Equal(t, 10, a.Len())

	cleared, batch, err := allocation.ApplyBulk(a, "x", d("2024-06-03"), d("2024-06-07"), 0)

	require.NoError(t, err)
	assert.Len(t, batch, 5)
	assert.Equal(t, 5, cleared.Len())
	assert.Equal(t, 10, a.Len(), "input value is not modified")
}

func TestBulkRejectsInvalidPercent(t *testing.T) {
	s := allocation.NewStore()

	_, err := s.ApplyBulk("x", d("2024-06-03"), d("2024-06-07"), 120)

	assert.ErrorIs(t, err, generic.ErrInvalidPercent)
	assert.Equal(t, 0, s.Snapshot().Len())
}

func TestBulkEmptyRange(t *testing.T) {
	assert.Empty(t, allocation.BulkEntries("x", d("2024-06-07"), d("2024-06-03"), 50))
}
