package utilization_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/calendar"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/leave"
	"github.com/warp/staffing-planner/staffing"
	"github.com/warp/staffing-planner/utilization"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var d = generic.MustParseDate

func assertPercent(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2))
}

// baseSet has one resource r1 (hired 2020, Lisbon) with assignments x and y,
// and a company holiday on Tuesday 2024-06-04.
func baseSet() staffing.WorkingSet {
	return staffing.WorkingSet{
		Resources: []staffing.Resource{
			{ID: "r1", Name: "Ana", Location: "Lisbon", HireDate: d("2020-01-01")},
		},
		Projects: []staffing.Project{
			{ID: "p1", BillingType: staffing.BillingTimeAndMaterial},
			{ID: "p2", BillingType: staffing.BillingTimeAndMaterial},
		},
		Assignments: []staffing.Assignment{
			{ID: "x", ResourceID: "r1", ProjectID: "p1"},
			{ID: "y", ResourceID: "r1", ProjectID: "p2"},
		},
		Calendar: []calendar.Entry{
			{ID: "h1", Date: d("2024-06-04"), Name: "Company Day", Scope: calendar.ScopeCompany},
		},
		Allocations: allocation.Allocations{},
	}
}

// =============================================================================
// DAY GRANULARITY
// =============================================================================

func TestDayHolidayStillSumsButWeekExcludesIt(t *testing.T) {
	// GIVEN: 60% on Monday and on the Tuesday company holiday
	ws := baseSet()
	ws.Allocations = ws.Allocations.
		With("x", d("2024-06-03"), 60).
		With("x", d("2024-06-04"), 60)
	e := utilization.NewEngine(&ws)
	target := utilization.ForResource("r1")

	// WHEN / THEN: both day figures are the raw sum
	mon, err := e.Utilization(target, d("2024-06-03"), d("2024-06-03"), utilization.Day)
	require.NoError(t, err)
	assertPercent(t, "60.00", mon)
	assert.Equal(t, utilization.StatusUnder, utilization.Classify(mon, 100))

	tue, err := e.Utilization(target, d("2024-06-04"), d("2024-06-04"), utilization.Day)
	require.NoError(t, err)
	assertPercent(t, "60.00", tue)
	assert.True(t, e.IsNonWorkingDay("r1", d("2024-06-04")))

	// THEN: the week has 4 working days and only Monday's 0.6 counts
	week, err := e.Utilization(target, d("2024-06-03"), d("2024-06-09"), utilization.Week)
	require.NoError(t, err)
	assertPercent(t, "15.00", week)
}

func TestDayTwoAssignmentsOverCap(t *testing.T) {
	ws := baseSet()
	ws.Allocations = ws.Allocations.
		With("x", d("2024-06-05"), 70).
		With("y", d("2024-06-05"), 70)
	e := utilization.NewEngine(&ws)

	got, err := e.Utilization(utilization.ForResource("r1"), d("2024-06-05"), d("2024-06-05"), utilization.Day)

	require.NoError(t, err)
	assertPercent(t, "140.00", got)
	assert.Equal(t, utilization.StatusOver, utilization.Classify(got, 100))
}

func TestDayPerAssignmentTarget(t *testing.T) {
	ws := baseSet()
	ws.Allocations = ws.Allocations.
		With("x", d("2024-06-05"), 70).
		With("y", d("2024-06-05"), 30)
	e := utilization.NewEngine(&ws)

	got, err := e.Utilization(utilization.ForAssignment("y"), d("2024-06-05"), d("2024-06-05"), utilization.Day)

	require.NoError(t, err)
	assertPercent(t, "30.00", got)
}

// =============================================================================
// WEEK / MONTH GRANULARITY
// =============================================================================

func TestWeekFullyBooked(t *testing.T) {
	ws := baseSet()
	ws.Calendar = nil
	ws.Allocations = ws.Allocations.Apply(allocation.BulkEntries("x", d("2024-06-03"), d("2024-06-07"), 100))
	e := utilization.NewEngine(&ws)

	got, err := e.Utilization(utilization.ForResource("r1"), d("2024-06-03"), d("2024-06-09"), utilization.Week)

	require.NoError(t, err)
	assertPercent(t, "100.00", got)
	assert.Equal(t, utilization.StatusAtCap, utilization.Classify(got, 100))
}

func TestWeekIgnoresAllocationOnWeekend(t *testing.T) {
	ws := baseSet()
	ws.Calendar = nil
	ws.Allocations = ws.Allocations.
		With("x", d("2024-06-03"), 100).
		With("x", d("2024-06-08"), 100)
	e := utilization.NewEngine(&ws)

	got, err := e.Utilization(utilization.ForResource("r1"), d("2024-06-03"), d("2024-06-09"), utilization.Week)

	require.NoError(t, err)
	assertPercent(t, "20.00", got)
}

func TestLeaveReducesDenominator(t *testing.T) {
	// GIVEN: 50% every weekday, two full days of approved leave
	ws := baseSet()
	ws.Calendar = nil
	ws.Allocations = ws.Allocations.Apply(allocation.BulkEntries("x", d("2024-06-03"), d("2024-06-07"), 50))
	ws.LeaveTypes = []leave.Type{{ID: "vac", Kind: leave.KindFullDay}}
	ws.LeaveRequests = []leave.Request{
		{ID: "l1", ResourceID: "r1", TypeID: "vac", Start: d("2024-06-06"), End: d("2024-06-07"), Status: leave.StatusApproved},
	}
	e := utilization.NewEngine(&ws)

	// WHEN
	got, err := e.Utilization(utilization.ForResource("r1"), d("2024-06-03"), d("2024-06-09"), utilization.Week)

	// THEN: 2.5 consumed over 3 available days
	require.NoError(t, err)
	assertPercent(t, "83.33", got)
}

func TestLeaveCoveringWindowYieldsZero(t *testing.T) {
	ws := baseSet()
	ws.Allocations = ws.Allocations.Apply(allocation.BulkEntries("x", d("2024-06-03"), d("2024-06-07"), 50))
	ws.LeaveRequests = []leave.Request{
		{ID: "l1", ResourceID: "r1", TypeID: "unknown", Start: d("2024-06-01"), End: d("2024-06-09"), Status: leave.StatusApproved},
	}
	e := utilization.NewEngine(&ws)

	got, err := e.Utilization(utilization.ForResource("r1"), d("2024-06-03"), d("2024-06-09"), utilization.Week)

	require.NoError(t, err)
	assert.True(t, got.IsZero(), "non-positive denominator yields 0, got %s", got)
	assert.Equal(t, utilization.StatusEmpty, utilization.Classify(got, 100))
}

func TestWindowClippedToLastWorkingDate(t *testing.T) {
	// GIVEN: the resource leaves on Wednesday, allocations run all week
	ws := baseSet()
	ws.Calendar = nil
	last := d("2024-06-05")
	ws.Resources[0].LastWorkingDate = &last
	ws.Allocations = ws.Allocations.Apply(allocation.BulkEntries("x", d("2024-06-03"), d("2024-06-07"), 100))
	e := utilization.NewEngine(&ws)

	// THEN: only Mon..Wed count, on both sides of the ratio
	week, err := e.Utilization(utilization.ForResource("r1"), d("2024-06-03"), d("2024-06-09"), utilization.Week)
	require.NoError(t, err)
	assertPercent(t, "100.00", week)

	thu, err := e.Utilization(utilization.ForResource("r1"), d("2024-06-06"), d("2024-06-06"), utilization.Day)
	require.NoError(t, err)
	assert.True(t, thu.IsZero())

	assert.Equal(t, 3, e.WorkingDays("r1", d("2024-06-03"), d("2024-06-09")))
}

func TestWindowClippedToHireDate(t *testing.T) {
	ws := baseSet()
	ws.Calendar = nil
	ws.Resources[0].HireDate = d("2024-06-06")
	ws.Allocations = ws.Allocations.Apply(allocation.BulkEntries("x", d("2024-06-06"), d("2024-06-07"), 50))
	e := utilization.NewEngine(&ws)

	got, err := e.Utilization(utilization.ForResource("r1"), d("2024-06-03"), d("2024-06-09"), utilization.Week)

	require.NoError(t, err)
	assertPercent(t, "50.00", got)
}

func TestMonthAggregation(t *testing.T) {
	// June 2024 has 20 weekdays; one is the company holiday.
	ws := baseSet()
	ws.Allocations = ws.Allocations.Apply(allocation.BulkEntries("x", d("2024-06-01"), d("2024-06-30"), 50))
	e := utilization.NewEngine(&ws)

	got, err := e.Utilization(utilization.ForResource("r1"), d("2024-06-01"), d("2024-06-30"), utilization.Month)

	require.NoError(t, err)
	assertPercent(t, "50.00", got)
}

func TestMalformedWindowYieldsZero(t *testing.T) {
	ws := baseSet()
	ws.Allocations = ws.Allocations.With("x", d("2024-06-03"), 100).With("x", d("2024-06-07"), 80)
	e := utilization.NewEngine(&ws)

	for _, g := range []utilization.Granularity{utilization.Day, utilization.Week, utilization.Month} {
		// start after end, with allocations on both bounds
		got, err := e.Utilization(utilization.ForResource("r1"), d("2024-06-07"), d("2024-06-03"), g)

		require.NoError(t, err, g)
		assert.True(t, got.IsZero(), "%v: got %s", g, got)
	}
}

// =============================================================================
// TARGET RESOLUTION
// =============================================================================

func TestDeletedAssignmentYieldsZero(t *testing.T) {
	ws := baseSet()
	ws.Allocations = ws.Allocations.With("x", d("2024-06-03"), 80)
	ws.Assignments = ws.Assignments[1:]
	ws.Allocations = ws.Allocations.Without("x")
	e := utilization.NewEngine(&ws)

	for _, g := range []utilization.Granularity{utilization.Day, utilization.Week, utilization.Month} {
		got, err := e.Utilization(utilization.ForAssignment("x"), d("2024-06-03"), d("2024-06-30"), g)
		require.NoError(t, err, g)
		assert.True(t, got.IsZero(), g)
	}
}

func TestCapFollowsTarget(t *testing.T) {
	ws := baseSet()
	ws.Resources[0].CapPercent = 80
	e := utilization.NewEngine(&ws)

	assert.Equal(t, 80, e.Cap(utilization.ForResource("r1")))
	assert.Equal(t, 80, e.Cap(utilization.ForAssignment("y")))
	assert.Equal(t, 0, e.Cap(utilization.ForAssignment("gone")))
	assert.Equal(t, 0, e.Cap(utilization.ForResource("ghost")))
}

func TestUnknownResource(t *testing.T) {
	ws := baseSet()
	e := utilization.NewEngine(&ws)

	_, err := e.Utilization(utilization.ForResource("ghost"), d("2024-06-03"), d("2024-06-09"), utilization.Week)

	assert.ErrorIs(t, err, generic.ErrResourceNotFound)
}

// =============================================================================
// SERIES / GRID
// =============================================================================

func TestSeriesWeeks(t *testing.T) {
	ws := baseSet()
	ws.Allocations = ws.Allocations.Apply(allocation.BulkEntries("x", d("2024-06-03"), d("2024-06-14"), 100))
	e := utilization.NewEngine(&ws)

	points, err := e.Series(utilization.ForResource("r1"), d("2024-06-03"), d("2024-06-16"), utilization.Week)

	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, generic.NewPeriod(d("2024-06-03"), d("2024-06-09")), points[0].Period)
	// Tuesday's 100% sits on a holiday and is excluded from both sides.
	assertPercent(t, "100.00", points[0].Percent)
	assert.Equal(t, utilization.StatusAtCap, points[0].Status)
	assertPercent(t, "100.00", points[1].Percent)
}

func TestSeriesDaysFlagNonWorking(t *testing.T) {
	ws := baseSet()
	e := utilization.NewEngine(&ws)

	points, err := e.Series(utilization.ForResource("r1"), d("2024-06-03"), d("2024-06-09"), utilization.Day)

	require.NoError(t, err)
	require.Len(t, points, 7)
	flags := make([]bool, len(points))
	for i, p := range points {
		flags[i] = p.NonWorking
		assert.Equal(t, utilization.StatusEmpty, p.Status)
	}
	assert.Equal(t, []bool{false, true, false, false, false, true, true}, flags)
}

func TestGridUsesResourceCap(t *testing.T) {
	ws := baseSet()
	ws.Resources = append(ws.Resources, staffing.Resource{ID: "r2", Name: "Bea", CapPercent: 80, HireDate: d("2020-01-01")})
	ws.Assignments = append(ws.Assignments, staffing.Assignment{ID: "z", ResourceID: "r2", ProjectID: "p1"})
	ws.Allocations = ws.Allocations.With("z", d("2024-06-03"), 80)
	e := utilization.NewEngine(&ws)

	rows := e.Grid(d("2024-06-03"), d("2024-06-03"), utilization.Day)

	require.Len(t, rows, 2)
	assert.Equal(t, generic.ResourceID("r2"), rows[1].ResourceID)
	assert.Equal(t, 80, rows[1].Cap)
	assert.Equal(t, utilization.StatusAtCap, rows[1].Points[0].Status)
	assert.Equal(t, utilization.StatusEmpty, rows[0].Points[0].Status)
}
