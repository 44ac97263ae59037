package simulation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/calendar"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/simulation"
	"github.com/warp/staffing-planner/staffing"
	"github.com/warp/staffing-planner/utilization"
)

// =============================================================================
// TEST SETUP
// =============================================================================

var d = generic.MustParseDate

func liveSet() staffing.WorkingSet {
	return staffing.WorkingSet{
		Roles: []staffing.Role{
			{ID: "dev", Name: "Developer", DefaultDailyCost: generic.Money(400), DefaultDailyExpenses: generic.Money(50)},
		},
		Resources: []staffing.Resource{
			{ID: "r1", Name: "Ana", HireDate: d("2020-01-01"), RoleID: "dev"},
		},
		Projects: []staffing.Project{
			{ID: "tm", Name: "Retainer", BillingType: staffing.BillingTimeAndMaterial, RateCardID: "std"},
			{ID: "fp", Name: "Rebuild", BillingType: staffing.BillingFixedPrice},
		},
		RateCards: []staffing.RateCard{
			{ID: "std", Name: "Standard", Entries: []staffing.RateCardEntry{{ResourceID: "r1", SellRate: generic.Money(1000)}}},
		},
		Assignments: []staffing.Assignment{
			{ID: "a1", ResourceID: "r1", ProjectID: "tm"},
		},
		Calendar: []calendar.Entry{
			{ID: "h1", Date: d("2024-06-04"), Scope: calendar.ScopeCompany},
		},
		Allocations: allocation.Allocations{}.With("a1", d("2024-06-03"), 50),
	}
}

func loaded(t *testing.T) simulation.State {
	t.Helper()
	s, err := simulation.Reduce(simulation.State{}, simulation.Load{Scenario: simulation.Blank("sc1", "Test", "")})
	require.NoError(t, err)
	s, err = simulation.Reduce(s, simulation.ImportLiveSnapshot{Data: liveSet()})
	require.NoError(t, err)
	return s
}

func money(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, generic.Money(want).Equal(got), "want %d, got %s", want, got)
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

func TestAddAssignmentIsIdempotent(t *testing.T) {
	s := loaded(t)
	add := simulation.AddAssignment{ResourceID: "r1", ProjectID: "fp"}

	s, err := simulation.Replay(s, add, add)

	require.NoError(t, err)
	count := 0
	for _, a := range s.Scenario.Data.Assignments {
		if a.ResourceID == "r1" && a.ProjectID == "fp" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestAddAssignmentExistingLivePairIsNoop(t *testing.T) {
	s := loaded(t)

	next, err := simulation.Reduce(s, simulation.AddAssignment{ResourceID: "r1", ProjectID: "tm"})

	require.NoError(t, err)
	assert.Len(t, next.Scenario.Data.Assignments, 1)
	assert.True(t, next.Dirty)
}

func TestAddAssignmentUnknownResource(t *testing.T) {
	s := loaded(t)

	next, err := simulation.Reduce(s, simulation.AddAssignment{ResourceID: "nobody", ProjectID: "fp"})

	assert.ErrorIs(t, err, generic.ErrInvalidAction)
	assert.ErrorIs(t, err, generic.ErrResourceNotFound)
	assert.Equal(t, s, next)
}

func TestDeleteAssignmentCascades(t *testing.T) {
	s := loaded(t)

	next, err := simulation.Reduce(s, simulation.DeleteAssignment{AssignmentID: "a1"})

	require.NoError(t, err)
	assert.Empty(t, next.Scenario.Data.Assignments)
	assert.False(t, next.Scenario.Data.Allocations.Has("a1"))
	assert.True(t, s.Scenario.Data.Allocations.Has("a1"), "previous state keeps its allocations")
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

func TestSetAllocationRejectsHoliday(t *testing.T) {
	s := loaded(t)

	_, err := simulation.Reduce(s, simulation.SetAllocation{AssignmentID: "a1", Date: d("2024-06-04"), Percent: 50})
	assert.ErrorIs(t, err, generic.ErrNonWorkingDay)

	_, err = simulation.Reduce(s, simulation.SetAllocation{AssignmentID: "a1", Date: d("2024-06-08"), Percent: 50})
	assert.ErrorIs(t, err, generic.ErrNonWorkingDay)

	// Clearing a non-working day is allowed.
	_, err = simulation.Reduce(s, simulation.SetAllocation{AssignmentID: "a1", Date: d("2024-06-04"), Percent: 0})
	assert.NoError(t, err)
}

func TestSetAllocationRejectsOutOfRange(t *testing.T) {
	s := loaded(t)

	_, err := simulation.Reduce(s, simulation.SetAllocation{AssignmentID: "a1", Date: d("2024-06-05"), Percent: 101})

	assert.ErrorIs(t, err, generic.ErrInvalidPercent)
}

func TestBulkSetAllocationWritesHolidays(t *testing.T) {
	s := loaded(t)

	next, err := simulation.Reduce(s, simulation.BulkSetAllocation{
		AssignmentID: "a1", Start: d("2024-06-01"), End: d("2024-06-09"), Percent: 80,
	})

	require.NoError(t, err)
	a := next.Scenario.Data.Allocations
	assert.Equal(t, 80, a.Get("a1", d("2024-06-04")), "bulk edits do not consult holidays")
	assert.Equal(t, 0, a.Get("a1", d("2024-06-01")))
	assert.Equal(t, 5, len(a["a1"]))
}

// =============================================================================
// DIRTY FLAG
// =============================================================================

func TestDirtyFlag(t *testing.T) {
	s := loaded(t)
	assert.True(t, s.Dirty, "import marks the scenario dirty")

	saved, err := simulation.Reduce(s, simulation.MarkSaved{ID: "sc1", Version: 3, UpdatedAt: time.Unix(1700000000, 0).UTC()})
	require.NoError(t, err)
	assert.False(t, saved.Dirty)
	assert.Equal(t, 3, saved.Scenario.Version)
	assert.Equal(t, s.Scenario.Data.Assignments, saved.Scenario.Data.Assignments)

	edited, err := simulation.Reduce(saved, simulation.SetAllocation{AssignmentID: "a1", Date: d("2024-06-05"), Percent: 20})
	require.NoError(t, err)
	assert.True(t, edited.Dirty)

	reloaded, err := simulation.Reduce(edited, simulation.Load{Scenario: saved.Scenario})
	require.NoError(t, err)
	assert.False(t, reloaded.Dirty)
}

func TestRejectedActionLeavesStateUnchanged(t *testing.T) {
	s := loaded(t)
	s, err := simulation.Reduce(s, simulation.MarkSaved{})
	require.NoError(t, err)

	next, err := simulation.Reduce(s, simulation.DeleteMilestone{MilestoneID: "missing"})

	var actionErr *generic.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, string(simulation.KindDeleteMilestone), actionErr.Action)
	assert.Equal(t, s, next)
	assert.False(t, next.Dirty)
}

func TestReplayStopsAtFirstRejection(t *testing.T) {
	s := loaded(t)

	next, err := simulation.Replay(s,
		simulation.SetAllocation{AssignmentID: "a1", Date: d("2024-06-05"), Percent: 20},
		simulation.SetAllocation{AssignmentID: "nope", Date: d("2024-06-05"), Percent: 20},
		simulation.SetAllocation{AssignmentID: "a1", Date: d("2024-06-06"), Percent: 20},
	)

	assert.ErrorIs(t, err, generic.ErrAssignmentNotFound)
	assert.Equal(t, 20, next.Scenario.Data.Allocations.Get("a1", d("2024-06-05")))
	assert.Equal(t, 0, next.Scenario.Data.Allocations.Get("a1", d("2024-06-06")))
}

// =============================================================================
// ISOLATION
// =============================================================================

func TestScenarioDoesNotAliasLiveData(t *testing.T) {
	live := liveSet()
	s, err := simulation.Reduce(simulation.NewState(simulation.Blank("sc1", "x", "")), simulation.ImportLiveSnapshot{Data: live})
	require.NoError(t, err)

	s, err = simulation.Replay(s,
		simulation.SetAllocation{AssignmentID: "a1", Date: d("2024-06-03"), Percent: 100},
		simulation.AddGhostResource{Resource: staffing.Resource{ID: "g1", Name: "Hire", RoleID: "dev"}},
		simulation.SetProjectBillingType{ProjectID: "tm", BillingType: staffing.BillingFixedPrice},
	)
	require.NoError(t, err)

	assert.Equal(t, 50, live.Allocations.Get("a1", d("2024-06-03")))
	assert.Len(t, live.Resources, 1)
	assert.Empty(t, live.Financials)
	assert.Equal(t, staffing.BillingTimeAndMaterial, live.Projects[0].BillingType)
}

func TestForkedStatesDoNotAlias(t *testing.T) {
	base := loaded(t)

	left, err := simulation.Reduce(base, simulation.AddExpense{Expense: staffing.Expense{ID: "e1", ProjectID: "fp", Date: d("2024-06-10"), Amount: generic.Money(100)}})
	require.NoError(t, err)
	right, err := simulation.Reduce(base, simulation.AddExpense{Expense: staffing.Expense{ID: "e2", ProjectID: "fp", Date: d("2024-06-10"), Amount: generic.Money(200)}})
	require.NoError(t, err)

	require.Len(t, left.Scenario.Data.Expenses, 1)
	require.Len(t, right.Scenario.Data.Expenses, 1)
	assert.Equal(t, generic.ExpenseID("e1"), left.Scenario.Data.Expenses[0].ID)
	assert.Equal(t, generic.ExpenseID("e2"), right.Scenario.Data.Expenses[0].ID)
	assert.Empty(t, base.Scenario.Data.Expenses)
}

func TestScenarioEngineMatchesLiveAlgorithm(t *testing.T) {
	s := loaded(t)
	live := liveSet()

	fromScenario, err := s.Scenario.Engine().Utilization(utilization.ForResource("r1"), d("2024-06-03"), d("2024-06-09"), utilization.Week)
	require.NoError(t, err)
	fromLive, err := utilization.NewEngine(&live).Utilization(utilization.ForResource("r1"), d("2024-06-03"), d("2024-06-09"), utilization.Week)
	require.NoError(t, err)

	assert.True(t, fromLive.Equal(fromScenario))
}

// =============================================================================
// RESOURCES / FINANCIAL SETTINGS
// =============================================================================

func TestAddGhostResource(t *testing.T) {
	s := loaded(t)

	next, err := simulation.Reduce(s, simulation.AddGhostResource{Resource: staffing.Resource{ID: "g1", Name: "New hire", RoleID: "dev"}})
	require.NoError(t, err)

	r, ok := next.Scenario.Data.Resource("g1")
	require.True(t, ok)
	assert.True(t, r.Ghost)
	fin, ok := next.Scenario.Data.FinancialsFor("g1")
	require.True(t, ok)
	money(t, 400, fin.DailyCost)
	money(t, 50, fin.DailyExpenses)
	assert.Nil(t, fin.SellRate)

	_, err = simulation.Reduce(next, simulation.AddGhostResource{Resource: staffing.Resource{ID: "g1"}})
	assert.ErrorIs(t, err, generic.ErrInvalidAction, "duplicate id")
	_, err = simulation.Reduce(next, simulation.AddGhostResource{Resource: staffing.Resource{ID: "g2", RoleID: "cto"}})
	assert.ErrorIs(t, err, generic.ErrInvalidAction, "unknown role")
}

func TestSetProjectRateCardValidation(t *testing.T) {
	s := loaded(t)

	_, err := simulation.Reduce(s, simulation.SetProjectRateCard{ProjectID: "tm", RateCardID: "missing"})
	assert.ErrorIs(t, err, generic.ErrInvalidAction)

	next, err := simulation.Reduce(s, simulation.SetProjectRateCard{ProjectID: "tm", RateCardID: ""})
	require.NoError(t, err)
	p, _ := next.Scenario.Data.Project("tm")
	assert.Empty(t, p.RateCardID)
}

func TestSetProjectBillingTypeValidation(t *testing.T) {
	s := loaded(t)

	_, err := simulation.Reduce(s, simulation.SetProjectBillingType{ProjectID: "tm", BillingType: "barter"})
	assert.ErrorIs(t, err, generic.ErrInvalidAction)
	_, err = simulation.Reduce(s, simulation.SetProjectBillingType{ProjectID: "nope", BillingType: staffing.BillingFixedPrice})
	assert.ErrorIs(t, err, generic.ErrProjectNotFound)
}

func TestMilestoneLifecycle(t *testing.T) {
	s := loaded(t)
	m := staffing.Milestone{ID: "m1", ProjectID: "fp", Date: d("2024-07-15"), Amount: generic.Money(10000)}

	s, err := simulation.Replay(s,
		simulation.AddMilestone{Milestone: m},
		simulation.UpdateMilestone{Milestone: staffing.Milestone{ID: "m1", ProjectID: "fp", Date: d("2024-08-01"), Amount: generic.Money(12000)}},
	)
	require.NoError(t, err)
	require.Len(t, s.Scenario.Data.Milestones, 1)
	money(t, 12000, s.Scenario.Data.Milestones[0].Amount)

	_, err = simulation.Reduce(s, simulation.AddMilestone{Milestone: m})
	assert.ErrorIs(t, err, generic.ErrInvalidAction, "duplicate id")
	_, err = simulation.Reduce(s, simulation.AddMilestone{Milestone: staffing.Milestone{ID: "m2", ProjectID: "fp", Amount: generic.Money(-1)}})
	assert.ErrorIs(t, err, generic.ErrInvalidAction, "negative amount")

	s, err = simulation.Reduce(s, simulation.DeleteMilestone{MilestoneID: "m1"})
	require.NoError(t, err)
	assert.Empty(t, s.Scenario.Data.Milestones)
}

// =============================================================================
// FINANCIALS
// =============================================================================

func TestFixedPriceMilestoneOnlyMonth(t *testing.T) {
	set := staffing.WorkingSet{
		Projects: []staffing.Project{{ID: "fp", BillingType: staffing.BillingFixedPrice}},
		Milestones: []staffing.Milestone{
			{ID: "m1", ProjectID: "fp", Date: d("2024-07-15"), Amount: generic.Money(10000)},
		},
	}

	rows := simulation.MonthlyFinancials(&set)

	require.Len(t, rows, 1)
	assert.Equal(t, generic.Month{Year: 2024, Month: time.July}, rows[0].Month)
	money(t, 10000, rows[0].Revenue)
	money(t, 0, rows[0].Cost)
	money(t, 10000, rows[0].Margin)
}

func TestTimeAndMaterialUsesRateCardThenOverride(t *testing.T) {
	// GIVEN: r1 at 50% on Monday on the T&M project, rate card 1000/day,
	// role cost 400 + 50/day
	s := loaded(t)

	rows := simulation.MonthlyFinancials(&s.Scenario.Data)
	require.Len(t, rows, 1)
	money(t, 500, rows[0].Revenue)
	money(t, 225, rows[0].Cost)
	money(t, 275, rows[0].Margin)

	// WHEN: an explicit sell rate overrides the card
	override := generic.Money(1200)
	s, err := simulation.Reduce(s, simulation.SetResourceFinancials{
		ResourceID: "r1", DailyCost: generic.Money(500), DailyExpenses: generic.Money(0), SellRate: &override,
	})
	require.NoError(t, err)

	rows = simulation.MonthlyFinancials(&s.Scenario.Data)
	money(t, 600, rows[0].Revenue)
	money(t, 250, rows[0].Cost)
}

func TestFixedPriceAllocationsCostButDoNotBill(t *testing.T) {
	s := loaded(t)
	s, err := simulation.Reduce(s, simulation.SetProjectBillingType{ProjectID: "tm", BillingType: staffing.BillingFixedPrice})
	require.NoError(t, err)

	rows := simulation.MonthlyFinancials(&s.Scenario.Data)

	require.Len(t, rows, 1)
	money(t, 0, rows[0].Revenue)
	money(t, 225, rows[0].Cost)
	money(t, -225, rows[0].Margin)
}

func TestFinancialsIgnoreAllocationsAfterLastWorkingDate(t *testing.T) {
	set := liveSet()
	last := d("2024-06-30")
	set.Resources[0].LastWorkingDate = &last
	set.Allocations = set.Allocations.With("a1", d("2024-07-01"), 100)

	rows := simulation.MonthlyFinancials(&set)

	require.Len(t, rows, 1)
	assert.Equal(t, generic.Month{Year: 2024, Month: time.June}, rows[0].Month)
}

func TestExpensesAddCost(t *testing.T) {
	s := loaded(t)
	s, err := simulation.Reduce(s, simulation.AddExpense{Expense: staffing.Expense{
		ID: "e1", ProjectID: "fp", Date: d("2024-08-10"), Amount: generic.Money(300),
	}})
	require.NoError(t, err)

	rows := simulation.MonthlyFinancials(&s.Scenario.Data)

	require.Len(t, rows, 2)
	assert.Equal(t, time.August, rows[1].Month.Month)
	money(t, 300, rows[1].Cost)
	money(t, -300, rows[1].Margin)

	revenue, cost, margin := simulation.Totals(rows)
	money(t, 500, revenue)
	money(t, 525, cost)
	money(t, -25, margin)
}
