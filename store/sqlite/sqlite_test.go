package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/calendar"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/leave"
	"github.com/warp/staffing-planner/simulation"
	"github.com/warp/staffing-planner/staffing"
)

var d = generic.MustParseDate

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// tick makes every call to now return a later time.
func tick(s *Store) {
	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
}

func seedSet() staffing.WorkingSet {
	last := d("2024-12-31")
	rate := generic.Money(950)
	return staffing.WorkingSet{
		Resources: []staffing.Resource{
			{ID: "r1", Name: "Ana", Location: "Lisbon", CapPercent: 80, HireDate: d("2020-01-01"), RoleID: "dev"},
			{ID: "r2", Name: "Bea", HireDate: d("2021-05-01"), LastWorkingDate: &last},
		},
		Projects: []staffing.Project{
			{ID: "p1", Name: "Portal", BillingType: staffing.BillingTimeAndMaterial, RateCardID: "std"},
			{ID: "p2", Name: "Migration", BillingType: staffing.BillingFixedPrice},
		},
		Assignments: []staffing.Assignment{
			{ID: "a1", ResourceID: "r1", ProjectID: "p1"},
			{ID: "a2", ResourceID: "r2", ProjectID: "p2"},
		},
		Allocations: allocation.Allocations{}.
			With("a1", d("2024-06-03"), 50).
			With("a1", d("2024-06-04"), 25).
			With("a2", d("2024-06-03"), 100),
		Calendar: []calendar.Entry{
			{ID: "h1", Date: d("2024-06-10"), Name: "Portugal Day", Scope: calendar.ScopeLocal, Location: "Lisbon"},
			{Date: d("2024-12-25"), Name: "Christmas", Scope: calendar.ScopeCompany, Recurring: true},
		},
		LeaveTypes: []leave.Type{
			{ID: "half", Name: "Half day", Kind: leave.KindHalfDay},
			{ID: "short", Name: "Short leave", Kind: leave.KindHours, Hours: generic.MustParseDecimal("2.5")},
		},
		LeaveRequests: []leave.Request{
			{ID: "l1", ResourceID: "r1", TypeID: "half", Start: d("2024-06-05"), End: d("2024-06-05"), Status: leave.StatusApproved},
		},
		Roles:     []staffing.Role{{ID: "dev", Name: "Developer", DefaultDailyCost: generic.Money(400), DefaultDailyExpenses: generic.Money(20)}},
		RateCards: []staffing.RateCard{{ID: "std", Name: "Standard", Entries: []staffing.RateCardEntry{{ResourceID: "r1", SellRate: generic.Money(1000)}}}},
		Financials: []staffing.Financials{
			{ResourceID: "r1", DailyCost: generic.MustParseDecimal("412.50"), DailyExpenses: generic.Money(20)},
			{ResourceID: "r2", DailyCost: generic.Money(380), DailyExpenses: generic.Money(0), SellRate: &rate},
		},
		Expenses:   []staffing.Expense{{ID: "e1", ProjectID: "p1", Date: d("2024-06-12"), Amount: generic.Money(120), Description: "Travel"}},
		Milestones: []staffing.Milestone{{ID: "m1", ProjectID: "p2", Date: d("2024-06-30"), Amount: generic.Money(20000), Name: "Go-live"}},
	}
}

func seeded(t *testing.T) *Store {
	t.Helper()
	s := newTestStore(t)
	require.NoError(t, s.Seed(context.Background(), seedSet()))
	return s
}

// =============================================================================
// SNAPSHOT
// =============================================================================

func TestSeedLoadSnapshotRoundTrip(t *testing.T) {
	s := seeded(t)

	ws, err := s.LoadSnapshot(context.Background())

	require.NoError(t, err)
	require.Len(t, ws.Resources, 2)
	ana, ok := ws.Resource("r1")
	require.True(t, ok)
	assert.Equal(t, 80, ana.CapPercent)
	assert.Equal(t, "Lisbon", ana.Location)
	assert.Nil(t, ana.LastWorkingDate)
	bea, _ := ws.Resource("r2")
	require.NotNil(t, bea.LastWorkingDate)
	assert.Equal(t, d("2024-12-31"), *bea.LastWorkingDate)

	assert.Len(t, ws.Assignments, 2)
	assert.Equal(t, 3, ws.Allocations.Len())
	assert.Equal(t, 25, ws.Allocations.Get("a1", d("2024-06-04")))

	require.Len(t, ws.Calendar, 2)
	assert.True(t, ws.Calendar[1].Recurring)
	assert.NotEmpty(t, ws.Calendar[1].ID, "generated holiday id")
	require.Len(t, ws.LeaveRequests, 1)
	assert.Equal(t, leave.StatusApproved, ws.LeaveRequests[0].Status)
	require.Len(t, ws.LeaveTypes, 2)
	assert.Equal(t, "2.5", ws.LeaveTypes[1].Hours.String())
	assert.True(t, ws.LeaveTypes[0].Hours.IsZero())

	fin, ok := ws.FinancialsFor("r1")
	require.True(t, ok)
	assert.Equal(t, "412.5", fin.DailyCost.String())
	assert.Nil(t, fin.SellRate)
	fin, _ = ws.FinancialsFor("r2")
	require.NotNil(t, fin.SellRate)
	assert.Equal(t, "950", fin.SellRate.String())

	card, ok := ws.RateCard("std")
	require.True(t, ok)
	rate, ok := card.SellRate("r1")
	assert.True(t, ok)
	assert.Equal(t, "1000", rate.String())
	require.Len(t, ws.Milestones, 1)
	assert.Equal(t, "20000", ws.Milestones[0].Amount.String())
}

func TestResetKeepsScenarios(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	_, err := s.Save(ctx, simulation.Scenario{ID: "sc1", Name: "Keep me"})
	require.NoError(t, err)

	require.NoError(t, s.Reset(ctx))

	ws, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, ws.Resources)
	assert.Equal(t, 0, ws.Allocations.Len())
	_, err = s.Load(ctx, "sc1")
	assert.NoError(t, err)
}

// =============================================================================
// LIVE STORE
// =============================================================================

func TestUpsertAllocations(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	err := s.UpsertAllocations(ctx, []allocation.Entry{
		{AssignmentID: "a1", Date: d("2024-06-03"), Percent: 75}, // update
		{AssignmentID: "a1", Date: d("2024-06-04"), Percent: 0},  // delete
		{AssignmentID: "a1", Date: d("2024-06-06"), Percent: 10}, // insert
	})
	require.NoError(t, err)

	ws, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []allocation.Entry{
		{AssignmentID: "a1", Date: d("2024-06-03"), Percent: 75},
		{AssignmentID: "a1", Date: d("2024-06-06"), Percent: 10},
	}, ws.Allocations.Entries("a1"))
}

func TestUpsertAllocationsIsAtomic(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	err := s.UpsertAllocations(ctx, []allocation.Entry{
		{AssignmentID: "a1", Date: d("2024-06-06"), Percent: 10},
		{AssignmentID: "a1", Date: d("2024-06-07"), Percent: 120},
	})
	require.ErrorIs(t, err, generic.ErrInvalidPercent)

	ws, _ := s.LoadSnapshot(ctx)
	assert.Equal(t, 0, ws.Allocations.Get("a1", d("2024-06-06")))
}

func TestUpsertAllocationsUnknownAssignment(t *testing.T) {
	s := seeded(t)

	err := s.UpsertAllocations(context.Background(), []allocation.Entry{
		{AssignmentID: "ghost", Date: d("2024-06-06"), Percent: 10},
	})

	assert.Error(t, err, "foreign key violation")
}

func TestCreateAssignmentIgnoresDuplicatePair(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.CreateAssignment(ctx, staffing.Assignment{ID: "a3", ResourceID: "r1", ProjectID: "p2"}))
	require.NoError(t, s.CreateAssignment(ctx, staffing.Assignment{ID: "a4", ResourceID: "r1", ProjectID: "p2"}))

	ws, _ := s.LoadSnapshot(ctx)
	got, ok := ws.FindAssignment("r1", "p2")
	require.True(t, ok)
	assert.Equal(t, generic.AssignmentID("a3"), got.ID)
	assert.Len(t, ws.Assignments, 3)
}

func TestDeleteAssignmentCascadesAllocations(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteAssignment(ctx, "a1"))

	ws, err := s.LoadSnapshot(ctx)
	require.NoError(t, err)
	assert.False(t, ws.Allocations.Has("a1"))
	assert.True(t, ws.Allocations.Has("a2"))
	var rows int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM allocations WHERE assignment_id = 'a1'").Scan(&rows))
	assert.Zero(t, rows)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestSaveIncrementsVersion(t *testing.T) {
	s := newTestStore(t)
	tick(s)
	ctx := context.Background()
	sc := simulation.Scenario{ID: "sc1", Name: "Q3", Data: seedSet()}

	first, err := s.Save(ctx, sc)
	require.NoError(t, err)
	second, err := s.Save(ctx, sc)
	require.NoError(t, err)

	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))

	loaded, err := s.Load(ctx, "sc1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Version)
	assert.Equal(t, 100, loaded.Data.Allocations.Get("a2", d("2024-06-03")))
}

func TestLoadMissingScenario(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background(), "nope")

	assert.ErrorIs(t, err, generic.ErrScenarioNotFound)
}

func TestLoadCorruptScenario(t *testing.T) {
	s := newTestStore(t)
	_, err := s.db.Exec(
		"INSERT INTO scenarios (id, name, version, document, updated_at) VALUES ('bad', 'Bad', 1, '{oops', '2024-06-01T00:00:00.000000Z')")
	require.NoError(t, err)

	_, err = s.Load(context.Background(), "bad")

	assert.ErrorIs(t, err, generic.ErrScenarioCorrupt)
}

func TestListMostRecentFirst(t *testing.T) {
	s := newTestStore(t)
	tick(s)
	ctx := context.Background()
	for _, id := range []generic.ScenarioID{"old", "mid", "new"} {
		_, err := s.Save(ctx, simulation.Scenario{ID: id, Name: string(id)})
		require.NoError(t, err)
	}
	_, err := s.Save(ctx, simulation.Scenario{ID: "old", Name: "old"})
	require.NoError(t, err)

	list, err := s.List(ctx)

	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, generic.ScenarioID("old"), list[0].ID)
	assert.Equal(t, 2, list[0].Version)
	assert.Equal(t, generic.ScenarioID("new"), list[1].ID)
	assert.Equal(t, generic.ScenarioID("mid"), list[2].ID)
}
