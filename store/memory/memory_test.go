package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/simulation"
	"github.com/warp/staffing-planner/staffing"
	"github.com/warp/staffing-planner/store/memory"
)

var d = generic.MustParseDate

func seeded(t *testing.T) *memory.Memory {
	t.Helper()
	m := memory.NewMemory()
	err := m.Seed(context.Background(), staffing.WorkingSet{
		Resources:   []staffing.Resource{{ID: "r1", Name: "Ana", HireDate: d("2020-01-01")}},
		Projects:    []staffing.Project{{ID: "p1", BillingType: staffing.BillingTimeAndMaterial}, {ID: "p2", BillingType: staffing.BillingFixedPrice}},
		Assignments: []staffing.Assignment{{ID: "a1", ResourceID: "r1", ProjectID: "p1"}},
		Allocations: allocation.Allocations{}.With("a1", d("2024-06-03"), 50),
	})
	require.NoError(t, err)
	return m
}

// ===== LIVE DATA =====

func TestSnapshotIsACopy(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	ws, err := m.LoadSnapshot(ctx)
	require.NoError(t, err)
	ws.Resources[0].Name = "changed"
	ws.Allocations = ws.Allocations.With("a1", d("2024-06-04"), 10)

	again, _ := m.LoadSnapshot(ctx)
	assert.Equal(t, "Ana", again.Resources[0].Name)
	assert.Equal(t, 0, again.Allocations.Get("a1", d("2024-06-04")))
}

func TestUpsertAllocations(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	require.NoError(t, m.UpsertAllocations(ctx, []allocation.Entry{
		{AssignmentID: "a1", Date: d("2024-06-03"), Percent: 0},
		{AssignmentID: "a1", Date: d("2024-06-05"), Percent: 60},
	}))

	ws, _ := m.LoadSnapshot(ctx)
	assert.Equal(t, []allocation.Entry{{AssignmentID: "a1", Date: d("2024-06-05"), Percent: 60}}, ws.Allocations.All())
}

func TestUpsertAllocationsRejectsWholeBatch(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	err := m.UpsertAllocations(ctx, []allocation.Entry{
		{AssignmentID: "a1", Date: d("2024-06-05"), Percent: 60},
		{AssignmentID: "a9", Date: d("2024-06-05"), Percent: 60},
	})

	assert.ErrorIs(t, err, generic.ErrAssignmentNotFound)
	ws, _ := m.LoadSnapshot(ctx)
	assert.Equal(t, 0, ws.Allocations.Get("a1", d("2024-06-05")))
}

func TestAssignmentLifecycle(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()

	require.NoError(t, m.CreateAssignment(ctx, staffing.Assignment{ID: "a2", ResourceID: "r1", ProjectID: "p2"}))
	require.NoError(t, m.CreateAssignment(ctx, staffing.Assignment{ID: "dup", ResourceID: "r1", ProjectID: "p2"}))
	assert.ErrorIs(t, m.CreateAssignment(ctx, staffing.Assignment{ID: "x", ResourceID: "r1", ProjectID: "p9"}), generic.ErrProjectNotFound)

	ws, _ := m.LoadSnapshot(ctx)
	assert.Len(t, ws.Assignments, 2)

	require.NoError(t, m.DeleteAssignment(ctx, "a1"))
	ws, _ = m.LoadSnapshot(ctx)
	assert.Len(t, ws.Assignments, 1)
	assert.False(t, ws.Allocations.Has("a1"))
}

func TestResetKeepsScenarios(t *testing.T) {
	m := seeded(t)
	ctx := context.Background()
	_, err := m.Save(ctx, simulation.Scenario{ID: "sc1", Name: "Plan"})
	require.NoError(t, err)

	require.NoError(t, m.Reset(ctx))

	ws, _ := m.LoadSnapshot(ctx)
	assert.Empty(t, ws.Resources)
	list, err := m.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

// ===== SCENARIOS =====

func TestScenarioSaveLoad(t *testing.T) {
	m := memory.NewMemory()
	ctx := context.Background()
	sc := simulation.Scenario{ID: "sc1", Name: "Plan", Data: staffing.WorkingSet{
		Resources: []staffing.Resource{{ID: "g1", Name: "Hire", Ghost: true}},
	}}

	first, err := m.Save(ctx, sc)
	require.NoError(t, err)
	second, err := m.Save(ctx, sc)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, 2, second.Version)

	got, err := m.Load(ctx, "sc1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Version)
	require.Len(t, got.Data.Resources, 1)
	assert.True(t, got.Data.Resources[0].Ghost)
}

func TestScenarioLoadErrors(t *testing.T) {
	m := memory.NewMemory()
	ctx := context.Background()
	m.PutRaw("broken", "Broken", []byte(`{"format":"staffing-scenario","schema_version":1,"scenario":`))

	_, err := m.Load(ctx, "missing")
	assert.ErrorIs(t, err, generic.ErrScenarioNotFound)

	_, err = m.Load(ctx, "broken")
	assert.ErrorIs(t, err, generic.ErrScenarioCorrupt)

	list, err := m.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Broken", list[0].Name)
}
