/*
store.go - Persistence collaborators of the planner

PURPOSE:
  The planner never stores anything durably itself. It talks to three
  collaborators through the interfaces below; every call is a
  request/response that may fail or be slow and runs under a timeout.

KEY INTERFACES:
  DataSource:         point-in-time snapshot of the live data, on demand
  LiveStore:          assignment create/delete and batched allocation upserts
  ScenarioRepository: named, versioned scenario documents

BATCHING:
  UpsertAllocations takes the whole batch so a bulk edit over a long range
  commits in one round trip. A 0 percent entry deletes the stored row.

IMPLEMENTATIONS:
  - store/sqlite: database/sql + go-sqlite3 (all three)
  - store/memory: in-process maps (all three)
  - store/redis:  ScenarioRepository only

SEE ALSO:
  - planner.go: optimistic mutation + pending-persist tracking
  - mock_store.go: gomock doubles used by the failure-path tests
*/
package planner

//go:generate mockgen -source=store.go -destination=mock_store.go -package=planner

import (
	"context"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/simulation"
	"github.com/warp/staffing-planner/staffing"
)

// DataSource provides the live working set as a snapshot. Snapshots are
// refreshed on demand, never streamed.
type DataSource interface {
	LoadSnapshot(ctx context.Context) (staffing.WorkingSet, error)
}

// LiveStore persists changes made to the live model.
type LiveStore interface {
	CreateAssignment(ctx context.Context, a staffing.Assignment) error

	// DeleteAssignment removes the assignment and every allocation row it
	// owns.
	DeleteAssignment(ctx context.Context, id generic.AssignmentID) error

	UpsertAllocations(ctx context.Context, batch []allocation.Entry) error
}

// ScenarioRepository stores scenario documents. Save assigns the next
// version and the update time and returns the stored summary.
type ScenarioRepository interface {
	Save(ctx context.Context, s simulation.Scenario) (simulation.Summary, error)

	// Load returns generic.ErrScenarioNotFound or generic.ErrScenarioCorrupt
	// for missing or undecodable documents.
	Load(ctx context.Context, id generic.ScenarioID) (simulation.Scenario, error)

	// List returns summaries, most recently updated first.
	List(ctx context.Context) ([]simulation.Summary, error)
}
