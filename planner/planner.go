/*
Package planner is the single entry point every surface uses.

PURPOSE:
  The Planner owns the live working set (refreshed from a DataSource), the
  live allocation store, and the current simulation state. Reads go through
  one utilization engine built over a snapshot taken at call start, so the
  summary view, the grid and any API caller see identical numbers.

OPTIMISTIC WRITES:
  Single-cell edits, bulk edits and assignment changes are applied in memory
  first, synchronously, and then sent to the LiveStore:

    edit ──▶ in-memory store (applied) ──▶ LiveStore call
                                            │
                                   ok ◀─────┴─────▶ failed
                                   │                 │
                         clear pending keys    add to pending set,
                                               return PersistenceError

  A failure never rolls the in-memory change back. The pending set keeps the
  current in-memory value per (assignment, date) until that value is stored
  by RetryPending or a later write, or Refresh reloads everything. Batches
  that overlap in flight settle against memory, never against each other.

SIMULATION:
  Dispatch runs simulation.Reduce on the current scenario. Saving sends the
  scenario to the ScenarioRepository, then applies MARK_SAVED unless another
  action landed while the save was in flight.

SEE ALSO:
  - store.go: collaborator interfaces
  - tracing.go: spans around every collaborator call
*/
package planner

import (
	"context"
	"errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/calendar"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/simulation"
	"github.com/warp/staffing-planner/staffing"
	"github.com/warp/staffing-planner/utilization"
)

const DefaultPersistTimeout = 10 * time.Second

// =============================================================================
// PLANNER
// =============================================================================

type pendingKey struct {
	id   generic.AssignmentID
	date generic.Date
}

type Planner struct {
	source    DataSource
	live      LiveStore
	scenarios ScenarioRepository

	log     logr.Logger
	timeout time.Duration
	newID   func() string

	mu     sync.RWMutex
	set    staffing.WorkingSet // Allocations always nil; see allocs
	allocs *allocation.Store

	pendingMu sync.Mutex
	pending   map[pendingKey]allocation.Entry

	simMu  sync.Mutex
	sim    *simulation.State
	simRev uint64
}

type Option func(*Planner)

func WithLogger(l logr.Logger) Option {
	return func(p *Planner) { p.log = l }
}

// WithPersistTimeout bounds every collaborator call. Non-positive values
// keep the default.
func WithPersistTimeout(d time.Duration) Option {
	return func(p *Planner) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithIDGenerator replaces uuid.NewString, for deterministic tests.
func WithIDGenerator(fn func() string) Option {
	return func(p *Planner) { p.newID = fn }
}

func New(source DataSource, live LiveStore, scenarios ScenarioRepository, opts ...Option) *Planner {
	p := &Planner{
		source:    source,
		live:      live,
		scenarios: scenarios,
		log:       logr.Discard(),
		timeout:   DefaultPersistTimeout,
		newID:     uuid.NewString,
		allocs:    allocation.NewStore(),
		pending:   make(map[pendingKey]allocation.Entry),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Refresh reloads the live working set. Pending entries are dropped: the
// reloaded data is what is durably stored.
func (p *Planner) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ctx, span := startPersistSpan(ctx, "load_snapshot")
	ws, err := p.source.LoadSnapshot(ctx)
	endSpan(span, err)
	if err != nil {
		p.log.Error(err, "Loading live snapshot failed")
		return &generic.PersistenceError{Op: "load_snapshot", Err: err}
	}

	allocs := ws.Allocations
	ws.Allocations = nil

	p.mu.Lock()
	p.set = ws
	p.allocs.Replace(allocs)
	p.mu.Unlock()

	p.pendingMu.Lock()
	p.pending = make(map[pendingKey]allocation.Entry)
	p.pendingMu.Unlock()

	p.log.V(1).Info("Live snapshot loaded",
		"resources", len(ws.Resources), "assignments", len(ws.Assignments), "allocations", allocs.Len())
	return nil
}

// Snapshot returns the live working set including the current allocations.
// The returned value never changes.
func (p *Planner) Snapshot() staffing.WorkingSet {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ws := p.set
	ws.Allocations = p.allocs.Snapshot()
	return ws
}

// Engine returns a utilization engine over a fresh live snapshot.
func (p *Planner) Engine() *utilization.Engine {
	ws := p.Snapshot()
	return utilization.NewEngine(&ws)
}

// =============================================================================
// READS
// =============================================================================

func (p *Planner) Utilization(t utilization.Target, start, end generic.Date, g utilization.Granularity) (decimal.Decimal, error) {
	pct, _, err := p.UtilizationWithCap(t, start, end, g)
	return pct, err
}

// UtilizationWithCap also returns the target resource's cap, read from the
// same snapshot as the figure.
func (p *Planner) UtilizationWithCap(t utilization.Target, start, end generic.Date, g utilization.Granularity) (decimal.Decimal, int, error) {
	e := p.Engine()
	pct, err := e.Utilization(t, start, end, g)
	return pct, e.Cap(t), err
}

func (p *Planner) Series(t utilization.Target, start, end generic.Date, g utilization.Granularity) ([]utilization.Point, error) {
	return p.Engine().Series(t, start, end, g)
}

func (p *Planner) Grid(start, end generic.Date, g utilization.Granularity) []utilization.Row {
	return p.Engine().Grid(start, end, g)
}

func (p *Planner) Classify(percent decimal.Decimal, cap int) utilization.Status {
	return utilization.Classify(percent, cap)
}

// =============================================================================
// LIVE WRITES
// =============================================================================

// SetAllocation is a single-cell edit. Non-zero writes on a weekend or on a
// holiday that applies to the resource's location are rejected; 0 is always
// accepted.
func (p *Planner) SetAllocation(ctx context.Context, id generic.AssignmentID, d generic.Date, percent int) error {
	if !generic.ValidPercent(percent) {
		return generic.ErrInvalidPercent
	}

	p.mu.Lock()
	a, ok := p.set.Assignment(id)
	if !ok {
		p.mu.Unlock()
		return generic.ErrAssignmentNotFound
	}
	if percent != 0 {
		r, _ := p.set.Resource(a.ResourceID)
		if calendar.IsNonWorkingDay(d, r.Location, p.set.Calendar) {
			p.mu.Unlock()
			return generic.ErrNonWorkingDay
		}
	}
	// Validated above; Set cannot fail.
	_ = p.allocs.Set(id, d, percent)
	p.mu.Unlock()

	return p.persistAllocations(ctx, []allocation.Entry{{AssignmentID: id, Date: d, Percent: percent}})
}

// ApplyBulk fills [start, end] with percent, skipping weekends only, and
// commits the written batch in one UpsertAllocations call. The in-memory
// change is complete before persistence is attempted.
func (p *Planner) ApplyBulk(ctx context.Context, id generic.AssignmentID, start, end generic.Date, percent int) ([]allocation.Entry, error) {
	if !generic.ValidPercent(percent) {
		return nil, generic.ErrInvalidPercent
	}

	p.mu.Lock()
	if _, ok := p.set.Assignment(id); !ok {
		p.mu.Unlock()
		return nil, generic.ErrAssignmentNotFound
	}
	batch, err := p.allocs.ApplyBulk(id, start, end, percent)
	p.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, nil
	}
	return batch, p.persistAllocations(ctx, batch)
}

func (p *Planner) persistAllocations(ctx context.Context, batch []allocation.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ctx, span := startPersistSpan(ctx, "upsert_allocations",
		attribute.String("assignment_id", string(batch[0].AssignmentID)),
		attribute.Int("batch.size", len(batch)),
	)
	err := p.live.UpsertAllocations(ctx, batch)
	endSpan(span, err)

	pending := p.settlePending(batch, err == nil)
	if err != nil {
		p.log.Error(err, "Persisting allocations failed; in-memory state kept",
			"entries", len(batch), "pending", pending)
		return &generic.PersistenceError{Op: "upsert_allocations", Entries: len(batch), Err: err}
	}
	return nil
}

// settlePending reconciles the pending set with the outcome of a batch.
// Other writes to the same cells may have completed while the batch was in
// flight, so pending entries always carry the current in-memory value:
//
//	failed:    every cell of a live assignment is pending at its current value
//	succeeded: a cell is cleared when memory still holds the value sent;
//	           an already pending cell is refreshed to the current value
//
// It returns the size of the pending set.
func (p *Planner) settlePending(batch []allocation.Entry, stored bool) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()

	for _, e := range batch {
		k := pendingKey{e.AssignmentID, e.Date}
		if _, ok := p.set.Assignment(e.AssignmentID); !ok {
			delete(p.pending, k)
			continue
		}
		current := allocation.Entry{AssignmentID: e.AssignmentID, Date: e.Date, Percent: p.allocs.Get(e.AssignmentID, e.Date)}
		_, wasPending := p.pending[k]
		switch {
		case !stored:
			p.pending[k] = current
		case current.Percent == e.Percent:
			delete(p.pending, k)
		case wasPending:
			p.pending[k] = current
		}
	}
	return len(p.pending)
}

// PendingPersist lists entries applied in memory but not yet durably
// stored, ordered by assignment then date.
func (p *Planner) PendingPersist() []allocation.Entry {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	out := make([]allocation.Entry, 0, len(p.pending))
	for _, e := range p.pending {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AssignmentID != out[j].AssignmentID {
			return out[i].AssignmentID < out[j].AssignmentID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// RetryPending re-sends every pending entry in one batch.
func (p *Planner) RetryPending(ctx context.Context) error {
	batch := p.PendingPersist()
	if len(batch) == 0 {
		return nil
	}
	p.log.Info("Retrying pending allocations", "entries", len(batch))
	return p.persistAllocations(ctx, batch)
}

// CreateAssignments binds the resource to each project. Pairs that already
// exist are returned as they are and not persisted again. Unknown ids fail
// the whole call before anything changes.
func (p *Planner) CreateAssignments(ctx context.Context, resource generic.ResourceID, projects ...generic.ProjectID) ([]staffing.Assignment, error) {
	p.mu.Lock()
	if _, ok := p.set.Resource(resource); !ok {
		p.mu.Unlock()
		return nil, generic.ErrResourceNotFound
	}
	for _, id := range projects {
		if _, ok := p.set.Project(id); !ok {
			p.mu.Unlock()
			return nil, generic.ErrProjectNotFound
		}
	}

	var out, created []staffing.Assignment
	for _, id := range projects {
		if a, ok := p.set.FindAssignment(resource, id); ok {
			out = append(out, a)
			continue
		}
		a := staffing.Assignment{
			ID:         generic.AssignmentID(p.newID()),
			ResourceID: resource,
			ProjectID:  id,
		}
		p.set.Assignments = append(slices.Clip(p.set.Assignments), a)
		out = append(out, a)
		created = append(created, a)
	}
	p.mu.Unlock()

	var errs []error
	for _, a := range created {
		cctx, cancel := context.WithTimeout(ctx, p.timeout)
		cctx, span := startPersistSpan(cctx, "create_assignment",
			attribute.String("assignment_id", string(a.ID)))
		err := p.live.CreateAssignment(cctx, a)
		endSpan(span, err)
		cancel()
		if err != nil {
			p.log.Error(err, "Persisting assignment failed; in-memory state kept", "assignment", a.ID)
			errs = append(errs, &generic.PersistenceError{Op: "create_assignment", Err: err})
		}
	}
	return out, errors.Join(errs...)
}

// DeleteAssignment removes the assignment and cascades its allocations.
func (p *Planner) DeleteAssignment(ctx context.Context, id generic.AssignmentID) error {
	p.mu.Lock()
	if _, ok := p.set.Assignment(id); !ok {
		p.mu.Unlock()
		return generic.ErrAssignmentNotFound
	}
	kept := make([]staffing.Assignment, 0, len(p.set.Assignments))
	for _, a := range p.set.Assignments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	p.set.Assignments = kept
	p.allocs.CascadeDelete(id)
	p.mu.Unlock()

	p.pendingMu.Lock()
	for k := range p.pending {
		if k.id == id {
			delete(p.pending, k)
		}
	}
	p.pendingMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ctx, span := startPersistSpan(ctx, "delete_assignment", attribute.String("assignment_id", string(id)))
	err := p.live.DeleteAssignment(ctx, id)
	endSpan(span, err)
	if err != nil {
		p.log.Error(err, "Deleting assignment failed; in-memory state kept", "assignment", id)
		return &generic.PersistenceError{Op: "delete_assignment", Err: err}
	}
	return nil
}
