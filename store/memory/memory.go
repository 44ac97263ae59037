// Package memory provides in-process implementations of the planner's
// persistence collaborators.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/factory"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/simulation"
	"github.com/warp/staffing-planner/staffing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type storedScenario struct {
	name      string
	version   int
	document  []byte
	updatedAt time.Time
}

type Memory struct {
	mu        sync.RWMutex
	set       staffing.WorkingSet
	scenarios map[generic.ScenarioID]storedScenario
	now       func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		set:       staffing.WorkingSet{Allocations: allocation.Allocations{}},
		scenarios: make(map[generic.ScenarioID]storedScenario),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// LoadSnapshot returns a copy of the stored working set.
func (m *Memory) LoadSnapshot(_ context.Context) (staffing.WorkingSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.set.Clone(), nil
}

// CreateAssignment adds the assignment unless the pair already exists.
func (m *Memory) CreateAssignment(_ context.Context, a staffing.Assignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.set.Resource(a.ResourceID); !ok {
		return generic.ErrResourceNotFound
	}
	if _, ok := m.set.Project(a.ProjectID); !ok {
		return generic.ErrProjectNotFound
	}
	if _, ok := m.set.FindAssignment(a.ResourceID, a.ProjectID); ok {
		return nil
	}
	m.set.Assignments = append(m.set.Assignments, a)
	return nil
}

// DeleteAssignment removes the assignment and its allocations.
func (m *Memory) DeleteAssignment(_ context.Context, id generic.AssignmentID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.set.Assignments[:0:0]
	for _, a := range m.set.Assignments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	m.set.Assignments = kept
	m.set.Allocations = m.set.Allocations.Without(id)
	return nil
}

// UpsertAllocations applies the batch atomically.
func (m *Memory) UpsertAllocations(_ context.Context, batch []allocation.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range batch {
		if !generic.ValidPercent(e.Percent) {
			return generic.ErrInvalidPercent
		}
		if _, ok := m.set.Assignment(e.AssignmentID); !ok {
			return generic.ErrAssignmentNotFound
		}
	}
	m.set.Allocations = m.set.Allocations.Apply(batch)
	return nil
}

// =============================================================================
// SCENARIOS
// =============================================================================

// Save encodes the scenario and bumps its version.
func (m *Memory) Save(_ context.Context, sc simulation.Scenario) (simulation.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sc.Version = m.scenarios[sc.ID].version + 1
	sc.UpdatedAt = m.now()
	doc, err := factory.EncodeScenario(sc)
	if err != nil {
		return simulation.Summary{}, err
	}
	m.scenarios[sc.ID] = storedScenario{
		name:      sc.Name,
		version:   sc.Version,
		document:  doc,
		updatedAt: sc.UpdatedAt,
	}
	return sc.Summary(), nil
}

func (m *Memory) Load(_ context.Context, id generic.ScenarioID) (simulation.Scenario, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stored, ok := m.scenarios[id]
	if !ok {
		return simulation.Scenario{}, generic.ErrScenarioNotFound
	}
	return factory.DecodeScenario(id, stored.document)
}

// List returns summaries, most recently updated first.
func (m *Memory) List(_ context.Context) ([]simulation.Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]simulation.Summary, 0, len(m.scenarios))
	for id, s := range m.scenarios {
		out = append(out, simulation.Summary{ID: id, Name: s.name, Version: s.version, UpdatedAt: s.updatedAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// PutRaw stores a document as is. Used to simulate corrupt storage.
func (m *Memory) PutRaw(id generic.ScenarioID, name string, document []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scenarios[id] = storedScenario{name: name, version: 1, document: document, updatedAt: m.now()}
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears the live data. Scenarios are kept.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set = staffing.WorkingSet{Allocations: allocation.Allocations{}}
	return nil
}

// Seed merges a working set into the live data; the seed's collections are
// appended and its allocations written over existing ones.
func (m *Memory) Seed(_ context.Context, ws staffing.WorkingSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.set.Clone()
	cur.Resources = append(cur.Resources, ws.Resources...)
	cur.Projects = append(cur.Projects, ws.Projects...)
	cur.Assignments = append(cur.Assignments, ws.Assignments...)
	cur.Allocations = cur.Allocations.Apply(ws.Allocations.All())
	cur.Financials = append(cur.Financials, ws.Financials...)
	cur.Expenses = append(cur.Expenses, ws.Expenses...)
	cur.Milestones = append(cur.Milestones, ws.Milestones...)
	cur.Roles = append(cur.Roles, ws.Roles...)
	cur.RateCards = append(cur.RateCards, ws.RateCards...)
	cur.Calendar = append(cur.Calendar, ws.Calendar...)
	cur.LeaveRequests = append(cur.LeaveRequests, ws.LeaveRequests...)
	cur.LeaveTypes = append(cur.LeaveTypes, ws.LeaveTypes...)
	m.set = cur
	return nil
}
