package planner

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/simulation"
	"github.com/warp/staffing-planner/utilization"
)

// =============================================================================
// SIMULATION - Current scenario state
// =============================================================================

// NewScenario starts a blank scenario and makes it current.
func (p *Planner) NewScenario(name, description string) simulation.State {
	blank := simulation.Blank(generic.ScenarioID(p.newID()), name, description)
	// LOAD never fails validation.
	s, _ := simulation.Reduce(simulation.State{}, simulation.Load{Scenario: blank})

	p.simMu.Lock()
	defer p.simMu.Unlock()
	p.sim = &s
	p.simRev++
	return s
}

// State returns the current scenario state.
func (p *Planner) State() (simulation.State, error) {
	p.simMu.Lock()
	defer p.simMu.Unlock()
	if p.sim == nil {
		return simulation.State{}, generic.ErrNoScenario
	}
	return *p.sim, nil
}

// Dispatch applies one action to the current scenario. A rejected action
// leaves the state unchanged.
func (p *Planner) Dispatch(a simulation.Action) (simulation.State, error) {
	a = p.withIDs(a)

	p.simMu.Lock()
	defer p.simMu.Unlock()
	if p.sim == nil {
		if _, ok := a.(simulation.Load); !ok {
			return simulation.State{}, generic.ErrNoScenario
		}
		p.sim = &simulation.State{}
	}

	next, err := simulation.Reduce(*p.sim, a)
	if err != nil {
		p.log.V(1).Info("Simulation action rejected", "action", a.Kind(), "reason", err.Error())
		return *p.sim, err
	}
	*p.sim = next
	p.simRev++
	return next, nil
}

// withIDs fills generated ids the caller left empty.
func (p *Planner) withIDs(a simulation.Action) simulation.Action {
	switch v := a.(type) {
	case simulation.AddGhostResource:
		if v.Resource.ID == "" {
			v.Resource.ID = generic.ResourceID("ghost-" + p.newID())
		}
		return v
	case simulation.AddExpense:
		if v.Expense.ID == "" {
			v.Expense.ID = generic.ExpenseID(p.newID())
		}
		return v
	case simulation.AddMilestone:
		if v.Milestone.ID == "" {
			v.Milestone.ID = generic.MilestoneID(p.newID())
		}
		return v
	}
	return a
}

// ImportLive copies the live working set into the current scenario,
// starting a blank one named name when none is loaded.
func (p *Planner) ImportLive(name string) (simulation.State, error) {
	if _, err := p.State(); errors.Is(err, generic.ErrNoScenario) {
		p.NewScenario(name, "")
	}
	return p.Dispatch(simulation.ImportLiveSnapshot{Data: p.Snapshot()})
}

// SaveScenario persists the current scenario. The dirty flag is cleared
// only if no other action was applied while the save was in flight.
func (p *Planner) SaveScenario(ctx context.Context) (simulation.Summary, error) {
	p.simMu.Lock()
	if p.sim == nil {
		p.simMu.Unlock()
		return simulation.Summary{}, generic.ErrNoScenario
	}
	snapshot := p.sim.Scenario
	rev := p.simRev
	p.simMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ctx, span := startScenarioSpan(ctx, "save",
		attribute.String("scenario_id", string(snapshot.ID)),
		attribute.Int("scenario.version", snapshot.Version),
	)
	summary, err := p.scenarios.Save(ctx, snapshot)
	endSpan(span, err)
	if err != nil {
		p.log.Error(err, "Saving scenario failed", "scenario", snapshot.ID)
		return simulation.Summary{}, &generic.PersistenceError{Op: "save_scenario", Err: err}
	}

	p.simMu.Lock()
	defer p.simMu.Unlock()
	if p.sim == nil || p.sim.Scenario.ID != snapshot.ID {
		return summary, nil
	}
	stillDirty := p.simRev != rev
	next, _ := simulation.Reduce(*p.sim, simulation.MarkSaved{
		ID:        summary.ID,
		Version:   summary.Version,
		UpdatedAt: summary.UpdatedAt,
	})
	next.Dirty = stillDirty
	*p.sim = next
	p.log.Info("Scenario saved", "scenario", summary.ID, "version", summary.Version)
	return summary, nil
}

// LoadScenario replaces the current scenario with a stored one. On any
// error the current state is left untouched.
func (p *Planner) LoadScenario(ctx context.Context, id generic.ScenarioID) (simulation.State, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ctx, span := startScenarioSpan(ctx, "load", attribute.String("scenario_id", string(id)))
	sc, err := p.scenarios.Load(ctx, id)
	endSpan(span, err)
	if err != nil {
		p.log.Error(err, "Loading scenario failed", "scenario", id)
		if generic.IsNotFound(err) || errors.Is(err, generic.ErrScenarioCorrupt) {
			return simulation.State{}, err
		}
		return simulation.State{}, &generic.PersistenceError{Op: "load_scenario", Err: err}
	}
	return p.Dispatch(simulation.Load{Scenario: sc})
}

func (p *Planner) ListScenarios(ctx context.Context) ([]simulation.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	ctx, span := startScenarioSpan(ctx, "list")
	list, err := p.scenarios.List(ctx)
	endSpan(span, err)
	if err != nil {
		return nil, &generic.PersistenceError{Op: "list_scenarios", Err: err}
	}
	return list, nil
}

// MonthlyFinancials rolls up the current scenario.
func (p *Planner) MonthlyFinancials() ([]simulation.MonthFinancials, error) {
	s, err := p.State()
	if err != nil {
		return nil, err
	}
	return simulation.MonthlyFinancials(&s.Scenario.Data), nil
}

// ScenarioUtilization runs the live aggregation algorithm against the
// current scenario's private copy.
func (p *Planner) ScenarioUtilization(t utilization.Target, start, end generic.Date, g utilization.Granularity) (decimal.Decimal, error) {
	pct, _, err := p.ScenarioUtilizationWithCap(t, start, end, g)
	return pct, err
}

func (p *Planner) ScenarioUtilizationWithCap(t utilization.Target, start, end generic.Date, g utilization.Granularity) (decimal.Decimal, int, error) {
	s, err := p.State()
	if err != nil {
		return decimal.Zero, 0, err
	}
	e := s.Scenario.Engine()
	pct, err := e.Utilization(t, start, end, g)
	return pct, e.Cap(t), err
}

// ScenarioGrid is Grid against the current scenario.
func (p *Planner) ScenarioGrid(start, end generic.Date, g utilization.Granularity) ([]utilization.Row, error) {
	s, err := p.State()
	if err != nil {
		return nil, err
	}
	return s.Scenario.Engine().Grid(start, end, g), nil
}
