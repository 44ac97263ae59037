/*
Package simulation runs what-if planning against a private copy of the
working set.

PURPOSE:
  A Scenario is a named, versioned snapshot of the whole working set. It is
  changed only by Reduce, which applies one tagged Action and returns a new
  State. The live model and any number of scenarios never alias: every
  transition copies the collections it touches and shares the rest.

TRANSITION FLOW:
  ┌──────────┐   Validate    ┌──────────┐   apply    ┌──────────┐
  │  State   │──────────────▶│  Action  │───────────▶│  State'  │
  └──────────┘    (error:    └──────────┘            └──────────┘
                  state kept)                     Dirty=true except
                                                  LOAD / MARK_SAVED

  An action that fails validation returns an ActionError and the state it
  was given, unchanged.

SEE ALSO:
  - action.go: the action variants
  - financials.go: monthly revenue / cost / margin roll-up
  - planner: persists scenarios and owns the current State
*/
package simulation

import (
	"time"

	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/staffing"
	"github.com/warp/staffing-planner/utilization"
)

// =============================================================================
// SCENARIO
// =============================================================================

type Scenario struct {
	ID          generic.ScenarioID  `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Version     int                 `json:"version"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Data        staffing.WorkingSet `json:"data"`
}

// Summary is the listing form of a stored scenario.
type Summary struct {
	ID        generic.ScenarioID `json:"id"`
	Name      string             `json:"name"`
	Version   int                `json:"version"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func (s Scenario) Summary() Summary {
	return Summary{ID: s.ID, Name: s.Name, Version: s.Version, UpdatedAt: s.UpdatedAt}
}

// Blank starts an empty scenario.
func Blank(id generic.ScenarioID, name, description string) Scenario {
	return Scenario{ID: id, Name: name, Description: description}
}

// Engine returns a utilization engine over the scenario's private copy.
func (s Scenario) Engine() *utilization.Engine {
	data := s.Data
	return utilization.NewEngine(&data)
}

// =============================================================================
// STATE
// =============================================================================

// State is the value threaded through Reduce. Dirty gates whether a save is
// offered.
type State struct {
	Scenario Scenario `json:"scenario"`
	Dirty    bool     `json:"dirty"`
}

func NewState(s Scenario) State { return State{Scenario: s} }

// Reduce validates and applies one action.
func Reduce(s State, a Action) (State, error) {
	if err := a.Validate(s); err != nil {
		return s, &generic.ActionError{Action: string(a.Kind()), Reason: err}
	}
	next := State{Scenario: a.apply(s.Scenario), Dirty: true}
	switch a.Kind() {
	case KindLoad, KindMarkSaved:
		next.Dirty = false
	}
	return next, nil
}

// Replay applies actions in order and stops at the first rejected one,
// returning the state reached before it.
func Replay(s State, actions ...Action) (State, error) {
	for _, a := range actions {
		next, err := Reduce(s, a)
		if err != nil {
			return s, err
		}
		s = next
	}
	return s, nil
}
