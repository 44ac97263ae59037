package factory

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/simulation"
)

// =============================================================================
// ACTION JSON
// =============================================================================

// ActionJSON is the wire form of a simulation action:
//
//	{"type": "SET_ALLOCATION", "payload": {"assignment_id": "a1", "date": "2024-06-03", "percent": 60}}
type ActionJSON struct {
	Type    simulation.Kind `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

var actionDecoders = map[simulation.Kind]func(json.RawMessage) (simulation.Action, error){
	simulation.KindLoad:                  decodeInto[simulation.Load],
	simulation.KindImportLiveSnapshot:    decodeInto[simulation.ImportLiveSnapshot],
	simulation.KindAddGhostResource:      decodeInto[simulation.AddGhostResource],
	simulation.KindSetResourceFinancials: decodeInto[simulation.SetResourceFinancials],
	simulation.KindSetProjectRateCard:    decodeInto[simulation.SetProjectRateCard],
	simulation.KindSetProjectBillingType: decodeInto[simulation.SetProjectBillingType],
	simulation.KindAddAssignment:         decodeInto[simulation.AddAssignment],
	simulation.KindDeleteAssignment:      decodeInto[simulation.DeleteAssignment],
	simulation.KindSetAllocation:         decodeInto[simulation.SetAllocation],
	simulation.KindBulkSetAllocation:     decodeInto[simulation.BulkSetAllocation],
	simulation.KindAddExpense:            decodeInto[simulation.AddExpense],
	simulation.KindDeleteExpense:         decodeInto[simulation.DeleteExpense],
	simulation.KindAddMilestone:          decodeInto[simulation.AddMilestone],
	simulation.KindUpdateMilestone:       decodeInto[simulation.UpdateMilestone],
	simulation.KindDeleteMilestone:       decodeInto[simulation.DeleteMilestone],
	simulation.KindMarkSaved:             decodeInto[simulation.MarkSaved],
}

// ParseAction decodes a single action document.
func ParseAction(data []byte) (simulation.Action, error) {
	var aj ActionJSON
	if err := json.Unmarshal(data, &aj); err != nil {
		return nil, &generic.ActionError{Action: "decode", Reason: err}
	}
	return ActionFromJSON(aj)
}

// ActionFromJSON resolves the type tag and decodes the payload.
func ActionFromJSON(aj ActionJSON) (simulation.Action, error) {
	decode, ok := actionDecoders[aj.Type]
	if !ok {
		return nil, &generic.ActionError{
			Action: string(aj.Type),
			Reason: fmt.Errorf("unknown action type %q", aj.Type),
		}
	}
	a, err := decode(aj.Payload)
	if err != nil {
		return nil, &generic.ActionError{Action: string(aj.Type), Reason: err}
	}
	return a, nil
}

// ActionToJSON is the inverse of ActionFromJSON.
func ActionToJSON(a simulation.Action) (ActionJSON, error) {
	payload, err := json.Marshal(a)
	if err != nil {
		return ActionJSON{}, err
	}
	return ActionJSON{Type: a.Kind(), Payload: payload}, nil
}

func decodeInto[T simulation.Action](raw json.RawMessage) (simulation.Action, error) {
	var v T
	if len(raw) == 0 || string(raw) == "null" {
		return v, nil
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
