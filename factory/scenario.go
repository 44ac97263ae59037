/*
Package factory converts between JSON documents and planner values.

PURPOSE:
  Scenarios are persisted as opaque, named, versioned blobs. The stores
  never look inside them; this package owns the document format, and every
  store (sqlite, redis, memory) encodes and decodes through it so a
  scenario saved by one backend loads identically from another.

DOCUMENT FORMAT:
  {
    "format": "staffing-scenario",
    "schema_version": 1,
    "scenario": {
      "id": "...", "name": "Q3 hiring plan", "version": 3,
      "data": {
        "resources": [...], "projects": [...], "assignments": [...],
        "allocations": {"asg-1": {"2024-06-03": 60}},
        "financials": [...], "expenses": [...], "milestones": [...],
        ...
      }
    }
  }

VALIDATION ON DECODE:
  - wrong format tag or schema version
  - allocations referencing an unknown assignment (orphans)
  - assignments referencing an unknown resource or project
  - percentages outside [0,100]
  Any failure is reported as generic.ErrScenarioCorrupt.

SEE ALSO:
  - action.go: JSON -> simulation.Action
  - snapshot.go: JSON seed files -> staffing.WorkingSet
*/
package factory

import (
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/simulation"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

const (
	DocumentFormat = "staffing-scenario"
	SchemaVersion  = 1
)

// ScenarioDocument is the persisted envelope.
type ScenarioDocument struct {
	Format        string              `json:"format"`
	SchemaVersion int                 `json:"schema_version"`
	Scenario      simulation.Scenario `json:"scenario"`
}

// =============================================================================
// ENCODE / DECODE
// =============================================================================

// EncodeScenario wraps the scenario in a document and marshals it.
func EncodeScenario(s simulation.Scenario) ([]byte, error) {
	doc := ScenarioDocument{Format: DocumentFormat, SchemaVersion: SchemaVersion, Scenario: s}
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode scenario %s: %w", s.ID, err)
	}
	return b, nil
}

// DecodeScenario parses and validates a stored document. id is only used
// for error context.
func DecodeScenario(id generic.ScenarioID, data []byte) (simulation.Scenario, error) {
	var doc ScenarioDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return simulation.Scenario{}, &generic.CorruptScenarioError{ID: id, Err: err}
	}
	if doc.Format != DocumentFormat {
		return simulation.Scenario{}, &generic.CorruptScenarioError{
			ID: id, Err: fmt.Errorf("unexpected format %q", doc.Format)}
	}
	if doc.SchemaVersion != SchemaVersion {
		return simulation.Scenario{}, &generic.CorruptScenarioError{
			ID: id, Err: fmt.Errorf("unsupported schema version %d", doc.SchemaVersion)}
	}
	if err := ValidateScenario(doc.Scenario); err != nil {
		return simulation.Scenario{}, &generic.CorruptScenarioError{ID: id, Err: err}
	}
	return doc.Scenario, nil
}

// ValidateScenario checks the referential invariants of a scenario.
func ValidateScenario(s simulation.Scenario) error {
	d := &s.Data
	for _, a := range d.Assignments {
		if _, ok := d.Resource(a.ResourceID); !ok {
			return fmt.Errorf("assignment %s: %w", a.ID, generic.ErrResourceNotFound)
		}
		if _, ok := d.Project(a.ProjectID); !ok {
			return fmt.Errorf("assignment %s: %w", a.ID, generic.ErrProjectNotFound)
		}
	}
	for id, m := range d.Allocations {
		if _, ok := d.Assignment(id); !ok {
			return fmt.Errorf("allocations for %s: %w", id, generic.ErrAssignmentNotFound)
		}
		for day, pct := range m {
			if !generic.ValidPercent(pct) {
				return fmt.Errorf("allocation %s on %s: %w", id, day, generic.ErrInvalidPercent)
			}
		}
	}
	return nil
}
