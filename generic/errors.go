/*
errors.go - Centralized error types for the planner

PURPOSE:
  All error types in one place for consistency and discoverability.
  Packages wrap these errors with additional context; callers test them
  with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Lookup errors - referenced resource/project/assignment/scenario missing
  2. Validation errors - bad percent, non-working day, invalid action
  3. Persistence errors - the collaborator failed; in-memory state is kept

WHAT IS NOT AN ERROR:
  - Malformed ranges (start after end): aggregation returns 0, bulk edits
    write nothing.
  - Zero available working days: utilization is 0.
  - Creating an assignment for a (resource, project) pair that already
    exists: the existing assignment is returned.

SEE ALSO:
  - planner/planner.go: wraps persistence failures in PersistenceError
  - simulation/action.go: returns ActionError from Validate
  - api/handlers.go: maps categories to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrResourceNotFound   = errors.New("resource not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrAssignmentNotFound = errors.New("assignment not found")

	// ErrScenarioNotFound is returned when a scenario id has no stored document.
	ErrScenarioNotFound = errors.New("scenario not found")

	// ErrScenarioCorrupt is returned when a stored scenario document cannot be
	// decoded or fails structural validation.
	ErrScenarioCorrupt = errors.New("scenario document corrupt")

	// ErrNoScenario is returned when a scenario operation runs before any
	// scenario has been loaded, imported or started.
	ErrNoScenario = errors.New("no scenario loaded")

	// ErrInvalidPercent is returned for allocation percentages outside [0,100].
	ErrInvalidPercent = errors.New("percent must be between 0 and 100")

	// ErrNonWorkingDay is returned when a single-cell edit writes a non-zero
	// allocation on a weekend or on a holiday that applies to the resource.
	ErrNonWorkingDay = errors.New("date is not a working day for this resource")

	// ErrInvalidAction is returned when a simulation action fails validation.
	ErrInvalidAction = errors.New("invalid simulation action")

	// ErrPersistenceFailed is returned when the persistence collaborator
	// rejects or fails a write. The matching in-memory change is retained.
	ErrPersistenceFailed = errors.New("persistence failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PersistenceError describes a failed call at the persistence boundary.
type PersistenceError struct {
	Op      string // e.g. "upsert_allocations", "save_scenario"
	Entries int    // number of allocation entries in the failed batch, if any
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Entries > 0 {
		return fmt.Sprintf("%s failed (%d entries): %v", e.Op, e.Entries, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistenceFailed, e.Err}
}

// ActionError explains why a simulation action was rejected.
type ActionError struct {
	Action string
	Reason error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Reason)
}

func (e *ActionError) Unwrap() []error {
	return []error{ErrInvalidAction, e.Reason}
}

// CorruptScenarioError wraps a decode failure with the scenario id.
type CorruptScenarioError struct {
	ID  ScenarioID
	Err error
}

func (e *CorruptScenarioError) Error() string {
	return fmt.Sprintf("scenario %s: %v", e.ID, e.Err)
}

func (e *CorruptScenarioError) Unwrap() []error {
	return []error{ErrScenarioCorrupt, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the same call might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistenceFailed)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPercent) ||
		errors.Is(err, ErrNonWorkingDay) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrNoScenario)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrResourceNotFound) ||
		errors.Is(err, ErrProjectNotFound) ||
		errors.Is(err, ErrAssignmentNotFound) ||
		errors.Is(err, ErrScenarioNotFound)
}
