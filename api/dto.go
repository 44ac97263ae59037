/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Domain types that
  already carry json tags (staffing.Resource, utilization.Row,
  simulation.State, ...) are returned as is; the types here cover request
  bodies and the few responses that need a wrapper.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers and the planner, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/action.go: wire form of simulation actions
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/simulation"
	"github.com/warp/staffing-planner/utilization"
)

// =============================================================================
// LIVE EDITS
// =============================================================================

// CreateAssignmentsRequest assigns one resource to one or more projects.
type CreateAssignmentsRequest struct {
	ResourceID generic.ResourceID  `json:"resource_id"`
	ProjectIDs []generic.ProjectID `json:"project_ids"`
}

// SetAllocationRequest writes one cell. Percent 0 clears it.
type SetAllocationRequest struct {
	AssignmentID generic.AssignmentID `json:"assignment_id"`
	Date         generic.Date         `json:"date"`
	Percent      int                  `json:"percent"`
}

// BulkAllocationRequest writes every weekday in [start, end].
type BulkAllocationRequest struct {
	AssignmentID generic.AssignmentID `json:"assignment_id"`
	Start        generic.Date         `json:"start"`
	End          generic.Date         `json:"end"`
	Percent      int                  `json:"percent"`
}

// BulkAllocationResponse lists the cells the edit produced.
type BulkAllocationResponse struct {
	Entries []allocation.Entry `json:"entries"`
	Count   int                `json:"count"`
}

// PendingDTO reports the allocation writes still waiting to be persisted.
type PendingDTO struct {
	Entries []allocation.Entry `json:"entries"`
	Count   int                `json:"count"`
}

// =============================================================================
// UTILIZATION
// =============================================================================

type UtilizationDTO struct {
	ResourceID   generic.ResourceID   `json:"resource_id,omitempty"`
	AssignmentID generic.AssignmentID `json:"assignment_id,omitempty"`
	Start        generic.Date         `json:"start"`
	End          generic.Date         `json:"end"`
	Granularity  string               `json:"granularity"`
	Percent      decimal.Decimal      `json:"percent"`
	Status       utilization.Status   `json:"status,omitempty"`
	Cap          int                  `json:"cap,omitempty"`
}

type SeriesDTO struct {
	ResourceID   generic.ResourceID   `json:"resource_id,omitempty"`
	AssignmentID generic.AssignmentID `json:"assignment_id,omitempty"`
	Granularity  string               `json:"granularity"`
	Points       []utilization.Point  `json:"points"`
}

type ClassifyDTO struct {
	Percent decimal.Decimal    `json:"percent"`
	Cap     int                `json:"cap"`
	Status  utilization.Status `json:"status"`
}

// =============================================================================
// SIMULATION
// =============================================================================

type NewScenarioRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type LoadScenarioRequest struct {
	ID generic.ScenarioID `json:"id"`
}

// FinancialsDTO is the monthly roll-up plus totals over all months.
type FinancialsDTO struct {
	Months  []simulation.MonthFinancials `json:"months"`
	Revenue decimal.Decimal              `json:"revenue"`
	Cost    decimal.Decimal              `json:"cost"`
	Margin  decimal.Decimal              `json:"margin"`
}

// =============================================================================
// DEMO DATA
// =============================================================================

// DemoDTO describes a pre-built data set.
type DemoDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadDemoRequest struct {
	DemoID string `json:"demo_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response. Retryable is set
// when the same request may succeed later (persistence failures).
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}
