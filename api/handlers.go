/*
handlers.go - HTTP API handlers for the staffing planner

PURPOSE:
  Exposes the planner via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the planner. No figure is computed here:
  every utilization number comes from the planner's engine.

ENDPOINTS:
  Live data:
    GET    /api/snapshot                    Full working set
    GET    /api/resources                   List resources
    GET    /api/projects                    List projects
    POST   /api/refresh                     Reload from the store

  Assignments and allocations:
    POST   /api/assignments                 Assign a resource to projects
    DELETE /api/assignments/{id}            Delete (cascades allocations)
    PUT    /api/allocations                 Set one cell
    POST   /api/allocations/bulk            Set every weekday in a range
    GET    /api/allocations/pending         Writes not yet persisted
    POST   /api/allocations/retry           Retry pending writes

  Utilization:
    GET    /api/utilization                 One figure (?resource= | ?assignment=)
    GET    /api/utilization/series          Per-bucket figures
    GET    /api/utilization/grid            Every resource
    GET    /api/classify                    ?percent=&cap=

  Simulation:
    GET    /api/simulation                  Current state
    POST   /api/simulation/new              Blank scenario
    POST   /api/simulation/import           Copy live data into the scenario
    POST   /api/simulation/actions          Apply one action
    POST   /api/simulation/save             Persist the scenario
    POST   /api/simulation/load             Load a stored scenario
    GET    /api/simulation/saved            List stored scenarios
    GET    /api/simulation/financials       Monthly roll-up
    GET    /api/simulation/utilization      Utilization against the scenario
    GET    /api/simulation/grid             Grid against the scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: invalid input, rejected action, no scenario loaded
  - 404: unknown resource, project, assignment or scenario
  - 422: stored scenario could not be decoded
  - 502: persistence failed; the in-memory change is kept, retryable=true
  - 500: anything else

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - demos.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"
	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-planner/factory"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/planner"
	"github.com/warp/staffing-planner/simulation"
	"github.com/warp/staffing-planner/staffing"
	"github.com/warp/staffing-planner/utilization"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Admin is the store surface used by the demo loaders.
type Admin interface {
	Reset(ctx context.Context) error
	Seed(ctx context.Context, ws staffing.WorkingSet) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Planner *planner.Planner
	Admin   Admin
	Log     logr.Logger

	// Demo data set last loaded through /api/demos/load
	currentDemo string
}

// NewHandler creates a new handler. admin may be nil, which disables the
// demo and reset endpoints.
func NewHandler(p *planner.Planner, admin Admin, log logr.Logger) *Handler {
	return &Handler{Planner: p, Admin: admin, Log: log}
}

// =============================================================================
// LIVE DATA
// =============================================================================

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Planner.Snapshot())
}

func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	ws := h.Planner.Snapshot()
	out := ws.Resources
	if out == nil {
		out = []staffing.Resource{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	ws := h.Planner.Snapshot()
	out := ws.Projects
	if out == nil {
		out = []staffing.Project{}
	}
	writeJSON(w, http.StatusOK, out)
}

// Refresh reloads the live working set from the store.
// POST /api/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.Planner.Refresh(r.Context()); err != nil {
		h.writeDomainError(w, "Failed to refresh", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// =============================================================================
// ASSIGNMENTS
// =============================================================================

// CreateAssignments assigns a resource to one or more projects. Pairs that
// already exist are returned unchanged.
// POST /api/assignments
func (h *Handler) CreateAssignments(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentsRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ResourceID == "" || len(req.ProjectIDs) == 0 {
		writeError(w, http.StatusBadRequest, "resource_id and project_ids are required", nil)
		return
	}

	created, err := h.Planner.CreateAssignments(r.Context(), req.ResourceID, req.ProjectIDs...)
	if err != nil {
		h.writeDomainError(w, "Failed to create assignments", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// DeleteAssignment removes an assignment and its allocations.
// DELETE /api/assignments/{id}
func (h *Handler) DeleteAssignment(w http.ResponseWriter, r *http.Request) {
	id := generic.AssignmentID(chi.URLParam(r, "id"))
	if err := h.Planner.DeleteAssignment(r.Context(), id); err != nil {
		h.writeDomainError(w, "Failed to delete assignment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

// SetAllocation writes one cell.
// PUT /api/allocations
func (h *Handler) SetAllocation(w http.ResponseWriter, r *http.Request) {
	var req SetAllocationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Date.IsZero() {
		writeError(w, http.StatusBadRequest, "date is required (YYYY-MM-DD)", nil)
		return
	}

	if err := h.Planner.SetAllocation(r.Context(), req.AssignmentID, req.Date, req.Percent); err != nil {
		h.writeDomainError(w, "Failed to set allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// BulkAllocate writes every weekday in [start, end] for one assignment.
// POST /api/allocations/bulk
func (h *Handler) BulkAllocate(w http.ResponseWriter, r *http.Request) {
	var req BulkAllocationRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Start.IsZero() || req.End.IsZero() {
		writeError(w, http.StatusBadRequest, "start and end are required (YYYY-MM-DD)", nil)
		return
	}

	entries, err := h.Planner.ApplyBulk(r.Context(), req.AssignmentID, req.Start, req.End, req.Percent)
	if err != nil {
		h.writeDomainError(w, "Failed to apply bulk allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, BulkAllocationResponse{Entries: entries, Count: len(entries)})
}

func (h *Handler) ListPending(w http.ResponseWriter, r *http.Request) {
	pending := h.Planner.PendingPersist()
	writeJSON(w, http.StatusOK, PendingDTO{Entries: pending, Count: len(pending)})
}

// RetryPending resends every pending write in one batch.
// POST /api/allocations/retry
func (h *Handler) RetryPending(w http.ResponseWriter, r *http.Request) {
	if err := h.Planner.RetryPending(r.Context()); err != nil {
		h.writeDomainError(w, "Retry failed", err)
		return
	}
	pending := h.Planner.PendingPersist()
	writeJSON(w, http.StatusOK, PendingDTO{Entries: pending, Count: len(pending)})
}

// =============================================================================
// UTILIZATION
// =============================================================================

// utilizationQuery holds the parsed ?resource|assignment&start&end&granularity.
type utilizationQuery struct {
	target      utilization.Target
	start, end  generic.Date
	granularity utilization.Granularity
}

func parseUtilizationQuery(r *http.Request, needTarget bool) (utilizationQuery, error) {
	q := r.URL.Query()
	var out utilizationQuery

	res, asg := q.Get("resource"), q.Get("assignment")
	switch {
	case res != "" && asg != "":
		return out, errors.New("pass either resource or assignment, not both")
	case res != "":
		out.target = utilization.ForResource(generic.ResourceID(res))
	case asg != "":
		out.target = utilization.ForAssignment(generic.AssignmentID(asg))
	case needTarget:
		return out, errors.New("resource or assignment is required")
	}

	var err error
	if out.start, err = generic.ParseDate(q.Get("start")); err != nil {
		return out, fmt.Errorf("start: %w", err)
	}
	out.end = out.start
	if s := q.Get("end"); s != "" {
		if out.end, err = generic.ParseDate(s); err != nil {
			return out, fmt.Errorf("end: %w", err)
		}
	}

	out.granularity = utilization.Granularity(q.Get("granularity"))
	if out.granularity == "" {
		out.granularity = utilization.Week
	}
	if !out.granularity.Valid() {
		return out, fmt.Errorf("granularity must be day, week or month, got %q", out.granularity)
	}
	return out, nil
}

// GetUtilization returns a single utilization figure.
// GET /api/utilization?resource=r1&start=2024-06-03&end=2024-06-07&granularity=week
func (h *Handler) GetUtilization(w http.ResponseWriter, r *http.Request) {
	q, err := parseUtilizationQuery(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}
	pct, cap, err := h.Planner.UtilizationWithCap(q.target, q.start, q.end, q.granularity)
	if err != nil {
		h.writeDomainError(w, "Failed to compute utilization", err)
		return
	}
	writeJSON(w, http.StatusOK, utilizationDTO(q, pct, cap))
}

func utilizationDTO(q utilizationQuery, pct decimal.Decimal, cap int) UtilizationDTO {
	dto := UtilizationDTO{
		ResourceID:   q.target.ResourceID,
		AssignmentID: q.target.AssignmentID,
		Start:        q.start,
		End:          q.end,
		Granularity:  string(q.granularity),
		Percent:      pct,
		Cap:          cap,
	}
	if cap > 0 {
		dto.Status = utilization.Classify(pct, cap)
	}
	return dto
}

// GetSeries returns one figure per bucket.
// GET /api/utilization/series
func (h *Handler) GetSeries(w http.ResponseWriter, r *http.Request) {
	q, err := parseUtilizationQuery(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}
	points, err := h.Planner.Series(q.target, q.start, q.end, q.granularity)
	if err != nil {
		h.writeDomainError(w, "Failed to compute series", err)
		return
	}
	writeJSON(w, http.StatusOK, SeriesDTO{
		ResourceID:   q.target.ResourceID,
		AssignmentID: q.target.AssignmentID,
		Granularity:  string(q.granularity),
		Points:       points,
	})
}

// GetGrid returns a series for every resource.
// GET /api/utilization/grid
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	q, err := parseUtilizationQuery(r, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Planner.Grid(q.start, q.end, q.granularity))
}

// Classify maps a percentage and cap to a status.
// GET /api/classify?percent=99.5&cap=100
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	pct, err := decimal.NewFromString(r.URL.Query().Get("percent"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "percent must be a number", err)
		return
	}
	cap := generic.DefaultCapPercent
	if s := r.URL.Query().Get("cap"); s != "" {
		if cap, err = strconv.Atoi(s); err != nil || cap <= 0 {
			writeError(w, http.StatusBadRequest, "cap must be a positive integer", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, ClassifyDTO{Percent: pct, Cap: cap, Status: h.Planner.Classify(pct, cap)})
}

// =============================================================================
// SIMULATION
// =============================================================================

func (h *Handler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	s, err := h.Planner.State()
	if err != nil {
		h.writeDomainError(w, "No scenario loaded", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// NewSimulation starts a blank scenario.
// POST /api/simulation/new
func (h *Handler) NewSimulation(w http.ResponseWriter, r *http.Request) {
	var req NewScenarioRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		req.Name = "Untitled scenario"
	}
	writeJSON(w, http.StatusCreated, h.Planner.NewScenario(req.Name, req.Description))
}

// ImportLive copies the live working set into the current scenario.
// POST /api/simulation/import
func (h *Handler) ImportLive(w http.ResponseWriter, r *http.Request) {
	var req NewScenarioRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		req.Name = "Imported scenario"
	}
	s, err := h.Planner.ImportLive(req.Name)
	if err != nil {
		h.writeDomainError(w, "Failed to import live data", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ApplyAction applies one action to the current scenario.
// POST /api/simulation/actions
//
//	{"type": "SET_ALLOCATION", "payload": {"assignment_id": "a1", "date": "2024-06-03", "percent": 60}}
func (h *Handler) ApplyAction(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body", err)
		return
	}
	action, err := factory.ParseAction(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid action", err)
		return
	}

	s, err := h.Planner.Dispatch(action)
	if err != nil {
		h.writeDomainError(w, "Action rejected", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// SaveSimulation persists the current scenario.
// POST /api/simulation/save
func (h *Handler) SaveSimulation(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Planner.SaveScenario(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to save scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// LoadSimulation replaces the current scenario with a stored one.
// POST /api/simulation/load
func (h *Handler) LoadSimulation(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required", nil)
		return
	}
	s, err := h.Planner.LoadScenario(r.Context(), req.ID)
	if err != nil {
		h.writeDomainError(w, "Failed to load scenario", err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func (h *Handler) ListSavedSimulations(w http.ResponseWriter, r *http.Request) {
	list, err := h.Planner.ListScenarios(r.Context())
	if err != nil {
		h.writeDomainError(w, "Failed to list scenarios", err)
		return
	}
	if list == nil {
		list = []simulation.Summary{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetFinancials returns the monthly roll-up of the current scenario.
// GET /api/simulation/financials
func (h *Handler) GetFinancials(w http.ResponseWriter, r *http.Request) {
	months, err := h.Planner.MonthlyFinancials()
	if err != nil {
		h.writeDomainError(w, "Failed to compute financials", err)
		return
	}
	if months == nil {
		months = []simulation.MonthFinancials{}
	}
	revenue, cost, margin := simulation.Totals(months)
	writeJSON(w, http.StatusOK, FinancialsDTO{Months: months, Revenue: revenue, Cost: cost, Margin: margin})
}

func (h *Handler) GetSimulationUtilization(w http.ResponseWriter, r *http.Request) {
	q, err := parseUtilizationQuery(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}
	pct, cap, err := h.Planner.ScenarioUtilizationWithCap(q.target, q.start, q.end, q.granularity)
	if err != nil {
		h.writeDomainError(w, "Failed to compute utilization", err)
		return
	}
	writeJSON(w, http.StatusOK, utilizationDTO(q, pct, cap))
}

func (h *Handler) GetSimulationGrid(w http.ResponseWriter, r *http.Request) {
	q, err := parseUtilizationQuery(r, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}
	rows, err := h.Planner.ScenarioGrid(q.start, q.end, q.granularity)
	if err != nil {
		h.writeDomainError(w, "Failed to compute grid", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// =============================================================================
// HELPERS
// =============================================================================

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps planner errors to a status code.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, generic.ErrScenarioCorrupt):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case generic.IsRetryable(err):
		h.Log.Error(err, message)
		writeJSON(w, http.StatusBadGateway, ErrorResponse{
			Error:     message,
			Details:   err.Error(),
			Retryable: true,
		})
	default:
		h.Log.Error(err, message)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
