package simulation

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/calendar"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/staffing"
)

// =============================================================================
// ACTION - Tagged transition variants
// =============================================================================

type Kind string

const (
	KindLoad                  Kind = "LOAD"
	KindImportLiveSnapshot    Kind = "IMPORT_LIVE_SNAPSHOT"
	KindAddGhostResource      Kind = "ADD_GHOST_RESOURCE"
	KindSetResourceFinancials Kind = "SET_RESOURCE_FINANCIALS"
	KindSetProjectRateCard    Kind = "SET_PROJECT_RATE_CARD"
	KindSetProjectBillingType Kind = "SET_PROJECT_BILLING_TYPE"
	KindAddAssignment         Kind = "ADD_ASSIGNMENT"
	KindDeleteAssignment      Kind = "DELETE_ASSIGNMENT"
	KindSetAllocation         Kind = "SET_ALLOCATION"
	KindBulkSetAllocation     Kind = "BULK_SET_ALLOCATION"
	KindAddExpense            Kind = "ADD_EXPENSE"
	KindDeleteExpense         Kind = "DELETE_EXPENSE"
	KindAddMilestone          Kind = "ADD_MILESTONE"
	KindUpdateMilestone       Kind = "UPDATE_MILESTONE"
	KindDeleteMilestone       Kind = "DELETE_MILESTONE"
	KindMarkSaved             Kind = "MARK_SAVED"
)

// Action is one scenario transition. Validate must not change anything;
// apply must return a new Scenario and never write through s's slices or
// maps.
type Action interface {
	Kind() Kind
	Validate(s State) error
	apply(s Scenario) Scenario
}

var (
	errMissingID        = errors.New("id is required")
	errDuplicateID      = errors.New("id already exists")
	errNegativeAmount   = errors.New("amount must not be negative")
	errUnknownRole      = errors.New("role not found")
	errUnknownCard      = errors.New("rate card not found")
	errUnknownBilling   = errors.New("unknown billing type")
	errExpenseMissing   = errors.New("expense not found")
	errMilestoneMissing = errors.New("milestone not found")
)

// =============================================================================
// LOAD / IMPORT / MARK SAVED
// =============================================================================

type Load struct {
	Scenario Scenario `json:"scenario"`
}

func (Load) Kind() Kind { return KindLoad }
func (Load) Validate(State) error { return nil }
func (a Load) apply(Scenario) Scenario { return a.Scenario }

// ImportLiveSnapshot replaces the working set and keeps the scenario's
// identity, name and version.
type ImportLiveSnapshot struct {
	Data staffing.WorkingSet `json:"data"`
}

func (ImportLiveSnapshot) Kind() Kind { return KindImportLiveSnapshot }
func (ImportLiveSnapshot) Validate(State) error { return nil }
func (a ImportLiveSnapshot) apply(s Scenario) Scenario {
	s.Data = a.Data.Clone()
	return s
}

// MarkSaved clears the dirty flag. The stored identity, version and time
// are stamped when set; the working set is never touched.
type MarkSaved struct {
	ID        generic.ScenarioID `json:"id,omitempty"`
	Version   int                `json:"version,omitempty"`
	UpdatedAt time.Time          `json:"updated_at,omitempty"`
}

func (MarkSaved) Kind() Kind { return KindMarkSaved }
func (MarkSaved) Validate(State) error { return nil }

func (a MarkSaved) apply(s Scenario) Scenario {
	if a.ID != "" {
		s.ID = a.ID
	}
	if a.Version > 0 {
		s.Version = a.Version
		s.UpdatedAt = a.UpdatedAt
	}
	return s
}

// =============================================================================
// RESOURCES / PROJECTS
// =============================================================================

// AddGhostResource appends a scenario-only resource and seeds its financial
// row from its role's defaults.
type AddGhostResource struct {
	Resource staffing.Resource `json:"resource"`
}

func (AddGhostResource) Kind() Kind { return KindAddGhostResource }

func (a AddGhostResource) Validate(s State) error {
	if a.Resource.ID == "" {
		return errMissingID
	}
	if _, ok := s.Scenario.Data.Resource(a.Resource.ID); ok {
		return fmt.Errorf("resource %s: %w", a.Resource.ID, errDuplicateID)
	}
	if a.Resource.RoleID != "" {
		if _, ok := s.Scenario.Data.Role(a.Resource.RoleID); !ok {
			return fmt.Errorf("%s: %w", a.Resource.RoleID, errUnknownRole)
		}
	}
	return nil
}

func (a AddGhostResource) apply(s Scenario) Scenario {
	r := a.Resource
	r.Ghost = true
	s.Data.Resources = append(cloneSlice(s.Data.Resources), r)

	row := staffing.Financials{ResourceID: r.ID}
	if role, ok := s.Data.Role(r.RoleID); ok {
		row = staffing.FinancialsFromRole(r.ID, role)
	}
	s.Data.Financials = upsertFinancials(s.Data.Financials, row)
	return s
}

type SetResourceFinancials struct {
	ResourceID    generic.ResourceID `json:"resource_id"`
	DailyCost     decimal.Decimal    `json:"daily_cost"`
	DailyExpenses decimal.Decimal    `json:"daily_expenses"`
	SellRate      *decimal.Decimal   `json:"sell_rate,omitempty"`
}

func (SetResourceFinancials) Kind() Kind { return KindSetResourceFinancials }

func (a SetResourceFinancials) Validate(s State) error {
	if _, ok := s.Scenario.Data.Resource(a.ResourceID); !ok {
		return generic.ErrResourceNotFound
	}
	if a.DailyCost.IsNegative() || a.DailyExpenses.IsNegative() ||
		(a.SellRate != nil && a.SellRate.IsNegative()) {
		return errNegativeAmount
	}
	return nil
}

func (a SetResourceFinancials) apply(s Scenario) Scenario {
	s.Data.Financials = upsertFinancials(s.Data.Financials, staffing.Financials{
		ResourceID:    a.ResourceID,
		DailyCost:     a.DailyCost,
		DailyExpenses: a.DailyExpenses,
		SellRate:      a.SellRate,
	})
	return s
}

// SetProjectRateCard points the project at a rate card. An empty id clears
// the project's card.
type SetProjectRateCard struct {
	ProjectID  generic.ProjectID  `json:"project_id"`
	RateCardID generic.RateCardID `json:"rate_card_id"`
}

func (SetProjectRateCard) Kind() Kind { return KindSetProjectRateCard }

func (a SetProjectRateCard) Validate(s State) error {
	if _, ok := s.Scenario.Data.Project(a.ProjectID); !ok {
		return generic.ErrProjectNotFound
	}
	if a.RateCardID != "" {
		if _, ok := s.Scenario.Data.RateCard(a.RateCardID); !ok {
			return fmt.Errorf("%s: %w", a.RateCardID, errUnknownCard)
		}
	}
	return nil
}

func (a SetProjectRateCard) apply(s Scenario) Scenario {
	s.Data.Projects = updateProject(s.Data.Projects, a.ProjectID, func(p *staffing.Project) {
		p.RateCardID = a.RateCardID
	})
	return s
}

type SetProjectBillingType struct {
	ProjectID   generic.ProjectID    `json:"project_id"`
	BillingType staffing.BillingType `json:"billing_type"`
}

func (SetProjectBillingType) Kind() Kind { return KindSetProjectBillingType }

func (a SetProjectBillingType) Validate(s State) error {
	if _, ok := s.Scenario.Data.Project(a.ProjectID); !ok {
		return generic.ErrProjectNotFound
	}
	if !a.BillingType.Valid() {
		return fmt.Errorf("%q: %w", a.BillingType, errUnknownBilling)
	}
	return nil
}

func (a SetProjectBillingType) apply(s Scenario) Scenario {
	s.Data.Projects = updateProject(s.Data.Projects, a.ProjectID, func(p *staffing.Project) {
		p.BillingType = a.BillingType
	})
	return s
}

// =============================================================================
// ASSIGNMENTS / ALLOCATIONS
// =============================================================================

// AddAssignment binds a resource to a project. It is a no-op when the pair
// is already assigned. Without an ID one is derived from the pair.
type AddAssignment struct {
	ID         generic.AssignmentID `json:"id,omitempty"`
	ResourceID generic.ResourceID   `json:"resource_id"`
	ProjectID  generic.ProjectID    `json:"project_id"`
}

func (AddAssignment) Kind() Kind { return KindAddAssignment }

func (a AddAssignment) assignmentID() generic.AssignmentID {
	if a.ID != "" {
		return a.ID
	}
	return generic.AssignmentID(fmt.Sprintf("sim-%s-%s", a.ResourceID, a.ProjectID))
}

func (a AddAssignment) Validate(s State) error {
	d := &s.Scenario.Data
	if _, ok := d.Resource(a.ResourceID); !ok {
		return generic.ErrResourceNotFound
	}
	if _, ok := d.Project(a.ProjectID); !ok {
		return generic.ErrProjectNotFound
	}
	if _, ok := d.FindAssignment(a.ResourceID, a.ProjectID); ok {
		return nil
	}
	if _, ok := d.Assignment(a.assignmentID()); ok {
		return fmt.Errorf("assignment %s: %w", a.assignmentID(), errDuplicateID)
	}
	return nil
}

func (a AddAssignment) apply(s Scenario) Scenario {
	if _, ok := s.Data.FindAssignment(a.ResourceID, a.ProjectID); ok {
		return s
	}
	s.Data.Assignments = append(cloneSlice(s.Data.Assignments), staffing.Assignment{
		ID:         a.assignmentID(),
		ResourceID: a.ResourceID,
		ProjectID:  a.ProjectID,
	})
	return s
}

// DeleteAssignment removes the assignment and its whole allocation map.
type DeleteAssignment struct {
	AssignmentID generic.AssignmentID `json:"assignment_id"`
}

func (DeleteAssignment) Kind() Kind { return KindDeleteAssignment }

func (a DeleteAssignment) Validate(s State) error {
	if _, ok := s.Scenario.Data.Assignment(a.AssignmentID); !ok {
		return generic.ErrAssignmentNotFound
	}
	return nil
}

func (a DeleteAssignment) apply(s Scenario) Scenario {
	kept := make([]staffing.Assignment, 0, len(s.Data.Assignments))
	for _, x := range s.Data.Assignments {
		if x.ID != a.AssignmentID {
			kept = append(kept, x)
		}
	}
	s.Data.Assignments = kept
	s.Data.Allocations = s.Data.Allocations.Without(a.AssignmentID)
	return s
}

// SetAllocation is a single-cell edit. Non-zero writes on a day that is
// non-working for the resource's location are rejected.
type SetAllocation struct {
	AssignmentID generic.AssignmentID `json:"assignment_id"`
	Date         generic.Date         `json:"date"`
	Percent      int                  `json:"percent"`
}

func (SetAllocation) Kind() Kind { return KindSetAllocation }

func (a SetAllocation) Validate(s State) error {
	d := &s.Scenario.Data
	asg, ok := d.Assignment(a.AssignmentID)
	if !ok {
		return generic.ErrAssignmentNotFound
	}
	if !generic.ValidPercent(a.Percent) {
		return generic.ErrInvalidPercent
	}
	if a.Percent == 0 {
		return nil
	}
	r, _ := d.Resource(asg.ResourceID)
	if calendar.IsNonWorkingDay(a.Date, r.Location, d.Calendar) {
		return generic.ErrNonWorkingDay
	}
	return nil
}

func (a SetAllocation) apply(s Scenario) Scenario {
	s.Data.Allocations = s.Data.Allocations.With(a.AssignmentID, a.Date, a.Percent)
	return s
}

// BulkSetAllocation fills [Start, End] skipping weekends only.
type BulkSetAllocation struct {
	AssignmentID generic.AssignmentID `json:"assignment_id"`
	Start        generic.Date         `json:"start"`
	End          generic.Date         `json:"end"`
	Percent      int                  `json:"percent"`
}

func (BulkSetAllocation) Kind() Kind { return KindBulkSetAllocation }

func (a BulkSetAllocation) Validate(s State) error {
	if _, ok := s.Scenario.Data.Assignment(a.AssignmentID); !ok {
		return generic.ErrAssignmentNotFound
	}
	if !generic.ValidPercent(a.Percent) {
		return generic.ErrInvalidPercent
	}
	return nil
}

func (a BulkSetAllocation) apply(s Scenario) Scenario {
	s.Data.Allocations = s.Data.Allocations.Apply(
		allocation.BulkEntries(a.AssignmentID, a.Start, a.End, a.Percent))
	return s
}

// =============================================================================
// EXPENSES / MILESTONES
// =============================================================================

type AddExpense struct {
	Expense staffing.Expense `json:"expense"`
}

func (AddExpense) Kind() Kind { return KindAddExpense }

func (a AddExpense) Validate(s State) error {
	e := a.Expense
	if e.ID == "" {
		return errMissingID
	}
	if _, ok := s.Scenario.Data.Project(e.ProjectID); !ok {
		return generic.ErrProjectNotFound
	}
	if e.Amount.IsNegative() {
		return errNegativeAmount
	}
	for _, x := range s.Scenario.Data.Expenses {
		if x.ID == e.ID {
			return fmt.Errorf("expense %s: %w", e.ID, errDuplicateID)
		}
	}
	return nil
}

func (a AddExpense) apply(s Scenario) Scenario {
	s.Data.Expenses = append(cloneSlice(s.Data.Expenses), a.Expense)
	return s
}

type DeleteExpense struct {
	ExpenseID generic.ExpenseID `json:"expense_id"`
}

func (DeleteExpense) Kind() Kind { return KindDeleteExpense }

func (a DeleteExpense) Validate(s State) error {
	for _, x := range s.Scenario.Data.Expenses {
		if x.ID == a.ExpenseID {
			return nil
		}
	}
	return errExpenseMissing
}

func (a DeleteExpense) apply(s Scenario) Scenario {
	kept := make([]staffing.Expense, 0, len(s.Data.Expenses))
	for _, x := range s.Data.Expenses {
		if x.ID != a.ExpenseID {
			kept = append(kept, x)
		}
	}
	s.Data.Expenses = kept
	return s
}

type AddMilestone struct {
	Milestone staffing.Milestone `json:"milestone"`
}

func (AddMilestone) Kind() Kind { return KindAddMilestone }

func (a AddMilestone) Validate(s State) error {
	m := a.Milestone
	if m.ID == "" {
		return errMissingID
	}
	if _, ok := s.Scenario.Data.Project(m.ProjectID); !ok {
		return generic.ErrProjectNotFound
	}
	if m.Amount.IsNegative() {
		return errNegativeAmount
	}
	if milestoneIndex(s.Scenario.Data.Milestones, m.ID) >= 0 {
		return fmt.Errorf("milestone %s: %w", m.ID, errDuplicateID)
	}
	return nil
}

func (a AddMilestone) apply(s Scenario) Scenario {
	s.Data.Milestones = append(cloneSlice(s.Data.Milestones), a.Milestone)
	return s
}

// UpdateMilestone replaces the milestone with the same ID.
type UpdateMilestone struct {
	Milestone staffing.Milestone `json:"milestone"`
}

func (UpdateMilestone) Kind() Kind { return KindUpdateMilestone }

func (a UpdateMilestone) Validate(s State) error {
	m := a.Milestone
	if milestoneIndex(s.Scenario.Data.Milestones, m.ID) < 0 {
		return errMilestoneMissing
	}
	if _, ok := s.Scenario.Data.Project(m.ProjectID); !ok {
		return generic.ErrProjectNotFound
	}
	if m.Amount.IsNegative() {
		return errNegativeAmount
	}
	return nil
}

func (a UpdateMilestone) apply(s Scenario) Scenario {
	ms := cloneSlice(s.Data.Milestones)
	ms[milestoneIndex(ms, a.Milestone.ID)] = a.Milestone
	s.Data.Milestones = ms
	return s
}

type DeleteMilestone struct {
	MilestoneID generic.MilestoneID `json:"milestone_id"`
}

func (DeleteMilestone) Kind() Kind { return KindDeleteMilestone }

func (a DeleteMilestone) Validate(s State) error {
	if milestoneIndex(s.Scenario.Data.Milestones, a.MilestoneID) < 0 {
		return errMilestoneMissing
	}
	return nil
}

func (a DeleteMilestone) apply(s Scenario) Scenario {
	kept := make([]staffing.Milestone, 0, len(s.Data.Milestones))
	for _, x := range s.Data.Milestones {
		if x.ID != a.MilestoneID {
			kept = append(kept, x)
		}
	}
	s.Data.Milestones = kept
	return s
}

// =============================================================================
// COPY HELPERS
// =============================================================================

func cloneSlice[T any](in []T) []T {
	return append(make([]T, 0, len(in)+1), in...)
}

func upsertFinancials(rows []staffing.Financials, row staffing.Financials) []staffing.Financials {
	out := cloneSlice(rows)
	for i := range out {
		if out[i].ResourceID == row.ResourceID {
			out[i] = row
			return out
		}
	}
	return append(out, row)
}

func updateProject(projects []staffing.Project, id generic.ProjectID, fn func(*staffing.Project)) []staffing.Project {
	out := cloneSlice(projects)
	for i := range out {
		if out[i].ID == id {
			fn(&out[i])
		}
	}
	return out
}

func milestoneIndex(ms []staffing.Milestone, id generic.MilestoneID) int {
	for i, m := range ms {
		if m.ID == id {
			return i
		}
	}
	return -1
}
