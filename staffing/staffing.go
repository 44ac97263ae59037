/*
Package staffing defines the records the planner reasons about.

PURPOSE:
  Resources, projects, the assignments binding them, and the cost tables
  (roles, rate cards, per-resource financials, expenses, milestones) used by
  the financial roll-up. A WorkingSet bundles all of them together with the
  allocation map, the holiday calendar and leave data. It is the shape of
  both the live snapshot and a simulation scenario's private copy, so the
  same aggregation code runs against either.

KEY CONCEPTS:
  Resource:    a person (or a scenario-only ghost) with a location and a cap
  Project:     billed time-and-material or fixed-price
  Assignment:  binds one resource to one project; unique per pair
  WorkingSet:  point-in-time copy of every collection

SEE ALSO:
  - allocation: the per-assignment date -> percent map
  - utilization: aggregation over a WorkingSet
  - simulation: transitions over a WorkingSet
*/
package staffing

import (
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/calendar"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/leave"
)

// =============================================================================
// RESOURCE
// =============================================================================

type Resource struct {
	ID              generic.ResourceID `json:"id"`
	Name            string             `json:"name"`
	Location        string             `json:"location,omitempty"`
	CapPercent      int                `json:"cap_percent,omitempty"` // 0 means DefaultCapPercent
	HireDate        generic.Date       `json:"hire_date"`
	LastWorkingDate *generic.Date      `json:"last_working_date,omitempty"`
	RoleID          generic.RoleID     `json:"role_id,omitempty"`
	Ghost           bool               `json:"ghost,omitempty"`
}

// Cap returns the capacity cap, defaulting to 100.
func (r Resource) Cap() int {
	if r.CapPercent <= 0 {
		return generic.DefaultCapPercent
	}
	return r.CapPercent
}

// ActiveWindow clips p to [HireDate, LastWorkingDate]. Unset bounds do not
// clip. The result may be empty.
func (r Resource) ActiveWindow(p generic.Period) generic.Period {
	if !r.HireDate.IsZero() {
		p = p.ClipStart(r.HireDate)
	}
	if r.LastWorkingDate != nil {
		p = p.ClipEnd(*r.LastWorkingDate)
	}
	return p
}

// ActiveOn reports whether d falls inside the resource's employment.
func (r Resource) ActiveOn(d generic.Date) bool {
	return !r.ActiveWindow(generic.NewPeriod(d, d)).IsEmpty()
}

// =============================================================================
// PROJECT / ASSIGNMENT
// =============================================================================

type BillingType string

const (
	BillingTimeAndMaterial BillingType = "time_and_material"
	BillingFixedPrice      BillingType = "fixed_price"
)

func (b BillingType) Valid() bool {
	return b == BillingTimeAndMaterial || b == BillingFixedPrice
}

type Project struct {
	ID          generic.ProjectID  `json:"id"`
	Name        string             `json:"name"`
	ClientID    generic.ClientID   `json:"client_id,omitempty"`
	BillingType BillingType        `json:"billing_type"`
	RateCardID  generic.RateCardID `json:"rate_card_id,omitempty"`
}

type Assignment struct {
	ID         generic.AssignmentID `json:"id"`
	ResourceID generic.ResourceID   `json:"resource_id"`
	ProjectID  generic.ProjectID    `json:"project_id"`
}

// =============================================================================
// COST TABLES
// =============================================================================

// Role carries the defaults used when a resource has no financial row.
type Role struct {
	ID                   generic.RoleID  `json:"id"`
	Name                 string          `json:"name"`
	DefaultDailyCost     decimal.Decimal `json:"default_daily_cost"`
	DefaultDailyExpenses decimal.Decimal `json:"default_daily_expenses"`
}

type RateCardEntry struct {
	ResourceID generic.ResourceID `json:"resource_id"`
	SellRate   decimal.Decimal    `json:"sell_rate"`
}

type RateCard struct {
	ID      generic.RateCardID `json:"id"`
	Name    string             `json:"name"`
	Entries []RateCardEntry    `json:"entries"`
}

// SellRate returns the card's daily rate for the resource.
func (c RateCard) SellRate(id generic.ResourceID) (decimal.Decimal, bool) {
	for _, e := range c.Entries {
		if e.ResourceID == id {
			return e.SellRate, true
		}
	}
	return decimal.Zero, false
}

// Financials is a per-resource cost row. SellRate nil means "use the
// project's rate card".
type Financials struct {
	ResourceID    generic.ResourceID `json:"resource_id"`
	DailyCost     decimal.Decimal    `json:"daily_cost"`
	DailyExpenses decimal.Decimal    `json:"daily_expenses"`
	SellRate      *decimal.Decimal   `json:"sell_rate,omitempty"`
}

// FinancialsFromRole seeds a row from role defaults. SellRate stays nil so
// resolution falls through to the project's rate card.
func FinancialsFromRole(id generic.ResourceID, role Role) Financials {
	return Financials{
		ResourceID:    id,
		DailyCost:     role.DefaultDailyCost,
		DailyExpenses: role.DefaultDailyExpenses,
	}
}

type Expense struct {
	ID          generic.ExpenseID `json:"id"`
	ProjectID   generic.ProjectID `json:"project_id"`
	Date        generic.Date      `json:"date"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description,omitempty"`
}

type Milestone struct {
	ID        generic.MilestoneID `json:"id"`
	ProjectID generic.ProjectID   `json:"project_id"`
	Date      generic.Date        `json:"date"`
	Amount    decimal.Decimal     `json:"amount"`
	Name      string              `json:"name,omitempty"`
}

// =============================================================================
// WORKING SET
// =============================================================================

type WorkingSet struct {
	Resources     []Resource             `json:"resources"`
	Projects      []Project              `json:"projects"`
	Assignments   []Assignment           `json:"assignments"`
	Allocations   allocation.Allocations `json:"allocations"`
	Financials    []Financials           `json:"financials"`
	Expenses      []Expense              `json:"expenses"`
	Milestones    []Milestone            `json:"milestones"`
	Roles         []Role                 `json:"roles"`
	RateCards     []RateCard             `json:"rate_cards"`
	Calendar      []calendar.Entry       `json:"calendar"`
	LeaveRequests []leave.Request        `json:"leave_requests"`
	LeaveTypes    []leave.Type           `json:"leave_types"`
}

func (w *WorkingSet) Resource(id generic.ResourceID) (Resource, bool) {
	for _, r := range w.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return Resource{}, false
}

func (w *WorkingSet) Project(id generic.ProjectID) (Project, bool) {
	for _, p := range w.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

func (w *WorkingSet) Assignment(id generic.AssignmentID) (Assignment, bool) {
	for _, a := range w.Assignments {
		if a.ID == id {
			return a, true
		}
	}
	return Assignment{}, false
}

// FindAssignment returns the assignment for the (resource, project) pair.
func (w *WorkingSet) FindAssignment(resource generic.ResourceID, project generic.ProjectID) (Assignment, bool) {
	for _, a := range w.Assignments {
		if a.ResourceID == resource && a.ProjectID == project {
			return a, true
		}
	}
	return Assignment{}, false
}

// AssignmentsOf returns every assignment held by the resource.
func (w *WorkingSet) AssignmentsOf(resource generic.ResourceID) []Assignment {
	var out []Assignment
	for _, a := range w.Assignments {
		if a.ResourceID == resource {
			out = append(out, a)
		}
	}
	return out
}

func (w *WorkingSet) Role(id generic.RoleID) (Role, bool) {
	for _, r := range w.Roles {
		if r.ID == id {
			return r, true
		}
	}
	return Role{}, false
}

func (w *WorkingSet) RateCard(id generic.RateCardID) (RateCard, bool) {
	for _, c := range w.RateCards {
		if c.ID == id {
			return c, true
		}
	}
	return RateCard{}, false
}

// FinancialsFor returns the resource's row, falling back to its role's
// defaults. ok is false when neither exists.
func (w *WorkingSet) FinancialsFor(id generic.ResourceID) (Financials, bool) {
	for _, f := range w.Financials {
		if f.ResourceID == id {
			return f, true
		}
	}
	if r, ok := w.Resource(id); ok {
		if role, ok := w.Role(r.RoleID); ok {
			return FinancialsFromRole(id, role), true
		}
	}
	return Financials{ResourceID: id}, false
}

// Clone returns a copy whose slices do not alias w's. The allocation map is
// shared; it is copy-on-write.
func (w WorkingSet) Clone() WorkingSet {
	return WorkingSet{
		Resources:     append([]Resource(nil), w.Resources...),
		Projects:      append([]Project(nil), w.Projects...),
		Assignments:   append([]Assignment(nil), w.Assignments...),
		Allocations:   w.Allocations,
		Financials:    append([]Financials(nil), w.Financials...),
		Expenses:      append([]Expense(nil), w.Expenses...),
		Milestones:    append([]Milestone(nil), w.Milestones...),
		Roles:         append([]Role(nil), w.Roles...),
		RateCards:     append([]RateCard(nil), w.RateCards...),
		Calendar:      append([]calendar.Entry(nil), w.Calendar...),
		LeaveRequests: append([]leave.Request(nil), w.LeaveRequests...),
		LeaveTypes:    append([]leave.Type(nil), w.LeaveTypes...),
	}
}
