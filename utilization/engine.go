/*
Package utilization derives utilization figures and overallocation classes
from a WorkingSet.

PURPOSE:
  This is the only place a utilization figure is computed. The summary view,
  the editable grid, and the simulation all call Engine.Utilization against
  a snapshot, so every surface shows exactly the same number for the same
  inputs. Nothing is cached between calls.

GRANULARITY:
  Day:        raw sum of the start date's percentages across the target's
              assignments. Uncapped; holidays do not zero the numerator.

  Week/Month: consumed / available * 100 over the window, where
                consumed  = sum over working days, over assignments, of pct/100
                available = working days - approved leave days lost
              A non-positive available figure yields 0.

WINDOW CLIPPING:
  The window is clipped to the resource's [hire date, last working date].
  A malformed or fully clipped window yields 0.

TARGETS:
  ForResource(id):   every assignment the resource holds
  ForAssignment(id): exactly one assignment (its resource supplies location,
                     leave and cap)

SEE ALSO:
  - classify.go: maps a percentage plus cap to a Status
  - calendar: working-day decisions
  - leave: DaysLost
*/
package utilization

import (
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-planner/allocation"
	"github.com/warp/staffing-planner/calendar"
	"github.com/warp/staffing-planner/generic"
	"github.com/warp/staffing-planner/leave"
	"github.com/warp/staffing-planner/staffing"
)

// =============================================================================
// INPUTS
// =============================================================================

type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
)

func (g Granularity) Valid() bool {
	return g == Day || g == Week || g == Month
}

func (g Granularity) bucket() generic.BucketSize {
	switch g {
	case Week:
		return generic.BucketWeek
	case Month:
		return generic.BucketMonth
	default:
		return generic.BucketDay
	}
}

// Target selects the assignment set to sum.
type Target struct {
	ResourceID   generic.ResourceID   `json:"resource_id,omitempty"`
	AssignmentID generic.AssignmentID `json:"assignment_id,omitempty"`
}

func ForResource(id generic.ResourceID) Target     { return Target{ResourceID: id} }
func ForAssignment(id generic.AssignmentID) Target { return Target{AssignmentID: id} }

// =============================================================================
// ENGINE
// =============================================================================

// Engine reads one WorkingSet. Build a new Engine for every snapshot; an
// Engine never observes later writes.
type Engine struct {
	set      *staffing.WorkingSet
	cal      *calendar.Calendar
	catalog  leave.Catalog
	byHolder map[generic.ResourceID][]generic.AssignmentID
}

func NewEngine(set *staffing.WorkingSet) *Engine {
	e := &Engine{
		set:      set,
		cal:      calendar.New(set.Calendar),
		catalog:  leave.NewCatalog(set.LeaveTypes),
		byHolder: make(map[generic.ResourceID][]generic.AssignmentID),
	}
	for _, a := range set.Assignments {
		e.byHolder[a.ResourceID] = append(e.byHolder[a.ResourceID], a.ID)
	}
	return e
}

// Calendar exposes the engine's calendar index.
func (e *Engine) Calendar() *calendar.Calendar { return e.cal }

// resolve returns the resource whose context applies and the assignment set
// to sum. ok=false with a nil error means the target has nothing to sum.
func (e *Engine) resolve(t Target) (staffing.Resource, []generic.AssignmentID, bool, error) {
	if t.AssignmentID != "" {
		a, ok := e.set.Assignment(t.AssignmentID)
		if !ok {
			// Deleted assignments aggregate to 0, not to an error.
			return staffing.Resource{}, nil, false, nil
		}
		r, ok := e.set.Resource(a.ResourceID)
		if !ok {
			return staffing.Resource{}, nil, false, generic.ErrResourceNotFound
		}
		return r, []generic.AssignmentID{a.ID}, true, nil
	}
	r, ok := e.set.Resource(t.ResourceID)
	if !ok {
		return staffing.Resource{}, nil, false, generic.ErrResourceNotFound
	}
	return r, e.byHolder[r.ID], true, nil
}

// Utilization returns the target's utilization percent for the window.
func (e *Engine) Utilization(t Target, start, end generic.Date, g Granularity) (decimal.Decimal, error) {
	r, ids, ok, err := e.resolve(t)
	if err != nil || !ok {
		return decimal.Zero, err
	}
	if generic.NewPeriod(start, end).IsEmpty() {
		return decimal.Zero, nil
	}
	if g == Day {
		return e.daySum(r, ids, start), nil
	}
	return e.aggregate(r, ids, generic.NewPeriod(start, end)), nil
}

// Cap returns the cap of the resource behind t, 0 when it cannot be
// resolved.
func (e *Engine) Cap(t Target) int {
	r, _, ok, err := e.resolve(t)
	if err != nil || !ok {
		return 0
	}
	return r.Cap()
}

func (e *Engine) daySum(r staffing.Resource, ids []generic.AssignmentID, d generic.Date) decimal.Decimal {
	if !r.ActiveOn(d) {
		return decimal.Zero
	}
	sum := 0
	for _, id := range ids {
		sum += e.set.Allocations.Get(id, d)
	}
	return decimal.NewFromInt(int64(sum))
}

func (e *Engine) aggregate(r staffing.Resource, ids []generic.AssignmentID, window generic.Period) decimal.Decimal {
	window = r.ActiveWindow(window)
	if window.IsEmpty() {
		return decimal.Zero
	}

	days := e.cal.WorkingDays(window, r.Location)
	lost := leave.DaysLost(e.set.LeaveRequests, e.catalog, e.cal, r.ID, r.Location, window)
	available := decimal.NewFromInt(int64(len(days))).Sub(lost)
	if !available.IsPositive() {
		return decimal.Zero
	}

	consumed := consumedDays(e.set.Allocations, ids, days)
	return consumed.Div(available).Mul(generic.Hundred())
}

// consumedDays sums pct/100 over the given days and assignments.
func consumedDays(a allocation.Reader, ids []generic.AssignmentID, days []generic.Date) decimal.Decimal {
	total := 0
	for _, d := range days {
		for _, id := range ids {
			total += a.Get(id, d)
		}
	}
	return generic.Fraction(total)
}

// IsNonWorkingDay reports whether d is a weekend or a holiday at the
// resource's location. Unknown resources only see weekends.
func (e *Engine) IsNonWorkingDay(id generic.ResourceID, d generic.Date) bool {
	r, _ := e.set.Resource(id)
	return e.cal.IsNonWorkingDay(d, r.Location)
}

// WorkingDays counts the resource's working days in the clipped window,
// before leave.
func (e *Engine) WorkingDays(id generic.ResourceID, start, end generic.Date) int {
	r, ok := e.set.Resource(id)
	if !ok {
		return 0
	}
	w := r.ActiveWindow(generic.NewPeriod(start, end))
	return e.cal.WorkingDaysBetween(w.Start, w.End, r.Location)
}

// =============================================================================
// SERIES - Per-bucket values for grids and summaries
// =============================================================================

type Point struct {
	Period  generic.Period  `json:"period"`
	Percent decimal.Decimal `json:"percent"`
	Status  Status          `json:"status"`
	// NonWorking is only set for day buckets.
	NonWorking bool `json:"non_working,omitempty"`
}

// Series splits [start, end] into day, ISO-week or calendar-month buckets
// and computes each one with Utilization.
func (e *Engine) Series(t Target, start, end generic.Date, g Granularity) ([]Point, error) {
	r, _, ok, err := e.resolve(t)
	if err != nil {
		return nil, err
	}

	buckets := generic.NewPeriod(start, end).Buckets(g.bucket())
	points := make([]Point, 0, len(buckets))
	for _, b := range buckets {
		pct, err := e.Utilization(t, b.Start, b.End, g)
		if err != nil {
			return nil, err
		}
		p := Point{Period: b, Percent: pct, Status: Classify(pct, r.Cap())}
		if g == Day && ok {
			p.NonWorking = e.IsNonWorkingDay(r.ID, b.Start)
		}
		points = append(points, p)
	}
	return points, nil
}

// Row is one resource's series.
type Row struct {
	ResourceID generic.ResourceID `json:"resource_id"`
	Cap        int                `json:"cap"`
	Points     []Point            `json:"points"`
}

// Grid computes a series for every resource, in WorkingSet order.
func (e *Engine) Grid(start, end generic.Date, g Granularity) []Row {
	rows := make([]Row, 0, len(e.set.Resources))
	for _, r := range e.set.Resources {
		points, err := e.Series(ForResource(r.ID), start, end, g)
		if err != nil {
			continue
		}
		rows = append(rows, Row{ResourceID: r.ID, Cap: r.Cap(), Points: points})
	}
	return rows
}
