// Package leave models leave requests and how much available capacity they
// remove from a utilization window.
package leave

import (
	"github.com/shopspring/decimal"

	"github.com/warp/staffing-planner/calendar"
	"github.com/warp/staffing-planner/generic"
)

// =============================================================================
// LEAVE TYPE
// =============================================================================

type Kind string

const (
	KindFullDay Kind = "full_day"
	KindHalfDay Kind = "half_day"
	KindHours   Kind = "hours"
)

// HoursPerDay normalizes hourly leave to days.
const HoursPerDay = 8

// Type is an entry in the leave-type catalog.
type Type struct {
	ID    generic.LeaveTypeID `json:"id"`
	Name  string              `json:"name"`
	Kind  Kind                `json:"kind"`
	Hours decimal.Decimal     `json:"hours"` // per day, only for KindHours
}

// DayFraction is the share of one working day consumed on each day the
// leave covers. Unknown kinds consume a full day.
func (t Type) DayFraction() decimal.Decimal {
	switch t.Kind {
	case KindHalfDay:
		return decimal.New(5, -1)
	case KindHours:
		perDay := decimal.NewFromInt(HoursPerDay)
		if !t.Hours.IsPositive() {
			return decimal.NewFromInt(1)
		}
		frac := t.Hours.Div(perDay)
		if frac.GreaterThan(decimal.NewFromInt(1)) {
			return decimal.NewFromInt(1)
		}
		return frac
	default:
		return decimal.NewFromInt(1)
	}
}

// =============================================================================
// LEAVE REQUEST
// =============================================================================

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Request struct {
	ID         generic.LeaveRequestID `json:"id"`
	ResourceID generic.ResourceID     `json:"resource_id"`
	TypeID     generic.LeaveTypeID    `json:"type_id"`
	Start      generic.Date           `json:"start"`
	End        generic.Date           `json:"end"`
	Status     Status                 `json:"status"`
}

func (r Request) Period() generic.Period { return generic.NewPeriod(r.Start, r.End) }

// Counts reports whether the request affects availability.
func (r Request) Counts() bool { return r.Status == StatusApproved }

// =============================================================================
// DAYS LOST
// =============================================================================

// Catalog resolves leave types by id.
type Catalog map[generic.LeaveTypeID]Type

func NewCatalog(types []Type) Catalog {
	c := make(Catalog, len(types))
	for _, t := range types {
		c[t.ID] = t
	}
	return c
}

// DaysLost sums, over every approved request of the resource that overlaps
// window, the type's day fraction for each overlapping working day. Requests
// whose type is missing from the catalog count as full-day leave.
func DaysLost(
	requests []Request,
	types Catalog,
	cal *calendar.Calendar,
	resource generic.ResourceID,
	location string,
	window generic.Period,
) decimal.Decimal {
	total := decimal.Zero
	if window.IsEmpty() {
		return total
	}
	for _, r := range requests {
		if r.ResourceID != resource || !r.Counts() {
			continue
		}
		overlap := r.Period().Intersect(window)
		if overlap.IsEmpty() {
			continue
		}
		days := cal.WorkingDaysBetween(overlap.Start, overlap.End, location)
		if days == 0 {
			continue
		}
		frac := decimal.NewFromInt(1)
		if t, ok := types[r.TypeID]; ok {
			frac = t.DayFraction()
		}
		total = total.Add(frac.Mul(decimal.NewFromInt(int64(days))))
	}
	return total
}
