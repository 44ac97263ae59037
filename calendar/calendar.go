/*
Package calendar decides which days are working days for a location.

PURPOSE:
  A day is a working day unless it is a weekend or a holiday that applies
  to the resource's location. This is the only place in the planner that
  answers that question; the aggregation engine, the single-cell editor and
  the simulation all ask the same Calendar.

SCOPES:
  company: applies to every resource, whatever its location
  local:   applies only to resources whose location equals Entry.Location

RECURRING ENTRIES:
  An entry with Recurring=true matches the same month/day every year
  (e.g. Christmas Day entered once).

USAGE:
  cal := calendar.New(entries)
  cal.IsNonWorkingDay(day, "Lisbon")
  cal.WorkingDaysBetween(start, end, "Lisbon")

  // Without building an index:
  calendar.IsNonWorkingDay(day, "Lisbon", entries)

SEE ALSO:
  - utilization/engine.go: uses WorkingDays for the denominator
  - allocation/bulk.go: deliberately does NOT consult the calendar
*/
package calendar

import (
	"github.com/warp/staffing-planner/generic"
)

// =============================================================================
// CALENDAR ENTRY
// =============================================================================

type Scope string

const (
	ScopeCompany Scope = "company"
	ScopeLocal   Scope = "local"
)

// Entry is a holiday declared in the company calendar.
type Entry struct {
	ID        string       `json:"id"`
	Date      generic.Date `json:"date"`
	Name      string       `json:"name"`
	Scope     Scope        `json:"scope"`
	Location  string       `json:"location,omitempty"` // only meaningful for ScopeLocal
	Recurring bool         `json:"recurring,omitempty"`
}

// AppliesTo reports whether the entry removes a working day for resources
// at location.
func (e Entry) AppliesTo(location string) bool {
	switch e.Scope {
	case ScopeLocal:
		return e.Location != "" && e.Location == location
	default:
		// Unknown scopes are treated as company-wide.
		return true
	}
}

// On reports whether the entry falls on d.
func (e Entry) On(d generic.Date) bool {
	if e.Recurring {
		return e.Date.SameDayOfYear(d)
	}
	return e.Date == d
}

// =============================================================================
// CALENDAR - Indexed, read-only view over entries
// =============================================================================

type monthDay struct {
	month int
	day   int
}

// Calendar indexes entries by date. A nil *Calendar is valid and only
// knows about weekends.
type Calendar struct {
	entries   []Entry
	byDate    map[generic.Date][]Entry
	recurring map[monthDay][]Entry
}

// New builds a calendar. The entries slice is copied.
func New(entries []Entry) *Calendar {
	c := &Calendar{
		entries:   append([]Entry(nil), entries...),
		byDate:    make(map[generic.Date][]Entry),
		recurring: make(map[monthDay][]Entry),
	}
	for _, e := range c.entries {
		if e.Recurring {
			k := monthDay{month: int(e.Date.Month()), day: e.Date.Day()}
			c.recurring[k] = append(c.recurring[k], e)
			continue
		}
		c.byDate[e.Date] = append(c.byDate[e.Date], e)
	}
	return c
}

// Entries returns a copy of the entries the calendar was built from.
func (c *Calendar) Entries() []Entry {
	if c == nil {
		return nil
	}
	return append([]Entry(nil), c.entries...)
}

// HolidaysOn returns every entry on d that applies to location.
func (c *Calendar) HolidaysOn(d generic.Date, location string) []Entry {
	if c == nil {
		return nil
	}
	var out []Entry
	for _, e := range c.byDate[d] {
		if e.AppliesTo(location) {
			out = append(out, e)
		}
	}
	for _, e := range c.recurring[monthDay{month: int(d.Month()), day: d.Day()}] {
		if e.AppliesTo(location) {
			out = append(out, e)
		}
	}
	return out
}

// IsHoliday reports whether a holiday applicable to location falls on d.
func (c *Calendar) IsHoliday(d generic.Date, location string) bool {
	return len(c.HolidaysOn(d, location)) > 0
}

// IsNonWorkingDay is true on weekends and on applicable holidays.
func (c *Calendar) IsNonWorkingDay(d generic.Date, location string) bool {
	if d.IsWeekend() {
		return true
	}
	return c.IsHoliday(d, location)
}

// IsWorkingDay is the negation of IsNonWorkingDay.
func (c *Calendar) IsWorkingDay(d generic.Date, location string) bool {
	return !c.IsNonWorkingDay(d, location)
}

// WorkingDays lists the working days of the inclusive window. An empty
// window (start after end) yields nil.
func (c *Calendar) WorkingDays(p generic.Period, location string) []generic.Date {
	var days []generic.Date
	p.Each(func(d generic.Date) {
		if !c.IsNonWorkingDay(d, location) {
			days = append(days, d)
		}
	})
	return days
}

// WorkingDaysBetween counts working days in [start, end]. start > end yields 0.
func (c *Calendar) WorkingDaysBetween(start, end generic.Date, location string) int {
	count := 0
	generic.NewPeriod(start, end).Each(func(d generic.Date) {
		if !c.IsNonWorkingDay(d, location) {
			count++
		}
	})
	return count
}

// =============================================================================
// CONVENIENCE FUNCTIONS - One-shot checks over a raw entry list
// =============================================================================

// IsNonWorkingDay is true if date is a Saturday/Sunday or an entry on that
// date is company-wide or local to location.
func IsNonWorkingDay(date generic.Date, location string, entries []Entry) bool {
	if date.IsWeekend() {
		return true
	}
	for _, e := range entries {
		if e.On(date) && e.AppliesTo(location) {
			return true
		}
	}
	return false
}

// WorkingDaysBetween counts the dates in [start, end] for which
// IsNonWorkingDay is false.
func WorkingDaysBetween(start, end generic.Date, entries []Entry, location string) int {
	return New(entries).WorkingDaysBetween(start, end, location)
}
