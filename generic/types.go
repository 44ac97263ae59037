/*
Package generic provides the shared kernel of the staffing planner.

PURPOSE:
  This package contains the domain-agnostic building blocks used by every
  other package: civil dates, inclusive date windows, typed identifiers,
  decimal helpers and the centralized error catalogue. It has no knowledge
  of calendars, allocations or scenarios.

KEY CONCEPTS IN THIS FILE (types.go):
  - Typed IDs: ResourceID, ProjectID, AssignmentID, ... prevent mixing ids
  - Percent helpers: conversions between integer percentages and decimals
  - Money helpers: decimal constructors used by the financial roll-up

DESIGN PRINCIPLES:
  1. Precision: all derived figures use decimal.Decimal, never float64
  2. Type Safety: strong typing for IDs prevents passing a project id
     where an assignment id is expected
  3. Values: every type here is a plain value, safe to copy and compare

SEE ALSO:
  - date.go: Date and Month
  - period.go: inclusive windows and bucketing
  - errors.go: sentinel and structured errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ResourceID string
type ProjectID string
type AssignmentID string
type RoleID string
type RateCardID string
type ClientID string
type LeaveTypeID string
type LeaveRequestID string
type ExpenseID string
type MilestoneID string
type ScenarioID string

// =============================================================================
// PERCENT - Integer commitment of daily capacity
// =============================================================================

const (
	MinPercent = 0
	MaxPercent = 100

	// DefaultCapPercent is used when a resource has no explicit cap.
	DefaultCapPercent = 100
)

var hundred = decimal.NewFromInt(100)

// ValidPercent reports whether p is an acceptable allocation percentage.
func ValidPercent(p int) bool { return p >= MinPercent && p <= MaxPercent }

// Fraction converts an integer percentage to a fraction of one day (60 -> 0.6).
func Fraction(p int) decimal.Decimal {
	return decimal.NewFromInt(int64(p)).Div(hundred)
}

// Hundred returns the decimal constant 100.
func Hundred() decimal.Decimal { return hundred }

// =============================================================================
// MONEY
// =============================================================================

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func Money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// DecimalPtr returns a pointer to a copy of d. Used for optional overrides.
func DecimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
