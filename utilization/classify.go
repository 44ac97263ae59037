package utilization

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERALLOCATION CLASSIFIER
// =============================================================================

type Status string

const (
	StatusEmpty Status = "EMPTY"
	StatusUnder Status = "UNDER"
	StatusAtCap Status = "AT_CAP"
	StatusOver  Status = "OVER"
)

// Classify maps a utilization percent and a cap to a Status.
//
// Exactly 0 is EMPTY. Otherwise the percent is rounded to the nearest whole
// number, half up, and compared with cap. Day values are integers, so the
// rounding does not change them.
func Classify(percent decimal.Decimal, cap int) Status {
	if percent.IsZero() {
		return StatusEmpty
	}
	rounded := percent.Round(0)
	c := decimal.NewFromInt(int64(cap))
	switch {
	case rounded.Equal(c):
		return StatusAtCap
	case rounded.GreaterThan(c):
		return StatusOver
	default:
		return StatusUnder
	}
}
