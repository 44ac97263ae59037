package generic

// =============================================================================
// PERIOD - Inclusive date window, the unit of every aggregation
// =============================================================================

// Period is the inclusive window [Start, End].
//
// A period whose Start is after its End is EMPTY. Empty periods are not an
// error anywhere in the planner: aggregation over them yields 0 and bulk
// edits over them write nothing.
type Period struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

func NewPeriod(start, end Date) Period { return Period{Start: start, End: end} }

// IsEmpty returns true if the window contains no day.
func (p Period) IsEmpty() bool { return p.Start.After(p.End) }

// Contains returns true if the date is within the period [Start, End]
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Len returns the number of calendar days in the period (0 when empty).
func (p Period) Len() int {
	if p.IsEmpty() {
		return 0
	}
	return DaysBetween(p.Start, p.End) + 1
}

// Days returns all days in the period.
func (p Period) Days() []Date {
	days := make([]Date, 0, p.Len())
	for d := p.Start; d.BeforeOrEqual(p.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// Each calls fn for every day in the period, in order.
func (p Period) Each(fn func(Date)) {
	for d := p.Start; d.BeforeOrEqual(p.End); d = d.AddDays(1) {
		fn(d)
	}
}

// Intersect returns the overlap of two periods (possibly empty).
func (p Period) Intersect(o Period) Period {
	return Period{Start: MaxDate(p.Start, o.Start), End: MinDate(p.End, o.End)}
}

// Overlaps returns true if the two periods share at least one day.
func (p Period) Overlaps(o Period) bool { return !p.Intersect(o).IsEmpty() }

// ClipEnd truncates the period at limit when limit precedes End.
func (p Period) ClipEnd(limit Date) Period {
	if limit.Before(p.End) {
		p.End = limit
	}
	return p
}

// ClipStart moves Start forward to limit when limit follows Start.
func (p Period) ClipStart(limit Date) Period {
	if limit.After(p.Start) {
		p.Start = limit
	}
	return p
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// BUCKETING - Splits a window into day / week / month slices
// =============================================================================

type BucketSize string

const (
	BucketDay   BucketSize = "day"
	BucketWeek  BucketSize = "week"
	BucketMonth BucketSize = "month"
)

// Buckets splits p into consecutive sub-periods. Weeks start on Monday and
// months on the 1st; the first and last bucket are clipped to p.
func (p Period) Buckets(size BucketSize) []Period {
	if p.IsEmpty() {
		return nil
	}

	var buckets []Period
	start := p.Start
	for start.BeforeOrEqual(p.End) {
		var end Date
		switch size {
		case BucketWeek:
			end = start.StartOfWeek().AddDays(6)
		case BucketMonth:
			end = start.YearMonth().Last()
		default:
			end = start
		}
		end = MinDate(end, p.End)
		buckets = append(buckets, Period{Start: start, End: end})
		start = end.AddDays(1)
	}
	return buckets
}
