package date

import "time"

// Range is a closed interval of days.
type Range struct{ From, To Date }

// NewRange returns the period containing d.
func NewRange(d Date, period Period) Range {
	return Range{From: d.StartOf(period), To: d.EndOf(period)}
}

// Year returns the calendar year, the tax year of every residency.
func Year(year int) Range {
	return NewRange(New(year, time.January, 1), Yearly)
}

// Contains reports whether d is in the range, boundaries included.
func (r Range) Contains(d Date) bool { return !d.Before(r.From) && !d.After(r.To) }

// Days returns the number of days covered by the range, boundaries included.
func (r Range) Days() int { return r.To.DaysSince(r.From) + 1 }

func (r Range) String() string { return r.From.String() + ".." + r.To.String() }
