package xtime

import (
	"time"
)

const (
	RangeUpcoming = "upcoming"
	RangePast     = "past"
	RangeWeek     = "week"
	RangeMonth    = "month"
	RangeAll      = "all"
)

type Range struct {
	Name  string
	Value string
}

var ranges = []Range{
	{Name: "Upcoming", Value: RangeUpcoming},
	{Name: "This week", Value: RangeWeek},
	{Name: "This month", Value: RangeMonth},
	{Name: "Past", Value: RangePast},
	{Name: "All", Value: RangeAll},
}

func GetRanges() []Range {
	return ranges
}

// GetRange returns the bounds for a range value. A zero bound means unbounded.
// Unknown values fall back to the upcoming range.
func GetRange(value string, now time.Time) (time.Time, time.Time) {
	now = now.In(Location)
	switch value {
	case RangeAll:
		return time.Time{}, time.Time{}
	case RangePast:
		return time.Time{}, now
	case RangeWeek:
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, Location)
		offset := (int(day.Weekday()) + 6) % 7 // weeks start on monday
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7).Add(-time.Second)
	case RangeMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, Location)
		return start, start.AddDate(0, 1, 0).Add(-time.Second)
	default:
		return now, time.Time{}
	}
}

func InRange(t time.Time, start time.Time, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && t.After(end) {
		return false
	}
	return true
}
