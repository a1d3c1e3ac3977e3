package analytics

import "time"

const dateKeyLayout = "2006-01-02"

func location(loc *time.Location) *time.Location {
	if loc == nil {
		return time.UTC
	}
	return loc
}

// DateKey is the calendar date of t in loc, formatted as YYYY-MM-DD.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(location(loc)).Format(dateKeyLayout)
}

// StartOfDay returns local midnight of t's calendar date in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(location(loc))
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
