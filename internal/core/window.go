package core

import "time"

// Window is a half-open time range [Start, End). A zero End means unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window. The start boundary is
// inclusive, the end boundary exclusive.
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

// IsZero reports whether the window is unbounded on both sides.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// MonthWindow returns the calendar month containing now, evaluated in loc:
// [first of month 00:00, first of next month 00:00).
//
// The same location must be used when recording expenses, otherwise records
// near midnight silently fall outside the window they were entered in.
func MonthWindow(now time.Time, loc *time.Location) Window {
	now = now.In(loc)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	return Window{Start: start, End: start.AddDate(0, 1, 0)}
}
