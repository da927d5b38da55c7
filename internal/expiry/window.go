package expiry

import (
	"fmt"
	"time"
)

// Window is the inclusive expiry range a pass looks at.
type Window struct {
	Start time.Time
	End   time.Time
}

// ComputeWindow returns [today 00:00:00, tomorrow 23:59:59] in loc.
// Only the local calendar date of now is used, so the lookahead shrinks from
// almost 48h at midnight to almost 24h just before the next one. Tomorrow is
// the next calendar date, which is not always 24h away on DST transitions.
func ComputeWindow(now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := now.In(loc).Date()

	return Window{
		Start: time.Date(y, m, d, 0, 0, 0, 0, loc),
		End:   time.Date(y, m, d+1, 23, 59, 59, 0, loc),
	}
}

// Contains reports whether t falls inside the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format(time.DateTime), w.End.Format(time.DateTime))
}
