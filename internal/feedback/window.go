package feedback

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidWeek is returned when a week string cannot be parsed.
var ErrInvalidWeek = errors.New("invalid week: use YYYY-MM-DD or RFC3339")

// Window is a 7-day reporting period starting at Start (midnight UTC).
type Window struct {
	Start time.Time `json:"start"`
}

// WeekOf returns the Monday-based window containing t.
func WeekOf(t time.Time) Window {
	t = t.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return Window{Start: d.AddDate(0, 0, -offset)}
}

// NewWindow returns the window starting on the calendar day of start. Unlike
// WeekOf it does not snap to Monday, so callers may report on arbitrary
// seven-day periods.
func NewWindow(start time.Time) Window {
	start = start.UTC()
	return Window{Start: time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)}
}

// End returns the last day of the window (Start + 6 days).
func (w Window) End() time.Time {
	return w.Start.AddDate(0, 0, 6)
}

// Until returns the exclusive upper bound (Start + 7 days).
func (w Window) Until() time.Time {
	return w.Start.AddDate(0, 0, 7)
}

// Contains reports whether t falls on any of the window's seven days.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.Until())
}

// Shift moves the window by n weeks (negative n moves back in time).
func (w Window) Shift(n int) Window {
	return Window{Start: w.Start.AddDate(0, 0, 7*n)}
}

// Previous returns the window immediately before w.
func (w Window) Previous() Window {
	return w.Shift(-1)
}

// Key returns the date string used to identify the period, e.g. "2025-01-06".
func (w Window) Key() string {
	return w.Start.Format(time.DateOnly)
}

// Label renders the window as "Jan 06 - Jan 12, 2025".
func (w Window) Label() string {
	return fmt.Sprintf("%s - %s", w.Start.Format("Jan 02"), w.End().Format("Jan 02, 2006"))
}

func (w Window) String() string {
	return w.Key()
}

// ParseWeek parses a week start given as YYYY-MM-DD or RFC3339. An empty
// string selects the Monday-based week containing now.
func ParseWeek(s string, now time.Time) (Window, error) {
	if s == "" {
		return WeekOf(now), nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return NewWindow(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return NewWindow(t), nil
	}
	return Window{}, fmt.Errorf("%w: %q", ErrInvalidWeek, s)
}

// WeekBatch pairs a window with the annotated records that fall inside it.
// Multi-week operations take batches rather than querying a store so that
// callers control how much data is loaded.
type WeekBatch struct {
	Window  Window
	Records []Annotated
}
