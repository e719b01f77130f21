// Package window normalizes "hours before now" ranges into half-open time
// intervals. Every windowed query in the module goes through Normalize and
// Bounds so the swap and equal-bounds rules are applied in one place.
package window

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Window is a normalized pair of hour offsets from now. Older is always
// greater than or equal to Newer.
type Window struct {
	Older float64
	Newer float64
}

// Last returns the window covering the last n hours.
func Last(hours float64) Window {
	return Normalize(hours, 0)
}

// Between returns the window between two hour offsets, in either order.
func Between(a, b float64) Window {
	return Normalize(a, b)
}

// Normalize applies the window rules: negative or NaN offsets clamp to 0,
// reversed bounds are swapped, and equal bounds mean "since newer=0".
func Normalize(older, newer float64) Window {
	older = clamp(older)
	newer = clamp(newer)
	if older < newer {
		older, newer = newer, older
	}
	if older == newer {
		newer = 0
	}
	return Window{Older: older, Newer: newer}
}

func clamp(h float64) float64 {
	if math.IsNaN(h) || h < 0 {
		return 0
	}
	if math.IsInf(h, 1) {
		return math.MaxFloat64 / float64(time.Hour)
	}
	return h
}

// Bounds returns the half-open interval [start, end) relative to now.
func (w Window) Bounds(now time.Time) (start, end time.Time) {
	w = Normalize(w.Older, w.Newer)
	return now.Add(-hours(w.Older)), now.Add(-hours(w.Newer))
}

// Contains reports whether t falls inside the window relative to now.
func (w Window) Contains(now, t time.Time) bool {
	start, end := w.Bounds(now)
	return !t.Before(start) && t.Before(end)
}

// Length returns the span of the window in hours.
func (w Window) Length() float64 {
	w = Normalize(w.Older, w.Newer)
	return w.Older - w.Newer
}

// String renders the window as "24h->0h".
func (w Window) String() string {
	return fmt.Sprintf("%sh->%sh", formatHours(w.Older), formatHours(w.Newer))
}

func formatHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func hours(h float64) time.Duration {
	d := h * float64(time.Hour)
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}
