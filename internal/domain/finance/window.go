package finance

import (
	"time"

	"github.com/erp/fincore/internal/domain/shared"
)

// DateWindow is an inclusive, day-granular UTC date range. A zero bound is
// open on that side.
type DateWindow struct {
	From time.Time
	To   time.Time
}

// NewDateWindow normalises from to the start of its day and to to the last
// instant of its day, both in UTC.
func NewDateWindow(from, to time.Time) (DateWindow, error) {
	w := DateWindow{}
	if !from.IsZero() {
		w.From = StartOfDay(from)
	}
	if !to.IsZero() {
		w.To = EndOfDay(to)
	}
	if w.IsBounded() && w.From.After(w.To) {
		return DateWindow{}, shared.ErrInvalidInput.WithMessage("Window start must not be after its end")
	}
	return w, nil
}

// TrailingDays returns the window of the last n days ending on now's day
func TrailingDays(now time.Time, n int) DateWindow {
	if n < 1 {
		n = 1
	}
	end := EndOfDay(now)
	return DateWindow{
		From: StartOfDay(now).AddDate(0, 0, -(n - 1)),
		To:   end,
	}
}

// IsZero reports whether both bounds are open
func (w DateWindow) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// IsBounded reports whether both bounds are set
func (w DateWindow) IsBounded() bool {
	return !w.From.IsZero() && !w.To.IsZero()
}

// Contains reports whether t falls inside the window
func (w DateWindow) Contains(t time.Time) bool {
	t = t.UTC()
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// StartOfDay truncates t to midnight UTC
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last representable instant of t's UTC day
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
