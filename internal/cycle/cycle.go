// Package cycle maps instants onto fixed-length, contiguous question cycles.
//
// Cycle 1 starts at the epoch. Every function here is pure: the current time is
// always passed in by the caller.
package cycle

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidConfiguration = errors.New("invalid cycle configuration")
	ErrInvalidCycle         = errors.New("invalid cycle")
)

const day = 24 * time.Hour

// Type is the length of a cycle as exposed to clients.
type Type string

const (
	TypeDay  Type = "day"
	TypeWeek Type = "week"
)

// ParseType accepts "day" or "week" (case-insensitive). An empty string is week.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case "", TypeWeek:
		return TypeWeek, nil
	case TypeDay:
		return TypeDay, nil
	default:
		return "", fmt.Errorf("%w: unknown cycle type %q", ErrInvalidConfiguration, s)
	}
}

// DurationDays returns the number of days one cycle of this type spans.
func (t Type) DurationDays() int {
	switch t {
	case TypeDay:
		return 1
	case TypeWeek:
		return 7
	default:
		return 0
	}
}

// TTL is how long content for a cycle of this type may stay cached.
func (t Type) TTL() time.Duration {
	return time.Duration(t.DurationDays()) * day
}

// Window is the half-open interval [From, To) covered by one cycle.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether ts falls inside the window.
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.From) && ts.Before(w.To)
}

// Cycle is a numbered window. It is derived, never persisted.
type Cycle struct {
	Number int       `json:"number"`
	From   time.Time `json:"from"`
	To     time.Time `json:"to"`
	Type   Type      `json:"type,omitempty"`
}

// Current returns the cycle number that contains now.
// It counts whole elapsed days since epoch, so 23h59m after the epoch is still day 0.
func Current(epoch time.Time, durationDays int, now time.Time) (int, error) {
	if durationDays <= 0 {
		return 0, fmt.Errorf("%w: duration must be positive, got %d days", ErrInvalidConfiguration, durationDays)
	}
	if now.Before(epoch) {
		return 0, fmt.Errorf("%w: %s is before epoch %s", ErrInvalidCycle, now.UTC().Format(time.RFC3339), epoch.UTC().Format(time.RFC3339))
	}

	days := int(now.Sub(epoch) / day)
	return days/durationDays + 1, nil
}

// Bounds returns the window of the given cycle number.
func Bounds(epoch time.Time, number, durationDays int) (Window, error) {
	if durationDays <= 0 {
		return Window{}, fmt.Errorf("%w: duration must be positive, got %d days", ErrInvalidConfiguration, durationDays)
	}
	if number < 1 {
		return Window{}, fmt.Errorf("%w: cycle number must be >= 1, got %d", ErrInvalidCycle, number)
	}

	span := time.Duration(durationDays) * day
	from := epoch.Add(time.Duration(number-1) * span)
	return Window{From: from, To: from.Add(span)}, nil
}

// ForDate returns the cycle number for a reference date using calendar
// differences in UTC. TypeDay counts calendar days; TypeWeek counts seven-day
// blocks starting on the epoch's date, not weeks aligned to a weekday.
// The epoch's own date is cycle 1.
func ForDate(epoch, ref time.Time, t Type) (int, error) {
	if t.DurationDays() == 0 {
		return 0, fmt.Errorf("%w: unknown cycle type %q", ErrInvalidConfiguration, t)
	}

	days := calendarDays(epoch, ref)
	if days < 0 {
		return 0, fmt.Errorf("%w: %s is before epoch date %s", ErrInvalidCycle, ref.UTC().Format(time.DateOnly), epoch.UTC().Format(time.DateOnly))
	}

	return days/t.DurationDays() + 1, nil
}

// DateBounds returns the window ForDate numbers into: cycle number of type t,
// counted in whole UTC days from midnight of the epoch's date.
func DateBounds(epoch time.Time, number int, t Type) (Window, error) {
	if t.DurationDays() == 0 {
		return Window{}, fmt.Errorf("%w: unknown cycle type %q", ErrInvalidConfiguration, t)
	}
	return Bounds(truncateDate(epoch), number, t.DurationDays())
}

func calendarDays(from, to time.Time) int {
	a := truncateDate(from)
	b := truncateDate(to)
	return int(b.Sub(a) / day)
}

func truncateDate(ts time.Time) time.Time {
	u := ts.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Calculator binds an epoch and a duration so callers don't thread them around.
type Calculator struct {
	epoch        time.Time
	durationDays int
	typ          Type
}

// NewCalculator fails fast on a non-positive duration.
func NewCalculator(epoch time.Time, durationDays int) (Calculator, error) {
	if durationDays <= 0 {
		return Calculator{}, fmt.Errorf("%w: duration must be positive, got %d days", ErrInvalidConfiguration, durationDays)
	}

	typ := Type("")
	switch durationDays {
	case TypeDay.DurationDays():
		typ = TypeDay
	case TypeWeek.DurationDays():
		typ = TypeWeek
	}

	return Calculator{epoch: epoch, durationDays: durationDays, typ: typ}, nil
}

func (c Calculator) Epoch() time.Time  { return c.epoch }
func (c Calculator) DurationDays() int { return c.durationDays }

// Current returns the cycle number containing now.
func (c Calculator) Current(now time.Time) (int, error) {
	return Current(c.epoch, c.durationDays, now)
}

// Cycle returns the numbered window for n.
func (c Calculator) Cycle(n int) (Cycle, error) {
	w, err := Bounds(c.epoch, n, c.durationDays)
	if err != nil {
		return Cycle{}, err
	}
	return Cycle{Number: n, From: w.From, To: w.To, Type: c.typ}, nil
}

// CurrentCycle is Current followed by Cycle.
func (c Calculator) CurrentCycle(now time.Time) (Cycle, error) {
	n, err := c.Current(now)
	if err != nil {
		return Cycle{}, err
	}
	return c.Cycle(n)
}

// ForDate numbers ref against this calculator's epoch, counting in units of t.
func (c Calculator) ForDate(ref time.Time, t Type) (int, error) {
	return ForDate(c.epoch, ref, t)
}

// ForDateCycle numbers ref in units of t and returns that cycle with its
// date-aligned window, which always contains ref.
func (c Calculator) ForDateCycle(ref time.Time, t Type) (Cycle, error) {
	n, err := ForDate(c.epoch, ref, t)
	if err != nil {
		return Cycle{}, err
	}
	w, err := DateBounds(c.epoch, n, t)
	if err != nil {
		return Cycle{}, err
	}
	return Cycle{Number: n, From: w.From, To: w.To, Type: t}, nil
}
