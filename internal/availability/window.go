package availability

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var (
	// ErrInvalidClock is returned for values that are not zero-padded 24h HH:MM.
	ErrInvalidClock = errors.New("time must be in HH:MM 24-hour format")
	// ErrInvalidWindow is returned when a window does not start before it ends.
	ErrInvalidWindow = errors.New("window start must be before end")
)

// Clock is a time of day expressed as minutes since midnight.
type Clock int

// ParseClock parses a strict "HH:MM" value.
func ParseClock(s string) (Clock, error) {
	v := strings.TrimSpace(s)
	if len(v) != 5 || v[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, okH := twoDigits(v[0], v[1])
	m, okM := twoDigits(v[3], v[4])
	if !okH || !okM || h > 23 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock(h*60 + m), nil
}

func twoDigits(a, b byte) (int, bool) {
	if a < '0' || a > '9' || b < '0' || b > '9' {
		return 0, false
	}
	return int(a-'0')*10 + int(b-'0'), true
}

// MustClock is ParseClock for literals.
func MustClock(s string) Clock {
	c, err := ParseClock(s)
	if err != nil {
		panic(err)
	}
	return c
}

// ClockOf returns the wall-clock minute of t in t's location. Seconds are truncated.
func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

// CeilClockOf is ClockOf rounded up to the next minute when t has seconds.
// Range ends use it so a partial minute still counts as occupied.
func CeilClockOf(t time.Time) Clock {
	c := ClockOf(t)
	if t.Second() != 0 || t.Nanosecond() != 0 {
		c++
	}
	return c
}

// On anchors the clock on the calendar day of day, in day's location.
func (c Clock) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, day.Location())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

func (c Clock) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Clock) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidClock, string(data))
	}
	parsed, err := ParseClock(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Window is a time-of-day range.
type Window struct {
	Start Clock `json:"start"`
	End   Clock `json:"end"`
}

// Bounds lets Window and types embedding it be matched by FindContaining and Contains.
func (w Window) Bounds() Window { return w }

// Validate checks start < end.
func (w Window) Validate() error {
	if w.Start >= w.End {
		return fmt.Errorf("%w: %s-%s", ErrInvalidWindow, w.Start, w.End)
	}
	return nil
}

// HoldsPoint reports start <= c < end.
func (w Window) HoldsPoint(c Clock) bool { return w.Start <= c && c < w.End }

// HoldsRange reports whether [start, end] lies inside the window, bounds inclusive.
func (w Window) HoldsRange(start, end Clock) bool { return start >= w.Start && end <= w.End }

func (w Window) String() string { return w.Start.String() + "-" + w.End.String() }

// Bounded is anything that exposes a time-of-day window.
type Bounded interface {
	Bounds() Window
}

// FindContaining returns the first window holding c under half-open [start, end) semantics.
func FindContaining[W Bounded](windows []W, c Clock) (W, bool) {
	for _, w := range windows {
		if w.Bounds().HoldsPoint(c) {
			return w, true
		}
	}
	var zero W
	return zero, false
}

// Contains returns the first window that fully holds the range [start, end].
func Contains[W Bounded](windows []W, start, end Clock) (W, bool) {
	for _, w := range windows {
		if w.Bounds().HoldsRange(start, end) {
			return w, true
		}
	}
	var zero W
	return zero, false
}

// NormalizeWindows validates every window and returns a copy sorted by start.
func NormalizeWindows(windows []Window) ([]Window, error) {
	out := make([]Window, 0, len(windows))
	for _, w := range windows {
		if err := w.Validate(); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, nil
}
