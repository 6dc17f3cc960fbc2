package availability

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidWeekday is returned for unknown day names.
var ErrInvalidWeekday = errors.New("unknown weekday")

// Weekday is a lower-case three letter day name.
type Weekday string

const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

var byTimeWeekday = [7]Weekday{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}

var order = map[Weekday]int{Monday: 0, Tuesday: 1, Wednesday: 2, Thursday: 3, Friday: 4, Saturday: 5, Sunday: 6}

// DayOf returns the weekday of t in t's location.
func DayOf(t time.Time) Weekday {
	return byTimeWeekday[t.Weekday()]
}

// ParseWeekday accepts "mon" or "monday" in any case.
func ParseWeekday(s string) (Weekday, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) > 3 {
		if !strings.HasSuffix(v, "day") {
			return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
		}
		full := v
		v = v[:3]
		if _, ok := order[Weekday(v)]; !ok || fullName(Weekday(v)) != full {
			return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
		}
	}
	if _, ok := order[Weekday(v)]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
	}
	return Weekday(v), nil
}

func fullName(d Weekday) string {
	switch d {
	case Monday:
		return "monday"
	case Tuesday:
		return "tuesday"
	case Wednesday:
		return "wednesday"
	case Thursday:
		return "thursday"
	case Friday:
		return "friday"
	case Saturday:
		return "saturday"
	default:
		return "sunday"
	}
}

// Days is a set of weekdays kept in Monday-first order.
type Days []Weekday

// ParseDays normalizes raw names, dropping duplicates.
func ParseDays(raw []string) (Days, error) {
	seen := make(map[Weekday]bool, len(raw))
	for _, r := range raw {
		d, err := ParseWeekday(r)
		if err != nil {
			return nil, err
		}
		seen[d] = true
	}
	out := make(Days, 0, len(seen))
	for _, d := range []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday} {
		if seen[d] {
			out = append(out, d)
		}
	}
	return out, nil
}

// Has reports whether d is in the set.
func (ds Days) Has(d Weekday) bool {
	for _, v := range ds {
		if v == d {
			return true
		}
	}
	return false
}

// Strings returns the plain names, for storage.
func (ds Days) Strings() []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = string(d)
	}
	return out
}
