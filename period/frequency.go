// Package period provides the calendar model shared by every report: a small
// set of frequencies, the periods (calendar buckets) they generate, contiguous
// ranges of periods, and the alignment of value series between frequencies.
//
// All instants are normalized to midnight UTC. Periods are identified by the
// instant they start at, and a period contains every instant up to, but not
// including, the start of the next period at the same frequency.
//
// Example usage:
//
//	r, err := period.NewRange(period.Month, from, to)
//	if err != nil {
//	    return err
//	}
//	for p := range r.All() {
//	    fmt.Println(p) // 2024-01, 2024-02, ...
//	}
package period

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the granularity of a period. Frequencies are totally ordered
// from finest to coarsest: Day, Month, Year.
type Frequency int

const (
	Day Frequency = iota
	Month
	Year
)

// String returns the singular noun for the frequency.
func (f Frequency) String() string {
	switch f {
	case Day:
		return "day"
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return fmt.Sprintf("frequency(%d)", int(f))
	}
}

// Valid reports whether f is one of the supported frequencies.
func (f Frequency) Valid() bool { return f >= Day && f <= Year }

// FinerThan reports whether f produces smaller buckets than g.
func (f Frequency) FinerThan(g Frequency) bool { return f < g }


// ParseFrequency parses a frequency name. It accepts the nouns ("month"),
// the adjectives ("monthly") and the single letter codes ("M").
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "d", "day", "daily":
		return Day, nil
	case "m", "month", "monthly":
		return Month, nil
	case "y", "a", "year", "yearly", "annual":
		return Year, nil
	default:
		return Day, &UnknownFrequencyError{Value: s}
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Frequency) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, &UnknownFrequencyError{Value: f.String()}
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Frequency) UnmarshalText(text []byte) error {
	parsed, err := ParseFrequency(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Truncate returns the start of the period at frequency f containing t.
func (f Frequency) Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	switch f {
	case Day:
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		panic(fmt.Sprintf("period: truncate with %s", f))
	}
}

// add moves start, which must be a period start, n periods forward.
func (f Frequency) add(start time.Time, n int) time.Time {
	switch f {
	case Day:
		return start.AddDate(0, 0, n)
	case Month:
		return start.AddDate(0, n, 0)
	case Year:
		return start.AddDate(n, 0, 0)
	default:
		panic(fmt.Sprintf("period: add with %s", f))
	}
}

// count returns the number of periods at frequency f from the one containing
// from through the one containing to. It is zero when to precedes from.
func (f Frequency) count(from, to time.Time) int {
	a, b := f.Truncate(from), f.Truncate(to)
	if b.Before(a) {
		return 0
	}
	switch f {
	case Day:
		return int(b.Sub(a)/(24*time.Hour)) + 1
	case Month:
		return (b.Year()-a.Year())*12 + int(b.Month()-a.Month()) + 1
	default:
		return b.Year() - a.Year() + 1
	}
}
