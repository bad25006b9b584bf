package period

import (
	"time"
)

// Period is a single calendar bucket: a frequency and the instant it starts at.
type Period struct {
	Freq  Frequency
	Start time.Time
}

// Of returns the period at frequency f that contains t.
func Of(f Frequency, t time.Time) Period {
	return Period{Freq: f, Start: f.Truncate(t)}
}

// End returns the first instant after the period.
func (p Period) End() time.Time { return p.Freq.add(p.Start, 1) }

// LastDay returns the start of the last day inside the period.
func (p Period) LastDay() time.Time { return p.End().AddDate(0, 0, -1) }

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End())
}

// Next returns the period that directly follows p.
func (p Period) Next() Period { return Period{Freq: p.Freq, Start: p.Freq.add(p.Start, 1)} }

// Before reports whether p starts before q.
func (p Period) Before(q Period) bool { return p.Start.Before(q.Start) }

// Compare orders periods by start instant, then by frequency.
func (p Period) Compare(q Period) int {
	if c := p.Start.Compare(q.Start); c != 0 {
		return c
	}
	return int(p.Freq) - int(q.Freq)
}

// IsZero reports whether p is the zero Period.
func (p Period) IsZero() bool { return p.Start.IsZero() }

// String formats the period by its start using the precision of its frequency:
// 2024-03-15 for days, 2024-03 for months and 2024 for years.
func (p Period) String() string {
	switch p.Freq {
	case Day:
		return p.Start.Format("2006-01-02")
	case Month:
		return p.Start.Format("2006-01")
	case Year:
		return p.Start.Format("2006")
	default:
		return p.Start.Format(time.RFC3339)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Period) MarshalText() ([]byte, error) { return []byte(p.String()), nil }
