package period

import (
	"fmt"
	"iter"
	"time"
)

// Range is an ordered, contiguous and gap-free sequence of periods at a single
// frequency. The zero Range is empty.
type Range struct {
	freq  Frequency
	start time.Time
	n     int
}

// NewRange returns the range of periods at frequency f from the one containing
// from through the one containing to, both included.
func NewRange(f Frequency, from, to time.Time) (Range, error) {
	if !f.Valid() {
		return Range{}, &UnknownFrequencyError{Value: f.String()}
	}
	n := f.count(from, to)
	if n == 0 {
		return Range{}, &EmptyRangeError{Frequency: f, From: from, To: to}
	}
	return Range{freq: f, start: f.Truncate(from), n: n}, nil
}

// MustRange is like NewRange but panics on error.
func MustRange(f Frequency, from, to time.Time) Range {
	r, err := NewRange(f, from, to)
	if err != nil {
		panic(err.Error())
	}
	return r
}

// Frequency returns the frequency of every period in the range.
func (r Range) Frequency() Frequency { return r.freq }

// Len returns the number of periods in the range.
func (r Range) Len() int { return r.n }

// IsEmpty reports whether the range holds no period.
func (r Range) IsEmpty() bool { return r.n == 0 }

// At returns the i-th period of the range.
func (r Range) At(i int) Period {
	if i < 0 || i >= r.n {
		panic(fmt.Sprintf("period: index %d out of range [0:%d]", i, r.n))
	}
	return Period{Freq: r.freq, Start: r.freq.add(r.start, i)}
}

// First returns the first period of a non-empty range.
func (r Range) First() Period { return r.At(0) }

// Last returns the last period of a non-empty range.
func (r Range) Last() Period { return r.At(r.n - 1) }

// Start returns the first instant covered by the range.
func (r Range) Start() time.Time { return r.start }

// End returns the first instant after the range.
func (r Range) End() time.Time { return r.freq.add(r.start, r.n) }

// All returns an iterator over the periods of the range, in order.
func (r Range) All() iter.Seq2[int, Period] {
	return func(yield func(int, Period) bool) {
		for i := range r.n {
			if !yield(i, r.At(i)) {
				return
			}
		}
	}
}

// Periods returns the periods of the range as a slice.
func (r Range) Periods() []Period {
	periods := make([]Period, 0, r.n)
	for _, p := range r.All() {
		periods = append(periods, p)
	}
	return periods
}

// Index returns the position of p in the range. Periods of another frequency
// are never found.
func (r Range) Index(p Period) (int, bool) {
	if r.n == 0 || p.Freq != r.freq || p.Start.Before(r.start) {
		return 0, false
	}
	i := r.freq.count(r.start, p.Start) - 1
	if i >= r.n || !r.freq.add(r.start, i).Equal(p.Start) {
		return 0, false
	}
	return i, true
}

// Contains reports whether p lies inside the range, boundaries included.
func (r Range) Contains(p Period) bool {
	_, ok := r.Index(p)
	return ok
}

// String formats the range as "first..last (frequency)".
func (r Range) String() string {
	if r.n == 0 {
		return fmt.Sprintf("empty (%s)", r.freq)
	}
	return fmt.Sprintf("%s..%s (%s)", r.First(), r.Last(), r.freq)
}
