package period

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Series is a sequence of values anchored on the periods of a Range, one value
// per period. Label names what the values measure, typically an account.
type Series struct {
	Label  string
	Range  Range
	Values []decimal.Decimal
}

// Uniform returns a series holding the same value in every period of r.
func Uniform(label string, r Range, v decimal.Decimal) Series {
	values := make([]decimal.Decimal, r.Len())
	for i := range values {
		values[i] = v
	}
	return Series{Label: label, Range: r, Values: values}
}

// Sum returns the total of all values.
func (s Series) Sum() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s.Values {
		total = total.Add(v)
	}
	return total
}

// At returns the value anchored at p.
func (s Series) At(p Period) (decimal.Decimal, bool) {
	i, ok := s.Range.Index(p)
	if !ok {
		return decimal.Zero, false
	}
	return s.Values[i], true
}

// Align re-anchors src onto dst, which should cover the same wall-clock span.
//
// Downsampling (src finer than dst) sums the source values falling inside each
// destination period. Upsampling (src coarser than dst) forward-fills each
// source value into the destination periods it overlaps, divided by the number
// of destination periods the source period spans, and keeps exactly
// dst.Len() values: any overshoot past dst is discarded. Series at the same
// frequency pass through unchanged.
//
// An empty source yields an empty series. Aligning a non-empty source onto an
// empty destination fails with an *EmptyRangeError.
func Align(src Series, dst Range) (Series, error) {
	if len(src.Values) != src.Range.Len() {
		return Series{}, fmt.Errorf("series %q holds %d values for %d periods", src.Label, len(src.Values), src.Range.Len())
	}
	if src.Range.IsEmpty() {
		return Series{Label: src.Label, Range: Range{freq: dst.freq}}, nil
	}
	if src.Range.freq == dst.freq {
		return src, nil
	}
	if !dst.freq.Valid() {
		return Series{}, &UnknownFrequencyError{Value: dst.freq.String()}
	}
	if dst.IsEmpty() {
		return Series{}, &EmptyRangeError{Label: src.Label, Frequency: dst.freq}
	}

	out := Series{Label: src.Label, Range: dst, Values: make([]decimal.Decimal, dst.Len())}
	for i := range out.Values {
		out.Values[i] = decimal.Zero
	}

	if src.Range.freq.FinerThan(dst.freq) {
		for i, p := range src.Range.All() {
			if j, ok := dst.Index(Of(dst.freq, p.Start)); ok {
				out.Values[j] = out.Values[j].Add(src.Values[i])
			}
		}
		return out, nil
	}

	for j, q := range dst.All() {
		p := Of(src.Range.freq, q.Start)
		i, ok := src.Range.Index(p)
		if !ok {
			continue
		}
		buckets := dst.freq.count(p.Start, p.LastDay())
		out.Values[j] = src.Values[i].Div(decimal.NewFromInt(int64(buckets)))
	}
	return out, nil
}
