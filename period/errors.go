package period

import (
	"fmt"
	"time"
)

// UnknownFrequencyError is returned when a frequency outside day, month and
// year is requested.
type UnknownFrequencyError struct {
	Value string
}

func (e *UnknownFrequencyError) Error() string {
	return fmt.Sprintf("unknown frequency %q, expected one of day, month, year", e.Value)
}

// EmptyRangeError is returned when a range would hold no period, or when a
// series is aligned onto an empty destination range.
type EmptyRangeError struct {
	Label     string
	Frequency Frequency
	From      time.Time
	To        time.Time
}

func (e *EmptyRangeError) Error() string {
	msg := fmt.Sprintf("empty %s period range", e.Frequency)
	if !e.From.IsZero() || !e.To.IsZero() {
		msg = fmt.Sprintf("%s from %s to %s", msg, e.From.Format(time.DateOnly), e.To.Format(time.DateOnly))
	}
	if e.Label != "" {
		return e.Label + ": " + msg
	}
	return msg
}

// FrequencyMismatchError is returned when a range of one frequency is applied
// to data bucketed at another.
type FrequencyMismatchError struct {
	Want Frequency
	Got  Frequency
}

func (e *FrequencyMismatchError) Error() string {
	return fmt.Sprintf("period range is %s but data is bucketed by %s", e.Got, e.Want)
}
