package period

import (
	"errors"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		in   string
		want Frequency
	}{
		{"D", Day},
		{"daily", Day},
		{"Month", Month},
		{"m", Month},
		{" yearly ", Year},
		{"annual", Year},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFrequency(tt.in)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFrequencyUnknown(t *testing.T) {
	_, err := ParseFrequency("weekly")
	var unknown *UnknownFrequencyError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, "weekly", unknown.Value)
}

func TestFrequencyOrder(t *testing.T) {
	assert.True(t, Day.FinerThan(Month))
	assert.True(t, Month.FinerThan(Year))
	assert.False(t, Year.FinerThan(Day))
	assert.False(t, Month.FinerThan(Month))
}

func TestPeriodOf(t *testing.T) {
	on := date(2024, time.February, 15)

	assert.Equal(t, date(2024, time.February, 15), Of(Day, on).Start)
	assert.Equal(t, date(2024, time.February, 1), Of(Month, on).Start)
	assert.Equal(t, date(2024, time.January, 1), Of(Year, on).Start)

	feb := Of(Month, on)
	assert.Equal(t, date(2024, time.February, 29), feb.LastDay())
	assert.Equal(t, date(2024, time.March, 1), feb.End())
	assert.True(t, feb.Contains(date(2024, time.February, 29)))
	assert.False(t, feb.Contains(date(2024, time.March, 1)))
	assert.Equal(t, "2024-02", feb.String())
	assert.Equal(t, "2024-03", feb.Next().String())
}

func TestNewRange(t *testing.T) {
	r, err := NewRange(Month, date(2024, time.January, 20), date(2024, time.April, 1))
	assert.NoError(t, err)
	assert.Equal(t, 4, r.Len())
	assert.Equal(t, "2024-01", r.First().String())
	assert.Equal(t, "2024-04", r.Last().String())
	assert.Equal(t, date(2024, time.May, 1), r.End())
	assert.Equal(t, "2024-01..2024-04 (month)", r.String())

	days := MustRange(Day, date(2024, time.February, 27), date(2024, time.March, 2))
	assert.Equal(t, 5, days.Len())

	years := MustRange(Year, date(2019, time.June, 1), date(2024, time.January, 1))
	assert.Equal(t, 6, years.Len())
}

func TestNewRangeEmpty(t *testing.T) {
	_, err := NewRange(Month, date(2024, time.April, 1), date(2024, time.January, 1))
	var empty *EmptyRangeError
	assert.True(t, errors.As(err, &empty))

	_, err = NewRange(Frequency(7), date(2024, time.January, 1), date(2024, time.April, 1))
	var unknown *UnknownFrequencyError
	assert.True(t, errors.As(err, &unknown))
}

func TestRangeIndex(t *testing.T) {
	r := MustRange(Month, date(2024, time.January, 1), date(2024, time.December, 1))

	i, ok := r.Index(Of(Month, date(2024, time.March, 31)))
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	_, ok = r.Index(Of(Month, date(2025, time.January, 1)))
	assert.False(t, ok)

	_, ok = r.Index(Of(Day, date(2024, time.March, 1)))
	assert.False(t, ok, "periods of another frequency are not part of the range")
}
