package statement

import (
	"context"
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/period"
)

func brokerageChart(t *testing.T) *ledger.Chart {
	t.Helper()
	chart, err := ledger.NewChart(
		ledger.NewAccount(1, "Checking", ledger.AccountTypeAsset, "bank"),
		ledger.NewAccount(2, "Brokerage", ledger.AccountTypeAsset, "investments"),
		ledger.NewAccount(3, "Unrealized Gains", ledger.AccountTypeIncome, "investments"),
	)
	assert.NoError(t, err)
	return chart
}

func brokerageJournal() *ledger.Journal {
	return ledger.NewJournal(
		entry(1, date(2024, 1, 5), "buy", debit("Brokerage", "1000"), credit("Checking", "1000")),
	)
}

func brokerageSnapshots() []ledger.BalanceSnapshot {
	return []ledger.BalanceSnapshot{
		{Account: "Brokerage", Date: date(2024, 4, 30), Balance: dec("1300")},
		{Account: "Brokerage", Date: date(2024, 1, 31), Balance: dec("1000")},
	}
}

func firstHalf() period.Range {
	return period.MustRange(period.Month, date(2024, 1, 1), date(2024, 6, 30))
}

func TestInferGains(t *testing.T) {
	ctx := context.Background()
	chart, journal, rng := brokerageChart(t), brokerageJournal(), firstHalf()
	stmt := build(t, chart, journal, rng)

	augmented, diags, err := InferGains(ctx, chart, journal, stmt, brokerageSnapshots(), rng)
	assert.NoError(t, err)
	assert.Equal(t, 6, len(diags))

	tests := []struct {
		period       string
		diff         string
		gain         string
		interpolated bool
		entryID      int
	}{
		{"2024-01", "0", "0", false, 0},
		{"2024-02", "100", "100", true, 2},
		{"2024-03", "200", "100", true, 3},
		{"2024-04", "300", "100", false, 4},
		{"2024-05", "300", "0", true, 0},
		{"2024-06", "300", "0", true, 0},
	}
	for i, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			d := diags[i]
			assert.Equal(t, tt.period, d.Period.String())
			assertAmount(t, tt.diff, d.Diff)
			assertAmount(t, tt.gain, d.Gain)
			assert.Equal(t, tt.interpolated, d.Interpolated)
			assert.Equal(t, tt.entryID, d.EntryID)
		})
	}

	assert.Equal(t, 1, journal.Len(), "the input journal is left untouched")
	assert.Equal(t, 4, augmented.Len())

	for _, e := range augmented.Entries()[1:] {
		assert.Equal(t, ledger.EntryGain, e.Kind)
		assert.True(t, e.IsBalanced(), "entry %d", e.ID)
		assert.Equal(t, ledger.Debit, e.Postings[0].Action)
		assert.Equal(t, "Unrealized Gains", e.Postings[1].Account)
		assert.Equal(t, ledger.Credit, e.Postings[1].Action)
	}
	assert.Equal(t, "2024-02-29", augmented.Entries()[1].Date.Format("2006-01-02"))
}

// TestInferGainsReconciles checks that a second pass over the augmented
// journal matches every observed balance.
func TestInferGainsReconciles(t *testing.T) {
	ctx := context.Background()
	chart, journal, rng := brokerageChart(t), brokerageJournal(), firstHalf()
	snapshots := brokerageSnapshots()

	augmented, _, err := InferGains(ctx, chart, journal, build(t, chart, journal, rng), snapshots, rng)
	assert.NoError(t, err)

	second := build(t, chart, augmented, rng)
	rows, err := Reconcile(ctx, second, snapshots, rng)
	assert.NoError(t, err)
	assert.Equal(t, 6, len(rows))
	for _, r := range rows {
		if r.Observed.Valid {
			assert.True(t, r.Diff.Valid)
			assert.True(t, r.Diff.Decimal.IsZero(), "%s: diff %s", r.Period, r.Diff.Decimal)
		} else {
			assert.False(t, r.Diff.Valid)
		}
	}

	balances, err := BalanceSheet(ctx, second, rng)
	assert.NoError(t, err)
	assertAmount(t, "1100", amountOf(t, balances, "Brokerage", "2024-02"))
	assertAmount(t, "1200", amountOf(t, balances, "Brokerage", "2024-03"))
	assertAmount(t, "300", amountOf(t, balances, "Unrealized Gains", "2024-06"))

	_, diags, err := InferGains(ctx, chart, augmented, second, snapshots, rng)
	assert.NoError(t, err)
	for _, d := range diags {
		assert.True(t, d.Gain.IsZero(), "%s: gain %s after reconciliation", d.Period, d.Gain)
	}
}

// TestInferGainsWholeUnits checks that a drift observed in whole units is
// spread evenly over the periods between observations.
func TestInferGainsWholeUnits(t *testing.T) {
	ctx := context.Background()
	chart, journal := brokerageChart(t), brokerageJournal()
	rng := period.MustRange(period.Month, date(2024, 1, 1), date(2024, 4, 30))
	snapshots := []ledger.BalanceSnapshot{
		{Account: "Brokerage", Date: date(2024, 1, 31), Balance: dec("1000")},
		{Account: "Brokerage", Date: date(2024, 4, 30), Balance: dec("1001")},
	}

	augmented, diags, err := InferGains(ctx, chart, journal, build(t, chart, journal, rng), snapshots, rng)
	assert.NoError(t, err)
	assert.Equal(t, 4, len(diags))

	total := decimal.Zero
	for _, d := range diags[1:] {
		assert.True(t, d.Gain.GreaterThan(dec("0.33")) && d.Gain.LessThan(dec("0.34")), "%s: gain %s", d.Period, d.Gain)
		assert.NotEqual(t, 0, d.EntryID)
		total = total.Add(d.Gain)
	}
	assertAmount(t, "1", total)
	assertAmount(t, "0.3333333333333333", diags[1].Diff)
	assertAmount(t, "0.6666666666666667", diags[2].Diff)
	assert.Equal(t, 4, augmented.Len())

	balances, err := BalanceSheet(ctx, build(t, chart, augmented, rng), rng)
	assert.NoError(t, err)
	assertAmount(t, "1001", amountOf(t, balances, "Brokerage", "2024-04"))
}

func TestInferGainsStartsAtFirstObservation(t *testing.T) {
	ctx := context.Background()
	chart, journal := brokerageChart(t), brokerageJournal()
	rng := period.MustRange(period.Month, date(2024, 3, 1), date(2024, 4, 30))
	stmt := build(t, chart, journal, rng)

	_, diags, err := InferGains(ctx, chart, journal, stmt, brokerageSnapshots(), rng)
	assert.NoError(t, err)
	assert.Equal(t, 4, len(diags))
	assert.Equal(t, "2024-01", diags[0].Period.String())
}

func TestInferGainsInvertedPolicy(t *testing.T) {
	chart, journal, rng := brokerageChart(t), brokerageJournal(), firstHalf()
	ctx := Config{
		GainPolicy: map[ledger.AccountType]SignPolicy{ledger.AccountTypeAsset: SignInverted},
	}.WithContext(context.Background())

	augmented, _, err := InferGains(ctx, chart, journal, build(t, chart, journal, rng), brokerageSnapshots(), rng)
	assert.NoError(t, err)

	gain := augmented.Entries()[1]
	assert.Equal(t, ledger.Credit, gain.Postings[0].Action)
	assert.Equal(t, ledger.Debit, gain.Postings[1].Action)
	assert.True(t, gain.IsBalanced())
}

func TestInferGainsMissingGainsAccount(t *testing.T) {
	chart := exampleChart(t)
	rng := firstQuarter()
	snapshots := []ledger.BalanceSnapshot{{Account: "Checking", Date: date(2024, 1, 31), Balance: dec("5")}}

	_, _, err := InferGains(context.Background(), chart, exampleJournal(), build(t, chart, exampleJournal(), rng), snapshots, rng)
	var unknown *ledger.UnknownAccountError
	assert.True(t, errors.As(err, &unknown))
	assert.Equal(t, DefaultGainsAccount, unknown.GetAccount())
}

func TestInferGainsUnknownSnapshotAccount(t *testing.T) {
	chart, journal, rng := brokerageChart(t), brokerageJournal(), firstHalf()
	snapshots := []ledger.BalanceSnapshot{{Account: "Pension", Date: date(2024, 1, 31), Balance: dec("5")}}

	_, _, err := InferGains(context.Background(), chart, journal, build(t, chart, journal, rng), snapshots, rng)
	var unknown *ledger.UnknownAccountError
	assert.True(t, errors.As(err, &unknown))
}

func TestInferGainsSnapshotOnGainsAccount(t *testing.T) {
	chart, journal, rng := brokerageChart(t), brokerageJournal(), firstHalf()
	snapshots := []ledger.BalanceSnapshot{{Account: "Unrealized Gains", Date: date(2024, 2, 29), Balance: dec("40")}}

	_, _, err := InferGains(context.Background(), chart, journal, build(t, chart, journal, rng), snapshots, rng)
	var invalid *ledger.InvalidSnapshotError
	assert.True(t, errors.As(err, &invalid))
	assert.Equal(t, "Unrealized Gains", invalid.GetAccount())
	assert.Equal(t, date(2024, 2, 29), invalid.GetDate())
	assert.Contains(t, err.Error(), "balance snapshot of 'Unrealized Gains' on 2024-02-29")
}

func TestInferGainsWithoutSnapshots(t *testing.T) {
	chart, journal, rng := brokerageChart(t), brokerageJournal(), firstHalf()

	augmented, diags, err := InferGains(context.Background(), chart, journal, build(t, chart, journal, rng), nil, rng)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(diags))
	assert.True(t, augmented == journal)
}

func TestInterpolate(t *testing.T) {
	tests := []struct {
		name   string
		values []string
		known  []bool
		want   []string
	}{
		{
			name:   "Linear",
			values: []string{"0", "", "", "100.00"},
			known:  []bool{true, false, false, true},
			want:   []string{"0", "33.3333333333333333", "66.6666666666666667", "100"},
		},
		{
			name:   "WholeUnits",
			values: []string{"0", "", "", "1"},
			known:  []bool{true, false, false, true},
			want:   []string{"0", "0.3333333333333333", "0.6666666666666667", "1"},
		},
		{
			name:   "Decreasing",
			values: []string{"10", "", "-20"},
			known:  []bool{true, false, true},
			want:   []string{"10", "-5", "-20"},
		},
		{
			name:   "HoldAfterLast",
			values: []string{"5", "", ""},
			known:  []bool{true, false, false},
			want:   []string{"5", "5", "5"},
		},
		{
			name:   "BoundaryBeforeFirst",
			values: []string{"", "7"},
			known:  []bool{false, true},
			want:   []string{"7", "7"},
		},
		{
			name:   "NothingKnown",
			values: []string{"", ""},
			known:  []bool{false, false},
			want:   []string{"0", "0"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make([]decimal.Decimal, len(tt.values))
			for i, v := range tt.values {
				if v != "" {
					values[i] = dec(v)
				}
			}
			interpolate(values, tt.known)
			for i, want := range tt.want {
				assertAmount(t, want, values[i], "value %d", i)
			}
		})
	}
}

// TestInterpolateBounded checks that filled values stay between their two
// nearest observations.
func TestInterpolateBounded(t *testing.T) {
	values := []decimal.Decimal{dec("-12.345"), {}, {}, {}, {}, {}, dec("98.7")}
	known := []bool{true, false, false, false, false, false, true}
	interpolate(values, known)

	lo, hi := dec("-12.345"), dec("98.7")
	for i, v := range values {
		assert.True(t, v.GreaterThanOrEqual(lo) && v.LessThanOrEqual(hi), "value %d = %s out of bounds", i, v)
	}
}
