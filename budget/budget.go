// Package budget projects declarative budget targets onto a reporting range
// and compares them with actual cash flow.
package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/logger"
	"github.com/robinvdvleuten/statements/period"
	"github.com/robinvdvleuten/statements/statement"
	"github.com/robinvdvleuten/statements/telemetry"
)

// Interval is the half-open span [Start, End) a set of items applies to.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(time.DateOnly), iv.End.Format(time.DateOnly))
}

// Range returns the periods at frequency f covering the interval.
func (iv Interval) Range(f period.Frequency) (period.Range, error) {
	if !iv.End.After(iv.Start) {
		return period.Range{}, &period.EmptyRangeError{Label: "budget interval", Frequency: f, From: iv.Start, To: iv.End}
	}
	return period.NewRange(f, iv.Start, iv.End.AddDate(0, 0, -1))
}

// Item is a target amount per period of Frequency for one account.
type Item struct {
	Account   string
	Frequency period.Frequency
	Amount    decimal.Decimal
}

// Block is a set of items valid over one interval.
type Block struct {
	Interval Interval
	Items    []Item
}

// Budget is a sequence of blocks. Blocks may overlap; targets for the same
// account are then summed.
type Budget struct {
	Blocks []Block
}

// Validate checks that every item references an account of the chart, uses a
// known frequency, and lies in a non-empty interval.
func (b *Budget) Validate(chart *ledger.Chart) error {
	var errs []error
	for _, block := range b.Blocks {
		if !block.Interval.End.After(block.Interval.Start) {
			errs = append(errs, &period.EmptyRangeError{Label: "budget interval", From: block.Interval.Start, To: block.Interval.End})
		}
		for _, item := range block.Items {
			if _, err := chart.Lookup(item.Account, "budget item "+block.Interval.String()); err != nil {
				errs = append(errs, err)
			}
			if !item.Frequency.Valid() {
				errs = append(errs, &period.UnknownFrequencyError{Value: item.Frequency.String()})
			}
		}
	}
	if len(errs) > 0 {
		return &ledger.ValidationErrors{Errors: errs}
	}
	return nil
}

// Project returns one target series per budgeted account over rng, in chart
// order. Each item is spread uniformly over its interval at its own
// frequency, then aligned onto rng's frequency; targets falling outside rng
// are dropped.
func Project(ctx context.Context, b *Budget, chart *ledger.Chart, rng period.Range) ([]period.Series, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("budget.project %s", rng))
	defer timer.End()

	if err := b.Validate(chart); err != nil {
		return nil, err
	}

	targets := make(map[string][]decimal.Decimal)
	for _, block := range b.Blocks {
		for _, item := range block.Items {
			src, err := block.Interval.Range(item.Frequency)
			if err != nil {
				return nil, err
			}
			dst, err := block.Interval.Range(rng.Frequency())
			if err != nil {
				return nil, err
			}
			aligned, err := period.Align(period.Uniform(item.Account, src, item.Amount), dst)
			if err != nil {
				return nil, fmt.Errorf("budget item %s %s: %w", item.Account, block.Interval, err)
			}

			values, ok := targets[item.Account]
			if !ok {
				values = make([]decimal.Decimal, rng.Len())
				for i := range values {
					values[i] = decimal.Zero
				}
				targets[item.Account] = values
			}
			for j, p := range aligned.Range.All() {
				if i, ok := rng.Index(p); ok {
					values[i] = values[i].Add(aligned.Values[j])
				}
			}
		}
	}

	var out []period.Series
	for _, a := range chart.Accounts() {
		if values, ok := targets[a.Name]; ok {
			out = append(out, period.Series{Label: a.Name, Range: rng, Values: values})
		}
	}

	log := logger.FromContext(ctx)
	log.Debug().Int("blocks", len(b.Blocks)).Int("accounts", len(out)).Msg("budget projected")

	return out, nil
}

// VarianceRow compares the target of an account in a period with its actual
// net flow. Variance is target minus actual.
type VarianceRow struct {
	Period   period.Period
	Account  *ledger.Account
	Target   decimal.Decimal
	Actual   decimal.Decimal
	Variance decimal.Decimal
}

// VersusActuals returns a variance row for every budgeted account and every
// period of rng, ordered by account then period.
func VersusActuals(ctx context.Context, b *Budget, chart *ledger.Chart, journal *ledger.Journal, rng period.Range) ([]VarianceRow, error) {
	ctx, timer := telemetry.Span(ctx, fmt.Sprintf("budget.versus_actuals %s", rng))
	defer timer.End()

	targets, err := Project(ctx, b, chart, rng)
	if err != nil {
		return nil, err
	}

	stmt, err := statement.Build(ctx, chart, journal, rng)
	if err != nil {
		return nil, err
	}
	flows, err := statement.CashFlow(ctx, stmt, rng)
	if err != nil {
		return nil, err
	}

	actual := make(map[string][]decimal.Decimal, len(targets))
	for _, s := range targets {
		actual[s.Label] = make([]decimal.Decimal, rng.Len())
	}
	for _, f := range flows {
		values, ok := actual[f.Account.Name]
		if !ok {
			continue
		}
		i, _ := rng.Index(f.Period)
		values[i] = f.Amount
	}

	out := make([]VarianceRow, 0, len(targets)*rng.Len())
	for _, s := range targets {
		a, _ := chart.Account(s.Label)
		for i, p := range rng.All() {
			out = append(out, VarianceRow{
				Period:   p,
				Account:  a,
				Target:   s.Values[i],
				Actual:   actual[s.Label][i],
				Variance: s.Values[i].Sub(actual[s.Label][i]),
			})
		}
	}
	return out, nil
}
