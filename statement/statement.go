// Package statement computes period-bucketed financial statements from a
// validated ledger.
//
// Build cross-joins every account of a chart with every period of a range
// into zero placeholder rows and overlays the journal's postings, so that no
// (account, period) pair is ever missing downstream. CashFlow sums a
// statement into net flow per period; BalanceSheet carries a running total
// forward and samples it at period ends.
//
// InferGains and ClosingEntries generate synthetic journal entries. They are
// appended to a new journal which callers feed through Build again.
package statement

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/logger"
	"github.com/robinvdvleuten/statements/period"
	"github.com/robinvdvleuten/statements/telemetry"
)

// Row is one line of a statement: either a posting bucketed into its period,
// or a zero placeholder marking an (account, period) pair.
type Row struct {
	Period  period.Period
	Account *ledger.Account

	// EntryID and Date identify the source entry. Both are zero for placeholders.
	EntryID int
	Date    time.Time
	Kind    ledger.EntryKind

	Net    decimal.Decimal
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// IsPlaceholder reports whether the row stands for no posting at all.
func (r Row) IsPlaceholder() bool { return r.Date.IsZero() }

// Statement is the zero-filled account by period table underlying every
// report. Postings outside Range are kept so cumulative balances see them.
type Statement struct {
	Range period.Range
	Chart *ledger.Chart
	Rows  []Row

	nextID int
}

// Frequency returns the frequency rows are bucketed by.
func (s *Statement) Frequency() period.Frequency { return s.Range.Frequency() }

// NextEntryID returns an id greater than every entry id in the statement.
func (s *Statement) NextEntryID() int { return max(s.nextID, 1) }

// rowsByAccount groups rows by account name, preserving their order.
func (s *Statement) rowsByAccount() map[string][]Row {
	out := make(map[string][]Row, s.Chart.Len())
	for _, r := range s.Rows {
		out[r.Account.Name] = append(out[r.Account.Name], r)
	}
	return out
}

// checkRange rejects ranges the statement's rows cannot be matched against.
func (s *Statement) checkRange(rng period.Range) error {
	if rng.Frequency() != s.Frequency() {
		return &period.FrequencyMismatchError{Want: s.Frequency(), Got: rng.Frequency()}
	}
	if rng.IsEmpty() {
		return &period.EmptyRangeError{Frequency: rng.Frequency()}
	}
	return nil
}

// Build validates the journal against the chart and returns its statement
// over rng. The journal is checked again here even if the caller already did:
// an unbalanced or dangling entry fails the whole build.
func Build(ctx context.Context, chart *ledger.Chart, journal *ledger.Journal, rng period.Range) (*Statement, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("statement.build %s (%d entries)", rng, journal.Len()))
	defer timer.End()

	if rng.IsEmpty() {
		return nil, &period.EmptyRangeError{Label: "statement", Frequency: rng.Frequency()}
	}
	if err := ledger.Validate(telemetry.WithRootTimer(ctx, timer), chart, journal); err != nil {
		return nil, err
	}

	freq := rng.Frequency()
	periods := rng.Periods()
	rows := make([]Row, 0, chart.Len()*len(periods)+2*journal.Len())

	for _, a := range chart.Accounts() {
		for _, p := range periods {
			rows = append(rows, Row{
				Period:  p,
				Account: a,
				Net:     decimal.Zero,
				Debit:   decimal.Zero,
				Credit:  decimal.Zero,
			})
		}
	}

	nextID := 1
	for _, e := range journal.Sorted() {
		nextID = max(nextID, e.ID+1)
		p := period.Of(freq, e.Date)
		for _, posting := range e.Postings {
			a, _ := chart.Account(posting.Account)
			row := Row{
				Period:  p,
				Account: a,
				EntryID: e.ID,
				Date:    e.Date,
				Kind:    e.Kind,
				Net:     a.NetAmount(posting.Action, posting.Amount),
				Debit:   decimal.Zero,
				Credit:  decimal.Zero,
			}
			if posting.Action == ledger.Debit {
				row.Debit = posting.Amount
			} else {
				row.Credit = posting.Amount
			}
			rows = append(rows, row)
		}
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Int("accounts", chart.Len()).
		Int("periods", len(periods)).
		Int("rows", len(rows)).
		Msg("statement built")

	return &Statement{Range: rng, Chart: chart, Rows: rows, nextID: nextID}, nil
}
