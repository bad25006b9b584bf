package statement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"

	"github.com/robinvdvleuten/statements/logger"
	"github.com/robinvdvleuten/statements/period"
	"github.com/robinvdvleuten/statements/telemetry"
)

// BalanceSheet returns the cumulative balance of every account at the end of
// each period of rng. All history up to the end of rng counts, including
// postings dated before its first period.
func BalanceSheet(ctx context.Context, stmt *Statement, rng period.Range) ([]AggregateRow, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("statement.balance_sheet %s", rng))
	defer timer.End()

	if err := stmt.checkRange(rng); err != nil {
		return nil, err
	}

	byAccount := stmt.rowsByAccount()
	accounts := stmt.Chart.Accounts()
	g := make(grid, len(accounts))

	cfg := ConfigFromContext(ctx)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Parallelism)
	for i, a := range accounts {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			g[i] = runningBalances(byAccount[a.Name], rng)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Debug().Int("accounts", len(accounts)).Int("periods", rng.Len()).Msg("balance sheet accumulated")

	return g.rows(stmt.Chart, rng), nil
}

// sortRows orders one account's rows by period, placeholders first, then by
// date and entry id.
func sortRows(rows []Row) {
	slices.SortStableFunc(rows, func(a, b Row) int {
		if c := a.Period.Compare(b.Period); c != 0 {
			return c
		}
		if a.IsPlaceholder() != b.IsPlaceholder() {
			if a.IsPlaceholder() {
				return -1
			}
			return 1
		}
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.EntryID - b.EntryID
	})
}

// runningBalances samples the running total of an account's rows at the end
// of every period of rng. Periods without rows carry the previous total.
func runningBalances(rows []Row, rng period.Range) []decimal.Decimal {
	sorted := slices.Clone(rows)
	sortRows(sorted)

	out := make([]decimal.Decimal, rng.Len())
	total := decimal.Zero
	k := 0
	for i, p := range rng.All() {
		for k < len(sorted) && !p.Before(sorted[k].Period) {
			total = total.Add(sorted[k].Net)
			k++
		}
		out[i] = total
	}
	return out
}
