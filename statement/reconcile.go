package statement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/period"
	"github.com/robinvdvleuten/statements/telemetry"
)

// ReconcileRow compares the observed and computed balance of an account at
// the end of a period. Observed and Diff are null when no snapshot falls in
// the period.
type ReconcileRow struct {
	Account  *ledger.Account
	Period   period.Period
	Observed decimal.NullDecimal
	Computed decimal.Decimal
	Diff     decimal.NullDecimal
}

// Reconcile lists observed against computed balances for every account with
// at least one snapshot inside rng, over every period of rng.
func Reconcile(ctx context.Context, stmt *Statement, snapshots []ledger.BalanceSnapshot, rng period.Range) ([]ReconcileRow, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("statement.reconcile %s", rng))
	defer timer.End()

	if err := stmt.checkRange(rng); err != nil {
		return nil, err
	}
	if err := ledger.ValidateSnapshots(stmt.Chart, snapshots); err != nil {
		return nil, err
	}

	observed := observations(snapshots, rng)
	byAccount := stmt.rowsByAccount()

	var out []ReconcileRow
	for _, a := range stmt.Chart.Accounts() {
		obs, ok := observed[a.Name]
		if !ok {
			continue
		}
		computed := runningBalances(byAccount[a.Name], rng)
		for i, p := range rng.All() {
			row := ReconcileRow{Account: a, Period: p, Observed: obs[i], Computed: computed[i]}
			if obs[i].Valid {
				row.Diff = decimal.NewNullDecimal(obs[i].Decimal.Sub(computed[i]))
			}
			out = append(out, row)
		}
	}
	return out, nil
}

// observations buckets snapshots into the periods of rng, per account. The
// latest snapshot of a period wins; same-day snapshots resolve to the last
// one given. Accounts without snapshots inside rng are absent.
func observations(snapshots []ledger.BalanceSnapshot, rng period.Range) map[string][]decimal.NullDecimal {
	sorted := slices.Clone(snapshots)
	slices.SortStableFunc(sorted, func(a, b ledger.BalanceSnapshot) int {
		return a.Date.Compare(b.Date)
	})

	out := make(map[string][]decimal.NullDecimal)
	for _, s := range sorted {
		i, ok := rng.Index(period.Of(rng.Frequency(), s.Date))
		if !ok {
			continue
		}
		obs, ok := out[s.Account]
		if !ok {
			obs = make([]decimal.NullDecimal, rng.Len())
			out[s.Account] = obs
		}
		obs[i] = decimal.NewNullDecimal(s.Balance)
	}
	return out
}
