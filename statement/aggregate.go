package statement

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/logger"
	"github.com/robinvdvleuten/statements/period"
	"github.com/robinvdvleuten/statements/telemetry"
)

// AggregateRow is one (period, account) cell of a cash flow or balance sheet.
// Category is the account's category padded to the chart's depth.
type AggregateRow struct {
	Period   period.Period
	Type     ledger.AccountType
	Category []string
	Account  *ledger.Account
	Amount   decimal.Decimal
}

// grid holds one amount per account (in chart order) and range period.
type grid [][]decimal.Decimal

func newGrid(accounts, periods int) grid {
	g := make(grid, accounts)
	for i := range g {
		g[i] = make([]decimal.Decimal, periods)
		for j := range g[i] {
			g[i][j] = decimal.Zero
		}
	}
	return g
}

// rows flattens the grid into aggregate rows grouped by account type, then
// category, then account, then period.
func (g grid) rows(chart *ledger.Chart, rng period.Range) []AggregateRow {
	accounts := chart.Accounts()
	order := make([]int, len(accounts))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(i, j int) int {
		a, b := accounts[i], accounts[j]
		if a.Type != b.Type {
			return int(a.Type) - int(b.Type)
		}
		return slices.Compare(chart.FlatCategory(a), chart.FlatCategory(b))
	})

	out := make([]AggregateRow, 0, len(accounts)*rng.Len())
	for _, i := range order {
		a := accounts[i]
		category := chart.FlatCategory(a)
		for j, p := range rng.All() {
			out = append(out, AggregateRow{
				Period:   p,
				Type:     a.Type,
				Category: category,
				Account:  a,
				Amount:   g[i][j],
			})
		}
	}
	return out
}

// CashFlow returns the net flow of every account during each period of rng.
// Accounts without activity in a period report zero.
func CashFlow(ctx context.Context, stmt *Statement, rng period.Range) ([]AggregateRow, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("statement.cash_flow %s", rng))
	defer timer.End()

	if err := stmt.checkRange(rng); err != nil {
		return nil, err
	}

	g, err := cashFlowGrid(stmt, rng)
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx)
	log.Debug().Int("accounts", stmt.Chart.Len()).Int("periods", rng.Len()).Msg("cash flow aggregated")

	return g.rows(stmt.Chart, rng), nil
}

func cashFlowGrid(stmt *Statement, rng period.Range) (grid, error) {
	index := accountIndex(stmt.Chart)
	g := newGrid(stmt.Chart.Len(), rng.Len())
	for _, r := range stmt.Rows {
		j, ok := rng.Index(r.Period)
		if !ok {
			continue
		}
		i, ok := index[r.Account.Name]
		if !ok {
			return nil, &ledger.UnknownAccountError{Account: r.Account.Name, EntryID: r.EntryID, Date: r.Date}
		}
		g[i][j] = g[i][j].Add(r.Net)
	}
	return g, nil
}

func accountIndex(chart *ledger.Chart) map[string]int {
	index := make(map[string]int, chart.Len())
	for i, a := range chart.Accounts() {
		index[a.Name] = i
	}
	return index
}
