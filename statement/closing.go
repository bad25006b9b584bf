package statement

import (
	"context"
	"fmt"

	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/logger"
	"github.com/robinvdvleuten/statements/period"
	"github.com/robinvdvleuten/statements/telemetry"
)

// ClosingEntries returns, for every account with a closing account and every
// period of rng in which it has net flow, one entry moving that flow into the
// closing account. Entries are ordered by period, then by account, dated on
// the last day of their period and numbered from the statement's next id.
func ClosingEntries(ctx context.Context, chart *ledger.Chart, stmt *Statement, rng period.Range) ([]*ledger.JournalEntry, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("statement.closing_entries %s", rng))
	defer timer.End()

	if err := stmt.checkRange(rng); err != nil {
		return nil, err
	}

	g, err := cashFlowGrid(stmt, rng)
	if err != nil {
		return nil, err
	}

	type temporary struct {
		index   int
		account *ledger.Account
		closing *ledger.Account
	}
	var temps []temporary
	for i, a := range stmt.Chart.Accounts() {
		if !a.IsTemporary() {
			continue
		}
		closing, err := chart.Lookup(a.ClosingAccount, "closing account of "+a.Name)
		if err != nil {
			return nil, err
		}
		temps = append(temps, temporary{index: i, account: a, closing: closing})
	}

	var entries []*ledger.JournalEntry
	id := stmt.NextEntryID()
	for j, p := range rng.All() {
		for _, t := range temps {
			net := g[t.index][j]
			if net.IsZero() {
				continue
			}
			reverse := t.account.Posting(net.Neg())
			entries = append(entries, &ledger.JournalEntry{
				ID:          id,
				Date:        p.LastDay(),
				Description: fmt.Sprintf("Close %s into %s (%s)", t.account.Name, t.closing.Name, p),
				Kind:        ledger.EntryClosing,
				Postings: []ledger.Posting{
					reverse,
					{Account: t.closing.Name, Action: reverse.Action.Flip(), Amount: reverse.Amount},
				},
			})
			id++
		}
	}

	log := logger.FromContext(ctx)
	log.Debug().Int("accounts", len(temps)).Int("entries", len(entries)).Msg("closing entries generated")

	return entries, nil
}
