package statement

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/telemetry"
)

// LedgerLine is one posting in an account's general ledger.
type LedgerLine struct {
	Date        time.Time
	EntryID     int
	Description string
	Kind        ledger.EntryKind
	Debit       decimal.Decimal
	Credit      decimal.Decimal

	// Balance is the account's running net balance after this line.
	Balance decimal.Decimal
}

// AccountLedger lists the postings of one account with their totals.
type AccountLedger struct {
	Account *ledger.Account
	Lines   []LedgerLine
	Debit   decimal.Decimal
	Credit  decimal.Decimal
	Balance decimal.Decimal
}

// GeneralLedger groups the journal's postings by account, in chart order,
// each account's lines ordered by date and entry id. Accounts without
// postings are included with no lines.
func GeneralLedger(ctx context.Context, chart *ledger.Chart, journal *ledger.Journal) ([]AccountLedger, error) {
	timer := telemetry.StartTimer(ctx, "statement.general_ledger")
	defer timer.End()

	if err := ledger.Validate(telemetry.WithRootTimer(ctx, timer), chart, journal); err != nil {
		return nil, err
	}

	accounts := chart.Accounts()
	out := make([]AccountLedger, len(accounts))
	index := accountIndex(chart)
	for i, a := range accounts {
		out[i] = AccountLedger{Account: a, Debit: decimal.Zero, Credit: decimal.Zero, Balance: decimal.Zero}
	}

	for _, e := range journal.Sorted() {
		for _, p := range e.Postings {
			al := &out[index[p.Account]]
			line := LedgerLine{
				Date:        e.Date,
				EntryID:     e.ID,
				Description: e.Description,
				Kind:        e.Kind,
				Debit:       decimal.Zero,
				Credit:      decimal.Zero,
			}
			if p.Action == ledger.Debit {
				line.Debit = p.Amount
				al.Debit = al.Debit.Add(p.Amount)
			} else {
				line.Credit = p.Amount
				al.Credit = al.Credit.Add(p.Amount)
			}
			al.Balance = al.Balance.Add(al.Account.NetAmount(p.Action, p.Amount))
			line.Balance = al.Balance
			al.Lines = append(al.Lines, line)
		}
	}
	return out, nil
}
