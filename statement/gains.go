package statement

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/logger"
	"github.com/robinvdvleuten/statements/period"
	"github.com/robinvdvleuten/statements/telemetry"
)

// GainDiagnostic explains the gain inferred for an account in one period.
type GainDiagnostic struct {
	Account  *ledger.Account
	Period   period.Period
	Observed decimal.NullDecimal
	Computed decimal.Decimal

	// Diff is observed minus computed. Interpolated is set when no snapshot
	// fell in the period and Diff was filled in from its neighbours.
	Diff         decimal.Decimal
	Interpolated bool

	// Gain is the change of Diff since the previous period, and EntryID the
	// entry booking it. EntryID is zero when Gain is zero.
	Gain    decimal.Decimal
	EntryID int
}

// InferGains books the drift between observed and computed balances as
// unrealized gains.
//
// For each account with snapshots, the drift is measured in every period from
// the one holding its first snapshot through the end of rng. Periods without
// a snapshot are filled by linear interpolation between the nearest
// observations, and hold the last observation after it. Every nonzero change
// of the drift becomes one entry dated on the last day of its period, offset
// against the configured gains account.
//
// The returned journal holds the journal's entries followed by the gain
// entries. Statements built from it reconcile with every snapshot.
func InferGains(ctx context.Context, chart *ledger.Chart, journal *ledger.Journal, stmt *Statement, snapshots []ledger.BalanceSnapshot, rng period.Range) (*ledger.Journal, []GainDiagnostic, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("statement.infer_gains %s (%d snapshots)", rng, len(snapshots)))
	defer timer.End()

	if err := stmt.checkRange(rng); err != nil {
		return nil, nil, err
	}
	if err := ledger.ValidateSnapshots(chart, snapshots); err != nil {
		return nil, nil, err
	}
	if len(snapshots) == 0 {
		return journal, nil, nil
	}

	cfg := ConfigFromContext(ctx)
	gainsAccount, err := chart.Lookup(cfg.GainsAccount, "gains account")
	if err != nil {
		return nil, nil, err
	}

	byAccount := make(map[string][]ledger.BalanceSnapshot)
	for _, s := range snapshots {
		if s.Account == gainsAccount.Name {
			return nil, nil, &ledger.InvalidSnapshotError{
				Account: s.Account,
				Date:    s.Date,
				Reason:  "the gains account cannot be reconciled against itself",
			}
		}
		byAccount[s.Account] = append(byAccount[s.Account], s)
	}

	var accounts []*ledger.Account
	for _, a := range chart.Accounts() {
		if _, ok := byAccount[a.Name]; ok {
			accounts = append(accounts, a)
		}
	}

	rows := stmt.rowsByAccount()
	results := make([][]GainDiagnostic, len(accounts))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.Parallelism)
	for i, a := range accounts {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			diags, err := inferAccount(a, rows[a.Name], byAccount[a.Name], rng)
			if err != nil {
				return err
			}
			results[i] = diags
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	var (
		entries     []*ledger.JournalEntry
		diagnostics []GainDiagnostic
	)
	id := max(journal.NextID(), stmt.NextEntryID())
	for i, a := range accounts {
		policy := cfg.Policy(a.Type)
		for _, d := range results[i] {
			if !d.Gain.IsZero() {
				d.EntryID = id
				entries = append(entries, gainEntry(id, a, gainsAccount, d.Period, d.Gain, policy))
				id++
			}
			diagnostics = append(diagnostics, d)
		}
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Int("accounts", len(accounts)).
		Int("entries", len(entries)).
		Msg("gains inferred")

	return journal.Append(entries...), diagnostics, nil
}

// inferAccount measures one account's drift from its first snapshot through
// the end of rng.
func inferAccount(a *ledger.Account, rows []Row, snapshots []ledger.BalanceSnapshot, rng period.Range) ([]GainDiagnostic, error) {
	first := snapshots[0].Date
	for _, s := range snapshots[1:] {
		if s.Date.Before(first) {
			first = s.Date
		}
	}

	span, err := period.NewRange(rng.Frequency(), first, rng.End().AddDate(0, 0, -1))
	if err != nil {
		var empty *period.EmptyRangeError
		if errors.As(err, &empty) {
			// first observation lies after the reporting end
			return nil, nil
		}
		return nil, err
	}

	observed := observations(snapshots, span)[a.Name]
	computed := runningBalances(rows, span)

	known := make([]bool, span.Len())
	diffs := make([]decimal.Decimal, span.Len())
	for i := range diffs {
		if observed[i].Valid {
			known[i] = true
			diffs[i] = observed[i].Decimal.Sub(computed[i])
		}
	}
	interpolate(diffs, known)

	out := make([]GainDiagnostic, span.Len())
	prev := decimal.Zero
	for i, p := range span.All() {
		out[i] = GainDiagnostic{
			Account:      a,
			Period:       p,
			Observed:     observed[i],
			Computed:     computed[i],
			Diff:         diffs[i],
			Interpolated: !known[i],
			Gain:         diffs[i].Sub(prev),
		}
		prev = diffs[i]
	}
	return out, nil
}

// interpolate fills the values not marked known in place. Gaps between two
// known values are filled linearly. Values before the first known one take its value, values after the
// last known one hold it. Without any known value everything becomes zero.
func interpolate(values []decimal.Decimal, known []bool) {
	prev := -1
	for i := range values {
		if !known[i] {
			continue
		}
		switch {
		case prev < 0:
			for j := 0; j < i; j++ {
				values[j] = values[i]
			}
		case i-prev > 1:
			a, b := values[prev], values[i]
			steps := decimal.NewFromInt(int64(i - prev))
			for j := prev + 1; j < i; j++ {
				offset := b.Sub(a).Mul(decimal.NewFromInt(int64(j - prev))).Div(steps)
				values[j] = a.Add(offset)
			}
		}
		prev = i
	}

	if prev < 0 {
		for i := range values {
			values[i] = decimal.Zero
		}
		return
	}
	for j := prev + 1; j < len(values); j++ {
		values[j] = values[prev]
	}
}

func gainEntry(id int, a, gains *ledger.Account, p period.Period, gain decimal.Decimal, policy SignPolicy) *ledger.JournalEntry {
	own := a.Posting(gain)
	if policy == SignInverted {
		own.Action = own.Action.Flip()
	}
	offset := ledger.Posting{Account: gains.Name, Action: own.Action.Flip(), Amount: own.Amount}

	kind := "gain"
	if gain.IsNegative() {
		kind = "loss"
	}
	return &ledger.JournalEntry{
		ID:          id,
		Date:        p.LastDay(),
		Description: fmt.Sprintf("Unrealized %s on %s (%s)", kind, a.Name, p),
		Kind:        ledger.EntryGain,
		Postings:    []ledger.Posting{own, offset},
	}
}
