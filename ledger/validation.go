package ledger

import (
	"context"
	"fmt"

	"github.com/robinvdvleuten/statements/logger"
	"github.com/robinvdvleuten/statements/telemetry"
)

// Validate checks every entry of the journal against the chart and returns
// all defects found as *ValidationErrors.
func Validate(ctx context.Context, chart *Chart, journal *Journal) error {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("ledger.validate (%d entries)", journal.Len()))
	defer timer.End()

	var errs []error
	seen := make(map[int]bool, journal.Len())
	for _, e := range journal.Entries() {
		if seen[e.ID] {
			errs = append(errs, &DuplicateEntryError{EntryID: e.ID, Date: e.Date})
		}
		seen[e.ID] = true
		errs = append(errs, ValidateEntry(chart, e)...)
	}

	if len(errs) > 0 {
		log := logger.FromContext(ctx)
		log.Debug().Int("errors", len(errs)).Msg("journal validation failed")
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

// ValidateEntry checks a single entry and returns its defects.
func ValidateEntry(chart *Chart, e *JournalEntry) []error {
	var errs []error
	if len(e.Postings) < 2 {
		errs = append(errs, &InvalidPostingError{
			EntryID: e.ID,
			Date:    e.Date,
			Reason:  fmt.Sprintf("entry has %d posting(s), at least 2 required", len(e.Postings)),
		})
	}
	for _, p := range e.Postings {
		if _, ok := chart.Account(p.Account); !ok {
			errs = append(errs, &UnknownAccountError{Account: p.Account, EntryID: e.ID, Date: e.Date})
		}
		if p.Amount.IsNegative() {
			errs = append(errs, &InvalidPostingError{
				EntryID: e.ID,
				Date:    e.Date,
				Account: p.Account,
				Reason:  fmt.Sprintf("negative amount %s", p.Amount),
			})
		}
	}
	if debit, credit := e.Totals(); !debit.Equal(credit) {
		errs = append(errs, &UnbalancedEntryError{
			EntryID:     e.ID,
			Date:        e.Date,
			Description: e.Description,
			Debit:       debit,
			Credit:      credit,
		})
	}
	return errs
}

// ValidateSnapshots checks that every snapshot references a known account.
func ValidateSnapshots(chart *Chart, snapshots []BalanceSnapshot) error {
	var errs []error
	for _, s := range snapshots {
		if _, ok := chart.Account(s.Account); !ok {
			errs = append(errs, &UnknownAccountError{Account: s.Account, Date: s.Date, Referrer: "balance snapshot"})
		}
	}
	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}
