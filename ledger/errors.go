package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Error types for chart and journal validation errors

// location identifies a journal entry in error messages.
func location(entryID int, date time.Time) string {
	if date.IsZero() {
		return fmt.Sprintf("entry %d", entryID)
	}
	return fmt.Sprintf("entry %d (%s)", entryID, date.Format(time.DateOnly))
}

// UnknownAccountError is returned when a posting, budget item, balance snapshot
// or closing account references an account missing from the chart.
type UnknownAccountError struct {
	Account  string
	EntryID  int       // Zero when the reference does not come from a journal entry
	Date     time.Time // Date of the referencing record, if any
	Referrer string    // Free-form description of the referencing record
}

func (e *UnknownAccountError) Error() string {
	switch {
	case e.EntryID != 0:
		return fmt.Sprintf("%s: Invalid reference to unknown account '%s'", location(e.EntryID, e.Date), e.Account)
	case e.Referrer != "":
		return fmt.Sprintf("%s: Invalid reference to unknown account '%s'", e.Referrer, e.Account)
	default:
		return fmt.Sprintf("Invalid reference to unknown account '%s'", e.Account)
	}
}

func (e *UnknownAccountError) GetAccount() string {
	return e.Account
}

func (e *UnknownAccountError) GetEntryID() int {
	return e.EntryID
}

func (e *UnknownAccountError) GetDate() time.Time {
	return e.Date
}

// UnbalancedEntryError is returned when the debits of an entry do not equal
// its credits.
type UnbalancedEntryError struct {
	EntryID     int
	Date        time.Time
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

func (e *UnbalancedEntryError) Error() string {
	return fmt.Sprintf("%s: Transaction does not balance: debits %s, credits %s (%q)",
		location(e.EntryID, e.Date), e.Debit, e.Credit, e.Description)
}

func (e *UnbalancedEntryError) GetEntryID() int {
	return e.EntryID
}

func (e *UnbalancedEntryError) GetDate() time.Time {
	return e.Date
}

// Residual returns debits minus credits.
func (e *UnbalancedEntryError) Residual() decimal.Decimal {
	return e.Debit.Sub(e.Credit)
}

// InvalidPostingError is returned for structurally invalid entries: fewer
// than two postings, or a negative amount.
type InvalidPostingError struct {
	EntryID int
	Date    time.Time
	Account string
	Reason  string
}

func (e *InvalidPostingError) Error() string {
	if e.Account == "" {
		return fmt.Sprintf("%s: %s", location(e.EntryID, e.Date), e.Reason)
	}
	return fmt.Sprintf("%s: %s on account '%s'", location(e.EntryID, e.Date), e.Reason, e.Account)
}

func (e *InvalidPostingError) GetEntryID() int {
	return e.EntryID
}

func (e *InvalidPostingError) GetAccount() string {
	return e.Account
}

// InvalidSnapshotError is returned for a balance snapshot that cannot be
// used, such as one observed on the gains account itself.
type InvalidSnapshotError struct {
	Account string
	Date    time.Time
	Reason  string
}

func (e *InvalidSnapshotError) Error() string {
	return fmt.Sprintf("balance snapshot of '%s' on %s: %s", e.Account, e.Date.Format(time.DateOnly), e.Reason)
}

func (e *InvalidSnapshotError) GetAccount() string {
	return e.Account
}

func (e *InvalidSnapshotError) GetDate() time.Time {
	return e.Date
}

// DuplicateEntryError is returned when two entries share an id.
type DuplicateEntryError struct {
	EntryID int
	Date    time.Time
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("%s: Duplicate entry id", location(e.EntryID, e.Date))
}

func (e *DuplicateEntryError) GetEntryID() int {
	return e.EntryID
}

// DuplicateAccountError is returned when two accounts share an id or a name.
type DuplicateAccountError struct {
	Account  string
	ID       int
	Previous string
}

func (e *DuplicateAccountError) Error() string {
	return fmt.Sprintf("account '%s' (id %d) collides with account '%s'", e.Account, e.ID, e.Previous)
}

func (e *DuplicateAccountError) GetAccount() string {
	return e.Account
}
