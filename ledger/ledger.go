// Package ledger provides the accounting model the statement engine computes
// over: a chart of accounts, a journal of balanced double-entry postings and
// externally observed balance snapshots.
//
// The ledger does not persist or mutate anything. A chart and a journal are
// handed in fully materialized, validated once, and never changed afterwards;
// generated entries are appended to a new Journal value.
//
// Validation checks that:
//   - Account ids and names are unique, and closing accounts exist
//   - Every entry has at least two postings with non-negative amounts
//   - Every posting references an account of the chart
//   - The debits of every entry equal its credits
//
// Example usage:
//
//	chart, err := ledger.NewChart(accounts...)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	journal := ledger.NewJournal(entries...)
//	if err := ledger.Validate(ctx, chart, journal); err != nil {
//	    var verr *ledger.ValidationErrors
//	    if errors.As(err, &verr) {
//	        for _, e := range verr.Errors {
//	            fmt.Println(e)
//	        }
//	    }
//	}
package ledger

import "fmt"

// ValidationErrors wraps multiple validation errors
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d validation errors occurred", len(e.Errors))
}

// Unwrap returns the underlying errors for error unwrapping
func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}
