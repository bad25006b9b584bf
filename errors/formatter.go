// Package errors renders validation and load errors as structured JSON for
// the web API and for machine readable CLI output.
//
// Domain error types remain in their packages (ledger, period, loader); this
// package only extracts what they expose through their Get* accessors.
package errors

import (
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/loader"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	// Format formats a single error.
	Format(err error) string

	// FormatAll formats multiple errors.
	FormatAll(errs []error) string
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type     string                 `json:"type"`
	Message  string                 `json:"message"`
	Position *PositionJSON          `json:"position,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// PositionJSON represents a position in a CSV file. Column is the header of
// the offending column.
type PositionJSON struct {
	Line   int    `json:"line"`
	Column string `json:"column,omitempty"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	errJSON := jf.toJSON(err)
	data, _ := json.Marshal(errJSON)
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	jsonErrors := jf.FormatAllToSlice(errs)
	data, _ := json.MarshalIndent(jsonErrors, "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as a slice of ErrorJSON structs.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.toJSON(err))
	}
	return result
}

// Flatten returns the errors aggregated in err, or err itself when it is not
// a *ledger.ValidationErrors.
func Flatten(err error) []error {
	if err == nil {
		return nil
	}
	var validationErrors *ledger.ValidationErrors
	if stdErrors.As(err, &validationErrors) {
		return validationErrors.Errors
	}
	return []error{err}
}

// toJSON converts an error to ErrorJSON.
func (jf *JSONFormatter) toJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
		Details: make(map[string]interface{}),
	}

	var parseErr *loader.ParseError
	if stdErrors.As(err, &parseErr) {
		errJSON.Type = fmt.Sprintf("%T", parseErr)
		errJSON.Position = &PositionJSON{
			Line:   parseErr.Line,
			Column: parseErr.Column,
		}
	}

	if e, ok := err.(interface{ GetAccount() string }); ok && e.GetAccount() != "" {
		errJSON.Details["account"] = e.GetAccount()
	}
	if e, ok := err.(interface{ GetEntryID() int }); ok && e.GetEntryID() != 0 {
		errJSON.Details["entryId"] = e.GetEntryID()
	}
	if e, ok := err.(interface{ GetDate() time.Time }); ok && !e.GetDate().IsZero() {
		errJSON.Details["date"] = e.GetDate().Format(time.DateOnly)
	}
	if e, ok := err.(*ledger.UnbalancedEntryError); ok {
		errJSON.Details["residual"] = e.Residual().String()
	}

	if len(errJSON.Details) == 0 {
		errJSON.Details = nil
	}
	return errJSON
}
