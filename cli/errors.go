package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/robinvdvleuten/statements/ledger"
)

var (
	errCaretStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#FF5F87", Dark: "#FF5F87"})
	errContextStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#808080", Dark: "#808080"})
)

// ErrorRenderer renders errors with terminal styling and the journal entry
// they refer to.
type ErrorRenderer struct {
	entries map[int]*ledger.JournalEntry
}

// NewErrorRenderer creates a renderer looking up entries in journal, which
// may be nil.
func NewErrorRenderer(journal *ledger.Journal) *ErrorRenderer {
	r := &ErrorRenderer{entries: make(map[int]*ledger.JournalEntry)}
	if journal != nil {
		for _, e := range journal.Entries() {
			r.entries[e.ID] = e
		}
	}
	return r
}

// Render formats a single error with styling and context.
func (r *ErrorRenderer) Render(err error) string {
	if e, ok := err.(interface{ GetEntryID() int }); ok {
		if entry, found := r.entries[e.GetEntryID()]; found {
			return r.renderWithEntry(err, entry)
		}
	}
	return errorStyle.Render(err.Error())
}

// RenderAll formats multiple errors, separating them with blank lines.
func (r *ErrorRenderer) RenderAll(errs []error) string {
	if len(errs) == 0 {
		return ""
	}

	var buf strings.Builder
	for i, err := range errs {
		buf.WriteString(r.Render(err))

		if i < len(errs)-1 {
			buf.WriteString("\n\n")
		}
	}

	return buf.String()
}

// renderWithEntry prints the entry below the message, marking the postings on
// the account the error names.
func (r *ErrorRenderer) renderWithEntry(err error, entry *ledger.JournalEntry) string {
	var account string
	if e, ok := err.(interface{ GetAccount() string }); ok {
		account = e.GetAccount()
	}

	var buf strings.Builder
	buf.WriteString(errorStyle.Render(err.Error()))
	buf.WriteString("\n\n")

	header := fmt.Sprintf("%s #%d %q", entry.Date.Format(time.DateOnly), entry.ID, entry.Description)
	buf.WriteString("   ")
	buf.WriteString(errContextStyle.Render(header))
	buf.WriteByte('\n')

	for _, p := range entry.Postings {
		line := fmt.Sprintf("  %-6s %s  %s", p.Action, p.Account, p.Amount.StringFixed(2))
		buf.WriteString("   ")
		buf.WriteString(errContextStyle.Render(line))
		if account != "" && p.Account == account {
			buf.WriteString(errCaretStyle.Render("  <"))
		}
		buf.WriteByte('\n')
	}

	return buf.String()
}

// reportErrors prints err and returns the error the command exits with.
// Validation errors are listed one by one with their entries.
func reportErrors(w io.Writer, journal *ledger.Journal, err error) error {
	var validationErrors *ledger.ValidationErrors
	if !errors.As(err, &validationErrors) {
		printError(w, err.Error())
		return NewCommandError(1)
	}

	renderer := NewErrorRenderer(journal)
	_, _ = fmt.Fprintln(w, renderer.RenderAll(validationErrors.Errors))
	_, _ = fmt.Fprintln(w)
	printError(w, fmt.Sprintf("%d validation error(s) found", len(validationErrors.Errors)))

	return NewCommandError(1)
}
