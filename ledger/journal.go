package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Action is the side of a posting.
type Action int

const (
	Debit Action = iota
	Credit
)

func (a Action) String() string {
	if a == Credit {
		return "credit"
	}
	return "debit"
}

// Flip returns the opposite side.
func (a Action) Flip() Action {
	if a == Debit {
		return Credit
	}
	return Debit
}

// ParseAction parses "debit" or "credit".
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debit", "dr":
		return Debit, nil
	case "credit", "cr":
		return Credit, nil
	default:
		return Debit, fmt.Errorf("invalid action %q, expected debit or credit", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// Posting is one debit or credit line of a journal entry. Amount is unsigned.
type Posting struct {
	Account string
	Action  Action
	Amount  decimal.Decimal
}

// EntryKind tells recorded entries apart from the ones generated by the
// statement engine.
type EntryKind int

const (
	EntryRecorded EntryKind = iota
	EntryGain
	EntryClosing
)

func (k EntryKind) String() string {
	switch k {
	case EntryGain:
		return "gain"
	case EntryClosing:
		return "closing"
	default:
		return "recorded"
	}
}

// JournalEntry is a dated, balanced set of postings. Entries are never
// modified once they are part of a Journal.
type JournalEntry struct {
	ID          int
	Date        time.Time
	Description string
	Kind        EntryKind
	Postings    []Posting
}

// Totals returns the sum of debit and credit amounts.
func (e *JournalEntry) Totals() (debit, credit decimal.Decimal) {
	debit, credit = decimal.Zero, decimal.Zero
	for _, p := range e.Postings {
		if p.Action == Debit {
			debit = debit.Add(p.Amount)
		} else {
			credit = credit.Add(p.Amount)
		}
	}
	return debit, credit
}

// IsBalanced reports whether debits equal credits.
func (e *JournalEntry) IsBalanced() bool {
	debit, credit := e.Totals()
	return debit.Equal(credit)
}

// Journal is an append-only sequence of journal entries.
type Journal struct {
	entries []*JournalEntry
	nextID  int
}

// NewJournal creates a journal holding entries.
func NewJournal(entries ...*JournalEntry) *Journal {
	j := &Journal{nextID: 1}
	return j.Append(entries...)
}

// Append returns a new journal holding j's entries followed by entries. The
// receiver is left untouched.
func (j *Journal) Append(entries ...*JournalEntry) *Journal {
	out := &Journal{
		entries: make([]*JournalEntry, 0, len(j.entries)+len(entries)),
		nextID:  max(j.nextID, 1),
	}
	out.entries = append(out.entries, j.entries...)
	for _, e := range entries {
		out.entries = append(out.entries, e)
		out.nextID = max(out.nextID, e.ID+1)
	}
	return out
}

// Entries returns the entries in insertion order. Callers must not modify them.
func (j *Journal) Entries() []*JournalEntry { return j.entries }

// Len returns the number of entries.
func (j *Journal) Len() int { return len(j.entries) }

// NextID returns an id greater than every id in the journal.
func (j *Journal) NextID() int { return max(j.nextID, 1) }

// Sorted returns the entries ordered by date, then by id.
func (j *Journal) Sorted() []*JournalEntry {
	sorted := slices.Clone(j.entries)
	slices.SortStableFunc(sorted, func(a, b *JournalEntry) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.ID - b.ID
	})
	return sorted
}

// BalanceSnapshot is an externally observed balance of an account on a date,
// such as the closing balance printed on a custodian statement.
type BalanceSnapshot struct {
	Account string
	Date    time.Time
	Balance decimal.Decimal
}
