package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/statements/ledger"
)

// ParseError locates a malformed value in a CSV file.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d: column %s: %v", e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// table reads a CSV file with a header row.
type table struct {
	r      *csv.Reader
	header map[string]int
	row    []string
}

func newTable(r io.Reader, required ...string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, &ParseError{Line: 1, Err: errors.New("missing header row")}
	}
	if err != nil {
		return nil, err
	}

	t := &table{r: cr, header: make(map[string]int, len(header))}
	for i, name := range header {
		t.header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := t.header[name]; !ok {
			return nil, &ParseError{Line: 1, Column: name, Err: errors.New("missing column")}
		}
	}
	return t, nil
}

// next advances to the next non-blank row. It returns false at the end of
// the file.
func (t *table) next() (bool, error) {
	for {
		row, err := t.r.Read()
		if err == io.EOF {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		t.row = row
		return true, nil
	}
}

func (t *table) line() int {
	line, _ := t.r.FieldPos(0)
	return line
}

// get returns the trimmed value of a column, empty when absent.
func (t *table) get(column string) string {
	i, ok := t.header[column]
	if !ok || i >= len(t.row) {
		return ""
	}
	return strings.TrimSpace(t.row[i])
}

func (t *table) errorf(column string, format string, args ...any) error {
	return &ParseError{Line: t.line(), Column: column, Err: fmt.Errorf(format, args...)}
}

func (t *table) intValue(column string) (int, error) {
	v := t.get(column)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, t.errorf(column, "invalid integer %q", v)
	}
	return n, nil
}

func (t *table) dateValue(column string) (time.Time, error) {
	v := t.get(column)
	d, err := parseDate(v)
	if err != nil {
		return time.Time{}, t.errorf(column, "invalid date %q, expected YYYY-MM-DD", v)
	}
	return d, nil
}

func (t *table) decimalValue(column string) (decimal.Decimal, error) {
	v := t.get(column)
	d, err := decimal.NewFromString(strings.ReplaceAll(v, ",", ""))
	if err != nil {
		return decimal.Zero, t.errorf(column, "invalid amount %q", v)
	}
	return d, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// ReadChart reads a chart of accounts with the columns
// id,name,type,category,debit_increases_balance,closing_account. A blank
// debit_increases_balance follows the convention of the account type.
func ReadChart(r io.Reader) (*ledger.Chart, error) {
	t, err := newTable(r, "id", "name", "type")
	if err != nil {
		return nil, err
	}

	var accounts []*ledger.Account
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		id, err := t.intValue("id")
		if err != nil {
			return nil, err
		}
		name := t.get("name")
		if name == "" {
			return nil, t.errorf("name", "account %d has no name", id)
		}
		typ := ledger.ParseAccountType(t.get("type"))
		if typ == ledger.AccountTypeUnknown {
			return nil, t.errorf("type", "unknown account type %q", t.get("type"))
		}

		a := ledger.NewAccount(id, name, typ, t.get("category"))
		if v := t.get("debit_increases_balance"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return nil, t.errorf("debit_increases_balance", "invalid boolean %q", v)
			}
			a.DebitIncreasesBalance = b
		}
		a.ClosingAccount = t.get("closing_account")
		accounts = append(accounts, a)
	}
	return ledger.NewChart(accounts...)
}

var splitColumn = regexp.MustCompile(`^split_(\d+)_(account_id|account_name|account_action|amount)$`)

// splitColumns returns the split numbers present in a journal header, in
// ascending order.
func splitColumns(header map[string]int) []int {
	seen := map[int]bool{}
	var splits []int
	for name := range header {
		m := splitColumn.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		if !seen[n] {
			seen[n] = true
			splits = append(splits, n)
		}
	}
	slices.Sort(splits)
	return splits
}

func splitName(n int, field string) string {
	return fmt.Sprintf("split_%d_%s", n, field)
}

// ReadJournal reads journal entries with the columns
// id,source_file,source_file_line,input_type,date,description followed by
// split_N_account_id, split_N_account_name, split_N_account_action and
// split_N_amount for every split N. Splits reference accounts by id, or by
// name when the id is blank. Blank splits are skipped.
func ReadJournal(r io.Reader, chart *ledger.Chart) ([]*ledger.JournalEntry, error) {
	t, err := newTable(r, "id", "date")
	if err != nil {
		return nil, err
	}
	splits := splitColumns(t.header)

	var entries []*ledger.JournalEntry
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		e := &ledger.JournalEntry{Description: t.get("description"), Kind: parseKind(t.get("input_type"))}
		if e.ID, err = t.intValue("id"); err != nil {
			return nil, err
		}
		if e.Date, err = t.dateValue("date"); err != nil {
			return nil, err
		}

		for _, n := range splits {
			p, ok, err := readSplit(t, chart, e, n)
			if err != nil {
				return nil, err
			}
			if ok {
				e.Postings = append(e.Postings, p)
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func readSplit(t *table, chart *ledger.Chart, e *ledger.JournalEntry, n int) (ledger.Posting, bool, error) {
	idCol, nameCol := splitName(n, "account_id"), splitName(n, "account_name")
	actionCol, amountCol := splitName(n, "account_action"), splitName(n, "amount")
	if t.get(idCol) == "" && t.get(nameCol) == "" && t.get(actionCol) == "" && t.get(amountCol) == "" {
		return ledger.Posting{}, false, nil
	}

	var p ledger.Posting
	if t.get(idCol) != "" {
		id, err := t.intValue(idCol)
		if err != nil {
			return p, false, err
		}
		a, ok := chart.AccountByID(id)
		if !ok {
			return p, false, &ledger.UnknownAccountError{Account: strconv.Itoa(id), EntryID: e.ID, Date: e.Date}
		}
		if name := t.get(nameCol); name != "" && name != a.Name {
			return p, false, t.errorf(nameCol, "account %d is named %q, not %q", id, a.Name, name)
		}
		p.Account = a.Name
	} else {
		p.Account = t.get(nameCol)
	}

	action, err := ledger.ParseAction(t.get(actionCol))
	if err != nil {
		return p, false, &ParseError{Line: t.line(), Column: actionCol, Err: err}
	}
	p.Action = action

	if p.Amount, err = t.decimalValue(amountCol); err != nil {
		return p, false, err
	}
	return p, true, nil
}

func parseKind(inputType string) ledger.EntryKind {
	switch strings.ToLower(inputType) {
	case ledger.EntryGain.String():
		return ledger.EntryGain
	case ledger.EntryClosing.String():
		return ledger.EntryClosing
	default:
		return ledger.EntryRecorded
	}
}

// ReadSnapshots reads observed balances with the columns account,date,balance.
// Accounts are referenced by name.
func ReadSnapshots(r io.Reader, chart *ledger.Chart) ([]ledger.BalanceSnapshot, error) {
	t, err := newTable(r, "account", "date", "balance")
	if err != nil {
		return nil, err
	}

	var snapshots []ledger.BalanceSnapshot
	for {
		ok, err := t.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		s := ledger.BalanceSnapshot{Account: t.get("account")}
		if s.Date, err = t.dateValue("date"); err != nil {
			return nil, err
		}
		if s.Balance, err = t.decimalValue("balance"); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, s)
	}

	if err := ledger.ValidateSnapshots(chart, snapshots); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// WriteJournal writes entries in the journal layout read by ReadJournal. The
// entry kind is stored in the input_type column.
func WriteJournal(w io.Writer, chart *ledger.Chart, entries []*ledger.JournalEntry) error {
	splits := 2
	for _, e := range entries {
		splits = max(splits, len(e.Postings))
	}

	header := []string{"id", "source_file", "source_file_line", "input_type", "date", "description"}
	for n := 1; n <= splits; n++ {
		header = append(header,
			splitName(n, "account_id"),
			splitName(n, "account_name"),
			splitName(n, "account_action"),
			splitName(n, "amount"),
		)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range entries {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(e.ID), "", "", e.Kind.String(), e.Date.Format(time.DateOnly), e.Description)
		for _, p := range e.Postings {
			a, err := chart.Lookup(p.Account, fmt.Sprintf("entry %d", e.ID))
			if err != nil {
				return err
			}
			row = append(row, strconv.Itoa(a.ID), a.Name, p.Action.String(), p.Amount.String())
		}
		for len(row) < len(header) {
			row = append(row, "")
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
