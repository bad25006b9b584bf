package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/statements/budget"
	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/period"
	"github.com/robinvdvleuten/statements/statement"
)

// maxLabelWidth truncates long account labels.
const maxLabelWidth = 48

func label(indent int, s string) cell {
	return plain(strings.Repeat("  ", indent) + runewidth.Truncate(s, maxLabelWidth, "…"))
}

func accountLabel(a *ledger.Account) string {
	if len(a.Category) == 0 {
		return a.Name
	}
	return fmt.Sprintf("%s (%s)", a.Name, strings.Join(a.Category, ":"))
}

// pivoted holds aggregate rows as one series per account.
type pivoted struct {
	periods  []period.Period
	accounts []*ledger.Account
	values   map[*ledger.Account][]decimal.Decimal
}

// pivot keeps the order rows arrive in for both accounts and periods.
func pivot(rows []statement.AggregateRow) pivoted {
	p := pivoted{values: make(map[*ledger.Account][]decimal.Decimal)}
	columns := make(map[period.Period]int)
	for _, r := range rows {
		if _, ok := columns[r.Period]; !ok {
			columns[r.Period] = len(p.periods)
			p.periods = append(p.periods, r.Period)
		}
	}
	for _, r := range rows {
		values, ok := p.values[r.Account]
		if !ok {
			values = make([]decimal.Decimal, len(p.periods))
			for i := range values {
				values[i] = decimal.Zero
			}
			p.values[r.Account] = values
			p.accounts = append(p.accounts, r.Account)
		}
		values[columns[r.Period]] = values[columns[r.Period]].Add(r.Amount)
	}
	return p
}

func (p pivoted) header(first string) []string {
	header := []string{first}
	for _, per := range p.periods {
		header = append(header, per.String())
	}
	return header
}

func (p pivoted) span() string {
	if len(p.periods) == 0 {
		return "no periods"
	}
	return fmt.Sprintf("%s..%s", p.periods[0], p.periods[len(p.periods)-1])
}

// grouped renders accounts under a heading per account type with a total
// line per type, and returns the totals.
func (p pivoted) grouped(t *table, o Options) map[ledger.AccountType][]decimal.Decimal {
	totals := make(map[ledger.AccountType][]decimal.Decimal)
	var current ledger.AccountType
	flush := func() {
		if sums, ok := totals[current]; ok {
			t.add(o.valuesRow(label(1, "Total "+current.String()), sums)...)
		}
	}
	for _, a := range p.accounts {
		if _, ok := totals[a.Type]; !ok {
			flush()
			current = a.Type
			totals[a.Type] = zeros(len(p.periods))
			heading := label(0, strings.ToUpper(a.Type.String()[:1])+a.Type.String()[1:])
			if o.Styles != nil {
				heading.style = o.Styles.Keyword
			}
			t.add(heading)
		}
		values := p.values[a]
		sums := totals[a.Type]
		for i, v := range values {
			sums[i] = sums[i].Add(v)
		}
		row := label(1, accountLabel(a))
		if o.Styles != nil {
			row.style = o.Styles.Account
		}
		t.add(o.valuesRow(row, values)...)
	}
	flush()
	return totals
}

func (o Options) valuesRow(first cell, values []decimal.Decimal) []cell {
	row := []cell{first}
	for _, v := range values {
		row = append(row, o.amountCell(v))
	}
	return row
}

func zeros(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	return out
}

// CashFlow renders net flow per account and period, grouped by account
// type, followed by net income (income minus expense).
func CashFlow(w io.Writer, rows []statement.AggregateRow, o Options) error {
	p := pivot(rows)
	if err := o.title(w, "Cash flow %s", p.span()); err != nil {
		return err
	}

	t := &table{header: p.header("Account")}
	totals := p.grouped(t, o)

	income, expense := totals[ledger.AccountTypeIncome], totals[ledger.AccountTypeExpense]
	if income != nil || expense != nil {
		net := zeros(len(p.periods))
		for i := range net {
			if income != nil {
				net[i] = net[i].Add(income[i])
			}
			if expense != nil {
				net[i] = net[i].Sub(expense[i])
			}
		}
		t.rule()
		heading := label(0, "Net income")
		if o.Styles != nil {
			heading.style = o.Styles.Keyword
		}
		t.add(o.valuesRow(heading, net)...)
	}
	return t.render(w, o.Styles)
}

// BalanceSheet renders period-end balances per account, grouped by account
// type.
func BalanceSheet(w io.Writer, rows []statement.AggregateRow, o Options) error {
	p := pivot(rows)
	if err := o.title(w, "Balance sheet %s", p.span()); err != nil {
		return err
	}

	t := &table{header: p.header("Account")}
	p.grouped(t, o)
	return t.render(w, o.Styles)
}

// Variance renders target, actual and variance per budgeted account.
func Variance(w io.Writer, rows []budget.VarianceRow, o Options) error {
	var (
		periods  []period.Period
		accounts []*ledger.Account
		byKey    = make(map[*ledger.Account][]budget.VarianceRow)
	)
	seen := make(map[period.Period]bool)
	for _, r := range rows {
		if !seen[r.Period] {
			seen[r.Period] = true
			periods = append(periods, r.Period)
		}
		if _, ok := byKey[r.Account]; !ok {
			accounts = append(accounts, r.Account)
		}
		byKey[r.Account] = append(byKey[r.Account], r)
	}

	span := "no periods"
	if len(periods) > 0 {
		span = fmt.Sprintf("%s..%s", periods[0], periods[len(periods)-1])
	}
	if err := o.title(w, "Budget vs actuals %s", span); err != nil {
		return err
	}

	header := []string{"Account"}
	for _, p := range periods {
		header = append(header, p.String())
	}
	t := &table{header: header}
	for n, a := range accounts {
		if n > 0 {
			t.rule()
		}
		target, actual, variance := []cell{label(0, accountLabel(a))}, []cell{label(1, "actual")}, []cell{label(1, "variance")}
		if o.Styles != nil {
			target[0].style = o.Styles.Account
		}
		for _, r := range byKey[a] {
			target = append(target, o.amountCell(r.Target))
			actual = append(actual, o.amountCell(r.Actual))
			variance = append(variance, o.amountCell(r.Variance))
		}
		t.add(target...)
		t.add(actual...)
		t.add(variance...)
	}
	return t.render(w, o.Styles)
}

// Gains renders gain inference diagnostics. Interpolated differences are
// marked with an asterisk.
func Gains(w io.Writer, diags []statement.GainDiagnostic, o Options) error {
	if err := o.title(w, "Unrealized gains"); err != nil {
		return err
	}

	t := &table{header: []string{"Account", "Period", "Observed", "Computed", "Difference", "Gain", "Entry"}}
	var last *ledger.Account
	for _, d := range diags {
		if last != nil && d.Account != last {
			t.rule()
		}
		last = d.Account

		observed := plain("-")
		if d.Observed.Valid {
			observed = o.amountCell(d.Observed.Decimal)
		}
		diff := o.amountCell(d.Diff)
		if d.Interpolated {
			diff.text += "*"
			if o.Styles != nil {
				diff.style = o.Styles.Warning
			}
		} else {
			diff.text += " "
		}
		entry := plain("")
		if d.EntryID != 0 {
			entry = plain("#" + strconv.Itoa(d.EntryID))
		}
		t.add(label(0, d.Account.Name), plain(d.Period.String()), observed, o.amountCell(d.Computed), diff, o.amountCell(d.Gain), entry)
	}
	if err := t.render(w, o.Styles); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, "* interpolated between observed balances")
	return err
}

// Reconcile renders observed against computed balances.
func Reconcile(w io.Writer, rows []statement.ReconcileRow, o Options) error {
	if err := o.title(w, "Reconciliation"); err != nil {
		return err
	}

	t := &table{header: []string{"Account", "Period", "Observed", "Computed", "Difference"}}
	for _, r := range rows {
		observed, diff := plain("-"), plain("-")
		if r.Observed.Valid {
			observed = o.amountCell(r.Observed.Decimal)
			diff = o.amountCell(r.Diff.Decimal)
		}
		t.add(label(0, r.Account.Name), plain(r.Period.String()), observed, o.amountCell(r.Computed), diff)
	}
	return t.render(w, o.Styles)
}

// GeneralLedger renders the postings of every account that has any.
func GeneralLedger(w io.Writer, accounts []statement.AccountLedger, o Options) error {
	for _, al := range accounts {
		if len(al.Lines) == 0 {
			continue
		}
		if err := o.title(w, "%s", accountLabel(al.Account)); err != nil {
			return err
		}

		t := &table{header: []string{"Entry", "Debit", "Credit", "Balance"}}
		for _, l := range al.Lines {
			debit, credit := plain(""), plain("")
			if !l.Debit.IsZero() {
				debit = plain(o.Amount(l.Debit))
			}
			if !l.Credit.IsZero() {
				credit = plain(o.Amount(l.Credit))
			}
			t.add(entryLabel(l.Date, l.EntryID, l.Description), debit, credit, o.amountCell(l.Balance))
		}
		t.rule()
		t.add(label(0, "Total"), plain(o.Amount(al.Debit)), plain(o.Amount(al.Credit)), o.amountCell(al.Balance))
		if err := t.render(w, o.Styles); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// Entries renders journal entries with their postings.
func Entries(w io.Writer, entries []*ledger.JournalEntry, o Options) error {
	t := &table{header: []string{"Entry", "Debit", "Credit"}}
	for _, e := range entries {
		t.add(entryLabel(e.Date, e.ID, e.Description))
		for _, p := range e.Postings {
			account := label(1, p.Account)
			if o.Styles != nil {
				account.style = o.Styles.Account
			}
			if p.Action == ledger.Debit {
				t.add(account, plain(o.Amount(p.Amount)), plain(""))
			} else {
				t.add(account, plain(""), plain(o.Amount(p.Amount)))
			}
		}
	}
	return t.render(w, o.Styles)
}

func entryLabel(date time.Time, id int, description string) cell {
	return label(0, fmt.Sprintf("%s #%d %s", date.Format(time.DateOnly), id, description))
}
