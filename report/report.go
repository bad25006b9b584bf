// Package report renders statement engine results as plaintext tables with
// periods as columns.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/statements/output"
)

var titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#5F5FD7", Dark: "#AFAFFF"})

// Options controls how reports are rendered.
type Options struct {
	// Currency is an ISO 4217 code amounts are displayed in. Amounts are
	// printed as plain decimals with two places when it is empty or unknown.
	Currency string

	// Styles colors headers and negative amounts. Nil renders plain text.
	Styles *output.Styles
}

// Amount formats a value for display.
func (o Options) Amount(d decimal.Decimal) string {
	if o.Currency != "" {
		if cur := money.GetCurrency(o.Currency); cur != nil {
			minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
			return money.New(minor, cur.Code).Display()
		}
	}
	return d.StringFixed(2)
}

// cell is a table cell. Text is measured unstyled; style is applied after
// padding so escape codes never disturb alignment.
type cell struct {
	text  string
	style func(string) string
}

func plain(text string) cell { return cell{text: text} }

// table is a left-aligned label column followed by right-aligned columns.
type table struct {
	header []string
	rows   [][]cell
	rules  map[int]bool
}

func (t *table) add(row ...cell) { t.rows = append(t.rows, row) }

// rule draws a separator above the next row.
func (t *table) rule() {
	if t.rules == nil {
		t.rules = map[int]bool{}
	}
	t.rules[len(t.rows)] = true
}

func (t *table) render(w io.Writer, styles *output.Styles) error {
	header := make([]cell, len(t.header))
	for i, h := range t.header {
		header[i] = plain(h)
		if styles != nil {
			header[i].style = styles.Header
		}
	}

	widths := make([]int, len(header))
	for _, row := range append([][]cell{header}, t.rows...) {
		for i, c := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(c.text))
			}
		}
	}
	ruleWidth := 2 * (len(widths) - 1)
	for _, w := range widths {
		ruleWidth += w
	}

	var b strings.Builder
	writeRow(&b, header, widths)
	for r, row := range t.rows {
		if t.rules[r] {
			line := strings.Repeat("─", ruleWidth)
			if styles != nil {
				line = styles.Dim(line)
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
		writeRow(&b, row, widths)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// writeRow pads every cell to its column width, then styles its text.
func writeRow(b *strings.Builder, row []cell, widths []int) {
	for i, width := range widths {
		c := plain("")
		if i < len(row) {
			c = row[i]
		}
		text := c.text
		if c.style != nil && text != "" {
			text = c.style(text)
		}
		padding := strings.Repeat(" ", max(width-runewidth.StringWidth(c.text), 0))

		if i > 0 {
			b.WriteString("  ")
		}
		if i == 0 {
			b.WriteString(text + padding)
		} else {
			b.WriteString(padding + text)
		}
	}
	b.WriteString("\n")
}

// amountCell formats an amount, colored by sign when styles are set.
func (o Options) amountCell(d decimal.Decimal) cell {
	c := plain(o.Amount(d))
	if o.Styles != nil {
		sign := d.Sign()
		c.style = func(s string) string { return o.Styles.SignedAmount(s, sign) }
	}
	return c
}

func (o Options) title(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf(format, args...)))
	return err
}
