package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/statements/loader"
)

const chartCSV = `id,name,type,category,debit_increases_balance,closing_account
1,Checking,asset,bank,,
2,Brokerage,asset,investments,,
3,Salary,income,work,,Retained Earnings
4,Rent,expense,housing:rent,,Retained Earnings
5,Retained Earnings,equity,,,
6,Unrealized Gains,income,investments,,
`

const journalCSV = `id,source_file,source_file_line,input_type,date,description,split_1_account_id,split_1_account_name,split_1_account_action,split_1_amount,split_2_account_id,split_2_account_name,split_2_account_action,split_2_amount
1,bank.csv,2,bank,2024-01-25,Salary,1,Checking,debit,3000,3,Salary,credit,3000
2,bank.csv,3,bank,2024-02-01,Rent,4,Rent,debit,1000,1,Checking,credit,1000
3,bank.csv,4,bank,2024-02-03,Invest,2,Brokerage,debit,500,1,Checking,credit,500
`

const balancesCSV = `account,date,balance
Brokerage,2024-02-29,550
`

const budgetTOML = `
[[interval]]
start = 2024-01-01
end = 2025-01-01

[[interval.item]]
account = "Rent"
frequency = "month"
amount = 1200
`

func writeDataDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		assert.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func fullDataDir(t *testing.T) string {
	return writeDataDir(t, map[string]string{
		loader.ChartFile:    chartCSV,
		loader.JournalFile:  journalCSV,
		loader.BalancesFile: balancesCSV,
		loader.BudgetFile:   budgetTOML,
	})
}

// run parses args and runs the selected command, returning its output.
func run(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var cmds Commands
	var out, errOut bytes.Buffer
	parser, err := kong.New(&cmds,
		kong.Name("statements"),
		kong.Writers(&out, &errOut),
		kong.Exit(func(int) { t.Fatalf("unexpected exit: %s", errOut.String()) }),
		kong.Bind(&cmds.Globals),
	)
	assert.NoError(t, err)

	ctx, err := parser.Parse(args)
	assert.NoError(t, err)

	err = ctx.Run()
	return out.String(), errOut.String(), err
}

func TestCheckCmd(t *testing.T) {
	t.Run("Passes", func(t *testing.T) {
		stdout, _, err := run(t, "check", "--data", fullDataDir(t))
		assert.NoError(t, err)
		assert.Contains(t, stdout, "Check passed: 6 accounts, 3 entries, 1 balances")
	})

	t.Run("ReportsEveryDefect", func(t *testing.T) {
		dir := writeDataDir(t, map[string]string{
			loader.ChartFile: chartCSV,
			loader.JournalFile: journalCSV +
				"4,bank.csv,5,bank,2024-02-10,Broken,1,Checking,debit,10,4,Rent,credit,20\n" +
				"5,bank.csv,6,bank,2024-02-11,Negative,1,Checking,debit,-5,4,Rent,credit,-5\n",
			loader.BudgetFile: strings.Replace(budgetTOML, `"Rent"`, `"Groceries"`, 1),
		})

		_, stderr, err := run(t, "check", "--data", dir)

		var cmdErr *CommandError
		assert.True(t, errors.As(err, &cmdErr))
		assert.Equal(t, 1, cmdErr.ExitCode())

		assert.Contains(t, stderr, "Transaction does not balance")
		assert.Contains(t, stderr, `2024-02-10 #4 "Broken"`)
		assert.Contains(t, stderr, "unknown account 'Groceries'")
		assert.Contains(t, stderr, "validation error(s) found")
	})

	t.Run("JSON", func(t *testing.T) {
		dir := writeDataDir(t, map[string]string{
			loader.ChartFile:   chartCSV,
			loader.JournalFile: journalCSV + "4,bank.csv,5,bank,2024-02-10,Broken,1,Checking,debit,10,4,Rent,credit,20\n",
		})

		stdout, _, err := run(t, "check", "--data", dir, "--format", "json")
		assert.Error(t, err)
		assert.Contains(t, stdout, `"type": "*ledger.UnbalancedEntryError"`)
		assert.Contains(t, stdout, `"entryId": 4`)

		stdout, _, err = run(t, "check", "--data", fullDataDir(t), "--format", "json")
		assert.NoError(t, err)
		assert.Equal(t, "[]\n", stdout)
	})

	t.Run("MissingJournal", func(t *testing.T) {
		dir := writeDataDir(t, map[string]string{loader.ChartFile: chartCSV})

		_, stderr, err := run(t, "check", "--data", dir)
		assert.Error(t, err)
		assert.Contains(t, stderr, "master_journal.csv")
	})
}

func TestReportCmds(t *testing.T) {
	dir := fullDataDir(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "Ledger",
			args: []string{"ledger", "--data", dir},
			want: []string{"Checking (bank)", "2024-01-25 #1 Salary", "Total"},
		},
		{
			name: "CashFlow",
			args: []string{"cashflow", "--data", dir, "--currency", "USD"},
			want: []string{"Cash flow", "Total income", "Net income", "$3,000.00", "-$1,500.00"},
		},
		{
			name: "CashFlowWithGainsAndClosing",
			args: []string{"cashflow", "--data", dir, "--with-gains", "--close"},
			want: []string{"Retained Earnings", "Unrealized Gains"},
		},
		{
			name: "Balance",
			args: []string{"balance", "--data", dir, "--to", "2024-03-31", "--with-gains"},
			want: []string{"Balance sheet", "2024-03", "550.00"},
		},
		{
			name: "Reconcile",
			args: []string{"reconcile", "--data", dir},
			want: []string{"Reconciliation", "Brokerage", "50.00"},
		},
		{
			name: "Budget",
			args: []string{"budget", "--data", dir, "--frequency", "year"},
			want: []string{"Budget vs actuals", "Rent", "variance"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := run(t, tt.args...)
			assert.NoError(t, err, stderr)
			for _, want := range tt.want {
				assert.Contains(t, stdout, want)
			}
		})
	}
}

func TestRangeFlags(t *testing.T) {
	dir := fullDataDir(t)

	t.Run("InvalidDate", func(t *testing.T) {
		_, stderr, err := run(t, "cashflow", "--data", dir, "--from", "01/01/2024")
		assert.Error(t, err)
		assert.Contains(t, stderr, `--from: expected YYYY-MM-DD, got "01/01/2024"`)
	})

	t.Run("InvalidFrequency", func(t *testing.T) {
		_, stderr, err := run(t, "cashflow", "--data", dir, "--frequency", "weekly")
		assert.Error(t, err)
		assert.Contains(t, stderr, "unknown frequency")
	})

	t.Run("EmptyRange", func(t *testing.T) {
		_, stderr, err := run(t, "cashflow", "--data", dir, "--from", "2024-03-01", "--to", "2024-01-01")
		assert.Error(t, err)
		assert.NotEqual(t, "", stderr)
	})

	t.Run("BudgetRequired", func(t *testing.T) {
		dir := writeDataDir(t, map[string]string{loader.ChartFile: chartCSV, loader.JournalFile: journalCSV})
		_, stderr, err := run(t, "budget", "--data", dir)
		assert.Error(t, err)
		assert.Contains(t, stderr, "no budget found")
	})
}

func TestWriteEntries(t *testing.T) {
	t.Run("GainsRoundTrip", func(t *testing.T) {
		dir := fullDataDir(t)
		target := filepath.Join(dir, "generated", "gains.csv")

		stdout, _, err := run(t, "gains", "--data", dir, "--write", target)
		assert.NoError(t, err)
		assert.Contains(t, stdout, "Unrealized gains")
		assert.Contains(t, stdout, "Wrote 1 entries")

		written, err := os.ReadFile(target)
		assert.NoError(t, err)
		assert.Contains(t, string(written), "gain")

		stdout, _, err = run(t, "reconcile", "--data", dir, "--journal", target)
		assert.NoError(t, err)
		assert.NotContains(t, stdout, " 50.00")

		stdout, _, err = run(t, "check", "--data", dir, "--journal", target)
		assert.NoError(t, err)
		assert.Contains(t, stdout, "4 entries")
	})

	t.Run("Close", func(t *testing.T) {
		dir := fullDataDir(t)
		target := filepath.Join(dir, "close.csv")

		stdout, _, err := run(t, "close", "--data", dir, "--write", target)
		assert.NoError(t, err)
		assert.Contains(t, stdout, "#4 Close Salary into")
		assert.Contains(t, stdout, "Wrote 2 entries")
	})

	t.Run("RefusesOverwriteWithoutTerminal", func(t *testing.T) {
		dir := fullDataDir(t)
		target := filepath.Join(dir, "close.csv")
		assert.NoError(t, os.WriteFile(target, []byte("keep"), 0o644))

		_, _, err := run(t, "close", "--data", dir, "--write", target)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "file exists")

		kept, err := os.ReadFile(target)
		assert.NoError(t, err)
		assert.Equal(t, "keep", string(kept))

		_, _, err = run(t, "close", "--data", dir, "--write", target, "--force")
		assert.NoError(t, err)
	})
}

// TestLogFlags verifies engine debug logs reach stderr in the requested format.
func TestLogFlags(t *testing.T) {
	dir := fullDataDir(t)

	_, stderr, err := run(t, "--log-level", "debug", "--log-json", "cashflow", "--data", dir)
	assert.NoError(t, err)
	assert.Contains(t, stderr, `"level":"debug"`)
	assert.Contains(t, stderr, `"message":"cash flow aggregated"`)

	_, stderr, err = run(t, "cashflow", "--data", dir)
	assert.NoError(t, err)
	assert.NotContains(t, stderr, "cash flow aggregated")
}
