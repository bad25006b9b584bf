package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

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

func newTestServer(t *testing.T, files map[string]string) (*Server, http.Handler) {
	t.Helper()
	if files == nil {
		files = map[string]string{
			loader.ChartFile:    chartCSV,
			loader.JournalFile:  journalCSV,
			loader.BalancesFile: balancesCSV,
			loader.BudgetFile:   budgetTOML,
		}
	}
	server := NewWithVersion(8080, writeDataDir(t, files), "1.0.0", "abc123")
	assert.NoError(t, server.reloadData(context.Background()))
	return server, server.setupRouter()
}

func get(t *testing.T, handler http.Handler, target string, response any) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK && response != nil {
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(response))
	}
	return rec
}

func amountOf(rows []StatementRow, account, period string) decimal.Decimal {
	for _, row := range rows {
		if row.Account == account && row.Period == period {
			return row.Amount
		}
	}
	return decimal.NewFromInt(-999999)
}

func TestAPIAccounts(t *testing.T) {
	_, handler := newTestServer(t, nil)

	var response AccountsResponse
	rec := get(t, handler, "/api/accounts", &response)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 6, len(response.Accounts))
	rent := response.Accounts[3]
	assert.Equal(t, "Rent", rent.Name)
	assert.Equal(t, "expense", rent.Type)
	assert.Equal(t, []string{"housing", "rent"}, rent.Category)
	assert.Equal(t, "Retained Earnings", rent.ClosingAccount)
}

func TestAPIVersion(t *testing.T) {
	_, handler := newTestServer(t, nil)

	var response VersionResponse
	get(t, handler, "/api/version", &response)
	assert.Equal(t, VersionResponse{Version: "1.0.0", CommitSHA: "abc123"}, response)
}

func TestAPICashFlow(t *testing.T) {
	_, handler := newTestServer(t, nil)

	t.Run("DefaultRange", func(t *testing.T) {
		var response StatementResponse
		rec := get(t, handler, "/api/cashflow", &response)
		assert.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, "month", response.Frequency)
		assert.Equal(t, []string{"2024-01", "2024-02"}, response.Periods)
		assert.Equal(t, 12, len(response.Rows))

		assert.True(t, amountOf(response.Rows, "Checking", "2024-01").Equal(decimal.NewFromInt(3000)))
		assert.True(t, amountOf(response.Rows, "Checking", "2024-02").Equal(decimal.NewFromInt(-1500)))
		assert.True(t, amountOf(response.Rows, "Rent", "2024-02").Equal(decimal.NewFromInt(1000)))
		assert.True(t, amountOf(response.Rows, "Salary", "2024-02").IsZero())
	})

	t.Run("Yearly", func(t *testing.T) {
		var response StatementResponse
		get(t, handler, "/api/cashflow?frequency=year", &response)
		assert.Equal(t, []string{"2024"}, response.Periods)
		assert.True(t, amountOf(response.Rows, "Checking", "2024").Equal(decimal.NewFromInt(1500)))
	})

	t.Run("WithGains", func(t *testing.T) {
		var response StatementResponse
		get(t, handler, "/api/cashflow?gains=true", &response)
		assert.True(t, amountOf(response.Rows, "Brokerage", "2024-02").Equal(decimal.NewFromInt(550)))
		assert.True(t, amountOf(response.Rows, "Unrealized Gains", "2024-02").Equal(decimal.NewFromInt(50)))
	})

	t.Run("WithClosing", func(t *testing.T) {
		var response StatementResponse
		get(t, handler, "/api/cashflow?close=true", &response)
		assert.True(t, amountOf(response.Rows, "Salary", "2024-01").IsZero())
		assert.True(t, amountOf(response.Rows, "Rent", "2024-02").IsZero())
		assert.True(t, amountOf(response.Rows, "Retained Earnings", "2024-01").Equal(decimal.NewFromInt(3000)))
		assert.True(t, amountOf(response.Rows, "Retained Earnings", "2024-02").Equal(decimal.NewFromInt(-1000)))
	})

	t.Run("InvalidParameters", func(t *testing.T) {
		tests := []struct {
			name   string
			target string
			want   string
		}{
			{"Frequency", "/api/cashflow?frequency=weekly", "unknown frequency"},
			{"From", "/api/cashflow?from=2024/01/01", "invalid from format"},
			{"To", "/api/cashflow?to=soon", "invalid to format"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rec := get(t, handler, tt.target, nil)
				assert.Equal(t, http.StatusBadRequest, rec.Code)
				assert.Contains(t, rec.Body.String(), tt.want)
			})
		}
	})
}

func TestAPIBalance(t *testing.T) {
	_, handler := newTestServer(t, nil)

	var response StatementResponse
	rec := get(t, handler, "/api/balance?from=2024-01-01&to=2024-03-31", &response)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, response.Periods)
	assert.True(t, amountOf(response.Rows, "Checking", "2024-01").Equal(decimal.NewFromInt(3000)))
	assert.True(t, amountOf(response.Rows, "Checking", "2024-03").Equal(decimal.NewFromInt(1500)))
	assert.True(t, amountOf(response.Rows, "Brokerage", "2024-03").Equal(decimal.NewFromInt(500)))

	get(t, handler, "/api/balance?from=2024-01-01&to=2024-03-31&gains=true", &response)
	assert.True(t, amountOf(response.Rows, "Brokerage", "2024-03").Equal(decimal.NewFromInt(550)))
}

func TestAPIReconcile(t *testing.T) {
	_, handler := newTestServer(t, nil)

	var response ReconcileResponse
	rec := get(t, handler, "/api/reconcile", &response)
	assert.Equal(t, http.StatusOK, rec.Code)

	var found bool
	for _, row := range response.Rows {
		if row.Account == "Brokerage" && row.Period == "2024-02" {
			found = true
			assert.True(t, row.Observed.Valid)
			assert.True(t, row.Diff.Decimal.Equal(decimal.NewFromInt(50)))
			assert.True(t, row.Computed.Equal(decimal.NewFromInt(500)))
		}
	}
	assert.True(t, found)
}

func TestAPIGains(t *testing.T) {
	_, handler := newTestServer(t, nil)

	var response GainsResponse
	rec := get(t, handler, "/api/gains", &response)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 1, len(response.Rows))
	row := response.Rows[0]
	assert.Equal(t, "Brokerage", row.Account)
	assert.Equal(t, "2024-02", row.Period)
	assert.True(t, row.Gain.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, 4, row.EntryID)
	assert.False(t, row.Interpolated)
}

func TestAPIBudget(t *testing.T) {
	t.Run("VersusActuals", func(t *testing.T) {
		_, handler := newTestServer(t, nil)

		var response BudgetResponse
		rec := get(t, handler, "/api/budget", &response)
		assert.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, 2, len(response.Rows))
		feb := response.Rows[1]
		assert.Equal(t, "Rent", feb.Account)
		assert.Equal(t, "2024-02", feb.Period)
		assert.True(t, feb.Target.Equal(decimal.NewFromInt(1200)))
		assert.True(t, feb.Actual.Equal(decimal.NewFromInt(1000)))
		assert.True(t, feb.Variance.Equal(decimal.NewFromInt(200)))
	})

	t.Run("NoBudget", func(t *testing.T) {
		_, handler := newTestServer(t, map[string]string{
			loader.ChartFile:   chartCSV,
			loader.JournalFile: journalCSV,
		})

		rec := get(t, handler, "/api/budget", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "no budget found")
	})
}

func TestAPIEngineErrors(t *testing.T) {
	_, handler := newTestServer(t, map[string]string{
		loader.ChartFile:   chartCSV,
		loader.JournalFile: journalCSV + "4,bank.csv,5,bank,2024-02-10,Broken,1,Checking,debit,10,4,Rent,credit,20\n",
	})

	rec := get(t, handler, "/api/cashflow", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var response ErrorResponse
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.Equal(t, 1, len(response.Errors))
	assert.Contains(t, response.Errors[0].Message, "does not balance")
	assert.Equal(t, "*ledger.UnbalancedEntryError", response.Errors[0].Type)
	assert.Equal[any](t, float64(4), response.Errors[0].Details["entryId"])
}

func TestReloadBroadcasts(t *testing.T) {
	server, handler := newTestServer(t, nil)

	events := make(chan string, 1)
	server.sseClients[events] = struct{}{}

	extra := "4,bank.csv,5,bank,2024-03-01,Rent,4,Rent,debit,1000,1,Checking,credit,1000\n"
	path := filepath.Join(server.dir, filepath.FromSlash(loader.JournalFile))
	assert.NoError(t, os.WriteFile(path, []byte(journalCSV+extra), 0o644))

	server.handleFileChange(context.Background())
	assert.Equal(t, "reload", <-events)

	var response StatementResponse
	get(t, handler, "/api/cashflow", &response)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, response.Periods)

	t.Run("KeepsDataOnFailure", func(t *testing.T) {
		assert.NoError(t, os.WriteFile(path, []byte("id,date\nx,never\n"), 0o644))

		server.handleFileChange(context.Background())
		assert.Equal(t, "error", <-events)

		var response StatementResponse
		rec := get(t, handler, "/api/cashflow", &response)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 3, len(response.Periods))
	})
}

func TestWatchPaths(t *testing.T) {
	server := New(8080, "/data")
	server.Journals = []string{"generated/gains.csv", "/elsewhere/close.csv", "master/extra.csv"}

	assert.Equal(t, []string{"/data", "/data/master", "/data/generated", "/elsewhere"}, server.watchPaths())
}
