package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/statements/budget"
	errfmt "github.com/robinvdvleuten/statements/errors"
	"github.com/robinvdvleuten/statements/loader"
	"github.com/robinvdvleuten/statements/logger"
	"github.com/robinvdvleuten/statements/period"
	"github.com/robinvdvleuten/statements/statement"
)

// StatementResponse is the JSON response structure for the cash flow and
// balance sheet endpoints.
type StatementResponse struct {
	Frequency string         `json:"frequency"`
	Periods   []string       `json:"periods"`
	Rows      []StatementRow `json:"rows"`
}

// StatementRow is one account's amount in one period.
type StatementRow struct {
	Period   string          `json:"period"`
	Type     string          `json:"type"`
	Category []string        `json:"category"`
	Account  string          `json:"account"`
	Amount   decimal.Decimal `json:"amount"`
}

// ReconcileResponse is the JSON response structure for the reconcile endpoint.
type ReconcileResponse struct {
	Rows []ReconcileRow `json:"rows"`
}

// ReconcileRow compares an observed balance with the computed one.
type ReconcileRow struct {
	Period   string              `json:"period"`
	Account  string              `json:"account"`
	Observed decimal.NullDecimal `json:"observed"`
	Computed decimal.Decimal     `json:"computed"`
	Diff     decimal.NullDecimal `json:"diff"`
}

// GainsResponse is the JSON response structure for the gains endpoint.
type GainsResponse struct {
	Rows []GainRow `json:"rows"`
}

// GainRow explains the gain inferred for an account in one period.
type GainRow struct {
	Period       string              `json:"period"`
	Account      string              `json:"account"`
	Observed     decimal.NullDecimal `json:"observed"`
	Computed     decimal.Decimal     `json:"computed"`
	Diff         decimal.Decimal     `json:"diff"`
	Interpolated bool                `json:"interpolated"`
	Gain         decimal.Decimal     `json:"gain"`
	EntryID      int                 `json:"entryId,omitempty"`
}

// BudgetResponse is the JSON response structure for the budget endpoint.
type BudgetResponse struct {
	Rows []VarianceRow `json:"rows"`
}

// VarianceRow compares a budget target with the actual cash flow.
type VarianceRow struct {
	Period   string          `json:"period"`
	Account  string          `json:"account"`
	Target   decimal.Decimal `json:"target"`
	Actual   decimal.Decimal `json:"actual"`
	Variance decimal.Decimal `json:"variance"`
}

// ErrorResponse lists the errors that prevented a report.
type ErrorResponse struct {
	Errors []errfmt.ErrorJSON `json:"errors"`
}

// writeJSONResponse writes a JSON response to the http.ResponseWriter.
// If encoding fails, it writes an error response.
func writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeEngineError reports a failed computation. Every validation error is
// listed separately.
func writeEngineError(w http.ResponseWriter, err error) {
	response := ErrorResponse{
		Errors: errfmt.NewJSONFormatter().FormatAllToSlice(errfmt.Flatten(err)),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	_ = json.NewEncoder(w).Encode(response)
}

// request holds the loaded data and the range a report request asks for.
type request struct {
	ctx  context.Context
	data *loader.Data
	rng  period.Range
}

// parseRequest reads the query parameters shared by every report.
//
// Query parameters:
//   - frequency: day, month or year. Defaults to month.
//   - from: First day in YYYY-MM-DD format. Defaults to the first journal entry.
//   - to: Last day in YYYY-MM-DD format. Defaults to the last journal entry.
func (s *Server) parseRequest(w http.ResponseWriter, r *http.Request) (*request, bool) {
	data := s.snapshot()
	query := r.URL.Query()

	freq := period.Month
	if value := query.Get("frequency"); value != "" {
		f, err := period.ParseFrequency(value)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return nil, false
		}
		freq = f
	}

	var dates [2]time.Time
	for i, name := range []string{"from", "to"} {
		value := query.Get(name)
		if value == "" {
			continue
		}
		d, err := time.Parse(time.DateOnly, value)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid %s format (expected YYYY-MM-DD): %s", name, value), http.StatusBadRequest)
			return nil, false
		}
		dates[i] = d
	}

	rng, err := data.Range(freq, dates[0], dates[1])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}

	ctx := logger.WithContext(r.Context(), s.log)
	ctx = data.Config.WithContext(ctx)
	return &request{ctx: ctx, data: data, rng: rng}, true
}

func boolParam(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

// build builds the statement of req, extending the journal with inferred
// gains and closing entries when asked to.
func (req *request) build(withGains, withClosing bool) (*statement.Statement, error) {
	journal := req.data.Journal
	stmt, err := statement.Build(req.ctx, req.data.Chart, journal, req.rng)
	if err != nil {
		return nil, err
	}

	if withGains {
		if journal, _, err = statement.InferGains(req.ctx, req.data.Chart, journal, stmt, req.data.Snapshots, req.rng); err != nil {
			return nil, err
		}
		if stmt, err = statement.Build(req.ctx, req.data.Chart, journal, req.rng); err != nil {
			return nil, err
		}
	}

	if withClosing {
		entries, err := statement.ClosingEntries(req.ctx, req.data.Chart, stmt, req.rng)
		if err != nil {
			return nil, err
		}
		journal = journal.Append(entries...)
		if stmt, err = statement.Build(req.ctx, req.data.Chart, journal, req.rng); err != nil {
			return nil, err
		}
	}

	return stmt, nil
}

func (req *request) statementResponse(rows []statement.AggregateRow) *StatementResponse {
	response := &StatementResponse{
		Frequency: req.rng.Frequency().String(),
		Periods:   make([]string, 0, req.rng.Len()),
		Rows:      make([]StatementRow, 0, len(rows)),
	}
	for _, p := range req.rng.Periods() {
		response.Periods = append(response.Periods, p.String())
	}
	for _, row := range rows {
		response.Rows = append(response.Rows, StatementRow{
			Period:   row.Period.String(),
			Type:     row.Type.String(),
			Category: row.Category,
			Account:  row.Account.Name,
			Amount:   row.Amount,
		})
	}
	return response
}

// handleGetCashFlow handles GET requests to /api/cashflow.
//
// Besides the shared parameters it accepts gains=true to include inferred
// gains and close=true to include closing entries.
func (s *Server) handleGetCashFlow(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseRequest(w, r)
	if !ok {
		return
	}

	stmt, err := req.build(boolParam(r, "gains"), boolParam(r, "close"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	rows, err := statement.CashFlow(req.ctx, stmt, req.rng)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSONResponse(w, req.statementResponse(rows))
}

// handleGetBalance handles GET requests to /api/balance.
//
// Besides the shared parameters it accepts gains=true to include inferred
// gains.
func (s *Server) handleGetBalance(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseRequest(w, r)
	if !ok {
		return
	}

	stmt, err := req.build(boolParam(r, "gains"), false)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	rows, err := statement.BalanceSheet(req.ctx, stmt, req.rng)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSONResponse(w, req.statementResponse(rows))
}

// handleGetReconcile handles GET requests to /api/reconcile.
func (s *Server) handleGetReconcile(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseRequest(w, r)
	if !ok {
		return
	}

	stmt, err := req.build(false, false)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	rows, err := statement.Reconcile(req.ctx, stmt, req.data.Snapshots, req.rng)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	response := &ReconcileResponse{Rows: make([]ReconcileRow, 0, len(rows))}
	for _, row := range rows {
		response.Rows = append(response.Rows, ReconcileRow{
			Period:   row.Period.String(),
			Account:  row.Account.Name,
			Observed: row.Observed,
			Computed: row.Computed,
			Diff:     row.Diff,
		})
	}
	writeJSONResponse(w, response)
}

// handleGetGains handles GET requests to /api/gains.
func (s *Server) handleGetGains(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseRequest(w, r)
	if !ok {
		return
	}

	stmt, err := req.build(false, false)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	_, diagnostics, err := statement.InferGains(req.ctx, req.data.Chart, req.data.Journal, stmt, req.data.Snapshots, req.rng)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	response := &GainsResponse{Rows: make([]GainRow, 0, len(diagnostics))}
	for _, d := range diagnostics {
		response.Rows = append(response.Rows, GainRow{
			Period:       d.Period.String(),
			Account:      d.Account.Name,
			Observed:     d.Observed,
			Computed:     d.Computed,
			Diff:         d.Diff,
			Interpolated: d.Interpolated,
			Gain:         d.Gain,
			EntryID:      d.EntryID,
		})
	}
	writeJSONResponse(w, response)
}

// handleGetBudget handles GET requests to /api/budget.
func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	req, ok := s.parseRequest(w, r)
	if !ok {
		return
	}
	if req.data.Budget == nil {
		http.Error(w, fmt.Sprintf("no budget found: %s does not exist", loader.BudgetFile), http.StatusNotFound)
		return
	}

	rows, err := budget.VersusActuals(req.ctx, req.data.Budget, req.data.Chart, req.data.Journal, req.rng)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	response := &BudgetResponse{Rows: make([]VarianceRow, 0, len(rows))}
	for _, row := range rows {
		response.Rows = append(response.Rows, VarianceRow{
			Period:   row.Period.String(),
			Account:  row.Account.Name,
			Target:   row.Target,
			Actual:   row.Actual,
			Variance: row.Variance,
		})
	}
	writeJSONResponse(w, response)
}
