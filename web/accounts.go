package web

import (
	"net/http"
)

// AccountInfo represents an account of the chart.
type AccountInfo struct {
	ID             int      `json:"id"`
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	Category       []string `json:"category"`
	DebitIncreases bool     `json:"debitIncreasesBalance"`
	ClosingAccount string   `json:"closingAccount,omitempty"`
}

// AccountsResponse is the JSON response structure for the accounts endpoint.
type AccountsResponse struct {
	Accounts []AccountInfo `json:"accounts"`
}

// VersionResponse is the JSON response structure for the version endpoint.
type VersionResponse struct {
	Version   string `json:"version"`
	CommitSHA string `json:"commitSHA"`
}

// handleGetAccounts handles GET requests to /api/accounts.
// Returns the chart of accounts ordered by account id.
func (s *Server) handleGetAccounts(w http.ResponseWriter, r *http.Request) {
	data := s.snapshot()

	accounts := make([]AccountInfo, 0, data.Chart.Len())
	for _, a := range data.Chart.Accounts() {
		accounts = append(accounts, AccountInfo{
			ID:             a.ID,
			Name:           a.Name,
			Type:           a.Type.String(),
			Category:       data.Chart.FlatCategory(a),
			DebitIncreases: a.DebitIncreasesBalance,
			ClosingAccount: a.ClosingAccount,
		})
	}

	writeJSONResponse(w, &AccountsResponse{Accounts: accounts})
}

// handleGetVersion handles GET requests to /api/version.
func (s *Server) handleGetVersion(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, &VersionResponse{Version: s.Version, CommitSHA: s.CommitSHA})
}
