package cli

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool   `help:"Show timing telemetry for operations."`
	LogLevel  string `help:"Log level (trace, debug, info, warn, error)." default:"warn" enum:"trace,debug,info,warn,error"`
	LogJSON   bool   `help:"Write logs as JSON lines instead of console output." name:"log-json"`
}

type Commands struct {
	Globals

	Check     CheckCmd     `cmd:"" help:"Validate the chart of accounts, journal, balances and budget of a data directory."`
	Ledger    LedgerCmd    `cmd:"" help:"Print the general ledger of every account."`
	Cashflow  CashFlowCmd  `cmd:"" help:"Print the cash flow per account and period."`
	Balance   BalanceCmd   `cmd:"" help:"Print the balance sheet per account and period."`
	Reconcile ReconcileCmd `cmd:"" help:"Compare observed balances with computed balances."`
	Gains     GainsCmd     `cmd:"" help:"Infer unrealized gains from observed balances."`
	Close     CloseCmd     `cmd:"" help:"Generate closing entries for temporary accounts."`
	Budget    BudgetCmd    `cmd:"" help:"Compare the budget with actual cash flow."`
	Serve     ServeCmd     `cmd:"" help:"Start a JSON API server over a data directory."`
}
