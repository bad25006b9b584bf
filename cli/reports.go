package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/statements/budget"
	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/loader"
	"github.com/robinvdvleuten/statements/period"
	"github.com/robinvdvleuten/statements/report"
	"github.com/robinvdvleuten/statements/statement"
)

type LedgerCmd struct {
	SourceFlags
	ReportFlags
}

func (cmd *LedgerCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry, err := globals.begin(ctx, fmt.Sprintf("ledger %s", filepath.Base(cmd.Data)))
	if err != nil {
		return err
	}
	defer reportTelemetry()

	data, err := cmd.loadData(runCtx)
	if err != nil {
		return reportErrors(ctx.Stderr, nil, err)
	}

	accounts, err := statement.GeneralLedger(runCtx, data.Chart, data.Journal)
	if err != nil {
		return reportErrors(ctx.Stderr, data.Journal, err)
	}
	return report.GeneralLedger(ctx.Stdout, accounts, cmd.options(ctx))
}

type CashFlowCmd struct {
	DataFlags
	ReportFlags

	WithGains bool `help:"Include gains inferred from observed balances."`
	Close     bool `help:"Include closing entries for temporary accounts."`
}

func (cmd *CashFlowCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry, err := globals.begin(ctx, fmt.Sprintf("cashflow %s", filepath.Base(cmd.Data)))
	if err != nil {
		return err
	}
	defer reportTelemetry()

	runCtx, data, rng, err := cmd.load(runCtx)
	if err != nil {
		return reportErrors(ctx.Stderr, nil, err)
	}

	journal := data.Journal
	stmt, err := statement.Build(runCtx, data.Chart, journal, rng)
	if err != nil {
		return reportErrors(ctx.Stderr, journal, err)
	}
	if cmd.WithGains {
		if journal, stmt, err = withGains(runCtx, data, journal, stmt, rng); err != nil {
			return reportErrors(ctx.Stderr, journal, err)
		}
	}
	if cmd.Close {
		entries, err := statement.ClosingEntries(runCtx, data.Chart, stmt, rng)
		if err != nil {
			return reportErrors(ctx.Stderr, journal, err)
		}
		journal = journal.Append(entries...)
		if stmt, err = statement.Build(runCtx, data.Chart, journal, rng); err != nil {
			return reportErrors(ctx.Stderr, journal, err)
		}
	}

	rows, err := statement.CashFlow(runCtx, stmt, rng)
	if err != nil {
		return reportErrors(ctx.Stderr, journal, err)
	}
	return report.CashFlow(ctx.Stdout, rows, cmd.options(ctx))
}

type BalanceCmd struct {
	DataFlags
	ReportFlags

	WithGains bool `help:"Include gains inferred from observed balances."`
}

func (cmd *BalanceCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry, err := globals.begin(ctx, fmt.Sprintf("balance %s", filepath.Base(cmd.Data)))
	if err != nil {
		return err
	}
	defer reportTelemetry()

	runCtx, data, rng, err := cmd.load(runCtx)
	if err != nil {
		return reportErrors(ctx.Stderr, nil, err)
	}

	journal := data.Journal
	stmt, err := statement.Build(runCtx, data.Chart, journal, rng)
	if err != nil {
		return reportErrors(ctx.Stderr, journal, err)
	}
	if cmd.WithGains {
		if journal, stmt, err = withGains(runCtx, data, journal, stmt, rng); err != nil {
			return reportErrors(ctx.Stderr, journal, err)
		}
	}

	rows, err := statement.BalanceSheet(runCtx, stmt, rng)
	if err != nil {
		return reportErrors(ctx.Stderr, journal, err)
	}
	return report.BalanceSheet(ctx.Stdout, rows, cmd.options(ctx))
}

type ReconcileCmd struct {
	DataFlags
	ReportFlags
}

func (cmd *ReconcileCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry, err := globals.begin(ctx, fmt.Sprintf("reconcile %s", filepath.Base(cmd.Data)))
	if err != nil {
		return err
	}
	defer reportTelemetry()

	runCtx, data, rng, err := cmd.load(runCtx)
	if err != nil {
		return reportErrors(ctx.Stderr, nil, err)
	}

	stmt, err := statement.Build(runCtx, data.Chart, data.Journal, rng)
	if err != nil {
		return reportErrors(ctx.Stderr, data.Journal, err)
	}
	rows, err := statement.Reconcile(runCtx, stmt, data.Snapshots, rng)
	if err != nil {
		return reportErrors(ctx.Stderr, data.Journal, err)
	}
	return report.Reconcile(ctx.Stdout, rows, cmd.options(ctx))
}

type BudgetCmd struct {
	DataFlags
	ReportFlags
}

func (cmd *BudgetCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry, err := globals.begin(ctx, fmt.Sprintf("budget %s", filepath.Base(cmd.Data)))
	if err != nil {
		return err
	}
	defer reportTelemetry()

	runCtx, data, rng, err := cmd.load(runCtx, loader.WithRequiredBudget())
	if err != nil {
		return reportErrors(ctx.Stderr, nil, err)
	}

	rows, err := budget.VersusActuals(runCtx, data.Budget, data.Chart, data.Journal, rng)
	if err != nil {
		return reportErrors(ctx.Stderr, data.Journal, err)
	}
	return report.Variance(ctx.Stdout, rows, cmd.options(ctx))
}

// withGains books inferred gains into journal and rebuilds the statement.
func withGains(ctx context.Context, data *loader.Data, journal *ledger.Journal, stmt *statement.Statement, rng period.Range) (*ledger.Journal, *statement.Statement, error) {
	extended, _, err := statement.InferGains(ctx, data.Chart, journal, stmt, data.Snapshots, rng)
	if err != nil {
		return journal, nil, err
	}
	stmt, err = statement.Build(ctx, data.Chart, extended, rng)
	if err != nil {
		return extended, nil, err
	}
	return extended, stmt, nil
}
