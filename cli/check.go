package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/alecthomas/kong"

	errfmt "github.com/robinvdvleuten/statements/errors"
	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/loader"
)

type CheckCmd struct {
	SourceFlags

	Format string `help:"Output format (text, json)." default:"text" enum:"text,json"`
}

func (cmd *CheckCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry, err := globals.begin(ctx, fmt.Sprintf("check %s", filepath.Base(cmd.Data)))
	if err != nil {
		return err
	}
	defer reportTelemetry()

	var journal *ledger.Journal
	data, err := cmd.loadData(runCtx)
	if err == nil {
		journal = data.Journal
		err = checkData(runCtx, data)
	}

	if cmd.Format == "json" {
		errs := errfmt.Flatten(err)
		_, _ = fmt.Fprintln(ctx.Stdout, errfmt.NewJSONFormatter().FormatAll(errs))
		if len(errs) > 0 {
			return NewCommandError(1)
		}
		return nil
	}

	if err != nil {
		return reportErrors(ctx.Stderr, journal, err)
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Check passed: %d accounts, %d entries, %d balances",
		data.Chart.Len(), data.Journal.Len(), len(data.Snapshots)))
	return nil
}

// checkData validates the journal and the budget against the chart and
// collects every defect of both.
func checkData(ctx context.Context, data *loader.Data) error {
	var errs []error
	collect := func(err error) {
		var validationErrors *ledger.ValidationErrors
		switch {
		case err == nil:
		case errors.As(err, &validationErrors):
			errs = append(errs, validationErrors.Errors...)
		default:
			errs = append(errs, err)
		}
	}

	collect(ledger.Validate(ctx, data.Chart, data.Journal))
	if data.Budget != nil {
		collect(data.Budget.Validate(data.Chart))
	}

	if len(errs) == 0 {
		return nil
	}
	return &ledger.ValidationErrors{Errors: errs}
}
