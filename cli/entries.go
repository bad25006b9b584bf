package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/loader"
	"github.com/robinvdvleuten/statements/report"
	"github.com/robinvdvleuten/statements/statement"
)

// WriteFlags control where generated entries are written.
type WriteFlags struct {
	Write string `help:"Write the generated entries to this journal file." short:"w" type:"path"`
	Force bool   `help:"Overwrite an existing file without asking." short:"y"`
}

type GainsCmd struct {
	DataFlags
	ReportFlags
	WriteFlags
}

func (cmd *GainsCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry, err := globals.begin(ctx, fmt.Sprintf("gains %s", filepath.Base(cmd.Data)))
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
	extended, diagnostics, err := statement.InferGains(runCtx, data.Chart, data.Journal, stmt, data.Snapshots, rng)
	if err != nil {
		return reportErrors(ctx.Stderr, data.Journal, err)
	}

	if err := report.Gains(ctx.Stdout, diagnostics, cmd.options(ctx)); err != nil {
		return err
	}

	generated := extended.Entries()[data.Journal.Len():]
	return cmd.write(ctx, data.Chart, generated)
}

type CloseCmd struct {
	DataFlags
	ReportFlags
	WriteFlags
}

func (cmd *CloseCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, reportTelemetry, err := globals.begin(ctx, fmt.Sprintf("close %s", filepath.Base(cmd.Data)))
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
	entries, err := statement.ClosingEntries(runCtx, data.Chart, stmt, rng)
	if err != nil {
		return reportErrors(ctx.Stderr, data.Journal, err)
	}

	if err := report.Entries(ctx.Stdout, entries, cmd.options(ctx)); err != nil {
		return err
	}
	return cmd.write(ctx, data.Chart, entries)
}

// write saves entries as a journal file when --write is given. An existing
// file is only replaced after confirmation or with --force.
func (f *WriteFlags) write(ctx *kong.Context, chart *ledger.Chart, entries []*ledger.JournalEntry) error {
	if f.Write == "" {
		return nil
	}
	if len(entries) == 0 {
		printInfof(ctx.Stdout, "No entries generated, %s left untouched", pathStyle.Render(f.Write))
		return nil
	}

	if _, err := os.Stat(f.Write); err == nil {
		overwrite := f.Force
		if !overwrite {
			confirmed, err := promptYesNo(ctx, fmt.Sprintf("File %q exists. Overwrite it?", f.Write))
			if err != nil {
				return fmt.Errorf("failed to read confirmation: %w", err)
			}
			overwrite = confirmed
		}
		if !overwrite {
			return fmt.Errorf("file exists: %s", f.Write)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to access file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.Write), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if err := writeJournalFile(f.Write, chart, entries); err != nil {
		return err
	}

	printSuccess(ctx.Stdout, fmt.Sprintf("Wrote %d entries to %s", len(entries), pathStyle.Render(f.Write)))
	printInfof(ctx.Stdout, "Load them with --journal %s", f.Write)
	return nil
}

func writeJournalFile(path string, chart *ledger.Chart, entries []*ledger.JournalEntry) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()

	if err := loader.WriteJournal(file, chart, entries); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
