// Package loader reads a data directory into the inputs of the statement
// engine and writes generated journal entries back.
//
// A data directory is laid out as:
//
//	master/chart_of_accounts.csv   chart of accounts
//	master/master_journal.csv      recorded journal entries
//	master/balances.csv            observed balances (optional)
//	budget.toml                    budget (optional)
//	statements.toml                engine settings (optional)
//
// Example usage:
//
//	data, err := loader.New(loader.WithJournals("gains.csv")).Load(ctx, "finances")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	stmt, err := statement.Build(data.Config.WithContext(ctx), data.Chart, data.Journal, rng)
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/robinvdvleuten/statements/budget"
	"github.com/robinvdvleuten/statements/ledger"
	"github.com/robinvdvleuten/statements/logger"
	"github.com/robinvdvleuten/statements/period"
	"github.com/robinvdvleuten/statements/statement"
	"github.com/robinvdvleuten/statements/telemetry"
)

// File names relative to the data directory.
const (
	ChartFile    = "master/chart_of_accounts.csv"
	JournalFile  = "master/master_journal.csv"
	BalancesFile = "master/balances.csv"
	BudgetFile   = "budget.toml"
	ConfigFile   = "statements.toml"
)

// Data is everything loaded from a data directory.
type Data struct {
	Dir       string
	Chart     *ledger.Chart
	Journal   *ledger.Journal
	Snapshots []ledger.BalanceSnapshot

	// Budget is nil when the directory holds no budget file.
	Budget *budget.Budget
	Config statement.Config
}

// Loader reads data directories.
//
// Configure the loader using functional options passed to New:
//
//	loader := New(WithJournals("gains.csv"), WithRequiredBudget())
type Loader struct {
	// Journals lists extra journal files appended after the master journal,
	// such as files previously written with WriteJournal. Relative paths are
	// resolved from the data directory.
	Journals []string

	// RequireBudget makes a missing budget file an error.
	RequireBudget bool
}

// Option configures how data directories are loaded.
type Option func(*Loader)

// WithJournals appends extra journal files to the master journal.
func WithJournals(paths ...string) Option {
	return func(l *Loader) {
		l.Journals = append(l.Journals, paths...)
	}
}

// WithRequiredBudget makes Load fail when the directory holds no budget.
func WithRequiredBudget() Option {
	return func(l *Loader) {
		l.RequireBudget = true
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the data directory dir.
func (l *Loader) Load(ctx context.Context, dir string) (*Data, error) {
	ctx, timer := telemetry.Span(ctx, fmt.Sprintf("loader.load %s", filepath.Base(dir)))
	defer timer.End()

	data := &Data{Dir: dir, Config: statement.DefaultConfig()}

	if err := readOptional(dir, ConfigFile, func(r io.Reader) error {
		cfg, err := ReadConfig(r)
		data.Config = cfg
		return err
	}); err != nil {
		return nil, err
	}

	if err := readFile(ctx, dir, ChartFile, func(r io.Reader) error {
		chart, err := ReadChart(r)
		data.Chart = chart
		return err
	}); err != nil {
		return nil, err
	}

	var entries []*ledger.JournalEntry
	for _, name := range append([]string{JournalFile}, l.Journals...) {
		if err := readFile(ctx, dir, name, func(r io.Reader) error {
			read, err := ReadJournal(r, data.Chart)
			entries = append(entries, read...)
			return err
		}); err != nil {
			return nil, err
		}
	}
	data.Journal = ledger.NewJournal(entries...)

	if err := readOptional(dir, BalancesFile, func(r io.Reader) error {
		snapshots, err := ReadSnapshots(r, data.Chart)
		data.Snapshots = snapshots
		return err
	}); err != nil {
		return nil, err
	}

	found := false
	if err := readOptional(dir, BudgetFile, func(r io.Reader) error {
		found = true
		b, err := ReadBudget(r)
		data.Budget = b
		return err
	}); err != nil {
		return nil, err
	}
	if !found && l.RequireBudget {
		return nil, fmt.Errorf("no budget found: %s does not exist", filepath.Join(dir, BudgetFile))
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("dir", dir).
		Int("accounts", data.Chart.Len()).
		Int("entries", data.Journal.Len()).
		Int("snapshots", len(data.Snapshots)).
		Bool("budget", data.Budget != nil).
		Msg("data directory loaded")

	return data, nil
}

// Range returns the periods at frequency f from the day from through the day
// to. A zero from or to defaults to the date of the first or last journal
// entry.
func (d *Data) Range(f period.Frequency, from, to time.Time) (period.Range, error) {
	if entries := d.Journal.Sorted(); len(entries) > 0 {
		if from.IsZero() {
			from = entries[0].Date
		}
		if to.IsZero() {
			to = entries[len(entries)-1].Date
		}
	}
	if from.IsZero() || to.IsZero() {
		return period.Range{}, errors.New("journal is empty: a start and end date are required")
	}
	return period.NewRange(f, from, to)
}

func resolve(dir, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, filepath.FromSlash(name))
}

// readFile opens a required file of the data directory and passes it to fn.
// Errors are prefixed with the file's path.
func readFile(ctx context.Context, dir, name string, fn func(io.Reader) error) error {
	timer := telemetry.StartTimer(ctx, "read "+name)
	defer timer.End()

	path := resolve(dir, name)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// readOptional is readFile for files that may be absent.
func readOptional(dir, name string, fn func(io.Reader) error) error {
	path := resolve(dir, name)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
