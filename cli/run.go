package cli

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/statements/loader"
	"github.com/robinvdvleuten/statements/logger"
	"github.com/robinvdvleuten/statements/output"
	"github.com/robinvdvleuten/statements/period"
	"github.com/robinvdvleuten/statements/report"
	"github.com/robinvdvleuten/statements/telemetry"
)

// SourceFlags locate a data directory.
type SourceFlags struct {
	Data    string   `help:"Data directory holding master/ and budget.toml." short:"d" default:"." type:"existingdir"`
	Journal []string `help:"Extra journal files appended to the master journal, relative to the data directory." short:"j"`
}

func (f *SourceFlags) loadData(ctx context.Context, opts ...loader.Option) (*loader.Data, error) {
	opts = append(opts, loader.WithJournals(f.Journal...))
	return loader.New(opts...).Load(ctx, f.Data)
}

// DataFlags locate a data directory and the range reported on.
type DataFlags struct {
	SourceFlags

	From      string `help:"First day reported on (YYYY-MM-DD). Defaults to the first journal entry."`
	To        string `help:"Last day reported on (YYYY-MM-DD). Defaults to the last journal entry."`
	Frequency string `help:"Period length (day, month, year)." short:"f" default:"month"`
}

// ReportFlags control how tables are printed.
type ReportFlags struct {
	Currency string `help:"ISO 4217 code amounts are displayed in." short:"c"`
}

func (f ReportFlags) options(ctx *kong.Context) report.Options {
	return report.Options{
		Currency: f.Currency,
		Styles:   output.NewStyles(ctx.Stdout),
	}
}

// begin sets up logging and telemetry for a command. The returned function
// prints the timing tree once, whether the command succeeds or not.
func (g *Globals) begin(ctx *kong.Context, name string) (context.Context, func(), error) {
	level, err := logger.ParseLevel(g.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	log := logger.New(ctx.Stderr, level)
	if g.LogJSON {
		log = logger.NewWithWriter(ctx.Stderr).Level(level)
	}
	runCtx := logger.WithContext(context.Background(), log)

	if !g.Telemetry {
		return runCtx, func() {}, nil
	}

	collector := telemetry.NewTimingCollector()
	runCtx = telemetry.WithCollector(runCtx, collector)

	timer := collector.Start(name)
	runCtx = telemetry.WithRootTimer(runCtx, timer)

	var once sync.Once
	reportTelemetry := func() {
		once.Do(func() {
			timer.End()
			_, _ = fmt.Fprintln(ctx.Stderr)
			collector.Report(ctx.Stderr, output.NewStyles(ctx.Stderr))
		})
	}
	return runCtx, reportTelemetry, nil
}

// load reads the data directory and resolves the report range. The returned
// context carries the directory's engine settings.
func (f *DataFlags) load(ctx context.Context, opts ...loader.Option) (context.Context, *loader.Data, period.Range, error) {
	data, err := f.loadData(ctx, opts...)
	if err != nil {
		return ctx, nil, period.Range{}, err
	}
	rng, err := f.rangeOf(data)
	if err != nil {
		return ctx, nil, period.Range{}, err
	}
	return data.Config.WithContext(ctx), data, rng, nil
}

func (f *DataFlags) rangeOf(data *loader.Data) (period.Range, error) {
	freq, err := period.ParseFrequency(f.Frequency)
	if err != nil {
		return period.Range{}, err
	}

	var from, to time.Time
	if f.From != "" {
		if from, err = parseDay("--from", f.From); err != nil {
			return period.Range{}, err
		}
	}
	if f.To != "" {
		if to, err = parseDay("--to", f.To); err != nil {
			return period.Range{}, err
		}
	}
	return data.Range(freq, from, to)
}

func parseDay(flag, value string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected YYYY-MM-DD, got %q", flag, value)
	}
	return t, nil
}
