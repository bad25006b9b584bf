// Package telemetry records how long the statement engine spends in each of
// its stages, as a tree of named timers.
//
// Collectors travel through the context so that engine functions can be
// instrumented without taking extra parameters. When no collector is present
// every timer is a no-op.
//
// Example usage:
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	ctx, timer := telemetry.Span(ctx, "cashflow 2024-01..2024-12 (month)")
//	stmt, err := statement.Build(ctx, chart, journal, rng) // nests under the span
//	timer.End()
//
//	collector.Report(os.Stderr, output.NewStyles(os.Stderr))
package telemetry

import (
	"context"
	"io"

	"github.com/robinvdvleuten/statements/output"
)

type collectorKey struct{}

type timerKey struct{}

// Collector gathers timers.
type Collector interface {
	// Start begins timing a top-level operation.
	Start(name string) Timer

	// Report writes the collected timings to w. Styles may be nil.
	Report(w io.Writer, styles *output.Styles)
}

// Timer tracks a single operation.
type Timer interface {
	// End stops the timer. Calling End more than once keeps the first end time.
	End()

	// Child starts a timer nested under this one.
	Child(name string) Timer
}

// WithCollector adds a collector to a context.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey{}, collector)
}

// FromContext returns the context's collector, or a no-op collector.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey{}).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}

// WithRootTimer makes timer the parent of every timer started from the
// returned context.
func WithRootTimer(ctx context.Context, timer Timer) context.Context {
	return context.WithValue(ctx, timerKey{}, timer)
}

// StartTimer starts a timer nested under the context's current timer, or a
// top-level timer of the context's collector when there is none.
func StartTimer(ctx context.Context, name string) Timer {
	if parent, ok := ctx.Value(timerKey{}).(Timer); ok {
		return parent.Child(name)
	}
	return FromContext(ctx).Start(name)
}

// Span starts a timer like StartTimer and returns a context under which
// further timers nest.
func Span(ctx context.Context, name string) (context.Context, Timer) {
	timer := StartTimer(ctx, name)
	return WithRootTimer(ctx, timer), timer
}
