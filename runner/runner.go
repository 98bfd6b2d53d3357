// Package runner drives the single-shot pipeline once, a fixed number of
// times, or until cancelled, and hosts the interactive conversation loop.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/amanape/sauna/event"
	"github.com/amanape/sauna/provider"
	"github.com/amanape/sauna/render"
)

// Options configures a run.
type Options struct {
	Provider provider.Provider
	Config   provider.Config
	Out      io.Writer
	ErrOut   io.Writer
	NoColor  bool
	Logger   *slog.Logger

	// Count is the number of loop iterations; 0 means a single run. An
	// explicit count of 1 still gets loop semantics: an iteration header and
	// failure isolation.
	Count int
	// Forever loops until the context is cancelled. Takes precedence over
	// Count.
	Forever bool
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// RunLoop dispatches to the configured mode: unbounded, then fixed-count,
// then single-run. Only single-run mode carries a success signal; loop modes
// report their per-iteration failures to the error sink and return true.
func RunLoop(ctx context.Context, opts Options) bool {
	switch {
	case opts.Forever:
		runForever(ctx, opts)
		return true
	case opts.Count >= 1:
		runFixed(ctx, opts)
		return true
	default:
		return Run(ctx, opts)
	}
}

// Run executes the pipeline once and reports whether the run succeeded.
func Run(ctx context.Context, opts Options) bool {
	r := render.NewRenderer(opts.Out, opts.ErrOut, opts.NoColor)
	ok, err := runOnce(ctx, opts, r)
	if err != nil {
		fmt.Fprintf(opts.errSink(), "Error: %v\n", err)
		return false
	}
	return ok
}

// runFixed executes exactly opts.Count iterations, stopping early only when
// the cancellation check between iterations trips. Failed iterations are
// reported and the loop continues.
func runFixed(ctx context.Context, opts Options) {
	for i := 1; i <= opts.Count; i++ {
		if ctx.Err() != nil {
			return
		}
		printHeader(opts, fmt.Sprintf("Iteration %d/%d", i, opts.Count))
		runIteration(ctx, opts, i)
		if ctx.Err() != nil {
			return
		}
	}
}

// runForever executes iterations until cancelled.
func runForever(ctx context.Context, opts Options) {
	for i := 1; ; i++ {
		if ctx.Err() != nil {
			return
		}
		printHeader(opts, fmt.Sprintf("Iteration %d", i))
		runIteration(ctx, opts, i)
		if ctx.Err() != nil {
			return
		}
	}
}

// runIteration runs one loop iteration with fresh render state, isolating
// its failure. Cancellation is cooperative: an in-flight iteration always
// runs to completion.
func runIteration(ctx context.Context, opts Options, iteration int) {
	r := render.NewRenderer(opts.Out, opts.ErrOut, opts.NoColor)
	ok, err := runOnce(ctx, opts, r)
	switch {
	case err != nil:
		fmt.Fprintf(opts.errSink(), "Iteration %d failed: %v\n", iteration, err)
	case !ok:
		fmt.Fprintf(opts.errSink(), "Iteration %d failed\n", iteration)
	}
}

// runOnce drives one single-shot session to completion, rendering every
// event. It deliberately drains the event channel without watching ctx: the
// stream ends when the backend does, and cancellation is only observed at
// iteration boundaries.
func runOnce(ctx context.Context, opts Options, r *render.Renderer) (bool, error) {
	events, err := opts.Provider.NewSession(ctx, opts.Config)
	if err != nil {
		return false, err
	}

	sawResult := false
	success := false
	for ev := range events {
		r.Handle(ev)
		if res, ok := ev.(event.Result); ok {
			sawResult = true
			success = res.Success
		}
	}

	if !sawResult {
		return false, fmt.Errorf("%s session ended without a result", opts.Provider.Name())
	}
	return success, nil
}

// printHeader writes a dimmed iteration header to the primary sink.
func printHeader(opts Options, title string) {
	fmt.Fprintf(opts.Out, "\n=== %s ===\n", title)
	opts.logger().Debug("starting iteration", "title", title)
}

func (o Options) errSink() io.Writer {
	if o.ErrOut != nil {
		return o.ErrOut
	}
	return o.Out
}
