// Package runner executes several independent logical queries concurrently.
// Each query gets its own executor (in production: its own browser page), so
// no browser state is shared across goroutines.
package runner

import (
	"context"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/parkerdavis/leadscout/internal/pipeline"
	"github.com/parkerdavis/leadscout/internal/query"
)

// Unit is one named query to run.
type Unit struct {
	Name  string      `json:"name"`
	Query query.Query `json:"query"`
}

// Executor runs one query end to end. The runner owns the executor for the
// duration of one unit and closes it afterwards.
type Executor interface {
	Run(ctx context.Context, q query.Query) (*pipeline.Outcome, error)
	Close() error
}

// Factory builds a fresh executor per unit.
type Factory func(ctx context.Context) (Executor, error)

// Result pairs a unit with what happened to it. A failed unit carries its
// error here instead of aborting its siblings.
type Result struct {
	Unit    Unit
	Outcome *pipeline.Outcome
	Err     error
}

// Runner fans units out across a bounded pool of executors.
type Runner struct {
	factory     Factory
	concurrency int
	verbose     bool
}

// New creates a runner. Concurrency below 1 is treated as 1; each in-flight
// unit is a whole browser, so the bound should stay small.
func New(factory Factory, concurrency int, verbose bool) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{factory: factory, concurrency: concurrency, verbose: verbose}
}

// RunAll executes every unit and returns results in input order. Unit
// failures are isolated; only context cancellation ends the batch early.
func (r *Runner) RunAll(ctx context.Context, units []Unit) ([]Result, error) {
	results := make([]Result, len(units))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)

	for i, unit := range units {
		results[i].Unit = unit
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}
			results[i].Outcome, results[i].Err = r.runUnit(gctx, unit)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func (r *Runner) runUnit(ctx context.Context, unit Unit) (*pipeline.Outcome, error) {
	if r.verbose {
		log.Printf("[RUNNER] Starting unit %q", unit.Name)
	}

	exec, err := r.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build executor for %q: %w", unit.Name, err)
	}
	defer func() {
		if cerr := exec.Close(); cerr != nil && r.verbose {
			log.Printf("[RUNNER] Close failed for unit %q: %v", unit.Name, cerr)
		}
	}()

	outcome, err := exec.Run(ctx, unit.Query)
	if err != nil {
		return outcome, fmt.Errorf("unit %q failed: %w", unit.Name, err)
	}
	if r.verbose {
		log.Printf("[RUNNER] Unit %q finished: %d records, reason %s",
			unit.Name, len(outcome.Records), outcome.Reason)
	}
	return outcome, nil
}
