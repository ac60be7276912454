// Package batch executes many independent simulation runs — repeated
// seeds, parameter sweeps — with bounded parallelism. Each run owns its
// own model and random stream, so the single-threaded contract of the
// core holds within every run.
package batch

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emmagras/mesa/collect"
	"github.com/emmagras/mesa/sim"
)

// Run describes one unit of work: a seed and an opaque parameter set the
// factory may consult.
type Run struct {
	Index  int
	Seed   int64
	Params map[string]any
}

// Result carries one run's outcome: the final step count and the
// collected series.
type Result struct {
	Run       Run
	Steps     int
	ModelRows []collect.ModelRow
	AgentRows []collect.AgentRow
}

// Factory builds a fully wired model for one run. It is called once per
// run and may be called from multiple goroutines; every returned model
// must be independent.
type Factory func(run Run) (*sim.Model, error)

// Runner drives a set of runs through a factory.
type Runner struct {
	factory  Factory
	maxSteps int
	parallel int
	log      *zap.Logger
}

// NewRunner builds a batch runner. maxSteps caps each run in addition to
// whatever limit the model itself carries; parallel caps concurrent runs
// (values < 1 mean sequential).
func NewRunner(factory Factory, maxSteps, parallel int, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if parallel < 1 {
		parallel = 1
	}
	return &Runner{factory: factory, maxSteps: maxSteps, parallel: parallel, log: log}
}

// SeedRuns builds n runs with consecutive seeds starting at base.
func SeedRuns(n int, base int64) []Run {
	runs := make([]Run, n)
	for i := range runs {
		runs[i] = Run{Index: i, Seed: base + int64(i)}
	}
	return runs
}

// Execute performs every run and returns results indexed like runs. The
// first failing run cancels the rest.
func (r *Runner) Execute(ctx context.Context, runs []Run) ([]Result, error) {
	results := make([]Result, len(runs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)
	for i, run := range runs {
		i, run := i, run
		g.Go(func() error {
			res, err := r.one(ctx, run)
			if err != nil {
				return fmt.Errorf("run %d (seed %d): %w", run.Index, run.Seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *Runner) one(ctx context.Context, run Run) (Result, error) {
	m, err := r.factory(run)
	if err != nil {
		return Result{}, fmt.Errorf("factory: %w", err)
	}
	for m.Running() {
		if r.maxSteps > 0 && m.Steps() >= r.maxSteps {
			break
		}
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}
		if err := m.Step(); err != nil {
			return Result{}, err
		}
	}
	r.log.Debug("run finished",
		zap.Int("run", run.Index),
		zap.Int64("seed", run.Seed),
		zap.Int("steps", m.Steps()),
	)

	res := Result{Run: run, Steps: m.Steps()}
	if dc := m.Collector(); dc != nil {
		res.ModelRows = dc.ModelRows()
		res.AgentRows = dc.AgentRows()
	}
	return res, nil
}
