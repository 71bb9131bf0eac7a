// Package sweep runs the same plan under many seeds concurrently and
// summarises the spread of final costs.
package sweep

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/anneal"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/solver"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/utils"
)

// Run is the outcome for one seed.
type Run struct {
	Seed   int64
	Result *anneal.Result
}

// Report collects all runs of a sweep, in seed order.
type Report struct {
	Runs []Run

	MinCost    float64
	MedianCost float64
	MaxCost    float64
	MeanCost   float64
	StdDev     float64
	// Converged counts runs that cooled down to the stopping temperature.
	Converged int
}

// Best returns the run with the lowest final cost, the earliest on ties.
func (r *Report) Best() Run {
	best := r.Runs[0]
	for _, run := range r.Runs[1:] {
		if run.Result.FinalCost < best.Result.FinalCost {
			best = run
		}
	}
	return best
}

// Seeds derives n distinct seeds from base.
func Seeds(base int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = utils.DeriveSeed(base, uint64(i))
	}
	return out
}

// Options configures a sweep.
type Options struct {
	// Parallelism bounds concurrent engines; values below 1 mean 1.
	Parallelism int
	Logger      *slog.Logger
	// Observer is shared by every engine and must be safe for concurrent use.
	Observer anneal.Observer
}

// Execute anneals plan once per seed, each run with its own random source.
// The first engine error cancels the remaining runs.
func Execute(ctx context.Context, plan *solver.Plan, seeds []int64, opts Options) (*Report, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("sweep: no seeds")
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	runs := make([]Run, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallelism)

	for i, seed := range seeds {
		g.Go(func() error {
			res, err := plan.Run(gctx, utils.NewRandSource(seed),
				anneal.WithObserver(opts.Observer),
				anneal.WithLogger(log.With("seed", seed)),
			)
			if err != nil {
				return fmt.Errorf("sweep: seed %d: %w", seed, err)
			}
			runs[i] = Run{Seed: seed, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	rep := summarize(runs)
	log.Info("sweep finished",
		"runs", len(runs),
		"converged", rep.Converged,
		"min_cost", rep.MinCost,
		"median_cost", rep.MedianCost,
		"max_cost", rep.MaxCost,
	)
	return rep, nil
}

func summarize(runs []Run) *Report {
	costs := make([]float64, len(runs))
	rep := &Report{Runs: runs}
	for i, r := range runs {
		costs[i] = r.Result.FinalCost
		if r.Result.Status == anneal.StatusConverged {
			rep.Converged++
		}
	}
	rep.MinCost = utils.MinFloat64(costs)
	rep.MaxCost = utils.MaxFloat64(costs)
	rep.MedianCost = utils.Median(costs)
	rep.MeanCost = utils.Mean(costs)
	rep.StdDev = utils.StdDev(costs)
	return rep
}
