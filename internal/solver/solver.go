// Package solver turns a loaded instance and a run configuration into
// annealing runs. It is shared by the CLI, the sweep and the run service.
package solver

import (
	"context"
	"fmt"
	"time"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/anneal"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/distance"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/instance"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/schedule"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/tour"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/config"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/models"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/utils"
)

// Plan is everything a run needs except its random source. A Plan is
// read-only after Prepare and may be shared by concurrent runs.
type Plan struct {
	Instance *instance.Instance
	Start    distance.City
	Schedule schedule.Schedule

	// Initial is the greedy nearest-neighbour tour from Start.
	Initial     *tour.State
	InitialCost float64

	StoppingTemperature float64
	TimeBudget          time.Duration
	MaxSteps            int
}

// Prepare builds the schedule and the greedy initial tour for inst.
func Prepare(inst *instance.Instance, cfg *config.RunConfig) (*Plan, error) {
	if inst == nil || inst.Model == nil {
		return nil, fmt.Errorf("%w: no instance", anneal.ErrInvalidProblem)
	}
	if cfg == nil {
		cfg = config.Defaults()
	}

	sched, err := cfg.Schedule.Build()
	if err != nil {
		return nil, err
	}
	budget, err := cfg.GetTimeBudget()
	if err != nil {
		return nil, fmt.Errorf("time budget: %w", err)
	}

	start := inst.Start
	if cfg.Start != "" {
		start = distance.City(cfg.Start)
	}

	initial, cost, err := tour.Greedy(inst.Model, start)
	if err != nil {
		return nil, err
	}

	return &Plan{
		Instance:            inst,
		Start:               start,
		Schedule:            sched,
		Initial:             initial,
		InitialCost:         cost,
		StoppingTemperature: cfg.StoppingTemperature,
		TimeBudget:          budget,
		MaxSteps:            cfg.MaxSteps,
	}, nil
}

// Problem returns the engine problem for this plan.
func (p *Plan) Problem() *anneal.Problem {
	return &anneal.Problem{
		Initial:             p.Initial,
		StoppingTemperature: p.StoppingTemperature,
		TimeBudget:          p.TimeBudget,
		MaxSteps:            p.MaxSteps,
	}
}

// Run anneals once. rng must not be shared with another run.
func (p *Plan) Run(ctx context.Context, rng utils.Random, opts ...anneal.Option) (*anneal.Result, error) {
	eng := anneal.NewEngine(p.Schedule, rng, opts...)
	return eng.Run(ctx, p.Problem())
}

// ToModel converts an engine result into the service representation,
// keeping at most points trajectory samples (none when points is 0).
func ToModel(res *anneal.Result, seed int64, points int) *models.RunResult {
	s := res.Summary()
	out := &models.RunResult{
		Outcome:     string(s.Status),
		Schedule:    s.Schedule,
		Seed:        seed,
		Tour:        s.Path,
		Cost:        s.Cost,
		InitialCost: s.InitialCost,
		BestTour:    s.BestPath,
		BestCost:    s.BestCost,
		Steps:       s.Steps,
		Temperature: s.Temperature,
		Accepted:    s.Accepted,
		Rejected:    s.Rejected,
		ElapsedMs:   s.ElapsedMs,
	}
	for _, smp := range Downsample(res.Trajectory, points) {
		out.Trajectory = append(out.Trajectory, models.CostSample{Step: smp.Step, Cost: smp.Cost})
	}
	return out
}

// Downsample keeps every k-th sample so that at most n remain. The last
// sample is always kept.
func Downsample(samples []anneal.Sample, n int) []anneal.Sample {
	if n <= 0 || len(samples) == 0 {
		return nil
	}
	if len(samples) <= n {
		return samples
	}
	stride := (len(samples) + n - 1) / n
	out := make([]anneal.Sample, 0, n)
	for i := stride - 1; i < len(samples); i += stride {
		out = append(out, samples[i])
	}
	if out[len(out)-1].Step != samples[len(samples)-1].Step {
		out[len(out)-1] = samples[len(samples)-1]
	}
	return out
}
