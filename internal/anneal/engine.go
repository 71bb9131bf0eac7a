// Package anneal implements the simulated annealing search over TSP tours.
//
// An Engine owns the loop: at every step it asks its Schedule for the
// temperature, stops once the temperature is at or below the stopping
// temperature, otherwise draws a 2-opt neighbour of the current tour and
// accepts it by the Metropolis rule. The engine is single threaded and holds
// no state between runs other than its random source.
package anneal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/schedule"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/tour"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/utils"
)

// ctxCheckInterval is how often (in steps) the context is polled.
const ctxCheckInterval = 1024

// ErrInvalidProblem is returned for a nil or malformed Problem.
var ErrInvalidProblem = errors.New("anneal: invalid problem")

// Engine runs simulated annealing with an injected schedule and random source.
type Engine struct {
	schedule schedule.Schedule
	rng      utils.Random
	logger   *slog.Logger
	observer Observer
	now      func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for run start/finish records.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver attaches an observer.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithClock replaces time.Now, used for the time budget.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine creates an engine. The random source must not be shared with
// other goroutines while a run is in progress.
func NewEngine(s schedule.Schedule, rng utils.Random, opts ...Option) *Engine {
	e := &Engine{
		schedule: s,
		rng:      rng,
		logger:   slog.New(slog.DiscardHandler),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Accept applies the Metropolis rule. Improvements are accepted without
// consulting rng; otherwise the move is accepted with probability
// exp(-delta/temperature), so a zero delta is always accepted.
func Accept(delta, temperature float64, rng utils.Random) bool {
	if delta < 0 {
		return true
	}
	if temperature <= 0 {
		return delta == 0
	}
	return rng.Float64() < math.Exp(-delta/temperature)
}

// Run anneals from p.Initial until the schedule cools to the stopping
// temperature, the time budget or step limit is exhausted, or ctx is done.
// Errors from the tour or distance model abort the run without a Result.
func (e *Engine) Run(ctx context.Context, p *Problem) (*Result, error) {
	if err := e.validate(p); err != nil {
		return nil, err
	}

	current := p.Initial
	curCost, err := current.Cost()
	if err != nil {
		return nil, fmt.Errorf("anneal: initial cost: %w", err)
	}

	res := &Result{
		Status:      StatusRunning,
		Schedule:    e.schedule.Name(),
		Initial:     current,
		InitialCost: curCost,
		Best:        current,
		BestCost:    curCost,
		Trajectory:  make([]Sample, 0, trajectoryHint(p.MaxSteps)),
	}

	e.logger.Debug("annealing started",
		"schedule", res.Schedule,
		"cities", current.Model().Len(),
		"initial_cost", curCost,
		"stopping_temperature", p.StoppingTemperature,
		"time_budget", p.TimeBudget,
		"max_steps", p.MaxSteps,
	)

	start := e.now()
	for step := 1; ; step++ {
		if (step-1)%ctxCheckInterval == 0 && ctx.Err() != nil {
			res.Status = StatusCancelled
			break
		}

		temp := e.schedule.Temperature(step)
		res.Temperature = temp
		if temp <= p.StoppingTemperature {
			res.Status = StatusConverged
			break
		}

		next, ok, err := current.Neighbor(e.rng)
		if err != nil {
			return nil, fmt.Errorf("anneal: step %d: %w", step, err)
		}
		accepted := false
		if ok {
			nextCost, err := next.Cost()
			if err != nil {
				return nil, fmt.Errorf("anneal: step %d: %w", step, err)
			}
			if Accept(nextCost-curCost, temp, e.rng) {
				current, curCost = next, nextCost
				accepted = true
			}
		}
		if accepted {
			res.Accepted++
		} else {
			res.Rejected++
		}
		if curCost < res.BestCost {
			res.Best, res.BestCost = current, curCost
		}
		res.Trajectory = append(res.Trajectory, Sample{Step: step, Cost: curCost})
		if e.observer != nil {
			e.observer.OnStep(step, temp, curCost, accepted)
		}

		if p.TimeBudget > 0 && e.now().Sub(start) >= p.TimeBudget {
			res.Status = StatusTimedOut
			break
		}
		if p.MaxSteps > 0 && step >= p.MaxSteps {
			res.Status = StatusStepLimit
			break
		}
	}

	res.Final, res.FinalCost = current, curCost
	res.Steps = len(res.Trajectory)
	res.Elapsed = e.now().Sub(start)

	e.logger.Debug("annealing finished",
		"status", res.Status,
		"steps", res.Steps,
		"temperature", res.Temperature,
		"final_cost", res.FinalCost,
		"best_cost", res.BestCost,
		"accepted", res.Accepted,
		"rejected", res.Rejected,
		"elapsed", res.Elapsed,
	)
	if e.observer != nil {
		e.observer.OnFinish(res)
	}
	return res, nil
}

func (e *Engine) validate(p *Problem) error {
	if e.schedule == nil || e.rng == nil {
		return fmt.Errorf("%w: engine needs a schedule and a random source", ErrInvalidProblem)
	}
	if p == nil || p.Initial == nil {
		return fmt.Errorf("%w: initial state is required", ErrInvalidProblem)
	}
	if math.IsNaN(p.StoppingTemperature) || p.StoppingTemperature < 0 {
		return fmt.Errorf("%w: stopping temperature must be non-negative, got %v", ErrInvalidProblem, p.StoppingTemperature)
	}
	if p.TimeBudget < 0 || p.MaxSteps < 0 {
		return fmt.Errorf("%w: negative time budget or step limit", ErrInvalidProblem)
	}
	if n := p.Initial.Model().Len(); n < 3 {
		return fmt.Errorf("%w: %d cities, need at least 3", tour.ErrDegenerateInstance, n)
	}
	if !p.Initial.IsGoal() {
		return fmt.Errorf("%w: initial tour %s does not visit every city once", tour.ErrInvalidPath, p.Initial)
	}
	return nil
}

func trajectoryHint(maxSteps int) int {
	const limit = 1 << 16
	if maxSteps > 0 && maxSteps < limit {
		return maxSteps
	}
	return 1024
}
