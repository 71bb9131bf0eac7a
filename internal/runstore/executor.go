package runstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/anneal"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/instance"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/metrics"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/solver"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/config"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/logger"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/models"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/utils"
)

// DefaultTrajectoryPoints caps the trajectory kept per run.
const DefaultTrajectoryPoints = 10000

// Executor manages asynchronous run execution and per-run cancellation.
type Executor struct {
	store    *Store
	base     *config.RunConfig
	metrics  *metrics.Metrics
	notifier *Notifier
	logger   *slog.Logger
	points   int

	// mu orders status transitions with cancel registration.
	mu      sync.Mutex
	cancels map[string]runCancel
	starts  uint64
	wg      sync.WaitGroup
}

// runCancel is the cancel func of one execution, tagged by its start.
type runCancel struct {
	token  uint64
	cancel context.CancelFunc
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithMetrics records engine and lifecycle metrics.
func WithMetrics(m *metrics.Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// WithNotifier posts terminal runs to their callback URLs.
func WithNotifier(n *Notifier) ExecutorOption {
	return func(e *Executor) { e.notifier = n }
}

// WithLogger sets the executor logger.
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithBaseConfig sets the configuration that per-run overrides apply to.
func WithBaseConfig(cfg *config.RunConfig) ExecutorOption {
	return func(e *Executor) {
		if cfg != nil {
			e.base = cfg
		}
	}
}

// WithTrajectoryPoints sets how many trajectory samples a result keeps.
func WithTrajectoryPoints(n int) ExecutorOption {
	return func(e *Executor) { e.points = n }
}

// NewExecutor creates an executor over store.
func NewExecutor(store *Store, opts ...ExecutorOption) *Executor {
	e := &Executor{
		store:   store,
		base:    config.Defaults(),
		logger:  logger.Discard(),
		points:  DefaultTrajectoryPoints,
		cancels: make(map[string]runCancel),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the backing store.
func (e *Executor) Store() *Store {
	return e.store
}

// Submit validates input and registers a pending run.
func (e *Executor) Submit(runID string, input models.RunInput) (*Record, error) {
	if input.CallbackURL != "" {
		if err := validateCallbackURL(input.CallbackURL); err != nil {
			return nil, err
		}
	}
	if _, _, err := e.prepare(input); err != nil {
		return nil, err
	}
	rec, err := e.store.Create(runID, input)
	if err != nil {
		return nil, err
	}
	e.transition(models.RunStatusPending)
	return rec, nil
}

// Start begins executing a pending run asynchronously. Starting a run that
// is already running returns it unchanged; a terminal run is an error.
func (e *Executor) Start(runID string) (*Record, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}

	e.mu.Lock()
	updated, err := e.store.Transition(runID, []models.RunStatus{models.RunStatusPending}, models.RunStatusRunning, "")
	if err != nil {
		e.mu.Unlock()
		if errors.Is(err, ErrInvalidTransition) {
			if rec, ok := e.store.Get(runID); ok && rec.Run.Status == models.RunStatusRunning {
				return rec, nil
			}
		}
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.starts++
	token := e.starts
	e.cancels[runID] = runCancel{token: token, cancel: cancel}
	e.wg.Add(1)
	e.mu.Unlock()

	e.transition(models.RunStatusRunning)
	go e.execute(ctx, runID, token, updated.Input)
	return updated, nil
}

// Stop cancels a pending or running run and marks it cancelled. A running
// run is notified by its execution once the engine returns.
func (e *Executor) Stop(runID string) (*Record, error) {
	if runID == "" {
		return nil, ErrRunIDMissing
	}

	e.mu.Lock()
	updated, err := e.store.Transition(runID,
		[]models.RunStatus{models.RunStatusPending, models.RunStatusRunning},
		models.RunStatusCancelled, "")
	rc, running := e.cancels[runID]
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	e.transition(models.RunStatusCancelled)

	if running {
		rc.cancel()
	} else {
		e.notify(runID)
	}
	return updated, nil
}

// Shutdown cancels every running run and waits for them to finish or for
// ctx to be done.
func (e *Executor) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	for _, rc := range e.cancels {
		rc.cancel()
	}
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		if e.notifier != nil {
			e.notifier.Wait()
		}
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until no run is executing.
func (e *Executor) Wait() {
	e.wg.Wait()
}

func (e *Executor) cleanup(runID string, token uint64) {
	e.mu.Lock()
	if rc, ok := e.cancels[runID]; ok && rc.token == token {
		rc.cancel()
		delete(e.cancels, runID)
	}
	e.mu.Unlock()
	if e.metrics != nil {
		e.metrics.RunDone()
	}
	e.wg.Done()
}

// prepare parses the input, applies the overrides and builds the plan.
func (e *Executor) prepare(input models.RunInput) (*solver.Plan, *config.RunConfig, error) {
	inst, err := instance.Parse([]byte(input.InstanceYAML), instance.FormatYAML)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid instance: %w", err)
	}
	cfg := *e.base
	if input.ConfigYAML != "" {
		if err := config.Overlay(&cfg, []byte(input.ConfigYAML)); err != nil {
			return nil, nil, err
		}
	}
	plan, err := solver.Prepare(inst, &cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid run: %w", err)
	}
	return plan, &cfg, nil
}

func (e *Executor) execute(ctx context.Context, runID string, token uint64, input models.RunInput) {
	defer e.cleanup(runID, token)
	defer e.notify(runID)
	log := e.logger.With("run_id", runID)
	running := []models.RunStatus{models.RunStatusRunning}

	fail := func(msg string, err error) {
		log.Error(msg, "error", err)
		if _, setErr := e.store.Transition(runID, running, models.RunStatusFailed, fmt.Sprintf("%s: %v", msg, err)); setErr != nil {
			log.Warn("run not marked failed", "error", setErr)
			return
		}
		e.transition(models.RunStatusFailed)
	}

	plan, cfg, err := e.prepare(input)
	if err != nil {
		fail("invalid input", err)
		return
	}

	rng := utils.NewRandSource(cfg.Seed)
	opts := []anneal.Option{anneal.WithLogger(log)}
	if e.metrics != nil {
		opts = append(opts, anneal.WithObserver(e.metrics.Observer()))
	}

	log.Info("starting run",
		"instance", plan.Instance.Name,
		"cities", plan.Instance.Model.Len(),
		"schedule", plan.Schedule.Name(),
		"seed", rng.Seed(),
	)
	res, err := plan.Run(ctx, rng, opts...)
	if err != nil {
		fail("annealing failed", err)
		return
	}

	if err := e.store.SetResult(runID, solver.ToModel(res, rng.Seed(), e.points)); err != nil {
		log.Error("failed to set result", "error", err)
	}

	if res.Status == anneal.StatusCancelled {
		// Stop has already marked the run; a shutdown has not.
		if _, err := e.store.Transition(runID, running, models.RunStatusCancelled, ""); err == nil {
			e.transition(models.RunStatusCancelled)
		}
		log.Info("run cancelled", "steps", res.Steps, "cost", res.FinalCost)
		return
	}

	if _, err := e.store.Transition(runID, running, models.RunStatusCompleted, ""); err != nil {
		log.Info("run finished after it was stopped", "error", err)
		return
	}
	e.transition(models.RunStatusCompleted)
	log.Info("run completed",
		"outcome", res.Status,
		"steps", res.Steps,
		"initial_cost", res.InitialCost,
		"cost", res.FinalCost,
		"elapsed", res.Elapsed,
	)
}

// notify posts the run to its callback once it is terminal.
func (e *Executor) notify(runID string) {
	if e.notifier == nil {
		return
	}
	if rec, ok := e.store.Get(runID); ok && rec.Run.Status.IsTerminal() {
		e.notifier.Notify(rec)
	}
}

func (e *Executor) transition(status models.RunStatus) {
	if e.metrics != nil {
		e.metrics.RunTransition(status)
	}
}
