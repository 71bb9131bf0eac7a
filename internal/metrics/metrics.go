// Package metrics exposes annealing runs as Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/anneal"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/models"
)

const (
	namespace = "tspanneal"
	subsystem = "engine"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	// runsTotal counts finished engine runs.
	// Labels: schedule, status (converged, timed_out, step_limit, cancelled)
	runsTotal *prometheus.CounterVec

	// movesTotal counts proposed moves by decision (accepted, rejected).
	movesTotal *prometheus.CounterVec
	accepted   prometheus.Counter
	rejected   prometheus.Counter

	// runSteps is the distribution of completed steps per run.
	// Labels: schedule
	runSteps *prometheus.HistogramVec

	// runDuration is the wall time of a run in seconds.
	// Labels: schedule
	runDuration *prometheus.HistogramVec

	// finalCost is the final tour cost of the most recent run.
	// Labels: schedule
	finalCost *prometheus.GaugeVec

	// serviceRuns counts lifecycle transitions of service runs.
	// Labels: status
	serviceRuns *prometheus.CounterVec
	activeRuns  prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Finished annealing runs by schedule and status",
		}, []string{"schedule", "status"}),

		movesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "moves_total",
			Help:      "Proposed 2-opt moves by Metropolis decision",
		}, []string{"decision"}),

		runSteps: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "run_steps",
			Help:      "Completed steps per annealing run",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 7),
		}, []string{"schedule"}),

		runDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "run_duration_seconds",
			Help:      "Wall time of annealing runs in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"schedule"}),

		finalCost: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "final_cost",
			Help:      "Final tour cost of the most recent run",
		}, []string{"schedule"}),

		serviceRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "run_transitions_total",
			Help:      "Run lifecycle transitions by target status",
		}, []string{"status"}),

		activeRuns: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "service",
			Name:      "active_runs",
			Help:      "Runs currently executing",
		}),
	}
	m.accepted = m.movesTotal.WithLabelValues("accepted")
	m.rejected = m.movesTotal.WithLabelValues("rejected")
	return m
}

// Observer returns an engine observer feeding these collectors. It is safe
// to share between concurrent runs.
func (m *Metrics) Observer() anneal.Observer {
	return observer{m}
}

// RunTransition records a service run entering status.
func (m *Metrics) RunTransition(status models.RunStatus) {
	m.serviceRuns.WithLabelValues(string(status)).Inc()
	if status == models.RunStatusRunning {
		m.activeRuns.Inc()
	}
}

// RunDone marks a previously running service run as finished.
func (m *Metrics) RunDone() {
	m.activeRuns.Dec()
}

type observer struct {
	m *Metrics
}

func (o observer) OnStep(_ int, _, _ float64, accepted bool) {
	if accepted {
		o.m.accepted.Inc()
	} else {
		o.m.rejected.Inc()
	}
}

func (o observer) OnFinish(res *anneal.Result) {
	o.m.runsTotal.WithLabelValues(res.Schedule, string(res.Status)).Inc()
	o.m.runSteps.WithLabelValues(res.Schedule).Observe(float64(res.Steps))
	o.m.runDuration.WithLabelValues(res.Schedule).Observe(res.Elapsed.Seconds())
	o.m.finalCost.WithLabelValues(res.Schedule).Set(res.FinalCost)
}
