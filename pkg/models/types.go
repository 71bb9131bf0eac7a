package models

import (
	"time"
)

// RunStatus represents the lifecycle state of an annealing run
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// IsTerminal reports whether no further transition is possible
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusCancelled:
		return true
	}
	return false
}

// Run represents an annealing run submitted to the service
type Run struct {
	ID        string    `json:"id" yaml:"id"`
	Status    RunStatus `json:"status" yaml:"status"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	StartedAt time.Time `json:"started_at,omitempty" yaml:"started_at,omitempty"`
	EndedAt   time.Time `json:"ended_at,omitempty" yaml:"ended_at,omitempty"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
}

// Duration returns the wall time between start and end, or zero while the
// run has not finished.
func (r *Run) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.EndedAt.IsZero() {
		return 0
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// RunInput is what a client submits: an instance document and optional
// run configuration overrides, both as YAML text. When CallbackURL is set
// the terminal run is posted there; "{run_id}" in the URL is substituted.
type RunInput struct {
	InstanceYAML   string `json:"instance_yaml" yaml:"instance_yaml" binding:"required"`
	ConfigYAML     string `json:"config_yaml,omitempty" yaml:"config_yaml,omitempty"`
	CallbackURL    string `json:"callback_url,omitempty" yaml:"callback_url,omitempty"`
	CallbackSecret string `json:"callback_secret,omitempty" yaml:"-"`
}

// CostSample is one point of the cost trajectory
type CostSample struct {
	Step int     `json:"step" yaml:"step"`
	Cost float64 `json:"cost" yaml:"cost"`
}

// RunResult contains the outcome of a finished run
type RunResult struct {
	Outcome     string   `json:"outcome" yaml:"outcome"`
	Schedule    string   `json:"schedule" yaml:"schedule"`
	Seed        int64    `json:"seed" yaml:"seed"`
	Tour        []string `json:"tour" yaml:"tour"`
	Cost        float64  `json:"cost" yaml:"cost"`
	InitialCost float64  `json:"initial_cost" yaml:"initial_cost"`
	BestTour    []string `json:"best_tour" yaml:"best_tour"`
	BestCost    float64  `json:"best_cost" yaml:"best_cost"`
	Steps       int      `json:"steps" yaml:"steps"`
	Temperature float64  `json:"temperature" yaml:"temperature"`
	Accepted    int      `json:"accepted" yaml:"accepted"`
	Rejected    int      `json:"rejected" yaml:"rejected"`
	ElapsedMs   int64    `json:"elapsed_ms" yaml:"elapsed_ms"`

	Trajectory []CostSample `json:"trajectory,omitempty" yaml:"trajectory,omitempty"`
}

// Improvement returns the relative cost reduction from the initial tour
func (r *RunResult) Improvement() float64 {
	if r.InitialCost == 0 {
		return 0
	}
	return (r.InitialCost - r.Cost) / r.InitialCost
}

// AcceptanceRate returns accepted moves over all steps
func (r *RunResult) AcceptanceRate() float64 {
	if r.Steps == 0 {
		return 0
	}
	return float64(r.Accepted) / float64(r.Steps)
}
