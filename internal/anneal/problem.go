package anneal

import (
	"time"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/tour"
)

// DefaultStoppingTemperature is used by NewProblem.
const DefaultStoppingTemperature = 5.0

// Status is the terminal state of a run.
type Status string

const (
	StatusRunning   Status = "running"
	StatusConverged Status = "converged"
	StatusTimedOut  Status = "timed_out"
	StatusStepLimit Status = "step_limit"
	StatusCancelled Status = "cancelled"
)

// Problem describes one annealing run.
type Problem struct {
	Initial             *tour.State
	StoppingTemperature float64
	// TimeBudget bounds wall-clock time; zero disables it.
	TimeBudget time.Duration
	// MaxSteps bounds the number of steps; zero disables it.
	MaxSteps int
}

// NewProblem returns a Problem with the default stopping temperature.
func NewProblem(initial *tour.State) *Problem {
	return &Problem{
		Initial:             initial,
		StoppingTemperature: DefaultStoppingTemperature,
	}
}

// Sample is one trajectory point: the current cost after a step.
type Sample struct {
	Step int     `yaml:"step" json:"step"`
	Cost float64 `yaml:"cost" json:"cost"`
}

// Result is the record of a finished run.
type Result struct {
	Status   Status
	Schedule string

	Initial     *tour.State
	InitialCost float64
	Final       *tour.State
	FinalCost   float64
	Best        *tour.State
	BestCost    float64

	// Steps is the number of completed steps (len(Trajectory)).
	Steps int
	// Temperature is the last temperature queried from the schedule.
	Temperature float64
	Trajectory  []Sample

	Accepted int
	Rejected int
	Elapsed  time.Duration
}

// Summary is the flat, serialisable view of a Result.
type Summary struct {
	Status      Status   `yaml:"status" json:"status"`
	Schedule    string   `yaml:"schedule" json:"schedule"`
	Path        []string `yaml:"path" json:"path"`
	Cost        float64  `yaml:"cost" json:"cost"`
	InitialCost float64  `yaml:"initial_cost" json:"initial_cost"`
	BestPath    []string `yaml:"best_path" json:"best_path"`
	BestCost    float64  `yaml:"best_cost" json:"best_cost"`
	Steps       int      `yaml:"steps" json:"steps"`
	Temperature float64  `yaml:"temperature" json:"temperature"`
	Accepted    int      `yaml:"accepted" json:"accepted"`
	Rejected    int      `yaml:"rejected" json:"rejected"`
	ElapsedMs   int64    `yaml:"elapsed_ms" json:"elapsed_ms"`
}

// Summary flattens r.
func (r *Result) Summary() Summary {
	return Summary{
		Status:      r.Status,
		Schedule:    r.Schedule,
		Path:        names(r.Final),
		Cost:        r.FinalCost,
		InitialCost: r.InitialCost,
		BestPath:    names(r.Best),
		BestCost:    r.BestCost,
		Steps:       r.Steps,
		Temperature: r.Temperature,
		Accepted:    r.Accepted,
		Rejected:    r.Rejected,
		ElapsedMs:   r.Elapsed.Milliseconds(),
	}
}

func names(s *tour.State) []string {
	if s == nil {
		return nil
	}
	p := s.Path()
	out := make([]string, len(p))
	for i, c := range p {
		out[i] = string(c)
	}
	return out
}
