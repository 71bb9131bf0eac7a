package config

import (
	"time"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/schedule"
)

// RunConfig represents the configuration of an annealing run
type RunConfig struct {
	LogLevel  string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" json:"log_format" validate:"oneof=text json"`

	// Instance is the path of the problem file (CLI only)
	Instance string `yaml:"instance,omitempty" json:"instance,omitempty"`
	// Start overrides the start city of the instance
	Start string `yaml:"start,omitempty" json:"start,omitempty"`
	// Seed of the random source; 0 picks a time-based seed
	Seed int64 `yaml:"seed" json:"seed"`

	Schedule            ScheduleConfig `yaml:"schedule" json:"schedule"`
	StoppingTemperature float64        `yaml:"stopping_temperature" json:"stopping_temperature" validate:"gte=0"`
	TimeBudget          string         `yaml:"time_budget,omitempty" json:"time_budget,omitempty" validate:"omitempty,duration"`
	MaxSteps            int            `yaml:"max_steps,omitempty" json:"max_steps,omitempty" validate:"gte=0"`

	Sweep  SweepConfig  `yaml:"sweep" json:"sweep"`
	Server ServerConfig `yaml:"server" json:"server"`
}

// ScheduleConfig selects the temperature schedule. Zero parameters take the
// defaults of the chosen kind.
type ScheduleConfig struct {
	Kind     string  `yaml:"kind" json:"kind" validate:"required,oneof=exponential logarithmic quadratic"`
	T0       float64 `yaml:"t0,omitempty" json:"t0,omitempty" validate:"gte=0"`
	Alpha    float64 `yaml:"alpha,omitempty" json:"alpha,omitempty" validate:"gte=0"`
	MaxSteps int     `yaml:"max_steps,omitempty" json:"max_steps,omitempty" validate:"gte=0"`
}

// SweepConfig controls multi-seed sweeps
type SweepConfig struct {
	Seeds       int `yaml:"seeds" json:"seeds" validate:"gte=1,lte=100000"`
	Parallelism int `yaml:"parallelism" json:"parallelism" validate:"gte=1,lte=1024"`
}

// ServerConfig holds listen addresses of the run service
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" json:"http_addr" validate:"required"`
	GRPCAddr string `yaml:"grpc_addr" json:"grpc_addr" validate:"required"`
	// MaxRuns caps the number of runs kept in memory; 0 is unlimited
	MaxRuns int `yaml:"max_runs" json:"max_runs" validate:"gte=0"`
	// CreateRate caps run creations per second; 0 is unlimited
	CreateRate  float64 `yaml:"create_rate,omitempty" json:"create_rate,omitempty" validate:"gte=0"`
	CreateBurst int     `yaml:"create_burst,omitempty" json:"create_burst,omitempty" validate:"gte=0"`
}

// Defaults returns the configuration used when a field is not set
func Defaults() *RunConfig {
	return &RunConfig{
		LogLevel:            "info",
		LogFormat:           "text",
		Schedule:            ScheduleConfig{Kind: string(schedule.KindExponential)},
		StoppingTemperature: 5,
		Sweep: SweepConfig{
			Seeds:       16,
			Parallelism: 4,
		},
		Server: ServerConfig{
			HTTPAddr: ":8080",
			GRPCAddr: ":50051",
			MaxRuns:  1000,
		},
	}
}

// GetTimeBudget parses the time budget; an empty budget is 0 (disabled)
func (c *RunConfig) GetTimeBudget() (time.Duration, error) {
	if c.TimeBudget == "" {
		return 0, nil
	}
	return time.ParseDuration(c.TimeBudget)
}

// Params returns the schedule parameters
func (s ScheduleConfig) Params() schedule.Params {
	return schedule.Params{T0: s.T0, Alpha: s.Alpha, MaxSteps: s.MaxSteps}
}

// Build constructs the configured schedule
func (s ScheduleConfig) Build() (schedule.Schedule, error) {
	kind, err := schedule.ParseKind(s.Kind)
	if err != nil {
		return nil, err
	}
	return schedule.New(kind, s.Params())
}
