package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/schedule"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/config"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/logger"
)

// runFlags are the flags shared by solve, sweep and serve. Flags override
// the config file only when set on the command line.
type runFlags struct {
	configPath string
	instance   string
	start      string
	schedule   string
	t0         float64
	alpha      float64
	horizon    int
	seed       int64
	stopTemp   float64
	timeBudget string
	maxSteps   int
	output     string
	logLevel   string
	logFormat  string
}

func newRootCmd() *cobra.Command {
	f := &runFlags{}
	root := &cobra.Command{
		Use:           "tspanneal",
		Short:         "Simulated annealing solver for the travelling salesman problem",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Configure(f.logLevel, f.logFormat, cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&f.logFormat, "log-format", "text", "log format (text, json)")

	root.AddCommand(
		newSolveCmd(f),
		newSweepCmd(f),
		newScheduleCmd(),
		newServeCmd(f),
	)
	return root
}

func addRunFlags(cmd *cobra.Command, f *runFlags) {
	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "run configuration file (YAML)")
	fs.StringVarP(&f.instance, "instance", "i", "", "instance file (.yaml, .yml or edge list)")
	fs.StringVar(&f.start, "start", "", "start city (defaults to the instance start)")
	fs.StringVarP(&f.schedule, "schedule", "s", "", "temperature schedule: "+kindList())
	fs.Float64Var(&f.t0, "t0", 0, "initial temperature (0 keeps the schedule default)")
	fs.Float64Var(&f.alpha, "alpha", 0, "schedule alpha (0 keeps the schedule default)")
	fs.IntVar(&f.horizon, "horizon", 0, "quadratic schedule horizon in steps")
	fs.Int64Var(&f.seed, "seed", 0, "random seed (0 picks one from the clock)")
	fs.Float64Var(&f.stopTemp, "stop-temp", config.Defaults().StoppingTemperature, "stopping temperature")
	fs.StringVar(&f.timeBudget, "time-budget", "", "wall-clock budget, e.g. 30s")
	fs.IntVar(&f.maxSteps, "max-steps", 0, "step limit (0 disables it)")
	fs.StringVarP(&f.output, "output", "o", "yaml", "output format (yaml, json)")
}

func kindList() string {
	names := make([]string, len(schedule.Kinds))
	for i, k := range schedule.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// loadConfig reads the config file, if any, and applies flags that were set.
func loadConfig(cmd *cobra.Command, f *runFlags) (*config.RunConfig, error) {
	cfg := config.Defaults()
	if f.configPath != "" {
		loaded, err := config.LoadRunConfig(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	fs := cmd.Flags()
	if fs.Changed("instance") {
		cfg.Instance = f.instance
	}
	if fs.Changed("start") {
		cfg.Start = f.start
	}
	if fs.Changed("schedule") {
		cfg.Schedule = config.ScheduleConfig{Kind: f.schedule}
	}
	if fs.Changed("t0") {
		cfg.Schedule.T0 = f.t0
	}
	if fs.Changed("alpha") {
		cfg.Schedule.Alpha = f.alpha
	}
	if fs.Changed("horizon") {
		cfg.Schedule.MaxSteps = f.horizon
	}
	if fs.Changed("seed") {
		cfg.Seed = f.seed
	}
	if fs.Changed("stop-temp") {
		cfg.StoppingTemperature = f.stopTemp
	}
	if fs.Changed("time-budget") {
		cfg.TimeBudget = f.timeBudget
	}
	if fs.Changed("max-steps") {
		cfg.MaxSteps = f.maxSteps
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// render writes v as YAML or JSON.
func render(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
