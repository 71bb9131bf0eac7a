package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/sweep"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/config"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/logger"
)

type sweepRun struct {
	Seed   int64    `yaml:"seed" json:"seed"`
	Status string   `yaml:"status" json:"status"`
	Steps  int      `yaml:"steps" json:"steps"`
	Cost   float64  `yaml:"cost" json:"cost"`
	Tour   []string `yaml:"tour,omitempty" json:"tour,omitempty"`
}

type sweepOutput struct {
	Instance    string     `yaml:"instance" json:"instance"`
	Schedule    string     `yaml:"schedule" json:"schedule"`
	InitialCost float64    `yaml:"initial_cost" json:"initial_cost"`
	MinCost     float64    `yaml:"min_cost" json:"min_cost"`
	MedianCost  float64    `yaml:"median_cost" json:"median_cost"`
	MaxCost     float64    `yaml:"max_cost" json:"max_cost"`
	MeanCost    float64    `yaml:"mean_cost" json:"mean_cost"`
	StdDev      float64    `yaml:"stddev" json:"stddev"`
	Converged   int        `yaml:"converged" json:"converged"`
	Best        sweepRun   `yaml:"best" json:"best"`
	Runs        []sweepRun `yaml:"runs" json:"runs"`
}

func newSweepCmd(f *runFlags) *cobra.Command {
	var seeds, parallel int

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Anneal one instance under many seeds and summarise the final costs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("seeds") {
				cfg.Sweep.Seeds = seeds
			}
			if cmd.Flags().Changed("parallel") {
				cfg.Sweep.Parallelism = parallel
			}
			if err := config.Validate(cfg); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			plan, err := loadPlan(cfg)
			if err != nil {
				return err
			}

			base := cfg.Seed
			if base == 0 {
				base = 1
			}
			rep, err := sweep.Execute(cmd.Context(), plan, sweep.Seeds(base, cfg.Sweep.Seeds), sweep.Options{
				Parallelism: cfg.Sweep.Parallelism,
				Logger:      logger.Default,
			})
			if err != nil {
				return err
			}

			out := sweepOutput{
				Instance:    plan.Instance.Name,
				Schedule:    plan.Schedule.Name(),
				InitialCost: plan.InitialCost,
				MinCost:     rep.MinCost,
				MedianCost:  rep.MedianCost,
				MaxCost:     rep.MaxCost,
				MeanCost:    rep.MeanCost,
				StdDev:      rep.StdDev,
				Converged:   rep.Converged,
			}
			for _, run := range rep.Runs {
				out.Runs = append(out.Runs, sweepRun{
					Seed:   run.Seed,
					Status: string(run.Result.Status),
					Steps:  run.Result.Steps,
					Cost:   run.Result.FinalCost,
				})
			}
			best := rep.Best()
			out.Best = sweepRun{
				Seed:   best.Seed,
				Status: string(best.Result.Status),
				Steps:  best.Result.Steps,
				Cost:   best.Result.FinalCost,
				Tour:   best.Result.Summary().Path,
			}
			return render(cmd.OutOrStdout(), f.output, out)
		},
	}
	addRunFlags(cmd, f)
	cmd.Flags().IntVar(&seeds, "seeds", 0, "number of seeds (defaults to sweep.seeds)")
	cmd.Flags().IntVar(&parallel, "parallel", 0, "concurrent runs (defaults to sweep.parallelism)")
	return cmd
}
