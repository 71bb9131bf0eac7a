package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/anneal"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/instance"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/solver"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/config"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/logger"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/models"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/utils"
)

type solveOutput struct {
	Instance string `yaml:"instance" json:"instance"`
	Cities   int    `yaml:"cities" json:"cities"`

	models.RunResult `yaml:",inline"`
}

func newSolveCmd(f *runFlags) *cobra.Command {
	var trajectory bool
	var progress int

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Anneal one instance from its greedy tour and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			plan, err := loadPlan(cfg)
			if err != nil {
				return err
			}

			rng := utils.NewRandSource(cfg.Seed)
			log := logger.With("instance", plan.Instance.Name, "seed", rng.Seed())
			opts := []anneal.Option{anneal.WithLogger(log)}
			if progress > 0 {
				opts = append(opts, anneal.WithObserver(anneal.Progress(progress, func(step int, temperature, cost float64) {
					log.Info("progress", "step", step, "temperature", temperature, "cost", cost)
				})))
			}

			log.Info("solving",
				"cities", plan.Instance.Model.Len(),
				"schedule", plan.Schedule.Name(),
				"initial_cost", plan.InitialCost,
			)
			res, err := plan.Run(cmd.Context(), rng, opts...)
			if err != nil {
				return err
			}
			log.Info("done", "status", res.Status, "steps", res.Steps, "cost", res.FinalCost, "elapsed", res.Elapsed)

			points := 0
			if trajectory {
				points = res.Steps
			}
			return render(cmd.OutOrStdout(), f.output, solveOutput{
				Instance:  plan.Instance.Name,
				Cities:    plan.Instance.Model.Len(),
				RunResult: *solver.ToModel(res, rng.Seed(), points),
			})
		},
	}
	addRunFlags(cmd, f)
	cmd.Flags().BoolVar(&trajectory, "trajectory", false, "include the cost trajectory in the output")
	cmd.Flags().IntVar(&progress, "progress", 0, "log progress every n steps (0 disables it)")
	return cmd
}

func loadPlan(cfg *config.RunConfig) (*solver.Plan, error) {
	if cfg.Instance == "" {
		return nil, errors.New("no instance: pass --instance or set instance in the config file")
	}
	inst, err := instance.Load(cfg.Instance)
	if err != nil {
		return nil, fmt.Errorf("load instance: %w", err)
	}
	return solver.Prepare(inst, cfg)
}
