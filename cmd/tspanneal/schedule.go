package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/schedule"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/config"
)

type scheduleOutput struct {
	Schedule string           `yaml:"schedule" json:"schedule"`
	Points   []schedule.Point `yaml:"points" json:"points"`
	// ReachedAt is the first step at or below Threshold; 0 if never within the limit.
	Threshold *float64 `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	ReachedAt int      `yaml:"reached_at,omitempty" json:"reached_at,omitempty"`
}

func newScheduleCmd() *cobra.Command {
	var (
		kind      string
		t0, alpha float64
		horizon   int
		steps     []int
		until     float64
		limit     int
		output    string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Print the temperature of a schedule at the given steps",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.ScheduleConfig{Kind: kind, T0: t0, Alpha: alpha, MaxSteps: horizon}.Build()
			if err != nil {
				return err
			}

			out := scheduleOutput{
				Schedule: s.Name(),
				Points:   schedule.Sample(s, steps),
			}
			if cmd.Flags().Changed("until") {
				out.Threshold = &until
				out.ReachedAt = schedule.StepsToReach(s, until, limit)
			}

			if output != "table" {
				return render(cmd.OutOrStdout(), output, out)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "STEP\tTEMPERATURE\n")
			for _, p := range out.Points {
				fmt.Fprintf(tw, "%d\t%g\n", p.Step, p.Temperature)
			}
			if out.Threshold != nil {
				fmt.Fprintf(tw, "reaches %g at\t%d\n", until, out.ReachedAt)
			}
			return tw.Flush()
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&kind, "schedule", "s", string(schedule.KindExponential), "temperature schedule: "+kindList())
	fs.Float64Var(&t0, "t0", 0, "initial temperature (0 keeps the schedule default)")
	fs.Float64Var(&alpha, "alpha", 0, "schedule alpha (0 keeps the schedule default)")
	fs.IntVar(&horizon, "horizon", 0, "quadratic schedule horizon in steps")
	fs.IntSliceVar(&steps, "steps", []int{0, 1, 10, 100, 1000, 10000, 100000, 1000000}, "steps to evaluate")
	fs.Float64Var(&until, "until", 0, "also report the first step at or below this temperature")
	fs.IntVar(&limit, "limit", 100000000, "search limit for --until")
	fs.StringVarP(&output, "output", "o", "table", "output format (table, yaml, json)")
	return cmd
}
