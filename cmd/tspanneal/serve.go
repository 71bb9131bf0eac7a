package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/metrics"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/runstore"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/server"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/logger"
)

func newServeCmd(f *runFlags) *cobra.Command {
	var httpAddr, grpcAddr string
	var maxRuns int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC run service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("http-addr") {
				cfg.Server.HTTPAddr = httpAddr
			}
			if cmd.Flags().Changed("grpc-addr") {
				cfg.Server.GRPCAddr = grpcAddr
			}
			if cmd.Flags().Changed("max-runs") {
				cfg.Server.MaxRuns = maxRuns
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			log := logger.Default
			executor := runstore.NewExecutor(
				runstore.NewStore(cfg.Server.MaxRuns),
				runstore.WithBaseConfig(cfg),
				runstore.WithMetrics(metrics.New(reg)),
				runstore.WithNotifier(runstore.NewNotifier(log)),
				runstore.WithLogger(log),
			)

			// TODO: add TLS and authentication to both listeners before exposing them.
			srv := server.New(executor, server.Options{
				HTTPAddr:    cfg.Server.HTTPAddr,
				GRPCAddr:    cfg.Server.GRPCAddr,
				Gatherer:    reg,
				Logger:      log,
				CreateRate:  cfg.Server.CreateRate,
				CreateBurst: cfg.Server.CreateBurst,
			})
			return srv.Serve(cmd.Context())
		},
	}
	addRunFlags(cmd, f)
	cmd.Flags().StringVar(&httpAddr, "http-addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&grpcAddr, "grpc-addr", ":50051", "gRPC listen address")
	cmd.Flags().IntVar(&maxRuns, "max-runs", 1000, "runs kept in memory (0 is unlimited)")
	return cmd
}
