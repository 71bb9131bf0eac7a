package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logger.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
