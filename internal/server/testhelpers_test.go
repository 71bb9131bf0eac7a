package server

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/metrics"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/runstore"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const squareYAML = `
name: square
cities: [A, B, C, D]
distances:
  - {from: A, to: B, distance: 1}
  - {from: B, to: C, distance: 1}
  - {from: C, to: D, distance: 1}
  - {from: D, to: A, distance: 1}
  - {from: A, to: C, distance: 1.4142135623730951}
  - {from: B, to: D, distance: 1.4142135623730951}
`

const fastOverrides = `
seed: 5
schedule: {kind: exponential, t0: 10, alpha: 0.99}
stopping_temperature: 0.05
`

const slowOverrides = `
seed: 5
schedule: {kind: quadratic, t0: 100, max_steps: 2000000}
stopping_temperature: 0
`

func newTestExecutor(t *testing.T) (*runstore.Executor, *prometheus.Registry) {
	t.Helper()
	return newBoundedExecutor(t, 0)
}

// newBoundedExecutor backs the executor with a store holding at most maxRuns runs.
func newBoundedExecutor(t *testing.T, maxRuns int) (*runstore.Executor, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	ex := runstore.NewExecutor(runstore.NewStore(maxRuns), runstore.WithMetrics(metrics.New(reg)))
	t.Cleanup(ex.Wait)
	return ex, reg
}

func waitForStatus(t *testing.T, ex *runstore.Executor, id string, want models.RunStatus) *runstore.Record {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		rec, ok := ex.Store().Get(id)
		if !ok {
			t.Fatalf("run %s not found", id)
		}
		if rec.Run.Status == want {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("run %s did not reach %s", id, want)
	return nil
}
