package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/anneal"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/distance"
	"github.com/GoSim-25-26J-441/tsp-anneal/internal/instance"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/config"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/utils"
)

const squareYAML = `
name: square
start: A
cities: [A, B, C, D]
distances:
  - {from: A, to: B, distance: 1}
  - {from: B, to: C, distance: 1}
  - {from: C, to: D, distance: 1}
  - {from: D, to: A, distance: 1}
  - {from: A, to: C, distance: 1.4142135623730951}
  - {from: B, to: D, distance: 1.4142135623730951}
`

func squareInstance(t *testing.T) *instance.Instance {
	t.Helper()
	inst, err := instance.Parse([]byte(squareYAML), instance.FormatYAML)
	require.NoError(t, err)
	return inst
}

func fastConfig() *config.RunConfig {
	cfg := config.Defaults()
	cfg.Schedule = config.ScheduleConfig{Kind: "exponential", T0: 10, Alpha: 0.99}
	cfg.StoppingTemperature = 0.05
	return cfg
}

func TestPrepare(t *testing.T) {
	plan, err := Prepare(squareInstance(t), fastConfig())
	require.NoError(t, err)

	assert.Equal(t, distance.City("A"), plan.Start)
	assert.Equal(t, "exponential", plan.Schedule.Name())
	assert.InDelta(t, 4.0, plan.InitialCost, 1e-12)
	assert.True(t, plan.Initial.IsGoal())

	p := plan.Problem()
	assert.Same(t, plan.Initial, p.Initial)
	assert.Equal(t, 0.05, p.StoppingTemperature)
	assert.Zero(t, p.TimeBudget)
	assert.Zero(t, p.MaxSteps)
}

func TestPrepareStartOverride(t *testing.T) {
	cfg := fastConfig()
	cfg.Start = "C"
	plan, err := Prepare(squareInstance(t), cfg)
	require.NoError(t, err)
	assert.Equal(t, distance.City("C"), plan.Initial.Start())
}

func TestPrepareErrors(t *testing.T) {
	t.Run("unknown start", func(t *testing.T) {
		cfg := fastConfig()
		cfg.Start = "Z"
		_, err := Prepare(squareInstance(t), cfg)
		assert.ErrorIs(t, err, distance.ErrUnknownCity)
	})
	t.Run("bad budget", func(t *testing.T) {
		cfg := fastConfig()
		cfg.TimeBudget = "whenever"
		_, err := Prepare(squareInstance(t), cfg)
		assert.Error(t, err)
	})
	t.Run("no instance", func(t *testing.T) {
		_, err := Prepare(nil, fastConfig())
		assert.ErrorIs(t, err, anneal.ErrInvalidProblem)
	})
}

func TestPlanRun(t *testing.T) {
	plan, err := Prepare(squareInstance(t), fastConfig())
	require.NoError(t, err)

	rng := utils.NewRandSource(2024)
	res, err := plan.Run(context.Background(), rng)
	require.NoError(t, err)
	assert.Equal(t, anneal.StatusConverged, res.Status)
	assert.InDelta(t, 4.0, res.FinalCost, 1e-9)
	assert.True(t, res.Final.IsGoal())

	m := ToModel(res, rng.Seed(), res.Steps)
	assert.Equal(t, "converged", m.Outcome)
	assert.Equal(t, int64(2024), m.Seed)
	assert.Len(t, m.Trajectory, res.Steps)
	assert.Equal(t, m.Tour[0], m.Tour[len(m.Tour)-1])
	assert.Equal(t, res.Accepted+res.Rejected, m.Steps)

	assert.Empty(t, ToModel(res, 1, 0).Trajectory)
}

func TestPlanSharedAcrossRuns(t *testing.T) {
	plan, err := Prepare(squareInstance(t), fastConfig())
	require.NoError(t, err)

	a, err := plan.Run(context.Background(), utils.NewRandSource(7))
	require.NoError(t, err)
	b, err := plan.Run(context.Background(), utils.NewRandSource(7))
	require.NoError(t, err)

	assert.Equal(t, a.Final.Path(), b.Final.Path())
	assert.Equal(t, a.Trajectory, b.Trajectory)
	assert.Equal(t, 4.0, plan.InitialCost)
}

func TestDownsample(t *testing.T) {
	samples := make([]anneal.Sample, 1000)
	for i := range samples {
		samples[i] = anneal.Sample{Step: i + 1, Cost: float64(1000 - i)}
	}

	assert.Nil(t, Downsample(samples, 0))
	assert.Nil(t, Downsample(nil, 10))
	assert.Len(t, Downsample(samples, 5000), 1000)

	out := Downsample(samples, 100)
	assert.Len(t, out, 100)
	assert.Equal(t, 10, out[0].Step)
	assert.Equal(t, 1000, out[len(out)-1].Step)

	out = Downsample(samples, 7)
	assert.LessOrEqual(t, len(out), 7)
	assert.Equal(t, 1000, out[len(out)-1].Step)
	for i := 1; i < len(out); i++ {
		assert.Less(t, out[i-1].Step, out[i].Step)
	}
}
