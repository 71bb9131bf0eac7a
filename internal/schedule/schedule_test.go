package schedule

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, kind Kind, p Params) Schedule {
	t.Helper()
	s, err := New(kind, p)
	require.NoError(t, err)
	return s
}

func TestDefaults(t *testing.T) {
	tests := []struct {
		kind Kind
		want Params
	}{
		{KindExponential, Params{T0: 200000, Alpha: 0.999995}},
		{KindLogarithmic, Params{T0: 10000, Alpha: 1000}},
		{KindQuadratic, Params{T0: 2000000, MaxSteps: 2000000}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := Defaults(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Defaults("linear")
	assert.ErrorIs(t, err, ErrUnknownSchedule)
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{
		"exponential": KindExponential,
		" Exp ":       KindExponential,
		"LOG":         KindLogarithmic,
		"quadratic":   KindQuadratic,
		"quad":        KindQuadratic,
	} {
		got, err := ParseKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseKind("geometric")
	assert.ErrorIs(t, err, ErrUnknownSchedule)
}

func TestNewInvalidParams(t *testing.T) {
	tests := []struct {
		name string
		kind Kind
		p    Params
	}{
		{"negative t0", KindExponential, Params{T0: -1}},
		{"alpha above one", KindExponential, Params{Alpha: 1.5}},
		{"alpha exactly one", KindExponential, Params{Alpha: 1}},
		{"negative log alpha", KindLogarithmic, Params{Alpha: -2}},
		{"negative horizon", KindQuadratic, Params{MaxSteps: -5}},
		{"infinite t0", KindLogarithmic, Params{T0: math.Inf(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.kind, tt.p)
			assert.ErrorIs(t, err, ErrInvalidParams)
		})
	}

	_, err := New("cosine", Params{})
	assert.ErrorIs(t, err, ErrUnknownSchedule)
}

func TestFormulas(t *testing.T) {
	exp := mustNew(t, KindExponential, Params{T0: 10000, Alpha: 0.995})
	assert.Equal(t, "exponential", exp.Name())
	assert.InDelta(t, 9950.0, exp.Temperature(1), 1e-9)
	assert.InDelta(t, math.Ceil(10000*math.Pow(0.995, 100)*100)/100, exp.Temperature(100), 1e-9)

	lg := mustNew(t, KindLogarithmic, Params{})
	assert.Equal(t, "logarithmic", lg.Name())
	want := math.Ceil(10000/(1+1000*math.Log(2))*100) / 100
	assert.InDelta(t, want, lg.Temperature(1), 1e-9)

	q := mustNew(t, KindQuadratic, Params{T0: 1000, MaxSteps: 10})
	assert.Equal(t, "quadratic", q.Name())
	assert.InDelta(t, math.Ceil(1000*math.Pow(0.5, 4)*10)/10, q.Temperature(5), 1e-9)
}

func TestRounding(t *testing.T) {
	// Exponential rounds up to 2 decimals: tiny temperatures stay at 0.01.
	exp := Exponential{T0: 1, Alpha: 0.5}
	assert.Equal(t, 0.01, exp.Temperature(40))

	lg := Logarithmic{T0: 1, Alpha: 1}
	v := lg.Temperature(3)
	assert.Equal(t, v, math.Ceil(v*100)/100)

	q := QuadraticDecay{T0: 1, MaxSteps: 1000}
	v = q.Temperature(999)
	assert.Equal(t, 0.1, v)
}

func TestIdempotent(t *testing.T) {
	for _, kind := range Kinds {
		s := mustNew(t, kind, Params{})
		for _, step := range []int{1, 7, 1000, 123456} {
			a := s.Temperature(step)
			b := s.Temperature(step)
			assert.Equal(t, math.Float64bits(a), math.Float64bits(b), "%s at %d", kind, step)
		}
	}
}

func TestNonIncreasing(t *testing.T) {
	for _, kind := range Kinds {
		t.Run(string(kind), func(t *testing.T) {
			s := mustNew(t, kind, Params{})
			prev := s.Temperature(1)
			assert.GreaterOrEqual(t, prev, 0.0)
			for step := 2; step <= 2500000; step += 997 {
				cur := s.Temperature(step)
				require.LessOrEqual(t, cur, prev, "temperature rose at step %d", step)
				require.GreaterOrEqual(t, cur, 0.0)
				prev = cur
			}
		})
	}
}

func TestQuadraticClampedPastHorizon(t *testing.T) {
	q := QuadraticDecay{T0: 2000000, MaxSteps: 2000000}
	assert.Equal(t, 0.0, q.Temperature(2000000))
	for _, step := range []int{2000001, 2500000, 4000000, 10000000} {
		assert.Equal(t, 0.0, q.Temperature(step), "step %d", step)
	}
	assert.Greater(t, q.Temperature(1999999), 0.0)
}

func TestStepZeroTreatedAsOne(t *testing.T) {
	for _, kind := range Kinds {
		s := mustNew(t, kind, Params{})
		assert.Equal(t, s.Temperature(1), s.Temperature(0))
		assert.Equal(t, s.Temperature(1), s.Temperature(-3))
	}
}

func TestLogarithmicSlowerThanExponential(t *testing.T) {
	exp := mustNew(t, KindExponential, Params{T0: 10000})
	lg := mustNew(t, KindLogarithmic, Params{T0: 10000})

	// Below a few degrees the logarithmic tail is far longer.
	const threshold = 0.5
	expSteps := StepsToReach(exp, threshold, 10_000_000)
	require.NotZero(t, expSteps)
	assert.Zero(t, StepsToReach(lg, threshold, expSteps), "logarithmic should still be hot when exponential is cold")
}

func TestStepsToReach(t *testing.T) {
	q := QuadraticDecay{T0: 1000, MaxSteps: 100}
	assert.Equal(t, 100, StepsToReach(q, 0, 1000))
	assert.Equal(t, 0, StepsToReach(q, 0, 50))

	n := StepsToReach(q, 10, 1000)
	require.NotZero(t, n)
	assert.LessOrEqual(t, q.Temperature(n), 10.0)
	assert.Greater(t, q.Temperature(n-1), 10.0)
}

func TestSample(t *testing.T) {
	s := QuadraticDecay{T0: 16, MaxSteps: 2}
	pts := Sample(s, []int{1, 2, 3})
	assert.Equal(t, []Point{{1, 1}, {2, 0}, {3, 0}}, pts)
}
