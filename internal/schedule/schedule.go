// Package schedule provides temperature schedules for simulated annealing.
//
// A Schedule maps a step count (starting at 1) to a temperature. Every
// variant is a pure function of the step: calling Temperature twice with the
// same step returns the same value, and values never increase with the step.
package schedule

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/utils"
)

// Kind names a schedule variant.
type Kind string

const (
	KindExponential Kind = "exponential"
	KindLogarithmic Kind = "logarithmic"
	KindQuadratic   Kind = "quadratic"
)

// Kinds lists the supported variants.
var Kinds = []Kind{KindExponential, KindLogarithmic, KindQuadratic}

var (
	ErrUnknownSchedule = errors.New("schedule: unknown schedule")
	ErrInvalidParams   = errors.New("schedule: invalid parameters")
)

// Schedule returns the temperature for a step.
type Schedule interface {
	Temperature(step int) float64
	Name() string
}

// Params holds the tunables of all variants. Zero fields take the variant's defaults.
type Params struct {
	T0       float64 `yaml:"t0" json:"t0"`
	Alpha    float64 `yaml:"alpha" json:"alpha"`
	MaxSteps int     `yaml:"max_steps" json:"max_steps"`
}

// Defaults returns the default parameters of kind.
func Defaults(kind Kind) (Params, error) {
	switch kind {
	case KindExponential:
		return Params{T0: 200000, Alpha: 0.999995}, nil
	case KindLogarithmic:
		return Params{T0: 10000, Alpha: 1000}, nil
	case KindQuadratic:
		return Params{T0: 2000000, MaxSteps: 2000000}, nil
	}
	return Params{}, fmt.Errorf("%w: %q", ErrUnknownSchedule, kind)
}

// ParseKind resolves a schedule name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case KindExponential, KindLogarithmic, KindQuadratic:
		return k, nil
	case "exp":
		return KindExponential, nil
	case "log":
		return KindLogarithmic, nil
	case "quad":
		return KindQuadratic, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSchedule, s)
}

// New builds a schedule of the given kind, filling zero params from Defaults.
func New(kind Kind, p Params) (Schedule, error) {
	d, err := Defaults(kind)
	if err != nil {
		return nil, err
	}
	if p.T0 == 0 {
		p.T0 = d.T0
	}
	if p.Alpha == 0 {
		p.Alpha = d.Alpha
	}
	if p.MaxSteps == 0 {
		p.MaxSteps = d.MaxSteps
	}
	if p.T0 < 0 || math.IsNaN(p.T0) || math.IsInf(p.T0, 0) {
		return nil, fmt.Errorf("%w: t0 must be a positive number, got %v", ErrInvalidParams, p.T0)
	}

	switch kind {
	case KindExponential:
		if p.Alpha <= 0 || p.Alpha >= 1 {
			return nil, fmt.Errorf("%w: exponential alpha must be in (0, 1), got %v", ErrInvalidParams, p.Alpha)
		}
		return Exponential{T0: p.T0, Alpha: p.Alpha}, nil
	case KindLogarithmic:
		if p.Alpha < 0 || math.IsInf(p.Alpha, 0) || math.IsNaN(p.Alpha) {
			return nil, fmt.Errorf("%w: logarithmic alpha must be non-negative, got %v", ErrInvalidParams, p.Alpha)
		}
		return Logarithmic{T0: p.T0, Alpha: p.Alpha}, nil
	default:
		if p.MaxSteps < 1 {
			return nil, fmt.Errorf("%w: quadratic max_steps must be positive, got %d", ErrInvalidParams, p.MaxSteps)
		}
		return QuadraticDecay{T0: p.T0, MaxSteps: p.MaxSteps}, nil
	}
}

// Exponential is T(t) = T0 * Alpha^t, rounded up to 2 decimals.
type Exponential struct {
	T0    float64
	Alpha float64
}

func (s Exponential) Name() string { return string(KindExponential) }

func (s Exponential) Temperature(step int) float64 {
	return utils.CeilTo(s.T0*math.Pow(s.Alpha, float64(clampStep(step))), 2)
}

// Logarithmic is T(t) = T0 / (1 + Alpha*ln(1+t)), rounded up to 2 decimals.
type Logarithmic struct {
	T0    float64
	Alpha float64
}

func (s Logarithmic) Name() string { return string(KindLogarithmic) }

func (s Logarithmic) Temperature(step int) float64 {
	t := float64(clampStep(step))
	return utils.CeilTo(s.T0/(1+s.Alpha*math.Log(1+t)), 2)
}

// QuadraticDecay is T(t) = T0 * ((MaxSteps-t)/MaxSteps)^4, rounded up to
// 1 decimal. It reaches 0 at MaxSteps and stays there.
type QuadraticDecay struct {
	T0       float64
	MaxSteps int
}

func (s QuadraticDecay) Name() string { return string(KindQuadratic) }

func (s QuadraticDecay) Temperature(step int) float64 {
	t := clampStep(step)
	if s.MaxSteps <= 0 || t >= s.MaxSteps {
		return 0
	}
	r := float64(s.MaxSteps-t) / float64(s.MaxSteps)
	return utils.CeilTo(s.T0*r*r*r*r, 1)
}

func clampStep(step int) int {
	if step < 1 {
		return 1
	}
	return step
}

// Point is one row of a temperature table.
type Point struct {
	Step        int     `yaml:"step" json:"step"`
	Temperature float64 `yaml:"temperature" json:"temperature"`
}

// Sample evaluates s at each of steps.
func Sample(s Schedule, steps []int) []Point {
	out := make([]Point, len(steps))
	for i, st := range steps {
		out[i] = Point{Step: st, Temperature: s.Temperature(st)}
	}
	return out
}

// StepsToReach returns the first step in [1, limit] whose temperature is at
// or below threshold, or 0 when none is.
func StepsToReach(s Schedule, threshold float64, limit int) int {
	lo, hi := 1, limit
	if hi < 1 || s.Temperature(hi) > threshold {
		return 0
	}
	for lo < hi {
		mid := lo + (hi-lo)/2
		if s.Temperature(mid) <= threshold {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}
