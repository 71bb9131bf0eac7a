// Package tour represents candidate TSP solutions: closed tours over the
// cities of a distance.Model, their cost, and the 2-opt move that derives a
// neighbouring tour.
package tour

import (
	"errors"
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/distance"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/utils"
)

// MaxNeighborRetries bounds how many times Neighbor redraws a pair of equal
// positions before giving up.
const MaxNeighborRetries = 64

var (
	// ErrDegenerateInstance is returned when an instance is too small for the
	// move operator or the random source never yields two distinct positions.
	ErrDegenerateInstance = errors.New("tour: degenerate instance")

	// ErrInvalidPath is returned for paths that are not closed or reference
	// unknown cities.
	ErrInvalidPath = errors.New("tour: invalid path")
)

// cost is set at most once per State.
type cost struct {
	computed bool
	value    float64
}

// State is one closed tour. It is never modified after construction.
type State struct {
	model *distance.Model
	start distance.City
	path  []distance.City
	cost  cost
}

// New creates a State from a closed path (path[0] == path[len-1]). The first
// city is the fixed start city of the tour.
func New(model *distance.Model, path []distance.City) (*State, error) {
	if model == nil {
		return nil, fmt.Errorf("%w: nil distance model", ErrInvalidPath)
	}
	if len(path) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 entries, got %d", ErrInvalidPath, len(path))
	}
	if path[0] != path[len(path)-1] {
		return nil, fmt.Errorf("%w: tour is not closed (%s ... %s)", ErrInvalidPath, path[0], path[len(path)-1])
	}
	for _, c := range path {
		if !model.Has(c) {
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidPath, distance.ErrUnknownCity, c)
		}
	}
	p := make([]distance.City, len(path))
	copy(p, path)
	return &State{model: model, start: p[0], path: p}, nil
}

// Start returns the fixed start (and end) city.
func (s *State) Start() distance.City {
	return s.start
}

// Path returns a copy of the closed path.
func (s *State) Path() []distance.City {
	out := make([]distance.City, len(s.path))
	copy(out, s.path)
	return out
}

// Len returns the number of path entries, including the closing city.
func (s *State) Len() int {
	return len(s.path)
}

// Model returns the distance model the tour is evaluated against.
func (s *State) Model() *distance.Model {
	return s.model
}

// Cost returns the sum of distances between consecutive path entries.
// The value is computed on the first call and returned unchanged afterwards.
func (s *State) Cost() (float64, error) {
	if s.cost.computed {
		return s.cost.value, nil
	}
	sum := 0.0
	for i := 0; i < len(s.path)-1; i++ {
		d, err := s.model.Distance(s.path[i], s.path[i+1])
		if err != nil {
			return 0, err
		}
		sum += d
	}
	s.cost = cost{computed: true, value: sum}
	return sum, nil
}

// Neighbor returns a new State whose path equals this one with a random
// closed interior range [i, k] reversed. The start city never moves.
// It reports false when the tour has fewer than two interior cities.
func (s *State) Neighbor(rng utils.Random) (*State, bool, error) {
	last := len(s.path) - 1
	if len(s.path) < 4 {
		return nil, false, nil
	}

	i, k := 0, 0
	for attempt := 0; ; attempt++ {
		if attempt == MaxNeighborRetries {
			return nil, false, fmt.Errorf("%w: no distinct positions after %d draws", ErrDegenerateInstance, MaxNeighborRetries)
		}
		i = utils.IntRange(rng, 1, last-1)
		k = utils.IntRange(rng, 1, last-1)
		if i != k {
			break
		}
	}
	if i > k {
		i, k = k, i
	}

	return &State{
		model: s.model,
		start: s.start,
		path:  reversed(s.path, i, k),
	}, true, nil
}

// reversed returns a copy of path with the closed range [i, k] reversed.
func reversed(path []distance.City, i, k int) []distance.City {
	out := make([]distance.City, len(path))
	copy(out, path)
	for ; i < k; i, k = i+1, k-1 {
		out[i], out[k] = out[k], out[i]
	}
	return out
}

// IsGoal reports whether the path starts and ends at the start city and
// visits every city of the model exactly once in between.
func (s *State) IsGoal() bool {
	last := len(s.path) - 1
	if last < 1 || s.path[0] != s.start || s.path[0] != s.path[last] {
		return false
	}
	if last != s.model.Len() {
		return false
	}
	seen := make(map[distance.City]bool, last)
	for _, c := range s.path[:last] {
		if seen[c] || !s.model.Has(c) {
			return false
		}
		seen[c] = true
	}
	return true
}

// String renders the path as A->B->C->A.
func (s *State) String() string {
	parts := make([]string, len(s.path))
	for i, c := range s.path {
		parts[i] = string(c)
	}
	return strings.Join(parts, "->")
}
