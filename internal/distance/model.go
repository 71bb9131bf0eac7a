// Package distance holds the city set of a TSP instance and the symmetric
// distances between cities.
//
// A Model is built once through a Builder (or FromCoordinates) and is
// read-only afterwards, so a single Model may be shared by any number of
// concurrent annealing runs.
package distance

import (
	"fmt"
	"math"
)

// City identifies a city of the instance.
type City string

// Model is an immutable, complete and symmetric distance table.
type Model struct {
	cities []City
	index  map[City]int
	// w[i*n+j] is the distance between cities[i] and cities[j].
	w []float64
}

// Len returns the number of cities.
func (m *Model) Len() int {
	return len(m.cities)
}

// Cities returns the cities in input order.
func (m *Model) Cities() []City {
	out := make([]City, len(m.cities))
	copy(out, m.cities)
	return out
}

// Has reports whether c belongs to the model.
func (m *Model) Has(c City) bool {
	_, ok := m.index[c]
	return ok
}

// Index returns the input position of c.
func (m *Model) Index(c City) (int, error) {
	i, ok := m.index[c]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCity, c)
	}
	return i, nil
}

// Distance returns the distance between a and b. Distance(a, a) is 0.
func (m *Model) Distance(a, b City) (float64, error) {
	i, ok := m.index[a]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCity, a)
	}
	j, ok := m.index[b]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCity, b)
	}
	return m.w[i*len(m.cities)+j], nil
}

// NearestUnvisited returns the candidate closest to from together with its
// distance. Ties go to the city listed first in the instance. Candidates equal
// to from are ignored.
func (m *Model) NearestUnvisited(from City, candidates []City) (City, float64, error) {
	i, ok := m.index[from]
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownCity, from)
	}

	n := len(m.cities)
	var (
		best     City
		bestIdx  = -1
		bestDist = math.Inf(1)
	)
	for _, c := range candidates {
		j, ok := m.index[c]
		if !ok {
			return "", 0, fmt.Errorf("%w: %q", ErrUnknownCity, c)
		}
		if j == i {
			continue
		}
		d := m.w[i*n+j]
		if d < bestDist || (d == bestDist && j < bestIdx) {
			best, bestIdx, bestDist = c, j, d
		}
	}
	if bestIdx < 0 {
		return "", 0, ErrEmptyCandidates
	}
	return best, bestDist, nil
}
