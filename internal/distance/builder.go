package distance

import (
	"fmt"
	"math"
)

// Builder accumulates symmetric distances before producing a Model.
type Builder struct {
	cities []City
	index  map[City]int
	w      []float64
	set    []bool
	err    error
}

// NewBuilder starts a model over cities, kept in the given order.
func NewBuilder(cities []City) *Builder {
	b := &Builder{
		cities: make([]City, 0, len(cities)),
		index:  make(map[City]int, len(cities)),
	}
	for _, c := range cities {
		if _, dup := b.index[c]; dup {
			b.err = fmt.Errorf("%w: %q", ErrDuplicateCity, c)
			continue
		}
		b.index[c] = len(b.cities)
		b.cities = append(b.cities, c)
	}
	n := len(b.cities)
	b.w = make([]float64, n*n)
	b.set = make([]bool, n*n)
	return b
}

// Set records the distance between a and b in both directions. The first
// error is kept and reported by Build.
func (b *Builder) Set(a, c City, d float64) *Builder {
	if b.err != nil {
		return b
	}
	i, ok := b.index[a]
	if !ok {
		b.err = fmt.Errorf("%w: %q", ErrUnknownCity, a)
		return b
	}
	j, ok := b.index[c]
	if !ok {
		b.err = fmt.Errorf("%w: %q", ErrUnknownCity, c)
		return b
	}
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		b.err = fmt.Errorf("%w: %q-%q = %v", ErrInvalidDistance, a, c, d)
		return b
	}
	if i == j {
		return b
	}

	n := len(b.cities)
	if b.set[i*n+j] && b.w[i*n+j] != d {
		b.err = fmt.Errorf("%w: %q-%q has %v and %v", ErrAsymmetric, a, c, b.w[i*n+j], d)
		return b
	}
	b.w[i*n+j], b.w[j*n+i] = d, d
	b.set[i*n+j], b.set[j*n+i] = true, true
	return b
}

// Build validates completeness and returns the Model.
func (b *Builder) Build() (*Model, error) {
	if b.err != nil {
		return nil, b.err
	}
	n := len(b.cities)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !b.set[i*n+j] {
				return nil, fmt.Errorf("%w: %q-%q", ErrMissingDistance, b.cities[i], b.cities[j])
			}
		}
	}

	w := make([]float64, len(b.w))
	copy(w, b.w)
	cities := make([]City, n)
	copy(cities, b.cities)
	index := make(map[City]int, n)
	for k, v := range b.index {
		index[k] = v
	}
	return &Model{cities: cities, index: index, w: w}, nil
}

// Point is a planar coordinate.
type Point struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// FromCoordinates builds a Euclidean model; points[i] belongs to cities[i].
func FromCoordinates(cities []City, points []Point) (*Model, error) {
	if len(cities) != len(points) {
		return nil, fmt.Errorf("distance: %d cities but %d coordinates", len(cities), len(points))
	}
	b := NewBuilder(cities)
	for i := range cities {
		for j := i + 1; j < len(cities); j++ {
			b.Set(cities[i], cities[j], math.Hypot(points[i].X-points[j].X, points[i].Y-points[j].Y))
		}
	}
	return b.Build()
}
