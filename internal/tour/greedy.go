package tour

import (
	"fmt"

	"github.com/GoSim-25-26J-441/tsp-anneal/internal/distance"
)

// Greedy builds a nearest-neighbour tour from start and returns it with its cost.
// It is used to seed the annealing search.
func Greedy(model *distance.Model, start distance.City) (*State, float64, error) {
	if model == nil {
		return nil, 0, fmt.Errorf("%w: nil distance model", ErrInvalidPath)
	}
	if !model.Has(start) {
		return nil, 0, fmt.Errorf("greedy tour: %w: %q", distance.ErrUnknownCity, start)
	}

	remaining := make([]distance.City, 0, model.Len()-1)
	for _, c := range model.Cities() {
		if c != start {
			remaining = append(remaining, c)
		}
	}

	path := make([]distance.City, 0, model.Len()+1)
	path = append(path, start)
	for len(remaining) > 0 {
		next, _, err := model.NearestUnvisited(path[len(path)-1], remaining)
		if err != nil {
			return nil, 0, fmt.Errorf("greedy tour: %w", err)
		}
		path = append(path, next)
		remaining = remove(remaining, next)
	}
	path = append(path, start)

	st, err := New(model, path)
	if err != nil {
		return nil, 0, err
	}
	c, err := st.Cost()
	if err != nil {
		return nil, 0, err
	}
	return st, c, nil
}

func remove(cities []distance.City, c distance.City) []distance.City {
	for i, x := range cities {
		if x == c {
			return append(cities[:i], cities[i+1:]...)
		}
	}
	return cities
}
