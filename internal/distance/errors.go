package distance

import "errors"

var (
	// ErrUnknownCity is returned when a query references a city that is not in the model.
	ErrUnknownCity = errors.New("distance: unknown city")

	// ErrEmptyCandidates is returned by NearestUnvisited when no candidate is left.
	ErrEmptyCandidates = errors.New("distance: empty candidate set")

	// ErrDuplicateCity is returned when the same city is declared twice.
	ErrDuplicateCity = errors.New("distance: duplicate city")

	// ErrMissingDistance is returned by Build when some pair of cities has no distance.
	ErrMissingDistance = errors.New("distance: missing distance")

	// ErrInvalidDistance is returned for negative, NaN or infinite distances.
	ErrInvalidDistance = errors.New("distance: invalid distance")

	// ErrAsymmetric is returned when a pair is set twice with different values.
	ErrAsymmetric = errors.New("distance: asymmetric distance")
)
