package utils

import (
	"math/rand"
	"time"
)

// Random is the randomness consumed by the annealing core. Implementations
// are not required to be safe for concurrent use.
type Random interface {
	// Float64 returns a value in [0.0, 1.0)
	Float64() float64
	// Intn returns a value in [0, n)
	Intn(n int) int
}

// RandSource is a seeded random number generator owned by a single run.
// It is not safe for concurrent use; give every goroutine its own source.
type RandSource struct {
	seed int64
	rng  *rand.Rand
}

var _ Random = (*RandSource)(nil)

// NewRandSource creates a new random source with the given seed.
// A zero seed is replaced by the current time; Seed reports the value used.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSource{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed the source was created with
func (r *RandSource) Seed() int64 {
	return r.seed
}

// Float64 returns a random float64 in [0.0, 1.0)
func (r *RandSource) Float64() float64 {
	return r.rng.Float64()
}

// Intn returns a random int in [0, n)
func (r *RandSource) Intn(n int) int {
	return r.rng.Intn(n)
}

// IntRange returns a uniformly distributed int in the closed range [lo, hi]
func (r *RandSource) IntRange(lo, hi int) int {
	return IntRange(r, lo, hi)
}

// IntRange draws a uniformly distributed int in the closed range [lo, hi] from src.
func IntRange(src Random, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo+1)
}

// DeriveSeed mixes a base seed and a stream index into an independent seed
// (SplitMix64 finalizer). Used to give parallel runs decorrelated sources.
func DeriveSeed(base int64, stream uint64) int64 {
	x := uint64(base) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	s := int64(x)
	if s == 0 {
		s = 1
	}
	return s
}
