// Package synth generates the randomized event streams and document values of
// a demo dataset. Every generator takes an explicit *rand.Rand so runs are
// reproducible from a seed.
package synth

import "math/rand/v2"

// NewRand returns a seeded generator. The same seed yields the same stream.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// Between returns a uniform int in [lo, hi], both ends inclusive.
func Between(rng *rand.Rand, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}

// Uniform returns a uniform float64 in [lo, hi).
func Uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

// Choice returns a uniformly chosen element of items.
func Choice[T any](rng *rand.Rand, items []T) T {
	return items[rng.IntN(len(items))]
}
