// Package randutil builds reproducible random sources for dealing and room codes.
package randutil

import (
	rand "math/rand/v2"

	"bazas-game/internal/shared"
)

const goldenRatio64 = 0x9e3779b97f4a7c15

// New returns a *rand.Rand seeded deterministically from seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(splitmix(u), splitmix(u+goldenRatio64)))
}

// Float returns a shuffle source backed by rng. A nil rng uses the global source.
func Float(rng *rand.Rand) shared.RandFunc {
	if rng == nil {
		return shared.DefaultRand
	}
	return rng.Float64
}

func splitmix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
