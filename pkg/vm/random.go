package vm

import (
	"math/rand/v2"
)

// Random is the machine-wide random number generator. There is exactly one
// per machine so a fixed seed makes a run reproducible.
type Random struct {
	rng *rand.Rand
}

// NewRandom creates a generator from seed.
func NewRandom(seed uint64) *Random {
	return &Random{rng: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))}
}

// Int returns a uniformly distributed integer in [min, max].
// When max < min it returns min.
func (r *Random) Int(min, max int32) int32 {
	if max <= min {
		return min
	}
	span := int64(max) - int64(min) + 1
	return int32(int64(min) + r.rng.Int64N(span))
}

// Float returns a uniformly distributed float in [min, max). The range is
// computed in double precision and truncated back.
func (r *Random) Float(min, max float32) float32 {
	lo, hi := float64(min), float64(max)
	if hi <= lo {
		return min
	}
	return float32(lo + r.rng.Float64()*(hi-lo))
}
