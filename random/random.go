// Package random provides the seeded random-number source shared by HMM
// sampling and Builder calibration. It exists as a thin, explicitly
// instantiated wrapper around math/rand, with no process-wide singleton,
// so every consumer can be handed its own independent stream.
package random

import (
	"math/rand"
	"time"
)

// Randomness is a single, independently seeded random number stream.
// A Randomness is not safe for concurrent use; callers that need one
// stream per worker thread should construct one Randomness each.
type Randomness struct {
	rng  *rand.Rand
	seed uint64
}

// New returns a Randomness seeded with seed. A seed of 0 requests a
// nondeterministic stream seeded from the current time, matching the
// Builder's own seed=0 convention.
func New(seed uint64) *Randomness {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Randomness{rng: rand.New(rand.NewSource(int64(seed))), seed: seed}
}

// Seed returns the seed this stream was seeded with; for New(0) this
// is the time-derived seed, not 0.
func (r *Randomness) Seed() uint64 { return r.seed }

// Float64 returns a pseudo-random number in [0, 1).
func (r *Randomness) Float64() float64 { return r.rng.Float64() }

// Intn returns a pseudo-random number in [0, n).
func (r *Randomness) Intn(n int) int { return r.rng.Intn(n) }

// Choice samples an index in [0, len(weights)) proportionally to
// weights, which need not be normalized.
func (r *Randomness) Choice(weights []float64) int {
	var total float64
	for _, w := range weights {
		total += w
	}
	x := r.Float64() * total
	for i, w := range weights {
		x -= w
		if x < 0 {
			return i
		}
	}
	return len(weights) - 1
}
