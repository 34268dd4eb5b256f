package sampling

import (
	"math/rand/v2"
	"time"
)

// Rand is the source of uniform draws used for sampling. Float64 must return
// a value in the half-open interval [0, 1). *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// NewRand returns a PCG-backed generator for the given seed. A zero seed picks
// one from the wall clock, so only non-zero seeds give reproducible output.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
