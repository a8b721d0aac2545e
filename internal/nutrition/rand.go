package nutrition

import "math/rand/v2"

// Rand is the random source threaded through assembly. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// NewRand returns a PCG-backed source for seed. Equal seeds produce equal plans.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}
