package game

import (
	"fmt"
	"math/rand/v2"
)

// RNG is the single source of randomness of a match. It is seeded once and can
// be snapshotted so a rolled back command leaves no trace in the sequence.
type RNG struct {
	src *rand.PCG
	r   *rand.Rand
}

// NewRNG seeds a PCG generator.
func NewRNG(seed uint64) *RNG {
	src := rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
	return &RNG{src: src, r: rand.New(src)}
}

// IntN returns a value in [0, n). It returns 0 when n <= 0.
func (g *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return g.r.IntN(n)
}

// Shuffle permutes n elements through swap.
func (g *RNG) Shuffle(n int, swap func(i, j int)) {
	g.r.Shuffle(n, swap)
}

// Pick returns a random element of xs.
func Pick[T any](g *RNG, xs []T) (T, bool) {
	var zero T
	if len(xs) == 0 {
		return zero, false
	}
	return xs[g.IntN(len(xs))], true
}

func (g *RNG) snapshot() []byte {
	data, err := g.src.MarshalBinary()
	if err != nil {
		panic(fmt.Sprintf("rng snapshot: %v", err))
	}
	return data
}

func (g *RNG) restore(data []byte) {
	if err := g.src.UnmarshalBinary(data); err != nil {
		panic(fmt.Sprintf("rng restore: %v", err))
	}
}
