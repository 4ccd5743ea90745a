// Package process evolves the underlying price between hedging steps.
package process

import "math/rand/v2"

// seedMix decorrelates the two PCG words so seed 0 is still a usable stream.
const seedMix = 0x9e3779b97f4a7c15

// NormalSource supplies standard normal draws. *rand.Rand satisfies it.
type NormalSource interface {
	NormFloat64() float64
}

// NewSource returns a reproducible PCG-backed generator for the seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^seedMix))
}

// Fixed replays a finite list of draws and then repeats zero. Useful for
// pinning the shocks a test wants to see.
type Fixed struct {
	draws []float64
	i     int
}

// NewFixed returns a Fixed source over draws.
func NewFixed(draws ...float64) *Fixed {
	return &Fixed{draws: draws}
}

// NormFloat64 implements NormalSource.
func (f *Fixed) NormFloat64() float64 {
	if f.i >= len(f.draws) {
		return 0
	}
	z := f.draws[f.i]
	f.i++
	return z
}
