package fluid

import "math"

// lcg32 is a bit-twiddling floating point generator producing deterministic
// values in [0, 1). It mirrors the reference implementation's frand(): each
// instance owns its own seed so no state is ever shared across solvers,
// which keeps particle seeding reproducible across runs and across
// concurrently-constructed simulations.
type lcg32 struct {
	seed uint32
}

func newLCG32(seed uint32) *lcg32 {
	return &lcg32{seed: seed}
}

// next returns the next pseudo-random value in [0, 1).
func (r *lcg32) next() float64 {
	r.seed = (r.seed*1103515245 + 12345) & 0x7FFFFFFF

	bits := (r.seed >> 8) | 0x3F800000
	return float64(math.Float32frombits(bits)) - 1.0
}
