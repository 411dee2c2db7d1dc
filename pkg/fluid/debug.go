//go:build fluiddebug

package fluid

import "fmt"

// assertInvariants re-checks the handful of correctness invariants that are
// too expensive to verify on every cell in a release build: index bounds
// implied by grid dimensions, volume fractions staying in [0, 1], and cell
// classification being one of the three known values. It panics on the
// first violation, the same way the reference solver's bounds checks did
// for raw index accesses.
func (q *FluidQuantity) assertInvariants() {
	for i, v := range q.volume {
		if v < 0.0 || v > 1.0 {
			panic(fmt.Sprintf("fluid: volume out of range at cell %d: %v", i, v))
		}
	}
	for i, c := range q.cell {
		if c != CellFluid && c != CellSolid && c != CellEmpty {
			panic(fmt.Sprintf("fluid: invalid cell classification at %d: %v", i, c))
		}
	}
	if len(q.src) != q.w*q.h {
		panic(fmt.Sprintf("fluid: src length %d does not match grid %dx%d", len(q.src), q.w, q.h))
	}
}

// assertInDomain panics if any live particle has strayed outside the grid,
// the invariant pruneParticles is supposed to maintain every step.
func (p *ParticleQuantities) assertInDomain() {
	for i := 0; i < p.count; i++ {
		ix := int(p.posX[i] / p.hx)
		iy := int(p.posY[i] / p.hx)
		if ix < 0 || iy < 0 || ix >= p.w || iy >= p.h {
			panic(fmt.Sprintf("fluid: particle %d out of domain at (%v, %v)", i, p.posX[i], p.posY[i]))
		}
	}
}
