package fluid

import "math"

// ParticleQuantities is the FLIP particle cloud: a fixed-capacity pool of
// positions plus one tracked scalar per grid quantity the solver carries
// (density, temperature, and the two velocity components). Particles are
// stored densely in [0, count); pruning compacts the pool by swapping dead
// slots with the tail rather than shifting, so order is not preserved
// across a prune.
type ParticleQuantities struct {
	w, h int
	hx   float64

	capacity int
	count    int

	posX, posY []float64
	props      [][]float64

	quantities []*FluidQuantity

	rng *lcg32
}

func newParticleQuantities(w, h int, hx float64, capacity int, quantities []*FluidQuantity, seed uint32) *ParticleQuantities {
	props := make([][]float64, len(quantities))
	for i := range props {
		props[i] = make([]float64, capacity)
	}
	return &ParticleQuantities{
		w: w, h: h, hx: hx,
		capacity:   capacity,
		posX:       make([]float64, capacity),
		posY:       make([]float64, capacity),
		props:      props,
		quantities: quantities,
		rng:        newLCG32(seed),
	}
}

// Count returns the number of live particles.
func (p *ParticleQuantities) Count() int { return p.count }

// pointInBody reports whether (x, y) lies inside any of the given bodies.
func pointInBody(x, y float64, bodies []SolidBody) bool {
	for i := range bodies {
		if bodies[i].Distance(x, y) < 0.0 {
			return true
		}
	}
	return false
}

// countParticles returns how many live particles fall within the cell-unit
// rectangle [x0,x1)x[y0,y1), used by seedParticles to decide whether a
// region is under-seeded.
func (p *ParticleQuantities) countParticles(x0, y0, x1, y1 float64) int {
	n := 0
	for i := 0; i < p.count; i++ {
		x := p.posX[i] / p.hx
		y := p.posY[i] / p.hx
		if x >= x0 && x < x1 && y >= y0 && y < y1 {
			n++
		}
	}
	return n
}

// pruneParticles removes particles that have left the domain, compacting
// the pool in place. The bounds test below is deliberately an OR of the
// four out-of-range conditions — an AND of them can never be true and would
// silently keep every escaped particle.
func (p *ParticleQuantities) pruneParticles() {
	i := 0
	for i < p.count {
		ix := int(math.Floor(p.posX[i] / p.hx))
		iy := int(math.Floor(p.posY[i] / p.hx))

		if ix < 0 || iy < 0 || ix >= p.w || iy >= p.h {
			p.remove(i)
			continue
		}
		i++
	}
}

func (p *ParticleQuantities) remove(i int) {
	last := p.count - 1
	p.posX[i] = p.posX[last]
	p.posY[i] = p.posY[last]
	for k := range p.props {
		p.props[k][i] = p.props[k][last]
	}
	p.count--
}

// seedParticles scatters jittered particles across [x0,x1]x[y0,y1] (world
// coordinates) at roughly cellsPerParticle particles per grid cell, never
// placing a particle inside a solid body, and stops early once capacity is
// exhausted rather than overflowing the pool.
func (p *ParticleQuantities) seedParticles(cellsPerParticle int, x0, y0, x1, y1 float64, bodies []SolidBody) {
	ix0 := int(x0 / p.hx)
	iy0 := int(y0 / p.hx)
	ix1 := int(x1 / p.hx)
	iy1 := int(y1 / p.hx)

	for iy := max(iy0, 0); iy < min(iy1, p.h); iy++ {
		for ix := max(ix0, 0); ix < min(ix1, p.w); ix++ {
			existing := p.countParticles(float64(ix), float64(iy), float64(ix+1), float64(iy+1))
			target := 1
			if cellsPerParticle > 0 {
				target = cellsPerParticle
			}
			for n := existing; n < target; n++ {
				if p.count >= p.capacity {
					return
				}
				jx := (float64(ix) + p.rng.next()) * p.hx
				jy := (float64(iy) + p.rng.next()) * p.hx
				if pointInBody(jx, jy, bodies) {
					continue
				}
				p.posX[p.count] = jx
				p.posY[p.count] = jy
				for k, q := range p.quantities {
					p.props[k][p.count] = q.Lerp(jx/p.hx, jy/p.hx)
				}
				p.count++
			}
		}
	}
}

// gridToParticles blends each particle's tracked property with the grid
// quantity it was transferred from. The quantities must already have been
// diff(alpha)'d for this call to recover the canonical PIC/FLIP blend:
// particle = (1-alpha)*particle + lerp(diffedGrid, particlePos).
func (p *ParticleQuantities) gridToParticles(alpha float64) {
	for k, q := range p.quantities {
		prop := p.props[k]
		for i := 0; i < p.count; i++ {
			prop[i] = (1.0-alpha)*prop[i] + q.Lerp(p.posX[i]/p.hx, p.posY[i]/p.hx)
		}
	}
}

// particlesToGrid resamples every tracked grid quantity from the current
// particle cloud. weight is caller-provided scratch with room for the
// largest quantity's samples ((w+1)*(h+1) covers the staggered u and v grids).
func (p *ParticleQuantities) particlesToGrid(weight []float64) {
	for k, q := range p.quantities {
		q.fromParticles(weight, p.posX, p.posY, p.props[k], p.count)
	}
}

// backProject nudges (x, y) out of any solid body it has ended up inside,
// moving it to the nearest point on the offending body's surface.
func backProject(x, y float64, bodies []SolidBody) (float64, float64) {
	idx := -1
	d := 0.0
	for i := range bodies {
		id := bodies[i].Distance(x, y)
		if idx < 0 || id < d {
			idx = i
			d = id
		}
	}
	if idx >= 0 && d < 0.0 {
		return bodies[idx].ClosestSurfacePoint(x, y)
	}
	return x, y
}

// advect moves every particle by dt using an explicit RK3 (Ralston) step
// through the velocity field, then back-projects any particle that ended
// up inside a solid.
func (p *ParticleQuantities) advect(dt float64, u, v *FluidQuantity, bodies []SolidBody) {
	for i := 0; i < p.count; i++ {
		x0, y0 := p.posX[i], p.posY[i]

		firstU := u.Lerp(x0/p.hx, y0/p.hx)
		firstV := v.Lerp(x0/p.hx, y0/p.hx)

		midX := x0 + 0.5*dt*firstU
		midY := y0 + 0.5*dt*firstV
		midU := u.Lerp(midX/p.hx, midY/p.hx)
		midV := v.Lerp(midX/p.hx, midY/p.hx)

		lastX := x0 + 0.75*dt*midU
		lastY := y0 + 0.75*dt*midV
		lastU := u.Lerp(lastX/p.hx, lastY/p.hx)
		lastV := v.Lerp(lastX/p.hx, lastY/p.hx)

		nx := x0 + dt*((2.0/9.0)*firstU+(3.0/9.0)*midU+(4.0/9.0)*lastU)
		ny := y0 + dt*((2.0/9.0)*firstV+(3.0/9.0)*midV+(4.0/9.0)*lastV)

		nx, ny = backProject(nx, ny, bodies)

		p.posX[i] = math.Min(math.Max(nx, 0.0), float64(p.w)*p.hx-1e-4)
		p.posY[i] = math.Min(math.Max(ny, 0.0), float64(p.h)*p.hx-1e-4)
	}
}
