package fluid

import (
	"log"
	"math"
)

const (
	maxCGIterations = 2000
	cgTolerance     = 1e-5

	// FLIP/PIC blend factor: 1.0 is pure PIC (smooth, dissipative), 0.0 is
	// pure FLIP (noisy, energetic). 0.001 keeps the transfer almost pure
	// FLIP, carrying over nearly all of the particles' own velocity
	// history and relying on the grid only for the incompressibility
	// correction.
	flipAlpha = 0.001

	gravity = 9.81

	// tAmbient is the fixed ambient temperature buoyancy measures against.
	tAmbient = 294.0

	// MIC(0) constants from Bridson's preconditioned-CG fluid notes.
	miconTau   = 0.97
	miconSigma = 0.25
)

// Solver advances a 2-D incompressible smoke-and-heat simulation on a MAC
// staggered grid, using a FLIP/PIC particle cloud for advection and a
// MIC(0)-preconditioned conjugate gradient solve for both the pressure
// projection and the implicit heat diffusion.
type Solver struct {
	w, h int
	hx   float64

	rhoAir, rhoSoot, kappa float64

	d *FluidQuantity // smoke density, cell-centered
	t *FluidQuantity // temperature, cell-centered
	u *FluidQuantity // x velocity, offset (0, 0.5)
	v *FluidQuantity // y velocity, offset (0.5, 0)

	bodies    []SolidBody
	particles *ParticleQuantities

	uDensity []float64
	vDensity []float64

	r, p, z, s                    []float64
	aDiag, aPlusX, aPlusY, precon []float64

	weight []float64

	logger *log.Logger
}

// New constructs a solver over a w x h grid with cell size hx=1/h, tracking
// smoke of density rhoSoot buoyed against ambient air of density rhoAir,
// diffusing heat at rate kappa, around the given (possibly empty) set of
// solid obstacles.
func New(w, h int, rhoAir, rhoSoot, kappa float64, bodies []SolidBody) (*Solver, error) {
	switch {
	case w <= 0:
		return nil, badConfig("width", "must be positive")
	case h <= 0:
		return nil, badConfig("height", "must be positive")
	case rhoAir <= 0:
		return nil, badConfig("rhoAir", "must be positive")
	case rhoSoot <= 0:
		return nil, badConfig("rhoSoot", "must be positive")
	}

	hx := 1.0 / float64(h)

	s := &Solver{
		w: w, h: h, hx: hx,
		rhoAir: rhoAir, rhoSoot: rhoSoot, kappa: kappa,

		d: newFluidQuantity(w, h, 0.5, 0.5, hx),
		t: newFluidQuantity(w, h, 0.5, 0.5, hx),
		u: newFluidQuantity(w+1, h, 0.0, 0.5, hx),
		v: newFluidQuantity(w, h+1, 0.5, 0.0, hx),

		bodies: bodies,

		uDensity: make([]float64, (w+1)*h),
		vDensity: make([]float64, w*(h+1)),

		r:      make([]float64, w*h),
		p:      make([]float64, w*h),
		z:      make([]float64, w*h),
		s:      make([]float64, w*h),
		aDiag:  make([]float64, w*h),
		aPlusX: make([]float64, w*h),
		aPlusY: make([]float64, w*h),
		precon: make([]float64, w*h),
		weight: make([]float64, (w+1)*(h+1)),

		logger: log.Default(),
	}

	for i := range s.t.src {
		s.t.src[i] = tAmbient
	}

	s.particles = newParticleQuantities(w, h, hx, 8*w*h, []*FluidQuantity{s.d, s.t, s.u, s.v}, 0x8FC1A3B)

	s.d.fillSolidFields(bodies)
	s.t.fillSolidFields(bodies)
	s.u.fillSolidFields(bodies)
	s.v.fillSolidFields(bodies)

	s.particles.seedParticles(2, 0, 0, float64(w)*hx, float64(h)*hx, bodies)

	return s, nil
}

// SetLogger redirects the solver's non-convergence telemetry. A nil logger
// silences it.
func (s *Solver) SetLogger(l *log.Logger) {
	if l == nil {
		l = log.New(discardWriter{}, "", 0)
	}
	s.logger = l
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

// AddInflow stamps a rectangular source of smoke at temperature t and
// velocity (u, v) into the domain, given in world coordinates, and seeds
// particles to back it so the new smoke is immediately advected by FLIP
// rather than waiting for ambient particles to drift in.
func (s *Solver) AddInflow(x, y, w, h, d, t, u, v float64) {
	s.d.AddInflow(x, y, x+w, y+h, d)
	s.t.AddInflow(x, y, x+w, y+h, t)
	s.u.AddInflow(x, y, x+w, y+h, u)
	s.v.AddInflow(x, y, x+w, y+h, v)
	s.particles.seedParticles(2, x, y, x+w, y+h, s.bodies)
}

// AmbientTemperature returns the fixed ambient temperature buoyancy and
// rendering measure against.
func (s *Solver) AmbientTemperature() float64 {
	return tAmbient
}

// UpdateBodies advances every obstacle's rigid-body pose by dt. It is a
// caller-driven operation, never invoked from Step.
func (s *Solver) UpdateBodies(dt float64) {
	for i := range s.bodies {
		s.bodies[i].Update(dt)
	}
}

// Step advances the simulation by dt: rebuild the grid from particles,
// refresh obstacle geometry, diffuse heat, apply buoyancy, project to remove
// divergence, advect particles, and blend the result back into the particle
// cloud.
func (s *Solver) Step(dt float64) error {
	if dt <= 0 {
		return badConfig("dt", "must be positive")
	}

	s.particles.particlesToGrid(s.weight)

	s.d.copySnapshot()
	s.t.copySnapshot()
	s.u.copySnapshot()
	s.v.copySnapshot()

	s.d.fillSolidFields(s.bodies)
	s.t.fillSolidFields(s.bodies)
	s.u.fillSolidFields(s.bodies)
	s.v.fillSolidFields(s.bodies)

	s.d.extrapolate()

	if s.kappa > 0 {
		heatRhs := make([]float64, s.w*s.h)
		copy(heatRhs, s.t.src)
		s.buildHeatDiffusionMatrix(dt)
		s.buildPreconditioner()
		if !s.project(s.t.src, heatRhs) {
			s.logger.Printf("fluid: heat diffusion solve did not converge in %d iterations", maxCGIterations)
		}
	}
	s.t.extrapolate()

	s.computeDensities()
	s.addBuoyancy(dt)
	s.setBoundaryCondition()

	s.buildRhs()
	s.buildPressureMatrix(dt)
	s.buildPreconditioner()
	for i := range s.p {
		s.p[i] = 0.0
	}
	if !s.project(s.p, s.r) {
		s.logger.Printf("fluid: pressure solve did not converge in %d iterations", maxCGIterations)
	}
	s.applyPressure(dt)
	s.setBoundaryCondition()

	s.u.extrapolate()
	s.v.extrapolate()

	s.particles.advect(dt, s.u, s.v, s.bodies)
	s.particles.pruneParticles()

	s.d.diff(flipAlpha)
	s.t.diff(flipAlpha)
	s.u.diff(flipAlpha)
	s.v.diff(flipAlpha)

	s.particles.gridToParticles(flipAlpha)

	s.d.undiff(flipAlpha)
	s.t.undiff(flipAlpha)
	s.u.undiff(flipAlpha)
	s.v.undiff(flipAlpha)

	return nil
}

// computeDensities maps the smoke density and temperature fields onto the
// per-face physical densities used by the variable-density projection: each
// cell's density rises with its soot loading and falls with its temperature
// excess over ambient (hot air is buoyant because it is lighter), and half
// of it is scattered onto each of the cell's four bounding faces.
func (s *Solver) computeDensities() {
	alpha := (s.rhoSoot - s.rhoAir) / s.rhoAir

	for i := range s.uDensity {
		s.uDensity[i] = 0
	}
	for i := range s.vDensity {
		s.vDensity[i] = 0
	}

	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			density := math.Max(0.05*s.rhoAir,
				s.rhoAir*tAmbient/s.t.At(x, y)*(1.0+alpha*s.d.At(x, y)))

			half := 0.5 * density
			s.uDensity[x+y*(s.w+1)] += half
			s.uDensity[(x+1)+y*(s.w+1)] += half
			s.vDensity[x+y*s.w] += half
			s.vDensity[x+(y+1)*s.w] += half
		}
	}
}

// addBuoyancy adds a buoyancy term directly to the v (vertical velocity)
// grid. Soot loading pushes toward +y, the direction gravity acts in
// (downward in ToImage's output), because soot is denser than air; the
// temperature excess over ambient pushes toward -y, because hot air is
// lighter.
func (s *Solver) addBuoyancy(dt float64) {
	alpha := (s.rhoSoot - s.rhoAir) / s.rhoAir

	for y := 0; y < s.h+1; y++ {
		for x := 0; x < s.w; x++ {
			below := y - 1
			above := y
			if below < 0 {
				below = 0
			}
			if above >= s.h {
				above = s.h - 1
			}
			tHere := 0.5 * (s.t.At(x, below) + s.t.At(x, above))
			dHere := 0.5 * (s.d.At(x, below) + s.d.At(x, above))

			buoyancy := 0.5 * dt * gravity * (alpha*dHere - (tHere-tAmbient)/tAmbient)
			idx := x + y*s.w
			s.v.src[idx] += buoyancy
		}
	}
}

// setBoundaryCondition stamps the rigid velocity of the nearest solid body
// onto every velocity sample adjacent to a solid cell, so the pressure
// solve sees a no-flow (or moving-wall) condition at every obstacle face.
func (s *Solver) setBoundaryCondition() {
	for y := 0; y < s.h; y++ {
		for x := 0; x <= s.w; x++ {
			idx := x + y*(s.w+1)
			cellX := x
			if cellX >= s.w || (cellX > 0 && s.d.cell[cellX+y*s.w] != CellSolid) {
				cellX--
			}
			if s.d.cell[cellX+y*s.w] != CellSolid {
				continue
			}
			body := &s.bodies[s.d.body[cellX+y*s.w]]
			px := float64(x) * s.hx
			py := (float64(y) + 0.5) * s.hx
			s.u.src[idx] = body.VelocityX(px, py)
		}
	}

	for y := 0; y <= s.h; y++ {
		for x := 0; x < s.w; x++ {
			idx := x + y*s.w
			cellY := y
			if cellY >= s.h || (cellY > 0 && s.d.cell[x+cellY*s.w] != CellSolid) {
				cellY--
			}
			if s.d.cell[x+cellY*s.w] != CellSolid {
				continue
			}
			body := &s.bodies[s.d.body[x+cellY*s.w]]
			px := (float64(x) + 0.5) * s.hx
			py := float64(y) * s.hx
			s.v.src[idx] = body.VelocityY(px, py)
		}
	}
}

// buildRhs computes the negative, fractional-volume-weighted divergence of
// the velocity field for every fluid cell, corrected so that a moving
// obstacle's rigid velocity drives the fluid at the faces it occupies; this
// is the right-hand side of the pressure Poisson system.
func (s *Solver) buildRhs() {
	scale := 1.0 / s.hx
	haveBodies := len(s.bodies) > 0

	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			idx := x + y*s.w
			if s.d.cell[idx] != CellFluid {
				s.r[idx] = 0.0
				continue
			}

			uIdx0 := x + y*(s.w+1)
			uIdx1 := (x + 1) + y*(s.w+1)
			vIdx0 := x + y*s.w
			vIdx1 := x + (y+1)*s.w

			rhs := -scale * (s.u.volume[uIdx1]*s.u.At(x+1, y) - s.u.volume[uIdx0]*s.u.At(x, y) +
				s.v.volume[vIdx1]*s.v.At(x, y+1) - s.v.volume[vIdx0]*s.v.At(x, y))

			if haveBodies {
				vol := s.d.volume[idx]
				if x > 0 {
					body := &s.bodies[s.u.body[uIdx0]]
					rhs -= (s.u.volume[uIdx0] - vol) * body.VelocityX(float64(x)*s.hx, (float64(y)+0.5)*s.hx)
				}
				if x < s.w-1 {
					body := &s.bodies[s.u.body[uIdx1]]
					rhs += (s.u.volume[uIdx1] - vol) * body.VelocityX(float64(x+1)*s.hx, (float64(y)+0.5)*s.hx)
				}
				if y > 0 {
					body := &s.bodies[s.v.body[vIdx0]]
					rhs -= (s.v.volume[vIdx0] - vol) * body.VelocityY((float64(x)+0.5)*s.hx, float64(y)*s.hx)
				}
				if y < s.h-1 {
					body := &s.bodies[s.v.body[vIdx1]]
					rhs += (s.v.volume[vIdx1] - vol) * body.VelocityY((float64(x)+0.5)*s.hx, float64(y+1)*s.hx)
				}
			}

			s.r[idx] = rhs
		}
	}
}

// buildPressureMatrix assembles the symmetric 5-point Poisson operator for
// the variable-density pressure projection, compressed as a diagonal plus
// the two upper off-diagonals (the lower ones are implied by symmetry).
func (s *Solver) buildPressureMatrix(dt float64) {
	for i := range s.aDiag {
		s.aDiag[i] = 0
		s.aPlusX[i] = 0
		s.aPlusY[i] = 0
	}

	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			idx := x + y*s.w
			if s.d.cell[idx] != CellFluid {
				continue
			}

			if x < s.w-1 && s.d.cell[idx+1] != CellSolid {
				uIdx := (x + 1) + y*(s.w+1)
				scale := dt * s.u.volume[uIdx] / (s.uDensity[uIdx] * s.hx * s.hx)
				s.aDiag[idx] += scale
				s.aDiag[idx+1] += scale
				s.aPlusX[idx] = -scale
			}
			if y < s.h-1 && s.d.cell[idx+s.w] != CellSolid {
				vIdx := x + (y+1)*s.w
				scale := dt * s.v.volume[vIdx] / (s.vDensity[vIdx] * s.hx * s.hx)
				s.aDiag[idx] += scale
				s.aDiag[idx+s.w] += scale
				s.aPlusY[idx] = -scale
			}
		}
	}
}

// buildHeatDiffusionMatrix assembles the implicit backward-Euler heat
// equation operator (I - kappa*dt*Laplacian), reusing the same compressed
// storage as the pressure matrix.
func (s *Solver) buildHeatDiffusionMatrix(dt float64) {
	for i := range s.aDiag {
		s.aDiag[i] = 1.0
		s.aPlusX[i] = 0
		s.aPlusY[i] = 0
	}

	scale := s.kappa * dt / (s.hx * s.hx)

	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			idx := x + y*s.w
			if s.d.cell[idx] != CellFluid {
				continue
			}
			if x < s.w-1 && s.d.cell[idx+1] == CellFluid {
				s.aDiag[idx] += scale
				s.aDiag[idx+1] += scale
				s.aPlusX[idx] = -scale
			}
			if y < s.h-1 && s.d.cell[idx+s.w] == CellFluid {
				s.aDiag[idx] += scale
				s.aDiag[idx+s.w] += scale
				s.aPlusY[idx] = -scale
			}
		}
	}
}

// buildPreconditioner computes the MIC(0) (modified incomplete Cholesky,
// zero fill-in) factorization of the current matrix, used to accelerate
// the conjugate gradient solve.
func (s *Solver) buildPreconditioner() {
	w := s.w
	for y := 0; y < s.h; y++ {
		for x := 0; x < w; x++ {
			idx := x + y*w
			if s.d.cell[idx] != CellFluid {
				s.precon[idx] = 0
				continue
			}

			e := s.aDiag[idx]

			if x > 0 && s.d.cell[idx-1] == CellFluid {
				px := s.aPlusX[idx-1] * s.precon[idx-1]
				e -= px * px
			}
			if y > 0 && s.d.cell[idx-w] == CellFluid {
				py := s.aPlusY[idx-w] * s.precon[idx-w]
				e -= py * py
			}
			if x > 0 && y > 0 && s.d.cell[idx-1] == CellFluid && s.d.cell[idx-w] == CellFluid {
				e -= miconTau * (s.aPlusX[idx-1]*s.aPlusY[idx-1]*s.precon[idx-1]*s.precon[idx-1] +
					s.aPlusY[idx-w]*s.aPlusX[idx-w]*s.precon[idx-w]*s.precon[idx-w])
			}

			if e < miconSigma*s.aDiag[idx] {
				e = s.aDiag[idx]
			}

			if e <= 0 {
				s.precon[idx] = 0
				continue
			}
			s.precon[idx] = 1.0 / math.Sqrt(e)
		}
	}
}

// applyPreconditioner solves M*z = r for z, where M is the MIC(0)
// factorization L*L^T, via forward then backward substitution.
func (s *Solver) applyPreconditioner(z, r []float64) {
	w := s.w
	for y := 0; y < s.h; y++ {
		for x := 0; x < w; x++ {
			idx := x + y*w
			if s.d.cell[idx] != CellFluid {
				z[idx] = 0
				continue
			}
			t := r[idx]
			if x > 0 && s.d.cell[idx-1] == CellFluid {
				t -= s.aPlusX[idx-1] * s.precon[idx-1] * z[idx-1]
			}
			if y > 0 && s.d.cell[idx-w] == CellFluid {
				t -= s.aPlusY[idx-w] * s.precon[idx-w] * z[idx-w]
			}
			z[idx] = t * s.precon[idx]
		}
	}

	for y := s.h - 1; y >= 0; y-- {
		for x := w - 1; x >= 0; x-- {
			idx := x + y*w
			if s.d.cell[idx] != CellFluid {
				z[idx] = 0
				continue
			}
			t := z[idx]
			if x < w-1 && s.d.cell[idx+1] == CellFluid {
				t -= s.aPlusX[idx] * s.precon[idx] * z[idx+1]
			}
			if y < s.h-1 && s.d.cell[idx+w] == CellFluid {
				t -= s.aPlusY[idx] * s.precon[idx] * z[idx+w]
			}
			z[idx] = t * s.precon[idx]
		}
	}
}

// matrixVectorProduct computes dst = A*x for the current symmetric 5-point
// operator.
func (s *Solver) matrixVectorProduct(dst, x []float64) {
	w := s.w
	for y := 0; y < s.h; y++ {
		for ix := 0; ix < w; ix++ {
			idx := ix + y*w
			sum := s.aDiag[idx] * x[idx]
			if ix > 0 {
				sum += s.aPlusX[idx-1] * x[idx-1]
			}
			if ix < w-1 {
				sum += s.aPlusX[idx] * x[idx+1]
			}
			if y > 0 {
				sum += s.aPlusY[idx-w] * x[idx-w]
			}
			if y < s.h-1 {
				sum += s.aPlusY[idx] * x[idx+w]
			}
			dst[idx] = sum
		}
	}
}

func dotProduct(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func scaledAdd(dst, a, b []float64, scale float64) {
	for i := range dst {
		dst[i] = a[i] + b[i]*scale
	}
}

func infinityNorm(a []float64) float64 {
	max := 0.0
	for _, v := range a {
		if m := math.Abs(v); m > max {
			max = m
		}
	}
	return max
}

// project runs preconditioned conjugate gradient to solve A*out = rhs in
// place, where A is whatever matrix buildPressureMatrix or
// buildHeatDiffusionMatrix last assembled. It returns false if the
// residual failed to reach cgTolerance within maxCGIterations iterations;
// the caller decides whether that is worth logging.
func (s *Solver) project(out, rhs []float64) bool {
	s.matrixVectorProduct(s.z, out)
	scaledAdd(s.r, rhs, s.z, -1.0)

	if infinityNorm(s.r) < cgTolerance {
		return true
	}

	s.applyPreconditioner(s.z, s.r)
	copy(s.s, s.z)

	sigma := dotProduct(s.z, s.r)
	if sigma == 0 {
		return true
	}

	for iter := 0; iter < maxCGIterations; iter++ {
		s.matrixVectorProduct(s.z, s.s)
		denom := dotProduct(s.z, s.s)
		if denom == 0 {
			return true
		}
		alpha := sigma / denom

		scaledAdd(out, out, s.s, alpha)
		scaledAdd(s.r, s.r, s.z, -alpha)

		if infinityNorm(s.r) < cgTolerance {
			return true
		}

		s.applyPreconditioner(s.z, s.r)

		sigmaNew := dotProduct(s.z, s.r)
		scaledAdd(s.s, s.z, s.s, sigmaNew/sigma)
		sigma = sigmaNew
	}
	return false
}

// applyPressure subtracts the pressure gradient from the velocity field,
// converting the just-solved pressure into a divergence-free correction.
func (s *Solver) applyPressure(dt float64) {
	for y := 0; y < s.h; y++ {
		for x := 0; x <= s.w; x++ {
			idx := x + y*(s.w+1)
			if x == 0 || x == s.w {
				continue
			}
			left := (x - 1) + y*s.w
			right := x + y*s.w
			if s.d.cell[left] == CellSolid || s.d.cell[right] == CellSolid {
				continue
			}
			scale := dt / (s.uDensity[x+y*(s.w+1)] * s.hx)
			s.u.src[idx] -= scale * (s.p[right] - s.p[left])
		}
	}

	for y := 0; y <= s.h; y++ {
		for x := 0; x < s.w; x++ {
			idx := x + y*s.w
			if y == 0 || y == s.h {
				continue
			}
			below := x + (y-1)*s.w
			above := x + y*s.w
			if s.d.cell[below] == CellSolid || s.d.cell[above] == CellSolid {
				continue
			}
			scale := dt / (s.vDensity[x+y*s.w] * s.hx)
			s.v.src[idx] -= scale * (s.p[above] - s.p[below])
		}
	}
}
