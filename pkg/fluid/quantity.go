package fluid

import "math"

// CellType classifies a sample of a FluidQuantity.
type CellType uint8

const (
	CellFluid CellType = iota
	CellSolid
	CellEmpty
)

// cubicPulse is the smoothed inflow brush weight: 1 at x=0, falling to 0 at
// |x|=1 with zero derivative at both ends.
func cubicPulse(x float64) float64 {
	x = math.Min(math.Abs(x), 1.0)
	return 1.0 - x*x*(3.0-2.0*x)
}

// FluidQuantity is one scalar field sampled on a staggered MAC grid at
// offset (ox, oy) from cell-center coordinates. It owns both its current
// values and the bookkeeping needed to reconstruct solid boundaries
// (fractional volumes, surface normals, nearest-body index, and cell
// classification) and to extrapolate values into solid/empty cells.
type FluidQuantity struct {
	w, h   int
	ox, oy float64
	hx     float64

	src []float64
	old []float64

	phi     []float64 // (w+1)*(h+1) corner-sampled distances
	volume  []float64
	normalX []float64
	normalY []float64
	cell    []CellType
	body    []int
	mask    []uint8
}

func newFluidQuantity(w, h int, ox, oy, hx float64) *FluidQuantity {
	q := &FluidQuantity{
		w: w, h: h, ox: ox, oy: oy, hx: hx,
		src:     make([]float64, w*h),
		old:     make([]float64, w*h),
		phi:     make([]float64, (w+1)*(h+1)),
		volume:  make([]float64, w*h),
		normalX: make([]float64, w*h),
		normalY: make([]float64, w*h),
		cell:    make([]CellType, w*h),
		body:    make([]int, w*h),
		mask:    make([]uint8, w*h),
	}
	for i := range q.volume {
		q.volume[i] = 1.0
	}
	return q
}

func (q *FluidQuantity) idx(x, y int) int { return x + y*q.w }

// At returns the sample value at grid cell (x, y).
func (q *FluidQuantity) At(x, y int) float64 { return q.src[q.idx(x, y)] }

// SetAt assigns the sample value at grid cell (x, y).
func (q *FluidQuantity) SetAt(x, y int, v float64) { q.src[q.idx(x, y)] = v }

// Volume returns the fractional volume at grid cell (x, y).
func (q *FluidQuantity) Volume(x, y int) float64 { return q.volume[q.idx(x, y)] }

// Cell returns the classification of grid cell (x, y).
func (q *FluidQuantity) Cell(x, y int) CellType { return q.cell[q.idx(x, y)] }

// copySnapshot stores the current values as the pre-step snapshot used by
// the FLIP diff/undiff pair.
func (q *FluidQuantity) copySnapshot() {
	copy(q.old, q.src)
}

// diff transforms src so that (1-alpha)*particleValue + lerp(diffed, pos)
// equals the canonical PIC/FLIP blend alpha*newGridValue(pos) +
// (1-alpha)*(particleValue + newGridValue(pos) - oldGridValue(pos)); see
// ParticleQuantities.gridToParticles, the only caller that should sample a
// diff'd quantity.
func (q *FluidQuantity) diff(alpha float64) {
	for i := range q.src {
		q.src[i] -= (1.0 - alpha) * q.old[i]
	}
}

// undiff reverses diff, restoring the post-step grid values.
func (q *FluidQuantity) undiff(alpha float64) {
	for i := range q.src {
		q.src[i] += (1.0 - alpha) * q.old[i]
	}
}

func lerp1(a, b, x float64) float64 { return a*(1.0-x) + b*x }

// Lerp bilinearly samples the field at (x, y) given in domain grid units
// (cell (i, j) spans [i, i+1) x [j, j+1)); the quantity's own staggered
// offset is subtracted before sampling.
func (q *FluidQuantity) Lerp(x, y float64) float64 {
	x = math.Min(math.Max(x-q.ox, 0.0), float64(q.w)-1.001)
	y = math.Min(math.Max(y-q.oy, 0.0), float64(q.h)-1.001)
	ix := int(x)
	iy := int(y)
	x -= float64(ix)
	y -= float64(iy)

	x00 := q.At(ix+0, iy+0)
	x10 := q.At(ix+1, iy+0)
	x01 := q.At(ix+0, iy+1)
	x11 := q.At(ix+1, iy+1)

	return lerp1(lerp1(x00, x10, x), lerp1(x01, x11, x), y)
}

// AddInflow stamps a smoothed rectangular brush of value v into the
// rectangle [x0,x1]x[y0,y1] given in world coordinates. Inflow only
// overrides existing values where it is stronger in magnitude.
func (q *FluidQuantity) AddInflow(x0, y0, x1, y1, v float64) {
	ix0 := int(x0/q.hx - q.ox)
	iy0 := int(y0/q.hx - q.oy)
	ix1 := int(x1/q.hx - q.ox)
	iy1 := int(y1/q.hx - q.oy)

	for y := max(iy0, 0); y < min(iy1, q.h); y++ {
		for x := max(ix0, 0); x < min(ix1, q.w); x++ {
			l := math.Hypot(
				(2.0*(float64(x)+0.5)*q.hx-(x0+x1))/(x1-x0),
				(2.0*(float64(y)+0.5)*q.hx-(y0+y1))/(y1-y0),
			)
			vi := cubicPulse(l) * v
			idx := q.idx(x, y)
			if math.Abs(q.src[idx]) < math.Abs(vi) {
				q.src[idx] = vi
			}
		}
	}
}

// fillSolidFields recomputes phi, volume, normals, body index, and cell
// classification against the current set of obstacles.
func (q *FluidQuantity) fillSolidFields(bodies []SolidBody) {
	if len(bodies) == 0 {
		return
	}

	for iy := 0; iy <= q.h; iy++ {
		for ix := 0; ix <= q.w; ix++ {
			x := (float64(ix) + q.ox - 0.5) * q.hx
			y := (float64(iy) + q.oy - 0.5) * q.hx

			d := bodies[0].Distance(x, y)
			for i := 1; i < len(bodies); i++ {
				d = math.Min(d, bodies[i].Distance(x, y))
			}
			q.phi[ix+iy*(q.w+1)] = d
		}
	}

	for iy := 0; iy < q.h; iy++ {
		for ix := 0; ix < q.w; ix++ {
			x := (float64(ix) + q.ox) * q.hx
			y := (float64(iy) + q.oy) * q.hx

			idx := q.idx(ix, iy)
			bodyIdx := 0
			d := bodies[0].Distance(x, y)
			for i := 1; i < len(bodies); i++ {
				id := bodies[i].Distance(x, y)
				if id < d {
					bodyIdx = i
					d = id
				}
			}
			q.body[idx] = bodyIdx

			idxp := ix + iy*(q.w+1)
			vol := 1.0 - occupancy(
				q.phi[idxp], q.phi[idxp+1],
				q.phi[idxp+q.w+1], q.phi[idxp+q.w+2],
			)
			if vol < 0.01 {
				vol = 0.0
			}
			q.volume[idx] = vol

			nx, ny := bodies[bodyIdx].Normal(x, y)
			q.normalX[idx] = nx
			q.normalY[idx] = ny

			if vol == 0.0 {
				q.cell[idx] = CellSolid
			} else {
				q.cell[idx] = CellFluid
			}
		}
	}
}

// addSample deposits value*kernel-weight from a particle at (x, y) into grid
// cell (ix, iy) using a hat filter, accumulating both the weighted value and
// the filter weight.
func (q *FluidQuantity) addSample(weight []float64, value, x, y float64, ix, iy int) {
	if ix < 0 || iy < 0 || ix >= q.w || iy >= q.h {
		return
	}
	k := (1.0 - math.Abs(float64(ix)-x)) * (1.0 - math.Abs(float64(iy)-y))
	idx := q.idx(ix, iy)
	weight[idx] += k
	q.src[idx] += k * value
}

// fromParticles resamples the field from a particle cloud whose positions
// are in world units. weight is a caller-provided scratch buffer with at
// least w*h entries for this quantity's own w and h.
func (q *FluidQuantity) fromParticles(weight []float64, posX, posY, property []float64, count int) {
	for i := range q.src {
		q.src[i] = 0
	}
	for i := range weight {
		weight[i] = 0
	}

	for i := 0; i < count; i++ {
		x := math.Max(0.5, math.Min(float64(q.w)-1.5, posX[i]/q.hx-q.ox))
		y := math.Max(0.5, math.Min(float64(q.h)-1.5, posY[i]/q.hx-q.oy))

		ix := int(x)
		iy := int(y)

		q.addSample(weight, property[i], x, y, ix+0, iy+0)
		q.addSample(weight, property[i], x, y, ix+1, iy+0)
		q.addSample(weight, property[i], x, y, ix+0, iy+1)
		q.addSample(weight, property[i], x, y, ix+1, iy+1)
	}

	for i := range q.src {
		if weight[i] != 0.0 {
			q.src[i] /= weight[i]
		} else if q.cell[i] == CellFluid {
			q.cell[i] = CellEmpty
		}
	}
}
