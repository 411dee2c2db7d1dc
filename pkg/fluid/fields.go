package fluid

import "fmt"

// ScalarField is a read-only snapshot of one of the solver's cell-centered
// or face-centered quantities, copied out so callers (renderers, tests,
// introspection tools) can't mutate solver-internal state.
type ScalarField struct {
	NumX, NumY         int
	MinValue, MaxValue float64
	values             []float64
}

func (s ScalarField) Value(i, j int) (float64, error) {
	if i < 0 || i >= s.NumX {
		return 0.0, fmt.Errorf("x index out of range, must be between 0 and %d", s.NumX-1)
	}
	if j < 0 || j >= s.NumY {
		return 0.0, fmt.Errorf("y index out of range, must be between 0 and %d", s.NumY-1)
	}
	return s.values[i+j*s.NumX], nil
}

// VectorField is a read-only snapshot of the two velocity components,
// resampled onto a common cell-centered grid for inspection.
type VectorField struct {
	NumX, NumY       int
	valuesU, valuesV []float64
}

func (v VectorField) Value(i, j int) (float64, float64, error) {
	if i < 0 || i >= v.NumX {
		return 0.0, 0.0, fmt.Errorf("x index out of range, must be between 0 and %d", v.NumX-1)
	}
	if j < 0 || j >= v.NumY {
		return 0.0, 0.0, fmt.Errorf("y index out of range, must be between 0 and %d", v.NumY-1)
	}
	idx := i + j*v.NumX
	return v.valuesU[idx], v.valuesV[idx], nil
}

func snapshotOf(q *FluidQuantity) ScalarField {
	values := make([]float64, len(q.src))
	minValue := q.src[0]
	maxValue := q.src[0]
	copy(values, q.src)
	for _, x := range values {
		if x < minValue {
			minValue = x
		}
		if x > maxValue {
			maxValue = x
		}
	}
	return ScalarField{NumX: q.w, NumY: q.h, MinValue: minValue, MaxValue: maxValue, values: values}
}

// Density returns a snapshot of the smoke density field.
func (s *Solver) Density() ScalarField { return snapshotOf(s.d) }

// Temperature returns a snapshot of the temperature field.
func (s *Solver) Temperature() ScalarField { return snapshotOf(s.t) }

// Pressure returns a snapshot of the most recently solved pressure field.
func (s *Solver) Pressure() ScalarField {
	values := make([]float64, len(s.p))
	copy(values, s.p)
	minValue, maxValue := values[0], values[0]
	for _, x := range values {
		if x < minValue {
			minValue = x
		}
		if x > maxValue {
			maxValue = x
		}
	}
	return ScalarField{NumX: s.w, NumY: s.h, MinValue: minValue, MaxValue: maxValue, values: values}
}

// Velocity returns the velocity field resampled onto the cell-centered
// grid: each cell gets the average of its two bounding u-faces and two
// bounding v-faces.
func (s *Solver) Velocity() VectorField {
	u := make([]float64, s.w*s.h)
	v := make([]float64, s.w*s.h)
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			idx := x + y*s.w
			u[idx] = 0.5 * (s.u.At(x, y) + s.u.At(x+1, y))
			v[idx] = 0.5 * (s.v.At(x, y) + s.v.At(x, y+1))
		}
	}
	return VectorField{NumX: s.w, NumY: s.h, valuesU: u, valuesV: v}
}
