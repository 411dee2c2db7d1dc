package fluid

import "testing"

func TestLerpAtGridPointsReturnsExactSample(t *testing.T) {
	q := newFluidQuantity(4, 4, 0.5, 0.5, 0.25)
	q.SetAt(1, 1, 7.0)
	q.SetAt(2, 1, 3.0)

	if got := q.Lerp(1.5, 1.5); got != 7.0 {
		t.Errorf("Lerp at exact sample = %v, want 7", got)
	}

	mid := q.Lerp(2.0, 1.5)
	if got, want := mid, 5.0; got != want {
		t.Errorf("Lerp at midpoint = %v, want %v", got, want)
	}
}

func TestAddInflowOnlyStrengthens(t *testing.T) {
	q := newFluidQuantity(8, 8, 0.5, 0.5, 1.0/8.0)
	q.AddInflow(0.2, 0.2, 0.6, 0.6, 1.0)

	found := false
	for _, v := range q.src {
		if v > 0 {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("AddInflow left every cell at zero")
	}

	// A weaker second inflow over the same region must not overwrite the
	// stronger first one.
	snapshot := append([]float64(nil), q.src...)
	q.AddInflow(0.2, 0.2, 0.6, 0.6, 0.1)
	for i := range q.src {
		if q.src[i] != snapshot[i] {
			t.Fatalf("weaker inflow overwrote cell %d: %v -> %v", i, snapshot[i], q.src[i])
		}
	}
}

func TestDiffUndiffRoundTrip(t *testing.T) {
	q := newFluidQuantity(4, 4, 0.5, 0.5, 0.25)
	for i := range q.src {
		q.src[i] = float64(i)
	}
	q.copySnapshot()
	for i := range q.src {
		q.src[i] += 10.0
	}

	before := append([]float64(nil), q.src...)

	q.diff(0.9)
	q.undiff(0.9)

	for i := range q.src {
		if got, want := q.src[i], before[i]; got != want {
			t.Errorf("cell %d after diff/undiff round trip = %v, want %v", i, got, want)
		}
	}
}

func TestFillSolidFieldsMarksInteriorAsSolid(t *testing.T) {
	bodies := []SolidBody{NewBox(0.5, 0.5, 0.3, 0.3, 0, 0, 0, 0)}
	q := newFluidQuantity(10, 10, 0.5, 0.5, 0.1)
	q.fillSolidFields(bodies)

	centerIdx := q.idx(5, 5)
	if q.cell[centerIdx] != CellSolid {
		t.Errorf("cell classification at box center = %v, want CellSolid", q.cell[centerIdx])
	}

	cornerIdx := q.idx(0, 0)
	if q.cell[cornerIdx] != CellFluid {
		t.Errorf("cell classification at domain corner = %v, want CellFluid", q.cell[cornerIdx])
	}
	if q.volume[cornerIdx] != 1.0 {
		t.Errorf("volume at domain corner = %v, want 1", q.volume[cornerIdx])
	}
}

func TestVolumeStaysInUnitRange(t *testing.T) {
	bodies := []SolidBody{NewSphere(0.5, 0.5, 0.5, 0, 0, 0)}
	q := newFluidQuantity(16, 16, 0.5, 0.5, 1.0/16.0)
	q.fillSolidFields(bodies)

	for i, v := range q.volume {
		if v < 0.0 || v > 1.0 {
			t.Fatalf("volume[%d] = %v, outside [0, 1]", i, v)
		}
	}
}

func TestExtrapolateFillsNonFluidCells(t *testing.T) {
	bodies := []SolidBody{NewBox(0.2, 0.5, 0.3, 0.3, 0, 0, 0, 0)}
	q := newFluidQuantity(10, 10, 0.5, 0.5, 0.1)
	q.fillSolidFields(bodies)
	for i := range q.src {
		if q.cell[i] == CellFluid {
			q.src[i] = 1.0
		}
	}

	q.extrapolate()

	for i, c := range q.cell {
		if c == CellSolid && q.mask[i] == maskFilled && q.src[i] == 0 {
			t.Errorf("solid cell %d extrapolated to exactly 0, suspiciously untouched", i)
		}
	}
}
