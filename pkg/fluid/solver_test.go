package fluid

import (
	"math"
	"testing"
)

func TestNewRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name                   string
		w, h                   int
		rhoAir, rhoSoot, kappa float64
	}{
		{"width", 0, 8, 1, 1, 0},
		{"height", 8, -1, 1, 1, 0},
		{"rhoAir", 8, 8, 0, 1, 0},
		{"rhoSoot", 8, 8, 1, 0, 0},
	}

	for _, c := range cases {
		_, err := New(c.w, c.h, c.rhoAir, c.rhoSoot, c.kappa, nil)
		if err == nil {
			t.Errorf("%s: New did not return an error", c.name)
			continue
		}
		if _, ok := err.(*ConfigError); !ok {
			t.Errorf("%s: error type = %T, want *ConfigError", c.name, err)
		}
	}
}

func TestStepRejectsNonPositiveDt(t *testing.T) {
	sim, err := New(8, 8, 0.1, 1.0, 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sim.Step(0); err == nil {
		t.Error("Step(0) returned nil error, want a ConfigError")
	}
	if err := sim.Step(-1); err == nil {
		t.Error("Step(-1) returned nil error, want a ConfigError")
	}
}

func TestStepProducesNoNaNs(t *testing.T) {
	sim, err := New(24, 24, 0.1, 1.0, 0.01, []SolidBody{NewSphere(0.5, 0.6, 0.2, 0, 0, 0)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sim.AddInflow(0.4, 0.1, 0.2, 0.05, 1.0, 600.0, 0.0, 1.0)

	for i := 0; i < 5; i++ {
		if err := sim.Step(0.01); err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
	}

	for i, v := range sim.d.src {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("density[%d] = %v after stepping", i, v)
		}
	}
	for i, v := range sim.u.src {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("u[%d] = %v after stepping", i, v)
		}
	}
}

func TestProjectReducesDivergence(t *testing.T) {
	sim, err := New(16, 16, 0.1, 1.0, 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sim.d.fillSolidFields(nil)
	// A single interior face set to a nonzero value creates a local
	// dipole of divergence (one cell's outflow, its neighbour's inflow)
	// that sums to zero over the domain and so is exactly projectable.
	sim.u.SetAt(8, 8, 1.0)
	sim.computeDensities()

	sim.buildRhs()
	before := infinityNorm(sim.r)

	sim.buildPressureMatrix(1.0)
	sim.buildPreconditioner()
	for i := range sim.p {
		sim.p[i] = 0
	}
	sim.project(sim.p, sim.r)
	sim.applyPressure(1.0)

	sim.buildRhs()
	after := infinityNorm(sim.r)

	if after >= before {
		t.Errorf("divergence after projection (%v) >= before (%v)", after, before)
	}
	if after > 1e-3 {
		t.Errorf("residual divergence after projection = %v, want near 0", after)
	}
}

func TestPressureMatrixProductIsSymmetric(t *testing.T) {
	sim, err := New(12, 12, 0.1, 1.0, 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sim.d.fillSolidFields(nil)
	sim.computeDensities()
	sim.buildPressureMatrix(1.0)

	a := make([]float64, sim.w*sim.h)
	b := make([]float64, sim.w*sim.h)
	a[5] = 1.0
	b[17] = 1.0

	aProduct := make([]float64, sim.w*sim.h)
	bProduct := make([]float64, sim.w*sim.h)
	sim.matrixVectorProduct(aProduct, a)
	sim.matrixVectorProduct(bProduct, b)

	lhs := dotProduct(a, bProduct)
	rhs := dotProduct(b, aProduct)
	if math.Abs(lhs-rhs) > 1e-9 {
		t.Errorf("a.(A*b) = %v, b.(A*a) = %v, want equal for symmetric A", lhs, rhs)
	}
}

func TestAmbientTemperatureIsFixed(t *testing.T) {
	sim, err := New(4, 4, 0.1, 1.0, 0, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := range sim.t.src {
		sim.t.src[i] = 500.0
	}

	got := sim.AmbientTemperature()
	if got != tAmbient {
		t.Errorf("AmbientTemperature = %v, want %v", got, tAmbient)
	}
}

func TestUpdateBodiesMovesObstacles(t *testing.T) {
	sim, err := New(8, 8, 0.1, 1.0, 0, []SolidBody{NewBox(0.5, 0.5, 0.1, 0.1, 0, 1.0, 0, 0)})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sim.UpdateBodies(0.5)
	if got := sim.bodies[0].Pos.X(); got != 1.0 {
		t.Errorf("body x position after UpdateBodies = %v, want 1.0", got)
	}
}
