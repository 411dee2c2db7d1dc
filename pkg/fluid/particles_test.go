package fluid

import "testing"

func TestPruneParticlesUsesOrNotAnd(t *testing.T) {
	d := newFluidQuantity(8, 8, 0.5, 0.5, 0.125)
	p := newParticleQuantities(8, 8, 0.125, 4, []*FluidQuantity{d}, 1)

	// One particle out of bounds on x only, one out of bounds on y only,
	// one safely inside. An AND-based guard (as in the reference bug)
	// would never remove either escapee; OR must remove both.
	p.posX[0], p.posY[0] = -0.1, 0.5
	p.posX[1], p.posY[1] = 0.5, 2.0
	p.posX[2], p.posY[2] = 0.5, 0.5
	p.count = 3

	p.pruneParticles()

	if p.count != 1 {
		t.Fatalf("count after prune = %d, want 1", p.count)
	}
	if p.posX[0] != 0.5 || p.posY[0] != 0.5 {
		t.Errorf("surviving particle = (%v, %v), want (0.5, 0.5)", p.posX[0], p.posY[0])
	}
}

func TestSeedParticlesAvoidsSolidBodies(t *testing.T) {
	d := newFluidQuantity(16, 16, 0.5, 0.5, 1.0/16.0)
	p := newParticleQuantities(16, 16, 1.0/16.0, 4096, []*FluidQuantity{d}, 42)

	bodies := []SolidBody{NewSphere(0.5, 0.5, 0.6, 0, 0, 0)}
	p.seedParticles(4, 0, 0, 1, 1, bodies)

	for i := 0; i < p.count; i++ {
		if pointInBody(p.posX[i], p.posY[i], bodies) {
			t.Fatalf("particle %d seeded inside solid body at (%v, %v)", i, p.posX[i], p.posY[i])
		}
	}
}

func TestSeedParticlesRespectsCapacity(t *testing.T) {
	d := newFluidQuantity(32, 32, 0.5, 0.5, 1.0/32.0)
	p := newParticleQuantities(32, 32, 1.0/32.0, 10, []*FluidQuantity{d}, 7)

	p.seedParticles(8, 0, 0, 1, 1, nil)

	if p.count > p.capacity {
		t.Fatalf("count %d exceeds capacity %d", p.count, p.capacity)
	}
}

func TestGridToParticlesBlendsTowardGrid(t *testing.T) {
	d := newFluidQuantity(4, 4, 0.5, 0.5, 0.25)
	for i := range d.src {
		d.src[i] = 5.0
	}
	p := newParticleQuantities(4, 4, 0.25, 1, []*FluidQuantity{d}, 3)
	p.count = 1
	p.posX[0], p.posY[0] = 0.5, 0.5
	p.props[0][0] = 1.0

	p.gridToParticles(1.0) // pure PIC: result must equal the grid sample exactly
	if got := p.props[0][0]; got != 5.0 {
		t.Errorf("pure-PIC blend = %v, want 5", got)
	}
}

func TestBackProjectMovesOutOfSolid(t *testing.T) {
	bodies := []SolidBody{NewSphere(0.5, 0.5, 0.4, 0, 0, 0)}
	x, y := backProject(0.5, 0.5, bodies)
	if d := bodies[0].Distance(x, y); d < -1e-6 {
		t.Errorf("backProject left point at distance %v, want >= 0", d)
	}
}
