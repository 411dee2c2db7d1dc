package fluid

import "testing"

func TestBoxDistanceSign(t *testing.T) {
	box := NewBox(0.5, 0.5, 0.4, 0.4, 0, 0, 0, 0)

	if d := box.Distance(0.5, 0.5); d >= 0 {
		t.Errorf("center distance = %v, want negative", d)
	}
	if d := box.Distance(2.0, 2.0); d <= 0 {
		t.Errorf("far-outside distance = %v, want positive", d)
	}
}

func TestSphereDistanceSign(t *testing.T) {
	sphere := NewSphere(0.5, 0.5, 0.4, 0, 0, 0)

	if d := sphere.Distance(0.5, 0.5); d >= 0 {
		t.Errorf("center distance = %v, want negative", d)
	}
	if d := sphere.Distance(0.5, 0.5+0.1); d >= 0 {
		t.Errorf("distance at r=0.1 inside r=0.2 sphere = %v, want negative", d)
	}
	if d := sphere.Distance(0.5, 10.0); d <= 0 {
		t.Errorf("far-outside distance = %v, want positive", d)
	}
}

func TestSphereNormalPointsOutward(t *testing.T) {
	sphere := NewSphere(0.5, 0.5, 0.4, 0, 0, 0)
	nx, ny := sphere.Normal(0.5, 1.5)
	if nx != 0 || ny <= 0 {
		t.Errorf("Normal above sphere center = (%v, %v), want (0, positive)", nx, ny)
	}
}

func TestRigidVelocityAtCenterIsTranslation(t *testing.T) {
	box := NewBox(0.5, 0.5, 0.4, 0.4, 0, 1.5, -2.0, 0)
	if vx := box.VelocityX(0.5, 0.5); vx != 1.5 {
		t.Errorf("VelocityX at center = %v, want 1.5", vx)
	}
	if vy := box.VelocityY(0.5, 0.5); vy != -2.0 {
		t.Errorf("VelocityY at center = %v, want -2.0", vy)
	}
}

func TestRigidVelocityIncludesRotation(t *testing.T) {
	box := NewBox(0.0, 0.0, 0.4, 0.4, 0, 0, 0, 1.0)
	// Point one unit to the right of the center: angular velocity of 1
	// rad/s should produce a purely vertical velocity there.
	vx := box.VelocityX(1.0, 0.0)
	vy := box.VelocityY(1.0, 0.0)
	if vx != 0.0 {
		t.Errorf("VelocityX at (1,0) = %v, want 0", vx)
	}
	if vy != 1.0 {
		t.Errorf("VelocityY at (1,0) = %v, want 1", vy)
	}
}

func TestUpdateIntegratesPose(t *testing.T) {
	box := NewBox(0, 0, 0.2, 0.2, 0, 1.0, 2.0, 0.5)
	box.Update(2.0)
	if box.Pos.X() != 2.0 || box.Pos.Y() != 4.0 {
		t.Errorf("Pos after Update = %v, want (2, 4)", box.Pos)
	}
	if box.Theta != 1.0 {
		t.Errorf("Theta after Update = %v, want 1.0", box.Theta)
	}
}
