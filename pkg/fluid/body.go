package fluid

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyKind tags the closed set of SolidBody variants. A switch over this tag
// replaces the virtual dispatch of the reference implementation, keeping the
// hot divergence and boundary-stamping kernels free of interface calls.
type BodyKind int

const (
	BodyBox BodyKind = iota
	BodySphere
)

// SolidBody is a rigid obstacle described implicitly by a signed-distance
// function. Pos and Vel are in world coordinates; distance/normal/closest-
// point queries transform world points into the body's local frame and back.
//
// Box interprets Scale as (width, height) and is centered on Pos with
// rotation Theta. Sphere interprets Scale.X() as the diameter; NewSphere sets
// Scale.Y() to the same value, which the sphere's ClosestSurfacePoint also
// reads. Theta does not change a sphere's distance, normal, or closest point.
type SolidBody struct {
	Kind BodyKind

	Pos   mgl64.Vec2
	Scale mgl64.Vec2
	Theta float64

	Vel      mgl64.Vec2
	AngularV float64
}

// NewBox builds a box obstacle of size (sx, sy) centered at (px, py) and
// rotated by theta, with the given rigid-body velocity.
func NewBox(px, py, sx, sy, theta, vx, vy, angularV float64) SolidBody {
	return SolidBody{
		Kind:     BodyBox,
		Pos:      mgl64.Vec2{px, py},
		Scale:    mgl64.Vec2{sx, sy},
		Theta:    theta,
		Vel:      mgl64.Vec2{vx, vy},
		AngularV: angularV,
	}
}

// NewSphere builds a sphere obstacle of diameter s centered at (px, py) with
// the given rigid-body velocity.
func NewSphere(px, py, s, vx, vy, angularV float64) SolidBody {
	return SolidBody{
		Kind:     BodySphere,
		Pos:      mgl64.Vec2{px, py},
		Scale:    mgl64.Vec2{s, s},
		Vel:      mgl64.Vec2{vx, vy},
		AngularV: angularV,
	}
}

func (b *SolidBody) globalToLocal(p mgl64.Vec2) mgl64.Vec2 {
	p = p.Sub(b.Pos)
	p = mgl64.Rotate2D(-b.Theta).Mul2x1(p)
	return mgl64.Vec2{p.X() / b.Scale.X(), p.Y() / b.Scale.Y()}
}

func (b *SolidBody) localToGlobal(p mgl64.Vec2) mgl64.Vec2 {
	p = mgl64.Vec2{p.X() * b.Scale.X(), p.Y() * b.Scale.Y()}
	p = mgl64.Rotate2D(b.Theta).Mul2x1(p)
	return p.Add(b.Pos)
}

// Distance returns the signed distance from (x, y) to the body surface;
// negative means inside.
func (b *SolidBody) Distance(x, y float64) float64 {
	switch b.Kind {
	case BodySphere:
		return mgl64.Vec2{x, y}.Sub(b.Pos).Len() - b.Scale.X()*0.5
	default:
		local := mgl64.Rotate2D(-b.Theta).Mul2x1(mgl64.Vec2{x, y}.Sub(b.Pos))
		dx := math.Abs(local.X()) - b.Scale.X()*0.5
		dy := math.Abs(local.Y()) - b.Scale.Y()*0.5
		if dx >= 0.0 || dy >= 0.0 {
			return math.Hypot(math.Max(dx, 0.0), math.Max(dy, 0.0))
		}
		return math.Max(dx, dy)
	}
}

// ClosestSurfacePoint returns the world-space point on the body boundary
// closest to (x, y).
func (b *SolidBody) ClosestSurfacePoint(x, y float64) (float64, float64) {
	switch b.Kind {
	case BodySphere:
		local := b.globalToLocal(mgl64.Vec2{x, y})
		r := local.Len()
		var p mgl64.Vec2
		if r < 1e-4 {
			p = mgl64.Vec2{0.5, 0.0}
		} else {
			p = mgl64.Vec2{local.X() / (2.0 * r), local.Y() / (2.0 * r)}
		}
		out := b.localToGlobal(p)
		return out.X(), out.Y()
	default:
		local := mgl64.Rotate2D(-b.Theta).Mul2x1(mgl64.Vec2{x, y}.Sub(b.Pos))
		dx := math.Abs(local.X()) - b.Scale.X()*0.5
		dy := math.Abs(local.Y()) - b.Scale.Y()*0.5
		var p mgl64.Vec2
		if dx > dy {
			p = mgl64.Vec2{nsgn(local.X()) * 0.5 * b.Scale.X(), local.Y()}
		} else {
			p = mgl64.Vec2{local.X(), nsgn(local.Y()) * 0.5 * b.Scale.Y()}
		}
		p = mgl64.Rotate2D(b.Theta).Mul2x1(p)
		p = p.Add(b.Pos)
		return p.X(), p.Y()
	}
}

// Normal returns the outward unit normal of the body at (x, y).
func (b *SolidBody) Normal(x, y float64) (float64, float64) {
	switch b.Kind {
	case BodySphere:
		dx, dy := x-b.Pos.X(), y-b.Pos.Y()
		r := math.Hypot(dx, dy)
		if r < 1e-4 {
			return 1.0, 0.0
		}
		return dx / r, dy / r
	default:
		local := mgl64.Rotate2D(-b.Theta).Mul2x1(mgl64.Vec2{x, y}.Sub(b.Pos))
		var n mgl64.Vec2
		if math.Abs(local.X())-b.Scale.X()*0.5 > math.Abs(local.Y())-b.Scale.Y()*0.5 {
			n = mgl64.Vec2{nsgn(local.X()), 0.0}
		} else {
			n = mgl64.Vec2{0.0, nsgn(local.Y())}
		}
		n = mgl64.Rotate2D(b.Theta).Mul2x1(n)
		return n.X(), n.Y()
	}
}

// VelocityX returns the x-component of the body's rigid velocity at (x, y).
func (b *SolidBody) VelocityX(x, y float64) float64 {
	return (b.Pos.Y()-y)*b.AngularV + b.Vel.X()
}

// VelocityY returns the y-component of the body's rigid velocity at (x, y).
func (b *SolidBody) VelocityY(x, y float64) float64 {
	return (x-b.Pos.X())*b.AngularV + b.Vel.Y()
}

// Update advances the body's pose by one Euler step. Called by the external
// driver between solver steps, never by the solver itself.
func (b *SolidBody) Update(dt float64) {
	b.Pos = b.Pos.Add(b.Vel.Mul(dt))
	b.Theta += b.AngularV * dt
}

// nsgn returns -1 for negative inputs and +1 otherwise (including zero),
// matching the reference's nsgn helper used for picking a box's closest
// face/normal direction.
func nsgn(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// sgn returns the sign of v: -1, 0, or +1.
func sgn(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
