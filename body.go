package impulse2d

import (
	"math"

	"github.com/google/uuid"
)

type BodyType int

const (
	StaticBody BodyType = iota
	KinematicBody
	DynamicBody
)

// Filter is the collision category/mask/group scheme used by ShouldCollide.
// DefaultFilter (category 1, mask all-bits, group 0) collides with
// everything; a zero Filter has no category or mask bits and collides with
// nothing.
type Filter struct {
	CategoryBits uint16
	MaskBits     uint16
	GroupIndex   int16
}

func DefaultFilter() Filter {
	return Filter{CategoryBits: 0x0001, MaskBits: 0xFFFF, GroupIndex: 0}
}

func (f Filter) shouldCollide(o Filter) bool {
	if f.GroupIndex == o.GroupIndex && f.GroupIndex != 0 {
		return f.GroupIndex > 0
	}
	return (f.MaskBits&o.CategoryBits) != 0 && (f.CategoryBits&o.MaskBits) != 0
}

// AABB is an axis-aligned bounding box in world space.
type AABB struct {
	Lower, Upper Vec2
}

func (a AABB) Union(b AABB) AABB {
	return AABB{
		Lower: Vec2{min(a.Lower.X, b.Lower.X), min(a.Lower.Y, b.Lower.Y)},
		Upper: Vec2{max(a.Upper.X, b.Upper.X), max(a.Upper.Y, b.Upper.Y)},
	}
}

func (a AABB) Overlaps(b AABB) bool {
	return a.Lower.X <= b.Upper.X && b.Lower.X <= a.Upper.X &&
		a.Lower.Y <= b.Upper.Y && b.Lower.Y <= a.Upper.Y
}

func (a AABB) Extend(margin float64) AABB {
	m := Vec2{margin, margin}
	return AABB{Lower: a.Lower.Sub(m), Upper: a.Upper.Add(m)}
}

// Body is a rigid body: identity, pose, velocity, sleep bookkeeping, its
// attached shapes, and the joints it participates in. Space owns Bodies
// exclusively; a Body owns its Shapes exclusively.
type Body struct {
	ID       int
	UserData uuid.UUID
	Type     BodyType

	Position        Vec2
	Angle           float64
	Velocity        Vec2
	AngularVelocity float64

	Mass, InvMass float64
	I, InvI       float64
	LocalCenter   Vec2

	Force  Vec2
	Torque float64

	AABB AABB

	Awake     bool
	SleepTime float64

	shapes   []*Shape
	jointIDs map[int]struct{}

	space *Space
}

func newBody(space *Space, id int, kind BodyType, position Vec2, angle float64) *Body {
	b := &Body{
		ID:       id,
		UserData: uuid.New(),
		Type:     kind,
		Position: position,
		Angle:    angle,
		Awake:    true,
		jointIDs: make(map[int]struct{}),
		space:    space,
	}
	if kind == StaticBody {
		b.Awake = false
	}
	return b
}

func (b *Body) Transform() Transform {
	return Transform{P: b.Position, Q: RotFromAngle(b.Angle)}
}

func (b *Body) WorldCenter() Vec2 {
	return b.Transform().Apply(b.LocalCenter)
}

func (b *Body) Shapes() []*Shape { return b.shapes }

// AddShape attaches a shape to the body and recomputes mass data, the way
// adding a fixture to a box2d body does.
func (b *Body) AddShape(s *Shape) {
	s.body = b
	b.shapes = append(b.shapes, s)
	b.ResetMassData()
}

func (b *Body) RemoveShape(s *Shape) {
	for i, sh := range b.shapes {
		if sh == s {
			b.shapes = append(b.shapes[:i], b.shapes[i+1:]...)
			break
		}
	}
	b.ResetMassData()
}

// ResetMassData recomputes mass, rotational inertia, and the local center
// of mass from the body's shapes and their densities. A dynamic body with
// no shapes, or whose shapes carry zero density, still needs a mass, so
// it is forced to unit mass — matching box2d's ResetMassData rule.
func (b *Body) ResetMassData() {
	b.Mass = 0
	b.InvMass = 0
	b.I = 0
	b.InvI = 0
	b.LocalCenter = Vec2{}

	if b.Type != DynamicBody {
		return
	}

	center := Vec2{}
	var mass, I float64
	for _, s := range b.shapes {
		if s.Density == 0 {
			continue
		}
		m, localCenter, localI := s.massData()
		mass += m
		center = center.Add(localCenter.Scale(m))
		I += localI
	}

	if mass > 0 {
		b.Mass = mass
		b.InvMass = 1.0 / mass
		center = center.Scale(b.InvMass)
	} else {
		b.Mass = 1.0
		b.InvMass = 1.0
	}

	if I > 0 {
		// Shift inertia from the shape-local origin to the body's
		// center of mass, then strip the portion already accounted
		// for by translating mass to the origin.
		I -= mass * center.LengthSquared()
		b.I = I
		b.InvI = 1.0 / I
	}

	b.LocalCenter = center
}

// UpdateVelocity integrates external forces and gravity into velocity,
// then scales the result by damping^Δt.
func (b *Body) UpdateVelocity(gravity Vec2, damping, dt float64) {
	if b.Type == StaticBody {
		return
	}
	v := b.Velocity.Add(gravity.Add(b.Force.Scale(b.InvMass)).Scale(dt))
	w := b.AngularVelocity + dt*b.Torque*b.InvI

	scale := dampingPow(damping, dt)
	b.Velocity = v.Scale(scale)
	b.AngularVelocity = w * scale
}

func dampingPow(damping, dt float64) float64 {
	if damping <= 0 {
		return 1
	}
	return math.Pow(damping, dt)
}

// UpdatePosition integrates velocity into position using semi-implicit
// Euler, with the same translation/rotation caps box2d applies to keep a
// single fast-moving body from tunneling out of its own AABB margin.
func (b *Body) UpdatePosition(dt float64) {
	if b.Type == StaticBody {
		return
	}

	translation := b.Velocity.Scale(dt)
	if translation.LengthSquared() > MaxTranslationSquared {
		ratio := MaxTranslation / translation.Length()
		b.Velocity = b.Velocity.Scale(ratio)
	}

	rotation := dt * b.AngularVelocity
	if rotation*rotation > MaxRotationSquared {
		ratio := MaxRotation / absFloat(rotation)
		b.AngularVelocity *= ratio
	}

	b.Position = b.Position.Add(b.Velocity.Scale(dt))
	b.Angle += dt * b.AngularVelocity
}

// CacheData recomputes world-space shape geometry and the body's AABB
// from the current transform.
func (b *Body) CacheData() {
	xf := b.Transform()
	if len(b.shapes) == 0 {
		b.AABB = AABB{Lower: b.Position, Upper: b.Position}
		return
	}
	var box AABB
	for i, s := range b.shapes {
		s.cache(xf)
		if i == 0 {
			box = s.AABB
		} else {
			box = box.Union(s.AABB)
		}
	}
	b.AABB = box
}

// SyncTransform is the explicit write-back point for external consumers
// that read pose between steps; CacheData already keeps Position/Angle
// current, so this exists to mark that boundary in the API the way the
// stepper's contract expects.
func (b *Body) SyncTransform() {
	b.CacheData()
}

func (b *Body) SetAwake(awake bool) {
	if b.Type == StaticBody {
		return
	}
	if awake {
		b.Awake = true
		b.SleepTime = 0
	} else {
		b.Awake = false
		b.SleepTime = 0
		b.Velocity = Vec2{}
		b.AngularVelocity = 0
		b.Force = Vec2{}
		b.Torque = 0
	}
}

func (b *Body) ApplyForce(force Vec2, point Vec2, wake bool) {
	if b.Type != DynamicBody {
		return
	}
	if wake && !b.Awake {
		b.SetAwake(true)
	}
	if !b.Awake {
		return
	}
	b.Force = b.Force.Add(force)
	b.Torque += point.Sub(b.WorldCenter()).Cross(force)
}

func (b *Body) ApplyLinearImpulse(impulse Vec2, point Vec2, wake bool) {
	if b.Type != DynamicBody {
		return
	}
	if wake && !b.Awake {
		b.SetAwake(true)
	}
	if !b.Awake {
		return
	}
	b.Velocity = b.Velocity.Add(impulse.Scale(b.InvMass))
	b.AngularVelocity += b.InvI * point.Sub(b.WorldCenter()).Cross(impulse)
}

// ShouldCollide implements §4.1's collidability rule: at least one of the
// pair must be dynamic, their filters must intersect, and (checked by the
// caller, which knows about joints) collideConnected must not forbid it.
func (a *Body) ShouldCollide(b *Body) bool {
	if a.Type != DynamicBody && b.Type != DynamicBody {
		return false
	}
	for _, sa := range a.shapes {
		for _, sb := range b.shapes {
			if sa.Filter.shouldCollide(sb.Filter) {
				return true
			}
		}
	}
	return len(a.shapes) == 0 || len(b.shapes) == 0
}

// ShiftOrigin translates the body's pose by -newOrigin, used when the host
// application re-centers its world of interest around a moving region.
func (b *Body) ShiftOrigin(newOrigin Vec2) {
	b.Position = b.Position.Sub(newOrigin)
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
