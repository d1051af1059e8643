package impulse2d

import "math"

// LineJoint constrains a point on bodyB to slide along an axis fixed in
// bodyA's frame — the perpendicular offset is rigid (bilateral), while
// motion along the axis is governed by a damped spring toward
// SpringLength rather than a hard limit. It keeps PrismaticJoint's
// perpendicular row but has no angular row (relative rotation is free),
// and a soft spring row along the axis takes the place of the limit and
// motor, the way a vehicle suspension slides along a fixed strut.
type LineJoint struct {
	jointBase

	LocalAnchorA, LocalAnchorB Vec2
	LocalAxisA                 Vec2
	SpringLength               float64
	FrequencyHz, DampingRatio  float64

	impulse       float64 // perpendicular
	springImpulse float64

	axis, perp Vec2
	s1, s2     float64
	a1, a2     float64
	mass       float64
	springMass float64
	bias       float64
	gamma      float64
}

func NewLineJoint(bodyA, bodyB *Body, anchor, axis Vec2) *LineJoint {
	a1, _ := axis.Normalized()
	return &LineJoint{
		jointBase:    jointBase{Kind: JointLine, BodyA: bodyA, BodyB: bodyB},
		LocalAnchorA: bodyA.Transform().ApplyInverse(anchor),
		LocalAnchorB: bodyB.Transform().ApplyInverse(anchor),
		LocalAxisA:   bodyA.Transform().Q.MulT(a1),
		FrequencyHz:  2,
		DampingRatio: 0.7,
	}
}

func (j *LineJoint) InitSolver(dt float64, warmStarting bool) {
	a, b := j.BodyA, j.BodyB
	qA := RotFromAngle(a.Angle)
	qB := RotFromAngle(b.Angle)

	rA := qA.Mul(j.LocalAnchorA.Sub(a.LocalCenter))
	rB := qB.Mul(j.LocalAnchorB.Sub(b.LocalCenter))
	d := b.WorldCenter().Add(rB).Sub(a.WorldCenter().Add(rA))

	j.axis = qA.Mul(j.LocalAxisA)
	j.a1 = d.Add(rA).Cross(j.axis)
	j.a2 = rB.Cross(j.axis)

	j.perp = Vec2{-j.axis.Y, j.axis.X}
	j.s1 = d.Add(rA).Cross(j.perp)
	j.s2 = rB.Cross(j.perp)

	mA, mB := a.InvMass, b.InvMass
	iA, iB := a.InvI, b.InvI

	kPerp := mA + mB + iA*j.s1*j.s1 + iB*j.s2*j.s2
	j.mass = 0
	if kPerp > 0 {
		j.mass = 1.0 / kPerp
	}

	kAxial := mA + mB + iA*j.a1*j.a1 + iB*j.a2*j.a2
	if j.FrequencyHz > 0 && kAxial > 0 {
		translation := j.axis.Dot(d)
		C := translation - j.SpringLength
		omega := 2.0 * math.Pi * j.FrequencyHz
		dc := 2.0 * (1.0 / kAxial) * j.DampingRatio * omega
		k := (1.0 / kAxial) * omega * omega
		h := dt
		j.gamma = 0
		if h*(dc+h*k) > 0 {
			j.gamma = 1.0 / (h * (dc + h*k))
		}
		j.bias = C * h * k * j.gamma
		j.springMass = 0
		if kAxial+j.gamma > 0 {
			j.springMass = 1.0 / (kAxial + j.gamma)
		}
	} else {
		j.gamma = 0
		j.bias = 0
		j.springMass = 0
	}

	if warmStarting {
		P := j.perp.Scale(j.impulse).Add(j.axis.Scale(j.springImpulse))
		LA := j.impulse*j.s1 + j.springImpulse*j.a1
		LB := j.impulse*j.s2 + j.springImpulse*j.a2

		a.Velocity = a.Velocity.Sub(P.Scale(mA))
		a.AngularVelocity -= iA * LA
		b.Velocity = b.Velocity.Add(P.Scale(mB))
		b.AngularVelocity += iB * LB
	} else {
		j.impulse = 0
		j.springImpulse = 0
	}
}

func (j *LineJoint) SolveVelocityConstraints() {
	a, b := j.BodyA, j.BodyB
	mA, mB := a.InvMass, b.InvMass
	iA, iB := a.InvI, b.InvI

	if j.springMass > 0 {
		Cdot := j.axis.Dot(b.Velocity.Sub(a.Velocity)) + j.a2*b.AngularVelocity - j.a1*a.AngularVelocity
		impulse := -j.springMass * (Cdot + j.bias + j.gamma*j.springImpulse)
		j.springImpulse += impulse

		P := j.axis.Scale(impulse)
		LA := impulse * j.a1
		LB := impulse * j.a2
		a.Velocity = a.Velocity.Sub(P.Scale(mA))
		a.AngularVelocity -= iA * LA
		b.Velocity = b.Velocity.Add(P.Scale(mB))
		b.AngularVelocity += iB * LB
	}

	Cdot := j.perp.Dot(b.Velocity.Sub(a.Velocity)) + j.s2*b.AngularVelocity - j.s1*a.AngularVelocity
	impulse := -j.mass * Cdot
	j.impulse += impulse

	P := j.perp.Scale(impulse)
	LA := impulse * j.s1
	LB := impulse * j.s2
	a.Velocity = a.Velocity.Sub(P.Scale(mA))
	a.AngularVelocity -= iA * LA
	b.Velocity = b.Velocity.Add(P.Scale(mB))
	b.AngularVelocity += iB * LB
}

// SolvePositionConstraints corrects only the rigid perpendicular row; the
// spring row along the axis has no position error to remove, the same
// reasoning DistanceJoint's soft branch uses.
func (j *LineJoint) SolvePositionConstraints() bool {
	a, b := j.BodyA, j.BodyB
	mA, mB := a.InvMass, b.InvMass
	iA, iB := a.InvI, b.InvI

	qA := RotFromAngle(a.Angle)
	qB := RotFromAngle(b.Angle)
	rA := qA.Mul(j.LocalAnchorA.Sub(a.LocalCenter))
	rB := qB.Mul(j.LocalAnchorB.Sub(b.LocalCenter))
	d := b.WorldCenter().Add(rB).Sub(a.WorldCenter().Add(rA))

	axis := qA.Mul(j.LocalAxisA)
	perp := Vec2{-axis.Y, axis.X}
	s1 := d.Add(rA).Cross(perp)
	s2 := rB.Cross(perp)

	C := perp.Dot(d)
	k := mA + mB + iA*s1*s1 + iB*s2*s2
	impulse := 0.0
	if k > 0 {
		impulse = -C / k
	}

	P := perp.Scale(impulse)
	LA := impulse * s1
	LB := impulse * s2

	a.Position = a.Position.Sub(P.Scale(mA))
	a.Angle -= iA * LA
	b.Position = b.Position.Add(P.Scale(mB))
	b.Angle += iB * LB

	return math.Abs(C) <= LinearSlop
}

func (j *LineJoint) ReactionForce(invDt float64) Vec2 {
	return j.perp.Scale(j.impulse).Add(j.axis.Scale(j.springImpulse)).Scale(invDt)
}
func (j *LineJoint) ReactionTorque(invDt float64) float64 { return 0 }

func (j *LineJoint) Serialize() map[string]any {
	return map[string]any{
		"type":             "line",
		"anchorA":          j.LocalAnchorA,
		"anchorB":          j.LocalAnchorB,
		"axis":             j.LocalAxisA,
		"springLength":     j.SpringLength,
		"frequencyHz":      j.FrequencyHz,
		"dampingRatio":     j.DampingRatio,
		"collideConnected": j.CollideConnected,
		"maxForce":         j.MaxForce,
		"breakable":        j.Breakable,
	}
}
