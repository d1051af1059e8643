package impulse2d

import "math"

// PrismaticJoint constrains two bodies to slide along a shared axis
// fixed in bodyA's frame: the perpendicular offset and relative angle are
// bilateral (a 2x2 block), while translation along the axis is free,
// optionally bounded by a limit and driven by a motor — the same
// perpendicular/limit/motor shape as RevoluteJoint, rotated onto a line
// instead of a point.
type PrismaticJoint struct {
	jointBase

	LocalAnchorA, LocalAnchorB Vec2
	LocalAxisA                 Vec2
	ReferenceAngle             float64

	EnableLimit         bool
	LowerTranslation    float64
	UpperTranslation    float64
	EnableMotor         bool
	MotorSpeed          float64
	MaxMotorForce       float64

	impulse      Vec2 // (perpendicular, angular)
	motorImpulse float64
	axis, perp   Vec2
	s1, s2       float64
	a1, a2       float64
	k11, k12, k22 float64
	motorMass    float64
	motorDtForce float64
}

func NewPrismaticJoint(bodyA, bodyB *Body, anchor, axis Vec2) *PrismaticJoint {
	a1, _ := axis.Normalized()
	return &PrismaticJoint{
		jointBase:      jointBase{Kind: JointPrismatic, BodyA: bodyA, BodyB: bodyB},
		LocalAnchorA:   bodyA.Transform().ApplyInverse(anchor),
		LocalAnchorB:   bodyB.Transform().ApplyInverse(anchor),
		LocalAxisA:     bodyA.Transform().Q.MulT(a1),
		ReferenceAngle: bodyB.Angle - bodyA.Angle,
	}
}

func (j *PrismaticJoint) InitSolver(dt float64, warmStarting bool) {
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

	k11 := mA + mB + iA*j.s1*j.s1 + iB*j.s2*j.s2
	k12 := iA*j.s1 + iB*j.s2
	k22 := iA + iB
	if k22 == 0 {
		k22 = 1
	}
	j.k11, j.k12, j.k22 = k11, k12, k22

	j.motorMass = 0
	kAxial := mA + mB + iA*j.a1*j.a1 + iB*j.a2*j.a2
	if kAxial > 0 {
		j.motorMass = 1.0 / kAxial
	}
	j.motorDtForce = dt * j.MaxMotorForce

	if j.EnableLimit {
		translation := j.axis.Dot(d)
		if math.Abs(j.UpperTranslation-j.LowerTranslation) < 2*LinearSlop {
			j.LimitState = LimitEqual
		} else if translation <= j.LowerTranslation {
			if j.LimitState != LimitAtLower {
				j.impulse.Y = 0
			}
			j.LimitState = LimitAtLower
		} else if translation >= j.UpperTranslation {
			if j.LimitState != LimitAtUpper {
				j.impulse.Y = 0
			}
			j.LimitState = LimitAtUpper
		} else {
			j.LimitState = LimitInactive
		}
	} else {
		j.LimitState = LimitInactive
	}

	if !j.EnableMotor {
		j.motorImpulse = 0
	}

	if warmStarting {
		axialImpulse := j.motorImpulse
		P := j.perp.Scale(j.impulse.X).Add(j.axis.Scale(axialImpulse))
		LA := j.impulse.X*j.s1 + j.impulse.Y + axialImpulse*j.a1
		LB := j.impulse.X*j.s2 + j.impulse.Y + axialImpulse*j.a2

		a.Velocity = a.Velocity.Sub(P.Scale(mA))
		a.AngularVelocity -= iA * LA
		b.Velocity = b.Velocity.Add(P.Scale(mB))
		b.AngularVelocity += iB * LB
	} else {
		j.impulse = Vec2{}
		j.motorImpulse = 0
	}
}

func (j *PrismaticJoint) SolveVelocityConstraints() {
	a, b := j.BodyA, j.BodyB
	mA, mB := a.InvMass, b.InvMass
	iA, iB := a.InvI, b.InvI

	Cdot1 := j.axis.Dot(b.Velocity.Sub(a.Velocity)) + j.a2*b.AngularVelocity - j.a1*a.AngularVelocity

	if j.EnableMotor && j.LimitState != LimitEqual {
		impulse := j.motorMass * (j.MotorSpeed - Cdot1)
		old := j.motorImpulse
		j.motorImpulse = ClampFloat(j.motorImpulse+impulse, -j.motorDtForce, j.motorDtForce)
		impulse = j.motorImpulse - old

		P := j.axis.Scale(impulse)
		LA := impulse * j.a1
		LB := impulse * j.a2
		a.Velocity = a.Velocity.Sub(P.Scale(mA))
		a.AngularVelocity -= iA * LA
		b.Velocity = b.Velocity.Add(P.Scale(mB))
		b.AngularVelocity += iB * LB
	}

	if j.EnableLimit && j.LimitState != LimitInactive {
		Cdot := j.axis.Dot(b.Velocity.Sub(a.Velocity)) + j.a2*b.AngularVelocity - j.a1*a.AngularVelocity
		impulse := -j.motorMass * Cdot
		if j.LimitState == LimitAtLower {
			impulse = math.Max(impulse, 0)
		} else if j.LimitState == LimitAtUpper {
			impulse = math.Min(impulse, 0)
		}

		P := j.axis.Scale(impulse)
		LA := impulse * j.a1
		LB := impulse * j.a2
		a.Velocity = a.Velocity.Sub(P.Scale(mA))
		a.AngularVelocity -= iA * LA
		b.Velocity = b.Velocity.Add(P.Scale(mB))
		b.AngularVelocity += iB * LB
	}

	Cdot2 := b.AngularVelocity - a.AngularVelocity
	Cdot := Vec2{j.perp.Dot(b.Velocity.Sub(a.Velocity)) + j.s2*b.AngularVelocity - j.s1*a.AngularVelocity, Cdot2}

	km := Mat22{Ex: Vec2{j.k11, j.k12}, Ey: Vec2{j.k12, j.k22}}
	impulse := km.Solve(Cdot.Neg())
	j.impulse = j.impulse.Add(impulse)

	P := j.perp.Scale(impulse.X)
	LA := impulse.X*j.s1 + impulse.Y
	LB := impulse.X*j.s2 + impulse.Y

	a.Velocity = a.Velocity.Sub(P.Scale(mA))
	a.AngularVelocity -= iA * LA
	b.Velocity = b.Velocity.Add(P.Scale(mB))
	b.AngularVelocity += iB * LB
}

func (j *PrismaticJoint) SolvePositionConstraints() bool {
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

	C1 := Vec2{perp.Dot(d), (b.Angle - a.Angle) - j.ReferenceAngle}
	linearError := math.Abs(C1.X)
	angularError := math.Abs(C1.Y)

	k11 := mA + mB + iA*s1*s1 + iB*s2*s2
	k12 := iA*s1 + iB*s2
	k22 := iA + iB
	if k22 == 0 {
		k22 = 1
	}
	km := Mat22{Ex: Vec2{k11, k12}, Ey: Vec2{k12, k22}}
	impulse := km.Solve(C1.Neg())

	P := perp.Scale(impulse.X)
	LA := impulse.X*s1 + impulse.Y
	LB := impulse.X*s2 + impulse.Y

	a.Position = a.Position.Sub(P.Scale(mA))
	a.Angle -= iA * LA
	b.Position = b.Position.Add(P.Scale(mB))
	b.Angle += iB * LB

	return linearError <= LinearSlop && angularError <= AngularSlop
}

func (j *PrismaticJoint) ReactionForce(invDt float64) Vec2 {
	return j.perp.Scale(j.impulse.X).Add(j.axis.Scale(j.motorImpulse)).Scale(invDt)
}
func (j *PrismaticJoint) ReactionTorque(invDt float64) float64 { return j.impulse.Y * invDt }

func (j *PrismaticJoint) Serialize() map[string]any {
	return map[string]any{
		"type":             "prismatic",
		"anchorA":          j.LocalAnchorA,
		"anchorB":          j.LocalAnchorB,
		"axis":             j.LocalAxisA,
		"referenceAngle":   j.ReferenceAngle,
		"enableLimit":      j.EnableLimit,
		"lowerTranslation": j.LowerTranslation,
		"upperTranslation": j.UpperTranslation,
		"enableMotor":      j.EnableMotor,
		"motorSpeed":       j.MotorSpeed,
		"maxMotorForce":    j.MaxMotorForce,
		"collideConnected": j.CollideConnected,
		"maxForce":         j.MaxForce,
		"breakable":        j.Breakable,
	}
}
