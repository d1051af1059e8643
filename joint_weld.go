package impulse2d

import "math"

// WeldJoint rigidly fixes two bodies' relative pose: both the shared
// anchor point and the relative angle are held fixed, a 3x3 bilateral
// constraint (2 point rows + 1 angle row). Like DistanceJoint, it can be
// made soft via FrequencyHz/DampingRatio, in which case the rigid
// position correction is skipped in favor of the velocity-level bias.
type WeldJoint struct {
	jointBase

	LocalAnchorA, LocalAnchorB Vec2
	ReferenceAngle             float64
	FrequencyHz, DampingRatio  float64

	impulse     Vec3
	gamma       float64
	bias        float64
	angularMass float64
	mass        Mat33
}

func NewWeldJoint(bodyA, bodyB *Body, anchor Vec2) *WeldJoint {
	return &WeldJoint{
		jointBase:      jointBase{Kind: JointWeld, BodyA: bodyA, BodyB: bodyB},
		LocalAnchorA:   bodyA.Transform().ApplyInverse(anchor),
		LocalAnchorB:   bodyB.Transform().ApplyInverse(anchor),
		ReferenceAngle: bodyB.Angle - bodyA.Angle,
	}
}

func (j *WeldJoint) InitSolver(dt float64, warmStarting bool) {
	a, b := j.BodyA, j.BodyB
	j.RA = a.Transform().Q.Mul(j.LocalAnchorA.Sub(a.LocalCenter))
	j.RB = b.Transform().Q.Mul(j.LocalAnchorB.Sub(b.LocalCenter))

	mA, mB := a.InvMass, b.InvMass
	iA, iB := a.InvI, b.InvI

	k11 := mA + mB + j.RA.Y*j.RA.Y*iA + j.RB.Y*j.RB.Y*iB
	k12 := -j.RA.Y*j.RA.X*iA - j.RB.Y*j.RB.X*iB
	k13 := -j.RA.Y*iA - j.RB.Y*iB
	k22 := mA + mB + j.RA.X*j.RA.X*iA + j.RB.X*j.RB.X*iB
	k23 := j.RA.X*iA + j.RB.X*iB
	k33 := iA + iB

	j.mass = Mat33{
		Ex: V3(k11, k12, k13),
		Ey: V3(k12, k22, k23),
		Ez: V3(k13, k23, k33),
	}

	if j.FrequencyHz > 0 {
		C := (b.Angle - a.Angle) - j.ReferenceAngle
		omega := 2.0 * math.Pi * j.FrequencyHz
		d := 2.0 * k33 * j.DampingRatio * omega
		k := k33 * omega * omega
		h := dt
		j.gamma = 0
		if h*(d+h*k) > 0 {
			j.gamma = 1.0 / (h * (d + h*k))
		}
		j.bias = C * h * k * j.gamma
		j.angularMass = 0
		if k33+j.gamma > 0 {
			j.angularMass = 1.0 / (k33 + j.gamma)
		}
	} else {
		j.gamma = 0
		j.bias = 0
	}

	if warmStarting {
		P := V2(j.impulse.X, j.impulse.Y)
		applyImpulseAt(a, P.Neg(), j.RA)
		a.AngularVelocity -= iA * j.impulse.Z
		applyImpulseAt(b, P, j.RB)
		b.AngularVelocity += iB * j.impulse.Z
	} else {
		j.impulse = Vec3{}
	}
}

func (j *WeldJoint) SolveVelocityConstraints() {
	a, b := j.BodyA, j.BodyB
	iA, iB := a.InvI, b.InvI

	if j.FrequencyHz > 0 {
		Cdot := b.AngularVelocity - a.AngularVelocity
		impulse := -j.angularMass * (Cdot + j.bias + j.gamma*j.impulse.Z)
		j.impulse.Z += impulse
		a.AngularVelocity -= iA * impulse
		b.AngularVelocity += iB * impulse

		Cdot1 := b.Velocity.Add(CrossSV(b.AngularVelocity, j.RB)).Sub(a.Velocity).Sub(CrossSV(a.AngularVelocity, j.RA))
		impulse2 := j.mass.Solve22(Cdot1.Neg())
		j.impulse.X += impulse2.X
		j.impulse.Y += impulse2.Y

		applyImpulseAt(a, impulse2.Neg(), j.RA)
		applyImpulseAt(b, impulse2, j.RB)
		return
	}

	Cdot1 := b.Velocity.Add(CrossSV(b.AngularVelocity, j.RB)).Sub(a.Velocity).Sub(CrossSV(a.AngularVelocity, j.RA))
	Cdot2 := b.AngularVelocity - a.AngularVelocity
	Cdot := V3(Cdot1.X, Cdot1.Y, Cdot2)

	impulse := j.mass.Solve33(Cdot).Neg()
	j.impulse = j.impulse.Add(impulse)

	P := V2(impulse.X, impulse.Y)
	applyImpulseAt(a, P.Neg(), j.RA)
	a.AngularVelocity -= iA * impulse.Z
	applyImpulseAt(b, P, j.RB)
	b.AngularVelocity += iB * impulse.Z
}

func (j *WeldJoint) SolvePositionConstraints() bool {
	if j.FrequencyHz > 0 {
		return true
	}

	a, b := j.BodyA, j.BodyB
	mA, mB := a.InvMass, b.InvMass
	iA, iB := a.InvI, b.InvI

	rA := a.Transform().Q.Mul(j.LocalAnchorA.Sub(a.LocalCenter))
	rB := b.Transform().Q.Mul(j.LocalAnchorB.Sub(b.LocalCenter))

	k11 := mA + mB + rA.Y*rA.Y*iA + rB.Y*rB.Y*iB
	k12 := -rA.Y*rA.X*iA - rB.Y*rB.X*iB
	k13 := -rA.Y*iA - rB.Y*iB
	k22 := mA + mB + rA.X*rA.X*iA + rB.X*rB.X*iB
	k23 := rA.X*iA + rB.X*iB
	k33 := iA + iB

	m := Mat33{Ex: V3(k11, k12, k13), Ey: V3(k12, k22, k23), Ez: V3(k13, k23, k33)}

	C1 := b.WorldCenter().Add(rB).Sub(a.WorldCenter().Add(rA))
	C2 := (b.Angle - a.Angle) - j.ReferenceAngle

	positionError := C1.Length()
	angularError := math.Abs(C2)

	impulse := m.Solve33(V3(C1.X, C1.Y, C2)).Neg()
	P := V2(impulse.X, impulse.Y)

	applyPositionImpulse(a, P.Neg(), rA, mA, iA)
	a.Angle -= iA * impulse.Z
	applyPositionImpulse(b, P, rB, mB, iB)
	b.Angle += iB * impulse.Z

	return positionError <= LinearSlop && angularError <= AngularSlop
}

func (j *WeldJoint) ReactionForce(invDt float64) Vec2 { return V2(j.impulse.X, j.impulse.Y).Scale(invDt) }
func (j *WeldJoint) ReactionTorque(invDt float64) float64 { return j.impulse.Z * invDt }

func (j *WeldJoint) Serialize() map[string]any {
	return map[string]any{
		"type":             "weld",
		"anchorA":          j.LocalAnchorA,
		"anchorB":          j.LocalAnchorB,
		"referenceAngle":   j.ReferenceAngle,
		"frequencyHz":      j.FrequencyHz,
		"dampingRatio":     j.DampingRatio,
		"collideConnected": j.CollideConnected,
		"maxForce":         j.MaxForce,
		"breakable":        j.Breakable,
	}
}
