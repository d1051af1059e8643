package impulse2d

import "math"

// RevoluteJoint pins two bodies together at a shared point and lets them
// rotate freely about it, optionally constrained by an angle limit and/or
// driven by a motor. The point constraint is a 2x2 bilateral row; the
// limit adds a third angular row, active only while a limit is engaged or
// equal (both bounds coincide). The motor is a separate angular impulse,
// clamped to MaxMotorTorque·Δt, applied whenever the limit state is not
// equal.
type RevoluteJoint struct {
	jointBase

	LocalAnchorA, LocalAnchorB Vec2
	ReferenceAngle             float64

	EnableLimit          bool
	LowerAngle, UpperAngle float64
	EnableMotor          bool
	MotorSpeed           float64
	MaxMotorTorque       float64

	impulse       Vec3
	motorImpulse  float64
	motorMass     float64
	motorDtTorque float64
	mass          Mat33
}

func NewRevoluteJoint(bodyA, bodyB *Body, anchor Vec2) *RevoluteJoint {
	j := &RevoluteJoint{
		jointBase:      jointBase{Kind: JointRevolute, BodyA: bodyA, BodyB: bodyB, LimitState: LimitInactive},
		LocalAnchorA:   bodyA.Transform().ApplyInverse(anchor),
		LocalAnchorB:   bodyB.Transform().ApplyInverse(anchor),
		ReferenceAngle: bodyB.Angle - bodyA.Angle,
	}
	return j
}

func (j *RevoluteJoint) InitSolver(dt float64, warmStarting bool) {
	a, b := j.BodyA, j.BodyB
	j.RA = a.Transform().Q.Mul(j.LocalAnchorA.Sub(a.LocalCenter))
	j.RB = b.Transform().Q.Mul(j.LocalAnchorB.Sub(b.LocalCenter))

	mA, mB := a.InvMass, b.InvMass
	iA, iB := a.InvI, b.InvI
	fixedRotation := iA+iB == 0

	j.mass.Ex.X = mA + mB + j.RA.Y*j.RA.Y*iA + j.RB.Y*j.RB.Y*iB
	j.mass.Ey.X = -j.RA.Y*j.RA.X*iA - j.RB.Y*j.RB.X*iB
	j.mass.Ez.X = -j.RA.Y*iA - j.RB.Y*iB
	j.mass.Ex.Y = j.mass.Ey.X
	j.mass.Ey.Y = mA + mB + j.RA.X*j.RA.X*iA + j.RB.X*j.RB.X*iB
	j.mass.Ez.Y = j.RA.X*iA + j.RB.X*iB
	j.mass.Ex.Z = j.mass.Ez.X
	j.mass.Ey.Z = j.mass.Ez.Y
	j.mass.Ez.Z = iA + iB

	j.motorMass = 0
	if iA+iB > 0 {
		j.motorMass = 1.0 / (iA + iB)
	}
	j.motorDtTorque = dt * j.MaxMotorTorque

	if !j.EnableMotor || fixedRotation {
		j.motorImpulse = 0
	}

	if j.EnableLimit && !fixedRotation {
		jointAngle := (b.Angle - a.Angle) - j.ReferenceAngle
		switch {
		case math.Abs(j.UpperAngle-j.LowerAngle) < 2*AngularSlop:
			j.LimitState = LimitEqual
		case jointAngle <= j.LowerAngle:
			if j.LimitState != LimitAtLower {
				j.impulse.Z = 0
			}
			j.LimitState = LimitAtLower
		case jointAngle >= j.UpperAngle:
			if j.LimitState != LimitAtUpper {
				j.impulse.Z = 0
			}
			j.LimitState = LimitAtUpper
		default:
			j.LimitState = LimitInactive
			j.impulse.Z = 0
		}
	} else {
		j.LimitState = LimitInactive
	}

	if warmStarting {
		P := V2(j.impulse.X, j.impulse.Y)
		applyImpulseAt(a, P.Neg(), j.RA)
		a.AngularVelocity -= iA * j.motorImpulse
		applyImpulseAt(b, P, j.RB)
		b.AngularVelocity += iB * j.motorImpulse
		a.AngularVelocity -= iA * j.impulse.Z
		b.AngularVelocity += iB * j.impulse.Z
	} else {
		j.impulse = Vec3{}
		j.motorImpulse = 0
	}
}

func (j *RevoluteJoint) SolveVelocityConstraints() {
	a, b := j.BodyA, j.BodyB
	iA, iB := a.InvI, b.InvI
	fixedRotation := iA+iB == 0

	if j.EnableMotor && j.LimitState != LimitEqual && !fixedRotation {
		Cdot := b.AngularVelocity - a.AngularVelocity - j.MotorSpeed
		impulse := -j.motorMass * Cdot
		old := j.motorImpulse
		maxImp := j.motorDtTorque
		j.motorImpulse = ClampFloat(j.motorImpulse+impulse, -maxImp, maxImp)
		impulse = j.motorImpulse - old

		a.AngularVelocity -= iA * impulse
		b.AngularVelocity += iB * impulse
	}

	if j.EnableLimit && j.LimitState != LimitInactive && !fixedRotation {
		Cdot1 := b.Velocity.Add(CrossSV(b.AngularVelocity, j.RB)).Sub(a.Velocity).Sub(CrossSV(a.AngularVelocity, j.RA))
		Cdot2 := b.AngularVelocity - a.AngularVelocity
		Cdot := V3(Cdot1.X, Cdot1.Y, Cdot2)

		impulse := j.mass.Solve33(Cdot).Neg()

		switch j.LimitState {
		case LimitEqual:
			j.impulse = j.impulse.Add(impulse)
		case LimitAtLower:
			newImpulse := j.impulse.Z + impulse.Z
			if newImpulse < 0 {
				rhs := Cdot1.Neg().Add(V2(j.mass.Ez.X, j.mass.Ez.Y).Scale(j.impulse.Z))
				reduced := j.mass.Solve22(rhs)
				impulse = V3(reduced.X, reduced.Y, -j.impulse.Z)
				j.impulse.X += reduced.X
				j.impulse.Y += reduced.Y
				j.impulse.Z = 0
			} else {
				j.impulse = j.impulse.Add(impulse)
			}
		case LimitAtUpper:
			newImpulse := j.impulse.Z + impulse.Z
			if newImpulse > 0 {
				rhs := Cdot1.Neg().Add(V2(j.mass.Ez.X, j.mass.Ez.Y).Scale(j.impulse.Z))
				reduced := j.mass.Solve22(rhs)
				impulse = V3(reduced.X, reduced.Y, -j.impulse.Z)
				j.impulse.X += reduced.X
				j.impulse.Y += reduced.Y
				j.impulse.Z = 0
			} else {
				j.impulse = j.impulse.Add(impulse)
			}
		}

		P := V2(impulse.X, impulse.Y)
		applyImpulseAt(a, P.Neg(), j.RA)
		a.AngularVelocity -= iA * impulse.Z
		applyImpulseAt(b, P, j.RB)
		b.AngularVelocity += iB * impulse.Z
	} else {
		Cdot := b.Velocity.Add(CrossSV(b.AngularVelocity, j.RB)).Sub(a.Velocity).Sub(CrossSV(a.AngularVelocity, j.RA))
		impulse := j.mass.Solve22(Cdot.Neg())

		j.impulse.X += impulse.X
		j.impulse.Y += impulse.Y

		applyImpulseAt(a, impulse.Neg(), j.RA)
		applyImpulseAt(b, impulse, j.RB)
	}
}

func (j *RevoluteJoint) SolvePositionConstraints() bool {
	a, b := j.BodyA, j.BodyB
	mA, mB := a.InvMass, b.InvMass
	iA, iB := a.InvI, b.InvI
	fixedRotation := iA+iB == 0

	angularError := 0.0
	positionError := 0.0

	if j.EnableLimit && j.LimitState != LimitInactive && !fixedRotation {
		angle := (b.Angle - a.Angle) - j.ReferenceAngle
		limitImpulse := 0.0
		switch j.LimitState {
		case LimitEqual:
			C := ClampFloat(angle-j.LowerAngle, -MaxAngularCorrection, MaxAngularCorrection)
			limitImpulse = -j.motorMass * C
			angularError = math.Abs(C)
		case LimitAtLower:
			C := angle - j.LowerAngle
			angularError = math.Max(0, -C)
			C = ClampFloat(C+AngularSlop, -MaxAngularCorrection, 0)
			limitImpulse = -j.motorMass * C
		case LimitAtUpper:
			C := angle - j.UpperAngle
			angularError = math.Max(0, C)
			C = ClampFloat(C-AngularSlop, 0, MaxAngularCorrection)
			limitImpulse = -j.motorMass * C
		}
		a.Angle -= iA * limitImpulse
		b.Angle += iB * limitImpulse
	}

	rA := a.Transform().Q.Mul(j.LocalAnchorA.Sub(a.LocalCenter))
	rB := b.Transform().Q.Mul(j.LocalAnchorB.Sub(b.LocalCenter))

	C := b.WorldCenter().Add(rB).Sub(a.WorldCenter().Add(rA))
	positionError = C.Length()

	k11 := mA + mB + iA*rA.Y*rA.Y + iB*rB.Y*rB.Y
	k12 := -iA*rA.X*rA.Y - iB*rB.X*rB.Y
	k22 := mA + mB + iA*rA.X*rA.X + iB*rB.X*rB.X
	km := Mat22{Ex: Vec2{k11, k12}, Ey: Vec2{k12, k22}}
	impulse := km.Solve(C).Neg()

	applyPositionImpulse(a, impulse.Neg(), rA, mA, iA)
	applyPositionImpulse(b, impulse, rB, mB, iB)

	return positionError <= LinearSlop && angularError <= AngularSlop
}

func (j *RevoluteJoint) ReactionForce(invDt float64) Vec2 { return V2(j.impulse.X, j.impulse.Y).Scale(invDt) }
func (j *RevoluteJoint) ReactionTorque(invDt float64) float64 { return j.impulse.Z * invDt }

func (j *RevoluteJoint) Serialize() map[string]any {
	return map[string]any{
		"type":            "revolute",
		"anchorA":         j.LocalAnchorA,
		"anchorB":         j.LocalAnchorB,
		"referenceAngle":  j.ReferenceAngle,
		"enableLimit":     j.EnableLimit,
		"lowerAngle":      j.LowerAngle,
		"upperAngle":      j.UpperAngle,
		"enableMotor":     j.EnableMotor,
		"motorSpeed":      j.MotorSpeed,
		"maxMotorTorque":  j.MaxMotorTorque,
		"collideConnected": j.CollideConnected,
		"maxForce":        j.MaxForce,
		"breakable":       j.Breakable,
	}
}
