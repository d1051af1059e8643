package impulse2d

import "math"

// DistanceJoint holds two anchor points at a fixed distance apart: a
// rigid bilateral constraint C = |anchorB - anchorA| - Length = 0. When
// FrequencyHz > 0 it instead behaves as a damped spring toward that
// length (the "distance-spring" variant) — the velocity solve folds a
// soft-constraint gamma/bias term into the effective mass, and the
// position solve is skipped entirely, since a spring has no rigid
// position error to correct.
type DistanceJoint struct {
	jointBase

	LocalAnchorA, LocalAnchorB Vec2
	Length                     float64
	FrequencyHz, DampingRatio  float64

	gamma, bias float64
	impulse     float64
}

func NewDistanceJoint(bodyA, bodyB *Body, localAnchorA, localAnchorB Vec2, length float64) *DistanceJoint {
	return &DistanceJoint{
		jointBase:    jointBase{Kind: JointDistance, BodyA: bodyA, BodyB: bodyB},
		LocalAnchorA: localAnchorA,
		LocalAnchorB: localAnchorB,
		Length:       length,
	}
}

func (j *DistanceJoint) InitSolver(dt float64, warmStarting bool) {
	a, b := j.BodyA, j.BodyB
	j.RA = a.Transform().Apply(j.LocalAnchorA).Sub(a.WorldCenter())
	j.RB = b.Transform().Apply(j.LocalAnchorB).Sub(b.WorldCenter())

	d := b.WorldCenter().Add(j.RB).Sub(a.WorldCenter().Add(j.RA))
	var length float64
	j.U, length = d.Normalized()
	if length < LinearSlop {
		j.U = Vec2{}
	}

	j.S1 = j.RA.Cross(j.U)
	j.S2 = j.RB.Cross(j.U)

	invMassSum := a.InvMass + b.InvMass + a.InvI*j.S1*j.S1 + b.InvI*j.S2*j.S2
	invMass := 0.0
	if invMassSum > 0 {
		invMass = 1.0 / invMassSum
	}

	if j.FrequencyHz > 0 {
		C := length - j.Length
		omega := 2.0 * math.Pi * j.FrequencyHz
		d := 2.0 * invMassSum * j.DampingRatio * omega
		k := invMassSum * omega * omega
		h := dt
		j.gamma = 0
		if h*(d+h*k) > 0 {
			j.gamma = 1.0 / (h * (d + h*k))
		}
		j.bias = C * h * k * j.gamma

		invMassSum += j.gamma
		j.EffMass = 0
		if invMassSum > 0 {
			j.EffMass = 1.0 / invMassSum
		}
	} else {
		j.gamma = 0
		j.bias = 0
		j.EffMass = invMass
	}

	if warmStarting {
		P := j.U.Scale(j.impulse)
		applyImpulseAt(a, P.Neg(), j.RA)
		applyImpulseAt(b, P, j.RB)
	} else {
		j.impulse = 0
	}
}

func (j *DistanceJoint) SolveVelocityConstraints() {
	a, b := j.BodyA, j.BodyB
	vpA := a.Velocity.Add(CrossSV(a.AngularVelocity, j.RA))
	vpB := b.Velocity.Add(CrossSV(b.AngularVelocity, j.RB))
	Cdot := j.U.Dot(vpB.Sub(vpA))

	impulse := -j.EffMass * (Cdot + j.bias + j.gamma*j.impulse)
	j.impulse += impulse

	P := j.U.Scale(impulse)
	applyImpulseAt(a, P.Neg(), j.RA)
	applyImpulseAt(b, P, j.RB)
}

func (j *DistanceJoint) SolvePositionConstraints() bool {
	if j.FrequencyHz > 0 {
		// Soft constraints correct drift through the velocity bias
		// only; there is no rigid position error to remove.
		return true
	}

	a, b := j.BodyA, j.BodyB
	rA := a.Transform().Apply(j.LocalAnchorA).Sub(a.WorldCenter())
	rB := b.Transform().Apply(j.LocalAnchorB).Sub(b.WorldCenter())

	u, length := b.WorldCenter().Add(rB).Sub(a.WorldCenter().Add(rA)).Normalized()
	C := ClampFloat(length-j.Length, -MaxLinearCorrection, MaxLinearCorrection)

	s1 := rA.Cross(u)
	s2 := rB.Cross(u)
	invMassSum := a.InvMass + b.InvMass + a.InvI*s1*s1 + b.InvI*s2*s2
	if invMassSum == 0 {
		return true
	}
	impulse := -C / invMassSum

	P := u.Scale(impulse)
	applyPositionImpulse(a, P.Neg(), rA, a.InvMass, a.InvI)
	applyPositionImpulse(b, P, rB, b.InvMass, b.InvI)

	return math.Abs(C) < LinearSlop
}

func (j *DistanceJoint) ReactionForce(invDt float64) Vec2 { return j.U.Scale(j.impulse * invDt) }
func (j *DistanceJoint) ReactionTorque(invDt float64) float64 { return 0 }

func (j *DistanceJoint) Serialize() map[string]any {
	return map[string]any{
		"type":          "distance",
		"anchorA":       j.LocalAnchorA,
		"anchorB":       j.LocalAnchorB,
		"length":        j.Length,
		"frequencyHz":   j.FrequencyHz,
		"dampingRatio":  j.DampingRatio,
		"collideConnected": j.CollideConnected,
		"maxForce":      j.MaxForce,
		"breakable":     j.Breakable,
	}
}
