package impulse2d

// RopeJoint is an upper-bound distance constraint: C = |anchorB - anchorA|
// - MaxLength ≤ 0. It behaves like a taut rope — free below MaxLength,
// rigid at it — never pulling the bodies together.
//
// Limit state: if C > 0 the rope is taut (atUpper) and the bias is zero;
// if C ≤ 0 the rope is slack and the bias softly draws it back toward the
// limit under velocity correction (cdt = C/Δt) rather than leaving it
// free to drift, which is what lets a slack rope re-tension smoothly
// instead of snapping.
type RopeJoint struct {
	jointBase

	LocalAnchorA, LocalAnchorB Vec2
	MaxLength                  float64

	impulse float64
	cdt     float64
	length  float64
}

func NewRopeJoint(bodyA, bodyB *Body, localAnchorA, localAnchorB Vec2, maxLength float64) *RopeJoint {
	return &RopeJoint{
		jointBase:    jointBase{Kind: JointRope, BodyA: bodyA, BodyB: bodyB},
		LocalAnchorA: localAnchorA,
		LocalAnchorB: localAnchorB,
		MaxLength:    maxLength,
	}
}

func (j *RopeJoint) InitSolver(dt float64, warmStarting bool) {
	a, b := j.BodyA, j.BodyB
	j.RA = a.Transform().Apply(j.LocalAnchorA).Sub(a.WorldCenter())
	j.RB = b.Transform().Apply(j.LocalAnchorB).Sub(b.WorldCenter())

	d := b.WorldCenter().Add(j.RB).Sub(a.WorldCenter().Add(j.RA))
	j.U, j.length = d.Normalized()

	C := j.length - j.MaxLength
	if C > 0 {
		j.LimitState = LimitAtUpper
	} else {
		j.LimitState = LimitInactive
	}

	if j.length > LinearSlop {
		j.cdt = 0
		if C <= 0 && dt > 0 {
			j.cdt = C / dt
		}
	} else {
		j.U = Vec2{}
		j.cdt = 0
	}

	j.S1 = j.RA.Cross(j.U)
	j.S2 = j.RB.Cross(j.U)

	invMassSum := a.InvMass + b.InvMass + a.InvI*j.S1*j.S1 + b.InvI*j.S2*j.S2
	j.EffMass = 0
	if invMassSum > 0 {
		j.EffMass = 1.0 / invMassSum
	}

	if warmStarting {
		P := j.U.Scale(j.impulse)
		applyImpulseAt(a, P.Neg(), j.RA)
		applyImpulseAt(b, P, j.RB)
	} else {
		j.impulse = 0
	}
}

func (j *RopeJoint) SolveVelocityConstraints() {
	if j.EffMass == 0 {
		return
	}
	a, b := j.BodyA, j.BodyB

	vpA := a.Velocity.Add(CrossSV(a.AngularVelocity, j.RA))
	vpB := b.Velocity.Add(CrossSV(b.AngularVelocity, j.RB))
	Cdot := j.U.Dot(vpB.Sub(vpA))

	dLambda := -j.EffMass * (Cdot + j.cdt)
	oldImpulse := j.impulse
	j.impulse = minFloat(j.impulse+dLambda, 0)
	dLambda = j.impulse - oldImpulse

	P := j.U.Scale(dLambda)
	applyImpulseAt(a, P.Neg(), j.RA)
	applyImpulseAt(b, P, j.RB)
}

func (j *RopeJoint) SolvePositionConstraints() bool {
	a, b := j.BodyA, j.BodyB

	rA := a.Transform().Apply(j.LocalAnchorA).Sub(a.WorldCenter())
	rB := b.Transform().Apply(j.LocalAnchorB).Sub(b.WorldCenter())

	u, length := b.WorldCenter().Add(rB).Sub(a.WorldCenter().Add(rA)).Normalized()
	C := ClampFloat(length-j.MaxLength, 0, MaxLinearCorrection)

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

	return length-j.MaxLength < LinearSlop
}

func (j *RopeJoint) ReactionForce(invDt float64) Vec2 { return j.U.Scale(j.impulse * invDt) }
func (j *RopeJoint) ReactionTorque(invDt float64) float64 { return 0 }

func (j *RopeJoint) Serialize() map[string]any {
	return map[string]any{
		"type":          "rope",
		"anchorA":       j.LocalAnchorA,
		"anchorB":       j.LocalAnchorB,
		"maxLength":     j.MaxLength,
		"collideConnected": j.CollideConnected,
		"maxForce":      j.MaxForce,
		"breakable":     j.Breakable,
	}
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
