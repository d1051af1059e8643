package impulse2d

import "math"

// AngleJoint holds two bodies at a fixed relative angle without
// constraining their positions at all — the angular-only row of
// WeldJoint, pulled out on its own. Useful for holding an orientation
// (e.g. a sign on a swinging arm) without also pinning a point.
type AngleJoint struct {
	jointBase

	ReferenceAngle            float64
	FrequencyHz, DampingRatio float64

	impulse     float64
	angularMass float64
	gamma, bias float64
}

func NewAngleJoint(bodyA, bodyB *Body) *AngleJoint {
	return &AngleJoint{
		jointBase:      jointBase{Kind: JointAngle, BodyA: bodyA, BodyB: bodyB},
		ReferenceAngle: bodyB.Angle - bodyA.Angle,
	}
}

func (j *AngleJoint) InitSolver(dt float64, warmStarting bool) {
	a, b := j.BodyA, j.BodyB
	iA, iB := a.InvI, b.InvI
	k := iA + iB

	if j.FrequencyHz > 0 && k > 0 {
		C := (b.Angle - a.Angle) - j.ReferenceAngle
		omega := 2.0 * math.Pi * j.FrequencyHz
		d := 2.0 * (1.0 / k) * j.DampingRatio * omega
		kk := (1.0 / k) * omega * omega
		h := dt
		j.gamma = 0
		if h*(d+h*kk) > 0 {
			j.gamma = 1.0 / (h * (d + h*kk))
		}
		j.bias = C * h * kk * j.gamma
		j.angularMass = 0
		if k+j.gamma > 0 {
			j.angularMass = 1.0 / (k + j.gamma)
		}
	} else {
		j.gamma = 0
		j.bias = 0
		j.angularMass = 0
		if k > 0 {
			j.angularMass = 1.0 / k
		}
	}

	if warmStarting {
		a.AngularVelocity -= iA * j.impulse
		b.AngularVelocity += iB * j.impulse
	} else {
		j.impulse = 0
	}
}

func (j *AngleJoint) SolveVelocityConstraints() {
	a, b := j.BodyA, j.BodyB
	Cdot := b.AngularVelocity - a.AngularVelocity
	impulse := -j.angularMass * (Cdot + j.bias + j.gamma*j.impulse)
	j.impulse += impulse
	a.AngularVelocity -= a.InvI * impulse
	b.AngularVelocity += b.InvI * impulse
}

func (j *AngleJoint) SolvePositionConstraints() bool {
	if j.FrequencyHz > 0 {
		return true
	}
	a, b := j.BodyA, j.BodyB
	iA, iB := a.InvI, b.InvI
	k := iA + iB
	if k == 0 {
		return true
	}
	C := (b.Angle - a.Angle) - j.ReferenceAngle
	impulse := -C / k
	a.Angle -= iA * impulse
	b.Angle += iB * impulse
	return math.Abs(C) <= AngularSlop
}

func (j *AngleJoint) ReactionForce(invDt float64) Vec2        { return Vec2{} }
func (j *AngleJoint) ReactionTorque(invDt float64) float64 { return j.impulse * invDt }

func (j *AngleJoint) Serialize() map[string]any {
	return map[string]any{
		"type":             "angle",
		"referenceAngle":   j.ReferenceAngle,
		"frequencyHz":      j.FrequencyHz,
		"dampingRatio":     j.DampingRatio,
		"collideConnected": j.CollideConnected,
		"maxForce":         j.MaxForce,
		"breakable":        j.Breakable,
	}
}
