package impulse2d

import "math"

// ContactPoint is one persistent point of a ContactSolver's manifold.
// NormalImpulse/TangentImpulse are the accumulators carried across steps
// by warm starting when FeatureID matches the prior step's point.
type ContactPoint struct {
	Point      Vec2
	Separation float64
	ID         FeatureID

	NormalImpulse  float64
	TangentImpulse float64

	Bias        float64
	NormalMass  float64
	TangentMass float64

	rA, rB Vec2

	// localAnchor is this point's position in the incident shape's
	// body-local frame, used to recompute separation from the current
	// (post-velocity) pose during position solving.
	localAnchor Vec2
}

type ContactSolver struct {
	Shape1, Shape2 *Shape
	Restitution    float64
	Friction       float64
	Normal         Vec2
	Points         []ContactPoint

	mType       ManifoldType
	localNormal Vec2 // in the reference shape's local frame
	localPoint  Vec2 // reference point, in the reference shape's local frame

	invMassA, invMassB float64
	invIA, invIB       float64
}

// canonicalPair orders a shape pair so Shape1.Kind <= Shape2.Kind, the
// ordering invariant §3 requires of ContactSolver.
func canonicalPair(a, b *Shape) (*Shape, *Shape, bool) {
	if a.Kind <= b.Kind {
		return a, b, false
	}
	return b, a, true
}

func newContactSolver(shapeA, shapeB *Shape) *ContactSolver {
	s1, s2, _ := canonicalPair(shapeA, shapeB)
	return &ContactSolver{
		Shape1:      s1,
		Shape2:      s2,
		Restitution: math.Max(s1.Restitution, s2.Restitution),
		Friction:    math.Sqrt(s1.Friction * s2.Friction),
	}
}

// update recomputes the manifold from the current narrow-phase collider
// output, carrying forward the accumulators of any point whose FeatureID
// matches a point already present (warm-start persistence).
func (cs *ContactSolver) update(m Manifold, xf1, xf2 Transform) {
	old := cs.Points
	cs.Points = make([]ContactPoint, len(m.Points))
	cs.mType = m.Type
	cs.localNormal = m.LocalNormal
	cs.localPoint = m.LocalPoint

	refXf, incXf := xf1, xf2
	if m.Type == ManifoldFaceB {
		refXf, incXf = xf2, xf1
	}

	switch m.Type {
	case ManifoldCircles:
		pA := xf1.Apply(m.LocalPoint)
		pB := xf2.Apply(m.Points[0].LocalPoint)
		cs.Normal, _ = pB.Sub(pA).Normalized()
	case ManifoldFaceA:
		cs.Normal = xf1.Q.Mul(m.LocalNormal)
	case ManifoldFaceB:
		// The reference face belongs to shape 2; flip its normal so
		// Normal always points from shape 1 to shape 2.
		cs.Normal = xf2.Q.Mul(m.LocalNormal).Neg()
	}

	planePoint := refXf.Apply(m.LocalPoint)
	refNormal := refXf.Q.Mul(m.LocalNormal)

	for i, mp := range m.Points {
		var worldPoint Vec2
		var separation float64
		switch m.Type {
		case ManifoldCircles:
			pA := xf1.Apply(m.LocalPoint)
			pB := xf2.Apply(mp.LocalPoint)
			worldPoint = pA.Add(pB).Scale(0.5)
			separation = pB.Sub(pA).Dot(cs.Normal) - (cs.Shape1.Radius + cs.Shape2.Radius)
		default:
			worldPoint = incXf.Apply(mp.LocalPoint)
			separation = worldPoint.Sub(planePoint).Dot(refNormal) - (cs.Shape1.Radius + cs.Shape2.Radius)
		}

		cp := ContactPoint{
			Point:       worldPoint,
			Separation:  separation,
			ID:          mp.ID,
			localAnchor: mp.LocalPoint,
		}
		for _, o := range old {
			if o.ID == mp.ID {
				cp.NormalImpulse = o.NormalImpulse
				cp.TangentImpulse = o.TangentImpulse
				break
			}
		}
		cs.Points[i] = cp
	}
}

// Init computes per-point Jacobian terms, effective masses, and the
// restitution bias velocity, matching §4.2's Init step.
func (cs *ContactSolver) Init() {
	bodyA := cs.Shape1.body
	bodyB := cs.Shape2.body
	cs.invMassA, cs.invIA = bodyA.InvMass, bodyA.InvI
	cs.invMassB, cs.invIB = bodyB.InvMass, bodyB.InvI

	tangent := cs.Normal.Skew()

	for i := range cs.Points {
		cp := &cs.Points[i]
		cp.rA = cp.Point.Sub(bodyA.WorldCenter())
		cp.rB = cp.Point.Sub(bodyB.WorldCenter())

		rnA := cp.rA.Cross(cs.Normal)
		rnB := cp.rB.Cross(cs.Normal)
		kNormal := cs.invMassA + cs.invMassB + cs.invIA*rnA*rnA + cs.invIB*rnB*rnB
		cp.NormalMass = 0
		if kNormal > 0 {
			cp.NormalMass = 1.0 / kNormal
		}

		rtA := cp.rA.Cross(tangent)
		rtB := cp.rB.Cross(tangent)
		kTangent := cs.invMassA + cs.invMassB + cs.invIA*rtA*rtA + cs.invIB*rtB*rtB
		cp.TangentMass = 0
		if kTangent > 0 {
			cp.TangentMass = 1.0 / kTangent
		}

		vRel := relativeVelocity(bodyA, bodyB, cp.rA, cp.rB)
		vn := vRel.Dot(cs.Normal)
		cp.Bias = 0
		if vn < -VelocityThreshold {
			cp.Bias = -cs.Restitution * vn
		}
	}
}

func relativeVelocity(bodyA, bodyB *Body, rA, rB Vec2) Vec2 {
	vA := bodyA.Velocity.Add(CrossSV(bodyA.AngularVelocity, rA))
	vB := bodyB.Velocity.Add(CrossSV(bodyB.AngularVelocity, rB))
	return vB.Sub(vA)
}

// WarmStart applies the carried-over impulse accumulators to both bodies,
// or clears them if warm starting is disabled.
func (cs *ContactSolver) WarmStart(warmStarting bool) {
	bodyA := cs.Shape1.body
	bodyB := cs.Shape2.body
	tangent := cs.Normal.Skew()

	for i := range cs.Points {
		cp := &cs.Points[i]
		if !warmStarting {
			cp.NormalImpulse = 0
			cp.TangentImpulse = 0
			continue
		}
		p := cs.Normal.Scale(cp.NormalImpulse).Add(tangent.Scale(cp.TangentImpulse))
		applyImpulseAt(bodyA, p.Neg(), cp.rA)
		applyImpulseAt(bodyB, p, cp.rB)
	}
}

func applyImpulseAt(b *Body, impulse Vec2, r Vec2) {
	b.Velocity = b.Velocity.Add(impulse.Scale(b.InvMass))
	b.AngularVelocity += b.InvI * r.Cross(impulse)
}

// SolveVelocity runs one Gauss-Seidel velocity iteration: tangent (friction)
// before normal, in fixed point order, per §4.2's ordering contract.
func (cs *ContactSolver) SolveVelocity() {
	bodyA := cs.Shape1.body
	bodyB := cs.Shape2.body
	tangent := cs.Normal.Skew()

	for i := range cs.Points {
		cp := &cs.Points[i]

		// Tangent (friction) first.
		vRel := relativeVelocity(bodyA, bodyB, cp.rA, cp.rB)
		vt := vRel.Dot(tangent)
		dJt := -cp.TangentMass * vt

		maxFriction := cs.Friction * cp.NormalImpulse
		newImpulse := ClampFloat(cp.TangentImpulse+dJt, -maxFriction, maxFriction)
		dJt = newImpulse - cp.TangentImpulse
		cp.TangentImpulse = newImpulse

		pt := tangent.Scale(dJt)
		applyImpulseAt(bodyA, pt.Neg(), cp.rA)
		applyImpulseAt(bodyB, pt, cp.rB)

		// Normal second.
		vRel = relativeVelocity(bodyA, bodyB, cp.rA, cp.rB)
		vn := vRel.Dot(cs.Normal)
		dJn := -cp.NormalMass * (vn - cp.Bias)

		newImpulseN := math.Max(cp.NormalImpulse+dJn, 0)
		dJn = newImpulseN - cp.NormalImpulse
		cp.NormalImpulse = newImpulseN

		pn := cs.Normal.Scale(dJn)
		applyImpulseAt(bodyA, pn.Neg(), cp.rA)
		applyImpulseAt(bodyB, pn, cp.rB)
	}
}

// SolvePosition runs one NGS position-correction pass, recomputing each
// point's separation from the bodies' current (post-velocity-integration)
// poses, and returns true when the worst separation is within
// -3*LinearSlop.
func (cs *ContactSolver) SolvePosition(cfg SpaceConfig) bool {
	bodyA := cs.Shape1.body
	bodyB := cs.Shape2.body
	minSeparation := 0.0

	refXf, incXf := bodyA.Transform(), bodyB.Transform()
	if cs.mType == ManifoldFaceB {
		refXf, incXf = bodyB.Transform(), bodyA.Transform()
	}

	for i := range cs.Points {
		cp := &cs.Points[i]

		var normal, worldPoint Vec2
		var separation float64
		switch cs.mType {
		case ManifoldCircles:
			pA := bodyA.Transform().Apply(cs.localPoint)
			pB := bodyB.Transform().Apply(cp.localAnchor)
			normal, _ = pB.Sub(pA).Normalized()
			worldPoint = pA.Add(pB).Scale(0.5)
			separation = pB.Sub(pA).Dot(normal) - (cs.Shape1.Radius + cs.Shape2.Radius)
		default:
			normal = refXf.Q.Mul(cs.localNormal)
			planePoint := refXf.Apply(cs.localPoint)
			worldPoint = incXf.Apply(cp.localAnchor)
			separation = worldPoint.Sub(planePoint).Dot(normal) - (cs.Shape1.Radius + cs.Shape2.Radius)
			if cs.mType == ManifoldFaceB {
				normal = normal.Neg()
			}
		}

		if separation < minSeparation {
			minSeparation = separation
		}

		correction := ClampFloat(separation+cfg.LinearSlop, -cfg.MaxLinearCorrection, 0)

		rA := worldPoint.Sub(bodyA.WorldCenter())
		rB := worldPoint.Sub(bodyB.WorldCenter())
		rnA := rA.Cross(normal)
		rnB := rB.Cross(normal)
		k := cs.invMassA + cs.invMassB + cs.invIA*rnA*rnA + cs.invIB*rnB*rnB
		var enPos float64
		if k > 0 {
			enPos = 1.0 / k
		}
		lambda := -enPos * correction

		impulse := normal.Scale(lambda)
		applyPositionImpulse(bodyA, impulse.Neg(), rA, cs.invMassA, cs.invIA)
		applyPositionImpulse(bodyB, impulse, rB, cs.invMassB, cs.invIB)
	}

	return minSeparation >= -3*cfg.LinearSlop
}

func applyPositionImpulse(b *Body, impulse Vec2, r Vec2, invMass, invI float64) {
	b.Position = b.Position.Add(impulse.Scale(invMass))
	b.Angle += invI * r.Cross(impulse)
}
