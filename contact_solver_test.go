package impulse2d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func resolvingContact(t *testing.T) (*Space, *Body, *Body, *ContactSolver) {
	t.Helper()
	s := NewSpace()
	s.Gravity = Vec2{}
	ground := s.AddBody(StaticBody, V2(0, 0), 0)
	s.AddShapeTo(ground, NewBoxShape(10, 1, 1, 0.5, 0))

	ball := s.AddBody(DynamicBody, V2(0, 0.99), 0)
	shape := s.AddShapeTo(ball, NewCircleShape(Vec2{}, 1, 1, 0.5, 0))
	ball.Velocity = V2(0, -5)

	for _, b := range s.Bodies() {
		b.CacheData()
	}
	pair := shapePair{a: ground.Shapes()[0], b: ball.Shapes()[0]}
	s1, s2, _ := canonicalPair(pair.a, pair.b)
	m := s.Collider.Collide(s1, s2, s1.Body().Transform(), s2.Body().Transform())
	require.NotEmpty(t, m.Points, "setup should produce an overlapping manifold")

	cs := newContactSolver(s1, s2)
	cs.update(m, s1.Body().Transform(), s2.Body().Transform())
	cs.Init()
	_ = shape
	return s, ground, ball, cs
}

func TestContactSolverNonPenetration(t *testing.T) {
	_, _, ball, cs := resolvingContact(t)

	for i := 0; i < 20; i++ {
		cs.SolveVelocity()
	}

	vRel := relativeVelocity(cs.Shape1.body, cs.Shape2.body, cs.Points[0].rA, cs.Points[0].rB)
	vn := vRel.Dot(cs.Normal)
	require.GreaterOrEqual(t, vn, -1e-6, "separating velocity along the normal must not remain negative after solving")
	_ = ball
}

func TestContactSolverFrictionCone(t *testing.T) {
	_, _, _, cs := resolvingContact(t)

	for i := 0; i < 20; i++ {
		cs.SolveVelocity()
		for _, cp := range cs.Points {
			require.LessOrEqual(t, math.Abs(cp.TangentImpulse), cs.Friction*cp.NormalImpulse+1e-9,
				"tangent impulse must stay within the friction cone scaled by the normal impulse")
		}
	}
}

func TestContactSolverWarmStartAccumulators(t *testing.T) {
	s, ground, ball, cs := resolvingContact(t)
	s.solvers[makePairKey(cs.Shape1.ID, cs.Shape2.ID)] = cs

	cs.WarmStart(true)
	for i := 0; i < 10; i++ {
		cs.SolveVelocity()
	}
	require.Greater(t, cs.Points[0].NormalImpulse, 0.0)

	// A fresh manifold update with the same FeatureID should carry the
	// accumulator forward.
	for _, b := range s.Bodies() {
		b.CacheData()
	}
	m := s.Collider.Collide(cs.Shape1, cs.Shape2, cs.Shape1.Body().Transform(), cs.Shape2.Body().Transform())
	prevImpulse := cs.Points[0].NormalImpulse
	cs.update(m, cs.Shape1.Body().Transform(), cs.Shape2.Body().Transform())
	require.Equal(t, prevImpulse, cs.Points[0].NormalImpulse)

	t.Run("disabling warm start clears accumulators", func(t *testing.T) {
		cs.WarmStart(false)
		require.Zero(t, cs.Points[0].NormalImpulse)
		require.Zero(t, cs.Points[0].TangentImpulse)
	})
	_, _ = ground, ball
}

func TestContactSolverSolvePosition(t *testing.T) {
	s := NewSpace()
	ground := s.AddBody(StaticBody, V2(0, 0), 0)
	s.AddShapeTo(ground, NewBoxShape(10, 1, 1, 0.5, 0))

	ball := s.AddBody(DynamicBody, V2(0, 0.5), 0)
	s.AddShapeTo(ball, NewCircleShape(Vec2{}, 1, 1, 0.5, 0))

	for _, b := range s.Bodies() {
		b.CacheData()
	}
	s1, s2, _ := canonicalPair(ground.Shapes()[0], ball.Shapes()[0])
	m := s.Collider.Collide(s1, s2, s1.Body().Transform(), s2.Body().Transform())
	cs := newContactSolver(s1, s2)
	cs.update(m, s1.Body().Transform(), s2.Body().Transform())
	cs.Init()

	startY := ball.Position.Y
	for i := 0; i < 20 && !cs.SolvePosition(s.Config); i++ {
	}
	require.Greater(t, ball.Position.Y, startY, "position correction should push the ball up out of penetration")
}
