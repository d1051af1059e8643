package impulse2d

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRopeJointUpperBound(t *testing.T) {
	s := NewSpace()
	s.Gravity = V2(0, -10)

	anchor := s.AddBody(StaticBody, Vec2{}, 0)
	s.AddShapeTo(anchor, NewCircleShape(Vec2{}, 0.1, 1, 0.3, 0))

	bob := s.AddBody(DynamicBody, V2(0, -1), 0)
	s.AddShapeTo(bob, NewCircleShape(Vec2{}, 0.2, 1, 0.3, 0))

	rope := NewRopeJoint(anchor, bob, Vec2{}, Vec2{}, 2.0)
	s.AddJoint(rope)

	for i := 0; i < 300; i++ {
		s.Step(1.0/60.0, 8, 3, true, false)
	}

	dist := bob.Position.Sub(anchor.Position).Length()
	require.LessOrEqual(t, dist, 2.0+1e-3, "rope must never stretch past MaxLength")
}

func TestRopeJointNeverPullsSlack(t *testing.T) {
	s := NewSpace()
	s.Gravity = Vec2{}

	a := s.AddBody(StaticBody, Vec2{}, 0)
	b := s.AddBody(DynamicBody, V2(0, -0.5), 0)
	s.AddShapeTo(a, NewCircleShape(Vec2{}, 0.1, 1, 0.3, 0))
	s.AddShapeTo(b, NewCircleShape(Vec2{}, 0.1, 1, 0.3, 0))

	rope := NewRopeJoint(a, b, Vec2{}, Vec2{}, 2.0)
	s.AddJoint(rope)

	for i := 0; i < 60; i++ {
		s.Step(1.0/60.0, 8, 3, true, false)
	}

	// well within MaxLength and no gravity: the rope must stay slack.
	require.InDelta(t, 0.0, b.Position.X, 1e-9)
	require.InDelta(t, -0.5, b.Position.Y, 1e-6)
}

func TestShouldBreak(t *testing.T) {
	s := NewSpace()
	s.Gravity = V2(0, -1000)

	a := s.AddBody(StaticBody, Vec2{}, 0)
	b := s.AddBody(DynamicBody, V2(0, -0.1), 0)
	s.AddShapeTo(a, NewCircleShape(Vec2{}, 0.1, 1, 0.3, 0))
	s.AddShapeTo(b, NewCircleShape(Vec2{}, 0.1, 1, 0.3, 0))

	rope := NewRopeJoint(a, b, Vec2{}, Vec2{}, 0.2)
	rope.Breakable = true
	rope.MaxForce = 1.0
	s.AddJoint(rope)

	broke := false
	for i := 0; i < 60; i++ {
		s.Step(1.0/60.0, 8, 3, true, false)
		if len(s.Joints()) == 0 {
			broke = true
			break
		}
	}
	require.True(t, broke, "a breakable joint under a force spike past MaxForce must be removed")
}
