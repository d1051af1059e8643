package impulse2d

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func buildSampleScene() *Space {
	s := NewSpace()
	ground := s.AddBody(StaticBody, V2(0, -5), 0)
	s.AddShapeTo(ground, NewBoxShape(20, 1, 1, 0.4, 0.1))

	box := s.AddBody(DynamicBody, V2(0, 5), 0.2)
	s.AddShapeTo(box, NewBoxShape(1, 1, 1, 0.4, 0.1))

	anchor := s.AddBody(StaticBody, V2(-10, 5), 0)
	bob := s.AddBody(DynamicBody, V2(-10, 3), 0)
	s.AddShapeTo(anchor, NewCircleShape(Vec2{}, 0.2, 1, 0.3, 0))
	s.AddShapeTo(bob, NewCircleShape(Vec2{}, 0.3, 1, 0.3, 0))
	rope := NewRopeJoint(anchor, bob, Vec2{}, Vec2{}, 3.0)
	rope.Breakable = true
	rope.MaxForce = 500
	s.AddJoint(rope)

	return s
}

func TestSceneRoundTrip(t *testing.T) {
	s := buildSampleScene()
	data, err := s.MarshalScene()
	require.NoError(t, err)

	s2 := NewSpace()
	require.NoError(t, s2.UnmarshalScene(data))

	require.Equal(t, len(s.Bodies()), len(s2.Bodies()))
	require.Equal(t, len(s.Joints()), len(s2.Joints()))

	for i, b := range s.Bodies() {
		b2 := s2.Bodies()[i]
		require.Equal(t, b.Type, b2.Type)
		require.InDelta(t, b.Position.X, b2.Position.X, 1e-9)
		require.InDelta(t, b.Position.Y, b2.Position.Y, 1e-9)
		require.Equal(t, len(b.Shapes()), len(b2.Shapes()))
	}

	j2 := s2.Joints()[0].Constraint.(*RopeJoint)
	require.Equal(t, 3.0, j2.MaxLength)
	require.True(t, j2.Breakable)
	require.Equal(t, 500.0, j2.MaxForce)
}

func TestUnmarshalSceneRejectsUnknownShapeType(t *testing.T) {
	s := NewSpace()
	s.AddBody(DynamicBody, Vec2{}, 0)

	bad := []byte(`{"bodies":[{"type":"dynamic","position":{"x":0,"y":0},"angle":0,
		"shapes":[{"type":"ShapeTriangle","density":1,"e":0,"u":0.5}]}],"joints":[]}`)

	err := s.UnmarshalScene(bad)
	require.Error(t, err)
	require.Len(t, s.Bodies(), 1, "a rejected scene must leave the world untouched")
}

func TestUnmarshalSceneRejectsBadJointReference(t *testing.T) {
	s := NewSpace()

	bad := []byte(`{"bodies":[{"type":"dynamic","position":{"x":0,"y":0},"angle":0,"shapes":[]}],
		"joints":[{"type":"rope","body1":0,"body2":5,"anchorA":{"x":0,"y":0},"anchorB":{"x":0,"y":0},"maxLength":1}]}`)

	err := s.UnmarshalScene(bad)
	require.Error(t, err)
	require.Empty(t, s.Bodies())
}

func TestUnmarshalSceneRejectsMalformedJSON(t *testing.T) {
	s := NewSpace()
	s.AddBody(StaticBody, Vec2{}, 0)
	err := s.UnmarshalScene([]byte(`{not json`))
	require.Error(t, err)
	require.Len(t, s.Bodies(), 1)
}
