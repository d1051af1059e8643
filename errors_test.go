package impulse2d

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSceneError(t *testing.T) {
	err := newSceneError("unknown shape type: blob")
	require.Equal(t, KindInvalidScene, err.Kind)
	require.Contains(t, err.Error(), "invalid scene")
	require.Contains(t, err.Error(), "unknown shape type: blob")
}

func TestGuardTopologyPanicsDuringStep(t *testing.T) {
	s := NewSpace()
	s.PostSolve = func(*ContactSolver) {
		require.Panics(t, func() {
			s.AddBody(DynamicBody, Vec2{}, 0)
		}, "mutating topology from within a step must panic")
	}
	b := s.AddBody(DynamicBody, Vec2{}, 0)
	s.AddShapeTo(b, NewCircleShape(Vec2{}, 1, 1, 0.3, 0.2))
	// An overlapping floor gives the step a contact, so PostSolve runs.
	floor := s.AddBody(StaticBody, V2(0, -1), 0)
	s.AddShapeTo(floor, NewBoxShape(5, 0.5, 1, 0.3, 0.2))
	s.Step(1.0/60.0, 4, 2, true, false)
}

func TestGuardTopologyAllowsMutationOutsideStep(t *testing.T) {
	s := NewSpace()
	require.NotPanics(t, func() {
		s.AddBody(DynamicBody, Vec2{}, 0)
	})
}
