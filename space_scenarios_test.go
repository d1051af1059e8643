package impulse2d

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScenarioFreeFall(t *testing.T) {
	s := NewSpace()
	s.Gravity = V2(0, -10)
	b := s.AddBody(DynamicBody, V2(0, 10), 0)
	s.AddShapeTo(b, NewBoxShape(0.5, 0.5, 1, 0.3, 0.2))

	dt := 1.0 / 60.0
	for i := 0; i < 120; i++ {
		s.Step(dt, 8, 3, true, false)
	}

	require.InDelta(t, 0.0, b.Position.Y, 0.1)
	require.InDelta(t, -20.0, b.Velocity.Y, 0.1)
}

func TestScenarioRestingStack(t *testing.T) {
	s := NewSpace()
	s.Gravity = V2(0, -10)

	floor := s.AddBody(StaticBody, V2(0, -1), 0)
	s.AddShapeTo(floor, NewBoxShape(10, 1, 1, 0.4, 0.1))

	bottom := s.AddBody(DynamicBody, V2(0, 0.5), 0)
	s.AddShapeTo(bottom, NewBoxShape(0.5, 0.5, 1, 0.4, 0.1))
	top := s.AddBody(DynamicBody, V2(0, 1.5), 0)
	s.AddShapeTo(top, NewBoxShape(0.5, 0.5, 1, 0.4, 0.1))

	dt := 1.0 / 60.0
	sleptAtStep := -1
	for i := 0; i < 300; i++ {
		s.Step(dt, 8, 3, true, true)
		if sleptAtStep < 0 && !bottom.Awake && !top.Awake {
			sleptAtStep = i
		}
	}

	require.NotEqual(t, -1, sleptAtStep, "resting stack should fall asleep")
	require.InDelta(t, 60, sleptAtStep, 30)
	require.InDelta(t, bottom.Position.Y+1.0, top.Position.Y, 0.05)
}

func TestScenarioRopeSwing(t *testing.T) {
	s := NewSpace()
	s.Gravity = V2(0, -10)

	a := s.AddBody(StaticBody, Vec2{}, 0)
	b := s.AddBody(DynamicBody, V2(2, 0), 0)
	s.AddShapeTo(a, NewCircleShape(Vec2{}, 0.1, 1, 0.3, 0))
	s.AddShapeTo(b, NewCircleShape(Vec2{}, 0.2, 1, 0.3, 0))

	rope := NewRopeJoint(a, b, Vec2{}, Vec2{}, 2.0)
	s.AddJoint(rope)

	dt := 1.0 / 60.0
	steps := int(10.0 / dt)
	for i := 0; i < steps; i++ {
		s.Step(dt, 8, 3, true, true)
		dist := b.Position.Sub(a.Position).Length()
		require.LessOrEqual(t, dist, 2.0+LinearSlop+1e-3)
	}
}

func TestScenarioBreakableJoint(t *testing.T) {
	s := NewSpace()
	s.Gravity = V2(0, -100)

	// a is static so gravity loads the joint through b alone; two free
	// bodies under uniform gravity would fall together with no joint force.
	a := s.AddBody(StaticBody, Vec2{}, 0)
	b := s.AddBody(DynamicBody, V2(0, -1), 0)
	s.AddShapeTo(a, NewCircleShape(Vec2{}, 0.2, 1, 0.3, 0))
	s.AddShapeTo(b, NewCircleShape(Vec2{}, 0.2, 1, 0.3, 0))

	joint := NewDistanceJoint(a, b, Vec2{}, Vec2{}, 1.0)
	joint.Breakable = true
	joint.MaxForce = 1.0
	s.AddJoint(joint)

	removed := false
	for i := 0; i < 2; i++ {
		s.Step(1.0/60.0, 8, 3, true, false)
		if len(s.Joints()) == 0 {
			removed = true
			break
		}
	}
	require.True(t, removed, "breakable joint must be removed within 2 steps under this force spike")

	for i := 0; i < 30; i++ {
		s.Step(1.0/60.0, 8, 3, true, false)
	}
	require.Greater(t, b.Position.Sub(a.Position).Length(), 1.0+1e-3, "bodies should separate once the joint is gone")
}

func TestScenarioWarmStartAdvantage(t *testing.T) {
	buildPyramid := func() *Space {
		s := NewSpace()
		s.Gravity = V2(0, -10)
		floor := s.AddBody(StaticBody, V2(0, -1), 0)
		s.AddShapeTo(floor, NewBoxShape(15, 1, 1, 0.4, 0.1))

		rows := 5
		size := 0.5
		for row := 0; row < rows; row++ {
			count := rows - row
			y := float64(row)*2*size + size
			startX := -float64(count-1) * size
			for col := 0; col < count; col++ {
				x := startX + float64(col)*2*size
				b := s.AddBody(DynamicBody, V2(x, y), 0)
				s.AddShapeTo(b, NewBoxShape(size, size, 1, 0.4, 0.1))
			}
		}
		return s
	}

	runMean := func(warmStarting bool) float64 {
		s := buildPyramid()
		dt := 1.0 / 60.0
		var total, count int
		for i := 0; i < 100; i++ {
			stats := s.Step(dt, 8, 3, warmStarting, false)
			if i >= 50 {
				total += stats.PositionIterations
				count++
			}
		}
		return float64(total) / float64(count)
	}

	withWarm := runMean(true)
	withoutWarm := runMean(false)
	require.Less(t, withWarm, withoutWarm, "warm starting should need fewer position iterations on average once settled")
}
