package impulse2d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResetMassData(t *testing.T) {
	t.Run("static body always has zero mass", func(t *testing.T) {
		s := NewSpace()
		b := s.AddBody(StaticBody, Vec2{}, 0)
		s.AddShapeTo(b, NewCircleShape(Vec2{}, 1, 1, 0.3, 0.2))
		require.Zero(t, b.Mass)
		require.Zero(t, b.InvMass)
	})

	t.Run("dynamic circle gets circle mass/inertia formula", func(t *testing.T) {
		s := NewSpace()
		b := s.AddBody(DynamicBody, Vec2{}, 0)
		s.AddShapeTo(b, NewCircleShape(Vec2{}, 2, 1, 0.3, 0.2))
		wantMass := math.Pi * 4
		require.InDelta(t, wantMass, b.Mass, 1e-9)
		require.InDelta(t, 1.0/wantMass, b.InvMass, 1e-12)
		require.InDelta(t, wantMass*0.5*4, b.I, 1e-9)
	})

	t.Run("dynamic body with zero-density shapes falls back to unit mass", func(t *testing.T) {
		s := NewSpace()
		b := s.AddBody(DynamicBody, Vec2{}, 0)
		s.AddShapeTo(b, NewCircleShape(Vec2{}, 1, 0, 0.3, 0.2))
		require.Equal(t, 1.0, b.Mass)
		require.Equal(t, 1.0, b.InvMass)
	})

	t.Run("removing a shape recomputes mass", func(t *testing.T) {
		s := NewSpace()
		b := s.AddBody(DynamicBody, Vec2{}, 0)
		sh1 := s.AddShapeTo(b, NewCircleShape(Vec2{}, 1, 1, 0.3, 0.2))
		s.AddShapeTo(b, NewCircleShape(Vec2{5, 0}, 1, 1, 0.3, 0.2))
		massWithBoth := b.Mass
		b.RemoveShape(sh1)
		require.Less(t, b.Mass, massWithBoth)
	})
}

func TestUpdateVelocity(t *testing.T) {
	t.Run("zero force, damping 1, velocity unchanged", func(t *testing.T) {
		s := NewSpace()
		b := s.AddBody(DynamicBody, Vec2{}, 0)
		s.AddShapeTo(b, NewCircleShape(Vec2{}, 1, 1, 0.3, 0.2))
		b.Velocity = V2(3, 4)
		b.UpdateVelocity(Vec2{}, 1.0, 1.0/60.0)
		require.InDelta(t, 3.0, b.Velocity.X, 1e-12)
		require.InDelta(t, 4.0, b.Velocity.Y, 1e-12)
	})

	t.Run("gravity integrates into velocity", func(t *testing.T) {
		s := NewSpace()
		b := s.AddBody(DynamicBody, Vec2{}, 0)
		s.AddShapeTo(b, NewCircleShape(Vec2{}, 1, 1, 0.3, 0.2))
		dt := 1.0 / 60.0
		b.UpdateVelocity(Vec2{0, -10}, 1.0, dt)
		require.InDelta(t, -10*dt, b.Velocity.Y, 1e-12)
	})

	t.Run("damping scales velocity by damping^dt", func(t *testing.T) {
		s := NewSpace()
		b := s.AddBody(DynamicBody, Vec2{}, 0)
		s.AddShapeTo(b, NewCircleShape(Vec2{}, 1, 1, 0.3, 0.2))
		b.Velocity = V2(2, 0)
		b.AngularVelocity = 3
		dt := 1.0 / 60.0
		damping := 0.9
		b.UpdateVelocity(Vec2{}, damping, dt)
		want := 2 * math.Pow(damping, dt)
		require.InDelta(t, want, b.Velocity.X, 1e-12)
		require.InDelta(t, 3*math.Pow(damping, dt), b.AngularVelocity, 1e-12)
	})

	t.Run("static body never integrates", func(t *testing.T) {
		s := NewSpace()
		b := s.AddBody(StaticBody, Vec2{}, 0)
		b.Velocity = V2(1, 1)
		b.UpdateVelocity(Vec2{0, -10}, 0.5, 1.0)
		require.Equal(t, V2(1, 1), b.Velocity)
	})
}

func TestSetAwake(t *testing.T) {
	s := NewSpace()
	b := s.AddBody(DynamicBody, Vec2{}, 0)
	b.Velocity = V2(5, 5)
	b.AngularVelocity = 2
	b.Force = V2(1, 1)

	b.SetAwake(false)
	require.False(t, b.Awake)
	require.Zero(t, b.Velocity.X)
	require.Zero(t, b.AngularVelocity)
	require.Zero(t, b.Force.X)

	b.SetAwake(true)
	require.True(t, b.Awake)
	require.Zero(t, b.SleepTime)
}

func TestShouldCollide(t *testing.T) {
	s := NewSpace()
	a := s.AddBody(DynamicBody, Vec2{}, 0)
	b := s.AddBody(DynamicBody, V2(1, 0), 0)
	s.AddShapeTo(a, NewCircleShape(Vec2{}, 1, 1, 0.3, 0.2))
	s.AddShapeTo(b, NewCircleShape(Vec2{}, 1, 1, 0.3, 0.2))
	require.True(t, a.ShouldCollide(b))

	t.Run("two static bodies never collide", func(t *testing.T) {
		sa := s.AddBody(StaticBody, Vec2{}, 0)
		sb := s.AddBody(StaticBody, V2(1, 0), 0)
		s.AddShapeTo(sa, NewCircleShape(Vec2{}, 1, 1, 0.3, 0.2))
		s.AddShapeTo(sb, NewCircleShape(Vec2{}, 1, 1, 0.3, 0.2))
		require.False(t, sa.ShouldCollide(sb))
	})

	t.Run("disjoint filters never collide", func(t *testing.T) {
		c := s.AddBody(DynamicBody, Vec2{}, 0)
		d := s.AddBody(DynamicBody, V2(1, 0), 0)
		shC := s.AddShapeTo(c, NewCircleShape(Vec2{}, 1, 1, 0.3, 0.2))
		shD := s.AddShapeTo(d, NewCircleShape(Vec2{}, 1, 1, 0.3, 0.2))
		shC.Filter = Filter{CategoryBits: 0x0002, MaskBits: 0x0002, GroupIndex: 0}
		shD.Filter = Filter{CategoryBits: 0x0004, MaskBits: 0x0004, GroupIndex: 0}
		require.False(t, c.ShouldCollide(d))
	})
}

func TestShiftOrigin(t *testing.T) {
	s := NewSpace()
	b := s.AddBody(DynamicBody, V2(10, 10), 0)
	s.ShiftOrigin(V2(4, 4))
	require.Equal(t, V2(6, 6), b.Position)
}
