package impulse2d

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVec2(t *testing.T) {
	t.Run("Add and Sub are inverse", func(t *testing.T) {
		a := V2(1, 2)
		b := V2(3, -4)
		require.Equal(t, a, a.Add(b).Sub(b))
	})

	t.Run("Dot of perpendicular vectors is zero", func(t *testing.T) {
		require.Zero(t, V2(1, 0).Dot(V2(0, 1)))
	})

	t.Run("Cross matches scalar formula", func(t *testing.T) {
		require.Equal(t, 1.0*4.0-2.0*3.0, V2(1, 2).Cross(V2(3, 4)))
	})

	t.Run("Normalized returns unit length and original magnitude", func(t *testing.T) {
		v := V2(3, 4)
		n, length := v.Normalized()
		require.InDelta(t, 5.0, length, 1e-12)
		require.InDelta(t, 1.0, n.Length(), 1e-12)
	})

	t.Run("Normalized of near-zero vector returns zero", func(t *testing.T) {
		n, length := V2(0, 0).Normalized()
		require.Equal(t, Vec2{}, n)
		require.Zero(t, length)
	})

	t.Run("IsValid rejects NaN and Inf", func(t *testing.T) {
		require.False(t, V2(math.NaN(), 0).IsValid())
		require.False(t, V2(math.Inf(1), 0).IsValid())
		require.True(t, V2(1, 2).IsValid())
	})

	t.Run("Skew is perpendicular to v", func(t *testing.T) {
		v := V2(3, 5)
		require.Zero(t, v.Dot(v.Skew()))
	})
}

func TestClampFloat(t *testing.T) {
	require.Equal(t, 0.0, ClampFloat(-5, 0, 10))
	require.Equal(t, 10.0, ClampFloat(15, 0, 10))
	require.Equal(t, 5.0, ClampFloat(5, 0, 10))
}

func TestRot(t *testing.T) {
	t.Run("Mul then MulT is identity", func(t *testing.T) {
		q := RotFromAngle(0.7)
		v := V2(2, -1)
		require.InDelta(t, v.X, q.MulT(q.Mul(v)).X, 1e-9)
		require.InDelta(t, v.Y, q.MulT(q.Mul(v)).Y, 1e-9)
	})

	t.Run("Angle round-trips through RotFromAngle", func(t *testing.T) {
		for _, a := range []float64{0, 0.3, -1.2, math.Pi / 2} {
			require.InDelta(t, a, RotFromAngle(a).Angle(), 1e-9)
		}
	})
}

func TestTransform(t *testing.T) {
	xf := Transform{P: V2(5, -3), Q: RotFromAngle(0.4)}
	v := V2(1, 2)
	got := xf.ApplyInverse(xf.Apply(v))
	require.InDelta(t, v.X, got.X, 1e-9)
	require.InDelta(t, v.Y, got.Y, 1e-9)
}

func TestMat22Solve(t *testing.T) {
	m := Mat22{Ex: V2(2, 0), Ey: V2(0, 4)}
	x := m.Solve(V2(6, 8))
	require.InDelta(t, 3.0, x.X, 1e-12)
	require.InDelta(t, 2.0, x.Y, 1e-12)

	t.Run("singular matrix returns zero", func(t *testing.T) {
		singular := Mat22{Ex: V2(1, 1), Ey: V2(1, 1)}
		require.Equal(t, Vec2{}, singular.Solve(V2(1, 1)))
	})
}

func TestMat33Solve33(t *testing.T) {
	m := Mat33{Ex: V3(1, 0, 0), Ey: V3(0, 2, 0), Ez: V3(0, 0, 4)}
	x := m.Solve33(V3(2, 4, 8))
	require.InDelta(t, 2.0, x.X, 1e-12)
	require.InDelta(t, 2.0, x.Y, 1e-12)
	require.InDelta(t, 2.0, x.Z, 1e-12)
}
