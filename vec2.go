package impulse2d

import "math"

// Vec2 is a 2D column vector used throughout the solver for positions,
// velocities, and constraint directions.
type Vec2 struct {
	X, Y float64
}

func V2(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2 { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2 { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Neg() Vec2       { return Vec2{-v.X, -v.Y} }
func (v Vec2) Scale(s float64) Vec2 { return Vec2{v.X * s, v.Y * s} }

func (v Vec2) Dot(o Vec2) float64   { return v.X*o.X + v.Y*o.Y }
func (v Vec2) Cross(o Vec2) float64 { return v.X*o.Y - v.Y*o.X }

// CrossSV computes the cross product of a scalar and a vector: w × v.
func CrossSV(w float64, v Vec2) Vec2 { return Vec2{-w * v.Y, w * v.X} }

func (v Vec2) LengthSquared() float64 { return v.X*v.X + v.Y*v.Y }
func (v Vec2) Length() float64        { return math.Sqrt(v.LengthSquared()) }

// Skew returns the vector s such that s.Dot(o) == v.Cross(o) for all o.
func (v Vec2) Skew() Vec2 { return Vec2{-v.Y, v.X} }

// Normalized returns a unit vector in the direction of v, and the original
// length. If v is shorter than Epsilon it returns the zero vector and a
// length of zero rather than dividing by a near-zero magnitude.
func (v Vec2) Normalized() (Vec2, float64) {
	length := v.Length()
	if length < Epsilon {
		return Vec2{}, 0
	}
	inv := 1.0 / length
	return Vec2{v.X * inv, v.Y * inv}, length
}

func (v Vec2) IsValid() bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}

func DistanceSquared(a, b Vec2) float64 { return a.Sub(b).LengthSquared() }

func ClampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Rot is a 2D rotation represented by its sine and cosine, avoiding
// repeated trig calls during the solver's inner loops.
type Rot struct {
	Sin, Cos float64
}

func RotFromAngle(angle float64) Rot {
	return Rot{Sin: math.Sin(angle), Cos: math.Cos(angle)}
}

func (q Rot) Angle() float64 { return math.Atan2(q.Sin, q.Cos) }

// Mul rotates v by q.
func (q Rot) Mul(v Vec2) Vec2 {
	return Vec2{q.Cos*v.X - q.Sin*v.Y, q.Sin*v.X + q.Cos*v.Y}
}

// MulT rotates v by the inverse of q.
func (q Rot) MulT(v Vec2) Vec2 {
	return Vec2{q.Cos*v.X + q.Sin*v.Y, -q.Sin*v.X + q.Cos*v.Y}
}

// Transform is a rigid transform: rotation followed by translation.
type Transform struct {
	P Vec2
	Q Rot
}

func (t Transform) Apply(v Vec2) Vec2 {
	return Vec2{
		(t.Q.Cos*v.X-t.Q.Sin*v.Y + t.P.X),
		(t.Q.Sin*v.X + t.Q.Cos*v.Y + t.P.Y),
	}
}

func (t Transform) ApplyInverse(v Vec2) Vec2 {
	px := v.X - t.P.X
	py := v.Y - t.P.Y
	return Vec2{t.Q.Cos*px + t.Q.Sin*py, -t.Q.Sin*px + t.Q.Cos*py}
}

// Mat22 is a 2x2 matrix stored by columns, used for the point-to-point
// blocks of joint constraint mass matrices.
type Mat22 struct {
	Ex, Ey Vec2
}

func Mat22FromColumns(ex, ey Vec2) Mat22 { return Mat22{Ex: ex, Ey: ey} }

func (m Mat22) Det() float64 { return m.Ex.X*m.Ey.Y - m.Ey.X*m.Ex.Y }

// Solve solves m*x = b for x. Returns the zero vector if m is singular.
func (m Mat22) Solve(b Vec2) Vec2 {
	a11, a12, a21, a22 := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a11*a22 - a12*a21
	if det != 0 {
		det = 1.0 / det
	}
	return Vec2{det * (a22*b.X - a12*b.Y), det * (a11*b.Y - a21*b.X)}
}

// Mat33 is a 3x3 matrix stored by columns, used for the point+angle block
// of the revolute and weld joint constraint mass matrices.
type Mat33 struct {
	Ex, Ey, Ez Vec3
}

type Vec3 struct{ X, Y, Z float64 }

func V3(x, y, z float64) Vec3 { return Vec3{X: x, Y: y, Z: z} }

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Neg() Vec3       { return Vec3{-v.X, -v.Y, -v.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

func (m Mat33) MulVec3(v Vec3) Vec3 {
	return Vec3{
		v.X*m.Ex.X + v.Y*m.Ey.X + v.Z*m.Ez.X,
		v.X*m.Ex.Y + v.Y*m.Ey.Y + v.Z*m.Ez.Y,
		v.X*m.Ex.Z + v.Y*m.Ey.Z + v.Z*m.Ez.Z,
	}
}

// Solve33 solves m*x = b for x using Cramer's rule.
func (m Mat33) Solve33(b Vec3) Vec3 {
	det := m.Ex.X*(m.Ey.Y*m.Ez.Z-m.Ez.Y*m.Ey.Z) -
		m.Ey.X*(m.Ex.Y*m.Ez.Z-m.Ez.Y*m.Ex.Z) +
		m.Ez.X*(m.Ex.Y*m.Ey.Z-m.Ey.Y*m.Ex.Z)
	if det != 0 {
		det = 1.0 / det
	}

	return Vec3{
		X: det * (b.X*(m.Ey.Y*m.Ez.Z-m.Ez.Y*m.Ey.Z) -
			m.Ey.X*(b.Y*m.Ez.Z-m.Ez.Y*b.Z) +
			m.Ez.X*(b.Y*m.Ey.Z-m.Ey.Y*b.Z)),
		Y: det * (m.Ex.X*(b.Y*m.Ez.Z-m.Ez.Y*b.Z) -
			b.X*(m.Ex.Y*m.Ez.Z-m.Ez.Y*m.Ex.Z) +
			m.Ez.X*(m.Ex.Y*b.Z-b.Y*m.Ex.Z)),
		Z: det * (m.Ex.X*(m.Ey.Y*b.Z-b.Y*m.Ey.Z) -
			m.Ey.X*(m.Ex.Y*b.Z-b.Y*m.Ex.Z) +
			b.X*(m.Ex.Y*m.Ey.Z-m.Ey.Y*m.Ex.Z)),
	}
}

// Solve22 solves the top-left 2x2 block of m against b, ignoring the
// third row/column. Used by the revolute joint's limit-impulse reduction.
func (m Mat33) Solve22(b Vec2) Vec2 {
	a11, a12, a21, a22 := m.Ex.X, m.Ey.X, m.Ex.Y, m.Ey.Y
	det := a11*a22 - a12*a21
	if det != 0 {
		det = 1.0 / det
	}
	return Vec2{det * (a22*b.X - a12*b.Y), det * (a11*b.Y - a21*b.X)}
}
