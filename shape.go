package impulse2d

import "math"

type ShapeKind int

const (
	ShapeCircle ShapeKind = iota
	ShapeSegment
	ShapePolygon
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeCircle:
		return "ShapeCircle"
	case ShapeSegment:
		return "ShapeSegment"
	case ShapePolygon:
		return "ShapePoly"
	default:
		return "unknown"
	}
}

// Shape is one piece of collidable geometry attached to a Body, in the
// body's local frame. The solver reads only the cached world geometry
// populated by Body.CacheData each step.
type Shape struct {
	ID   int
	Kind ShapeKind

	Restitution float64
	Friction    float64
	Density     float64
	Filter      Filter

	// Circle
	Center Vec2
	Radius float64

	// Segment: V1, V2
	V1, V2 Vec2

	// Polygon
	Vertices []Vec2
	Normals  []Vec2
	Centroid Vec2

	body *Body

	// world-space cache, refreshed by Body.CacheData via cache().
	worldVertices []Vec2
	worldNormals  []Vec2
	worldCenter   Vec2
	worldV1       Vec2
	worldV2       Vec2
	AABB          AABB
}

func (s *Shape) Body() *Body { return s.body }

func NewCircleShape(center Vec2, radius float64, density, friction, restitution float64) *Shape {
	return &Shape{
		Kind:        ShapeCircle,
		Center:      center,
		Radius:      radius,
		Density:     density,
		Friction:    friction,
		Restitution: restitution,
		Filter:      DefaultFilter(),
	}
}

func NewSegmentShape(v1, v2 Vec2, density, friction, restitution float64) *Shape {
	return &Shape{
		Kind:        ShapeSegment,
		V1:          v1,
		V2:          v2,
		Density:     density,
		Friction:    friction,
		Restitution: restitution,
		Filter:      DefaultFilter(),
	}
}

// NewBoxShape builds an axis-aligned box polygon centered on the origin,
// matching box2d's SetAsBox convenience constructor.
func NewBoxShape(halfWidth, halfHeight float64, density, friction, restitution float64) *Shape {
	verts := []Vec2{
		{-halfWidth, -halfHeight},
		{halfWidth, -halfHeight},
		{halfWidth, halfHeight},
		{-halfWidth, halfHeight},
	}
	return NewPolygonShape(verts, density, friction, restitution)
}

// NewPolygonShape builds a convex polygon shape from a vertex loop. The
// loop is not required to be in CCW order or hulled; NewPolygonShape
// computes the convex hull and correct winding the way box2d's Set does.
func NewPolygonShape(points []Vec2, density, friction, restitution float64) *Shape {
	hull := convexHull(points)
	normals := make([]Vec2, len(hull))
	n := len(hull)
	for i := 0; i < n; i++ {
		edge := hull[(i+1)%n].Sub(hull[i])
		norm, _ := Vec2{edge.Y, -edge.X}.Normalized()
		normals[i] = norm
	}
	centroid := polygonCentroid(hull)
	return &Shape{
		Kind:        ShapePolygon,
		Vertices:    hull,
		Normals:     normals,
		Centroid:    centroid,
		Density:     density,
		Friction:    friction,
		Restitution: restitution,
		Filter:      DefaultFilter(),
	}
}

// convexHull computes the counter-clockwise convex hull via a gift-wrap
// scan, the straightforward approach for the small (≤8) vertex counts
// this solver's polygons are built from.
func convexHull(points []Vec2) []Vec2 {
	if len(points) < 3 {
		return points
	}
	pts := append([]Vec2{}, points...)
	// lowest-then-leftmost point first
	start := 0
	for i := 1; i < len(pts); i++ {
		if pts[i].Y < pts[start].Y || (pts[i].Y == pts[start].Y && pts[i].X < pts[start].X) {
			start = i
		}
	}
	pts[0], pts[start] = pts[start], pts[0]
	origin := pts[0]

	hull := []Vec2{origin}
	used := make([]bool, len(pts))
	used[0] = true
	current := origin
	for {
		next := -1
		for i, p := range pts {
			if used[i] && i != 0 {
				continue
			}
			if p == current {
				continue
			}
			if next == -1 {
				next = i
				continue
			}
			cross := pts[next].Sub(current).Cross(p.Sub(current))
			if cross < 0 {
				next = i
			}
		}
		if next == -1 || pts[next] == origin {
			break
		}
		hull = append(hull, pts[next])
		used[next] = true
		current = pts[next]
		if len(hull) > len(pts) {
			break
		}
	}
	return hull
}

func polygonCentroid(verts []Vec2) Vec2 {
	c := Vec2{}
	area := 0.0
	ref := verts[0]
	for i := 1; i < len(verts)-1; i++ {
		e1 := verts[i].Sub(ref)
		e2 := verts[i+1].Sub(ref)
		a := 0.5 * e1.Cross(e2)
		area += a
		c = c.Add(e1.Add(e2).Scale(a / 3.0))
	}
	if area > Epsilon {
		c = c.Scale(1.0 / area)
	}
	return ref.Add(c)
}

// massData returns this shape's local-frame mass, center of mass, and
// rotational inertia about the body-local origin.
func (s *Shape) massData() (mass float64, center Vec2, I float64) {
	switch s.Kind {
	case ShapeCircle:
		mass = s.Density * math.Pi * s.Radius * s.Radius
		center = s.Center
		I = mass * (0.5*s.Radius*s.Radius + s.Center.Dot(s.Center))
		return

	case ShapeSegment:
		// A segment has zero area; attribute a thin-rod mass so a
		// dynamic body made only of segments still gets a sane
		// inertia rather than relying entirely on ResetMassData's
		// mass-1 fallback.
		length := s.V2.Sub(s.V1).Length()
		mass = s.Density * length
		center = s.V1.Add(s.V2).Scale(0.5)
		I = mass * length * length / 12.0
		I += mass * center.Dot(center)
		return

	case ShapePolygon:
		return polygonMassData(s.Vertices, s.Density)
	}
	return 0, Vec2{}, 0
}

func polygonMassData(verts []Vec2, density float64) (mass float64, center Vec2, I float64) {
	var area, rotInertia float64
	c := Vec2{}
	ref := verts[0]
	const k3 = 1.0 / 3.0

	for i := 0; i < len(verts); i++ {
		e1 := verts[i].Sub(ref)
		var e2 Vec2
		if i+1 < len(verts) {
			e2 = verts[i+1].Sub(ref)
		} else {
			e2 = verts[0].Sub(ref)
		}

		d := e1.Cross(e2)
		triArea := 0.5 * d
		area += triArea

		c = c.Add(e1.Add(e2).Scale(triArea * k3))

		intx2 := e1.X*e1.X + e1.X*e2.X + e2.X*e2.X
		inty2 := e1.Y*e1.Y + e1.Y*e2.Y + e2.Y*e2.Y
		rotInertia += (0.25 * k3 * d) * (intx2 + inty2)
	}

	mass = density * area
	if area > Epsilon {
		c = c.Scale(1.0 / area)
	}
	center = ref.Add(c)

	I = density * rotInertia
	// shift from the reference-point frame to the body-local origin,
	// matching box2d's ComputeMass derivation.
	I += mass * (center.Dot(center) - c.Dot(c))
	return
}

func (s *Shape) cache(xf Transform) {
	switch s.Kind {
	case ShapeCircle:
		s.worldCenter = xf.Apply(s.Center)
		s.AABB = AABB{
			Lower: Vec2{s.worldCenter.X - s.Radius, s.worldCenter.Y - s.Radius},
			Upper: Vec2{s.worldCenter.X + s.Radius, s.worldCenter.Y + s.Radius},
		}

	case ShapeSegment:
		s.worldV1 = xf.Apply(s.V1)
		s.worldV2 = xf.Apply(s.V2)
		s.AABB = AABB{
			Lower: Vec2{min(s.worldV1.X, s.worldV2.X), min(s.worldV1.Y, s.worldV2.Y)},
			Upper: Vec2{max(s.worldV1.X, s.worldV2.X), max(s.worldV1.Y, s.worldV2.Y)},
		}

	case ShapePolygon:
		if len(s.worldVertices) != len(s.Vertices) {
			s.worldVertices = make([]Vec2, len(s.Vertices))
			s.worldNormals = make([]Vec2, len(s.Normals))
		}
		lower := xf.Apply(s.Vertices[0])
		upper := lower
		for i, v := range s.Vertices {
			wv := xf.Apply(v)
			s.worldVertices[i] = wv
			s.worldNormals[i] = xf.Q.Mul(s.Normals[i])
			lower = Vec2{min(lower.X, wv.X), min(lower.Y, wv.Y)}
			upper = Vec2{max(upper.X, wv.X), max(upper.Y, wv.Y)}
		}
		s.AABB = AABB{Lower: lower, Upper: upper}
	}
}
