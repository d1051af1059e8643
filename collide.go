package impulse2d

import "math"

// FeatureID identifies which vertex/edge pair produced a contact point, so
// Space can match points across steps and carry forward their impulse
// accumulators (warm starting).
type FeatureID struct {
	IndexA, IndexB uint8
	TypeA, TypeB   uint8
}

const (
	featureVertex uint8 = 0
	featureFace   uint8 = 1
)

// ManifoldPoint is one point of a Manifold, in the incident shape's local
// coordinates: shape B's for ManifoldCircles and ManifoldFaceA, shape A's
// for ManifoldFaceB (ContactSolver.update transforms it to world space).
type ManifoldPoint struct {
	LocalPoint Vec2
	ID         FeatureID
}

type ManifoldType int

const (
	ManifoldCircles ManifoldType = iota
	ManifoldFaceA
	ManifoldFaceB
)

// Manifold is the narrow-phase result for one shape pair: a shared local
// normal/reference point plus up to MaxManifoldPoints individual points.
type Manifold struct {
	Type        ManifoldType
	LocalNormal Vec2
	LocalPoint  Vec2
	Points      []ManifoldPoint
}

// Collider is the collision kernel contract: it takes two shapes and
// their world transforms and returns a Manifold. Space consumes this
// interface; DefaultCollider is the one concrete implementation this
// module ships.
type Collider interface {
	Collide(shapeA, shapeB *Shape, xfA, xfB Transform) Manifold
}

// DefaultCollider implements circle-circle, circle-polygon, and
// polygon-polygon (SAT separating-axis search plus Sutherland-Hodgman
// style clipping). Segment shapes are treated as degenerate two-sided
// polygons rather than given their own one-sided edge-chain machinery.
type DefaultCollider struct{}

func (DefaultCollider) Collide(shapeA, shapeB *Shape, xfA, xfB Transform) Manifold {
	switch {
	case shapeA.Kind == ShapeCircle && shapeB.Kind == ShapeCircle:
		return collideCircles(shapeA, xfA, shapeB, xfB)
	case shapeA.Kind != ShapeCircle && shapeB.Kind == ShapeCircle:
		return collidePolygonAndCircle(polyOf(shapeA), xfA, shapeB, xfB)
	case shapeA.Kind == ShapeCircle && shapeB.Kind != ShapeCircle:
		m := collidePolygonAndCircle(polyOf(shapeB), xfB, shapeA, xfA)
		return flipManifold(m)
	default:
		return collidePolygons(polyOf(shapeA), polyOf(shapeB), xfA, xfB)
	}
}

// polyOf returns s's geometry as a polygon: native polygons pass through;
// a segment becomes a degenerate two-vertex "polygon" with the two
// opposing face normals a thin slab would have.
func polyOf(s *Shape) polyView {
	if s.Kind == ShapePolygon {
		return polyView{vertices: s.Vertices, normals: s.Normals}
	}
	edge := s.V2.Sub(s.V1)
	n, _ := Vec2{edge.Y, -edge.X}.Normalized()
	return polyView{
		vertices: []Vec2{s.V1, s.V2},
		normals:  []Vec2{n, n.Neg()},
	}
}

type polyView struct {
	vertices []Vec2
	normals  []Vec2
}

func collideCircles(circleA *Shape, xfA Transform, circleB *Shape, xfB Transform) Manifold {
	pA := xfA.Apply(circleA.Center)
	pB := xfB.Apply(circleB.Center)

	d := pB.Sub(pA)
	distSqr := d.Dot(d)
	radius := circleA.Radius + circleB.Radius
	if distSqr > radius*radius {
		return Manifold{}
	}

	return Manifold{
		Type:        ManifoldCircles,
		LocalPoint:  circleA.Center,
		LocalNormal: Vec2{},
		Points: []ManifoldPoint{{
			LocalPoint: circleB.Center,
			ID:         FeatureID{},
		}},
	}
}

func collidePolygonAndCircle(polyA polyView, xfA Transform, circleB *Shape, xfB Transform) Manifold {
	c := xfB.Apply(circleB.Center)
	cLocal := xfA.ApplyInverse(c)

	normalIndex := 0
	separation := -math.MaxFloat64
	radius := circleB.Radius
	vertexCount := len(polyA.vertices)

	for i := 0; i < vertexCount; i++ {
		s := polyA.normals[i].Dot(cLocal.Sub(polyA.vertices[i]))
		if s > radius {
			return Manifold{}
		}
		if s > separation {
			separation = s
			normalIndex = i
		}
	}

	vertIndex1 := normalIndex
	vertIndex2 := (vertIndex1 + 1) % vertexCount
	v1 := polyA.vertices[vertIndex1]
	v2 := polyA.vertices[vertIndex2]

	if separation < Epsilon {
		return Manifold{
			Type:        ManifoldFaceA,
			LocalNormal: polyA.normals[normalIndex],
			LocalPoint:  v1.Add(v2).Scale(0.5),
			Points:      []ManifoldPoint{{LocalPoint: circleB.Center}},
		}
	}

	u1 := cLocal.Sub(v1).Dot(v2.Sub(v1))
	u2 := cLocal.Sub(v2).Dot(v1.Sub(v2))

	switch {
	case u1 <= 0:
		if DistanceSquared(cLocal, v1) > radius*radius {
			return Manifold{}
		}
		n, _ := cLocal.Sub(v1).Normalized()
		return Manifold{Type: ManifoldFaceA, LocalNormal: n, LocalPoint: v1,
			Points: []ManifoldPoint{{LocalPoint: circleB.Center}}}

	case u2 <= 0:
		if DistanceSquared(cLocal, v2) > radius*radius {
			return Manifold{}
		}
		n, _ := cLocal.Sub(v2).Normalized()
		return Manifold{Type: ManifoldFaceA, LocalNormal: n, LocalPoint: v2,
			Points: []ManifoldPoint{{LocalPoint: circleB.Center}}}

	default:
		faceCenter := v1.Add(v2).Scale(0.5)
		s := cLocal.Sub(faceCenter).Dot(polyA.normals[vertIndex1])
		if s > radius {
			return Manifold{}
		}
		return Manifold{Type: ManifoldFaceA, LocalNormal: polyA.normals[vertIndex1], LocalPoint: faceCenter,
			Points: []ManifoldPoint{{LocalPoint: circleB.Center}}}
	}
}

func flipManifold(m Manifold) Manifold {
	if len(m.Points) == 0 {
		return m
	}
	if m.Type == ManifoldFaceA {
		m.Type = ManifoldFaceB
	}
	return m
}

type clipVertex struct {
	V  Vec2
	ID FeatureID
}

func findMaxSeparation(poly1, poly2 polyView, xf1, xf2 Transform) (int, float64) {
	xf := relativeTransform(xf2, xf1)
	bestIndex := 0
	maxSeparation := -math.MaxFloat64

	for i, n1 := range poly1.normals {
		n := xf.Q.Mul(n1)
		v1 := xf.Apply(poly1.vertices[i])

		si := math.MaxFloat64
		for _, v2 := range poly2.vertices {
			sij := n.Dot(v2.Sub(v1))
			if sij < si {
				si = sij
			}
		}
		if si > maxSeparation {
			maxSeparation = si
			bestIndex = i
		}
	}
	return bestIndex, maxSeparation
}

// relativeTransform returns the transform taking poly1-local coordinates
// into poly2-local coordinates: xf2^-1 * xf1.
func relativeTransform(xf2, xf1 Transform) Transform {
	q := Rot{
		Cos: xf2.Q.Cos*xf1.Q.Cos + xf2.Q.Sin*xf1.Q.Sin,
		Sin: xf2.Q.Cos*xf1.Q.Sin - xf2.Q.Sin*xf1.Q.Cos,
	}
	p := xf2.Q.MulT(xf1.P.Sub(xf2.P))
	return Transform{P: p, Q: q}
}

func findIncidentEdge(poly1, poly2 polyView, xf1, xf2 Transform, edge1 int) [2]clipVertex {
	normal1 := xf2.Q.MulT(xf1.Q.Mul(poly1.normals[edge1]))

	index := 0
	minDot := math.MaxFloat64
	for i, n2 := range poly2.normals {
		dot := normal1.Dot(n2)
		if dot < minDot {
			minDot = dot
			index = i
		}
	}

	i1 := index
	i2 := (i1 + 1) % len(poly2.vertices)

	var c [2]clipVertex
	c[0] = clipVertex{V: xf2.Apply(poly2.vertices[i1]), ID: FeatureID{IndexA: uint8(edge1), IndexB: uint8(i1), TypeA: featureFace, TypeB: featureVertex}}
	c[1] = clipVertex{V: xf2.Apply(poly2.vertices[i2]), ID: FeatureID{IndexA: uint8(edge1), IndexB: uint8(i2), TypeA: featureFace, TypeB: featureVertex}}
	return c
}

func clipSegmentToLine(vIn [2]clipVertex, normal Vec2, offset float64, vertexIndexA int) ([2]clipVertex, int) {
	var vOut [2]clipVertex
	numOut := 0

	d0 := normal.Dot(vIn[0].V) - offset
	d1 := normal.Dot(vIn[1].V) - offset

	if d0 <= 0 {
		vOut[numOut] = vIn[0]
		numOut++
	}
	if d1 <= 0 {
		vOut[numOut] = vIn[1]
		numOut++
	}

	if d0*d1 < 0 {
		interp := d0 / (d0 - d1)
		vOut[numOut] = clipVertex{
			V: vIn[0].V.Add(vIn[1].V.Sub(vIn[0].V).Scale(interp)),
			ID: FeatureID{
				IndexA: uint8(vertexIndexA),
				IndexB: vIn[0].ID.IndexB,
				TypeA:  featureVertex,
				TypeB:  featureFace,
			},
		}
		numOut++
	}

	return vOut, numOut
}

func collidePolygons(polyA, polyB polyView, xfA, xfB Transform) Manifold {
	edgeA, separationA := findMaxSeparation(polyA, polyB, xfA, xfB)
	if separationA > 0 {
		return Manifold{}
	}
	edgeB, separationB := findMaxSeparation(polyB, polyA, xfB, xfA)
	if separationB > 0 {
		return Manifold{}
	}

	var poly1, poly2 polyView
	var xf1, xf2 Transform
	edge1 := 0
	flip := false
	mType := ManifoldFaceA

	const tol = 0.1 * LinearSlop
	if separationB > separationA+tol {
		poly1, poly2 = polyB, polyA
		xf1, xf2 = xfB, xfA
		edge1 = edgeB
		mType = ManifoldFaceB
		flip = true
	} else {
		poly1, poly2 = polyA, polyB
		xf1, xf2 = xfA, xfB
		edge1 = edgeA
		mType = ManifoldFaceA
	}

	incidentEdge := findIncidentEdge(poly1, poly2, xf1, xf2, edge1)

	count1 := len(poly1.vertices)
	iv1 := edge1
	iv2 := (edge1 + 1) % count1

	v11 := poly1.vertices[iv1]
	v12 := poly1.vertices[iv2]

	localTangent, _ := v12.Sub(v11).Normalized()
	localNormal := Vec2{localTangent.Y, -localTangent.X}
	planePoint := v11.Add(v12).Scale(0.5)

	tangent := xf1.Q.Mul(localTangent)
	normal := Vec2{tangent.Y, -tangent.X}

	w11 := xf1.Apply(v11)
	w12 := xf1.Apply(v12)

	frontOffset := normal.Dot(w11)
	sideOffset1 := -tangent.Dot(w11)
	sideOffset2 := tangent.Dot(w12)

	clip1, n1 := clipSegmentToLine(incidentEdge, tangent.Neg(), sideOffset1, iv1)
	if n1 < 2 {
		return Manifold{}
	}
	clip2, n2 := clipSegmentToLine(clip1, tangent, sideOffset2, iv2)
	if n2 < 2 {
		return Manifold{}
	}

	m := Manifold{Type: mType, LocalNormal: localNormal, LocalPoint: planePoint}
	for i := 0; i < 2; i++ {
		separation := normal.Dot(clip2[i].V) - frontOffset
		if separation <= 0 {
			id := clip2[i].ID
			if flip {
				id.IndexA, id.IndexB = id.IndexB, id.IndexA
				id.TypeA, id.TypeB = id.TypeB, id.TypeA
			}
			m.Points = append(m.Points, ManifoldPoint{
				LocalPoint: xf2.ApplyInverse(clip2[i].V),
				ID:         id,
			})
		}
	}
	return m
}
