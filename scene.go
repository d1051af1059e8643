package impulse2d

import "encoding/json"

// sceneDoc is the top-level JSON scene document: a flat list of bodies
// (each carrying its own shapes) and a flat list of joints referencing
// bodies by their position in the bodies list.
type sceneDoc struct {
	Bodies []bodyDoc `json:"bodies"`
	Joints []jointDoc `json:"joints"`
}

type bodyDoc struct {
	Type     string    `json:"type"`
	Position vecDoc    `json:"position"`
	Angle    float64   `json:"angle"`
	Shapes   []shapeDoc `json:"shapes"`
}

type vecDoc struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v vecDoc) toVec2() Vec2  { return Vec2{v.X, v.Y} }
func vecDocOf(v Vec2) vecDoc   { return vecDoc{X: v.X, Y: v.Y} }

type shapeDoc struct {
	Type    string  `json:"type"`
	Density float64 `json:"density"`
	E       float64 `json:"e"`
	U       float64 `json:"u"`

	// ShapeCircle
	Center *vecDoc  `json:"center,omitempty"`
	Radius float64  `json:"radius,omitempty"`

	// ShapeSegment
	V1 *vecDoc `json:"v1,omitempty"`
	V2 *vecDoc `json:"v2,omitempty"`

	// ShapePoly
	Vertices []vecDoc `json:"vertices,omitempty"`
}

type jointDoc struct {
	Type  string `json:"type"`
	Body1 int    `json:"body1"`
	Body2 int    `json:"body2"`

	Anchor  *vecDoc `json:"anchor,omitempty"`
	AnchorA *vecDoc `json:"anchorA,omitempty"`
	AnchorB *vecDoc `json:"anchorB,omitempty"`
	Axis    *vecDoc `json:"axis,omitempty"`

	MaxLength        float64 `json:"maxLength,omitempty"`
	Length           float64 `json:"length,omitempty"`
	SpringLength     float64 `json:"springLength,omitempty"`
	FrequencyHz      float64 `json:"frequencyHz,omitempty"`
	DampingRatio     float64 `json:"dampingRatio,omitempty"`
	ReferenceAngle   float64 `json:"referenceAngle,omitempty"`
	EnableLimit      bool    `json:"enableLimit,omitempty"`
	LowerAngle       float64 `json:"lowerAngle,omitempty"`
	UpperAngle       float64 `json:"upperAngle,omitempty"`
	LowerTranslation float64 `json:"lowerTranslation,omitempty"`
	UpperTranslation float64 `json:"upperTranslation,omitempty"`
	EnableMotor      bool    `json:"enableMotor,omitempty"`
	MotorSpeed       float64 `json:"motorSpeed,omitempty"`
	MaxMotorTorque   float64 `json:"maxMotorTorque,omitempty"`
	MaxMotorForce    float64 `json:"maxMotorForce,omitempty"`

	CollideConnected bool    `json:"collideConnected,omitempty"`
	MaxForce         float64 `json:"maxForce,omitempty"`
	Breakable        bool    `json:"breakable,omitempty"`
}

// MarshalScene serializes a Space's current bodies and joints into the
// JSON scene format described in the external interfaces. Body and joint
// positions within their respective arrays, not their ids, are what
// joints reference, so a round trip through Clear+UnmarshalScene
// reproduces the same topology under freshly assigned ids.
func (s *Space) MarshalScene() ([]byte, error) {
	bodies := sortedBodies(s.bodies)
	indexOf := make(map[int]int, len(bodies))
	doc := sceneDoc{Bodies: make([]bodyDoc, len(bodies))}

	for i, b := range bodies {
		indexOf[b.ID] = i
		bd := bodyDoc{
			Type:     bodyTypeString(b.Type),
			Position: vecDocOf(b.Position),
			Angle:    b.Angle,
		}
		for _, sh := range b.shapes {
			bd.Shapes = append(bd.Shapes, shapeToDoc(sh))
		}
		doc.Bodies[i] = bd
	}

	for _, j := range sortedJoints(s.joints) {
		jd, err := jointToDoc(j.Constraint, indexOf)
		if err != nil {
			return nil, err
		}
		doc.Joints = append(doc.Joints, jd)
	}

	return json.MarshalIndent(doc, "", "  ")
}

// UnmarshalScene clears the Space and loads a scene document, reporting
// a *SceneError with KindInvalidScene on any unknown shape/joint kind or
// out-of-range body reference rather than partially mutating the world.
func (s *Space) UnmarshalScene(data []byte) error {
	var doc sceneDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return newSceneError(err.Error())
	}

	bodies := make([]*Body, len(doc.Bodies))

	// Validate before mutating: a rejected scene must leave the world
	// untouched.
	for _, bd := range doc.Bodies {
		if bodyTypeFromString(bd.Type) == -1 {
			return newSceneError("unknown body type: "+bd.Type)
		}
		for _, sd := range bd.Shapes {
			if shapeKindFromString(sd.Type) == -1 {
				return newSceneError("unknown shape type: "+sd.Type)
			}
		}
	}
	for _, jd := range doc.Joints {
		if jointKindFromString(jd.Type) == -1 {
			return newSceneError("unknown joint type: "+jd.Type)
		}
		if jd.Body1 < 0 || jd.Body1 >= len(doc.Bodies) || jd.Body2 < 0 || jd.Body2 >= len(doc.Bodies) {
			return newSceneError("joint references nonexistent body")
		}
	}

	s.Clear()

	for i, bd := range doc.Bodies {
		b := s.AddBody(bodyTypeFromString(bd.Type), bd.Position.toVec2(), bd.Angle)
		for _, sd := range bd.Shapes {
			s.AddShapeTo(b, shapeFromDoc(sd))
		}
		bodies[i] = b
	}

	for _, jd := range doc.Joints {
		jc := jointFromDoc(jd, bodies[jd.Body1], bodies[jd.Body2])
		s.AddJoint(jc)
	}

	return nil
}

func bodyTypeString(t BodyType) string {
	switch t {
	case StaticBody:
		return "static"
	case KinematicBody:
		return "kinematic"
	default:
		return "dynamic"
	}
}

func bodyTypeFromString(s string) BodyType {
	switch s {
	case "static":
		return StaticBody
	case "kinematic":
		return KinematicBody
	case "dynamic":
		return DynamicBody
	default:
		return -1
	}
}

func shapeKindFromString(s string) ShapeKind {
	switch s {
	case "ShapeCircle":
		return ShapeCircle
	case "ShapeSegment":
		return ShapeSegment
	case "ShapePoly":
		return ShapePolygon
	default:
		return -1
	}
}

func shapeToDoc(sh *Shape) shapeDoc {
	sd := shapeDoc{
		Type:    sh.Kind.String(),
		Density: sh.Density,
		E:       sh.Restitution,
		U:       sh.Friction,
	}
	switch sh.Kind {
	case ShapeCircle:
		c := vecDocOf(sh.Center)
		sd.Center = &c
		sd.Radius = sh.Radius
	case ShapeSegment:
		v1, v2 := vecDocOf(sh.V1), vecDocOf(sh.V2)
		sd.V1, sd.V2 = &v1, &v2
	case ShapePolygon:
		for _, v := range sh.Vertices {
			sd.Vertices = append(sd.Vertices, vecDocOf(v))
		}
	}
	return sd
}

func shapeFromDoc(sd shapeDoc) *Shape {
	switch shapeKindFromString(sd.Type) {
	case ShapeCircle:
		return NewCircleShape(sd.Center.toVec2(), sd.Radius, sd.Density, sd.U, sd.E)
	case ShapeSegment:
		return NewSegmentShape(sd.V1.toVec2(), sd.V2.toVec2(), sd.Density, sd.U, sd.E)
	default:
		verts := make([]Vec2, len(sd.Vertices))
		for i, v := range sd.Vertices {
			verts[i] = v.toVec2()
		}
		return NewPolygonShape(verts, sd.Density, sd.U, sd.E)
	}
}

func jointKindFromString(s string) JointKind {
	switch s {
	case "rope":
		return JointRope
	case "distance":
		return JointDistance
	case "revolute":
		return JointRevolute
	case "weld":
		return JointWeld
	case "prismatic":
		return JointPrismatic
	case "line":
		return JointLine
	case "angle":
		return JointAngle
	default:
		return -1
	}
}

func jointToDoc(jc JointConstraint, indexOf map[int]int) (jointDoc, error) {
	jb := jc.base()
	jd := jointDoc{
		Type:             jb.Kind.String(),
		Body1:            indexOf[jb.BodyA.ID],
		Body2:            indexOf[jb.BodyB.ID],
		CollideConnected: jb.CollideConnected,
		MaxForce:         jb.MaxForce,
		Breakable:        jb.Breakable,
	}

	switch j := jc.(type) {
	case *RopeJoint:
		a, b := vecDocOf(j.LocalAnchorA), vecDocOf(j.LocalAnchorB)
		jd.AnchorA, jd.AnchorB = &a, &b
		jd.MaxLength = j.MaxLength
	case *DistanceJoint:
		a, b := vecDocOf(j.LocalAnchorA), vecDocOf(j.LocalAnchorB)
		jd.AnchorA, jd.AnchorB = &a, &b
		jd.Length = j.Length
		jd.FrequencyHz = j.FrequencyHz
		jd.DampingRatio = j.DampingRatio
	case *RevoluteJoint:
		a := vecDocOf(j.BodyA.Transform().Apply(j.LocalAnchorA))
		jd.Anchor = &a
		jd.ReferenceAngle = j.ReferenceAngle
		jd.EnableLimit = j.EnableLimit
		jd.LowerAngle, jd.UpperAngle = j.LowerAngle, j.UpperAngle
		jd.EnableMotor = j.EnableMotor
		jd.MotorSpeed, jd.MaxMotorTorque = j.MotorSpeed, j.MaxMotorTorque
	case *WeldJoint:
		a := vecDocOf(j.BodyA.Transform().Apply(j.LocalAnchorA))
		jd.Anchor = &a
		jd.ReferenceAngle = j.ReferenceAngle
		jd.FrequencyHz, jd.DampingRatio = j.FrequencyHz, j.DampingRatio
	case *PrismaticJoint:
		a := vecDocOf(j.BodyA.Transform().Apply(j.LocalAnchorA))
		ax := vecDocOf(j.BodyA.Transform().Q.Mul(j.LocalAxisA))
		jd.Anchor, jd.Axis = &a, &ax
		jd.ReferenceAngle = j.ReferenceAngle
		jd.EnableLimit = j.EnableLimit
		jd.LowerTranslation, jd.UpperTranslation = j.LowerTranslation, j.UpperTranslation
		jd.EnableMotor = j.EnableMotor
		jd.MotorSpeed, jd.MaxMotorForce = j.MotorSpeed, j.MaxMotorForce
	case *LineJoint:
		a := vecDocOf(j.BodyA.Transform().Apply(j.LocalAnchorA))
		ax := vecDocOf(j.BodyA.Transform().Q.Mul(j.LocalAxisA))
		jd.Anchor, jd.Axis = &a, &ax
		jd.SpringLength = j.SpringLength
		jd.FrequencyHz, jd.DampingRatio = j.FrequencyHz, j.DampingRatio
	case *AngleJoint:
		jd.ReferenceAngle = j.ReferenceAngle
		jd.FrequencyHz, jd.DampingRatio = j.FrequencyHz, j.DampingRatio
	default:
		return jointDoc{}, newSceneError("unserializable joint kind")
	}
	return jd, nil
}

func jointFromDoc(jd jointDoc, bodyA, bodyB *Body) JointConstraint {
	var jc JointConstraint
	switch jointKindFromString(jd.Type) {
	case JointRope:
		anchor := Vec2{}
		if jd.AnchorA != nil {
			anchor = jd.AnchorA.toVec2()
		}
		r := NewRopeJoint(bodyA, bodyB, anchor, jd.AnchorB.toVec2(), jd.MaxLength)
		jc = r
	case JointDistance:
		d := NewDistanceJoint(bodyA, bodyB, jd.AnchorA.toVec2(), jd.AnchorB.toVec2(), jd.Length)
		d.FrequencyHz, d.DampingRatio = jd.FrequencyHz, jd.DampingRatio
		jc = d
	case JointRevolute:
		r := NewRevoluteJoint(bodyA, bodyB, jd.Anchor.toVec2())
		r.EnableLimit = jd.EnableLimit
		r.LowerAngle, r.UpperAngle = jd.LowerAngle, jd.UpperAngle
		r.EnableMotor = jd.EnableMotor
		r.MotorSpeed, r.MaxMotorTorque = jd.MotorSpeed, jd.MaxMotorTorque
		jc = r
	case JointWeld:
		w := NewWeldJoint(bodyA, bodyB, jd.Anchor.toVec2())
		w.FrequencyHz, w.DampingRatio = jd.FrequencyHz, jd.DampingRatio
		jc = w
	case JointPrismatic:
		axis := Vec2{1, 0}
		if jd.Axis != nil {
			axis = jd.Axis.toVec2()
		}
		p := NewPrismaticJoint(bodyA, bodyB, jd.Anchor.toVec2(), axis)
		p.EnableLimit = jd.EnableLimit
		p.LowerTranslation, p.UpperTranslation = jd.LowerTranslation, jd.UpperTranslation
		p.EnableMotor = jd.EnableMotor
		p.MotorSpeed, p.MaxMotorForce = jd.MotorSpeed, jd.MaxMotorForce
		jc = p
	case JointLine:
		axis := Vec2{1, 0}
		if jd.Axis != nil {
			axis = jd.Axis.toVec2()
		}
		l := NewLineJoint(bodyA, bodyB, jd.Anchor.toVec2(), axis)
		l.SpringLength = jd.SpringLength
		l.FrequencyHz, l.DampingRatio = jd.FrequencyHz, jd.DampingRatio
		jc = l
	case JointAngle:
		a := NewAngleJoint(bodyA, bodyB)
		a.FrequencyHz, a.DampingRatio = jd.FrequencyHz, jd.DampingRatio
		jc = a
	}

	jb := jc.base()
	jb.CollideConnected = jd.CollideConnected
	jb.MaxForce = jd.MaxForce
	jb.Breakable = jd.Breakable
	return jc
}
