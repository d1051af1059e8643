package impulse2d

import (
	"math"
	"sort"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// pairKey is a canonical, hashed key for a shape pair's live ContactSolver,
// the idiomatic-Go replacement for the linked-list pair table a
// non-hashmap language would walk on every broad-phase pass.
type pairKey uint64

func makePairKey(id1, id2 int) pairKey {
	if id1 > id2 {
		id1, id2 = id2, id1
	}
	var buf [16]byte
	putInt(buf[0:8], id1)
	putInt(buf[8:16], id2)
	return pairKey(xxhash.Sum64(buf[:]))
}

func putInt(b []byte, v int) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		b[i] = byte(u >> (8 * i))
	}
}

// Space owns every Body and Joint in the simulation, runs the step
// pipeline, and is the sole mutator of body/joint topology. A step is an
// atomic unit: no method that mutates topology may be called while a
// step is in progress (enforced by the locked flag below), matching the
// single-threaded, no-suspension resource model.
type Space struct {
	bodies map[int]*Body
	joints map[int]*Joint
	solvers map[pairKey]*ContactSolver

	Gravity Vec2
	Damping float64

	Collider   Collider
	PostSolve  func(*ContactSolver)
	Config     SpaceConfig

	stepCount int

	nextBodyID  int
	nextShapeID int
	nextJointID int

	locked bool

	log *zap.Logger
}

// Joint wraps a JointConstraint so Space can hold the common
// identity/topology fields (id, kind, the two bodies) uniformly across
// every concrete joint kind, the way a B2JointEdge node lets box2d's
// world walk joints without knowing their concrete type.
type Joint struct {
	Constraint JointConstraint
}

func (j *Joint) ID() int          { return j.Constraint.base().ID }
func (j *Joint) Kind() JointKind  { return j.Constraint.base().Kind }
func (j *Joint) BodyA() *Body     { return j.Constraint.base().BodyA }
func (j *Joint) BodyB() *Body     { return j.Constraint.base().BodyB }

func NewSpace() *Space {
	return &Space{
		bodies:   make(map[int]*Body),
		joints:   make(map[int]*Joint),
		solvers:  make(map[pairKey]*ContactSolver),
		Gravity:  Vec2{0, -10},
		Damping:  1.0,
		Collider: DefaultCollider{},
		Config:   DefaultSpaceConfig(),
		log:      nopLogger(),
	}
}

// WithLogger attaches a structured logger, e.g. one built by
// NewProductionLogger, for Debug/Warn diagnostics on topology changes.
func (s *Space) WithLogger(log *zap.Logger) *Space {
	if log != nil {
		s.log = log
	}
	return s
}

func (s *Space) guardTopology(action string) {
	if s.locked {
		panicTopology(action + " called during Step")
	}
}

// AddBody creates and registers a new body, in the given initial pose.
func (s *Space) AddBody(kind BodyType, position Vec2, angle float64) *Body {
	s.guardTopology("AddBody")
	s.nextBodyID++
	b := newBody(s, s.nextBodyID, kind, position, angle)
	s.bodies[b.ID] = b
	s.log.Debug("body added", zap.Int("id", b.ID), zap.Int("type", int(kind)))
	return b
}

func (s *Space) nextShapeIDFor(shape *Shape) {
	s.nextShapeID++
	shape.ID = s.nextShapeID
}

// AddShapeTo attaches a shape (assigning it an id from Space's counter)
// to an already-registered body.
func (s *Space) AddShapeTo(b *Body, shape *Shape) *Shape {
	s.nextShapeIDFor(shape)
	b.AddShape(shape)
	return shape
}

// RemoveBody removes a body and cascades removal of every joint attached
// to it, per §9's cyclic-reference design note.
func (s *Space) RemoveBody(b *Body) {
	s.guardTopology("RemoveBody")
	for id := range b.jointIDs {
		if j, ok := s.joints[id]; ok {
			s.removeJointLocked(j)
		}
	}
	for key, cs := range s.solvers {
		if cs.Shape1.body == b || cs.Shape2.body == b {
			delete(s.solvers, key)
		}
	}
	delete(s.bodies, b.ID)
	s.log.Debug("body removed", zap.Int("id", b.ID))
}

// AddJoint registers a joint and wakes both of its endpoints (adding a
// joint wakes both endpoints, per §4.6).
func (s *Space) AddJoint(j JointConstraint) *Joint {
	s.guardTopology("AddJoint")
	s.nextJointID++
	jb := j.base()
	jb.ID = s.nextJointID
	wrapped := &Joint{Constraint: j}
	s.joints[jb.ID] = wrapped
	jb.BodyA.jointIDs[jb.ID] = struct{}{}
	jb.BodyB.jointIDs[jb.ID] = struct{}{}
	jb.BodyA.SetAwake(true)
	jb.BodyB.SetAwake(true)
	s.log.Debug("joint added", zap.Int("id", jb.ID), zap.String("kind", jb.Kind.String()))
	return wrapped
}

func (s *Space) RemoveJoint(j *Joint) {
	s.guardTopology("RemoveJoint")
	s.removeJointLocked(j)
}

func (s *Space) removeJointLocked(j *Joint) {
	jb := j.Constraint.base()
	delete(jb.BodyA.jointIDs, jb.ID)
	delete(jb.BodyB.jointIDs, jb.ID)
	jb.BodyA.SetAwake(true)
	jb.BodyB.SetAwake(true)
	delete(s.joints, jb.ID)
	s.log.Debug("joint removed", zap.Int("id", jb.ID))
}

// Clear tears down the entire world and resets the per-Space id counters,
// the Go realization of §9's "global counters become Space fields".
func (s *Space) Clear() {
	s.guardTopology("Clear")
	s.bodies = make(map[int]*Body)
	s.joints = make(map[int]*Joint)
	s.solvers = make(map[pairKey]*ContactSolver)
	s.nextBodyID = 0
	s.nextShapeID = 0
	s.nextJointID = 0
	s.stepCount = 0
}

func (s *Space) Bodies() []*Body { return sortedBodies(s.bodies) }
func (s *Space) Joints() []*Joint { return sortedJoints(s.joints) }

func sortedBodies(m map[int]*Body) []*Body {
	out := make([]*Body, 0, len(m))
	for _, b := range m {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortedJoints(m map[int]*Joint) []*Joint {
	out := make([]*Joint, 0, len(m))
	for _, j := range m {
		out = append(out, j)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}

// Step runs the fixed twelve-step pipeline in §4.5: regenerate contact
// solvers, init, warm start, integrate forces, propagate wakes, solve
// velocity, integrate positions, break joints, solve position, sync,
// postSolve, sleep.
func (s *Space) Step(dt float64, velIterations, posIterations int, warmStarting, allowSleep bool) StepStats {
	s.guardTopology("Step")
	s.locked = true
	defer func() { s.locked = false }()

	s.stepCount++
	bodies := sortedBodies(s.bodies)
	joints := sortedJoints(s.joints)

	var stats StepStats
	stats.NumBodies = len(bodies)
	stats.NumJoints = len(joints)

	invDt := 0.0
	if dt > 0 {
		invDt = 1.0 / dt
	}

	// 1. Regenerate contact solvers via broad + narrow phase.
	t0 := time.Now()
	for _, b := range bodies {
		b.CacheData()
	}
	active := s.broadPhasePairs(bodies)
	s.refreshManifolds(active)
	stats.CollideTime = time.Since(t0)
	stats.NumContacts = len(s.solvers)

	// Contact pairs are solved in a fixed order (by shape ids), not in
	// map iteration order.
	solvers := make([]*ContactSolver, 0, len(s.solvers))
	for _, cs := range s.solvers {
		solvers = append(solvers, cs)
	}
	sort.Slice(solvers, func(i, j int) bool {
		if solvers[i].Shape1.ID != solvers[j].Shape1.ID {
			return solvers[i].Shape1.ID < solvers[j].Shape1.ID
		}
		return solvers[i].Shape2.ID < solvers[j].Shape2.ID
	})

	// 2. Init contact solvers and joints.
	t0 = time.Now()
	for _, cs := range solvers {
		cs.Init()
	}
	for _, j := range joints {
		j.Constraint.InitSolver(dt, warmStarting)
	}
	stats.InitTime = time.Since(t0)

	// 3. Warm start.
	for _, cs := range solvers {
		cs.WarmStart(warmStarting)
	}

	// 4. Integrate forces into velocities.
	for _, b := range bodies {
		if b.Type == DynamicBody && b.Awake {
			b.UpdateVelocity(s.Gravity, s.Damping, dt)
		}
	}

	// 5. Wake propagation across joints.
	for _, j := range joints {
		jb := j.Constraint.base()
		if jb.BodyA.Awake != jb.BodyB.Awake {
			jb.BodyA.SetAwake(true)
			jb.BodyB.SetAwake(true)
		}
	}

	// 6. Velocity solver: joints first, then contacts, each iteration.
	t0 = time.Now()
	for iter := 0; iter < velIterations; iter++ {
		for _, j := range joints {
			if jointAwake(j) {
				j.Constraint.SolveVelocityConstraints()
			}
		}
		for _, cs := range solvers {
			if cs.Shape1.body.Awake || cs.Shape2.body.Awake {
				cs.SolveVelocity()
			}
		}
	}
	stats.VelocitySolveTime = time.Since(t0)

	// 7. Integrate velocities into positions.
	for _, b := range bodies {
		if b.Type != StaticBody && b.Awake {
			b.UpdatePosition(dt)
		}
	}

	// 8. Breakable joints.
	for _, j := range joints {
		if shouldBreak(j.Constraint, invDt) {
			jb := j.Constraint.base()
			s.log.Debug("joint broken", zap.Int("id", jb.ID))
			s.removeJointLocked(j)
		}
	}
	joints = sortedJoints(s.joints)

	// 9. Position solver: contacts, then joints, each round.
	t0 = time.Now()
	positionSolved := false
	for iter := 0; iter < posIterations; iter++ {
		contactsOK := true
		for _, cs := range solvers {
			if !cs.SolvePosition(s.Config) {
				contactsOK = false
			}
		}
		jointsOK := true
		for _, j := range joints {
			if !j.Constraint.SolvePositionConstraints() {
				jointsOK = false
			}
		}
		stats.PositionIterations++
		if contactsOK && jointsOK {
			positionSolved = true
			break
		}
	}
	stats.PositionSolveTime = time.Since(t0)

	// 10. Sync transforms and recache.
	for _, b := range bodies {
		if b.Type == DynamicBody && b.Awake {
			b.SyncTransform()
		}
	}

	// 11. postSolve hook.
	if s.PostSolve != nil {
		for _, cs := range solvers {
			s.PostSolve(cs)
		}
	}

	// 12. Sleep accounting.
	if allowSleep {
		s.updateSleep(bodies, dt, positionSolved)
	}

	return stats
}

// RaycastHit is one shape intersection along a ray, ordered by Fraction.
type RaycastHit struct {
	Shape    *Shape
	Point    Vec2
	Normal   Vec2
	Fraction float64
}

// Raycast casts a segment from p1 to p2 and returns every shape it
// crosses, nearest first. Only circle and polygon shapes are tested
// against analytically; segment shapes are skipped (degenerate width).
func (s *Space) Raycast(p1, p2 Vec2) []RaycastHit {
	var hits []RaycastHit
	for _, b := range sortedBodies(s.bodies) {
		for _, shape := range b.shapes {
			if hit, ok := raycastShape(shape, p1, p2); ok {
				hits = append(hits, hit)
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].Fraction < hits[j].Fraction })
	return hits
}

func raycastShape(shape *Shape, p1, p2 Vec2) (RaycastHit, bool) {
	switch shape.Kind {
	case ShapeCircle:
		return raycastCircle(shape, p1, p2)
	case ShapePolygon:
		return raycastPolygon(shape, p1, p2)
	default:
		return RaycastHit{}, false
	}
}

func raycastCircle(shape *Shape, p1, p2 Vec2) (RaycastHit, bool) {
	center := shape.worldCenter
	r := shape.Radius
	s0 := p1.Sub(center)
	d := p2.Sub(p1)
	length := d.Length()
	if length < Epsilon {
		return RaycastHit{}, false
	}
	d = d.Scale(1.0 / length)

	b := s0.Dot(s0) - r*r
	c := s0.Dot(d)
	sigma := c*c - b
	if sigma < 0 || length < Epsilon {
		return RaycastHit{}, false
	}
	t := -c - math.Sqrt(sigma)
	if t < 0 || t > length {
		return RaycastHit{}, false
	}
	point := p1.Add(d.Scale(t))
	normal := point.Sub(center)
	normal, _ = normal.Normalized()
	return RaycastHit{Shape: shape, Point: point, Normal: normal, Fraction: t / length}, true
}

func raycastPolygon(shape *Shape, p1, p2 Vec2) (RaycastHit, bool) {
	lower, upper := 0.0, 1.0
	index := -1
	d := p2.Sub(p1)

	for i, normal := range shape.worldNormals {
		numerator := normal.Dot(shape.worldVertices[i].Sub(p1))
		denominator := normal.Dot(d)
		if denominator == 0 {
			if numerator < 0 {
				return RaycastHit{}, false
			}
			continue
		}
		t := numerator / denominator
		if denominator < 0 && t > lower {
			lower = t
			index = i
		} else if denominator > 0 && t < upper {
			upper = t
		}
		if upper < lower {
			return RaycastHit{}, false
		}
	}
	if index < 0 {
		return RaycastHit{}, false
	}
	point := p1.Add(d.Scale(lower))
	return RaycastHit{Shape: shape, Point: point, Normal: shape.worldNormals[index], Fraction: lower}, true
}

// QueryAABB returns every shape whose cached AABB (without the broad-phase
// AABBMargin) overlaps box, the coarse overlap test exposed for
// picking/selection use cases rather than narrow-phase collision.
func (s *Space) QueryAABB(box AABB) []*Shape {
	var out []*Shape
	for _, b := range sortedBodies(s.bodies) {
		for _, shape := range b.shapes {
			if shape.AABB.Overlaps(box) {
				out = append(out, shape)
			}
		}
	}
	return out
}

// ShiftOrigin translates every body's position by -newOrigin, used to
// keep position values small (and thus precise) in simulations whose
// content drifts far from the world origin over a long run.
func (s *Space) ShiftOrigin(newOrigin Vec2) {
	s.guardTopology("ShiftOrigin")
	for _, b := range s.bodies {
		b.ShiftOrigin(newOrigin)
	}
}

func jointAwake(j *Joint) bool {
	jb := j.Constraint.base()
	return jb.BodyA.Awake || jb.BodyB.Awake
}

// broadPhasePairs is the O(N²) scan over the body table §4.5 specifies:
// for each unordered pair, skip if both asleep-or-static, not
// collidable, or AABBs (margin-extended) disjoint.
func (s *Space) broadPhasePairs(bodies []*Body) []shapePair {
	var pairs []shapePair
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			a, b := bodies[i], bodies[j]
			if !a.Awake && !b.Awake {
				continue
			}
			if a.Type == StaticBody && b.Type == StaticBody {
				continue
			}
			if !a.ShouldCollide(b) {
				continue
			}
			if !a.AABB.Extend(s.Config.AABBMargin).Overlaps(b.AABB.Extend(s.Config.AABBMargin)) {
				continue
			}
			for _, sa := range a.shapes {
				for _, sb := range b.shapes {
					if !sa.Filter.shouldCollide(sb.Filter) {
						continue
					}
					if !sa.AABB.Extend(s.Config.AABBMargin).Overlaps(sb.AABB.Extend(s.Config.AABBMargin)) {
						continue
					}
					if s.jointsForbidCollision(a, b) {
						continue
					}
					pairs = append(pairs, shapePair{sa, sb})
				}
			}
		}
	}
	return pairs
}

type shapePair struct{ a, b *Shape }

func (s *Space) jointsForbidCollision(a, b *Body) bool {
	for id := range a.jointIDs {
		if _, ok := b.jointIDs[id]; !ok {
			continue
		}
		j, ok := s.joints[id]
		if !ok {
			continue
		}
		if !j.Constraint.base().CollideConnected {
			return true
		}
	}
	return false
}

// refreshManifolds runs the narrow phase over each candidate pair,
// matching each result to the prior step's ContactSolver by canonical
// pair key (manifold persistence), allocating a fresh solver and waking
// both bodies on emergent contact, and dropping solvers whose pairs no
// longer recollide.
func (s *Space) refreshManifolds(pairs []shapePair) {
	seen := make(map[pairKey]bool, len(pairs))

	for _, p := range pairs {
		s1, s2, _ := canonicalPair(p.a, p.b)
		key := makePairKey(s1.ID, s2.ID)

		m := s.Collider.Collide(s1, s2, s1.body.Transform(), s2.body.Transform())
		if len(m.Points) == 0 {
			continue
		}
		seen[key] = true

		cs, ok := s.solvers[key]
		if !ok {
			cs = newContactSolver(s1, s2)
			s.solvers[key] = cs
			s1.body.SetAwake(true)
			s2.body.SetAwake(true)
		}
		cs.update(m, s1.body.Transform(), s2.body.Transform())
	}

	for key := range s.solvers {
		if !seen[key] {
			delete(s.solvers, key)
		}
	}
}

// updateSleep implements §4.6 per connected group: bodies linked by a
// joint or resting in contact share a sleep verdict, the way box2d's
// island partition keeps a resting stack asleep together rather than one
// body at a time. Any body moving fast enough resets its own SleepTime
// and so keeps the whole group awake; any kinematic body in the group
// also keeps it awake, while static bodies in the group are ignored.
// Per §4.6 and the teacher's
// DynamicsB2Island.go ("if minSleepTime >= B2_timeToSleep &&
// positionSolved"), a group may only be put to sleep in a step where the
// position solver actually converged this step.
func (s *Space) updateSleep(bodies []*Body, dt float64, positionSolved bool) {
	linTolSqr := s.Config.SleepLinearTolerance * s.Config.SleepLinearTolerance
	angTolSqr := s.Config.SleepAngularTolerance * s.Config.SleepAngularTolerance

	groups := s.connectedGroups(bodies)
	for _, group := range groups {
		minSleepTime := s.Config.TimeToSleep
		allDynamic := true
		for _, b := range group {
			if b.Type == StaticBody {
				continue
			}
			if b.Type != DynamicBody {
				allDynamic = false
				continue
			}
			if !b.Awake {
				continue
			}
			if b.AngularVelocity*b.AngularVelocity > angTolSqr || b.Velocity.LengthSquared() > linTolSqr {
				b.SleepTime = 0
			} else {
				b.SleepTime += dt
			}
			if b.SleepTime < minSleepTime {
				minSleepTime = b.SleepTime
			}
		}
		if allDynamic && positionSolved && minSleepTime >= s.Config.TimeToSleep {
			for _, b := range group {
				b.SetAwake(false)
			}
		}
	}
}

// connectedGroups partitions the awake dynamic bodies (plus any static or
// kinematic bodies they touch through a joint or a live contact) into
// connected components via the joint graph AND the contact graph, a flood
// fill over the same adjacency box2d's island builder walks ("search all
// contacts connected to this body" / "search all joints connected to this
// body" in the teacher's world-stepping loop).
func (s *Space) connectedGroups(bodies []*Body) [][]*Body {
	contactsOf := make(map[int][]*Body, len(bodies))
	for _, cs := range s.solvers {
		a, b := cs.Shape1.body, cs.Shape2.body
		contactsOf[a.ID] = append(contactsOf[a.ID], b)
		contactsOf[b.ID] = append(contactsOf[b.ID], a)
	}

	visited := make(map[int]bool, len(bodies))
	var groups [][]*Body

	for _, b := range bodies {
		if b.Type != DynamicBody || visited[b.ID] || !b.Awake {
			continue
		}
		var group []*Body
		stack := []*Body{b}
		visited[b.ID] = true
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			group = append(group, cur)
			for id := range cur.jointIDs {
				j, ok := s.joints[id]
				if !ok {
					continue
				}
				jb := j.Constraint.base()
				for _, other := range []*Body{jb.BodyA, jb.BodyB} {
					if !visited[other.ID] {
						visited[other.ID] = true
						stack = append(stack, other)
					}
				}
			}
			for _, other := range contactsOf[cur.ID] {
				if !visited[other.ID] {
					visited[other.ID] = true
					stack = append(stack, other)
				}
			}
		}
		groups = append(groups, group)
	}
	return groups
}
