package impulse2d

import "github.com/google/uuid"

type JointKind int

const (
	JointRope JointKind = iota
	JointDistance
	JointRevolute
	JointWeld
	JointPrismatic
	JointLine
	JointAngle
)

func (k JointKind) String() string {
	switch k {
	case JointRope:
		return "rope"
	case JointDistance:
		return "distance"
	case JointRevolute:
		return "revolute"
	case JointWeld:
		return "weld"
	case JointPrismatic:
		return "prismatic"
	case JointLine:
		return "line"
	case JointAngle:
		return "angle"
	default:
		return "unknown"
	}
}

type LimitState int

const (
	LimitInactive LimitState = iota
	LimitAtLower
	LimitAtUpper
	LimitEqual
)

// JointConstraint is the capability set every concrete joint implements.
// Polymorphism is over this interface rather than a type hierarchy;
// concrete joints are the variants.
type JointConstraint interface {
	InitSolver(dt float64, warmStarting bool)
	SolveVelocityConstraints()
	SolvePositionConstraints() bool
	ReactionForce(invDt float64) Vec2
	ReactionTorque(invDt float64) float64
	Serialize() map[string]any

	base() *jointBase
}

// jointBase holds the fields every concrete joint shares: identity, the
// two connected bodies, breakage policy, and the cached Jacobian pieces
// the worked rope example in §4.4 and its siblings all compute the same
// way (r1, r2, unit direction, scalar cross terms, effective mass).
type jointBase struct {
	ID       int
	UserData uuid.UUID
	Kind     JointKind

	BodyA, BodyB *Body

	CollideConnected bool
	MaxForce         float64
	Breakable        bool

	RA, RB Vec2
	U      Vec2
	S1, S2 float64

	EffMass    float64
	LimitState LimitState
	Bias       float64
}

func (jb *jointBase) base() *jointBase { return jb }

// shouldBreak implements §4.5 step 8: a breakable joint is removed when
// the squared reaction force it is carrying meets or exceeds MaxForce².
func shouldBreak(j JointConstraint, invDt float64) bool {
	jb := j.base()
	if !jb.Breakable || jb.MaxForce <= 0 {
		return false
	}
	f := j.ReactionForce(invDt)
	return f.LengthSquared() >= jb.MaxForce*jb.MaxForce
}
