package impulse2d

import "math"

// Global tuning constants, mirrored from the constant group the solver was
// ported from. Changing these changes solver behavior measurably; that is
// why they are also exposed, grouped, as SpaceConfig rather than only as
// package constants.
const (
	MaxManifoldPoints  = 2
	MaxPolygonVertices = 8

	LinearSlop          = 0.005
	AngularSlop         = 2.0 / 180.0 * math.Pi
	MaxLinearCorrection = 0.2
	MaxAngularCorrection = 8.0 / 180.0 * math.Pi

	MaxTranslation        = 2.0
	MaxTranslationSquared = MaxTranslation * MaxTranslation
	MaxRotation            = 0.5 * math.Pi
	MaxRotationSquared     = MaxRotation * MaxRotation

	TimeToSleep           = 0.5
	SleepLinearTolerance  = 0.01
	SleepAngularTolerance = 2.0 / 180.0 * math.Pi

	AABBMargin = 0.1

	VelocityThreshold = 1.0
)

const Epsilon = 1e-12

// SpaceConfig groups the constants a Space's step loop depends on, so a
// host application can tune them (e.g. by loading a YAML config file) at
// construction time without touching the package constants. The contact
// solver, broad phase and sleep accounting read it; the joint solvers read
// the package constants directly.
type SpaceConfig struct {
	LinearSlop            float64
	MaxLinearCorrection   float64
	TimeToSleep           float64
	SleepLinearTolerance  float64
	SleepAngularTolerance float64
	AABBMargin            float64
}

func DefaultSpaceConfig() SpaceConfig {
	return SpaceConfig{
		LinearSlop:            LinearSlop,
		MaxLinearCorrection:   MaxLinearCorrection,
		TimeToSleep:           TimeToSleep,
		SleepLinearTolerance:  SleepLinearTolerance,
		SleepAngularTolerance: SleepAngularTolerance,
		AABBMargin:            AABBMargin,
	}
}

func IsValidFloat(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
