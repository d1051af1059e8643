package impulse2d

import "time"

// StepStats is the per-step profile produced by Space.Step: elapsed time
// for each solver phase plus the counts and iteration numbers useful for
// comparing warm-start performance across runs.
type StepStats struct {
	CollideTime        time.Duration
	InitTime           time.Duration
	VelocitySolveTime  time.Duration
	PositionSolveTime  time.Duration
	PositionIterations int
	NumContacts        int
	NumBodies          int
	NumJoints          int
}
