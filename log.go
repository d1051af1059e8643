package impulse2d

import (
	"sync"

	"go.uber.org/zap"
)

var (
	nopOnce sync.Once
	nop     *zap.Logger
)

// nopLogger returns a shared no-op logger so a Space constructed without
// an explicit logger never needs a nil check on the hot path.
func nopLogger() *zap.Logger {
	nopOnce.Do(func() {
		nop = zap.NewNop()
	})
	return nop
}

// NewProductionLogger builds the JSON-encoded, sampled production logger
// this module's components log through by default when a caller wants
// real output instead of the no-op logger.
func NewProductionLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableCaller = true
	return cfg.Build()
}
