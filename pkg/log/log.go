// Package log provides the shared zap logger constructor.
package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZapLogger builds a named production sugared logger at the given level.
func NewZapLogger(name string, level zapcore.Level) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		// zap's production config only fails on invalid output paths
		panic(err)
	}

	return logger.Named(name).Sugar()
}
