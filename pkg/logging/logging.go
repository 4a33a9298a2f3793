// Package logging builds the process logger.
package logging

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level returns the minimum level logged: debug when verbose, warn otherwise.
func Level(verbose bool) (level zapcore.Level) {
	level = zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	return level
}

// New builds a logger writing to stderr. Verbose output is human readable,
// otherwise entries are JSON.
func New(verbose bool) (logger *zap.Logger, err error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(Level(verbose))
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err = cfg.Build()
	if err != nil {
		err = errors.Wrap(err, "failed to build logger")
		return logger, err
	}

	return logger, err
}
