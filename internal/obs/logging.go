// Package obs builds the structured logger shared by tally components.
package obs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels passed to logger.V.
const (
	DEFAULT = 0
	VERBOSE = 1
	DEBUG   = 2
	TRACE   = 3
)

// Options configure NewLogger.
type Options struct {
	// Path is the log file. The terminal belongs to the UI, so logs never go to stdout.
	Path      string
	Verbosity int
}

// NewLogger returns a logr.Logger writing JSON lines to opts.Path and a sync
// function to call on shutdown.
func NewLogger(opts Options) (logr.Logger, func() error, error) {
	if opts.Path == "" {
		return logr.Discard(), func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return logr.Discard(), nil, fmt.Errorf("create log dir: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{opts.Path}
	cfg.ErrorOutputPaths = []string{opts.Path}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// logr V(n) maps to zap level -n.
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-1 * clampVerbosity(opts.Verbosity)))

	zl, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return logr.Discard(), nil, fmt.Errorf("build logger: %w", err)
	}
	return zapr.NewLogger(zl), zl.Sync, nil
}

// NewTestLogger creates a development logger printing to stderr at TRACE.
func NewTestLogger() logr.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.Level(-1 * TRACE))
	zl, err := cfg.Build(zap.AddCaller())
	if err != nil {
		return logr.Discard()
	}
	return zapr.NewLogger(zl)
}

func clampVerbosity(v int) int {
	switch {
	case v < DEFAULT:
		return DEFAULT
	case v > TRACE:
		return TRACE
	default:
		return v
	}
}
