// Package logger builds the engine's zap logger and exposes a process-wide instance
// that packages fall back to when no logger is injected through their builder options.
package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	current = zap.NewNop()
)

// Options describes how the engine logger is built.
type Options struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`
	// Development switches to the console encoder with caller info and stack traces on warn.
	Development bool `yaml:"development"`
}

// New builds a zap logger from the given options and installs it as the process-wide logger.
//
// Parameters:
//   - opts: level and encoder selection
//
// Returns:
//   - *zap.Logger: the constructed logger
//   - error: an error if the level is unknown or zap fails to build its sinks
func New(opts Options) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			return nil, err
		}
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      opts.Development,
		Encoding:         "json",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    !opts.Development,
	}
	if opts.Development {
		config.Encoding = "console"
		config.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	l, err := config.Build()
	if err != nil {
		return nil, err
	}
	Set(l)
	return l, nil
}

// Set replaces the process-wide logger. A nil logger installs a no-op logger.
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	current = l
	mu.Unlock()
}

// Provide returns the process-wide logger. It is a no-op logger until New or Set is called.
func Provide() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Named returns the process-wide logger scoped to the given subsystem name.
func Named(name string) *zap.Logger {
	return Provide().Named(name)
}
