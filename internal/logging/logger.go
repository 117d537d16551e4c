// Package logging builds the zap loggers used across the news helper binaries.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log line emitted by production loggers.
const ServiceName = "newshelper"

// New builds a zap.Logger configured for development or production.
// Development loggers print colored console output; production loggers emit JSON
// tagged with the service name so lines can be filtered in a shared sink.
func New(development bool) (*zap.Logger, error) {
	if development {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		logger, err := cfg.Build()
		if err != nil {
			return nil, fmt.Errorf("build dev logger: %w", err)
		}
		return logger, nil
	}
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.InitialFields = map[string]any{"service": ServiceName}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build prod logger: %w", err)
	}
	return logger, nil
}

// MustNew is New for command entrypoints, falling back to a no-op logger when
// the requested configuration cannot be built.
func MustNew(development bool) *zap.Logger {
	logger, err := New(development)
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
