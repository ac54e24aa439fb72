package logger

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func parseLevel(level string) zapcore.Level {
	logLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		log.Printf("Invalid log level '%s', using default 'info'\n", level)
		return zapcore.InfoLevel
	}
	return logLevel
}

// NewZapLogger builds the application logger. The returned level can be changed at runtime.
func NewZapLogger(level string) (*zap.Logger, zap.AtomicLevel, error) {
	atomicLevel := zap.NewAtomicLevelAt(parseLevel(level))

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = atomicLevel
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, atomicLevel, err
	}

	return logger, atomicLevel, nil
}

// SetLevel applies a textual level to an existing atomic level.
func SetLevel(atomicLevel zap.AtomicLevel, level string) {
	atomicLevel.SetLevel(parseLevel(level))
}
