package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewZapLoggerLevel(t *testing.T) {
	l, lvl, err := NewZapLogger("warn")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	defer func() { _ = l.Sync() }()

	if lvl.Level() != zapcore.WarnLevel {
		t.Fatalf("expected warn level, got %s", lvl.Level())
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("expected info to be disabled at warn level")
	}
}

func TestNewZapLoggerInvalidLevelFallsBackToInfo(t *testing.T) {
	_, lvl, err := NewZapLogger("loud")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}
	if lvl.Level() != zapcore.InfoLevel {
		t.Fatalf("expected info fallback, got %s", lvl.Level())
	}
}

func TestSetLevel(t *testing.T) {
	l, lvl, err := NewZapLogger("info")
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	SetLevel(lvl, "debug")
	if !l.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("expected debug to be enabled after SetLevel")
	}
}
