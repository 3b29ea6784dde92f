package utils

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	for _, debug := range []bool{true, false} {
		logger, err := NewLogger(debug)
		if err != nil {
			t.Fatalf("NewLogger(%v) error: %v", debug, err)
		}
		if logger == nil {
			t.Fatalf("NewLogger(%v) returned nil logger", debug)
		}
		_ = logger.Sync()
	}
}

func TestNewLogger_debugLevel(t *testing.T) {
	logger, err := NewLogger(true)
	if err != nil {
		t.Fatal(err)
	}
	if !logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug logger should enable the debug level")
	}
	logger, err = NewLogger(false)
	if err != nil {
		t.Fatal(err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("production logger should not enable the debug level")
	}
}
