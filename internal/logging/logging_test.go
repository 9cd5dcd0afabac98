package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		verbose bool
		debug   bool
	}{
		{false, false},
		{true, true},
	}

	for _, tt := range tests {
		logger, err := New(tt.verbose)
		if err != nil {
			t.Fatalf("New(%v) failed: %v", tt.verbose, err)
		}
		if got := logger.Core().Enabled(zapcore.DebugLevel); got != tt.debug {
			t.Errorf("New(%v): expected debug enabled %v, got %v", tt.verbose, tt.debug, got)
		}
		if !logger.Core().Enabled(zapcore.WarnLevel) {
			t.Errorf("New(%v): expected warnings enabled", tt.verbose)
		}
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("Expected a logger for nil input")
	}
	OrNop(nil).Info("discarded")
}
