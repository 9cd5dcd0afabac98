package sentryutil

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/ppiankov/canonica/internal/model"
)

func TestInit_NoDSN(t *testing.T) {
	if Init(model.SentryConfig{}, zap.NewNop()) {
		t.Error("Expected reporting to stay disabled without a DSN")
	}
}

func TestInit_InvalidDSN(t *testing.T) {
	if Init(model.SentryConfig{DSN: "not a dsn"}, zap.NewNop()) {
		t.Error("Expected invalid DSN to disable reporting")
	}
}

func TestCapture_Disabled(t *testing.T) {
	// without a client these must be no-ops
	CaptureError(nil, nil)
	CaptureError(errors.New("sink failed"), map[string]string{"stage": "sink"})
	CaptureWarning("input skipped", map[string]string{"file": "a.xlsx"})
	Flush()
}
