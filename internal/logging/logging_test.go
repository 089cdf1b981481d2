package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		debug bool
		level zap.AtomicLevel
	}{
		{"debug", true, zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"quiet", false, zap.NewAtomicLevelAt(zap.WarnLevel)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.debug)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			defer logger.Sync()

			if got := logger.Core().Enabled(zap.DebugLevel); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
			if !logger.Core().Enabled(zap.WarnLevel) {
				t.Error("warn level should always be enabled")
			}
			if got := logger.Core().Enabled(zap.InfoLevel); got != tt.level.Enabled(zap.InfoLevel) {
				t.Errorf("info enabled = %v, want %v", got, tt.level.Enabled(zap.InfoLevel))
			}
		})
	}
}
