package observability

import (
	"testing"

	"go.uber.org/zap"
)

// TestParseLogLevel covers the LOG_LEVEL values and the info fallback.
func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zap.AtomicLevel
	}{
		{"DEBUG", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"debug", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"INFO", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{" warn ", zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"ERROR", zap.NewAtomicLevelAt(zap.ErrorLevel)},
		{"", zap.NewAtomicLevelAt(zap.InfoLevel)},
		{"verbose", zap.NewAtomicLevelAt(zap.InfoLevel)},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := parseLogLevel(tc.in); got.Level() != tc.want.Level() {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tc.in, got.Level(), tc.want.Level())
			}
		})
	}
}

// TestNewLogger verifies the logger builds with the configured level.
func TestNewLogger(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")

	logger, err := NewLogger()
	if err != nil {
		t.Fatalf("NewLogger() error = %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if logger.Core().Enabled(zap.InfoLevel) {
		t.Error("info enabled at WARN level, want disabled")
	}
	if !logger.Core().Enabled(zap.WarnLevel) {
		t.Error("warn disabled at WARN level, want enabled")
	}
}
