package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":  zapcore.DebugLevel,
		"info":   zapcore.InfoLevel,
		"warn":   zapcore.WarnLevel,
		"error":  zapcore.ErrorLevel,
		"chatty": zapcore.InfoLevel,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestNew(t *testing.T) {
	for _, format := range []string{"console", "json"} {
		logger, err := New("warn", format)
		if err != nil {
			t.Fatalf("New(warn, %s) failed: %v", format, err)
		}
		if logger.Core().Enabled(zapcore.InfoLevel) {
			t.Errorf("%s logger at warn should drop info", format)
		}
		if !logger.Core().Enabled(zapcore.WarnLevel) {
			t.Errorf("%s logger at warn should keep warn", format)
		}
	}

	if _, err := New("info", "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
