package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoggerWritesToWriter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("cli", &buf)

	logger.Info().Str("identity", "deskgate").Msg("leader elected")

	out := buf.String()
	if !strings.Contains(out, "leader elected") {
		t.Errorf("Expected message in output, got %q", out)
	}
	if !strings.Contains(out, "identity=deskgate") {
		t.Errorf("Expected field in output, got %q", out)
	}
	// A bytes.Buffer is never a terminal, so no ANSI escapes
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Expected no color codes for non-terminal output, got %q", out)
	}
}

func TestNamedAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter("cli", &buf).Named("ipc")

	logger.Warnf("accept failed: %s", "boom")

	out := buf.String()
	if !strings.Contains(out, "component=ipc") {
		t.Errorf("Expected component field, got %q", out)
	}
	if !strings.Contains(out, "accept failed: boom") {
		t.Errorf("Expected formatted message, got %q", out)
	}
}

func TestNopLogger(t *testing.T) {
	logger := OrNop(nil)
	// Must not panic
	logger.Error().Msg("discarded")
	logger.Infof("discarded %d", 1)

	if logger.Output() == nil {
		t.Error("Nop logger should report a writer")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{" warn ", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.input); got != tt.expected {
			t.Errorf("ParseLevel(%q) = %v, expected %v", tt.input, got, tt.expected)
		}
	}
}
