package util

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLoggerLevel(t *testing.T) {
	logger := NewLogger("debug")
	if logger.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("expected debug level, got %s", logger.GetLevel())
	}

	logger = NewLogger("invalid")
	if logger.GetLevel() != zerolog.InfoLevel {
		t.Fatalf("expected info fallback, got %s", logger.GetLevel())
	}
}

func TestNewLoggerToWritesSink(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "info")
	logger.Info().Str("symbol", "AAPL").Msg("tick")

	if !strings.Contains(buf.String(), `"symbol":"AAPL"`) {
		t.Fatalf("expected structured field in output, got %s", buf.String())
	}
	if !strings.Contains(buf.String(), `"time"`) {
		t.Fatalf("expected timestamp in output, got %s", buf.String())
	}
}
