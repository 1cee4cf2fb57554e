package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

func TestConfigureLogger(t *testing.T) {
	t.Run("sets level", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&buf)
		ConfigureLogger(l, LogConfig{Level: "warn"})

		l.Info("hidden")
		l.Warn("shown")

		if strings.Contains(buf.String(), "hidden") {
			t.Error("info entries should be filtered at warn level")
		}
		if !strings.Contains(buf.String(), "shown") {
			t.Error("warn entries should be written")
		}
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		l := NewLogger(&bytes.Buffer{})
		ConfigureLogger(l, LogConfig{Level: "chatty"})
		if l.GetLevel() != log.InfoLevel {
			t.Errorf("expected info level, got %s", l.GetLevel())
		}
	})

	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(&buf)
		ConfigureLogger(l, LogConfig{Level: "info", Format: "json"})
		l.Info("hello", "key", "value")

		if !strings.HasPrefix(strings.TrimSpace(buf.String()), "{") {
			t.Errorf("expected JSON output, got %q", buf.String())
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected unique ids")
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Errorf("expected a valid uuid, got %s", a)
	}
}
