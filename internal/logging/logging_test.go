package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/conorfennell/recall/internal/config"
)

func TestParseLevel(t *testing.T) {
	testCases := map[string]slog.Level{
		"debug":  slog.LevelDebug,
		" WARN ": slog.LevelWarn,
		"error":  slog.LevelError,
		"info":   slog.LevelInfo,
		"":       slog.LevelInfo,
		"trace":  slog.LevelInfo,
	}
	for in, expected := range testCases {
		if got := ParseLevel(in); got != expected {
			t.Errorf("ParseLevel(%q): expected %v, got %v", in, expected, got)
		}
	}
}

func TestNew(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(config.LogConfig{Level: "warn", Format: "json"}, &buf)
		log.Info("dropped")
		log.Warn("kept", "card_id", "hola")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("Expected one line at warn level, got %q", buf.String())
		}
		var rec map[string]any
		if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
			t.Fatalf("Expected JSON output: %v", err)
		}
		if rec["msg"] != "kept" || rec["card_id"] != "hola" {
			t.Errorf("Unexpected record %v", rec)
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		New(config.LogConfig{Level: "debug", Format: "text"}, &buf)
		slog.Debug("installed as default")
		if !strings.Contains(buf.String(), "msg=\"installed as default\"") {
			t.Errorf("Expected default logger to write text, got %q", buf.String())
		}
	})
}
