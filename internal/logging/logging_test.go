package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "debug", "json")
	logger.Debug().Str("item", "btn-1").Msg("evaluated")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line, got %q: %v", buf.String(), err)
	}
	if entry["level"] != "debug" || entry["item"] != "btn-1" || entry["message"] != "evaluated" {
		t.Errorf("unexpected entry %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Error("expected timestamp field")
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "warn", "json")
	logger.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Errorf("info should be filtered at warn level, got %q", buf.String())
	}
	logger.Warn().Msg("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn should be written, got %q", buf.String())
	}
}

func TestNew_UnknownLevelDefaultsToInfo(t *testing.T) {
	for _, lvl := range []string{"", "verbose"} {
		logger := New(&bytes.Buffer{}, lvl, "json")
		if logger.GetLevel() != zerolog.InfoLevel {
			t.Errorf("level %q: got %s, want info", lvl, logger.GetLevel())
		}
	}
}

func TestNew_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "console")
	logger.Info().Msg("listening")
	if strings.HasPrefix(buf.String(), "{") {
		t.Errorf("console output should not be JSON: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "listening") {
		t.Errorf("missing message in %q", buf.String())
	}
}
