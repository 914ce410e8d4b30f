package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestInit_LevelAndJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("hidden")
	Warn().Str("table", "songs").Msg("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1: %q", len(lines), buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if ev["message"] != "shown" || ev["table"] != "songs" || ev["level"] != "warn" {
		t.Fatalf("event = %v", ev)
	}
}

func TestInit_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "verbose", Output: &buf})
	defer Init(DefaultConfig())

	Debug().Msg("hidden")
	Info().Msg("shown")
	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Fatalf("got %d lines, want 1", got)
	}
}
