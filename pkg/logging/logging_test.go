package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelInfo, Format: FormatText, Output: &buf})
	logger.Info("server started", "port", 8080)

	out := buf.String()
	if !strings.Contains(out, "server started") || !strings.Contains(out, "port=8080") {
		t.Fatalf("unexpected text log output: %q", out)
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelDebug, Format: FormatJSON, Output: &buf})
	logger.Debug("matched mock", "url", "https://api.example.com/users")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected valid JSON log line: %v", err)
	}
	if entry["msg"] != "matched mock" {
		t.Fatalf("unexpected msg: %v", entry["msg"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: LevelWarn, Format: FormatText, Output: &buf})
	logger.Debug("should not appear")
	logger.Info("should not appear either")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below configured level, got %q", buf.String())
	}
	logger.Warn("should appear")
	if !strings.Contains(buf.String(), "should appear") {
		t.Fatalf("expected warn line, got %q", buf.String())
	}
}

func TestNop(t *testing.T) {
	logger := Nop()
	logger.Error("discarded", "err", "boom")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"":        LevelInfo,
		"warning": LevelWarn,
		"ERROR":   LevelError,
		"bogus":   LevelInfo,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("json") != FormatJSON {
		t.Error("expected json format")
	}
	if ParseFormat("text") != FormatText {
		t.Error("expected text format")
	}
	if ParseFormat("nonsense") != FormatText {
		t.Error("expected fallback to text format")
	}
}

func TestForPlugin(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: LevelInfo, Format: FormatJSON, Output: &buf})
	pl := ForPlugin(base, "rate-limit")
	pl.Info("tick")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if entry["plugin"] != "rate-limit" {
		t.Fatalf("expected plugin attribute, got %v", entry["plugin"])
	}
}

func TestForPluginNilBase(t *testing.T) {
	pl := ForPlugin(nil, "x")
	pl.Info("should not panic")
}
