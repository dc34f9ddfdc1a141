package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewInvalidLevel(t *testing.T) {
	cfg := &Config{
		Level:  "invalid-level",
		Format: "json",
		Output: "stderr",
	}
	l := New(cfg, "test")
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	l := NewFromEnv("env-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestWriterOutput(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "svc").WithComponent("dispatch")
	l.Info("hello", Fields("units", 3))

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json log line, got %q: %v", buf.String(), err)
	}
	if line["component"] != "dispatch" {
		t.Errorf("expected component field, got %v", line["component"])
	}
	if line["units"] != float64(3) {
		t.Errorf("expected units field 3, got %v", line["units"])
	}
	if line["message"] != "hello" {
		t.Errorf("expected message 'hello', got %v", line["message"])
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, "svc").WithError(errors.New("boom"))
	l.Error("failed")

	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected error in output, got %q", buf.String())
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected level info, got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format console, got %q", cfg.Format)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := &Config{Level: "verbose", Format: "json"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid level")
	}
	cfg = &Config{Level: "info", Format: "xml"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two")
	if m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected fields: %v", m)
	}
	// Odd trailing value is dropped.
	m = Fields("a", 1, "orphan")
	if len(m) != 1 {
		t.Errorf("expected 1 field, got %v", m)
	}
}

func TestDurationFields(t *testing.T) {
	m := DurationFields("dispatch", 1500*time.Millisecond)
	if m[FieldDuration] != int64(1500) {
		t.Errorf("expected 1500ms, got %v", m[FieldDuration])
	}
}
