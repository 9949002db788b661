//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"content-marketplace/internal/config"
)

func TestWith_AttachesContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := newWithWriter(config.LogConfig{Level: "debug", Format: "json"}, false, &buf)

	ctx := WithTraceID(context.Background(), "trace-1")
	ctx = WithUserID(ctx, "user-1")
	ctx = WithIntentID(ctx, "01J9ZQ")

	With(ctx, base).Info().Msg("hello")

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	for k, want := range map[string]string{"trace_id": "trace-1", "user_id": "user-1", "intent_id": "01J9ZQ", "message": "hello"} {
		if line[k] != want {
			t.Errorf("%s: want %q, got %v", k, want, line[k])
		}
	}
	if TraceID(ctx) != "trace-1" {
		t.Errorf("TraceID: got %q", TraceID(ctx))
	}
}

func TestNew_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(config.LogConfig{Level: "warn", Format: "json"}, false, &buf)
	l.Info().Msg("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info should be filtered at warn level, got %q", buf.String())
	}
	l.Warn().Msg("kept")
	if buf.Len() == 0 {
		t.Fatal("warn should be written")
	}
}

func TestRedact(t *testing.T) {
	if got := Redact("203.0.113.99", false); got != "203....99" {
		t.Errorf("unexpected redaction %q", got)
	}
	if got := Redact("short", false); got != "***" {
		t.Errorf("short values must be fully hidden, got %q", got)
	}
	if got := Redact("203.0.113.99", true); got != "203.0.113.99" {
		t.Errorf("dev mode must not redact, got %q", got)
	}
}
