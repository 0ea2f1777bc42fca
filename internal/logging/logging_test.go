package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestJSONLoggerIncludesFieldsAndActivationID(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf})

	ctx := ContextWithActivationID(context.Background(), "act-1")
	log.With(String("scenario", "conflict")).Info(ctx, "scenario activated",
		Int("steps", 6),
		Err(errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &rec); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	for key, want := range map[string]any{
		"msg":           "scenario activated",
		"scenario":      "conflict",
		"steps":         float64(6),
		"error":         "boom",
		"activation_id": "act-1",
	} {
		if rec[key] != want {
			t.Fatalf("%s = %v, want %v", key, rec[key], want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})

	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line leaked through warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn line missing: %s", out)
	}
}

func TestEnsureRequestIDIsStable(t *testing.T) {
	ctx, id := EnsureRequestID(context.Background())
	if id == "" {
		t.Fatalf("expected generated request id")
	}
	_, again := EnsureRequestID(ctx)
	if again != id {
		t.Fatalf("EnsureRequestID regenerated id: %q != %q", again, id)
	}
}

func TestFromContextFallsBack(t *testing.T) {
	if FromContext(context.Background(), nil) == nil {
		t.Fatalf("expected noop logger fallback")
	}
	l := Noop()
	ctx := ContextWithLogger(context.Background(), l)
	if FromContext(ctx, nil) != l {
		t.Fatalf("expected stored logger")
	}
}
