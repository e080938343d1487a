package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSONFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "debug", "json")
	log.Debug("hello", slog.String("k", "v"))
	out := buf.String()
	if !strings.HasPrefix(out, "{") || !strings.Contains(out, `"k":"v"`) {
		t.Fatalf("unexpected json output: %s", out)
	}
}

func TestNewTextFormatFiltersLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := New(&buf, "warn", "text")
	log.Info("dropped")
	log.Warn("kept")
	out := buf.String()
	if strings.Contains(out, "dropped") || !strings.Contains(out, "kept") {
		t.Fatalf("unexpected text output: %s", out)
	}
}

func TestRelayIDRoundTrip(t *testing.T) {
	t.Parallel()

	id := NewRelayID()
	if len(id) != 36 {
		t.Fatalf("unexpected relay id %q", id)
	}
	ctx := WithRelayID(context.Background(), id)
	if got := RelayID(ctx); got != id {
		t.Fatalf("RelayID = %q, want %q", got, id)
	}
	if got := RelayID(context.Background()); got != "" {
		t.Fatalf("RelayID on empty ctx = %q", got)
	}

	var buf bytes.Buffer
	FromContext(ctx, New(&buf, "info", "text")).Info("x")
	if !strings.Contains(buf.String(), "relay_id="+id) {
		t.Fatalf("missing relay id in %q", buf.String())
	}
}
