package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" INFO ":  zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"loud":    zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestObjHelpersLogStructuredField(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(zap.New(core))

	log.InfoObj("articles loaded", "fetch_result", map[string]any{"fetched": 2})
	log.WarnObj("snapshot save failed", "storage_error", map[string]any{"error": "disk full"})

	if logs.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "articles loaded" || entry.Level != zapcore.InfoLevel {
		t.Fatalf("unexpected entry %+v", entry)
	}
	field, ok := entry.ContextMap()["fetch_result"].(map[string]any)
	if !ok || field["fetched"] != 2 {
		t.Fatalf("expected fetch_result field, got %#v", entry.ContextMap())
	}
}

func TestEnsureAndNil(t *testing.T) {
	if _, ok := Ensure(nil).(NopLogger); !ok {
		t.Fatalf("Ensure(nil) should return a NopLogger")
	}
	if _, ok := New(nil).(NopLogger); !ok {
		t.Fatalf("New(nil) should return a NopLogger")
	}
	Ensure(nil).ErrorObj("ignored", "k", 1)
}
