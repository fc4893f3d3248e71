package logging

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestSetLogger(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	Named("registry").Debug("registered", zap.String("name", "Point"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].LoggerName != "registry" {
		t.Errorf("LoggerName = %q, want registry", entries[0].LoggerName)
	}
	if entries[0].ContextMap()["name"] != "Point" {
		t.Errorf("context = %v, want name=Point", entries[0].ContextMap())
	}
}

func TestLogger_DefaultNop(t *testing.T) {
	SetLogger(nil)
	if Logger() == nil {
		t.Fatal("Logger() returned nil")
	}
	// Must not panic
	Logger().Info("discarded")
}
