package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogAuditEvent(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	ctx := contextWithLogger(context.Background(), zap.New(core))

	LogAuditEvent(ctx, "unsubscribe", "203.0.113.9", "subscriber", "j***@example.com", "success",
		map[string]any{"row": 4})

	entries := recorded.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Message != "Audit event" {
		t.Fatalf("unexpected message %q", entries[0].Message)
	}
	fields := entries[0].ContextMap()
	want := map[string]string{
		"audit.action":        "unsubscribe",
		"audit.actor":         "203.0.113.9",
		"audit.resource_type": "subscriber",
		"audit.resource_id":   "j***@example.com",
		"audit.result":        "success",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("expected %s=%q, got %v", k, v, fields[k])
		}
	}
	details, ok := fields["audit.details"].(map[string]any)
	if !ok || details["row"] != 4 {
		t.Fatalf("unexpected details: %#v", fields["audit.details"])
	}
}
