package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	SetLogger(zap.New(core))
	defer SetLogger(nil)

	ctx := NewContextS(context.Background(), "session_id", "abc")
	ctx = NewContext(ctx, zap.String("track", "video"))
	FromContextS(ctx).Info("hello")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["session_id"] != "abc" || fields["track"] != "video" {
		t.Errorf("unexpected fields %v", fields)
	}
}

func TestSetLogger_nil(t *testing.T) {
	SetLogger(nil)
	if FromContext(context.Background()) == nil {
		t.Fatal("nil logger must be replaced by a nop logger")
	}
	FromContextS(context.Background()).Info("no panic")
}
