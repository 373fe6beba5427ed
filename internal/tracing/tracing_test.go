package tracing

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewProvider_Stdout(t *testing.T) {
	var buf bytes.Buffer
	tp, err := NewProvider(context.Background(), Config{Exporter: "stdout", Writer: &buf})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, span := tp.Tracer("test").Start(context.Background(), "stage accuracy_reviewer")
	span.End()

	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	if !strings.Contains(buf.String(), "stage accuracy_reviewer") {
		t.Errorf("span not exported:\n%s", buf.String())
	}
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Exporter: "jaeger"}); err == nil {
		t.Error("expected error")
	}
}

func TestInit_Disabled(t *testing.T) {
	shutdown, err := Init(context.Background(), Config{Enabled: false, Exporter: "jaeger"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Errorf("noop shutdown returned %v", err)
	}
}
