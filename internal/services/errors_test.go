package services_test

import (
	"errors"
	"strings"
	"testing"

	"supportflow/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransport, "RETRIEVE", "knowledge_base_search", "call failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"RETRIEVE", "knowledge_base_search", "call failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestIsFatal(t *testing.T) {
	if !services.IsFatal(services.Wrap(services.ErrConfiguration, "provider", "resolve", "unknown provider", nil)) {
		t.Fatal("expected configuration error to be fatal")
	}
	if services.IsFatal(services.Wrap(services.ErrProviderRejected, "ASK", "clarify_question", "http 500", nil)) {
		t.Fatal("expected provider rejection to be non-fatal")
	}
	if services.IsFatal(nil) {
		t.Fatal("expected nil to be non-fatal")
	}
}
