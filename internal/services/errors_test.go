package services_test

import (
	"errors"
	"strings"
	"testing"

	"burnish/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalService, "gateway", "generate", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalService) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"gateway", "generate", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "sink", "persist", "write failed", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestIsFatalClassification(t *testing.T) {
	fatal := services.Wrap(services.ErrValidation, "rules", "evaluate", "missing field", nil)
	if !services.IsFatal(fatal) {
		t.Fatalf("expected validation error to be fatal: %v", fatal)
	}
	transient := services.Wrap(services.ErrTransient, "gateway", "generate", "connection reset", errors.New("io"))
	if services.IsFatal(transient) {
		t.Fatalf("expected transient error to be non-fatal: %v", transient)
	}
	if services.IsFatal(nil) {
		t.Fatal("nil error must not be fatal")
	}
}
