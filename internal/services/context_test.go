package services_test

import (
	"context"
	"testing"

	"burnish/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSubmissionID(ctx, "vid-42")
	ctx = services.WithStage(ctx, "generating")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.SubmissionIDFromContext(ctx); !ok || id != "vid-42" {
		t.Fatalf("unexpected submission id: %v %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "generating" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "")
	ctx = services.WithSubmissionID(ctx, "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected no stage value")
	}
	if _, ok := services.SubmissionIDFromContext(ctx); ok {
		t.Fatal("expected no submission id value")
	}
}
