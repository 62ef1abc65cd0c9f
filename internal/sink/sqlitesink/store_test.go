package sqlitesink

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"burnish/internal/config"
	"burnish/internal/gateway"
	"burnish/internal/pipeline"
	"burnish/internal/services"
	"burnish/internal/sink"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.StateDir = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	store, err := Open(&cfg)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func acceptedResult(id string) pipeline.Result {
	return pipeline.Result{
		SubmissionID: id,
		Verdict:      pipeline.VerdictAccepted,
		Metadata: &gateway.Candidate{
			Title:       "Cat Video Highlights",
			Description: "Calm cat moments.",
			Tags:        []string{"cats", "pets"},
			Confidence:  0.9,
			Provider:    "openrouter",
			Model:       "test/model",
		},
		Attempts:    1,
		CompletedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestPersistAndGetRoundTrip(t *testing.T) {
	store := newTestStore(t)
	want := acceptedResult("vid-1")

	if err := store.Persist(context.Background(), want); err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}
	got, err := store.GetBySubmissionID(context.Background(), "vid-1")
	if err != nil {
		t.Fatalf("GetBySubmissionID returned error: %v", err)
	}
	if got.Verdict != pipeline.VerdictAccepted {
		t.Fatalf("unexpected verdict %s", got.Verdict)
	}
	if got.Metadata == nil || got.Metadata.Title != want.Metadata.Title {
		t.Fatalf("metadata mismatch: %+v", got.Metadata)
	}
	if !reflect.DeepEqual(got.Metadata.Tags, want.Metadata.Tags) {
		t.Fatalf("tags mismatch: %v", got.Metadata.Tags)
	}
	if !got.CompletedAt.Equal(want.CompletedAt) {
		t.Fatalf("completed_at mismatch: %s vs %s", got.CompletedAt, want.CompletedAt)
	}
}

func TestPersistIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	result := acceptedResult("vid-1")

	if err := store.Persist(context.Background(), result); err != nil {
		t.Fatalf("first Persist returned error: %v", err)
	}
	if err := store.Persist(context.Background(), result); err != nil {
		t.Fatalf("second Persist returned error: %v", err)
	}

	results, err := store.List(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected one row after duplicate persist, got %d", len(results))
	}
}

func TestPersistRejectedCarriesReasonsWithoutMetadata(t *testing.T) {
	store := newTestStore(t)
	result := pipeline.Result{
		SubmissionID: "vid-2",
		Verdict:      pipeline.VerdictRejected,
		Reasons:      []string{"violence-tag-present", "confidence-below-threshold"},
		Attempts:     1,
		CompletedAt:  time.Now().UTC(),
	}
	if err := store.Persist(context.Background(), result); err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}

	got, err := store.GetBySubmissionID(context.Background(), "vid-2")
	if err != nil {
		t.Fatalf("GetBySubmissionID returned error: %v", err)
	}
	if !reflect.DeepEqual(got.Reasons, result.Reasons) {
		t.Fatalf("reasons mismatch: %v", got.Reasons)
	}
	if got.Metadata != nil {
		t.Fatalf("rejected rows must not restore metadata, got %+v", got.Metadata)
	}
}

func TestPersistRequiresSubmissionID(t *testing.T) {
	store := newTestStore(t)
	err := store.Persist(context.Background(), pipeline.Result{Verdict: pipeline.VerdictAccepted})
	if !errors.Is(err, sink.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestGetMissingResultIsNotFound(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetBySubmissionID(context.Background(), "nope")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFiltersAndOrders(t *testing.T) {
	store := newTestStore(t)
	base := time.Now().UTC()
	for i, spec := range []struct {
		id      string
		verdict pipeline.Verdict
	}{
		{"vid-1", pipeline.VerdictAccepted},
		{"vid-2", pipeline.VerdictRejected},
		{"vid-3", pipeline.VerdictAccepted},
	} {
		result := pipeline.Result{
			SubmissionID: spec.id,
			Verdict:      spec.verdict,
			Attempts:     1,
			CompletedAt:  base.Add(time.Duration(i) * time.Second),
		}
		if spec.verdict == pipeline.VerdictAccepted {
			result.Metadata = &gateway.Candidate{Title: "t", Confidence: 0.8}
		}
		if err := store.Persist(context.Background(), result); err != nil {
			t.Fatalf("Persist(%s) returned error: %v", spec.id, err)
		}
	}

	accepted, err := store.List(context.Background(), pipeline.VerdictAccepted, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(accepted) != 2 || accepted[0].SubmissionID != "vid-3" || accepted[1].SubmissionID != "vid-1" {
		t.Fatalf("unexpected accepted listing: %+v", accepted)
	}

	summary, err := store.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if summary[pipeline.VerdictAccepted] != 2 || summary[pipeline.VerdictRejected] != 1 {
		t.Fatalf("unexpected summary %v", summary)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	store := newTestStore(t)
	if err := store.Persist(context.Background(), acceptedResult("vid-1")); err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	results, err := store.List(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected empty store after clear, got %d rows", len(results))
	}
}
