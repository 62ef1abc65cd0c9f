package openrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"burnish/internal/gateway"
	"burnish/internal/submission"
)

func testSubmission() submission.Submission {
	return submission.Submission{
		ID:          "vid-7",
		Title:       "raw cut 7",
		Description: "A walkthrough of the new editor workspace.",
		Tags:        []string{"Editor", "editor", " demo "},
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "test/model",
	})
	return client, server
}

func TestGenerateParsesCandidate(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"title\":\"Editor Workspace Walkthrough\",\"description\":\"A tour of the new editor.\",\"tags\":[\"Editor\",\"demo\",\"editor\"],\"confidence\":1.4}"}}]}`))
	})

	candidate, err := client.Generate(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if candidate.Title != "Editor Workspace Walkthrough" {
		t.Fatalf("unexpected title %q", candidate.Title)
	}
	if len(candidate.Tags) != 2 || candidate.Tags[0] != "editor" || candidate.Tags[1] != "demo" {
		t.Fatalf("expected lowercased deduped tags, got %v", candidate.Tags)
	}
	if candidate.Confidence != 1 {
		t.Fatalf("expected confidence clamped to 1, got %v", candidate.Confidence)
	}
	if candidate.Provider != "openrouter" || candidate.Model != "test/model" {
		t.Fatalf("unexpected provenance %q/%q", candidate.Provider, candidate.Model)
	}
}

func TestGenerateStripsCodeFences(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"` + "```json\\n{\\\"title\\\":\\\"Clip\\\",\\\"description\\\":\\\"d\\\",\\\"tags\\\":[\\\"a\\\"],\\\"confidence\\\":0.9}\\n```" + `"}}]}`))
	})

	candidate, err := client.Generate(context.Background(), testSubmission())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if candidate.Title != "Clip" {
		t.Fatalf("unexpected title %q", candidate.Title)
	}
}

func TestGenerateRateLimitedMapsToUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	})

	_, err := client.Generate(context.Background(), testSubmission())
	if !errors.Is(err, gateway.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	hint, ok := gateway.RetryAfterHint(err)
	if !ok || hint != 7*time.Second {
		t.Fatalf("expected Retry-After hint of 7s, got %v (ok=%v)", hint, ok)
	}
}

func TestGenerateServerErrorMapsToUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	})

	_, err := client.Generate(context.Background(), testSubmission())
	if !errors.Is(err, gateway.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if !gateway.Retryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestGenerateBadRequestMapsToRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusBadRequest)
	})

	_, err := client.Generate(context.Background(), testSubmission())
	if !errors.Is(err, gateway.ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
	if gateway.Retryable(err) {
		t.Fatalf("rejection must not be retryable: %v", err)
	}
}

func TestGenerateRefusalMapsToRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"","refusal":"cannot assist with that"}}]}`))
	})

	_, err := client.Generate(context.Background(), testSubmission())
	if !errors.Is(err, gateway.ErrRejected) {
		t.Fatalf("expected ErrRejected for refusal, got %v", err)
	}
}

func TestGenerateUnparseableContentMapsToRejected(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"I think the title should be Clip."}}]}`))
	})

	_, err := client.Generate(context.Background(), testSubmission())
	if !errors.Is(err, gateway.ErrRejected) {
		t.Fatalf("expected ErrRejected for unparseable payload, got %v", err)
	}
}

func TestGenerateEmptyChoicesMapsToUnavailable(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Generate(context.Background(), testSubmission())
	if !errors.Is(err, gateway.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for empty choices, got %v", err)
	}
}

func TestGenerateContextDeadlineMapsToTimeout(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Generate(ctx, testSubmission())
	if !errors.Is(err, gateway.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if !gateway.Retryable(err) {
		t.Fatalf("timeouts must be retryable: %v", err)
	}
}

func TestGenerateMissingKeyFailsFast(t *testing.T) {
	client := NewClient(Config{Model: "test/model"})
	_, err := client.Generate(context.Background(), testSubmission())
	if !errors.Is(err, gateway.ErrRejected) {
		t.Fatalf("expected ErrRejected without api key, got %v", err)
	}
}

func TestDecodeModelJSONSurroundingProse(t *testing.T) {
	var parsed struct {
		Title string `json:"title"`
	}
	payload := "Here is the result:\n{\"title\": \"Clip\"}\nHope that helps."
	if err := DecodeModelJSON(payload, &parsed); err != nil {
		t.Fatalf("DecodeModelJSON returned error: %v", err)
	}
	if parsed.Title != "Clip" {
		t.Fatalf("unexpected title %q", parsed.Title)
	}
}

func TestHealthCheck(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}
