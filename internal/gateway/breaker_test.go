package gateway

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"burnish/internal/logging"
	"burnish/internal/submission"
)

type stubGateway struct {
	calls int
	err   error
}

func (s *stubGateway) Generate(ctx context.Context, sub submission.Submission) (Candidate, error) {
	s.calls++
	if s.err != nil {
		return Candidate{}, s.err
	}
	return Candidate{Title: "ok"}, nil
}

func (s *stubGateway) HealthCheck(ctx context.Context) error { return nil }

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubGateway{err: &UnavailableError{Cause: errors.New("boom")}}
	wrapped := WithBreaker(stub, BreakerConfig{FailureThreshold: 2, OpenFor: time.Minute}, logging.NewNop())

	sub := submission.Submission{ID: "vid-1"}
	for i := 0; i < 2; i++ {
		if _, err := wrapped.Generate(context.Background(), sub); !errors.Is(err, ErrUnavailable) {
			t.Fatalf("attempt %d: expected ErrUnavailable, got %v", i, err)
		}
	}
	if _, err := wrapped.Generate(context.Background(), sub); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected fail-fast ErrUnavailable while open, got %v", err)
	}
	if stub.calls != 2 {
		t.Fatalf("expected inner gateway untouched while open, got %d calls", stub.calls)
	}
}

func TestBreakerIgnoresRejections(t *testing.T) {
	stub := &stubGateway{err: fmt.Errorf("%w: refused", ErrRejected)}
	wrapped := WithBreaker(stub, BreakerConfig{FailureThreshold: 2, OpenFor: time.Minute}, logging.NewNop())

	sub := submission.Submission{ID: "vid-1"}
	for i := 0; i < 5; i++ {
		if _, err := wrapped.Generate(context.Background(), sub); !errors.Is(err, ErrRejected) {
			t.Fatalf("attempt %d: expected ErrRejected, got %v", i, err)
		}
	}
	if stub.calls != 5 {
		t.Fatalf("rejections must not trip the circuit, got %d calls", stub.calls)
	}
}

func TestBreakerDisabledPassesThrough(t *testing.T) {
	stub := &stubGateway{}
	wrapped := WithBreaker(stub, BreakerConfig{}, logging.NewNop())
	if wrapped != Gateway(stub) {
		t.Fatal("expected a zero threshold to return the inner gateway")
	}
}
