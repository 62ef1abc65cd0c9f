// Package gateway defines the boundary to the AI enrichment provider: the
// Generate contract, the Candidate it produces, and the error taxonomy the
// pipeline's retry policy is built on.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"burnish/internal/submission"
)

// Candidate is the provider's proposed metadata for one submission. It lives
// for the duration of a single evaluation and is discarded once a verdict is
// reached (accepted candidates are copied into the persisted result).
type Candidate struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	// Confidence is the provider's self-reported score, clamped to [0,1].
	Confidence float64 `json:"confidence"`
	// Provider and Model record provenance for auditing.
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Raw      string `json:"-"`
}

// Gateway produces a metadata candidate for a submission. Implementations must
// honor the context deadline and be safe for concurrent use. This is the only
// component permitted to perform network I/O.
type Gateway interface {
	Generate(ctx context.Context, sub submission.Submission) (Candidate, error)
	HealthCheck(ctx context.Context) error
}

var (
	// ErrUnavailable marks transient provider failures worth retrying.
	ErrUnavailable = errors.New("gateway unavailable")
	// ErrRejected marks a terminal provider refusal; retrying cannot help.
	ErrRejected = errors.New("gateway rejected input")
	// ErrTimeout marks a deadline expiry while waiting on the provider.
	ErrTimeout = errors.New("gateway timeout")
)

// Retryable reports whether the pipeline should retry after this error.
func Retryable(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
}

// UnavailableError wraps a transient failure and optionally carries the
// provider's Retry-After hint.
type UnavailableError struct {
	Cause      error
	RetryAfter time.Duration
}

func (e *UnavailableError) Error() string {
	if e.Cause == nil {
		return ErrUnavailable.Error()
	}
	return fmt.Sprintf("%s: %s", ErrUnavailable.Error(), e.Cause.Error())
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// RetryAfterHint extracts the provider's Retry-After delay if the error
// carries one.
func RetryAfterHint(err error) (time.Duration, bool) {
	var unavailable *UnavailableError
	if errors.As(err, &unavailable) && unavailable.RetryAfter > 0 {
		return unavailable.RetryAfter, true
	}
	return 0, false
}
