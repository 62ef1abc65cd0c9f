// Package sink defines the output port that durably records evaluation
// results.
package sink

import (
	"context"
	"errors"

	"burnish/internal/pipeline"
)

// ErrPersistence marks a write that could not be stored durably. The caller
// keeps the computed result so the write can be retried without re-running
// the evaluation.
var ErrPersistence = errors.New("persistence failure")

// Sink stores terminal results. Persist must be idempotent for repeated
// calls with the same submission id and verdict, and implementations must be
// safe for concurrent use.
type Sink interface {
	Persist(ctx context.Context, result pipeline.Result) error
}
