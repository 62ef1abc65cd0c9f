// Package orchestrator ties the evaluation pipeline to its ports. It owns
// per-submission concurrency policy: concurrent submissions for the same id
// coalesce onto a single pipeline run, and every run is bounded by an
// overall deadline spanning all gateway retries.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"burnish/internal/logging"
	"burnish/internal/metrics"
	"burnish/internal/notifications"
	"burnish/internal/pipeline"
	"burnish/internal/services"
	"burnish/internal/sink"
	"burnish/internal/submission"
)

// Config bounds a submission's lifetime and the sink retry policy.
type Config struct {
	// SubmitTimeout caps one evaluation end to end, including all gateway
	// retries. Zero means no orchestrator-imposed deadline.
	SubmitTimeout time.Duration
	// SinkRetryAttempts is the number of persist attempts before surfacing
	// a persistence failure.
	SinkRetryAttempts int
	// SinkRetryBase is the first delay between persist attempts; it doubles
	// per retry.
	SinkRetryBase time.Duration
}

func (c Config) withDefaults() Config {
	if c.SinkRetryAttempts <= 0 {
		c.SinkRetryAttempts = 3
	}
	if c.SinkRetryBase <= 0 {
		c.SinkRetryBase = 100 * time.Millisecond
	}
	return c
}

// PersistenceError reports that a verdict was computed but could not be
// stored. The result is retained so the caller can retry persistence without
// re-invoking the gateway.
type PersistenceError struct {
	Result pipeline.Result
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist result for %s: %v", e.Result.SubmissionID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// flight tracks one in-progress evaluation that late arrivals attach to.
type flight struct {
	done   chan struct{}
	result pipeline.Result
	err    error
}

// Service is the public entrypoint for submission evaluation. It is safe for
// concurrent use.
type Service struct {
	pipe     *pipeline.Pipeline
	store    sink.Sink
	notifier notifications.Service
	cfg      Config
	logger   *slog.Logger

	mu       sync.Mutex
	inflight map[string]*flight

	// sleep is swapped out in tests to avoid real sink backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds an orchestration service over the pipeline and sink.
func New(pipe *pipeline.Pipeline, store sink.Sink, notifier notifications.Service, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	if notifier == nil {
		notifier = notifications.NewNop()
	}
	return &Service{
		pipe:     pipe,
		store:    store,
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		inflight: make(map[string]*flight),
		sleep:    contextSleep,
	}
}

// Submit evaluates a submission to a terminal verdict and persists it.
// Concurrent calls with the same submission id collapse onto a single
// pipeline run; every caller receives the same result. The error return is
// non-nil only for invalid input, a fatal rule evaluation failure, or a
// persistence failure after the verdict was computed.
func (s *Service) Submit(ctx context.Context, sub submission.Submission) (pipeline.Result, error) {
	if err := sub.Validate(); err != nil {
		return pipeline.Result{}, err
	}
	metrics.SubmissionsTotal.Inc()

	s.mu.Lock()
	if existing, ok := s.inflight[sub.ID]; ok {
		s.mu.Unlock()
		metrics.SubmissionsCoalesced.Inc()
		s.logger.Debug("submission coalesced onto in-flight evaluation",
			slog.String(logging.FieldComponent, "orchestrator"),
			slog.String(logging.FieldSubmissionID, sub.ID))
		select {
		case <-existing.done:
			return existing.result, existing.err
		case <-ctx.Done():
			return pipeline.Result{}, ctx.Err()
		}
	}
	current := &flight{done: make(chan struct{})}
	s.inflight[sub.ID] = current
	s.mu.Unlock()

	result, err := s.evaluate(ctx, sub)

	s.mu.Lock()
	current.result = result
	current.err = err
	delete(s.inflight, sub.ID)
	s.mu.Unlock()
	close(current.done)

	return result, err
}

func (s *Service) evaluate(ctx context.Context, sub submission.Submission) (pipeline.Result, error) {
	correlationID := uuid.NewString()
	ctx = services.WithSubmissionID(ctx, sub.ID)
	ctx = services.WithRequestID(ctx, correlationID)
	logger := s.logger.With(
		slog.String(logging.FieldComponent, "orchestrator"),
		slog.String(logging.FieldSubmissionID, sub.ID),
		slog.String(logging.FieldCorrelationID, correlationID),
	)

	if s.cfg.SubmitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.SubmitTimeout)
		defer cancel()
	}

	metrics.InflightEvaluations.Inc()
	defer metrics.InflightEvaluations.Dec()

	result, err := s.pipe.Run(ctx, sub)
	if err != nil {
		// Fatal rule evaluation failure: a pipeline defect, not a verdict.
		logger.Error("evaluation failed", logging.Error(err))
		_ = s.notifier.NotifyError(context.WithoutCancel(ctx), err, "evaluating "+sub.ID)
		return pipeline.Result{}, err
	}

	if persistErr := s.persist(ctx, result, logger); persistErr != nil {
		return result, persistErr
	}
	s.notify(context.WithoutCancel(ctx), result)
	return result, nil
}

// persist writes the result with bounded retries. The verdict is never lost:
// on exhaustion it is returned to the caller inside a *PersistenceError.
func (s *Service) persist(ctx context.Context, result pipeline.Result, logger *slog.Logger) error {
	// Persistence proceeds even when the submission deadline has elapsed;
	// losing a computed verdict is worse than a late write.
	persistCtx := context.WithoutCancel(ctx)

	var lastErr error
	for attempt := 1; attempt <= s.cfg.SinkRetryAttempts; attempt++ {
		lastErr = s.store.Persist(persistCtx, result)
		if lastErr == nil {
			return nil
		}
		logger.Warn("sink write failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", s.cfg.SinkRetryAttempts),
			logging.Error(lastErr))
		if attempt == s.cfg.SinkRetryAttempts {
			break
		}
		metrics.SinkRetries.Inc()
		delay := s.cfg.SinkRetryBase << (attempt - 1)
		if err := s.sleep(persistCtx, delay); err != nil {
			break
		}
	}

	logger.Error("sink retries exhausted, verdict retained", logging.Error(lastErr))
	_ = s.notifier.NotifyError(persistCtx, lastErr, "persisting "+result.SubmissionID)
	return &PersistenceError{Result: result, Err: lastErr}
}

func (s *Service) notify(ctx context.Context, result pipeline.Result) {
	var err error
	switch result.Verdict {
	case pipeline.VerdictAccepted:
		err = s.notifier.NotifyAccepted(ctx, result)
	case pipeline.VerdictRejected:
		err = s.notifier.NotifyRejected(ctx, result)
	case pipeline.VerdictRetryExhausted:
		err = s.notifier.NotifyRetryExhausted(ctx, result)
	}
	if err != nil {
		s.logger.Warn("notification failed",
			slog.String(logging.FieldComponent, "orchestrator"),
			slog.String(logging.FieldSubmissionID, result.SubmissionID),
			logging.Error(err))
	}
}

// InflightCount reports how many evaluations are currently running.
func (s *Service) InflightCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.inflight)
}

func contextSleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
