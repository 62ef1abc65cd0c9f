// Package pipeline drives a submission through generation and validation to
// a terminal verdict.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"burnish/internal/gateway"
	"burnish/internal/logging"
	"burnish/internal/metrics"
	"burnish/internal/rules"
	"burnish/internal/submission"
)

// Config bounds the retry behavior of one pipeline run.
type Config struct {
	// MaxAttempts is the number of gateway calls made before giving up on
	// transient failures.
	MaxAttempts int
	// RetryBase is the first backoff delay; it doubles per attempt.
	RetryBase time.Duration
	// RetryMax caps the backoff delay.
	RetryMax time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = time.Second
	}
	if c.RetryMax <= 0 {
		c.RetryMax = 30 * time.Second
	}
	return c
}

// Pipeline evaluates submissions. It is stateless between runs and safe for
// concurrent use; retry state lives on the stack of each Run call.
type Pipeline struct {
	gw     gateway.Gateway
	policy *rules.Set
	cfg    Config
	logger *slog.Logger

	// sleep is swapped out in tests to avoid real backoff delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a pipeline over the given gateway and moderation policy.
func New(gw gateway.Gateway, policy *rules.Set, cfg Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		gw:     gw,
		policy: policy,
		cfg:    cfg.withDefaults(),
		logger: logger,
		sleep:  contextSleep,
	}
}

// Run takes a submission to a terminal verdict. The state machine is
// Generating then Validating; transient gateway failures re-enter Generating
// with exponential backoff until the attempt bound or the context deadline
// is hit. The only error return is a fatal *rules.EvaluationError; every
// other outcome is a verdict.
func (p *Pipeline) Run(ctx context.Context, sub submission.Submission) (Result, error) {
	start := time.Now()
	result, err := p.run(ctx, sub)
	if err != nil {
		return Result{}, err
	}
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	metrics.VerdictsTotal.WithLabelValues(string(result.Verdict)).Inc()
	return result, nil
}

func (p *Pipeline) run(ctx context.Context, sub submission.Submission) (Result, error) {
	logger := p.logger.With(
		slog.String(logging.FieldComponent, "pipeline"),
		slog.String(logging.FieldSubmissionID, sub.ID),
	)

	candidate, attempts, verdict := p.generate(ctx, sub, logger)
	if verdict != nil {
		return *verdict, nil
	}

	violations, err := p.policy.Evaluate(candidate, sub)
	if err != nil {
		// A rule that cannot execute is a pipeline defect, not a policy
		// rejection. Surface it instead of producing a verdict.
		logger.Error("rule evaluation failed",
			slog.String(logging.FieldStage, "validating"),
			logging.Error(err))
		return Result{}, err
	}
	if len(violations) > 0 {
		logger.Info("candidate rejected",
			slog.String(logging.FieldStage, "validating"),
			slog.String(logging.FieldVerdict, string(VerdictRejected)),
			slog.Any("reasons", violations))
		return p.terminal(sub, VerdictRejected, violations, nil, attempts), nil
	}

	logger.Info("candidate accepted",
		slog.String(logging.FieldStage, "validating"),
		slog.String(logging.FieldVerdict, string(VerdictAccepted)),
		slog.Int("attempts", attempts))
	return p.terminal(sub, VerdictAccepted, nil, &candidate, attempts), nil
}

// generate runs the Generating state. It returns either a candidate to
// validate or a terminal verdict (rejection or exhaustion).
func (p *Pipeline) generate(ctx context.Context, sub submission.Submission, logger *slog.Logger) (gateway.Candidate, int, *Result) {
	var lastReason string
	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		candidate, err := p.gw.Generate(ctx, sub)
		if err == nil {
			if ctx.Err() != nil {
				// The deadline elapsed while the call was in flight, so the
				// result is discarded.
				metrics.GatewayAttempts.WithLabelValues(metrics.GatewayResultTimeout).Inc()
				verdict := p.terminal(sub, VerdictRetryExhausted, []string{ReasonDeadlineExceeded}, nil, attempt)
				return gateway.Candidate{}, attempt, &verdict
			}
			metrics.GatewayAttempts.WithLabelValues(metrics.GatewayResultOK).Inc()
			return candidate, attempt, nil
		}

		switch {
		case errors.Is(err, gateway.ErrRejected):
			metrics.GatewayAttempts.WithLabelValues(metrics.GatewayResultRejected).Inc()
			logger.Info("gateway declined submission",
				slog.String(logging.FieldStage, "generating"),
				logging.Error(err))
			verdict := p.terminal(sub, VerdictRejected, []string{ReasonGenerationDeclined}, nil, attempt)
			return gateway.Candidate{}, attempt, &verdict
		case errors.Is(err, gateway.ErrTimeout):
			metrics.GatewayAttempts.WithLabelValues(metrics.GatewayResultTimeout).Inc()
			lastReason = ReasonGatewayTimeout
		default:
			metrics.GatewayAttempts.WithLabelValues(metrics.GatewayResultUnavailable).Inc()
			lastReason = ReasonGatewayUnavailable
		}

		logger.Warn("gateway attempt failed",
			slog.String(logging.FieldStage, "generating"),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.cfg.MaxAttempts),
			logging.Error(err))

		if attempt == p.cfg.MaxAttempts {
			break
		}
		delay := p.backoffDelay(attempt)
		if hint, ok := gateway.RetryAfterHint(err); ok && hint > delay {
			delay = min(hint, p.cfg.RetryMax)
		}
		if sleepErr := p.sleep(ctx, delay); sleepErr != nil {
			verdict := p.terminal(sub, VerdictRetryExhausted, []string{ReasonDeadlineExceeded}, nil, attempt)
			return gateway.Candidate{}, attempt, &verdict
		}
	}

	if lastReason == "" {
		lastReason = ReasonGatewayUnavailable
	}
	verdict := p.terminal(sub, VerdictRetryExhausted, []string{lastReason}, nil, p.cfg.MaxAttempts)
	return gateway.Candidate{}, p.cfg.MaxAttempts, &verdict
}

func (p *Pipeline) terminal(sub submission.Submission, verdict Verdict, reasons []string, candidate *gateway.Candidate, attempts int) Result {
	return Result{
		SubmissionID: sub.ID,
		Verdict:      verdict,
		Reasons:      reasons,
		Metadata:     candidate,
		Attempts:     attempts,
		CompletedAt:  time.Now().UTC(),
	}
}

func (p *Pipeline) backoffDelay(attempt int) time.Duration {
	delay := p.cfg.RetryBase
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= p.cfg.RetryMax {
			return p.cfg.RetryMax
		}
	}
	if delay > p.cfg.RetryMax {
		return p.cfg.RetryMax
	}
	return delay
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
