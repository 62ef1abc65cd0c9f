package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"burnish/internal/submission"
)

// BreakerConfig controls when the circuit trips and how long it stays open.
type BreakerConfig struct {
	// FailureThreshold is the number of consecutive failures before the
	// circuit opens. Zero disables the breaker.
	FailureThreshold int
	// OpenFor is how long requests are refused before a probe is allowed.
	OpenFor time.Duration
}

type breakerGateway struct {
	inner   Gateway
	breaker *gobreaker.CircuitBreaker[Candidate]
	logger  *slog.Logger
}

// WithBreaker wraps a gateway in a circuit breaker. When the circuit is open,
// Generate fails fast with ErrUnavailable instead of hitting the provider.
// Rejections are the provider answering, not the provider failing, so they do
// not count toward tripping the circuit.
func WithBreaker(inner Gateway, cfg BreakerConfig, logger *slog.Logger) Gateway {
	if cfg.FailureThreshold <= 0 {
		return inner
	}
	if logger == nil {
		logger = slog.Default()
	}
	openFor := cfg.OpenFor
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	settings := gobreaker.Settings{
		Name:    "gateway",
		Timeout: openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.FailureThreshold)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("gateway circuit state change",
				slog.String("component", "gateway"),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			return errors.Is(err, ErrRejected)
		},
	}
	return &breakerGateway{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[Candidate](settings),
		logger:  logger,
	}
}

func (g *breakerGateway) Generate(ctx context.Context, sub submission.Submission) (Candidate, error) {
	candidate, err := g.breaker.Execute(func() (Candidate, error) {
		return g.inner.Generate(ctx, sub)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Candidate{}, &UnavailableError{Cause: fmt.Errorf("circuit open: %w", err)}
		}
		return Candidate{}, err
	}
	return candidate, nil
}

func (g *breakerGateway) HealthCheck(ctx context.Context) error {
	return g.inner.HealthCheck(ctx)
}
