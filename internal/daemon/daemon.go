package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"

	"burnish/internal/config"
	"burnish/internal/gateway"
	"burnish/internal/gateway/openrouter"
	"burnish/internal/logging"
	"burnish/internal/notifications"
	"burnish/internal/orchestrator"
	"burnish/internal/pipeline"
	"burnish/internal/rules"
	"burnish/internal/sink/sqlitesink"
)

// Daemon wires the evaluation pipeline to its HTTP surface and enforces
// single-instance execution via a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *sqlitesink.Store
	orch     *orchestrator.Service
	notifier notifications.Service
	gw       gateway.Gateway

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running        bool
	PID            int
	DatabasePath   string
	LockFilePath   string
	Inflight       int
	GatewayHealthy bool
	Verdicts       map[pipeline.Verdict]int
}

// New constructs a daemon with initialized dependencies. The configured
// moderation policy is compiled once here; a bad rule expression fails
// startup rather than the first submission.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	store, err := sqlitesink.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}

	policy, err := rules.NewSetFromConfig(cfg.Rules)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("load moderation policy: %w", err)
	}

	var gw gateway.Gateway = openrouter.NewClient(openrouter.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	})
	gw = gateway.WithBreaker(gw, gateway.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		OpenFor:          time.Duration(cfg.Breaker.OpenSeconds) * time.Second,
	}, logger)

	pipe := pipeline.New(gw, policy, pipeline.Config{
		MaxAttempts: cfg.Pipeline.MaxAttempts,
		RetryBase:   secondsToDuration(cfg.Pipeline.RetryBaseSeconds),
		RetryMax:    secondsToDuration(cfg.Pipeline.RetryMaxSeconds),
	}, logger)

	notifier := notifications.NewService(cfg)
	orch := orchestrator.New(pipe, store, notifier, orchestrator.Config{
		SubmitTimeout:     time.Duration(cfg.Pipeline.SubmitTimeoutSeconds) * time.Second,
		SinkRetryAttempts: cfg.Sink.RetryAttempts,
		SinkRetryBase:     time.Duration(cfg.Sink.RetryBaseMS) * time.Millisecond,
	}, logger)

	lockPath := filepath.Join(cfg.Paths.StateDir, "burnishd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		orch:     orch,
		notifier: notifier,
		gw:       gw,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock and begins serving the API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another burnish daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.api != nil {
		if err := d.api.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
	}
	d.running.Store(true)
	d.logger.Info("daemon started",
		slog.String(logging.FieldComponent, "daemon"),
		slog.String("database", d.store.Path()),
		slog.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.running.Store(false)
	if d.api != nil {
		d.api.stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.ctx = nil
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock failed",
			slog.String(logging.FieldComponent, "daemon"),
			logging.Error(err))
	}
	if err := d.store.Close(); err != nil {
		d.logger.Warn("close store failed",
			slog.String(logging.FieldComponent, "daemon"),
			logging.Error(err))
	}
	d.logger.Info("daemon stopped", slog.String(logging.FieldComponent, "daemon"))
}

// Status reports current runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		Inflight:     d.orch.InflightCount(),
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	status.GatewayHealthy = d.gw.HealthCheck(pingCtx) == nil
	if summary, err := d.store.Summary(ctx); err == nil {
		status.Verdicts = summary
	}
	return status
}

// Orchestrator exposes the submission entrypoint for the API layer.
func (d *Daemon) Orchestrator() *orchestrator.Service { return d.orch }

// Store exposes the result store for the API layer.
func (d *Daemon) Store() *sqlitesink.Store { return d.store }

func secondsToDuration(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
