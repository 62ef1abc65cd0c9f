// Package sqlitesink persists evaluation results in SQLite.
package sqlitesink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	_ "modernc.org/sqlite"

	"burnish/internal/config"
	"burnish/internal/pipeline"
	"burnish/internal/sink"
)

// Store is a Sink backed by SQLite. Writes are idempotent per submission id.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the results database under the configured
// state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.StateDir, "results.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Persist stores a terminal result. Repeated calls with the same submission
// id and verdict leave the database in the same observable state.
func (s *Store) Persist(ctx context.Context, result pipeline.Result) error {
	if strings.TrimSpace(result.SubmissionID) == "" {
		return fmt.Errorf("%w: submission id required", sink.ErrPersistence)
	}
	reasons, err := json.Marshal(append([]string{}, result.Reasons...))
	if err != nil {
		return fmt.Errorf("%w: encode reasons: %w", sink.ErrPersistence, err)
	}

	var (
		title       sql.NullString
		description sql.NullString
		tags        sql.NullString
		confidence  sql.NullFloat64
		provider    sql.NullString
		model       sql.NullString
	)
	if result.Metadata != nil {
		encodedTags, err := json.Marshal(append([]string{}, result.Metadata.Tags...))
		if err != nil {
			return fmt.Errorf("%w: encode tags: %w", sink.ErrPersistence, err)
		}
		title = nullableString(result.Metadata.Title)
		description = nullableString(result.Metadata.Description)
		tags = sql.NullString{String: string(encodedTags), Valid: true}
		confidence = sql.NullFloat64{Float64: result.Metadata.Confidence, Valid: true}
		provider = nullableString(result.Metadata.Provider)
		model = nullableString(result.Metadata.Model)
	}

	completedAt := result.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	const query = `
INSERT INTO enrichment_results (
    submission_id, verdict, reasons,
    title, description, tags, confidence, provider, model,
    attempts, completed_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(submission_id) DO UPDATE SET
    verdict = excluded.verdict,
    reasons = excluded.reasons,
    title = excluded.title,
    description = excluded.description,
    tags = excluded.tags,
    confidence = excluded.confidence,
    provider = excluded.provider,
    model = excluded.model,
    attempts = excluded.attempts,
    completed_at = excluded.completed_at,
    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

	if err := s.execWithRetry(ctx, query,
		result.SubmissionID, string(result.Verdict), string(reasons),
		title, description, tags, confidence, provider, model,
		result.Attempts, completedAt.UTC().Format(time.RFC3339Nano),
	); err != nil {
		return fmt.Errorf("%w: write result for %s: %w", sink.ErrPersistence, result.SubmissionID, err)
	}
	return nil
}

func nullableString(value string) sql.NullString {
	if strings.TrimSpace(value) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
