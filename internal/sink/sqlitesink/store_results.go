package sqlitesink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"burnish/internal/gateway"
	"burnish/internal/pipeline"
	"burnish/internal/services"
)

const resultColumns = `submission_id, verdict, reasons,
    title, description, tags, confidence, provider, model,
    attempts, completed_at`

// GetBySubmissionID returns the stored result for one submission.
func (s *Store) GetBySubmissionID(ctx context.Context, submissionID string) (pipeline.Result, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+resultColumns+" FROM enrichment_results WHERE submission_id = ?", submissionID)
	result, err := scanResult(row)
	if errors.Is(err, sql.ErrNoRows) {
		return pipeline.Result{}, services.Wrap(services.ErrNotFound, "sink", "get",
			fmt.Sprintf("no result for submission %q", submissionID), nil)
	}
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("get result for %s: %w", submissionID, err)
	}
	return result, nil
}

// List returns stored results, newest first, optionally filtered by verdict.
// A limit of zero or less means no limit.
func (s *Store) List(ctx context.Context, verdict pipeline.Verdict, limit int) ([]pipeline.Result, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + resultColumns + " FROM enrichment_results"
	var args []any
	if verdict != "" {
		query += " WHERE verdict = ?"
		args = append(args, string(verdict))
	}
	query += " ORDER BY completed_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []pipeline.Result
	for rows.Next() {
		result, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return results, nil
}

// Summary reports how many results are stored per verdict.
func (s *Store) Summary(ctx context.Context) (map[pipeline.Verdict]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT verdict, COUNT(1) FROM enrichment_results GROUP BY verdict")
	if err != nil {
		return nil, fmt.Errorf("summarize results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	summary := make(map[pipeline.Verdict]int)
	for rows.Next() {
		var verdict string
		var count int
		if err := rows.Scan(&verdict, &count); err != nil {
			return nil, fmt.Errorf("scan summary row: %w", err)
		}
		summary[pipeline.Verdict(verdict)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summary: %w", err)
	}
	return summary, nil
}

// Clear removes every stored result.
func (s *Store) Clear(ctx context.Context) error {
	return s.execWithRetry(ensureContext(ctx), "DELETE FROM enrichment_results")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (pipeline.Result, error) {
	var (
		result      pipeline.Result
		verdict     string
		rawReasons  string
		title       sql.NullString
		description sql.NullString
		rawTags     sql.NullString
		confidence  sql.NullFloat64
		provider    sql.NullString
		model       sql.NullString
		completedAt string
	)
	if err := row.Scan(
		&result.SubmissionID, &verdict, &rawReasons,
		&title, &description, &rawTags, &confidence, &provider, &model,
		&result.Attempts, &completedAt,
	); err != nil {
		return pipeline.Result{}, err
	}

	result.Verdict = pipeline.Verdict(verdict)
	if strings.TrimSpace(rawReasons) != "" {
		if err := json.Unmarshal([]byte(rawReasons), &result.Reasons); err != nil {
			return pipeline.Result{}, fmt.Errorf("decode reasons: %w", err)
		}
	}
	if len(result.Reasons) == 0 {
		result.Reasons = nil
	}
	if when, err := time.Parse(time.RFC3339Nano, completedAt); err == nil {
		result.CompletedAt = when
	}

	if result.Verdict == pipeline.VerdictAccepted {
		candidate := gateway.Candidate{
			Title:       title.String,
			Description: description.String,
			Confidence:  confidence.Float64,
			Provider:    provider.String,
			Model:       model.String,
		}
		if rawTags.Valid && strings.TrimSpace(rawTags.String) != "" {
			if err := json.Unmarshal([]byte(rawTags.String), &candidate.Tags); err != nil {
				return pipeline.Result{}, fmt.Errorf("decode tags: %w", err)
			}
		}
		if len(candidate.Tags) == 0 {
			candidate.Tags = nil
		}
		result.Metadata = &candidate
	}
	return result, nil
}
