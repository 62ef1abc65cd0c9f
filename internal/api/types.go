// Package api defines the wire types shared by the daemon's HTTP surface
// and the CLI client.
package api

import (
	"time"

	"burnish/internal/pipeline"
	"burnish/internal/submission"
)

// SubmitRequest carries one submission for evaluation.
type SubmitRequest struct {
	ID          string   `json:"id"`
	Title       string   `json:"title,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Transcript  string   `json:"transcript,omitempty"`
}

// Submission converts the request into the domain shape, stamping the
// source time on receipt.
func (r SubmitRequest) Submission() submission.Submission {
	return submission.Submission{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Tags:        r.Tags,
		Transcript:  r.Transcript,
		SourceTime:  time.Now().UTC(),
	}
}

// SubmitResponse returns the terminal result for a submission. Persisted is
// false when the verdict was computed but could not be stored; the caller
// may resubmit to retry the write without re-running enrichment.
type SubmitResponse struct {
	Result    pipeline.Result `json:"result"`
	Persisted bool            `json:"persisted"`
}

// ResultResponse wraps a single stored result.
type ResultResponse struct {
	Result pipeline.Result `json:"result"`
}

// ResultsListResponse wraps a result listing.
type ResultsListResponse struct {
	Results []pipeline.Result `json:"results"`
}

// StatusResponse reports daemon runtime information.
type StatusResponse struct {
	Running        bool           `json:"running"`
	PID            int            `json:"pid"`
	DatabasePath   string         `json:"database_path"`
	LockFilePath   string         `json:"lock_file_path"`
	Inflight       int            `json:"inflight"`
	GatewayHealthy bool           `json:"gateway_healthy"`
	Verdicts       map[string]int `json:"verdicts"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
