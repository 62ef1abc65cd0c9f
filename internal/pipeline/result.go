package pipeline

import (
	"time"

	"burnish/internal/gateway"
)

// Verdict is the terminal outcome of one evaluation. Every submission
// produces exactly one verdict.
type Verdict string

const (
	VerdictAccepted       Verdict = "accepted"
	VerdictRejected       Verdict = "rejected"
	VerdictRetryExhausted Verdict = "retry_exhausted"
)

// Canonical rejection and exhaustion reasons emitted by the pipeline itself.
// Rule violations carry their own reason strings.
const (
	ReasonGenerationDeclined = "generation-declined"
	ReasonDeadlineExceeded   = "deadline-exceeded"
	ReasonGatewayTimeout     = "gateway-timeout"
	ReasonGatewayUnavailable = "gateway-unavailable"
)

// Result is the persisted outcome of an evaluation. Metadata is set only for
// accepted verdicts.
type Result struct {
	SubmissionID string             `json:"submission_id"`
	Verdict      Verdict            `json:"verdict"`
	Reasons      []string           `json:"reasons,omitempty"`
	Metadata     *gateway.Candidate `json:"metadata,omitempty"`
	Attempts     int                `json:"attempts"`
	CompletedAt  time.Time          `json:"completed_at"`
}

// Accepted reports whether the evaluation produced publishable metadata.
func (r Result) Accepted() bool { return r.Verdict == VerdictAccepted }
