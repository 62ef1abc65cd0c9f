// Package submission defines the incoming unit of work: raw video metadata
// awaiting enrichment and moderation.
package submission

import (
	"strings"
	"time"

	"burnish/internal/services"
)

// Submission carries the raw metadata for one video. Treat values as
// immutable once constructed; the pipeline never writes back into them.
type Submission struct {
	ID          string    `json:"id"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Transcript  string    `json:"transcript,omitempty"`
	SourceTime  time.Time `json:"source_time,omitempty"`
}

// Validate checks the submission satisfies the input contract: an identifier
// plus at least one populated metadata field.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return services.Wrap(services.ErrValidation, "submission", "validate", "id is required", nil)
	}
	if !s.HasMetadata() {
		return services.Wrap(services.ErrValidation, "submission", "validate", "at least one metadata field is required", nil)
	}
	return nil
}

// HasMetadata reports whether any metadata field carries content.
func (s Submission) HasMetadata() bool {
	if strings.TrimSpace(s.Title) != "" {
		return true
	}
	if strings.TrimSpace(s.Description) != "" {
		return true
	}
	if strings.TrimSpace(s.Transcript) != "" {
		return true
	}
	for _, tag := range s.Tags {
		if strings.TrimSpace(tag) != "" {
			return true
		}
	}
	return false
}
