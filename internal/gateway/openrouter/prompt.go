package openrouter

import (
	"fmt"
	"strings"

	"burnish/internal/submission"
)

// EnrichmentPrompt instructs the model to produce candidate metadata for a
// video submission as strict JSON. Keep updates centralized here so it is
// easy to tweak without hunting through call sites.
const EnrichmentPrompt = `You enrich metadata for user-submitted videos.

You receive a video submission with whatever metadata the uploader provided:
a working title, a description, tags, and sometimes a transcript excerpt.
Produce the best publishable metadata for the video.

Rules:
- The title must be concise, descriptive, and free of clickbait or emoji.
- The description summarizes the actual content in one to three sentences.
- Tags are short lowercase keywords. Return between 1 and 10 of them.
- Confidence is your own estimate, between 0.0 and 1.0, of how well the
  provided material supports the metadata you produced. Sparse or
  contradictory input means low confidence.
- If the submission describes content you cannot produce metadata for,
  still respond with JSON and set confidence to 0.0.

Respond with JSON only, no code fences and no commentary:
{"title": "...", "description": "...", "tags": ["..."], "confidence": 0.0}`

// RenderSubmission formats a submission as the user message for the model.
func RenderSubmission(sub submission.Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Submission ID: %s\n", sub.ID)
	fmt.Fprintf(&b, "Working title: %s\n", orPlaceholder(sub.Title))
	fmt.Fprintf(&b, "Description: %s\n", orPlaceholder(sub.Description))
	if len(sub.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(sub.Tags, ", "))
	} else {
		b.WriteString("Tags: (none)\n")
	}
	if transcript := strings.TrimSpace(sub.Transcript); transcript != "" {
		fmt.Fprintf(&b, "Transcript excerpt:\n%s\n", transcript)
	}
	b.WriteString("\nNow produce the metadata JSON:")
	return b.String()
}

func orPlaceholder(value string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return "(none)"
}
