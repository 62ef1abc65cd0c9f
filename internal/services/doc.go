// Package services defines shared utilities consumed by the evaluation
// pipeline and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp submission IDs, pipeline stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (fatal defect vs transient vs policy) uniform across
//     components.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across the system.
package services
