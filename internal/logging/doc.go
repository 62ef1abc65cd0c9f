// Package logging provides the slog-based logging stack shared by the daemon,
// the CLI, and the evaluation pipeline.
//
// It offers a console handler for interactive use, a JSON handler for
// machine-readable logs, standardized field keys, and helpers that derive
// structured fields from request context.
package logging
