// Package daemon hosts the long-running burnish process: it owns the result
// store, compiles the moderation policy, wires the enrichment gateway into
// the evaluation pipeline, and serves the HTTP API. A lock file keeps a
// second instance from sharing the same state directory.
package daemon
