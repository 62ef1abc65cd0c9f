// Package notifications delivers verdict events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. Per-verdict toggles let operators subscribe to acceptances,
// rejections, or only failures.
//
// Extend this package if you need alternative transports; the orchestrator
// depends only on the simple Service interface.
package notifications
