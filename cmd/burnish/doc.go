// Command burnish is the CLI for the burnish daemon. It submits video
// metadata for enrichment, inspects stored verdicts, and manages
// configuration.
package main
