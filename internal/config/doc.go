// Package config loads, validates, and normalizes the TOML configuration for
// the burnish daemon and CLI.
//
// Loading follows a fixed precedence: an explicit --config path, then
// ~/.config/burnish/config.toml, then a project-local burnish.toml. Missing
// files fall back to defaults so the CLI stays usable before `burnish config
// init` has run.
package config
