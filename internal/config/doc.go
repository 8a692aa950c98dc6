// Package config loads, normalizes, and validates lectern's TOML
// configuration. Call Load to resolve the effective config from an explicit
// path, ~/.config/lectern/config.toml, or a project-local lectern.toml.
package config
