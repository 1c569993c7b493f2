// Package config loads, normalizes, and validates Punchout configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, merges an optional YAML admin rules file, and
// honours environment fallbacks such as PUNCHOUT_EXPORT_SECRET. The Config
// type centralizes the admin rule data the Motor reads but never mutates,
// together with export, voice, and logging settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical rule lists, and clear validation errors.
package config
