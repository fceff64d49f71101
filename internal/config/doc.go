// Package config loads, normalizes, and validates Aircheck configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// AIRCHECK_NTFY_TOPIC. The Config type centralizes every knob the daemon and
// CLI need, so recording directories, backend locations, and sweep intervals
// are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
