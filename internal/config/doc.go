// Package config loads, normalizes, and validates pykit configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// PYKIT_FASTMAIL_TOKEN. The Config type centralizes every knob the CLI needs,
// allowing environment/download directories and external service credentials
// to be discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
