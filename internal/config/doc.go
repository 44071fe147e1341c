// Package config loads, normalizes, and validates clicktrack configuration.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CLICKTRACK_LOG_LEVEL and CLICKTRACK_OUTPUT_DIR. Render code receives a
// *Config value explicitly; nothing here is process-global.
package config
