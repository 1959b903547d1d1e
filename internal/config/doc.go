// Package config loads, normalizes, and validates mkvbatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MKVTOOLNIX_PATH. The Config type centralizes every knob the CLI and merge
// engine need, so the MKVToolNix location and the three batch directories are
// discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
