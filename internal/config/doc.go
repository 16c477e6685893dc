// Package config loads, normalizes, and validates srtmerge configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the SRTMERGE_OUTPUT_ENCODING
// environment override. Command-line flags are applied on top by the CLI, so
// the precedence is flag, then environment, then file, then default.
package config
