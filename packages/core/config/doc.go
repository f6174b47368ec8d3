// Package config handles configuration loading and management for the
// ajax client and CLI.
//
// It provides functionality for:
//   - Loading configuration from .ajax.yaml, .ajax.yml or .ajax.json files
//   - Default configuration values
//   - Merging file values with command line overrides
//   - Translating a configuration into client options
package config
