// Package config loads, normalizes, and validates gazette's TOML
// configuration. Load applies defaults first, then the file, then
// environment fallbacks for secrets, so a minimal config file is enough
// to run the pipeline.
package config
