// Package config loads, normalizes, and validates subgen configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment overrides such as
// SUBGEN_MODEL and HF_TOKEN. The Config type centralizes the recognizer,
// output, media tool, and catalog settings so the CLI can resolve them in one
// pass before building the explicit per-run pipeline options.
package config
