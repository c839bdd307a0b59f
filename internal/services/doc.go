// Package services defines shared utilities consumed by the pipeline and the
// external tool adapters.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, stage names, and batch correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (input, external tool, recognition, output, container) with
//     errors.Is instead of string matching.
//
// Use these helpers when wiring new adapters so error reporting stays uniform
// across the per-file status lines and the catalog.
package services
