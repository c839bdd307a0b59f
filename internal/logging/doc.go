// Package logging assembles structured slog loggers and formatting helpers.
//
// It owns the console and JSON handlers, level parsing, and an optional JSON
// log file teed alongside console output. Context helpers tag records with
// job IDs, pipeline stages, and batch correlation IDs so one file's journey
// through probe, extract, recognize, and write can be followed in the log.
package logging
