// Package main hosts the subgen CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, applies flag
// overrides into explicit pipeline options, and drives the transcription
// pipeline for files named on the command line or drawn from the SQLite
// catalog. Per-file status lines go to stdout; logs and the progress bar go
// to stderr.
package main
