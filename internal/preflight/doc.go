// Package preflight provides readiness checks for the external tools and
// filesystem paths subgen depends on.
//
// These checks run in two contexts:
//   - The transcribe and catalog run commands call RunAll before the first
//     file. If any check fails the batch does not start, so a missing ffmpeg
//     is reported once instead of once per file.
//   - The CLI "subgen deps" command uses CheckSystemDeps to display a table
//     of tool availability.
package preflight
