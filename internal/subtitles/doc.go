// Package subtitles turns a transcript into subtitle output.
//
// Writer covers WebVTT and SubRip rendering (with the minimum cue duration
// floor and text cleanup), Parse reads either format back, and the output
// helpers resolve non-clobbering paths and publish files atomically. Muxer
// embeds a SubRip track into a Matroska container via stream copy, choosing
// the container from an explicit per-extension plan.
package subtitles
