// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video/subtitle stream properties
//   - Prober: runs ffprobe through an injectable runner
//
// Helper methods on Result answer the questions the transcription pipeline
// asks before doing any work: is there audio to transcribe, is there real
// video (cover art does not count), how many subtitle streams already exist,
// and how long is the media.
package ffprobe
