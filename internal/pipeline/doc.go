// Package pipeline runs media jobs: one input file through probe, audio
// extraction, speech recognition, and subtitle writing or muxing.
//
// Processor.Process owns a single job from input validation to cleanup. Its
// work directory, and the extracted audio inside it, is removed on every
// exit path. Processor.RunBatch walks a list of inputs strictly in order,
// isolating failures per file and honoring a stop channel between files.
//
// The external collaborators (ffprobe, ffmpeg, recognizer) are consumed
// through the narrow Prober, AudioExtractor, and recognizer.Engine
// interfaces so tests can swap them.
package pipeline
