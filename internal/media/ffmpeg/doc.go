// Package ffmpeg wraps the ffmpeg invocations subgen needs: extracting a
// mono 16 kHz PCM WAV for the recognizer, and stream-copying a source file
// plus a new SubRip track into a Matroska container.
package ffmpeg
