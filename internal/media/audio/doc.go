// Package audio picks the audio track to transcribe and reads the WAV files
// ffmpeg extracts from it.
//
// Track selection ranks ffprobe audio streams for speech rather than
// fidelity:
//  1. Language matching the recognizer hint (when one is configured)
//  2. Commentary and audio-description tracks last
//  3. Default disposition
//  4. Earlier tracks win ties
//
// Key types:
//   - Selection: the chosen stream and its audio-relative position (0:a:N)
//   - Info: sample format and duration of an extracted WAV
//
// Primary entry points:
//   - Select: ranks streams and returns the track to extract
//   - ReadInfo / DecodeMono: WAV inspection and float32 decoding via go-audio
package audio
