// Package recognizer runs speech recognition over extracted WAV audio and
// returns a transcript.Transcript.
//
// Backends:
//   - whisper: the openai-whisper CLI, JSON output read back from the work dir
//   - whisperx: WhisperX launched through uvx with the PyTorch index for
//     the selected device
//   - whispercpp: native whisper.cpp bindings, compiled in only with the
//     whispercpp build tag
//
// Every backend normalizes its output (empty segments dropped, offsets
// clamped, stable start order) and can strip stock hallucination phrases.
// New picks a backend from Config.
package recognizer
