package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"

	"subgen/internal/services"
)

// SampleRate is the rate the extractor produces and the recognizers expect.
const SampleRate = 16000

// Info describes an extracted WAV file.
type Info struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// ReadInfo reads the header of a WAV file.
func ReadInfo(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, services.Wrap(services.ErrInputNotFound, "audio", "open wav", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Info{}, services.Wrap(services.ErrExternalTool, "audio", "read wav", fmt.Sprintf("%s: not a valid wav file", path), nil)
	}
	if err := dec.FwdToPCM(); err != nil {
		return Info{}, services.Wrap(services.ErrExternalTool, "audio", "read wav", path, err)
	}
	info := Info{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		BitDepth:   int(dec.BitDepth),
	}
	// The RIFF size includes header chunks; only the data chunk is playback.
	bytesPerSecond := int64(info.SampleRate) * int64(info.Channels) * int64(info.BitDepth/8)
	if bytesPerSecond > 0 {
		info.Duration = time.Duration(dec.PCMLen() * int64(time.Second) / bytesPerSecond)
	}
	return info, nil
}

// Duration returns the playback length of a WAV file.
func Duration(path string) (time.Duration, error) {
	info, err := ReadInfo(path)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}

// DecodeMono decodes a WAV file into float32 samples in [-1, 1]. Multi-channel
// input is averaged down to one channel. The sample rate is returned so
// callers can reject anything other than SampleRate.
func DecodeMono(path string) ([]float32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, services.Wrap(services.ErrInputNotFound, "audio", "open wav", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, 0, services.Wrap(services.ErrExternalTool, "audio", "decode wav", fmt.Sprintf("%s: not a valid wav file", path), nil)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, 0, services.Wrap(services.ErrExternalTool, "audio", "decode wav", path, err)
	}
	if buf == nil {
		return nil, 0, services.Wrap(services.ErrExternalTool, "audio", "decode wav", fmt.Sprintf("%s: empty pcm buffer", path), nil)
	}

	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = int(dec.BitDepth)
	}
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := float32(int64(1) << (bitDepth - 1))

	channels := int(dec.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	if channels <= 0 {
		channels = 1
	}

	frames := len(buf.Data) / channels
	out := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += float32(buf.Data[i*channels+c]) / scale
		}
		out[i] = sum / float32(channels)
	}

	rate := int(dec.SampleRate)
	if rate == 0 && buf.Format != nil {
		rate = buf.Format.SampleRate
	}
	return out, rate, nil
}
