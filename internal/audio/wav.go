package audio

import (
	"fmt"
	"io"
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes the clip as a 16-bit mono WAV file.
func WriteWAV(path string, c Clip) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer file.Close()
	return EncodeWAV(file, c)
}

func EncodeWAV(ws io.WriteSeeker, c Clip) error {
	buffer := &gaudio.IntBuffer{Format: &gaudio.Format{NumChannels: 1, SampleRate: c.SampleRate}}
	samples := make([]int, len(c.Samples))
	for i, s := range c.Samples {
		samples[i] = int(s)
	}
	buffer.Data = samples

	enc := wav.NewEncoder(ws, c.SampleRate, 16, 1, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// ReadWAV decodes a WAV file into a mono clip. Multichannel input is
// downmixed by averaging.
func ReadWAV(path string) (Clip, error) {
	file, err := os.Open(path)
	if err != nil {
		return Clip{}, fmt.Errorf("open wav: %w", err)
	}
	defer file.Close()
	return DecodeWAV(file)
}

func DecodeWAV(rs io.ReadSeeker) (Clip, error) {
	dec := wav.NewDecoder(rs)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Clip{}, fmt.Errorf("decode wav: %w", err)
	}
	if buf == nil || buf.Format == nil || len(buf.Data) == 0 {
		return Clip{}, ErrEmptyClip
	}

	channels := buf.Format.NumChannels
	if channels <= 0 {
		channels = 1
	}
	frames := len(buf.Data) / channels
	samples := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += buf.Data[i*channels+ch]
		}
		samples[i] = clampInt16(sum / channels)
	}
	return Clip{Samples: samples, SampleRate: buf.Format.SampleRate}, nil
}

// DecodePCM16 interprets little-endian 16-bit PCM bytes as a clip.
func DecodePCM16(pcm []byte, sampleRate int) (Clip, error) {
	if len(pcm)%2 != 0 {
		return Clip{}, fmt.Errorf("pcm payload not aligned")
	}
	samples := make([]int16, len(pcm)/2)
	for i := range samples {
		samples[i] = int16(uint16(pcm[i*2]) | uint16(pcm[i*2+1])<<8)
	}
	return Clip{Samples: samples, SampleRate: sampleRate}, nil
}

// EncodePCM16 renders the clip as little-endian 16-bit PCM bytes.
func EncodePCM16(c Clip) []byte {
	out := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		out[i*2] = byte(uint16(s))
		out[i*2+1] = byte(uint16(s) >> 8)
	}
	return out
}

func clampInt16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
