package tts

import (
	"context"
	"math"

	"github.com/tonelabs/redub/internal/audio"
)

type mockSynth struct {
	sampleRate int
}

// NewMockSynth produces a quiet sine tone roughly matching the duration
// hint, so dry runs exercise alignment and assembly with plausible clips.
func NewMockSynth(sampleRate int) Synthesizer {
	return &mockSynth{sampleRate: sampleRate}
}

func (m *mockSynth) Synthesize(_ context.Context, req SynthRequest) (audio.Clip, error) {
	seconds := req.DurationHint
	if seconds <= 0 {
		seconds = 1
	}
	n := int(seconds * float64(m.sampleRate))
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = int16(2000 * math.Sin(2*math.Pi*220*float64(i)/float64(m.sampleRate)))
	}
	return audio.Clip{Samples: samples, SampleRate: m.sampleRate}, nil
}
