package dub

import (
	"io"
	"log/slog"

	"github.com/tonelabs/redub/internal/audio"
)

// tone builds a clip of constant non-zero samples so placement and
// silence checks can tell speech from gaps.
func tone(seconds float64, rate int) audio.Clip {
	n := int(seconds * float64(rate))
	samples := make([]int16, n)
	for i := range samples {
		samples[i] = 1000
	}
	return audio.Clip{Samples: samples, SampleRate: rate}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
