package dub

import (
	"github.com/tonelabs/redub/internal/audio"
)

// Mix overlays an attenuated background track under the speech track. The
// output length always follows the speech track; a longer background is
// truncated, a shorter one leaves the tail unmixed. An absent or
// incompatible background is a no-op, never a failure.
func Mix(speech Timeline, background audio.Clip, gain float64) Timeline {
	if background.Empty() || gain <= 0 || background.SampleRate != speech.SampleRate {
		return speech
	}

	out := make([]int16, len(speech.Samples))
	copy(out, speech.Samples)
	n := len(background.Samples)
	if n > len(out) {
		n = len(out)
	}
	for i := 0; i < n; i++ {
		mixed := int(out[i]) + int(float64(background.Samples[i])*gain)
		if mixed > 32767 {
			mixed = 32767
		} else if mixed < -32768 {
			mixed = -32768
		}
		out[i] = int16(mixed)
	}
	return Timeline{Samples: out, SampleRate: speech.SampleRate}
}
