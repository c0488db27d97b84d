package audio

import (
	"errors"
	"math"
)

// Clip holds mono 16-bit PCM samples at a fixed sample rate.
type Clip struct {
	Samples    []int16
	SampleRate int
}

var ErrEmptyClip = errors.New("audio: empty clip")

// Duration returns the clip length in seconds.
func (c Clip) Duration() float64 {
	if c.SampleRate <= 0 {
		return 0
	}
	return float64(len(c.Samples)) / float64(c.SampleRate)
}

func (c Clip) Empty() bool {
	return len(c.Samples) == 0
}

// Silence returns a zero-filled clip of the given duration.
func Silence(seconds float64, sampleRate int) Clip {
	if seconds < 0 {
		seconds = 0
	}
	n := int(seconds * float64(sampleRate))
	return Clip{Samples: make([]int16, n), SampleRate: sampleRate}
}

// Stretch resamples the clip to the exact target duration. Playback speed
// changes accordingly; pitch is not preserved.
func Stretch(c Clip, targetSeconds float64) (Clip, error) {
	if c.Empty() {
		return Clip{}, ErrEmptyClip
	}
	if targetSeconds <= 0 {
		return Clip{}, errors.New("audio: target duration must be positive")
	}
	outLen := int(math.Round(targetSeconds * float64(c.SampleRate)))
	if outLen <= 0 {
		outLen = 1
	}
	out := make([]int16, outLen)
	if outLen == 1 || len(c.Samples) == 1 {
		for i := range out {
			out[i] = c.Samples[0]
		}
		return Clip{Samples: out, SampleRate: c.SampleRate}, nil
	}

	// Linear interpolation over the source index space.
	step := float64(len(c.Samples)-1) / float64(outLen-1)
	for i := range out {
		pos := float64(i) * step
		lo := int(pos)
		if lo >= len(c.Samples)-1 {
			out[i] = c.Samples[len(c.Samples)-1]
			continue
		}
		frac := pos - float64(lo)
		a := float64(c.Samples[lo])
		b := float64(c.Samples[lo+1])
		out[i] = int16(math.Round(a + (b-a)*frac))
	}
	return Clip{Samples: out, SampleRate: c.SampleRate}, nil
}

// PadTo appends trailing silence until the clip reaches the target duration.
// Clips already at or beyond the target are returned unchanged.
func PadTo(c Clip, targetSeconds float64) Clip {
	want := int(math.Round(targetSeconds * float64(c.SampleRate)))
	if want <= len(c.Samples) {
		return c
	}
	out := make([]int16, want)
	copy(out, c.Samples)
	return Clip{Samples: out, SampleRate: c.SampleRate}
}
