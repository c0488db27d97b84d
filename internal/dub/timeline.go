package dub

import (
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/tonelabs/redub/internal/audio"
)

// Timeline is the single continuous mono track spanning the whole video.
type Timeline struct {
	Samples    []int16
	SampleRate int
}

func (t Timeline) Duration() float64 {
	if t.SampleRate <= 0 {
		return 0
	}
	return float64(len(t.Samples)) / float64(t.SampleRate)
}

func (t Timeline) Clip() audio.Clip {
	return audio.Clip{Samples: t.Samples, SampleRate: t.SampleRate}
}

// Assemble places aligned segments into a zero-filled buffer addressed by
// absolute start time. Placement is overwrite, not additive: segments derive
// from non-overlapping sentence windows, and if an upstream error produces
// overlap the later-starting segment wins. Failed or empty segments leave
// silence. The buffer length never changes after allocation.
func Assemble(segments []AudioSegment, totalDuration float64, sampleRate int, log *slog.Logger) (Timeline, error) {
	if totalDuration <= 0 || sampleRate <= 0 {
		return Timeline{}, fmt.Errorf("%w: invalid total duration %.2fs", ErrAssemblyFailed, totalDuration)
	}

	buf := make([]int16, int(math.Ceil(totalDuration*float64(sampleRate))))

	ordered := make([]AudioSegment, len(segments))
	copy(ordered, segments)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartTime < ordered[j].StartTime
	})

	for _, seg := range ordered {
		if seg.Status == StatusFailed || seg.Clip.Empty() {
			continue
		}
		if seg.Clip.SampleRate != sampleRate {
			log.Warn("segment sample rate mismatch, leaving silence",
				slog.Int("index", seg.Index),
				slog.Int("sample_rate", seg.Clip.SampleRate))
			continue
		}
		start := int(math.Round(seg.StartTime * float64(sampleRate)))
		if start >= len(buf) {
			continue
		}
		if start < 0 {
			start = 0
		}
		n := copy(buf[start:], seg.Clip.Samples)
		if n < len(seg.Clip.Samples) {
			log.Warn("segment clipped at timeline end",
				slog.Int("index", seg.Index),
				slog.Int("dropped_samples", len(seg.Clip.Samples)-n))
		}
	}

	return Timeline{Samples: buf, SampleRate: sampleRate}, nil
}
