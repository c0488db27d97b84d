package dub

import (
	"log/slog"

	"github.com/tonelabs/redub/internal/audio"
)

// Alignment bands for ratio = target/actual. Within the tolerance band the
// clip is used as-is; up to the stretch limit tempo is changed; beyond it
// the clip is padded with trailing silence, because extreme tempo changes
// destroy intelligibility.
const (
	alignTolMin  = 0.9
	alignTolMax  = 1.1
	stretchLimit = 2.2
)

// Align fits a raw clip to its sentence slot and returns the segment. The
// decision ladder: accept within tolerance, tempo-stretch to the exact
// target below the stretch limit, pad with silence at or above it. A clip
// with no measurable duration fails outright; a stretch tooling error falls
// back to the unchanged clip marked best-effort.
func Align(clip audio.Clip, index int, startTime, targetDuration float64, log *slog.Logger) AudioSegment {
	seg := AudioSegment{
		Index:          index,
		StartTime:      startTime,
		TargetDuration: targetDuration,
		Clip:           clip,
	}

	actual := clip.Duration()
	if actual <= 0 || targetDuration <= 0 {
		seg.Status = StatusFailed
		seg.Clip = audio.Clip{SampleRate: clip.SampleRate}
		return seg
	}

	ratio := targetDuration / actual
	switch {
	case ratio >= alignTolMin && ratio <= alignTolMax:
		seg.Status = StatusAligned
	case ratio < stretchLimit:
		stretched, err := audio.Stretch(clip, targetDuration)
		if err != nil {
			log.Warn("tempo stretch failed, keeping clip unchanged",
				slog.Int("index", index),
				slog.String("error", err.Error()))
			seg.Status = StatusBestEffort
			return seg
		}
		seg.Clip = stretched
		seg.Status = StatusAligned
	default:
		seg.Clip = audio.PadTo(clip, targetDuration)
		seg.Status = StatusAligned
	}
	return seg
}
