package dub

import (
	"errors"

	"github.com/tonelabs/redub/internal/audio"
)

// SegmentStatus tracks how a synthesized segment fared through alignment.
type SegmentStatus int

const (
	// StatusAligned means the clip matches its slot within tolerance, or was
	// stretched/padded to match it exactly.
	StatusAligned SegmentStatus = iota
	// StatusBestEffort means the clip is used despite an imperfect duration
	// match, after retries or alignment tooling were exhausted.
	StatusBestEffort
	// StatusFailed means no usable audio exists; the slot stays silent.
	StatusFailed
)

func (s SegmentStatus) String() string {
	switch s {
	case StatusAligned:
		return "aligned"
	case StatusBestEffort:
		return "best_effort"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// AudioSegment is the synthesized and aligned audio for one sentence slot.
type AudioSegment struct {
	Index          int
	StartTime      float64
	TargetDuration float64
	Clip           audio.Clip
	Status         SegmentStatus
}

// ActualDuration is the measured clip length after alignment.
func (s AudioSegment) ActualDuration() float64 {
	return s.Clip.Duration()
}

var (
	// ErrSynthesisFailed reports that no usable audio was ever obtained for a
	// sentence after the retry budget ran out.
	ErrSynthesisFailed = errors.New("dub: synthesis failed")
	// ErrAssemblyFailed reports that the timeline buffer could not be built.
	ErrAssemblyFailed = errors.New("dub: timeline assembly failed")
)
