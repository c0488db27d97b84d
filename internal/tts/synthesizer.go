package tts

import (
	"context"

	"github.com/tonelabs/redub/internal/audio"
)

// VoiceMode selects between cloning a speaker from the source video and
// using a preset voice.
type VoiceMode string

const (
	ModeClone  VoiceMode = "clone"
	ModePreset VoiceMode = "preset"
)

// VoiceSpec describes the voice to synthesize with. Clone mode carries the
// reference sample sliced from the original track plus its transcript;
// preset mode carries only a voice id.
type VoiceSpec struct {
	Mode          VoiceMode
	Reference     audio.Clip
	ReferenceText string
	PresetID      string
}

// SynthRequest contains parameters for one synthesis call. DurationHint is
// the slot length the clip should roughly fill; backends may ignore it.
type SynthRequest struct {
	Text         string
	Voice        VoiceSpec
	DurationHint float64
}

// Synthesizer is the contract for producing one audio clip per call.
// Returned clips use the pipeline sample rate; malformed or runaway output
// is the caller's problem (see the dub package's retry policy).
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthRequest) (audio.Clip, error)
}
