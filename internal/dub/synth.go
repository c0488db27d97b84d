package dub

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tonelabs/redub/internal/audio"
	"github.com/tonelabs/redub/internal/config"
	"github.com/tonelabs/redub/internal/tts"
)

// Duration-ratio acceptance band for raw synthesized clips. Outside this
// band the clip is regenerated; runaway clips beyond the absolute cap are
// treated as hallucinations regardless of target.
const (
	ratioAcceptMin = 0.5
	ratioAcceptMax = 2.2
)

// SegmentSynth wraps one external TTS call per attempt with sanity checks
// and a bounded retry budget. Clone calls are costlier, so clone mode gets a
// smaller budget than preset mode.
type SegmentSynth struct {
	synth  tts.Synthesizer
	cfg    config.TTSConfig
	logger *slog.Logger
	sleep  func(time.Duration)
}

func NewSegmentSynth(synth tts.Synthesizer, cfg config.TTSConfig, log *slog.Logger) *SegmentSynth {
	return &SegmentSynth{
		synth:  synth,
		cfg:    cfg,
		logger: log.With(slog.String("component", "segment-synth")),
		sleep:  time.Sleep,
	}
}

// Generate synthesizes one sentence. On success accepted is true. When
// retries run out but some audio exists, the last clip is returned with
// accepted=false so the caller can use it best-effort; ErrSynthesisFailed is
// returned only when no audio was ever produced.
func (s *SegmentSynth) Generate(ctx context.Context, text string, voice tts.VoiceSpec, targetDuration float64) (audio.Clip, bool, error) {
	policy := RetryPolicy{
		MaxAttempts: s.cfg.PresetRetries,
		Backoff:     time.Duration(s.cfg.RetryBackoffMS) * time.Millisecond,
		Accept:      s.acceptClip(targetDuration),
		Sleep:       s.sleep,
	}
	if voice.Mode == tts.ModeClone {
		policy.MaxAttempts = s.cfg.CloneRetries
	}

	req := tts.SynthRequest{Text: text, Voice: voice, DurationHint: targetDuration}
	clip, accepted, err := policy.Run(ctx, func(ctx context.Context) (audio.Clip, error) {
		callCtx := ctx
		if s.cfg.TimeoutMS > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutMS)*time.Millisecond)
			defer cancel()
		}
		return s.synth.Synthesize(callCtx, req)
	})

	if !accepted && clip.Empty() {
		if err == nil {
			err = ErrSynthesisFailed
		}
		return audio.Clip{}, false, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	if !accepted {
		s.logger.Warn("retry budget exhausted, using last clip",
			slog.Float64("clip_seconds", clip.Duration()),
			slog.Float64("target_seconds", targetDuration))
	}
	return clip, accepted, nil
}

func (s *SegmentSynth) acceptClip(targetDuration float64) func(audio.Clip) error {
	return func(clip audio.Clip) error {
		if clip.Empty() {
			return fmt.Errorf("empty clip")
		}
		d := clip.Duration()
		if d > s.cfg.MaxClipSeconds {
			return fmt.Errorf("runaway clip: %.1fs exceeds %.0fs cap", d, s.cfg.MaxClipSeconds)
		}
		if targetDuration > 0 {
			ratio := d / targetDuration
			if ratio < ratioAcceptMin || ratio > ratioAcceptMax {
				return fmt.Errorf("duration ratio %.2f outside [%.1f, %.1f]", ratio, ratioAcceptMin, ratioAcceptMax)
			}
		}
		return nil
	}
}
