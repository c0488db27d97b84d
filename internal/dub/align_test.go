package dub

import (
	"math"
	"testing"

	"github.com/tonelabs/redub/internal/audio"
)

func TestAlignWithinToleranceKeepsClip(t *testing.T) {
	clip := tone(1.0, 24000)
	seg := Align(clip, 0, 0, 1.05, testLogger())
	if seg.Status != StatusAligned {
		t.Fatalf("expected aligned, got %s", seg.Status)
	}
	if len(seg.Clip.Samples) != len(clip.Samples) {
		t.Fatal("clip within tolerance must not be resampled")
	}
}

func TestAlignStretchesToExactTarget(t *testing.T) {
	// 2.4s clip against a 2.0s slot: ratio 0.83 sits below the tolerance
	// band, so the clip is sped up to exactly the slot length.
	clip := tone(2.4, 24000)
	seg := Align(clip, 0, 0, 2.0, testLogger())
	if seg.Status != StatusAligned {
		t.Fatalf("expected aligned, got %s", seg.Status)
	}
	if len(seg.Clip.Samples) != 48000 {
		t.Fatalf("expected 48000 samples after stretch, got %d", len(seg.Clip.Samples))
	}
	if math.Abs(seg.ActualDuration()-2.0) > 1e-9 {
		t.Fatalf("expected 2.0s, got %fs", seg.ActualDuration())
	}
}

func TestAlignSlowsDownShortClip(t *testing.T) {
	// 1.0s clip against a 2.0s slot: ratio 2.0 is under the stretch limit,
	// so tempo change still applies.
	clip := tone(1.0, 24000)
	seg := Align(clip, 0, 0, 2.0, testLogger())
	if seg.Status != StatusAligned {
		t.Fatalf("expected aligned, got %s", seg.Status)
	}
	if len(seg.Clip.Samples) != 48000 {
		t.Fatalf("expected 48000 samples, got %d", len(seg.Clip.Samples))
	}
}

func TestAlignPadsBeyondStretchLimit(t *testing.T) {
	// Ratio 3.0: stretching that far destroys intelligibility, so the clip
	// plays at natural speed and trailing silence fills the slot.
	clip := tone(1.0, 24000)
	seg := Align(clip, 0, 0, 3.0, testLogger())
	if seg.Status != StatusAligned {
		t.Fatalf("expected aligned, got %s", seg.Status)
	}
	if len(seg.Clip.Samples) != 72000 {
		t.Fatalf("expected 72000 samples, got %d", len(seg.Clip.Samples))
	}
	for i := 0; i < 24000; i++ {
		if seg.Clip.Samples[i] == 0 {
			t.Fatalf("speech region zeroed at sample %d", i)
		}
	}
	for i := 24000; i < 72000; i++ {
		if seg.Clip.Samples[i] != 0 {
			t.Fatalf("padding not silent at sample %d", i)
		}
	}
}

func TestAlignFailsOnUnmeasurableClip(t *testing.T) {
	seg := Align(audio.Clip{SampleRate: 24000}, 3, 1.5, 2.0, testLogger())
	if seg.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", seg.Status)
	}
	if !seg.Clip.Empty() {
		t.Fatal("failed segment must carry no audio")
	}
	if seg.Index != 3 || seg.StartTime != 1.5 {
		t.Fatal("segment must keep its slot identity")
	}
}
