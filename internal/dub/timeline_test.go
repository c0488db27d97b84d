package dub

import (
	"errors"
	"testing"
)

func TestAssembleBufferLengthMatchesTotalDuration(t *testing.T) {
	tl, err := Assemble(nil, 5.0, 24000, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tl.Samples) != 120000 {
		t.Fatalf("expected 120000 samples for 5.0s at 24kHz, got %d", len(tl.Samples))
	}
	for i, s := range tl.Samples {
		if s != 0 {
			t.Fatalf("empty timeline not silent at sample %d", i)
		}
	}
}

func TestAssemblePlacesSegmentAtStartTime(t *testing.T) {
	seg := AudioSegment{
		Index:     0,
		StartTime: 1.0,
		Clip:      tone(0.5, 24000),
		Status:    StatusAligned,
	}
	tl, err := Assemble([]AudioSegment{seg}, 3.0, 24000, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 24000; i++ {
		if tl.Samples[i] != 0 {
			t.Fatalf("leading gap not silent at %d", i)
		}
	}
	for i := 24000; i < 36000; i++ {
		if tl.Samples[i] == 0 {
			t.Fatalf("speech missing at %d", i)
		}
	}
	for i := 36000; i < len(tl.Samples); i++ {
		if tl.Samples[i] != 0 {
			t.Fatalf("trailing gap not silent at %d", i)
		}
	}
}

func TestAssembleFailedSegmentLeavesSilence(t *testing.T) {
	segs := []AudioSegment{
		{Index: 0, StartTime: 0, Clip: tone(2.0, 24000), Status: StatusAligned},
		{Index: 1, StartTime: 2.0, Status: StatusFailed},
	}
	tl, err := Assemble(segs, 5.0, 24000, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tl.Samples) != 120000 {
		t.Fatalf("expected 120000 samples, got %d", len(tl.Samples))
	}
	for i := 48000; i < 120000; i++ {
		if tl.Samples[i] != 0 {
			t.Fatalf("failed slot not silent at %d", i)
		}
	}
}

func TestAssembleClipsAtBufferEnd(t *testing.T) {
	seg := AudioSegment{
		Index:     0,
		StartTime: 4.5,
		Clip:      tone(1.0, 24000),
		Status:    StatusAligned,
	}
	tl, err := Assemble([]AudioSegment{seg}, 5.0, 24000, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tl.Samples) != 120000 {
		t.Fatalf("buffer length must not grow, got %d", len(tl.Samples))
	}
	if tl.Samples[119999] == 0 {
		t.Fatal("expected speech up to the buffer end")
	}
}

func TestAssembleLaterSegmentOverwritesOverlap(t *testing.T) {
	first := tone(2.0, 24000)
	second := tone(1.0, 24000)
	for i := range second.Samples {
		second.Samples[i] = 2000
	}
	segs := []AudioSegment{
		{Index: 1, StartTime: 1.0, Clip: second, Status: StatusAligned},
		{Index: 0, StartTime: 0, Clip: first, Status: StatusAligned},
	}
	tl, err := Assemble(segs, 3.0, 24000, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tl.Samples[30000] != 2000 {
		t.Fatalf("expected later segment to win the overlap, got %d", tl.Samples[30000])
	}
	if tl.Samples[12000] != 1000 {
		t.Fatalf("expected earlier segment before the overlap, got %d", tl.Samples[12000])
	}
}

func TestAssembleRejectsInvalidDuration(t *testing.T) {
	if _, err := Assemble(nil, 0, 24000, testLogger()); !errors.Is(err, ErrAssemblyFailed) {
		t.Fatalf("expected ErrAssemblyFailed, got %v", err)
	}
	if _, err := Assemble(nil, -1.0, 24000, testLogger()); !errors.Is(err, ErrAssemblyFailed) {
		t.Fatalf("expected ErrAssemblyFailed, got %v", err)
	}
}

func TestAssembleSkipsSampleRateMismatch(t *testing.T) {
	seg := AudioSegment{Index: 0, StartTime: 0, Clip: tone(1.0, 48000), Status: StatusAligned}
	tl, err := Assemble([]AudioSegment{seg}, 2.0, 24000, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, s := range tl.Samples {
		if s != 0 {
			t.Fatalf("mismatched segment must leave silence, sample %d set", i)
		}
	}
}
