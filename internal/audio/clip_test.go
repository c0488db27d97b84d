package audio

import (
	"bytes"
	"math"
	"testing"
)

func TestStretchHitsExactTarget(t *testing.T) {
	clip := Silence(2.4, 24000)
	for i := range clip.Samples {
		clip.Samples[i] = int16(i % 1000)
	}

	out, err := Stretch(clip, 2.0)
	if err != nil {
		t.Fatalf("stretch: %v", err)
	}
	if len(out.Samples) != 48000 {
		t.Fatalf("expected 48000 samples, got %d", len(out.Samples))
	}
	if math.Abs(out.Duration()-2.0) > 1e-9 {
		t.Fatalf("expected 2.0s, got %v", out.Duration())
	}
}

func TestStretchEmptyClip(t *testing.T) {
	if _, err := Stretch(Clip{SampleRate: 24000}, 1.0); err == nil {
		t.Fatal("expected error for empty clip")
	}
}

func TestPadToExtendsWithSilence(t *testing.T) {
	clip := Clip{Samples: []int16{5, 5, 5, 5}, SampleRate: 4}
	out := PadTo(clip, 3.0)
	if len(out.Samples) != 12 {
		t.Fatalf("expected 12 samples, got %d", len(out.Samples))
	}
	if out.Samples[3] != 5 || out.Samples[4] != 0 || out.Samples[11] != 0 {
		t.Fatal("expected original samples followed by silence")
	}

	// Already long enough: unchanged.
	same := PadTo(clip, 0.5)
	if len(same.Samples) != 4 {
		t.Fatalf("expected unchanged clip, got %d samples", len(same.Samples))
	}
}

func TestPCM16RoundTrip(t *testing.T) {
	clip := Clip{Samples: []int16{0, 1, -1, 32767, -32768}, SampleRate: 24000}
	raw := EncodePCM16(clip)
	back, err := DecodePCM16(raw, 24000)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	for i, s := range clip.Samples {
		if back.Samples[i] != s {
			t.Fatalf("sample %d: expected %d, got %d", i, s, back.Samples[i])
		}
	}

	if _, err := DecodePCM16([]byte{0x01}, 24000); err == nil {
		t.Fatal("expected error for odd payload")
	}
}

func TestWAVEncodeDecode(t *testing.T) {
	clip := Clip{Samples: []int16{100, -200, 300, -400}, SampleRate: 24000}

	var buf seekBuffer
	if err := EncodeWAV(&buf, clip); err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := DecodeWAV(bytes.NewReader(buf.data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.SampleRate != 24000 {
		t.Fatalf("expected 24kHz, got %d", back.SampleRate)
	}
	if len(back.Samples) != 4 {
		t.Fatalf("expected 4 samples, got %d", len(back.Samples))
	}
	for i, s := range clip.Samples {
		if back.Samples[i] != s {
			t.Fatalf("sample %d: expected %d, got %d", i, s, back.Samples[i])
		}
	}
}

// seekBuffer implements io.WriteSeeker over a byte slice for the wav encoder.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if b.pos+len(p) > len(b.data) {
		grown := make([]byte, b.pos+len(p))
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		b.pos = int(offset)
	case 1:
		b.pos += int(offset)
	case 2:
		b.pos = len(b.data) + int(offset)
	}
	return int64(b.pos), nil
}
