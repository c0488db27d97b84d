package asr

import (
	"context"

	"github.com/tonelabs/redub/internal/transcript"
)

type mockTranscriber struct {
	segments []transcript.TimedText
}

// NewMockTranscriber returns canned segments for tests and dry runs.
func NewMockTranscriber(segments []transcript.TimedText) Transcriber {
	return &mockTranscriber{segments: segments}
}

func (m *mockTranscriber) Transcribe(_ context.Context, _ string) ([]transcript.TimedText, error) {
	return m.segments, nil
}
