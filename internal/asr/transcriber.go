package asr

import (
	"context"

	"github.com/tonelabs/redub/internal/transcript"
)

// Transcriber abstracts speech-to-text backends. Implementations return
// sentence-level segments with millisecond timestamps; conversion to seconds
// happens at this boundary via transcript.FromTimedText.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]transcript.TimedText, error)
}
