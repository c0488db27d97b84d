package separation

import (
	"context"
)

// Result points at the stems a separation run produced. Paths are WAV files
// under the run's work directory.
type Result struct {
	VocalsPath     string
	BackgroundPath string
}

// Separator splits a mixed audio track into vocal and background stems.
// Separation is an enhancement: callers treat any error as "no stems" and
// continue with the mixed track.
type Separator interface {
	Separate(ctx context.Context, audioPath, outDir string) (Result, error)
}

// Disabled is the Separator used when no separation backend is configured.
type Disabled struct{}

func (Disabled) Separate(context.Context, string, string) (Result, error) {
	return Result{}, ErrDisabled
}
