package dub

import (
	"context"
	"time"

	"github.com/tonelabs/redub/internal/audio"
)

// RetryPolicy is a data description of a bounded retry loop: how many
// attempts, how long to wait between them, and what counts as acceptable
// output. Sleep is injectable so tests run without real waiting.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
	Accept      func(audio.Clip) error
	Sleep       func(time.Duration)
}

// Run invokes attempt until Accept passes or the budget is exhausted. It
// always terminates after at most MaxAttempts attempts. The last clip
// produced is returned even when it was never accepted, so callers can fall
// back to best-effort use; lastErr reports why acceptance never happened
// when no clip exists at all.
func (p RetryPolicy) Run(ctx context.Context, attempt func(context.Context) (audio.Clip, error)) (clip audio.Clip, accepted bool, lastErr error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}

	var have bool
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			if !have {
				lastErr = err
			}
			return clip, false, lastErr
		}
		out, err := attempt(ctx)
		if err != nil {
			lastErr = err
		} else {
			if p.Accept == nil {
				return out, true, nil
			}
			if err := p.Accept(out); err == nil {
				return out, true, nil
			} else {
				lastErr = err
			}
			if !out.Empty() {
				clip = out
				have = true
			}
		}
		if i < attempts-1 && p.Backoff > 0 {
			sleep(p.Backoff)
		}
	}
	if have {
		return clip, false, nil
	}
	return audio.Clip{}, false, lastErr
}
