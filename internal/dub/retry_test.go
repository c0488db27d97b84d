package dub

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tonelabs/redub/internal/audio"
)

func TestRetryPolicyStopsAtBudget(t *testing.T) {
	calls := 0
	policy := RetryPolicy{
		MaxAttempts: 4,
		Sleep:       func(time.Duration) {},
	}
	boom := errors.New("backend down")
	_, accepted, err := policy.Run(context.Background(), func(context.Context) (audio.Clip, error) {
		calls++
		return audio.Clip{}, boom
	})
	if calls != 4 {
		t.Fatalf("expected 4 attempts, got %d", calls)
	}
	if accepted {
		t.Fatal("expected not accepted")
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected last attempt error, got %v", err)
	}
}

func TestRetryPolicyAcceptsFirstGoodClip(t *testing.T) {
	good := tone(1.0, 24000)
	calls := 0
	policy := RetryPolicy{
		MaxAttempts: 5,
		Sleep:       func(time.Duration) {},
		Accept: func(c audio.Clip) error {
			if c.Empty() {
				return errors.New("empty")
			}
			return nil
		},
	}
	clip, accepted, err := policy.Run(context.Background(), func(context.Context) (audio.Clip, error) {
		calls++
		if calls < 3 {
			return audio.Clip{SampleRate: 24000}, nil
		}
		return good, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !accepted {
		t.Fatal("expected accepted")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
	if len(clip.Samples) != len(good.Samples) {
		t.Fatalf("expected the accepted clip back, got %d samples", len(clip.Samples))
	}
}

func TestRetryPolicyReturnsRejectedClipBestEffort(t *testing.T) {
	long := tone(10.0, 24000)
	policy := RetryPolicy{
		MaxAttempts: 3,
		Sleep:       func(time.Duration) {},
		Accept: func(audio.Clip) error {
			return errors.New("too long")
		},
	}
	clip, accepted, err := policy.Run(context.Background(), func(context.Context) (audio.Clip, error) {
		return long, nil
	})
	if err != nil {
		t.Fatalf("best-effort clip should suppress the error, got %v", err)
	}
	if accepted {
		t.Fatal("expected not accepted")
	}
	if clip.Empty() {
		t.Fatal("expected the last rejected clip back")
	}
}

func TestRetryPolicyNoAudioEver(t *testing.T) {
	policy := RetryPolicy{
		MaxAttempts: 3,
		Sleep:       func(time.Duration) {},
		Accept: func(c audio.Clip) error {
			if c.Empty() {
				return errors.New("empty clip")
			}
			return nil
		},
	}
	clip, accepted, err := policy.Run(context.Background(), func(context.Context) (audio.Clip, error) {
		return audio.Clip{SampleRate: 24000}, nil
	})
	if accepted || !clip.Empty() {
		t.Fatal("expected no usable clip")
	}
	if err == nil {
		t.Fatal("expected an error describing the rejection")
	}
}

func TestRetryPolicyHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	policy := RetryPolicy{MaxAttempts: 5, Sleep: func(time.Duration) {}}
	_, accepted, err := policy.Run(ctx, func(context.Context) (audio.Clip, error) {
		calls++
		return audio.Clip{}, nil
	})
	if calls != 0 {
		t.Fatalf("expected no attempts after cancellation, got %d", calls)
	}
	if accepted {
		t.Fatal("expected not accepted")
	}
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestRetryPolicyBackoffBetweenAttempts(t *testing.T) {
	var slept []time.Duration
	policy := RetryPolicy{
		MaxAttempts: 3,
		Backoff:     2 * time.Second,
		Sleep:       func(d time.Duration) { slept = append(slept, d) },
	}
	boom := errors.New("nope")
	policy.Run(context.Background(), func(context.Context) (audio.Clip, error) {
		return audio.Clip{}, boom
	})
	if len(slept) != 2 {
		t.Fatalf("expected backoff between attempts only, got %d sleeps", len(slept))
	}
	for _, d := range slept {
		if d != 2*time.Second {
			t.Fatalf("unexpected backoff %v", d)
		}
	}
}
