package webclient

import (
	"context"
	"errors"
	"time"
)

// ErrAttemptsExhausted reports that every attempt ran without the
// function reporting done. Distinct from the caller's context expiring.
var ErrAttemptsExhausted = errors.New("attempts exhausted")

type AttemptFunc func() (done bool, err error)

// Poll runs the attempt function until it reports done, returns an error,
// or the attempts are exhausted. The delay doubles between attempts up to
// 30 seconds.
func Poll(ctx context.Context, attempts int, initialDelay time.Duration, fn AttemptFunc) error {
	if attempts <= 0 {
		attempts = 1
	}
	if initialDelay <= 0 {
		initialDelay = 2 * time.Second
	}
	delay := initialDelay
	for i := 0; i < attempts; i++ {
		done, err := fn()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if i == attempts-1 {
			break
		}
		t := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		if delay < 30*time.Second {
			delay *= 2
		}
	}
	return ErrAttemptsExhausted
}
