package webclient

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestPollStopsWhenDone(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), 5, time.Millisecond, func() (bool, error) {
		calls++
		return calls == 3, nil
	})
	if err != nil {
		t.Fatalf("poll: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestPollPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	err := Poll(context.Background(), 5, time.Millisecond, func() (bool, error) {
		calls++
		return false, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if calls != 1 {
		t.Fatalf("errors should not be retried, calls = %d", calls)
	}
}

func TestPollExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Poll(context.Background(), 3, time.Millisecond, func() (bool, error) {
		calls++
		return false, nil
	})
	if !errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("err = %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestPollHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Poll(ctx, 5, time.Minute, func() (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	// Cancellation must stay distinguishable from running out of attempts.
	if errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("cancellation reported as exhaustion: %v", err)
	}
}

func TestPollDeadlineIsNotExhaustion(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	err := Poll(ctx, 5, time.Minute, func() (bool, error) {
		return false, nil
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
	if errors.Is(err, ErrAttemptsExhausted) {
		t.Fatalf("deadline reported as exhaustion: %v", err)
	}
}
