package actions

import (
	"context"
	"time"
)

// SleepFunc suspends the caller for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is a cooperative sleep: it only blocks the calling goroutine and
// returns ctx.Err() as soon as the context is cancelled.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
