package actions

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrRetryExhausted is returned when a bounded RetryUntil gives up
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// RetryPolicy controls a "do something until the screen changes" loop.
//
// MaxAttempts == 0 retries without bound: the loop ends only when done
// reports true, an error occurs, or ctx is cancelled. A bound is opt-in.
type RetryPolicy struct {
	Delay       time.Duration               // Wait between attempt and check
	MaxAttempts int                         // 0 = unbounded
	Gate        func(context.Context) error // Runs before each attempt (pause handling)
	Sleep       SleepFunc                   // Defaults to Sleep
}

// RetryUntil runs attempt, waits policy.Delay, then evaluates done, until done
// succeeds. It returns the number of attempts made.
func RetryUntil(ctx context.Context, policy RetryPolicy, attempt func(context.Context) error, done func(context.Context) (bool, error)) (int, error) {
	sleep := policy.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	attempts := 0
	for {
		if policy.MaxAttempts > 0 && attempts >= policy.MaxAttempts {
			return attempts, fmt.Errorf("%w after %d attempts", ErrRetryExhausted, attempts)
		}
		if err := ctx.Err(); err != nil {
			return attempts, err
		}

		if policy.Gate != nil {
			if err := policy.Gate(ctx); err != nil {
				return attempts, err
			}
		}

		if err := attempt(ctx); err != nil {
			return attempts, err
		}
		attempts++

		if err := sleep(ctx, policy.Delay); err != nil {
			return attempts, err
		}

		ok, err := done(ctx)
		if err != nil {
			return attempts, err
		}
		if ok {
			return attempts, nil
		}
	}
}
