package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"robust-element/internal/application/port/output"

	"github.com/go-rod/rod/lib/utils"
)

var ErrTimeout = errors.New("timed out")

// TimeoutError reports that a condition did not hold within the timeout.
// Cause is the last error the condition returned, if any.
type TimeoutError struct {
	Timeout time.Duration
	Message string
	Cause   error
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("timed out after %s waiting for %s", e.Timeout, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TimeoutError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrTimeout}
	}
	return []error{ErrTimeout, e.Cause}
}

// Condition is evaluated against the search context on every tick. A nil
// error ends the wait.
type Condition[T any] func(ctx context.Context, wc output.ContextWrapper) (T, error)

type Options struct {
	Timeout time.Duration
	// Message names what is being waited for.
	Message string
	// Ignore lists errors that keep the wait polling. Any other error ends it.
	Ignore []error
	// Sleeper overrides the backoff between ticks.
	Sleeper func() utils.Sleeper
}

func defaultSleeper() utils.Sleeper {
	return utils.BackoffSleeper(50*time.Millisecond, 500*time.Millisecond, nil)
}

// Until polls cond until it succeeds, fails with an error not listed in
// opts.Ignore, or opts.Timeout elapses. The condition is always evaluated at
// least once.
func Until[T any](ctx context.Context, wc output.ContextWrapper, opts Options, cond Condition[T]) (T, error) {
	var zero T

	newSleeper := opts.Sleeper
	if newSleeper == nil {
		newSleeper = defaultSleeper
	}
	sleep := newSleeper()

	deadline, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	for {
		v, err := cond(ctx, wc)
		if err == nil {
			return v, nil
		}
		if !ignored(err, opts.Ignore) {
			return zero, err
		}

		if serr := sleep(deadline); serr != nil {
			if ctx.Err() != nil {
				return zero, ctx.Err()
			}
			return zero, &TimeoutError{Timeout: opts.Timeout, Message: opts.Message, Cause: err}
		}
	}
}

func ignored(err error, list []error) bool {
	for _, target := range list {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
