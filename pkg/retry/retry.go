package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/krrrr38/gitlab-issues-2-github/pkg/logger"
)

// Unbounded makes a Policy retry until the operation succeeds
const Unbounded = 0

const (
	DefaultPace           = 5 * time.Second
	DefaultInitialBackoff = 20 * time.Minute
	DefaultBackoffStep    = 5 * time.Minute
)

// Policy paces and retries an operation against the GitHub API
type Policy struct {
	// Pace is slept before every attempt, retries included
	Pace time.Duration
	// MaxAttempts bounds the number of attempts. Unbounded retries forever.
	MaxAttempts int
	// Backoff returns the sleep after the given failed attempt (1-based)
	Backoff func(attempt int) time.Duration
	// Retryable decides whether a failed attempt is retried
	Retryable func(err error) bool
	// Sleep blocks the caller. Defaults to time.Sleep.
	Sleep func(d time.Duration)
}

// DefaultPolicy paces every call by 5 seconds and retries forever,
// waiting 20 minutes after the first failure and 5 more minutes after each further failure.
func DefaultPolicy() Policy {
	return Policy{
		Pace:        DefaultPace,
		MaxAttempts: Unbounded,
		Backoff:     LinearBackoff(DefaultInitialBackoff, DefaultBackoffStep),
		Retryable:   RetryAll,
		Sleep:       time.Sleep,
	}
}

// LinearBackoff waits initial after the first failure and step longer after each further one
func LinearBackoff(initial, step time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt <= 1 {
			return initial
		}
		return initial + time.Duration(attempt-1)*step
	}
}

// RetryAll treats every error as retryable
func RetryAll(error) bool {
	return true
}

// Wrap returns op paced and retried according to p
func Wrap[T any](p Policy, name string, op func(ctx context.Context) (T, error)) func(ctx context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		return Do(ctx, p, name, op)
	}
}

// Do runs op once under p.
// The loop does not observe ctx between attempts; only the process exiting stops an unbounded retry.
func Do[T any](ctx context.Context, p Policy, name string, op func(ctx context.Context) (T, error)) (T, error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = RetryAll
	}

	for attempt := 1; ; attempt++ {
		if p.Pace > 0 {
			sleep(p.Pace)
		}

		logger.Info("Calling GitHub API", "operation", name, "attempt", attempt)
		result, err := op(ctx)
		if err == nil {
			return result, nil
		}

		if !retryable(err) {
			logger.Error("Non-retryable error", "operation", name, "attempt", attempt, "error", err)
			return result, fmt.Errorf("%s failed on attempt %d: %w", name, attempt, err)
		}
		if p.MaxAttempts != Unbounded && attempt >= p.MaxAttempts {
			logger.Error("Giving up", "operation", name, "attempt", attempt, "error", err)
			return result, fmt.Errorf("%s failed after %d attempts: %w", name, attempt, err)
		}

		var delay time.Duration
		if p.Backoff != nil {
			delay = p.Backoff(attempt)
		}
		logger.Error("An error occurred", "operation", name, "attempt", attempt, "error", err, "sleep", delay.String())
		sleep(delay)
	}
}
