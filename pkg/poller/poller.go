// Package poller retries a call with exponential backoff until it succeeds,
// fails permanently or runs out of attempts.
package poller

import (
	"context"
	"errors"
	"time"
)

// ErrPollingLimit is returned once every attempt has failed. Callers usually
// stop silently on it.
var ErrPollingLimit = errors.New("polling limit exceeded")

type Config struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxAttempts  int
}

func DefaultConfig() *Config {
	return &Config{
		InitialDelay: 500 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2,
		MaxAttempts:  10,
	}
}

func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.InitialDelay <= 0 {
		out.InitialDelay = d.InitialDelay
	}
	if out.MaxDelay <= 0 {
		out.MaxDelay = d.MaxDelay
	}
	if out.Multiplier < 1 {
		out.Multiplier = d.Multiplier
	}
	if out.MaxAttempts <= 0 {
		out.MaxAttempts = d.MaxAttempts
	}
	return &out
}

// Delay returns the wait before the given retry, starting at 1.
func (c *Config) Delay(retry int) time.Duration {
	cfg := c.withDefaults()
	delay := float64(cfg.InitialDelay)
	for i := 1; i < retry; i++ {
		delay *= cfg.Multiplier
		if delay >= float64(cfg.MaxDelay) {
			return cfg.MaxDelay
		}
	}
	return time.Duration(delay)
}

// PollWithBackoff calls fn until it returns no error. An error for which
// shouldExit returns true is returned immediately. After MaxAttempts failed
// calls ErrPollingLimit is returned.
func PollWithBackoff[T any](ctx context.Context, cfg *Config, fn func(ctx context.Context) (T, error), shouldExit func(err error) bool) (T, error) {
	var zero T
	c := cfg.withDefaults()

	for attempt := 1; ; attempt++ {
		res, err := fn(ctx)
		if err == nil {
			return res, nil
		}
		if shouldExit != nil && shouldExit(err) {
			return zero, err
		}
		if attempt >= c.MaxAttempts {
			return zero, ErrPollingLimit
		}

		timer := time.NewTimer(c.Delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
