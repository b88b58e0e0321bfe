// Package retry provides an explicit, caller-side retry policy for provider
// calls. No modelbridge component retries internally; wrapping a call in
// retry.Do is always a deliberate caller decision.
//
// Classification follows the core taxonomy: timeouts and retryable provider
// responses (429, 5xx) are retried with exponential backoff; auth failures,
// schema mismatches and tool errors are permanent.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hupe1980/modelbridge/core"
)

// Options configure the exponential backoff policy.
type Options struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
	MaxRetries      uint64 // retries after the first attempt
}

// Do runs op with exponential backoff until it succeeds, fails permanently
// or the policy is exhausted. ctx cancellation stops retrying immediately.
func Do(ctx context.Context, op func() error, optFns ...func(o *Options)) error {
	opts := Options{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		MaxElapsedTime:  2 * time.Minute,
		MaxRetries:      5,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = opts.InitialInterval
	eb.MaxInterval = opts.MaxInterval
	eb.MaxElapsedTime = opts.MaxElapsedTime

	policy := backoff.WithContext(backoff.WithMaxRetries(eb, opts.MaxRetries), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if !Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, policy)
}

// Retryable reports whether err is worth retrying: timeouts and provider
// responses in the retryable class (429, 5xx). Everything else, including
// auth failures and validation errors, is permanent.
func Retryable(err error) bool {
	var timeoutErr *core.TimeoutError
	if errors.As(err, &timeoutErr) {
		return true
	}
	var providerErr *core.ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable()
	}
	return false
}
