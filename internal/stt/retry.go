package stt

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryableError wraps errors that should be retried.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string {
	return e.err.Error()
}

func (e *retryableError) Unwrap() error {
	return e.err
}

// isRetryable returns true if the error should be retried.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// retryPolicy holds the backoff parameters shared by the HTTP backends.
type retryPolicy struct {
	maxRetries  int
	baseBackoff time.Duration
}

func defaultRetryPolicy() retryPolicy {
	return retryPolicy{maxRetries: 3, baseBackoff: time.Second}
}

// do runs op with exponential backoff. Only errors wrapped in
// retryableError are retried; anything else stops immediately.
func (p retryPolicy) do(ctx context.Context, op func() error) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.baseBackoff
	eb.MaxElapsedTime = 0

	maxRetries := p.maxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(maxRetries)), ctx)

	return backoff.Retry(func() error {
		err := op()
		if err == nil || isRetryable(err) {
			return err
		}
		return backoff.Permanent(err)
	}, b)
}
