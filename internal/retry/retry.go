// Package retry runs an operation under a bounded exponential-backoff policy.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// StatusError is returned for a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d, body: %s", e.URL, e.StatusCode, e.Body)
}

// Policy configures Do. The delay before attempt n+1 (n counted from 0) is
// BaseDelay*2^n plus a jitter value.
type Policy struct {
	MaxAttempts     int
	BaseDelay       time.Duration
	RetryableStatus []int

	// Jitter returns the random part of each delay. Nil means uniform in [0, 1s).
	Jitter func() time.Duration
	// Notify, when set, is called before each sleep.
	Notify func(err error, wait time.Duration)
}

// DefaultPolicy retries rate-limit responses three times starting at 500ms.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: 500 * time.Millisecond, RetryableStatus: []int{http.StatusTooManyRequests}}
}

// NoDelay returns a copy of p that never sleeps between attempts.
func (p Policy) NoDelay() Policy {
	p.BaseDelay = 0
	p.Jitter = func() time.Duration { return 0 }
	return p
}

// Delay returns the wait before the attempt following the given zero-based one.
func (p Policy) Delay(attempt int) time.Duration {
	d := p.BaseDelay << uint(attempt)
	if p.Jitter != nil {
		return d + p.Jitter()
	}
	return d + time.Duration(rand.Int63n(int64(time.Second)))
}

// Retryable reports whether err is worth another attempt. Status errors are
// retried only for the configured codes; cancellation never is; anything
// else is treated as a transport failure.
func (p Policy) Retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		for _, code := range p.RetryableStatus {
			if se.StatusCode == code {
				return true
			}
		}
		return false
	}
	return true
}

type schedule struct {
	policy  Policy
	attempt int
}

func (s *schedule) NextBackOff() time.Duration {
	d := s.policy.Delay(s.attempt)
	s.attempt++
	return d
}

func (s *schedule) Reset() { s.attempt = 0 }

// Do calls op until it succeeds, returns a non-retryable error, or the
// policy's attempts are used up. The last error is returned unchanged.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	b := backoff.WithContext(backoff.WithMaxRetries(&schedule{policy: p}, uint64(attempts-1)), ctx)

	return backoff.RetryNotify(func() error {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}, b, func(err error, wait time.Duration) {
		if p.Notify != nil {
			p.Notify(err, wait)
		}
	})
}
