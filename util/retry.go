package util

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/cenkalti/backoff"
)

// Retrier is a wrapper around "github.com/cenkalti/backoff".ExponentialBackOff
// which caps the number of attempts and classifies errors as transient or
// permanent. Only transient errors are retried.
type Retrier struct {
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	MaxElapsedTime      time.Duration
	MaxTries            int
	ShouldRetry         func(err error) bool
	Notify              func(err error, d time.Duration)
}

// NewRetrier creates a new Retrier instance using default values.
func NewRetrier() *Retrier {
	return &Retrier{
		InitialInterval:     time.Second,
		MaxInterval:         time.Second * 5,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
		MaxElapsedTime:      time.Minute * 15,
		MaxTries:            5,
		ShouldRetry:         Transient,
	}
}

// ExhaustedError is returned once the retry budget is spent. It wraps the
// last underlying error.
type ExhaustedError struct {
	Tries int
	Err   error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry budget exhausted after %d tries: %v", e.Tries, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Retry runs the function f until it does not return error, a permanent
// error occurs, the context is cancelled, or the attempt budget is spent.
// Non-transient errors are returned unchanged; cancellation surfaces the
// context error; once the budget is spent the last error is wrapped in an
// ExhaustedError reporting the attempts actually made.
func (r *Retrier) Retry(ctx context.Context, f func() error) error {
	should := r.ShouldRetry
	if should == nil {
		should = Transient
	}

	permanent := false
	attempts := 0
	b := backoff.WithContext(r.withTries(), ctx)
	err := backoff.RetryNotify(func() error {
		attempts++
		err := f()
		if err != nil && !should(err) {
			permanent = true
			return &backoff.PermanentError{Err: err}
		}
		return err
	}, b, r.notify)

	if err == nil || permanent {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return &ExhaustedError{Tries: attempts, Err: err}
}

func (r *Retrier) notify(err error, d time.Duration) {
	if r.Notify != nil {
		r.Notify(err, d)
	}
}

func (r *Retrier) withTries() backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     r.InitialInterval,
		MaxInterval:         r.MaxInterval,
		Multiplier:          r.Multiplier,
		RandomizationFactor: r.RandomizationFactor,
		MaxElapsedTime:      r.MaxElapsedTime,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	max := r.MaxTries - 1
	if max < 0 {
		max = 0
	}
	return backoff.WithMaxRetries(b, uint64(max))
}

// Transient reports whether an error is worth retrying: connection
// failures, timeouts, and HTTP 5xx / 429 responses. Everything else,
// including other 4xx responses, malformed bodies, and certificate
// verification failures, is permanent.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	switch e := err.(type) {
	case *HTTPError:
		return e.Temporary()
	case *url.Error:
		var certErr *tls.CertificateVerificationError
		if errors.As(e.Err, &certErr) {
			return false
		}
		return true
	case net.Error:
		return true
	}
	return false
}
