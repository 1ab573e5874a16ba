package storage

import (
	"context"
	"time"

	"github.com/qcgrid/qres/util"
)

// Retrier wraps a Store with logic which will retry transfers on transient
// failure, with a configurable backoff strategy. Presign calls sign
// locally and are passed through untouched.
type Retrier struct {
	*util.Retrier
	Backend Store
}

// NewRetrier wraps the store with the default retry policy.
func NewRetrier(s Store) *Retrier {
	r := util.NewRetrier()
	r.ShouldRetry = Retryable
	return &Retrier{Retrier: r, Backend: s}
}

func (r *Retrier) PresignGet(bucket, key string, ttl time.Duration) (string, error) {
	return r.Backend.PresignGet(bucket, key, ttl)
}

func (r *Retrier) PresignPut(bucket, key string, ttl time.Duration) (string, error) {
	return r.Backend.PresignPut(bucket, key, ttl)
}

func (r *Retrier) Put(ctx context.Context, bucket, key string, payload []byte) error {
	return r.Retry(ctx, func() error {
		return r.Backend.Put(ctx, bucket, key, payload)
	})
}

func (r *Retrier) Get(ctx context.Context, bucket, key string) (data []byte, err error) {
	err = r.Retry(ctx, func() error {
		data, err = r.Backend.Get(ctx, bucket, key)
		return err
	})
	return data, err
}

func (r *Retrier) Delete(ctx context.Context, bucket, key string) error {
	return r.Retry(ctx, func() error {
		return r.Backend.Delete(ctx, bucket, key)
	})
}

func (r *Retrier) List(ctx context.Context, bucket string) (keys []string, err error) {
	err = r.Retry(ctx, func() error {
		keys, err = r.Backend.List(ctx, bucket)
		return err
	})
	return keys, err
}
