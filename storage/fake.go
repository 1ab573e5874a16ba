package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Fake is an in-memory Store used in tests.
type Fake struct {
	mu      sync.Mutex
	objects map[string][]byte

	// PresignBase, when set, prefixes presigned URLs so tests can point
	// them at a local HTTP server.
	PresignBase string
}

// NewFake returns an empty in-memory store.
func NewFake() *Fake {
	return &Fake{objects: map[string][]byte{}}
}

func (f *Fake) path(bucket, key string) string {
	return bucket + "/" + key
}

func (f *Fake) PresignGet(bucket, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("%s/%s/%s?X-Amz-Expires=%d", f.PresignBase, bucket, key, int(ttl.Seconds())), nil
}

func (f *Fake) PresignPut(bucket, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("%s/%s/%s?X-Amz-Expires=%d", f.PresignBase, bucket, key, int(ttl.Seconds())), nil
}

func (f *Fake) Put(ctx context.Context, bucket, key string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b := make([]byte, len(payload))
	copy(b, payload)
	f.objects[f.path(bucket, key)] = b
	return nil
}

func (f *Fake) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[f.path(bucket, key)]
	if !ok {
		return nil, &NotFoundError{Op: "get object", Bucket: bucket, Key: key}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (f *Fake) Delete(ctx context.Context, bucket, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, f.path(bucket, key))
	return nil
}

func (f *Fake) List(ctx context.Context, bucket string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	prefix := bucket + "/"
	for p := range f.objects {
		if len(p) > len(prefix) && p[:len(prefix)] == prefix {
			keys = append(keys, p[len(prefix):])
		}
	}
	sort.Strings(keys)
	return keys, nil
}
