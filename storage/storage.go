// Package storage provides a minimal client for the S3-compatible object
// store that carries staged job payloads: direct byte transfer plus
// time-limited presigned URLs handed to the backend.
package storage

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// Store is the object staging contract. Implementations transfer whole
// objects; no multipart or streaming upload is required.
type Store interface {
	// PresignGet returns a time-limited URL granting one GET of the object.
	PresignGet(bucket, key string, ttl time.Duration) (string, error)

	// PresignPut returns a time-limited URL granting one PUT of the object.
	PresignPut(bucket, key string, ttl time.Duration) (string, error)

	// Put writes the payload to bucket/key.
	Put(ctx context.Context, bucket, key string, payload []byte) error

	// Get reads the object at bucket/key.
	Get(ctx context.Context, bucket, key string) ([]byte, error)

	// Delete removes the object at bucket/key.
	Delete(ctx context.Context, bucket, key string) error

	// List returns the keys present in the bucket.
	List(ctx context.Context, bucket string) ([]string, error)
}

var endpointRE = regexp.MustCompile("^(.+://)?(.[^/]+)/?$")

// parseEndpoint splits an endpoint URL into host and TLS flag the way the
// underlying client wants them.
func parseEndpoint(endpoint string) (host string, ssl bool) {
	ssl = strings.HasPrefix(endpoint, "https")
	host = endpointRE.ReplaceAllString(endpoint, "$2")
	return host, ssl
}
