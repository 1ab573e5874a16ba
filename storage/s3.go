package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go"
	"github.com/qcgrid/qres/config"
)

// S3 provides access to an S3-compatible object store using request
// signing, without a full vendor SDK.
type S3 struct {
	client *minio.Client
}

// NewS3 creates a new S3 store for the given endpoint and credentials.
func NewS3(conf config.ObjectStore) (*S3, error) {
	host, ssl := parseEndpoint(conf.Endpoint)
	client, err := minio.NewWithRegion(host, conf.Key, conf.Secret, ssl, conf.Region)
	if err != nil {
		return nil, fmt.Errorf("error creating s3 store: %v", err)
	}
	return &S3{client}, nil
}

// PresignGet returns a presigned URL for a GET of bucket/key, valid for ttl.
func (s *S3) PresignGet(bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(bucket, key, ttl, nil)
	if err != nil {
		return "", mapError("presign get", bucket, key, err)
	}
	return u.String(), nil
}

// PresignPut returns a presigned URL for a PUT of bucket/key, valid for ttl.
func (s *S3) PresignPut(bucket, key string, ttl time.Duration) (string, error) {
	u, err := s.client.PresignedPutObject(bucket, key, ttl)
	if err != nil {
		return "", mapError("presign put", bucket, key, err)
	}
	return u.String(), nil
}

// Put writes the payload to bucket/key.
func (s *S3) Put(ctx context.Context, bucket, key string, payload []byte) error {
	_, err := s.client.PutObjectWithContext(
		ctx, bucket, key, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"},
	)
	if err != nil {
		return mapError("put object", bucket, key, err)
	}
	return nil
}

// Get reads the whole object at bucket/key.
func (s *S3) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.client.GetObjectWithContext(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapError("get object", bucket, key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError("get object", bucket, key, err)
	}
	return data, nil
}

// Delete removes the object at bucket/key.
func (s *S3) Delete(ctx context.Context, bucket, key string) error {
	if err := s.client.RemoveObject(bucket, key); err != nil {
		return mapError("delete object", bucket, key, err)
	}
	return nil
}

// List returns all keys in the bucket.
func (s *S3) List(ctx context.Context, bucket string) ([]string, error) {
	doneCh := make(chan struct{})
	defer close(doneCh)

	var keys []string
	for obj := range s.client.ListObjectsV2(bucket, "", true, doneCh) {
		if obj.Err != nil {
			return nil, mapError("list objects", bucket, "", obj.Err)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

// mapError converts underlying client errors to the storage taxonomy.
func mapError(op, bucket, key string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket":
		return &NotFoundError{Op: op, Bucket: bucket, Key: key}
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return &AccessDeniedError{Op: op, Bucket: bucket, Key: key}
	case "XMinioInvalidObjectName", "MalformedXML":
		return &MalformedError{Op: op, Err: err}
	}
	if resp.StatusCode >= 500 || resp.Code == "" {
		return &UnreachableError{Op: op, Err: err}
	}
	return &MalformedError{Op: op, Err: err}
}
