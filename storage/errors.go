package storage

import "fmt"

// UnreachableError is returned when the object store endpoint cannot be
// reached or answers with a server-side failure. Retryable.
type UnreachableError struct {
	Op  string
	Err error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("storage: %s: endpoint unreachable: %v", e.Op, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// AccessDeniedError is returned when the store rejects the request
// credentials or signature.
type AccessDeniedError struct {
	Op     string
	Bucket string
	Key    string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("storage: %s: access denied for %s/%s", e.Op, e.Bucket, e.Key)
}

// NotFoundError is returned when the bucket or key does not exist.
type NotFoundError struct {
	Op     string
	Bucket string
	Key    string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("storage: %s: %s/%s not found", e.Op, e.Bucket, e.Key)
}

// MalformedError is returned when the store response cannot be understood.
type MalformedError struct {
	Op  string
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("storage: %s: malformed response: %v", e.Op, e.Err)
}

func (e *MalformedError) Unwrap() error {
	return e.Err
}

// Retryable reports whether a storage error is worth retrying.
func Retryable(err error) bool {
	_, ok := err.(*UnreachableError)
	return ok
}
