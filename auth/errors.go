package auth

import "fmt"

// UnreachableError indicates the identity endpoint could not be reached.
type UnreachableError struct {
	Endpoint string
	Err      error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("auth: identity endpoint %s unreachable: %v", e.Endpoint, e.Err)
}

func (e *UnreachableError) Unwrap() error {
	return e.Err
}

// RejectedError indicates the identity endpoint rejected the credentials.
type RejectedError struct {
	StatusCode int
	Body       string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("auth: credentials rejected (status %d): %s", e.StatusCode, e.Body)
}

// MalformedError indicates the token response was missing expected fields.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("auth: malformed token response: %s", e.Reason)
}
