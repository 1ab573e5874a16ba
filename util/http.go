package util

import (
	"fmt"
	"io"
	"net/http"
)

// HTTPError describes a non-2xx control plane response.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("[STATUS CODE - %d]\t%s", e.StatusCode, e.Body)
}

// Temporary reports whether the response status is retryable
// (rate limiting or a server-side failure).
func (e *HTTPError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// CheckHTTPResponse does some basic error handling
// and reads the response body into a byte array.
func CheckHTTPResponse(resp *http.Response, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if (resp.StatusCode / 100) != 2 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: body}
	}
	return body, nil
}
