package qrs

import (
	"context"
	"encoding/json"
	"fmt"
)

// Backend describes one quantum backend exposed by the runtime service.
type Backend struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// Backends is the backend list document.
type Backends struct {
	Backends []Backend `json:"devices"`
}

// ListBackends returns all backends visible to the caller.
func (c *Client) ListBackends(ctx context.Context) (*Backends, error) {
	var body []byte
	err := c.Retrier.Retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, "GET", "/v1/backends", nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &Backends{}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("unmarshaling backend list: %v", err)
	}
	return out, nil
}

// GetBackendConfiguration returns the backend configuration document,
// passed through opaque.
func (c *Client) GetBackendConfiguration(ctx context.Context, name string) (json.RawMessage, error) {
	var body []byte
	err := c.Retrier.Retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, "GET", "/v1/backends/"+name+"/configuration", nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

// GetBackendProperties returns the backend calibration properties document.
func (c *Client) GetBackendProperties(ctx context.Context, name string) (json.RawMessage, error) {
	var body []byte
	err := c.Retrier.Retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, "GET", "/v1/backends/"+name+"/properties", nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}
