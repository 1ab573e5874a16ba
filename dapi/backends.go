package dapi

import (
	"context"
	"encoding/json"
	"fmt"
)

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

// GetBackend returns one backend by name.
func (c *Client) GetBackend(ctx context.Context, name string) (*Backend, error) {
	var body []byte
	err := c.Retrier.Retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, "GET", "/v1/backends/"+name, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	out := &Backend{}
	if err := json.Unmarshal(body, out); err != nil {
		return nil, fmt.Errorf("unmarshaling backend: %v", err)
	}
	return out, nil
}

// GetBackendConfiguration returns the backend configuration document.
// The document is passed through opaque; its schema belongs to the backend.
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
