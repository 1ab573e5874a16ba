package pasqal

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetDeviceSpecs returns the specification document for each device,
// keyed by device name. Each document is a serialized device description
// consumed by sequence builders; it is passed through opaque.
func (c *Client) GetDeviceSpecs(ctx context.Context) (map[string]string, error) {
	var body []byte
	err := c.Retrier.Retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, "GET", "/devices/specs", nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	data, err := unwrap(body)
	if err != nil {
		return nil, err
	}

	out := map[string]string{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("unmarshaling device specs: %v", err)
	}
	return out, nil
}
