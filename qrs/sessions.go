package qrs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/qcgrid/qres/util"
)

// Session modes. Dedicated holds the backend for one caller; batch shares
// it across queued jobs.
const (
	ModeDedicated = "dedicated"
	ModeBatch     = "batch"
)

type createSessionRequest struct {
	Mode   string `json:"mode"`
	MaxTTL int64  `json:"max_ttl"`
}

type sessionResponse struct {
	ID string `json:"id"`
}

// CreateSession opens an execution lane on the backend and returns its id.
// The id is the acquisition token callers must attach to jobs. Creation is
// retried on transient failure; a lane leaked by a lost response expires
// server-side at max_ttl.
func (c *Client) CreateSession(ctx context.Context, mode string, maxTTL time.Duration) (string, error) {
	payload, err := json.Marshal(createSessionRequest{
		Mode:   mode,
		MaxTTL: int64(maxTTL.Seconds()),
	})
	if err != nil {
		return "", fmt.Errorf("marshaling session request: %v", err)
	}

	var body []byte
	err = c.Retrier.Retry(ctx, func() error {
		var err error
		body, err = c.do(ctx, "POST", "/v1/sessions", payload)
		return err
	})
	if err != nil {
		return "", err
	}

	var out sessionResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("unmarshaling session: %v", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("session response missing id")
	}

	c.log.Info("session opened", "session", out.ID, "mode", mode)
	return out.ID, nil
}

// CloseSession releases the execution lane. Closing a session that no
// longer exists is a successful no-op, so release is safe to repeat.
func (c *Client) CloseSession(ctx context.Context, id string) error {
	return c.Retrier.Retry(ctx, func() error {
		_, err := c.do(ctx, "DELETE", "/v1/sessions/"+id, nil)
		if he, ok := err.(*util.HTTPError); ok && he.StatusCode == http.StatusNotFound {
			return nil
		}
		return err
	})
}
