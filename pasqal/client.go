// Package pasqal is a client for the Pasqal cloud control plane, the
// backend family that runs pulse sequences as batches of jobs. Its bearer
// token is long-lived and never refreshed.
package pasqal

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/qcgrid/qres/auth"
	"github.com/qcgrid/qres/config"
	"github.com/qcgrid/qres/logger"
	"github.com/qcgrid/qres/util"
)

const apiPrefix = "/core-fast/api/v1"

// Client is a Pasqal cloud HTTP client.
type Client struct {
	address string
	client  *http.Client
	auth    *auth.Cache
	project string

	// Retrier covers idempotent reads. Batch creation is never retried.
	Retrier *util.Retrier

	log logger.Logger
}

// NewClient returns a new Pasqal cloud client for the given resource
// descriptor.
func NewClient(conf config.Resource, log logger.Logger) (*Client, error) {
	re := regexp.MustCompile("^(http|https)://")
	if !re.MatchString(conf.Endpoint) {
		return nil, fmt.Errorf("invalid endpoint: %s. endpoint must start with http or https", conf.Endpoint)
	}
	if log == nil {
		log = logger.New("pasqal", "resource", conf.Name)
	}
	return &Client{
		address: endpointRE.ReplaceAllString(conf.Endpoint, ""),
		client: &http.Client{
			Timeout: time.Duration(conf.RequestTimeout),
		},
		auth:    auth.Static(conf.AuthToken),
		project: conf.ProjectID,
		Retrier: util.NewRetrier(),
		log:     log,
	}, nil
}

var endpointRE = regexp.MustCompile("/+$")

// do performs one authenticated request and returns the response body.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.address+apiPrefix+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	return util.CheckHTTPResponse(c.client.Do(req))
}
