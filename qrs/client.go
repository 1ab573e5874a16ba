// Package qrs is a client for the runtime service control plane, the
// backend family that carries job parameters inline and leases backend
// capacity through sessions.
package qrs

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

// Client is a runtime service HTTP client.
type Client struct {
	address string
	client  *http.Client
	auth    *auth.Cache
	crn     string

	// Retrier covers idempotent reads and deletes, plus session
	// acquisition and release. Job creation is never retried.
	Retrier *util.Retrier

	log logger.Logger
}

// NewClient returns a new runtime service client for the given resource
// descriptor.
func NewClient(conf config.Resource, tokens *auth.Cache, log logger.Logger) (*Client, error) {
	re := regexp.MustCompile("^(http|https)://")
	if !re.MatchString(conf.Endpoint) {
		return nil, fmt.Errorf("invalid endpoint: %s. endpoint must start with http or https", conf.Endpoint)
	}
	if log == nil {
		log = logger.New("qrs", "resource", conf.Name)
	}
	return &Client{
		address: endpointRE.ReplaceAllString(conf.Endpoint, ""),
		client: &http.Client{
			Timeout: time.Duration(conf.RequestTimeout),
		},
		auth:    tokens,
		crn:     conf.ServiceCRN,
		Retrier: util.NewRetrier(),
		log:     log,
	}, nil
}

var endpointRE = regexp.MustCompile("/+$")

// do performs one authenticated request against the runtime service and
// returns the response body.
func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.address+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	token, err := c.auth.Token(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	if c.crn != "" {
		req.Header.Set("Service-CRN", c.crn)
	}

	return util.CheckHTTPResponse(c.client.Do(req))
}
