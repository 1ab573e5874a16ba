// Package dapi is a client for the direct-access control plane, the
// backend family that stages job payloads through an S3-compatible
// object store instead of carrying them inline.
package dapi

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
	"github.com/qcgrid/qres/storage"
	"github.com/qcgrid/qres/util"
)

// Client is a direct-access control plane HTTP client.
type Client struct {
	address string
	client  *http.Client
	auth    *auth.Cache
	crn     string

	store  storage.Store
	bucket string

	// Retrier covers idempotent reads and deletes. Job creation is
	// never retried.
	Retrier *util.Retrier

	log logger.Logger
}

// NewClient returns a new control plane client for the given resource
// descriptor. The auth cache must be shared across clients using the same
// credential identity.
func NewClient(conf config.Resource, tokens *auth.Cache, store storage.Store, log logger.Logger) (*Client, error) {
	re := regexp.MustCompile("^(http|https)://")
	if !re.MatchString(conf.Endpoint) {
		return nil, fmt.Errorf("invalid endpoint: %s. endpoint must start with http or https", conf.Endpoint)
	}
	if log == nil {
		log = logger.New("dapi", "resource", conf.Name)
	}
	return &Client{
		address: endpointRE.ReplaceAllString(conf.Endpoint, ""),
		client: &http.Client{
			Timeout: time.Duration(conf.RequestTimeout),
		},
		auth:    tokens,
		crn:     conf.ServiceCRN,
		store:   store,
		bucket:  conf.Store.Bucket,
		Retrier: util.NewRetrier(),
		log:     log,
	}, nil
}

// endpointRE strips a trailing slash so path joins stay predictable.
var endpointRE = regexp.MustCompile("/+$")

// do performs one authenticated request against the control plane and
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
