// Package auth holds a bearer token obtained from an identity endpoint
// in exchange for a long-lived API key, refreshing it before expiry.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/qcgrid/qres/logger"
	"github.com/qcgrid/qres/util"
	"golang.org/x/sync/singleflight"
)

// refreshMargin is how long before expiry a token is considered stale.
const refreshMargin = time.Minute

// Config describes a credential identity: where to exchange the API key
// for a bearer token.
type Config struct {
	// Endpoint is the identity service base URL; tokens are requested
	// from Endpoint + "/v1/token".
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// tokenResponse is the identity endpoint response body.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Expiration  int64  `json:"expiration"`
}

// Cache caches a bearer token plus its expiry for one credential identity.
// Refresh is single-flight: concurrent callers finding a stale token block
// on one network exchange and share its result. Resource handles sharing a
// credential identity must share one Cache instance.
type Cache struct {
	conf   Config
	client *http.Client
	log    logger.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time

	group singleflight.Group
}

// NewCache returns an empty Cache. The first Token call performs a network
// exchange.
func NewCache(conf Config, log logger.Logger) *Cache {
	if conf.Timeout == 0 {
		conf.Timeout = time.Second * 30
	}
	if log == nil {
		log = logger.New("auth")
	}
	return &Cache{
		conf:   conf,
		client: &http.Client{Timeout: conf.Timeout},
		log:    log,
	}
}

// Token returns a bearer token with at least refreshMargin of remaining
// lifetime, refreshing it first if needed. A refresh failure while an
// unexpired token is still cached returns the cached token; on a cold
// cache the failure is returned.
func (c *Cache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	token, expiry := c.token, c.expiry
	c.mu.Unlock()

	now := time.Now()
	if token != "" && now.Before(expiry.Add(-refreshMargin)) {
		return token, nil
	}

	v, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		// Another caller may have refreshed while we waited on the lock.
		c.mu.Lock()
		token, expiry := c.token, c.expiry
		c.mu.Unlock()
		if token != "" && time.Now().Before(expiry.Add(-refreshMargin)) {
			return token, nil
		}
		return c.refresh(ctx)
	})
	if err != nil {
		// The old token may still be usable if the refresh was
		// triggered early by the safety margin.
		if token != "" && now.Before(expiry) {
			c.log.Warn("token refresh failed, using unexpired cached token",
				"error", err)
			return token, nil
		}
		return "", err
	}
	return v.(string), nil
}

// refresh performs the API-key-for-bearer-token exchange. The previously
// cached token is only replaced on success.
func (c *Cache) refresh(ctx context.Context) (string, error) {
	u := c.conf.Endpoint + "/v1/token"
	req, err := http.NewRequestWithContext(ctx, "POST", u, bytes.NewReader(nil))
	if err != nil {
		return "", &UnreachableError{Endpoint: c.conf.Endpoint, Err: err}
	}
	req.Header.Set("Authorization", "apikey "+c.conf.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &UnreachableError{Endpoint: c.conf.Endpoint, Err: err}
	}
	body, err := util.CheckHTTPResponse(resp, nil)
	if err != nil {
		if he, ok := err.(*util.HTTPError); ok {
			switch he.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
				return "", &RejectedError{StatusCode: he.StatusCode, Body: string(he.Body)}
			}
		}
		return "", &UnreachableError{Endpoint: c.conf.Endpoint, Err: err}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", &MalformedError{Reason: err.Error()}
	}
	if tr.AccessToken == "" {
		return "", &MalformedError{Reason: "missing access_token field"}
	}
	if tr.ExpiresIn <= 0 && tr.Expiration <= 0 {
		return "", &MalformedError{Reason: "missing token expiry"}
	}

	expiry := time.Unix(tr.Expiration, 0)
	if tr.Expiration <= 0 {
		expiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}

	c.mu.Lock()
	c.token = tr.AccessToken
	c.expiry = expiry
	c.mu.Unlock()

	c.log.Debug("bearer token refreshed", "expiry", expiry)
	return tr.AccessToken, nil
}

// Static returns a Cache that always serves the given token and never
// refreshes. Used by backend families with long-lived bearer tokens.
func Static(token string) *Cache {
	return &Cache{
		token:  token,
		expiry: time.Now().Add(time.Hour * 24 * 365),
		log:    logger.New("auth"),
	}
}
