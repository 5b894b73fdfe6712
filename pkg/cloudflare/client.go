// Package cloudflare implements the deployment-target and usage-metrics API
// client.
package cloudflare

import (
	"net/http"
	"time"

	"github.com/edgefleet/fleetman/pkg/log"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// Client talks to the deployment platform with per-account bearer
// credentials. One attempt per call, no retry.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint, mainly for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// NewClient creates a platform API client.
func NewClient(httpClient *http.Client, logger log.Logger, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: httpClient,
		logger:     logger.WithComponent("cloudflare"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
