// Package client is the CLI-side HTTP client for the daemon's JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/edgefleet/fleetman/pkg/types"
)

// DefaultAddr is where the CLI looks for a local daemon.
const DefaultAddr = "http://127.0.0.1:8080"

// accessCodeHeader mirrors the server's non-browser auth channel.
const accessCodeHeader = "X-Access-Code"

// Client talks to a running fleetmand.
type Client struct {
	baseURL    string
	accessCode string
	httpClient *http.Client
}

// New creates a client for the daemon at baseURL.
func New(baseURL, accessCode string) *Client {
	if baseURL == "" {
		baseURL = DefaultAddr
	}
	return &Client{
		baseURL:    baseURL,
		accessCode: accessCode,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.accessCode != "" {
		req.Header.Set(accessCodeHeader, c.accessCode)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daemon unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func typeQuery(templateID string) url.Values {
	return url.Values{"type": []string{templateID}}
}

// Health checks daemon liveness.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil, nil)
}

// Accounts fetches the configured account list.
func (c *Client) Accounts(ctx context.Context) ([]types.Account, error) {
	var accounts []types.Account
	if err := c.do(ctx, http.MethodGet, "/api/accounts", nil, nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SaveAccounts replaces the account list.
func (c *Client) SaveAccounts(ctx context.Context, accounts []types.Account) error {
	return c.do(ctx, http.MethodPost, "/api/accounts", nil, accounts, nil)
}

// Settings fetches a template's variable working set; nil means unconfigured.
func (c *Client) Settings(ctx context.Context, templateID string) ([]types.VariableBinding, error) {
	var set []types.VariableBinding
	if err := c.do(ctx, http.MethodGet, "/api/settings", typeQuery(templateID), nil, &set); err != nil {
		return nil, err
	}
	return set, nil
}

// SaveSettings replaces a template's variable working set.
func (c *Client) SaveSettings(ctx context.Context, templateID string, set []types.VariableBinding) error {
	return c.do(ctx, http.MethodPost, "/api/settings", typeQuery(templateID), set, nil)
}

// AutoConfig fetches the scheduled policy; nil means never configured.
func (c *Client) AutoConfig(ctx context.Context) (*types.AutoPolicy, error) {
	var policy types.AutoPolicy
	if err := c.do(ctx, http.MethodGet, "/api/auto_config", nil, nil, &policy); err != nil {
		return nil, err
	}
	return &policy, nil
}

// SaveAutoConfig updates the scheduled policy.
func (c *Client) SaveAutoConfig(ctx context.Context, policy *types.AutoPolicy) error {
	return c.do(ctx, http.MethodPost, "/api/auto_config", nil, policy, nil)
}

// CheckUpdate compares a template's deployed and upstream revisions.
func (c *Client) CheckUpdate(ctx context.Context, templateID string) (*types.UpdateStatus, error) {
	var status types.UpdateStatus
	if err := c.do(ctx, http.MethodGet, "/api/check_update", typeQuery(templateID), nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Deploy pushes a template to the fleet with the given variable set.
func (c *Client) Deploy(ctx context.Context, templateID string, vars []types.VariableBinding) ([]types.DeployLogEntry, error) {
	body := map[string]interface{}{"variables": vars}
	var logs []types.DeployLogEntry
	if err := c.do(ctx, http.MethodPost, "/api/deploy", typeQuery(templateID), body, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// Rotate replaces a template's secret variable and redeploys.
func (c *Client) Rotate(ctx context.Context, templateID string) ([]types.DeployLogEntry, error) {
	var logs []types.DeployLogEntry
	if err := c.do(ctx, http.MethodPost, "/api/rotate", typeQuery(templateID), nil, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// Stats fetches today's per-account usage.
func (c *Client) Stats(ctx context.Context) ([]types.UsageStat, error) {
	var stats []types.UsageStat
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}
