// Package github fetches upstream revision descriptors and source artifacts
// from the source-hosting API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/edgefleet/fleetman/pkg/log"
	"github.com/edgefleet/fleetman/pkg/types"
)

const userAgent = "fleetman"

// Client talks to the source-hosting API. One attempt per call, no retry.
type Client struct {
	httpClient *http.Client
	token      string
	logger     log.Logger
}

// NewClient creates a source-hosting client. The token is optional; when set
// it is sent on revision API calls to raise the rate limit.
func NewClient(httpClient *http.Client, token string, logger log.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Client{
		httpClient: httpClient,
		token:      token,
		logger:     logger.WithComponent("github"),
	}
}

// commitDescriptor is the subset of the commits API payload we consume.
type commitDescriptor struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message   string `json:"message"`
		Committer struct {
			Date time.Time `json:"date"`
		} `json:"committer"`
	} `json:"commit"`
}

// LatestRevision fetches the latest revision descriptor from the given API
// URL. The endpoint may return a single descriptor or a list, in which case
// the first element is used.
func (c *Client) LatestRevision(ctx context.Context, apiURL string) (*types.Revision, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cacheBust(apiURL), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build revision request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("revision fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("revision API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read revision response: %w", err)
	}

	desc, err := parseCommitPayload(body)
	if err != nil {
		return nil, err
	}

	return &types.Revision{
		ID:          desc.SHA,
		CommittedAt: desc.Commit.Committer.Date,
		Message:     desc.Commit.Message,
	}, nil
}

// FetchArtifact downloads the deployable source body.
func (c *Client) FetchArtifact(ctx context.Context, scriptURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cacheBust(scriptURL), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build artifact request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("artifact download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("artifact URL returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read artifact body: %w", err)
	}
	return string(body), nil
}

func parseCommitPayload(body []byte) (*commitDescriptor, error) {
	trimmed := strings.TrimSpace(string(body))
	if strings.HasPrefix(trimmed, "[") {
		var list []commitDescriptor
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("failed to decode revision list: %w", err)
		}
		if len(list) == 0 {
			return nil, fmt.Errorf("revision API returned an empty list")
		}
		return &list[0], nil
	}

	var desc commitDescriptor
	if err := json.Unmarshal(body, &desc); err != nil {
		return nil, fmt.Errorf("failed to decode revision descriptor: %w", err)
	}
	if desc.SHA == "" {
		return nil, fmt.Errorf("revision descriptor has no sha")
	}
	return &desc, nil
}

// cacheBust appends a per-call timestamp parameter so intermediary caches
// never serve a stale descriptor or artifact.
func cacheBust(rawURL string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%st=%d", rawURL, sep, time.Now().UnixMilli())
}
