package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/edgefleet/fleetman/pkg/types"
)

// usageQuery sums request counts across the sub-resources the platform
// reports: standard worker invocations and pages function invocations.
const usageQuery = `
query getBillingMetrics($AccountID: String!, $filter: AccountWorkersInvocationsAdaptiveFilter_InputObject) {
  viewer {
    accounts(filter: {accountTag: $AccountID}) {
      workersInvocationsAdaptive(limit: 10000, filter: $filter) { sum { requests } }
      pagesFunctionsInvocationsAdaptiveGroups(limit: 1000, filter: $filter) { sum { requests } }
    }
  }
}
`

type usageResponse struct {
	Data struct {
		Viewer struct {
			Accounts []struct {
				WorkersInvocationsAdaptive []struct {
					Sum struct {
						Requests int64 `json:"requests"`
					} `json:"sum"`
				} `json:"workersInvocationsAdaptive"`
				PagesFunctionsInvocationsAdaptiveGroups []struct {
					Sum struct {
						Requests int64 `json:"requests"`
					} `json:"sum"`
				} `json:"pagesFunctionsInvocationsAdaptiveGroups"`
			} `json:"accounts"`
		} `json:"viewer"`
	} `json:"data"`
}

// AccountUsage queries the metrics API for an account's total request count
// in the [from, to] window and returns the summed total.
func (c *Client) AccountUsage(ctx context.Context, account *types.Account, from, to time.Time) (int64, error) {
	payload := map[string]interface{}{
		"query": usageQuery,
		"variables": map[string]interface{}{
			"AccountID": account.AccountID,
			"filter": map[string]string{
				"datetime_geq": from.UTC().Format(time.RFC3339),
				"datetime_leq": to.UTC().Format(time.RFC3339),
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("failed to encode usage query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/graphql", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to build usage request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+account.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("usage query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("metrics API returned status %d", resp.StatusCode)
	}

	var decoded usageResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("failed to decode usage response: %w", err)
	}

	accounts := decoded.Data.Viewer.Accounts
	if len(accounts) == 0 {
		return 0, fmt.Errorf("metrics API returned no data for account %s", account.AccountID)
	}

	var total int64
	for _, group := range accounts[0].WorkersInvocationsAdaptive {
		total += group.Sum.Requests
	}
	for _, group := range accounts[0].PagesFunctionsInvocationsAdaptiveGroups {
		total += group.Sum.Requests
	}
	return total, nil
}
