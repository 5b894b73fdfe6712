package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"github.com/edgefleet/fleetman/pkg/types"
)

// scriptCompatibilityDate is pinned so a new upload never silently changes
// runtime behavior of already-working artifacts.
const scriptCompatibilityDate = "2024-01-01"

// Binding is a worker script binding in the platform's wire format. Bindings
// we do not manage (KV namespaces, queues) pass through untouched, so the
// value set is kept as raw maps.
type Binding map[string]interface{}

// Name returns the binding's name, or empty when malformed.
func (b Binding) Name() string {
	name, _ := b["name"].(string)
	return name
}

// MergeBindings upserts each non-empty variable into the target's current
// binding set as a plain-text binding: existing names are replaced, absent
// names appended. Empty variable values leave the target's value alone.
func MergeBindings(current []Binding, vars []types.VariableBinding) []Binding {
	merged := current
	for _, v := range vars {
		if v.Value == "" {
			continue
		}
		replaced := false
		for i := range merged {
			if merged[i].Name() == v.Key {
				merged[i] = Binding{"name": v.Key, "type": "plain_text", "text": v.Value}
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, Binding{"name": v.Key, "type": "plain_text", "text": v.Value})
		}
	}
	return merged
}

// TargetBindings fetches the current binding set of a deployed target.
func (c *Client) TargetBindings(ctx context.Context, account *types.Account, target string) ([]Binding, error) {
	url := fmt.Sprintf("%s/accounts/%s/workers/scripts/%s/bindings", c.baseURL, account.AccountID, target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build bindings request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+account.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bindings fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bindings endpoint returned status %d", resp.StatusCode)
	}

	var payload struct {
		Result []Binding `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode bindings: %w", err)
	}
	return payload.Result, nil
}

// UploadScript pushes the artifact and its binding set to a target as a new
// deployed unit.
func (c *Client) UploadScript(ctx context.Context, account *types.Account, target string, bindings []Binding, artifact string) error {
	metadata := map[string]interface{}{
		"main_module":        "index.js",
		"bindings":           bindings,
		"compatibility_date": scriptCompatibilityDate,
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to encode script metadata: %w", err)
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("metadata", string(metadataJSON)); err != nil {
		return fmt.Errorf("failed to write metadata part: %w", err)
	}
	scriptHeader := textproto.MIMEHeader{}
	scriptHeader.Set("Content-Disposition", `form-data; name="script"; filename="index.js"`)
	scriptHeader.Set("Content-Type", "application/javascript+module")
	scriptPart, err := form.CreatePart(scriptHeader)
	if err != nil {
		return fmt.Errorf("failed to create script part: %w", err)
	}
	if _, err := io.WriteString(scriptPart, artifact); err != nil {
		return fmt.Errorf("failed to write script part: %w", err)
	}
	if err := form.Close(); err != nil {
		return fmt.Errorf("failed to finalize upload form: %w", err)
	}

	url := fmt.Sprintf("%s/accounts/%s/workers/scripts/%s", c.baseURL, account.AccountID, target)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, &body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+account.APIToken)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("script upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s", uploadErrorMessage(resp))
	}
	return nil
}

// uploadErrorMessage extracts the platform's first error message from a
// failed upload response.
func uploadErrorMessage(resp *http.Response) string {
	var payload struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && len(payload.Errors) > 0 && payload.Errors[0].Message != "" {
		return payload.Errors[0].Message
	}
	return fmt.Sprintf("upload returned status %d", resp.StatusCode)
}
