package cloudflare

import (
	"context"
	"encoding/json"
	"mime"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edgefleet/fleetman/pkg/log"
	"github.com/edgefleet/fleetman/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAccount() *types.Account {
	return &types.Account{Alias: "main", AccountID: "acc-1", APIToken: "cf-token"}
}

func TestMergeBindingsReplacesByName(t *testing.T) {
	current := []Binding{
		{"name": "UUID", "type": "plain_text", "text": "old"},
		{"name": "MY_KV", "type": "kv_namespace", "namespace_id": "abc"},
	}
	vars := []types.VariableBinding{{Key: "UUID", Value: "new"}}

	merged := MergeBindings(current, vars)

	require.Len(t, merged, 2)
	assert.Equal(t, "new", merged[0]["text"])
	// Unmanaged binding types pass through untouched.
	assert.Equal(t, "kv_namespace", merged[1]["type"])
}

func TestMergeBindingsAppendsNewName(t *testing.T) {
	merged := MergeBindings(nil, []types.VariableBinding{{Key: "ADMIN", Value: "x"}})
	require.Len(t, merged, 1)
	assert.Equal(t, "ADMIN", merged[0].Name())
	assert.Equal(t, "plain_text", merged[0]["type"])
}

func TestMergeBindingsSkipsEmptyValues(t *testing.T) {
	current := []Binding{{"name": "PROXYIP", "type": "plain_text", "text": "kept"}}
	merged := MergeBindings(current, []types.VariableBinding{{Key: "PROXYIP", Value: ""}})

	require.Len(t, merged, 1)
	assert.Equal(t, "kept", merged[0]["text"], "empty variable values must not clobber target state")
}

func TestTargetBindings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/accounts/acc-1/workers/scripts/edge-1/bindings", r.URL.Path)
		assert.Equal(t, "Bearer cf-token", r.Header.Get("Authorization"))
		w.Write([]byte(`{"result":[{"name":"UUID","type":"plain_text","text":"v"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), log.NewTestLogger(), WithBaseURL(srv.URL))
	bindings, err := c.TargetBindings(context.Background(), testAccount(), "edge-1")
	require.NoError(t, err)
	require.Len(t, bindings, 1)
	assert.Equal(t, "UUID", bindings[0].Name())
}

func TestUploadScript(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/accounts/acc-1/workers/scripts/edge-1", r.URL.Path)

		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		assert.Equal(t, "multipart/form-data", mediaType)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		_ = params

		var metadata map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(r.MultipartForm.Value["metadata"][0]), &metadata))
		assert.Equal(t, "index.js", metadata["main_module"])
		assert.Equal(t, scriptCompatibilityDate, metadata["compatibility_date"])

		file, header, err := r.FormFile("script")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "index.js", header.Filename)
		assert.Equal(t, "application/javascript+module", header.Header.Get("Content-Type"))

		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), log.NewTestLogger(), WithBaseURL(srv.URL))
	err := c.UploadScript(context.Background(), testAccount(), "edge-1",
		[]Binding{{"name": "UUID", "type": "plain_text", "text": "v"}}, "export default {}")
	require.NoError(t, err)
}

func TestUploadScriptSurfacesRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"success":false,"errors":[{"message":"script too large"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), log.NewTestLogger(), WithBaseURL(srv.URL))
	err := c.UploadScript(context.Background(), testAccount(), "edge-1", nil, "big")
	assert.ErrorContains(t, err, "script too large")
}

func TestUploadScriptStatusOnlyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), log.NewTestLogger(), WithBaseURL(srv.URL))
	err := c.UploadScript(context.Background(), testAccount(), "edge-1", nil, "s")
	assert.ErrorContains(t, err, "status 502")
}
