package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edgefleet/fleetman/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestRevisionSingleDescriptor(t *testing.T) {
	var gotAuth, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAgent = r.Header.Get("User-Agent")
		assert.NotEmpty(t, r.URL.Query().Get("t"), "revision calls must be cache-busted")
		w.Write([]byte(`{"sha":"abc123","commit":{"message":"fix tunnel","committer":{"date":"2026-02-01T10:00:00Z"}}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "gh-token", log.NewTestLogger())
	rev, err := c.LatestRevision(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "abc123", rev.ID)
	assert.Equal(t, "fix tunnel", rev.Message)
	assert.Equal(t, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), rev.CommittedAt)
	assert.Equal(t, "token gh-token", gotAuth)
	assert.Equal(t, userAgent, gotAgent)
}

func TestLatestRevisionListTakesFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"sha":"newest","commit":{"message":"m1","committer":{"date":"2026-02-02T00:00:00Z"}}},{"sha":"older","commit":{"message":"m0","committer":{"date":"2026-02-01T00:00:00Z"}}}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "", log.NewTestLogger())
	rev, err := c.LatestRevision(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "newest", rev.ID)
}

func TestLatestRevisionCacheBustPreservesExistingQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("per_page"))
		assert.NotEmpty(t, r.URL.Query().Get("t"))
		w.Write([]byte(`[{"sha":"x","commit":{"message":"","committer":{"date":"2026-01-01T00:00:00Z"}}}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "", log.NewTestLogger())
	_, err := c.LatestRevision(context.Background(), srv.URL+"?per_page=1")
	require.NoError(t, err)
}

func TestLatestRevisionNon200IsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "", log.NewTestLogger())
	_, err := c.LatestRevision(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "status 403")
}

func TestLatestRevisionEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "", log.NewTestLogger())
	_, err := c.LatestRevision(context.Background(), srv.URL)
	assert.Error(t, err)
}

func TestFetchArtifact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("t"))
		w.Write([]byte("export default { fetch() {} }"))
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "", log.NewTestLogger())
	body, err := c.FetchArtifact(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "export default { fetch() {} }", body)
}

func TestFetchArtifactNon200IsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), "", log.NewTestLogger())
	_, err := c.FetchArtifact(context.Background(), srv.URL)
	assert.ErrorContains(t, err, "status 404")
}
