package manager

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edgefleet/fleetman/pkg/cloudflare"
	"github.com/edgefleet/fleetman/pkg/github"
	"github.com/edgefleet/fleetman/pkg/log"
	"github.com/edgefleet/fleetman/pkg/store"
	"github.com/edgefleet/fleetman/pkg/store/repos"
	"github.com/edgefleet/fleetman/pkg/types"
)

// fakeUpstream stands in for the source host: commit descriptors and raw
// artifacts per template.
type fakeUpstream struct {
	mu              sync.Mutex
	sha             map[string]string
	script          string
	scriptDownloads int
	revisionFail    bool
	scriptFail      bool
}

func (u *fakeUpstream) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		defer u.mu.Unlock()

		switch {
		case strings.HasPrefix(r.URL.Path, "/commits/"):
			if u.revisionFail {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			templateID := strings.TrimPrefix(r.URL.Path, "/commits/")
			sha := u.sha[templateID]
			fmt.Fprintf(w, `{"sha":%q,"commit":{"message":"update","committer":{"date":"2026-02-01T10:00:00Z"}}}`, sha)
		case strings.HasPrefix(r.URL.Path, "/script/"):
			if u.scriptFail {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			u.scriptDownloads++
			io.WriteString(w, u.script)
		default:
			http.NotFound(w, r)
		}
	})
}

type uploadRecord struct {
	AccountID string
	Target    string
	Script    string
	Bindings  []cloudflare.Binding
}

// fakePlatform stands in for the deployment platform: usage metrics, target
// bindings, and script uploads.
type fakePlatform struct {
	mu         sync.Mutex
	usage      map[string]int64  // accountID -> used requests
	usageErr   map[string]bool   // accountID -> fail the usage query
	bindings   map[string]string // target -> bindings result JSON
	uploadFail map[string]string // target -> error message
	uploads    []uploadRecord
	lastFilter map[string]string // window of the most recent usage query
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		usage:      map[string]int64{},
		usageErr:   map[string]bool{},
		bindings:   map[string]string{},
		uploadFail: map[string]string{},
	}
}

func (p *fakePlatform) uploadCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.uploads)
}

func (p *fakePlatform) uploadsFor(target string) []uploadRecord {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []uploadRecord
	for _, u := range p.uploads {
		if u.Target == target {
			out = append(out, u)
		}
	}
	return out
}

func (p *fakePlatform) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()

		if r.URL.Path == "/graphql" {
			var body struct {
				Variables struct {
					AccountID string            `json:"AccountID"`
					Filter    map[string]string `json:"filter"`
				} `json:"variables"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			p.lastFilter = body.Variables.Filter
			if p.usageErr[body.Variables.AccountID] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprintf(w, `{"data":{"viewer":{"accounts":[{"workersInvocationsAdaptive":[{"sum":{"requests":%d}}],"pagesFunctionsInvocationsAdaptiveGroups":[]}]}}}`,
				p.usage[body.Variables.AccountID])
			return
		}

		// /accounts/{id}/workers/scripts/{target}[/bindings]
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) < 5 || parts[0] != "accounts" || parts[2] != "workers" || parts[3] != "scripts" {
			http.NotFound(w, r)
			return
		}
		accountID := parts[1]
		target := parts[4]

		if len(parts) == 6 && parts[5] == "bindings" {
			result, ok := p.bindings[target]
			if !ok {
				result = "[]"
			}
			fmt.Fprintf(w, `{"result":%s}`, result)
			return
		}

		if r.Method == http.MethodPut {
			if msg, failed := p.uploadFail[target]; failed {
				w.WriteHeader(http.StatusBadRequest)
				fmt.Fprintf(w, `{"success":false,"errors":[{"message":%q}]}`, msg)
				return
			}
			r.ParseMultipartForm(1 << 20)
			var metadata struct {
				Bindings []cloudflare.Binding `json:"bindings"`
			}
			json.Unmarshal([]byte(r.MultipartForm.Value["metadata"][0]), &metadata)
			file, _, _ := r.FormFile("script")
			script, _ := io.ReadAll(file)
			file.Close()
			p.uploads = append(p.uploads, uploadRecord{
				AccountID: accountID,
				Target:    target,
				Script:    string(script),
				Bindings:  metadata.Bindings,
			})
			w.Write([]byte(`{"success":true}`))
			return
		}
		http.NotFound(w, r)
	})
}

// harness wires a manager over in-memory state and the two fake servers.
type harness struct {
	mgr      *Manager
	state    *repos.StateRepo
	upstream *fakeUpstream
	platform *fakePlatform
	now      time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		upstream: &fakeUpstream{sha: map[string]string{"cmliu": "sha1", "joey": "sha1"}, script: "export default {}"},
		platform: newFakePlatform(),
		now:      time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
	}

	upstreamSrv := httptest.NewServer(h.upstream.handler())
	platformSrv := httptest.NewServer(h.platform.handler())
	t.Cleanup(upstreamSrv.Close)
	t.Cleanup(platformSrv.Close)

	h.state = repos.NewStateRepo(store.NewMemoryStore())

	logger := log.NewTestLogger()
	gh := github.NewClient(upstreamSrv.Client(), "", logger)
	cf := cloudflare.NewClient(platformSrv.Client(), logger, cloudflare.WithBaseURL(platformSrv.URL))

	h.mgr = NewManager(h.state, gh, cf, logger,
		WithTemplates(testTemplates(upstreamSrv.URL)),
		WithNowFunc(func() time.Time { return h.now }),
	)
	return h
}

func testTemplates(upstreamURL string) []types.ProjectTemplate {
	return []types.ProjectTemplate{
		{
			ID:           "cmliu",
			Name:         "CMliu - EdgeTunnel",
			ScriptURL:    upstreamURL + "/script/cmliu",
			CommitAPIURL: upstreamURL + "/commits/cmliu",
			DefaultVars:  []string{"UUID", "PROXYIP"},
			SecretVar:    "UUID",
		},
		{
			ID:                  "joey",
			Name:                "Joey - CFNew",
			ScriptURL:           upstreamURL + "/script/joey",
			CommitAPIURL:        upstreamURL + "/commits/joey",
			DefaultVars:         []string{"u", "d"},
			SecretVar:           "u",
			NeedsGlobalPolyfill: true,
		},
	}
}
