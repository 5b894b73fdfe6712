package manager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgefleet/fleetman/pkg/types"
)

func seedPolicy(t *testing.T, h *harness, last time.Time, thresholdPct float64) {
	t.Helper()
	require.NoError(t, h.state.SavePolicy(context.Background(), &types.AutoPolicy{
		Enabled:          true,
		Interval:         30,
		IntervalUnit:     types.IntervalMinutes,
		FuseThresholdPct: thresholdPct,
		LastCheckedAt:    last,
	}))
}

func loadPolicy(t *testing.T, h *harness) *types.AutoPolicy {
	t.Helper()
	policy, err := h.state.Policy(context.Background())
	require.NoError(t, err)
	require.NotNil(t, policy)
	return policy
}

func fleetAccount(alias, id, token string) types.Account {
	return types.Account{
		Alias:     alias,
		AccountID: id,
		APIToken:  token,
		Workers: map[string][]string{
			"cmliu": {"cm-" + alias},
			"joey":  {"jy-" + alias},
		},
	}
}

func TestScheduledPassNoPolicy(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.mgr.RunScheduledPass(context.Background()))
	assert.Equal(t, 0, h.platform.uploadCount())
}

func TestScheduledPassDisabledPolicy(t *testing.T) {
	h := newHarness(t)
	t0 := h.now.Add(-2 * time.Hour)
	require.NoError(t, h.state.SavePolicy(context.Background(), &types.AutoPolicy{
		Enabled:       false,
		Interval:      30,
		IntervalUnit:  types.IntervalMinutes,
		LastCheckedAt: t0,
	}))
	seedAccounts(t, h, fleetAccount("a", "acc1", "tok1"))

	require.NoError(t, h.mgr.RunScheduledPass(context.Background()))

	assert.Equal(t, 0, h.platform.uploadCount())
	assert.Equal(t, t0, loadPolicy(t, h).LastCheckedAt)
}

func TestScheduledPassIntervalGate(t *testing.T) {
	t.Run("not yet elapsed", func(t *testing.T) {
		h := newHarness(t)
		t0 := h.now
		seedPolicy(t, h, t0, 0)
		seedAccounts(t, h, fleetAccount("a", "acc1", "tok1"))
		h.now = t0.Add(29 * time.Minute)

		require.NoError(t, h.mgr.RunScheduledPass(context.Background()))

		assert.Equal(t, 0, h.platform.uploadCount())
		assert.Equal(t, t0, loadPolicy(t, h).LastCheckedAt)
	})

	t.Run("elapsed", func(t *testing.T) {
		h := newHarness(t)
		t0 := h.now
		seedPolicy(t, h, t0, 0)
		seedAccounts(t, h, fleetAccount("a", "acc1", "tok1"))
		h.now = t0.Add(31 * time.Minute)

		require.NoError(t, h.mgr.RunScheduledPass(context.Background()))

		// No local record yet, so both templates deploy.
		assert.Equal(t, 2, h.platform.uploadCount())
		assert.Equal(t, h.now, loadPolicy(t, h).LastCheckedAt)
	})
}

func TestScheduledPassNoAccountsLeavesGateOpen(t *testing.T) {
	h := newHarness(t)
	t0 := h.now
	seedPolicy(t, h, t0, 90)
	h.now = t0.Add(time.Hour)

	require.NoError(t, h.mgr.RunScheduledPass(context.Background()))

	// An account-less pass does not consume the interval.
	assert.Equal(t, t0, loadPolicy(t, h).LastCheckedAt)
}

func TestScheduledPassFuseFirstMatch(t *testing.T) {
	h := newHarness(t)
	t0 := h.now
	seedPolicy(t, h, t0, 90)
	seedAccounts(t, h,
		fleetAccount("a", "acc1", "tok1"),
		fleetAccount("b", "acc2", "tok2"),
		fleetAccount("c", "acc3", "tok3"),
	)
	h.platform.usage["acc1"] = 50000
	h.platform.usage["acc2"] = 95000
	h.platform.usage["acc3"] = 99000
	h.now = t0.Add(time.Hour)

	require.NoError(t, h.mgr.RunScheduledPass(context.Background()))

	// One rotation pass covers both templates and every target; the second
	// over-threshold account does not trigger a second pass, and the update
	// path is skipped entirely.
	assert.Equal(t, 6, h.platform.uploadCount())

	for _, templateID := range []string{"cmliu", "joey"} {
		tmpl, err := h.mgr.Template(templateID)
		require.NoError(t, err)
		set, err := h.state.Bindings(context.Background(), templateID)
		require.NoError(t, err)
		secret := types.FindBinding(set, tmpl.SecretVar)
		require.NotNil(t, secret, templateID)
		assert.NotEmpty(t, secret.Value, templateID)
	}

	assert.Equal(t, h.now, loadPolicy(t, h).LastCheckedAt)
}

func TestScheduledPassFuseSkipsErroredAccounts(t *testing.T) {
	h := newHarness(t)
	t0 := h.now
	seedPolicy(t, h, t0, 90)
	seedAccounts(t, h,
		fleetAccount("a", "acc1", "tok1"),
		fleetAccount("b", "acc2", "tok2"),
	)
	h.platform.usageErr["acc1"] = true
	h.platform.usage["acc2"] = 95000
	h.now = t0.Add(time.Hour)

	require.NoError(t, h.mgr.RunScheduledPass(context.Background()))

	// acc1's failed query is skipped; acc2 still trips the fuse.
	assert.Equal(t, 4, h.platform.uploadCount())
}

func TestScheduledPassBelowThresholdRunsUpdates(t *testing.T) {
	h := newHarness(t)
	t0 := h.now
	seedPolicy(t, h, t0, 90)
	seedAccounts(t, h, fleetAccount("a", "acc1", "tok1"))
	h.platform.usage["acc1"] = 50000
	require.NoError(t, h.state.SaveRevision(context.Background(), "cmliu",
		&types.RevisionRecord{RevisionID: "sha0", DeployedAt: t0}))
	require.NoError(t, h.state.SaveRevision(context.Background(), "joey",
		&types.RevisionRecord{RevisionID: "sha1", DeployedAt: t0}))
	h.now = t0.Add(time.Hour)

	require.NoError(t, h.mgr.RunScheduledPass(context.Background()))

	// Only the stale template redeploys.
	assert.Len(t, h.platform.uploadsFor("cm-a"), 1)
	assert.Empty(t, h.platform.uploadsFor("jy-a"))

	record, err := h.state.Revision(context.Background(), "cmliu")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, "sha1", record.RevisionID)
	assert.Equal(t, h.now, record.DeployedAt)
}

func TestScheduledPassSeedsSecretsForUnconfiguredTemplates(t *testing.T) {
	h := newHarness(t)
	t0 := h.now
	seedPolicy(t, h, t0, 0)
	seedAccounts(t, h, fleetAccount("a", "acc1", "tok1"))
	h.now = t0.Add(time.Hour)

	// Nothing was ever configured; the auto-update deploy must still push
	// a seeded secret, not an empty binding set.
	require.NoError(t, h.mgr.RunScheduledPass(context.Background()))

	uploads := h.platform.uploadsFor("cm-a")
	require.Len(t, uploads, 1)
	var secret string
	for _, b := range uploads[0].Bindings {
		if b.Name() == "UUID" {
			secret, _ = b["text"].(string)
		}
	}
	assert.NotEmpty(t, secret, "deployed targets must carry the seeded secret")

	stored, err := h.state.Bindings(context.Background(), "cmliu")
	require.NoError(t, err)
	assert.Equal(t, secret, types.FindBinding(stored, "UUID").Value)
}

func TestScheduledPassIdempotent(t *testing.T) {
	h := newHarness(t)
	t0 := h.now
	seedPolicy(t, h, t0, 0)
	seedAccounts(t, h, fleetAccount("a", "acc1", "tok1"))

	h.now = t0.Add(time.Hour)
	require.NoError(t, h.mgr.RunScheduledPass(context.Background()))
	assert.Equal(t, 2, h.platform.uploadCount())

	// Nothing changed upstream, so the next eligible pass pushes nothing.
	h.now = h.now.Add(time.Hour)
	require.NoError(t, h.mgr.RunScheduledPass(context.Background()))
	assert.Equal(t, 2, h.platform.uploadCount())
	assert.Equal(t, h.now, loadPolicy(t, h).LastCheckedAt)
}

func TestScheduledPassEndToEndUpdate(t *testing.T) {
	h := newHarness(t)
	t0 := h.now
	seedPolicy(t, h, t0, 0)
	seedAccounts(t, h, types.Account{
		Alias:     "a",
		AccountID: "acc1",
		APIToken:  "tok1",
		Workers:   map[string][]string{"cmliu": {"w1", "w2"}},
	})

	h.now = t0.Add(time.Hour)
	require.NoError(t, h.mgr.RunScheduledPass(context.Background()))

	first, err := h.state.Revision(context.Background(), "cmliu")
	require.NoError(t, err)
	require.NotNil(t, first)
	require.Equal(t, "sha1", first.RevisionID)

	h.upstream.mu.Lock()
	h.upstream.sha["cmliu"] = "sha2"
	h.upstream.mu.Unlock()
	h.now = h.now.Add(time.Hour)

	require.NoError(t, h.mgr.RunScheduledPass(context.Background()))

	assert.Len(t, h.platform.uploadsFor("w1"), 2)
	assert.Len(t, h.platform.uploadsFor("w2"), 2)

	second, err := h.state.Revision(context.Background(), "cmliu")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "sha2", second.RevisionID)
	assert.True(t, second.DeployedAt.After(first.DeployedAt))
}
