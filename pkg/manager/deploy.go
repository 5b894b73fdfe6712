package manager

import (
	"context"
	"fmt"
	"sync"

	"github.com/edgefleet/fleetman/pkg/cloudflare"
	"github.com/edgefleet/fleetman/pkg/log"
	"github.com/edgefleet/fleetman/pkg/types"
)

// globalPolyfill is prepended to artifacts whose template declares
// NeedsGlobalPolyfill: worker runtimes have no `window`.
const globalPolyfill = "var window = globalThis;\n"

// Deploy pushes the template's current upstream artifact to every configured
// target, merging the given variable set into each target's bindings. It
// never returns an error: every failure mode degrades to log entries so the
// caller always receives a renderable result.
//
// The revision record is overwritten only when at least one target was
// attempted and the upstream revision id was resolvable; a deploy that
// touched nothing does not count as deployed.
func (m *Manager) Deploy(ctx context.Context, templateID string, vars []types.VariableBinding) []types.DeployLogEntry {
	tmpl, err := m.Template(templateID)
	if err != nil {
		return []types.DeployLogEntry{{Target: "system", Message: err.Error()}}
	}

	accounts, err := m.state.Accounts(ctx)
	if err != nil {
		return []types.DeployLogEntry{{Target: "system", Message: fmt.Sprintf("failed to load accounts: %v", err)}}
	}
	if len(accounts) == 0 {
		return []types.DeployLogEntry{{Target: "notice", Message: "no accounts configured"}}
	}

	totalTargets := 0
	for i := range accounts {
		totalTargets += len(accounts[i].Targets(templateID))
	}
	if totalTargets == 0 {
		return []types.DeployLogEntry{{Target: "notice", Message: "no targets assigned for template " + templateID}}
	}

	// One artifact download shared by every target; the revision resolve
	// runs alongside it and is best-effort.
	var (
		artifact    string
		artifactErr error
		remote      *types.Revision
		remoteErr   error
		fetchWG     sync.WaitGroup
	)
	fetchWG.Add(2)
	go func() {
		defer fetchWG.Done()
		artifact, artifactErr = m.github.FetchArtifact(ctx, tmpl.ScriptURL)
	}()
	go func() {
		defer fetchWG.Done()
		remote, remoteErr = m.github.LatestRevision(ctx, tmpl.CommitAPIURL)
	}()
	fetchWG.Wait()

	if artifactErr != nil {
		return []types.DeployLogEntry{{Target: "network", Message: artifactErr.Error()}}
	}
	if remoteErr != nil {
		// The push is not gated on knowing the new revision id; the stale
		// record guarantees the next check re-attempts.
		m.logger.Warn("Revision resolve failed, version record will stay stale",
			log.Str("template", templateID),
			log.Err(remoteErr))
	}

	if tmpl.NeedsGlobalPolyfill {
		artifact = globalPolyfill + artifact
	}

	// Accounts fan out concurrently; targets within an account go in order.
	perAccount := make([][]types.DeployLogEntry, len(accounts))
	var deployWG sync.WaitGroup
	for i := range accounts {
		targets := accounts[i].Targets(templateID)
		if len(targets) == 0 {
			continue
		}
		deployWG.Add(1)
		go func(i int, targets []string) {
			defer deployWG.Done()
			perAccount[i] = m.deployToAccount(ctx, &accounts[i], targets, vars, artifact)
		}(i, targets)
	}
	deployWG.Wait()

	logs := make([]types.DeployLogEntry, 0, totalTargets)
	for _, entries := range perAccount {
		logs = append(logs, entries...)
	}

	if remote != nil {
		record := &types.RevisionRecord{RevisionID: remote.ID, DeployedAt: m.now()}
		if err := m.state.SaveRevision(ctx, templateID, record); err != nil {
			m.logger.Error("Failed to save revision record",
				log.Str("template", templateID),
				log.Err(err))
			logs = append(logs, types.DeployLogEntry{Target: "version-record", Message: err.Error()})
		} else {
			m.logger.Info("Revision record updated",
				log.Str("template", templateID),
				log.Str("revision", remote.ID))
		}
	}
	return logs
}

func (m *Manager) deployToAccount(ctx context.Context, account *types.Account, targets []string, vars []types.VariableBinding, artifact string) []types.DeployLogEntry {
	entries := make([]types.DeployLogEntry, 0, len(targets))
	for _, target := range targets {
		label := fmt.Sprintf("%s -> [%s]", account.Alias, target)

		current, err := m.cf.TargetBindings(ctx, account, target)
		if err != nil {
			entries = append(entries, types.DeployLogEntry{Target: label, Message: err.Error()})
			continue
		}

		merged := cloudflare.MergeBindings(current, vars)
		if err := m.cf.UploadScript(ctx, account, target, merged, artifact); err != nil {
			entries = append(entries, types.DeployLogEntry{Target: label, Message: err.Error()})
			continue
		}

		m.logger.Info("Target updated", log.Str("target", label))
		entries = append(entries, types.DeployLogEntry{Target: label, Success: true, Message: "updated"})
	}
	return entries
}
