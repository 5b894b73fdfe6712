package manager

import (
	"context"
	"fmt"
	"sync"

	"github.com/edgefleet/fleetman/pkg/log"
	"github.com/edgefleet/fleetman/pkg/types"
)

// RunScheduledPass is the scheduled entry point: one terminal pass of the
// circuit-breaker / auto-update state machine.
//
// The pass is gated on the policy's own interval, so the timer that fires it
// may run far more often than the configured cadence. Every pass that clears
// the gate consumes the interval: LastCheckedAt is committed unconditionally
// at the end, deploy or no deploy.
func (m *Manager) RunScheduledPass(ctx context.Context) error {
	policy, err := m.state.Policy(ctx)
	if err != nil {
		return fmt.Errorf("failed to load auto policy: %w", err)
	}
	if policy == nil || !policy.Enabled {
		m.logger.Debug("Scheduled pass skipped, auto policy disabled")
		return nil
	}

	now := m.now()
	if now.Sub(policy.LastCheckedAt) <= policy.CheckInterval() {
		m.logger.Debug("Scheduled pass skipped, interval not elapsed")
		return nil
	}

	m.logger.Info("Scheduled pass started",
		log.Float64("fuse_threshold_pct", policy.FuseThresholdPct))

	accounts, err := m.state.Accounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	if len(accounts) == 0 {
		// Matches the original behavior: an account-less pass returns
		// before the LastCheckedAt commit, unlike the normal
		// nothing-to-update path which always commits.
		m.logger.Info("Scheduled pass skipped, no accounts configured")
		return nil
	}

	fuseTriggered := false
	if policy.FuseThresholdPct > 0 {
		fuseTriggered = m.evaluateFuse(ctx, accounts, policy.FuseThresholdPct)
	}

	if !fuseTriggered {
		m.evaluateUpdates(ctx)
	}

	policy.LastCheckedAt = now
	if err := m.state.SavePolicy(ctx, policy); err != nil {
		return fmt.Errorf("failed to commit auto policy: %w", err)
	}
	return nil
}

// evaluateFuse scans accounts in input order and trips on the first account
// at or above the threshold. One overloaded account is enough to rotate both
// templates globally, so scanning stops there.
func (m *Manager) evaluateFuse(ctx context.Context, accounts []types.Account, thresholdPct float64) bool {
	stats := m.FetchStats(ctx, accounts)
	for i := range stats {
		if stats[i].Err != "" {
			continue
		}
		pct := stats[i].UsedPercent()
		m.logger.Debug("Fuse evaluation",
			log.Str("account", stats[i].Alias),
			log.Float64("used_pct", pct))
		if pct < thresholdPct {
			continue
		}

		m.logger.Warn("Fuse tripped, rotating secrets for all templates",
			log.Str("account", stats[i].Alias),
			log.Float64("used_pct", pct))
		for _, tmpl := range m.templates {
			if _, err := m.RotateSecret(ctx, tmpl.ID); err != nil {
				m.logger.Error("Secret rotation failed",
					log.Str("template", tmpl.ID),
					log.Err(err))
			}
		}
		return true
	}
	return false
}

// evaluateUpdates checks both templates concurrently and redeploys the ones
// with a new upstream revision. One template's failure never blocks the
// other's.
func (m *Manager) evaluateUpdates(ctx context.Context) {
	var wg sync.WaitGroup
	for _, tmpl := range m.templates {
		wg.Add(1)
		go func(tmpl types.ProjectTemplate) {
			defer wg.Done()

			status, err := m.CheckUpdate(ctx, tmpl.ID)
			if err != nil {
				m.logger.Error("Update check failed",
					log.Str("template", tmpl.ID),
					log.Err(err))
				return
			}
			if !status.Available() {
				m.logger.Debug("No update available", log.Str("template", tmpl.ID))
				return
			}

			m.logger.Info("Upstream changed, deploying",
				log.Str("template", tmpl.ID),
				log.Str("revision", status.Remote.ID))

			vars, err := m.Settings(ctx, tmpl.ID)
			if err != nil {
				m.logger.Error("Failed to load variable set",
					log.Str("template", tmpl.ID),
					log.Err(err))
				return
			}

			logs := m.Deploy(ctx, tmpl.ID, vars)
			succeeded := 0
			for _, entry := range logs {
				if entry.Success {
					succeeded++
				}
			}
			m.logger.Info("Auto-update deploy finished",
				log.Str("template", tmpl.ID),
				log.Int("targets_ok", succeeded),
				log.Int("entries", len(logs)))
		}(tmpl)
	}
	wg.Wait()
}
