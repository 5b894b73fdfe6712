package manager

import (
	"context"
	"sync"
	"time"

	"github.com/edgefleet/fleetman/pkg/log"
	"github.com/edgefleet/fleetman/pkg/types"
)

// FetchStats queries today's request usage for every account concurrently.
// The result preserves input order; an account whose query fails carries its
// error in the stat and is still reported. The batch itself never fails.
func (m *Manager) FetchStats(ctx context.Context, accounts []types.Account) []types.UsageStat {
	now := m.now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	stats := make([]types.UsageStat, len(accounts))
	var wg sync.WaitGroup
	for i := range accounts {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			account := &accounts[i]
			used, err := m.cf.AccountUsage(ctx, account, dayStart, now)
			if err != nil {
				m.logger.Warn("Usage query failed",
					log.Str("account", account.Alias),
					log.Err(err))
				stats[i] = types.UsageStat{Alias: account.Alias, Err: err.Error()}
				return
			}
			stats[i] = types.UsageStat{
				Alias: account.Alias,
				Used:  used,
				Quota: types.DefaultRequestQuota,
			}
		}(i)
	}
	wg.Wait()
	return stats
}
