package manager

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/edgefleet/fleetman/pkg/log"
)

// DefaultCronSpec fires the scheduled pass every minute; the pass's own
// elapsed-time gate keeps the effective cadence at the configured policy
// interval.
const DefaultCronSpec = "@every 1m"

// Scheduler fires the scheduled orchestrator pass on a fixed cron cadence.
type Scheduler struct {
	manager *Manager
	cron    *cron.Cron
	spec    string
	logger  log.Logger
}

// NewScheduler creates a scheduler for the manager's scheduled pass.
func NewScheduler(m *Manager, spec string, logger log.Logger) *Scheduler {
	if spec == "" {
		spec = DefaultCronSpec
	}
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	return &Scheduler{
		manager: m,
		cron:    cron.New(),
		spec:    spec,
		logger:  logger.WithComponent("scheduler"),
	}
}

// Start registers the pass and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.manager.RunScheduledPass(context.Background()); err != nil {
			s.logger.Error("Scheduled pass failed", log.Err(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pass: %w", err)
	}
	s.cron.Start()
	s.logger.Info("Scheduler started", log.Str("cadence", s.spec))
	return nil
}

// Stop stops the cron loop; a running pass finishes on its own.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Scheduler stopped")
}
