package types

import "time"

// Interval units accepted by AutoPolicy.
const (
	IntervalMinutes = "minutes"
	IntervalHours   = "hours"
)

// DefaultCheckInterval is used when the configured interval is missing or
// invalid.
const DefaultCheckInterval = 30 * time.Minute

// AutoPolicy is the global circuit-breaker and auto-update policy. All fields
// except LastCheckedAt are owned by the settings endpoint; LastCheckedAt is
// owned exclusively by the scheduled orchestrator.
type AutoPolicy struct {
	// Whether scheduled evaluation is enabled at all
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Check cadence magnitude
	Interval int `json:"interval" yaml:"interval"`

	// Check cadence unit: minutes or hours
	IntervalUnit string `json:"intervalUnit" yaml:"intervalUnit"`

	// Quota usage percentage at which the fuse trips; zero disables the fuse
	FuseThresholdPct float64 `json:"fuseThresholdPct" yaml:"fuseThresholdPct"`

	// Timestamp of the last evaluated orchestrator pass; monotonically
	// non-decreasing
	LastCheckedAt time.Time `json:"lastCheckedAt" yaml:"lastCheckedAt"`
}

// CheckInterval converts the configured interval and unit to a duration.
func (p *AutoPolicy) CheckInterval() time.Duration {
	if p.Interval <= 0 {
		return DefaultCheckInterval
	}
	switch p.IntervalUnit {
	case IntervalHours:
		return time.Duration(p.Interval) * time.Hour
	default:
		return time.Duration(p.Interval) * time.Minute
	}
}
