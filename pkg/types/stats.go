package types

// DefaultRequestQuota is the fixed daily request ceiling applied to every
// account. The platform has no per-account override in this version.
const DefaultRequestQuota int64 = 100000

// UsageStat is an account's request usage for the current UTC day. Recomputed
// on every telemetry fetch, never persisted.
type UsageStat struct {
	// Account display label
	Alias string `json:"alias"`

	// Requests consumed so far today across all reported sub-resources
	Used int64 `json:"used"`

	// Daily request ceiling
	Quota int64 `json:"quota"`

	// Non-empty when the telemetry fetch for this account failed; such
	// stats are reported but excluded from numeric aggregation
	Err string `json:"error,omitempty"`
}

// UsedPercent returns the account's quota consumption as a percentage.
func (s *UsageStat) UsedPercent() float64 {
	if s.Quota <= 0 {
		return 0
	}
	return float64(s.Used) / float64(s.Quota) * 100
}
