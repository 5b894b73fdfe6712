package types

import "time"

// Revision is an opaque identifier for a point-in-time snapshot of the
// upstream source artifact, as reported by the source-hosting API.
type Revision struct {
	// Opaque revision identifier (commit sha)
	ID string `json:"id" yaml:"id"`

	// Upstream commit timestamp
	CommittedAt time.Time `json:"committedAt" yaml:"committedAt"`

	// Commit summary message
	Message string `json:"message" yaml:"message"`
}

// RevisionRecord is the last revision successfully attributed to at least one
// real deploy action. Once written it only moves forward in DeployedAt; it is
// overwritten, never deleted.
type RevisionRecord struct {
	RevisionID string    `json:"revisionId" yaml:"revisionId"`
	DeployedAt time.Time `json:"deployedAt" yaml:"deployedAt"`
}

// UpdateStatus pairs the locally recorded revision with the latest upstream
// revision. Remote is nil only when the upstream fetch failed outright.
type UpdateStatus struct {
	Local  *RevisionRecord `json:"local"`
	Remote *Revision       `json:"remote"`
}

// Available reports whether the upstream has a revision the fleet has not been
// deployed from. This predicate is the single source of truth for both the
// manual check endpoint and the scheduled orchestrator.
func (s *UpdateStatus) Available() bool {
	if s.Remote == nil {
		return false
	}
	return s.Local == nil || s.Remote.ID != s.Local.RevisionID
}
