package manager

import (
	"context"
	"fmt"

	"github.com/edgefleet/fleetman/pkg/types"
)

// CheckUpdate compares the locally recorded revision of a template with the
// latest upstream revision. A failed upstream fetch is returned as an error
// alongside the local record; it is never silently substituted.
//
// The update-available decision itself lives on types.UpdateStatus so the
// manual check endpoint and the scheduled pass can never diverge.
func (m *Manager) CheckUpdate(ctx context.Context, templateID string) (*types.UpdateStatus, error) {
	tmpl, err := m.Template(templateID)
	if err != nil {
		return nil, err
	}

	local, err := m.state.Revision(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load revision record: %w", err)
	}

	remote, err := m.github.LatestRevision(ctx, tmpl.CommitAPIURL)
	if err != nil {
		return &types.UpdateStatus{Local: local}, err
	}

	return &types.UpdateStatus{Local: local, Remote: remote}, nil
}
