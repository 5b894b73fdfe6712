package manager

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/edgefleet/fleetman/pkg/log"
	"github.com/edgefleet/fleetman/pkg/types"
)

// RotateSecret replaces the template's designated secret variable with a
// fresh random identifier, persists the working set, and redeploys the fleet.
// Rotating the secret invalidates every previously issued client reference,
// which is what sheds load when the fuse trips.
func (m *Manager) RotateSecret(ctx context.Context, templateID string) ([]types.DeployLogEntry, error) {
	tmpl, err := m.Template(templateID)
	if err != nil {
		return nil, err
	}

	set, err := m.Settings(ctx, templateID)
	if err != nil {
		return nil, err
	}

	// Replace-or-append: the secret key exists in the working set after
	// every rotation, whether or not it was there before.
	set = types.UpsertBinding(set, tmpl.SecretVar, uuid.NewString())

	if err := m.state.SaveBindings(ctx, templateID, set); err != nil {
		return nil, fmt.Errorf("failed to save variable set: %w", err)
	}

	m.logger.Info("Secret rotated",
		log.Str("template", templateID),
		log.Str("variable", tmpl.SecretVar))

	return m.Deploy(ctx, templateID, set), nil
}
