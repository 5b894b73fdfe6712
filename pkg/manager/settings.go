package manager

import (
	"context"
	"fmt"

	"github.com/edgefleet/fleetman/pkg/log"
	"github.com/edgefleet/fleetman/pkg/types"
)

// Settings returns the template's variable working set, creating and
// persisting the default set on first load. The secret variable is seeded
// with a fresh random identifier, so a never-configured template still
// deploys with a usable secret.
func (m *Manager) Settings(ctx context.Context, templateID string) ([]types.VariableBinding, error) {
	tmpl, err := m.Template(templateID)
	if err != nil {
		return nil, err
	}

	set, err := m.state.Bindings(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variable set: %w", err)
	}
	if set != nil {
		return set, nil
	}

	set = types.DefaultBindings(tmpl)
	if err := m.state.SaveBindings(ctx, templateID, set); err != nil {
		return nil, fmt.Errorf("failed to persist default variable set: %w", err)
	}
	m.logger.Info("Seeded default variable set",
		log.Str("template", templateID),
		log.Int("variables", len(set)))
	return set, nil
}
