// Package manager implements the core fleet synchronization engine: quota
// telemetry, upstream revision checking, deployment fan-out, secret rotation,
// and the scheduled circuit-breaker / auto-update pass that ties them
// together.
package manager

import (
	"fmt"
	"time"

	"github.com/edgefleet/fleetman/pkg/cloudflare"
	"github.com/edgefleet/fleetman/pkg/github"
	"github.com/edgefleet/fleetman/pkg/log"
	"github.com/edgefleet/fleetman/pkg/store/repos"
	"github.com/edgefleet/fleetman/pkg/types"
)

// Manager coordinates the state store, the source host, and the deployment
// platform. All public entry points degrade to structured results; nothing
// here is fatal to the host process.
type Manager struct {
	state     *repos.StateRepo
	github    *github.Client
	cf        *cloudflare.Client
	templates []types.ProjectTemplate
	logger    log.Logger
	now       func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithTemplates overrides the built-in template set.
func WithTemplates(templates []types.ProjectTemplate) Option {
	return func(m *Manager) {
		m.templates = templates
	}
}

// NewManager creates a Manager over the given collaborators.
func NewManager(state *repos.StateRepo, gh *github.Client, cf *cloudflare.Client, logger log.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	m := &Manager{
		state:     state,
		github:    gh,
		cf:        cf,
		templates: types.BuiltinTemplates(),
		logger:    logger.WithComponent("manager"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Templates returns the configured template set in evaluation order.
func (m *Manager) Templates() []types.ProjectTemplate {
	return m.templates
}

// Template resolves a template by ID.
func (m *Manager) Template(id string) (*types.ProjectTemplate, error) {
	for i := range m.templates {
		if m.templates[i].ID == id {
			return &m.templates[i], nil
		}
	}
	return nil, fmt.Errorf("unknown template %q", id)
}

// State returns the typed state accessor, for the thin CRUD surfaces.
func (m *Manager) State() *repos.StateRepo {
	return m.state
}
