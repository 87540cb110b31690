package checkout

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrFlowNotFound indicates the referenced checkout flow does not exist.
var ErrFlowNotFound = errors.New("checkout flow not found")

// Registry holds the live flows for this terminal process, keyed by flow id.
// Each front-end lane drives exactly one flow.
type Registry struct {
	mu    sync.Mutex
	flows map[string]*Flow
	cfg   Config
}

// NewRegistry constructs a registry that creates flows with the given config.
func NewRegistry(cfg Config) *Registry {
	return &Registry{flows: map[string]*Flow{}, cfg: cfg}
}

// Create registers a fresh idle flow and returns its id. Settings are read
// from the configured source at creation time, so a refresh applies from the
// next sale onward; an unreachable source falls back to the last known value.
func (r *Registry) Create(ctx context.Context) (string, *Flow, error) {
	cfg := r.cfg
	if cfg.SettingsSource != nil {
		if s, err := cfg.SettingsSource(ctx); err == nil {
			cfg.Settings = s
		} else {
			cfg.Logger.Warn().Err(err).Msg("read pos settings for new cart")
		}
	}
	flow, err := NewFlow(cfg)
	if err != nil {
		return "", nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	id := uuid.NewString()
	r.flows[id] = flow
	return id, flow, nil
}

// Get returns the flow for the id.
func (r *Registry) Get(id string) (*Flow, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	flow, ok := r.flows[id]
	if !ok {
		return nil, ErrFlowNotFound
	}
	return flow, nil
}

// Delete drops the flow. Unknown ids are a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.flows, id)
}
