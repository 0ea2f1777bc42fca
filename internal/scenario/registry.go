package scenario

import (
	"fmt"

	"github.com/signalsfoundry/railsim/internal/sim/state"
)

// Registry is a read-only table of scenarios keyed by id. It is safe for
// concurrent use because nothing mutates it after NewRegistry returns.
type Registry struct {
	baseline  state.World
	scenarios map[string]*Scenario
	order     []string
}

// NewRegistry validates every scenario against the standard baseline and
// returns a registry holding them in the given order.
func NewRegistry(scenarios ...*Scenario) (*Registry, error) {
	return NewRegistryWithBaseline(Baseline(), scenarios...)
}

// NewRegistryWithBaseline is NewRegistry with a caller-supplied baseline.
func NewRegistryWithBaseline(baseline state.World, scenarios ...*Scenario) (*Registry, error) {
	if err := baseline.Validate(); err != nil {
		return nil, fmt.Errorf("%w: baseline: %v", ErrMalformedScenario, err)
	}
	r := &Registry{
		baseline:  baseline.Clone(),
		scenarios: make(map[string]*Scenario, len(scenarios)),
		order:     make([]string, 0, len(scenarios)),
	}
	for _, s := range scenarios {
		if err := s.validate(baseline); err != nil {
			return nil, err
		}
		if _, exists := r.scenarios[s.ID]; exists {
			return nil, fmt.Errorf("%w: scenario with ID %q already exists", ErrMalformedScenario, s.ID)
		}
		r.scenarios[s.ID] = s
		r.order = append(r.order, s.ID)
	}
	return r, nil
}

// MustDefaultRegistry builds the registry of built-in scenarios. A malformed
// built-in is a programming error, so it panics.
func MustDefaultRegistry() *Registry {
	r, err := NewRegistry(Builtin()...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the scenario with id.
func (r *Registry) Lookup(id string) (*Scenario, error) {
	s, ok := r.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScenario, id)
	}
	return s, nil
}

// List returns the scenarios in registration order.
func (r *Registry) List() []*Scenario {
	out := make([]*Scenario, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.scenarios[id])
	}
	return out
}

// Baseline returns a fresh copy of the world every activation resets to.
func (r *Registry) Baseline() state.World {
	return r.baseline.Clone()
}
