// Package scenario holds the immutable scenario definitions the controller
// replays and the registry that validates them.
package scenario

import (
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/railsim/internal/sim/state"
	"github.com/signalsfoundry/railsim/model"
)

var (
	// ErrUnknownScenario is returned by Lookup for an id that was never
	// registered.
	ErrUnknownScenario = errors.New("unknown scenario")

	// ErrMalformedScenario is returned at registry build time when a
	// definition breaks a construction invariant.
	ErrMalformedScenario = errors.New("malformed scenario")
)

// Step is one timed mutation within a Scenario.
type Step struct {
	Offset time.Duration
	Phase  string
	// Mutate is applied to a private copy of the world.
	Mutate        func(*state.World)
	Notifications []model.NotificationSpec
}

// Scenario is a named, scripted sequence of steps. Scenarios are shared
// across activations and must not be modified after registration.
type Scenario struct {
	ID              string
	Name            string
	Description     string
	Summary         string
	InitialLabel    string
	ResolutionLabel string

	// Intro is appended when the scenario is activated, before any step.
	Intro *model.NotificationSpec
	Steps []Step
}

// Offsets returns the step offsets in order.
func (s *Scenario) Offsets() []time.Duration {
	out := make([]time.Duration, len(s.Steps))
	for i, st := range s.Steps {
		out[i] = st.Offset
	}
	return out
}

// Duration is the offset of the last step.
func (s *Scenario) Duration() time.Duration {
	if len(s.Steps) == 0 {
		return 0
	}
	return s.Steps[len(s.Steps)-1].Offset
}

// validate checks the static shape of s and then folds every step over the
// baseline, requiring each intermediate world to validate and the final one
// to be fully resolved.
func (s *Scenario) validate(baseline state.World) error {
	if s == nil {
		return fmt.Errorf("%w: nil scenario", ErrMalformedScenario)
	}
	if s.ID == "" {
		return fmt.Errorf("%w: empty id", ErrMalformedScenario)
	}
	if s.Intro != nil {
		if err := s.Intro.Validate(); err != nil {
			return fmt.Errorf("%w: %s intro: %v", ErrMalformedScenario, s.ID, err)
		}
	}

	w := baseline.Clone()
	for i, st := range s.Steps {
		if st.Offset < 0 {
			return fmt.Errorf("%w: %s step %d has negative offset %s", ErrMalformedScenario, s.ID, i, st.Offset)
		}
		if i > 0 && st.Offset <= s.Steps[i-1].Offset {
			return fmt.Errorf("%w: %s step %d offset %s not after %s", ErrMalformedScenario, s.ID, i, st.Offset, s.Steps[i-1].Offset)
		}
		if st.Mutate == nil {
			return fmt.Errorf("%w: %s step %d has no mutation", ErrMalformedScenario, s.ID, i)
		}
		for j, n := range st.Notifications {
			if err := n.Validate(); err != nil {
				return fmt.Errorf("%w: %s step %d notification %d: %v", ErrMalformedScenario, s.ID, i, j, err)
			}
		}

		next := w.Clone()
		st.Mutate(&next)
		if err := next.Validate(); err != nil {
			return fmt.Errorf("%w: %s step %d (%s): %v", ErrMalformedScenario, s.ID, i, st.Offset, err)
		}
		if len(next.Trains) != len(baseline.Trains) {
			return fmt.Errorf("%w: %s step %d changed the train set", ErrMalformedScenario, s.ID, i)
		}
		w = next
	}

	if !w.Signals.IsAllGreen() {
		return fmt.Errorf("%w: %s ends with signals %v", ErrMalformedScenario, s.ID, w.Signals)
	}
	if w.ConflictDetected || w.EmergencyActive {
		return fmt.Errorf("%w: %s ends with conflict=%t emergency=%t", ErrMalformedScenario, s.ID, w.ConflictDetected, w.EmergencyActive)
	}
	for _, id := range w.TrainOrder {
		if w.Trains[id].Emergency {
			return fmt.Errorf("%w: %s ends with train %s in emergency", ErrMalformedScenario, s.ID, id)
		}
	}
	return nil
}
