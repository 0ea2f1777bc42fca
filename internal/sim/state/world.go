package state

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/railsim/model"
)

// ErrInvalidWorld indicates a world failed validation, typically because a
// scenario step produced an illegal train or signal combination.
var ErrInvalidWorld = errors.New("invalid world state")

// World is the mutable domain snapshot owned by the Store. Scenario steps
// receive a private copy to mutate; the Store swaps it in whole.
type World struct {
	Trains     map[string]model.TrainState
	TrainOrder []string
	Signals    model.SignalState
	Metrics    model.SystemMetrics

	ConflictDetected bool
	EmergencyActive  bool

	// Phase labels the most recent step; StepIndex is -1 before the first.
	Phase     string
	StepIndex int
}

// Clone returns a deep copy of w.
func (w World) Clone() World {
	out := w
	out.Trains = make(map[string]model.TrainState, len(w.Trains))
	for id, t := range w.Trains {
		out.Trains[id] = t
	}
	out.TrainOrder = append([]string(nil), w.TrainOrder...)
	out.Signals = w.Signals.Clone()
	return out
}

// Train returns the train with id.
func (w World) Train(id string) (model.TrainState, bool) {
	t, ok := w.Trains[id]
	return t, ok
}

// UpdateTrain applies fn to the train with id. Unknown ids are ignored; the
// registry dry-run catches steps that name trains outside the baseline.
func (w *World) UpdateTrain(id string, fn func(*model.TrainState)) {
	t, ok := w.Trains[id]
	if !ok {
		return
	}
	fn(&t)
	w.Trains[id] = t
}

// SetSignal sets one signal's aspect.
func (w *World) SetSignal(id string, c model.SignalColor) {
	if w.Signals == nil {
		w.Signals = make(model.SignalState)
	}
	w.Signals[id] = c
}

// Validate checks every train, the metric bounds, and the signal rule that
// an active conflict or emergency keeps at least one signal off green.
func (w World) Validate() error {
	if len(w.TrainOrder) != len(w.Trains) {
		return fmt.Errorf("%w: train order lists %d trains, map holds %d", ErrInvalidWorld, len(w.TrainOrder), len(w.Trains))
	}
	for _, id := range w.TrainOrder {
		t, ok := w.Trains[id]
		if !ok {
			return fmt.Errorf("%w: train %q missing", ErrInvalidWorld, id)
		}
		if t.ID != id {
			return fmt.Errorf("%w: train keyed %q reports id %q", ErrInvalidWorld, id, t.ID)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidWorld, err)
		}
	}
	if err := w.Metrics.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidWorld, err)
	}
	if (w.ConflictDetected || w.EmergencyActive) && w.Signals.IsAllGreen() {
		return fmt.Errorf("%w: conflict/emergency active with all signals green", ErrInvalidWorld)
	}
	return nil
}

// Snapshot is an immutable, read-only copy of the world at one instant.
type Snapshot struct {
	Trains           []model.TrainState  `json:"trains"`
	Signals          model.SignalState   `json:"signals"`
	Metrics          model.SystemMetrics `json:"metrics"`
	Targets          model.TargetReport  `json:"targets"`
	ConflictDetected bool                `json:"conflictDetected"`
	EmergencyActive  bool                `json:"emergencyActive"`
	Phase            string              `json:"phase"`
	StepIndex        int                 `json:"stepIndex"`
	Generation       uint64              `json:"generation"`
	Version          uint64              `json:"version"`
}

// Train returns the train with id.
func (s Snapshot) Train(id string) (model.TrainState, bool) {
	for _, t := range s.Trains {
		if t.ID == id {
			return t, true
		}
	}
	return model.TrainState{}, false
}

func (w World) snapshot(generation, version uint64) Snapshot {
	trains := make([]model.TrainState, 0, len(w.TrainOrder))
	for _, id := range w.TrainOrder {
		trains = append(trains, w.Trains[id])
	}
	return Snapshot{
		Trains:           trains,
		Signals:          w.Signals.Clone(),
		Metrics:          w.Metrics,
		Targets:          model.DefaultTargets.Evaluate(w.Metrics),
		ConflictDetected: w.ConflictDetected,
		EmergencyActive:  w.EmergencyActive,
		Phase:            w.Phase,
		StepIndex:        w.StepIndex,
		Generation:       generation,
		Version:          version,
	}
}
