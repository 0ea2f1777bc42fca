package scenario

import (
	"testing"
	"time"

	"github.com/signalsfoundry/railsim/internal/sim/state"
	"github.com/signalsfoundry/railsim/model"
)

// worldAt folds every step of s with an offset <= at over the baseline.
func worldAt(t *testing.T, s *Scenario, at time.Duration) state.World {
	t.Helper()
	w := Baseline()
	for _, st := range s.Steps {
		if st.Offset > at {
			break
		}
		st.Mutate(&w)
		if err := w.Validate(); err != nil {
			t.Fatalf("%s at %s: %v", s.ID, st.Offset, err)
		}
	}
	return w
}

func TestBaselineIsValid(t *testing.T) {
	b := Baseline()
	if err := b.Validate(); err != nil {
		t.Fatalf("baseline invalid: %v", err)
	}
	if !b.Signals.IsAllGreen() || len(b.Signals) != 3 {
		t.Fatalf("baseline signals = %v", b.Signals)
	}
	if b.Metrics != BaselineMetrics {
		t.Fatalf("baseline metrics = %+v", b.Metrics)
	}
	r := b.Trains[Rajdhani]
	if r.Position != (model.Position{X: 120, Y: 110}) || r.SpeedKmh != 140 || r.NextStop != "Mumbai" {
		t.Fatalf("rajdhani baseline = %+v", r)
	}
}

func TestConflictCheckpoints(t *testing.T) {
	s := Conflict()

	w := worldAt(t, s, 4000*time.Millisecond)
	r := w.Trains[Rajdhani]
	if w.Signals["s1"] != model.SignalRed || w.Signals["s2"] != model.SignalYellow {
		t.Fatalf("t=4000 signals = %v", w.Signals)
	}
	if r.SpeedKmh != 0 || r.Status.String() != "emergency_stop" {
		t.Fatalf("t=4000 rajdhani = %+v", r)
	}
	if w.Metrics.Efficiency != 76.5 || !w.ConflictDetected {
		t.Fatalf("t=4000 metrics = %+v conflict=%t", w.Metrics, w.ConflictDetected)
	}

	w = worldAt(t, s, 8000*time.Millisecond)
	r = w.Trains[Rajdhani]
	if r.Track != 2 || r.Position.Y != 190 || r.Status.String() != "proceeding_track_2" {
		t.Fatalf("t=8000 rajdhani = %+v", r)
	}

	w = worldAt(t, s, 12000*time.Millisecond)
	r = w.Trains[Rajdhani]
	if !w.Signals.IsAllGreen() {
		t.Fatalf("t=12000 signals = %v", w.Signals)
	}
	if r.Status.String() != "normal_operations" || r.SpeedKmh != 140 || r.Rerouting {
		t.Fatalf("t=12000 rajdhani = %+v", r)
	}
	if w.Metrics.Efficiency != 92.8 || w.ConflictDetected {
		t.Fatalf("t=12000 metrics = %+v conflict=%t", w.Metrics, w.ConflictDetected)
	}
}

func TestEmergencyHaltsAllTraffic(t *testing.T) {
	s := Emergency()

	w := worldAt(t, s, 4000*time.Millisecond)
	if !w.EmergencyActive {
		t.Fatalf("emergency not active at t=4000")
	}
	for _, id := range w.TrainOrder {
		if w.Trains[id].SpeedKmh != 0 {
			t.Fatalf("train %s moving during emergency: %+v", id, w.Trains[id])
		}
		if w.Signals[SignalIDs[0]] != model.SignalRed {
			t.Fatalf("signals not red: %v", w.Signals)
		}
	}
	ic := w.Trains[Intercity]
	if !ic.Emergency || !ic.PlatformStop || ic.Status.String() != "medical_emergency" {
		t.Fatalf("intercity = %+v", ic)
	}

	w = worldAt(t, s, 12000*time.Millisecond)
	if w.Signals["s1"] != model.SignalRed || w.Signals["s2"] != model.SignalGreen {
		t.Fatalf("t=12000 signals = %v", w.Signals)
	}
	if ic := w.Trains[Intercity]; ic.Emergency || ic.SpeedKmh != 30 {
		t.Fatalf("t=12000 intercity = %+v", ic)
	}

	w = worldAt(t, s, s.Duration())
	if w.EmergencyActive || !w.Signals.IsAllGreen() || w.Metrics.Efficiency != 88.7 {
		t.Fatalf("emergency not resolved: %+v", w)
	}
}

func TestOptimizationStatusLabels(t *testing.T) {
	s := Optimization()

	checks := []struct {
		at   time.Duration
		id   string
		want string
	}{
		{2000 * time.Millisecond, Freight, "heading_to_platform_2"},
		{5000 * time.Millisecond, Intercity, "conflict_detected_pf2"},
		{9000 * time.Millisecond, Rajdhani, "rerouted_to_platform_1"},
		{9000 * time.Millisecond, Intercity, "proceeding_to_platform_2"},
		{12000 * time.Millisecond, Freight, "platform_3_optimized"},
		{12000 * time.Millisecond, Intercity, "platform_2_as_planned"},
		{15000 * time.Millisecond, Rajdhani, "departing_platform_1"},
		{18000 * time.Millisecond, Intercity, "normal_operations"},
	}
	for _, c := range checks {
		w := worldAt(t, s, c.at)
		if got := w.Trains[c.id].Status.String(); got != c.want {
			t.Fatalf("t=%s %s status = %q, want %q", c.at, c.id, got, c.want)
		}
	}

	final := worldAt(t, s, s.Duration())
	for _, id := range final.TrainOrder {
		base := Baseline().Trains[id]
		if final.Trains[id].Position != base.Position || final.Trains[id].Track != base.Track {
			t.Fatalf("%s did not return home: %+v", id, final.Trains[id])
		}
	}
	if final.Metrics.Utilization != 95.1 {
		t.Fatalf("final metrics = %+v", final.Metrics)
	}
}

func TestNormalPlatformAllocation(t *testing.T) {
	w := worldAt(t, Normal(), 7000*time.Millisecond)
	for i, id := range []string{Rajdhani, Intercity, Freight} {
		tr := w.Trains[id]
		if !tr.PlatformStop || tr.Status.Platform != i+1 {
			t.Fatalf("%s = %+v", id, tr)
		}
	}
	w = worldAt(t, Normal(), 11000*time.Millisecond)
	if got := w.Trains[Rajdhani].Status.String(); got != "departing_to_mumbai" {
		t.Fatalf("rajdhani status = %q", got)
	}
}

func TestBuiltinScenariosDoNotMutateBaseline(t *testing.T) {
	for _, s := range Builtin() {
		b := Baseline()
		before := b.Clone()
		w := b.Clone()
		for _, st := range s.Steps {
			st.Mutate(&w)
		}
		if b.Trains[Rajdhani] != before.Trains[Rajdhani] || b.Metrics != before.Metrics {
			t.Fatalf("%s mutated its input baseline", s.ID)
		}
	}
}
