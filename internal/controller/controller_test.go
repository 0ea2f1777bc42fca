package controller

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/signalsfoundry/railsim/internal/demo"
	"github.com/signalsfoundry/railsim/internal/scenario"
	"github.com/signalsfoundry/railsim/internal/sim/state"
	"github.com/signalsfoundry/railsim/internal/timeline"
	"github.com/signalsfoundry/railsim/model"
)

var t0 = time.Date(2025, 3, 1, 14, 0, 0, 0, time.UTC)

type countingMetrics struct {
	mu          sync.Mutex
	activations map[string]int
	rejections  int
	steps       map[string]int
	cancelled   int
	races       int
	transitions [][2]string
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{activations: map[string]int{}, steps: map[string]int{}}
}

func (m *countingMetrics) ActivationStarted(id string) {
	m.mu.Lock()
	m.activations[id]++
	m.mu.Unlock()
}

func (m *countingMetrics) ActivationRejected(string) {
	m.mu.Lock()
	m.rejections++
	m.mu.Unlock()
}

func (m *countingMetrics) StepFired(id string) {
	m.mu.Lock()
	m.steps[id]++
	m.mu.Unlock()
}

func (m *countingMetrics) TimelineCancelled() {
	m.mu.Lock()
	m.cancelled++
	m.mu.Unlock()
}

func (m *countingMetrics) RaceViolation() {
	m.mu.Lock()
	m.races++
	m.mu.Unlock()
}

func (m *countingMetrics) ActiveScenarioChanged(prev, cur string) {
	m.mu.Lock()
	m.transitions = append(m.transitions, [2]string{prev, cur})
	m.mu.Unlock()
}

func newTestController(t *testing.T, opts ...Option) (*Controller, *timeline.FakeEventScheduler) {
	t.Helper()
	reg := scenario.MustDefaultRegistry()
	fake := timeline.NewFakeEventScheduler(t0)
	store := state.NewStore(reg.Baseline(), state.NewNotificationLog(0, fake.Now))
	return New(reg, store, timeline.New(fake), opts...), fake
}

func assertBaseline(t *testing.T, snap state.Snapshot) {
	t.Helper()
	base := scenario.Baseline()
	if len(snap.Trains) != len(base.TrainOrder) {
		t.Fatalf("snapshot has %d trains, want %d", len(snap.Trains), len(base.TrainOrder))
	}
	for i, id := range base.TrainOrder {
		if snap.Trains[i] != base.Trains[id] {
			t.Fatalf("train %s = %+v, want baseline %+v", id, snap.Trains[i], base.Trains[id])
		}
	}
	if !snap.Signals.IsAllGreen() || len(snap.Signals) != len(scenario.SignalIDs) {
		t.Fatalf("signals = %v, want all green", snap.Signals)
	}
	if snap.Metrics != scenario.BaselineMetrics {
		t.Fatalf("metrics = %+v, want baseline", snap.Metrics)
	}
	if snap.ConflictDetected || snap.EmergencyActive || snap.StepIndex != -1 {
		t.Fatalf("flags not reset: %+v", snap)
	}
}

func TestNewSeedsSystemOperational(t *testing.T) {
	c, _ := newTestController(t)

	notes := c.Notifications()
	if len(notes) != 1 || notes[0].Message != "System operational" || notes[0].Type != model.NotifySuccess {
		t.Fatalf("notifications = %+v", notes)
	}
	if id, ok := c.ActiveScenario(); ok || id != "" {
		t.Fatalf("ActiveScenario() = %q, %t; want inactive", id, ok)
	}
}

func TestActivateConflictCheckpoints(t *testing.T) {
	c, fake := newTestController(t, WithStrict(true))
	ctx := context.Background()

	if err := c.Activate(ctx, "conflict"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if notes := c.Notifications(); notes[0].Message != "Initializing conflict scenario" {
		t.Fatalf("intro not published: %+v", notes[0])
	}

	fake.Advance(3999 * time.Millisecond)
	if snap := c.Snapshot(); snap.Signals["s1"] != model.SignalGreen || snap.StepIndex != 0 {
		t.Fatalf("t=3999 snapshot = %+v", snap)
	}

	fake.Advance(time.Millisecond)
	snap := c.Snapshot()
	r, _ := snap.Train(scenario.Rajdhani)
	if snap.Signals["s1"] != model.SignalRed {
		t.Fatalf("t=4000 s1 = %s", snap.Signals["s1"])
	}
	if r.SpeedKmh != 0 || r.Status.String() != "emergency_stop" {
		t.Fatalf("t=4000 rajdhani = %+v", r)
	}
	if snap.Metrics.Efficiency != 76.5 || snap.Phase != "Conflict detected" {
		t.Fatalf("t=4000 metrics=%+v phase=%q", snap.Metrics, snap.Phase)
	}
	if notes := c.Notifications(); notes[0].Type != model.NotifyError || notes[0].Priority != model.PriorityCritical {
		t.Fatalf("t=4000 head notification = %+v", notes[0])
	}

	fake.AdvanceTo(t0.Add(12 * time.Second))
	snap = c.Snapshot()
	r, _ = snap.Train(scenario.Rajdhani)
	if !snap.Signals.IsAllGreen() || r.Status.String() != "normal_operations" || snap.Metrics.Efficiency != 92.8 {
		t.Fatalf("t=12000 snapshot = %+v", snap)
	}
	if st := c.Status(); st.ScenarioID != "conflict" || st.StepsFired != 6 || st.StepsPending != 0 {
		t.Fatalf("Status() = %+v", st)
	}
	if id, ok := c.ActiveScenario(); !ok || id != "conflict" {
		t.Fatalf("ActiveScenario() = %q, %t", id, ok)
	}
}

func TestSwitchEmergencyToNormalBeforeHalt(t *testing.T) {
	c, fake := newTestController(t, WithStrict(true))
	ctx := context.Background()

	if err := c.Activate(ctx, "emergency"); err != nil {
		t.Fatalf("Activate(emergency): %v", err)
	}
	fake.Advance(3 * time.Second)
	if err := c.Activate(ctx, "normal"); err != nil {
		t.Fatalf("Activate(normal): %v", err)
	}

	for i := 0; i < 40; i++ {
		fake.Advance(500 * time.Millisecond)
		snap := c.Snapshot()
		ic, _ := snap.Train(scenario.Intercity)
		if ic.Emergency || snap.EmergencyActive {
			t.Fatalf("emergency step applied after switch at +%dms: %+v", (i+1)*500, snap)
		}
		if snap.Metrics != scenario.BaselineMetrics {
			t.Fatalf("metrics left the normal baseline: %+v", snap.Metrics)
		}
	}
	for _, n := range c.Notifications() {
		if n.Type == model.NotifyError {
			t.Fatalf("emergency notification leaked: %+v", n)
		}
	}
}

func TestActivateUnknownLeavesStateUnchanged(t *testing.T) {
	m := newCountingMetrics()
	c, fake := newTestController(t, WithMetrics(m))
	ctx := context.Background()

	if err := c.Activate(ctx, "conflict"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	fake.Advance(4 * time.Second)
	before, beforeNotes := c.View()

	err := c.Activate(ctx, "rush-hour")
	if !errors.Is(err, scenario.ErrUnknownScenario) {
		t.Fatalf("Activate err = %v, want ErrUnknownScenario", err)
	}

	after, afterNotes := c.View()
	if after.Version != before.Version || after.Generation != before.Generation {
		t.Fatalf("state changed: before v%d/g%d after v%d/g%d", before.Version, before.Generation, after.Version, after.Generation)
	}
	if len(afterNotes) != len(beforeNotes) || afterNotes[0].ID != beforeNotes[0].ID {
		t.Fatalf("notifications changed")
	}
	if id, _ := c.ActiveScenario(); id != "conflict" {
		t.Fatalf("active scenario = %q, want conflict", id)
	}

	// The conflict timeline keeps running.
	fake.Advance(2 * time.Second)
	if r, _ := c.Snapshot().Train(scenario.Rajdhani); !r.Rerouting {
		t.Fatalf("conflict timeline stopped after rejected activation: %+v", r)
	}
	if m.rejections != 1 {
		t.Fatalf("rejections = %d, want 1", m.rejections)
	}
}

func TestActivateAlwaysResetsToBaseline(t *testing.T) {
	ids := []string{"normal", "conflict", "emergency", "optimization"}
	for _, prev := range ids {
		for _, next := range ids {
			c, fake := newTestController(t, WithStrict(true))
			ctx := context.Background()

			if err := c.Activate(ctx, prev); err != nil {
				t.Fatalf("Activate(%s): %v", prev, err)
			}
			fake.Advance(9500 * time.Millisecond)
			if err := c.Activate(ctx, next); err != nil {
				t.Fatalf("Activate(%s): %v", next, err)
			}
			assertBaseline(t, c.Snapshot())
		}
	}
}

func TestStepsNeverRegress(t *testing.T) {
	c, fake := newTestController(t, WithStrict(true))
	ch, cancel := c.Subscribe(64)
	defer cancel()

	if err := c.Activate(context.Background(), "optimization"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	fake.AdvanceTo(t0.Add(20 * time.Second))

	last := -2
	var seen int
	for {
		select {
		case u := <-ch:
			snap := u.Snapshot
			if snap.StepIndex < last {
				t.Fatalf("step index regressed from %d to %d", last, snap.StepIndex)
			}
			last = snap.StepIndex
			seen++
			continue
		default:
		}
		break
	}
	// reset, intro, seven steps
	if last != len(scenario.Optimization().Steps)-1 || seen != 9 {
		t.Fatalf("last step = %d after %d updates", last, seen)
	}
}

func TestUpdatesCarryTheirStepsNotifications(t *testing.T) {
	c, fake := newTestController(t, WithStrict(true))
	ch, cancel := c.Subscribe(64)
	defer cancel()

	s := scenario.Conflict()
	if err := c.Activate(context.Background(), s.ID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	fake.Advance(12 * time.Second)
	cancel()

	// Newest note expected once step i has fired.
	newest := map[int]string{-1: s.Intro.Message}
	last := s.Intro.Message
	for i, step := range s.Steps {
		if n := len(step.Notifications); n > 0 {
			last = step.Notifications[n-1].Message
		}
		newest[i] = last
	}

	var steps int
	for u := range ch {
		n, ok := u.Newest()
		if u.Snapshot.StepIndex < 0 {
			continue
		}
		steps++
		if want := newest[u.Snapshot.StepIndex]; !ok || n.Message != want {
			t.Fatalf("update at step %d has newest note %q, want %q", u.Snapshot.StepIndex, n.Message, want)
		}
	}
	if steps != len(s.Steps) {
		t.Fatalf("saw %d step updates, want %d", steps, len(s.Steps))
	}
}

func TestNotificationLogBoundAfterFullRun(t *testing.T) {
	c, fake := newTestController(t, WithStrict(true))
	if err := c.Activate(context.Background(), "optimization"); err != nil {
		t.Fatalf("Activate: %v", err)
	}

	for i := 0; i < 40; i++ {
		fake.Advance(500 * time.Millisecond)
		notes := c.Notifications()
		if len(notes) > state.DefaultNotificationCapacity {
			t.Fatalf("log holds %d entries", len(notes))
		}
		for j := 1; j < len(notes); j++ {
			if notes[j-1].ID != notes[j].ID+1 {
				t.Fatalf("ids not contiguous newest-first: %d then %d", notes[j-1].ID, notes[j].ID)
			}
		}
	}

	notes := c.Notifications()
	if len(notes) != 5 || notes[0].Message != "AI learning stored: Platform conflict prevention" {
		t.Fatalf("final log = %+v", notes)
	}
}

func TestDeactivateIsIdempotent(t *testing.T) {
	m := newCountingMetrics()
	c, fake := newTestController(t, WithMetrics(m), WithStrict(true))
	ctx := context.Background()

	c.Deactivate(ctx)
	if err := c.Activate(ctx, "conflict"); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	fake.Advance(2 * time.Second)
	c.Deactivate(ctx)
	c.Deactivate(ctx)

	version := c.Snapshot().Version
	fake.Advance(time.Minute)
	if c.Snapshot().Version != version {
		t.Fatalf("steps fired after deactivate")
	}
	if _, ok := c.ActiveScenario(); ok {
		t.Fatalf("still active after Deactivate")
	}
	if st := c.Status(); st.Active {
		t.Fatalf("Status() = %+v", st)
	}
	if m.cancelled != 1 {
		t.Fatalf("cancelled timelines = %d, want 1", m.cancelled)
	}
	if len(m.transitions) != 2 || m.transitions[1] != [2]string{"conflict", ""} {
		t.Fatalf("transitions = %v", m.transitions)
	}
}

func TestStaleStepIsRejected(t *testing.T) {
	m := newCountingMetrics()
	c, _ := newTestController(t, WithMetrics(m))
	s, _ := c.registry.Lookup("conflict")

	stale := c.store.Generation()
	c.store.Reset(c.registry.Baseline())
	c.onStep(context.Background(), s, stale)(0)

	if m.races != 1 {
		t.Fatalf("race violations = %d, want 1", m.races)
	}
	assertBaseline(t, c.Snapshot())
}

func TestStrictModePanicsOnStaleStep(t *testing.T) {
	c, _ := newTestController(t, WithStrict(true))
	s, _ := c.registry.Lookup("conflict")

	stale := c.store.Generation()
	c.store.Reset(c.registry.Baseline())

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic for stale step in strict mode")
		}
	}()
	c.onStep(context.Background(), s, stale)(0)
}

// TestSwitchRacesWithDueStep activates conflict, then switches to normal
// while another goroutine advances the clock onto conflict's 4000ms step.
func TestSwitchRacesWithDueStep(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		m := newCountingMetrics()
		c, fake := newTestController(t, WithMetrics(m))
		ctx := context.Background()

		if err := c.Activate(ctx, "conflict"); err != nil {
			t.Fatalf("Activate(conflict): %v", err)
		}
		fake.AdvanceTo(t0.Add(3999 * time.Millisecond))

		delay := time.Duration(rng.Intn(50)) * time.Microsecond
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			fake.AdvanceTo(t0.Add(4 * time.Second))
		}()
		time.Sleep(delay)
		if err := c.Activate(ctx, "normal"); err != nil {
			t.Fatalf("Activate(normal): %v", err)
		}
		snap := c.Snapshot()
		wg.Wait()

		if snap.ConflictDetected {
			t.Fatalf("trial %d: conflict visible right after switch", trial)
		}
		final := c.Snapshot()
		if final.ConflictDetected || !final.Signals.IsAllGreen() {
			t.Fatalf("trial %d: conflict step applied after switch: %+v", trial, final)
		}
		if r, _ := final.Train(scenario.Rajdhani); r.Status.Kind == model.StatusEmergencyStop {
			t.Fatalf("trial %d: rajdhani stopped by stale step", trial)
		}
		m.mu.Lock()
		races := m.races
		m.mu.Unlock()
		if races != 0 {
			t.Fatalf("trial %d: %d stale steps reached the store", trial, races)
		}
	}
}

func TestDemoRunsBesideScenarios(t *testing.T) {
	c, fake := newTestController(t, WithStrict(true), WithDemoOptions(demo.WithInterval(2*time.Second)))
	ctx := context.Background()

	if _, err := c.PlayDemo(ctx); err != nil {
		t.Fatalf("PlayDemo: %v", err)
	}
	if err := c.Activate(ctx, scenario.ConflictID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	fake.Advance(4 * time.Second)

	if got := c.Demo().Step; got != 2 {
		t.Fatalf("demo step = %d, want 2", got)
	}
	if snap := c.Snapshot(); !snap.ConflictDetected || snap.StepIndex != 1 {
		t.Fatalf("scenario world = %+v", snap)
	}

	// Switching scenarios leaves the demo running.
	if err := c.Activate(ctx, scenario.NormalID); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	fake.Advance(2 * time.Second)
	if got := c.Demo().Step; got != 3 {
		t.Fatalf("demo step after switch = %d, want 3", got)
	}

	if s := c.PauseDemo(ctx); s.Playing {
		t.Fatalf("PauseDemo left it playing")
	}
	if s := c.ResetDemo(ctx); s.Step != 0 || s.Playing {
		t.Fatalf("ResetDemo = %+v", s)
	}
	c.Deactivate(ctx)
	if fake.Pending() != 0 {
		t.Fatalf("%d events pending after pause, reset and deactivate", fake.Pending())
	}
}
