// Package demo runs the looping walkthrough shown on the landing page: four
// trains and five phases, from routine monitoring through a junction
// conflict to its resolution, advancing on a fixed interval while playing.
package demo

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/signalsfoundry/railsim/internal/logging"
	"github.com/signalsfoundry/railsim/internal/timeline"
	"github.com/signalsfoundry/railsim/model"
)

// DefaultInterval is the time each phase stays on screen while playing.
const DefaultInterval = 3 * time.Second

// Action classifies what the system is doing in a phase.
type Action string

const (
	ActionMonitoring Action = "monitoring"
	ActionAlert      Action = "alert"
	ActionProcessing Action = "processing"
	ActionSolution   Action = "solution"
	ActionResolved   Action = "resolved"
)

// Phase is one card of the walkthrough.
type Phase struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      Action `json:"action"`
}

// Phases is the fixed cycle, in order.
var Phases = []Phase{
	{"Normal Operations", "All trains running according to schedule", ActionMonitoring},
	{"Conflict Detection", "AI detects potential scheduling conflict at Junction B", ActionAlert},
	{"AI Analysis", "System analyzes multiple resolution scenarios", ActionProcessing},
	{"Solution Generation", "Optimal solution: Re-route Express 102 via alternate track", ActionSolution},
	{"Implementation", "Solution implemented, conflict resolved", ActionResolved},
}

// Train statuses used by the walkthrough.
const (
	StatusRunning  = "running"
	StatusConflict = "conflict"
)

// ConflictTrain is the train rerouted in the walkthrough.
const ConflictTrain = 4

// Train is a walkthrough train. Position is a percentage along the line.
type Train struct {
	ID       int            `json:"id"`
	Name     string         `json:"name"`
	Position float64        `json:"position"`
	Status   string         `json:"status"`
	Priority model.Priority `json:"priority"`
	DelayMin int            `json:"delayMin"`
}

// Metrics are the headline figures shown beside the walkthrough.
type Metrics struct {
	OnTimePercent     float64 `json:"onTimePercent"`
	ActiveConflicts   int     `json:"activeConflicts"`
	AverageDelayMin   float64 `json:"averageDelayMin"`
	SystemLoadPercent float64 `json:"systemLoadPercent"`
}

// Snapshot is an immutable copy of the walkthrough state.
type Snapshot struct {
	Playing bool    `json:"playing"`
	Step    int     `json:"step"`
	Cycle   int     `json:"cycle"`
	Phase   Phase   `json:"phase"`
	Trains  []Train `json:"trains"`
	Metrics Metrics `json:"metrics"`
}

// InitialTrains returns the roster every reset starts from.
func InitialTrains() []Train {
	return []Train{
		{ID: 1, Name: "Express 101", Position: 10, Status: StatusRunning, Priority: model.PriorityHigh, DelayMin: 0},
		{ID: 2, Name: "Local 205", Position: 30, Status: StatusRunning, Priority: model.PriorityMedium, DelayMin: 5},
		{ID: 3, Name: "Freight 301", Position: 60, Status: StatusRunning, Priority: model.PriorityLow, DelayMin: 12},
		{ID: ConflictTrain, Name: "Express 102", Position: 80, Status: StatusRunning, Priority: model.PriorityHigh, DelayMin: 0},
	}
}

// MetricsSink receives walkthrough transitions. Implementations must be safe for
// concurrent use.
type MetricsSink interface {
	DemoPhaseEntered(action string)
	DemoPlaying(playing bool)
}

type noopSink struct{}

func (noopSink) DemoPhaseEntered(string) {}
func (noopSink) DemoPlaying(bool)        {}

// Option customises a Loop.
type Option func(*Loop)

// WithInterval sets the time between phases.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithRand sets the source of train movement.
func WithRand(r *rand.Rand) Option {
	return func(l *Loop) {
		if r != nil {
			l.rng = r
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log logging.Logger) Option {
	return func(l *Loop) {
		if log != nil {
			l.log = log
		}
	}
}

// WithMetrics sets the transition sink.
func WithMetrics(m MetricsSink) Option {
	return func(l *Loop) {
		if m != nil {
			l.metrics = m
		}
	}
}

// Loop drives the walkthrough on a timeline, one single-shot handle per
// phase. Each tick re-arms the next from its own due time.
//
// Lock order is a handle's lock, then mu. Nothing holding mu waits on a
// handle that may be firing: Pause and Reset cancel after unlocking, and gen
// turns any tick that slipped past the cancel into a no-op.
type Loop struct {
	tl       *timeline.Timeline
	interval time.Duration
	log      logging.Logger
	metrics  MetricsSink

	mu      sync.Mutex
	rng     *rand.Rand
	playing bool
	step    int
	cycle   int
	trains  []Train
	handle  *timeline.Handle
	gen     uint64
}

// New builds a paused walkthrough at its first phase.
func New(tl *timeline.Timeline, opts ...Option) *Loop {
	l := &Loop{
		tl:       tl,
		interval: DefaultInterval,
		log:      logging.Noop(),
		metrics:  noopSink{},
		trains:   InitialTrains(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.rng == nil {
		l.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return l
}

// Interval reports the time between phases.
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Play starts advancing from the current phase. Playing twice is harmless.
func (l *Loop) Play(ctx context.Context) (Snapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.playing {
		return l.snapshotLocked(), nil
	}
	l.gen++
	if err := l.armLocked(l.tl.Scheduler().Now(), l.gen); err != nil {
		return l.snapshotLocked(), err
	}
	l.playing = true
	l.metrics.DemoPlaying(true)
	logging.FromContext(ctx, l.log).Info(ctx, "demo playing",
		logging.Int("step", l.step), logging.Duration("interval", l.interval))
	return l.snapshotLocked(), nil
}

// Pause stops advancing and keeps the current phase and trains.
func (l *Loop) Pause(ctx context.Context) Snapshot {
	l.mu.Lock()
	h := l.stopLocked()
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.tl.Cancel(h)
	if h != nil {
		logging.FromContext(ctx, l.log).Info(ctx, "demo paused", logging.Int("step", snap.Step))
	}
	return snap
}

// Toggle pauses a playing walkthrough and plays a paused one.
func (l *Loop) Toggle(ctx context.Context) (Snapshot, error) {
	l.mu.Lock()
	playing := l.playing
	l.mu.Unlock()
	if playing {
		return l.Pause(ctx), nil
	}
	return l.Play(ctx)
}

// Reset stops the walkthrough and restores the first phase and the initial
// roster.
func (l *Loop) Reset(ctx context.Context) Snapshot {
	l.mu.Lock()
	h := l.stopLocked()
	l.step, l.cycle = 0, 0
	l.trains = InitialTrains()
	snap := l.snapshotLocked()
	l.mu.Unlock()

	l.tl.Cancel(h)
	logging.FromContext(ctx, l.log).Info(ctx, "demo reset")
	return snap
}

// Snapshot returns the current walkthrough state.
func (l *Loop) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

func (l *Loop) stopLocked() *timeline.Handle {
	h := l.handle
	l.handle = nil
	l.gen++
	if l.playing {
		l.playing = false
		l.metrics.DemoPlaying(false)
	}
	return h
}

func (l *Loop) armLocked(from time.Time, gen uint64) error {
	due := from.Add(l.interval)
	h, err := l.tl.StartAt(from, []time.Duration{l.interval}, func(int) {
		l.tick(gen, due)
	})
	if err != nil {
		return err
	}
	l.handle = h
	return nil
}

// tick runs under the firing handle's lock.
func (l *Loop) tick(gen uint64, due time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if gen != l.gen || !l.playing {
		return
	}
	l.advanceLocked()
	if err := l.armLocked(due, gen); err != nil {
		l.log.Error(context.Background(), "demo re-arm failed", logging.Err(err))
		l.stopLocked()
	}
}

// advanceLocked moves every train along and enters the next phase. Entering
// the alert phase puts the conflict train into conflict; entering the
// resolved phase clears it and eats two minutes off every delay.
func (l *Loop) advanceLocked() {
	l.step = (l.step + 1) % len(Phases)
	if l.step == 0 {
		l.cycle++
	}
	action := Phases[l.step].Action
	for i := range l.trains {
		t := &l.trains[i]
		t.Position = math.Mod(t.Position+l.rng.Float64()*5, 100)
		switch action {
		case ActionAlert:
			if t.ID == ConflictTrain {
				t.Status = StatusConflict
			}
		case ActionResolved:
			t.Status = StatusRunning
			t.DelayMin = max(0, t.DelayMin-2)
		}
	}
	l.metrics.DemoPhaseEntered(string(action))
	l.log.Debug(context.Background(), "demo phase",
		logging.Int("step", l.step), logging.String("action", string(action)))
}

func (l *Loop) snapshotLocked() Snapshot {
	s := Snapshot{
		Playing: l.playing,
		Step:    l.step,
		Cycle:   l.cycle,
		Phase:   Phases[l.step],
		Trains:  append([]Train(nil), l.trains...),
		Metrics: Metrics{
			OnTimePercent:     87,
			AverageDelayMin:   8.7,
			SystemLoadPercent: 76,
		},
	}
	if l.playing {
		s.Metrics.OnTimePercent = 94
		s.Metrics.AverageDelayMin = 2.3
	}
	for _, t := range l.trains {
		if t.Status == StatusConflict {
			s.Metrics.ActiveConflicts++
		}
	}
	return s
}
