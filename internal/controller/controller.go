// Package controller implements the scenario state machine: it activates a
// scenario by resetting the world and starting its timeline, and guarantees
// that a switch cancels every pending step of the previous activation.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/railsim/internal/demo"
	"github.com/signalsfoundry/railsim/internal/logging"
	"github.com/signalsfoundry/railsim/internal/scenario"
	"github.com/signalsfoundry/railsim/internal/sim/state"
	"github.com/signalsfoundry/railsim/internal/timeline"
	"github.com/signalsfoundry/railsim/model"
)

const tracerName = "github.com/signalsfoundry/railsim/internal/controller"

// SystemOperational is seeded into the log when the controller is built.
var SystemOperational = model.NotificationSpec{
	Message:  "System operational",
	Type:     model.NotifySuccess,
	Priority: model.PriorityLow,
}

// Metrics receives controller lifecycle events. Implementations must be
// safe for concurrent use.
type Metrics interface {
	ActivationStarted(scenarioID string)
	ActivationRejected(reason string)
	StepFired(scenarioID string)
	TimelineCancelled()
	RaceViolation()
	ActiveScenarioChanged(previous, current string)
}

type noopMetrics struct{}

func (noopMetrics) ActivationStarted(string)             {}
func (noopMetrics) ActivationRejected(string)            {}
func (noopMetrics) StepFired(string)                     {}
func (noopMetrics) TimelineCancelled()                   {}
func (noopMetrics) RaceViolation()                       {}
func (noopMetrics) ActiveScenarioChanged(string, string) {}

// Option customises a Controller.
type Option func(*Controller)

// WithLogger sets the structured logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithMetrics sets the lifecycle metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *Controller) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracer overrides the global tracer.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) {
		if t != nil {
			c.tracer = t
		}
	}
}

// WithStrict makes a rejected step panic instead of only being logged.
func WithStrict(strict bool) Option {
	return func(c *Controller) {
		c.strict = strict
	}
}

// WithDemoOptions customises the demo walkthrough the controller hosts.
func WithDemoOptions(opts ...demo.Option) Option {
	return func(c *Controller) {
		c.demoOpts = append(c.demoOpts, opts...)
	}
}

// Controller is the scenario state machine {inactive, active(scenario, handle)}.
//
// Lock order is mu, then a timeline handle's lock, then the store's lock.
// Step callbacks never take mu.
type Controller struct {
	mu sync.Mutex

	registry *scenario.Registry
	store    *state.Store
	timeline *timeline.Timeline

	active       *scenario.Scenario
	handle       *timeline.Handle
	activationID string

	// demo runs on the same timeline but never touches the store.
	demo     *demo.Loop
	demoOpts []demo.Option

	strict  bool
	log     logging.Logger
	metrics Metrics
	tracer  trace.Tracer
}

// New builds an inactive controller and seeds the notification log.
func New(reg *scenario.Registry, store *state.Store, tl *timeline.Timeline, opts ...Option) *Controller {
	c := &Controller{
		registry: reg,
		store:    store,
		timeline: tl,
		log:      logging.Noop(),
		metrics:  noopMetrics{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	c.demo = demo.New(tl, append([]demo.Option{demo.WithLogger(c.log)}, c.demoOpts...)...)
	_ = store.Publish(store.Generation(), SystemOperational)
	return c
}

// Activate switches to the scenario with id. Any running timeline is
// cancelled before the world is reset, so no step of the previous scenario
// can be observed afterwards. An unknown id returns an error wrapping
// scenario.ErrUnknownScenario and leaves everything unchanged.
func (c *Controller) Activate(ctx context.Context, id string) error {
	ctx, span := c.tracer.Start(ctx, "Controller.Activate",
		trace.WithAttributes(attribute.String("scenario.id", id)))
	defer span.End()
	log := logging.FromContext(ctx, c.log)

	s, err := c.registry.Lookup(id)
	if err != nil {
		c.metrics.ActivationRejected("unknown_scenario")
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "unknown scenario")
		log.Warn(ctx, "scenario activation rejected",
			logging.String("scenario_id", id), logging.Err(err))
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.activeIDLocked()
	c.cancelLocked(ctx)

	gen := c.store.Reset(c.registry.Baseline())
	activationID := uuid.NewString()
	if s.Intro != nil {
		if err := c.store.Publish(gen, *s.Intro); err != nil {
			// Only reachable if something else reset the store under us.
			c.stepRejected(ctx, s, -1, err)
		}
	}

	stepCtx := logging.ContextWithActivationID(context.Background(), activationID)
	h, err := c.timeline.Start(s.Offsets(), c.onStep(stepCtx, s, gen))
	if err != nil {
		// Registry validation makes this unreachable for registered scenarios.
		c.active, c.activationID = nil, ""
		c.metrics.ActiveScenarioChanged(previous, "")
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "timeline start failed")
		return fmt.Errorf("start %s timeline: %w", s.ID, err)
	}

	c.active, c.handle, c.activationID = s, h, activationID
	c.metrics.ActivationStarted(s.ID)
	c.metrics.ActiveScenarioChanged(previous, s.ID)

	span.SetAttributes(
		attribute.String("activation.id", activationID),
		attribute.Int64("activation.generation", int64(gen)),
		attribute.Int("scenario.steps", len(s.Steps)),
	)
	log.Info(logging.ContextWithActivationID(ctx, activationID), "scenario activated",
		logging.String("scenario_id", s.ID),
		logging.String("previous", previous),
		logging.Uint64("generation", gen),
		logging.Int("steps", len(s.Steps)),
		logging.Duration("duration", s.Duration()),
	)
	return nil
}

// Deactivate cancels the running timeline, if any, and returns to inactive.
// The world is left as the last applied step produced it. Calling it more
// than once is harmless.
func (c *Controller) Deactivate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.activeIDLocked()
	if previous == "" {
		return
	}
	c.cancelLocked(ctx)
	c.active, c.activationID = nil, ""
	c.metrics.ActiveScenarioChanged(previous, "")
	logging.FromContext(ctx, c.log).Info(ctx, "scenario deactivated",
		logging.String("scenario_id", previous))
}

// ActiveScenario returns the active scenario id, if any.
func (c *Controller) ActiveScenario() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.activeIDLocked()
	return id, id != ""
}

// Status describes the controller state machine.
type Status struct {
	ScenarioID   string `json:"scenarioId,omitempty"`
	ActivationID string `json:"activationId,omitempty"`
	Active       bool   `json:"active"`
	StepsFired   int    `json:"stepsFired"`
	StepsPending int    `json:"stepsPending"`
}

// Status returns the state machine's current state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return Status{}
	}
	return Status{
		ScenarioID:   c.active.ID,
		ActivationID: c.activationID,
		Active:       true,
		StepsFired:   c.handle.Fired(),
		StepsPending: c.handle.Pending(),
	}
}

// Snapshot returns the latest world snapshot.
func (c *Controller) Snapshot() state.Snapshot {
	return c.store.Snapshot()
}

// Notifications returns the retained notifications, newest first.
func (c *Controller) Notifications() []model.Notification {
	return c.store.Notifications()
}

// View returns the snapshot and notifications taken together.
func (c *Controller) View() (state.Snapshot, []model.Notification) {
	return c.store.View()
}

// Subscribe forwards to the store's update feed.
func (c *Controller) Subscribe(buffer int) (<-chan state.Update, func()) {
	return c.store.Subscribe(buffer)
}

// Demo returns the walkthrough state.
func (c *Controller) Demo() demo.Snapshot {
	return c.demo.Snapshot()
}

// PlayDemo starts the walkthrough.
func (c *Controller) PlayDemo(ctx context.Context) (demo.Snapshot, error) {
	ctx, span := c.tracer.Start(ctx, "Controller.PlayDemo")
	defer span.End()
	s, err := c.demo.Play(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "demo play failed")
	}
	return s, err
}

// PauseDemo stops the walkthrough where it is.
func (c *Controller) PauseDemo(ctx context.Context) demo.Snapshot {
	ctx, span := c.tracer.Start(ctx, "Controller.PauseDemo")
	defer span.End()
	return c.demo.Pause(ctx)
}

// ResetDemo stops the walkthrough and rewinds it to the first phase.
func (c *Controller) ResetDemo(ctx context.Context) demo.Snapshot {
	ctx, span := c.tracer.Start(ctx, "Controller.ResetDemo")
	defer span.End()
	return c.demo.Reset(ctx)
}

// Scenarios lists the registered scenarios in order.
func (c *Controller) Scenarios() []*scenario.Scenario {
	return c.registry.List()
}

func (c *Controller) activeIDLocked() string {
	if c.active == nil {
		return ""
	}
	return c.active.ID
}

func (c *Controller) cancelLocked(ctx context.Context) {
	if c.handle == nil {
		return
	}
	pending := c.handle.Pending()
	c.timeline.Cancel(c.handle)
	c.handle = nil
	c.metrics.TimelineCancelled()
	logging.FromContext(ctx, c.log).Debug(ctx, "timeline cancelled",
		logging.String("scenario_id", c.activeIDLocked()),
		logging.String("activation_id", c.activationID),
		logging.Int("pending_steps", pending))
}

// onStep returns the timeline callback for one activation. It runs under
// the handle lock and must not take c.mu.
func (c *Controller) onStep(ctx context.Context, s *scenario.Scenario, gen uint64) func(int) {
	return func(index int) {
		step := s.Steps[index]
		err := c.store.Apply(gen, func(w *state.World) {
			step.Mutate(w)
			w.Phase = step.Phase
			w.StepIndex = index
		}, step.Notifications...)
		if err != nil {
			c.stepRejected(ctx, s, index, err)
			return
		}
		c.metrics.StepFired(s.ID)
		c.log.Debug(ctx, "scenario step applied",
			logging.String("scenario_id", s.ID),
			logging.Int("step", index),
			logging.String("phase", step.Phase),
			logging.Duration("offset", step.Offset))
	}
}

func (c *Controller) stepRejected(ctx context.Context, s *scenario.Scenario, index int, err error) {
	if errors.Is(err, state.ErrSchedulerRaceViolation) {
		c.metrics.RaceViolation()
	}
	c.log.Error(ctx, "scenario step rejected",
		logging.String("scenario_id", s.ID),
		logging.Int("step", index),
		logging.Err(err))
	if c.strict {
		panic(fmt.Sprintf("scenario %s step %d: %v", s.ID, index, err))
	}
}
