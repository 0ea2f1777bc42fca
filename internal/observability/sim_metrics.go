package observability

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/railsim/internal/sim/state"
	"github.com/signalsfoundry/railsim/model"
)

// SimCollector exposes scenario engine metrics. It satisfies the
// controller's Metrics interface, the store's WorldMetricsRecorder and the
// demo loop's MetricsSink.
type SimCollector struct {
	gatherer prometheus.Gatherer

	Activations        *prometheus.CounterVec
	ActivationRejects  *prometheus.CounterVec
	StepsFired         *prometheus.CounterVec
	TimelinesCancelled prometheus.Counter
	RaceViolations     prometheus.Counter
	Notifications      *prometheus.CounterVec
	ActiveScenario     *prometheus.GaugeVec
	SystemMetrics      *prometheus.GaugeVec
	TargetsMet         *prometheus.GaugeVec
	ConflictDetected   prometheus.Gauge
	EmergencyActive    prometheus.Gauge
	PendingEvents      prometheus.Gauge
	SnapshotGeneration prometheus.Gauge
	DemoPhasesEntered  *prometheus.CounterVec
	DemoActive         prometheus.Gauge

	activeMu sync.Mutex
}

// NewSimCollector registers engine metrics against the provided registerer.
func NewSimCollector(reg prometheus.Registerer) (*SimCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	c := &SimCollector{gatherer: gatherer}
	var err error

	if c.Activations, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsim_scenario_activations_total",
		Help: "Scenario activations, labeled by scenario id.",
	}, []string{"scenario"}), "railsim_scenario_activations_total"); err != nil {
		return nil, err
	}
	if c.ActivationRejects, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsim_scenario_activation_rejections_total",
		Help: "Rejected scenario activations, labeled by reason.",
	}, []string{"reason"}), "railsim_scenario_activation_rejections_total"); err != nil {
		return nil, err
	}
	if c.StepsFired, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsim_scenario_steps_fired_total",
		Help: "Scenario steps applied to the world, labeled by scenario id.",
	}, []string{"scenario"}), "railsim_scenario_steps_fired_total"); err != nil {
		return nil, err
	}
	if c.TimelinesCancelled, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "railsim_timelines_cancelled_total",
		Help: "Timelines cancelled by a scenario switch or deactivation.",
	}), "railsim_timelines_cancelled_total"); err != nil {
		return nil, err
	}
	if c.RaceViolations, err = registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "railsim_scheduler_race_violations_total",
		Help: "Steps of a superseded activation that reached the store and were rejected.",
	}), "railsim_scheduler_race_violations_total"); err != nil {
		return nil, err
	}
	if c.Notifications, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsim_notifications_total",
		Help: "Notifications appended to the live log, labeled by type and priority.",
	}, []string{"type", "priority"}), "railsim_notifications_total"); err != nil {
		return nil, err
	}
	if c.ActiveScenario, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "railsim_active_scenario",
		Help: "1 for the currently active scenario, 0 otherwise.",
	}, []string{"scenario"}), "railsim_active_scenario"); err != nil {
		return nil, err
	}
	if c.SystemMetrics, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "railsim_system_metric_percent",
		Help: "Current simulated system metrics (efficiency, punctuality, safety, utilization).",
	}, []string{"metric"}), "railsim_system_metric_percent"); err != nil {
		return nil, err
	}
	if c.TargetsMet, err = registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "railsim_system_metric_target_met",
		Help: "1 when the system metric is at or above its target, 0 otherwise.",
	}, []string{"metric"}), "railsim_system_metric_target_met"); err != nil {
		return nil, err
	}
	if c.ConflictDetected, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railsim_conflict_detected",
		Help: "1 while a conflict is active in the world.",
	}), "railsim_conflict_detected"); err != nil {
		return nil, err
	}
	if c.EmergencyActive, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railsim_emergency_active",
		Help: "1 while an emergency is active in the world.",
	}), "railsim_emergency_active"); err != nil {
		return nil, err
	}
	if c.PendingEvents, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railsim_scheduler_pending_events",
		Help: "Number of scheduled, uncancelled timeline events.",
	}), "railsim_scheduler_pending_events"); err != nil {
		return nil, err
	}
	if c.SnapshotGeneration, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railsim_world_generation",
		Help: "Activation generation of the current world snapshot.",
	}), "railsim_world_generation"); err != nil {
		return nil, err
	}
	if c.DemoPhasesEntered, err = registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "railsim_demo_phases_entered_total",
		Help: "Demo walkthrough phases entered, labeled by action.",
	}, []string{"action"}), "railsim_demo_phases_entered_total"); err != nil {
		return nil, err
	}
	if c.DemoActive, err = registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "railsim_demo_playing",
		Help: "1 while the demo walkthrough is playing.",
	}), "railsim_demo_playing"); err != nil {
		return nil, err
	}
	return c, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SimCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// ActivationStarted counts a successful activation.
func (c *SimCollector) ActivationStarted(scenarioID string) {
	if c == nil {
		return
	}
	c.Activations.WithLabelValues(scenarioID).Inc()
}

// ActivationRejected counts a rejected activation.
func (c *SimCollector) ActivationRejected(reason string) {
	if c == nil {
		return
	}
	c.ActivationRejects.WithLabelValues(reason).Inc()
}

// StepFired counts an applied step.
func (c *SimCollector) StepFired(scenarioID string) {
	if c == nil {
		return
	}
	c.StepsFired.WithLabelValues(scenarioID).Inc()
}

// TimelineCancelled counts a cancelled timeline.
func (c *SimCollector) TimelineCancelled() {
	if c == nil {
		return
	}
	c.TimelinesCancelled.Inc()
}

// RaceViolation counts a stale step rejected by the store.
func (c *SimCollector) RaceViolation() {
	if c == nil {
		return
	}
	c.RaceViolations.Inc()
}

// ActiveScenarioChanged moves the active-scenario marker.
func (c *SimCollector) ActiveScenarioChanged(previous, current string) {
	if c == nil {
		return
	}
	c.activeMu.Lock()
	defer c.activeMu.Unlock()
	if previous != "" {
		c.ActiveScenario.WithLabelValues(previous).Set(0)
	}
	if current != "" {
		c.ActiveScenario.WithLabelValues(current).Set(1)
	}
}

// ObserveWorld mirrors a snapshot into the world gauges.
func (c *SimCollector) ObserveWorld(s state.Snapshot) {
	if c == nil {
		return
	}
	c.SystemMetrics.WithLabelValues("efficiency").Set(s.Metrics.Efficiency)
	c.SystemMetrics.WithLabelValues("punctuality").Set(s.Metrics.Punctuality)
	c.SystemMetrics.WithLabelValues("safety").Set(s.Metrics.Safety)
	c.SystemMetrics.WithLabelValues("utilization").Set(s.Metrics.Utilization)

	c.TargetsMet.WithLabelValues("efficiency").Set(boolGauge(s.Targets.Efficiency))
	c.TargetsMet.WithLabelValues("punctuality").Set(boolGauge(s.Targets.Punctuality))
	c.TargetsMet.WithLabelValues("safety").Set(boolGauge(s.Targets.Safety))
	c.TargetsMet.WithLabelValues("utilization").Set(boolGauge(s.Targets.Utilization))

	c.ConflictDetected.Set(boolGauge(s.ConflictDetected))
	c.EmergencyActive.Set(boolGauge(s.EmergencyActive))
	c.SnapshotGeneration.Set(float64(s.Generation))
}

// IncNotifications counts an appended notification.
func (c *SimCollector) IncNotifications(n model.Notification) {
	if c == nil {
		return
	}
	c.Notifications.WithLabelValues(n.Type.String(), n.Priority.String()).Inc()
}

// DemoPhaseEntered counts a demo phase transition.
func (c *SimCollector) DemoPhaseEntered(action string) {
	if c == nil {
		return
	}
	c.DemoPhasesEntered.WithLabelValues(action).Inc()
}

// DemoPlaying tracks whether the demo walkthrough is playing.
func (c *SimCollector) DemoPlaying(playing bool) {
	if c == nil {
		return
	}
	c.DemoActive.Set(boolGauge(playing))
}

// SetPendingEvents updates the scheduler queue depth gauge.
func (c *SimCollector) SetPendingEvents(count int) {
	if c == nil {
		return
	}
	c.PendingEvents.Set(float64(count))
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
