package model

import "fmt"

// SystemMetrics is the headline KPI vector, each value a percentage.
type SystemMetrics struct {
	Efficiency  float64 `json:"efficiency"`
	Punctuality float64 `json:"punctuality"`
	Safety      float64 `json:"safety"`
	Utilization float64 `json:"utilization"`
}

// Validate ensures every component lies in [0,100].
func (m SystemMetrics) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"efficiency", m.Efficiency},
		{"punctuality", m.Punctuality},
		{"safety", m.Safety},
		{"utilization", m.Utilization},
	} {
		if f.v < 0 || f.v > 100 {
			return fmt.Errorf("metric %s out of range: %.2f", f.name, f.v)
		}
	}
	return nil
}

// MetricTargets holds the operating thresholds shown next to each KPI.
type MetricTargets SystemMetrics

// DefaultTargets are the dashboard thresholds.
var DefaultTargets = MetricTargets{
	Efficiency:  95,
	Punctuality: 98,
	Safety:      99.5,
	Utilization: 90,
}

// TargetReport records whether each KPI meets its threshold.
type TargetReport struct {
	Efficiency  bool `json:"efficiency"`
	Punctuality bool `json:"punctuality"`
	Safety      bool `json:"safety"`
	Utilization bool `json:"utilization"`
}

// AllMet reports whether every KPI is on target.
func (r TargetReport) AllMet() bool {
	return r.Efficiency && r.Punctuality && r.Safety && r.Utilization
}

// Evaluate compares m against the targets.
func (t MetricTargets) Evaluate(m SystemMetrics) TargetReport {
	return TargetReport{
		Efficiency:  m.Efficiency >= t.Efficiency,
		Punctuality: m.Punctuality >= t.Punctuality,
		Safety:      m.Safety >= t.Safety,
		Utilization: m.Utilization >= t.Utilization,
	}
}
