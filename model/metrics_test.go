package model

import "testing"

func TestSystemMetricsValidateBounds(t *testing.T) {
	tests := []struct {
		name string
		m    SystemMetrics
		ok   bool
	}{
		{"zeros", SystemMetrics{}, true},
		{"all hundred", SystemMetrics{100, 100, 100, 100}, true},
		{"baseline", SystemMetrics{94.2, 98.7, 99.9, 87.3}, true},
		{"efficiency below zero", SystemMetrics{Efficiency: -0.1}, false},
		{"punctuality above hundred", SystemMetrics{Punctuality: 100.01}, false},
		{"safety above hundred", SystemMetrics{Safety: 101}, false},
		{"utilization below zero", SystemMetrics{Utilization: -5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if (err == nil) != tt.ok {
				t.Fatalf("Validate(%+v) = %v, want ok=%v", tt.m, err, tt.ok)
			}
		})
	}
}

func TestTargetsEvaluate(t *testing.T) {
	r := DefaultTargets.Evaluate(SystemMetrics{Efficiency: 95, Punctuality: 97.9, Safety: 99.9, Utilization: 90})
	if !r.Efficiency || r.Punctuality || !r.Safety || !r.Utilization {
		t.Fatalf("report = %+v", r)
	}
	if r.AllMet() {
		t.Fatalf("AllMet with punctuality below target")
	}
	if !DefaultTargets.Evaluate(SystemMetrics{100, 100, 100, 100}).AllMet() {
		t.Fatalf("perfect metrics miss a target")
	}
}
