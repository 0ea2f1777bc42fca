package scenario

import (
	"time"

	"github.com/signalsfoundry/railsim/internal/sim/state"
	"github.com/signalsfoundry/railsim/model"
)

// Train and signal ids used by the built-in scenarios.
const (
	Rajdhani  = "rajdhani"
	Intercity = "intercity"
	Freight   = "freight"
)

// Ids of the built-in scenarios.
const (
	NormalID       = "normal"
	ConflictID     = "conflict"
	EmergencyID    = "emergency"
	OptimizationID = "optimization"
)

// SignalIDs are the line-side signals on the network map.
var SignalIDs = []string{"s1", "s2", "s3"}

// BaselineMetrics is the system metric vector every activation starts from.
var BaselineMetrics = model.SystemMetrics{
	Efficiency:  94.2,
	Punctuality: 98.7,
	Safety:      99.9,
	Utilization: 87.3,
}

// Baseline returns the fixed starting world shared by every scenario.
func Baseline() state.World {
	trains := []model.TrainState{
		{
			ID: Rajdhani, Name: "Rajdhani Express",
			Position: model.Position{X: 120, Y: 110}, Track: 1, SpeedKmh: 140,
			Status: model.Status(model.StatusMoving), NextStop: "Mumbai",
		},
		{
			ID: Intercity, Name: "Intercity Express",
			Position: model.Position{X: 700, Y: 190}, Track: 2, SpeedKmh: 95,
			Status: model.Status(model.StatusMoving), NextStop: "Delhi",
		},
		{
			ID: Freight, Name: "Freight Train",
			Position: model.Position{X: 120, Y: 270}, Track: 3, SpeedKmh: 60,
			Status: model.Status(model.StatusMoving), NextStop: "Mumbai",
		},
	}
	w := state.World{
		Trains:    make(map[string]model.TrainState, len(trains)),
		Signals:   model.AllGreen(SignalIDs...),
		Metrics:   BaselineMetrics,
		StepIndex: -1,
	}
	for _, t := range trains {
		w.Trains[t.ID] = t
		w.TrainOrder = append(w.TrainOrder, t.ID)
	}
	return w
}

// Builtin returns fresh copies of the four scripted scenarios.
func Builtin() []*Scenario {
	return []*Scenario{Normal(), Conflict(), Emergency(), Optimization()}
}

func note(msg string, typ model.NotificationType, p model.Priority) model.NotificationSpec {
	return model.NotificationSpec{Message: msg, Type: typ, Priority: p}
}

func intro(msg string, typ model.NotificationType, p model.Priority) *model.NotificationSpec {
	n := note(msg, typ, p)
	return &n
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func setAllSignals(w *state.World, c model.SignalColor) {
	for _, id := range SignalIDs {
		w.SetSignal(id, c)
	}
}

// Normal is the scheduled-flow scenario: every train calls at its platform
// and the loop returns to the start.
func Normal() *Scenario {
	return &Scenario{
		ID:              NormalID,
		Name:            "Normal Operations",
		Description:     "Optimal scheduling",
		Summary:         "Trains operating on scheduled routes with optimal platform allocation and smooth traffic flow.",
		InitialLabel:    "Scheduled Flow",
		ResolutionLabel: "On Schedule",
		Intro:           intro("Normal operations active", model.NotifySuccess, model.PriorityLow),
		Steps: []Step{
			{
				Offset: ms(1000),
				Phase:  "Scheduled service",
				Notifications: []model.NotificationSpec{
					note("All trains proceeding on schedule", model.NotifySuccess, model.PriorityLow),
				},
				Mutate: func(w *state.World) {
					w.UpdateTrain(Rajdhani, func(t *model.TrainState) {
						t.Position.X, t.SpeedKmh = 250, 140
						t.Status = model.Status(model.StatusExpressService)
					})
					w.UpdateTrain(Intercity, func(t *model.TrainState) {
						t.Position.X, t.SpeedKmh = 600, 95
						t.Status = model.Status(model.StatusPassengerService)
					})
					w.UpdateTrain(Freight, func(t *model.TrainState) {
						t.Position.X, t.SpeedKmh = 200, 60
						t.Status = model.Status(model.StatusCargoTransport)
					})
				},
			},
			{
				Offset: ms(4000),
				Phase:  "Approaching Central Hub",
				Notifications: []model.NotificationSpec{
					note("Trains approaching Central Hub stations", model.NotifyInfo, model.PriorityLow),
				},
				Mutate: func(w *state.World) {
					for id, x := range map[string]float64{Rajdhani: 450, Intercity: 450, Freight: 400} {
						w.UpdateTrain(id, func(t *model.TrainState) {
							t.Position.X = x
							t.Status = model.Status(model.StatusApproachingCentralHub)
						})
					}
				},
			},
			{
				Offset: ms(7000),
				Phase:  "Platform allocation",
				Notifications: []model.NotificationSpec{
					note("Platform allocation: Rajdhani→PF-1, Intercity→PF-2, Freight→PF-3", model.NotifySuccess, model.PriorityMedium),
				},
				Mutate: func(w *state.World) {
					for id, pf := range map[string]int{Rajdhani: 1, Intercity: 2, Freight: 3} {
						w.UpdateTrain(id, func(t *model.TrainState) {
							t.Position.X = 480
							t.PlatformStop = true
							t.Status = model.AtPlatform(model.StatusPlatformService, pf)
						})
					}
				},
			},
			{
				Offset: ms(11000),
				Phase:  "Departures",
				Notifications: []model.NotificationSpec{
					note("All trains departing on schedule", model.NotifySuccess, model.PriorityLow),
				},
				Mutate: func(w *state.World) {
					w.UpdateTrain(Rajdhani, func(t *model.TrainState) {
						t.Position.X, t.PlatformStop = 600, false
						t.Status = model.DepartingTo("mumbai")
					})
					w.UpdateTrain(Intercity, func(t *model.TrainState) {
						t.Position.X, t.PlatformStop = 300, false
						t.Status = model.DepartingTo("delhi")
					})
					w.UpdateTrain(Freight, func(t *model.TrainState) {
						t.Position.X, t.PlatformStop = 650, false
						t.Status = model.Status(model.StatusContinuingRoute)
					})
				},
			},
			{
				Offset: ms(15000),
				Phase:  "Cycle complete",
				Notifications: []model.NotificationSpec{
					note("Normal operations cycle complete", model.NotifySuccess, model.PriorityLow),
				},
				Mutate: func(w *state.World) {
					for id, x := range map[string]float64{Rajdhani: 120, Intercity: 700, Freight: 120} {
						w.UpdateTrain(id, func(t *model.TrainState) {
							t.Position.X = x
							t.Status = model.Status(model.StatusNormalOperations)
						})
					}
				},
			},
		},
	}
}

// Conflict sends Rajdhani and Intercity at Junction B together and resolves
// it by rerouting Rajdhani onto track 2.
func Conflict() *Scenario {
	return &Scenario{
		ID:              ConflictID,
		Name:            "Conflict Resolution",
		Description:     "Multiple train conflicts",
		Summary:         "Multiple trains approaching same junction - AI system detecting conflicts and implementing resolution protocols.",
		InitialLabel:    "Conflict Detected",
		ResolutionLabel: "Conflict Resolved",
		Intro:           intro("Initializing conflict scenario", model.NotifyInfo, model.PriorityMedium),
		Steps: []Step{
			{
				Offset: ms(2000),
				Phase:  "Approaching junction",
				Notifications: []model.NotificationSpec{
					note("Rajdhani and Intercity approaching Junction B", model.NotifyWarning, model.PriorityMedium),
				},
				Mutate: func(w *state.World) {
					w.UpdateTrain(Rajdhani, func(t *model.TrainState) {
						t.Position.X = 350
						t.Status = model.Status(model.StatusApproachingJunction)
					})
					w.UpdateTrain(Intercity, func(t *model.TrainState) {
						t.Position.X = 550
						t.Status = model.Status(model.StatusApproachingJunction)
					})
				},
			},
			{
				Offset: ms(4000),
				Phase:  "Conflict detected",
				Notifications: []model.NotificationSpec{
					note("🚨 CONFLICT DETECTED: Both trains targeting Junction B", model.NotifyError, model.PriorityCritical),
				},
				Mutate: func(w *state.World) {
					w.ConflictDetected = true
					w.SetSignal("s1", model.SignalRed)
					w.SetSignal("s2", model.SignalYellow)
					w.Metrics = model.SystemMetrics{Efficiency: 76.5, Punctuality: 89.2, Safety: 99.9, Utilization: 65.1}
					w.UpdateTrain(Rajdhani, func(t *model.TrainState) {
						t.Position.X, t.SpeedKmh = 350, 0
						t.Status = model.Status(model.StatusEmergencyStop)
					})
					w.UpdateTrain(Intercity, func(t *model.TrainState) {
						t.Position.X, t.SpeedKmh = 500, 40
						t.Status = model.Status(model.StatusReducedSpeed)
					})
				},
			},
			{
				Offset: ms(6000),
				Phase:  "AI resolution decision",
				Notifications: []model.NotificationSpec{
					note("AI RESOLUTION: Rerouting Rajdhani to Track 2", model.NotifyWarning, model.PriorityHigh),
					note("Signal S1 switched to PROCEED via Track 2", model.NotifyInfo, model.PriorityMedium),
				},
				Mutate: func(w *state.World) {
					w.UpdateTrain(Rajdhani, func(t *model.TrainState) {
						t.Rerouting, t.Track, t.SpeedKmh = true, 2, 80
						t.Status = model.OnTrack(model.StatusReroutingTrack, 2)
					})
				},
			},
			{
				Offset: ms(8000),
				Phase:  "Rerouting complete",
				Notifications: []model.NotificationSpec{
					note("Rajdhani successfully switched to Track 2", model.NotifySuccess, model.PriorityMedium),
				},
				Mutate: func(w *state.World) {
					w.UpdateTrain(Rajdhani, func(t *model.TrainState) {
						t.Position = model.Position{X: 450, Y: 190}
						t.Track, t.SpeedKmh = 2, 120
						t.Status = model.OnTrack(model.StatusProceedingTrack, 2)
					})
				},
			},
			{
				Offset: ms(10000),
				Phase:  "Junction cleared",
				Notifications: []model.NotificationSpec{
					note("Intercity cleared through Junction B on Track 2", model.NotifySuccess, model.PriorityMedium),
				},
				Mutate: func(w *state.World) {
					w.SetSignal("s2", model.SignalGreen)
					w.UpdateTrain(Intercity, func(t *model.TrainState) {
						t.Position.X, t.SpeedKmh = 350, 95
						t.Status = model.Status(model.StatusProceedingClear)
					})
				},
			},
			{
				Offset: ms(12000),
				Phase:  "Conflict resolved",
				Notifications: []model.NotificationSpec{
					note("✅ CONFLICT RESOLVED: All trains proceeding normally", model.NotifySuccess, model.PriorityHigh),
				},
				Mutate: func(w *state.World) {
					w.ConflictDetected = false
					setAllSignals(w, model.SignalGreen)
					w.Metrics = model.SystemMetrics{Efficiency: 92.8, Punctuality: 96.4, Safety: 99.9, Utilization: 84.7}
					w.UpdateTrain(Rajdhani, func(t *model.TrainState) {
						t.SpeedKmh, t.Rerouting = 140, false
						t.Status = model.Status(model.StatusNormalOperations)
					})
					w.UpdateTrain(Intercity, func(t *model.TrainState) {
						t.SpeedKmh = 95
						t.Status = model.Status(model.StatusNormalOperations)
					})
				},
			},
		},
	}
}

// Emergency halts all traffic for a medical incident on Intercity and
// resumes cautiously once the patient is cleared.
func Emergency() *Scenario {
	return &Scenario{
		ID:              EmergencyID,
		Name:            "Emergency Response",
		Description:     "Priority rerouting",
		Summary:         "Emergency situation detected - All traffic halted, medical response activated, cautious operations resuming.",
		InitialLabel:    "Emergency Stop",
		ResolutionLabel: "Recovery Mode",
		Intro:           intro("Emergency scenario initiated", model.NotifyWarning, model.PriorityHigh),
		Steps: []Step{
			{
				Offset: ms(2000),
				Phase:  "Approaching platform",
				Notifications: []model.NotificationSpec{
					note("Intercity approaching Central Hub Platform 3", model.NotifyInfo, model.PriorityLow),
				},
				Mutate: func(w *state.World) {
					w.UpdateTrain(Intercity, func(t *model.TrainState) {
						t.Position.X = 450
						t.Status = model.Status(model.StatusApproachingPlatform)
					})
				},
			},
			{
				Offset: ms(4000),
				Phase:  "Medical emergency",
				Notifications: []model.NotificationSpec{
					note("🚨 MEDICAL EMERGENCY: Passenger collapse on Intercity", model.NotifyError, model.PriorityCritical),
					note("Emergency protocol activated - All signals RED", model.NotifyError, model.PriorityCritical),
				},
				Mutate: func(w *state.World) {
					w.EmergencyActive = true
					setAllSignals(w, model.SignalRed)
					w.Metrics = model.SystemMetrics{Efficiency: 58.3, Punctuality: 72.1, Safety: 99.9, Utilization: 35.2}
					w.UpdateTrain(Rajdhani, func(t *model.TrainState) {
						t.Position.X, t.SpeedKmh = 300, 0
						t.Status = model.Status(model.StatusEmergencyHold)
					})
					w.UpdateTrain(Intercity, func(t *model.TrainState) {
						t.Position.X, t.SpeedKmh = 480, 0
						t.PlatformStop, t.Emergency = true, true
						t.Status = model.Status(model.StatusMedicalEmergency)
					})
					w.UpdateTrain(Freight, func(t *model.TrainState) {
						t.Position.X, t.SpeedKmh = 200, 0
						t.Status = model.Status(model.StatusEmergencyHold)
					})
				},
			},
			{
				Offset: ms(6000),
				Phase:  "Medical dispatch",
				Notifications: []model.NotificationSpec{
					note("Emergency medical team dispatched to Platform 3", model.NotifyWarning, model.PriorityHigh),
					note("All traffic halted - Priority medical assistance", model.NotifyWarning, model.PriorityHigh),
				},
				Mutate: func(*state.World) {},
			},
			{
				Offset: ms(9000),
				Phase:  "Treatment on site",
				Notifications: []model.NotificationSpec{
					note("Medical team on-site - Patient being treated", model.NotifyInfo, model.PriorityMedium),
					note("Preparing for emergency evacuation", model.NotifyInfo, model.PriorityMedium),
				},
				Mutate: func(*state.World) {},
			},
			{
				Offset: ms(12000),
				Phase:  "Cautious departure",
				Notifications: []model.NotificationSpec{
					note("Patient stabilized - Cleared for transport", model.NotifySuccess, model.PriorityMedium),
					note("Intercity cleared for departure", model.NotifySuccess, model.PriorityMedium),
				},
				Mutate: func(w *state.World) {
					w.SetSignal("s2", model.SignalGreen)
					w.SetSignal("s3", model.SignalGreen)
					w.UpdateTrain(Intercity, func(t *model.TrainState) {
						t.SpeedKmh = 30
						t.Emergency, t.PlatformStop = false, false
						t.Status = model.Status(model.StatusCautiousDeparture)
					})
					w.UpdateTrain(Freight, func(t *model.TrainState) {
						t.SpeedKmh = 40
						t.Status = model.Status(model.StatusProceedingCaution)
					})
				},
			},
			{
				Offset: ms(15000),
				Phase:  "Emergency resolved",
				Notifications: []model.NotificationSpec{
					note("✅ EMERGENCY RESOLVED: Normal operations resumed", model.NotifySuccess, model.PriorityHigh),
				},
				Mutate: func(w *state.World) {
					w.EmergencyActive = false
					setAllSignals(w, model.SignalGreen)
					w.Metrics = model.SystemMetrics{Efficiency: 88.7, Punctuality: 91.5, Safety: 99.9, Utilization: 78.9}
					for id, speed := range map[string]float64{Rajdhani: 140, Intercity: 95, Freight: 60} {
						w.UpdateTrain(id, func(t *model.TrainState) {
							t.SpeedKmh = speed
							t.Status = model.Status(model.StatusNormalOperations)
						})
					}
				},
			},
		},
	}
}

// Optimization predicts a Platform 2 overload and redistributes the three
// trains across platforms 1..3.
func Optimization() *Scenario {
	return &Scenario{
		ID:              OptimizationID,
		Name:            "AI Optimization",
		Description:     "Learning & adapting",
		Summary:         "AI analyzing platform allocation conflicts and redistributing trains for optimal efficiency and zero conflicts.",
		InitialLabel:    "Platform Conflict",
		ResolutionLabel: "Optimized Flow",
		Intro:           intro("AI Optimization engine activated", model.NotifyInfo, model.PriorityMedium),
		Steps: []Step{
			{
				Offset: ms(2000),
				Phase:  "Platform 2 contention",
				Notifications: []model.NotificationSpec{
					note("PROBLEM: All trains scheduled for Platform 2 at 14:30", model.NotifyWarning, model.PriorityHigh),
					note("Current routes: Rajdhani→PF-2, Intercity→PF-2, Freight→PF-2", model.NotifyWarning, model.PriorityMedium),
				},
				Mutate: func(w *state.World) {
					w.UpdateTrain(Rajdhani, func(t *model.TrainState) {
						t.Position, t.Track, t.SpeedKmh = model.Position{X: 350, Y: 110}, 1, 140
						t.Status = model.AtPlatform(model.StatusHeadingToPlatform, 2)
					})
					w.UpdateTrain(Intercity, func(t *model.TrainState) {
						t.Position, t.Track, t.SpeedKmh = model.Position{X: 500, Y: 190}, 2, 95
						t.Status = model.AtPlatform(model.StatusHeadingToPlatform, 2)
					})
					w.UpdateTrain(Freight, func(t *model.TrainState) {
						t.Position, t.Track, t.SpeedKmh = model.Position{X: 300, Y: 270}, 3, 60
						t.Status = model.AtPlatform(model.StatusHeadingToPlatform, 2)
					})
				},
			},
			{
				Offset: ms(5000),
				Phase:  "Conflict prediction",
				Notifications: []model.NotificationSpec{
					note("AI CONFLICT PREDICTION: Platform 2 will be overloaded", model.NotifyError, model.PriorityHigh),
					note("CALCULATING... Optimal platform redistribution", model.NotifyInfo, model.PriorityMedium),
				},
				Mutate: func(w *state.World) {
					for id, x := range map[string]float64{Rajdhani: 420, Intercity: 450, Freight: 400} {
						w.UpdateTrain(id, func(t *model.TrainState) {
							t.Position.X = x
							t.Status = model.AtPlatform(model.StatusPlatformConflict, 2)
						})
					}
				},
			},
			{
				Offset: ms(7000),
				Phase:  "Solution found",
				Notifications: []model.NotificationSpec{
					note("✅ SOLUTION FOUND: Redistribute to avoid conflict", model.NotifySuccess, model.PriorityHigh),
					note("NEW ALLOCATION: Rajdhani→PF-1, Intercity→PF-2, Freight→PF-3", model.NotifySuccess, model.PriorityMedium),
					note("Executing real-time rerouting...", model.NotifyInfo, model.PriorityMedium),
				},
				Mutate: func(*state.World) {},
			},
			{
				Offset: ms(9000),
				Phase:  "Rerouting",
				Notifications: []model.NotificationSpec{
					note("REROUTING: Rajdhani to Platform 1 (Track 1)", model.NotifyWarning, model.PriorityMedium),
					note("REROUTING: Freight to Platform 3 (Track 3)", model.NotifyWarning, model.PriorityMedium),
					note("Intercity continues to Platform 2 (Track 2)", model.NotifyInfo, model.PriorityMedium),
				},
				Mutate: func(w *state.World) {
					w.UpdateTrain(Rajdhani, func(t *model.TrainState) {
						t.Position, t.Track, t.SpeedKmh = model.Position{X: 480, Y: 110}, 1, 120
						t.Rerouting = true
						t.Status = model.AtPlatform(model.StatusReroutedToPlatform, 1)
					})
					w.UpdateTrain(Intercity, func(t *model.TrainState) {
						t.Position, t.Track, t.SpeedKmh = model.Position{X: 480, Y: 190}, 2, 95
						t.Status = model.AtPlatform(model.StatusProceedingToPlatform, 2)
					})
					w.UpdateTrain(Freight, func(t *model.TrainState) {
						t.Position, t.Track, t.SpeedKmh = model.Position{X: 480, Y: 270}, 3, 55
						t.Rerouting = true
						t.Status = model.AtPlatform(model.StatusReroutedToPlatform, 3)
					})
				},
			},
			{
				Offset: ms(12000),
				Phase:  "Platform arrivals",
				Notifications: []model.NotificationSpec{
					note("✅ PLATFORM ALLOCATION SUCCESSFUL", model.NotifySuccess, model.PriorityHigh),
					note("Rajdhani arrived at Platform 1", model.NotifySuccess, model.PriorityLow),
					note("Intercity arrived at Platform 2", model.NotifySuccess, model.PriorityLow),
					note("Freight arrived at Platform 3", model.NotifySuccess, model.PriorityLow),
				},
				Mutate: func(w *state.World) {
					statuses := map[string]model.TrainStatus{
						Rajdhani:  model.AtPlatform(model.StatusPlatformOptimized, 1),
						Intercity: model.AtPlatform(model.StatusPlatformAsPlanned, 2),
						Freight:   model.AtPlatform(model.StatusPlatformOptimized, 3),
					}
					for id, st := range statuses {
						w.UpdateTrain(id, func(t *model.TrainState) {
							t.Position.X, t.SpeedKmh = 480, 0
							t.PlatformStop = true
							t.Status = st
						})
					}
				},
			},
			{
				Offset: ms(15000),
				Phase:  "Optimization complete",
				Notifications: []model.NotificationSpec{
					note("OPTIMIZATION COMPLETE: Zero conflicts", model.NotifySuccess, model.PriorityHigh),
					note("Result: 100% conflict avoidance achieved", model.NotifySuccess, model.PriorityMedium),
					note("Platform efficiency improved to 95.1%", model.NotifySuccess, model.PriorityLow),
				},
				Mutate: func(w *state.World) {
					w.Metrics = model.SystemMetrics{Efficiency: 97.8, Punctuality: 99.1, Safety: 99.9, Utilization: 95.1}
					departures := []struct {
						id       string
						platform int
						speed    float64
					}{
						{Rajdhani, 1, 140},
						{Intercity, 2, 95},
						{Freight, 3, 60},
					}
					for _, d := range departures {
						w.UpdateTrain(d.id, func(t *model.TrainState) {
							t.Position.X, t.SpeedKmh = 550, d.speed
							t.PlatformStop, t.Rerouting = false, false
							t.Status = model.AtPlatform(model.StatusDepartingPlatform, d.platform)
						})
					}
				},
			},
			{
				Offset: ms(18000),
				Phase:  "Learning stored",
				Notifications: []model.NotificationSpec{
					note("AI learning stored: Platform conflict prevention", model.NotifyInfo, model.PriorityLow),
				},
				Mutate: func(w *state.World) {
					home := Baseline()
					for _, id := range w.TrainOrder {
						base := home.Trains[id]
						w.UpdateTrain(id, func(t *model.TrainState) {
							t.Position, t.Track = base.Position, base.Track
							t.Status = model.Status(model.StatusNormalOperations)
						})
					}
				},
			},
		},
	}
}
