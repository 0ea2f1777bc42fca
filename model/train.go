package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// StatusKind enumerates the operational states a tracked train can report.
// The set is closed; parameterised variants carry their platform, track, or
// destination in TrainStatus.
type StatusKind int

const (
	StatusMoving StatusKind = iota
	StatusExpressService
	StatusPassengerService
	StatusCargoTransport
	StatusApproachingCentralHub
	StatusPlatformService // platform_N_service
	StatusDepartingTo     // departing_to_<destination>
	StatusContinuingRoute
	StatusNormalOperations
	StatusApproachingJunction
	StatusEmergencyStop
	StatusReducedSpeed
	StatusReroutingTrack  // rerouting_track_N
	StatusProceedingTrack // proceeding_track_N
	StatusProceedingClear
	StatusApproachingPlatform
	StatusEmergencyHold
	StatusMedicalEmergency
	StatusCautiousDeparture
	StatusProceedingCaution
	StatusHeadingToPlatform    // heading_to_platform_N
	StatusPlatformConflict     // conflict_detected_pfN
	StatusReroutedToPlatform   // rerouted_to_platform_N
	StatusProceedingToPlatform // proceeding_to_platform_N
	StatusPlatformOptimized    // platform_N_optimized
	StatusPlatformAsPlanned    // platform_N_as_planned
	StatusDepartingPlatform    // departing_platform_N

	statusKindCount
)

var statusFormats = [statusKindCount]string{
	StatusMoving:                "moving",
	StatusExpressService:        "express_service",
	StatusPassengerService:      "passenger_service",
	StatusCargoTransport:        "cargo_transport",
	StatusApproachingCentralHub: "approaching_central_hub",
	StatusPlatformService:       "platform_%d_service",
	StatusDepartingTo:           "departing_to_%s",
	StatusContinuingRoute:       "continuing_route",
	StatusNormalOperations:      "normal_operations",
	StatusApproachingJunction:   "approaching_junction",
	StatusEmergencyStop:         "emergency_stop",
	StatusReducedSpeed:          "reduced_speed",
	StatusReroutingTrack:        "rerouting_track_%d",
	StatusProceedingTrack:       "proceeding_track_%d",
	StatusProceedingClear:       "proceeding_clear",
	StatusApproachingPlatform:   "approaching_platform",
	StatusEmergencyHold:         "emergency_hold",
	StatusMedicalEmergency:      "medical_emergency",
	StatusCautiousDeparture:     "cautious_departure",
	StatusProceedingCaution:     "proceeding_caution",
	StatusHeadingToPlatform:     "heading_to_platform_%d",
	StatusPlatformConflict:      "conflict_detected_pf%d",
	StatusReroutedToPlatform:    "rerouted_to_platform_%d",
	StatusProceedingToPlatform:  "proceeding_to_platform_%d",
	StatusPlatformOptimized:     "platform_%d_optimized",
	StatusPlatformAsPlanned:     "platform_%d_as_planned",
	StatusDepartingPlatform:     "departing_platform_%d",
}

// TrainStatus is a tagged variant: Kind selects the state and, for the
// parameterised kinds, Platform / Track / Destination fill in the detail.
type TrainStatus struct {
	Kind        StatusKind
	Platform    int
	Track       int
	Destination string
}

// Status constructs a parameterless status.
func Status(kind StatusKind) TrainStatus { return TrainStatus{Kind: kind} }

// AtPlatform constructs a platform-parameterised status.
func AtPlatform(kind StatusKind, platform int) TrainStatus {
	return TrainStatus{Kind: kind, Platform: platform}
}

// OnTrack constructs a track-parameterised status.
func OnTrack(kind StatusKind, track int) TrainStatus {
	return TrainStatus{Kind: kind, Track: track}
}

// DepartingTo constructs a departing_to_<destination> status.
func DepartingTo(destination string) TrainStatus {
	return TrainStatus{Kind: StatusDepartingTo, Destination: destination}
}

func (s TrainStatus) valid() bool {
	return s.Kind >= 0 && s.Kind < statusKindCount
}

// String renders the wire label, e.g. "platform_1_service".
func (s TrainStatus) String() string {
	if !s.valid() {
		return fmt.Sprintf("unknown_status_%d", int(s.Kind))
	}
	switch s.Kind {
	case StatusPlatformService, StatusHeadingToPlatform, StatusPlatformConflict,
		StatusReroutedToPlatform, StatusProceedingToPlatform, StatusPlatformOptimized,
		StatusPlatformAsPlanned, StatusDepartingPlatform:
		return fmt.Sprintf(statusFormats[s.Kind], s.Platform)
	case StatusReroutingTrack, StatusProceedingTrack:
		return fmt.Sprintf(statusFormats[s.Kind], s.Track)
	case StatusDepartingTo:
		return fmt.Sprintf(statusFormats[s.Kind], s.Destination)
	default:
		return statusFormats[s.Kind]
	}
}

// MarshalJSON encodes the status as its label.
func (s TrainStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// IsFullStop reports whether the status requires the train to be stationary.
func (s TrainStatus) IsFullStop() bool {
	switch s.Kind {
	case StatusEmergencyStop, StatusEmergencyHold, StatusMedicalEmergency:
		return true
	}
	return false
}

// IsEmergency reports whether the status belongs to the emergency family.
func (s TrainStatus) IsEmergency() bool {
	return s.IsFullStop()
}

// Position is a coordinate on the 1000x550 network map.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TrainState is the per-train slice of world state.
type TrainState struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Position     Position    `json:"position"`
	Track        int         `json:"track"`
	SpeedKmh     float64     `json:"speed"`
	Status       TrainStatus `json:"status"`
	NextStop     string      `json:"nextStop"`
	PlatformStop bool        `json:"platformStop"`
	Emergency    bool        `json:"emergency"`
	Rerouting    bool        `json:"rerouting"`
}

var (
	// ErrTrainInvariant is returned when a train violates a status/speed rule.
	ErrTrainInvariant = errors.New("train invariant violated")
)

// Validate checks the speed and emergency invariants.
func (t TrainState) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: empty train id", ErrTrainInvariant)
	}
	if !t.Status.valid() {
		return fmt.Errorf("%w: train %q has unknown status kind %d", ErrTrainInvariant, t.ID, int(t.Status.Kind))
	}
	if t.SpeedKmh < 0 {
		return fmt.Errorf("%w: train %q has negative speed %.1f", ErrTrainInvariant, t.ID, t.SpeedKmh)
	}
	if t.Status.IsFullStop() && t.SpeedKmh != 0 {
		return fmt.Errorf("%w: train %q is %s at %.1f km/h", ErrTrainInvariant, t.ID, t.Status, t.SpeedKmh)
	}
	if t.Emergency && !t.Status.IsEmergency() {
		return fmt.Errorf("%w: train %q flagged emergency while %s", ErrTrainInvariant, t.ID, t.Status)
	}
	return nil
}
