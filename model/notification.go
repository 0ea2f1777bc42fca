package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// NotificationType classifies a log entry for display.
type NotificationType int

const (
	NotifySuccess NotificationType = iota
	NotifyWarning
	NotifyError
	NotifyInfo
)

func (t NotificationType) String() string {
	switch t {
	case NotifySuccess:
		return "success"
	case NotifyWarning:
		return "warning"
	case NotifyError:
		return "error"
	case NotifyInfo:
		return "info"
	default:
		return fmt.Sprintf("NotificationType(%d)", int(t))
	}
}

// Valid reports whether t is a known type.
func (t NotificationType) Valid() bool { return t >= NotifySuccess && t <= NotifyInfo }

// MarshalJSON encodes the type as its name.
func (t NotificationType) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

// Priority ranks a notification's urgency.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityCritical:
		return "critical"
	default:
		return fmt.Sprintf("Priority(%d)", int(p))
	}
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool { return p >= PriorityLow && p <= PriorityCritical }

// MarshalJSON encodes the priority as its name.
func (p Priority) MarshalJSON() ([]byte, error) { return json.Marshal(p.String()) }

// NotificationSpec is the payload a scenario step asks to publish. The log
// assigns the id and timestamp.
type NotificationSpec struct {
	Message  string
	Type     NotificationType
	Priority Priority
}

// Validate rejects empty messages and unknown enums.
func (n NotificationSpec) Validate() error {
	if n.Message == "" {
		return fmt.Errorf("notification message is empty")
	}
	if !n.Type.Valid() {
		return fmt.Errorf("notification %q has unknown type %d", n.Message, int(n.Type))
	}
	if !n.Priority.Valid() {
		return fmt.Errorf("notification %q has unknown priority %d", n.Message, int(n.Priority))
	}
	return nil
}

// Notification is a published log entry.
type Notification struct {
	ID        uint64           `json:"id"`
	Timestamp time.Time        `json:"timestamp"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Priority  Priority         `json:"priority"`
}

// Clock renders the HH:MM label shown in the live feed.
func (n Notification) Clock() string {
	return n.Timestamp.Format("15:04")
}
