package state

import (
	"sync"
	"time"

	"github.com/signalsfoundry/railsim/model"
)

// DefaultNotificationCapacity is how many entries the live feed retains.
const DefaultNotificationCapacity = 5

// NotificationLog is a bounded, newest-first append log. Entries beyond the
// capacity are discarded on append; there is no other removal.
type NotificationLog struct {
	mu       sync.Mutex
	capacity int
	now      func() time.Time
	nextID   uint64
	entries  []model.Notification // newest first
}

// NewNotificationLog builds a log with the given capacity (<=0 selects the
// default) and clock (nil selects time.Now).
func NewNotificationLog(capacity int, now func() time.Time) *NotificationLog {
	if capacity <= 0 {
		capacity = DefaultNotificationCapacity
	}
	if now == nil {
		now = time.Now
	}
	return &NotificationLog{
		capacity: capacity,
		now:      now,
		entries:  make([]model.Notification, 0, capacity),
	}
}

// Append stamps spec with the next id and the current time, prepends it, and
// truncates to capacity.
func (l *NotificationLog) Append(spec model.NotificationSpec) model.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	n := model.Notification{
		ID:        l.nextID,
		Timestamp: l.now(),
		Message:   spec.Message,
		Type:      spec.Type,
		Priority:  spec.Priority,
	}

	keep := len(l.entries)
	if keep > l.capacity-1 {
		keep = l.capacity - 1
	}
	entries := make([]model.Notification, 0, l.capacity)
	entries = append(entries, n)
	entries = append(entries, l.entries[:keep]...)
	l.entries = entries
	return n
}

// All returns the retained entries, newest first.
func (l *NotificationLog) All() []model.Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Notification(nil), l.entries...)
}

// Len reports how many entries are retained.
func (l *NotificationLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// LastID returns the id most recently assigned, or 0.
func (l *NotificationLog) LastID() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.nextID
}
