package timeline

import (
	"sync"
	"time"
)

// FakeEventScheduler is an EventScheduler that keeps its own notion of
// simulation time. Tests and the offline replay tool call AdvanceTo / Advance
// to move time forward and run due events deterministically.
type FakeEventScheduler struct {
	runMu sync.Mutex
	mu    sync.Mutex
	now   time.Time
	queue eventQueue
}

// NewFakeEventScheduler creates a new fake event scheduler starting at the given time.
func NewFakeEventScheduler(start time.Time) *FakeEventScheduler {
	return &FakeEventScheduler{
		now:   start,
		queue: newEventQueue("fake-ev"),
	}
}

// Now returns the current fake simulation time.
func (s *FakeEventScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Schedule registers a callback to run at the specified simulation time.
func (s *FakeEventScheduler) Schedule(at time.Time, f func()) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.push(at, f)
}

// Cancel attempts to cancel a previously scheduled event.
func (s *FakeEventScheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.cancel(id)
}

// Pending reports the number of live events.
func (s *FakeEventScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.pending()
}

// NextAt returns the time of the earliest live event, if any.
func (s *FakeEventScheduler) NextAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ev := range s.queue.events {
		if !ev.cancelled {
			return ev.when, true
		}
	}
	return time.Time{}, false
}

// RunDue executes all events whose scheduled time is <= now.
func (s *FakeEventScheduler) RunDue() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	for {
		s.mu.Lock()
		ev := s.queue.pop(s.now)
		s.mu.Unlock()
		if ev == nil {
			return
		}
		if ev.f != nil {
			ev.f()
		}
	}
}

// AdvanceTo sets the fake simulation time to t and executes all due events.
// Time is kept monotonic (does not go backwards).
func (s *FakeEventScheduler) AdvanceTo(t time.Time) {
	s.mu.Lock()
	if t.Before(s.now) {
		s.mu.Unlock()
		return
	}
	s.now = t
	s.mu.Unlock()

	s.RunDue()
}

// Advance moves fake time forward by d and executes due events.
func (s *FakeEventScheduler) Advance(d time.Duration) {
	s.AdvanceTo(s.Now().Add(d))
}
