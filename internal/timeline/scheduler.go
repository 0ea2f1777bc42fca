package timeline

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/signalsfoundry/railsim/timectrl"
)

// EventScheduler schedules callbacks to run at specific simulation times
// based on a SimClock implementation.
//
// The server drives it from a TimeController listener: every time simulation
// time advances, RunDue drains the events that became due. Callbacks for
// events sharing a timestamp run in the order they were scheduled.
type EventScheduler interface {
	// Schedule registers a callback f to run at simulation time 'at'.
	// It returns an opaque event ID that can be used to cancel the event.
	Schedule(at time.Time, f func()) (id string)

	// Cancel attempts to cancel a previously scheduled event.
	// It is a no-op if the ID is unknown or the event already ran.
	Cancel(id string)

	// Now returns the current simulation time.
	Now() time.Time

	// RunDue executes all events whose scheduled time is <= Now().
	// Concurrent calls are serialised; a callback must not call RunDue.
	RunDue()

	// Pending reports the number of scheduled, uncancelled events.
	Pending() int
}

type scheduledEvent struct {
	id        string
	when      time.Time
	f         func()
	cancelled bool
}

// eventQueue keeps events ordered by 'when' with FIFO order among equal
// timestamps. It is shared by the clock-backed and fake schedulers.
type eventQueue struct {
	counter uint64
	prefix  string
	events  []*scheduledEvent
	index   map[string]*scheduledEvent
}

func newEventQueue(prefix string) eventQueue {
	return eventQueue{
		prefix: prefix,
		index:  make(map[string]*scheduledEvent),
	}
}

func (q *eventQueue) push(at time.Time, f func()) string {
	q.counter++
	ev := &scheduledEvent{
		id:   fmt.Sprintf("%s-%d", q.prefix, q.counter),
		when: at,
		f:    f,
	}

	// First slot strictly after 'at', so equal timestamps keep insertion order.
	idx := sort.Search(len(q.events), func(i int) bool {
		return q.events[i].when.After(at)
	})
	q.events = append(q.events, nil)
	copy(q.events[idx+1:], q.events[idx:])
	q.events[idx] = ev

	q.index[ev.id] = ev
	return ev.id
}

func (q *eventQueue) cancel(id string) {
	ev, ok := q.index[id]
	if !ok {
		return
	}
	// Removal from q.events is lazy; pop skips cancelled events.
	ev.cancelled = true
	delete(q.index, id)
}

// pop removes and returns the earliest live event due at or before now.
func (q *eventQueue) pop(now time.Time) *scheduledEvent {
	for len(q.events) > 0 {
		ev := q.events[0]
		if ev.cancelled {
			q.events[0] = nil
			q.events = q.events[1:]
			continue
		}
		if ev.when.After(now) {
			return nil
		}
		q.events[0] = nil
		q.events = q.events[1:]
		delete(q.index, ev.id)
		return ev
	}
	return nil
}

func (q *eventQueue) pending() int {
	return len(q.index)
}

// eventScheduler is the SimClock-backed EventScheduler.
type eventScheduler struct {
	clock timectrl.SimClock

	runMu sync.Mutex // serialises RunDue drains
	mu    sync.Mutex
	queue eventQueue
}

// NewEventScheduler creates a new event scheduler backed by the given SimClock.
func NewEventScheduler(clock timectrl.SimClock) EventScheduler {
	return &eventScheduler{
		clock: clock,
		queue: newEventQueue("ev"),
	}
}

// Schedule registers a callback to run at the specified simulation time.
func (s *eventScheduler) Schedule(at time.Time, f func()) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.push(at, f)
}

// Cancel attempts to cancel a previously scheduled event.
func (s *eventScheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue.cancel(id)
}

// Now returns the current simulation time from the underlying clock.
func (s *eventScheduler) Now() time.Time {
	return s.clock.Now()
}

// Pending reports the number of live events.
func (s *eventScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queue.pending()
}

// RunDue executes all events whose scheduled time is <= Now().
func (s *eventScheduler) RunDue() {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	for {
		s.mu.Lock()
		ev := s.queue.pop(s.clock.Now())
		s.mu.Unlock()
		if ev == nil {
			return
		}

		// Execute outside s.mu so callbacks may Schedule / Cancel.
		if ev.f != nil {
			ev.f()
		}
	}
}
