package timeline

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrOffsetsNotMonotonic is returned by Start when offsets decrease.
var ErrOffsetsNotMonotonic = errors.New("timeline offsets must be non-decreasing and non-negative")

// Timeline turns an ordered list of offsets into scheduled callbacks on an
// EventScheduler and lets the whole set be cancelled at once. It knows
// nothing about what the callbacks do.
type Timeline struct {
	sched EventScheduler
}

// New binds a Timeline to sched.
func New(sched EventScheduler) *Timeline {
	return &Timeline{sched: sched}
}

// Scheduler exposes the underlying event scheduler.
func (tl *Timeline) Scheduler() EventScheduler {
	return tl.sched
}

// Handle is the live, cancelable set of pending callbacks created by one
// Start call.
//
// Every callback takes mu, checks cancelled at firing time, and runs onStep
// while still holding mu. Cancel takes the same lock, so once Cancel returns
// no callback of this handle is running and none will start.
type Handle struct {
	id      string
	startAt time.Time

	mu        sync.Mutex
	cancelled bool
	eventIDs  []string
	fired     int
	last      int
	done      chan struct{}
	closeOnce sync.Once
}

// ID returns the handle's unique identifier.
func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

// StartedAt returns the simulation time the offsets are relative to.
func (h *Handle) StartedAt() time.Time {
	if h == nil {
		return time.Time{}
	}
	return h.startAt
}

// Cancelled reports whether Cancel has been called on h.
func (h *Handle) Cancelled() bool {
	if h == nil {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cancelled
}

// Fired reports how many callbacks have run.
func (h *Handle) Fired() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.fired
}

// Pending reports how many callbacks are still due to run.
func (h *Handle) Pending() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancelled {
		return 0
	}
	return len(h.eventIDs) - h.fired
}

// Done is closed when the last callback has run or the handle is cancelled.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

func (h *Handle) finish() {
	h.closeOnce.Do(func() { close(h.done) })
}

// fire is the guarded body of every scheduled callback.
func (h *Handle) fire(index int, onStep func(int)) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.cancelled || index <= h.last {
		return
	}
	h.last = index
	h.fired++
	onStep(index)
	if h.fired == len(h.eventIDs) {
		h.finish()
	}
}

// Start schedules onStep(i) at Now()+offsets[i] for every i. Offsets must be
// non-negative and non-decreasing; callbacks sharing an offset fire in list
// order. onStep must not call Cancel on its own handle.
func (tl *Timeline) Start(offsets []time.Duration, onStep func(index int)) (*Handle, error) {
	return tl.StartAt(tl.sched.Now(), offsets, onStep)
}

// StartAt is Start with offsets measured from at instead of Now. Callbacks
// of a recurring timeline re-arm from their own due time with it, so a
// clock that jumps several periods at once still fires every period.
func (tl *Timeline) StartAt(at time.Time, offsets []time.Duration, onStep func(index int)) (*Handle, error) {
	for i, off := range offsets {
		if off < 0 || (i > 0 && off < offsets[i-1]) {
			return nil, ErrOffsetsNotMonotonic
		}
	}

	h := &Handle{
		id:       uuid.NewString(),
		startAt:  at,
		eventIDs: make([]string, len(offsets)),
		last:     -1,
		done:     make(chan struct{}),
	}
	if len(offsets) == 0 {
		h.finish()
		return h, nil
	}

	// Hold the handle lock while scheduling so a concurrent RunDue cannot
	// fire a callback before eventIDs is complete.
	h.mu.Lock()
	for i, off := range offsets {
		h.eventIDs[i] = tl.sched.Schedule(h.startAt.Add(off), func() {
			h.fire(i, onStep)
		})
	}
	h.mu.Unlock()

	return h, nil
}

// Cancel prevents every not-yet-fired callback of h from running. If a
// callback is executing concurrently, Cancel waits for it to finish. Cancel
// is idempotent and accepts nil.
func (tl *Timeline) Cancel(h *Handle) {
	if h == nil {
		return
	}
	h.mu.Lock()
	if h.cancelled {
		h.mu.Unlock()
		return
	}
	h.cancelled = true
	ids := append([]string(nil), h.eventIDs...)
	h.mu.Unlock()

	for _, id := range ids {
		tl.sched.Cancel(id)
	}
	h.finish()
}
