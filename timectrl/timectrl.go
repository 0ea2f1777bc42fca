package timectrl

import (
	"context"
	"slices"
	"sync"
	"time"
)

// SimClock is the clock abstraction the scheduler and controller depend on,
// so tests can drive simulation time without sleeping.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
	// After returns a channel that receives the simulation time once d has
	// elapsed in simulation time.
	After(d time.Duration) <-chan time.Time
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances simulation time one Tick per wall-clock Tick.
	RealTime Mode = iota
	// Accelerated advances Tick*Speedup of simulation time per wall-clock Tick.
	Accelerated
)

func (m Mode) String() string {
	switch m {
	case RealTime:
		return "realtime"
	case Accelerated:
		return "accelerated"
	default:
		return "unknown"
	}
}

// ParseMode maps "realtime" / "accelerated" onto a Mode, defaulting to RealTime.
func ParseMode(s string) Mode {
	if s == "accelerated" {
		return Accelerated
	}
	return RealTime
}

type waiter struct {
	at time.Time
	ch chan time.Time
}

// TimeController drives simulation time and notifies registered listeners
// after every advance. It implements SimClock.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode
	// Speedup multiplies Tick in Accelerated mode; values < 1 are treated as 1.
	Speedup int

	currentTime time.Time
	listeners   []func(time.Time)
	waiters     []waiter
}

// NewTimeController constructs a controller positioned at start.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		Speedup:     10,
		currentTime: start,
	}
}

// Now returns the current simulation time.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// After returns a channel that fires once simulation time reaches Now()+d.
func (tc *TimeController) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	tc.mu.Lock()
	defer tc.mu.Unlock()
	at := tc.currentTime.Add(d)
	if d <= 0 {
		ch <- tc.currentTime
		return ch
	}
	tc.waiters = append(tc.waiters, waiter{at: at, ch: ch})
	return ch
}

// AddListener registers a callback invoked after every advance. Listeners run
// on the goroutine that advances time, in registration order.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	if fn == nil {
		return
	}
	tc.mu.Lock()
	tc.listeners = append(tc.listeners, fn)
	tc.mu.Unlock()
}

// SetTime jumps simulation time to t, which must not be earlier than Now().
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	if t.Before(tc.currentTime) {
		tc.mu.Unlock()
		return
	}
	tc.currentTime = t
	tc.mu.Unlock()
	tc.notify(t)
}

// Advance moves simulation time forward by d and notifies listeners.
func (tc *TimeController) Advance(d time.Duration) time.Time {
	if d < 0 {
		d = 0
	}
	tc.mu.Lock()
	tc.currentTime = tc.currentTime.Add(d)
	now := tc.currentTime
	tc.mu.Unlock()
	tc.notify(now)
	return now
}

func (tc *TimeController) notify(now time.Time) {
	tc.mu.Lock()
	listeners := slices.Clone(tc.listeners)
	remaining := tc.waiters[:0]
	var due []waiter
	for _, w := range tc.waiters {
		if !w.at.After(now) {
			due = append(due, w)
			continue
		}
		remaining = append(remaining, w)
	}
	tc.waiters = remaining
	tc.mu.Unlock()

	for _, w := range due {
		w.ch <- now
	}
	for _, fn := range listeners {
		fn(now)
	}
}

// step is the amount of simulation time covered by one wall-clock tick.
func (tc *TimeController) step() time.Duration {
	if tc.Mode == Accelerated {
		factor := tc.Speedup
		if factor < 1 {
			factor = 1
		}
		return tc.Tick * time.Duration(factor)
	}
	return tc.Tick
}

// Start advances time on a ticker in a separate goroutine until ctx is done
// or, when duration > 0, that much simulation time has elapsed. The returned
// channel is closed when the loop exits.
func (tc *TimeController) Start(ctx context.Context, duration time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)

		elapsed := time.Duration(0)
		step := tc.step()

		ticker := time.NewTicker(tc.Tick)
		defer ticker.Stop()

		for {
			if duration > 0 && elapsed >= duration {
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			tc.Advance(step)
			elapsed += step
		}
	}()
	return done
}
