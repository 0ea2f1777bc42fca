// internal/sim/state/state.go
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/signalsfoundry/railsim/internal/logging"
	"github.com/signalsfoundry/railsim/model"
)

// ErrSchedulerRaceViolation is returned when a write arrives tagged with a
// generation older than the store's current one, i.e. a callback from a
// cancelled timeline tried to mutate the world of a newer activation.
var ErrSchedulerRaceViolation = errors.New("scheduler race violation: stale generation")

// WorldMetricsRecorder receives every snapshot the store publishes.
type WorldMetricsRecorder interface {
	ObserveWorld(Snapshot)
	IncNotifications(model.Notification)
}

// StoreOption customises Store construction.
type StoreOption func(*Store)

// WithMetricsRecorder attaches an optional recorder for world gauges.
func WithMetricsRecorder(m WorldMetricsRecorder) StoreOption {
	return func(s *Store) {
		s.metrics = m
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l logging.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Store holds the current world and the notification log. It is the only
// shared mutable resource in the simulator: the controller resets it and the
// active timeline's callbacks mutate it; everyone else reads snapshots.
type Store struct {
	// mu guards world, generation and version, and is held across log
	// appends made on behalf of a step so a reader taking View sees a step's
	// world change and its notifications together.
	mu         sync.RWMutex
	world      World
	generation uint64
	version    uint64

	notifications *NotificationLog

	subsMu  sync.Mutex
	subs    map[int]chan Update
	nextSub int

	metrics WorldMetricsRecorder
	log     logging.Logger
}

// NewStore builds a Store seeded with initial and backed by notifications.
func NewStore(initial World, notifications *NotificationLog, opts ...StoreOption) *Store {
	if notifications == nil {
		notifications = NewNotificationLog(DefaultNotificationCapacity, nil)
	}
	s := &Store{
		world:         initial.Clone(),
		notifications: notifications,
		subs:          make(map[int]chan Update),
		log:           logging.Noop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.observe(s.world.snapshot(0, 0))
	return s
}

// Generation returns the current activation generation.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generation
}

// Reset replaces trains, signals, metrics and flags with a deep copy of
// baseline, starts a new generation, and returns it. The notification log is
// left alone.
func (s *Store) Reset(baseline World) uint64 {
	s.mu.Lock()
	s.world = baseline.Clone()
	s.generation++
	s.version++
	gen := s.generation
	u := s.updateLocked()
	s.broadcast(u)
	s.mu.Unlock()

	s.observe(u.Snapshot)
	return gen
}

// Apply runs mutate on a private copy of the world and swaps it in if gen is
// still current and the result validates. notes are appended to the log in
// order under the same lock. On error the world is untouched.
func (s *Store) Apply(gen uint64, mutate func(*World), notes ...model.NotificationSpec) error {
	s.mu.Lock()
	if gen != s.generation {
		current := s.generation
		s.mu.Unlock()
		return fmt.Errorf("%w: step generation %d, store generation %d", ErrSchedulerRaceViolation, gen, current)
	}

	next := s.world.Clone()
	if mutate != nil {
		mutate(&next)
	}
	if err := next.Validate(); err != nil {
		s.mu.Unlock()
		return err
	}

	s.world = next
	s.version++
	appended := make([]model.Notification, 0, len(notes))
	for _, n := range notes {
		appended = append(appended, s.notifications.Append(n))
	}
	u := s.updateLocked()
	s.broadcast(u)
	s.mu.Unlock()

	for _, n := range appended {
		s.recordNotification(n)
	}
	s.observe(u.Snapshot)
	return nil
}

// Publish appends notes for generation gen without touching the world.
// Subscribers get an update carrying the unchanged world and the new log.
func (s *Store) Publish(gen uint64, notes ...model.NotificationSpec) error {
	s.mu.Lock()
	if gen != s.generation {
		current := s.generation
		s.mu.Unlock()
		return fmt.Errorf("%w: publish generation %d, store generation %d", ErrSchedulerRaceViolation, gen, current)
	}
	appended := make([]model.Notification, 0, len(notes))
	for _, n := range notes {
		appended = append(appended, s.notifications.Append(n))
	}
	if len(appended) > 0 {
		s.broadcast(s.updateLocked())
	}
	s.mu.Unlock()

	for _, n := range appended {
		s.recordNotification(n)
	}
	return nil
}

// Snapshot returns an immutable copy of the current world.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.world.snapshot(s.generation, s.version)
}

// Notifications returns the retained log entries, newest first.
func (s *Store) Notifications() []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.notifications.All()
}

// View returns a snapshot and the notification log taken atomically.
func (s *Store) View() (Snapshot, []model.Notification) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := s.updateLocked()
	return u.Snapshot, u.Notifications
}

// Update is one push to subscribers: the world and the notification log as
// they stood at the same instant.
type Update struct {
	Snapshot      Snapshot             `json:"snapshot"`
	Notifications []model.Notification `json:"notifications"`
}

// Newest returns the most recent notification, if any.
func (u Update) Newest() (model.Notification, bool) {
	if len(u.Notifications) == 0 {
		return model.Notification{}, false
	}
	return u.Notifications[0], true
}

// updateLocked must be called with s.mu held.
func (s *Store) updateLocked() Update {
	return Update{
		Snapshot:      s.world.snapshot(s.generation, s.version),
		Notifications: s.notifications.All(),
	}
}

// Subscribe returns a channel that receives every update published after
// the call, in publication order. A subscriber that falls behind loses the
// oldest buffered update, so it always ends up with the latest one. The
// returned func unsubscribes and closes the channel.
func (s *Store) Subscribe(buffer int) (<-chan Update, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Update, buffer)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			close(ch)
			s.subsMu.Unlock()
		})
	}
}

// broadcast runs with s.mu held so updates leave in the order they were
// made. Sends never block.
func (s *Store) broadcast(u Update) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- u:
			continue
		default:
		}
		// Full: drop the oldest and retry once.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- u:
		default:
			s.log.Debug(context.Background(), "dropped update for slow subscriber",
				logging.Uint64("version", u.Snapshot.Version))
		}
	}
}

func (s *Store) observe(snap Snapshot) {
	if s.metrics != nil {
		s.metrics.ObserveWorld(snap)
	}
}

func (s *Store) recordNotification(n model.Notification) {
	if s.metrics != nil {
		s.metrics.IncNotifications(n)
	}
}
