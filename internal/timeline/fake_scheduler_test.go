package timeline

import (
	"testing"
	"time"
)

func TestFakeEventScheduler_BasicScheduling(t *testing.T) {
	start := time.Unix(0, 0)
	sched := NewFakeEventScheduler(start)

	var executionOrder []string
	t1 := start.Add(10 * time.Second)

	sched.Schedule(t1, func() {
		executionOrder = append(executionOrder, "e1")
	})

	sched.RunDue()
	if len(executionOrder) != 0 {
		t.Fatalf("expected no events executed before time advance, got %d", len(executionOrder))
	}

	sched.AdvanceTo(t1)
	if len(executionOrder) != 1 || executionOrder[0] != "e1" {
		t.Fatalf("expected execution order [e1], got %v", executionOrder)
	}
}

func TestFakeEventScheduler_Cancellation(t *testing.T) {
	start := time.Unix(0, 0)
	sched := NewFakeEventScheduler(start)

	var counter int
	t1 := start.Add(10 * time.Second)
	id := sched.Schedule(t1, func() { counter++ })

	sched.Cancel(id)

	sched.AdvanceTo(t1)
	if counter != 0 {
		t.Fatalf("expected cancelled event to not run, counter=%d", counter)
	}
}

func TestFakeEventScheduler_MonotonicTime(t *testing.T) {
	start := time.Unix(0, 0)
	sched := NewFakeEventScheduler(start)

	t1 := start.Add(10 * time.Second)
	sched.AdvanceTo(t1)
	sched.AdvanceTo(start.Add(-5 * time.Second))

	if now := sched.Now(); !now.Equal(t1) {
		t.Fatalf("expected time to remain t1 after backwards AdvanceTo, got %v", now)
	}
}

func TestFakeEventScheduler_NextAtSkipsCancelled(t *testing.T) {
	start := time.Unix(0, 0)
	sched := NewFakeEventScheduler(start)

	first := sched.Schedule(start.Add(time.Second), func() {})
	sched.Schedule(start.Add(3*time.Second), func() {})
	sched.Cancel(first)

	at, ok := sched.NextAt()
	if !ok || !at.Equal(start.Add(3*time.Second)) {
		t.Fatalf("NextAt() = %v, %v; want %v", at, ok, start.Add(3*time.Second))
	}
}

func TestFakeEventScheduler_Advance(t *testing.T) {
	start := time.Unix(0, 0)
	sched := NewFakeEventScheduler(start)

	var counter int
	sched.Schedule(start.Add(2*time.Second), func() { counter++ })

	sched.Advance(time.Second)
	if counter != 0 {
		t.Fatalf("event fired early")
	}
	sched.Advance(time.Second)
	if counter != 1 {
		t.Fatalf("expected event after Advance, counter=%d", counter)
	}
}

func TestFakeEventScheduler_Reentrancy(t *testing.T) {
	start := time.Unix(0, 0)
	sched := NewFakeEventScheduler(start)

	var counter int
	t1 := start.Add(10 * time.Second)
	t2 := start.Add(20 * time.Second)

	sched.Schedule(t1, func() {
		counter++
		sched.Schedule(t2, func() { counter++ })
	})

	sched.AdvanceTo(t1)
	if counter != 1 {
		t.Fatalf("expected counter=1 after first event, got %d", counter)
	}

	sched.AdvanceTo(t2)
	if counter != 2 {
		t.Fatalf("expected counter=2 after nested event, got %d", counter)
	}
}
