package sync

import "sync/atomic"

// ProcessID mirrors the scheduler's process identifier without importing
// the task/process package — semaphores are a sync-layer primitive that
// the scheduler depends on, not the other way around, so the dependency
// points one way via this small interface (spec §9, "process table as
// the single source of truth").
type ProcessID uint64

// SchedulerHandle is the minimal scheduler contact a Semaphore needs:
// making a waiter Ready again, and forcing the rescheduling decision that
// follows (spec §4.12). The preemptive scheduler implements this.
type SchedulerHandle interface {
	Ready(pid ProcessID)
	Resched()
	CurrentPID() ProcessID
	SetCurrentWait(pid ProcessID)
}

// Semaphore is a counting semaphore with a FIFO wait queue (spec §3,
// §4.12), grounded on rxinu's src/sync/semaphore.rs. Invariant:
// count > 0 implies the wait queue is empty.
type Semaphore struct {
	count     atomic.Int64
	mu        *IrqLock[semaphoreState]
	scheduler SchedulerHandle
}

type semaphoreState struct {
	waitQueue []ProcessID
}

// NewSemaphore constructs a semaphore with the given initial count,
// bound to scheduler for waking/blocking waiters.
func NewSemaphore(initial int64, scheduler SchedulerHandle) *Semaphore {
	s := &Semaphore{
		mu:        NewIrqLock(semaphoreState{}),
		scheduler: scheduler,
	}
	s.count.Store(initial)
	return s
}

// Count reads the current counter value.
func (s *Semaphore) Count() int64 { return s.count.Load() }

// Signal wakes up to n waiters (default 1), incrementing the counter for
// any calls that find no one waiting (spec §4.12). The wake/increment
// loop runs with interrupts disabled under the semaphore's lock; Resched
// is called once after the loop, with the lock already released, so
// repeated signals don't context-switch mid-batch.
func (s *Semaphore) Signal(n int) {
	if n <= 0 {
		n = 1
	}
	shouldResched := false
	g := s.mu.Lock()
	state := g.Get()
	for i := 0; i < n; i++ {
		if len(state.waitQueue) > 0 {
			pid := state.waitQueue[0]
			state.waitQueue = state.waitQueue[1:]
			s.scheduler.Ready(pid)
			shouldResched = true
		} else {
			s.count.Add(1)
		}
	}
	g.Unlock()
	if shouldResched {
		s.scheduler.Resched()
	}
}

// Wait decrements the counter if positive, otherwise blocks the calling
// process in state Wait until a matching Signal wakes it (spec §4.12).
func (s *Semaphore) Wait() {
	g := s.mu.Lock()
	state := g.Get()
	if s.count.Load() > 0 {
		s.count.Add(-1)
		g.Unlock()
		return
	}
	pid := s.scheduler.CurrentPID()
	state.waitQueue = append(state.waitQueue, pid)
	s.scheduler.SetCurrentWait(pid)
	g.Unlock()
	s.scheduler.Resched()
}
