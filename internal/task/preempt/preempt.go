// Package preempt implements the lower scheduling layer: a priority
// max-heap ready queue with aging, driving kernel-level processes with
// their own stacks (spec §4.10). Grounded on rxinu's
// src/task/scheduler/preemptive.rs — the Preemptive struct's shape
// (current_pid atomic, proc_table + ready_list behind one lock, a ticks
// counter) and resched's six-step body are carried over near verbatim,
// translated from a BinaryHeap<ProcessRef> (ordering read through an
// Arc<RwLock<Process>>) to Go's container/heap over plain ProcessIds
// compared by looking priority up in the table — spec §9's "ordering
// reads priority through the table rather than caching it in queue
// entries" invariant, which a Go container/heap of by-value priorities
// would silently violate.
package preempt

import (
	"container/heap"
	"sync/atomic"
	_ "unsafe" // for go:linkname

	"vesperkernel/internal/archx86"
	ksync "vesperkernel/internal/sync"
	"vesperkernel/internal/task/process"
)

// readyHeap is a container/heap.Interface over process IDs, ordered by
// priority read live from the table (never cached).
type readyHeap struct {
	ids   []process.ID
	table *process.Table
	seq   map[process.ID]int64 // insertion sequence, for FIFO tie-break
	next  int64
}

// schedState is everything the scheduler's single interrupt-disabling
// lock protects together: the process table and the ready heap. Holding
// one lock over both, rather than one each, is what lets Resched pop a
// process, read and bump every remaining process's priority, and push
// the previous process back on without another actor observing a
// half-updated table or queue (spec §4.10).
type schedState struct {
	table *process.Table
	ready *readyHeap
}

func (h *readyHeap) Len() int { return len(h.ids) }

func (h *readyHeap) Less(i, j int) bool {
	pi, _ := h.table.Get(h.ids[i])
	pj, _ := h.table.Get(h.ids[j])
	if pi == nil || pj == nil {
		return false
	}
	if pi.Priority != pj.Priority {
		return pi.Priority > pj.Priority
	}
	return h.seq[h.ids[i]] < h.seq[h.ids[j]]
}

func (h *readyHeap) Swap(i, j int) { h.ids[i], h.ids[j] = h.ids[j], h.ids[i] }

func (h *readyHeap) Push(x any) {
	id := x.(process.ID)
	h.ids = append(h.ids, id)
	h.seq[id] = h.next
	h.next++
}

func (h *readyHeap) Pop() any {
	n := len(h.ids)
	id := h.ids[n-1]
	h.ids = h.ids[:n-1]
	delete(h.seq, id)
	return id
}

func (h *readyHeap) remove(id process.ID) bool {
	for i, candidate := range h.ids {
		if candidate == id {
			heap.Remove(h, i)
			return true
		}
	}
	return false
}

func (h *readyHeap) contains(id process.ID) bool {
	for _, candidate := range h.ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// ContextSwitch is the assembly-backed primitive saving prev's
// callee-saved registers and stack pointer, then loading next's
// (spec §4.9). Declared here rather than archx86 because its signature
// is process-table-shaped, but it is implemented in the same companion
// assembly file.
//
//go:linkname contextSwitch contextSwitch
//go:nosplit
func contextSwitch(prev, next *process.Context)

// Scheduler is the preemptive, priority-based scheduler (spec §4.10).
type Scheduler struct {
	currentPID atomic.Uint64
	ticks      atomic.Uint64
	inner      *ksync.IrqSpinLock[schedState]
}

// New constructs a scheduler whose current process is the null process
// (spec §3: "ProcessId(0) ... always exists in state Current at boot").
func New(table *process.Table) *Scheduler {
	rh := &readyHeap{table: table, seq: make(map[process.ID]int64)}
	heap.Init(rh)
	s := &Scheduler{inner: ksync.NewIrqSpinLock(schedState{table: table, ready: rh})}
	s.currentPID.Store(uint64(process.NullProcessID))
	return s
}

// CurrentPID implements sync.SchedulerHandle.
func (s *Scheduler) CurrentPID() ksync.ProcessID {
	return ksync.ProcessID(s.currentPID.Load())
}

// SetCurrentWait implements sync.SchedulerHandle: mark pid's process
// Wait, used by Semaphore.Wait, which then calls Resched itself.
func (s *Scheduler) SetCurrentWait(pid ksync.ProcessID) {
	g := s.inner.Lock()
	proc, err := g.Get().table.Get(process.ID(pid))
	g.Unlock()
	if err != nil {
		return
	}
	proc.State = process.StateWait
}

// Create allocates a PID and a kernel stack but does not enqueue the
// process (spec §4.10).
func (s *Scheduler) Create(name string, priority uint32, entry, processRet uintptr) (process.ID, error) {
	g := s.inner.Lock()
	defer g.Unlock()
	return g.Get().table.Create(name, priority, entry, processRet)
}

// Ready marks pid Ready and pushes it onto the ready heap (spec §4.10).
// Implements sync.SchedulerHandle.Ready via the ksync.ProcessID alias.
func (s *Scheduler) Ready(pid ksync.ProcessID) { s.ready(process.ID(pid)) }

func (s *Scheduler) ready(pid process.ID) {
	g := s.inner.Lock()
	defer g.Unlock()
	state := g.Get()
	proc, err := state.table.Get(pid)
	if err != nil {
		return
	}
	proc.State = process.StateReady
	heap.Push(state.ready, pid)
}

// Suspend removes pid from the ready queue if present and marks it
// Suspended (spec §4.10).
func (s *Scheduler) Suspend(pid process.ID) {
	g := s.inner.Lock()
	defer g.Unlock()
	state := g.Get()
	proc, err := state.table.Get(pid)
	if err != nil {
		return
	}
	state.ready.remove(pid)
	proc.State = process.StateSuspended
}

// Resume is equivalent to Ready (spec §4.10).
func (s *Scheduler) Resume(pid process.ID) { s.ready(pid) }

// Kill deallocates pid's stack and marks it Free. Killing the current
// process forces a reschedule; killing a Ready process also removes it
// from the queue; killing a Waiting process is a design error and
// panics (spec §4.10, §9).
func (s *Scheduler) Kill(pid process.ID) error {
	g := s.inner.Lock()
	state := g.Get()
	proc, err := state.table.Get(pid)
	if err != nil {
		g.Unlock()
		return err
	}

	switch proc.State {
	case process.StateCurrent:
		// Left in the table: Resched removes a Free previous process
		// itself and needs its Context for the switch away from it.
		proc.State = process.StateFree
		proc.Stack = nil
		g.Unlock()
		s.Resched()
		return nil
	case process.StateFree:
		// already gone
	case process.StateReady:
		state.ready.remove(pid)
		proc.State = process.StateFree
		proc.Stack = nil
		state.table.Remove(pid)
	case process.StateSuspended:
		proc.State = process.StateFree
		proc.Stack = nil
		state.table.Remove(pid)
	case process.StateWait:
		g.Unlock()
		panic("preempt: kill of a waiting process is unsupported")
	}
	g.Unlock()
	return nil
}

// YieldCPU calls Resched (spec §4.10).
func (s *Scheduler) YieldCPU() { s.Resched() }

// Tick increments the tick counter; every TicksPerQuantum ticks it
// resets and reschedules. Must run with interrupts already disabled
// from IRQ entry (spec §4.10).
func (s *Scheduler) Tick(ticksPerQuantum uint64) {
	n := s.ticks.Add(1)
	if n >= ticksPerQuantum {
		s.ticks.Store(0)
		s.Resched()
	}
}

// Resched is the scheduler's core decision point (spec §4.10):
//  1. disable interrupts for the whole routine,
//  2. pop the highest-priority Ready process (return if none),
//  3. age every remaining Ready process's priority by 1,
//  4. re-push/remove/leave the previously-current process per its state,
//  5. update currentPID,
//  6. context switch — returns only once this process is rescheduled in.
func (s *Scheduler) Resched() {
	wasEnabled := archx86.InterruptsEnabled()
	archx86.DisableInterrupts()
	defer func() {
		if wasEnabled {
			archx86.EnableInterrupts()
		}
	}()

	g := s.inner.Lock()
	state := g.Get()
	rh := state.ready
	if rh.Len() == 0 {
		g.Unlock()
		return
	}
	nextID := heap.Pop(rh).(process.ID)

	for _, id := range rh.ids {
		if proc, err := state.table.Get(id); err == nil {
			proc.Priority++
		}
	}

	prevID := process.ID(s.currentPID.Load())
	prevProc, err := state.table.Get(prevID)
	if err == nil {
		switch prevProc.State {
		case process.StateCurrent, process.StateReady:
			prevProc.State = process.StateReady
			heap.Push(rh, prevID)
		case process.StateFree:
			state.table.Remove(prevID)
		default:
			// Suspended/Wait: leave it where it is.
		}
	}

	nextProc, nextErr := state.table.Get(nextID)
	g.Unlock()
	if nextErr != nil {
		return
	}
	nextProc.State = process.StateCurrent
	s.currentPID.Store(uint64(nextID))

	if prevProc != nil {
		contextSwitch(&prevProc.Context, &nextProc.Context)
	}
}

// GetProcess returns the process record for pid (spec §8 invariant 4).
func (s *Scheduler) GetProcess(pid process.ID) (*process.Process, error) {
	g := s.inner.Lock()
	defer g.Unlock()
	return g.Get().table.Get(pid)
}
