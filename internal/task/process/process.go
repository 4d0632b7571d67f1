// Package process defines the kernel-level process record, its lifecycle
// states, the register-context save area, and the process table the
// preemptive scheduler drives (spec §3, §4.9, §4.10). Grounded on
// rxinu's src/task/process.rs and process_list.rs: a flat state enum,
// ProcessId(0) reserved for the kernel's own startup thread, and PID
// allocation that scans the table for a free slot rather than trusting a
// simple counter (so killed slots are reused).
package process

import (
	"unsafe"

	"vesperkernel/internal/kconfig"
	"vesperkernel/internal/kernelerr"
)

// ID is a process identifier. ID(0), NullProcessID, is the reserved
// "kernel's startup thread" and always exists in state Current at boot
// (spec §3).
type ID uint64

// NullProcessID represents the kernel's own startup thread.
const NullProcessID ID = 0

// State is one of the five lifecycle states a Process occupies
// (spec §3).
type State int

const (
	StateCurrent State = iota
	StateFree
	StateReady
	StateSuspended
	StateWait
)

func (s State) String() string {
	switch s {
	case StateCurrent:
		return "current"
	case StateFree:
		return "free"
	case StateReady:
		return "ready"
	case StateSuspended:
		return "suspended"
	case StateWait:
		return "wait"
	default:
		return "unknown"
	}
}

// Context is the opaque, architecture-specific callee-saved register
// save area a context switch reads and writes (spec §3, §4.9). Only
// callee-saved registers and flags are held here — caller-saved
// registers are expected to be clobbered by the switch routine itself.
type Context struct {
	RFLAGS uint64
	RBX    uint64
	R12    uint64
	R13    uint64
	R14    uint64
	R15    uint64
	RBP    uint64
	RSP    uint64
}

// Process is one kernel-level schedulable unit (spec §3). The kernel
// stack is exclusively owned by the process; Context.RSP always points
// somewhere inside it.
type Process struct {
	PID      ID
	Name     string
	Priority uint32
	State    State
	Context  Context

	// Stack is the process's kernel stack, nil for the null process
	// which never context-switches away from its own boot-time stack.
	Stack []uint64
}

// Less orders two processes for the ready-queue max-heap: higher
// priority wins (spec §3, "ReadyQueue (preemptive)"). Priority is read
// through the table at comparison time — callers must never cache it in
// a queue entry (spec §9).
func Less(a, b *Process) bool {
	return a.Priority > b.Priority // max-heap: "less" means higher priority
}

// Table maps ID to the single owned Process record; every scheduler
// structure (ready heap, semaphore wait queues) stores only IDs and
// looks the Process back up here, eliminating the cyclic-reference
// problem a direct pointer-sharing design would have (spec §9).
//
// Table holds no lock of its own, mirroring rxinu's process_list.rs: its
// caller (the preemptive scheduler) serializes access under the single
// interrupt-disabling lock that also guards the ready queue, so a
// process's state and its queue membership never observe each other
// mid-update (spec §4.10).
type Table struct {
	processes map[ID]*Process
	nextID    uint64
}

// NewTable constructs a process table seeded with the null process in
// state Current (spec §3).
func NewTable() *Table {
	t := &Table{
		processes: make(map[ID]*Process),
		nextID:    1,
	}
	t.processes[NullProcessID] = &Process{
		PID:   NullProcessID,
		Name:  "kernel",
		State: StateCurrent,
	}
	return t
}

// Create allocates a PID, builds a Process in state Suspended with a
// freshly sized kernel stack, and inserts it into the table. It does not
// enqueue the process anywhere (spec §4.10: "create ... Does not
// enqueue").
func (t *Table) Create(name string, priority uint32, entry uintptr, processRet uintptr) (ID, error) {
	var pid ID
	found := false
	for i := uint64(0); i < kconfig.MaxProcs; i++ {
		candidate := ID((t.nextID + i) % kconfig.MaxProcs)
		if candidate == NullProcessID {
			continue
		}
		if _, exists := t.processes[candidate]; !exists {
			pid = candidate
			found = true
			t.nextID = uint64(candidate) + 1
			break
		}
	}
	if !found {
		return 0, kernelerr.ErrTryAgain
	}

	stack := make([]uint64, kconfig.ProcessStackPages*kconfig.PageSize/8)
	// Pre-fill the stack so the first "return" from the context-switch
	// routine lands on entry, and entry's own return lands on
	// processRet — no separate trampoline frame is constructed here
	// (spec §4.9, §9).
	top := len(stack)
	stack[top-1] = uint64(processRet)
	stack[top-2] = uint64(entry)

	proc := &Process{
		PID:      pid,
		Name:     name,
		Priority: priority,
		State:    StateSuspended,
		Stack:    stack,
	}
	proc.Context.RSP = uint64(uintptrOfSlice(stack, top-2))
	t.processes[pid] = proc
	return pid, nil
}

// Get returns the process for pid, or BadPid if it isn't present
// (spec §7).
func (t *Table) Get(pid ID) (*Process, error) {
	proc, ok := t.processes[pid]
	if !ok {
		return nil, kernelerr.ErrBadPid
	}
	return proc, nil
}

// Remove deletes pid's slot, freeing it for reuse.
func (t *Table) Remove(pid ID) {
	delete(t.processes, pid)
}

// Range calls fn for every live process.
func (t *Table) Range(fn func(*Process)) {
	for _, p := range t.processes {
		fn(p)
	}
}

func uintptrOfSlice(s []uint64, index int) uintptr {
	if len(s) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&s[0])) + uintptr(index)*unsafe.Sizeof(s[0])
}
