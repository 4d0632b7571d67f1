// Package syscall is the thin facade ring-3 code (and ring-0 callers
// that want the same contract) uses to reach the scheduler: create,
// kill, suspend, resume, yield_cpu (spec §6, §4.6). Grounded on
// mazboot/golang/main/syscall.go's SyscallXxx dispatch-table shape,
// retargeted from the teacher's mmap/brk/futex surface (meaningless
// without a hosted process model) to the scheduler operations this
// spec actually calls for. The vector-0x80 trampoline that lands here
// from ring 3 is idt's responsibility; this package is what it calls
// into once the register frame has been decoded.
package syscall

import (
	"vesperkernel/internal/task/preempt"
	"vesperkernel/internal/task/process"
)

// Table binds the syscall facade to one scheduler instance.
type Table struct {
	scheduler *preempt.Scheduler
}

// New builds a syscall facade over scheduler.
func New(scheduler *preempt.Scheduler) *Table {
	return &Table{scheduler: scheduler}
}

// Create spawns a new process (spec §6: "create(name, priority,
// entry_fn) → pid"). processRet is the trampoline address the process's
// initial stack frame returns into once entry itself returns
// (spec §4.9).
func (t *Table) Create(name string, priority uint32, entry, processRet uintptr) (process.ID, error) {
	return t.scheduler.Create(name, priority, entry, processRet)
}

// Kill terminates pid (spec §6).
func (t *Table) Kill(pid process.ID) error {
	return t.scheduler.Kill(pid)
}

// Suspend removes pid from scheduling without destroying it (spec §6).
func (t *Table) Suspend(pid process.ID) {
	t.scheduler.Suspend(pid)
}

// Resume re-admits a suspended pid to the ready queue (spec §6).
func (t *Table) Resume(pid process.ID) {
	t.scheduler.Resume(pid)
}

// YieldCPU voluntarily gives up the remainder of the current process's
// quantum (spec §6).
func (t *Table) YieldCPU() {
	t.scheduler.YieldCPU()
}
