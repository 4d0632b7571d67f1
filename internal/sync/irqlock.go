// Package sync provides the kernel's interrupt-disabling critical-section
// primitives and the scheduler-integrated counting semaphore (spec
// §4.12-§4.13). Grounded on rxinu's src/sync/irq.rs and
// src/sync/semaphore.rs; there is no stdlib "sync" package available
// freestanding (its mutex relies on the OS/runtime scheduler this kernel
// doesn't have), so this package plays that role for the rest of the
// tree the way the teacher's own from-scratch allocator plays the role
// of a hosted allocator.
package sync

import (
	"vesperkernel/internal/archx86"
	"vesperkernel/internal/pic"
)

// IrqLock guards data with a scoped, non-spinning critical section: on
// entry it disables interrupts and masks every PIC line, and on exit
// restores both the masks and whatever state interrupts were in before,
// re-enabling them only if they were enabled (spec §4.13, built on the §4.8 InterruptAPI
// disable/restore pair). Appropriate only on a single-CPU kernel — it
// does not protect against a second core touching the same data
// concurrently (spec §9, "Single-CPU simplification").
type IrqLock[T any] struct {
	data T
}

// NewIrqLock wraps value behind an IrqLock.
func NewIrqLock[T any](value T) *IrqLock[T] {
	return &IrqLock[T]{data: value}
}

// IrqGuard is the scoped token returned by Lock; it must be released with
// Unlock exactly once, restoring the interrupt and PIC-mask state sampled
// at Lock time.
type IrqGuard[T any] struct {
	lock                    *IrqLock[T]
	wasEnabled              bool
	savedMaster, savedSlave uint8
}

// Lock samples the current interrupt-enabled state, then disables
// interrupts and masks every PIC line via pic.DisableAndMaskAll (spec
// §4.8), returning a guard granting access to the data.
func (l *IrqLock[T]) Lock() *IrqGuard[T] {
	wasEnabled := archx86.InterruptsEnabled()
	savedMaster, savedSlave := pic.DisableAndMaskAll()
	return &IrqGuard[T]{lock: l, wasEnabled: wasEnabled, savedMaster: savedMaster, savedSlave: savedSlave}
}

// Get returns a pointer to the protected data. Valid only while the
// guard is held.
func (g *IrqGuard[T]) Get() *T { return &g.lock.data }

// Unlock restores the PIC masks and interrupt state sampled by Lock.
// Safe to call from a deferred statement so early returns still restore
// correctly.
func (g *IrqGuard[T]) Unlock() {
	pic.RestoreMasks(g.savedMaster, g.savedSlave)
	if g.wasEnabled {
		archx86.EnableInterrupts()
	}
}

// LockMap runs fn with exclusive, interrupt-disabled access to the data
// and returns fn's result, guaranteeing Unlock runs even on panic
// (spec §4.13's lock_map variant).
func LockMap[T any, R any](l *IrqLock[T], fn func(*T) R) R {
	g := l.Lock()
	defer g.Unlock()
	return fn(g.Get())
}
