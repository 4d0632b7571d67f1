package sync

import (
	"sync/atomic"

	"vesperkernel/internal/archx86"
	"vesperkernel/internal/pic"
)

// IrqSpinLock adds a compare-and-swap spinloop on top of IrqLock's
// interrupt-disabling, PIC-masking critical section, for data that IRQ
// context and regular code may contend over concurrently (spec §4.13,
// §4.8). The spinloop executes the PAUSE instruction between attempts,
// the same hint rxinu's IrqSpinLock::obtain_lock uses.
type IrqSpinLock[T any] struct {
	locked atomic.Bool
	data   T
}

// NewIrqSpinLock wraps value behind an IrqSpinLock.
func NewIrqSpinLock[T any](value T) *IrqSpinLock[T] {
	return &IrqSpinLock[T]{data: value}
}

// IrqSpinGuard is the scoped token returned by Lock/TryLock.
type IrqSpinGuard[T any] struct {
	lock                    *IrqSpinLock[T]
	wasEnabled              bool
	savedMaster, savedSlave uint8
}

// Lock disables interrupts and masks every PIC line via
// pic.DisableAndMaskAll (spec §4.8), then spins on the lock bit with
// PAUSE between attempts until it is acquired.
func (l *IrqSpinLock[T]) Lock() *IrqSpinGuard[T] {
	wasEnabled := archx86.InterruptsEnabled()
	savedMaster, savedSlave := pic.DisableAndMaskAll()
	for !l.locked.CompareAndSwap(false, true) {
		archx86.Pause()
	}
	return &IrqSpinGuard[T]{lock: l, wasEnabled: wasEnabled, savedMaster: savedMaster, savedSlave: savedSlave}
}

// TryLock attempts to acquire the lock without spinning, returning
// ok=false immediately if it is already held.
func (l *IrqSpinLock[T]) TryLock() (guard *IrqSpinGuard[T], ok bool) {
	wasEnabled := archx86.InterruptsEnabled()
	savedMaster, savedSlave := pic.DisableAndMaskAll()
	if !l.locked.CompareAndSwap(false, true) {
		pic.RestoreMasks(savedMaster, savedSlave)
		if wasEnabled {
			archx86.EnableInterrupts()
		}
		return nil, false
	}
	return &IrqSpinGuard[T]{lock: l, wasEnabled: wasEnabled, savedMaster: savedMaster, savedSlave: savedSlave}, true
}

// Get returns a pointer to the protected data.
func (g *IrqSpinGuard[T]) Get() *T { return &g.lock.data }

// Unlock releases the spin bit and restores the sampled PIC masks and
// interrupt state.
func (g *IrqSpinGuard[T]) Unlock() {
	g.lock.locked.Store(false)
	pic.RestoreMasks(g.savedMaster, g.savedSlave)
	if g.wasEnabled {
		archx86.EnableInterrupts()
	}
}
