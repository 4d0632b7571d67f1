package archx86

import "unsafe"

// Flags-register, control-register, and descriptor-table-load primitives.
// Every one of these requires an instruction Go cannot emit directly
// (PUSHF/POPF, CLI/STI, HLT, PAUSE, MOV CRn, LGDT, LIDT, LTR) and is
// therefore linked to assembly precisely like the teacher's delay/bzero/dsb
// externs.

//go:linkname readFlags readFlags
//go:nosplit
func readFlags() uint64

//go:linkname cli cli
//go:nosplit
func cli()

//go:linkname sti sti
//go:nosplit
func sti()

//go:linkname hlt hlt
//go:nosplit
func hlt()

//go:linkname pause pause
//go:nosplit
func pause()

//go:linkname readCR2 readCR2
//go:nosplit
func readCR2() uint64

//go:linkname readCR3 readCR3
//go:nosplit
func readCR3() uint64

//go:linkname writeCR3 writeCR3
//go:nosplit
func writeCR3(phys uint64)

//go:linkname flushTLBPage flushTLBPage
//go:nosplit
func flushTLBPage(virt uintptr)

//go:linkname lgdt lgdt
//go:nosplit
func lgdt(ptr unsafe.Pointer)

//go:linkname lidt lidt
//go:nosplit
func lidt(ptr unsafe.Pointer)

//go:linkname ltr ltr
//go:nosplit
func ltr(selector uint16)

//go:linkname reloadSegments reloadSegments
//go:nosplit
func reloadSegments(codeSelector, dataSelector uint16)

//go:linkname stiHlt stiHlt
//go:nosplit
func stiHlt()

const interruptFlagBit = 1 << 9 // EFLAGS.IF

// InterruptsEnabled reports whether EFLAGS.IF is currently set.
//
//go:nosplit
func InterruptsEnabled() bool {
	return readFlags()&interruptFlagBit != 0
}

// DisableInterrupts executes CLI.
//
//go:nosplit
func DisableInterrupts() { cli() }

// EnableInterrupts executes STI.
//
//go:nosplit
func EnableInterrupts() { sti() }

// Halt executes HLT, parking the CPU until the next interrupt.
//
//go:nosplit
func Halt() { hlt() }

// Pause executes PAUSE, the spin-loop hint used by IrqSpinLock.
//
//go:nosplit
func Pause() { pause() }

// ReadCR2 returns the faulting address recorded by the last page fault.
//
//go:nosplit
func ReadCR2() uint64 { return readCR2() }

// ActivePageTablePhysAddr returns the physical address in CR3 — the
// currently active top-level page table.
//
//go:nosplit
func ActivePageTablePhysAddr() uint64 { return readCR3() }

// SwitchPageTable writes a new physical address into CR3, returning the
// previous value so the caller can construct a guard page from it
// (spec §4.3 step 5).
//
//go:nosplit
func SwitchPageTable(phys uint64) (previous uint64) {
	previous = readCR3()
	writeCR3(phys)
	return previous
}

// FlushTLBEntry invalidates the single TLB entry for virt (INVLPG).
//
//go:nosplit
func FlushTLBEntry(virt uintptr) { flushTLBPage(virt) }

// DescriptorTableRegister is the 10-byte (16-bit limit + 64-bit base)
// operand loaded by LGDT/LIDT.
type DescriptorTableRegister struct {
	Limit uint16
	Base  uint64
}

// LoadGDT executes LGDT with the given descriptor table register value.
//
//go:nosplit
func LoadGDT(r *DescriptorTableRegister) {
	lgdt(unsafe.Pointer(r))
}

// LoadIDT executes LIDT with the given descriptor table register value.
//
//go:nosplit
func LoadIDT(r *DescriptorTableRegister) {
	lidt(unsafe.Pointer(r))
}

// LoadTaskRegister executes LTR, activating the TSS named by selector.
//
//go:nosplit
func LoadTaskRegister(selector uint16) { ltr(selector) }

// ReloadSegments reloads CS via a far return/jump trampoline and the
// data segment registers (DS/ES/SS) with dataSelector — the one
// operation LGDT alone cannot perform, since CS can only change through
// a control-transfer instruction.
//
//go:nosplit
func ReloadSegments(codeSelector, dataSelector uint16) {
	reloadSegments(codeSelector, dataSelector)
}

// EnableInterruptsAndHalt executes STI immediately followed by HLT as a
// single uninterruptible instruction pair (STI delays IF's effect until
// after the next instruction retires). This closes the "signal arrives
// between the idle check and HLT" race that a separate EnableInterrupts
// then Halt would leave open (spec §4.11).
//
//go:nosplit
func EnableInterruptsAndHalt() { stiHlt() }
