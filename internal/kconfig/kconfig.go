// Package kconfig collects the memory-layout and timing constants that the
// teacher kernel (iansmith-mazarin) keeps as named const blocks rather than
// a configuration file or flags package — there is no filesystem or
// environment to read one from before the console even exists.
package kconfig

const (
	// PageSize is the size in bytes of one physical frame / virtual page.
	PageSize = 4096

	// HeapStart is the virtual address of the kernel heap window. Picked
	// to sit in the canonical lower half just like the teacher's own
	// KERNEL_HEAP_SIZE constant reserves a fixed, architecture-known
	// window rather than discovering one dynamically.
	HeapStart = 0x0000_0800_0000_0000

	// HeapSize is the size in bytes of the kernel heap window (1 MiB,
	// per spec §6).
	HeapSize = 1024 * 1024

	// HeapAlignment is the granularity the heap allocator rounds each
	// segment's size (header included) up to before splitting.
	HeapAlignment = 16

	// StackAllocatorPages is the number of 4 KiB pages reserved,
	// immediately above the heap window, for the stack allocator.
	StackAllocatorPages = 100

	// ProcessStackPages is the number of pages (excluding the guard
	// page) carved out for each kernel-level process's stack.
	ProcessStackPages = 4

	// MaxProcs bounds the ProcessId space; PID allocation rolls over
	// and rescans once exhausted (spec §3).
	MaxProcs = 1024

	// TicksPerQuantum is how many ~2ms timer ticks elapse before the
	// preemptive scheduler reschedules (≈20ms quantum, spec §4.10).
	TicksPerQuantum = 10

	// PITDivisor programs the 8254 PIT for a ~2ms tick (spec §4.7).
	PITDivisor = 2685

	// VGABufferPhysAddr is the physical address of the legacy VGA text
	// buffer, identity-mapped writable during kernel remap (spec §4.3).
	VGABufferPhysAddr = 0xb8000

	// DoubleFaultISTIndex is the IST slot (TSS) the double-fault handler
	// runs on, so a faulting kernel stack cannot re-fault the handler
	// itself (spec §4.6).
	DoubleFaultISTIndex = 0

	// DoubleFaultStackPages is the size, in pages, of the dedicated
	// double-fault stack.
	DoubleFaultStackPages = 1

	// SyscallVector is the software interrupt vector ring 3 code may
	// trigger (spec §4.6, §6).
	SyscallVector = 0x80

	// QEMUExitPort is the I/O port the test harness writes an exit code
	// to; never touched outside test builds (spec §6/§7).
	QEMUExitPort = 0xf4
)

// RecursiveIndex is the last usable index of the top-level page table —
// the slot made to point back at the table itself (spec §3, "Recursive
// mapping").
func RecursiveIndex(entryCount int) uint16 {
	return uint16(entryCount - 1)
}
