// Command kernel is the entry point the loader transfers control to
// after the assembly trampoline sets up a stack and a long-mode CPU
// state (spec §6: "_start(boot_info_address) / kernel_main(&BootInfo)").
// Boot sequencing narrates its progress to the console exactly the way
// the teacher's KernelMain does (src/go/mazarin/kernel.go) — a string
// per stage, loud about failures, since there is nothing else watching.
package main

import (
	_ "unsafe" // for go:linkname

	"vesperkernel/internal/archx86"
	"vesperkernel/internal/bootinfo"
	"vesperkernel/internal/console"
	"vesperkernel/internal/gdt"
	"vesperkernel/internal/idt"
	"vesperkernel/internal/kconfig"
	"vesperkernel/internal/mm"
	"vesperkernel/internal/pic"
	"vesperkernel/internal/ps2"
	"vesperkernel/internal/syscall"
	"vesperkernel/internal/task/preempt"
	"vesperkernel/internal/task/process"
)

var scheduler *preempt.Scheduler
var syscalls *syscall.Table
var keyboardDecoder ps2.Decoder

// interruptTrampolines is filled in by the companion assembly file with the
// address of one small stub per vector, each of which builds an
// idt.Frame on the stack and calls idt.Dispatch. Declared here so Build
// has somewhere to read it from without idt needing to know about
// linker symbols.
//
//go:linkname interruptTrampolines interruptTrampolines
var interruptTrampolines [256]uintptr

// KernelMain is called once, on the boot CPU, with interrupts still
// disabled and no heap yet available.
//
//go:nosplit
//go:noinline
func KernelMain(bi *bootinfo.BootInfo) {
	console.Init()
	console.Puts("booting\n")

	console.Puts("building frame allocator\n")
	frameAlloc := mm.NewFrameAllocator(bi)

	console.Puts("remapping kernel address space\n")
	mm.RemapKernel(bi, frameAlloc)

	console.Puts("mapping kernel heap\n")
	heapStartPage := mm.ContainingPage(kconfig.HeapStart)
	for i := uint64(0); i < kconfig.HeapSize/kconfig.PageSize; i++ {
		mm.Map(heapStartPage+mm.Page(i), mm.Present|mm.Writable, frameAlloc)
	}
	mm.InitHeap(kconfig.HeapStart)

	console.Puts("building stack allocator\n")
	stackAlloc := mm.NewStackAllocator(heapStartPage+mm.Page(kconfig.HeapSize/kconfig.PageSize), kconfig.StackAllocatorPages)
	doubleFaultStack, ok := stackAlloc.Alloc(kconfig.DoubleFaultStackPages, mm.Writable, frameAlloc)
	if !ok {
		panic("kernel: failed to allocate double-fault stack")
	}
	ring0Stack, ok := stackAlloc.Alloc(kconfig.ProcessStackPages, mm.Writable, frameAlloc)
	if !ok {
		panic("kernel: failed to allocate ring-0 stack")
	}

	console.Puts("building GDT and TSS\n")
	gdt.Build(uint64(doubleFaultStack.Top), uint64(ring0Stack.Top))

	console.Puts("building IDT\n")
	idt.Build(interruptTrampolines, gdt.SelectorKernelCS, kconfig.DoubleFaultISTIndex)
	installExceptionHandlers()

	console.Puts("remapping PIC and programming PIT\n")
	pic.Remap()
	pic.InitPIT(kconfig.PITDivisor)
	idt.Register(idt.VectorIRQTimer, timerHandler)
	pic.Unmask(0)
	pic.Unmask(1)

	console.Puts("starting scheduler\n")
	table := process.NewTable()
	scheduler = preempt.New(table)
	syscalls = syscall.New(scheduler)

	console.Puts("enabling interrupts\n")
	archx86.EnableInterrupts()

	console.Puts("kernel ready\n")
	idleLoop()
}

func idleLoop() {
	for {
		archx86.EnableInterruptsAndHalt()
	}
}

func timerHandler(vector idt.Vector, frame *idt.Frame) {
	pic.Ack(0)
	scheduler.Tick(kconfig.TicksPerQuantum)
}

func installExceptionHandlers() {
	idt.Register(idt.VectorPageFault, pageFaultHandler)
	idt.Register(idt.VectorDoubleFault, doubleFaultHandler)
	idt.Register(idt.VectorGeneralProtect, fatalHandler("general protection fault"))
	idt.Register(idt.VectorInvalidOpcode, fatalHandler("invalid opcode"))
	idt.Register(idt.VectorIRQKeyboard, keyboardHandler)
}

// keyboardHandler is IRQ1's handler: it pulls the byte off the PS/2 data
// port and hands it to the decoder — the boundary spec §1 carves out as
// core ("only the byte the IRQ handler hands to it"). A key press is
// echoed to the console as its scan code; releases and prefix bytes
// print nothing, and nothing else consumes the decoded events.
func keyboardHandler(vector idt.Vector, frame *idt.Frame) {
	if event, ok := keyboardDecoder.Decode(ps2.ReadByte()); ok && event.Pressed {
		console.Puts("key: 0x")
		console.PutHex8(uint8(event.Code))
		console.Puts("\n")
	}
	pic.Ack(1)
}

func pageFaultHandler(vector idt.Vector, frame *idt.Frame) {
	faultAddr := archx86.ReadCR2()
	console.Puts("page fault: addr=0x")
	console.PutHex64(faultAddr)
	console.Puts(" rip=0x")
	console.PutHex64(frame.RIP)
	console.Puts(" error=0x")
	console.PutHex64(frame.ErrorCode)
	console.Puts("\n")
	haltForever()
}

// doubleFaultHandler runs on its own IST stack, so a kernel-stack
// overflow that caused the fault cannot recurse into this handler's own
// stack (spec §4.6, §8 scenario S7).
func doubleFaultHandler(vector idt.Vector, frame *idt.Frame) {
	console.Puts("double fault: rip=0x")
	console.PutHex64(frame.RIP)
	console.Puts("\n")
	qemuExit(false)
	haltForever()
}

func fatalHandler(message string) idt.Handler {
	return func(vector idt.Vector, frame *idt.Frame) {
		console.Puts("fatal: ")
		console.Puts(message)
		console.Puts(" at rip=0x")
		console.PutHex64(frame.RIP)
		console.Puts("\n")
		qemuExit(false)
		haltForever()
	}
}

func haltForever() {
	for {
		archx86.DisableInterrupts()
		archx86.Halt()
	}
}

// main exists only so `go build` accepts this package in c-archive/
// executable mode during tooling that expects one; it is never called
// on real hardware, which enters at KernelMain directly from assembly —
// the same dummy-main convention the teacher's kernel.go uses.
func main() {}
