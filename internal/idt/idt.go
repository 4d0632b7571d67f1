// Package idt builds the 256-entry interrupt descriptor table and
// dispatches CPU exceptions, PIC-remapped IRQs, and the software syscall
// vector to registered Go handlers (spec §4.6). The handler-table-plus-
// dispatch-function shape is grounded directly on the teacher's
// exceptions.go (ExceptionHandler/handleException's big switch over
// ESR_EL1 exception classes); here the switch key is the interrupt
// vector number the assembly trampoline passes in, rather than an ARM
// syndrome register field.
package idt

import (
	"unsafe"

	"vesperkernel/internal/archx86"
	"vesperkernel/internal/bitfield"
	"vesperkernel/internal/console"
	"vesperkernel/internal/kconfig"
)

const entryCount = 256

// gateAttrs is the gate-descriptor type/DPL/present byte — another true
// multi-field bitfield (4-bit gate type, 1 reserved bit, 2-bit DPL,
// present bit), packed with the same bitfield package gdt uses for its
// access byte.
type gateAttrs struct {
	GateType uint32 `bitfield:",4"`
	_zero    uint32 `bitfield:",1"`
	DPL      uint32 `bitfield:",2"`
	Present  bool   `bitfield:",1"`
}

const gateTypeInterrupt = 0xE // 64-bit interrupt gate

func packGateAttrs(a gateAttrs) uint8 {
	packed, err := bitfield.Pack(&a, &bitfield.Config{NumBits: 8})
	if err != nil {
		panic("idt: gate attrs packing failed: " + err.Error())
	}
	return uint8(packed)
}

// gateDescriptor is one 16-byte IDT gate in x86_64 wire format.
type gateDescriptor struct {
	offsetLow  uint16
	selector   uint16
	istIndex   uint8
	attrs      uint8
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

func buildGate(handler uintptr, codeSelector uint16, ist uint8, dpl uint32) gateDescriptor {
	attrs := packGateAttrs(gateAttrs{GateType: gateTypeInterrupt, DPL: dpl, Present: true})
	addr := uint64(handler)
	return gateDescriptor{
		offsetLow:  uint16(addr),
		selector:   codeSelector,
		istIndex:   ist,
		attrs:      attrs,
		offsetMid:  uint16(addr >> 16),
		offsetHigh: uint32(addr >> 32),
	}
}

// Vector names the handler slot, matching spec §4.6.
type Vector uint8

const (
	VectorDivideError      Vector = 0
	VectorDebug            Vector = 1
	VectorNMI              Vector = 2
	VectorBreakpoint       Vector = 3
	VectorOverflow         Vector = 4
	VectorBoundRange       Vector = 5
	VectorInvalidOpcode    Vector = 6
	VectorDeviceNotAvail   Vector = 7
	VectorDoubleFault      Vector = 8
	VectorInvalidTSS       Vector = 10
	VectorSegmentNotPres   Vector = 11
	VectorStackFault       Vector = 12
	VectorGeneralProtect   Vector = 13
	VectorPageFault        Vector = 14
	VectorMathFault        Vector = 16
	VectorAlignmentCheck   Vector = 17
	VectorMachineCheck     Vector = 18
	VectorSIMDException    Vector = 19

	VectorIRQTimer    Vector = 32
	VectorIRQKeyboard Vector = 33
	VectorIRQCascade  Vector = 34
	VectorIRQCOM2     Vector = 35
	VectorIRQCOM1     Vector = 36

	VectorSyscall Vector = kconfig.SyscallVector
)

// Frame is the register snapshot an assembly trampoline pushes before
// calling into Go (analogous to the teacher's ExceptionInfo{ESR,ELR,
// SPSR,FAR}, retargeted to the x86 interrupt-frame layout).
type Frame struct {
	ErrorCode uint64
	RIP       uint64
	CS        uint64
	RFLAGS    uint64
	RSP       uint64
	SS        uint64
}

// Handler is a registered Go interrupt handler.
type Handler func(vector Vector, frame *Frame)

var table [entryCount]gateDescriptor
var handlers [entryCount]Handler

// Register installs fn as the handler for vector. Called during boot
// sequencing, before interrupts are enabled.
func Register(vector Vector, fn Handler) {
	handlers[vector] = fn
}

// Build constructs every gate descriptor and loads IDTR (spec §4.6).
// codeSelector is the kernel code segment selector every gate points
// into; doubleFaultIST is the IST index the CPU switches stacks to for
// vector 8 so a kernel-stack overflow cannot recurse into the same
// faulting stack (spec §4.6, §8 invariant S7).
func Build(trampolines [entryCount]uintptr, codeSelector uint16, doubleFaultIST uint8) {
	for v := 0; v < entryCount; v++ {
		ist := uint8(0)
		dpl := uint32(0)
		if Vector(v) == VectorDoubleFault {
			ist = doubleFaultIST + 1
		}
		if Vector(v) == VectorSyscall {
			dpl = 3 // ring 3 may trigger int 0x80 (spec §4.6)
		}
		table[v] = buildGate(trampolines[v], codeSelector, ist, dpl)
	}

	reg := archx86.DescriptorTableRegister{
		Limit: uint16(entryCount*16 - 1),
		Base:  uint64(uintptr(unsafe.Pointer(&table[0]))),
	}
	archx86.LoadIDT(&reg)
}

// Dispatch is called by every assembly trampoline with the vector number
// and the pushed register frame. Unregistered vectors print diagnostic
// state and halt — an unhandled CPU exception is always fatal
// (spec §7).
func Dispatch(vector Vector, frame *Frame) {
	h := handlers[vector]
	if h == nil {
		console.Puts("unhandled interrupt vector 0x")
		console.PutHex8(uint8(vector))
		console.Puts(" at rip=0x")
		console.PutHex64(frame.RIP)
		console.Puts("\n")
		haltForever()
		return
	}
	h(vector, frame)
}

func haltForever() {
	for {
		archx86.DisableInterrupts()
		archx86.Halt()
	}
}
