// Package gdt builds the segment descriptor table and the task state
// segment (spec §4.6): NULL, kernel code/data (ring 0), user code/data
// (ring 3), and a TSS descriptor pair on 64-bit. Structurally this plays
// the same role as the teacher's exceptions.go setting VBAR_EL1 — a
// one-time table construction followed by loading a CPU register that
// points at it — but the table shape itself (segment descriptors, not an
// exception vector) comes from rxinu's x86/gdt.rs.
package gdt

import (
	"unsafe"

	"vesperkernel/internal/archx86"
	"vesperkernel/internal/bitfield"
	"vesperkernel/internal/kconfig"
)

// accessByte mirrors the Intel segment-descriptor access byte: a true
// multi-field bitfield (Present + 2-bit DPL + Type), unlike a page-table
// entry's OR-combinable flags — exactly the shape the bitfield package's
// reflect-based Pack/Unpack exists for.
type accessByte struct {
	Accessed    bool   `bitfield:",1"`
	ReadWrite   bool   `bitfield:",1"`
	DirConform  bool   `bitfield:",1"`
	Executable  bool   `bitfield:",1"`
	DescType    bool   `bitfield:",1"` // 1 = code/data, 0 = system (TSS)
	DPL         uint32 `bitfield:",2"`
	Present     bool   `bitfield:",1"`
}

func packAccessByte(a accessByte) uint8 {
	packed, err := bitfield.Pack(&a, &bitfield.Config{NumBits: 8})
	if err != nil {
		panic("gdt: access byte packing failed: " + err.Error())
	}
	return uint8(packed)
}

// flagsNibble packs the high nibble of the descriptor limit word:
// Granularity + Size(+Long on 64-bit).
type flagsNibble struct {
	_reserved uint32 `bitfield:",1"`
	Long      bool   `bitfield:",1"`
	Size32    bool   `bitfield:",1"`
	Granular  bool   `bitfield:",1"`
}

func packFlagsNibble(f flagsNibble) uint8 {
	packed, err := bitfield.Pack(&f, &bitfield.Config{NumBits: 4})
	if err != nil {
		panic("gdt: flags nibble packing failed: " + err.Error())
	}
	return uint8(packed)
}

// descriptor is one 8-byte segment descriptor in x86 wire format.
type descriptor uint64

func buildDescriptor(base uint32, limit uint32, access accessByte, flags flagsNibble) descriptor {
	a := uint64(packAccessByte(access))
	f := uint64(packFlagsNibble(flags)) & 0xf

	d := uint64(limit) & 0xffff
	d |= (uint64(base) & 0xffffff) << 16
	d |= a << 40
	d |= (uint64(limit)>>16&0xf) << 48
	d |= f << 52
	d |= (uint64(base) >> 24 & 0xff) << 56
	return descriptor(d)
}

// Selector indices into the GDT, fixed at build time (spec §4.6).
const (
	SelectorNull     = 0
	SelectorKernelCS = 1 << 3
	SelectorKernelDS = 2 << 3
	SelectorUserCS   = 3<<3 | 3 // RPL 3
	SelectorUserDS   = 4<<3 | 3
	SelectorTSS      = 5 << 3
)

const entryCount = 7 // null, kcode, kdata, ucode, udata, tss-lo, tss-hi

// Table is the in-memory GDT plus its TSS, built once at boot.
type Table struct {
	entries [entryCount]descriptor
	tss     TSS
}

// TSS holds the IST and privilege stacks this kernel actually uses — not
// per-task register contexts, which x86 task switching has never used
// since 386 days (spec §4.6, Glossary "TSS").
type TSS struct {
	reserved0     uint32
	RSP           [3]uint64 // privilege-level stacks 0, 1, 2
	reserved1     uint64
	IST           [7]uint64 // IST1..IST7: IST[0] is hardware IST1
	reserved2     uint64
	reserved3     uint16
	IOMapBaseAddr uint16
}

var active Table

// Build constructs the segment table and TSS, installs the double-fault
// IST stack, and loads GDTR/TR (spec §4.6).
func Build(doubleFaultStackTop, ring0StackTop uint64) *Table {
	active = Table{}
	active.entries[0] = 0

	dataAccess := accessByte{Accessed: false, ReadWrite: true, Executable: false, DescType: true, Present: true}
	longFlags := flagsNibble{Long: true, Granular: true}

	active.entries[1] = buildDescriptor(0, 0xfffff, accessByte{ReadWrite: true, Executable: true, DescType: true, Present: true, DPL: 0}, longFlags)
	active.entries[2] = buildDescriptor(0, 0xfffff, dataAccess, longFlags)
	active.entries[3] = buildDescriptor(0, 0xfffff, accessByte{ReadWrite: true, Executable: true, DescType: true, Present: true, DPL: 3}, longFlags)
	active.entries[4] = buildDescriptor(0, 0xfffff, accessByte{ReadWrite: true, Executable: false, DescType: true, Present: true, DPL: 3}, longFlags)

	active.tss.RSP[0] = ring0StackTop
	active.tss.IST[kconfig.DoubleFaultISTIndex] = doubleFaultStackTop

	tssBase := uint64(uintptr(unsafe.Pointer(&active.tss)))
	tssLimit := uint32(unsafe.Sizeof(active.tss) - 1)
	tssAccess := accessByte{Accessed: true, ReadWrite: false, Executable: true, DescType: false, Present: true}
	active.entries[5] = buildDescriptor(uint32(tssBase), tssLimit, tssAccess, flagsNibble{})
	active.entries[6] = descriptor(tssBase >> 32)

	reg := archx86.DescriptorTableRegister{
		Limit: uint16(entryCount*8 - 1),
		Base:  uint64(uintptr(unsafe.Pointer(&active.entries[0]))),
	}
	archx86.LoadGDT(&reg)
	archx86.ReloadSegments(SelectorKernelCS, SelectorKernelDS)
	archx86.LoadTaskRegister(SelectorTSS)
	return &active
}
