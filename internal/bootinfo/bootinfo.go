// Package bootinfo describes the boot-handoff structure the loader passes
// to KernelMain (spec §6): a memory map, the recursively-mapped top-level
// table's virtual address, and the address range the structure itself
// occupies. The teacher's ATAG parser (src/go/mazarin/page.go, atagMem /
// atagCore) plays the identical role on Raspberry Pi — a flat, versioned
// tag list handed to the kernel before any heap exists — generalized here
// to the multiboot2-ish shape spec.md assumes.
package bootinfo

// RegionType classifies one entry of the memory map.
type RegionType int

const (
	// RegionUsable frames may be claimed by the frame allocator.
	RegionUsable RegionType = iota
	// RegionInUse frames are already occupied (kernel image, boot
	// structures, reclaimable bootloader data).
	RegionInUse
	// RegionReserved frames must never be allocated (MMIO holes, ACPI
	// tables the firmware still owns).
	RegionReserved
)

func (t RegionType) String() string {
	switch t {
	case RegionUsable:
		return "usable"
	case RegionInUse:
		return "in-use"
	case RegionReserved:
		return "reserved"
	default:
		return "unknown"
	}
}

// MemoryRegion is one contiguous run of frames sharing a RegionType.
// StartFrame/EndFrame are frame numbers, not byte addresses (spec §3,
// "Frame").
type MemoryRegion struct {
	StartFrame uint64
	EndFrame   uint64 // exclusive
	Type       RegionType
}

// FrameCount reports how many frames this region covers.
func (r MemoryRegion) FrameCount() uint64 {
	if r.EndFrame <= r.StartFrame {
		return 0
	}
	return r.EndFrame - r.StartFrame
}

// KernelSection describes one allocated ELF section of the kernel image,
// the unit kernel-remap identity-maps frame by frame (spec §4.3 step 1).
// Sourced from the multiboot2 ELF-sections tag, which the loader is
// expected to pass through unchanged.
type KernelSection struct {
	StartAddr uintptr
	EndAddr   uintptr // exclusive
	Writable  bool
	Executable bool
}

// BootInfo is the parsed boot handoff (spec §6). RecursiveTableVirtAddr is
// the virtual address of the top-level page table's recursive-mapping
// window, already in place when the loader hands off — kernel-remap (§4.3)
// builds a fresh table, but the early frame allocator and the remap code
// both need to read the one the loader built first.
type BootInfo struct {
	MemoryMap []MemoryRegion

	KernelSections []KernelSection

	RecursiveTableVirtAddr uintptr

	// StructStartAddr/StructEndAddr bound the bytes BootInfo itself
	// occupies, so kernel-remap can identity-map them read-only before
	// this struct becomes unreachable (spec §4.3 step 3).
	StructStartAddr uintptr
	StructEndAddr   uintptr
}

// UsableRegions returns the subset of the memory map the frame allocator
// is permitted to draw frames from, in map order — the frame allocator
// never reorders regions (spec §4.1: "first usable memory region that
// still has capacity").
func (b *BootInfo) UsableRegions() []MemoryRegion {
	out := make([]MemoryRegion, 0, len(b.MemoryMap))
	for _, r := range b.MemoryMap {
		if r.Type == RegionUsable {
			out = append(out, r)
		}
	}
	return out
}
