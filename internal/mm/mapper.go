package mm

import (
	"unsafe"

	"vesperkernel/internal/archx86"
	"vesperkernel/internal/kernelerr"
)

// The functions below walk a recursively-mapped page table hierarchy
// (spec §4.2), grounded on rxinu's
// arch/x86/memory/paging/mapper/bits64.rs PageMapLevel4Mapper,
// generalized here to also serve the 386 2-level case via
// TableLevels/EntryCount.
//
// No Go pointer to a table is ever held across calls — every table is
// addressed through the recursive virtual-address pattern, exactly as
// the source requires ("touching any page-table memory through these
// addresses requires the active table to contain the recursive entry",
// spec §9).

func p4Table() *PageTable {
	return (*PageTable)(unsafe.Pointer(tableAddr(TableLevels, 0, 0, 0)))
}

// MapTo maps page to frame with flags, creating intermediate tables on
// demand (spec §4.2). Fails fatally if the target leaf entry is already
// in use — this mirrors the source's assert, which treats a double-map
// as a programming error, not a recoverable condition.
func MapTo(page Page, frame Frame, flags EntryFlags, alloc *FrameAllocator) {
	p4idx, p3idx, p2idx, p1idx := tableIndices(page.StartAddr())

	p4 := p4Table()
	p3 := ensureSubTable(p4, p4idx, 3, p4idx, 0, 0, alloc)
	p2 := ensureSubTable(p3, p3idx, 2, p4idx, p3idx, 0, alloc)
	p1 := ensureSubTable(p2, p2idx, 1, p4idx, p3idx, p2idx, alloc)

	if !p1.Entries[p1idx].IsUnused() {
		panic("mm: MapTo target entry already in use")
	}
	p1.Entries[p1idx].SetFrame(frame, flags)
}

// ensureSubTable returns the sub-table one level below parent at index,
// allocating and zeroing a fresh frame for it (PRESENT|WRITABLE) if it
// doesn't exist yet. childLevel names the level of the table being
// returned (used to compute its recursive address); idx3/idx2/idx1 are
// the already-resolved indices leading to it.
func ensureSubTable(parent *PageTable, index uint64, childLevel int, idx3, idx2, idx1 uint64, alloc *FrameAllocator) *PageTable {
	if parent.Entries[index].IsUnused() {
		frame, err := alloc.Alloc()
		if err != nil {
			panic(err)
		}
		parent.Entries[index].SetFrame(frame, Writable)
		addr := tableAddr(childLevel, idx3, idx2, idx1)
		table := (*PageTable)(unsafe.Pointer(addr))
		table.Zero()
		return table
	}
	if parent.Entries[index].IsHuge() {
		panic("mm: unexpected huge entry while walking for MapTo")
	}
	addr := tableAddr(childLevel, idx3, idx2, idx1)
	return (*PageTable)(unsafe.Pointer(addr))
}

// Map allocates a fresh frame and maps page to it (spec §4.2).
func Map(page Page, flags EntryFlags, alloc *FrameAllocator) Frame {
	frame, err := alloc.Alloc()
	if err != nil {
		panic(err)
	}
	MapTo(page, frame, flags, alloc)
	return frame
}

// IdentityMap maps the page containing frame's start address to frame
// itself (spec §4.2).
func IdentityMap(frame Frame, flags EntryFlags, alloc *FrameAllocator) {
	page := Page(frame)
	MapTo(page, frame, flags, alloc)
}

// Translate walks the table hierarchy and returns the physical address
// virt maps to, or ok=false if any intermediate entry is absent
// (spec §4.2). Supports the 1 GiB and 2 MiB huge-page shortcuts on
// amd64 by reconstructing the physical address from the huge frame base
// plus the lower index bits, asserting alignment along the way.
func Translate(virt uintptr) (phys uint64, ok bool) {
	p4idx, p3idx, p2idx, p1idx := tableIndices(virt)
	offset := uint64(virt) & (PageSize - 1)

	p4 := p4Table()
	if p4.Entries[p4idx].IsUnused() {
		return 0, false
	}

	p3 := (*PageTable)(unsafe.Pointer(tableAddr(3, p4idx, 0, 0)))
	p3Entry := p3.Entries[p3idx]
	if p3Entry.IsUnused() {
		return 0, false
	}
	if p3Entry.IsHuge() {
		frame, _ := p3Entry.PointedFrame()
		base := frame.StartAddr()
		if base%hugePage1GiBSize != 0 {
			panic("mm: misaligned 1 GiB huge frame")
		}
		return base + (uint64(p2idx)<<21 | uint64(p1idx)<<12) + offset, true
	}

	p2 := (*PageTable)(unsafe.Pointer(tableAddr(2, p4idx, p3idx, 0)))
	p2Entry := p2.Entries[p2idx]
	if p2Entry.IsUnused() {
		return 0, false
	}
	if p2Entry.IsHuge() {
		frame, _ := p2Entry.PointedFrame()
		base := frame.StartAddr()
		if base%hugePage2MiBSize != 0 {
			panic("mm: misaligned 2 MiB huge frame")
		}
		return base + uint64(p1idx)<<12 + offset, true
	}

	p1 := (*PageTable)(unsafe.Pointer(tableAddr(1, p4idx, p3idx, p2idx)))
	p1Entry := p1.Entries[p1idx]
	frame, present := p1Entry.PointedFrame()
	if !present {
		return 0, false
	}
	return frame.StartAddr() + offset, true
}

// Unmap requires page to be currently mapped through a 4 KiB leaf entry,
// clears that entry, and flushes the TLB for it (spec §4.2). It returns
// kernelerr.ErrUnsupportedMapping if the page is not mapped or is mapped
// through a huge page. It does not free emptied parent tables — the same
// limitation the source carries.
func Unmap(page Page, alloc *FrameAllocator) error {
	if _, ok := Translate(page.StartAddr()); !ok {
		return kernelerr.ErrUnsupportedMapping
	}
	p4idx, p3idx, p2idx, p1idx := tableIndices(page.StartAddr())
	p3 := (*PageTable)(unsafe.Pointer(tableAddr(3, p4idx, 0, 0)))
	if p3.Entries[p3idx].IsHuge() {
		return kernelerr.ErrUnsupportedMapping
	}
	p2 := (*PageTable)(unsafe.Pointer(tableAddr(2, p4idx, p3idx, 0)))
	if p2.Entries[p2idx].IsHuge() {
		return kernelerr.ErrUnsupportedMapping
	}
	p1 := (*PageTable)(unsafe.Pointer(tableAddr(1, p4idx, p3idx, p2idx)))
	p1.Entries[p1idx].Clear()
	archx86.FlushTLBEntry(page.StartAddr())
	return nil
}
