package mm

import "vesperkernel/internal/kconfig"

// PageTableEntry is one slot of a PageTable: frame address in the middle
// bits, flags in the low bits (and NO_EXECUTE at bit 63 on amd64)
// (spec §3).
type PageTableEntry uint64

// IsUnused reports whether the entry has never been written (all zero).
func (e PageTableEntry) IsUnused() bool { return e == 0 }

// IsPresent reports whether the PRESENT flag is set.
func (e PageTableEntry) IsPresent() bool { return EntryFlags(e)&Present != 0 }

// IsHuge reports whether the HUGE flag is set.
func (e PageTableEntry) IsHuge() bool { return EntryFlags(e)&Huge != 0 }

// Flags returns the flag bits of the entry, with the frame-address bits
// masked out.
func (e PageTableEntry) Flags() EntryFlags {
	return EntryFlags(e) &^ EntryFlags(PhysAddrMask)
}

// PointedFrame returns the frame this entry addresses, if PRESENT.
func (e PageTableEntry) PointedFrame() (Frame, bool) {
	if !e.IsPresent() {
		return 0, false
	}
	return Frame((uint64(e) & PhysAddrMask) / PageSize), true
}

// SetFrame packs frame and flags into the entry, setting PRESENT
// implicitly if flags doesn't already carry it — callers following
// spec §4.2 ("Final entry is set to frame | flags | PRESENT") don't need
// to remember to OR it in themselves.
func (e *PageTableEntry) SetFrame(frame Frame, flags EntryFlags) {
	addr := frame.StartAddr()
	if addr&^uint64(PhysAddrMask) != 0 {
		panic("mm: frame address is not aligned to PHYS_ADDR_MASK")
	}
	*e = PageTableEntry(addr | uint64(flags|Present))
}

// Clear zeros the entry, leaving it unused.
func (e *PageTableEntry) Clear() { *e = 0 }

// PageTable is a fixed-size array of entries, EntryCount wide (spec §3).
type PageTable struct {
	Entries [EntryCount]PageTableEntry
}

// Zero clears every entry in the table.
func (t *PageTable) Zero() {
	for i := range t.Entries {
		t.Entries[i].Clear()
	}
}

// recursiveIndex is the last usable index of the top-level table — the
// slot that points back at the table itself, enabling virtual access to
// every sub-table via a known address pattern (spec §3, §9).
func recursiveIndex() uint64 { return uint64(kconfig.RecursiveIndex(EntryCount)) }

// tableIndices returns the P4, P3, P2, P1 index derived from virtual
// address virt. On 386 (2 levels) only the last two are meaningful; the
// mapper ignores the unused ones.
func tableIndices(virt uintptr) (p4, p3, p2, p1 uint64) {
	addr := uint64(virt)
	p1 = (addr >> 12) & (EntryCount - 1)
	p2 = (addr >> 21) & (EntryCount - 1)
	p3 = (addr >> 30) & (EntryCount - 1)
	p4 = (addr >> 39) & (EntryCount - 1)
	return
}

// tableAddr computes the virtual address of the sub-table reached by
// walking the P4, P3 and P2 indices passed as idx3, idx2, idx1 beneath
// the recursively-mapped top-level table, per the standard "shift
// indices into the virtual address" trick (spec §9).
//
// level selects how many index arguments are significant: 4 addresses
// P4 itself (idx3/idx2/idx1 ignored), 3 addresses a P3 table, 2 a P2
// table, 1 a P1 table.
func tableAddr(level int, idx3, idx2, idx1 uint64) uintptr {
	r := recursiveIndex()
	var addr uint64
	switch level {
	case TableLevels:
		// P4 table itself: every index is the recursive entry.
		addr = (r << 39) | (r << 30) | (r << 21) | (r << 12)
	case 3:
		addr = (r << 39) | (r << 30) | (r << 21) | (idx3 << 12)
	case 2:
		addr = (r << 39) | (r << 30) | (idx3 << 21) | (idx2 << 12)
	case 1:
		addr = (r << 39) | (idx3 << 30) | (idx2 << 21) | (idx1 << 12)
	default:
		panic("mm: invalid table level")
	}
	// Sign-extend into the canonical form expected on amd64; a no-op on
	// 386 since nonCanonicalMask there is never consulted.
	if addr&(1<<47) != 0 {
		addr |= nonCanonicalMask
	}
	return uintptr(addr)
}
