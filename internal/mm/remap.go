package mm

import (
	"unsafe"

	"vesperkernel/internal/archx86"
	"vesperkernel/internal/bootinfo"
	"vesperkernel/internal/kconfig"
)

// RemapKernel builds a fresh top-level table, identity-maps the kernel
// image, the VGA buffer, and the boot-info structure into it, then
// switches CR3 to activate it and turns the old top-level table's page
// into a guard page (spec §4.3). Grounded on rxinu's
// arch/x86/memory/paging/mod.rs remap_the_kernel, simplified: this
// kernel builds the new table directly at a bump-allocated frame rather
// than through a TemporaryPage indirection, since the frame allocator
// here is already usable before remap runs.
func RemapKernel(bi *bootinfo.BootInfo, alloc *FrameAllocator) {
	newTableFrame, err := alloc.Alloc()
	if err != nil {
		panic(err)
	}
	newTable := (*PageTable)(unsafe.Pointer(uintptr(newTableFrame.StartAddr())))
	newTable.Zero()
	// The recursive entry must point at the new table itself so that,
	// the instant CR3 switches to it, every address derived by
	// tableAddr() resolves correctly (spec §9).
	newTable.Entries[recursiveIndex()].SetFrame(newTableFrame, Writable)

	withTemporaryActive(newTableFrame, func() {
		for _, section := range bi.KernelSections {
			if section.StartAddr%PageSize != 0 {
				panic("mm: kernel section is not page-aligned")
			}
			flags := Present
			if section.Writable {
				flags |= Writable
			}
			if !section.Executable {
				flags |= NoExecute
			}
			for addr := section.StartAddr; addr < section.EndAddr; addr += PageSize {
				IdentityMap(ContainingFrame(uint64(addr)), flags, alloc)
			}
		}

		IdentityMap(ContainingFrame(kconfig.VGABufferPhysAddr), Present|Writable, alloc)

		for addr := bi.StructStartAddr; addr < bi.StructEndAddr; addr += PageSize {
			IdentityMap(ContainingFrame(uint64(addr)), Present, alloc)
		}
	})

	oldTablePhys := archx86.SwitchPageTable(newTableFrame.StartAddr())

	// The old table's own frame sits inside the kernel's identity map
	// (the boot-time tables live in the kernel image, like the new
	// table's frame does not), so it is still reachable as an ordinary
	// mapped page through the table CR3 now points at — unmapping it
	// there, through the regular leaf-clear path, turns it into a guard
	// page (spec §4.3 step 5). This must go through the new table, never
	// through the recursive slot: that slot now holds the new table's
	// own self-reference, set up above, and clearing it would destroy
	// the very table RemapKernel just installed.
	oldTablePage := ContainingPage(uintptr(oldTablePhys))
	if err := Unmap(oldTablePage, alloc); err != nil {
		panic("mm: old page table frame not mapped in the new table")
	}
}

// withTemporaryActive runs fn while newTableFrame's table is reachable
// through the mapper helpers, by temporarily overwriting the currently
// active table's recursive slot to point at it, then restoring the
// original recursive entry afterward — the same "overwrite recursive
// entry, run closure, restore" trick as rxinu's TemporaryPage::with.
func withTemporaryActive(newTableFrame Frame, fn func()) {
	active := p4Table()
	saved := active.Entries[recursiveIndex()]
	active.Entries[recursiveIndex()].SetFrame(newTableFrame, Writable)
	archx86.FlushTLBEntry(tableAddr(TableLevels, 0, 0, 0))

	fn()

	active.Entries[recursiveIndex()] = saved
	archx86.FlushTLBEntry(tableAddr(TableLevels, 0, 0, 0))
}
