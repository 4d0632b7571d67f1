// Package mm implements the kernel's physical frame allocator, virtual
// memory mapper, kernel remap, stack allocator, and heap (spec §4.1-§4.5).
//
// The bump-style frame allocator is grounded on two sources at once: the
// teacher's own page.go (pageInit/allocPage walk a free list built once at
// boot and never attempt to reclaim kernel pages) and rxinu's
// area_frame_allocator.rs (region-scanning cursor, deallocate left
// unimplemented). Where they agree — allocate-only, no free path — this
// package follows both.
package mm

import (
	"vesperkernel/internal/bootinfo"
	"vesperkernel/internal/kernelerr"
)

// Frame identifies a physical 4 KiB page by frame number (spec §3).
// Frames are plain values: trivially copyable, non-owning.
type Frame uint64

// StartAddr returns the physical byte address this frame begins at.
func (f Frame) StartAddr() uint64 { return uint64(f) * PageSize }

// ContainingFrame returns the frame that physical address addr falls in.
func ContainingFrame(addr uint64) Frame { return Frame(addr / PageSize) }

// FrameAllocator hands out frames by scanning the usable regions of the
// boot memory map in order, advancing a cursor within the current region
// and moving to the next when it's exhausted (spec §4.1).
//
// Frames are never reclaimed: Dealloc panics, as deallocation is
// unimplemented in the source this was modeled on (spec §9).
type FrameAllocator struct {
	regions      []bootinfo.MemoryRegion
	regionIdx    int
	nextFrame    uint64 // next candidate frame within regions[regionIdx]
}

// NewFrameAllocator builds an allocator over the usable regions of bi, in
// the order the boot memory map lists them.
func NewFrameAllocator(bi *bootinfo.BootInfo) *FrameAllocator {
	usable := bi.UsableRegions()
	fa := &FrameAllocator{regions: usable}
	if len(usable) > 0 {
		fa.nextFrame = usable[0].StartFrame
	}
	return fa
}

// Alloc returns the next unallocated frame, or kernelerr.ErrOutOfMemory
// once every usable region has been exhausted (spec §4.1: "Returns None
// when no usable region remains").
func (fa *FrameAllocator) Alloc() (frame Frame, err error) {
	for fa.regionIdx < len(fa.regions) {
		region := fa.regions[fa.regionIdx]
		if fa.nextFrame < region.EndFrame {
			frame = Frame(fa.nextFrame)
			fa.nextFrame++
			return frame, nil
		}
		fa.regionIdx++
		if fa.regionIdx < len(fa.regions) {
			fa.nextFrame = fa.regions[fa.regionIdx].StartFrame
		}
	}
	return 0, kernelerr.ErrOutOfMemory
}

// Dealloc is a fatal error: frame deallocation is not implemented (spec
// §4.1, §9). The leak is harmless for a kernel whose early allocations
// are page tables, a small heap, and per-process stacks.
func (fa *FrameAllocator) Dealloc(Frame) {
	panic("mm: frame deallocation is not implemented")
}
