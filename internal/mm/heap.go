package mm

import (
	"unsafe"

	"vesperkernel/internal/kconfig"
	"vesperkernel/internal/kernelerr"
	ksync "vesperkernel/internal/sync"
)

// heapSegment is a doubly-linked-list node placed at the start of every
// allocated or free segment of the heap, carried over almost unchanged
// from the teacher's heap.go (heapSegment / kmalloc / kfree) — the
// split on large remainder and the bidirectional coalesce on free need
// no domain-specific change, only the fixed window address and the
// interrupt-disabling lock spec §4.5 adds. The search is first-fit.
type heapSegment struct {
	next        *heapSegment
	prev        *heapSegment
	isAllocated bool
	segmentSize uint32
}

const heapSegmentHeaderSize = unsafe.Sizeof(heapSegment{})

// Heap is a fixed-window, linked-list first-fit allocator (spec §4.5).
// alloc/dealloc run under an IrqLock so an interrupt handler invoked
// mid-allocation can never deadlock against the heap lock.
type Heap struct {
	lock *ksync.IrqLock[*heapSegment]
}

var kernelHeap *Heap

// InitHeap initializes the kernel heap exactly once, at heapStart, with
// size kconfig.HeapSize (spec §4.5: "Initialization happens exactly once
// after the kernel heap pages are mapped"). Calling it twice is a
// programming error.
func InitHeap(heapStart uintptr) {
	if kernelHeap != nil {
		panic("mm: heap already initialized")
	}

	head := (*heapSegment)(unsafe.Pointer(heapStart))
	*head = heapSegment{
		segmentSize: kconfig.HeapSize,
	}

	kernelHeap = &Heap{lock: ksync.NewIrqLock(head)}
}

// KMalloc allocates size bytes from the kernel heap, first-fit, splitting
// the chosen segment if the remainder comfortably exceeds two headers.
// Returns kernelerr.ErrOutOfMemory if no free segment fits.
func KMalloc(size uint32) (unsafe.Pointer, error) {
	return kernelHeap.alloc(size)
}

// KFree releases memory previously returned by KMalloc, coalescing with
// adjacent free neighbors in both directions.
func KFree(ptr unsafe.Pointer) {
	kernelHeap.free(ptr)
}

func (h *Heap) alloc(size uint32) (unsafe.Pointer, error) {
	g := h.lock.Lock()
	defer g.Unlock()
	head := *g.Get()

	totalSize := size + uint32(heapSegmentHeaderSize)
	if remainder := totalSize % kconfig.HeapAlignment; remainder != 0 {
		totalSize += kconfig.HeapAlignment - remainder
	}

	var best *heapSegment
	bestDiff := int64(1<<62 - 1)
	for curr := head; curr != nil; curr = curr.next {
		if curr.isAllocated {
			continue
		}
		diff := int64(curr.segmentSize) - int64(totalSize)
		if diff >= 0 && diff < bestDiff {
			best = curr
			bestDiff = diff
			break
		}
	}
	if best == nil {
		return nil, kernelerr.ErrOutOfMemory
	}

	const minSplitSize = uint32(2 * heapSegmentHeaderSize)
	if bestDiff > int64(minSplitSize) {
		newSegAddr := uintptr(unsafe.Pointer(best)) + uintptr(totalSize)
		newSeg := (*heapSegment)(unsafe.Pointer(newSegAddr))
		*newSeg = heapSegment{
			next:        best.next,
			prev:        best,
			segmentSize: best.segmentSize - totalSize,
		}
		if newSeg.next != nil {
			newSeg.next.prev = newSeg
		}
		best.next = newSeg
		best.segmentSize = totalSize
	}

	best.isAllocated = true
	return unsafe.Pointer(uintptr(unsafe.Pointer(best)) + heapSegmentHeaderSize), nil
}

func (h *Heap) free(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	g := h.lock.Lock()
	defer g.Unlock()

	seg := (*heapSegment)(unsafe.Pointer(uintptr(ptr) - heapSegmentHeaderSize))
	seg.isAllocated = false

	for seg.prev != nil && !seg.prev.isAllocated {
		prev := seg.prev
		prev.next = seg.next
		prev.segmentSize += seg.segmentSize
		if seg.next != nil {
			seg.next.prev = prev
		}
		seg = prev
	}

	for seg.next != nil && !seg.next.isAllocated {
		next := seg.next
		seg.segmentSize += next.segmentSize
		seg.next = next.next
		if next.next != nil {
			next.next.prev = seg
		}
	}
}
