package mm

// StackAllocator carves stacks out of a reserved virtual-address range,
// immediately above the heap window (spec §4.4, §6). Each stack is
// sizeInPages+1 consecutive pages: the first left unmapped as a guard
// page, the rest mapped PRESENT|WRITABLE|NO_EXECUTE.
type StackAllocator struct {
	rangeStart Page
	rangeEnd   Page // exclusive
}

// NewStackAllocator reserves [start, start+pages) for stack carving.
func NewStackAllocator(start Page, pages uint64) *StackAllocator {
	return &StackAllocator{rangeStart: start, rangeEnd: start + Page(pages)}
}

// Stack is the grows-down address pair a stack allocation returns:
// Bottom is the guard-adjacent low end, Top is one page past the last
// mapped page — the initial stack pointer value (spec §4.4).
type Stack struct {
	Top    uintptr
	Bottom uintptr
}

// Alloc carves sizeInPages+1 pages (one guard, the rest mapped) from the
// reserved range. Returns ok=false if the range is exhausted.
func (sa *StackAllocator) Alloc(sizeInPages uint64, flags EntryFlags, alloc *FrameAllocator) (Stack, bool) {
	needed := Page(sizeInPages + 1)
	if sa.rangeStart+needed > sa.rangeEnd {
		return Stack{}, false
	}

	guard := sa.rangeStart
	firstMapped := guard + 1
	lastMapped := guard + needed - 1
	sa.rangeStart += needed

	for p := firstMapped; p <= lastMapped; p++ {
		Map(p, flags|Writable|NoExecute, alloc)
	}

	return Stack{
		Top:    lastMapped.StartAddr() + PageSize,
		Bottom: firstMapped.StartAddr(),
	}, true
}
