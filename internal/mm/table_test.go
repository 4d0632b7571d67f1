//go:build amd64

package mm

import "testing"

func TestTableIndicesRoundTrip(t *testing.T) {
	// A canonical address built from known indices should decompose back
	// to exactly those indices (spec §4.2's "shifting indices into the
	// virtual address" trick, inverted).
	const p4, p3, p2, p1 = 5, 10, 20, 100
	virt := uintptr(p4)<<39 | uintptr(p3)<<30 | uintptr(p2)<<21 | uintptr(p1)<<12

	gotP4, gotP3, gotP2, gotP1 := tableIndices(virt)
	if gotP4 != p4 || gotP3 != p3 || gotP2 != p2 || gotP1 != p1 {
		t.Fatalf("got (%d,%d,%d,%d), want (%d,%d,%d,%d)", gotP4, gotP3, gotP2, gotP1, p4, p3, p2, p1)
	}
}

func TestRecursiveIndexIsLastEntry(t *testing.T) {
	if recursiveIndex() != EntryCount-1 {
		t.Fatalf("got %d, want %d", recursiveIndex(), EntryCount-1)
	}
}

func TestPageTableEntrySetFrameAndPointedFrame(t *testing.T) {
	var e PageTableEntry
	e.SetFrame(Frame(7), Writable)

	if !e.IsPresent() {
		t.Fatal("SetFrame should imply PRESENT")
	}
	frame, ok := e.PointedFrame()
	if !ok || frame != 7 {
		t.Fatalf("got (%d, %v), want (7, true)", frame, ok)
	}
	if e.Flags()&Writable == 0 {
		t.Fatal("expected WRITABLE flag to survive packing")
	}
}

func TestPageTableEntryUnusedByDefault(t *testing.T) {
	var e PageTableEntry
	if !e.IsUnused() {
		t.Fatal("zero-value entry should be unused")
	}
	if _, ok := e.PointedFrame(); ok {
		t.Fatal("unused entry must not report a pointed frame")
	}
}
