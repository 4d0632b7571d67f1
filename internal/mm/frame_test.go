package mm

import (
	"testing"

	"vesperkernel/internal/bootinfo"
)

func testBootInfo() *bootinfo.BootInfo {
	return &bootinfo.BootInfo{
		MemoryMap: []bootinfo.MemoryRegion{
			{StartFrame: 0, EndFrame: 4, Type: bootinfo.RegionInUse},
			{StartFrame: 4, EndFrame: 8, Type: bootinfo.RegionUsable},
			{StartFrame: 8, EndFrame: 9, Type: bootinfo.RegionReserved},
			{StartFrame: 9, EndFrame: 12, Type: bootinfo.RegionUsable},
		},
	}
}

func TestFrameAllocatorAdvancesWithinRegion(t *testing.T) {
	fa := NewFrameAllocator(testBootInfo())

	for i := uint64(4); i < 8; i++ {
		f, err := fa.Alloc()
		if err != nil {
			t.Fatalf("expected frame %d to be available", i)
		}
		if uint64(f) != i {
			t.Fatalf("got frame %d, want %d", f, i)
		}
	}
}

func TestFrameAllocatorSkipsToNextRegion(t *testing.T) {
	fa := NewFrameAllocator(testBootInfo())
	// Drain the first usable region (frames 4..7).
	for i := 0; i < 4; i++ {
		if _, err := fa.Alloc(); err != nil {
			t.Fatalf("unexpected exhaustion draining first region")
		}
	}

	f, err := fa.Alloc()
	if err != nil {
		t.Fatal("expected allocator to move into the second usable region")
	}
	if uint64(f) != 9 {
		t.Fatalf("got frame %d, want 9 (first frame of second usable region)", f)
	}
}

func TestFrameAllocatorExhaustion(t *testing.T) {
	fa := NewFrameAllocator(testBootInfo())
	count := 0
	for {
		if _, err := fa.Alloc(); err != nil {
			break
		}
		count++
		if count > 100 {
			t.Fatal("allocator never reported exhaustion")
		}
	}
	if count != 7 {
		t.Fatalf("got %d total frames, want 7 (4 + 3 usable)", count)
	}
}

func TestFrameAllocatorDeallocPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected Dealloc to panic")
		}
	}()
	fa := NewFrameAllocator(testBootInfo())
	fa.Dealloc(Frame(4))
}

func TestFrameStartAddrAndContainingFrame(t *testing.T) {
	f := Frame(3)
	if f.StartAddr() != 3*PageSize {
		t.Fatalf("got %d, want %d", f.StartAddr(), 3*PageSize)
	}
	if ContainingFrame(3*PageSize+10) != f {
		t.Fatalf("ContainingFrame should floor to the frame boundary")
	}
}
