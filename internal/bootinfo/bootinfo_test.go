package bootinfo

import "testing"

func TestUsableRegionsFiltersByType(t *testing.T) {
	bi := &BootInfo{
		MemoryMap: []MemoryRegion{
			{StartFrame: 0, EndFrame: 10, Type: RegionInUse},
			{StartFrame: 10, EndFrame: 20, Type: RegionUsable},
			{StartFrame: 20, EndFrame: 21, Type: RegionReserved},
			{StartFrame: 21, EndFrame: 40, Type: RegionUsable},
		},
	}

	usable := bi.UsableRegions()
	if len(usable) != 2 {
		t.Fatalf("got %d usable regions, want 2", len(usable))
	}
	if usable[0].StartFrame != 10 || usable[1].StartFrame != 21 {
		t.Fatalf("unexpected regions: %+v", usable)
	}
}

func TestFrameCount(t *testing.T) {
	r := MemoryRegion{StartFrame: 5, EndFrame: 15}
	if got := r.FrameCount(); got != 10 {
		t.Fatalf("got %d, want 10", got)
	}

	empty := MemoryRegion{StartFrame: 5, EndFrame: 5}
	if got := empty.FrameCount(); got != 0 {
		t.Fatalf("got %d, want 0 for empty region", got)
	}
}

func TestRegionTypeString(t *testing.T) {
	cases := map[RegionType]string{
		RegionUsable:   "usable",
		RegionInUse:    "in-use",
		RegionReserved: "reserved",
	}
	for rt, want := range cases {
		if got := rt.String(); got != want {
			t.Fatalf("RegionType(%d).String() = %q, want %q", rt, got, want)
		}
	}
}
