package bitfield

import "testing"

type gdtAccessByte struct {
	Accessed   bool   `bitfield:",1"`
	ReadWrite  bool   `bitfield:",1"`
	DirConform bool   `bitfield:",1"`
	Executable bool   `bitfield:",1"`
	DescType   bool   `bitfield:",1"`
	DPL        uint32 `bitfield:",2"`
	Present    bool   `bitfield:",1"`
}

func TestPackUnpackRoundTrip(t *testing.T) {
	original := gdtAccessByte{
		ReadWrite:  true,
		Executable: true,
		DescType:   true,
		DPL:        3,
		Present:    true,
	}

	packed, err := Pack(&original, &Config{NumBits: 8})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}

	var roundTripped gdtAccessByte
	if err := Unpack(packed, &roundTripped); err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	if roundTripped != original {
		t.Fatalf("round trip mismatch: got %+v, want %+v", roundTripped, original)
	}
}

func TestPackFieldOrderAndShift(t *testing.T) {
	// DPL occupies bits 5-6; a DPL of 3 should show up as 0b1100000.
	packed, err := Pack(&gdtAccessByte{DPL: 3}, &Config{NumBits: 8})
	if err != nil {
		t.Fatalf("Pack: %v", err)
	}
	if packed != 0b0110_0000 {
		t.Fatalf("got %#x, want %#x", packed, 0b0110_0000)
	}
}

func TestPackRejectsOutOfRangeValue(t *testing.T) {
	_, err := Pack(&gdtAccessByte{DPL: 4}, &Config{NumBits: 8})
	if err == nil {
		t.Fatal("expected error for DPL value exceeding 2 bits")
	}
}

func TestPackRejectsNonStruct(t *testing.T) {
	_, err := Pack(42, nil)
	if err == nil {
		t.Fatal("expected error packing a non-struct")
	}
}
