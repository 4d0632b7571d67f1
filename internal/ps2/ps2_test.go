package ps2

import "testing"

func TestDecodeSimpleMakeCode(t *testing.T) {
	var d Decoder
	event, ok := d.Decode(0x1E) // A, pressed
	if !ok {
		t.Fatal("expected a complete event from a plain make code")
	}
	if event.Code != KeyA || !event.Pressed || event.Extended {
		t.Fatalf("got %+v, want {A, pressed, not extended}", event)
	}
}

func TestDecodeBreakCode(t *testing.T) {
	var d Decoder
	event, ok := d.Decode(0x1E | releaseBit)
	if !ok {
		t.Fatal("expected a complete event from a break code")
	}
	if event.Code != KeyA || event.Pressed {
		t.Fatalf("got %+v, want {A, released}", event)
	}
}

func TestDecodeExtendedPrefixIsSwallowed(t *testing.T) {
	var d Decoder
	_, ok := d.Decode(extendedPrefix)
	if ok {
		t.Fatal("a bare 0xE0 prefix byte must not yield an event yet")
	}
}

func TestDecodeExtendedMakeCode(t *testing.T) {
	var d Decoder
	if _, ok := d.Decode(extendedPrefix); ok {
		t.Fatal("prefix byte should not complete an event")
	}
	event, ok := d.Decode(0x1C) // e.g. keypad Enter as E0 1C
	if !ok {
		t.Fatal("expected a complete event after prefix + code")
	}
	if !event.Extended {
		t.Fatal("expected Extended to be true for a code following 0xE0")
	}
	if event.Code != KeyEnter || !event.Pressed {
		t.Fatalf("got %+v, want {Enter, pressed, extended}", event)
	}
}

func TestDecodeExtendedFlagDoesNotPersistPastOneCode(t *testing.T) {
	var d Decoder
	d.Decode(extendedPrefix)
	d.Decode(0x1C)
	event, ok := d.Decode(0x1E)
	if !ok {
		t.Fatal("expected a complete event")
	}
	if event.Extended {
		t.Fatal("the extended flag must not leak into the next, unprefixed code")
	}
}
