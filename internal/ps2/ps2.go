// Package ps2 decodes PS/2 keyboard scan codes arriving on port 0x60
// (spec §6). The source this spec was distilled from carried multiple
// partial scan-code decoders (set 1 and set 2); spec §9 resolves that by
// assuming a single set-1 decoder with optional extended-prefix state,
// which is what this package implements.
package ps2

import "vesperkernel/internal/archx86"

const (
	dataPort       = 0x60
	controllerPort = 0x64

	extendedPrefix = 0xE0
	releaseBit     = 0x80
)

// KeyEvent is one decoded key transition.
type KeyEvent struct {
	Code     Key
	Pressed  bool
	Extended bool
}

// Key names a physical key by its set-1 scan code (the make code,
// prefix stripped).
type Key uint8

// A representative subset of set-1 make codes; extending the table is
// purely mechanical and left to whichever driver needs the rest.
const (
	KeyEscape Key = 0x01
	Key1      Key = 0x02
	KeyQ      Key = 0x10
	KeyA      Key = 0x1E
	KeyEnter  Key = 0x1C
	KeySpace  Key = 0x39
	KeyLShift Key = 0x2A
	KeyRShift Key = 0x36
	KeyLCtrl  Key = 0x1D
	KeyLAlt   Key = 0x38
)

// Decoder holds the one bit of state set-1 decoding needs across bytes:
// whether the previous byte was the 0xE0 extended-scan-code prefix.
type Decoder struct {
	pendingExtended bool
}

// ReadByte pulls one byte from the PS/2 data port, for the keyboard IRQ
// handler to call on every IRQ1 (spec §6, §4.6 "1: keyboard").
func ReadByte() uint8 {
	return archx86.InB(dataPort)
}

// Decode feeds one scan-code byte through the decoder, returning a
// KeyEvent once a full (possibly prefixed) code has been consumed.
// ok is false while swallowing a 0xE0 prefix byte, waiting for the
// byte it precedes.
func (d *Decoder) Decode(b uint8) (event KeyEvent, ok bool) {
	if b == extendedPrefix {
		d.pendingExtended = true
		return KeyEvent{}, false
	}

	pressed := b&releaseBit == 0
	code := Key(b &^ releaseBit)
	extended := d.pendingExtended
	d.pendingExtended = false

	return KeyEvent{Code: code, Pressed: pressed, Extended: extended}, true
}
