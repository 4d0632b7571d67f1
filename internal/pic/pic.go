// Package pic drives the legacy 8259 PIC pair and the 8254 PIT
// (spec §4.7), grounded on rxinu's arch/x86/device/pic.rs init sequence
// and rxinu's PIT programming (spec §4.7's divisor/mode numbers come
// straight from the source, not invented here).
package pic

import "vesperkernel/internal/archx86"

const (
	masterCommand = 0x20
	masterData    = 0x21
	slaveCommand  = 0xA0
	slaveData     = 0xA1

	icw1Init     = 0x10
	icw1ICW4Need = 0x01
	icw4_8086    = 0x01

	pitChannel0 = 0x40
	pitCommand  = 0x43
	pitMode3    = 0x36 // channel 0, lobyte/hibyte, mode 3 (square wave)
)

// MasterOffset/SlaveOffset are the interrupt-vector bases the PIC is
// remapped to, matching idt's VectorIRQ* constants (spec §4.6: "slots
// 32–47 are PIC-remapped IRQs").
const (
	MasterOffset = 32
	SlaveOffset  = 40
)

var savedMasterMask, savedSlaveMask uint8

// Remap reprograms both PICs to raise IRQs 0-7 on vectors 32-39 and
// IRQs 8-15 on vectors 40-47, instead of the BIOS default (which
// collides with CPU exception vectors 8-15). The wait-port writes
// between ICW steps give the slow 8259 silicon time to settle
// (spec §4.7).
func Remap() {
	savedMasterMask = archx86.InB(masterData)
	savedSlaveMask = archx86.InB(slaveData)

	archx86.OutB(masterCommand, icw1Init|icw1ICW4Need)
	archx86.IOWait()
	archx86.OutB(slaveCommand, icw1Init|icw1ICW4Need)
	archx86.IOWait()

	archx86.OutB(masterData, MasterOffset)
	archx86.IOWait()
	archx86.OutB(slaveData, SlaveOffset)
	archx86.IOWait()

	archx86.OutB(masterData, 4) // slave attached to IRQ2
	archx86.IOWait()
	archx86.OutB(slaveData, 2) // cascade identity
	archx86.IOWait()

	archx86.OutB(masterData, icw4_8086)
	archx86.IOWait()
	archx86.OutB(slaveData, icw4_8086)
	archx86.IOWait()

	archx86.OutB(masterData, savedMasterMask)
	archx86.OutB(slaveData, savedSlaveMask)
}

// Ack acknowledges an IRQ on irqLine (0-15). Slave-owned lines (8-15)
// must ack both controllers (spec §4.7).
func Ack(irqLine uint8) {
	if irqLine >= 8 {
		archx86.OutB(slaveCommand, 0x20)
	}
	archx86.OutB(masterCommand, 0x20)
}

// Mask disables irqLine at the controller level.
func Mask(irqLine uint8) {
	port, bit := maskPort(irqLine)
	archx86.OutB(port, archx86.InB(port)|bit)
}

// Unmask enables irqLine at the controller level.
func Unmask(irqLine uint8) {
	port, bit := maskPort(irqLine)
	archx86.OutB(port, archx86.InB(port)&^bit)
}

func maskPort(irqLine uint8) (port uint16, bit uint8) {
	if irqLine < 8 {
		return masterData, 1 << irqLine
	}
	return slaveData, 1 << (irqLine - 8)
}

// DisableAndMaskAll disables CPU interrupts and masks every PIC line,
// returning the previous mask bytes so the caller can reinstall them
// later (spec §4.8 InterruptAPI "disable"). Grounded on rxinu's
// arch/x86_64/interrupts/mod.rs disable(), which this mirrors: CLI first,
// then save and blank both controllers' mask registers, so a handler
// already in flight on another line cannot fire again while the
// lock-holder is mid-critical-section.
func DisableAndMaskAll() (savedMaster, savedSlave uint8) {
	archx86.DisableInterrupts()
	savedMaster = archx86.InB(masterData)
	savedSlave = archx86.InB(slaveData)
	archx86.OutB(masterData, 0xff)
	archx86.OutB(slaveData, 0xff)
	return savedMaster, savedSlave
}

// RestoreMasks reinstalls mask bytes previously returned by
// DisableAndMaskAll (spec §4.8 InterruptAPI "restore"). It does not
// itself re-enable CPU interrupts — the caller decides that, the same
// way IrqLock only restores the IF state it actually sampled rather than
// unconditionally enabling like rxinu's restore() does.
func RestoreMasks(savedMaster, savedSlave uint8) {
	archx86.OutB(masterData, savedMaster)
	archx86.OutB(slaveData, savedSlave)
}

// InitPIT programs channel 0 for mode 3 (square wave) with the given
// 16-bit divisor, so the timer fires at 1193182/divisor Hz — divisor
// 2685 gives the ~2 ms tick spec §6 specifies.
func InitPIT(divisor uint16) {
	archx86.OutB(pitCommand, pitMode3)
	archx86.OutB(pitChannel0, uint8(divisor&0xff))
	archx86.OutB(pitChannel0, uint8(divisor>>8))
}
