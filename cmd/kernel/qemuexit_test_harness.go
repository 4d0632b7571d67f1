//go:build qemutest

// This file is only linked into the integration-test boot image (built
// with -tags qemutest), the Go equivalent of rxinu's tests/*.rs binaries
// that signal pass/fail through the same side channel rather than a
// file or network socket neither exists yet (spec §6, §7).
package main

import (
	"vesperkernel/internal/archx86"
	"vesperkernel/internal/kconfig"
)

const (
	qemuExitSuccess uint8 = 0x10
	qemuExitFailure uint8 = 0x11
)

// qemuExit writes a pass/fail code to the QEMU isa-debug-exit port,
// which the test harness's QEMU invocation translates into the
// process's own exit status (spec §6 "0xf4 ... used for test harness,
// not part of production", §7 "during tests, additionally write a
// failure code to the QEMU exit port and stop").
func qemuExit(success bool) {
	code := qemuExitFailure
	if success {
		code = qemuExitSuccess
	}
	archx86.OutB(kconfig.QEMUExitPort, code)
}
