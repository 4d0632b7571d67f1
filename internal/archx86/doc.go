// Package archx86 declares the extern surface this kernel expects a
// companion assembly file to provide, exactly the way the teacher kernel
// (iansmith-mazarin, src/go/mazarin/kernel.go) declares mmio_write,
// mmio_read, delay, bzero, and dsb as //go:linkname externs to lib.s
// rather than writing them in Go.
//
// Boot handoff, the assembly trampolines themselves, and anything that
// must execute before a Go stack exists are out of scope for this core
// (spec §1) — this package only states the contract: port I/O, control
// registers, descriptor-table loads, and flag manipulation (the
// context-switch primitive is declared in internal/task/preempt against
// the same companion file), all of which must be hand-written assembly
// because Go has no portable way to emit IN/OUT/LGDT/LIDT/CLI/STI/HLT or
// to swap a live stack pointer out from under the running goroutine.
//
// Expected companion file: arch/x86_64/lib.s (or arch/x86/lib.s on the
// 32-bit build), providing every function declared with //go:linkname in
// this package.
package archx86
