// Package kernelerr holds the flat error taxonomy shared by the scheduler,
// the cooperative executor, and the syscall facade.
//
// rxinu's src/syscall/error.rs models these as a bare enum; this package
// follows the idiomatic-Go equivalent of a flat enum of sentinel errors
// (errors.New + errors.Is), the same shape the teacher's own bitfield
// package assumes is safe to use freestanding (it already calls
// fmt.Errorf without a hosted OS underneath it).
package kernelerr

import "errors"

var (
	// ErrBadPid is returned when a ProcessId does not name a live process.
	ErrBadPid = errors.New("kernelerr: bad process id")

	// ErrTryAgain is returned when the process table has no free slot.
	ErrTryAgain = errors.New("kernelerr: process table exhausted")

	// ErrResourceNotAvailable signals an internal queue invariant was
	// violated (e.g. a pop on a queue reported non-empty moments earlier).
	ErrResourceNotAvailable = errors.New("kernelerr: resource not available")

	// ErrDuplicateId is returned by the cooperative executor when
	// spawning a TaskId that is already registered.
	ErrDuplicateId = errors.New("kernelerr: duplicate task id")

	// ErrUnknownId is returned when killing a TaskId the executor does
	// not know about.
	ErrUnknownId = errors.New("kernelerr: unknown task id")

	// ErrTaskQueueFull is returned when a ready queue has no capacity
	// left for another TaskId.
	ErrTaskQueueFull = errors.New("kernelerr: task queue full")

	// ErrOutOfMemory is returned by the frame allocator and the heap
	// when no more backing memory is available. Not named directly by
	// spec.md, but present throughout rxinu's allocator code
	// (area_frame_allocator.rs, hole_list_allocator/src/lib.rs).
	ErrOutOfMemory = errors.New("kernelerr: out of memory")

	// ErrUnsupportedMapping is returned by the mapper's unmap path when
	// the page is not mapped, or is mapped through a huge-page entry,
	// which that path does not support (spec §4.2).
	ErrUnsupportedMapping = errors.New("kernelerr: unsupported page mapping")
)
