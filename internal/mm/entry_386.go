//go:build 386

package mm

// EntryFlags mirrors entry_amd64.go without NO_EXECUTE: the 32-bit PAE-less
// page table format has no execute-disable bit (spec §4.2: "Architecture
// differences are only table depth and entry width plus the NO_EXECUTE
// bit"). Kept as uint64 even though the hardware word is 32 bits so the
// mapper's table-walk code needs no per-arch specialization beyond the
// constants in this file.
type EntryFlags uint64

const (
	Present      EntryFlags = 1 << 0
	Writable     EntryFlags = 1 << 1
	User         EntryFlags = 1 << 2
	WriteThrough EntryFlags = 1 << 3
	NoCache      EntryFlags = 1 << 4
	Accessed     EntryFlags = 1 << 5
	Dirty        EntryFlags = 1 << 6
	Huge         EntryFlags = 1 << 7
	Global       EntryFlags = 1 << 8
	// NoExecute does not exist on this format; defined as 0 so callers
	// that unconditionally OR it in in shared code stay harmless.
	NoExecute EntryFlags = 0
)

// EntryCount is the number of entries in one table level on 386.
const EntryCount = 1024

// TableLevels is the depth of the paging hierarchy: two levels, page
// directory and page table.
const TableLevels = 2

// PhysAddrMask isolates the frame-address bits of a 32-bit entry.
const PhysAddrMask = 0xffff_f000

// HugePageLevel4MiB is the single level (the page directory) at which a
// HUGE entry terminates the walk early, mapping a 4 MiB super-page.
const HugePageLevel4MiB = 1

const hugePage4MiBSize = 1 << 22
