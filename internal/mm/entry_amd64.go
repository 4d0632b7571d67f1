//go:build amd64

package mm

// EntryFlags are the low/high bits of a PageTableEntry (spec §3). On
// amd64 the table is 4 levels deep and entries carry NO_EXECUTE in bit
// 63, the one flag the 32-bit format lacks.
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
	NoExecute    EntryFlags = 1 << 63
)

// EntryCount is the number of entries in one table level on amd64.
const EntryCount = 512

// TableLevels is the depth of the paging hierarchy: P4, P3, P2, P1.
const TableLevels = 4

// PhysAddrMask isolates the frame-address bits of an entry, excluding
// both the low flag bits and the NO_EXECUTE bit (spec §3: "a set entry
// has start_address & ~PHYS_ADDR_MASK == 0").
const PhysAddrMask = 0x000f_ffff_ffff_f000

// HugePageLevels names the table levels (counting P4 as level 4 down to
// P1 as level 1) at which a HUGE entry terminates the walk early instead
// of pointing at a sub-table: level 3 (1 GiB pages) and level 2 (2 MiB
// pages) (spec §4.2).
const (
	HugePageLevel1GiB = 3
	HugePageLevel2MiB = 2
)

const (
	hugePage1GiBSize = 1 << 30
	hugePage2MiBSize = 1 << 21
)
