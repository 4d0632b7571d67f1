//go:build 386

package mm

// isCanonical is trivially true on 32-bit x86: there is no non-canonical
// gap, the full 4 GiB address space is addressable.
func isCanonical(addr uint64) bool {
	return true
}
