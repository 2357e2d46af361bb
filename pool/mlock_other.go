//go:build !unix

package pool

// lockMemory is a no-op on platforms where this module has no locking
// primitive wired in (spec.md §3: "where the OS permits"). MemoryLocked is
// always reported false here.
func lockMemory(buf []byte) bool {
	return false
}

// unlockMemory is a no-op counterpart to lockMemory.
func unlockMemory(buf []byte) {}
