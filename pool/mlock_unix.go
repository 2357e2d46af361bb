//go:build unix

package pool

import "golang.org/x/sys/unix"

// lockMemory locks buf against being paged to swap, per spec.md §3
// ("the backing storage is locked against paging where the OS permits").
// A failure is not fatal to Init — it only means MemoryLocked is reported
// false, matching "where the OS permits" (e.g. an unprivileged process
// may be over RLIMIT_MEMLOCK).
func lockMemory(buf []byte) bool {
	if len(buf) == 0 {
		return false
	}
	return unix.Mlock(buf) == nil
}

// unlockMemory releases a prior Mlock. Best-effort: Stop still proceeds to
// scrub the buffer regardless of the outcome.
func unlockMemory(buf []byte) {
	if len(buf) == 0 {
		return
	}
	_ = unix.Munlock(buf)
}
