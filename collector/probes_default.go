package collector

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"os"
	"runtime"
	"time"
)

// DefaultProbes is a portable EntropyProbes implementation covering what is
// available on every GOOS without cgo or platform build tags: crypto/rand
// for SystemRNG, process/runtime counters for the fast-poll OSStats names,
// and best-effort no-op buffers for the genuinely OS-specific slow-poll
// statistics (disk/network/kernel counters, hardware telemetry), which
// spec.md §1 scopes out of the core's responsibility ("Platform-specific
// entropy probes ... Their contract is defined; their implementation is
// not"). A host embedding this module on a specific OS is expected to
// supply a richer EntropyProbes; DefaultProbes exists so corerand.Start()
// succeeds out of the box (SPEC_FULL.md §C).
//
// CPURand/CPUSeed report unavailable: the RDRAND/RDSEED instruction reads
// themselves are platform/asm-specific and out of spec.md §1's scope; only
// the capability *flag* (whether the CPU supports them) is wired, in
// pool.DetectCapabilities.
type DefaultProbes struct{}

var _ EntropyProbes = DefaultProbes{}

// SystemRNG fills buf from crypto/rand, the OS cryptographic RNG.
func (DefaultProbes) SystemRNG(_ context.Context, buf []byte) error {
	_, err := rand.Read(buf)
	return err
}

// CPURand always reports unavailable in the portable default.
func (DefaultProbes) CPURand() (out [8]byte, ok bool) { return out, false }

// CPUSeed always reports unavailable in the portable default.
func (DefaultProbes) CPUSeed() (out [8]byte, ok bool) { return out, false }

// TimingJitter falls back to crypto/rand. A real timing-jitter collector
// (SP 800-90B style, sampling scheduler/clock jitter) is a platform
// collaborator per spec.md §1/§6; this keeps slow polls succeeding on any
// GOOS in the absence of one.
func (DefaultProbes) TimingJitter(_ context.Context, buf []byte) error {
	_, err := rand.Read(buf)
	return err
}

// OSStats returns a small, portable snapshot for the fast-poll names this
// package defines, and an empty buffer (not an error) for slow-poll names
// this portable implementation has no OS-specific source for.
func (DefaultProbes) OSStats(_ context.Context, name string) ([]byte, error) {
	switch name {
	case "process_thread_ids":
		var buf [16]byte
		binary.LittleEndian.PutUint64(buf[0:8], uint64(os.Getpid()))
		binary.LittleEndian.PutUint64(buf[8:16], uint64(os.Getppid()))
		return buf[:], nil
	case "cpu_time":
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(time.Now().UnixNano()))
		return buf[:], nil
	case "working_set":
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		var buf [16]byte
		binary.LittleEndian.PutUint64(buf[0:8], ms.HeapAlloc)
		binary.LittleEndian.PutUint64(buf[8:16], ms.Sys)
		return buf[:], nil
	case "memory_status":
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], ms.NumGC)
		return buf[:], nil
	case "window_ids", "clipboard_caret_cursor":
		// No portable window-system handle exists outside a GUI platform
		// collaborator; contribute nothing rather than fabricate state.
		return nil, nil
	case SlowPollStartupSource:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], uint64(time.Now().UnixNano()))
		return buf[:], nil
	default:
		// kernel_perf_stats, tcp_ip_stats, net_product_stats,
		// hardware_telemetry: genuinely OS-specific; best-effort no-op.
		return nil, nil
	}
}

// DiskStatsAvailable always reports false: disk I/O performance counters
// are an OS-specific collaborator (spec.md §1), so the portable default
// enumerates zero accessible drives.
func (DefaultProbes) DiskStatsAvailable(idx int) bool { return false }
