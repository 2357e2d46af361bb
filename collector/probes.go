// Package collector orchestrates fast and slow entropy polls against a
// set of EntropyProbes and feeds the results into a pool.Pool, per
// spec.md §4.2.
package collector

import "context"

// EntropyProbes is the external interface spec.md §6 defines for platform
// entropy sources. The Collector treats every probe's output as an opaque
// buffer to add to the pool; it does not interpret source-specific layout.
//
// Implementations are expected to be cheap enough for SystemRNG and
// TimingJitter to run on every fast/slow poll respectively. OSStats is
// invoked by both polls: the FastPollSources names on every fast poll,
// and the startup, disk and SlowPollSources names during a slow poll.
type EntropyProbes interface {
	// SystemRNG fills buf from the OS cryptographic RNG. A failure here is
	// fatal to a fast poll (spec.md §4.2/§7).
	SystemRNG(ctx context.Context, buf []byte) error

	// CPURand returns up to 8 bytes from an x86 RDRAND-style instruction,
	// or ok=false if unavailable on this host.
	CPURand() (out [8]byte, ok bool)

	// CPUSeed returns up to 8 bytes from an x86 RDSEED-style instruction,
	// or ok=false if unavailable on this host.
	CPUSeed() (out [8]byte, ok bool)

	// TimingJitter fills buf with SP 800-90B-style timing-jitter output. A
	// failure here is fatal to a slow poll (spec.md §4.2/§7 — the Collector
	// is the only true entropy consumer of this source).
	TimingJitter(ctx context.Context, buf []byte) error

	// OSStats returns a named, opaque snapshot (process/thread identifiers,
	// window-system state, memory status, disk/network/kernel counters,
	// hardware telemetry, ...). A failure for any individual name is
	// non-fatal and the probe is skipped (spec.md §4.2/§7), unless strict
	// mode escalates it.
	OSStats(ctx context.Context, name string) ([]byte, error)

	// DiskStatsAvailable reports whether disk index idx is accessible, so
	// the slow poll can iterate "every accessible drive index starting at
	// 0 until unavailable" (spec.md §4.2).
	DiskStatsAvailable(idx int) bool
}

// FastPollSources names the OSStats snapshots a fast poll adds, per
// spec.md §4.2. Order does not matter for correctness (pool XOR-
// accumulation is commutative) but is kept stable for log readability.
var FastPollSources = []string{
	"process_thread_ids",
	"window_ids",
	"clipboard_caret_cursor",
	"memory_status",
	"cpu_time",
	"working_set",
}

// SlowPollSources names the OSStats snapshots a slow poll adds once
// (startup info) and every cycle (kernel/network/hardware stats), per
// spec.md §4.2.
var (
	SlowPollStartupSource = "startup_info"
	SlowPollSources       = []string{
		"kernel_perf_stats",
		"tcp_ip_stats",
		"net_product_stats",
		"hardware_telemetry",
	}
)
