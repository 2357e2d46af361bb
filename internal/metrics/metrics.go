// Package metrics backs SPEC_FULL.md §A.5's observability surface: a
// small set of prometheus counters for pool fetches, mixes, DRBG reseed
// events, and probe failures. Registration is lazy and idempotent so
// importing this package never panics a process that has no metrics
// handler wired up, and never registers twice against the default
// registry under repeated test runs in the same process.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	poolFetches     prometheus.Counter
	poolMixes       prometheus.Counter
	drbgReseeds     *prometheus.CounterVec
	probeFailures   *prometheus.CounterVec
	streamgenReseed prometheus.Counter
)

// Registry is the prometheus.Registerer metrics are registered against.
// Defaults to prometheus.DefaultRegisterer; tests may swap it for a fresh
// prometheus.NewRegistry() before calling Init to avoid cross-test
// duplicate-registration errors.
var Registry prometheus.Registerer = prometheus.DefaultRegisterer

// Init registers all counters exactly once per process. Safe to call from
// multiple goroutines and multiple times; only the first call has any
// effect.
func Init() {
	registerOnce.Do(func() {
		poolFetches = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corerand",
			Subsystem: "pool",
			Name:      "fetches_total",
			Help:      "Total number of successful pool fetches.",
		})
		poolMixes = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corerand",
			Subsystem: "pool",
			Name:      "mixes_total",
			Help:      "Total number of on-demand pool mixes requested through corerand.Mix.",
		})
		drbgReseeds = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corerand",
			Subsystem: "drbg",
			Name:      "reseeds_total",
			Help:      "Total number of DRBG reseed operations, by mechanism.",
		}, []string{"mechanism"})
		probeFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "corerand",
			Subsystem: "collector",
			Name:      "probe_failures_total",
			Help:      "Total number of entropy probe failures, by probe name.",
		}, []string{"probe"})
		streamgenReseed = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "corerand",
			Subsystem: "streamgen",
			Name:      "reseeds_total",
			Help:      "Total number of StreamGen reseed operations.",
		})

		Registry.MustRegister(poolFetches, poolMixes, drbgReseeds, probeFailures, streamgenReseed)
	})
}

// PoolFetched increments the pool-fetch counter. A no-op until Init runs.
func PoolFetched() {
	if poolFetches == nil {
		return
	}
	poolFetches.Inc()
}

// PoolMixed increments the pool-mix counter. A no-op until Init runs.
func PoolMixed() {
	if poolMixes == nil {
		return
	}
	poolMixes.Inc()
}

// DRBGReseeded increments the reseed counter for the named mechanism
// ("ctr_drbg", "hash_drbg", "hmac_drbg"). A no-op until Init runs.
func DRBGReseeded(mechanism string) {
	if drbgReseeds == nil {
		return
	}
	drbgReseeds.WithLabelValues(mechanism).Inc()
}

// ProbeFailed increments the probe-failure counter for the named probe.
// A no-op until Init runs.
func ProbeFailed(probe string) {
	if probeFailures == nil {
		return
	}
	probeFailures.WithLabelValues(probe).Inc()
}

// StreamGenReseeded increments the StreamGen reseed counter. A no-op
// until Init runs.
func StreamGenReseeded() {
	if streamgenReseed == nil {
		return
	}
	streamgenReseed.Inc()
}
