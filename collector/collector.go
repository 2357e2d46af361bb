package collector

import (
	"context"
	"encoding/binary"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"github.com/entropic-systems/corerand/internal/metrics"
	"github.com/entropic-systems/corerand/pool"
)

// FastPollInterval is the background fast-poll cadence, spec.md §9: "500 ms
// is a balance between entropy freshness and CPU cost; expose as a
// constant, not a dynamic parameter, to keep the entropy-accounting
// argument simple."
const FastPollInterval = 500 * time.Millisecond

// UserEventCap is the number of distinct input events the opt-in
// user-input capture records before it stops itself, spec.md §4.2.
const UserEventCap = 256

// Collector orchestrates EntropyProbes against a pool.Pool: a background
// fast-poll task, an on-demand slow poll, and opt-in user-input capture
// (spec.md §4.2). The zero value is not usable; construct with New.
type Collector struct {
	probes EntropyProbes
	pool   *pool.Pool
	log    *logrus.Entry
	strict bool

	stopCh chan struct{}
	doneCh chan struct{}

	userEventsMu      sync.Mutex
	userEventsEnabled bool
	userEventCount    int
	lastEventTime     time.Time

	startupOnce sync.Once
}

// New constructs a Collector feeding p, sourced from probes. If log is nil,
// a discarding logger is used. strict escalates non-OS-RNG/timing-jitter
// probe failures inside a slow poll to a fatal poll failure, per spec.md
// §4.2's "strict mode" flag.
func New(p *pool.Pool, probes EntropyProbes, log *logrus.Entry, strict bool) *Collector {
	if log == nil {
		discard := logrus.New()
		discard.Out = io.Discard
		log = logrus.NewEntry(discard)
	}
	instanceID := uuid.New()
	return &Collector{
		probes: probes,
		pool:   p,
		log:    log.WithField("collector_instance", instanceID.String()),
		strict: strict,
	}
}

// StartBackgroundFastPoll launches the background fast-poll goroutine
// (spec.md §4.2, §5). Stop must be called to terminate it; calling
// StartBackgroundFastPoll twice without an intervening Stop panics, since
// that would leak a goroutine with no way to signal it.
func (c *Collector) StartBackgroundFastPoll(ctx context.Context) {
	if c.stopCh != nil {
		panic("collector: background fast poll already started")
	}
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.backgroundLoop(ctx)
}

func (c *Collector) backgroundLoop(ctx context.Context) {
	defer close(c.doneCh)
	ticker := time.NewTicker(FastPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.FastPoll(ctx); err != nil {
				c.log.WithError(err).Warn("background fast poll failed")
			}
		}
	}
}

// Stop signals the background fast-poll task to terminate and joins it
// (spec.md §5 "stop() sets a boolean flag observed by the fast-poll task at
// each wake ... stop() waits (join) for the task to exit"). Safe to call
// even if StartBackgroundFastPoll was never called.
func (c *Collector) Stop() {
	if c.stopCh == nil {
		return
	}
	close(c.stopCh)
	<-c.doneCh
	c.stopCh = nil
	c.doneCh = nil
}

// FastPoll runs one round of the cheap, frequent probes (spec.md §4.2):
// the OS system-RNG (16 bytes, fatal on failure), CPU RNG instructions
// where available, and a handful of process/window/time OSStats
// snapshots. It also runs synchronously before extraction (the root
// package's Fetch calls it directly in addition to the background loop).
func (c *Collector) FastPoll(ctx context.Context) error {
	var buf [16]byte
	if err := c.probes.SystemRNG(ctx, buf[:]); err != nil {
		return err
	}
	c.pool.Add(buf[:])

	if v, ok := c.probes.CPURand(); ok {
		c.pool.Add(v[:])
	}
	if v, ok := c.probes.CPUSeed(); ok {
		c.pool.Add(v[:])
	}

	for _, name := range FastPollSources {
		data, err := c.probes.OSStats(ctx, name)
		if err != nil {
			c.log.WithError(err).WithField("source", name).Debug("fast poll source skipped")
			metrics.ProbeFailed(name)
			continue
		}
		if len(data) > 0 {
			c.pool.Add(data)
		}
	}

	var now [8]byte
	binary.LittleEndian.PutUint64(now[:], uint64(time.Now().UnixNano()))
	c.pool.Add(now[:])

	return nil
}

// SlowPoll runs the exhaustive round spec.md §4.2 requires at least once
// before the first Fetch: a one-time startup-info snapshot, timing-jitter
// output (fatal on failure), disk/kernel/network statistics, and an
// optional hardware-telemetry snapshot. Non-fatal probe failures are
// aggregated via multierror and logged; in strict mode any OSStats failure
// escalates to a fatal poll failure. Finishes with a pool mix.
func (c *Collector) SlowPoll(ctx context.Context) error {
	var skipped, startupErr error

	c.startupOnce.Do(func() {
		data, err := c.probes.OSStats(ctx, SlowPollStartupSource)
		if err != nil {
			skipped = multierror.Append(skipped, err)
			metrics.ProbeFailed(SlowPollStartupSource)
			if c.strict {
				startupErr = err
			} else {
				c.log.WithError(err).Debug("startup info probe skipped")
			}
		} else if len(data) > 0 {
			c.pool.Add(data)
		}
	})
	if startupErr != nil {
		return startupErr
	}

	var jitter [32]byte
	if err := c.probes.TimingJitter(ctx, jitter[:]); err != nil {
		return err
	}
	c.pool.Add(jitter[:])

	for idx := 0; c.probes.DiskStatsAvailable(idx); idx++ {
		data, err := c.probes.OSStats(ctx, "disk_io_stats")
		if err != nil {
			skipped = multierror.Append(skipped, err)
			metrics.ProbeFailed("disk_io_stats")
			if c.strict {
				return err
			}
			continue
		}
		if len(data) > 0 {
			c.pool.Add(data)
		}
	}

	for _, name := range SlowPollSources {
		data, err := c.probes.OSStats(ctx, name)
		if err != nil {
			skipped = multierror.Append(skipped, err)
			metrics.ProbeFailed(name)
			if c.strict {
				return err
			}
			continue
		}
		if len(data) > 0 {
			c.pool.Add(data)
		}
	}

	if skipped != nil {
		c.log.WithError(skipped).Debug("slow poll completed with some probes skipped")
	}

	c.pool.Mix()
	c.pool.MarkSlowPollComplete()
	return nil
}

// EnableUserEvents opts into the mouse/keyboard capture probe (spec.md
// §4.2). Subsequent calls to RecordUserEvent feed the pool until
// UserEventCap distinct events have been captured, after which capture
// stops itself and mixes the pool.
func (c *Collector) EnableUserEvents() {
	c.userEventsMu.Lock()
	defer c.userEventsMu.Unlock()
	c.userEventsEnabled = true
	c.userEventCount = 0
	c.lastEventTime = time.Now()
}

// UserEventsEnabled reports whether user-input capture is currently
// active.
func (c *Collector) UserEventsEnabled() bool {
	c.userEventsMu.Lock()
	defer c.userEventsMu.Unlock()
	return c.userEventsEnabled
}

// RecordUserEvent feeds one mouse/keyboard event into the pool, per
// spec.md §4.2: the 32-bit value added is crc32(event) + crc32(time_delta),
// where time_delta is the elapsed milliseconds since the previous captured
// event. After UserEventCap events, capture disables itself and mixes the
// pool. A no-op if user-input capture is not enabled.
func (c *Collector) RecordUserEvent(event []byte) {
	c.userEventsMu.Lock()
	defer c.userEventsMu.Unlock()
	if !c.userEventsEnabled {
		return
	}

	now := time.Now()
	deltaMS := now.Sub(c.lastEventTime).Milliseconds()
	c.lastEventTime = now

	var deltaBuf [8]byte
	binary.LittleEndian.PutUint64(deltaBuf[:], uint64(deltaMS))

	value := CRC32(event) + CRC32(deltaBuf[:])
	var valueBuf [4]byte
	binary.LittleEndian.PutUint32(valueBuf[:], value)
	c.pool.Add(valueBuf[:])

	c.userEventCount++
	if c.userEventCount >= UserEventCap {
		c.userEventsEnabled = false
		c.pool.Mix()
	}
}
