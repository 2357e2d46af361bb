package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/entropic-systems/corerand/pool"
)

// fakeProbes is a controllable EntropyProbes for exercising Collector
// success/failure paths without depending on real OS state.
type fakeProbes struct {
	mu               sync.Mutex
	systemRNGErr     error
	timingJitterErr  error
	osStatsErr       map[string]error
	diskCount        int
	systemRNGCalls   int
	timingJitterCall int
}

func (f *fakeProbes) SystemRNG(_ context.Context, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systemRNGCalls++
	for i := range buf {
		buf[i] = byte(i + 1)
	}
	return f.systemRNGErr
}

func (f *fakeProbes) CPURand() (out [8]byte, ok bool) { return out, false }
func (f *fakeProbes) CPUSeed() (out [8]byte, ok bool) { return out, false }

func (f *fakeProbes) TimingJitter(_ context.Context, buf []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.timingJitterCall++
	for i := range buf {
		buf[i] = byte(i + 2)
	}
	return f.timingJitterErr
}

func (f *fakeProbes) OSStats(_ context.Context, name string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.osStatsErr[name]; ok {
		return nil, err
	}
	return []byte{0x01, 0x02}, nil
}

func (f *fakeProbes) DiskStatsAvailable(idx int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return idx < f.diskCount
}

func newTestPool(t *testing.T) *pool.Pool {
	p := pool.New(pool.DefaultSize, nil)
	p.Init(pool.Capabilities{})
	t.Cleanup(p.Stop)
	return p
}

func TestFastPollAddsSystemRNGAndSucceeds(t *testing.T) {
	p := newTestPool(t)
	probes := &fakeProbes{}
	c := New(p, probes, nil, false)

	require.NoError(t, c.FastPoll(context.Background()))
	require.Equal(t, 1, probes.systemRNGCalls)
}

func TestFastPollFailsOnSystemRNGFailure(t *testing.T) {
	p := newTestPool(t)
	probes := &fakeProbes{systemRNGErr: errors.New("no entropy")}
	c := New(p, probes, nil, false)

	require.Error(t, c.FastPoll(context.Background()))
}

func TestFastPollSkipsFailingOSStatsButSucceeds(t *testing.T) {
	p := newTestPool(t)
	probes := &fakeProbes{osStatsErr: map[string]error{"memory_status": errors.New("denied")}}
	c := New(p, probes, nil, false)

	require.NoError(t, c.FastPoll(context.Background()))
}

func TestSlowPollMarksPoolAndSucceeds(t *testing.T) {
	p := newTestPool(t)
	probes := &fakeProbes{diskCount: 2}
	c := New(p, probes, nil, false)

	require.False(t, p.DidSlowPoll())
	require.NoError(t, c.SlowPoll(context.Background()))
	require.True(t, p.DidSlowPoll())
	require.Equal(t, 1, probes.timingJitterCall)
}

func TestSlowPollFailsOnTimingJitterFailure(t *testing.T) {
	p := newTestPool(t)
	probes := &fakeProbes{timingJitterErr: errors.New("jitter source unavailable")}
	c := New(p, probes, nil, false)

	require.Error(t, c.SlowPoll(context.Background()))
	require.False(t, p.DidSlowPoll())
}

func TestSlowPollStrictModeEscalatesOSStatsFailure(t *testing.T) {
	p := newTestPool(t)
	probes := &fakeProbes{osStatsErr: map[string]error{"kernel_perf_stats": errors.New("denied")}}
	c := New(p, probes, nil, true)

	require.Error(t, c.SlowPoll(context.Background()))
}

func TestSlowPollNonStrictToleratesOSStatsFailure(t *testing.T) {
	p := newTestPool(t)
	probes := &fakeProbes{osStatsErr: map[string]error{"kernel_perf_stats": errors.New("denied")}}
	c := New(p, probes, nil, false)

	require.NoError(t, c.SlowPoll(context.Background()))
}

func TestBackgroundFastPollRunsAndStops(t *testing.T) {
	p := newTestPool(t)
	probes := &fakeProbes{}
	c := New(p, probes, nil, false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.StartBackgroundFastPoll(ctx)
	c.Stop()
	require.NotPanics(t, c.Stop, "Stop must be idempotent")
}

func TestStartBackgroundFastPollTwiceWithoutStopPanics(t *testing.T) {
	p := newTestPool(t)
	probes := &fakeProbes{}
	c := New(p, probes, nil, false)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.StartBackgroundFastPoll(ctx)
	defer c.Stop()
	require.Panics(t, func() { c.StartBackgroundFastPoll(ctx) })
}

func TestUserEventsCapturesUpToCapThenDisables(t *testing.T) {
	p := newTestPool(t)
	probes := &fakeProbes{}
	c := New(p, probes, nil, false)

	c.EnableUserEvents()
	require.True(t, c.UserEventsEnabled())
	for i := 0; i < UserEventCap; i++ {
		c.RecordUserEvent([]byte{byte(i)})
	}
	require.False(t, c.UserEventsEnabled())
}

func TestRecordUserEventNoopWhenDisabled(t *testing.T) {
	p := newTestPool(t)
	probes := &fakeProbes{}
	c := New(p, probes, nil, false)
	require.NotPanics(t, func() { c.RecordUserEvent([]byte{1, 2, 3}) })
}

func TestDefaultProbesSystemRNGSucceeds(t *testing.T) {
	var probes DefaultProbes
	buf := make([]byte, 16)
	require.NoError(t, probes.SystemRNG(context.Background(), buf))
}

func TestDefaultProbesDiskStatsUnavailable(t *testing.T) {
	var probes DefaultProbes
	require.False(t, probes.DiskStatsAvailable(0))
}

func TestDefaultProbesOSStatsKnownNames(t *testing.T) {
	var probes DefaultProbes
	for _, name := range FastPollSources {
		_, err := probes.OSStats(context.Background(), name)
		require.NoError(t, err)
	}
}

// sanity check: the background loop's time.NewTicker panics on a
// non-positive interval.
func TestFastPollIntervalIsPositive(t *testing.T) {
	require.Greater(t, FastPollInterval, time.Duration(0))
}
