package corerand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entropic-systems/corerand/collector"
)

// fakeProbes mirrors collector's test double: always succeeds, so Start
// can complete its initial slow poll deterministically in this package's
// tests without depending on real OS state.
type fakeProbes struct{}

func (fakeProbes) SystemRNG(_ context.Context, buf []byte) error {
	for i := range buf {
		buf[i] = byte(i + 1)
	}
	return nil
}
func (fakeProbes) CPURand() (out [8]byte, ok bool) { return out, false }
func (fakeProbes) CPUSeed() (out [8]byte, ok bool) { return out, false }
func (fakeProbes) TimingJitter(_ context.Context, buf []byte) error {
	for i := range buf {
		buf[i] = byte(i + 2)
	}
	return nil
}
func (fakeProbes) OSStats(_ context.Context, _ string) ([]byte, error) {
	return []byte{0x01, 0x02}, nil
}
func (fakeProbes) DiskStatsAvailable(_ int) bool { return false }

var _ collector.EntropyProbes = fakeProbes{}

func resetSingleton() {
	mu.Lock()
	singleton = nil
	mu.Unlock()
}

func TestStartStopLifecycle(t *testing.T) {
	resetSingleton()
	defer Stop()

	require.False(t, DidStart())
	require.True(t, Start(Options{Probes: fakeProbes{}}))
	require.True(t, DidStart())
	require.True(t, DidSlowPoll())

	Stop()
	require.False(t, DidStart())
}

func TestStartIsIdempotent(t *testing.T) {
	resetSingleton()
	defer Stop()

	require.True(t, Start(Options{Probes: fakeProbes{}}))
	require.True(t, Start(Options{Probes: fakeProbes{}}))
}

func TestFetchRequiresStart(t *testing.T) {
	resetSingleton()
	buf := make([]byte, 16)
	require.False(t, Fetch(buf))
}

func TestFetchSucceedsAfterStart(t *testing.T) {
	resetSingleton()
	defer Stop()
	require.True(t, Start(Options{Probes: fakeProbes{}}))

	buf := make([]byte, 32)
	require.True(t, Fetch(buf))
	require.NotEqual(t, make([]byte, 32), buf)
}

func TestFetchSeedReturnsErrorWhenNotStarted(t *testing.T) {
	resetSingleton()
	buf := make([]byte, 16)
	require.Error(t, FetchSeed(buf))
}

func TestMixAndUserEventsAreNoopsBeforeStart(t *testing.T) {
	resetSingleton()
	require.NotPanics(t, Mix)
	require.NotPanics(t, EnableUserEvents)
	require.NotPanics(t, func() { RecordUserEvent([]byte{1}) })
}

func TestUserEventsRoundTrip(t *testing.T) {
	resetSingleton()
	defer Stop()
	require.True(t, Start(Options{Probes: fakeProbes{}}))

	EnableUserEvents()
	RecordUserEvent([]byte{1, 2, 3})

	buf := make([]byte, 8)
	require.True(t, Fetch(buf))
}
