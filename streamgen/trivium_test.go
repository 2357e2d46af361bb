package streamgen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entropic-systems/corerand/pool"
)

func newSeededPool(t *testing.T) *pool.Pool {
	p := pool.New(pool.DefaultSize, nil)
	p.Init(pool.Capabilities{})
	p.Add([]byte("streamgen test seed material, enough bytes to matter"))
	p.MarkSlowPollComplete()
	t.Cleanup(p.Stop)
	return p
}

func TestReadBeforeSeedImplicitlySeeds(t *testing.T) {
	p := newSeededPool(t)
	var key [KeyLen]byte
	sg := New(p, key)

	out := make([]byte, 32)
	require.NoError(t, sg.Read(out))
	require.NotEqual(t, make([]byte, 32), out, "keystream must not be all-zero")
}

func TestReadFailsWithoutPriorSlowPoll(t *testing.T) {
	p := pool.New(pool.DefaultSize, nil)
	p.Init(pool.Capabilities{})
	defer p.Stop()

	var key [KeyLen]byte
	sg := New(p, key)
	out := make([]byte, 16)
	require.Error(t, sg.Read(out))
}

func TestDeterministicForSameSeed(t *testing.T) {
	var key [KeyLen]byte
	for i := range key {
		key[i] = byte(i)
	}
	var iv [IVLen]byte
	for i := range iv {
		iv[i] = byte(0xA0 + i)
	}

	s1 := &StreamGen{key: key}
	s1.seedLocked(iv)
	s2 := &StreamGen{key: key}
	s2.seedLocked(iv)

	out1 := make([]byte, 64)
	out2 := make([]byte, 64)
	for i := range out1 {
		out1[i] = s1.nextByteLocked()
	}
	for i := range out2 {
		out2[i] = s2.nextByteLocked()
	}
	require.Equal(t, out1, out2)
}

func TestDifferentIVsProduceDifferentKeystreams(t *testing.T) {
	var key [KeyLen]byte
	var iv1, iv2 [IVLen]byte
	iv2[0] = 1

	s1 := &StreamGen{key: key}
	s1.seedLocked(iv1)
	s2 := &StreamGen{key: key}
	s2.seedLocked(iv2)

	out1 := make([]byte, 64)
	out2 := make([]byte, 64)
	for i := range out1 {
		out1[i] = s1.nextByteLocked()
	}
	for i := range out2 {
		out2[i] = s2.nextByteLocked()
	}
	require.NotEqual(t, out1, out2)
}

func TestReseedChangesKeystream(t *testing.T) {
	p := newSeededPool(t)
	var key [KeyLen]byte
	sg := New(p, key)

	out1 := make([]byte, 32)
	require.NoError(t, sg.Read(out1))

	require.NoError(t, sg.Reseed())

	out2 := make([]byte, 32)
	require.NoError(t, sg.Read(out2))

	require.NotEqual(t, out1, out2)
}

func TestReadReseedsAutomaticallyAtInterval(t *testing.T) {
	p := newSeededPool(t)
	var key [KeyLen]byte
	sg := New(p, key)

	sg.mu.Lock()
	require.NoError(t, sg.reseedLocked())
	sg.outputSinceReseed = ReseedInterval - 1
	sg.mu.Unlock()

	out := make([]byte, 4)
	require.NoError(t, sg.Read(out))

	sg.mu.Lock()
	defer sg.mu.Unlock()
	require.Less(t, sg.outputSinceReseed, uint64(ReseedInterval))
}

func TestClearZeroesState(t *testing.T) {
	p := newSeededPool(t)
	var key [KeyLen]byte
	for i := range key {
		key[i] = 0xFF
	}
	sg := New(p, key)
	out := make([]byte, 8)
	require.NoError(t, sg.Read(out))

	sg.Clear()
	for _, b := range sg.key {
		require.Zero(t, b)
	}
	for _, bit := range sg.bits {
		require.False(t, bit)
	}
	require.False(t, sg.initialized)
}

func TestByteBitExtractsMSBFirst(t *testing.T) {
	buf := []byte{0b10110000}
	require.True(t, byteBit(buf, 0))
	require.False(t, byteBit(buf, 1))
	require.True(t, byteBit(buf, 2))
	require.True(t, byteBit(buf, 3))
	require.False(t, byteBit(buf, 4))
}
