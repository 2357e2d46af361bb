package streamgen

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/entropic-systems/corerand/pool"
)

func TestNextUint32ConsumesFourBytes(t *testing.T) {
	p := newSeededPool(t)
	var key [KeyLen]byte
	sg := New(p, key)

	v, err := sg.NextUint32()
	require.NoError(t, err)
	_ = v // any uint32 value is valid
	require.EqualValues(t, 4, sg.outputSinceReseed)
}

func TestNextFloat64IsInUnitInterval(t *testing.T) {
	p := newSeededPool(t)
	var key [KeyLen]byte
	sg := New(p, key)

	for i := 0; i < 100; i++ {
		f, err := sg.NextFloat64()
		require.NoError(t, err)
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 1.0)
	}
}

func TestNextUint32PropagatesFetchError(t *testing.T) {
	p := pool.New(pool.DefaultSize, nil)
	p.Init(pool.Capabilities{})
	defer p.Stop()

	var key [KeyLen]byte
	sg := New(p, key)
	_, err := sg.NextUint32()
	require.Error(t, err)
}
