package fee

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phasebeam/phasebeam/internal/tile"
)

func TestPrepareDevice(t *testing.T) {
	b := New(testStore(t, 100e6, 200e6))

	cfgA := onesCfg()
	cfgB := onesCfg()
	cfgB.Delays[0] = 4

	freqs := []uint32{100e6, 110e6, 200e6}
	configs := []tile.Config{cfgA, cfgB, cfgA}

	dc, err := PrepareDevice(b, freqs, configs, true)
	require.NoError(t, err)

	assert.Equal(t, []int32{0, 1, 0}, dc.TileMap)
	assert.Equal(t, []int32{0, 0, 1}, dc.FreqMap)
	assert.Equal(t, 2, dc.UniqueTiles)
	assert.Equal(t, []uint32{100e6, 200e6}, dc.UniqueFreqs)
	assert.Equal(t, 4, dc.NumSets())
	assert.Equal(t, 2, dc.NMax)

	require.Len(t, dc.XOffset, dc.NumSets())
	require.Len(t, dc.YLength, dc.NumSets())
	require.Len(t, dc.Norms, dc.NumSets())

	// Each set's X and Y runs tile the flat arrays with no gaps.
	var expect int32
	for s := 0; s < dc.NumSets(); s++ {
		assert.Equal(t, expect, dc.XOffset[s], "set %d", s)
		expect += dc.XLength[s]
		assert.Equal(t, expect, dc.YOffset[s], "set %d", s)
		expect += dc.YLength[s]
	}
	assert.Equal(t, int(expect), len(dc.M))
	assert.Len(t, dc.N, len(dc.M))
	assert.Len(t, dc.Q1, len(dc.M))
	assert.Len(t, dc.Q2, len(dc.M))
}

func TestPrepareDeviceFoldsNormalization(t *testing.T) {
	b := New(testStore(t, 150e6))
	cfg := onesCfg()

	dc, err := PrepareDevice(b, []uint32{150e6}, []tile.Config{cfg}, false)
	require.NoError(t, err)
	assert.Nil(t, dc.Norms)

	// The device coefficients carry cmn and the negative-order sign folded
	// in, so Q1/Q2 differ from the raw accumulated modes.
	tm, err := b.modesFor(150e6, cfg)
	require.NoError(t, err)

	i := int(dc.XOffset[0])
	scale := complex(tm.x.cmn[0]*tm.x.msign[0], 0)
	assert.Equal(t, tm.x.q1[0]*scale, dc.Q1[i])
	assert.Equal(t, tm.x.q2[0]*scale, dc.Q2[i])
}

func TestPrepareDeviceBadConfig(t *testing.T) {
	b := New(testStore(t, 150e6))
	bad := tile.Config{Amps: make([]float64, 11)}

	_, err := PrepareDevice(b, []uint32{150e6}, []tile.Config{bad}, false)
	var ampsErr tile.InvalidAmpsError
	assert.ErrorAs(t, err, &ampsErr)
}
