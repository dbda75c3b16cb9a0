package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phasebeam/phasebeam/internal/coeffs"
	"github.com/phasebeam/phasebeam/internal/tile"
)

func ones(n int) []float64 {
	amps := make([]float64, n)
	for i := range amps {
		amps[i] = 1
	}
	return amps
}

func TestTileMaps(t *testing.T) {
	a := tile.Config{Amps: ones(16)}
	b := tile.Config{Delays: [16]uint32{3}, Amps: ones(16)}

	tileMap, unique := TileMaps([]tile.Config{a, a, b, a, b})

	assert.Equal(t, []int32{0, 0, 1, 0, 1}, tileMap)
	require.Len(t, unique, 2)
	assert.Equal(t, a.Delays, unique[0].Delays)
	assert.Equal(t, b.Delays, unique[1].Delays)
}

func TestTileMapsAmpCountDistinguishes(t *testing.T) {
	// 16 shared amps and 32 split amps are different configurations even when
	// the values line up.
	a := tile.Config{Amps: ones(16)}
	b := tile.Config{Amps: ones(32)}

	tileMap, unique := TileMaps([]tile.Config{a, b})
	assert.Equal(t, []int32{0, 1}, tileMap)
	assert.Len(t, unique, 2)
}

func TestTileMapsFirstAppearanceOrder(t *testing.T) {
	cfgs := make([]tile.Config, 4)
	for i := range cfgs {
		cfgs[i] = tile.Config{Delays: [16]uint32{uint32(3 - i)}, Amps: ones(16)}
	}

	tileMap, unique := TileMaps(cfgs)
	assert.Equal(t, []int32{0, 1, 2, 3}, tileMap)
	for i, u := range unique {
		assert.Equal(t, uint32(3-i), u.Delays[0])
	}
}

func TestFreqMapsExact(t *testing.T) {
	freqMap, unique, err := FreqMaps([]uint32{150, 100, 150, 200}, nil)
	require.NoError(t, err)

	assert.Equal(t, []int32{0, 1, 0, 2}, freqMap)
	assert.Equal(t, []uint32{150, 100, 200}, unique)
}

func TestFreqMapsWithResolver(t *testing.T) {
	r := coeffs.NewResolver([]uint32{100, 200, 300})

	in := []uint32{90, 110, 190, 210, 290, 310}
	freqMap, unique, err := FreqMaps(in, r.Closest)
	require.NoError(t, err)

	// The six requests collapse onto the three stored frequencies.
	assert.Equal(t, []int32{0, 0, 1, 1, 2, 2}, freqMap)
	assert.Equal(t, []uint32{100, 200, 300}, unique)
}

func TestFreqMapsResolverError(t *testing.T) {
	r := coeffs.NewResolver(nil)

	_, _, err := FreqMaps([]uint32{100}, r.Closest)
	assert.ErrorIs(t, err, coeffs.ErrEmptyModel)
}
