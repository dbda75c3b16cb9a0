package analytic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phasebeam/phasebeam/internal/jones"
	"github.com/phasebeam/phasebeam/internal/parallel"
	"github.com/phasebeam/phasebeam/internal/tile"
)

func onesCfg() tile.Config {
	amps := make([]float64, 16)
	for i := range amps {
		amps[i] = 1
	}
	return tile.Config{Amps: amps}
}

func TestNewDefaults(t *testing.T) {
	b, err := New(MwaPb, nil)
	require.NoError(t, err)
	assert.Equal(t, MwaPb, b.Variant())
	assert.Equal(t, DefaultHeightMwaPb, b.DipoleHeight())

	b, err = New(RTS, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultHeightRTS, b.DipoleHeight())

	h := 0.5
	b, err = New(RTS, &h)
	require.NoError(t, err)
	assert.Equal(t, 0.5, b.DipoleHeight())

	_, err = New(Variant(7), nil)
	assert.Error(t, err)
}

func TestVariantString(t *testing.T) {
	assert.Equal(t, "mwa_pb", MwaPb.String())
	assert.Equal(t, "rts", RTS.String())
	assert.Equal(t, "Variant(9)", Variant(9).String())
}

func TestDipolePositions(t *testing.T) {
	// Corner dipoles of the 4x4 grid.
	e, n := dipolePosition(0)
	assert.InDelta(t, -1.5*dipoleSeparation, e, 1e-12)
	assert.InDelta(t, 1.5*dipoleSeparation, n, 1e-12)

	e, n = dipolePosition(15)
	assert.InDelta(t, 1.5*dipoleSeparation, e, 1e-12)
	assert.InDelta(t, -1.5*dipoleSeparation, n, 1e-12)
}

func TestCalcJonesZeroAmps(t *testing.T) {
	b, err := New(MwaPb, nil)
	require.NoError(t, err)
	cfg := tile.Config{Amps: make([]float64, 16)}

	for _, norm := range []bool{false, true} {
		j, err := CalcJones[float64](b, tile.Direction{AzRad: 1, ZARad: 0.4}, 150e6, cfg,
			tile.Options{NormToZenith: norm})
		require.NoError(t, err)
		assert.Equal(t, jones.Zero[float64](), j, "norm=%v", norm)
	}
}

func TestCalcJonesNormalizedZenithMagnitude(t *testing.T) {
	for _, v := range []Variant{MwaPb, RTS} {
		b, err := New(v, nil)
		require.NoError(t, err)

		j, err := CalcJones[float64](b, tile.Zenith, 150e6, onesCfg(), tile.Options{NormToZenith: true})
		require.NoError(t, err)

		// The per-polarization scalar norm puts each row of the zenith
		// response at unit magnitude.
		rowX := math.Hypot(float64(j[0].Abs()), float64(j[1].Abs()))
		rowY := math.Hypot(float64(j[2].Abs()), float64(j[3].Abs()))
		assert.InDelta(t, 1.0, rowX, 1e-10, "variant %s", v)
		assert.InDelta(t, 1.0, rowY, 1e-10, "variant %s", v)
	}
}

func TestCalcJonesVariantsDiffer(t *testing.T) {
	dir := tile.Direction{AzRad: 0.8, ZARad: 0.5}

	pb, err := New(MwaPb, nil)
	require.NoError(t, err)
	rts, err := New(RTS, nil)
	require.NoError(t, err)

	jPb, err := CalcJones[float64](pb, dir, 150e6, onesCfg(), tile.Options{})
	require.NoError(t, err)
	jRTS, err := CalcJones[float64](rts, dir, 150e6, onesCfg(), tile.Options{})
	require.NoError(t, err)

	assert.NotEqual(t, jPb, jRTS)
}

func TestCalcJonesDeadPolarization(t *testing.T) {
	b, err := New(MwaPb, nil)
	require.NoError(t, err)

	// Y amps all zero: the Y row stays zero, the X row still normalizes.
	cfg := tile.Config{Amps: make([]float64, 32)}
	for i := 0; i < 16; i++ {
		cfg.Amps[i] = 1
	}

	j, err := CalcJones[float64](b, tile.Zenith, 150e6, cfg, tile.Options{NormToZenith: true})
	require.NoError(t, err)

	assert.Equal(t, jones.C[float64](0, 0), j[2])
	assert.Equal(t, jones.C[float64](0, 0), j[3])
	rowX := math.Hypot(float64(j[0].Abs()), float64(j[1].Abs()))
	assert.InDelta(t, 1.0, rowX, 1e-10)
}

func TestCalcJonesBadInputs(t *testing.T) {
	b, err := New(MwaPb, nil)
	require.NoError(t, err)

	_, err = CalcJones[float64](b, tile.Zenith, 150e6, tile.Config{Amps: make([]float64, 5)}, tile.Options{})
	var ampsErr tile.InvalidAmpsError
	assert.ErrorAs(t, err, &ampsErr)

	_, err = CalcJones[float64](b, tile.Zenith, 150e6, onesCfg(), tile.Options{Parallactic: true})
	assert.ErrorAs(t, err, &tile.MissingLatitudeError{})
}

func TestGroundPlaneZeroAtHorizon(t *testing.T) {
	gp := groundPlane(math.Pi/2, DefaultHeightMwaPb, 150e6)
	assert.InDelta(t, 0.0, gp, 1e-12)
}

func TestCalcJonesArrayMatchesSingle(t *testing.T) {
	b, err := New(RTS, nil)
	require.NoError(t, err)
	dirs := []tile.Direction{
		{AzRad: 0.1, ZARad: 0.2},
		{AzRad: 2.0, ZARad: 0.7},
		{AzRad: 5.5, ZARad: 1.1},
	}

	arr, err := CalcJonesArray[float64](b, dirs, 180e6, onesCfg(), tile.Options{NormToZenith: true}, parallel.DefaultConfig())
	require.NoError(t, err)
	require.Len(t, arr, len(dirs))

	for i, dir := range dirs {
		want, err := CalcJones[float64](b, dir, 180e6, onesCfg(), tile.Options{NormToZenith: true})
		require.NoError(t, err)
		assert.Equal(t, want, arr[i])
	}
}

func TestCalcJonesBatch(t *testing.T) {
	b, err := New(MwaPb, nil)
	require.NoError(t, err)

	cfgA := onesCfg()
	cfgB := onesCfg()
	cfgB.Delays[3] = 2

	dirs := []tile.Direction{{AzRad: 0.5, ZARad: 0.3}, {AzRad: 3.0, ZARad: 0.9}}
	// No model store behind the analytic beam, so distinct frequencies never
	// collapse.
	freqs := []uint32{150e6, 150e6, 180e6}
	configs := []tile.Config{cfgA, cfgB, cfgA}

	res, err := CalcJonesBatch[float64](b, dirs, freqs, configs, tile.Options{}, parallel.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, []int32{0, 1, 0}, res.TileMap)
	assert.Equal(t, []int32{0, 0, 1}, res.FreqMap)
	assert.Equal(t, 2, res.UniqueTiles)
	assert.Equal(t, 2, res.UniqueFreqs)

	for ti, cfg := range configs {
		for fi, freq := range freqs {
			for di, dir := range dirs {
				want, err := CalcJones[float64](b, dir, freq, cfg, tile.Options{})
				require.NoError(t, err)
				assert.Equal(t, want, res.At(ti, fi, di), "tile %d freq %d dir %d", ti, fi, di)
			}
		}
	}
}

func TestSinglePrecisionTracksDouble(t *testing.T) {
	b, err := New(MwaPb, nil)
	require.NoError(t, err)
	dir := tile.Direction{AzRad: 1.7, ZARad: 0.6}

	j64, err := CalcJones[float64](b, dir, 150e6, onesCfg(), tile.Options{NormToZenith: true})
	require.NoError(t, err)
	j32, err := CalcJones[float32](b, dir, 150e6, onesCfg(), tile.Options{NormToZenith: true})
	require.NoError(t, err)

	for i := range j64 {
		assert.InDelta(t, float64(j64[i].Re), float64(j32[i].Re), 1e-3, "element %d re", i)
		assert.InDelta(t, float64(j64[i].Im), float64(j32[i].Im), 1e-3, "element %d im", i)
	}
}
