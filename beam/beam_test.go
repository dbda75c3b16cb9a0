package beam_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phasebeam/phasebeam/backend/cpu"
	"github.com/phasebeam/phasebeam/beam"
	"github.com/phasebeam/phasebeam/internal/coeffs"
)

// writeFixture saves a small synthetic coefficient file and returns its path.
func writeFixture(t *testing.T, freqs ...uint32) string {
	t.Helper()
	sets := make([]*coeffs.Set, 0, len(freqs))
	for _, f := range freqs {
		set := &coeffs.Set{FreqHz: f, NMax: 1}
		m := []int8{-1, 0, 1}
		n := []int8{1, 1, 1}
		for _, pol := range []*coeffs.PolModes{&set.X, &set.Y} {
			for d := range pol.Dipoles {
				scale := complex(1+0.1*float64(d), 0)
				pol.Dipoles[d] = coeffs.DipoleModes{
					M:  m,
					N:  n,
					Q1: []complex128{0.5 * scale, 1 * scale, -0.5 * scale},
					Q2: []complex128{0.25 * scale, complex(0, 0.5) * scale, 0.25 * scale},
				}
			}
		}
		sets = append(sets, set)
	}
	store, err := coeffs.NewMemStore(sets)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.pbcf")
	require.NoError(t, coeffs.Save(path, store))
	return path
}

func onesConfig() beam.Config {
	amps := make([]float64, beam.NumDipoles)
	for i := range amps {
		amps[i] = 1
	}
	return beam.Config{Amps: amps}
}

func TestFEEFromFile(t *testing.T) {
	b, err := beam.NewFEE(writeFixture(t, 100e6, 200e6))
	require.NoError(t, err)

	assert.Equal(t, []uint32{100e6, 200e6}, b.Frequencies())

	closest, err := b.ClosestFreq(130e6)
	require.NoError(t, err)
	assert.Equal(t, uint32(100e6), closest)

	j, err := beam.CalcJones[float64](b, beam.Direction{AzRad: 0.4, ZARad: 0.3},
		100e6, onesConfig(), beam.Options{NormToZenith: true})
	require.NoError(t, err)
	assert.NotEqual(t, beam.Jones[float64]{}, j)
}

func TestFEEFromEnv(t *testing.T) {
	t.Setenv(beam.BeamFileEnv, writeFixture(t, 150e6))

	b, err := beam.NewFEEFromEnv()
	require.NoError(t, err)
	assert.Equal(t, []uint32{150e6}, b.Frequencies())
}

func TestFEEBatch(t *testing.T) {
	b, err := beam.NewFEE(writeFixture(t, 100e6))
	require.NoError(t, err)

	dirs := []beam.Direction{{AzRad: 0.1, ZARad: 0.2}, {AzRad: 1.4, ZARad: 0.6}}
	res, err := beam.CalcJonesBatch[float64](b, dirs, []uint32{100e6, 100e6},
		[]beam.Config{onesConfig(), onesConfig()}, beam.Options{}, cpu.New())
	require.NoError(t, err)

	assert.Equal(t, 1, res.UniqueTiles)
	assert.Equal(t, 1, res.UniqueFreqs)
	assert.Equal(t, res.At(0, 0, 1), res.At(1, 1, 1))
}

func TestAnalytic(t *testing.T) {
	b, err := beam.NewAnalytic(beam.MwaPb, nil)
	require.NoError(t, err)

	j, err := beam.CalcJonesAnalytic[float64](b, beam.Direction{AzRad: 0.9, ZARad: 0.4},
		150e6, onesConfig(), beam.Options{NormToZenith: true})
	require.NoError(t, err)
	assert.NotEqual(t, beam.Jones[float64]{}, j)

	dirs := []beam.Direction{{AzRad: 0.1, ZARad: 0.2}, {AzRad: 1.4, ZARad: 0.6}}
	arr, err := beam.CalcJonesAnalyticArray[float64](b, dirs, 150e6, onesConfig(),
		beam.Options{}, cpu.Sequential())
	require.NoError(t, err)
	assert.Len(t, arr, len(dirs))
}

func TestOptionsValidation(t *testing.T) {
	b, err := beam.NewFEE(writeFixture(t, 100e6))
	require.NoError(t, err)

	_, err = beam.CalcJones[float64](b, beam.Zenith, 100e6, onesConfig(),
		beam.Options{Parallactic: true})
	assert.ErrorAs(t, err, &beam.MissingLatitudeError{})

	_, err = beam.CalcJones[float64](b, beam.Zenith, 100e6,
		beam.Config{Amps: make([]float64, 9)}, beam.Options{})
	var ampsErr beam.InvalidAmpsError
	assert.ErrorAs(t, err, &ampsErr)
}
