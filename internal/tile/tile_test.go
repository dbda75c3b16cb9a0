package tile

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	cfg := Config{Amps: make([]float64, 16)}
	assert.NoError(t, cfg.Validate())

	cfg.Amps = make([]float64, 32)
	assert.NoError(t, cfg.Validate())

	cfg.Amps = make([]float64, 20)
	err := cfg.Validate()
	require.Error(t, err)

	var ampsErr InvalidAmpsError
	require.True(t, errors.As(err, &ampsErr))
	assert.Equal(t, 20, ampsErr.Count)
}

func TestAmpsXYShared(t *testing.T) {
	amps := make([]float64, 16)
	for i := range amps {
		amps[i] = float64(i)
	}
	cfg := Config{Amps: amps}

	x, y := cfg.AmpsXY()
	assert.Equal(t, x, y)
	assert.Equal(t, 15.0, x[15])
}

func TestAmpsXYSplit(t *testing.T) {
	amps := make([]float64, 32)
	for i := range amps {
		amps[i] = float64(i)
	}
	cfg := Config{Amps: amps}

	x, y := cfg.AmpsXY()
	assert.Equal(t, 0.0, x[0])
	assert.Equal(t, 15.0, x[15])
	assert.Equal(t, 16.0, y[0])
	assert.Equal(t, 31.0, y[15])
}

func TestOptionsValidate(t *testing.T) {
	assert.NoError(t, Options{}.Validate())

	lat := -0.466
	assert.NoError(t, Options{Parallactic: true, LatitudeRad: &lat}.Validate())

	err := Options{Parallactic: true}.Validate()
	require.Error(t, err)
	assert.ErrorAs(t, err, &MissingLatitudeError{})
}
