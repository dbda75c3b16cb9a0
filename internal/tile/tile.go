// Package tile defines the request-side types shared by every beam algorithm:
// observing directions, per-tile dipole configurations and per-call options.
package tile

import "fmt"

// NumDipoles is the number of dipoles in a tile. Delays always have this
// length; amplitudes have it once (shared X/Y) or twice (X then Y).
const NumDipoles = 16

// Direction is a horizon-frame pointing: azimuth and zenith angle in radians.
type Direction struct {
	AzRad float64
	ZARad float64
}

// Zenith is the straight-up direction used for beam normalization.
var Zenith = Direction{}

// Config is the dipole configuration of one tile: 16 delay steps shared by the
// X and Y dipoles, and either 16 amplitudes (applied to both polarizations) or
// 32 (X first, then Y).
type Config struct {
	Delays [NumDipoles]uint32
	Amps   []float64
}

// InvalidAmpsError reports an amplitude slice whose length is not 16 or 32.
type InvalidAmpsError struct {
	Count int
}

func (e InvalidAmpsError) Error() string {
	return fmt.Sprintf("tile: got %d amps; only 16 or 32 are allowed", e.Count)
}

// MissingLatitudeError reports a parallactic-angle correction requested
// without an observer latitude.
type MissingLatitudeError struct{}

func (MissingLatitudeError) Error() string {
	return "tile: parallactic-angle correction requested without a latitude"
}

// Validate checks the amplitude count invariant.
func (c Config) Validate() error {
	switch len(c.Amps) {
	case NumDipoles, 2 * NumDipoles:
		return nil
	default:
		return InvalidAmpsError{Count: len(c.Amps)}
	}
}

// AmpsXY expands the amplitude slice into per-polarization arrays. With 16
// amps the X and Y arrays are identical.
func (c Config) AmpsXY() (x, y [NumDipoles]float64) {
	copy(x[:], c.Amps)
	if len(c.Amps) >= 2*NumDipoles {
		copy(y[:], c.Amps[NumDipoles:])
	} else {
		y = x
	}
	return x, y
}

// Options are the per-call switches shared by the FEE and analytic beams.
type Options struct {
	// NormToZenith divides each response by the same configuration's
	// response at zenith.
	NormToZenith bool
	// Parallactic applies the parallactic-angle correction; LatitudeRad
	// must be set when it is.
	Parallactic bool
	// LatitudeRad is the observer latitude in radians. Nil means absent.
	LatitudeRad *float64
	// IAUOrder arranges the output [NS-NS NS-EW EW-NS EW-EW].
	IAUOrder bool
}

// Validate checks option consistency.
func (o Options) Validate() error {
	if o.Parallactic && o.LatitudeRad == nil {
		return MissingLatitudeError{}
	}
	return nil
}
