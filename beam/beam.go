// Package beam is the public surface of the engine: beam handles, request
// types and precision-generic compute entry points. The FEE model is driven
// by a spherical-harmonic coefficient file; the analytic model is closed
// form and needs no file.
//
// # Basic Usage
//
//	b, err := beam.NewFEE("coeffs.pbcf")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	j, err := beam.CalcJones[float64](b, beam.Direction{AzRad: az, ZARad: za},
//	    167_000_000, beam.Config{Delays: delays, Amps: amps},
//	    beam.Options{NormToZenith: true})
package beam

import (
	"github.com/phasebeam/phasebeam/internal/analytic"
	"github.com/phasebeam/phasebeam/internal/coeffs"
	"github.com/phasebeam/phasebeam/internal/fee"
	"github.com/phasebeam/phasebeam/internal/jones"
	"github.com/phasebeam/phasebeam/internal/parallel"
	"github.com/phasebeam/phasebeam/internal/tile"
)

// Float constrains the two supported precisions.
type Float = jones.Float

// Complex is a complex number in precision F, laid out re then im.
type Complex[F Float] = jones.Complex[F]

// Jones is a 2x2 complex matrix stored row-major: [j00 j01 j10 j11].
type Jones[F Float] = jones.Jones[F]

// Direction is a horizon-frame pointing: azimuth and zenith angle in
// radians.
type Direction = tile.Direction

// Config is one tile's dipole configuration: 16 delay steps and 16 or 32
// amplitudes.
type Config = tile.Config

// Options are the per-call response adjustments.
type Options = tile.Options

// NumDipoles is the number of dipoles in a tile.
const NumDipoles = tile.NumDipoles

// Zenith is the straight-up direction.
var Zenith = tile.Zenith

// BeamFileEnv names the environment variable NewFEEFromEnv reads the
// coefficient file path from.
const BeamFileEnv = fee.BeamFileEnv

// Errors surfaced by the compute entry points.
type (
	// InvalidAmpsError reports an amplitude slice whose length is not 16
	// or 32.
	InvalidAmpsError = tile.InvalidAmpsError
	// MissingLatitudeError reports a parallactic-angle correction
	// requested without an observer latitude.
	MissingLatitudeError = tile.MissingLatitudeError
)

// ErrEmptyModel reports a coefficient store with no frequencies.
var ErrEmptyModel = coeffs.ErrEmptyModel

// FEE is a handle over a loaded spherical-harmonic coefficient model. Safe
// for concurrent use.
type FEE = fee.Beam

// NewFEE loads a coefficient file and returns a beam handle over it.
func NewFEE(path string) (*FEE, error) { return fee.NewFromFile(path) }

// NewFEEFromEnv loads the coefficient file named by MWA_BEAM_FILE.
func NewFEEFromEnv() (*FEE, error) { return fee.NewFromEnv() }

// BatchResult carries a deduplicated batch: responses for the unique
// (configuration, frequency) pairs plus the index maps back to the full
// request.
type BatchResult[F Float] = fee.BatchResult[F]

// CalcJones computes the FEE response for one direction.
func CalcJones[F Float](b *FEE, dir Direction, freqHz uint32, cfg Config, opts Options) (Jones[F], error) {
	return fee.CalcJones[F](b, dir, freqHz, cfg, opts)
}

// CalcJonesArray computes FEE responses for many directions sharing one
// configuration and frequency.
func CalcJonesArray[F Float](b *FEE, dirs []Direction, freqHz uint32, cfg Config, opts Options, workers Workers) ([]Jones[F], error) {
	return fee.CalcJonesArray[F](b, dirs, freqHz, cfg, opts, workers)
}

// CalcJonesBatch computes FEE responses once per unique (configuration,
// frequency) pair of the batch.
func CalcJonesBatch[F Float](b *FEE, dirs []Direction, freqsHz []uint32, configs []Config, opts Options, workers Workers) (*BatchResult[F], error) {
	return fee.CalcJonesBatch[F](b, dirs, freqsHz, configs, opts, workers)
}

// Workers configures the CPU fan-out of the array and batch entry points.
// backend/cpu provides the default.
type Workers = parallel.Config

// Variant selects the analytic element-pattern formula.
type Variant = analytic.Variant

const (
	// MwaPb is the horizon-frame short-dipole element pattern.
	MwaPb = analytic.MwaPb
	// RTS is the equatorial element pattern at the array latitude.
	RTS = analytic.RTS
)

// Analytic is a closed-form beam handle.
type Analytic = analytic.Beam

// NewAnalytic creates an analytic beam. A nil dipole height selects the
// variant's default.
func NewAnalytic(variant Variant, dipoleHeightM *float64) (*Analytic, error) {
	return analytic.New(variant, dipoleHeightM)
}

// AnalyticBatchResult mirrors BatchResult for the closed-form model.
type AnalyticBatchResult[F Float] = analytic.BatchResult[F]

// CalcJonesAnalytic computes the closed-form response for one direction.
func CalcJonesAnalytic[F Float](b *Analytic, dir Direction, freqHz uint32, cfg Config, opts Options) (Jones[F], error) {
	return analytic.CalcJones[F](b, dir, freqHz, cfg, opts)
}

// CalcJonesAnalyticArray computes closed-form responses for many directions.
func CalcJonesAnalyticArray[F Float](b *Analytic, dirs []Direction, freqHz uint32, cfg Config, opts Options, workers Workers) ([]Jones[F], error) {
	return analytic.CalcJonesArray[F](b, dirs, freqHz, cfg, opts, workers)
}

// CalcJonesAnalyticBatch computes closed-form responses once per unique
// (configuration, frequency) pair.
func CalcJonesAnalyticBatch[F Float](b *Analytic, dirs []Direction, freqsHz []uint32, configs []Config, opts Options, workers Workers) (*AnalyticBatchResult[F], error) {
	return analytic.CalcJonesBatch[F](b, dirs, freqsHz, configs, opts, workers)
}
