// Package analytic implements the closed-form beam: each dipole's response is
// computed from its physical position in the tile and combined with the same
// per-dipole amplitude and delay handling as the FEE beam, with the
// spherical-harmonic synthesis replaced by an analytic element pattern.
package analytic

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/unit/constant"

	"github.com/phasebeam/phasebeam/internal/dedup"
	"github.com/phasebeam/phasebeam/internal/jones"
	"github.com/phasebeam/phasebeam/internal/parallel"
	"github.com/phasebeam/phasebeam/internal/tile"
)

// Variant selects the analytic element-pattern formula. The array-factor
// combination is shared; only the element pattern differs.
type Variant int

const (
	// MwaPb mirrors the mwa_pb primary-beam model: a short crossed dipole
	// projected onto the horizon frame.
	MwaPb Variant = iota
	// RTS mirrors the RTS model: the dipole projected onto the equatorial
	// frame at the array's fixed latitude.
	RTS
)

func (v Variant) String() string {
	switch v {
	case MwaPb:
		return "mwa_pb"
	case RTS:
		return "rts"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

const (
	// Dipole heights above the ground screen, metres. Each variant's
	// upstream model carries its own default.
	DefaultHeightMwaPb = 0.278
	DefaultHeightRTS   = 0.30

	// dipoleSeparation is the grid spacing of the 4x4 tile, metres.
	dipoleSeparation = 1.1

	// delayStepSeconds is the time represented by one delay step (435 ps).
	delayStepSeconds = 4.35e-10

	// arrayLatitudeRad is the fixed MWA latitude baked into the RTS
	// element pattern.
	arrayLatitudeRad = -0.4660608448386394
)

var lightSpeed = float64(constant.LightSpeedInVacuum)

// Beam is an analytic beam handle. It has no external model; construction
// never touches the filesystem.
type Beam struct {
	variant Variant
	heightM float64
}

// New creates an analytic beam. A nil dipole height selects the variant's
// default.
func New(variant Variant, dipoleHeightM *float64) (*Beam, error) {
	b := &Beam{variant: variant}
	switch variant {
	case MwaPb:
		b.heightM = DefaultHeightMwaPb
	case RTS:
		b.heightM = DefaultHeightRTS
	default:
		return nil, fmt.Errorf("analytic: unknown variant %d", int(variant))
	}
	if dipoleHeightM != nil {
		b.heightM = *dipoleHeightM
	}
	return b, nil
}

// Variant returns the element-pattern variant.
func (b *Beam) Variant() Variant { return b.variant }

// DipoleHeight returns the dipole height in metres.
func (b *Beam) DipoleHeight() float64 { return b.heightM }

// dipolePosition returns the east and north offsets of dipole d in metres.
// Dipoles follow the M&C order: four columns east to west within a row, rows
// north to south.
func dipolePosition(d int) (east, north float64) {
	col := float64(d % 4)
	row := float64(d / 4)
	return (col - 1.5) * dipoleSeparation, (1.5 - row) * dipoleSeparation
}

// arrayFactor combines every dipole's geometric and delay phase for one
// polarization. A dead tile (all amps zero) yields zero.
func arrayFactor[F jones.Float](dir tile.Direction, freqHz uint32, delays [tile.NumDipoles]uint32, amps [tile.NumDipoles]float64) jones.Complex[F] {
	lambda := lightSpeed / float64(freqHz)
	k := 2 * math.Pi / lambda
	sinZA := math.Sin(dir.ZARad)
	sinAz, cosAz := math.Sincos(dir.AzRad)
	projEast := sinZA * sinAz
	projNorth := sinZA * cosAz

	var af jones.Complex[F]
	for d := 0; d < tile.NumDipoles; d++ {
		if amps[d] == 0 {
			continue
		}
		east, north := dipolePosition(d)
		phase := k*(east*projEast+north*projNorth) -
			2*math.Pi*float64(freqHz)*delayStepSeconds*float64(delays[d])
		af = af.Add(jones.Expi(F(phase)).Scale(F(amps[d])))
	}
	return af
}

// groundPlane is the image-theory factor for a dipole a height h above a
// conducting screen: 2 sin(k h cos za).
func groundPlane(zaRad, heightM float64, freqHz uint32) float64 {
	lambda := lightSpeed / float64(freqHz)
	return 2 * math.Sin(2*math.Pi*heightM/lambda*math.Cos(zaRad))
}

// elementPattern returns the variant's real-valued 2x2 dipole response for a
// direction, rows X then Y, columns theta then phi.
func elementPattern(v Variant, dir tile.Direction) [4]float64 {
	sinAz, cosAz := math.Sincos(dir.AzRad)
	switch v {
	case RTS:
		ha, dec := jones.HourAngleDec(dir.AzRad, dir.ZARad, arrayLatitudeRad)
		sinLat, cosLat := math.Sincos(arrayLatitudeRad)
		sinHa, cosHa := math.Sincos(ha)
		sinDec, cosDec := math.Sincos(dec)
		return [4]float64{
			cosLat*cosDec + sinLat*sinDec*cosHa,
			-sinLat * sinHa,
			sinDec * sinHa,
			cosHa,
		}
	default: // MwaPb
		cosZA := math.Cos(dir.ZARad)
		return [4]float64{
			cosZA * sinAz, cosAz,
			cosZA * cosAz, -sinAz,
		}
	}
}

// calc computes the unnormalized response for one direction.
func calc[F jones.Float](b *Beam, dir tile.Direction, freqHz uint32, cfg tile.Config) jones.Jones[F] {
	ampsX, ampsY := cfg.AmpsXY()
	afX := arrayFactor[F](dir, freqHz, cfg.Delays, ampsX)
	afY := arrayFactor[F](dir, freqHz, cfg.Delays, ampsY)
	gp := F(groundPlane(dir.ZARad, b.heightM, freqHz))
	ep := elementPattern(b.variant, dir)

	return jones.Jones[F]{
		afX.Scale(F(ep[0]) * gp),
		afX.Scale(F(ep[1]) * gp),
		afY.Scale(F(ep[2]) * gp),
		afY.Scale(F(ep[3]) * gp),
	}
}

// zenithNorm returns the per-polarization scalar that sets unit response
// magnitude overhead: the ground-plane factor at zenith times the magnitude
// of the zenith array factor. Zero (a dead polarization) disables
// normalization for that polarization, keeping dead tiles identically zero.
func zenithNorm(b *Beam, freqHz uint32, delays [tile.NumDipoles]uint32, amps [tile.NumDipoles]float64) float64 {
	af := arrayFactor[float64](tile.Zenith, freqHz, delays, amps)
	return math.Abs(groundPlane(0, b.heightM, freqHz)) * af.Abs()
}

func finish[F jones.Float](b *Beam, j jones.Jones[F], dir tile.Direction, freqHz uint32, cfg tile.Config, opts tile.Options) jones.Jones[F] {
	if opts.NormToZenith {
		ampsX, ampsY := cfg.AmpsXY()
		if nx := zenithNorm(b, freqHz, cfg.Delays, ampsX); nx != 0 {
			j[0] = j[0].Scale(F(1 / nx))
			j[1] = j[1].Scale(F(1 / nx))
		}
		if ny := zenithNorm(b, freqHz, cfg.Delays, ampsY); ny != 0 {
			j[2] = j[2].Scale(F(1 / ny))
			j[3] = j[3].Scale(F(1 / ny))
		}
	}
	if opts.Parallactic {
		j = jones.ApplyParallactic(j, dir.AzRad, dir.ZARad, *opts.LatitudeRad)
	}
	if opts.IAUOrder {
		j = j.IAUOrder()
	}
	return j
}

// CalcJones computes the beam response for one direction.
func CalcJones[F jones.Float](b *Beam, dir tile.Direction, freqHz uint32, cfg tile.Config, opts tile.Options) (jones.Jones[F], error) {
	if err := cfg.Validate(); err != nil {
		return jones.Jones[F]{}, err
	}
	if err := opts.Validate(); err != nil {
		return jones.Jones[F]{}, err
	}
	return finish(b, calc[F](b, dir, freqHz, cfg), dir, freqHz, cfg, opts), nil
}

// CalcJonesArray computes responses for many directions sharing one
// configuration and frequency, fanned out across workers.
func CalcJonesArray[F jones.Float](b *Beam, dirs []tile.Direction, freqHz uint32, cfg tile.Config, opts tile.Options, pcfg parallel.Config) ([]jones.Jones[F], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	out := make([]jones.Jones[F], len(dirs))
	parallel.For(len(dirs), func(i int) {
		out[i] = finish(b, calc[F](b, dirs[i], freqHz, cfg), dirs[i], freqHz, cfg, opts)
	}, pcfg)
	return out, nil
}

// BatchResult mirrors the FEE batch layout: unique responses plus index maps.
type BatchResult[F jones.Float] struct {
	Jones       []jones.Jones[F]
	TileMap     []int32
	FreqMap     []int32
	UniqueTiles int
	UniqueFreqs int
	NumDirs     int
}

// At returns the response for a full (tile, freq, direction) index triple.
func (r *BatchResult[F]) At(tileIdx, freqIdx, dirIdx int) jones.Jones[F] {
	ut := int(r.TileMap[tileIdx])
	uf := int(r.FreqMap[freqIdx])
	return r.Jones[(ut*r.UniqueFreqs+uf)*r.NumDirs+dirIdx]
}

// CalcJonesBatch computes responses once per unique (configuration,
// frequency) pair. Analytic frequencies have no store to resolve against, so
// frequencies deduplicate by exact value.
func CalcJonesBatch[F jones.Float](b *Beam, dirs []tile.Direction, freqsHz []uint32, configs []tile.Config, opts tile.Options, pcfg parallel.Config) (*BatchResult[F], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	tileMap, uniqueCfgs := dedup.TileMaps(configs)
	freqMap, uniqueFreqs, err := dedup.FreqMaps(freqsHz, nil)
	if err != nil {
		return nil, err
	}

	nd := len(dirs)
	res := &BatchResult[F]{
		Jones:       make([]jones.Jones[F], len(uniqueCfgs)*len(uniqueFreqs)*nd),
		TileMap:     tileMap,
		FreqMap:     freqMap,
		UniqueTiles: len(uniqueCfgs),
		UniqueFreqs: len(uniqueFreqs),
		NumDirs:     nd,
	}

	nBlocks := len(uniqueCfgs) * len(uniqueFreqs)
	parallel.For(nBlocks, func(block int) {
		ut := block / len(uniqueFreqs)
		uf := block % len(uniqueFreqs)
		cfg := uniqueCfgs[ut]
		freq := uniqueFreqs[uf]
		out := res.Jones[block*nd : (block+1)*nd]
		for i, dir := range dirs {
			out[i] = finish(b, calc[F](b, dir, freq, cfg), dir, freq, cfg, opts)
		}
	}, pcfg)
	return res, nil
}
