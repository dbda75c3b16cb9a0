package fee

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/phasebeam/phasebeam/internal/coeffs"
	"github.com/phasebeam/phasebeam/internal/dedup"
	"github.com/phasebeam/phasebeam/internal/jones"
	"github.com/phasebeam/phasebeam/internal/parallel"
	"github.com/phasebeam/phasebeam/internal/tile"
)

// BeamFileEnv names the environment variable NewFromEnv reads the coefficient
// file path from.
const BeamFileEnv = "MWA_BEAM_FILE"

// Beam is a long-lived FEE beam handle. It owns its coefficient store, a
// nearest-frequency resolver and per-handle caches of accumulated tile modes
// and zenith normalizations, so independent handles never share state.
// All methods are safe for concurrent use.
type Beam struct {
	store    coeffs.Store
	resolver *coeffs.Resolver

	mu    sync.RWMutex
	modes map[string]*tileModes
	norms map[string]jones.Jones[float64]
}

// New creates a beam over an already loaded coefficient store.
func New(store coeffs.Store) *Beam {
	return &Beam{
		store:    store,
		resolver: coeffs.NewResolver(store.Frequencies()),
		modes:    make(map[string]*tileModes),
		norms:    make(map[string]jones.Jones[float64]),
	}
}

// NewFromFile creates a beam from a coefficient file.
func NewFromFile(path string) (*Beam, error) {
	store, err := coeffs.Load(path)
	if err != nil {
		return nil, err
	}
	return New(store), nil
}

// NewFromEnv creates a beam from the file named by MWA_BEAM_FILE.
func NewFromEnv() (*Beam, error) {
	path, ok := os.LookupEnv(BeamFileEnv)
	if !ok || path == "" {
		return nil, fmt.Errorf("fee: environment variable %s is not set", BeamFileEnv)
	}
	return NewFromFile(path)
}

// Frequencies returns the store's frequencies, ascending.
func (b *Beam) Frequencies() []uint32 { return b.store.Frequencies() }

// ClosestFreq returns the stored frequency nearest to freqHz.
func (b *Beam) ClosestFreq(freqHz uint32) (uint32, error) {
	return b.resolver.Closest(freqHz)
}

// modesKey identifies a unique (configuration, resolved frequency) pair by
// content, not identity.
func modesKey(freqHz uint32, cfg tile.Config) string {
	buf := make([]byte, 0, 4+4*tile.NumDipoles+8*len(cfg.Amps))
	buf = binary.LittleEndian.AppendUint32(buf, freqHz)
	for _, d := range cfg.Delays {
		buf = binary.LittleEndian.AppendUint32(buf, d)
	}
	for _, a := range cfg.Amps {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(a))
	}
	return string(buf)
}

// modesFor returns the accumulated modes for a configuration at an exactly
// stored frequency, computing and caching them on first use.
func (b *Beam) modesFor(freqHz uint32, cfg tile.Config) (*tileModes, error) {
	key := modesKey(freqHz, cfg)

	b.mu.RLock()
	tm, ok := b.modes[key]
	b.mu.RUnlock()
	if ok {
		return tm, nil
	}

	set, err := b.store.Lookup(freqHz)
	if err != nil {
		return nil, err
	}
	tm, err = accumulateModes(set, cfg, freqHz)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.modes[key] = tm
	b.mu.Unlock()
	return tm, nil
}

// normFor returns the zenith response for a unique (configuration, frequency)
// pair, computed once and cached. Many directions share one normalization.
func (b *Beam) normFor(freqHz uint32, cfg tile.Config) (jones.Jones[float64], error) {
	key := modesKey(freqHz, cfg)

	b.mu.RLock()
	norm, ok := b.norms[key]
	b.mu.RUnlock()
	if ok {
		return norm, nil
	}

	tm, err := b.modesFor(freqHz, cfg)
	if err != nil {
		return jones.Jones[float64]{}, err
	}
	norm = synthesize[float64](tm, tile.Zenith)

	b.mu.Lock()
	b.norms[key] = norm
	b.mu.Unlock()
	return norm, nil
}

// synthesize evaluates the spherical-harmonic sum for one direction. Azimuth
// is measured east from north; the synthesis uses the mathematical azimuth,
// hence the pi/2 offset.
func synthesize[F jones.Float](tm *tileModes, dir tile.Direction) jones.Jones[F] {
	za := F(dir.ZARad)
	phi := F(math.Pi/2 - dir.AzRad)
	u := F(math.Cos(dir.ZARad))
	psin, p1 := legendreTables(tm.nMax, za)

	sigTX, sigPX := sigmas[F](&tm.x, phi, u, psin, p1)
	sigTY, sigPY := sigmas[F](&tm.y, phi, u, psin, p1)
	return jones.Jones[F]{sigTX, sigPX, sigTY, sigPY}
}

// sigmas accumulates one polarization's theta and phi components.
func sigmas[F jones.Float](pm *polModes, phi, u F, psin, p1 []F) (sigT, sigP jones.Complex[F]) {
	for i := range pm.m {
		m, n := int(pm.m[i]), int(pm.n[i])
		am := m
		if am < 0 {
			am = -am
		}
		ind := n*n + n - 1 + m

		q1 := jones.C(F(real(pm.q1[i])), F(imag(pm.q1[i])))
		q2 := jones.C(F(real(pm.q2[i])), F(imag(pm.q2[i])))
		mf, amf := F(m), F(am)
		ps, pp := psin[ind], p1[ind]

		phiComp := jones.Expi(mf * phi).Scale(F(pm.cmn[i] * pm.msign[i]))
		eTheta := jPower[F](n).Mul(
			q2.Scale(amf * u).Sub(q1.Scale(mf)).Scale(ps).Add(q2.Scale(pp)))
		ePhi := jPower[F](n + 1).Mul(
			q2.Scale(mf).Sub(q1.Scale(amf * u)).Scale(ps).Sub(q1.Scale(pp)))

		sigT = sigT.Add(phiComp.Mul(eTheta))
		sigP = sigP.Add(phiComp.Mul(ePhi))
	}
	return sigT, sigP
}

// normalize divides j element-wise by the zenith response. Elements whose
// zenith response is exactly zero (an all-off tile) pass through unchanged so
// a dead tile stays identically zero instead of becoming NaN.
func normalize[F jones.Float](j jones.Jones[F], norm jones.Jones[float64]) jones.Jones[F] {
	var out jones.Jones[F]
	for i := range j {
		d := jones.C(F(norm[i].Re), F(norm[i].Im))
		if norm[i].Re == 0 && norm[i].Im == 0 {
			out[i] = j[i]
			continue
		}
		out[i] = j[i].Div(d)
	}
	return out
}

// finish applies the post-synthesis options to a single response.
func finish[F jones.Float](j jones.Jones[F], dir tile.Direction, opts tile.Options, norm jones.Jones[float64]) jones.Jones[F] {
	if opts.NormToZenith {
		j = normalize(j, norm)
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
	if err := opts.Validate(); err != nil {
		return jones.Jones[F]{}, err
	}
	resolved, err := b.resolver.Closest(freqHz)
	if err != nil {
		return jones.Jones[F]{}, err
	}
	tm, err := b.modesFor(resolved, cfg)
	if err != nil {
		return jones.Jones[F]{}, err
	}
	var norm jones.Jones[float64]
	if opts.NormToZenith {
		if norm, err = b.normFor(resolved, cfg); err != nil {
			return jones.Jones[F]{}, err
		}
	}
	return finish(synthesize[F](tm, dir), dir, opts, norm), nil
}

// CalcJonesArray computes responses for many directions sharing one
// configuration and frequency. Directions fan out across workers; the output
// is indexed like the input.
func CalcJonesArray[F jones.Float](b *Beam, dirs []tile.Direction, freqHz uint32, cfg tile.Config, opts tile.Options, pcfg parallel.Config) ([]jones.Jones[F], error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	resolved, err := b.resolver.Closest(freqHz)
	if err != nil {
		return nil, err
	}
	tm, err := b.modesFor(resolved, cfg)
	if err != nil {
		return nil, err
	}
	var norm jones.Jones[float64]
	if opts.NormToZenith {
		if norm, err = b.normFor(resolved, cfg); err != nil {
			return nil, err
		}
	}

	out := make([]jones.Jones[F], len(dirs))
	parallel.For(len(dirs), func(i int) {
		out[i] = finish(synthesize[F](tm, dirs[i]), dirs[i], opts, norm)
	}, pcfg)
	return out, nil
}

// BatchResult carries a deduplicated batch computation: responses for the
// unique set only, plus the maps that take full tile/frequency indices back
// to unique slots. Jones is laid out [uniqueTile][uniqueFreq][direction].
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

// CalcJonesBatch computes responses for a whole batch of tile configurations
// and frequencies, once per unique (configuration, frequency) pair. Blocks
// write disjoint output slices, so workers need no locking; the first block
// error aborts the batch and no partial results are returned.
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
	freqMap, uniqueFreqs, err := dedup.FreqMaps(freqsHz, b.resolver.Closest)
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
	err = parallel.ForErr(nBlocks, func(block int) error {
		ut := block / len(uniqueFreqs)
		uf := block % len(uniqueFreqs)
		cfg := uniqueCfgs[ut]
		freq := uniqueFreqs[uf]

		tm, err := b.modesFor(freq, cfg)
		if err != nil {
			return err
		}
		var norm jones.Jones[float64]
		if opts.NormToZenith {
			if norm, err = b.normFor(freq, cfg); err != nil {
				return err
			}
		}
		out := res.Jones[block*nd : (block+1)*nd]
		for i, dir := range dirs {
			out[i] = finish(synthesize[F](tm, dir), dir, opts, norm)
		}
		return nil
	}, pcfg)
	if err != nil {
		return nil, err
	}
	return res, nil
}
