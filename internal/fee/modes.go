package fee

import (
	"fmt"
	"math"

	"github.com/phasebeam/phasebeam/internal/coeffs"
	"github.com/phasebeam/phasebeam/internal/tile"
)

// delayStepSeconds is the time represented by one dipole delay step (435 ps).
const delayStepSeconds = 4.35e-10

// polModes is one polarization's tile-level mode set: the per-dipole
// coefficient series phased by delay, scaled by amplitude and summed. msign
// carries the (-1)^m factor of the negative-order Legendre symmetry; the
// factorial ratio lives in the normalization constant cmn.
type polModes struct {
	m     []int8
	n     []int8
	msign []float64
	q1    []complex128
	q2    []complex128
	// cmn and cmnSqrtN are the direction-independent normalization terms,
	// precomputed once per unique (configuration, frequency).
	cmn []float64
	// nMax is the highest degree present.
	nMax int
}

// tileModes is the deduplicated unit of FEE computation: everything a
// direction sweep needs for one (configuration, frequency) pair.
type tileModes struct {
	freqHz uint32
	x, y   polModes
	nMax   int
}

// accumulateModes phases and sums the per-dipole coefficient series of set
// into a tile-level mode set for cfg. Dipoles with zero amplitude contribute
// nothing; a tile with all amplitudes zero yields all-zero modes and hence an
// all-zero Jones matrix everywhere.
func accumulateModes(set *coeffs.Set, cfg tile.Config, freqHz uint32) (*tileModes, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ampsX, ampsY := cfg.AmpsXY()

	x, err := accumulatePol(&set.X, cfg.Delays, ampsX, freqHz)
	if err != nil {
		return nil, fmt.Errorf("fee: X modes at %d Hz: %w", freqHz, err)
	}
	y, err := accumulatePol(&set.Y, cfg.Delays, ampsY, freqHz)
	if err != nil {
		return nil, fmt.Errorf("fee: Y modes at %d Hz: %w", freqHz, err)
	}

	tm := &tileModes{freqHz: freqHz, x: *x, y: *y, nMax: max(x.nMax, y.nMax)}
	if tm.nMax > maxDegree {
		return nil, fmt.Errorf("fee: model degree %d exceeds supported maximum %d", tm.nMax, maxDegree)
	}
	return tm, nil
}

func accumulatePol(pol *coeffs.PolModes, delays [tile.NumDipoles]uint32, amps [tile.NumDipoles]float64, freqHz uint32) (*polModes, error) {
	ref := pol.Dipoles[0]
	nModes := len(ref.M)

	out := &polModes{
		m:     ref.M,
		n:     ref.N,
		msign: make([]float64, nModes),
		q1:    make([]complex128, nModes),
		q2:    make([]complex128, nModes),
		cmn:   make([]float64, nModes),
	}

	for d := range pol.Dipoles {
		dm := &pol.Dipoles[d]
		if len(dm.M) != nModes || len(dm.Q1) != nModes || len(dm.Q2) != nModes {
			return nil, fmt.Errorf("dipole %d has a ragged mode list", d)
		}
		if amps[d] == 0 {
			continue
		}
		// One delay step is a fixed time, so the phase scales with
		// frequency.
		phase := -2 * math.Pi * float64(freqHz) * delayStepSeconds * float64(delays[d])
		s, c := math.Sincos(phase)
		phasor := complex(c, s) * complex(amps[d], 0)
		for i := range out.q1 {
			out.q1[i] += dm.Q1[i] * phasor
			out.q2[i] += dm.Q2[i] * phasor
		}
	}

	for i := range out.m {
		m, n := int(out.m[i]), int(out.n[i])
		am := m
		if am < 0 {
			am = -am
		}
		if n < 1 || am > n {
			return nil, fmt.Errorf("invalid mode (m=%d, n=%d)", m, n)
		}
		if n > out.nMax {
			out.nMax = n
		}
		// (-1)^m from P_n^{-m} symmetry, only for negative orders.
		out.msign[i] = 1
		if m < 0 && am%2 == 1 {
			out.msign[i] = -1
		}
		nf := float64(n)
		cmn := math.Sqrt(0.5 * (2*nf + 1) * factorial[n-am] / factorial[n+am])
		out.cmn[i] = cmn / math.Sqrt(nf*(nf+1))
	}
	return out, nil
}
