package fee

import (
	"github.com/phasebeam/phasebeam/internal/dedup"
	"github.com/phasebeam/phasebeam/internal/jones"
	"github.com/phasebeam/phasebeam/internal/tile"
)

// DeviceCoeffs is a batch's unique mode sets flattened for upload to a
// compute device. Set s = tile*NumUniqueFreqs + freq owns the mode runs
// M[XOffset[s]:XOffset[s]+XLength[s]] and the matching Y run; the
// normalization constant and the negative-order sign are folded into Q1 and
// Q2 so a kernel needs only m, n and the two coefficients per mode.
type DeviceCoeffs struct {
	TileMap     []int32
	FreqMap     []int32
	UniqueFreqs []uint32
	UniqueTiles int

	NMax int

	XOffset, XLength []int32
	YOffset, YLength []int32

	M, N   []int32
	Q1, Q2 []complex128

	// Norms holds one zenith response per set, or nil when normalization
	// was not requested.
	Norms []jones.Jones[float64]
}

// NumSets returns the number of unique (configuration, frequency) pairs.
func (dc *DeviceCoeffs) NumSets() int { return dc.UniqueTiles * len(dc.UniqueFreqs) }

func appendPol(dc *DeviceCoeffs, pm *polModes) (offset, length int32) {
	offset = int32(len(dc.M))
	for i := range pm.m {
		dc.M = append(dc.M, int32(pm.m[i]))
		dc.N = append(dc.N, int32(pm.n[i]))
		scale := complex(pm.cmn[i]*pm.msign[i], 0)
		dc.Q1 = append(dc.Q1, pm.q1[i]*scale)
		dc.Q2 = append(dc.Q2, pm.q2[i]*scale)
	}
	return offset, int32(len(pm.m))
}

// PrepareDevice resolves and deduplicates a batch, then flattens every unique
// mode set for upload. Zenith responses are computed host-side in double
// precision when normToZenith is set, exactly as the CPU path does, so the
// two paths normalize identically.
func PrepareDevice(b *Beam, freqsHz []uint32, configs []tile.Config, normToZenith bool) (*DeviceCoeffs, error) {
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

	dc := &DeviceCoeffs{
		TileMap:     tileMap,
		FreqMap:     freqMap,
		UniqueFreqs: uniqueFreqs,
		UniqueTiles: len(uniqueCfgs),
	}
	if normToZenith {
		dc.Norms = make([]jones.Jones[float64], 0, dc.NumSets())
	}

	for _, cfg := range uniqueCfgs {
		for _, freq := range uniqueFreqs {
			tm, err := b.modesFor(freq, cfg)
			if err != nil {
				return nil, err
			}
			if tm.nMax > dc.NMax {
				dc.NMax = tm.nMax
			}

			xo, xl := appendPol(dc, &tm.x)
			dc.XOffset = append(dc.XOffset, xo)
			dc.XLength = append(dc.XLength, xl)
			yo, yl := appendPol(dc, &tm.y)
			dc.YOffset = append(dc.YOffset, yo)
			dc.YLength = append(dc.YLength, yl)

			if normToZenith {
				norm, err := b.normFor(freq, cfg)
				if err != nil {
					return nil, err
				}
				dc.Norms = append(dc.Norms, norm)
			}
		}
	}
	return dc, nil
}
