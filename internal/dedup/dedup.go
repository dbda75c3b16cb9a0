// Package dedup resolves batches of per-tile dipole configurations and
// frequencies into their minimal unique sets, together with the index maps
// that take every requested tile or frequency back to its unique slot.
//
// Unique indices are assigned in order of first appearance, so identical
// inputs always produce identical maps. The GPU engine relies on this: it
// uploads the maps once and callers index device-resident results with them
// across calls.
package dedup

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/phasebeam/phasebeam/internal/tile"
)

// TileMaps maps every requested tile configuration to a unique slot.
// tileMap[i] is the index into unique of the i-th input; two inputs share a
// slot exactly when their delays and amplitudes are element-wise equal.
func TileMaps(configs []tile.Config) (tileMap []int32, unique []tile.Config) {
	tileMap = make([]int32, len(configs))
	buckets := make(map[uint64][]int32)

	for i, cfg := range configs {
		h := hashConfig(cfg)
		slot := int32(-1)
		for _, cand := range buckets[h] {
			if configsEqual(unique[cand], cfg) {
				slot = cand
				break
			}
		}
		if slot < 0 {
			slot = int32(len(unique))
			unique = append(unique, cfg)
			buckets[h] = append(buckets[h], slot)
		}
		tileMap[i] = slot
	}
	return tileMap, unique
}

// FreqMaps maps every requested frequency to a unique slot after the resolver
// has normalized it to a stored frequency. Distinct requests that resolve to
// the same stored frequency share a slot.
func FreqMaps(freqs []uint32, resolve func(uint32) (uint32, error)) (freqMap []int32, unique []uint32, err error) {
	freqMap = make([]int32, len(freqs))
	seen := make(map[uint32]int32)

	for i, f := range freqs {
		resolved := f
		if resolve != nil {
			resolved, err = resolve(f)
			if err != nil {
				return nil, nil, err
			}
		}
		slot, ok := seen[resolved]
		if !ok {
			slot = int32(len(unique))
			unique = append(unique, resolved)
			seen[resolved] = slot
		}
		freqMap[i] = slot
	}
	return freqMap, unique, nil
}

func hashConfig(cfg tile.Config) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, d := range cfg.Delays {
		binary.LittleEndian.PutUint32(buf[:4], d)
		h.Write(buf[:4])
	}
	for _, a := range cfg.Amps {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(a))
		h.Write(buf[:])
	}
	return h.Sum64()
}

func configsEqual(a, b tile.Config) bool {
	if a.Delays != b.Delays || len(a.Amps) != len(b.Amps) {
		return false
	}
	for i := range a.Amps {
		if a.Amps[i] != b.Amps[i] {
			return false
		}
	}
	return true
}
