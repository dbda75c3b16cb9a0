// Package coeffs supplies the spherical-harmonic coefficient sets that drive
// the FEE beam: a store abstraction keyed by frequency, an in-memory
// implementation, a flat binary loader and a cached nearest-frequency
// resolver.
package coeffs

import (
	"errors"
	"fmt"
	"sort"

	"github.com/phasebeam/phasebeam/internal/tile"
)

// ErrEmptyModel is returned when a store holds no frequencies at all.
var ErrEmptyModel = errors.New("coeffs: store has no frequencies")

// DipoleModes holds one dipole's spherical-harmonic modes for one
// polarization: the (m, n) orders and the two complex coefficient series.
// All four slices have the same length.
type DipoleModes struct {
	M  []int8
	N  []int8
	Q1 []complex128
	Q2 []complex128
}

// PolModes groups the 16 dipoles of one polarization.
type PolModes struct {
	Dipoles [tile.NumDipoles]DipoleModes
}

// Set is the complete coefficient set for one stored frequency.
type Set struct {
	FreqHz uint32
	// NMax is the highest harmonic degree appearing in any dipole.
	NMax int
	X, Y PolModes
}

// Store provides per-frequency coefficient sets. Implementations must return
// frequencies in ascending order and be safe for concurrent reads.
type Store interface {
	// Frequencies returns the stored frequencies, ascending.
	Frequencies() []uint32
	// Lookup returns the set for an exactly stored frequency.
	Lookup(freqHz uint32) (*Set, error)
}

// MemStore is an immutable in-memory Store.
type MemStore struct {
	freqs []uint32
	sets  map[uint32]*Set
}

// NewMemStore builds a store from coefficient sets. Sets are indexed by their
// frequency; duplicate frequencies are rejected.
func NewMemStore(sets []*Set) (*MemStore, error) {
	s := &MemStore{sets: make(map[uint32]*Set, len(sets))}
	for _, set := range sets {
		if _, ok := s.sets[set.FreqHz]; ok {
			return nil, fmt.Errorf("coeffs: duplicate frequency %d Hz", set.FreqHz)
		}
		s.sets[set.FreqHz] = set
		s.freqs = append(s.freqs, set.FreqHz)
	}
	sort.Slice(s.freqs, func(i, j int) bool { return s.freqs[i] < s.freqs[j] })
	return s, nil
}

// Frequencies returns the stored frequencies, ascending. The caller must not
// mutate the returned slice.
func (s *MemStore) Frequencies() []uint32 { return s.freqs }

// Lookup returns the set stored at exactly freqHz.
func (s *MemStore) Lookup(freqHz uint32) (*Set, error) {
	set, ok := s.sets[freqHz]
	if !ok {
		return nil, fmt.Errorf("coeffs: frequency %d Hz is not in the store", freqHz)
	}
	return set, nil
}
