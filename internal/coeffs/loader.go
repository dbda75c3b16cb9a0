package coeffs

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
)

// The on-disk coefficient format is a flat little-endian layout:
//
//	magic   [4]byte  "PBCF"
//	version uint16   (currently 1)
//	nfreqs  uint32
//	then per frequency:
//	  freqHz   uint32
//	  nMax     uint16
//	  nModes   uint32          mode count, shared by all dipoles of the set
//	  m        [nModes]int8
//	  n        [nModes]int8
//	  then for each polarization (X, Y), for each of the 16 dipoles:
//	    q1 re,im [nModes]float64
//	    q2 re,im [nModes]float64
//
// The upstream archive distributes coefficients in a different container; the
// engine only ever sees a Store, so converting is a caller concern.

var magic = [4]byte{'P', 'B', 'C', 'F'}

const formatVersion = 1

// Load reads a coefficient file into a MemStore.
func Load(path string) (*MemStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("coeffs: %w", err)
	}
	defer f.Close()

	store, err := read(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("coeffs: reading %s: %w", path, err)
	}
	return store, nil
}

func read(r io.Reader) (*MemStore, error) {
	var hdr struct {
		Magic   [4]byte
		Version uint16
		NFreqs  uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}
	if hdr.Magic != magic {
		return nil, fmt.Errorf("bad magic %q", hdr.Magic[:])
	}
	if hdr.Version != formatVersion {
		return nil, fmt.Errorf("unsupported format version %d", hdr.Version)
	}

	sets := make([]*Set, 0, hdr.NFreqs)
	for range hdr.NFreqs {
		set, err := readSet(r)
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return NewMemStore(sets)
}

func readSet(r io.Reader) (*Set, error) {
	var sh struct {
		FreqHz uint32
		NMax   uint16
		NModes uint32
	}
	if err := binary.Read(r, binary.LittleEndian, &sh); err != nil {
		return nil, err
	}

	m := make([]int8, sh.NModes)
	n := make([]int8, sh.NModes)
	if err := binary.Read(r, binary.LittleEndian, m); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, n); err != nil {
		return nil, err
	}

	set := &Set{FreqHz: sh.FreqHz, NMax: int(sh.NMax)}
	for _, pol := range []*PolModes{&set.X, &set.Y} {
		for d := range pol.Dipoles {
			q1, err := readComplexSeries(r, int(sh.NModes))
			if err != nil {
				return nil, err
			}
			q2, err := readComplexSeries(r, int(sh.NModes))
			if err != nil {
				return nil, err
			}
			pol.Dipoles[d] = DipoleModes{M: m, N: n, Q1: q1, Q2: q2}
		}
	}
	return set, nil
}

func readComplexSeries(r io.Reader, n int) ([]complex128, error) {
	raw := make([]float64, 2*n)
	if err := binary.Read(r, binary.LittleEndian, raw); err != nil {
		return nil, err
	}
	out := make([]complex128, n)
	for i := range out {
		out[i] = complex(raw[2*i], raw[2*i+1])
	}
	return out, nil
}

// Save writes a store to path in the format Load reads. Sets whose dipoles do
// not share one mode list are rejected; the flat format has no room for
// ragged modes.
func Save(path string, store *MemStore) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("coeffs: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := write(w, store); err != nil {
		f.Close()
		return fmt.Errorf("coeffs: writing %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("coeffs: writing %s: %w", path, err)
	}
	return f.Close()
}

func write(w io.Writer, store *MemStore) error {
	hdr := struct {
		Magic   [4]byte
		Version uint16
		NFreqs  uint32
	}{Magic: magic, Version: formatVersion, NFreqs: uint32(len(store.freqs))}
	if err := binary.Write(w, binary.LittleEndian, hdr); err != nil {
		return err
	}
	for _, freq := range store.freqs {
		if err := writeSet(w, store.sets[freq]); err != nil {
			return err
		}
	}
	return nil
}

func writeSet(w io.Writer, set *Set) error {
	ref := set.X.Dipoles[0]
	if set.NMax > math.MaxUint16 {
		return fmt.Errorf("nMax %d out of range", set.NMax)
	}
	sh := struct {
		FreqHz uint32
		NMax   uint16
		NModes uint32
	}{FreqHz: set.FreqHz, NMax: uint16(set.NMax), NModes: uint32(len(ref.M))}
	if err := binary.Write(w, binary.LittleEndian, sh); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, ref.M); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, ref.N); err != nil {
		return err
	}
	for _, pol := range []*PolModes{&set.X, &set.Y} {
		for d := range pol.Dipoles {
			dm := pol.Dipoles[d]
			if len(dm.M) != len(ref.M) {
				return fmt.Errorf("freq %d dipole %d: ragged mode list", set.FreqHz, d)
			}
			if err := writeComplexSeries(w, dm.Q1); err != nil {
				return err
			}
			if err := writeComplexSeries(w, dm.Q2); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeComplexSeries(w io.Writer, s []complex128) error {
	raw := make([]float64, 2*len(s))
	for i, c := range s {
		raw[2*i] = real(c)
		raw[2*i+1] = imag(c)
	}
	return binary.Write(w, binary.LittleEndian, raw)
}
