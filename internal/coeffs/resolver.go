package coeffs

import (
	"sort"
	"sync"
)

// Resolver maps arbitrary requested frequencies to the nearest frequency held
// by a store. Resolutions are cached, so repeated queries for the same
// frequency cost one map read.
//
// When a request is exactly equidistant from two stored frequencies the lower
// one wins. The original documentation is silent on this; the rule is fixed
// here and pinned by tests.
type Resolver struct {
	freqs []uint32

	mu    sync.RWMutex
	cache map[uint32]uint32
}

// NewResolver builds a resolver over a store's frequencies. The slice must be
// ascending and is not copied.
func NewResolver(freqs []uint32) *Resolver {
	return &Resolver{
		freqs: freqs,
		cache: make(map[uint32]uint32),
	}
}

// Closest returns the stored frequency nearest to freqHz.
func (r *Resolver) Closest(freqHz uint32) (uint32, error) {
	if len(r.freqs) == 0 {
		return 0, ErrEmptyModel
	}

	r.mu.RLock()
	if hit, ok := r.cache[freqHz]; ok {
		r.mu.RUnlock()
		return hit, nil
	}
	r.mu.RUnlock()

	best := r.nearest(freqHz)

	r.mu.Lock()
	r.cache[freqHz] = best
	r.mu.Unlock()
	return best, nil
}

func (r *Resolver) nearest(freqHz uint32) uint32 {
	i := sort.Search(len(r.freqs), func(i int) bool { return r.freqs[i] >= freqHz })
	if i == 0 {
		return r.freqs[0]
	}
	if i == len(r.freqs) {
		return r.freqs[len(r.freqs)-1]
	}
	lo, hi := r.freqs[i-1], r.freqs[i]
	// Ties prefer the lower frequency.
	if freqHz-lo <= hi-freqHz {
		return lo
	}
	return hi
}
