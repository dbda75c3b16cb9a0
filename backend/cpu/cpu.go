// Copyright 2025 PhaseBeam Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu configures the multithreaded CPU execution engine.
//
// The engine fans independent (tile, frequency) blocks out across a worker
// pool; blocks write disjoint output slices, so the only synchronization is
// the final join.
//
// Example:
//
//	import (
//	    "github.com/phasebeam/phasebeam/backend/cpu"
//	    "github.com/phasebeam/phasebeam/beam"
//	)
//
//	res, err := beam.CalcJonesBatch[float64](b, dirs, freqs, configs, opts, cpu.New())
package cpu

import (
	"github.com/phasebeam/phasebeam/internal/parallel"
)

// Backend is the CPU worker-pool configuration accepted by the array and
// batch entry points.
type Backend = parallel.Config

// New returns the default configuration: one worker per CPU.
func New() Backend {
	return parallel.DefaultConfig()
}

// Sequential returns a configuration that disables the worker pool.
func Sequential() Backend {
	return Backend{}
}
