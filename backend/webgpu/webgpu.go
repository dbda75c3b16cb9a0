// Copyright 2025 PhaseBeam Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the GPU execution engine on WebGPU compute
// pipelines. It works anywhere wgpu-native runs: Vulkan, Metal, D3D12.
//
// A GPU beam uploads a batch's unique mode sets once; direction sweeps then
// run entirely on the device and results stay resident until read back or
// handed to the caller's own kernels.
//
// Example:
//
//	dev, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dev.Release()
//
//	g, err := webgpu.NewFEEBeam(dev, b, freqs, configs, webgpu.Single, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer g.Release()
//
//	jones, err := webgpu.CalcJonesHost[float32](g, dirs)
package webgpu

import (
	internalwebgpu "github.com/phasebeam/phasebeam/internal/backend/webgpu"

	"github.com/phasebeam/phasebeam/beam"
)

// Device owns the WebGPU instance, adapter, device and queue.
type Device = internalwebgpu.Device

// Precision selects 32- or 64-bit device arithmetic, fixed per GPU beam.
type Precision = internalwebgpu.Precision

const (
	Single = internalwebgpu.Single
	Double = internalwebgpu.Double
)

// DeviceError wraps a failure inside the WebGPU stack.
type DeviceError = internalwebgpu.DeviceError

// FEEBeam is a device-resident FEE batch.
type FEEBeam = internalwebgpu.FEEBeam

// AnalyticBeam is a device-resident closed-form batch.
type AnalyticBeam = internalwebgpu.AnalyticBeam

// JonesBuffer is a device-resident block of Jones matrices, owned by the
// caller once returned.
type JonesBuffer = internalwebgpu.JonesBuffer

// New initializes the WebGPU stack.
func New() (*Device, error) {
	return internalwebgpu.NewDevice()
}

// IsAvailable reports whether a WebGPU adapter can be acquired.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}

// NewFEEBeam uploads a batch's unique FEE mode sets to the device. Double
// precision requires native 64-bit float support.
func NewFEEBeam(dev *Device, b *beam.FEE, freqsHz []uint32, configs []beam.Config, p Precision, opts beam.Options) (*FEEBeam, error) {
	return internalwebgpu.NewFEEBeam(dev, b, freqsHz, configs, p, opts)
}

// NewAnalyticBeam uploads a batch's unique tile configurations to the
// device.
func NewAnalyticBeam(dev *Device, b *beam.Analytic, freqsHz []uint32, configs []beam.Config, p Precision, opts beam.Options) (*AnalyticBeam, error) {
	return internalwebgpu.NewAnalyticBeam(dev, b, freqsHz, configs, p, opts)
}

// ReadJones copies a device buffer back to the host in precision F.
func ReadJones[F beam.Float](jb *JonesBuffer) ([]beam.Jones[F], error) {
	return internalwebgpu.ReadJones[F](jb)
}

// CalcJonesHost runs a device sweep and reads the results straight back.
func CalcJonesHost[F beam.Float](b interface {
	CalcJonesDevice([]beam.Direction) (*JonesBuffer, error)
}, dirs []beam.Direction) ([]beam.Jones[F], error) {
	return internalwebgpu.CalcJonesHost[F](b, dirs)
}
