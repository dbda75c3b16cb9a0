package main

/*
#include <stdint.h>
*/
import "C"

import (
	"unsafe"

	"github.com/phasebeam/phasebeam/internal/analytic"
	"github.com/phasebeam/phasebeam/internal/backend/webgpu"
	"github.com/phasebeam/phasebeam/internal/fee"
	"github.com/phasebeam/phasebeam/internal/ffi"
	"github.com/phasebeam/phasebeam/internal/tile"
)

// new_gpu_device initializes the WebGPU stack. One device can back any
// number of GPU beams.
//
//export new_gpu_device
func new_gpu_device(device *C.uintptr_t) C.int32_t {
	dev, err := webgpu.NewDevice()
	if err != nil {
		return fail(err)
	}
	*device = C.uintptr_t(ffi.Handles.Put(ffi.KindDevice, dev))
	return ok()
}

// free_gpu_device releases the WebGPU stack. Beams created on the device
// must be freed first.
//
//export free_gpu_device
func free_gpu_device(device C.uintptr_t) C.int32_t {
	obj, err := ffi.Handles.Free(ffi.KindDevice, uint64(device))
	if err != nil {
		return fail(err)
	}
	obj.(*webgpu.Device).Release()
	return ok()
}

func gpuDevice(handle C.uintptr_t) (*webgpu.Device, error) {
	obj, err := ffi.Handles.Get(ffi.KindDevice, uint64(handle))
	if err != nil {
		return nil, err
	}
	return obj.(*webgpu.Device), nil
}

func goConfigs(numTiles, numAmps C.uint32_t, delays *C.uint32_t, amps *C.double) []tile.Config {
	nt, na := int(numTiles), int(numAmps)
	allDelays := unsafe.Slice((*uint32)(unsafe.Pointer(delays)), nt*tile.NumDipoles)
	allAmps := unsafe.Slice((*float64)(unsafe.Pointer(amps)), nt*na)

	configs := make([]tile.Config, nt)
	for t := 0; t < nt; t++ {
		copy(configs[t].Delays[:], allDelays[t*tile.NumDipoles:(t+1)*tile.NumDipoles])
		configs[t].Amps = make([]float64, na)
		copy(configs[t].Amps, allAmps[t*na:(t+1)*na])
	}
	return configs
}

func gpuPrecision(doublePrecision C.uint8_t) webgpu.Precision {
	if doublePrecision != 0 {
		return webgpu.Double
	}
	return webgpu.Single
}

// new_gpu_fee_beam uploads the batch's unique mode sets to the device.
// delays is numTiles*16 values, amps is numTiles*numAmps with numAmps 16 or
// 32. latitudeRad may be NULL to skip the parallactic-angle correction.
//
//export new_gpu_fee_beam
func new_gpu_fee_beam(beam, device C.uintptr_t,
	freqsHz *C.uint32_t, numFreqs C.uint32_t,
	delays *C.uint32_t, amps *C.double, numTiles, numAmps C.uint32_t,
	doublePrecision, normToZenith C.uint8_t, latitudeRad *C.double, iauOrder C.uint8_t,
	gpuBeam *C.uintptr_t) C.int32_t {
	b, err := feeBeam(beam)
	if err != nil {
		return fail(err)
	}
	dev, err := gpuDevice(device)
	if err != nil {
		return fail(err)
	}
	freqs := make([]uint32, int(numFreqs))
	copy(freqs, unsafe.Slice((*uint32)(unsafe.Pointer(freqsHz)), int(numFreqs)))

	g, err := webgpu.NewFEEBeam(dev, b, freqs, goConfigs(numTiles, numAmps, delays, amps),
		gpuPrecision(doublePrecision), goOptions(normToZenith, iauOrder, latitudeRad))
	if err != nil {
		return fail(err)
	}
	*gpuBeam = C.uintptr_t(ffi.Handles.Put(ffi.KindFEEBeamGPU, g))
	return ok()
}

func gpuFeeBeam(handle C.uintptr_t) (*webgpu.FEEBeam, error) {
	obj, err := ffi.Handles.Get(ffi.KindFEEBeamGPU, uint64(handle))
	if err != nil {
		return nil, err
	}
	return obj.(*webgpu.FEEBeam), nil
}

// fee_calc_jones_gpu_device computes responses for the directions and leaves
// them on the device. Ownership of the returned buffer handle passes to the
// caller, who must release it with free_jones_buffer.
//
//export fee_calc_jones_gpu_device
func fee_calc_jones_gpu_device(gpuBeam C.uintptr_t, numAzZa C.uint32_t, azRads, zaRads *C.double,
	jonesBuffer *C.uintptr_t) C.int32_t {
	g, err := gpuFeeBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	jb, err := g.CalcJonesDevice(goDirections(numAzZa, azRads, zaRads))
	if err != nil {
		return fail(err)
	}
	*jonesBuffer = C.uintptr_t(ffi.Handles.Put(ffi.KindJonesBuffer, jb))
	return ok()
}

// fee_calc_jones_gpu computes responses on the device and reads them back as
// doubles: uniqueTiles * uniqueFreqs * numAzZa matrices, eight doubles each.
//
//export fee_calc_jones_gpu
func fee_calc_jones_gpu(gpuBeam C.uintptr_t, numAzZa C.uint32_t, azRads, zaRads *C.double,
	jonesOut *C.double) C.int32_t {
	g, err := gpuFeeBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	js, err := webgpu.CalcJonesHost[float64](g, goDirections(numAzZa, azRads, zaRads))
	if err != nil {
		return fail(err)
	}
	for i, j := range js {
		writeJones(jonesOut, i, j)
	}
	return ok()
}

// get_num_unique_fee_tiles reports the deduplicated tile count.
//
//export get_num_unique_fee_tiles
func get_num_unique_fee_tiles(gpuBeam C.uintptr_t, numOut *C.int32_t) C.int32_t {
	g, err := gpuFeeBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	*numOut = C.int32_t(g.NumUniqueTiles())
	return ok()
}

// get_num_unique_fee_freqs reports the deduplicated frequency count.
//
//export get_num_unique_fee_freqs
func get_num_unique_fee_freqs(gpuBeam C.uintptr_t, numOut *C.int32_t) C.int32_t {
	g, err := gpuFeeBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	*numOut = C.int32_t(g.NumUniqueFreqs())
	return ok()
}

// get_fee_tile_map copies the host tile map; the caller sizes tileMapOut to
// the number of tiles the GPU beam was created with.
//
//export get_fee_tile_map
func get_fee_tile_map(gpuBeam C.uintptr_t, tileMapOut *C.int32_t) C.int32_t {
	g, err := gpuFeeBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	m := g.TileMap()
	out := unsafe.Slice((*int32)(unsafe.Pointer(tileMapOut)), len(m))
	copy(out, m)
	return ok()
}

// get_fee_freq_map copies the host frequency map.
//
//export get_fee_freq_map
func get_fee_freq_map(gpuBeam C.uintptr_t, freqMapOut *C.int32_t) C.int32_t {
	g, err := gpuFeeBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	m := g.FreqMap()
	out := unsafe.Slice((*int32)(unsafe.Pointer(freqMapOut)), len(m))
	copy(out, m)
	return ok()
}

// get_fee_device_tile_map returns an opaque reference to the device-resident
// tile map for use by caller kernels sharing the device.
//
//export get_fee_device_tile_map
func get_fee_device_tile_map(gpuBeam C.uintptr_t, bufferOut *C.uintptr_t) C.int32_t {
	g, err := gpuFeeBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	*bufferOut = C.uintptr_t(uintptr(unsafe.Pointer(g.DeviceTileMap())))
	return ok()
}

// get_fee_device_freq_map returns an opaque reference to the device-resident
// frequency map.
//
//export get_fee_device_freq_map
func get_fee_device_freq_map(gpuBeam C.uintptr_t, bufferOut *C.uintptr_t) C.int32_t {
	g, err := gpuFeeBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	*bufferOut = C.uintptr_t(uintptr(unsafe.Pointer(g.DeviceFreqMap())))
	return ok()
}

// free_gpu_fee_beam releases the uploaded coefficient buffers.
//
//export free_gpu_fee_beam
func free_gpu_fee_beam(gpuBeam C.uintptr_t) C.int32_t {
	obj, err := ffi.Handles.Free(ffi.KindFEEBeamGPU, uint64(gpuBeam))
	if err != nil {
		return fail(err)
	}
	obj.(*webgpu.FEEBeam).Release()
	return ok()
}

// new_gpu_analytic_beam uploads the batch's unique tile configurations to
// the device.
//
//export new_gpu_analytic_beam
func new_gpu_analytic_beam(beam, device C.uintptr_t,
	freqsHz *C.uint32_t, numFreqs C.uint32_t,
	delays *C.uint32_t, amps *C.double, numTiles, numAmps C.uint32_t,
	doublePrecision, normToZenith C.uint8_t, latitudeRad *C.double, iauOrder C.uint8_t,
	gpuBeam *C.uintptr_t) C.int32_t {
	b, err := analyticBeam(beam)
	if err != nil {
		return fail(err)
	}
	dev, err := gpuDevice(device)
	if err != nil {
		return fail(err)
	}
	freqs := make([]uint32, int(numFreqs))
	copy(freqs, unsafe.Slice((*uint32)(unsafe.Pointer(freqsHz)), int(numFreqs)))

	g, err := webgpu.NewAnalyticBeam(dev, b, freqs, goConfigs(numTiles, numAmps, delays, amps),
		gpuPrecision(doublePrecision), goOptions(normToZenith, iauOrder, latitudeRad))
	if err != nil {
		return fail(err)
	}
	*gpuBeam = C.uintptr_t(ffi.Handles.Put(ffi.KindAnalyticBeamGPU, g))
	return ok()
}

func gpuAnalyticBeam(handle C.uintptr_t) (*webgpu.AnalyticBeam, error) {
	obj, err := ffi.Handles.Get(ffi.KindAnalyticBeamGPU, uint64(handle))
	if err != nil {
		return nil, err
	}
	return obj.(*webgpu.AnalyticBeam), nil
}

// analytic_calc_jones_gpu_device computes responses for the directions and
// leaves them on the device.
//
//export analytic_calc_jones_gpu_device
func analytic_calc_jones_gpu_device(gpuBeam C.uintptr_t, numAzZa C.uint32_t, azRads, zaRads *C.double,
	jonesBuffer *C.uintptr_t) C.int32_t {
	g, err := gpuAnalyticBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	jb, err := g.CalcJonesDevice(goDirections(numAzZa, azRads, zaRads))
	if err != nil {
		return fail(err)
	}
	*jonesBuffer = C.uintptr_t(ffi.Handles.Put(ffi.KindJonesBuffer, jb))
	return ok()
}

// analytic_calc_jones_gpu computes responses on the device and reads them
// back as doubles.
//
//export analytic_calc_jones_gpu
func analytic_calc_jones_gpu(gpuBeam C.uintptr_t, numAzZa C.uint32_t, azRads, zaRads *C.double,
	jonesOut *C.double) C.int32_t {
	g, err := gpuAnalyticBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	js, err := webgpu.CalcJonesHost[float64](g, goDirections(numAzZa, azRads, zaRads))
	if err != nil {
		return fail(err)
	}
	for i, j := range js {
		writeJones(jonesOut, i, j)
	}
	return ok()
}

// get_num_unique_analytic_tiles reports the deduplicated tile count.
//
//export get_num_unique_analytic_tiles
func get_num_unique_analytic_tiles(gpuBeam C.uintptr_t, numOut *C.int32_t) C.int32_t {
	g, err := gpuAnalyticBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	*numOut = C.int32_t(g.NumUniqueTiles())
	return ok()
}

// get_num_unique_analytic_freqs reports the deduplicated frequency count.
//
//export get_num_unique_analytic_freqs
func get_num_unique_analytic_freqs(gpuBeam C.uintptr_t, numOut *C.int32_t) C.int32_t {
	g, err := gpuAnalyticBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	*numOut = C.int32_t(g.NumUniqueFreqs())
	return ok()
}

// get_analytic_tile_map copies the host tile map.
//
//export get_analytic_tile_map
func get_analytic_tile_map(gpuBeam C.uintptr_t, tileMapOut *C.int32_t) C.int32_t {
	g, err := gpuAnalyticBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	m := g.TileMap()
	out := unsafe.Slice((*int32)(unsafe.Pointer(tileMapOut)), len(m))
	copy(out, m)
	return ok()
}

// get_analytic_freq_map copies the host frequency map.
//
//export get_analytic_freq_map
func get_analytic_freq_map(gpuBeam C.uintptr_t, freqMapOut *C.int32_t) C.int32_t {
	g, err := gpuAnalyticBeam(gpuBeam)
	if err != nil {
		return fail(err)
	}
	m := g.FreqMap()
	out := unsafe.Slice((*int32)(unsafe.Pointer(freqMapOut)), len(m))
	copy(out, m)
	return ok()
}

// free_gpu_analytic_beam releases the uploaded batch buffers.
//
//export free_gpu_analytic_beam
func free_gpu_analytic_beam(gpuBeam C.uintptr_t) C.int32_t {
	obj, err := ffi.Handles.Free(ffi.KindAnalyticBeamGPU, uint64(gpuBeam))
	if err != nil {
		return fail(err)
	}
	obj.(*webgpu.AnalyticBeam).Release()
	return ok()
}

// jones_buffer_len reports the number of matrices a device buffer holds.
//
//export jones_buffer_len
func jones_buffer_len(jonesBuffer C.uintptr_t, lenOut *C.uint32_t) C.int32_t {
	obj, err := ffi.Handles.Get(ffi.KindJonesBuffer, uint64(jonesBuffer))
	if err != nil {
		return fail(err)
	}
	*lenOut = C.uint32_t(obj.(*webgpu.JonesBuffer).Len())
	return ok()
}

// jones_buffer_read copies a device buffer back to the host as doubles,
// eight per matrix.
//
//export jones_buffer_read
func jones_buffer_read(jonesBuffer C.uintptr_t, jonesOut *C.double) C.int32_t {
	obj, err := ffi.Handles.Get(ffi.KindJonesBuffer, uint64(jonesBuffer))
	if err != nil {
		return fail(err)
	}
	js, err := webgpu.ReadJones[float64](obj.(*webgpu.JonesBuffer))
	if err != nil {
		return fail(err)
	}
	for i, j := range js {
		writeJones(jonesOut, i, j)
	}
	return ok()
}

// free_jones_buffer releases a device buffer.
//
//export free_jones_buffer
func free_jones_buffer(jonesBuffer C.uintptr_t) C.int32_t {
	obj, err := ffi.Handles.Free(ffi.KindJonesBuffer, uint64(jonesBuffer))
	if err != nil {
		return fail(err)
	}
	obj.(*webgpu.JonesBuffer).Free()
	return ok()
}
