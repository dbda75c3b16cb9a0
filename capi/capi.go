// Package main exports the beam engine as a C shared library. Build with
//
//	go build -buildmode=c-shared -o libphasebeam.so ./capi
//
// Every fallible export returns 0 on success and 1 on failure; on failure
// the message is retrievable through last_error_length/last_error_message.
// Handles are opaque and must be released with the matching free function.
package main

/*
#include <stdint.h>
#include <stdlib.h>
*/
import "C"

import (
	"unsafe"

	"github.com/phasebeam/phasebeam/internal/analytic"
	"github.com/phasebeam/phasebeam/internal/fee"
	"github.com/phasebeam/phasebeam/internal/ffi"
	"github.com/phasebeam/phasebeam/internal/jones"
	"github.com/phasebeam/phasebeam/internal/parallel"
	"github.com/phasebeam/phasebeam/internal/tile"
)

func ok() C.int32_t {
	ffi.SetLastError(nil)
	return 0
}

func fail(err error) C.int32_t {
	ffi.SetLastError(err)
	return 1
}

func goDelays(delays *C.uint32_t) [tile.NumDipoles]uint32 {
	var out [tile.NumDipoles]uint32
	src := unsafe.Slice((*uint32)(unsafe.Pointer(delays)), tile.NumDipoles)
	copy(out[:], src)
	return out
}

func goAmps(amps *C.double, numAmps C.uint32_t) []float64 {
	src := unsafe.Slice((*float64)(unsafe.Pointer(amps)), int(numAmps))
	out := make([]float64, len(src))
	copy(out, src)
	return out
}

func goOptions(normToZenith, iauOrder C.uint8_t, latitudeRad *C.double) tile.Options {
	opts := tile.Options{
		NormToZenith: normToZenith != 0,
		IAUOrder:     iauOrder != 0,
	}
	if latitudeRad != nil {
		lat := float64(*latitudeRad)
		opts.Parallactic = true
		opts.LatitudeRad = &lat
	}
	return opts
}

func goDirections(numAzZa C.uint32_t, az, za *C.double) []tile.Direction {
	azs := unsafe.Slice((*float64)(unsafe.Pointer(az)), int(numAzZa))
	zas := unsafe.Slice((*float64)(unsafe.Pointer(za)), int(numAzZa))
	dirs := make([]tile.Direction, len(azs))
	for i := range dirs {
		dirs[i] = tile.Direction{AzRad: azs[i], ZARad: zas[i]}
	}
	return dirs
}

func writeJones(dst *C.double, offset int, j jones.Jones[float64]) {
	out := unsafe.Slice((*float64)(unsafe.Pointer(dst)), 8*(offset+1))
	for e := 0; e < 4; e++ {
		out[8*offset+2*e] = j[e].Re
		out[8*offset+2*e+1] = j[e].Im
	}
}

// new_fee_beam creates an FEE beam from a coefficient file.
//
//export new_fee_beam
func new_fee_beam(coeffPath *C.char, beam *C.uintptr_t) C.int32_t {
	b, err := fee.NewFromFile(C.GoString(coeffPath))
	if err != nil {
		return fail(err)
	}
	*beam = C.uintptr_t(ffi.Handles.Put(ffi.KindFEEBeam, b))
	return ok()
}

// new_fee_beam_from_env creates an FEE beam from the file named by the
// MWA_BEAM_FILE environment variable.
//
//export new_fee_beam_from_env
func new_fee_beam_from_env(beam *C.uintptr_t) C.int32_t {
	b, err := fee.NewFromEnv()
	if err != nil {
		return fail(err)
	}
	*beam = C.uintptr_t(ffi.Handles.Put(ffi.KindFEEBeam, b))
	return ok()
}

func feeBeam(handle C.uintptr_t) (*fee.Beam, error) {
	obj, err := ffi.Handles.Get(ffi.KindFEEBeam, uint64(handle))
	if err != nil {
		return nil, err
	}
	return obj.(*fee.Beam), nil
}

// get_num_fee_freqs reports how many frequencies the beam's model carries.
//
//export get_num_fee_freqs
func get_num_fee_freqs(beam C.uintptr_t, numFreqs *C.uint32_t) C.int32_t {
	b, err := feeBeam(beam)
	if err != nil {
		return fail(err)
	}
	*numFreqs = C.uint32_t(len(b.Frequencies()))
	return ok()
}

// get_fee_freqs copies the model frequencies, ascending, into freqsOut. The
// caller sizes the buffer from get_num_fee_freqs.
//
//export get_fee_freqs
func get_fee_freqs(beam C.uintptr_t, freqsOut *C.uint32_t) C.int32_t {
	b, err := feeBeam(beam)
	if err != nil {
		return fail(err)
	}
	freqs := b.Frequencies()
	out := unsafe.Slice((*uint32)(unsafe.Pointer(freqsOut)), len(freqs))
	copy(out, freqs)
	return ok()
}

// fee_closest_freq resolves freqHz to the nearest model frequency.
//
//export fee_closest_freq
func fee_closest_freq(beam C.uintptr_t, freqHz C.uint32_t, closestOut *C.uint32_t) C.int32_t {
	b, err := feeBeam(beam)
	if err != nil {
		return fail(err)
	}
	closest, err := b.ClosestFreq(uint32(freqHz))
	if err != nil {
		return fail(err)
	}
	*closestOut = C.uint32_t(closest)
	return ok()
}

// fee_calc_jones computes one double-precision Jones matrix; jonesOut
// receives eight doubles. latitudeRad may be NULL to skip the
// parallactic-angle correction.
//
//export fee_calc_jones
func fee_calc_jones(beam C.uintptr_t, azRad, zaRad C.double, freqHz C.uint32_t,
	delays *C.uint32_t, amps *C.double, numAmps C.uint32_t,
	normToZenith C.uint8_t, latitudeRad *C.double, iauOrder C.uint8_t,
	jonesOut *C.double) C.int32_t {
	b, err := feeBeam(beam)
	if err != nil {
		return fail(err)
	}
	cfg := tile.Config{Delays: goDelays(delays), Amps: goAmps(amps, numAmps)}
	dir := tile.Direction{AzRad: float64(azRad), ZARad: float64(zaRad)}
	j, err := fee.CalcJones[float64](b, dir, uint32(freqHz), cfg, goOptions(normToZenith, iauOrder, latitudeRad))
	if err != nil {
		return fail(err)
	}
	writeJones(jonesOut, 0, j)
	return ok()
}

// fee_calc_jones_array computes numAzZa double-precision Jones matrices;
// jonesOut receives numAzZa * 8 doubles.
//
//export fee_calc_jones_array
func fee_calc_jones_array(beam C.uintptr_t, numAzZa C.uint32_t, azRads, zaRads *C.double,
	freqHz C.uint32_t, delays *C.uint32_t, amps *C.double, numAmps C.uint32_t,
	normToZenith C.uint8_t, latitudeRad *C.double, iauOrder C.uint8_t,
	jonesOut *C.double) C.int32_t {
	b, err := feeBeam(beam)
	if err != nil {
		return fail(err)
	}
	cfg := tile.Config{Delays: goDelays(delays), Amps: goAmps(amps, numAmps)}
	dirs := goDirections(numAzZa, azRads, zaRads)
	js, err := fee.CalcJonesArray[float64](b, dirs, uint32(freqHz), cfg,
		goOptions(normToZenith, iauOrder, latitudeRad), parallel.DefaultConfig())
	if err != nil {
		return fail(err)
	}
	for i, j := range js {
		writeJones(jonesOut, i, j)
	}
	return ok()
}

// free_fee_beam destroys an FEE beam handle.
//
//export free_fee_beam
func free_fee_beam(beam C.uintptr_t) C.int32_t {
	if _, err := ffi.Handles.Free(ffi.KindFEEBeam, uint64(beam)); err != nil {
		return fail(err)
	}
	return ok()
}

// new_analytic_beam creates an analytic beam. rtsStyle selects the
// equatorial element pattern; dipoleHeightM may be NULL for the variant's
// default height.
//
//export new_analytic_beam
func new_analytic_beam(rtsStyle C.uint8_t, dipoleHeightM *C.double, beam *C.uintptr_t) C.int32_t {
	variant := analytic.MwaPb
	if rtsStyle != 0 {
		variant = analytic.RTS
	}
	var height *float64
	if dipoleHeightM != nil {
		h := float64(*dipoleHeightM)
		height = &h
	}
	b, err := analytic.New(variant, height)
	if err != nil {
		return fail(err)
	}
	*beam = C.uintptr_t(ffi.Handles.Put(ffi.KindAnalyticBeam, b))
	return ok()
}

func analyticBeam(handle C.uintptr_t) (*analytic.Beam, error) {
	obj, err := ffi.Handles.Get(ffi.KindAnalyticBeam, uint64(handle))
	if err != nil {
		return nil, err
	}
	return obj.(*analytic.Beam), nil
}

// analytic_calc_jones computes one double-precision Jones matrix from the
// closed-form model.
//
//export analytic_calc_jones
func analytic_calc_jones(beam C.uintptr_t, azRad, zaRad C.double, freqHz C.uint32_t,
	delays *C.uint32_t, amps *C.double, numAmps C.uint32_t,
	normToZenith C.uint8_t, latitudeRad *C.double, iauOrder C.uint8_t,
	jonesOut *C.double) C.int32_t {
	b, err := analyticBeam(beam)
	if err != nil {
		return fail(err)
	}
	cfg := tile.Config{Delays: goDelays(delays), Amps: goAmps(amps, numAmps)}
	dir := tile.Direction{AzRad: float64(azRad), ZARad: float64(zaRad)}
	j, err := analytic.CalcJones[float64](b, dir, uint32(freqHz), cfg, goOptions(normToZenith, iauOrder, latitudeRad))
	if err != nil {
		return fail(err)
	}
	writeJones(jonesOut, 0, j)
	return ok()
}

// analytic_calc_jones_array computes numAzZa double-precision Jones
// matrices from the closed-form model.
//
//export analytic_calc_jones_array
func analytic_calc_jones_array(beam C.uintptr_t, numAzZa C.uint32_t, azRads, zaRads *C.double,
	freqHz C.uint32_t, delays *C.uint32_t, amps *C.double, numAmps C.uint32_t,
	normToZenith C.uint8_t, latitudeRad *C.double, iauOrder C.uint8_t,
	jonesOut *C.double) C.int32_t {
	b, err := analyticBeam(beam)
	if err != nil {
		return fail(err)
	}
	cfg := tile.Config{Delays: goDelays(delays), Amps: goAmps(amps, numAmps)}
	dirs := goDirections(numAzZa, azRads, zaRads)
	js, err := analytic.CalcJonesArray[float64](b, dirs, uint32(freqHz), cfg,
		goOptions(normToZenith, iauOrder, latitudeRad), parallel.DefaultConfig())
	if err != nil {
		return fail(err)
	}
	for i, j := range js {
		writeJones(jonesOut, i, j)
	}
	return ok()
}

// free_analytic_beam destroys an analytic beam handle.
//
//export free_analytic_beam
func free_analytic_beam(beam C.uintptr_t) C.int32_t {
	if _, err := ffi.Handles.Free(ffi.KindAnalyticBeam, uint64(beam)); err != nil {
		return fail(err)
	}
	return ok()
}

// last_error_length returns the length of the last error message including
// its trailing NUL, or 0 when the previous call succeeded.
//
//export last_error_length
func last_error_length() C.int32_t {
	return C.int32_t(ffi.LastErrorLength())
}

// last_error_message copies the last error message plus a trailing NUL into
// buffer. Returns the number of bytes written, or -1 when capacity is too
// small.
//
//export last_error_message
func last_error_message(buffer *C.char, capacity C.size_t) C.int32_t {
	buf := unsafe.Slice((*byte)(unsafe.Pointer(buffer)), int(capacity))
	return C.int32_t(ffi.LastErrorMessage(buf))
}

func main() {}
