package webgpu

import (
	"encoding/binary"
	"math"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/phasebeam/phasebeam/internal/jones"
)

// JonesBuffer is a device-resident block of Jones matrices laid out
// [uniqueTile][uniqueFreq][direction], eight scalars per matrix. It stays on
// the device until read or freed, so chained device consumers never round-trip
// through the host.
type JonesBuffer struct {
	dev       *Device
	buf       *wgpu.Buffer
	precision Precision
	numSets   int
	numDirs   int
}

// NewJonesBuffer allocates an uninitialized device buffer sized for numSets
// unique (configuration, frequency) pairs by numDirs directions.
func (d *Device) NewJonesBuffer(p Precision, numSets, numDirs int) *JonesBuffer {
	size := uint64(numSets * numDirs * 8 * p.size())
	buf := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	return &JonesBuffer{dev: d, buf: buf, precision: p, numSets: numSets, numDirs: numDirs}
}

// Raw exposes the underlying buffer for chained device-side consumers.
func (jb *JonesBuffer) Raw() *wgpu.Buffer { return jb.buf }

// Precision returns the scalar width of the stored matrices.
func (jb *JonesBuffer) Precision() Precision { return jb.precision }

// Len returns the number of stored matrices.
func (jb *JonesBuffer) Len() int { return jb.numSets * jb.numDirs }

// Free releases the device buffer. The JonesBuffer must not be used after.
func (jb *JonesBuffer) Free() {
	if jb.buf != nil {
		jb.buf.Release()
		jb.buf = nil
	}
}

// ReadJones copies the buffer back to the host. The device precision is
// converted to F, so single-precision device results can be read into either
// width.
func ReadJones[F jones.Float](jb *JonesBuffer) ([]jones.Jones[F], error) {
	scalarSize := jb.precision.size()
	raw, err := jb.dev.readBuffer(jb.buf, uint64(jb.Len()*8*scalarSize))
	if err != nil {
		return nil, err
	}

	out := make([]jones.Jones[F], jb.Len())
	at := func(i int) F {
		if jb.precision == Double {
			return F(math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:])))
		}
		return F(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
	}
	for i := range out {
		for e := 0; e < 4; e++ {
			out[i][e] = jones.C(at(8*i+2*e), at(8*i+2*e+1))
		}
	}
	return out, nil
}
