package webgpu

import (
	"encoding/binary"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/phasebeam/phasebeam/internal/fee"
	"github.com/phasebeam/phasebeam/internal/jones"
	"github.com/phasebeam/phasebeam/internal/tile"
)

// FEEBeam is the device-resident form of an FEE batch: the unique mode sets
// for a fixed group of tile configurations and frequencies, uploaded once.
// Direction sweeps then run entirely on the device.
type FEEBeam struct {
	dev       *Device
	precision Precision
	pipeline  *wgpu.ComputePipeline
	coeffs    *fee.DeviceCoeffs
	opts      tile.Options

	bufM       *wgpu.Buffer
	bufN       *wgpu.Buffer
	bufQ1      *wgpu.Buffer
	bufQ2      *wgpu.Buffer
	bufSpans   *wgpu.Buffer
	bufNorms   *wgpu.Buffer
	bufTileMap *wgpu.Buffer
	bufFreqMap *wgpu.Buffer
}

// NewFEEBeam resolves and deduplicates the batch on the host, then uploads
// the flattened mode sets at the requested precision. Double precision
// requires a native driver with 64-bit float support; without it pipeline
// compilation fails with a DeviceError.
func NewFEEBeam(dev *Device, beam *fee.Beam, freqsHz []uint32, configs []tile.Config, p Precision, opts tile.Options) (*FEEBeam, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(freqsHz) == 0 || len(configs) == 0 {
		return nil, deviceErrf("fee beam", "empty batch: %d freqs, %d tiles", len(freqsHz), len(configs))
	}

	dc, err := fee.PrepareDevice(beam, freqsHz, configs, opts.NormToZenith)
	if err != nil {
		return nil, err
	}

	pipeline, err := dev.pipelineFor(kernelName("fee", p), renderKernel(feeKernel, p))
	if err != nil {
		return nil, err
	}

	g := &FEEBeam{dev: dev, precision: p, pipeline: pipeline, coeffs: dc, opts: opts}

	bufI32 := make([]byte, 0, 4*len(dc.M))
	for _, m := range dc.M {
		bufI32 = binary.LittleEndian.AppendUint32(bufI32, uint32(m))
	}
	g.bufM = dev.createBuffer(bufI32, wgpu.BufferUsageStorage)

	bufI32 = bufI32[:0]
	for _, n := range dc.N {
		bufI32 = binary.LittleEndian.AppendUint32(bufI32, uint32(n))
	}
	g.bufN = dev.createBuffer(bufI32, wgpu.BufferUsageStorage)

	encodeQ := func(q []complex128) []byte {
		buf := make([]byte, 0, 2*p.size()*len(q))
		for _, c := range q {
			buf = appendScalar(buf, p, real(c))
			buf = appendScalar(buf, p, imag(c))
		}
		return buf
	}
	g.bufQ1 = dev.createBuffer(encodeQ(dc.Q1), wgpu.BufferUsageStorage)
	g.bufQ2 = dev.createBuffer(encodeQ(dc.Q2), wgpu.BufferUsageStorage)

	spans := make([]byte, 0, 16*dc.NumSets())
	for s := 0; s < dc.NumSets(); s++ {
		spans = binary.LittleEndian.AppendUint32(spans, uint32(dc.XOffset[s]))
		spans = binary.LittleEndian.AppendUint32(spans, uint32(dc.XLength[s]))
		spans = binary.LittleEndian.AppendUint32(spans, uint32(dc.YOffset[s]))
		spans = binary.LittleEndian.AppendUint32(spans, uint32(dc.YLength[s]))
	}
	g.bufSpans = dev.createBuffer(spans, wgpu.BufferUsageStorage)

	// Without normalization the kernel never reads norms, but the binding
	// still needs a backing allocation.
	norms := make([]byte, 0, 8*p.size()*dc.NumSets())
	if dc.Norms != nil {
		for _, nj := range dc.Norms {
			for _, e := range nj {
				norms = appendScalar(norms, p, e.Re)
				norms = appendScalar(norms, p, e.Im)
			}
		}
	} else {
		norms = append(norms, make([]byte, 8*p.size()*dc.NumSets())...)
	}
	g.bufNorms = dev.createBuffer(norms, wgpu.BufferUsageStorage)

	g.bufTileMap = dev.createBuffer(encodeI32(dc.TileMap), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	g.bufFreqMap = dev.createBuffer(encodeI32(dc.FreqMap), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)

	return g, nil
}

func encodeI32(vals []int32) []byte {
	buf := make([]byte, 0, 4*len(vals))
	for _, v := range vals {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(v))
	}
	return buf
}

// Precision returns the device arithmetic width.
func (g *FEEBeam) Precision() Precision { return g.precision }

// TileMap maps each input tile index to its unique slot.
func (g *FEEBeam) TileMap() []int32 { return g.coeffs.TileMap }

// FreqMap maps each input frequency index to its unique slot.
func (g *FEEBeam) FreqMap() []int32 { return g.coeffs.FreqMap }

// NumUniqueTiles returns the number of unique tile configurations.
func (g *FEEBeam) NumUniqueTiles() int { return g.coeffs.UniqueTiles }

// NumUniqueFreqs returns the number of unique resolved frequencies.
func (g *FEEBeam) NumUniqueFreqs() int { return len(g.coeffs.UniqueFreqs) }

// DeviceTileMap returns the device-resident copy of the tile map, so caller
// kernels can index deduplicated results without host involvement.
func (g *FEEBeam) DeviceTileMap() *wgpu.Buffer { return g.bufTileMap }

// DeviceFreqMap returns the device-resident copy of the frequency map.
func (g *FEEBeam) DeviceFreqMap() *wgpu.Buffer { return g.bufFreqMap }

// Release frees the uploaded coefficient buffers.
func (g *FEEBeam) Release() {
	bufs := []**wgpu.Buffer{&g.bufM, &g.bufN, &g.bufQ1, &g.bufQ2, &g.bufSpans, &g.bufNorms, &g.bufTileMap, &g.bufFreqMap}
	for _, b := range bufs {
		if *b != nil {
			(*b).Release()
			*b = nil
		}
	}
}

// CalcJonesDevice computes responses for dirs and leaves them on the device.
// The caller owns the returned buffer.
func (g *FEEBeam) CalcJonesDevice(dirs []tile.Direction) (*JonesBuffer, error) {
	jb := g.dev.NewJonesBuffer(g.precision, g.coeffs.NumSets(), len(dirs))
	if err := g.CalcJonesDeviceInto(dirs, jb); err != nil {
		jb.Free()
		return nil, err
	}
	return jb, nil
}

// CalcJonesDeviceInto computes responses for dirs into a caller-owned device
// buffer, which must match this beam's precision and geometry.
func (g *FEEBeam) CalcJonesDeviceInto(dirs []tile.Direction, jb *JonesBuffer) error {
	if len(dirs) == 0 {
		return deviceErrf("fee calc", "no directions")
	}
	if jb.precision != g.precision || jb.numSets != g.coeffs.NumSets() || jb.numDirs != len(dirs) {
		return deviceErrf("fee calc", "result buffer mismatch: %s %dx%d, want %s %dx%d",
			jb.precision, jb.numSets, jb.numDirs, g.precision, g.coeffs.NumSets(), len(dirs))
	}

	dirBytes := make([]byte, 0, 2*g.precision.size()*len(dirs))
	for _, d := range dirs {
		dirBytes = appendScalar(dirBytes, g.precision, d.AzRad)
		dirBytes = appendScalar(dirBytes, g.precision, d.ZARad)
	}
	bufDirs := g.dev.createBuffer(dirBytes, wgpu.BufferUsageStorage)
	defer bufDirs.Release()

	params := make([]byte, 0, 48)
	params = binary.LittleEndian.AppendUint32(params, uint32(len(dirs)))
	params = binary.LittleEndian.AppendUint32(params, uint32(g.coeffs.UniqueTiles))
	params = binary.LittleEndian.AppendUint32(params, uint32(len(g.coeffs.UniqueFreqs)))
	params = binary.LittleEndian.AppendUint32(params, boolU32(g.opts.NormToZenith))
	params = binary.LittleEndian.AppendUint32(params, boolU32(g.opts.Parallactic))
	params = binary.LittleEndian.AppendUint32(params, boolU32(g.opts.IAUOrder))
	params = binary.LittleEndian.AppendUint32(params, 0)
	params = binary.LittleEndian.AppendUint32(params, 0)
	lat := 0.0
	if g.opts.LatitudeRad != nil {
		lat = *g.opts.LatitudeRad
	}
	params = appendScalar(params, g.precision, lat)
	bufParams := g.dev.createUniformBuffer(params)
	defer bufParams.Release()

	layout := g.pipeline.GetBindGroupLayout(0)
	bindGroup := g.dev.device.CreateBindGroupSimple(layout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufDirs, 0, uint64(len(dirBytes))),
		wgpu.BufferBindingEntry(1, g.bufM, 0, uint64(4*len(g.coeffs.M))),
		wgpu.BufferBindingEntry(2, g.bufN, 0, uint64(4*len(g.coeffs.N))),
		wgpu.BufferBindingEntry(3, g.bufQ1, 0, uint64(2*g.precision.size()*len(g.coeffs.Q1))),
		wgpu.BufferBindingEntry(4, g.bufQ2, 0, uint64(2*g.precision.size()*len(g.coeffs.Q2))),
		wgpu.BufferBindingEntry(5, g.bufSpans, 0, uint64(16*g.coeffs.NumSets())),
		wgpu.BufferBindingEntry(6, g.bufNorms, 0, uint64(8*g.precision.size()*g.coeffs.NumSets())),
		wgpu.BufferBindingEntry(7, jb.buf, 0, uint64(jb.Len()*8*g.precision.size())),
		wgpu.BufferBindingEntry(8, bufParams, 0, 48),
	})
	defer bindGroup.Release()

	encoder := g.dev.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(g.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(workgroups(len(dirs)), uint32(g.coeffs.UniqueTiles), uint32(len(g.coeffs.UniqueFreqs)))
	pass.End()
	g.dev.queue.Submit(encoder.Finish(nil))
	return nil
}

// deviceCalculator is any beam that computes into a device-resident buffer.
type deviceCalculator interface {
	CalcJonesDevice(dirs []tile.Direction) (*JonesBuffer, error)
}

// CalcJonesHost runs a device sweep and reads the results straight back.
func CalcJonesHost[F jones.Float](b deviceCalculator, dirs []tile.Direction) ([]jones.Jones[F], error) {
	jb, err := b.CalcJonesDevice(dirs)
	if err != nil {
		return nil, err
	}
	defer jb.Free()
	return ReadJones[F](jb)
}

func boolU32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
