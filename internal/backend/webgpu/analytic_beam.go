package webgpu

import (
	"encoding/binary"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/phasebeam/phasebeam/internal/analytic"
	"github.com/phasebeam/phasebeam/internal/dedup"
	"github.com/phasebeam/phasebeam/internal/tile"
)

// AnalyticBeam is the device-resident form of an analytic batch: the unique
// tile configurations and frequencies, uploaded once. The closed-form model
// has no coefficient store, so frequencies deduplicate by exact value.
type AnalyticBeam struct {
	dev       *Device
	precision Precision
	pipeline  *wgpu.ComputePipeline
	opts      tile.Options

	variant     analytic.Variant
	heightM     float64
	tileMap     []int32
	freqMap     []int32
	uniqueTiles int
	uniqueFreqs int

	bufTiles   *wgpu.Buffer
	bufFreqs   *wgpu.Buffer
	bufTileMap *wgpu.Buffer
	bufFreqMap *wgpu.Buffer
}

// NewAnalyticBeam deduplicates the batch and uploads the per-tile delays and
// amplitudes at the requested precision.
func NewAnalyticBeam(dev *Device, beam *analytic.Beam, freqsHz []uint32, configs []tile.Config, p Precision, opts tile.Options) (*AnalyticBeam, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(freqsHz) == 0 || len(configs) == 0 {
		return nil, deviceErrf("analytic beam", "empty batch: %d freqs, %d tiles", len(freqsHz), len(configs))
	}
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	tileMap, uniqueCfgs := dedup.TileMaps(configs)
	freqMap, uniqueFreqs, err := dedup.FreqMaps(freqsHz, nil)
	if err != nil {
		return nil, err
	}

	pipeline, err := dev.pipelineFor(kernelName("analytic", p), renderKernel(analyticKernel, p))
	if err != nil {
		return nil, err
	}

	g := &AnalyticBeam{
		dev:         dev,
		precision:   p,
		pipeline:    pipeline,
		opts:        opts,
		variant:     beam.Variant(),
		heightM:     beam.DipoleHeight(),
		tileMap:     tileMap,
		freqMap:     freqMap,
		uniqueTiles: len(uniqueCfgs),
		uniqueFreqs: len(uniqueFreqs),
	}

	// 48 scalars per tile: 16 delays, 16 X amps, 16 Y amps.
	tiles := make([]byte, 0, 48*p.size()*len(uniqueCfgs))
	for _, cfg := range uniqueCfgs {
		for _, d := range cfg.Delays {
			tiles = appendScalar(tiles, p, float64(d))
		}
		ampsX, ampsY := cfg.AmpsXY()
		for _, a := range ampsX {
			tiles = appendScalar(tiles, p, a)
		}
		for _, a := range ampsY {
			tiles = appendScalar(tiles, p, a)
		}
	}
	g.bufTiles = dev.createBuffer(tiles, wgpu.BufferUsageStorage)

	freqs := make([]byte, 0, p.size()*len(uniqueFreqs))
	for _, f := range uniqueFreqs {
		freqs = appendScalar(freqs, p, float64(f))
	}
	g.bufFreqs = dev.createBuffer(freqs, wgpu.BufferUsageStorage)

	g.bufTileMap = dev.createBuffer(encodeI32(tileMap), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)
	g.bufFreqMap = dev.createBuffer(encodeI32(freqMap), wgpu.BufferUsageStorage|wgpu.BufferUsageCopySrc)

	return g, nil
}

// Precision returns the device arithmetic width.
func (g *AnalyticBeam) Precision() Precision { return g.precision }

// TileMap maps each input tile index to its unique slot.
func (g *AnalyticBeam) TileMap() []int32 { return g.tileMap }

// FreqMap maps each input frequency index to its unique slot.
func (g *AnalyticBeam) FreqMap() []int32 { return g.freqMap }

// NumUniqueTiles returns the number of unique tile configurations.
func (g *AnalyticBeam) NumUniqueTiles() int { return g.uniqueTiles }

// NumUniqueFreqs returns the number of unique frequencies.
func (g *AnalyticBeam) NumUniqueFreqs() int { return g.uniqueFreqs }

func (g *AnalyticBeam) numSets() int { return g.uniqueTiles * g.uniqueFreqs }

// DeviceTileMap returns the device-resident copy of the tile map.
func (g *AnalyticBeam) DeviceTileMap() *wgpu.Buffer { return g.bufTileMap }

// DeviceFreqMap returns the device-resident copy of the frequency map.
func (g *AnalyticBeam) DeviceFreqMap() *wgpu.Buffer { return g.bufFreqMap }

// Release frees the uploaded batch buffers.
func (g *AnalyticBeam) Release() {
	bufs := []**wgpu.Buffer{&g.bufTiles, &g.bufFreqs, &g.bufTileMap, &g.bufFreqMap}
	for _, b := range bufs {
		if *b != nil {
			(*b).Release()
			*b = nil
		}
	}
}

// CalcJonesDevice computes responses for dirs and leaves them on the device.
// The caller owns the returned buffer.
func (g *AnalyticBeam) CalcJonesDevice(dirs []tile.Direction) (*JonesBuffer, error) {
	jb := g.dev.NewJonesBuffer(g.precision, g.numSets(), len(dirs))
	if err := g.CalcJonesDeviceInto(dirs, jb); err != nil {
		jb.Free()
		return nil, err
	}
	return jb, nil
}

// CalcJonesDeviceInto computes responses for dirs into a caller-owned device
// buffer, which must match this beam's precision and geometry.
func (g *AnalyticBeam) CalcJonesDeviceInto(dirs []tile.Direction, jb *JonesBuffer) error {
	if len(dirs) == 0 {
		return deviceErrf("analytic calc", "no directions")
	}
	if jb.precision != g.precision || jb.numSets != g.numSets() || jb.numDirs != len(dirs) {
		return deviceErrf("analytic calc", "result buffer mismatch: %s %dx%d, want %s %dx%d",
			jb.precision, jb.numSets, jb.numDirs, g.precision, g.numSets(), len(dirs))
	}

	dirBytes := make([]byte, 0, 2*g.precision.size()*len(dirs))
	for _, d := range dirs {
		dirBytes = appendScalar(dirBytes, g.precision, d.AzRad)
		dirBytes = appendScalar(dirBytes, g.precision, d.ZARad)
	}
	bufDirs := g.dev.createBuffer(dirBytes, wgpu.BufferUsageStorage)
	defer bufDirs.Release()

	variant := uint32(0)
	if g.variant == analytic.RTS {
		variant = 1
	}
	params := make([]byte, 0, 48)
	params = binary.LittleEndian.AppendUint32(params, uint32(len(dirs)))
	params = binary.LittleEndian.AppendUint32(params, uint32(g.uniqueTiles))
	params = binary.LittleEndian.AppendUint32(params, uint32(g.uniqueFreqs))
	params = binary.LittleEndian.AppendUint32(params, variant)
	params = binary.LittleEndian.AppendUint32(params, boolU32(g.opts.NormToZenith))
	params = binary.LittleEndian.AppendUint32(params, boolU32(g.opts.Parallactic))
	params = binary.LittleEndian.AppendUint32(params, boolU32(g.opts.IAUOrder))
	params = binary.LittleEndian.AppendUint32(params, 0)
	params = appendScalar(params, g.precision, g.heightM)
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
		wgpu.BufferBindingEntry(1, g.bufTiles, 0, uint64(48*g.precision.size()*g.uniqueTiles)),
		wgpu.BufferBindingEntry(2, g.bufFreqs, 0, uint64(g.precision.size()*g.uniqueFreqs)),
		wgpu.BufferBindingEntry(3, jb.buf, 0, uint64(jb.Len()*8*g.precision.size())),
		wgpu.BufferBindingEntry(4, bufParams, 0, 48),
	})
	defer bindGroup.Release()

	encoder := g.dev.device.CreateCommandEncoder(nil)
	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(g.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.DispatchWorkgroups(workgroups(len(dirs)), uint32(g.uniqueTiles), uint32(g.uniqueFreqs))
	pass.End()
	g.dev.queue.Submit(encoder.Finish(nil))
	return nil
}
