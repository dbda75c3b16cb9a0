// Package webgpu implements the GPU beam engine on WebGPU compute pipelines.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
//
// The engine mirrors the CPU batch layout: responses are computed once per
// unique (configuration, frequency) pair and stay resident on the device
// until read back, so repeated sweeps over directions never re-upload
// coefficients.
package webgpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"
)

// workgroupSize is the number of threads per workgroup along the direction
// axis.
const workgroupSize = 64

// Precision selects the floating-point width of device arithmetic and of the
// result buffers.
type Precision int

const (
	Single Precision = iota
	Double
)

func (p Precision) String() string {
	switch p {
	case Single:
		return "single"
	case Double:
		return "double"
	default:
		return fmt.Sprintf("Precision(%d)", int(p))
	}
}

// scalar returns the WGSL scalar type name.
func (p Precision) scalar() string {
	if p == Double {
		return "f64"
	}
	return "f32"
}

// size returns the scalar width in bytes.
func (p Precision) size() int {
	if p == Double {
		return 8
	}
	return 4
}

// DeviceError wraps a failure inside the WebGPU stack.
type DeviceError struct {
	Op  string
	Err error
}

func (e *DeviceError) Error() string { return fmt.Sprintf("webgpu: %s: %v", e.Op, e.Err) }

func (e *DeviceError) Unwrap() error { return e.Err }

func deviceErrf(op, format string, args ...any) *DeviceError {
	return &DeviceError{Op: op, Err: fmt.Errorf(format, args...)}
}

// Device owns the WebGPU instance, adapter, device and queue, plus caches of
// compiled shaders and pipelines keyed by kernel name and precision. One
// Device can back any number of beams.
type Device struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex

	adapterInfo *wgpu.AdapterInfoGo
}

// NewDevice initializes the WebGPU stack. Returns a DeviceError if no adapter
// or device is available.
func NewDevice() (dev *Device, err error) {
	// The native library panics rather than erroring when absent.
	defer func() {
		if r := recover(); r != nil {
			dev = nil
			err = deviceErrf("init", "native library not available: %v", r)
		}
	}()

	instance, _ := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, &DeviceError{Op: "request adapter", Err: adapterErr}
	}
	adapterInfo, _ := adapter.GetInfo()

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, &DeviceError{Op: "request device", Err: deviceErr}
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, deviceErrf("init", "no queue")
	}

	return &Device{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		shaders:     make(map[string]*wgpu.ShaderModule),
		pipelines:   make(map[string]*wgpu.ComputePipeline),
		adapterInfo: adapterInfo,
	}, nil
}

// IsAvailable reports whether a WebGPU adapter can be acquired on this
// system.
func IsAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance, _ := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()
	return true
}

// Name describes the adapter backing this device.
func (d *Device) Name() string {
	if d.adapterInfo != nil {
		return fmt.Sprintf("WebGPU (%s %s)", d.adapterInfo.Device, d.adapterInfo.Vendor)
	}
	return "WebGPU"
}

// AdapterInfo returns information about the GPU adapter.
func (d *Device) AdapterInfo() *wgpu.AdapterInfoGo { return d.adapterInfo }

// Release frees every cached pipeline and shader and the WebGPU objects.
// Beams created on this device must be released first.
func (d *Device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, p := range d.pipelines {
		p.Release()
	}
	d.pipelines = nil
	for _, s := range d.shaders {
		s.Release()
	}
	d.shaders = nil

	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

// pipelineFor compiles (or fetches from cache) the named kernel at one
// precision. Compilation panics inside the native library surface as
// DeviceErrors; double precision in particular requires native 64-bit float
// support.
func (d *Device) pipelineFor(name, source string) (pipeline *wgpu.ComputePipeline, err error) {
	d.mu.RLock()
	if p, ok := d.pipelines[name]; ok {
		d.mu.RUnlock()
		return p, nil
	}
	d.mu.RUnlock()

	defer func() {
		if r := recover(); r != nil {
			pipeline = nil
			err = deviceErrf("compile "+name, "%v", r)
		}
	}()

	shader := d.device.CreateShaderModuleWGSL(source)
	pipeline = d.device.CreateComputePipelineSimple(nil, shader, "main")

	d.mu.Lock()
	d.shaders[name] = shader
	d.pipelines[name] = pipeline
	d.mu.Unlock()
	return pipeline, nil
}

// createBuffer creates a storage buffer and uploads data through the mapped
// creation window.
func (d *Device) createBuffer(data []byte, usage wgpu.BufferUsage) *wgpu.Buffer {
	size := uint64(len(data))
	buffer := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            usage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	mappedPtr := buffer.GetMappedRange(0, size)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	copy(mappedSlice, data)
	buffer.Unmap()
	return buffer
}

// createUniformBuffer uploads data into a uniform buffer, padded to the
// 16-byte alignment uniform bindings require.
func (d *Device) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15

	buffer := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})
	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), alignedSize)
	copy(mappedSlice, data)
	buffer.Unmap()
	return buffer
}

// readBuffer copies a device buffer back to host memory through a MapRead
// staging buffer.
func (d *Device) readBuffer(src *wgpu.Buffer, size uint64) ([]byte, error) {
	staging := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer staging.Release()

	encoder := d.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	d.queue.Submit(encoder.Finish(nil))

	if err := staging.MapAsync(d.device, wgpu.MapModeRead, 0, size); err != nil {
		return nil, &DeviceError{Op: "map staging buffer", Err: err}
	}
	mappedPtr := staging.GetMappedRange(0, size)
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	staging.Unmap()
	return result, nil
}

// appendScalar encodes one value at the device precision.
func appendScalar(buf []byte, p Precision, v float64) []byte {
	if p == Double {
		return binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	return binary.LittleEndian.AppendUint32(buf, math.Float32bits(float32(v)))
}

func workgroups(n int) uint32 {
	return uint32((n + workgroupSize - 1) / workgroupSize)
}
