package webgpu

import (
	"encoding/binary"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderKernelSubstitutesScalar(t *testing.T) {
	for _, kernel := range []string{feeKernel, analyticKernel} {
		for _, p := range []Precision{Single, Double} {
			src := renderKernel(kernel, p)
			assert.NotContains(t, src, "SCALAR")
			assert.Contains(t, src, "vec2<"+p.scalar()+">")
		}
	}
}

func TestRenderKernelPrecisionsDiffer(t *testing.T) {
	assert.NotEqual(t, renderKernel(feeKernel, Single), renderKernel(feeKernel, Double))
}

func TestKernelEntryPoints(t *testing.T) {
	for _, kernel := range []string{feeKernel, analyticKernel} {
		src := renderKernel(kernel, Single)
		assert.Contains(t, src, "@compute @workgroup_size(64")
		assert.Contains(t, src, "fn main(")
	}
}

func TestKernelName(t *testing.T) {
	assert.Equal(t, "fee_f32", kernelName("fee", Single))
	assert.Equal(t, "analytic_f64", kernelName("analytic", Double))
}

func TestPrecision(t *testing.T) {
	assert.Equal(t, "single", Single.String())
	assert.Equal(t, "double", Double.String())
	assert.Equal(t, "f32", Single.scalar())
	assert.Equal(t, "f64", Double.scalar())
	assert.Equal(t, 4, Single.size())
	assert.Equal(t, 8, Double.size())
}

func TestWorkgroups(t *testing.T) {
	assert.Equal(t, uint32(0), workgroups(0))
	assert.Equal(t, uint32(1), workgroups(1))
	assert.Equal(t, uint32(1), workgroups(64))
	assert.Equal(t, uint32(2), workgroups(65))
}

func TestAppendScalar(t *testing.T) {
	buf := appendScalar(nil, Single, 1.5)
	assert.Len(t, buf, 4)
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(buf)))

	buf = appendScalar(nil, Double, 1.5)
	assert.Len(t, buf, 8)
	assert.Equal(t, 1.5, math.Float64frombits(binary.LittleEndian.Uint64(buf)))
}

func TestEncodeI32(t *testing.T) {
	buf := encodeI32([]int32{0, 1, -1})
	assert.Len(t, buf, 12)
	assert.Equal(t, uint32(0), binary.LittleEndian.Uint32(buf[0:4]))
	assert.Equal(t, uint32(1), binary.LittleEndian.Uint32(buf[4:8]))
	assert.Equal(t, int32(-1), int32(binary.LittleEndian.Uint32(buf[8:12])))
}

func TestFeeKernelBindingCount(t *testing.T) {
	// WebGPU's default limit is eight storage buffers per stage; the kernel
	// must stay at or below it.
	src := renderKernel(feeKernel, Single)
	assert.LessOrEqual(t, strings.Count(src, "var<storage"), 8)
}
