package plate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func testLimits() core1_0.PhysicalDeviceLimits {
	return core1_0.PhysicalDeviceLimits{
		MinUniformBufferOffsetAlignment: 256,
		MinStorageBufferOffsetAlignment: 64,
		NonCoherentAtomSize:             128,
	}
}

func TestAlignedStrideVertexPacksTightly(t *testing.T) {
	stride := alignedStride(12, core1_0.BufferUsageVertexBuffer, testLimits())
	assert.Equal(t, 12, stride)
}

func TestAlignedStrideUniformRoundsUp(t *testing.T) {
	limits := testLimits()

	assert.Equal(t, 256, alignedStride(12, core1_0.BufferUsageUniformBuffer, limits))
	assert.Equal(t, 256, alignedStride(256, core1_0.BufferUsageUniformBuffer, limits))
	assert.Equal(t, 512, alignedStride(257, core1_0.BufferUsageUniformBuffer, limits))
}

func TestAlignedStrideUniformUsesAtomSizeWhenLarger(t *testing.T) {
	limits := testLimits()
	limits.MinUniformBufferOffsetAlignment = 64

	// Non-coherent atom size of 128 dominates the 64 byte offset
	// alignment.
	assert.Equal(t, 128, alignedStride(12, core1_0.BufferUsageUniformBuffer, limits))
}

func TestAlignedStrideStorage(t *testing.T) {
	limits := testLimits()
	limits.NonCoherentAtomSize = 1

	assert.Equal(t, 64, alignedStride(33, core1_0.BufferUsageStorageBuffer, limits))
}

func TestAlignedStrideZeroLimits(t *testing.T) {
	assert.Equal(t, 12, alignedStride(12, core1_0.BufferUsageUniformBuffer, core1_0.PhysicalDeviceLimits{}))
}

// mappedBuffer builds a buffer with fake backing storage, bypassing the
// driver, so write and read paths can run without a GPU.
func mappedBuffer[T any](count, stride int) *Buffer[T] {
	return &Buffer[T]{
		count:  count,
		stride: stride,
		mapped: make([]byte, count*stride),
	}
}

func TestBufferWriteReadRoundTrip(t *testing.T) {
	buffer := mappedBuffer[uint32](4, 4)

	buffer.Write([]uint32{10, 20, 30, 40})

	for i, want := range []uint32{10, 20, 30, 40} {
		assert.Equal(t, want, buffer.At(i))
	}
}

func TestBufferWriteIndexLandsOnStride(t *testing.T) {
	// Stride is wider than the element, as with uniform alignment.
	buffer := mappedBuffer[uint32](4, 16)

	buffer.WriteIndex([]uint32{7, 8}, 2)

	assert.Equal(t, uint32(7), buffer.At(2))
	assert.Equal(t, uint32(8), buffer.At(3))

	// Bytes land at the stride boundary, not packed.
	assert.Equal(t, byte(7), buffer.mapped[2*16])
	assert.Equal(t, byte(8), buffer.mapped[3*16])
}

func TestBufferWriteEmpty(t *testing.T) {
	buffer := mappedBuffer[uint32](0, 4)
	assert.NotPanics(t, func() {
		buffer.Write(nil)
	})
}

func TestBufferWriteUnmappedPanics(t *testing.T) {
	buffer := &Buffer[uint32]{count: 4, stride: 4}
	assert.Panics(t, func() {
		buffer.Write([]uint32{1})
	})
}

func TestBufferWritePastCapacityPanics(t *testing.T) {
	buffer := mappedBuffer[uint32](4, 4)

	assert.Panics(t, func() {
		buffer.WriteIndex([]uint32{1, 2}, 3)
	})
	assert.Panics(t, func() {
		buffer.WriteIndex([]uint32{1}, -1)
	})
}

func TestBufferAtOutOfRangePanics(t *testing.T) {
	buffer := mappedBuffer[uint32](2, 4)

	assert.Panics(t, func() {
		buffer.At(2)
	})
}

func TestBufferStructElements(t *testing.T) {
	type vertex struct {
		X, Y, Z float32
	}

	buffer := mappedBuffer[vertex](3, 16)
	buffer.Write([]vertex{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})

	assert.Equal(t, vertex{4, 5, 6}, buffer.At(1))
}

func TestBufferDescriptorInfo(t *testing.T) {
	buffer := mappedBuffer[uint32](4, 256)

	info := buffer.DescriptorInfo(2)
	assert.Equal(t, 512, info.Offset)
	assert.Equal(t, 256, info.Range)
}

func TestBufferSizeAccessors(t *testing.T) {
	buffer := mappedBuffer[uint32](4, 256)

	require.Equal(t, 4, buffer.Count())
	require.Equal(t, 256, buffer.Stride())
	require.Equal(t, 1024, buffer.Size())
}
