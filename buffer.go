package plate

import (
	"unsafe"

	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Buffer is a typed device buffer of count elements of T. Elements are
// laid out at a fixed stride: sizeof(T) rounded up to the alignment the
// buffer's usage demands, so element i can always be bound at offset
// i*Stride.
type Buffer[T any] struct {
	device *Device
	id     uuid.UUID

	handle core1_0.Buffer
	memory core1_0.DeviceMemory

	count  int
	stride int
	usage  core1_0.BufferUsageFlags

	mapped []byte
}

// NewBuffer allocates a buffer for count elements of T with the given
// usage and binds fresh memory with the requested properties to it.
func NewBuffer[T any](device *Device, count int, usage core1_0.BufferUsageFlags, sharingMode core1_0.SharingMode, properties core1_0.MemoryPropertyFlags) (*Buffer[T], error) {
	var element T
	stride := alignedStride(int(unsafe.Sizeof(element)), usage, device.limits)

	handle, _, err := device.driver.CreateBuffer(nil, core1_0.BufferCreateInfo{
		Size:        stride * count,
		Usage:       usage,
		SharingMode: sharingMode,
	})
	if err != nil {
		return nil, err
	}

	requirements := device.driver.GetBufferMemoryRequirements(handle)
	typeIndex, err := memoryTypeIndex(device.memoryTypes, requirements.MemoryTypeBits, properties)
	if err != nil {
		device.driver.DestroyBuffer(handle, nil)
		return nil, err
	}

	memory, _, err := device.driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: typeIndex,
	})
	if err != nil {
		device.driver.DestroyBuffer(handle, nil)
		return nil, err
	}

	_, err = device.driver.BindBufferMemory(handle, memory, 0)
	if err != nil {
		device.driver.DestroyBuffer(handle, nil)
		device.driver.FreeMemory(memory, nil)
		return nil, err
	}

	return &Buffer[T]{
		device: device,
		id:     device.track("buffer"),
		handle: handle,
		memory: memory,
		count:  count,
		stride: stride,
		usage:  usage,
	}, nil
}

// NewVertexBuffer uploads data into a device-local vertex buffer through
// a transient staging buffer submitted on pool's queue. It blocks until
// the copy completes.
func NewVertexBuffer[T any](device *Device, pool *CommandPool, data []T) (*Buffer[T], error) {
	return newDeviceLocalBuffer(device, pool, data, core1_0.BufferUsageVertexBuffer)
}

// NewIndexBuffer uploads data into a device-local index buffer through a
// transient staging buffer submitted on pool's queue. It blocks until
// the copy completes.
func NewIndexBuffer[T any](device *Device, pool *CommandPool, data []T) (*Buffer[T], error) {
	return newDeviceLocalBuffer(device, pool, data, core1_0.BufferUsageIndexBuffer)
}

// NewUniformBuffer allocates a host-visible, host-coherent uniform
// buffer of count elements, suitable for per-frame updates through Map
// and Write.
func NewUniformBuffer[T any](device *Device, count int) (*Buffer[T], error) {
	return NewBuffer[T](device, count,
		core1_0.BufferUsageUniformBuffer,
		core1_0.SharingModeExclusive,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
}

func newDeviceLocalBuffer[T any](device *Device, pool *CommandPool, data []T, usage core1_0.BufferUsageFlags) (*Buffer[T], error) {
	staging, err := NewBuffer[T](device, len(data),
		core1_0.BufferUsageTransferSrc,
		core1_0.SharingModeExclusive,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		return nil, err
	}
	defer staging.Destroy()

	err = staging.Map()
	if err != nil {
		return nil, err
	}
	staging.Write(data)
	staging.Unmap()

	buffer, err := NewBuffer[T](device, len(data),
		core1_0.BufferUsageTransferDst|usage,
		core1_0.SharingModeExclusive,
		core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		return nil, err
	}

	err = staging.CopyTo(pool, buffer)
	if err != nil {
		buffer.Destroy()
		return nil, err
	}

	return buffer, nil
}

// Count returns the number of elements the buffer holds.
func (b *Buffer[T]) Count() int { return b.count }

// Stride returns the aligned per-element size in bytes.
func (b *Buffer[T]) Stride() int { return b.stride }

// Size returns the buffer's total size in bytes.
func (b *Buffer[T]) Size() int { return b.stride * b.count }

// Handle returns the underlying buffer for binding commands.
func (b *Buffer[T]) Handle() core1_0.Buffer { return b.handle }

// Map maps the whole allocation for host access. The mapping stays valid
// until Unmap or Destroy.
func (b *Buffer[T]) Map() error {
	ptr, _, err := b.device.driver.MapMemory(b.memory, 0, b.stride*b.count, 0)
	if err != nil {
		return err
	}
	b.mapped = unsafe.Slice((*byte)(ptr), b.stride*b.count)
	return nil
}

// Unmap releases the host mapping.
func (b *Buffer[T]) Unmap() {
	if b.mapped == nil {
		return
	}
	b.device.driver.UnmapMemory(b.memory)
	b.mapped = nil
}

// Write copies data into the mapped buffer starting at element 0. The
// buffer must be mapped and data must fit; violations are programmer
// errors and panic.
func (b *Buffer[T]) Write(data []T) {
	b.WriteIndex(data, 0)
}

// WriteIndex copies data into the mapped buffer starting at element
// index. Each element lands on its stride-aligned slot. The buffer must
// be mapped and index+len(data) must not exceed Count; violations are
// programmer errors and panic.
func (b *Buffer[T]) WriteIndex(data []T, index int) {
	if b.mapped == nil {
		panic("plate: write to unmapped buffer")
	}
	if index < 0 || index+len(data) > b.count {
		panic("plate: buffer write out of range")
	}
	for i := range data {
		src := unsafe.Slice((*byte)(unsafe.Pointer(&data[i])), int(unsafe.Sizeof(data[i])))
		copy(b.mapped[(index+i)*b.stride:], src)
	}
}

// At reads back element index from the mapped buffer.
func (b *Buffer[T]) At(index int) T {
	if b.mapped == nil {
		panic("plate: read from unmapped buffer")
	}
	if index < 0 || index >= b.count {
		panic("plate: buffer read out of range")
	}
	var element T
	dst := unsafe.Slice((*byte)(unsafe.Pointer(&element)), int(unsafe.Sizeof(element)))
	copy(dst, b.mapped[index*b.stride:])
	return element
}

// Flush makes every mapped write visible to the device. Only needed for
// memory without the host-coherent property.
func (b *Buffer[T]) Flush() error {
	return b.FlushRange(0, b.count)
}

// FlushRange makes writes to count elements starting at index visible to
// the device.
func (b *Buffer[T]) FlushRange(index, count int) error {
	if index < 0 || index+count > b.count {
		panic("plate: buffer flush out of range")
	}
	_, err := b.device.driver.FlushMappedMemoryRanges(core1_0.MappedMemoryRange{
		Memory: b.memory,
		Offset: index * b.stride,
		Size:   count * b.stride,
	})
	return err
}

// CopyTo copies the buffer's full contents into dst on the GPU, blocking
// until the transfer finishes. Both buffers must hold the same element
// type and dst must be at least as large.
func (b *Buffer[T]) CopyTo(pool *CommandPool, dst *Buffer[T]) error {
	return b.device.oneTimeSubmit(pool, func(commandBuffer *CommandBuffer) error {
		return b.device.driver.CmdCopyBuffer(commandBuffer.handle, b.handle, dst.handle, core1_0.BufferCopy{
			SrcOffset: 0,
			DstOffset: 0,
			Size:      b.stride * b.count,
		})
	})
}

// DescriptorInfo builds the descriptor binding info for element index,
// covering a single element.
func (b *Buffer[T]) DescriptorInfo(index int) core1_0.DescriptorBufferInfo {
	return core1_0.DescriptorBufferInfo{
		Buffer: b.handle,
		Offset: index * b.stride,
		Range:  b.stride,
	}
}

// Destroy unmaps, destroys the buffer and frees its memory.
func (b *Buffer[T]) Destroy() {
	if !b.handle.Initialized() {
		return
	}
	b.Unmap()
	b.device.driver.DestroyBuffer(b.handle, nil)
	b.device.driver.FreeMemory(b.memory, nil)
	b.handle = core1_0.Buffer{}
	b.device.untrack(b.id)
}

// alignedStride rounds elementSize up to the offset alignment the usage
// requires. Uniform and storage buffers align each element so it can be
// bound on its own; other usages pack tightly. Alignments from the
// device limits are powers of two.
func alignedStride(elementSize int, usage core1_0.BufferUsageFlags, limits core1_0.PhysicalDeviceLimits) int {
	alignment := 1
	switch {
	case usage&core1_0.BufferUsageUniformBuffer != 0:
		alignment = maxInt(limits.MinUniformBufferOffsetAlignment, limits.NonCoherentAtomSize)
	case usage&core1_0.BufferUsageStorageBuffer != 0:
		alignment = maxInt(limits.MinStorageBufferOffsetAlignment, limits.NonCoherentAtomSize)
	}
	if alignment <= 1 {
		return elementSize
	}
	return (elementSize + alignment - 1) &^ (alignment - 1)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
