package plate

import (
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// CommandPool allocates command buffers on the device's graphics queue
// family. Buffers allocated from it may be re-recorded individually.
type CommandPool struct {
	device *Device
	id     uuid.UUID
	handle core1_0.CommandPool
}

// NewCommandPool creates a command pool on the graphics queue family.
func NewCommandPool(device *Device) (*CommandPool, error) {
	handle, _, err := device.driver.CreateCommandPool(nil, core1_0.CommandPoolCreateInfo{
		Flags:            core1_0.CommandPoolCreateResetBuffer,
		QueueFamilyIndex: device.graphicsFamily,
	})
	if err != nil {
		return nil, err
	}

	return &CommandPool{
		device: device,
		id:     device.track("command pool"),
		handle: handle,
	}, nil
}

// Alloc allocates a single command buffer from the pool.
func (p *CommandPool) Alloc(level core1_0.CommandBufferLevel) (*CommandBuffer, error) {
	buffers, err := p.AllocN(level, 1)
	if err != nil {
		return nil, err
	}
	return buffers[0], nil
}

// AllocN allocates count command buffers from the pool.
func (p *CommandPool) AllocN(level core1_0.CommandBufferLevel, count int) ([]*CommandBuffer, error) {
	handles, _, err := p.device.driver.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        p.handle,
		Level:              level,
		CommandBufferCount: count,
	})
	if err != nil {
		return nil, err
	}

	buffers := make([]*CommandBuffer, len(handles))
	for i, handle := range handles {
		buffers[i] = &CommandBuffer{device: p.device, handle: handle}
	}
	return buffers, nil
}

// Destroy releases the pool and every buffer allocated from it.
func (p *CommandPool) Destroy() {
	if !p.handle.Initialized() {
		return
	}
	p.device.driver.DestroyCommandPool(p.handle, nil)
	p.handle = core1_0.CommandPool{}
	p.device.untrack(p.id)
}

// CommandBuffer wraps a command buffer allocated from a CommandPool.
// Recording commands beyond Begin/End goes through the device driver
// with Handle.
type CommandBuffer struct {
	device *Device
	handle core1_0.CommandBuffer
}

// Handle returns the underlying command buffer for recording commands.
func (c *CommandBuffer) Handle() core1_0.CommandBuffer { return c.handle }

// Begin starts recording. Re-beginning a previously recorded buffer
// resets it first.
func (c *CommandBuffer) Begin(flags core1_0.CommandBufferUsageFlags) error {
	_, err := c.device.driver.BeginCommandBuffer(c.handle, core1_0.CommandBufferBeginInfo{
		Flags: flags,
	})
	return err
}

// End finishes recording.
func (c *CommandBuffer) End() error {
	_, err := c.device.driver.EndCommandBuffer(c.handle)
	return err
}

// Record brackets fn between Begin and End.
func (c *CommandBuffer) Record(flags core1_0.CommandBufferUsageFlags, fn func() error) error {
	err := c.Begin(flags)
	if err != nil {
		return err
	}
	err = fn()
	if err != nil {
		return err
	}
	return c.End()
}

// Free returns the buffer to its pool.
func (c *CommandBuffer) Free() {
	c.device.driver.FreeCommandBuffers(c.handle)
}
