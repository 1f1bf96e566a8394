package plate

import (
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Fence is a GPU-to-CPU synchronization primitive. Wait blocks the
// calling goroutine until the GPU signals it.
type Fence struct {
	device *Device
	id     uuid.UUID
	handle core1_0.Fence
}

// NewFence creates a fence, optionally already signaled. Frame fences
// start signaled so the first wait on each frame slot returns
// immediately.
func NewFence(device *Device, signaled bool) (*Fence, error) {
	var flags core1_0.FenceCreateFlags
	if signaled {
		flags = core1_0.FenceCreateSignaled
	}

	handle, _, err := device.driver.CreateFence(nil, core1_0.FenceCreateInfo{Flags: flags})
	if err != nil {
		return nil, err
	}

	return &Fence{
		device: device,
		id:     device.track("fence"),
		handle: handle,
	}, nil
}

// Wait blocks until the fence is signaled.
func (f *Fence) Wait() error {
	_, err := f.device.driver.WaitForFences(true, common.NoTimeout, f.handle)
	return err
}

// Reset returns the fence to the unsignaled state.
func (f *Fence) Reset() error {
	_, err := f.device.driver.ResetFences(f.handle)
	return err
}

// Handle returns the underlying fence.
func (f *Fence) Handle() core1_0.Fence { return f.handle }

// Destroy releases the fence.
func (f *Fence) Destroy() {
	if !f.handle.Initialized() {
		return
	}
	f.device.driver.DestroyFence(f.handle, nil)
	f.handle = core1_0.Fence{}
	f.device.untrack(f.id)
}

// Semaphore is a GPU-to-GPU synchronization primitive ordering queue
// operations against each other.
type Semaphore struct {
	device *Device
	id     uuid.UUID
	handle core1_0.Semaphore
}

// NewSemaphore creates a binary semaphore.
func NewSemaphore(device *Device) (*Semaphore, error) {
	handle, _, err := device.driver.CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		return nil, err
	}

	return &Semaphore{
		device: device,
		id:     device.track("semaphore"),
		handle: handle,
	}, nil
}

// Handle returns the underlying semaphore.
func (s *Semaphore) Handle() core1_0.Semaphore { return s.handle }

// Destroy releases the semaphore.
func (s *Semaphore) Destroy() {
	if !s.handle.Initialized() {
		return
	}
	s.device.driver.DestroySemaphore(s.handle, nil)
	s.handle = core1_0.Semaphore{}
	s.device.untrack(s.id)
}
