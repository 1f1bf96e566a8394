package plate

import (
	"github.com/vkngwrapper/core/v3/core1_0"
)

// FrameFence is the CPU wait point guarding one in-flight frame slot.
// *Fence implements it; tests substitute fakes.
type FrameFence interface {
	Wait() error
	Reset() error
	Handle() core1_0.Fence
	Destroy()
}

// frameQueue is the GPU-facing side of the frame protocol: acquiring an
// image, submitting a frame and presenting it. The real implementation
// drives a Device and Swapchain pair.
type frameQueue interface {
	AcquireImage(signal *Semaphore) (int, bool, error)
	SubmitFrame(commandBuffer *CommandBuffer, wait, signal *Semaphore, fence FrameFence) error
	PresentImage(imageIndex int, wait *Semaphore) (bool, error)
}

// swapchainQueue adapts a Device and Swapchain to the frame protocol.
type swapchainQueue struct {
	device    *Device
	swapchain *Swapchain
}

func (q swapchainQueue) AcquireImage(signal *Semaphore) (int, bool, error) {
	return q.swapchain.AcquireImage(signal)
}

func (q swapchainQueue) SubmitFrame(commandBuffer *CommandBuffer, wait, signal *Semaphore, fence FrameFence) error {
	return q.device.SubmitFrame(commandBuffer, wait, signal, fence)
}

func (q swapchainQueue) PresentImage(imageIndex int, wait *Semaphore) (bool, error) {
	return q.swapchain.PresentImage(imageIndex, wait)
}

// Frames runs the acquire/submit/present cycle across a fixed number of
// overlapping frame slots. Each slot owns a fence, an acquire semaphore
// and a render semaphore; the fence blocks re-use of the slot until the
// GPU finishes its previous frame.
//
// The cycle per frame is Begin, record commands, Submit, Present. All
// methods must be called from the goroutine that owns GPU submission.
type Frames struct {
	queue frameQueue

	fences      []FrameFence
	acquireSems []*Semaphore
	renderSems  []*Semaphore

	current int
}

// NewFrames creates inFlight frame slots for rendering to swapchain.
// The slot count is capped at the swapchain's image count; more slots
// than images cannot overlap anyway. Fences start signaled so every
// slot's first Begin proceeds immediately.
func NewFrames(device *Device, swapchain *Swapchain, inFlight int) (*Frames, error) {
	if count := swapchain.ImageCount(); inFlight > count {
		inFlight = count
	}
	if inFlight < 1 {
		inFlight = 1
	}

	f := &Frames{
		queue: swapchainQueue{device: device, swapchain: swapchain},
	}

	for i := 0; i < inFlight; i++ {
		fence, err := NewFence(device, true)
		if err != nil {
			f.Destroy()
			return nil, err
		}
		f.fences = append(f.fences, fence)

		acquire, err := NewSemaphore(device)
		if err != nil {
			f.Destroy()
			return nil, err
		}
		f.acquireSems = append(f.acquireSems, acquire)

		render, err := NewSemaphore(device)
		if err != nil {
			f.Destroy()
			return nil, err
		}
		f.renderSems = append(f.renderSems, render)
	}

	return f, nil
}

// SlotCount returns the number of overlapping frame slots.
func (f *Frames) SlotCount() int { return len(f.fences) }

// Current returns the index of the slot the next Begin will use.
func (f *Frames) Current() int { return f.current }

// Begin waits for the current slot's previous frame to finish, resets
// its fence and acquires the next presentable image. It returns the
// image index and whether the swapchain is suboptimal; on
// ErrSwapchainOutOfDate the fence is left signaled so the slot can
// Begin again after recreation.
func (f *Frames) Begin() (int, bool, error) {
	fence := f.fences[f.current]

	err := fence.Wait()
	if err != nil {
		return 0, false, err
	}

	imageIndex, suboptimal, err := f.queue.AcquireImage(f.acquireSems[f.current])
	if err != nil {
		return 0, false, err
	}

	err = fence.Reset()
	if err != nil {
		return 0, false, err
	}

	return imageIndex, suboptimal, nil
}

// Submit enqueues the frame's command buffer: rendering waits on the
// slot's acquired image, signals the slot's render semaphore and the
// slot's fence.
func (f *Frames) Submit(commandBuffer *CommandBuffer) error {
	return f.queue.SubmitFrame(commandBuffer, f.acquireSems[f.current], f.renderSems[f.current], f.fences[f.current])
}

// Present queues image imageIndex for presentation once the slot's
// render semaphore signals, then advances to the next slot. It reports
// whether the swapchain is suboptimal; the slot advances even then, as
// the frame was presented.
func (f *Frames) Present(imageIndex int) (bool, error) {
	suboptimal, err := f.queue.PresentImage(imageIndex, f.renderSems[f.current])
	if err != nil {
		return false, err
	}
	f.current = (f.current + 1) % len(f.fences)
	return suboptimal, nil
}

// Destroy releases every slot's fence and semaphores.
func (f *Frames) Destroy() {
	for _, fence := range f.fences {
		fence.Destroy()
	}
	for _, semaphore := range f.acquireSems {
		semaphore.Destroy()
	}
	for _, semaphore := range f.renderSems {
		semaphore.Destroy()
	}
	f.fences = nil
	f.acquireSems = nil
	f.renderSems = nil
}
