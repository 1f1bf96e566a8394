package plate

import (
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/common"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// PresentMode selects how presented frames are paced.
type PresentMode int

const (
	// PresentModeFIFO queues frames for vsync. Always supported.
	PresentModeFIFO PresentMode = iota
	// PresentModeMailbox replaces the queued frame instead of waiting,
	// running uncapped without tearing.
	PresentModeMailbox
	// PresentModeImmediate presents without waiting for vsync and may
	// tear.
	PresentModeImmediate
)

func (m PresentMode) native() khr_surface.PresentMode {
	switch m {
	case PresentModeMailbox:
		return khr_surface.PresentModeMailbox
	case PresentModeImmediate:
		return khr_surface.PresentModeImmediate
	default:
		return khr_surface.PresentModeFIFO
	}
}

// SwapchainOptions customizes swapchain creation. The zero value
// requests an SRGB surface format, FIFO presentation and a depth
// attachment.
type SwapchainOptions struct {
	// PresentMode is used when the surface supports it; otherwise FIFO,
	// which is always available.
	PresentMode PresentMode

	// NoDepth skips the depth image; the render pass then carries only
	// the color attachment.
	NoDepth bool
}

// Swapchain owns the presentable images for a window surface along with
// everything sized to them: one view and framebuffer per image, a
// shared depth image and the compatible render pass. Recreate rebuilds
// all of it after a resize.
type Swapchain struct {
	device *Device
	window Window
	id     uuid.UUID

	extension khr_swapchain.ExtensionDriver
	options   SwapchainOptions

	state      swapchainState
	generation uint64
}

// swapchainState is everything that is torn down and rebuilt together
// on recreation. A new state is fully built before it replaces the old
// one, so a failed recreation leaves the swapchain on its previous
// state.
type swapchainState struct {
	swapchain    khr_swapchain.Swapchain
	format       khr_surface.SurfaceFormat
	extent       core1_0.Extent2D
	images       []core1_0.Image
	views        []core1_0.ImageView
	depth        *Image
	renderPass   *RenderPass
	framebuffers []*Framebuffer
}

// NewSwapchain creates a swapchain for the device's surface sized to
// window's current drawable size. A nil opts requests defaults.
func NewSwapchain(device *Device, window Window, opts *SwapchainOptions) (*Swapchain, error) {
	var options SwapchainOptions
	if opts != nil {
		options = *opts
	}

	s := &Swapchain{
		device:    device,
		window:    window,
		extension: khr_swapchain.CreateExtensionDriverFromCoreDriver(device.driver),
		options:   options,
	}

	state, err := s.buildState(khr_swapchain.Swapchain{})
	if err != nil {
		return nil, err
	}

	s.state = state
	s.id = device.track("swapchain")
	return s, nil
}

func (s *Swapchain) buildState(oldSwapchain khr_swapchain.Swapchain) (swapchainState, error) {
	var state swapchainState

	capabilities, _, err := s.device.surfaceDriver.GetPhysicalDeviceSurfaceCapabilities(s.device.surface, s.device.physicalDevice)
	if err != nil {
		return state, err
	}
	formats, _, err := s.device.surfaceDriver.GetPhysicalDeviceSurfaceFormats(s.device.surface, s.device.physicalDevice)
	if err != nil {
		return state, err
	}
	presentModes, _, err := s.device.surfaceDriver.GetPhysicalDeviceSurfacePresentModes(s.device.surface, s.device.physicalDevice)
	if err != nil {
		return state, err
	}

	width, height := s.window.DrawableSize()
	state.format = chooseSurfaceFormat(formats)
	state.extent = chooseExtent(capabilities, width, height)
	presentMode := choosePresentMode(presentModes, s.options.PresentMode.native())

	sharingMode := core1_0.SharingModeExclusive
	var queueFamilyIndices []int
	if s.device.graphicsFamily != s.device.presentFamily {
		sharingMode = core1_0.SharingModeConcurrent
		queueFamilyIndices = []int{s.device.graphicsFamily, s.device.presentFamily}
	}

	state.swapchain, _, err = s.extension.CreateSwapchain(nil, khr_swapchain.SwapchainCreateInfo{
		Surface: s.device.surface,

		MinImageCount:    chooseImageCount(capabilities),
		ImageFormat:      state.format.Format,
		ImageColorSpace:  state.format.ColorSpace,
		ImageExtent:      state.extent,
		ImageArrayLayers: 1,
		ImageUsage:       core1_0.ImageUsageColorAttachment,

		ImageSharingMode:   sharingMode,
		QueueFamilyIndices: queueFamilyIndices,

		PreTransform:   capabilities.CurrentTransform,
		CompositeAlpha: khr_surface.CompositeAlphaOpaque,
		PresentMode:    presentMode,
		Clipped:        true,

		OldSwapchain: oldSwapchain,
	})
	if err != nil {
		return state, err
	}

	state.images, _, err = s.extension.GetSwapchainImages(state.swapchain)
	if err != nil {
		s.destroyState(&state)
		return state, err
	}

	for _, image := range state.images {
		view, _, err := s.device.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
			Image:    image,
			ViewType: core1_0.ImageViewType2D,
			Format:   state.format.Format,
			SubresourceRange: core1_0.ImageSubresourceRange{
				AspectMask:     core1_0.ImageAspectColor,
				BaseMipLevel:   0,
				LevelCount:     1,
				BaseArrayLayer: 0,
				LayerCount:     1,
			},
		})
		if err != nil {
			s.destroyState(&state)
			return state, err
		}
		state.views = append(state.views, view)
	}

	attachments := []Attachment{
		{
			Format:        state.format.Format,
			LoadOp:        core1_0.AttachmentLoadOpClear,
			StoreOp:       core1_0.AttachmentStoreOpStore,
			InitialLayout: core1_0.ImageLayoutUndefined,
			FinalLayout:   khr_swapchain.ImageLayoutPresentSrc,
		},
	}
	subpass := Subpass{
		ColorAttachments: []core1_0.AttachmentReference{
			{Attachment: 0, Layout: core1_0.ImageLayoutColorAttachmentOptimal},
		},
	}
	dependency := core1_0.SubpassDependency{
		SrcSubpass: core1_0.SubpassExternal,
		DstSubpass: 0,

		SrcStageMask:  core1_0.PipelineStageColorAttachmentOutput,
		SrcAccessMask: 0,

		DstStageMask:  core1_0.PipelineStageColorAttachmentOutput,
		DstAccessMask: core1_0.AccessColorAttachmentWrite,
	}

	if !s.options.NoDepth {
		format, err := depthFormat(s.device)
		if err != nil {
			s.destroyState(&state)
			return state, err
		}

		state.depth, err = NewImage(s.device, state.extent.Width, state.extent.Height,
			format,
			core1_0.ImageUsageDepthStencilAttachment,
			core1_0.ImageAspectDepth)
		if err != nil {
			s.destroyState(&state)
			return state, err
		}

		attachments = append(attachments, Attachment{
			Format:        format,
			LoadOp:        core1_0.AttachmentLoadOpClear,
			StoreOp:       core1_0.AttachmentStoreOpDontCare,
			InitialLayout: core1_0.ImageLayoutUndefined,
			FinalLayout:   core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.DepthAttachment = &core1_0.AttachmentReference{
			Attachment: 1,
			Layout:     core1_0.ImageLayoutDepthStencilAttachmentOptimal,
		}
		dependency.SrcStageMask |= core1_0.PipelineStageEarlyFragmentTests
		dependency.DstStageMask |= core1_0.PipelineStageEarlyFragmentTests
		dependency.DstAccessMask |= core1_0.AccessDepthStencilAttachmentWrite
	}

	state.renderPass, err = NewRenderPass(s.device, attachments, []Subpass{subpass}, []core1_0.SubpassDependency{dependency})
	if err != nil {
		s.destroyState(&state)
		return state, err
	}

	for _, view := range state.views {
		framebufferAttachments := []core1_0.ImageView{view}
		if state.depth != nil {
			framebufferAttachments = append(framebufferAttachments, state.depth.view)
		}

		framebuffer, err := NewFramebuffer(s.device, state.renderPass, framebufferAttachments, state.extent.Width, state.extent.Height)
		if err != nil {
			s.destroyState(&state)
			return state, err
		}
		state.framebuffers = append(state.framebuffers, framebuffer)
	}

	return state, nil
}

func (s *Swapchain) destroyState(state *swapchainState) {
	for _, framebuffer := range state.framebuffers {
		framebuffer.Destroy()
	}
	if state.renderPass != nil {
		state.renderPass.Destroy()
	}
	if state.depth != nil {
		state.depth.Destroy()
	}
	for _, view := range state.views {
		s.device.driver.DestroyImageView(view, nil)
	}
	if state.swapchain.Initialized() {
		s.extension.DestroySwapchain(state.swapchain, nil)
	}
	*state = swapchainState{}
}

// Recreate rebuilds the swapchain and everything sized to it at the
// window's current drawable size, waiting for the device to go idle
// first. On failure the previous state stays in place. A zero drawable
// size (minimized window) is a no-op.
func (s *Swapchain) Recreate() error {
	width, height := s.window.DrawableSize()
	if width == 0 || height == 0 {
		return nil
	}

	err := s.device.WaitIdle()
	if err != nil {
		return err
	}

	state, err := s.buildState(s.state.swapchain)
	if err != nil {
		return err
	}

	s.destroyState(&s.state)
	s.state = state
	s.generation++
	return nil
}

// AcquireImage acquires the next presentable image, signaling signal
// (optional) when the image is ready to render to. It returns the image
// index and whether the swapchain is suboptimal for the surface. A
// stale swapchain fails with ErrSwapchainOutOfDate.
func (s *Swapchain) AcquireImage(signal *Semaphore) (int, bool, error) {
	var semaphoreHandle *core1_0.Semaphore
	if signal != nil {
		semaphoreHandle = &signal.handle
	}

	imageIndex, res, err := s.extension.AcquireNextImage(s.state.swapchain, common.NoTimeout, semaphoreHandle, nil)
	if res == khr_swapchain.VKErrorOutOfDate {
		return 0, false, errors.Mark(err, ErrSwapchainOutOfDate)
	}
	if err != nil {
		return 0, false, err
	}
	return imageIndex, res == khr_swapchain.VKSuboptimal, nil
}

// PresentImage queues image imageIndex for presentation after wait
// (optional) signals. It reports whether the swapchain is suboptimal
// for the surface; a stale swapchain fails with ErrSwapchainOutOfDate.
func (s *Swapchain) PresentImage(imageIndex int, wait *Semaphore) (bool, error) {
	presentInfo := khr_swapchain.PresentInfo{
		Swapchains:   []khr_swapchain.Swapchain{s.state.swapchain},
		ImageIndices: []int{imageIndex},
	}
	if wait != nil {
		presentInfo.WaitSemaphores = []core1_0.Semaphore{wait.handle}
	}

	res, err := s.extension.QueuePresent(s.device.presentQueue, presentInfo)
	if res == khr_swapchain.VKErrorOutOfDate {
		return false, errors.Mark(err, ErrSwapchainOutOfDate)
	}
	if err != nil {
		return false, err
	}
	return res == khr_swapchain.VKSuboptimal, nil
}

// ImageCount returns the number of presentable images.
func (s *Swapchain) ImageCount() int { return len(s.state.images) }

// Extent returns the swapchain images' dimensions.
func (s *Swapchain) Extent() core1_0.Extent2D { return s.state.extent }

// AspectRatio returns width over height for projection matrices.
func (s *Swapchain) AspectRatio() float32 {
	return float32(s.state.extent.Width) / float32(s.state.extent.Height)
}

// Format returns the swapchain images' format.
func (s *Swapchain) Format() core1_0.Format { return s.state.format.Format }

// Generation increments every time Recreate succeeds. Resources sized
// to the swapchain can compare generations to notice staleness.
func (s *Swapchain) Generation() uint64 { return s.generation }

// RenderPass returns a render pass compatible with the swapchain's
// framebuffers: color attachment 0 in present-src final layout, plus
// the depth attachment unless disabled.
func (s *Swapchain) RenderPass() *RenderPass { return s.state.renderPass }

// Framebuffer returns the framebuffer for image imageIndex.
func (s *Swapchain) Framebuffer(imageIndex int) *Framebuffer {
	return s.state.framebuffers[imageIndex]
}

// BeginRenderPass records the swapchain's render pass begin targeting
// image imageIndex.
func (s *Swapchain) BeginRenderPass(commandBuffer *CommandBuffer, imageIndex int) error {
	return s.state.renderPass.Begin(commandBuffer, s.state.framebuffers[imageIndex])
}

// EndRenderPass records the render pass end.
func (s *Swapchain) EndRenderPass(commandBuffer *CommandBuffer) {
	s.state.renderPass.End(commandBuffer)
}

// Destroy releases the swapchain and everything sized to it.
func (s *Swapchain) Destroy() {
	if !s.state.swapchain.Initialized() {
		return
	}
	s.destroyState(&s.state)
	s.device.untrack(s.id)
}

// chooseSurfaceFormat prefers an SRGB format with the SRGB nonlinear
// color space, falling back to the first advertised format.
func chooseSurfaceFormat(formats []khr_surface.SurfaceFormat) khr_surface.SurfaceFormat {
	for _, format := range formats {
		if format.Format == core1_0.FormatB8G8R8A8SRGB && format.ColorSpace == khr_surface.ColorSpaceSRGBNonlinear {
			return format
		}
	}
	return formats[0]
}

// choosePresentMode returns preferred when the surface supports it,
// otherwise FIFO, which the surface always supports.
func choosePresentMode(modes []khr_surface.PresentMode, preferred khr_surface.PresentMode) khr_surface.PresentMode {
	for _, mode := range modes {
		if mode == preferred {
			return mode
		}
	}
	return khr_surface.PresentModeFIFO
}

// chooseExtent uses the surface's fixed extent when it has one,
// otherwise the drawable size clamped to the surface bounds.
func chooseExtent(capabilities *khr_surface.SurfaceCapabilities, width, height int) core1_0.Extent2D {
	if capabilities.CurrentExtent.Width != -1 {
		return capabilities.CurrentExtent
	}

	if width < capabilities.MinImageExtent.Width {
		width = capabilities.MinImageExtent.Width
	}
	if width > capabilities.MaxImageExtent.Width {
		width = capabilities.MaxImageExtent.Width
	}
	if height < capabilities.MinImageExtent.Height {
		height = capabilities.MinImageExtent.Height
	}
	if height > capabilities.MaxImageExtent.Height {
		height = capabilities.MaxImageExtent.Height
	}

	return core1_0.Extent2D{Width: width, Height: height}
}

// chooseImageCount requests one image beyond the minimum so rendering
// rarely stalls on the presentation engine, capped at the surface's
// maximum when it has one.
func chooseImageCount(capabilities *khr_surface.SurfaceCapabilities) int {
	count := capabilities.MinImageCount + 1
	if capabilities.MaxImageCount > 0 && count > capabilities.MaxImageCount {
		count = capabilities.MaxImageCount
	}
	return count
}
