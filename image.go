package plate

import (
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Image is a 2D device image with bound memory, a view over its full
// subresource range, and a tracked current layout.
type Image struct {
	device *Device
	id     uuid.UUID

	handle core1_0.Image
	memory core1_0.DeviceMemory
	view   core1_0.ImageView

	width  int
	height int
	format core1_0.Format
	aspect core1_0.ImageAspectFlags
	layout core1_0.ImageLayout
}

// NewImage creates an optimally-tiled single-mip 2D image in
// device-local memory, in the undefined layout.
func NewImage(device *Device, width, height int, format core1_0.Format, usage core1_0.ImageUsageFlags, aspect core1_0.ImageAspectFlags) (*Image, error) {
	handle, _, err := device.driver.CreateImage(nil, core1_0.ImageCreateInfo{
		ImageType: core1_0.ImageType2D,
		Extent: core1_0.Extent3D{
			Width:  width,
			Height: height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Format:        format,
		Tiling:        core1_0.ImageTilingOptimal,
		InitialLayout: core1_0.ImageLayoutUndefined,
		Usage:         usage,
		SharingMode:   core1_0.SharingModeExclusive,
		Samples:       core1_0.Samples1,
	})
	if err != nil {
		return nil, err
	}

	requirements := device.driver.GetImageMemoryRequirements(handle)
	typeIndex, err := memoryTypeIndex(device.memoryTypes, requirements.MemoryTypeBits, core1_0.MemoryPropertyDeviceLocal)
	if err != nil {
		device.driver.DestroyImage(handle, nil)
		return nil, err
	}

	memory, _, err := device.driver.AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: typeIndex,
	})
	if err != nil {
		device.driver.DestroyImage(handle, nil)
		return nil, err
	}

	_, err = device.driver.BindImageMemory(handle, memory, 0)
	if err != nil {
		device.driver.DestroyImage(handle, nil)
		device.driver.FreeMemory(memory, nil)
		return nil, err
	}

	view, _, err := device.driver.CreateImageView(nil, core1_0.ImageViewCreateInfo{
		Image:    handle,
		ViewType: core1_0.ImageViewType2D,
		Format:   format,
		SubresourceRange: core1_0.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	})
	if err != nil {
		device.driver.DestroyImage(handle, nil)
		device.driver.FreeMemory(memory, nil)
		return nil, err
	}

	return &Image{
		device: device,
		id:     device.track("image"),
		handle: handle,
		memory: memory,
		view:   view,
		width:  width,
		height: height,
		format: format,
		aspect: aspect,
		layout: core1_0.ImageLayoutUndefined,
	}, nil
}

// Width returns the image width in pixels.
func (i *Image) Width() int { return i.width }

// Height returns the image height in pixels.
func (i *Image) Height() int { return i.height }

// Format returns the image's pixel format.
func (i *Image) Format() core1_0.Format { return i.format }

// Layout returns the image's current tracked layout.
func (i *Image) Layout() core1_0.ImageLayout { return i.layout }

// Handle returns the underlying image.
func (i *Image) Handle() core1_0.Image { return i.handle }

// View returns the view over the image's full subresource range.
func (i *Image) View() core1_0.ImageView { return i.view }

// TransitionLayout records and submits a pipeline barrier moving the
// image from its current layout to newLayout, blocking until the queue
// is idle. Layout pairs outside the supported table fail with
// ErrUnsupportedLayoutTransition and leave the image untouched.
func (i *Image) TransitionLayout(pool *CommandPool, newLayout core1_0.ImageLayout) error {
	masks, err := transitionFor(i.layout, newLayout)
	if err != nil {
		return err
	}

	err = i.device.oneTimeSubmit(pool, func(commandBuffer *CommandBuffer) error {
		return i.device.driver.CmdPipelineBarrier(commandBuffer.handle,
			masks.srcStage, masks.dstStage, 0, nil, nil,
			[]core1_0.ImageMemoryBarrier{
				{
					OldLayout:           i.layout,
					NewLayout:           newLayout,
					SrcQueueFamilyIndex: -1,
					DstQueueFamilyIndex: -1,
					Image:               i.handle,
					SubresourceRange: core1_0.ImageSubresourceRange{
						AspectMask:     i.aspect,
						BaseMipLevel:   0,
						LevelCount:     1,
						BaseArrayLayer: 0,
						LayerCount:     1,
					},
					SrcAccessMask: masks.srcAccess,
					DstAccessMask: masks.dstAccess,
				},
			})
	})
	if err != nil {
		return err
	}

	i.layout = newLayout
	return nil
}

// Destroy releases the view, the image and its memory.
func (i *Image) Destroy() {
	if !i.handle.Initialized() {
		return
	}
	i.device.driver.DestroyImageView(i.view, nil)
	i.device.driver.DestroyImage(i.handle, nil)
	i.device.driver.FreeMemory(i.memory, nil)
	i.handle = core1_0.Image{}
	i.device.untrack(i.id)
}

// depthFormat returns the first depth format that supports depth-stencil
// attachment use with optimal tiling.
func depthFormat(device *Device) (core1_0.Format, error) {
	candidates := []core1_0.Format{
		core1_0.FormatD32SignedFloat,
		core1_0.FormatD32SignedFloatS8UnsignedInt,
		core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
	}
	for _, format := range candidates {
		properties := device.instanceDriver.GetPhysicalDeviceFormatProperties(device.physicalDevice, format)
		if properties.OptimalTilingFeatures&core1_0.FormatFeatureDepthStencilAttachment == core1_0.FormatFeatureDepthStencilAttachment {
			return format, nil
		}
	}
	return 0, ErrNoSuitableDepthFormat
}

// isDepthFormat reports whether format carries a depth aspect.
func isDepthFormat(format core1_0.Format) bool {
	switch format {
	case core1_0.FormatD32SignedFloat,
		core1_0.FormatD32SignedFloatS8UnsignedInt,
		core1_0.FormatD24UnsignedNormalizedS8UnsignedInt,
		core1_0.FormatD16UnsignedNormalized:
		return true
	}
	return false
}
