package plate

import (
	"image"
	"image/draw"

	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Texture is a sampled 2D image uploaded from host pixel data. After
// construction it sits in the shader-read-only layout, ready to bind
// through a combined image sampler descriptor.
type Texture struct {
	*Image
}

// NewTexture uploads RGBA pixel data (4 bytes per pixel, row-major)
// into a device-local sampled image. The upload stages through a
// host-visible buffer, transitions the image for transfer, copies, then
// transitions it for shader reads, blocking until each submission
// completes.
func NewTexture(device *Device, pool *CommandPool, width, height int, pixels []byte) (*Texture, error) {
	if len(pixels) != width*height*4 {
		panic("plate: texture pixel data does not match dimensions")
	}

	img, err := NewImage(device, width, height,
		core1_0.FormatR8G8B8A8SRGB,
		core1_0.ImageUsageTransferDst|core1_0.ImageUsageSampled,
		core1_0.ImageAspectColor)
	if err != nil {
		return nil, err
	}

	staging, err := NewBuffer[byte](device, len(pixels),
		core1_0.BufferUsageTransferSrc,
		core1_0.SharingModeExclusive,
		core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	if err != nil {
		img.Destroy()
		return nil, err
	}
	defer staging.Destroy()

	err = staging.Map()
	if err != nil {
		img.Destroy()
		return nil, err
	}
	staging.Write(pixels)
	staging.Unmap()

	err = img.TransitionLayout(pool, core1_0.ImageLayoutTransferDstOptimal)
	if err != nil {
		img.Destroy()
		return nil, err
	}

	err = device.oneTimeSubmit(pool, func(commandBuffer *CommandBuffer) error {
		return device.driver.CmdCopyBufferToImage(commandBuffer.handle, staging.handle, img.handle,
			core1_0.ImageLayoutTransferDstOptimal,
			core1_0.BufferImageCopy{
				BufferOffset:      0,
				BufferRowLength:   0,
				BufferImageHeight: 0,

				ImageSubresource: core1_0.ImageSubresourceLayers{
					AspectMask:     core1_0.ImageAspectColor,
					MipLevel:       0,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
				ImageOffset: core1_0.Offset3D{X: 0, Y: 0, Z: 0},
				ImageExtent: core1_0.Extent3D{Width: width, Height: height, Depth: 1},
			})
	})
	if err != nil {
		img.Destroy()
		return nil, err
	}

	err = img.TransitionLayout(pool, core1_0.ImageLayoutShaderReadOnlyOptimal)
	if err != nil {
		img.Destroy()
		return nil, err
	}

	return &Texture{Image: img}, nil
}

// NewTextureFromImage converts any decoded image to RGBA and uploads it.
func NewTextureFromImage(device *Device, pool *CommandPool, src image.Image) (*Texture, error) {
	bounds := src.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), src, bounds.Min, draw.Src)
	return NewTexture(device, pool, bounds.Dx(), bounds.Dy(), rgba.Pix)
}

// DescriptorInfo builds the combined image sampler binding info for this
// texture.
func (t *Texture) DescriptorInfo(sampler *Sampler) core1_0.DescriptorImageInfo {
	return core1_0.DescriptorImageInfo{
		Sampler:     sampler.handle,
		ImageView:   t.view,
		ImageLayout: core1_0.ImageLayoutShaderReadOnlyOptimal,
	}
}

// Sampler wraps a linear-filtering repeat-addressing sampler.
type Sampler struct {
	device *Device
	id     uuid.UUID
	handle core1_0.Sampler
}

// SamplerOptions customizes sampler creation. The zero value requests
// nearest filtering, repeat addressing and no anisotropy.
type SamplerOptions struct {
	MagFilter   core1_0.Filter
	MinFilter   core1_0.Filter
	AddressMode core1_0.SamplerAddressMode

	// Anisotropy enables anisotropic filtering at the device's maximum
	// supported level. The device must have been created with the
	// sampler anisotropy feature.
	Anisotropy bool
}

// NewSampler creates a sampler. A nil opts requests defaults.
func NewSampler(device *Device, opts *SamplerOptions) (*Sampler, error) {
	var options SamplerOptions
	if opts != nil {
		options = *opts
	}

	createInfo := core1_0.SamplerCreateInfo{
		MagFilter:    options.MagFilter,
		MinFilter:    options.MinFilter,
		AddressModeU: options.AddressMode,
		AddressModeV: options.AddressMode,
		AddressModeW: options.AddressMode,

		BorderColor: core1_0.BorderColorIntOpaqueBlack,

		MipmapMode: core1_0.SamplerMipmapModeLinear,
		MinLod:     0,
		MaxLod:     1,
	}
	if options.Anisotropy {
		createInfo.AnisotropyEnable = true
		createInfo.MaxAnisotropy = device.limits.MaxSamplerAnisotropy
	}

	handle, _, err := device.driver.CreateSampler(nil, createInfo)
	if err != nil {
		return nil, err
	}

	return &Sampler{
		device: device,
		id:     device.track("sampler"),
		handle: handle,
	}, nil
}

// Handle returns the underlying sampler.
func (s *Sampler) Handle() core1_0.Sampler { return s.handle }

// Destroy releases the sampler.
func (s *Sampler) Destroy() {
	if !s.handle.Initialized() {
		return
	}
	s.device.driver.DestroySampler(s.handle, nil)
	s.handle = core1_0.Sampler{}
	s.device.untrack(s.id)
}
