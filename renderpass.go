package plate

import (
	"github.com/google/uuid"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// Attachment describes one render pass attachment. Clear values are
// derived from the format: depth formats clear to depth 1.0, color
// formats to opaque black.
type Attachment struct {
	Format  core1_0.Format
	Samples core1_0.SampleCountFlags
	LoadOp  core1_0.AttachmentLoadOp
	StoreOp core1_0.AttachmentStoreOp

	InitialLayout core1_0.ImageLayout
	FinalLayout   core1_0.ImageLayout
}

// Subpass names the attachments one subpass reads and writes, by index
// into the render pass's attachment list.
type Subpass struct {
	ColorAttachments   []core1_0.AttachmentReference
	ResolveAttachments []core1_0.AttachmentReference
	InputAttachments   []core1_0.AttachmentReference

	// DepthAttachment is optional; nil means no depth testing.
	DepthAttachment *core1_0.AttachmentReference
}

// RenderPass wraps a render pass together with the clear values its
// attachments need at begin time.
type RenderPass struct {
	device *Device
	id     uuid.UUID
	handle core1_0.RenderPass

	clearValues []core1_0.ClearValue
}

// NewRenderPass creates a render pass from attachments, subpasses and
// explicit subpass dependencies.
func NewRenderPass(device *Device, attachments []Attachment, subpasses []Subpass, dependencies []core1_0.SubpassDependency) (*RenderPass, error) {
	descriptions := make([]core1_0.AttachmentDescription, len(attachments))
	clearValues := make([]core1_0.ClearValue, len(attachments))
	for i, attachment := range attachments {
		samples := attachment.Samples
		if samples == 0 {
			samples = core1_0.Samples1
		}
		descriptions[i] = core1_0.AttachmentDescription{
			Format:         attachment.Format,
			Samples:        samples,
			LoadOp:         attachment.LoadOp,
			StoreOp:        attachment.StoreOp,
			StencilLoadOp:  core1_0.AttachmentLoadOpDontCare,
			StencilStoreOp: core1_0.AttachmentStoreOpDontCare,
			InitialLayout:  attachment.InitialLayout,
			FinalLayout:    attachment.FinalLayout,
		}
		if isDepthFormat(attachment.Format) {
			clearValues[i] = core1_0.ClearValueDepthStencil{Depth: 1.0, Stencil: 0}
		} else {
			clearValues[i] = core1_0.ClearValueFloat{0, 0, 0, 1}
		}
	}

	subpassDescriptions := make([]core1_0.SubpassDescription, len(subpasses))
	for i, subpass := range subpasses {
		subpassDescriptions[i] = core1_0.SubpassDescription{
			PipelineBindPoint:      core1_0.PipelineBindPointGraphics,
			ColorAttachments:       subpass.ColorAttachments,
			ResolveAttachments:     subpass.ResolveAttachments,
			InputAttachments:       subpass.InputAttachments,
			DepthStencilAttachment: subpass.DepthAttachment,
		}
	}

	handle, _, err := device.driver.CreateRenderPass(nil, core1_0.RenderPassCreateInfo{
		Attachments:         descriptions,
		Subpasses:           subpassDescriptions,
		SubpassDependencies: dependencies,
	})
	if err != nil {
		return nil, err
	}

	return &RenderPass{
		device:      device,
		id:          device.track("render pass"),
		handle:      handle,
		clearValues: clearValues,
	}, nil
}

// Handle returns the underlying render pass for pipeline creation.
func (r *RenderPass) Handle() core1_0.RenderPass { return r.handle }

// Begin records a render pass begin into commandBuffer, clearing every
// attachment whose load op is clear and covering framebuffer's full
// extent.
func (r *RenderPass) Begin(commandBuffer *CommandBuffer, framebuffer *Framebuffer) error {
	return r.device.driver.CmdBeginRenderPass(commandBuffer.handle, core1_0.SubpassContentsInline, core1_0.RenderPassBeginInfo{
		RenderPass:  r.handle,
		Framebuffer: framebuffer.handle,
		RenderArea: core1_0.Rect2D{
			Offset: core1_0.Offset2D{X: 0, Y: 0},
			Extent: framebuffer.extent,
		},
		ClearValues: r.clearValues,
	})
}

// End records the render pass end into commandBuffer.
func (r *RenderPass) End(commandBuffer *CommandBuffer) {
	r.device.driver.CmdEndRenderPass(commandBuffer.handle)
}

// Destroy releases the render pass.
func (r *RenderPass) Destroy() {
	if !r.handle.Initialized() {
		return
	}
	r.device.driver.DestroyRenderPass(r.handle, nil)
	r.handle = core1_0.RenderPass{}
	r.device.untrack(r.id)
}

// Framebuffer binds image views to a render pass's attachments at a
// fixed extent.
type Framebuffer struct {
	device *Device
	id     uuid.UUID
	handle core1_0.Framebuffer
	extent core1_0.Extent2D
}

// NewFramebuffer creates a framebuffer over attachments, which must
// match renderPass's attachment list in order and count.
func NewFramebuffer(device *Device, renderPass *RenderPass, attachments []core1_0.ImageView, width, height int) (*Framebuffer, error) {
	handle, _, err := device.driver.CreateFramebuffer(nil, core1_0.FramebufferCreateInfo{
		RenderPass:  renderPass.handle,
		Layers:      1,
		Attachments: attachments,
		Width:       width,
		Height:      height,
	})
	if err != nil {
		return nil, err
	}

	return &Framebuffer{
		device: device,
		id:     device.track("framebuffer"),
		handle: handle,
		extent: core1_0.Extent2D{Width: width, Height: height},
	}, nil
}

// Extent returns the framebuffer's dimensions.
func (f *Framebuffer) Extent() core1_0.Extent2D { return f.extent }

// Destroy releases the framebuffer.
func (f *Framebuffer) Destroy() {
	if !f.handle.Initialized() {
		return
	}
	f.device.driver.DestroyFramebuffer(f.handle, nil)
	f.handle = core1_0.Framebuffer{}
	f.device.untrack(f.id)
}
