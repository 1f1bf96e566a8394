/*
Package plate is a convenience layer over Vulkan command submission for
interactive rendering. It wraps the vkngwrapper core API with types that
make the hard parts of resource use tractable without hiding the driver:

  - Device selection and logical-device creation, with the memory-type
    table and device limits cached for allocation decisions.
  - Memory-backed resources (Buffer, Image, Texture) with aligned strides,
    mapped writes, staged host-to-device uploads and explicit image layout
    transitions.
  - Swapchain creation and recreation, including the shared depth image,
    render pass and per-image framebuffers.
  - Frame synchronization: per-slot fences and semaphores driving the
    acquire/submit/present cycle across overlapping frames.

Ownership follows the device: every resource holds a reference to the
Device that created it, and the native device is torn down only after the
last referent is destroyed. All waits (fence, queue idle, device idle)
block the calling goroutine; a single goroutine is expected to submit all
GPU work.

Pipelines, descriptor sets and shader modules are deliberately left to the
caller. The examples directory shows how to combine this package with raw
vkngwrapper calls for those.
*/
package plate
