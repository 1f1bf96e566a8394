package plate

import (
	"unsafe"

	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

// Window abstracts the windowing system the swapchain presents to. The
// examples implement it over SDL2; any backend that can produce a Vulkan
// surface works.
type Window interface {
	// ProcAddr returns the vkGetInstanceProcAddr entrypoint supplied by
	// the windowing system's Vulkan loader.
	ProcAddr() unsafe.Pointer

	// InstanceExtensions returns the instance extensions the surface
	// requires on this platform.
	InstanceExtensions() []string

	// DrawableSize returns the current drawable size in pixels. It may
	// differ from the window size on high-DPI displays, and is re-read
	// on every swapchain (re)creation.
	DrawableSize() (width, height int)

	// CreateSurface builds a presentable surface for this window.
	CreateSurface(instance core1_0.Instance, surfaceDriver khr_surface.ExtensionDriver) (khr_surface.Surface, error)
}
