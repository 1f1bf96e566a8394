package plate

import "github.com/cockroachdb/errors"

// Sentinel errors returned by selection and presentation operations. Use
// errors.Is to test for them; driver errors pass through unchanged.
var (
	// ErrNoSuitableDevice indicates that no physical device supports the
	// required features and a presentable graphics queue.
	ErrNoSuitableDevice = errors.New("no suitable physical device")

	// ErrQueueNotFound indicates that no queue family exposes the
	// requested capability flags.
	ErrQueueNotFound = errors.New("no matching queue family")

	// ErrMemoryTypeNotFound indicates that no memory type matches both
	// the resource's type bits and the requested property flags.
	ErrMemoryTypeNotFound = errors.New("no matching memory type")

	// ErrNoSuitableDepthFormat indicates that none of the candidate depth
	// formats supports depth-stencil attachment with optimal tiling.
	ErrNoSuitableDepthFormat = errors.New("no supported depth format")

	// ErrSwapchainOutOfDate marks acquire/present failures caused by a
	// stale swapchain; the caller should recreate and retry.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")

	// ErrUnsupportedLayoutTransition indicates a layout pair outside the
	// known transition table.
	ErrUnsupportedLayoutTransition = errors.New("unsupported image layout transition")
)
