package plate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_surface"
)

func TestChooseSurfaceFormatPrefersSRGB(t *testing.T) {
	formats := []khr_surface.SurfaceFormat{
		{Format: core1_0.FormatR8G8B8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		{Format: core1_0.FormatB8G8R8A8SRGB, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
	}

	chosen := chooseSurfaceFormat(formats)
	assert.Equal(t, core1_0.FormatB8G8R8A8SRGB, chosen.Format)
}

func TestChooseSurfaceFormatFallsBackToFirst(t *testing.T) {
	formats := []khr_surface.SurfaceFormat{
		{Format: core1_0.FormatR8G8B8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
		{Format: core1_0.FormatB8G8R8A8UnsignedNormalized, ColorSpace: khr_surface.ColorSpaceSRGBNonlinear},
	}

	chosen := chooseSurfaceFormat(formats)
	assert.Equal(t, core1_0.FormatR8G8B8A8UnsignedNormalized, chosen.Format)
}

func TestPresentModeNative(t *testing.T) {
	assert.Equal(t, khr_surface.PresentModeFIFO, PresentModeFIFO.native())
	assert.Equal(t, khr_surface.PresentModeMailbox, PresentModeMailbox.native())
	assert.Equal(t, khr_surface.PresentModeImmediate, PresentModeImmediate.native())
	// The zero value must pace to vsync.
	var mode PresentMode
	assert.Equal(t, khr_surface.PresentModeFIFO, mode.native())
}

func TestChoosePresentModeHonorsPreference(t *testing.T) {
	modes := []khr_surface.PresentMode{
		khr_surface.PresentModeFIFO,
		khr_surface.PresentModeMailbox,
	}

	assert.Equal(t, khr_surface.PresentModeMailbox, choosePresentMode(modes, khr_surface.PresentModeMailbox))
}

func TestChoosePresentModeFallsBackToFIFO(t *testing.T) {
	modes := []khr_surface.PresentMode{
		khr_surface.PresentModeFIFO,
		khr_surface.PresentModeImmediate,
	}

	assert.Equal(t, khr_surface.PresentModeFIFO, choosePresentMode(modes, khr_surface.PresentModeMailbox))
}

func TestChooseExtentUsesSurfaceExtent(t *testing.T) {
	capabilities := &khr_surface.SurfaceCapabilities{
		CurrentExtent: core1_0.Extent2D{Width: 800, Height: 600},
	}

	extent := chooseExtent(capabilities, 1024, 768)
	assert.Equal(t, core1_0.Extent2D{Width: 800, Height: 600}, extent)
}

func TestChooseExtentClampsDrawableSize(t *testing.T) {
	capabilities := &khr_surface.SurfaceCapabilities{
		// -1 means the surface takes its size from the swapchain.
		CurrentExtent:  core1_0.Extent2D{Width: -1, Height: -1},
		MinImageExtent: core1_0.Extent2D{Width: 200, Height: 200},
		MaxImageExtent: core1_0.Extent2D{Width: 1920, Height: 1080},
	}

	assert.Equal(t, core1_0.Extent2D{Width: 1024, Height: 768}, chooseExtent(capabilities, 1024, 768))
	assert.Equal(t, core1_0.Extent2D{Width: 200, Height: 200}, chooseExtent(capabilities, 100, 50))
	assert.Equal(t, core1_0.Extent2D{Width: 1920, Height: 1080}, chooseExtent(capabilities, 4096, 4096))
}

func TestChooseImageCountOneOverMinimum(t *testing.T) {
	capabilities := &khr_surface.SurfaceCapabilities{
		MinImageCount: 2,
		MaxImageCount: 8,
	}

	assert.Equal(t, 3, chooseImageCount(capabilities))
}

func TestChooseImageCountUnbounded(t *testing.T) {
	// MaxImageCount of zero means no limit.
	capabilities := &khr_surface.SurfaceCapabilities{
		MinImageCount: 4,
		MaxImageCount: 0,
	}

	assert.Equal(t, 5, chooseImageCount(capabilities))
}

func TestChooseImageCountCappedAtMaximum(t *testing.T) {
	capabilities := &khr_surface.SurfaceCapabilities{
		MinImageCount: 3,
		MaxImageCount: 3,
	}

	assert.Equal(t, 3, chooseImageCount(capabilities))
}
