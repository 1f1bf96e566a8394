package plate

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
)

func TestPickDeviceIndexPrefersType(t *testing.T) {
	candidates := []deviceCandidate{
		{features: &core1_0.PhysicalDeviceFeatures{}, deviceType: core1_0.PhysicalDeviceTypeIntegratedGPU, usable: true},
		{features: &core1_0.PhysicalDeviceFeatures{}, deviceType: core1_0.PhysicalDeviceTypeDiscreteGPU, usable: true},
	}

	index, err := pickDeviceIndex(candidates, nil, core1_0.PhysicalDeviceTypeDiscreteGPU)
	require.NoError(t, err)
	assert.Equal(t, 1, index)
}

func TestPickDeviceIndexFallsBackToFirstUsable(t *testing.T) {
	candidates := []deviceCandidate{
		{features: &core1_0.PhysicalDeviceFeatures{}, deviceType: core1_0.PhysicalDeviceTypeIntegratedGPU, usable: false},
		{features: &core1_0.PhysicalDeviceFeatures{}, deviceType: core1_0.PhysicalDeviceTypeIntegratedGPU, usable: true},
		{features: &core1_0.PhysicalDeviceFeatures{}, deviceType: core1_0.PhysicalDeviceTypeVirtualGPU, usable: true},
	}

	index, err := pickDeviceIndex(candidates, nil, core1_0.PhysicalDeviceTypeDiscreteGPU)
	require.NoError(t, err)
	assert.Equal(t, 1, index)
}

func TestPickDeviceIndexFiltersMissingFeatures(t *testing.T) {
	required := &core1_0.PhysicalDeviceFeatures{SamplerAnisotropy: true}
	candidates := []deviceCandidate{
		{features: &core1_0.PhysicalDeviceFeatures{}, deviceType: core1_0.PhysicalDeviceTypeDiscreteGPU, usable: true},
		{features: &core1_0.PhysicalDeviceFeatures{SamplerAnisotropy: true}, deviceType: core1_0.PhysicalDeviceTypeIntegratedGPU, usable: true},
	}

	index, err := pickDeviceIndex(candidates, required, core1_0.PhysicalDeviceTypeDiscreteGPU)
	require.NoError(t, err)
	assert.Equal(t, 1, index)
}

func TestPickDeviceIndexNoneSuitable(t *testing.T) {
	required := &core1_0.PhysicalDeviceFeatures{GeometryShader: true}
	candidates := []deviceCandidate{
		{features: &core1_0.PhysicalDeviceFeatures{}, deviceType: core1_0.PhysicalDeviceTypeDiscreteGPU, usable: true},
		{features: &core1_0.PhysicalDeviceFeatures{GeometryShader: true}, usable: false},
	}

	_, err := pickDeviceIndex(candidates, required, core1_0.PhysicalDeviceTypeDiscreteGPU)
	assert.True(t, errors.Is(err, ErrNoSuitableDevice))
}

func TestPickDeviceIndexEmpty(t *testing.T) {
	_, err := pickDeviceIndex(nil, nil, core1_0.PhysicalDeviceTypeDiscreteGPU)
	assert.True(t, errors.Is(err, ErrNoSuitableDevice))
}

func TestSelectQueueFamilyLowestIndex(t *testing.T) {
	families := []*core1_0.QueueFamilyProperties{
		{QueueFlags: core1_0.QueueCompute},
		{QueueFlags: core1_0.QueueGraphics | core1_0.QueueCompute},
		{QueueFlags: core1_0.QueueGraphics},
	}

	index, err := selectQueueFamily(families, core1_0.QueueGraphics)
	require.NoError(t, err)
	assert.Equal(t, 1, index)
}

func TestSelectQueueFamilyRequiresAllFlags(t *testing.T) {
	families := []*core1_0.QueueFamilyProperties{
		{QueueFlags: core1_0.QueueGraphics},
		{QueueFlags: core1_0.QueueCompute},
		{QueueFlags: core1_0.QueueGraphics | core1_0.QueueCompute},
	}

	index, err := selectQueueFamily(families, core1_0.QueueGraphics|core1_0.QueueCompute)
	require.NoError(t, err)
	assert.Equal(t, 2, index)
}

func TestSelectQueueFamilyNotFound(t *testing.T) {
	families := []*core1_0.QueueFamilyProperties{
		{QueueFlags: core1_0.QueueTransfer},
	}

	_, err := selectQueueFamily(families, core1_0.QueueGraphics)
	assert.True(t, errors.Is(err, ErrQueueNotFound))
}

func TestMemoryTypeIndexRespectsTypeBits(t *testing.T) {
	types := []core1_0.MemoryType{
		{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent},
		{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent},
	}

	// Type 0 carries the right properties but is excluded by the bits.
	index, err := memoryTypeIndex(types, 0b10, core1_0.MemoryPropertyHostVisible)
	require.NoError(t, err)
	assert.Equal(t, 1, index)
}

func TestMemoryTypeIndexRequiresPropertySuperset(t *testing.T) {
	types := []core1_0.MemoryType{
		{PropertyFlags: core1_0.MemoryPropertyHostVisible},
		{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent},
		{PropertyFlags: core1_0.MemoryPropertyDeviceLocal},
	}

	index, err := memoryTypeIndex(types, 0b111, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent)
	require.NoError(t, err)
	assert.Equal(t, 1, index)
}

func TestMemoryTypeIndexFirstFit(t *testing.T) {
	types := []core1_0.MemoryType{
		{PropertyFlags: core1_0.MemoryPropertyDeviceLocal},
		{PropertyFlags: core1_0.MemoryPropertyDeviceLocal | core1_0.MemoryPropertyHostVisible},
	}

	index, err := memoryTypeIndex(types, 0b11, core1_0.MemoryPropertyDeviceLocal)
	require.NoError(t, err)
	assert.Equal(t, 0, index)
}

func TestMemoryTypeIndexNotFound(t *testing.T) {
	types := []core1_0.MemoryType{
		{PropertyFlags: core1_0.MemoryPropertyDeviceLocal},
	}

	_, err := memoryTypeIndex(types, 0b1, core1_0.MemoryPropertyHostVisible)
	assert.True(t, errors.Is(err, ErrMemoryTypeNotFound))
}

func TestFeaturesInclude(t *testing.T) {
	have := &core1_0.PhysicalDeviceFeatures{
		SamplerAnisotropy: true,
		GeometryShader:    true,
	}

	assert.True(t, featuresInclude(have, nil))
	assert.True(t, featuresInclude(have, &core1_0.PhysicalDeviceFeatures{}))
	assert.True(t, featuresInclude(have, &core1_0.PhysicalDeviceFeatures{SamplerAnisotropy: true}))
	assert.True(t, featuresInclude(have, have))
	assert.False(t, featuresInclude(have, &core1_0.PhysicalDeviceFeatures{ShaderFloat64: true}))
	assert.False(t, featuresInclude(nil, &core1_0.PhysicalDeviceFeatures{SamplerAnisotropy: true}))
	assert.False(t, featuresInclude(&core1_0.PhysicalDeviceFeatures{}, &core1_0.PhysicalDeviceFeatures{SamplerAnisotropy: true}))
}
