package plate

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
)

// deviceCandidate is the per-physical-device information that drives
// selection, gathered up front so the choice itself is a pure function.
type deviceCandidate struct {
	features   *core1_0.PhysicalDeviceFeatures
	deviceType core1_0.PhysicalDeviceType

	// usable means the device has a graphics queue family, can present
	// to the target surface and supports the swapchain extension.
	usable bool
}

// pickDeviceIndex selects a physical device from candidates. Devices
// missing any required feature, or unable to present, are skipped. Among
// the remainder a device of the preferred type wins; otherwise the first
// survivor does.
func pickDeviceIndex(candidates []deviceCandidate, required *core1_0.PhysicalDeviceFeatures, preferred core1_0.PhysicalDeviceType) (int, error) {
	first := -1
	for i, c := range candidates {
		if !c.usable || !featuresInclude(c.features, required) {
			continue
		}
		if c.deviceType == preferred {
			return i, nil
		}
		if first < 0 {
			first = i
		}
	}
	if first < 0 {
		return 0, ErrNoSuitableDevice
	}
	return first, nil
}

// selectQueueFamily returns the lowest-index family whose flags contain
// all of the requested capabilities.
func selectQueueFamily(families []*core1_0.QueueFamilyProperties, capabilities core1_0.QueueFlags) (int, error) {
	for i, family := range families {
		if family.QueueFlags&capabilities == capabilities {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrQueueNotFound, "capabilities 0x%x", int(capabilities))
}

// memoryTypeIndex returns the first memory type that both appears in the
// resource's allowed-type bits and carries every requested property flag.
// First fit matters: drivers order types from most to least specific.
func memoryTypeIndex(types []core1_0.MemoryType, typeBits uint32, properties core1_0.MemoryPropertyFlags) (int, error) {
	for i, t := range types {
		if typeBits&(1<<uint(i)) == 0 {
			continue
		}
		if t.PropertyFlags&properties == properties {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrMemoryTypeNotFound, "properties 0x%x", int(properties))
}

// featuresInclude reports whether every feature enabled in want is also
// available in have.
func featuresInclude(have, want *core1_0.PhysicalDeviceFeatures) bool {
	if want == nil {
		return true
	}
	if have == nil {
		return false
	}
	pairs := [][2]bool{
		{have.RobustBufferAccess, want.RobustBufferAccess},
		{have.FullDrawIndexUint32, want.FullDrawIndexUint32},
		{have.ImageCubeArray, want.ImageCubeArray},
		{have.IndependentBlend, want.IndependentBlend},
		{have.GeometryShader, want.GeometryShader},
		{have.TessellationShader, want.TessellationShader},
		{have.SampleRateShading, want.SampleRateShading},
		{have.DualSrcBlend, want.DualSrcBlend},
		{have.LogicOp, want.LogicOp},
		{have.MultiDrawIndirect, want.MultiDrawIndirect},
		{have.DrawIndirectFirstInstance, want.DrawIndirectFirstInstance},
		{have.DepthClamp, want.DepthClamp},
		{have.DepthBiasClamp, want.DepthBiasClamp},
		{have.FillModeNonSolid, want.FillModeNonSolid},
		{have.DepthBounds, want.DepthBounds},
		{have.WideLines, want.WideLines},
		{have.LargePoints, want.LargePoints},
		{have.AlphaToOne, want.AlphaToOne},
		{have.MultiViewport, want.MultiViewport},
		{have.SamplerAnisotropy, want.SamplerAnisotropy},
		{have.TextureCompressionEtc2, want.TextureCompressionEtc2},
		{have.TextureCompressionAstcLdc, want.TextureCompressionAstcLdc},
		{have.TextureCompressionBc, want.TextureCompressionBc},
		{have.OcclusionQueryPrecise, want.OcclusionQueryPrecise},
		{have.PipelineStatisticsQuery, want.PipelineStatisticsQuery},
		{have.VertexPipelineStoresAndAtomics, want.VertexPipelineStoresAndAtomics},
		{have.FragmentStoresAndAtomics, want.FragmentStoresAndAtomics},
		{have.ShaderTessellationAndGeometryPointSize, want.ShaderTessellationAndGeometryPointSize},
		{have.ShaderImageGatherExtended, want.ShaderImageGatherExtended},
		{have.ShaderStorageImageExtendedFormats, want.ShaderStorageImageExtendedFormats},
		{have.ShaderStorageImageMultisample, want.ShaderStorageImageMultisample},
		{have.ShaderStorageImageReadWithoutFormat, want.ShaderStorageImageReadWithoutFormat},
		{have.ShaderStorageImageWriteWithoutFormat, want.ShaderStorageImageWriteWithoutFormat},
		{have.ShaderUniformBufferArrayDynamicIndexing, want.ShaderUniformBufferArrayDynamicIndexing},
		{have.ShaderSampledImageArrayDynamicIndexing, want.ShaderSampledImageArrayDynamicIndexing},
		{have.ShaderStorageBufferArrayDynamicIndexing, want.ShaderStorageBufferArrayDynamicIndexing},
		{have.ShaderStorageImageArrayDynamicIndexing, want.ShaderStorageImageArrayDynamicIndexing},
		{have.ShaderClipDistance, want.ShaderClipDistance},
		{have.ShaderCullDistance, want.ShaderCullDistance},
		{have.ShaderFloat64, want.ShaderFloat64},
		{have.ShaderInt64, want.ShaderInt64},
		{have.ShaderInt16, want.ShaderInt16},
		{have.ShaderResourceResidency, want.ShaderResourceResidency},
		{have.ShaderResourceMinLod, want.ShaderResourceMinLod},
		{have.SparseBinding, want.SparseBinding},
		{have.SparseResidencyBuffer, want.SparseResidencyBuffer},
		{have.SparseResidencyImage2D, want.SparseResidencyImage2D},
		{have.SparseResidencyImage3D, want.SparseResidencyImage3D},
		{have.SparseResidency2Samples, want.SparseResidency2Samples},
		{have.SparseResidency4Samples, want.SparseResidency4Samples},
		{have.SparseResidency8Samples, want.SparseResidency8Samples},
		{have.SparseResidency16Samples, want.SparseResidency16Samples},
		{have.SparseResidencyAliased, want.SparseResidencyAliased},
		{have.VariableMultisampleRate, want.VariableMultisampleRate},
		{have.InheritedQueries, want.InheritedQueries},
	}
	for _, p := range pairs {
		if p[1] && !p[0] {
			return false
		}
	}
	return true
}
