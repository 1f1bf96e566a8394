package plate

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

func TestTransitionForUndefinedToTransferDst(t *testing.T) {
	masks, err := transitionFor(core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal)
	require.NoError(t, err)

	assert.Equal(t, core1_0.AccessFlags(0), masks.srcAccess)
	assert.Equal(t, core1_0.PipelineStageTopOfPipe, masks.srcStage)
	assert.Equal(t, core1_0.AccessTransferWrite, masks.dstAccess)
	assert.Equal(t, core1_0.PipelineStageTransfer, masks.dstStage)
}

func TestTransitionForTransferDstToShaderRead(t *testing.T) {
	masks, err := transitionFor(core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutShaderReadOnlyOptimal)
	require.NoError(t, err)

	assert.Equal(t, core1_0.AccessTransferWrite, masks.srcAccess)
	assert.Equal(t, core1_0.PipelineStageTransfer, masks.srcStage)
	assert.Equal(t, core1_0.AccessShaderRead, masks.dstAccess)
	assert.Equal(t, core1_0.PipelineStageFragmentShader, masks.dstStage)
}

func TestTransitionForUndefinedToDepthAttachment(t *testing.T) {
	masks, err := transitionFor(core1_0.ImageLayoutUndefined, core1_0.ImageLayoutDepthStencilAttachmentOptimal)
	require.NoError(t, err)

	assert.Equal(t, core1_0.AccessDepthStencilAttachmentRead|core1_0.AccessDepthStencilAttachmentWrite, masks.dstAccess)
	assert.Equal(t, core1_0.PipelineStageEarlyFragmentTests, masks.dstStage)
}

func TestTransitionForUndefinedToPresent(t *testing.T) {
	masks, err := transitionFor(core1_0.ImageLayoutUndefined, khr_swapchain.ImageLayoutPresentSrc)
	require.NoError(t, err)

	assert.Equal(t, core1_0.AccessFlags(0), masks.dstAccess)
	assert.Equal(t, core1_0.PipelineStageBottomOfPipe, masks.dstStage)
}

func TestTransitionForUnsupportedPair(t *testing.T) {
	_, err := transitionFor(core1_0.ImageLayoutShaderReadOnlyOptimal, core1_0.ImageLayoutTransferDstOptimal)
	assert.True(t, errors.Is(err, ErrUnsupportedLayoutTransition))

	_, err = transitionFor(core1_0.ImageLayoutColorAttachmentOptimal, core1_0.ImageLayoutUndefined)
	assert.True(t, errors.Is(err, ErrUnsupportedLayoutTransition))
}

func TestIsDepthFormat(t *testing.T) {
	assert.True(t, isDepthFormat(core1_0.FormatD32SignedFloat))
	assert.True(t, isDepthFormat(core1_0.FormatD24UnsignedNormalizedS8UnsignedInt))
	assert.False(t, isDepthFormat(core1_0.FormatB8G8R8A8SRGB))
	assert.False(t, isDepthFormat(core1_0.FormatR8G8B8A8SRGB))
}
