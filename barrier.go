package plate

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v3/core1_0"
	"github.com/vkngwrapper/extensions/v3/khr_swapchain"
)

// transitionMasks holds the access scopes and pipeline stages for one
// side of a layout-transition barrier.
type transitionMasks struct {
	srcAccess core1_0.AccessFlags
	srcStage  core1_0.PipelineStageFlags
	dstAccess core1_0.AccessFlags
	dstStage  core1_0.PipelineStageFlags
}

type layoutPair struct {
	old, new core1_0.ImageLayout
}

// layoutTransitions maps each supported layout pair to the barrier masks
// that make the transition correct: the source side covers writes that
// must complete before the transition, the destination side the first
// stage allowed to observe the new layout.
var layoutTransitions = map[layoutPair]transitionMasks{
	{core1_0.ImageLayoutUndefined, core1_0.ImageLayoutTransferDstOptimal}: {
		srcAccess: 0,
		srcStage:  core1_0.PipelineStageTopOfPipe,
		dstAccess: core1_0.AccessTransferWrite,
		dstStage:  core1_0.PipelineStageTransfer,
	},
	{core1_0.ImageLayoutTransferDstOptimal, core1_0.ImageLayoutShaderReadOnlyOptimal}: {
		srcAccess: core1_0.AccessTransferWrite,
		srcStage:  core1_0.PipelineStageTransfer,
		dstAccess: core1_0.AccessShaderRead,
		dstStage:  core1_0.PipelineStageFragmentShader,
	},
	{core1_0.ImageLayoutUndefined, core1_0.ImageLayoutShaderReadOnlyOptimal}: {
		srcAccess: 0,
		srcStage:  core1_0.PipelineStageTopOfPipe,
		dstAccess: core1_0.AccessShaderRead,
		dstStage:  core1_0.PipelineStageFragmentShader,
	},
	{core1_0.ImageLayoutUndefined, core1_0.ImageLayoutColorAttachmentOptimal}: {
		srcAccess: 0,
		srcStage:  core1_0.PipelineStageTopOfPipe,
		dstAccess: core1_0.AccessColorAttachmentWrite,
		dstStage:  core1_0.PipelineStageColorAttachmentOutput,
	},
	{core1_0.ImageLayoutUndefined, core1_0.ImageLayoutDepthStencilAttachmentOptimal}: {
		srcAccess: 0,
		srcStage:  core1_0.PipelineStageTopOfPipe,
		dstAccess: core1_0.AccessDepthStencilAttachmentRead | core1_0.AccessDepthStencilAttachmentWrite,
		dstStage:  core1_0.PipelineStageEarlyFragmentTests,
	},
	{core1_0.ImageLayoutUndefined, khr_swapchain.ImageLayoutPresentSrc}: {
		srcAccess: 0,
		srcStage:  core1_0.PipelineStageTopOfPipe,
		dstAccess: 0,
		dstStage:  core1_0.PipelineStageBottomOfPipe,
	},
}

// transitionFor looks up the barrier masks for a layout pair, failing
// with ErrUnsupportedLayoutTransition for pairs outside the table.
func transitionFor(oldLayout, newLayout core1_0.ImageLayout) (transitionMasks, error) {
	masks, ok := layoutTransitions[layoutPair{oldLayout, newLayout}]
	if !ok {
		return transitionMasks{}, errors.Wrapf(ErrUnsupportedLayoutTransition, "%s -> %s", oldLayout, newLayout)
	}
	return masks, nil
}
