package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rendertarget/engine/core"
)

type VulkanCommandBufferState int

const (
	COMMAND_BUFFER_STATE_READY VulkanCommandBufferState = iota
	COMMAND_BUFFER_STATE_RECORDING
	COMMAND_BUFFER_STATE_IN_RENDER_PASS
	COMMAND_BUFFER_STATE_RECORDING_ENDED
	COMMAND_BUFFER_STATE_SUBMITTED
	COMMAND_BUFFER_STATE_NOT_ALLOCATED
)

func (s VulkanCommandBufferState) String() string {
	switch s {
	case COMMAND_BUFFER_STATE_READY:
		return "ready"
	case COMMAND_BUFFER_STATE_RECORDING:
		return "recording"
	case COMMAND_BUFFER_STATE_IN_RENDER_PASS:
		return "in_render_pass"
	case COMMAND_BUFFER_STATE_RECORDING_ENDED:
		return "recording_ended"
	case COMMAND_BUFFER_STATE_SUBMITTED:
		return "submitted"
	case COMMAND_BUFFER_STATE_NOT_ALLOCATED:
		return "not_allocated"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// CommandBuffer is a command stream together with its recording state. The
// state is what BeginPass and EndPass use to reject calls made out of turn.
type CommandBuffer struct {
	Handle vk.CommandBuffer
	// Command buffer state.
	State VulkanCommandBufferState

	recorder CommandRecorder
}

// NewCommandBuffer wraps an arbitrary recorder. The buffer starts in the ready
// state.
func NewCommandBuffer(recorder CommandRecorder) *CommandBuffer {
	return &CommandBuffer{
		State:    COMMAND_BUFFER_STATE_READY,
		recorder: recorder,
	}
}

func AllocateCommandBuffer(context *VulkanContext, pool vk.CommandPool, isPrimary bool) (*CommandBuffer, error) {
	level := vk.CommandBufferLevelPrimary
	if !isPrimary {
		level = vk.CommandBufferLevelSecondary
	}

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		CommandBufferCount: 1,
		Level:              level,
	}

	handles := make([]vk.CommandBuffer, 1)
	if err := checkResult("allocate command buffer", vk.AllocateCommandBuffers(context.Device.LogicalDevice, &allocateInfo, handles)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	return &CommandBuffer{
		Handle:   handles[0],
		State:    COMMAND_BUFFER_STATE_READY,
		recorder: vkRecorder{handle: handles[0]},
	}, nil
}

func (v *CommandBuffer) Free(context *VulkanContext, pool vk.CommandPool) {
	if v.Handle != nil {
		vk.FreeCommandBuffers(context.Device.LogicalDevice, pool, 1, []vk.CommandBuffer{v.Handle})
		v.Handle = nil
	}
	v.State = COMMAND_BUFFER_STATE_NOT_ALLOCATED
}

func (v *CommandBuffer) Begin(isSingleUse, isRenderpassContinue, isSimultaneousUse bool) error {
	if v.State != COMMAND_BUFFER_STATE_READY {
		err := fmt.Errorf("cannot begin command buffer in state %s", v.State)
		core.LogError("%s", err)
		return err
	}

	var flags vk.CommandBufferUsageFlags
	if isSingleUse {
		flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit)
	}
	if isRenderpassContinue {
		flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageRenderPassContinueBit)
	}
	if isSimultaneousUse {
		flags |= vk.CommandBufferUsageFlags(vk.CommandBufferUsageSimultaneousUseBit)
	}

	if err := v.recorder.Begin(flags); err != nil {
		core.LogError("%s", err)
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}

// End finishes recording. Ending while a pass is still open is a protocol
// violation.
func (v *CommandBuffer) End() error {
	switch v.State {
	case COMMAND_BUFFER_STATE_RECORDING:
	case COMMAND_BUFFER_STATE_IN_RENDER_PASS:
		err := fmt.Errorf("%w: command buffer ended inside a render pass", core.ErrRenderPassProtocol)
		core.LogError("%s", err)
		return err
	default:
		err := fmt.Errorf("cannot end command buffer in state %s", v.State)
		core.LogError("%s", err)
		return err
	}

	if err := v.recorder.End(); err != nil {
		core.LogError("%s", err)
		return err
	}
	v.State = COMMAND_BUFFER_STATE_RECORDING_ENDED
	return nil
}

func (v *CommandBuffer) UpdateSubmitted() {
	v.State = COMMAND_BUFFER_STATE_SUBMITTED
}

func (v *CommandBuffer) Reset() {
	v.State = COMMAND_BUFFER_STATE_READY
}

// Submit hands the recorded buffer to queue and signals fence on completion.
func (v *CommandBuffer) Submit(queue vk.Queue, fence *VulkanFence) error {
	if v.State != COMMAND_BUFFER_STATE_RECORDING_ENDED {
		err := fmt.Errorf("cannot submit command buffer in state %s", v.State)
		core.LogError("%s", err)
		return err
	}

	submitInfo := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{v.Handle},
	}
	var handle vk.Fence
	if fence != nil {
		handle = fence.Handle
	}
	if err := checkResult("queue submit", vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submitInfo}, handle)); err != nil {
		core.LogError("%s", err)
		return err
	}
	v.UpdateSubmitted()
	return nil
}

// AllocateAndBeginSingleUse allocates a primary command buffer and begins
// recording it for one submission.
func AllocateAndBeginSingleUse(context *VulkanContext, pool vk.CommandPool) (*CommandBuffer, error) {
	cb, err := AllocateCommandBuffer(context, pool, true)
	if err != nil {
		return nil, err
	}
	if err := cb.Begin(true, false, false); err != nil {
		cb.Free(context, pool)
		return nil, err
	}
	return cb, nil
}

// EndSingleUse ends recording, submits to queue, waits for it to go idle and
// frees the command buffer.
func (v *CommandBuffer) EndSingleUse(context *VulkanContext, pool vk.CommandPool, queue vk.Queue) error {
	defer v.Free(context, pool)

	if err := v.End(); err != nil {
		return err
	}
	if err := v.Submit(queue, nil); err != nil {
		return err
	}
	if err := checkResult("queue wait idle", vk.QueueWaitIdle(queue)); err != nil {
		core.LogError("%s", err)
		return err
	}
	return nil
}

// vkRecorder records straight into a native command buffer.
type vkRecorder struct {
	handle vk.CommandBuffer
}

func (r vkRecorder) Begin(flags vk.CommandBufferUsageFlags) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: flags,
	}
	return checkResult("begin command buffer", vk.BeginCommandBuffer(r.handle, &beginInfo))
}

func (r vkRecorder) End() error {
	return checkResult("end command buffer", vk.EndCommandBuffer(r.handle))
}

func (r vkRecorder) BeginRenderPass(info PassBeginInfo) {
	clearValues := make([]vk.ClearValue, len(info.ClearValues))
	for i, cv := range info.ClearValues {
		if i < info.ColorCount {
			clearValues[i].SetColor(cv.Color[:])
		} else {
			clearValues[i].SetDepthStencil(cv.Depth, cv.Stencil)
		}
	}

	beginInfo := vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      info.RenderPass,
		Framebuffer:     info.Framebuffer,
		RenderArea:      info.RenderArea.vulkan(),
		ClearValueCount: uint32(len(clearValues)),
		PClearValues:    clearValues,
	}
	vk.CmdBeginRenderPass(r.handle, &beginInfo, vk.SubpassContentsInline)
}

func (r vkRecorder) SetViewport(viewport Viewport) {
	vk.CmdSetViewport(r.handle, 0, 1, []vk.Viewport{viewport.vulkan()})
}

func (r vkRecorder) SetScissor(scissor Rect) {
	vk.CmdSetScissor(r.handle, 0, 1, []vk.Rect2D{scissor.vulkan()})
}

func (r vkRecorder) EndRenderPass() {
	vk.CmdEndRenderPass(r.handle)
}
