package vulkan

import (
	"fmt"

	"github.com/spaghettifunk/rendertarget/engine/core"
)

// Attachment binds an image view to a pass together with the value it is
// cleared to. The clear value is not part of the framebuffer identity.
type Attachment struct {
	View       ImageView
	ClearValue ClearValue
}

type PassInfo struct {
	Framebuffer *Framebuffer
	RenderPass  *RenderPass
}

// BeginPass resolves the framebuffer for the given attachments and records the
// begin-pass, viewport and scissor commands, in that order, into cb. The
// command buffer must be recording and outside of a pass.
func (c *FramebufferCache) BeginPass(cb *CommandBuffer, colors []Attachment, depth *Attachment, renderPass *RenderPass, extent Extent) (PassInfo, error) {
	if cb.State != COMMAND_BUFFER_STATE_RECORDING {
		err := fmt.Errorf("%w: begin pass on a command buffer in state %s", core.ErrRenderPassProtocol, cb.State)
		core.LogError("%s", err)
		return PassInfo{}, err
	}

	colorViews := make([]ImageView, len(colors))
	for i := range colors {
		colorViews[i] = colors[i].View
	}
	var depthView ImageView
	if depth != nil {
		if depth.View == nil {
			err := fmt.Errorf("%w: depth attachment has no image view", core.ErrAttachmentMismatch)
			core.LogError("%s", err)
			return PassInfo{}, err
		}
		depthView = depth.View
	}

	key, err := NewFramebufferKey(renderPass, colorViews, depthView, extent)
	if err != nil {
		core.LogError("%s", err)
		return PassInfo{}, err
	}
	framebuffer, err := c.GetFramebuffer(key)
	if err != nil {
		return PassInfo{}, err
	}

	// Same order as the attachment indices of the render pass.
	clearValues := make([]ClearValue, 0, len(colors)+1)
	for _, color := range colors {
		clearValues = append(clearValues, color.ClearValue)
	}
	if depth != nil {
		clearValues = append(clearValues, depth.ClearValue)
	}

	area := Rect{X: 0, Y: 0, Width: extent.Width, Height: extent.Height}
	cb.recorder.BeginRenderPass(PassBeginInfo{
		RenderPass:  renderPass.Handle(),
		Framebuffer: framebuffer.Handle(),
		RenderArea:  area,
		ClearValues: clearValues,
		ColorCount:  len(colors),
	})
	cb.recorder.SetViewport(Viewport{
		X:        0,
		Y:        0,
		Width:    float32(extent.Width),
		Height:   float32(extent.Height),
		MinDepth: 0.0,
		MaxDepth: 1.0,
	})
	cb.recorder.SetScissor(area)
	cb.State = COMMAND_BUFFER_STATE_IN_RENDER_PASS

	return PassInfo{Framebuffer: framebuffer, RenderPass: renderPass}, nil
}

// EndPass records the end of the current pass into cb.
func (c *FramebufferCache) EndPass(cb *CommandBuffer) error {
	if cb.State != COMMAND_BUFFER_STATE_IN_RENDER_PASS {
		err := fmt.Errorf("%w: end pass on a command buffer in state %s", core.ErrRenderPassProtocol, cb.State)
		core.LogError("%s", err)
		return err
	}
	cb.recorder.EndRenderPass()
	cb.State = COMMAND_BUFFER_STATE_RECORDING
	return nil
}
