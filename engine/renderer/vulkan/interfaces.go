package vulkan

import (
	vk "github.com/goki/vulkan"
)

// Device creates and destroys the native objects owned by the caches.
type Device interface {
	CreateRenderPass(attachments []vk.AttachmentDescription, subpass vk.SubpassDescription) (vk.RenderPass, error)
	DestroyRenderPass(renderPass vk.RenderPass)
	CreateFramebuffer(views []vk.ImageView, renderPass vk.RenderPass, width, height, layers uint32) (vk.Framebuffer, error)
	DestroyFramebuffer(framebuffer vk.Framebuffer)
}

// ImageView is an image view owned elsewhere. The handle is used as the view's
// identity, so it must stay stable for as long as the view is alive.
type ImageView interface {
	Handle() vk.ImageView
	Format() vk.Format
}

// CommandRecorder is the sink a CommandBuffer records into.
type CommandRecorder interface {
	Begin(flags vk.CommandBufferUsageFlags) error
	End() error
	BeginRenderPass(info PassBeginInfo)
	SetViewport(viewport Viewport)
	SetScissor(scissor Rect)
	EndRenderPass()
}

type Extent struct {
	Width  uint32
	Height uint32
}

func (e Extent) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

type Rect struct {
	X, Y          int32
	Width, Height uint32
}

func (r Rect) vulkan() vk.Rect2D {
	return vk.Rect2D{
		Offset: vk.Offset2D{X: r.X, Y: r.Y},
		Extent: vk.Extent2D{Width: r.Width, Height: r.Height},
	}
}

type Viewport struct {
	X, Y, Width, Height float32
	MinDepth, MaxDepth  float32
}

func (v Viewport) vulkan() vk.Viewport {
	return vk.Viewport{
		X:        v.X,
		Y:        v.Y,
		Width:    v.Width,
		Height:   v.Height,
		MinDepth: v.MinDepth,
		MaxDepth: v.MaxDepth,
	}
}

// PassBeginInfo is what BeginPass hands to the recorder. ClearValues follow the
// attachment indices of the render pass: the first ColorCount entries are
// colour clears, a trailing entry (if any) is the depth/stencil clear.
type PassBeginInfo struct {
	RenderPass  vk.RenderPass
	Framebuffer vk.Framebuffer
	RenderArea  Rect
	ClearValues []ClearValue
	ColorCount  int
}
