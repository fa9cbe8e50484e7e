package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/rendertarget/engine/core"
)

// Framebuffer wraps a native framebuffer bound to a render pass layout. It is
// created and owned by a FramebufferCache and never changes after construction.
type Framebuffer struct {
	handle      vk.Framebuffer
	extent      Extent
	attachments []vk.ImageView
	renderPass  vk.RenderPass
	id          uuid.UUID
}

func (fb *Framebuffer) Handle() vk.Framebuffer {
	return fb.handle
}

func (fb *Framebuffer) ID() uuid.UUID {
	return fb.id
}

func (fb *Framebuffer) Extent() Extent {
	return fb.extent
}

// Attachments returns the image views in attachment-index order.
func (fb *Framebuffer) Attachments() []vk.ImageView {
	out := make([]vk.ImageView, len(fb.attachments))
	copy(out, fb.attachments)
	return out
}

func (fb *Framebuffer) RenderPass() vk.RenderPass {
	return fb.renderPass
}

// FramebufferKey captures every input of native framebuffer creation. Unused
// colour slots hold nil, so views placed in different slots never collide.
type FramebufferKey struct {
	Colors     [MaxColorAttachments]vk.ImageView
	Depth      vk.ImageView
	Extent     Extent
	RenderPass vk.RenderPass
}

// NewFramebufferKey builds the key for binding colors (slot i = colors[i]) and
// depth to rp. It rejects attachment sets that do not match the render pass
// layout: the colour count, depth presence and every view format must agree.
func NewFramebufferKey(rp *RenderPass, colors []ImageView, depth ImageView, extent Extent) (FramebufferKey, error) {
	var key FramebufferKey
	if rp == nil || rp.Handle() == nil {
		return key, fmt.Errorf("%w: nil render pass", core.ErrAttachmentMismatch)
	}
	if len(colors) > MaxColorAttachments {
		return key, fmt.Errorf("%w: %d > %d", core.ErrTooManyColorAttachments, len(colors), MaxColorAttachments)
	}
	if len(colors) != rp.ColorAttachmentCount() {
		return key, fmt.Errorf("%w: %d color view(s) for a render pass with %d color attachment(s)",
			core.ErrAttachmentMismatch, len(colors), rp.ColorAttachmentCount())
	}
	if extent.IsZero() {
		return key, fmt.Errorf("%w: %dx%d", core.ErrInvalidExtent, extent.Width, extent.Height)
	}

	for i, view := range colors {
		if view == nil || view.Handle() == nil {
			return key, fmt.Errorf("%w: color view %d is nil", core.ErrAttachmentMismatch, i)
		}
		if want := rp.ColorAttachment(i).Format; view.Format() != want {
			return key, fmt.Errorf("%w: color view %d has format %s, render pass expects %s",
				core.ErrAttachmentMismatch, i, FormatName(view.Format()), FormatName(want))
		}
		key.Colors[i] = view.Handle()
	}

	hasDepthView := depth != nil && depth.Handle() != nil
	if hasDepthView != rp.HasDepth() {
		return key, fmt.Errorf("%w: depth view present=%t, render pass depth=%t", core.ErrAttachmentMismatch, hasDepthView, rp.HasDepth())
	}
	if hasDepthView {
		if want := rp.DepthAttachment().Format; depth.Format() != want {
			return key, fmt.Errorf("%w: depth view has format %s, render pass expects %s",
				core.ErrAttachmentMismatch, FormatName(depth.Format()), FormatName(want))
		}
		key.Depth = depth.Handle()
	}

	key.Extent = extent
	key.RenderPass = rp.Handle()
	return key, nil
}

// views flattens the key into attachment order: occupied colour slots in slot
// order, then depth.
func (k FramebufferKey) views() []vk.ImageView {
	views := make([]vk.ImageView, 0, MaxColorAttachments+1)
	for _, v := range k.Colors {
		if v != nil {
			views = append(views, v)
		}
	}
	if k.Depth != nil {
		views = append(views, k.Depth)
	}
	return views
}

func FramebufferCreate(device Device, key FramebufferKey) (*Framebuffer, error) {
	attachments := key.views()
	handle, err := device.CreateFramebuffer(attachments, key.RenderPass, key.Extent.Width, key.Extent.Height, 1)
	if err != nil {
		err = fmt.Errorf("%w: framebuffer %dx%d with %d attachment(s): %w",
			core.ErrNativeCreation, key.Extent.Width, key.Extent.Height, len(attachments), err)
		core.LogError("%s", err)
		return nil, err
	}
	return &Framebuffer{
		handle:      handle,
		extent:      key.Extent,
		attachments: attachments,
		renderPass:  key.RenderPass,
		id:          uuid.New(),
	}, nil
}

func (fb *Framebuffer) destroy(device Device) {
	if fb.handle != nil {
		device.DestroyFramebuffer(fb.handle)
		fb.handle = nil
	}
	fb.attachments = nil
	fb.renderPass = nil
}
