package engine

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rendertarget/engine/core"
	"github.com/spaghettifunk/rendertarget/engine/renderer/vulkan"
)

// renderTarget is a named set of offscreen attachments drawn every frame with
// one render pass.
type renderTarget struct {
	name   string
	key    vulkan.RenderPassKey
	extent vulkan.Extent
	colors []*vulkan.VulkanImage
	depth  *vulkan.VulkanImage
}

func newRenderTarget(context *vulkan.VulkanContext, name string, key vulkan.RenderPassKey, extent vulkan.Extent) (*renderTarget, error) {
	t := &renderTarget{
		name:   name,
		key:    key,
		extent: extent,
	}
	for _, c := range key.Colors {
		img, err := vulkan.ImageCreate(context, extent.Width, extent.Height, c.Format)
		if err != nil {
			t.destroy(context)
			return nil, err
		}
		t.colors = append(t.colors, img)
	}
	if !key.Depth.IsNone() {
		img, err := vulkan.ImageCreate(context, extent.Width, extent.Height, key.Depth.Format)
		if err != nil {
			t.destroy(context)
			return nil, err
		}
		t.depth = img
	}
	core.LogDebug("render target %q created (%dx%d, %d colour, depth %s)", name, extent.Width, extent.Height, len(t.colors), key.Depth)
	return t, nil
}

// compatible reports whether the images of t can back a target with the given
// key and extent. Load ops and clear values do not matter here.
func (t *renderTarget) compatible(key vulkan.RenderPassKey, extent vulkan.Extent) bool {
	if t.extent != extent || len(t.key.Colors) != len(key.Colors) {
		return false
	}
	for i := range key.Colors {
		if t.key.Colors[i].Format != key.Colors[i].Format {
			return false
		}
	}
	return depthFormat(t.key) == depthFormat(key)
}

func depthFormat(key vulkan.RenderPassKey) vk.Format {
	if key.Depth.IsNone() {
		return vk.FormatUndefined
	}
	return key.Depth.Format
}

// record draws one empty pass over the target. The load ops of the render
// pass do the actual work.
func (t *renderTarget) record(context *vulkan.VulkanContext, cb *vulkan.CommandBuffer) error {
	renderPass, err := context.RenderPasses.GetRenderPass(t.key)
	if err != nil {
		return err
	}

	colors := make([]vulkan.Attachment, len(t.colors))
	for i, img := range t.colors {
		colors[i] = vulkan.Attachment{View: img, ClearValue: t.key.Colors[i].ClearValue}
	}
	var depth *vulkan.Attachment
	if t.depth != nil {
		depth = &vulkan.Attachment{View: t.depth, ClearValue: t.key.Depth.ClearValue}
	}

	if _, err := context.Framebuffers.BeginPass(cb, colors, depth, renderPass, t.extent); err != nil {
		return err
	}
	return context.Framebuffers.EndPass(cb)
}

func (t *renderTarget) destroy(context *vulkan.VulkanContext) {
	for _, img := range t.colors {
		img.Destroy(context)
	}
	t.colors = nil
	if t.depth != nil {
		t.depth.Destroy(context)
		t.depth = nil
	}
}
