package vulkan

import (
	"fmt"

	"github.com/spaghettifunk/rendertarget/engine/core"
)

// FramebufferCache creates each distinct framebuffer once and hands out the
// same *Framebuffer for every equal key for the lifetime of the cache. It also
// brackets draw commands with BeginPass/EndPass. It is not safe for concurrent
// use.
type FramebufferCache struct {
	device       Device
	framebuffers map[FramebufferKey]*Framebuffer
	hits         int
	misses       int
}

func NewFramebufferCache(device Device) *FramebufferCache {
	return &FramebufferCache{
		device:       device,
		framebuffers: make(map[FramebufferKey]*Framebuffer),
	}
}

// GetFramebuffer returns the framebuffer for key, creating it on first use.
// Keys should come from NewFramebufferKey, which checks them against the
// render pass layout.
func (c *FramebufferCache) GetFramebuffer(key FramebufferKey) (*Framebuffer, error) {
	if key.RenderPass == nil {
		err := fmt.Errorf("%w: framebuffer key without a render pass", core.ErrAttachmentMismatch)
		core.LogError("%s", err)
		return nil, err
	}
	if key.Extent.IsZero() {
		err := fmt.Errorf("%w: %dx%d", core.ErrInvalidExtent, key.Extent.Width, key.Extent.Height)
		core.LogError("%s", err)
		return nil, err
	}

	if fb, ok := c.framebuffers[key]; ok {
		c.hits++
		return fb, nil
	}

	fb, err := FramebufferCreate(c.device, key)
	if err != nil {
		return nil, err
	}
	c.misses++
	c.framebuffers[key] = fb
	core.LogDebug("Framebuffer %s created (%dx%d, %d attachment(s)).", fb.ID(), fb.extent.Width, fb.extent.Height, len(fb.attachments))
	return fb, nil
}

func (c *FramebufferCache) Len() int {
	return len(c.framebuffers)
}

func (c *FramebufferCache) Stats() CacheStats {
	return CacheStats{Entries: len(c.framebuffers), Hits: c.hits, Misses: c.misses}
}

// Destroy releases every framebuffer. Call it before destroying the render
// pass cache the framebuffers were built against.
func (c *FramebufferCache) Destroy() {
	for key, fb := range c.framebuffers {
		fb.destroy(c.device)
		delete(c.framebuffers, key)
	}
}
