package vulkan

import (
	"fmt"

	"github.com/spaghettifunk/rendertarget/engine/core"
	"golang.org/x/exp/slices"
)

// RenderPassKey identifies a render pass layout: the ordered colour attachment
// descriptors and the depth descriptor (NoDepthAttachment when absent).
type RenderPassKey struct {
	Colors []AttachmentDescriptor
	Depth  AttachmentDescriptor
}

// Validate rejects keys that cannot describe a render pass.
func (k RenderPassKey) Validate() error {
	if len(k.Colors) > MaxColorAttachments {
		return fmt.Errorf("%w: %d > %d", core.ErrTooManyColorAttachments, len(k.Colors), MaxColorAttachments)
	}
	for i, c := range k.Colors {
		if c.IsNone() {
			return fmt.Errorf("%w: color attachment %d has an undefined format", core.ErrInvalidAttachment, i)
		}
		if IsDepthFormat(c.Format) {
			return fmt.Errorf("%w: color attachment %d uses depth format %s", core.ErrInvalidAttachment, i, FormatName(c.Format))
		}
		if !c.LoadOp.valid() {
			return fmt.Errorf("%w: color attachment %d has unknown load op %s", core.ErrInvalidAttachment, i, c.LoadOp)
		}
		if c.ClearValue.hasNaN() {
			return fmt.Errorf("%w: color attachment %d has a NaN clear value", core.ErrInvalidAttachment, i)
		}
	}
	if !k.Depth.IsNone() {
		if !IsDepthFormat(k.Depth.Format) {
			return fmt.Errorf("%w: depth attachment uses non-depth format %s", core.ErrInvalidAttachment, FormatName(k.Depth.Format))
		}
		if !k.Depth.LoadOp.valid() {
			return fmt.Errorf("%w: depth attachment has unknown load op %s", core.ErrInvalidAttachment, k.Depth.LoadOp)
		}
		if k.Depth.ClearValue.hasNaN() {
			return fmt.Errorf("%w: depth attachment has a NaN clear value", core.ErrInvalidAttachment)
		}
	}
	return nil
}

// Compare orders keys by their colour descriptors (element-wise, then by
// count) and finally by the depth descriptor.
func (k RenderPassKey) Compare(o RenderPassKey) int {
	for i := 0; i < len(k.Colors) && i < len(o.Colors); i++ {
		if r := k.Colors[i].Compare(o.Colors[i]); r != 0 {
			return r
		}
	}
	if r := compareOrdered(len(k.Colors), len(o.Colors)); r != 0 {
		return r
	}
	return k.normalizedDepth().Compare(o.normalizedDepth())
}

func (k RenderPassKey) Equal(o RenderPassKey) bool {
	return k.Compare(o) == 0
}

// Any descriptor with an undefined format means "no depth", whatever its
// other fields hold.
func (k RenderPassKey) normalizedDepth() AttachmentDescriptor {
	if k.Depth.IsNone() {
		return NoDepthAttachment
	}
	return k.Depth
}

// renderPassKeyID is the comparable image of a RenderPassKey used as the map
// key. The explicit count keeps a short list distinct from a longer one whose
// trailing slots happen to be zero.
type renderPassKeyID struct {
	colorCount int
	colors     [MaxColorAttachments]AttachmentDescriptor
	depth      AttachmentDescriptor
}

func (k RenderPassKey) id() renderPassKeyID {
	id := renderPassKeyID{
		colorCount: len(k.Colors),
		depth:      k.normalizedDepth(),
	}
	copy(id.colors[:], k.Colors)
	return id
}

// RenderPassCache creates each distinct render pass once and hands out the
// same *RenderPass for every equal key for the lifetime of the cache.
// It is not safe for concurrent use.
type RenderPassCache struct {
	device Device
	passes map[renderPassKeyID]*RenderPass
	hits   int
	misses int
}

func NewRenderPassCache(device Device) *RenderPassCache {
	return &RenderPassCache{
		device: device,
		passes: make(map[renderPassKeyID]*RenderPass),
	}
}

// GetRenderPass returns the render pass for key, creating it on first use.
func (c *RenderPassCache) GetRenderPass(key RenderPassKey) (*RenderPass, error) {
	if err := key.Validate(); err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	id := key.id()
	if rp, ok := c.passes[id]; ok {
		c.hits++
		return rp, nil
	}

	rp, err := RenderpassCreate(c.device, key)
	if err != nil {
		return nil, err
	}
	c.misses++
	c.passes[id] = rp
	core.LogDebug("Render pass %s created (%d color, depth %s).", rp.ID(), rp.ColorAttachmentCount(), rp.DepthAttachment())
	return rp, nil
}

func (c *RenderPassCache) Len() int {
	return len(c.passes)
}

func (c *RenderPassCache) Stats() CacheStats {
	return CacheStats{Entries: len(c.passes), Hits: c.hits, Misses: c.misses}
}

// Keys lists the cached keys in ascending key order.
func (c *RenderPassCache) Keys() []RenderPassKey {
	keys := make([]RenderPassKey, 0, len(c.passes))
	for _, rp := range c.passes {
		keys = append(keys, rp.Key())
	}
	slices.SortFunc(keys, func(a, b RenderPassKey) int {
		return a.Compare(b)
	})
	return keys
}

// Destroy releases every render pass. Framebuffers built from them must be
// destroyed first.
func (c *RenderPassCache) Destroy() {
	for id, rp := range c.passes {
		rp.destroy(c.device)
		delete(c.passes, id)
	}
}
