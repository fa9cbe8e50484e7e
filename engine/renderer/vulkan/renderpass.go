package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/google/uuid"
	"github.com/spaghettifunk/rendertarget/engine/core"
)

// RenderPass wraps a native render pass built from an ordered list of colour
// attachments and an optional depth attachment. It is created and owned by a
// RenderPassCache and never changes after construction.
type RenderPass struct {
	handle vk.RenderPass
	colors []AttachmentDescriptor
	depth  AttachmentDescriptor
	id     uuid.UUID
}

func (rp *RenderPass) Handle() vk.RenderPass {
	return rp.handle
}

// ID is a label for logs; it plays no part in cache identity.
func (rp *RenderPass) ID() uuid.UUID {
	return rp.id
}

func (rp *RenderPass) ColorAttachmentCount() int {
	return len(rp.colors)
}

// AttachmentCount is the number of attachments of the native render pass,
// colour attachments first and depth last.
func (rp *RenderPass) AttachmentCount() int {
	if rp.HasDepth() {
		return len(rp.colors) + 1
	}
	return len(rp.colors)
}

func (rp *RenderPass) HasDepth() bool {
	return !rp.depth.IsNone()
}

func (rp *RenderPass) ColorAttachment(index int) AttachmentDescriptor {
	return rp.colors[index]
}

func (rp *RenderPass) DepthAttachment() AttachmentDescriptor {
	return rp.depth
}

// Key returns the cache key this render pass was built from.
func (rp *RenderPass) Key() RenderPassKey {
	colors := make([]AttachmentDescriptor, len(rp.colors))
	copy(colors, rp.colors)
	return RenderPassKey{Colors: colors, Depth: rp.depth}
}

func (rp *RenderPass) String() string {
	return fmt.Sprintf("renderpass[%s colors=%v depth=%s]", rp.id, rp.colors, rp.depth)
}

// renderPassLayout describes a single-subpass render pass. Colour attachments
// take indices 0..N-1 in list order and the depth attachment, when present,
// takes index N. Attachments stay in their attachment-optimal layout across the
// pass and are always stored.
func renderPassLayout(colors []AttachmentDescriptor, depth AttachmentDescriptor) ([]vk.AttachmentDescription, vk.SubpassDescription) {
	attachmentCount := len(colors)
	if !depth.IsNone() {
		attachmentCount++
	}
	attachmentDescriptions := make([]vk.AttachmentDescription, 0, attachmentCount)
	colorAttachmentReferences := make([]vk.AttachmentReference, 0, len(colors))

	for i, color := range colors {
		attachmentDescriptions = append(attachmentDescriptions, vk.AttachmentDescription{
			Format:         color.Format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         color.LoadOp.vulkan(),
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutColorAttachmentOptimal,
			FinalLayout:    vk.ImageLayoutColorAttachmentOptimal,
		})
		colorAttachmentReferences = append(colorAttachmentReferences, vk.AttachmentReference{
			Attachment: uint32(i),
			Layout:     vk.ImageLayoutColorAttachmentOptimal,
		})
	}

	// Main subpass
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colorAttachmentReferences)),
		PColorAttachments:    colorAttachmentReferences,
	}

	if !depth.IsNone() {
		attachmentDescriptions = append(attachmentDescriptions, vk.AttachmentDescription{
			Format:         depth.Format,
			Samples:        vk.SampleCount1Bit,
			LoadOp:         depth.LoadOp.vulkan(),
			StoreOp:        vk.AttachmentStoreOpStore,
			StencilLoadOp:  vk.AttachmentLoadOpDontCare,
			StencilStoreOp: vk.AttachmentStoreOpDontCare,
			InitialLayout:  vk.ImageLayoutDepthStencilAttachmentOptimal,
			FinalLayout:    vk.ImageLayoutDepthStencilAttachmentOptimal,
		})
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: uint32(len(colors)),
			Layout:     vk.ImageLayoutDepthStencilAttachmentOptimal,
		}
	}

	// NOTE: no subpass dependencies. Passes are expected to be synchronised
	// by whoever submits them.
	return attachmentDescriptions, subpass
}

// RenderpassCreate builds a new native render pass for the given key. The key
// must already be validated.
func RenderpassCreate(device Device, key RenderPassKey) (*RenderPass, error) {
	colors := make([]AttachmentDescriptor, len(key.Colors))
	copy(colors, key.Colors)
	depth := key.Depth
	if depth.IsNone() {
		depth = NoDepthAttachment
	}

	attachments, subpass := renderPassLayout(colors, depth)
	handle, err := device.CreateRenderPass(attachments, subpass)
	if err != nil {
		err = fmt.Errorf("%w: render pass with %d color attachment(s), depth %s: %w", core.ErrNativeCreation, len(colors), depth, err)
		core.LogError("%s", err)
		return nil, err
	}

	return &RenderPass{
		handle: handle,
		colors: colors,
		depth:  depth,
		id:     uuid.New(),
	}, nil
}

func (rp *RenderPass) destroy(device Device) {
	if rp.handle != nil {
		device.DestroyRenderPass(rp.handle)
		rp.handle = nil
	}
}
