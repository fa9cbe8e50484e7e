package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestRenderPassLayoutColorAndDepth(t *testing.T) {
	colors := []AttachmentDescriptor{
		rgba8(AttachmentLoadOpClear),
		ColorAttachment(vk.FormatR16g16b16a16Sfloat, AttachmentLoadOpLoad, ClearValue{}),
	}
	attachments, subpass := renderPassLayout(colors, d32(AttachmentLoadOpDontCare))

	if len(attachments) != 3 {
		t.Fatalf("got %d attachment descriptions, want 3", len(attachments))
	}
	if attachments[0].Format != vk.FormatR8g8b8a8Unorm || attachments[1].Format != vk.FormatR16g16b16a16Sfloat {
		t.Errorf("colour formats out of order: %d, %d", attachments[0].Format, attachments[1].Format)
	}
	if attachments[0].LoadOp != vk.AttachmentLoadOpClear || attachments[1].LoadOp != vk.AttachmentLoadOpLoad {
		t.Errorf("colour load ops: %d, %d", attachments[0].LoadOp, attachments[1].LoadOp)
	}
	for i, a := range attachments[:2] {
		if a.InitialLayout != vk.ImageLayoutColorAttachmentOptimal || a.FinalLayout != vk.ImageLayoutColorAttachmentOptimal {
			t.Errorf("colour %d layouts: %d -> %d", i, a.InitialLayout, a.FinalLayout)
		}
	}
	for i, a := range attachments {
		if a.StoreOp != vk.AttachmentStoreOpStore {
			t.Errorf("attachment %d store op %d", i, a.StoreOp)
		}
		if a.Samples != vk.SampleCount1Bit {
			t.Errorf("attachment %d samples %d", i, a.Samples)
		}
	}

	depth := attachments[2]
	if depth.Format != vk.FormatD32Sfloat || depth.LoadOp != vk.AttachmentLoadOpDontCare {
		t.Errorf("depth description %+v", depth)
	}
	if depth.InitialLayout != vk.ImageLayoutDepthStencilAttachmentOptimal || depth.FinalLayout != vk.ImageLayoutDepthStencilAttachmentOptimal {
		t.Errorf("depth layouts: %d -> %d", depth.InitialLayout, depth.FinalLayout)
	}

	if subpass.PipelineBindPoint != vk.PipelineBindPointGraphics {
		t.Errorf("bind point %d", subpass.PipelineBindPoint)
	}
	if subpass.ColorAttachmentCount != 2 || len(subpass.PColorAttachments) != 2 {
		t.Fatalf("subpass has %d colour references", subpass.ColorAttachmentCount)
	}
	for i, ref := range subpass.PColorAttachments {
		if ref.Attachment != uint32(i) {
			t.Errorf("colour reference %d points at %d", i, ref.Attachment)
		}
	}
	if subpass.PDepthStencilAttachment == nil || subpass.PDepthStencilAttachment.Attachment != 2 {
		t.Errorf("depth reference %+v, want attachment 2", subpass.PDepthStencilAttachment)
	}
}

func TestRenderPassLayoutDepthOnly(t *testing.T) {
	attachments, subpass := renderPassLayout(nil, d32(AttachmentLoadOpClear))
	if len(attachments) != 1 {
		t.Fatalf("got %d attachment descriptions, want 1", len(attachments))
	}
	if subpass.ColorAttachmentCount != 0 {
		t.Errorf("colour references %d", subpass.ColorAttachmentCount)
	}
	if subpass.PDepthStencilAttachment == nil || subpass.PDepthStencilAttachment.Attachment != 0 {
		t.Errorf("depth reference %+v, want attachment 0", subpass.PDepthStencilAttachment)
	}
}

func TestRenderPassLayoutNoDepth(t *testing.T) {
	attachments, subpass := renderPassLayout([]AttachmentDescriptor{rgba8(AttachmentLoadOpClear)}, NoDepthAttachment)
	if len(attachments) != 1 {
		t.Fatalf("got %d attachment descriptions, want 1", len(attachments))
	}
	if subpass.PDepthStencilAttachment != nil {
		t.Errorf("unexpected depth reference %+v", subpass.PDepthStencilAttachment)
	}
}

func TestRenderPassAccessors(t *testing.T) {
	device := &fakeDevice{}
	key := RenderPassKey{
		Colors: []AttachmentDescriptor{rgba8(AttachmentLoadOpClear), rgba8(AttachmentLoadOpLoad)},
		Depth:  d32(AttachmentLoadOpClear),
	}
	rp, err := RenderpassCreate(device, key)
	if err != nil {
		t.Fatal(err)
	}
	if rp.Handle() != device.renderPassCalls[0].handle {
		t.Error("Handle() does not return the native handle")
	}
	if rp.ColorAttachmentCount() != 2 || rp.AttachmentCount() != 3 || !rp.HasDepth() {
		t.Errorf("counts: colour %d total %d depth %t", rp.ColorAttachmentCount(), rp.AttachmentCount(), rp.HasDepth())
	}
	if rp.ColorAttachment(1) != key.Colors[1] || rp.DepthAttachment() != key.Depth {
		t.Error("descriptors not preserved")
	}
	if !rp.Key().Equal(key) {
		t.Errorf("Key() = %+v, want %+v", rp.Key(), key)
	}

	// the render pass keeps its own copy of the descriptors
	key.Colors[0] = rgba8(AttachmentLoadOpDontCare)
	if rp.ColorAttachment(0).LoadOp != AttachmentLoadOpClear {
		t.Error("render pass aliases the caller's slice")
	}
}
