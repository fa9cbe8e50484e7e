package vulkan

import (
	"errors"
	"unsafe"

	vk "github.com/goki/vulkan"
)

// Distinct non-nil handles backed by Go allocations. Nothing dereferences them.
func fakeRenderPassHandle() vk.RenderPass {
	return vk.RenderPass(unsafe.Pointer(new(uint64)))
}

func fakeFramebufferHandle() vk.Framebuffer {
	return vk.Framebuffer(unsafe.Pointer(new(uint64)))
}

func fakeImageViewHandle() vk.ImageView {
	return vk.ImageView(unsafe.Pointer(new(uint64)))
}

var errDeviceLost = errors.New("device lost")

type renderPassCall struct {
	attachments []vk.AttachmentDescription
	subpass     vk.SubpassDescription
	handle      vk.RenderPass
}

type framebufferCall struct {
	views      []vk.ImageView
	renderPass vk.RenderPass
	width      uint32
	height     uint32
	layers     uint32
	handle     vk.Framebuffer
}

type fakeDevice struct {
	renderPassCalls  []renderPassCall
	framebufferCalls []framebufferCall

	destroyedRenderPasses []vk.RenderPass
	destroyedFramebuffers []vk.Framebuffer

	failRenderPass  error
	failFramebuffer error
}

func (d *fakeDevice) CreateRenderPass(attachments []vk.AttachmentDescription, subpass vk.SubpassDescription) (vk.RenderPass, error) {
	if d.failRenderPass != nil {
		return nil, d.failRenderPass
	}
	h := fakeRenderPassHandle()
	d.renderPassCalls = append(d.renderPassCalls, renderPassCall{attachments: attachments, subpass: subpass, handle: h})
	return h, nil
}

func (d *fakeDevice) DestroyRenderPass(renderPass vk.RenderPass) {
	d.destroyedRenderPasses = append(d.destroyedRenderPasses, renderPass)
}

func (d *fakeDevice) CreateFramebuffer(views []vk.ImageView, renderPass vk.RenderPass, width, height, layers uint32) (vk.Framebuffer, error) {
	if d.failFramebuffer != nil {
		return nil, d.failFramebuffer
	}
	h := fakeFramebufferHandle()
	d.framebufferCalls = append(d.framebufferCalls, framebufferCall{
		views:      append([]vk.ImageView(nil), views...),
		renderPass: renderPass,
		width:      width,
		height:     height,
		layers:     layers,
		handle:     h,
	})
	return h, nil
}

func (d *fakeDevice) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	d.destroyedFramebuffers = append(d.destroyedFramebuffers, framebuffer)
}

type fakeView struct {
	handle vk.ImageView
	format vk.Format
}

func newFakeView(format vk.Format) *fakeView {
	return &fakeView{handle: fakeImageViewHandle(), format: format}
}

func (v *fakeView) Handle() vk.ImageView { return v.handle }
func (v *fakeView) Format() vk.Format { return v.format }

type recordedCommand struct {
	op       string
	begin    PassBeginInfo
	viewport Viewport
	scissor  Rect
}

type fakeRecorder struct {
	commands  []recordedCommand
	failBegin error
}

func (r *fakeRecorder) Begin(flags vk.CommandBufferUsageFlags) error {
	if r.failBegin != nil {
		return r.failBegin
	}
	r.commands = append(r.commands, recordedCommand{op: "begin"})
	return nil
}

func (r *fakeRecorder) End() error {
	r.commands = append(r.commands, recordedCommand{op: "end"})
	return nil
}

func (r *fakeRecorder) BeginRenderPass(info PassBeginInfo) {
	r.commands = append(r.commands, recordedCommand{op: "beginRenderPass", begin: info})
}

func (r *fakeRecorder) SetViewport(viewport Viewport) {
	r.commands = append(r.commands, recordedCommand{op: "setViewport", viewport: viewport})
}

func (r *fakeRecorder) SetScissor(scissor Rect) {
	r.commands = append(r.commands, recordedCommand{op: "setScissor", scissor: scissor})
}

func (r *fakeRecorder) EndRenderPass() {
	r.commands = append(r.commands, recordedCommand{op: "endRenderPass"})
}

func (r *fakeRecorder) ops() []string {
	ops := make([]string, len(r.commands))
	for i, c := range r.commands {
		ops[i] = c.op
	}
	return ops
}

// recordingBuffer returns a command buffer already in the recording state.
func recordingBuffer(rec *fakeRecorder) *CommandBuffer {
	cb := NewCommandBuffer(rec)
	if err := cb.Begin(true, false, false); err != nil {
		panic(err)
	}
	rec.commands = nil
	return cb
}

func rgba8(load AttachmentLoadOp) AttachmentDescriptor {
	return ColorAttachment(vk.FormatR8g8b8a8Unorm, load, ClearColor(0, 0, 0, 1))
}

func d32(load AttachmentLoadOp) AttachmentDescriptor {
	return DepthAttachment(vk.FormatD32Sfloat, load, 1, 0)
}
