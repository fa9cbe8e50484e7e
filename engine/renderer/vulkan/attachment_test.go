package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"
)

func TestAttachmentDescriptorCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b AttachmentDescriptor
		want int
	}{
		{"equal", rgba8(AttachmentLoadOpClear), rgba8(AttachmentLoadOpClear), 0},
		{"format first", ColorAttachment(vk.FormatR8Unorm, AttachmentLoadOpDontCare, ClearValue{}), rgba8(AttachmentLoadOpLoad), -1},
		{"load op second", rgba8(AttachmentLoadOpLoad), rgba8(AttachmentLoadOpClear), -1},
		{"clear value last", ColorAttachment(vk.FormatR8g8b8a8Unorm, AttachmentLoadOpClear, ClearColor(0, 0, 1, 1)), rgba8(AttachmentLoadOpClear), 1},
		{"depth clear", DepthAttachment(vk.FormatD32Sfloat, AttachmentLoadOpClear, 0.5, 0), d32(AttachmentLoadOpClear), -1},
		{"stencil clear", DepthAttachment(vk.FormatD24UnormS8Uint, AttachmentLoadOpClear, 1, 2), DepthAttachment(vk.FormatD24UnormS8Uint, AttachmentLoadOpClear, 1, 1), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
			if got := tt.b.Compare(tt.a); got != -tt.want {
				t.Errorf("reverse Compare() = %d, want %d", got, -tt.want)
			}
			if got := tt.a.Less(tt.b); got != (tt.want < 0) {
				t.Errorf("Less() = %t", got)
			}
		})
	}
}

func TestAttachmentDescriptorIsComparable(t *testing.T) {
	seen := map[AttachmentDescriptor]int{}
	seen[rgba8(AttachmentLoadOpClear)]++
	seen[rgba8(AttachmentLoadOpClear)]++
	seen[rgba8(AttachmentLoadOpLoad)]++
	if len(seen) != 2 || seen[rgba8(AttachmentLoadOpClear)] != 2 {
		t.Errorf("unexpected map contents %v", seen)
	}
}

func TestNoDepthAttachment(t *testing.T) {
	if !NoDepthAttachment.IsNone() {
		t.Fatal("NoDepthAttachment.IsNone() = false")
	}
	if d32(AttachmentLoadOpClear).IsNone() {
		t.Error("D32 descriptor reported as none")
	}
	if got := NoDepthAttachment.String(); got != "none" {
		t.Errorf("String() = %q", got)
	}
	if got := d32(AttachmentLoadOpDontCare).String(); got != "D32_SFLOAT/dont_care" {
		t.Errorf("String() = %q", got)
	}
}

func TestAttachmentLoadOp(t *testing.T) {
	tests := []struct {
		op     AttachmentLoadOp
		name   string
		native vk.AttachmentLoadOp
	}{
		{AttachmentLoadOpLoad, "load", vk.AttachmentLoadOpLoad},
		{AttachmentLoadOpClear, "clear", vk.AttachmentLoadOpClear},
		{AttachmentLoadOpDontCare, "dont_care", vk.AttachmentLoadOpDontCare},
	}
	for _, tt := range tests {
		if got := tt.op.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := tt.op.vulkan(); got != tt.native {
			t.Errorf("%s: vulkan() = %d, want %d", tt.name, got, tt.native)
		}
	}
}
