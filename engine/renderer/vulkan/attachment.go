package vulkan

import (
	"fmt"
	"math"

	vk "github.com/goki/vulkan"
	"golang.org/x/exp/constraints"
)

// Maximum number of colour attachments a render pass or framebuffer may use.
const MaxColorAttachments = 8

type AttachmentLoadOp uint8

const (
	AttachmentLoadOpLoad AttachmentLoadOp = iota
	AttachmentLoadOpClear
	AttachmentLoadOpDontCare
)

func (op AttachmentLoadOp) String() string {
	switch op {
	case AttachmentLoadOpLoad:
		return "load"
	case AttachmentLoadOpClear:
		return "clear"
	case AttachmentLoadOpDontCare:
		return "dont_care"
	}
	return fmt.Sprintf("AttachmentLoadOp(%d)", uint8(op))
}

func (op AttachmentLoadOp) valid() bool {
	return op <= AttachmentLoadOpDontCare
}

func (op AttachmentLoadOp) vulkan() vk.AttachmentLoadOp {
	switch op {
	case AttachmentLoadOpClear:
		return vk.AttachmentLoadOpClear
	case AttachmentLoadOpDontCare:
		return vk.AttachmentLoadOpDontCare
	default:
		return vk.AttachmentLoadOpLoad
	}
}

// ClearValue holds both arms of the clear value union. Colour attachments read
// Color, depth attachments read Depth and Stencil.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

func ClearColor(r, g, b, a float32) ClearValue {
	return ClearValue{Color: [4]float32{r, g, b, a}}
}

func ClearDepthStencil(depth float32, stencil uint32) ClearValue {
	return ClearValue{Depth: depth, Stencil: stencil}
}

func (c ClearValue) Compare(o ClearValue) int {
	for i := range c.Color {
		if r := compareOrdered(c.Color[i], o.Color[i]); r != 0 {
			return r
		}
	}
	if r := compareOrdered(c.Depth, o.Depth); r != 0 {
		return r
	}
	return compareOrdered(c.Stencil, o.Stencil)
}

// NaN never compares equal, so it cannot take part in a cache key.
func (c ClearValue) hasNaN() bool {
	for _, f := range c.Color {
		if math.IsNaN(float64(f)) {
			return true
		}
	}
	return math.IsNaN(float64(c.Depth))
}

// AttachmentDescriptor describes a single attachment of a render pass.
type AttachmentDescriptor struct {
	Format     vk.Format
	LoadOp     AttachmentLoadOp
	ClearValue ClearValue
}

// NoDepthAttachment is the depth descriptor of a render pass without depth.
var NoDepthAttachment = AttachmentDescriptor{Format: vk.FormatUndefined}

func ColorAttachment(format vk.Format, loadOp AttachmentLoadOp, clear ClearValue) AttachmentDescriptor {
	return AttachmentDescriptor{Format: format, LoadOp: loadOp, ClearValue: clear}
}

func DepthAttachment(format vk.Format, loadOp AttachmentLoadOp, depth float32, stencil uint32) AttachmentDescriptor {
	return AttachmentDescriptor{Format: format, LoadOp: loadOp, ClearValue: ClearDepthStencil(depth, stencil)}
}

// IsNone reports whether the descriptor is the "no attachment" sentinel.
func (a AttachmentDescriptor) IsNone() bool {
	return a.Format == vk.FormatUndefined
}

// Compare orders descriptors lexicographically by format, load op and clear
// value. The order carries no meaning beyond being total and deterministic.
func (a AttachmentDescriptor) Compare(o AttachmentDescriptor) int {
	if r := compareOrdered(a.Format, o.Format); r != 0 {
		return r
	}
	if r := compareOrdered(a.LoadOp, o.LoadOp); r != 0 {
		return r
	}
	return a.ClearValue.Compare(o.ClearValue)
}

func (a AttachmentDescriptor) Less(o AttachmentDescriptor) bool {
	return a.Compare(o) < 0
}

func (a AttachmentDescriptor) String() string {
	if a.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s/%s", FormatName(a.Format), a.LoadOp)
}

func compareOrdered[T constraints.Ordered](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
