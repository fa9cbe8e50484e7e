package vulkan

import (
	"fmt"
	"strings"

	vk "github.com/goki/vulkan"
)

// FormatAuto asks the device for its preferred depth format.
const FormatAuto = "AUTO"

var formatNames = map[string]vk.Format{
	"UNDEFINED":           vk.FormatUndefined,
	"R8_UNORM":            vk.FormatR8Unorm,
	"R8G8B8A8_UNORM":      vk.FormatR8g8b8a8Unorm,
	"R8G8B8A8_SRGB":       vk.FormatR8g8b8a8Srgb,
	"B8G8R8A8_UNORM":      vk.FormatB8g8r8a8Unorm,
	"B8G8R8A8_SRGB":       vk.FormatB8g8r8a8Srgb,
	"A2B10G10R10_UNORM":   vk.FormatA2b10g10r10UnormPack32,
	"R16G16B16A16_SFLOAT": vk.FormatR16g16b16a16Sfloat,
	"R32_SFLOAT":          vk.FormatR32Sfloat,
	"R32G32B32A32_SFLOAT": vk.FormatR32g32b32a32Sfloat,
	"D16_UNORM":           vk.FormatD16Unorm,
	"D32_SFLOAT":          vk.FormatD32Sfloat,
	"D24_UNORM_S8_UINT":   vk.FormatD24UnormS8Uint,
	"D32_SFLOAT_S8_UINT":  vk.FormatD32SfloatS8Uint,
}

// ParseFormat maps a format name such as "R8G8B8A8_UNORM" (an optional
// "VK_FORMAT_" prefix is accepted) to its vk.Format.
func ParseFormat(name string) (vk.Format, error) {
	n := strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(name)), "VK_FORMAT_")
	if f, ok := formatNames[n]; ok {
		return f, nil
	}
	return vk.FormatUndefined, fmt.Errorf("unknown format %q", name)
}

func FormatName(format vk.Format) string {
	for n, f := range formatNames {
		if f == format {
			return n
		}
	}
	return fmt.Sprintf("Format(%d)", int32(format))
}

func ParseLoadOp(name string) (AttachmentLoadOp, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "load":
		return AttachmentLoadOpLoad, nil
	case "clear", "":
		return AttachmentLoadOpClear, nil
	case "dont_care", "dontcare":
		return AttachmentLoadOpDontCare, nil
	}
	return AttachmentLoadOpLoad, fmt.Errorf("unknown load op %q", name)
}

func IsDepthFormat(format vk.Format) bool {
	switch format {
	case vk.FormatD16Unorm,
		vk.FormatX8D24UnormPack32,
		vk.FormatD32Sfloat,
		vk.FormatD16UnormS8Uint,
		vk.FormatD24UnormS8Uint,
		vk.FormatD32SfloatS8Uint:
		return true
	}
	return false
}

func hasStencil(format vk.Format) bool {
	switch format {
	case vk.FormatD16UnormS8Uint, vk.FormatD24UnormS8Uint, vk.FormatD32SfloatS8Uint:
		return true
	}
	return false
}
