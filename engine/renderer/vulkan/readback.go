package vulkan

import (
	"fmt"
	"image"
	"unsafe"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rendertarget/engine/core"
)

// ReadbackColor copies a colour attachment into host memory. The image must be
// idle and in the colour-attachment-optimal layout; it is returned to that
// layout afterwards. Only 8-bit RGBA and BGRA formats are supported.
func ReadbackColor(context *VulkanContext, img *VulkanImage) (*image.RGBA, error) {
	swizzle := false
	switch img.format {
	case vk.FormatR8g8b8a8Unorm, vk.FormatR8g8b8a8Srgb:
	case vk.FormatB8g8r8a8Unorm, vk.FormatB8g8r8a8Srgb:
		swizzle = true
	default:
		return nil, fmt.Errorf("readback of format %s is not supported", FormatName(img.format))
	}

	device := context.Device.LogicalDevice
	size := uint64(img.Width) * uint64(img.Height) * 4

	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(size),
		Usage:       vk.BufferUsageFlags(vk.BufferUsageTransferDstBit),
		SharingMode: vk.SharingModeExclusive,
	}
	var buffer vk.Buffer
	if err := checkResult("create readback buffer", vk.CreateBuffer(device, &bufferCreateInfo, context.Allocator, &buffer)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	defer vk.DestroyBuffer(device, buffer, context.Allocator)

	var requirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(device, buffer, &requirements)
	requirements.Deref()

	memoryType, err := context.FindMemoryIndex(requirements.MemoryTypeBits,
		uint32(vk.MemoryPropertyHostVisibleBit|vk.MemoryPropertyHostCoherentBit))
	if err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryType,
	}
	var memory vk.DeviceMemory
	if err := checkResult("allocate readback memory", vk.AllocateMemory(device, &allocateInfo, context.Allocator, &memory)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	defer vk.FreeMemory(device, memory, context.Allocator)

	if err := checkResult("bind readback memory", vk.BindBufferMemory(device, buffer, memory, 0)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	cb, err := AllocateAndBeginSingleUse(context, context.Device.GraphicsCommandPool)
	if err != nil {
		return nil, err
	}
	img.transitionLayout(cb, vk.ImageLayoutColorAttachmentOptimal, vk.ImageLayoutTransferSrcOptimal)
	region := vk.BufferImageCopy{
		BufferOffset: 0,
		ImageSubresource: vk.ImageSubresourceLayers{
			AspectMask:     img.aspect,
			MipLevel:       0,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
		ImageOffset: vk.Offset3D{X: 0, Y: 0, Z: 0},
		ImageExtent: vk.Extent3D{Width: img.Width, Height: img.Height, Depth: 1},
	}
	vk.CmdCopyImageToBuffer(cb.Handle, img.Image, vk.ImageLayoutTransferSrcOptimal, buffer, 1, []vk.BufferImageCopy{region})
	img.transitionLayout(cb, vk.ImageLayoutTransferSrcOptimal, vk.ImageLayoutColorAttachmentOptimal)
	if err := cb.EndSingleUse(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue); err != nil {
		return nil, err
	}

	var data unsafe.Pointer
	if err := checkResult("map readback memory", vk.MapMemory(device, memory, 0, vk.DeviceSize(size), 0, &data)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	defer vk.UnmapMemory(device, memory)

	out := image.NewRGBA(image.Rect(0, 0, int(img.Width), int(img.Height)))
	copy(out.Pix, unsafe.Slice((*byte)(data), size))
	if swizzle {
		for i := 0; i+3 < len(out.Pix); i += 4 {
			out.Pix[i], out.Pix[i+2] = out.Pix[i+2], out.Pix[i]
		}
	}
	return out, nil
}
