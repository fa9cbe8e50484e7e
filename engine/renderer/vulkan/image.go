package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rendertarget/engine/core"
)

// VulkanImage is an offscreen render target image together with its memory and
// a view over the whole image. It satisfies ImageView.
type VulkanImage struct {
	Image  vk.Image
	Memory vk.DeviceMemory
	View   vk.ImageView
	Width  uint32
	Height uint32
	format vk.Format
	aspect vk.ImageAspectFlags
}

func (vi *VulkanImage) Handle() vk.ImageView {
	return vi.View
}

func (vi *VulkanImage) Format() vk.Format {
	return vi.format
}

func (vi *VulkanImage) Extent() Extent {
	return Extent{Width: vi.Width, Height: vi.Height}
}

// ImageCreate creates a 2D attachment image, binds device local memory to it,
// creates its view and moves it into the attachment-optimal layout the render
// passes of this package expect on entry.
func ImageCreate(context *VulkanContext, width, height uint32, format vk.Format) (*VulkanImage, error) {
	isDepth := IsDepthFormat(format)
	usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit | vk.ImageUsageTransferSrcBit)
	aspect := vk.ImageAspectFlags(vk.ImageAspectColorBit)
	layout := vk.ImageLayoutColorAttachmentOptimal
	if isDepth {
		usage = vk.ImageUsageFlags(vk.ImageUsageDepthStencilAttachmentBit)
		aspect = vk.ImageAspectFlags(vk.ImageAspectDepthBit)
		if hasStencil(format) {
			aspect |= vk.ImageAspectFlags(vk.ImageAspectStencilBit)
		}
		layout = vk.ImageLayoutDepthStencilAttachmentOptimal
	}

	outImage := &VulkanImage{
		Width:  width,
		Height: height,
		format: format,
		aspect: aspect,
	}
	device := context.Device.LogicalDevice

	imageCreateInfo := vk.ImageCreateInfo{
		SType:         vk.StructureTypeImageCreateInfo,
		ImageType:     vk.ImageType2d,
		Format:        format,
		Extent:        vk.Extent3D{Width: width, Height: height, Depth: 1},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         usage,
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	if err := checkResult("create image", vk.CreateImage(device, &imageCreateInfo, context.Allocator, &outImage.Image)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(device, outImage.Image, &memoryRequirements)
	memoryRequirements.Deref()

	memoryType, err := context.FindMemoryIndex(memoryRequirements.MemoryTypeBits, uint32(vk.MemoryPropertyDeviceLocalBit))
	if err != nil {
		core.LogError("Required memory type not found. Image not valid.")
		outImage.Destroy(context)
		return nil, err
	}

	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  memoryRequirements.Size,
		MemoryTypeIndex: memoryType,
	}
	if err := checkResult("allocate image memory", vk.AllocateMemory(device, &allocateInfo, context.Allocator, &outImage.Memory)); err != nil {
		core.LogError("%s", err)
		outImage.Destroy(context)
		return nil, err
	}
	if err := checkResult("bind image memory", vk.BindImageMemory(device, outImage.Image, outImage.Memory, 0)); err != nil {
		core.LogError("%s", err)
		outImage.Destroy(context)
		return nil, err
	}

	viewCreateInfo := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    outImage.Image,
		ViewType: vk.ImageViewType2d,
		Format:   format,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	if err := checkResult("create image view", vk.CreateImageView(device, &viewCreateInfo, context.Allocator, &outImage.View)); err != nil {
		core.LogError("%s", err)
		outImage.Destroy(context)
		return nil, err
	}

	cb, err := AllocateAndBeginSingleUse(context, context.Device.GraphicsCommandPool)
	if err != nil {
		outImage.Destroy(context)
		return nil, err
	}
	outImage.transitionLayout(cb, vk.ImageLayoutUndefined, layout)
	if err := cb.EndSingleUse(context, context.Device.GraphicsCommandPool, context.Device.GraphicsQueue); err != nil {
		outImage.Destroy(context)
		return nil, err
	}

	core.LogDebug("Image %dx%d %s created.", width, height, FormatName(format))
	return outImage, nil
}

func (vi *VulkanImage) Destroy(context *VulkanContext) {
	device := context.Device.LogicalDevice
	if vi.View != nil {
		vk.DestroyImageView(device, vi.View, context.Allocator)
		vi.View = nil
	}
	if vi.Memory != nil {
		vk.FreeMemory(device, vi.Memory, context.Allocator)
		vi.Memory = nil
	}
	if vi.Image != nil {
		vk.DestroyImage(device, vi.Image, context.Allocator)
		vi.Image = nil
	}
}

// transitionLayout records a full-image barrier between two layouts. Stage and
// access masks are kept broad; this runs outside the frame loop.
func (vi *VulkanImage) transitionLayout(cb *CommandBuffer, oldLayout, newLayout vk.ImageLayout) {
	barrier := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		SrcAccessMask:       vk.AccessFlags(vk.AccessMemoryWriteBit),
		DstAccessMask:       vk.AccessFlags(vk.AccessMemoryReadBit | vk.AccessMemoryWriteBit),
		OldLayout:           oldLayout,
		NewLayout:           newLayout,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               vi.Image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask:     vi.aspect,
			BaseMipLevel:   0,
			LevelCount:     1,
			BaseArrayLayer: 0,
			LayerCount:     1,
		},
	}
	vk.CmdPipelineBarrier(
		cb.Handle,
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		vk.PipelineStageFlags(vk.PipelineStageAllCommandsBit),
		0,
		0, nil,
		0, nil,
		1, []vk.ImageMemoryBarrier{barrier},
	)
}

var _ ImageView = (*VulkanImage)(nil)
