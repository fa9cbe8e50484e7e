package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rendertarget/engine/core"
)

// VulkanDevice is a headless logical device with a single graphics queue. It
// is the native Device the render target caches create objects on.
type VulkanDevice struct {
	PhysicalDevice     vk.PhysicalDevice
	LogicalDevice      vk.Device
	GraphicsQueueIndex uint32
	GraphicsQueue      vk.Queue

	GraphicsCommandPool vk.CommandPool

	Properties vk.PhysicalDeviceProperties
	Memory     vk.PhysicalDeviceMemoryProperties

	DepthFormat vk.Format

	allocator *vk.AllocationCallbacks
}

func DeviceCreate(context *VulkanContext) (*VulkanDevice, error) {
	device := &VulkanDevice{
		allocator: context.Allocator,
	}
	if err := selectPhysicalDevice(context.Instance, device); err != nil {
		core.LogError("%s", err)
		return nil, err
	}

	core.LogInfo("Creating logical device...")

	queueCreateInfos := []vk.DeviceQueueCreateInfo{
		{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: device.GraphicsQueueIndex,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		},
	}

	extensionNames := []string{}
	if deviceExtensionAvailable(device.PhysicalDevice, "VK_KHR_portability_subset") {
		core.LogInfo("Adding required extension 'VK_KHR_portability_subset'.")
		extensionNames = append(extensionNames, "VK_KHR_portability_subset")
	}

	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueCreateInfos)),
		PQueueCreateInfos:       queueCreateInfos,
		EnabledExtensionCount:   uint32(len(extensionNames)),
		PpEnabledExtensionNames: VulkanSafeStrings(extensionNames),
	}

	if err := checkResult("create device", vk.CreateDevice(device.PhysicalDevice, &deviceCreateInfo, context.Allocator, &device.LogicalDevice)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	core.LogInfo("Logical device created.")

	var queue vk.Queue
	vk.GetDeviceQueue(device.LogicalDevice, device.GraphicsQueueIndex, 0, &queue)
	device.GraphicsQueue = queue

	poolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: device.GraphicsQueueIndex,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}
	if err := checkResult("create command pool", vk.CreateCommandPool(device.LogicalDevice, &poolCreateInfo, context.Allocator, &device.GraphicsCommandPool)); err != nil {
		core.LogError("%s", err)
		vk.DestroyDevice(device.LogicalDevice, context.Allocator)
		return nil, err
	}
	core.LogInfo("Graphics command pool created.")

	if !DeviceDetectDepthFormat(device) {
		core.LogWarn("No supported depth format found; depth attachments set to auto will fail.")
	}
	return device, nil
}

func (d *VulkanDevice) Destroy(context *VulkanContext) {
	if d.GraphicsCommandPool != nil {
		vk.DestroyCommandPool(d.LogicalDevice, d.GraphicsCommandPool, context.Allocator)
		d.GraphicsCommandPool = nil
	}
	if d.LogicalDevice != nil {
		vk.DestroyDevice(d.LogicalDevice, context.Allocator)
		d.LogicalDevice = nil
	}
	d.PhysicalDevice = nil
}

func (d *VulkanDevice) CreateRenderPass(attachments []vk.AttachmentDescription, subpass vk.SubpassDescription) (vk.RenderPass, error) {
	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(attachments)),
		PAttachments:    attachments,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}

	var renderPass vk.RenderPass
	if err := checkResult("create render pass", vk.CreateRenderPass(d.LogicalDevice, &createInfo, d.allocator, &renderPass)); err != nil {
		return nil, err
	}
	return renderPass, nil
}

func (d *VulkanDevice) DestroyRenderPass(renderPass vk.RenderPass) {
	vk.DestroyRenderPass(d.LogicalDevice, renderPass, d.allocator)
}

func (d *VulkanDevice) CreateFramebuffer(views []vk.ImageView, renderPass vk.RenderPass, width, height, layers uint32) (vk.Framebuffer, error) {
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      renderPass,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           width,
		Height:          height,
		Layers:          layers,
	}

	var framebuffer vk.Framebuffer
	if err := checkResult("create framebuffer", vk.CreateFramebuffer(d.LogicalDevice, &createInfo, d.allocator, &framebuffer)); err != nil {
		return nil, err
	}
	return framebuffer, nil
}

func (d *VulkanDevice) DestroyFramebuffer(framebuffer vk.Framebuffer) {
	vk.DestroyFramebuffer(d.LogicalDevice, framebuffer, d.allocator)
}

func DeviceDetectDepthFormat(device *VulkanDevice) bool {
	candidates := []vk.Format{
		vk.FormatD32Sfloat,
		vk.FormatD32SfloatS8Uint,
		vk.FormatD24UnormS8Uint,
	}
	flags := vk.FormatFeatureDepthStencilAttachmentBit
	for _, candidate := range candidates {
		var properties vk.FormatProperties
		vk.GetPhysicalDeviceFormatProperties(device.PhysicalDevice, candidate, &properties)
		properties.Deref()
		if vk.FormatFeatureFlagBits(properties.OptimalTilingFeatures)&flags == flags {
			device.DepthFormat = candidate
			return true
		}
	}
	return false
}

// selectPhysicalDevice picks the first device exposing a graphics queue,
// preferring discrete GPUs.
func selectPhysicalDevice(instance vk.Instance, device *VulkanDevice) error {
	var physicalDeviceCount uint32
	if err := checkResult("enumerate physical devices", vk.EnumeratePhysicalDevices(instance, &physicalDeviceCount, nil)); err != nil {
		return err
	}
	if physicalDeviceCount == 0 {
		return fmt.Errorf("no devices which support Vulkan were found")
	}
	physicalDevices := make([]vk.PhysicalDevice, physicalDeviceCount)
	if err := checkResult("enumerate physical devices", vk.EnumeratePhysicalDevices(instance, &physicalDeviceCount, physicalDevices)); err != nil {
		return err
	}

	selected := -1
	for i, physicalDevice := range physicalDevices {
		queueIndex, ok := graphicsQueueFamily(physicalDevice)
		if !ok {
			continue
		}

		var properties vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(physicalDevice, &properties)
		properties.Deref()

		if selected >= 0 && properties.DeviceType != vk.PhysicalDeviceTypeDiscreteGpu {
			continue
		}
		selected = i
		device.PhysicalDevice = physicalDevice
		device.GraphicsQueueIndex = queueIndex
		device.Properties = properties
		if properties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
			break
		}
	}
	if selected < 0 {
		return fmt.Errorf("no physical devices were found which expose a graphics queue")
	}

	vk.GetPhysicalDeviceMemoryProperties(device.PhysicalDevice, &device.Memory)
	device.Memory.Deref()

	core.LogInfo("Selected device: '%s'.", vk.ToString(device.Properties.DeviceName[:]))
	core.LogInfo(
		"Vulkan API version: %d.%d.%d",
		vk.Version.Major(vk.Version(device.Properties.ApiVersion)),
		vk.Version.Minor(vk.Version(device.Properties.ApiVersion)),
		vk.Version.Patch(vk.Version(device.Properties.ApiVersion)),
	)
	return nil
}

func graphicsQueueFamily(physicalDevice vk.PhysicalDevice) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &count, nil)
	families := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(physicalDevice, &count, families)

	for i := range families {
		families[i].Deref()
		if vk.QueueFlagBits(families[i].QueueFlags)&vk.QueueGraphicsBit != 0 {
			return uint32(i), true
		}
	}
	return 0, false
}

func deviceExtensionAvailable(physicalDevice vk.PhysicalDevice, name string) bool {
	var count uint32
	if res := vk.EnumerateDeviceExtensionProperties(physicalDevice, "", &count, nil); res != vk.Success || count == 0 {
		return false
	}
	extensions := make([]vk.ExtensionProperties, count)
	if res := vk.EnumerateDeviceExtensionProperties(physicalDevice, "", &count, extensions); res != vk.Success {
		return false
	}
	for i := range extensions {
		extensions[i].Deref()
		if vk.ToString(extensions[i].ExtensionName[:]) == name {
			return true
		}
	}
	return false
}

var _ Device = (*VulkanDevice)(nil)
