package vulkan

import (
	"fmt"
	"runtime"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rendertarget/engine/core"
)

// VulkanContext owns the native instance and device together with the two
// render target caches built on top of the device.
type VulkanContext struct {
	Instance  vk.Instance
	Allocator *vk.AllocationCallbacks

	Device *VulkanDevice

	RenderPasses *RenderPassCache
	Framebuffers *FramebufferCache
	// Callers sharing the caches across goroutines serialize through Locks.
	Locks *LockPool

	debug bool
}

// ContextCreate creates an instance and a headless logical device and sets up
// the caches. The global proc address must already be initialised.
func ContextCreate(appName string, debug bool) (*VulkanContext, error) {
	context := &VulkanContext{
		Locks: NewLockPool(),
		debug: debug,
	}

	appInfo := &vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         uint32(vk.MakeVersion(1, 0, 0)),
		ApplicationVersion: uint32(vk.MakeVersion(1, 0, 0)),
		PApplicationName:   VulkanSafeString(appName),
		PEngineName:        VulkanSafeString("RenderTarget"),
	}

	createInfo := vk.InstanceCreateInfo{
		SType:            vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: appInfo,
	}

	extensions := []string{}
	if runtime.GOOS == "darwin" {
		extensions = append(extensions,
			"VK_KHR_portability_enumeration",
			"VK_KHR_get_physical_device_properties2",
		)
		// VK_INSTANCE_CREATE_ENUMERATE_PORTABILITY_BIT_KHR
		createInfo.Flags |= 1
	}
	createInfo.EnabledExtensionCount = uint32(len(extensions))
	createInfo.PpEnabledExtensionNames = VulkanSafeStrings(extensions)

	layers := []string{}
	if debug {
		layers = append(layers, "VK_LAYER_KHRONOS_validation")
		if !instanceLayersAvailable(layers) {
			core.LogWarn("Validation layers requested but not available; continuing without them.")
			layers = layers[:0]
		}
	}
	createInfo.EnabledLayerCount = uint32(len(layers))
	createInfo.PpEnabledLayerNames = VulkanSafeStrings(layers)

	if err := checkResult("create instance", vk.CreateInstance(&createInfo, context.Allocator, &context.Instance)); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	if err := vk.InitInstance(context.Instance); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	core.LogInfo("Vulkan instance created.")

	device, err := DeviceCreate(context)
	if err != nil {
		vk.DestroyInstance(context.Instance, context.Allocator)
		return nil, err
	}
	context.Device = device

	context.RenderPasses = NewRenderPassCache(device)
	context.Framebuffers = NewFramebufferCache(device)
	return context, nil
}

// Destroy tears everything down in reverse creation order. Framebuffers go
// before the render passes they reference, and both go before the device.
func (vc *VulkanContext) Destroy() {
	if vc.Device != nil {
		vk.DeviceWaitIdle(vc.Device.LogicalDevice)
	}
	if vc.Framebuffers != nil {
		vc.Framebuffers.Destroy()
	}
	if vc.RenderPasses != nil {
		vc.RenderPasses.Destroy()
	}
	if vc.Device != nil {
		vc.Device.Destroy(vc)
		vc.Device = nil
	}
	if vc.Instance != nil {
		vk.DestroyInstance(vc.Instance, vc.Allocator)
		vc.Instance = nil
	}
}

func (vc *VulkanContext) FindMemoryIndex(typeFilter, propertyFlags uint32) (uint32, error) {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(vc.Device.PhysicalDevice, &memoryProperties)
	memoryProperties.Deref()

	for i := uint32(0); i < memoryProperties.MemoryTypeCount; i++ {
		// Check each memory type to see if its bit is set to 1.
		memoryProperties.MemoryTypes[i].Deref()
		if (typeFilter&(1<<i)) != 0 && (uint32(memoryProperties.MemoryTypes[i].PropertyFlags)&propertyFlags) == propertyFlags {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no memory type matches filter %#x with properties %#x", typeFilter, propertyFlags)
}

func instanceLayersAvailable(required []string) bool {
	var count uint32
	if res := vk.EnumerateInstanceLayerProperties(&count, nil); res != vk.Success {
		return false
	}
	available := make([]vk.LayerProperties, count)
	if res := vk.EnumerateInstanceLayerProperties(&count, available); res != vk.Success {
		return false
	}

	for _, name := range required {
		found := false
		for i := range available {
			available[i].Deref()
			if vk.ToString(available[i].LayerName[:]) == name {
				found = true
				break
			}
		}
		if !found {
			core.LogWarn("Required layer is missing: %s", name)
			return false
		}
	}
	return true
}
