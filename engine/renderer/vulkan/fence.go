package vulkan

import (
	"fmt"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rendertarget/engine/core"
)

// VulkanFence tracks whether the GPU has finished the work last submitted
// with it. The signaled flag mirrors the native state so that a frame can skip
// the wait when nothing is in flight.
type VulkanFence struct {
	Handle     vk.Fence
	IsSignaled bool

	device    vk.Device
	allocator *vk.AllocationCallbacks
}

func NewFence(context *VulkanContext, signaled bool) (*VulkanFence, error) {
	createInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		createInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var handle vk.Fence
	if err := checkResult("create fence", vk.CreateFence(context.Device.LogicalDevice, &createInfo, context.Allocator, &handle)); err != nil {
		err = fmt.Errorf("%w: %w", core.ErrNativeCreation, err)
		core.LogError("%s", err)
		return nil, err
	}
	return &VulkanFence{
		Handle:     handle,
		IsSignaled: signaled,
		device:     context.Device.LogicalDevice,
		allocator:  context.Allocator,
	}, nil
}

func (vf *VulkanFence) Destroy() {
	if vf.Handle != nil {
		vk.DestroyFence(vf.device, vf.Handle, vf.allocator)
		vf.Handle = nil
	}
	vf.IsSignaled = false
}

// Wait blocks until the fence is signaled. A timeout leaves the fence
// unsignaled and returns core.ErrFenceTimeout.
func (vf *VulkanFence) Wait(timeoutNs uint64) error {
	if vf.IsSignaled {
		return nil
	}
	switch result := vk.WaitForFences(vf.device, 1, []vk.Fence{vf.Handle}, vk.True, timeoutNs); result {
	case vk.Success:
		vf.IsSignaled = true
		return nil
	case vk.Timeout:
		core.LogWarn("Fence wait timed out after %dns.", timeoutNs)
		return fmt.Errorf("%w after %dns", core.ErrFenceTimeout, timeoutNs)
	default:
		err := checkResult("wait for fence", result)
		core.LogError("%s", err)
		return err
	}
}

// Reset returns a signaled fence to the unsignaled state before it is handed
// to a new submission. Unsignaled fences are left alone.
func (vf *VulkanFence) Reset() error {
	if !vf.IsSignaled {
		return nil
	}
	if err := checkResult("reset fence", vk.ResetFences(vf.device, 1, []vk.Fence{vf.Handle})); err != nil {
		core.LogError("%s", err)
		return err
	}
	vf.IsSignaled = false
	return nil
}
