package platform

import (
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rendertarget/engine/core"
)

func init() {
	// GLFW must run on the main OS thread
	runtime.LockOSThread()
}

// Platform loads the Vulkan loader through GLFW. No window is created; render
// targets are offscreen images.
type Platform struct {
	started bool
}

func New() *Platform {
	return &Platform{}
}

func (p *Platform) Startup() error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}
	p.started = true

	if !glfw.VulkanSupported() {
		core.LogWarn("GLFW reports no Vulkan loader; instance creation will likely fail.")
	}

	procAddr := glfw.GetVulkanGetInstanceProcAddress()
	if procAddr == nil {
		core.LogError("GetInstanceProcAddress is nil")
		return errNoProcAddr
	}
	vk.SetGetInstanceProcAddr(procAddr)

	if err := vk.Init(); err != nil {
		core.LogError("failed to initialize vk: %s", err)
		return err
	}
	return nil
}

func (p *Platform) Shutdown() error {
	if p.started {
		glfw.Terminate()
		p.started = false
	}
	return nil
}
