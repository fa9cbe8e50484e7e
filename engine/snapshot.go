package engine

import (
	"fmt"
	"image"
	"math"
	"os"

	"github.com/spaghettifunk/rendertarget/engine/core"
	"github.com/spaghettifunk/rendertarget/engine/renderer/vulkan"
	"golang.org/x/image/bmp"
)

// snapshot writes the first colour attachment of the first target that has
// one to path as a BMP.
func (e *Engine) snapshot(path string) error {
	var img *vulkan.VulkanImage
	for _, t := range e.targets {
		if len(t.colors) > 0 {
			img = t.colors[0]
			break
		}
	}
	if img == nil {
		return fmt.Errorf("no colour attachment to snapshot")
	}

	if err := e.inFlight.Wait(math.MaxUint64); err != nil {
		return err
	}
	var rgba *image.RGBA
	err := e.context.Locks.SafeCall(vulkan.QueueManagement, func() error {
		var err error
		rgba, err = vulkan.ReadbackColor(e.context, img)
		return err
	})
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := bmp.Encode(f, rgba); err != nil {
		return err
	}
	core.LogInfo("snapshot written to %s", path)
	return nil
}
