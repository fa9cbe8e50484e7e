package engine

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rendertarget/engine/config"
	"github.com/spaghettifunk/rendertarget/engine/core"
	"github.com/spaghettifunk/rendertarget/engine/renderer/vulkan"
)

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Targets = nil
	if _, err := New(cfg); !errors.Is(err, core.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestNewUsesDefaults(t *testing.T) {
	e, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if e.currentStage != EngineStageUninitialized {
		t.Errorf("stage = %s", e.currentStage)
	}
	if err := e.Run(); err == nil {
		t.Error("Run before Initialize succeeded")
	}
	if err := e.ApplyConfig(config.Default()); err == nil {
		t.Error("ApplyConfig before Initialize succeeded")
	}
	e.Stop()
	e.Stop()
}

func TestRenderTargetCompatible(t *testing.T) {
	color := vulkan.ColorAttachment(vk.FormatR8g8b8a8Unorm, vulkan.AttachmentLoadOpClear, vulkan.ClearColor(0, 0, 0, 1))
	depth := vulkan.DepthAttachment(vk.FormatD32Sfloat, vulkan.AttachmentLoadOpClear, 1, 0)
	extent := vulkan.Extent{Width: 800, Height: 600}
	target := &renderTarget{
		name:   "world",
		key:    vulkan.RenderPassKey{Colors: []vulkan.AttachmentDescriptor{color}, Depth: depth},
		extent: extent,
	}

	tests := []struct {
		name   string
		key    vulkan.RenderPassKey
		extent vulkan.Extent
		want   bool
	}{
		{"same", target.key, extent, true},
		{"new clear colour", vulkan.RenderPassKey{
			Colors: []vulkan.AttachmentDescriptor{vulkan.ColorAttachment(vk.FormatR8g8b8a8Unorm, vulkan.AttachmentLoadOpLoad, vulkan.ClearColor(1, 1, 1, 1))},
			Depth:  depth,
		}, extent, true},
		{"resized", target.key, vulkan.Extent{Width: 1024, Height: 768}, false},
		{"colour format", vulkan.RenderPassKey{
			Colors: []vulkan.AttachmentDescriptor{vulkan.ColorAttachment(vk.FormatB8g8r8a8Unorm, vulkan.AttachmentLoadOpClear, vulkan.ClearValue{})},
			Depth:  depth,
		}, extent, false},
		{"depth dropped", vulkan.RenderPassKey{Colors: []vulkan.AttachmentDescriptor{color}}, extent, false},
		{"extra colour", vulkan.RenderPassKey{Colors: []vulkan.AttachmentDescriptor{color, color}, Depth: depth}, extent, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := target.compatible(tt.key, tt.extent); got != tt.want {
				t.Errorf("compatible() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestStageString(t *testing.T) {
	if got := EngineStageRunning.String(); got != "running" {
		t.Errorf("String() = %q", got)
	}
}
