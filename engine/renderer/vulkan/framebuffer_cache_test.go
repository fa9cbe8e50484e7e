package vulkan

import (
	"errors"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/rendertarget/engine/core"
)

func TestGetFramebufferReturnsSameInstance(t *testing.T) {
	device := &fakeDevice{}
	cache := NewFramebufferCache(device)

	key := FramebufferKey{Extent: Extent{Width: 800, Height: 600}, RenderPass: fakeRenderPassHandle()}
	key.Colors[0] = fakeImageViewHandle()

	a, err := cache.GetFramebuffer(key)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cache.GetFramebuffer(key)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Error("equal keys returned different framebuffers")
	}
	if len(device.framebufferCalls) != 1 {
		t.Errorf("device created %d framebuffers, want 1", len(device.framebufferCalls))
	}
	if got := cache.Stats(); got != (CacheStats{Entries: 1, Hits: 1, Misses: 1}) {
		t.Errorf("Stats() = %s", got)
	}
}

func TestGetFramebufferSingleSlotChange(t *testing.T) {
	base := FramebufferKey{
		Depth:      fakeImageViewHandle(),
		Extent:     Extent{Width: 800, Height: 600},
		RenderPass: fakeRenderPassHandle(),
	}
	base.Colors[0] = fakeImageViewHandle()
	base.Colors[1] = fakeImageViewHandle()

	mutations := map[string]func(k *FramebufferKey){
		"colour view":   func(k *FramebufferKey) { k.Colors[1] = fakeImageViewHandle() },
		"depth view":    func(k *FramebufferKey) { k.Depth = fakeImageViewHandle() },
		"no depth":      func(k *FramebufferKey) { k.Depth = nil },
		"width":         func(k *FramebufferKey) { k.Extent.Width = 801 },
		"height":        func(k *FramebufferKey) { k.Extent.Height = 599 },
		"render pass":   func(k *FramebufferKey) { k.RenderPass = fakeRenderPassHandle() },
		"swapped views": func(k *FramebufferKey) { k.Colors[0], k.Colors[1] = k.Colors[1], k.Colors[0] },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			cache := NewFramebufferCache(&fakeDevice{})
			a, err := cache.GetFramebuffer(base)
			if err != nil {
				t.Fatal(err)
			}
			changed := base
			mutate(&changed)
			b, err := cache.GetFramebuffer(changed)
			if err != nil {
				t.Fatal(err)
			}
			if a == b {
				t.Error("changed key returned the same framebuffer")
			}
		})
	}
}

func TestGetFramebufferSparseSlots(t *testing.T) {
	device := &fakeDevice{}
	cache := NewFramebufferCache(device)
	view := fakeImageViewHandle()
	rp := fakeRenderPassHandle()

	slot0 := FramebufferKey{Extent: Extent{Width: 64, Height: 64}, RenderPass: rp}
	slot0.Colors[0] = view
	slot2 := FramebufferKey{Extent: Extent{Width: 64, Height: 64}, RenderPass: rp}
	slot2.Colors[2] = view

	a, err := cache.GetFramebuffer(slot0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cache.GetFramebuffer(slot2)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("the same view in different slots shared a framebuffer")
	}
	// both flatten to a single attachment
	for i, call := range device.framebufferCalls {
		if len(call.views) != 1 || call.views[0] != view {
			t.Errorf("call %d views %v", i, call.views)
		}
	}
}

func TestGetFramebufferDepthOnly(t *testing.T) {
	device := &fakeDevice{}
	cache := NewFramebufferCache(device)
	depth := fakeImageViewHandle()

	fb, err := cache.GetFramebuffer(FramebufferKey{Depth: depth, Extent: Extent{Width: 2048, Height: 2048}, RenderPass: fakeRenderPassHandle()})
	if err != nil {
		t.Fatal(err)
	}
	if got := fb.Attachments(); len(got) != 1 || got[0] != depth {
		t.Errorf("Attachments() = %v", got)
	}
}

func TestGetFramebufferRejects(t *testing.T) {
	tests := []struct {
		name string
		key  FramebufferKey
		want error
	}{
		{"no render pass", FramebufferKey{Extent: Extent{Width: 1, Height: 1}}, core.ErrAttachmentMismatch},
		{"zero extent", FramebufferKey{RenderPass: fakeRenderPassHandle()}, core.ErrInvalidExtent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := &fakeDevice{}
			cache := NewFramebufferCache(device)
			if _, err := cache.GetFramebuffer(tt.key); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if len(device.framebufferCalls) != 0 {
				t.Error("rejected key reached the device")
			}
		})
	}
}

func TestGetFramebufferDeviceFailure(t *testing.T) {
	device := &fakeDevice{failFramebuffer: errDeviceLost}
	cache := NewFramebufferCache(device)
	key := FramebufferKey{Extent: Extent{Width: 8, Height: 8}, RenderPass: fakeRenderPassHandle()}
	key.Colors[0] = fakeImageViewHandle()

	_, err := cache.GetFramebuffer(key)
	if !errors.Is(err, core.ErrNativeCreation) || !errors.Is(err, errDeviceLost) {
		t.Fatalf("error = %v", err)
	}
	if cache.Len() != 0 {
		t.Error("failed creation left an entry behind")
	}
}

func TestFramebufferCacheDestroy(t *testing.T) {
	device := &fakeDevice{}
	cache := NewFramebufferCache(device)
	rp := fakeRenderPassHandle()
	for i := 0; i < 3; i++ {
		key := FramebufferKey{Extent: Extent{Width: uint32(i + 1), Height: 1}, RenderPass: rp}
		key.Colors[0] = fakeImageViewHandle()
		if _, err := cache.GetFramebuffer(key); err != nil {
			t.Fatal(err)
		}
	}

	cache.Destroy()
	if cache.Len() != 0 || len(device.destroyedFramebuffers) != 3 {
		t.Errorf("Len() = %d, destroyed %d", cache.Len(), len(device.destroyedFramebuffers))
	}
}

func TestDestroyOrderThroughBothCaches(t *testing.T) {
	device := &fakeDevice{}
	passes := NewRenderPassCache(device)
	framebuffers := NewFramebufferCache(device)

	rp := mustRenderPass(t, passes, RenderPassKey{Colors: []AttachmentDescriptor{rgba8(AttachmentLoadOpClear)}})
	key, err := NewFramebufferKey(rp, []ImageView{newFakeView(vk.FormatR8g8b8a8Unorm)}, nil, Extent{Width: 4, Height: 4})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := framebuffers.GetFramebuffer(key); err != nil {
		t.Fatal(err)
	}

	framebuffers.Destroy()
	if len(device.destroyedRenderPasses) != 0 {
		t.Fatal("render pass destroyed by the framebuffer cache")
	}
	passes.Destroy()
	if len(device.destroyedFramebuffers) != 1 || len(device.destroyedRenderPasses) != 1 {
		t.Errorf("destroyed %d framebuffers and %d render passes", len(device.destroyedFramebuffers), len(device.destroyedRenderPasses))
	}
}
