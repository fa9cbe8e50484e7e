package engine

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/spaghettifunk/rendertarget/engine/config"
	"github.com/spaghettifunk/rendertarget/engine/core"
	"github.com/spaghettifunk/rendertarget/engine/platform"
	"github.com/spaghettifunk/rendertarget/engine/renderer/vulkan"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

func (s Stage) String() string {
	switch s {
	case EngineStageUninitialized:
		return "uninitialized"
	case EngineStageInitialized:
		return "initialized"
	case EngineStageRunning:
		return "running"
	case EngineStageShuttingDown:
		return "shutting down"
	}
	return fmt.Sprintf("Stage(%d)", uint8(s))
}

// Engine renders every configured target once per frame into offscreen images.
type Engine struct {
	currentStage Stage
	config       *config.Config

	platform      *platform.Platform
	context       *vulkan.VulkanContext
	commandBuffer *vulkan.CommandBuffer
	inFlight      *vulkan.VulkanFence

	targets []*renderTarget
	// images of targets dropped by a reload; the framebuffer cache may still
	// reference their views, so they live until shutdown
	retired []*renderTarget

	mutex         sync.Mutex
	pendingConfig *config.Config

	clock       *core.Clock
	metrics     *core.FrameMetrics
	frameNumber uint64

	quit     chan struct{}
	stopOnce sync.Once
}

func New(cfg *config.Config) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		core.LogError("%s", err)
		return nil, err
	}
	return &Engine{
		currentStage: EngineStageUninitialized,
		config:       cfg,
		platform:     platform.New(),
		clock:        core.NewClock(),
		metrics:      core.NewFrameMetrics(),
		quit:         make(chan struct{}),
	}, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		return fmt.Errorf("cannot initialize engine in stage %s", e.currentStage)
	}
	if e.config.App.LogLevel != "" {
		if err := core.SetLogLevel(e.config.App.LogLevel); err != nil {
			core.LogWarn("ignoring log level %q: %s", e.config.App.LogLevel, err)
		}
	}

	if err := e.platform.Startup(); err != nil {
		return err
	}

	context, err := vulkan.ContextCreate(e.config.App.Name, e.config.App.Validation)
	if err != nil {
		return err
	}
	e.context = context

	cb, err := vulkan.AllocateCommandBuffer(context, context.Device.GraphicsCommandPool, true)
	if err != nil {
		return err
	}
	e.commandBuffer = cb

	fence, err := vulkan.NewFence(context, true)
	if err != nil {
		return err
	}
	e.inFlight = fence

	targets, _, err := e.buildTargets(e.config)
	if err != nil {
		return err
	}
	e.targets = targets

	e.currentStage = EngineStageInitialized
	core.LogInfo("engine initialized with %d render targets", len(e.targets))
	return nil
}

// ApplyConfig schedules cfg to take effect at the start of the next frame. It
// may be called from any goroutine. Render passes for the new targets are
// created right away.
func (e *Engine) ApplyConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		core.LogError("%s", err)
		return err
	}
	if e.context == nil {
		return fmt.Errorf("cannot apply config to engine in stage %s", e.currentStage)
	}

	err := e.context.Locks.SafeCall(vulkan.CacheManagement, func() error {
		for _, t := range cfg.Targets {
			key, err := t.RenderPassKey(e.context.Device.DepthFormat)
			if err != nil {
				return err
			}
			if _, err := e.context.RenderPasses.GetRenderPass(key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		core.LogError("config rejected: %s", err)
		return err
	}

	e.mutex.Lock()
	e.pendingConfig = cfg
	e.mutex.Unlock()
	return nil
}

// Run draws frames until app.frames is reached or Stop is called.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return fmt.Errorf("cannot run engine in stage %s", e.currentStage)
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()

	for {
		select {
		case <-e.quit:
			core.LogInfo("stop requested after %d frames", e.frameNumber)
			return nil
		default:
		}

		e.clock.Update()
		frameStartTime := e.clock.Elapsed()

		if err := e.drawFrame(); err != nil {
			core.LogError("frame %d failed: %s", e.frameNumber, err)
			return err
		}
		e.frameNumber++

		e.clock.Update()
		if e.metrics.Update(e.clock.Elapsed() - frameStartTime) {
			core.LogInfo("fps: %.1f frame: %.3fms render passes: %s framebuffers: %s",
				e.metrics.FPS(), e.metrics.FrameTime(),
				e.context.RenderPasses.Stats(), e.context.Framebuffers.Stats())
		}

		if e.config.App.Frames > 0 && e.frameNumber >= uint64(e.config.App.Frames) {
			break
		}
	}

	if e.config.App.Snapshot != "" {
		if err := e.snapshot(e.config.App.Snapshot); err != nil {
			core.LogError("snapshot failed: %s", err)
			return err
		}
	}
	return nil
}

// Stop asks Run to return before the next frame. Safe to call more than once
// and from any goroutine.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		close(e.quit)
	})
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.clock.Stop()

	if e.context != nil {
		if e.inFlight != nil {
			// the fence may never have been submitted if the last frame failed
			if err := e.inFlight.Wait(uint64(time.Second)); err != nil {
				core.LogWarn("shutdown: %s", err)
			}
			e.inFlight.Destroy()
		}
		if e.commandBuffer != nil {
			e.commandBuffer.Free(e.context, e.context.Device.GraphicsCommandPool)
		}
		for _, t := range append(e.targets, e.retired...) {
			t.destroy(e.context)
		}
		e.targets, e.retired = nil, nil

		core.LogInfo("render passes: %s framebuffers: %s", e.context.RenderPasses.Stats(), e.context.Framebuffers.Stats())
		e.context.Destroy()
		e.context = nil
	}
	return e.platform.Shutdown()
}

func (e *Engine) drawFrame() error {
	if err := e.inFlight.Wait(math.MaxUint64); err != nil {
		return err
	}
	if err := e.applyPending(); err != nil {
		return err
	}
	if err := e.inFlight.Reset(); err != nil {
		return err
	}

	cb := e.commandBuffer
	cb.Reset()
	if err := cb.Begin(true, false, false); err != nil {
		return err
	}

	err := e.context.Locks.SafeCall(vulkan.CacheManagement, func() error {
		for _, t := range e.targets {
			if err := t.record(e.context, cb); err != nil {
				return fmt.Errorf("target %q: %w", t.name, err)
			}
		}
		return nil
	})
	if err != nil {
		e.abortRecording()
		return err
	}

	if err := cb.End(); err != nil {
		return err
	}
	return e.context.Locks.SafeCall(vulkan.QueueManagement, func() error {
		return cb.Submit(e.context.Device.GraphicsQueue, e.inFlight)
	})
}

// abortRecording brings a half-recorded command buffer back to a state from
// which the next frame can begin.
func (e *Engine) abortRecording() {
	cb := e.commandBuffer
	if cb.State == vulkan.COMMAND_BUFFER_STATE_IN_RENDER_PASS {
		_ = e.context.Framebuffers.EndPass(cb)
	}
	if cb.State == vulkan.COMMAND_BUFFER_STATE_RECORDING {
		_ = cb.End()
	}
	cb.Reset()
}

// applyPending swaps in the config queued by ApplyConfig. Must run while no
// frame is in flight.
func (e *Engine) applyPending() error {
	e.mutex.Lock()
	cfg := e.pendingConfig
	e.pendingConfig = nil
	e.mutex.Unlock()
	if cfg == nil {
		return nil
	}

	targets, dropped, err := e.buildTargets(cfg)
	if err != nil {
		return err
	}
	e.retired = append(e.retired, dropped...)
	e.targets = targets
	e.config = cfg
	if cfg.App.LogLevel != "" {
		if err := core.SetLogLevel(cfg.App.LogLevel); err != nil {
			core.LogWarn("ignoring log level %q: %s", cfg.App.LogLevel, err)
		}
	}
	core.LogInfo("config applied: %d render targets", len(targets))
	return nil
}

// buildTargets creates the images for cfg. Targets whose name, extent and
// attachment formats did not change keep their images. The second result
// holds the current targets that cfg no longer uses.
func (e *Engine) buildTargets(cfg *config.Config) ([]*renderTarget, []*renderTarget, error) {
	existing := make(map[string]*renderTarget, len(e.targets))
	for _, t := range e.targets {
		existing[t.name] = t
	}

	var created []*renderTarget
	fail := func(err error) ([]*renderTarget, []*renderTarget, error) {
		for _, c := range created {
			c.destroy(e.context)
		}
		return nil, nil, err
	}

	targets := make([]*renderTarget, 0, len(cfg.Targets))
	for _, tc := range cfg.Targets {
		key, err := tc.RenderPassKey(e.context.Device.DepthFormat)
		if err != nil {
			return fail(fmt.Errorf("target %q: %w", tc.Name, err))
		}
		if old, ok := existing[tc.Name]; ok && old.compatible(key, tc.Extent()) {
			delete(existing, tc.Name)
			old.key = key
			targets = append(targets, old)
			continue
		}
		t, err := newRenderTarget(e.context, tc.Name, key, tc.Extent())
		if err != nil {
			return fail(err)
		}
		created = append(created, t)
		targets = append(targets, t)
	}

	dropped := make([]*renderTarget, 0, len(existing))
	for _, t := range e.targets {
		if _, ok := existing[t.name]; ok {
			dropped = append(dropped, t)
		}
	}
	return targets, dropped, nil
}
