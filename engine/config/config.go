package config

import (
	"fmt"
	"os"
	"strings"

	vk "github.com/goki/vulkan"
	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/rendertarget/engine/core"
	"github.com/spaghettifunk/rendertarget/engine/renderer/vulkan"
)

type Config struct {
	App     App      `toml:"app"`
	Targets []Target `toml:"targets"`
}

type App struct {
	Name string `toml:"name"`
	// Frames to draw before exiting; 0 runs until stopped.
	Frames     int    `toml:"frames"`
	LogLevel   string `toml:"log_level"`
	Snapshot   string `toml:"snapshot"`
	Validation bool   `toml:"validation"`
}

// Target is an offscreen render target: a set of colour attachments and an
// optional depth attachment sharing one extent.
type Target struct {
	Name   string  `toml:"name"`
	Width  uint32  `toml:"width"`
	Height uint32  `toml:"height"`
	Color  []Color `toml:"color"`
	Depth  *Depth  `toml:"depth"`
}

type Color struct {
	Format string     `toml:"format"`
	Load   string     `toml:"load"`
	Clear  [4]float32 `toml:"clear"`
}

type Depth struct {
	Format  string  `toml:"format"`
	Load    string  `toml:"load"`
	Depth   float32 `toml:"depth"`
	Stencil uint32  `toml:"stencil"`
}

func Default() *Config {
	return &Config{
		App: App{
			Name:     "rendertarget",
			LogLevel: "info",
		},
		Targets: []Target{
			{
				Name:   "world",
				Width:  800,
				Height: 600,
				Color: []Color{
					{Format: "R8G8B8A8_UNORM", Load: "clear", Clear: [4]float32{0, 0, 0.2, 1}},
				},
				Depth: &Depth{Format: vulkan.FormatAuto, Load: "clear", Depth: 1},
			},
		},
	}
}

// Load reads and validates the TOML file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	cfg.Targets = nil
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.App.Frames < 0 {
		return fmt.Errorf("%w: app.frames must not be negative", core.ErrInvalidConfig)
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("%w: at least one target is required", core.ErrInvalidConfig)
	}
	names := make(map[string]struct{}, len(c.Targets))
	for i, t := range c.Targets {
		if t.Name == "" {
			return fmt.Errorf("%w: targets[%d] has no name", core.ErrInvalidConfig, i)
		}
		if _, ok := names[t.Name]; ok {
			return fmt.Errorf("%w: duplicate target %q", core.ErrInvalidConfig, t.Name)
		}
		names[t.Name] = struct{}{}
		if t.Width == 0 || t.Height == 0 {
			return fmt.Errorf("%w: target %q has a zero extent", core.ErrInvalidConfig, t.Name)
		}
		if len(t.Color) == 0 && t.Depth == nil {
			return fmt.Errorf("%w: target %q has no attachments", core.ErrInvalidConfig, t.Name)
		}
		if len(t.Color) > vulkan.MaxColorAttachments {
			return fmt.Errorf("%w: target %q has %d colour attachments", core.ErrInvalidConfig, t.Name, len(t.Color))
		}
		// depth "auto" can only be resolved against a device
		if _, err := t.RenderPassKey(vk.FormatD32Sfloat); err != nil {
			return fmt.Errorf("%w: target %q: %w", core.ErrInvalidConfig, t.Name, err)
		}
	}
	return nil
}

// RenderPassKey converts the target description into a cache key. autoDepth
// replaces a depth format of "auto".
func (t Target) RenderPassKey(autoDepth vk.Format) (vulkan.RenderPassKey, error) {
	key := vulkan.RenderPassKey{Depth: vulkan.NoDepthAttachment}
	for i, c := range t.Color {
		format, err := vulkan.ParseFormat(c.Format)
		if err != nil {
			return key, fmt.Errorf("color[%d]: %w", i, err)
		}
		loadOp, err := vulkan.ParseLoadOp(c.Load)
		if err != nil {
			return key, fmt.Errorf("color[%d]: %w", i, err)
		}
		cv := vulkan.ClearColor(c.Clear[0], c.Clear[1], c.Clear[2], c.Clear[3])
		key.Colors = append(key.Colors, vulkan.ColorAttachment(format, loadOp, cv))
	}
	if t.Depth != nil {
		format := autoDepth
		if !strings.EqualFold(t.Depth.Format, vulkan.FormatAuto) {
			f, err := vulkan.ParseFormat(t.Depth.Format)
			if err != nil {
				return key, fmt.Errorf("depth: %w", err)
			}
			format = f
		}
		loadOp, err := vulkan.ParseLoadOp(t.Depth.Load)
		if err != nil {
			return key, fmt.Errorf("depth: %w", err)
		}
		key.Depth = vulkan.DepthAttachment(format, loadOp, t.Depth.Depth, t.Depth.Stencil)
	}
	return key, key.Validate()
}

func (t Target) Extent() vulkan.Extent {
	return vulkan.Extent{Width: t.Width, Height: t.Height}
}
