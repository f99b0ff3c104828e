// Package config loads the engine configuration document. Values missing from the
// document keep the defaults returned by Default.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Carmen-Shannon/cmx-go/engine/logger"
	"gopkg.in/yaml.v3"
)

// Config is the root engine configuration.
type Config struct {
	Window Window         `yaml:"window"`
	Render Render         `yaml:"render"`
	Paths  Paths          `yaml:"paths"`
	Assets Assets         `yaml:"assets"`
	Log    logger.Options `yaml:"log"`
	Debug  Debug          `yaml:"debug"`
}

type Window struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type Render struct {
	// VSync selects a FIFO present mode when true and an immediate mode otherwise.
	VSync bool `yaml:"vsync"`
	// FrameLimit caps rendered frames per second. 0 means uncapped.
	FrameLimit float64 `yaml:"frameLimit"`
	// ObjectCapacity is the number of per-object uniform slots reserved for one frame.
	ObjectCapacity int `yaml:"objectCapacity"`
}

type Paths struct {
	Scene  string `yaml:"scene"`
	Input  string `yaml:"input"`
	Assets string `yaml:"assets"`
}

type Assets struct {
	// Preload maps asset names to model files, relative to Paths.Assets.
	Preload map[string]string `yaml:"preload"`
	// Workers is the maximum number of parse workers used during preload.
	Workers int `yaml:"workers"`
}

type Debug struct {
	// RenderQueue admits components with render order -1 into the render queue.
	RenderQueue bool `yaml:"renderQueue"`
	// Profiler logs frame statistics once per second.
	Profiler bool `yaml:"profiler"`
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Default returns the configuration used when no document overrides a value.
func Default() Config {
	return Config{
		Window: Window{Title: "cmx", Width: 1280, Height: 720},
		Render: Render{VSync: true, ObjectCapacity: 1024},
		Paths: Paths{
			Scene:  "assets/scenes/main.yaml",
			Input:  "assets/input.yaml",
			Assets: "assets",
		},
		Assets: Assets{Workers: 4},
		Log:    logger.Options{Level: "info"},
	}
}

// Decode overlays the YAML document read from r onto the defaults and validates the result.
//
// Parameters:
//   - r: the YAML document source
//
// Returns:
//   - Config: the merged configuration
//   - error: a decode error or an error wrapping ErrInvalid
func Decode(r io.Reader) (Config, error) {
	c := Default()
	if err := yaml.NewDecoder(r).Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads the configuration file at path. A missing file yields the defaults.
//
// Parameters:
//   - path: file system path of the YAML document
//
// Returns:
//   - Config: the merged configuration
//   - error: an open, decode or validation error
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Validate reports the first out-of-range value.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Render.FrameLimit < 0:
		return fmt.Errorf("%w: negative frame limit %v", ErrInvalid, c.Render.FrameLimit)
	case c.Render.ObjectCapacity <= 0:
		return fmt.Errorf("%w: object capacity %d", ErrInvalid, c.Render.ObjectCapacity)
	case c.Assets.Workers <= 0:
		return fmt.Errorf("%w: asset workers %d", ErrInvalid, c.Assets.Workers)
	}
	return nil
}

// RenderQueueThreshold returns the lowest render order admitted into a scene's render queue.
func (c Config) RenderQueueThreshold() int32 {
	if c.Debug.RenderQueue {
		return -1
	}
	return 0
}
