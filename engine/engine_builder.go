package engine

import (
	"github.com/Carmen-Shannon/cmx-go/engine/assets"
	"github.com/Carmen-Shannon/cmx-go/engine/config"
	"github.com/Carmen-Shannon/cmx-go/engine/device"
	"github.com/Carmen-Shannon/cmx-go/engine/input"
	"github.com/Carmen-Shannon/cmx-go/engine/profiler"
	"github.com/Carmen-Shannon/cmx-go/engine/renderer"
	"github.com/Carmen-Shannon/cmx-go/engine/scene"
	"github.com/Carmen-Shannon/cmx-go/engine/window"
	"go.uber.org/zap"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithConfig sets the configuration subsystems are created from.
//
// Parameters:
//   - cfg: the engine configuration
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithConfig(cfg config.Config) EngineBuilderOption {
	return func(e *engine) {
		e.cfg = cfg
	}
}

// WithProfiling enables or disables frame statistics logging.
//
// Parameters:
//   - enabled: if true, enables performance profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled = enabled
	}
}

// WithProfiler sets the profiler ticked every frame while profiling is enabled.
//
// Parameters:
//   - p: the profiler
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiler(p *profiler.Profiler) EngineBuilderOption {
	return func(e *engine) {
		e.profiler = p
	}
}

// WithWindow sets a pre-configured window rather than letting the engine create one.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithDevice sets the GPU device models are uploaded to.
//
// Parameters:
//   - d: the device
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithDevice(d device.Device) EngineBuilderOption {
	return func(e *engine) {
		e.device = d
	}
}

// WithRenderer sets the renderer frames are recorded with.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) EngineBuilderOption {
	return func(e *engine) {
		e.renderer = r
	}
}

// WithAssets sets the asset manager.
//
// Parameters:
//   - m: the asset manager
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAssets(m assets.Manager) EngineBuilderOption {
	return func(e *engine) {
		e.assets = m
	}
}

// WithInput sets the input manager.
//
// Parameters:
//   - m: the input manager
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithInput(m input.Manager) EngineBuilderOption {
	return func(e *engine) {
		e.input = m
	}
}

// WithScene sets the active scene.
//
// Parameters:
//   - s: the Scene to run
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithRenderFrameLimit sets an optional frame rate cap in frames per second.
// Pass 0 to uncap the loop (default).
//
// Parameters:
//   - fps: maximum frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		e.SetRenderFrameLimit(fps)
	}
}

// WithLogger sets the logger used for engine diagnostics.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLogger(l *zap.Logger) EngineBuilderOption {
	return func(e *engine) {
		e.logger = l
	}
}
