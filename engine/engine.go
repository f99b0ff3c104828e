// Package engine wires the window, device, renderer, assets, input and scene together and runs the
// frame loop.
package engine

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/cmx-go/engine/assets"
	"github.com/Carmen-Shannon/cmx-go/engine/config"
	"github.com/Carmen-Shannon/cmx-go/engine/device"
	"github.com/Carmen-Shannon/cmx-go/engine/device/webgpu"
	"github.com/Carmen-Shannon/cmx-go/engine/input"
	"github.com/Carmen-Shannon/cmx-go/engine/logger"
	"github.com/Carmen-Shannon/cmx-go/engine/profiler"
	"github.com/Carmen-Shannon/cmx-go/engine/renderer"
	"github.com/Carmen-Shannon/cmx-go/engine/scene"
	"github.com/Carmen-Shannon/cmx-go/engine/window"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type engine struct {
	cfg    config.Config
	logger *zap.Logger

	window   window.Window
	device   device.Device
	renderer renderer.Renderer
	assets   assets.Manager
	input    input.Manager
	scene    scene.Scene

	quitChannel chan struct{}
	quitOnce    sync.Once
	closeOnce   sync.Once

	profiler         *profiler.Profiler
	profilingEnabled bool

	tickCallback     func(deltaTime float32)
	renderFrameLimit time.Duration
	cameraWarned     bool
	now              func() time.Time
}

// Engine is the main entry point for the engine. It owns every subsystem and runs the frame loop
// on the calling goroutine, which must be locked to the main OS thread.
type Engine interface {
	// Window returns the window frames are presented to.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// Assets returns the asset manager scenes resolve models through.
	//
	// Returns:
	//   - assets.Manager: the asset manager
	Assets() assets.Manager

	// Input returns the input manager polled at the start of every frame.
	//
	// Returns:
	//   - input.Manager: the input manager
	Input() input.Manager

	// Scene returns the active scene.
	//
	// Returns:
	//   - scene.Scene: the active scene
	Scene() scene.Scene

	// EnableProfiler enables frame statistics logging.
	EnableProfiler()

	// DisableProfiler disables frame statistics logging.
	DisableProfiler()

	// SetTickCallback registers a function called every frame after the scene is updated and before
	// it is rendered.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds, or nil
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Load preloads the configured assets, then applies the scene and input documents. The two
	// documents are read concurrently; a missing document leaves the current state untouched.
	//
	// Returns:
	//   - error: the first read, preload or apply error
	Load() error

	// Frame runs one iteration of the loop: poll input, update the scene, render the active camera.
	//
	// Parameters:
	//   - dt: elapsed time since the previous frame in seconds
	Frame(dt float32)

	// Run loops over Frame until the window closes or Quit is called.
	Run()

	// Quit ends Run after the current frame. Safe to call multiple times.
	Quit()

	// Close waits for the GPU to go idle, then releases the scene, assets, renderer, device and window.
	//
	// Returns:
	//   - error: the joined release errors
	Close() error
}

// NewEngine creates an Engine. Subsystems not supplied through options are created from the
// configuration.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if a subsystem could not be created
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		cfg:         config.Default(),
		quitChannel: make(chan struct{}),
		now:         time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logger.Named("engine")
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}

	if err := e.build(); err != nil {
		e.Close()
		return nil, err
	}

	e.window.SetResizeCallback(func(width, height int) {
		if err := e.renderer.Resize(width, height); err != nil {
			e.logger.Error("resize failed", zap.Int("width", width), zap.Int("height", height), zap.Error(err))
		}
	})

	if e.renderFrameLimit == 0 && e.cfg.Render.FrameLimit > 0 {
		e.SetRenderFrameLimit(e.cfg.Render.FrameLimit)
	}
	if e.cfg.Debug.Profiler {
		e.profilingEnabled = true
	}
	if e.profiler == nil {
		e.profiler = profiler.NewProfiler()
	}

	e.logger.Info("engine created",
		zap.String("scene", e.scene.Name()),
		zap.Duration("frameLimit", e.renderFrameLimit),
		zap.Bool("profiler", e.profilingEnabled),
	)
	return e, nil
}

func (e *engine) build() error {
	var err error
	if e.window == nil {
		e.window, err = window.NewWindow(
			window.WithTitle(e.cfg.Window.Title),
			window.WithWidth(e.cfg.Window.Width),
			window.WithHeight(e.cfg.Window.Height),
		)
		if err != nil {
			return err
		}
	}

	if e.device == nil {
		e.device, err = webgpu.NewDevice(webgpu.WithSurfaceDescriptor(e.window.SurfaceDescriptor()))
		if err != nil {
			return err
		}
	}

	if e.renderer == nil {
		wdev, ok := e.device.(webgpu.Device)
		if !ok {
			return fmt.Errorf("engine: device %T cannot present", e.device)
		}
		mode := renderer.PresentModeUncapped
		if e.cfg.Render.VSync {
			mode = renderer.PresentModeVSync
		}
		e.renderer, err = renderer.NewRenderer(renderer.BackendTypeWGPU, wdev, e.window.Width(), e.window.Height(),
			renderer.WithPresentMode(mode),
			renderer.WithObjectCapacity(e.cfg.Render.ObjectCapacity),
		)
		if err != nil {
			return err
		}
	}

	if e.assets == nil {
		e.assets = assets.NewManager(e.device,
			assets.WithRoot(e.cfg.Paths.Assets),
			assets.WithWorkers(e.cfg.Assets.Workers),
			assets.WithAssets(e.cfg.Assets.Preload),
		)
	}

	if e.input == nil {
		e.input = input.NewManager(e.window, input.WithPath(e.cfg.Paths.Input))
	}

	if e.scene == nil {
		e.scene = scene.NewScene(
			scene.WithPath(e.cfg.Paths.Scene),
			scene.WithAssets(e.assets),
			scene.WithRenderQueueThreshold(e.cfg.RenderQueueThreshold()),
		)
	}
	return nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Assets() assets.Manager {
	return e.assets
}

func (e *engine) Input() input.Manager {
	return e.input
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

func (e *engine) Load() error {
	var sceneDoc *scene.Document
	var inputDoc *input.Document

	g := new(errgroup.Group)
	if path := e.scene.Path(); path != "" {
		g.Go(func() error {
			doc, err := scene.ReadDocument(path)
			if errors.Is(err, os.ErrNotExist) {
				e.logger.Info("no scene document", zap.String("path", path))
				return nil
			}
			sceneDoc = doc
			return err
		})
	}
	if path := e.input.Path(); path != "" {
		g.Go(func() error {
			doc, err := input.ReadDocument(path)
			if errors.Is(err, os.ErrNotExist) {
				e.logger.Info("no input document", zap.String("path", path))
				return nil
			}
			inputDoc = doc
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := e.assets.Preload(); err != nil {
		e.logger.Warn("some assets failed to preload", zap.Error(err))
	}
	if sceneDoc != nil {
		if err := e.scene.Apply(sceneDoc); err != nil {
			return err
		}
	}
	if inputDoc != nil {
		if err := e.input.Apply(inputDoc); err != nil {
			return err
		}
	}
	return nil
}

func (e *engine) Frame(dt float32) {
	e.input.PollEvents(dt)
	e.scene.UpdateActors(dt)
	e.scene.UpdateComponents(dt)
	if e.tickCallback != nil {
		e.tickCallback(dt)
	}

	cam := e.scene.Camera()
	if cam == nil {
		if !e.cameraWarned {
			e.logger.Warn("no active camera", zap.String("scene", e.scene.Name()))
			e.cameraWarned = true
		}
		return
	}
	e.cameraWarned = false

	cam.UpdateAspectRatio(e.renderer.AspectRatio())
	frame, err := e.renderer.BeginFrame(cam)
	if err != nil {
		e.logger.Warn("frame skipped", zap.Uint64("frame", e.renderer.FrameIndex()), zap.Error(err))
		return
	}
	if frame == nil {
		return
	}
	e.renderer.RenderQueue(frame, e.scene.RenderQueue())
	if err := e.renderer.EndFrame(); err != nil {
		e.logger.Warn("frame not presented", zap.Uint64("frame", frame.FrameIndex), zap.Error(err))
	}
}

func (e *engine) Run() {
	last := e.now()
	for e.window.IsRunning() && !e.quitting() {
		start := e.now()
		dt := float32(start.Sub(last).Seconds())
		last = start

		e.Frame(dt)

		if e.profilingEnabled {
			e.profiler.Tick()
		}
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - e.now().Sub(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	e.logger.Info("loop stopped", zap.Uint64("frames", e.renderer.FrameIndex()))
}

func (e *engine) quitting() bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

func (e *engine) Quit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
		e.window.RequestClose()
	})
}

func (e *engine) Close() error {
	var errs []error
	e.closeOnce.Do(func() {
		if e.device != nil {
			if err := e.device.WaitIdle(); err != nil {
				errs = append(errs, err)
			}
		}
		if e.scene != nil {
			e.scene.Unload()
		}
		if e.assets != nil {
			if err := e.assets.Release(); err != nil {
				errs = append(errs, err)
			}
		}
		if e.renderer != nil {
			e.renderer.Release()
		}
		if e.device != nil {
			e.device.Release()
		}
		if e.window != nil {
			if err := e.window.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
