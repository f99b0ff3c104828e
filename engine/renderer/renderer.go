// Package renderer turns a scene's render queue into frames on the presentation surface.
package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/cmx-go/common"
	"github.com/Carmen-Shannon/cmx-go/engine/device/webgpu"
	"github.com/Carmen-Shannon/cmx-go/engine/logger"
	"github.com/Carmen-Shannon/cmx-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// ErrFrameInProgress is returned by BeginFrame when the previous frame was never ended.
var ErrFrameInProgress = errors.New("renderer: frame already in progress")

// Renderer records frames for the active camera and presents them.
type Renderer interface {
	// Resize reconfigures the surface after the window's framebuffer changed size.
	//
	// Parameters:
	//   - width: the new framebuffer width in pixels
	//   - height: the new framebuffer height in pixels
	//
	// Returns:
	//   - error: an error if the surface attachments could not be recreated
	Resize(width, height int) error

	// SetPresentMode changes the present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	//
	// Returns:
	//   - error: an error if the surface could not be reconfigured
	SetPresentMode(mode PresentMode) error

	// AspectRatio returns the surface width divided by its height, or 1 while the surface has no area.
	//
	// Returns:
	//   - float32: the aspect ratio
	AspectRatio() float32

	// FrameIndex returns the index the next frame will carry.
	//
	// Returns:
	//   - uint64: the frame index
	FrameIndex() uint64

	// BeginFrame acquires the next surface image and uploads the camera's matrices and the light.
	//
	// Parameters:
	//   - camera: the camera the frame is rendered from
	//
	// Returns:
	//   - *scene.FrameInfo: the frame to render into, nil when the surface has nothing to draw to
	//   - error: an error if the frame could not be started
	BeginFrame(camera scene.Camera) (*scene.FrameInfo, error)

	// RenderQueue renders every component of queue into frame, in order.
	//
	// Parameters:
	//   - frame: the frame returned by BeginFrame
	//   - queue: the scene's render queue
	RenderQueue(frame *scene.FrameInfo, queue []scene.Component)

	// EndFrame submits and presents the frame started by BeginFrame.
	//
	// Returns:
	//   - error: an error if the frame could not be submitted
	EndFrame() error

	// Release frees every GPU object the renderer created. The device must be idle.
	Release()
}

type renderer struct {
	mu      sync.Mutex
	backend RendererBackend
	logger  *zap.Logger

	width       int
	height      int
	frameIndex  uint64
	frameActive bool

	pendingPresentMode *PresentMode
	pendingMSAA        *MSAASampleCount
	objectCapacity     int
	lightDirection     mgl32.Vec3
}

var _ Renderer = &renderer{}

// NewRenderer creates a renderer drawing to the surface of dev and configures it for the given size.
//
// Parameters:
//   - backendType: the GPU backend to use
//   - dev: the device owning the presentation surface, may be nil when WithBackend is given
//   - width: the initial framebuffer width in pixels
//   - height: the initial framebuffer height in pixels
//   - options: variadic list of RendererBuilderOption functions
//
// Returns:
//   - Renderer: the new renderer
//   - error: an error if the backend or the surface could not be set up
func NewRenderer(backendType RendererBackendType, dev webgpu.Device, width, height int, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		objectCapacity: 1024,
		lightDirection: DefaultLightDirection,
	}
	for _, opt := range options {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Named("renderer")
	}

	msaa := MSAA4x
	if r.pendingMSAA != nil {
		msaa = *r.pendingMSAA
	}
	if !msaa.Valid() {
		return nil, fmt.Errorf("renderer: invalid MSAA sample count %d", msaa)
	}
	if r.objectCapacity < 1 {
		return nil, fmt.Errorf("renderer: object capacity %d must be positive", r.objectCapacity)
	}

	if r.backend == nil {
		switch backendType {
		case BackendTypeWGPU:
			if dev == nil {
				return nil, errors.New("renderer: nil device")
			}
			b, err := newWGPURendererBackend(dev, msaa, r.objectCapacity, r.logger)
			if err != nil {
				return nil, err
			}
			r.backend = b
		default:
			return nil, fmt.Errorf("renderer: unsupported backend type %d", backendType)
		}
	}

	mode := PresentModeVSync
	if r.pendingPresentMode != nil {
		mode = *r.pendingPresentMode
	}
	r.backend.SetPresentMode(mode)
	if err := r.Resize(width, height); err != nil {
		r.backend.Release()
		return nil, err
	}

	r.logger.Info("renderer created",
		zap.Stringer("presentMode", mode),
		zap.Uint32("msaa", uint32(msaa)),
		zap.Int("objectCapacity", r.objectCapacity),
	)
	return r, nil
}

func (r *renderer) Resize(width, height int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.backend.ConfigureSurface(width, height); err != nil {
		return err
	}
	r.width, r.height = width, height
	return nil
}

func (r *renderer) SetPresentMode(mode PresentMode) error {
	r.backend.SetPresentMode(mode)
	r.mu.Lock()
	w, h := r.width, r.height
	r.mu.Unlock()
	return r.Resize(w, h)
}

func (r *renderer) AspectRatio() float32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.width <= 0 || r.height <= 0 {
		return 1
	}
	return float32(r.width) / float32(r.height)
}

func (r *renderer) FrameIndex() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frameIndex
}

func (r *renderer) BeginFrame(camera scene.Camera) (*scene.FrameInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frameActive {
		return nil, ErrFrameInProgress
	}
	if camera == nil {
		return nil, errors.New("renderer: nil camera")
	}

	globals := GlobalUniform{
		ProjectionView: camera.Projection().Mul4(camera.View()),
		LightDirection: r.lightDirection.Vec4(0),
	}
	r.backend.WriteGlobals(common.StructToBytes(&globals))

	target, err := r.backend.BeginFrame()
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, nil
	}
	r.frameActive = true

	return &scene.FrameInfo{
		FrameIndex:      r.frameIndex,
		Target:          target,
		Camera:          camera,
		GlobalBindGroup: r.backend.GlobalBindGroup(),
	}, nil
}

func (r *renderer) RenderQueue(frame *scene.FrameInfo, queue []scene.Component) {
	if frame == nil {
		return
	}
	for _, c := range queue {
		c.Render(frame)
	}
}

func (r *renderer) EndFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.frameActive {
		return nil
	}
	r.frameActive = false
	if err := r.backend.EndFrame(); err != nil {
		return err
	}
	r.backend.Present()
	r.frameIndex++
	return nil
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Release()
}
