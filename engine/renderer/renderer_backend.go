package renderer

import "github.com/Carmen-Shannon/cmx-go/engine/device"

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately and may tear.
	PresentModeUncapped
)

func (m PresentMode) String() string {
	if m == PresentModeVSync {
		return "vsync"
	}
	return "uncapped"
}

// MSAASampleCount controls the number of samples used for multisample anti-aliasing.
// WebGPU guarantees support for 1 and 4; higher values are adapter-dependent.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing.
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4x multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8x multisample anti-aliasing. Adapter-dependent.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16x multisample anti-aliasing. Adapter-dependent.
	MSAA16x MSAASampleCount = 16
)

// Valid reports whether c is one of the defined sample counts.
func (c MSAASampleCount) Valid() bool {
	switch c {
	case MSAAOff, MSAA4x, MSAA8x, MSAA16x:
		return true
	}
	return false
}

// RendererBackend is the GPU API specific half of the Renderer. It owns the surface configuration,
// the default pipeline and the per-frame command recording.
type RendererBackend interface {
	// ConfigureSurface (re)creates the swapchain and the depth and MSAA attachments for the given
	// size. A zero width or height leaves the surface unconfigured until the next call.
	//
	// Parameters:
	//   - width: the surface width in pixels
	//   - height: the surface height in pixels
	//
	// Returns:
	//   - error: an error if an attachment could not be created
	ConfigureSurface(width, height int) error

	// SetPresentMode changes the present mode applied by the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// WriteGlobals uploads the per-frame global uniform.
	//
	// Parameters:
	//   - data: the encoded GlobalUniform
	WriteGlobals(data []byte)

	// GlobalBindGroup returns the backend object bound at group 0.
	//
	// Returns:
	//   - any: the backend's global bind group
	GlobalBindGroup() any

	// BeginFrame acquires the next surface image and opens the frame's render pass with the
	// default pipeline and the global bind group already bound.
	//
	// Returns:
	//   - device.CommandTarget: the target components record into, nil when the surface has no image to draw to
	//   - error: an error if acquiring the image or opening the pass failed
	BeginFrame() (device.CommandTarget, error)

	// EndFrame closes the render pass and submits the recorded commands.
	//
	// Returns:
	//   - error: an error if the commands could not be finished
	EndFrame() error

	// Present shows the image acquired by BeginFrame.
	Present()

	// Release frees every GPU object the backend created.
	Release()
}
