// Package window opens the desktop window the engine presents into and exposes its keyboard and
// mouse state to the input system.
package window

import (
	"github.com/Carmen-Shannon/cmx-go/engine/input"
	"github.com/Carmen-Shannon/cmx-go/engine/logger"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// Window provides platform windowing and polled input state.
// All methods must be called from the goroutine that created the window, which must be locked to
// its OS thread.
type Window interface {
	input.DeviceState

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the platform-specific surface descriptor, or nil if the window is closed
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning returns true until the window is asked to close.
	//
	// Returns:
	//   - bool: true if the window is running
	IsRunning() bool

	// RequestClose flags the window to close. IsRunning reports false afterwards.
	RequestClose()

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was already closed
	Close() error

	// Width returns the current framebuffer width in pixels.
	//
	// Returns:
	//   - int: width in pixels
	Width() int

	// Height returns the current framebuffer height in pixels.
	//
	// Returns:
	//   - int: height in pixels
	Height() int
}

type engineWindow struct {
	title     string
	maxWidth  int
	maxHeight int
	minWidth  int
	minHeight int
	width     int
	height    int
	resizable bool
	logger    *zap.Logger

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onResize func(width, height int)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a new Window with the specified options.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: an error if the platform window could not be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "cmx",
		maxWidth:  3840,
		maxHeight: 2160,
		minWidth:  320,
		minHeight: 200,
		width:     1280,
		height:    720,
		resizable: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Named("window")
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, err
	}
	w.logger.Info("window opened",
		zap.String("title", w.title),
		zap.Int("width", w.width),
		zap.Int("height", w.height),
	)
	return w, nil
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) PollEvents() {
	platformProcessMessages(w)
}

func (w *engineWindow) Key(code int) int {
	if !validKey(code) {
		return 0
	}
	return platformKey(w, code)
}

func (w *engineWindow) MouseButton(code int) int {
	if !validMouseButton(code) {
		return 0
	}
	return platformMouseButton(w, code)
}

func (w *engineWindow) CursorPos() (float64, float64) {
	return platformCursorPos(w)
}

func (w *engineWindow) SetCursorCaptured(captured bool) {
	platformSetCursorCaptured(w, captured)
	w.logger.Debug("cursor capture changed", zap.Bool("captured", captured))
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}
