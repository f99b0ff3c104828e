package window

import (
	"fmt"

	"github.com/Carmen-Shannon/cmx-go/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type glfwWindow struct {
	window *glfw.Window
}

// newPlatformWindow creates the GLFW window and stores it as the internal window.
//
// GLFW reference: https://www.glfw.org/docs/latest/window_guide.html
// go-gl/glfw: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	if err := glfw.Init(); err != nil {
		return fmt.Errorf("window: initialize GLFW: %w", err)
	}

	// WebGPU provides its own graphics API, so disable OpenGL context creation.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	if w.resizable {
		glfw.WindowHint(glfw.Resizable, glfw.True)
	} else {
		glfw.WindowHint(glfw.Resizable, glfw.False)
	}

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("window: create GLFW window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)

	// presses shorter than a frame still show up in the next poll
	win.SetInputMode(glfw.StickyKeysMode, glfw.True)
	win.SetInputMode(glfw.StickyMouseButtonsMode, glfw.True)

	w.internalWindow = &glfwWindow{window: win}

	// Framebuffer size is in pixels, which differs from the window size on high-DPI displays.
	// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Window.SetFramebufferSizeCallback
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.width = width
		w.height = height
		if w.onResize != nil {
			w.onResize(width, height)
		}
	})

	w.width, w.height = win.GetFramebufferSize()
	return nil
}

func handle(w *engineWindow) *glfw.Window {
	if w.internalWindow == nil {
		return nil
	}
	return w.internalWindow.(*glfwWindow).window
}

// Reference: https://pkg.go.dev/github.com/cogentcore/webgpu/wgpuglfw#GetSurfaceDescriptor
func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	win := handle(w)
	if win == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(win)
}

func platformIsRunningCheck(w *engineWindow) bool {
	win := handle(w)
	return win != nil && !win.ShouldClose()
}

func platformRequestClose(w *engineWindow) {
	if win := handle(w); win != nil {
		win.SetShouldClose(true)
	}
}

func platformCloseWindow(w *engineWindow) error {
	win := handle(w)
	if win == nil {
		return fmt.Errorf("window: not initialized")
	}
	win.Destroy()
	w.internalWindow = nil
	glfw.Terminate()
	return nil
}

// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#PollEvents
func platformProcessMessages(w *engineWindow) {
	if handle(w) != nil {
		glfw.PollEvents()
	}
}

func platformKey(w *engineWindow, code int) int {
	win := handle(w)
	if win == nil {
		return 0
	}
	return actionState(win.GetKey(glfw.Key(code)))
}

func platformMouseButton(w *engineWindow, code int) int {
	win := handle(w)
	if win == nil {
		return 0
	}
	return actionState(win.GetMouseButton(glfw.MouseButton(code)))
}

func platformCursorPos(w *engineWindow) (float64, float64) {
	win := handle(w)
	if win == nil {
		return 0, 0
	}
	return win.GetCursorPos()
}

// Reference: https://www.glfw.org/docs/latest/input_guide.html#cursor_mode
func platformSetCursorCaptured(w *engineWindow, captured bool) {
	win := handle(w)
	if win == nil {
		return
	}
	if captured {
		win.SetInputMode(glfw.CursorMode, glfw.CursorDisabled)
		if glfw.RawMouseMotionSupported() {
			win.SetInputMode(glfw.RawMouseMotion, glfw.True)
		}
		return
	}
	win.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	if glfw.RawMouseMotionSupported() {
		win.SetInputMode(glfw.RawMouseMotion, glfw.False)
	}
}

func actionState(a glfw.Action) int {
	if a == glfw.Release {
		return 0
	}
	return 1
}

func validKey(code int) bool {
	return code >= int(common.KeySpace) && code <= int(common.KeyLast)
}

func validMouseButton(code int) bool {
	return code >= int(common.MouseButtonLeft) && code <= int(common.MouseButtonLast)
}
