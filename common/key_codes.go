package common

// Virtual key codes for cross-platform input handling.
// These values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
const (
	KeyW         = 87  // W key (ASCII)
	KeyA         = 65  // A key (ASCII)
	KeyS         = 83  // S key (ASCII)
	KeyD         = 68  // D key (ASCII)
	KeyQ         = 81  // Q key (ASCII)
	KeyE         = 69  // E key (ASCII)
	KeyC         = 67  // C key (ASCII)
	KeyF         = 70  // F key (ASCII)
	KeyR         = 82  // R key (ASCII)
	KeySpace     = 32  // Spacebar (ASCII)
	KeyEsc       = 256 // Escape key (GLFW)
	KeyEnter     = 257 // Enter key (GLFW)
	KeyTab       = 258 // Tab key (GLFW)
	KeyBackspace = 259 // Backspace key (GLFW)

	KeyRight = 262 // Right arrow (GLFW)
	KeyLeft  = 263 // Left arrow (GLFW)
	KeyDown  = 264 // Down arrow (GLFW)
	KeyUp    = 265 // Up arrow (GLFW)

	Key0 = 48 // 0 key (ASCII)
	Key1 = 49 // 1 key (ASCII)
	Key2 = 50 // 2 key (ASCII)
	Key3 = 51 // 3 key (ASCII)
)

// Modifier keys
const (
	KeyLeftShift    = 340 // Left Shift (GLFW)
	KeyLeftControl  = 341 // Left Control (GLFW)
	KeyLeftAlt      = 342 // Left Alt (GLFW)
	KeyRightShift   = 344 // Right Shift (GLFW)
	KeyRightControl = 345 // Right Control (GLFW)

	// KeyLast is the highest key code GLFW reports.
	KeyLast = 348
)

// Mouse button codes, matching glfw.MouseButton values.
const (
	MouseButtonLeft   = 0
	MouseButtonRight  = 1
	MouseButtonMiddle = 2
	MouseButtonLast   = 7
)

// Mouse axis codes used by axis input actions.
// Absolute axes report the cursor position, relative axes report the delta since the previous poll.
const (
	MouseAxisXAbsolute = 0
	MouseAxisYAbsolute = 1
	MouseAxisXRelative = 2
	MouseAxisYRelative = 3
)

// CodeVoid marks an unbound button or axis slot. Void slots are skipped when polling.
const CodeVoid = -1
