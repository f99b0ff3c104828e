// Package input maps raw keyboard and mouse state onto named, bindable actions.
// Actions are polled once per frame; bound callbacks fire when an action's trigger condition is met.
package input

import (
	"fmt"

	"github.com/Carmen-Shannon/cmx-go/common"
)

// Source identifies the device a button or axis is read from.
type Source int

const (
	SourceKeyboard Source = iota
	SourceMouse
	// SourceGamepad is recognized in documents but never reports input.
	SourceGamepad
)

var sourceNames = map[Source]string{
	SourceKeyboard: "KEYBOARD",
	SourceMouse:    "MOUSE",
	SourceGamepad:  "GAMEPAD",
}

func (s Source) String() string {
	if name, ok := sourceNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

func (s Source) MarshalText() ([]byte, error) {
	name, ok := sourceNames[s]
	if !ok {
		return nil, fmt.Errorf("input: unknown source %d", int(s))
	}
	return []byte(name), nil
}

func (s *Source) UnmarshalText(text []byte) error {
	for src, name := range sourceNames {
		if name == string(text) {
			*s = src
			return nil
		}
	}
	return fmt.Errorf("input: unknown source %q", text)
}

// Button is a key or mouse button code together with the device it belongs to.
type Button struct {
	Code   int    `yaml:"code"`
	Source Source `yaml:"source"`
}

// Axis is a continuous input code together with the device it belongs to.
// Mouse axis codes are the common.MouseAxis* constants.
type Axis struct {
	Code   int    `yaml:"code"`
	Source Source `yaml:"source"`
}

// ButtonVoid marks an unused button slot of an axis action.
var ButtonVoid = Button{Code: common.CodeVoid, Source: SourceKeyboard}

// AxisVoid marks an unused axis slot of an axis action.
var AxisVoid = Axis{Code: common.CodeVoid, Source: SourceMouse}

// Key returns a keyboard button.
func Key(code int) Button {
	return Button{Code: code, Source: SourceKeyboard}
}

// MouseButton returns a mouse button.
func MouseButton(code int) Button {
	return Button{Code: code, Source: SourceMouse}
}

// MouseAxis returns a mouse axis.
func MouseAxis(code int) Axis {
	return Axis{Code: code, Source: SourceMouse}
}

// ButtonMode selects when a ButtonAction fires.
type ButtonMode int

const (
	// Pressed fires on the frame the combined state goes from released to pressed.
	Pressed ButtonMode = iota
	// Held fires every frame the combined state is pressed.
	Held
	// Released fires on the frame the combined state goes from pressed to released.
	Released
	// Shortcut requires every bound button to be pressed and fires on the frame that becomes true.
	Shortcut
	// Toggle fires on every change of the combined state.
	Toggle
)

var buttonModeNames = map[ButtonMode]string{
	Pressed:  "PRESSED",
	Held:     "HELD",
	Released: "RELEASED",
	Shortcut: "SHORTCUT",
	Toggle:   "TOGGLE",
}

func (m ButtonMode) String() string {
	if name, ok := buttonModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("ButtonMode(%d)", int(m))
}

func (m ButtonMode) MarshalText() ([]byte, error) {
	name, ok := buttonModeNames[m]
	if !ok {
		return nil, fmt.Errorf("input: unknown button mode %d", int(m))
	}
	return []byte(name), nil
}

func (m *ButtonMode) UnmarshalText(text []byte) error {
	for mode, name := range buttonModeNames {
		if name == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("input: unknown button mode %q", text)
}

// AxisMode selects how an AxisAction computes its value.
type AxisMode int

const (
	// Axes reads up to two continuous axes into the value's X and Y.
	Axes AxisMode = iota
	// Buttons derives X from buttons 0 and 1 and Y from buttons 2 and 3 as positive minus negative.
	Buttons
)

var axisModeNames = map[AxisMode]string{
	Axes:    "AXES",
	Buttons: "BUTTONS",
}

func (m AxisMode) String() string {
	if name, ok := axisModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("AxisMode(%d)", int(m))
}

func (m AxisMode) MarshalText() ([]byte, error) {
	name, ok := axisModeNames[m]
	if !ok {
		return nil, fmt.Errorf("input: unknown axis mode %d", int(m))
	}
	return []byte(name), nil
}

func (m *AxisMode) UnmarshalText(text []byte) error {
	for mode, name := range axisModeNames {
		if name == string(text) {
			*m = mode
			return nil
		}
	}
	return fmt.Errorf("input: unknown axis mode %q", text)
}

// DeviceState is the synchronous view of the input devices that actions poll.
// Button states are 1 while pressed and 0 otherwise.
type DeviceState interface {
	// PollEvents pumps the platform event queue so the state reflects the current frame.
	PollEvents()

	// Key returns the state of a keyboard key.
	//
	// Parameters:
	//   - code: the key code
	//
	// Returns:
	//   - int: 1 if pressed, 0 otherwise
	Key(code int) int

	// MouseButton returns the state of a mouse button.
	//
	// Parameters:
	//   - code: the mouse button code
	//
	// Returns:
	//   - int: 1 if pressed, 0 otherwise
	MouseButton(code int) int

	// CursorPos returns the cursor position in window coordinates.
	//
	// Returns:
	//   - x, y: the cursor position
	CursorPos() (x, y float64)

	// SetCursorCaptured hides and locks the cursor when captured is true, and restores it otherwise.
	//
	// Parameters:
	//   - captured: whether the cursor is captured
	SetCursorCaptured(captured bool)
}

// ConfigurationError reports a callback bound to an action of the wrong shape.
type ConfigurationError struct {
	Action string
	Kind   string
	Got    string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("input: %s action %q cannot be bound to %s", e.Kind, e.Action, e.Got)
}
