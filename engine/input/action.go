package input

import (
	"fmt"

	"github.com/Carmen-Shannon/cmx-go/common"
	"github.com/go-gl/mathgl/mgl32"
)

// axisEpsilon is the smallest value length that triggers axis callbacks.
const axisEpsilon = 1.1920929e-7

// ButtonCallback receives the frame delta and the action's new combined state.
type ButtonCallback func(dt float32, status int)

// AxisCallback receives the frame delta and the action's value.
type AxisCallback func(dt float32, value mgl32.Vec2)

// Action is a named input that is polled once per frame.
type Action interface {
	// Poll samples the devices and fires the bound callbacks whose trigger condition is met.
	//
	// Parameters:
	//   - dev: the device state for this frame
	//   - dt: elapsed time since the previous frame in seconds
	Poll(dev DeviceState, dt float32)

	// Bind appends a callback. Button actions accept ButtonCallback or func(float32, int); axis
	// actions accept AxisCallback or func(float32, mgl32.Vec2).
	//
	// Parameters:
	//   - callback: the callback to bind
	//
	// Returns:
	//   - error: a *ConfigurationError when the callback has the wrong shape
	Bind(callback any) error
}

// ButtonAction combines one or more buttons into a single on/off state and fires its callbacks
// according to its mode.
type ButtonAction struct {
	mode      ButtonMode
	buttons   []Button
	status    int
	callbacks []ButtonCallback
}

var _ Action = &ButtonAction{}

// NewButtonAction creates a button action.
//
// Parameters:
//   - mode: when the action fires
//   - buttons: the bound buttons, combined with OR, or with AND for Shortcut
//
// Returns:
//   - *ButtonAction: the new action
func NewButtonAction(mode ButtonMode, buttons ...Button) *ButtonAction {
	return &ButtonAction{mode: mode, buttons: buttons}
}

func (a *ButtonAction) Mode() ButtonMode {
	return a.mode
}

func (a *ButtonAction) Buttons() []Button {
	return append([]Button(nil), a.buttons...)
}

// Status returns the combined state computed by the last poll.
func (a *ButtonAction) Status() int {
	return a.status
}

func (a *ButtonAction) Poll(dev DeviceState, dt float32) {
	next := 0
	if a.mode == Shortcut && len(a.buttons) > 0 {
		next = 1
	}
	for _, b := range a.buttons {
		var s int
		switch b.Source {
		case SourceKeyboard:
			s = dev.Key(b.Code)
		case SourceMouse:
			s = dev.MouseButton(b.Code)
		default:
			// gamepads contribute nothing, so a Shortcut including one never fires
			if a.mode == Shortcut {
				next = 0
			}
			continue
		}
		if a.mode == Shortcut {
			next &= s
		} else {
			next |= s
		}
	}

	fire := false
	switch a.mode {
	case Held:
		fire = next == 1
	case Pressed, Shortcut:
		fire = next == 1 && a.status == 0
	case Released:
		fire = next == 0 && a.status == 1
	case Toggle:
		fire = next != a.status
	}
	a.status = next

	if fire {
		for _, cb := range a.callbacks {
			cb(dt, next)
		}
	}
}

func (a *ButtonAction) Bind(callback any) error {
	switch cb := callback.(type) {
	case ButtonCallback:
		a.BindButton(cb)
	case func(float32, int):
		a.BindButton(cb)
	default:
		return &ConfigurationError{Kind: "button", Got: fmt.Sprintf("%T", callback)}
	}
	return nil
}

// BindButton appends a callback.
func (a *ButtonAction) BindButton(cb ButtonCallback) {
	a.callbacks = append(a.callbacks, cb)
}

type axisState struct {
	axis   Axis
	value  float32
	last   float32
	primed bool
}

// AxisAction produces a two-dimensional value either from two continuous axes or from four buttons,
// and fires its callbacks on every poll where the value is not zero.
type AxisAction struct {
	mode      AxisMode
	axes      [2]axisState
	buttons   [4]Button
	value     mgl32.Vec2
	callbacks []AxisCallback
}

var _ Action = &AxisAction{}

// NewAxesAction creates an axis action reading x and y from continuous axes. Pass AxisVoid to leave
// a component at zero.
//
// Parameters:
//   - x: the axis driving the value's X
//   - y: the axis driving the value's Y
//
// Returns:
//   - *AxisAction: the new action
func NewAxesAction(x, y Axis) *AxisAction {
	a := &AxisAction{mode: Axes, buttons: [4]Button{ButtonVoid, ButtonVoid, ButtonVoid, ButtonVoid}}
	a.axes[0].axis = x
	a.axes[1].axis = y
	return a
}

// NewButtonsAxisAction creates an axis action whose X is right minus left and whose Y is up minus
// down. Pass ButtonVoid for an unused direction.
//
// Parameters:
//   - right, left, up, down: the buttons for each direction
//
// Returns:
//   - *AxisAction: the new action
func NewButtonsAxisAction(right, left, up, down Button) *AxisAction {
	a := &AxisAction{mode: Buttons, buttons: [4]Button{right, left, up, down}}
	a.axes[0].axis = AxisVoid
	a.axes[1].axis = AxisVoid
	return a
}

func (a *AxisAction) Mode() AxisMode {
	return a.mode
}

func (a *AxisAction) Axes() [2]Axis {
	return [2]Axis{a.axes[0].axis, a.axes[1].axis}
}

func (a *AxisAction) Buttons() [4]Button {
	return a.buttons
}

// Value returns the value computed by the last poll.
func (a *AxisAction) Value() mgl32.Vec2 {
	return a.value
}

func (a *AxisAction) Poll(dev DeviceState, dt float32) {
	switch a.mode {
	case Buttons:
		var s [4]int
		for i, b := range a.buttons {
			if b.Code == common.CodeVoid {
				continue
			}
			switch b.Source {
			case SourceKeyboard:
				s[i] = dev.Key(b.Code)
			case SourceMouse:
				s[i] = dev.MouseButton(b.Code)
			}
		}
		a.value = mgl32.Vec2{float32(s[0] - s[1]), float32(s[2] - s[3])}
	case Axes:
		for i := range a.axes {
			a.axes[i].sample(dev)
		}
		a.value = mgl32.Vec2{a.axes[0].value, a.axes[1].value}
	}

	if a.value.Len() > axisEpsilon {
		for _, cb := range a.callbacks {
			cb(dt, a.value)
		}
	}
}

// sample reads the axis. Relative axes report the change since the previous sample and report zero
// on their first sample.
func (s *axisState) sample(dev DeviceState) {
	if s.axis.Code == common.CodeVoid || s.axis.Source != SourceMouse {
		s.value = 0
		return
	}

	x, y := dev.CursorPos()
	switch s.axis.Code {
	case common.MouseAxisXAbsolute:
		s.value = float32(x)
	case common.MouseAxisYAbsolute:
		s.value = float32(y)
	case common.MouseAxisXRelative, common.MouseAxisYRelative:
		abs := float32(x)
		if s.axis.Code == common.MouseAxisYRelative {
			abs = float32(y)
		}
		if s.primed {
			s.value = abs - s.last
		} else {
			s.value = 0
			s.primed = true
		}
		s.last = abs
	default:
		s.value = 0
	}
}

func (a *AxisAction) Bind(callback any) error {
	switch cb := callback.(type) {
	case AxisCallback:
		a.BindAxis(cb)
	case func(float32, mgl32.Vec2):
		a.BindAxis(cb)
	default:
		return &ConfigurationError{Kind: "axis", Got: fmt.Sprintf("%T", callback)}
	}
	return nil
}

// BindAxis appends a callback.
func (a *AxisAction) BindAxis(cb AxisCallback) {
	a.callbacks = append(a.callbacks, cb)
}
