package input

import (
	"testing"

	"github.com/Carmen-Shannon/cmx-go/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	keys     map[int]int
	buttons  map[int]int
	x, y     float64
	polls    int
	captured bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{keys: make(map[int]int), buttons: make(map[int]int)}
}

func (d *fakeDevice) PollEvents() { d.polls++ }
func (d *fakeDevice) Key(code int) int { return d.keys[code] }
func (d *fakeDevice) MouseButton(code int) int { return d.buttons[code] }
func (d *fakeDevice) CursorPos() (float64, float64) { return d.x, d.y }
func (d *fakeDevice) SetCursorCaptured(c bool) { d.captured = c }

// frames polls a single-key action once per entry of states and returns the 1-based frames that fired.
func frames(t *testing.T, mode ButtonMode, states []int) []int {
	t.Helper()
	dev := newFakeDevice()
	action := NewButtonAction(mode, Key(common.KeySpace))
	frame := 0
	var fired []int
	require.NoError(t, action.Bind(func(dt float32, status int) {
		fired = append(fired, frame)
	}))
	for i, s := range states {
		frame = i + 1
		dev.keys[common.KeySpace] = s
		action.Poll(dev, 0.016)
	}
	return fired
}

func TestButtonModes(t *testing.T) {
	tests := []struct {
		name   string
		mode   ButtonMode
		states []int
		want   []int
	}{
		{"toggle fires on every edge", Toggle, []int{0, 1, 1, 0, 1}, []int{2, 4, 5}},
		{"held fires while down", Held, []int{0, 1, 1, 0, 1}, []int{2, 3, 5}},
		{"pressed fires on rising edge", Pressed, []int{0, 1, 1, 0, 1}, []int{2, 5}},
		{"released fires on falling edge", Released, []int{1, 1, 0, 0, 1, 0}, []int{3, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, frames(t, tt.mode, tt.states))
		})
	}
}

func TestButtonCallbackReceivesDeltaAndStatus(t *testing.T) {
	dev := newFakeDevice()
	action := NewButtonAction(Toggle, Key(common.KeyE))
	var got []int
	var dts []float32
	action.BindButton(func(dt float32, status int) {
		dts = append(dts, dt)
		got = append(got, status)
	})

	dev.keys[common.KeyE] = 1
	action.Poll(dev, 0.5)
	dev.keys[common.KeyE] = 0
	action.Poll(dev, 0.25)

	assert.Equal(t, []int{1, 0}, got)
	assert.Equal(t, []float32{0.5, 0.25}, dts)
}

func TestButtonCallbacksRunInBindingOrder(t *testing.T) {
	dev := newFakeDevice()
	action := NewButtonAction(Pressed, MouseButton(common.MouseButtonLeft))
	var order []string
	action.BindButton(func(float32, int) { order = append(order, "first") })
	action.BindButton(func(float32, int) { order = append(order, "second") })

	dev.buttons[common.MouseButtonLeft] = 1
	action.Poll(dev, 0)

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestOrCombinesButtons(t *testing.T) {
	dev := newFakeDevice()
	action := NewButtonAction(Held, Key(common.KeyW), Key(common.KeyUp))
	count := 0
	action.BindButton(func(float32, int) { count++ })

	action.Poll(dev, 0)
	dev.keys[common.KeyUp] = 1
	action.Poll(dev, 0)
	dev.keys[common.KeyW] = 1
	action.Poll(dev, 0)

	assert.Equal(t, 2, count)
}

func TestShortcutRequiresAllButtons(t *testing.T) {
	dev := newFakeDevice()
	action := NewButtonAction(Shortcut, Key(common.KeyLeftControl), Key(common.KeyS))
	var fired []int
	frame := 0
	action.BindButton(func(float32, int) { fired = append(fired, frame) })

	steps := []struct{ ctrl, s int }{
		{0, 0}, // 1
		{1, 0}, // 2
		{1, 1}, // 3 fires
		{1, 1}, // 4 still held
		{0, 1}, // 5
		{1, 1}, // 6 fires again
	}
	for i, st := range steps {
		frame = i + 1
		dev.keys[common.KeyLeftControl] = st.ctrl
		dev.keys[common.KeyS] = st.s
		action.Poll(dev, 0)
	}

	assert.Equal(t, []int{3, 6}, fired)
}

func TestShortcutWithoutButtonsNeverFires(t *testing.T) {
	dev := newFakeDevice()
	action := NewButtonAction(Shortcut)
	action.BindButton(func(float32, int) { t.Fatal("fired") })
	action.Poll(dev, 0)
	assert.Equal(t, 0, action.Status())
}

func TestGamepadIsInert(t *testing.T) {
	dev := newFakeDevice()
	dev.keys[0] = 1
	action := NewButtonAction(Held, Button{Code: 0, Source: SourceGamepad})
	action.BindButton(func(float32, int) { t.Fatal("fired") })
	action.Poll(dev, 0)

	shortcut := NewButtonAction(Shortcut, Key(common.KeyA), Button{Code: 0, Source: SourceGamepad})
	dev.keys[common.KeyA] = 1
	shortcut.BindButton(func(float32, int) { t.Fatal("fired") })
	shortcut.Poll(dev, 0)
}

func TestAxisFromButtons(t *testing.T) {
	dev := newFakeDevice()
	action := NewButtonsAxisAction(Key(common.KeyD), Key(common.KeyA), Key(common.KeyW), Key(common.KeyS))
	var got []mgl32.Vec2
	action.BindAxis(func(dt float32, v mgl32.Vec2) { got = append(got, v) })

	action.Poll(dev, 0)
	dev.keys[common.KeyD] = 1
	dev.keys[common.KeyS] = 1
	action.Poll(dev, 0)
	dev.keys[common.KeyA] = 1
	action.Poll(dev, 0)

	assert.Equal(t, []mgl32.Vec2{{1, -1}, {0, -1}}, got)
	assert.Equal(t, mgl32.Vec2{0, -1}, action.Value())
}

func TestAxisFromButtonsSkipsVoid(t *testing.T) {
	dev := newFakeDevice()
	dev.keys[common.CodeVoid] = 1
	action := NewButtonsAxisAction(ButtonVoid, ButtonVoid, Key(common.KeySpace), ButtonVoid)
	calls := 0
	action.BindAxis(func(float32, mgl32.Vec2) { calls++ })

	action.Poll(dev, 0)
	assert.Equal(t, 0, calls)

	dev.keys[common.KeySpace] = 1
	action.Poll(dev, 0)
	assert.Equal(t, 1, calls)
	assert.Equal(t, mgl32.Vec2{0, 1}, action.Value())
}

func TestAbsoluteMouseAxes(t *testing.T) {
	dev := newFakeDevice()
	action := NewAxesAction(MouseAxis(common.MouseAxisXAbsolute), MouseAxis(common.MouseAxisYAbsolute))
	var got []mgl32.Vec2
	action.BindAxis(func(dt float32, v mgl32.Vec2) { got = append(got, v) })

	action.Poll(dev, 0)
	dev.x, dev.y = 320, 240
	action.Poll(dev, 0)

	assert.Equal(t, []mgl32.Vec2{{320, 240}}, got)
}

func TestRelativeMouseAxesReportDeltas(t *testing.T) {
	dev := newFakeDevice()
	dev.x, dev.y = 100, 50
	action := NewAxesAction(MouseAxis(common.MouseAxisXRelative), MouseAxis(common.MouseAxisYRelative))
	var got []mgl32.Vec2
	action.BindAxis(func(dt float32, v mgl32.Vec2) { got = append(got, v) })

	action.Poll(dev, 0)
	dev.x, dev.y = 110, 45
	action.Poll(dev, 0)
	action.Poll(dev, 0)
	dev.x = 100
	action.Poll(dev, 0)

	assert.Equal(t, []mgl32.Vec2{{10, -5}, {-10, 0}}, got)
}

func TestAxisBelowEpsilonDoesNotFire(t *testing.T) {
	dev := newFakeDevice()
	dev.x = 1e-8
	action := NewAxesAction(MouseAxis(common.MouseAxisXAbsolute), AxisVoid)
	action.BindAxis(func(float32, mgl32.Vec2) { t.Fatal("fired") })
	action.Poll(dev, 0)
}

func TestBindWrongShape(t *testing.T) {
	button := NewButtonAction(Pressed, Key(common.KeyQ))
	err := button.Bind(func(float32, mgl32.Vec2) {})
	var cfg *ConfigurationError
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "button", cfg.Kind)

	axis := NewAxesAction(AxisVoid, AxisVoid)
	err = axis.Bind(ButtonCallback(func(float32, int) {}))
	require.ErrorAs(t, err, &cfg)
	assert.Equal(t, "axis", cfg.Kind)

	assert.NoError(t, axis.Bind(AxisCallback(func(float32, mgl32.Vec2) {})))
}

func TestEnumText(t *testing.T) {
	var src Source
	require.NoError(t, src.UnmarshalText([]byte("MOUSE")))
	assert.Equal(t, SourceMouse, src)
	assert.Error(t, src.UnmarshalText([]byte("JOYSTICK")))

	var mode ButtonMode
	require.NoError(t, mode.UnmarshalText([]byte("SHORTCUT")))
	assert.Equal(t, Shortcut, mode)

	text, err := Buttons.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "BUTTONS", string(text))

	_, err = AxisMode(9).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "Source(7)", Source(7).String())
}
