package input

import (
	"fmt"
	"slices"

	"github.com/Carmen-Shannon/cmx-go/engine/logger"
	"go.uber.org/zap"
)

// Manager is a named dictionary of input actions polled against a single device state.
//
// A Manager is driven from the frame loop goroutine and is not safe for concurrent use.
type Manager interface {
	// AddInput registers action under name, replacing any action already registered under it.
	//
	// Parameters:
	//   - name: the action name
	//   - action: the action
	AddInput(name string, action Action)

	// Action returns the action registered under name, or nil.
	//
	// Parameters:
	//   - name: the action name
	//
	// Returns:
	//   - Action: the action or nil
	Action(name string) Action

	// Names returns the registered action names in the order they are polled.
	//
	// Returns:
	//   - []string: the sorted names
	Names() []string

	// BindButton binds cb to the named button action. A missing name logs a warning and returns nil.
	//
	// Parameters:
	//   - name: the action name
	//   - cb: the callback
	//
	// Returns:
	//   - error: a *ConfigurationError if the action is not a button action
	BindButton(name string, cb ButtonCallback) error

	// BindAxis binds cb to the named axis action. A missing name logs a warning and returns nil.
	//
	// Parameters:
	//   - name: the action name
	//   - cb: the callback
	//
	// Returns:
	//   - error: a *ConfigurationError if the action is not an axis action
	BindAxis(name string, cb AxisCallback) error

	// PollEvents pumps the device's event queue and then polls every action in name order.
	//
	// Parameters:
	//   - dt: elapsed time since the previous frame in seconds
	PollEvents(dt float32)

	// SetMouseCapture hides and locks the cursor, or releases it.
	//
	// Parameters:
	//   - captured: whether the cursor is captured
	SetMouseCapture(captured bool)

	// Path returns the file the bindings are loaded from and saved to.
	Path() string

	// Load replaces the bindings with the document stored at Path.
	//
	// Returns:
	//   - error: a read, decode or validation error
	Load() error

	// Apply replaces the bindings with doc. Callbacks bound to an action survive when the
	// document defines an action of the same name and kind.
	//
	// Parameters:
	//   - doc: the input document
	//
	// Returns:
	//   - error: a validation error; the bindings are unchanged on error
	Apply(doc *Document) error

	// Document captures the current bindings.
	//
	// Returns:
	//   - *Document: the bindings in name order
	Document() *Document

	// Save writes the bindings to Path.
	//
	// Returns:
	//   - error: a create or encode error
	Save() error

	// SaveAs writes the bindings to path and makes it the manager's Path.
	//
	// Parameters:
	//   - path: destination file
	//
	// Returns:
	//   - error: a create or encode error
	SaveAs(path string) error
}

type managerImpl struct {
	device  DeviceState
	path    string
	logger  *zap.Logger
	actions map[string]Action
	names   []string
	pending []namedAction
}

type namedAction struct {
	name   string
	action Action
}

var _ Manager = &managerImpl{}

// NewManager creates an input manager reading from dev.
//
// Parameters:
//   - dev: the device state actions are polled against
//   - options: functional options
//
// Returns:
//   - Manager: the new manager
func NewManager(dev DeviceState, options ...ManagerBuilderOption) Manager {
	if dev == nil {
		panic("input: NewManager requires a device state")
	}
	m := &managerImpl{
		device:  dev,
		actions: make(map[string]Action),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.Named("input")
	}
	for _, p := range m.pending {
		m.AddInput(p.name, p.action)
	}
	m.pending = nil
	return m
}

func (m *managerImpl) AddInput(name string, action Action) {
	if action == nil {
		panic(fmt.Sprintf("input: nil action for %q", name))
	}
	if _, ok := m.actions[name]; ok {
		m.logger.Debug("input replaced", zap.String("name", name))
	} else {
		i, _ := slices.BinarySearch(m.names, name)
		m.names = slices.Insert(m.names, i, name)
	}
	m.actions[name] = action
}

func (m *managerImpl) Action(name string) Action {
	return m.actions[name]
}

func (m *managerImpl) Names() []string {
	return slices.Clone(m.names)
}

func (m *managerImpl) BindButton(name string, cb ButtonCallback) error {
	action, ok := m.actions[name]
	if !ok {
		m.logger.Warn("bind to missing input", zap.String("name", name))
		return nil
	}
	if err := action.Bind(cb); err != nil {
		return withAction(err, name)
	}
	m.logger.Info("bound button input", zap.String("name", name))
	return nil
}

func (m *managerImpl) BindAxis(name string, cb AxisCallback) error {
	action, ok := m.actions[name]
	if !ok {
		m.logger.Warn("bind to missing input", zap.String("name", name))
		return nil
	}
	if err := action.Bind(cb); err != nil {
		return withAction(err, name)
	}
	m.logger.Info("bound axis input", zap.String("name", name))
	return nil
}

func withAction(err error, name string) error {
	if cfg, ok := err.(*ConfigurationError); ok {
		cfg.Action = name
	}
	return err
}

func (m *managerImpl) PollEvents(dt float32) {
	m.device.PollEvents()
	// callbacks may Apply a new document mid-loop
	for _, name := range slices.Clone(m.names) {
		if action, ok := m.actions[name]; ok {
			action.Poll(m.device, dt)
		}
	}
}

func (m *managerImpl) SetMouseCapture(captured bool) {
	m.device.SetCursorCaptured(captured)
}

func (m *managerImpl) Path() string {
	return m.path
}
