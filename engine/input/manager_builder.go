package input

import "go.uber.org/zap"

// ManagerBuilderOption is a functional option for configuring a Manager.
type ManagerBuilderOption func(m *managerImpl)

// WithPath sets the document the bindings are loaded from and saved to.
//
// Parameters:
//   - path: file system path of the input document
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithPath(path string) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.path = path
	}
}

// WithLogger sets the logger used for binding diagnostics.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithLogger(l *zap.Logger) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.logger = l
	}
}

// WithAction registers an action at construction time.
//
// Parameters:
//   - name: the action name
//   - action: the action
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithAction(name string, action Action) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.pending = append(m.pending, namedAction{name: name, action: action})
	}
}
