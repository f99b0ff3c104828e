package assets

import "go.uber.org/zap"

// ManagerBuilderOption is a functional option for configuring a Manager.
type ManagerBuilderOption func(m *managerImpl)

// WithRoot sets the directory relative asset paths are resolved against.
//
// Parameters:
//   - root: the asset directory
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithRoot(root string) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.root = root
	}
}

// WithWorkers sets how many meshes Preload parses at once. Values below 1 are raised to 1.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithWorkers(n int) ManagerBuilderOption {
	return func(m *managerImpl) {
		m.workers = n
	}
}

// WithAssets registers name to path pairs at construction time.
//
// Parameters:
//   - assets: asset names mapped to OBJ files
//
// Returns:
//   - ManagerBuilderOption: option function to apply
func WithAssets(assets map[string]string) ManagerBuilderOption {
	return func(m *managerImpl) {
		for name, path := range assets {
			m.pending[name] = path
		}
	}
}

// WithLogger sets the logger used for asset diagnostics.
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
