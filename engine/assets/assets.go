// Package assets resolves named models for scenes and caches them for the lifetime of the engine.
package assets

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/cmx-go/engine/device"
	"github.com/Carmen-Shannon/cmx-go/engine/logger"
	"github.com/Carmen-Shannon/cmx-go/engine/model"
	"github.com/Carmen-Shannon/cmx-go/engine/scene"
	"go.uber.org/zap"
)

// ErrUnknownAsset is returned for asset names that were never registered.
var ErrUnknownAsset = errors.New("assets: unknown asset")

// Manager maps asset names to model files and keeps one reference to every model it has loaded.
// Each call to Model hands out an additional reference that the caller releases.
//
// Manager methods are safe for concurrent use, but models are uploaded on the calling goroutine.
type Manager interface {
	scene.AssetSource

	// Register maps name to a model file. Relative paths are resolved against the manager's root.
	//
	// Parameters:
	//   - name: the asset name
	//   - path: the OBJ file
	Register(name, path string)

	// Preload parses every registered asset not yet loaded in parallel on the worker pool, then
	// uploads the parsed meshes one after another.
	//
	// Returns:
	//   - error: the joined parse and upload errors; assets that succeeded stay loaded
	Preload() error

	// Loaded returns the names of the loaded assets in sorted order.
	//
	// Returns:
	//   - []string: the loaded asset names
	Loaded() []string

	// Release drops the manager's reference to every loaded model.
	//
	// Returns:
	//   - error: the joined release errors
	Release() error
}

type managerImpl struct {
	mu      sync.Mutex
	dev     device.Device
	root    string
	workers int
	logger  *zap.Logger

	paths   map[string]string
	models  map[string]model.Model
	pending map[string]string
}

var _ Manager = &managerImpl{}

// NewManager creates an asset manager uploading to dev.
//
// Parameters:
//   - dev: the device models are uploaded to
//   - options: functional options
//
// Returns:
//   - Manager: the new manager
func NewManager(dev device.Device, options ...ManagerBuilderOption) Manager {
	m := &managerImpl{
		dev:     dev,
		workers: 4,
		paths:   make(map[string]string),
		models:  make(map[string]model.Model),
		pending: make(map[string]string),
	}
	for _, opt := range options {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.Named("assets")
	}
	if m.workers < 1 {
		m.workers = 1
	}
	for name, path := range m.pending {
		m.Register(name, path)
	}
	m.pending = nil
	return m
}

func (m *managerImpl) Register(name, path string) {
	if !filepath.IsAbs(path) && m.root != "" {
		path = filepath.Join(m.root, path)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths[name] = path
}

func (m *managerImpl) Model(name string) (model.Model, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mdl, ok := m.models[name]; ok {
		return mdl.Retain(), nil
	}
	path, ok := m.paths[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAsset, name)
	}
	mdl, err := model.CreateModelFromFile(m.dev, path, model.WithName(name), model.WithLogger(m.logger))
	if err != nil {
		return nil, err
	}
	m.models[name] = mdl
	return mdl.Retain(), nil
}

type parsed struct {
	name    string
	builder *model.Builder
	err     error
}

func (m *managerImpl) Preload() error {
	m.mu.Lock()
	var pending []string
	for name := range m.paths {
		if _, ok := m.models[name]; !ok {
			pending = append(pending, name)
		}
	}
	paths := make(map[string]string, len(pending))
	for _, name := range pending {
		paths[name] = m.paths[name]
	}
	m.mu.Unlock()

	if len(pending) == 0 {
		return nil
	}
	slices.Sort(pending)

	start := time.Now()
	results := make([]parsed, len(pending))
	pool := worker.NewDynamicWorkerPool(min(m.workers, len(pending)), 256, 1*time.Second)
	var wg sync.WaitGroup
	for i, name := range pending {
		wg.Add(1)
		idx, n := i, name
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				b, err := model.LoadBuilder(paths[n])
				results[idx] = parsed{name: n, builder: b, err: err}
				return nil, err
			},
		})
	}
	wg.Wait()

	var errs []error
	loaded := 0
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("assets: preload %q: %w", r.name, r.err))
			continue
		}
		if _, ok := m.models[r.name]; ok {
			continue
		}
		mdl, err := model.NewModel(m.dev, r.builder, model.WithName(r.name), model.WithLogger(m.logger))
		if err != nil {
			errs = append(errs, fmt.Errorf("assets: preload %q: %w", r.name, err))
			continue
		}
		m.models[r.name] = mdl
		loaded++
	}
	m.logger.Info("assets preloaded",
		zap.Int("loaded", loaded),
		zap.Int("failed", len(errs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return errors.Join(errs...)
}

func (m *managerImpl) Loaded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.models))
	for name := range m.models {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (m *managerImpl) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for name, mdl := range m.models {
		if err := mdl.Release(); err != nil {
			errs = append(errs, fmt.Errorf("assets: release %q: %w", name, err))
		}
		delete(m.models, name)
	}
	return errors.Join(errs...)
}
