package scene

import "go.uber.org/zap"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *sceneImpl)

// WithName sets the scene's identifier.
//
// Parameters:
//   - name: the scene name
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithName(name string) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.name = name
	}
}

// WithPath sets the document the scene is loaded from and saved to.
//
// Parameters:
//   - path: file system path of the scene document
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithPath(path string) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.path = path
	}
}

// WithAssets sets the asset source used to restore components from documents.
//
// Parameters:
//   - assets: the asset source
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithAssets(assets AssetSource) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.assets = assets
	}
}

// WithRenderQueueThreshold sets the lowest render order admitted into the render queue.
// The default is 0; -1 also queues components that opted out of rendering, which helps when
// debugging render order.
//
// Parameters:
//   - threshold: the lowest admitted render order
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRenderQueueThreshold(threshold int32) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.threshold = threshold
	}
}

// WithLogger sets the logger used for scene diagnostics.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLogger(l *zap.Logger) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.logger = l
	}
}

// WithActors adds initial actors to the scene in the given order.
//
// Parameters:
//   - actors: the actors to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActors(actors ...Actor) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.pending = append(s.pending, actors...)
	}
}
