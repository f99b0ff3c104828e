package renderer

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPresentMode sets the surface present mode which controls how frames are delivered to the display.
//
// Parameters:
//   - mode: the PresentMode to use (VSync or Uncapped)
//
// Returns:
//   - RendererBuilderOption: a function that applies the present mode option to a renderer
func WithPresentMode(mode PresentMode) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingPresentMode = &mode
	}
}

// WithMSAA sets the multisample anti-aliasing sample count for the renderer.
// When not specified, the default is MSAA4x.
//
// Parameters:
//   - count: the MSAASampleCount to use (MSAAOff, MSAA4x, MSAA8x, or MSAA16x)
//
// Returns:
//   - RendererBuilderOption: a function that applies the MSAA option to a renderer
func WithMSAA(count MSAASampleCount) RendererBuilderOption {
	return func(r *renderer) {
		r.pendingMSAA = &count
	}
}

// WithObjectCapacity sets how many objects a single frame can push per-object data for.
// The default is 1024.
//
// Parameters:
//   - n: the number of per-object slots
//
// Returns:
//   - RendererBuilderOption: a function that applies the capacity option to a renderer
func WithObjectCapacity(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.objectCapacity = n
	}
}

// WithLightDirection sets the direction the directional light travels in. It is normalized.
//
// Parameters:
//   - dir: the light direction
//
// Returns:
//   - RendererBuilderOption: a function that applies the light option to a renderer
func WithLightDirection(dir mgl32.Vec3) RendererBuilderOption {
	return func(r *renderer) {
		if dir.Len() > 0 {
			r.lightDirection = dir.Normalize()
		}
	}
}

// WithBackend replaces the GPU backend selected by the backend type.
//
// Parameters:
//   - b: the backend to render with
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(b RendererBackend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = b
	}
}

// WithLogger sets the logger used for renderer diagnostics.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(l *zap.Logger) RendererBuilderOption {
	return func(r *renderer) {
		r.logger = l
	}
}
