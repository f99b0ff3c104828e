package components

import (
	"github.com/Carmen-Shannon/cmx-go/engine/model"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
)

type meshBuilder struct {
	name   string
	order  int32
	asset  string
	model  model.Model
	logger *zap.Logger
}

// MeshComponentBuilderOption is a functional option for configuring a MeshComponent.
type MeshComponentBuilderOption func(b *meshBuilder)

// WithMeshName sets the component name.
//
// Parameters:
//   - name: the component name
//
// Returns:
//   - MeshComponentBuilderOption: option function to apply
func WithMeshName(name string) MeshComponentBuilderOption {
	return func(b *meshBuilder) {
		b.name = name
	}
}

// WithMeshRenderOrder sets the render order.
//
// Parameters:
//   - order: the render order
//
// Returns:
//   - MeshComponentBuilderOption: option function to apply
func WithMeshRenderOrder(order int32) MeshComponentBuilderOption {
	return func(b *meshBuilder) {
		b.order = order
	}
}

// WithModel sets the initial model. The component takes over the caller's reference.
//
// Parameters:
//   - asset: the asset name written when the scene is saved, may be empty
//   - mdl: the model
//
// Returns:
//   - MeshComponentBuilderOption: option function to apply
func WithModel(asset string, mdl model.Model) MeshComponentBuilderOption {
	return func(b *meshBuilder) {
		b.asset = asset
		b.model = mdl
	}
}

// WithMeshLogger sets the logger used for render diagnostics.
//
// Parameters:
//   - l: the logger
//
// Returns:
//   - MeshComponentBuilderOption: option function to apply
func WithMeshLogger(l *zap.Logger) MeshComponentBuilderOption {
	return func(b *meshBuilder) {
		b.logger = l
	}
}

type cameraBuilder struct {
	name string
	fov  float32
	near float32
	far  float32
}

// CameraComponentBuilderOption is a functional option for configuring a CameraComponent.
type CameraComponentBuilderOption func(b *cameraBuilder)

// WithCameraName sets the component name.
//
// Parameters:
//   - name: the component name
//
// Returns:
//   - CameraComponentBuilderOption: option function to apply
func WithCameraName(name string) CameraComponentBuilderOption {
	return func(b *cameraBuilder) {
		b.name = name
	}
}

// WithFov sets the vertical field of view.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraComponentBuilderOption: option function to apply
func WithFov(fov float32) CameraComponentBuilderOption {
	return func(b *cameraBuilder) {
		b.fov = fov
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraComponentBuilderOption: option function to apply
func WithClipPlanes(near, far float32) CameraComponentBuilderOption {
	return func(b *cameraBuilder) {
		b.near = near
		b.far = far
	}
}

type rotatorBuilder struct {
	name       string
	speed      mgl32.Vec3
	multiplier float32
}

// RotatorComponentBuilderOption is a functional option for configuring a RotatorComponent.
type RotatorComponentBuilderOption func(b *rotatorBuilder)

// WithRotatorName sets the component name.
//
// Parameters:
//   - name: the component name
//
// Returns:
//   - RotatorComponentBuilderOption: option function to apply
func WithRotatorName(name string) RotatorComponentBuilderOption {
	return func(b *rotatorBuilder) {
		b.name = name
	}
}

// WithSpeed sets the angular velocity.
//
// Parameters:
//   - speed: radians per second around X, Y and Z
//
// Returns:
//   - RotatorComponentBuilderOption: option function to apply
func WithSpeed(speed mgl32.Vec3) RotatorComponentBuilderOption {
	return func(b *rotatorBuilder) {
		b.speed = speed
	}
}
