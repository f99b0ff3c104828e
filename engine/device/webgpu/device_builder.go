package webgpu

import (
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// DeviceBuilderOption is a functional option for configuring a Device.
type DeviceBuilderOption func(*deviceImpl)

// WithSurfaceDescriptor creates a presentation surface from the given descriptor and requests an
// adapter compatible with it. Without a descriptor the device is headless.
//
// Parameters:
//   - desc: the platform surface descriptor, typically from wgpuglfw.GetSurfaceDescriptor
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithSurfaceDescriptor(desc *wgpu.SurfaceDescriptor) DeviceBuilderOption {
	return func(d *deviceImpl) {
		d.surfaceDescriptor = desc
	}
}

// WithForceFallbackAdapter requests the software fallback adapter.
//
// Parameters:
//   - force: if true, only the fallback adapter is considered
//
// Returns:
//   - DeviceBuilderOption: option function to apply
func WithForceFallbackAdapter(force bool) DeviceBuilderOption {
	return func(d *deviceImpl) {
		d.forceFallbackAdapter = force
	}
}

// WithLabel sets the debug label of the logical device.
func WithLabel(label string) DeviceBuilderOption {
	return func(d *deviceImpl) {
		d.label = label
	}
}

// WithLogger sets the logger used for device diagnostics.
func WithLogger(l *zap.Logger) DeviceBuilderOption {
	return func(d *deviceImpl) {
		d.logger = l
	}
}
