package renderer

import (
	_ "embed"

	"github.com/go-gl/mathgl/mgl32"
)

//go:embed assets/default.wgsl
var defaultShaderSource string

// GlobalUniform is the per-frame data bound at group 0 of the default pipeline.
// Size: 80 bytes.
type GlobalUniform struct {
	ProjectionView mgl32.Mat4 // offset  0: projection * view (64 bytes)
	LightDirection mgl32.Vec4 // offset 64: normalized direction the light travels, w unused (16 bytes)
}

// GlobalUniformSize is the size of GlobalUniform in bytes.
const GlobalUniformSize = 80

// ObjectStride is the distance between per-object slots in the object uniform ring. It matches the
// minimum uniform buffer offset alignment WebGPU guarantees.
const ObjectStride = 256

// ObjectDataSize is the size of the per-object uniform read by the default shader: a model matrix
// followed by a normal matrix.
const ObjectDataSize = 128

// DefaultLightDirection is the direction the scene's single directional light travels in.
var DefaultLightDirection = mgl32.Vec3{1, -3, -1}.Normalize()
