package components

import (
	"math"

	"github.com/Carmen-Shannon/cmx-go/common"
	"github.com/Carmen-Shannon/cmx-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// CameraComponent is a perspective camera placed by its actor's transform. The camera looks down
// the actor's local -Z axis with +Y up; the actor's scale is ignored.
type CameraComponent struct {
	scene.BaseComponent

	fov    float32
	aspect float32
	near   float32
	far    float32

	projection mgl32.Mat4
}

var _ scene.Camera = &CameraComponent{}

type cameraState struct {
	Fov  float32 `yaml:"fov"`
	Near float32 `yaml:"near"`
	Far  float32 `yaml:"far"`
}

// NewCameraComponent creates a camera with a 45 degree vertical field of view, an aspect ratio of
// 1, and clipping planes at 0.1 and 100. Cameras never enter the render queue.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *CameraComponent: the new camera
func NewCameraComponent(options ...CameraComponentBuilderOption) *CameraComponent {
	b := &cameraBuilder{
		fov:  45.0 * (math.Pi / 180.0),
		near: 0.1,
		far:  100.0,
	}
	for _, opt := range options {
		opt(b)
	}
	c := &CameraComponent{
		BaseComponent: scene.NewBaseComponent(common.Coalesce(b.name, "Camera"), scene.RenderOrderNone),
		fov:           b.fov,
		aspect:        1.0,
		near:          b.near,
		far:           b.far,
	}
	c.updateProjection()
	return c
}

// Fov returns the vertical field of view in radians.
func (c *CameraComponent) Fov() float32 {
	return c.fov
}

func (c *CameraComponent) Aspect() float32 {
	return c.aspect
}

func (c *CameraComponent) Near() float32 {
	return c.near
}

func (c *CameraComponent) Far() float32 {
	return c.far
}

// SetFov sets the vertical field of view in radians.
func (c *CameraComponent) SetFov(fov float32) {
	c.fov = fov
	c.updateProjection()
}

// SetClipPlanes sets the near and far clipping plane distances.
func (c *CameraComponent) SetClipPlanes(near, far float32) {
	c.near, c.far = near, far
	c.updateProjection()
}

func (c *CameraComponent) UpdateAspectRatio(aspect float32) {
	if aspect <= 0 || aspect == c.aspect {
		return
	}
	c.aspect = aspect
	c.updateProjection()
}

func (c *CameraComponent) Projection() mgl32.Mat4 {
	return c.projection
}

func (c *CameraComponent) View() mgl32.Mat4 {
	a := c.Actor()
	if a == nil {
		return mgl32.Ident4()
	}
	t := a.Transform()
	eye := mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z()).
		Mul4(mgl32.HomogRotate3DY(t.Rotation.Y())).
		Mul4(mgl32.HomogRotate3DX(t.Rotation.X())).
		Mul4(mgl32.HomogRotate3DZ(t.Rotation.Z()))
	return eye.Inv()
}

// ViewProjection returns Projection * View.
func (c *CameraComponent) ViewProjection() mgl32.Mat4 {
	return c.projection.Mul4(c.View())
}

func (c *CameraComponent) Save(node *yaml.Node) error {
	return node.Encode(cameraState{Fov: mgl32.RadToDeg(c.fov), Near: c.near, Far: c.far})
}

func (c *CameraComponent) Load(node *yaml.Node) error {
	st := cameraState{Fov: mgl32.RadToDeg(c.fov), Near: c.near, Far: c.far}
	if err := node.Decode(&st); err != nil {
		return err
	}
	c.fov = mgl32.DegToRad(st.Fov)
	c.near = st.Near
	c.far = st.Far
	c.updateProjection()
	return nil
}

func (c *CameraComponent) updateProjection() {
	c.projection = common.Perspective(c.fov, c.aspect, c.near, c.far)
}
