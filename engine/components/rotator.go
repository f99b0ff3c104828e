package components

import (
	"github.com/Carmen-Shannon/cmx-go/common"
	"github.com/Carmen-Shannon/cmx-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// RotatorComponent spins its actor by a constant angular velocity.
type RotatorComponent struct {
	scene.BaseComponent

	speed      mgl32.Vec3
	multiplier float32
}

var _ scene.Component = &RotatorComponent{}

type rotatorState struct {
	Speed      [3]float32 `yaml:"speed,flow"`
	Multiplier float32    `yaml:"multiplier"`
}

// NewRotatorComponent creates a rotator turning half a radian per second around Y.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *RotatorComponent: the new rotator
func NewRotatorComponent(options ...RotatorComponentBuilderOption) *RotatorComponent {
	b := &rotatorBuilder{speed: mgl32.Vec3{0, 0.5, 0}, multiplier: 1}
	for _, opt := range options {
		opt(b)
	}
	return &RotatorComponent{
		BaseComponent: scene.NewBaseComponent(common.Coalesce(b.name, "Rotator"), scene.RenderOrderNone),
		speed:         b.speed,
		multiplier:    b.multiplier,
	}
}

// Speed returns the angular velocity in radians per second around X, Y and Z.
func (r *RotatorComponent) Speed() mgl32.Vec3 {
	return r.speed
}

func (r *RotatorComponent) SetSpeed(speed mgl32.Vec3) {
	r.speed = speed
}

// Multiplier returns the factor applied to the speed.
func (r *RotatorComponent) Multiplier() float32 {
	return r.multiplier
}

func (r *RotatorComponent) SetMultiplier(m float32) {
	r.multiplier = m
}

func (r *RotatorComponent) Update(dt float32) {
	a := r.Actor()
	if a == nil {
		return
	}
	t := a.Transform()
	t.Rotation = t.Rotation.Add(r.speed.Mul(dt * r.multiplier))
}

func (r *RotatorComponent) Save(node *yaml.Node) error {
	return node.Encode(rotatorState{Speed: r.speed, Multiplier: r.multiplier})
}

func (r *RotatorComponent) Load(node *yaml.Node) error {
	st := rotatorState{Speed: r.speed, Multiplier: r.multiplier}
	if err := node.Decode(&st); err != nil {
		return err
	}
	r.speed = st.Speed
	r.multiplier = st.Multiplier
	return nil
}
