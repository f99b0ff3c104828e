package scene

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
)

// ActorID identifies an actor for the lifetime of the process. IDs are never reused.
type ActorID uint32

var lastActorID atomic.Uint32

func nextActorID() ActorID {
	return ActorID(lastActorID.Add(1))
}

// reserveActorID bumps the ID counter past id so restored actors never collide with new ones.
func reserveActorID(id ActorID) {
	for {
		cur := lastActorID.Load()
		if cur >= uint32(id) || lastActorID.CompareAndSwap(cur, uint32(id)) {
			return
		}
	}
}

// Transform is an actor's placement in world space. Rotation holds Tait-Bryan angles in radians
// applied in Y, X, Z order.
type Transform struct {
	Translation mgl32.Vec3
	Rotation    mgl32.Vec3
	Scale       mgl32.Vec3
}

// NewTransform returns the identity transform.
func NewTransform() Transform {
	return Transform{Scale: mgl32.Vec3{1, 1, 1}}
}

// Mat4 returns the model matrix: translation * rotY * rotX * rotZ * scale.
func (t Transform) Mat4() mgl32.Mat4 {
	return mgl32.Translate3D(t.Translation.X(), t.Translation.Y(), t.Translation.Z()).
		Mul4(mgl32.HomogRotate3DY(t.Rotation.Y())).
		Mul4(mgl32.HomogRotate3DX(t.Rotation.X())).
		Mul4(mgl32.HomogRotate3DZ(t.Rotation.Z())).
		Mul4(mgl32.Scale3D(t.Scale.X(), t.Scale.Y(), t.Scale.Z()))
}

// NormalMatrix returns the inverse transpose of the model matrix's upper 3x3, widened to a Mat4
// so it can be uploaded with 16-byte column alignment.
func (t Transform) NormalMatrix() mgl32.Mat4 {
	return t.Mat4().Mat3().Inv().Transpose().Mat4()
}

// Actor is an object placed in a Scene. An actor owns its components: they live exactly as long
// as the actor keeps them attached.
//
// Actor variants embed *BaseActor, created with NewBaseActor, and override OnBegin and Update.
type Actor interface {
	// ID returns the actor's process-unique identifier.
	//
	// Returns:
	//   - ActorID: the actor ID
	ID() ActorID

	// Name returns the actor's name. Names are not required to be unique.
	//
	// Returns:
	//   - string: the actor name
	Name() string

	// SetName renames the actor.
	//
	// Parameters:
	//   - name: the new name
	SetName(name string)

	// Transform returns the actor's mutable transform.
	//
	// Returns:
	//   - *Transform: pointer to the actor's transform
	Transform() *Transform

	// Scene returns the scene managing the actor, or nil before AddActor and after RemoveActor.
	//
	// Returns:
	//   - Scene: the owning scene or nil
	Scene() Scene

	// Components returns the attached components in attach order.
	//
	// Returns:
	//   - []Component: the owned components
	Components() []Component

	// AttachComponent takes ownership of c. When the actor is already in a scene the component is
	// registered with it immediately, otherwise it is registered when the actor is added.
	// Panics if c is already attached to an actor.
	//
	// Parameters:
	//   - c: the component to attach
	//
	// Returns:
	//   - Component: c, for chaining
	AttachComponent(c Component) Component

	// OnBegin runs once when the actor is added to a scene, after its attached components are registered.
	OnBegin()

	// Update advances the actor by dt seconds. Called once per frame before components update.
	//
	// Parameters:
	//   - dt: elapsed time since the previous frame in seconds
	Update(dt float32)

	base() *BaseActor
}

// BaseActor carries the state shared by every actor variant.
type BaseActor struct {
	id         ActorID
	name       string
	transform  Transform
	scene      *sceneImpl
	self       Actor
	components []Component
}

var _ Actor = &BaseActor{}

// NewBaseActor creates an actor with a fresh ID and the identity transform.
//
// Parameters:
//   - name: the actor name
//
// Returns:
//   - *BaseActor: the new actor, usable directly or embedded in a variant
func NewBaseActor(name string) *BaseActor {
	return &BaseActor{
		id:        nextActorID(),
		name:      name,
		transform: NewTransform(),
	}
}

func (a *BaseActor) ID() ActorID {
	return a.id
}

func (a *BaseActor) Name() string {
	return a.name
}

func (a *BaseActor) SetName(name string) {
	a.name = name
}

func (a *BaseActor) Transform() *Transform {
	return &a.transform
}

func (a *BaseActor) Scene() Scene {
	if a.scene == nil {
		return nil
	}
	return a.scene
}

func (a *BaseActor) Components() []Component {
	return slices.Clone(a.components)
}

func (a *BaseActor) AttachComponent(c Component) Component {
	cb := c.component()
	if cb.owner != nil {
		panic(fmt.Sprintf("scene: component %q is already attached to actor %d", cb.name, cb.owner.id))
	}
	cb.owner = a
	a.components = append(a.components, c)
	if a.scene != nil {
		a.scene.AddComponent(c)
	}
	return c
}

func (a *BaseActor) OnBegin() {}

func (a *BaseActor) Update(dt float32) {}

func (a *BaseActor) base() *BaseActor {
	return a
}

// outer returns the variant embedding this BaseActor once the actor has been added to a scene.
func (a *BaseActor) outer() Actor {
	if a.self != nil {
		return a.self
	}
	return a
}

// detach drops ownership of c and frees its scene slot.
func (a *BaseActor) detach(c Component) {
	i := slices.Index(a.components, c)
	if i < 0 {
		return
	}
	a.components = slices.Delete(a.components, i, i+1)

	cb := c.component()
	if a.scene != nil {
		a.scene.release(cb.handle)
	} else {
		destroy(c)
	}
	cb.owner = nil
	cb.handle = ComponentHandle{}
}
