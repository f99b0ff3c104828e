package scene

import (
	"github.com/Carmen-Shannon/cmx-go/engine/device"
	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// RenderOrderNone excludes a component from the render queue.
const RenderOrderNone int32 = -1

// FrameInfo describes the frame being recorded. It is handed to every component in the render queue.
type FrameInfo struct {
	// FrameIndex counts rendered frames since the renderer started.
	FrameIndex uint64
	// Target receives the component's draw commands.
	Target device.CommandTarget
	// Camera is the scene's active camera.
	Camera Camera
	// GlobalBindGroup is the backend's bind group for per-frame data, already bound on Target.
	GlobalBindGroup any
}

// Component is a unit of behavior or rendering owned by exactly one Actor.
// The owning Scene only tracks components through handles and never keeps one alive.
//
// Component variants embed BaseComponent, created with NewBaseComponent, and override the
// capabilities they need.
type Component interface {
	// Name returns the component's name.
	//
	// Returns:
	//   - string: the component name
	Name() string

	// RenderOrder returns the component's position in the render queue. Components with an order
	// below the scene's threshold are not rendered; equal orders render in insertion order.
	//
	// Returns:
	//   - int32: the render order, RenderOrderNone by default
	RenderOrder() int32

	// Actor returns the owning actor, or nil while detached.
	//
	// Returns:
	//   - Actor: the owning actor or nil
	Actor() Actor

	// Update advances the component by dt seconds.
	//
	// Parameters:
	//   - dt: elapsed time since the previous frame in seconds
	Update(dt float32)

	// Render records the component's draw commands.
	//
	// Parameters:
	//   - frame: the frame being recorded
	Render(frame *FrameInfo)

	// Save writes the component's persistent state into node.
	//
	// Parameters:
	//   - node: the node to encode state into
	//
	// Returns:
	//   - error: an encode error
	Save(node *yaml.Node) error

	// Load restores persistent state previously written by Save. It runs after the component is
	// attached to its actor and registered with the scene.
	//
	// Parameters:
	//   - node: the node holding the saved state, never nil
	//
	// Returns:
	//   - error: a decode error
	Load(node *yaml.Node) error

	// Despawn detaches the component from its actor, which releases it. The scene prunes its
	// handles on the next UpdateComponents.
	Despawn()

	component() *BaseComponent
}

// Destroyer is implemented by components that hold shared resources. Destroy runs once when the
// component is released by its actor.
type Destroyer interface {
	Destroy()
}

// Camera is a component that provides the view and projection for rendering.
type Camera interface {
	Component

	// Projection returns the projection matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the projection matrix
	Projection() mgl32.Mat4

	// View returns the view matrix.
	//
	// Returns:
	//   - mgl32.Mat4: the view matrix
	View() mgl32.Mat4

	// UpdateAspectRatio adapts the projection to a new viewport aspect ratio.
	//
	// Parameters:
	//   - aspect: width divided by height
	UpdateAspectRatio(aspect float32)
}

// BaseComponent carries the state shared by every component variant.
type BaseComponent struct {
	name        string
	renderOrder int32
	owner       *BaseActor
	handle      ComponentHandle
}

// NewBaseComponent creates the embeddable component state.
//
// Parameters:
//   - name: the component name
//   - renderOrder: the render order, RenderOrderNone to stay out of the render queue
//
// Returns:
//   - BaseComponent: the state to embed
func NewBaseComponent(name string, renderOrder int32) BaseComponent {
	return BaseComponent{name: name, renderOrder: renderOrder}
}

func (c *BaseComponent) Name() string {
	return c.name
}

func (c *BaseComponent) RenderOrder() int32 {
	return c.renderOrder
}

func (c *BaseComponent) Actor() Actor {
	if c.owner == nil {
		return nil
	}
	return c.owner.outer()
}

// Handle returns the component's scene handle. It is the zero handle while unregistered.
func (c *BaseComponent) Handle() ComponentHandle {
	return c.handle
}

func (c *BaseComponent) Update(dt float32) {}

func (c *BaseComponent) Render(frame *FrameInfo) {}

func (c *BaseComponent) Save(node *yaml.Node) error {
	return nil
}

func (c *BaseComponent) Load(node *yaml.Node) error {
	return nil
}

func (c *BaseComponent) Despawn() {
	if c.owner == nil {
		return
	}
	for _, owned := range c.owner.components {
		if owned.component() == c {
			c.owner.detach(owned)
			return
		}
	}
}

func (c *BaseComponent) component() *BaseComponent {
	return c
}

func destroy(c Component) {
	if d, ok := c.(Destroyer); ok {
		d.Destroy()
	}
}
