package scene

import (
	"fmt"
	"slices"
	"sort"

	"github.com/Carmen-Shannon/cmx-go/engine/logger"
	"github.com/Carmen-Shannon/cmx-go/engine/model"
	"go.uber.org/zap"
)

// AssetSource resolves shared assets by name for components restored from a scene document.
type AssetSource interface {
	// Model returns a new reference to the named model. The caller releases it.
	//
	// Parameters:
	//   - name: the asset name
	//
	// Returns:
	//   - model.Model: the retained model
	//   - error: an error if the asset is unknown or failed to load
	Model(name string) (model.Model, error)
}

// Scene owns a set of actors and tracks their components for per-frame update and rendering.
// Components are referenced through handles only; when an actor drops a component the scene's
// lists keep a stale handle until the next UpdateComponents prunes it.
//
// A Scene is driven from a single goroutine and is not safe for concurrent use.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// Path returns the file the scene is loaded from and saved to.
	Path() string

	// Assets returns the asset source used to restore components, or nil if none was configured.
	Assets() AssetSource

	// AddActor takes ownership of a, registers its attached components and calls its OnBegin.
	// A warning is logged when another actor already uses the same name.
	// Panics if a is already managed by a scene.
	//
	// Parameters:
	//   - a: the actor to add
	//
	// Returns:
	//   - Actor: a, for chaining
	AddActor(a Actor) Actor

	// RemoveActor erases a and releases its components immediately. Their handles are pruned on
	// the next UpdateComponents. Logs a warning if a is not managed by this scene.
	//
	// Parameters:
	//   - a: the actor to remove
	RemoveActor(a Actor)

	// ActorByID looks up an actor by ID. Logs a warning and returns nil when it is absent.
	//
	// Parameters:
	//   - id: the actor ID
	//
	// Returns:
	//   - Actor: the actor or nil
	ActorByID(id ActorID) Actor

	// ActorByName returns the first actor with the given name in ID order, or nil.
	//
	// Parameters:
	//   - name: the actor name
	//
	// Returns:
	//   - Actor: the actor or nil
	ActorByName(name string) Actor

	// Actors returns every managed actor in ascending ID order.
	//
	// Returns:
	//   - []Actor: the actors
	Actors() []Actor

	// AddComponent registers a component owned by one of this scene's actors. Components whose
	// render order reaches the scene's threshold are inserted into the render queue after every
	// entry with an equal or lower order.
	// Actors call this when a component is attached; panics if c's owner is not in this scene.
	//
	// Parameters:
	//   - c: the component to register
	//
	// Returns:
	//   - ComponentHandle: the handle tracking c
	AddComponent(c Component) ComponentHandle

	// UpdateActors calls Update on every actor in ascending ID order.
	// Actors added during the pass are updated from the next frame.
	//
	// Parameters:
	//   - dt: elapsed time since the previous frame in seconds
	UpdateActors(dt float32)

	// UpdateComponents prunes released components from the component list and render queue
	// while preserving the order of the survivors, and calls Update on each live component.
	//
	// Parameters:
	//   - dt: elapsed time since the previous frame in seconds
	UpdateComponents(dt float32)

	// Components returns the live components in registration order.
	//
	// Returns:
	//   - []Component: the live components
	Components() []Component

	// RenderQueue returns the live components of the render queue in render order.
	//
	// Returns:
	//   - []Component: the components to render
	RenderQueue() []Component

	// SetCamera makes cam the active camera. cam must be registered with this scene.
	// Passing nil clears the camera.
	//
	// Parameters:
	//   - cam: the camera component
	SetCamera(cam Camera)

	// Camera returns the active camera, or nil when none is set or the camera was released.
	//
	// Returns:
	//   - Camera: the active camera or nil
	Camera() Camera

	// Load replaces the scene's content with the document stored at Path.
	//
	// Returns:
	//   - error: a read, decode or restore error
	Load() error

	// Apply replaces the scene's content with doc. Types and actor IDs are checked before anything
	// is unloaded, so the scene is unchanged when they are invalid. When a component fails to restore
	// its state the partially built content is unloaded and the scene is left empty.
	//
	// Parameters:
	//   - doc: a decoded scene document
	//
	// Returns:
	//   - error: an error naming the first actor or component that could not be restored
	Apply(doc *Document) error

	// Unload releases every actor and clears the component lists and camera. It may be called from a
	// component's Update; the running UpdateComponents pass stops after that component.
	Unload()

	// Document captures the scene's actors and their persistent component state.
	// Actors and components whose type was never registered are skipped with a warning.
	//
	// Returns:
	//   - *Document: the captured document
	//   - error: the first component Save error
	Document() (*Document, error)

	// Save writes the scene to Path.
	//
	// Returns:
	//   - error: an encode or write error
	Save() error

	// SaveAs writes the scene to path and makes path the scene's new Path.
	//
	// Parameters:
	//   - path: destination file
	//
	// Returns:
	//   - error: an encode or write error
	SaveAs(path string) error
}

type sceneImpl struct {
	name      string
	path      string
	assets    AssetSource
	logger    *zap.Logger
	threshold int32

	actors map[ActorID]Actor
	order  []ActorID
	arena  arena

	components  []ComponentHandle
	renderQueue []ComponentHandle
	camera      ComponentHandle

	scratch []ActorID
	pending []Actor
	epoch   uint64
}

var _ Scene = &sceneImpl{}

// NewScene creates an empty Scene with the specified options applied.
//
// Parameters:
//   - options: a variadic list of SceneBuilderOption functions to configure the Scene
//
// Returns:
//   - Scene: the new scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &sceneImpl{
		name:   "Scene",
		actors: make(map[ActorID]Actor),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Named("scene")
	}
	s.logger = s.logger.With(zap.String("scene", s.name))

	for _, a := range s.pending {
		s.AddActor(a)
	}
	s.pending = nil
	return s
}

func (s *sceneImpl) Name() string {
	return s.name
}

func (s *sceneImpl) Path() string {
	return s.path
}

func (s *sceneImpl) Assets() AssetSource {
	return s.assets
}

func (s *sceneImpl) AddActor(a Actor) Actor {
	b := a.base()
	if b.scene != nil {
		panic(fmt.Sprintf("scene: actor %d is already in scene %q", b.id, b.scene.name))
	}
	if _, taken := s.actors[b.id]; taken {
		panic(fmt.Sprintf("scene: actor id %d is already in use", b.id))
	}
	if existing := s.ActorByName(b.name); existing != nil {
		s.logger.Warn("actor name already in use",
			zap.String("name", b.name),
			zap.Uint32("id", uint32(b.id)),
			zap.Uint32("existingID", uint32(existing.ID())),
		)
	}

	b.scene = s
	b.self = a
	s.actors[b.id] = a
	i, _ := slices.BinarySearch(s.order, b.id)
	s.order = slices.Insert(s.order, i, b.id)

	for _, c := range b.components {
		s.AddComponent(c)
	}
	a.OnBegin()
	return a
}

func (s *sceneImpl) RemoveActor(a Actor) {
	b := a.base()
	if b.scene != s || s.actors[b.id] == nil {
		s.logger.Warn("remove of unmanaged actor", zap.Uint32("id", uint32(b.id)), zap.String("name", b.name))
		return
	}

	delete(s.actors, b.id)
	if i, found := slices.BinarySearch(s.order, b.id); found {
		s.order = slices.Delete(s.order, i, i+1)
	}

	for _, c := range b.components {
		cb := c.component()
		s.release(cb.handle)
		cb.owner = nil
		cb.handle = ComponentHandle{}
	}
	b.components = nil
	b.scene = nil
}

func (s *sceneImpl) ActorByID(id ActorID) Actor {
	a, ok := s.actors[id]
	if !ok {
		s.logger.Warn("actor not found", zap.Uint32("id", uint32(id)))
		return nil
	}
	return a
}

func (s *sceneImpl) ActorByName(name string) Actor {
	for _, id := range s.order {
		if a := s.actors[id]; a.Name() == name {
			return a
		}
	}
	return nil
}

func (s *sceneImpl) Actors() []Actor {
	out := make([]Actor, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.actors[id])
	}
	return out
}

func (s *sceneImpl) AddComponent(c Component) ComponentHandle {
	cb := c.component()
	if cb.owner == nil || cb.owner.scene != s {
		panic(fmt.Sprintf("scene: component %q is not owned by an actor of scene %q", cb.name, s.name))
	}
	if s.arena.get(cb.handle) != nil {
		return cb.handle
	}

	h := s.arena.insert(c)
	cb.handle = h
	s.components = append(s.components, h)

	order := c.RenderOrder()
	if order >= s.threshold {
		s.renderQueue = s.compact(s.renderQueue)
		i := sort.Search(len(s.renderQueue), func(i int) bool {
			return s.arena.get(s.renderQueue[i]).RenderOrder() > order
		})
		s.renderQueue = slices.Insert(s.renderQueue, i, h)
	}
	return h
}

func (s *sceneImpl) UpdateActors(dt float32) {
	s.scratch = append(s.scratch[:0], s.order...)
	for _, id := range s.scratch {
		if a, ok := s.actors[id]; ok {
			a.Update(dt)
		}
	}
}

func (s *sceneImpl) UpdateComponents(dt float32) {
	// Update may register new components, which then get appended and visited in this same pass.
	epoch := s.epoch
	w := 0
	for r := 0; r < len(s.components); r++ {
		h := s.components[r]
		c := s.arena.get(h)
		if c == nil {
			continue
		}
		s.components[w] = h
		w++
		c.Update(dt)
		if s.epoch != epoch {
			return
		}
	}
	clear(s.components[w:])
	s.components = s.components[:w]
	s.renderQueue = s.compact(s.renderQueue)
}

func (s *sceneImpl) Components() []Component {
	return s.resolve(s.components)
}

func (s *sceneImpl) RenderQueue() []Component {
	return s.resolve(s.renderQueue)
}

func (s *sceneImpl) SetCamera(cam Camera) {
	if cam == nil {
		s.camera = ComponentHandle{}
		return
	}
	h := cam.component().handle
	if s.arena.get(h) == nil {
		panic(fmt.Sprintf("scene: camera %q is not registered with scene %q", cam.Name(), s.name))
	}
	s.camera = h
}

func (s *sceneImpl) Camera() Camera {
	cam, _ := s.arena.get(s.camera).(Camera)
	return cam
}

func (s *sceneImpl) Unload() {
	for _, a := range s.Actors() {
		s.RemoveActor(a)
	}
	s.arena.reset()
	s.components = nil
	s.renderQueue = nil
	s.camera = ComponentHandle{}
	s.epoch++
}

// release frees the slot behind h and runs the component's Destroy hook.
func (s *sceneImpl) release(h ComponentHandle) {
	if c := s.arena.remove(h); c != nil {
		destroy(c)
	}
}

// compact drops stale handles from hs in place, preserving order.
func (s *sceneImpl) compact(hs []ComponentHandle) []ComponentHandle {
	w := 0
	for _, h := range hs {
		if s.arena.get(h) != nil {
			hs[w] = h
			w++
		}
	}
	clear(hs[w:])
	return hs[:w]
}

func (s *sceneImpl) resolve(hs []ComponentHandle) []Component {
	out := make([]Component, 0, len(hs))
	for _, h := range hs {
		if c := s.arena.get(h); c != nil {
			out = append(out, c)
		}
	}
	return out
}
