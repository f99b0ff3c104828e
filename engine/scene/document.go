package scene

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrUnknownType is wrapped when a document names an actor or component type that was never registered.
var ErrUnknownType = errors.New("scene: unknown type")

// Document is the persisted form of a scene.
type Document struct {
	Name   string          `yaml:"name"`
	Actors []ActorDocument `yaml:"actors"`
}

type ActorDocument struct {
	ID         ActorID             `yaml:"id"`
	Name       string              `yaml:"name"`
	Type       string              `yaml:"type"`
	Transform  TransformDocument   `yaml:"transform"`
	Components []ComponentDocument `yaml:"components,omitempty"`
}

type TransformDocument struct {
	Position [3]float32 `yaml:"position,flow"`
	Rotation [3]float32 `yaml:"rotation,flow"`
	Scale    [3]float32 `yaml:"scale,flow"`
}

type ComponentDocument struct {
	Type        string    `yaml:"type"`
	Name        string    `yaml:"name"`
	RenderOrder int32     `yaml:"renderOrder"`
	State       yaml.Node `yaml:"state,omitempty"`
}

// ActorFactory creates an actor variant with a fresh ID and no components attached.
type ActorFactory func(name string) Actor

// ComponentFactory creates a component variant ready to be attached.
type ComponentFactory func(name string, renderOrder int32) Component

type registry struct {
	mu             sync.RWMutex
	actors         map[string]ActorFactory
	actorTypes     map[reflect.Type]string
	components     map[string]ComponentFactory
	componentTypes map[reflect.Type]string
}

var types = &registry{
	actors:         make(map[string]ActorFactory),
	actorTypes:     make(map[reflect.Type]string),
	components:     make(map[string]ComponentFactory),
	componentTypes: make(map[reflect.Type]string),
}

func init() {
	RegisterActorType("Actor", func(name string) Actor { return NewBaseActor(name) })
}

// RegisterActorType makes an actor variant restorable from documents under the given type name.
// The factory is called once at registration to learn the variant's dynamic type. Saved components
// are reattached on load, so the factory must not attach any itself.
//
// Parameters:
//   - name: the type name written to documents
//   - factory: creates a new instance of the variant
func RegisterActorType(name string, factory ActorFactory) {
	t := reflect.TypeOf(factory(""))
	types.mu.Lock()
	defer types.mu.Unlock()
	types.actors[name] = factory
	types.actorTypes[t] = name
}

// RegisterComponentType makes a component variant restorable from documents under the given type name.
// The factory is called once at registration to learn the variant's dynamic type.
//
// Parameters:
//   - name: the type name written to documents
//   - factory: creates a new instance of the variant
func RegisterComponentType(name string, factory ComponentFactory) {
	t := reflect.TypeOf(factory("", RenderOrderNone))
	types.mu.Lock()
	defer types.mu.Unlock()
	types.components[name] = factory
	types.componentTypes[t] = name
}

func actorTypeName(a Actor) (string, bool) {
	types.mu.RLock()
	defer types.mu.RUnlock()
	name, ok := types.actorTypes[reflect.TypeOf(a)]
	return name, ok
}

func componentTypeName(c Component) (string, bool) {
	types.mu.RLock()
	defer types.mu.RUnlock()
	name, ok := types.componentTypes[reflect.TypeOf(c)]
	return name, ok
}

// ReadDocument decodes the scene document stored at path.
//
// Parameters:
//   - path: file system path of the YAML document
//
// Returns:
//   - *Document: the decoded document
//   - error: an open or decode error
func ReadDocument(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: open %s: %w", path, err)
	}
	defer f.Close()

	var doc Document
	if err := yaml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, fmt.Errorf("scene: decode %s: %w", path, err)
	}
	return &doc, nil
}

// WriteDocument encodes doc to path, creating parent directories as needed.
//
// Parameters:
//   - path: destination file
//   - doc: the document to write
//
// Returns:
//   - error: a create, encode or close error
func WriteDocument(path string, doc *Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("scene: create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("scene: create %s: %w", path, err)
	}

	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		f.Close()
		return fmt.Errorf("scene: encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (s *sceneImpl) Load() error {
	doc, err := ReadDocument(s.path)
	if err != nil {
		return err
	}
	return s.Apply(doc)
}

func (s *sceneImpl) Apply(doc *Document) error {
	actors, components, err := resolveFactories(doc)
	if err != nil {
		return err
	}
	s.Unload()

	for i, ad := range doc.Actors {
		a := actors[i](ad.Name)
		b := a.base()
		if ad.ID != 0 {
			b.id = ad.ID
			reserveActorID(ad.ID)
		}
		b.transform = Transform{
			Translation: mgl32.Vec3(ad.Transform.Position),
			Rotation:    mgl32.Vec3(ad.Transform.Rotation),
			Scale:       mgl32.Vec3(ad.Transform.Scale),
		}
		if b.transform.Scale == (mgl32.Vec3{}) {
			b.transform.Scale = mgl32.Vec3{1, 1, 1}
		}

		restored := make([]Component, 0, len(ad.Components))
		for j, cd := range ad.Components {
			restored = append(restored, a.AttachComponent(components[i][j](cd.Name, cd.RenderOrder)))
		}

		s.AddActor(a)

		for j, c := range restored {
			state := &ad.Components[j].State
			if state.Kind == 0 {
				state = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			}
			if err := c.Load(state); err != nil {
				s.Unload()
				return fmt.Errorf("scene: restore component %q of actor %q: %w", c.Name(), ad.Name, err)
			}
		}

		if cam, ok := firstCamera(restored); ok && s.Camera() == nil {
			s.SetCamera(cam)
		}
	}

	if doc.Name != "" {
		s.name = doc.Name
	}
	s.logger.Info("scene loaded", zap.Int("actors", len(s.actors)), zap.Int("components", s.arena.len()))
	return nil
}

// resolveFactories looks up the factory of every actor and component in doc and rejects repeated actor IDs.
func resolveFactories(doc *Document) ([]ActorFactory, [][]ComponentFactory, error) {
	types.mu.RLock()
	defer types.mu.RUnlock()

	actors := make([]ActorFactory, len(doc.Actors))
	components := make([][]ComponentFactory, len(doc.Actors))
	seen := make(map[ActorID]string, len(doc.Actors))
	for i, ad := range doc.Actors {
		factory, ok := types.actors[ad.Type]
		if !ok {
			return nil, nil, fmt.Errorf("%w: actor %q has type %q", ErrUnknownType, ad.Name, ad.Type)
		}
		if ad.ID != 0 {
			if other, taken := seen[ad.ID]; taken {
				return nil, nil, fmt.Errorf("scene: actor %q reuses id %d of actor %q", ad.Name, ad.ID, other)
			}
			seen[ad.ID] = ad.Name
		}
		actors[i] = factory

		components[i] = make([]ComponentFactory, len(ad.Components))
		for j, cd := range ad.Components {
			cf, ok := types.components[cd.Type]
			if !ok {
				return nil, nil, fmt.Errorf("%w: component %q of actor %q has type %q", ErrUnknownType, cd.Name, ad.Name, cd.Type)
			}
			components[i][j] = cf
		}
	}
	return actors, components, nil
}

func firstCamera(cs []Component) (Camera, bool) {
	for _, c := range cs {
		if cam, ok := c.(Camera); ok {
			return cam, true
		}
	}
	return nil, false
}

func (s *sceneImpl) Document() (*Document, error) {
	doc := &Document{Name: s.name}
	for _, a := range s.Actors() {
		typeName, ok := actorTypeName(a)
		if !ok {
			s.logger.Warn("skipping actor of unregistered type", zap.String("name", a.Name()), zap.String("type", fmt.Sprintf("%T", a)))
			continue
		}
		t := a.Transform()
		ad := ActorDocument{
			ID:   a.ID(),
			Name: a.Name(),
			Type: typeName,
			Transform: TransformDocument{
				Position: t.Translation,
				Rotation: t.Rotation,
				Scale:    t.Scale,
			},
		}
		for _, c := range a.Components() {
			cType, ok := componentTypeName(c)
			if !ok {
				s.logger.Warn("skipping component of unregistered type", zap.String("name", c.Name()), zap.String("type", fmt.Sprintf("%T", c)))
				continue
			}
			cd := ComponentDocument{Type: cType, Name: c.Name(), RenderOrder: c.RenderOrder()}
			if err := c.Save(&cd.State); err != nil {
				return nil, fmt.Errorf("scene: save component %q of actor %q: %w", c.Name(), a.Name(), err)
			}
			ad.Components = append(ad.Components, cd)
		}
		doc.Actors = append(doc.Actors, ad)
	}
	return doc, nil
}

func (s *sceneImpl) Save() error {
	return s.SaveAs(s.path)
}

func (s *sceneImpl) SaveAs(path string) error {
	doc, err := s.Document()
	if err != nil {
		return err
	}
	if err := WriteDocument(path, doc); err != nil {
		return err
	}
	s.path = path
	s.logger.Info("scene saved", zap.String("path", path), zap.Int("actors", len(doc.Actors)))
	return nil
}
