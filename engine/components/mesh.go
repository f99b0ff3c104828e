// Package components provides the stock component variants: meshes, cameras and a rotator.
// Importing the package registers each variant with the scene document registry.
package components

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/cmx-go/common"
	"github.com/Carmen-Shannon/cmx-go/engine/device"
	"github.com/Carmen-Shannon/cmx-go/engine/logger"
	"github.com/Carmen-Shannon/cmx-go/engine/model"
	"github.com/Carmen-Shannon/cmx-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ErrNoAssets is returned when a mesh is restored on an actor whose scene has no asset source.
var ErrNoAssets = errors.New("components: scene has no asset source")

func init() {
	scene.RegisterComponentType("Mesh", func(name string, order int32) scene.Component {
		return NewMeshComponent(WithMeshName(name), WithMeshRenderOrder(order))
	})
	scene.RegisterComponentType("Camera", func(name string, order int32) scene.Component {
		return NewCameraComponent(WithCameraName(name))
	})
	scene.RegisterComponentType("Rotator", func(name string, order int32) scene.Component {
		return NewRotatorComponent(WithRotatorName(name))
	})
}

// ObjectData is the per-draw data a mesh pushes before drawing: the model matrix and the normal matrix.
type ObjectData struct {
	Model  mgl32.Mat4
	Normal mgl32.Mat4
}

// MeshComponent renders a shared Model with its actor's transform.
type MeshComponent struct {
	scene.BaseComponent
	asset  string
	model  model.Model
	logger  *zap.Logger
	failed  bool
	crowded bool
}

var _ scene.Component = &MeshComponent{}
var _ scene.Destroyer = &MeshComponent{}

type meshState struct {
	Model string `yaml:"model,omitempty"`
}

// NewMeshComponent creates a mesh component. The default name is "Mesh" and the default render order is 0.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *MeshComponent: the new component
func NewMeshComponent(options ...MeshComponentBuilderOption) *MeshComponent {
	b := &meshBuilder{}
	for _, opt := range options {
		opt(b)
	}
	m := &MeshComponent{
		BaseComponent: scene.NewBaseComponent(common.Coalesce(b.name, "Mesh"), b.order),
		asset:         b.asset,
		model:         b.model,
		logger:        b.logger,
	}
	if m.logger == nil {
		m.logger = logger.Named("components")
	}
	return m
}

// Model returns the rendered model, or nil.
func (m *MeshComponent) Model() model.Model {
	return m.model
}

// Asset returns the asset name the model was resolved from. Models set without an asset name are
// not saved.
func (m *MeshComponent) Asset() string {
	return m.asset
}

// SetModel replaces the rendered model. The component takes over the caller's reference to mdl and
// releases its previous model.
//
// Parameters:
//   - asset: the asset name written when the scene is saved, may be empty
//   - mdl: the model, may be nil
func (m *MeshComponent) SetModel(asset string, mdl model.Model) {
	if m.model != nil {
		m.releaseModel()
	}
	m.asset = asset
	m.model = mdl
	m.failed = false
}

// SetModelByName resolves asset through the owning scene's asset source and renders it.
//
// Parameters:
//   - asset: the asset name
//
// Returns:
//   - error: ErrNoAssets when the component is not in a scene with assets, or the asset source's error
func (m *MeshComponent) SetModelByName(asset string) error {
	a := m.Actor()
	if a == nil || a.Scene() == nil || a.Scene().Assets() == nil {
		return fmt.Errorf("%w: mesh %q wants %q", ErrNoAssets, m.Name(), asset)
	}
	mdl, err := a.Scene().Assets().Model(asset)
	if err != nil {
		return err
	}
	m.SetModel(asset, mdl)
	return nil
}

func (m *MeshComponent) Render(frame *scene.FrameInfo) {
	if m.model == nil || m.failed {
		return
	}
	a := m.Actor()
	if a == nil {
		return
	}

	t := a.Transform()
	data := ObjectData{Model: t.Mat4(), Normal: t.NormalMatrix()}
	if err := frame.Target.PushConstants(common.StructToBytes(&data)); err != nil {
		if errors.Is(err, device.ErrTargetFull) {
			if !m.crowded {
				m.crowded = true
				m.logger.Warn("mesh skipped for frame", zap.String("mesh", m.Name()), zap.Uint64("frame", frame.FrameIndex), zap.Error(err))
			}
			return
		}
		// stays dropped until SetModel
		m.failed = true
		m.logger.Warn("mesh dropped from rendering", zap.String("mesh", m.Name()), zap.Uint64("frame", frame.FrameIndex), zap.Error(err))
		return
	}
	m.crowded = false
	m.model.Bind(frame.Target)
	m.model.Draw(frame.Target)
}

func (m *MeshComponent) Save(node *yaml.Node) error {
	return node.Encode(meshState{Model: m.asset})
}

func (m *MeshComponent) Load(node *yaml.Node) error {
	var st meshState
	if err := node.Decode(&st); err != nil {
		return err
	}
	if st.Model == "" {
		return nil
	}
	return m.SetModelByName(st.Model)
}

// Destroy releases the component's model reference.
func (m *MeshComponent) Destroy() {
	if m.model != nil {
		m.releaseModel()
		m.model = nil
	}
}

func (m *MeshComponent) releaseModel() {
	if err := m.model.Release(); err != nil {
		m.logger.Warn("model release failed", zap.String("model", m.model.Name()), zap.Error(err))
	}
}
