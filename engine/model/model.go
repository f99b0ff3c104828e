package model

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/Carmen-Shannon/cmx-go/common"
	"github.com/Carmen-Shannon/cmx-go/engine/device"
	"github.com/Carmen-Shannon/cmx-go/engine/logger"
	"go.uber.org/zap"
)

// ErrTooFewVertices is returned when a Builder holds fewer than three vertices.
var ErrTooFewVertices = errors.New("model: vertex count must be at least 3")

// model is the implementation of the Model interface.
type model struct {
	name   string
	dev    device.Device
	logger *zap.Logger

	vertexBuffer device.Buffer
	indexBuffer  device.Buffer
	vertexCount  uint32
	indexCount   uint32

	refs atomic.Int32
}

// Model is an immutable GPU mesh built once from a Builder.
// The vertex buffer is always present; the index buffer exists only when the Builder held indices.
// A Model is shared by reference count: every holder calls Retain when it takes a reference and
// Release when it drops it. The GPU buffers are freed when the last reference is released.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// VertexCount returns the number of vertices stored in the vertex buffer.
	//
	// Returns:
	//   - uint32: the vertex count, at least 3
	VertexCount() uint32

	// IndexCount returns the number of indices stored in the index buffer.
	//
	// Returns:
	//   - uint32: the index count, 0 when the model has no index buffer
	IndexCount() uint32

	// HasIndexBuffer reports whether the model draws with indices.
	//
	// Returns:
	//   - bool: true if an index buffer was uploaded
	HasIndexBuffer() bool

	// Bind binds the vertex buffer, and the index buffer when present, on the target.
	//
	// Parameters:
	//   - target: the command target of the current frame
	Bind(target device.CommandTarget)

	// Draw records an indexed draw over all indices when an index buffer exists,
	// otherwise a non-indexed draw over all vertices.
	//
	// Parameters:
	//   - target: the command target of the current frame
	Draw(target device.CommandTarget)

	// Retain adds a reference to the model.
	//
	// Returns:
	//   - Model: the same model, for chaining
	Retain() Model

	// Release drops a reference. Dropping the last reference waits for the device to go idle and
	// frees the GPU buffers.
	//
	// Returns:
	//   - error: the device idle wait error, if any
	Release() error
}

var _ Model = &model{}

// NewModel uploads the Builder's vertices, and its indices when there are any, into device-local
// buffers. The returned Model holds one reference.
//
// Parameters:
//   - dev: the device to upload to
//   - b: the mesh data
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: the uploaded model
//   - error: ErrTooFewVertices, or an upload error
func NewModel(dev device.Device, b *Builder, options ...ModelBuilderOption) (Model, error) {
	m := &model{
		name: "Model",
		dev:  dev,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logger.Named("model")
	}

	if len(b.Vertices) < 3 {
		return nil, fmt.Errorf("%w: %q has %d", ErrTooFewVertices, m.name, len(b.Vertices))
	}

	vb, err := device.UploadBuffer(dev, m.name+" Vertex Buffer", verticesToBytes(b.Vertices), device.UsageVertex)
	if err != nil {
		return nil, err
	}
	m.vertexBuffer = vb
	m.vertexCount = uint32(len(b.Vertices))

	if len(b.Indices) > 0 {
		ib, err := device.UploadBuffer(dev, m.name+" Index Buffer", common.SliceToBytes(b.Indices), device.UsageIndex)
		if err != nil {
			dev.DestroyBuffer(vb)
			return nil, err
		}
		m.indexBuffer = ib
		m.indexCount = uint32(len(b.Indices))
	}

	m.refs.Store(1)
	return m, nil
}

// CreateModelFromFile parses an OBJ file and uploads it as a Model named after the file unless a
// WithName option says otherwise.
//
// Parameters:
//   - dev: the device to upload to
//   - path: file system path of the OBJ file
//   - options: a variadic list of ModelBuilderOption functions to configure the Model
//
// Returns:
//   - Model: the uploaded model
//   - error: an error wrapping ErrMeshParse or ErrTooFewVertices, or an upload error
func CreateModelFromFile(dev device.Device, path string, options ...ModelBuilderOption) (Model, error) {
	b, err := LoadBuilder(path)
	if err != nil {
		return nil, err
	}
	options = append([]ModelBuilderOption{WithName(path)}, options...)
	m, err := NewModel(dev, b, options...)
	if err != nil {
		return nil, err
	}
	m.(*model).logger.Info("model loaded",
		zap.String("path", path),
		zap.Int("vertices", len(b.Vertices)),
		zap.Int("indices", len(b.Indices)),
	)
	return m, nil
}

func (m *model) Name() string {
	return m.name
}

func (m *model) VertexCount() uint32 {
	return m.vertexCount
}

func (m *model) IndexCount() uint32 {
	return m.indexCount
}

func (m *model) HasIndexBuffer() bool {
	return m.indexBuffer != nil
}

func (m *model) Bind(target device.CommandTarget) {
	target.BindVertexBuffer(m.vertexBuffer)
	if m.indexBuffer != nil {
		target.BindIndexBuffer(m.indexBuffer)
	}
}

func (m *model) Draw(target device.CommandTarget) {
	if m.indexBuffer != nil {
		target.DrawIndexed(m.indexCount)
		return
	}
	target.Draw(m.vertexCount)
}

func (m *model) Retain() Model {
	if m.refs.Add(1) <= 1 {
		panic(fmt.Sprintf("model: retain of released model %q", m.name))
	}
	return m
}

func (m *model) Release() error {
	n := m.refs.Add(-1)
	switch {
	case n > 0:
		return nil
	case n < 0:
		panic(fmt.Sprintf("model: release of released model %q", m.name))
	}

	err := m.dev.WaitIdle()
	m.dev.DestroyBuffer(m.vertexBuffer)
	if m.indexBuffer != nil {
		m.dev.DestroyBuffer(m.indexBuffer)
	}
	m.vertexBuffer, m.indexBuffer = nil, nil
	m.logger.Debug("model freed", zap.String("name", m.name))
	return err
}
