package renderer

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/Carmen-Shannon/cmx-go/engine/components"
	"github.com/Carmen-Shannon/cmx-go/engine/device"
	"github.com/Carmen-Shannon/cmx-go/engine/device/devicetest"
	"github.com/Carmen-Shannon/cmx-go/engine/model"
	"github.com/Carmen-Shannon/cmx-go/engine/scene"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	sizes    [][2]int
	modes    []PresentMode
	globals  []byte
	target   *devicetest.Target
	noImage  bool
	begun    int
	ended    int
	presents int
	released bool
}

func (b *fakeBackend) ConfigureSurface(width, height int) error {
	b.sizes = append(b.sizes, [2]int{width, height})
	return nil
}

func (b *fakeBackend) SetPresentMode(mode PresentMode) { b.modes = append(b.modes, mode) }
func (b *fakeBackend) WriteGlobals(data []byte)        { b.globals = append([]byte(nil), data...) }
func (b *fakeBackend) GlobalBindGroup() any            { return "globals" }

func (b *fakeBackend) BeginFrame() (device.CommandTarget, error) {
	if b.noImage {
		return nil, nil
	}
	b.begun++
	b.target = &devicetest.Target{}
	return b.target, nil
}

func (b *fakeBackend) EndFrame() error {
	b.ended++
	return nil
}

func (b *fakeBackend) Present() { b.presents++ }
func (b *fakeBackend) Release() { b.released = true }

func newTestRenderer(t *testing.T, b *fakeBackend, options ...RendererBuilderOption) Renderer {
	t.Helper()
	options = append([]RendererBuilderOption{WithBackend(b), WithLogger(zap.NewNop())}, options...)
	r, err := NewRenderer(BackendTypeWGPU, nil, 800, 600, options...)
	require.NoError(t, err)
	return r
}

func floats(data []byte, offset, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[offset+i*4:]))
	}
	return out
}

func TestNewRendererConfiguresSurface(t *testing.T) {
	b := &fakeBackend{}
	r := newTestRenderer(t, b, WithPresentMode(PresentModeUncapped))

	assert.Equal(t, [][2]int{{800, 600}}, b.sizes)
	assert.Equal(t, []PresentMode{PresentModeUncapped}, b.modes)
	assert.InDelta(t, 800.0/600.0, r.AspectRatio(), 1e-6)

	require.NoError(t, r.SetPresentMode(PresentModeVSync))
	assert.Equal(t, [][2]int{{800, 600}, {800, 600}}, b.sizes)

	require.NoError(t, r.Resize(0, 0))
	assert.Equal(t, float32(1), r.AspectRatio())
}

func TestNewRendererRejectsBadOptions(t *testing.T) {
	_, err := NewRenderer(BackendTypeWGPU, nil, 1, 1, WithBackend(&fakeBackend{}), WithMSAA(3), WithLogger(zap.NewNop()))
	assert.Error(t, err)

	_, err = NewRenderer(BackendTypeWGPU, nil, 1, 1, WithBackend(&fakeBackend{}), WithObjectCapacity(0), WithLogger(zap.NewNop()))
	assert.Error(t, err)

	_, err = NewRenderer(BackendTypeWGPU, nil, 1, 1, WithLogger(zap.NewNop()))
	assert.Error(t, err)
}

func TestBeginFrameUploadsGlobals(t *testing.T) {
	b := &fakeBackend{}
	r := newTestRenderer(t, b, WithLightDirection(mgl32.Vec3{0, -2, 0}))

	eye := scene.NewBaseActor("eye")
	eye.Transform().Translation = mgl32.Vec3{0, 0, 5}
	cam := eye.AttachComponent(components.NewCameraComponent()).(*components.CameraComponent)
	cam.UpdateAspectRatio(r.AspectRatio())

	frame, err := r.BeginFrame(cam)
	require.NoError(t, err)
	require.NotNil(t, frame)
	assert.Equal(t, uint64(0), frame.FrameIndex)
	assert.Same(t, cam, frame.Camera)
	assert.Equal(t, "globals", frame.GlobalBindGroup)

	require.Len(t, b.globals, GlobalUniformSize)
	want := cam.Projection().Mul4(cam.View())
	assert.Equal(t, want[:], floats(b.globals, 0, 16))
	assert.Equal(t, []float32{0, -1, 0, 0}, floats(b.globals, 64, 4))

	_, err = r.BeginFrame(cam)
	assert.ErrorIs(t, err, ErrFrameInProgress)

	require.NoError(t, r.EndFrame())
	assert.Equal(t, 1, b.ended)
	assert.Equal(t, 1, b.presents)
	assert.Equal(t, uint64(1), r.FrameIndex())
}

func TestFrameSkippedWithoutSurfaceImage(t *testing.T) {
	b := &fakeBackend{noImage: true}
	r := newTestRenderer(t, b)

	frame, err := r.BeginFrame(components.NewCameraComponent())
	require.NoError(t, err)
	assert.Nil(t, frame)

	r.RenderQueue(frame, nil)
	require.NoError(t, r.EndFrame())
	assert.Zero(t, b.ended)
	assert.Zero(t, b.presents)
	assert.Equal(t, uint64(0), r.FrameIndex())
}

func TestRenderQueueDrawsInOrder(t *testing.T) {
	dev := devicetest.New()
	newMesh := func(name string, order int32) *components.MeshComponent {
		mb := &model.Builder{}
		mb.AddVertex(model.Vertex{Position: [3]float32{0, 0, 0}})
		mb.AddVertex(model.Vertex{Position: [3]float32{1, 0, 0}})
		mb.AddVertex(model.Vertex{Position: [3]float32{0, 1, 0}})
		m, err := model.NewModel(dev, mb, model.WithName(name))
		require.NoError(t, err)
		return components.NewMeshComponent(components.WithModel(name, m), components.WithMeshRenderOrder(order))
	}

	far := scene.NewBaseActor("far")
	far.AttachComponent(newMesh("late", 2))
	near := scene.NewBaseActor("near")
	near.AttachComponent(newMesh("early", 1))
	eye := scene.NewBaseActor("eye")
	cam := eye.AttachComponent(components.NewCameraComponent()).(*components.CameraComponent)
	s := scene.NewScene(scene.WithLogger(zap.NewNop()), scene.WithActors(far, near, eye))
	s.SetCamera(cam)

	b := &fakeBackend{}
	r := newTestRenderer(t, b)
	frame, err := r.BeginFrame(s.Camera())
	require.NoError(t, err)
	r.RenderQueue(frame, s.RenderQueue())
	require.NoError(t, r.EndFrame())

	assert.Equal(t, []string{
		"push 128", "vertex early Vertex Buffer", "index early Index Buffer", "drawIndexed 3",
		"push 128", "vertex late Vertex Buffer", "index late Index Buffer", "drawIndexed 3",
	}, b.target.Commands)
}

func TestReleaseReleasesBackend(t *testing.T) {
	b := &fakeBackend{}
	newTestRenderer(t, b).Release()
	assert.True(t, b.released)
}

func TestMSAASampleCountValid(t *testing.T) {
	for _, c := range []MSAASampleCount{MSAAOff, MSAA4x, MSAA8x, MSAA16x} {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, MSAASampleCount(2).Valid())
}

func TestObjectCapacityIsTargetFull(t *testing.T) {
	assert.ErrorIs(t, ErrObjectCapacity, device.ErrTargetFull)
}
