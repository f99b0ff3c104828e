package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/cmx-go/engine/device"
	"github.com/Carmen-Shannon/cmx-go/engine/device/webgpu"
	"github.com/Carmen-Shannon/cmx-go/engine/model"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// ErrObjectCapacity is returned by PushConstants once every per-object slot of the frame is used.
var ErrObjectCapacity = fmt.Errorf("renderer: per-object uniform capacity exceeded: %w", device.ErrTargetFull)

type wgpuRendererBackendImpl struct {
	mu     sync.Mutex
	dev    webgpu.Device
	logger *zap.Logger

	surfaceFormat        wgpu.TextureFormat
	surfaceReady         bool
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode
	sampleCount MSAASampleCount

	pipeline        *wgpu.RenderPipeline
	globalLayout    *wgpu.BindGroupLayout
	objectLayout    *wgpu.BindGroupLayout
	globalBuffer    *wgpu.Buffer
	globalBindGroup *wgpu.BindGroup
	objectBuffer    *wgpu.Buffer
	objectBindGroup *wgpu.BindGroup
	objectCapacity  int

	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
	frameSlot    int
}

var _ RendererBackend = &wgpuRendererBackendImpl{}

// wgpuFrameTarget records component draw commands into the open render pass.
type wgpuFrameTarget struct {
	b *wgpuRendererBackendImpl
}

var _ device.CommandTarget = &wgpuFrameTarget{}

func newWGPURendererBackend(dev webgpu.Device, sampleCount MSAASampleCount, objectCapacity int, logger *zap.Logger) (*wgpuRendererBackendImpl, error) {
	if dev.Surface() == nil {
		return nil, errors.New("renderer: device has no surface")
	}
	b := &wgpuRendererBackendImpl{
		dev:            dev,
		logger:         logger,
		presentMode:    wgpu.PresentModeFifo,
		sampleCount:    sampleCount,
		objectCapacity: objectCapacity,
	}
	capabilities := dev.Surface().GetCapabilities(dev.Adapter())
	if len(capabilities.Formats) == 0 {
		return nil, errors.New("renderer: surface reports no formats")
	}
	b.surfaceFormat = capabilities.Formats[0]

	if err := b.createUniforms(); err != nil {
		b.Release()
		return nil, err
	}
	if err := b.createPipeline(); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}

func (b *wgpuRendererBackendImpl) createUniforms() error {
	raw := b.dev.Raw()
	var err error

	b.globalLayout, err = raw.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Global Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
			Buffer: wgpu.BufferBindingLayout{
				Type:           wgpu.BufferBindingTypeUniform,
				MinBindingSize: GlobalUniformSize,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("renderer: global layout: %w", err)
	}
	b.objectLayout, err = raw.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Object Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: wgpu.ShaderStageVertex,
			Buffer: wgpu.BufferBindingLayout{
				Type:             wgpu.BufferBindingTypeUniform,
				HasDynamicOffset: true,
				MinBindingSize:   ObjectDataSize,
			},
		}},
	})
	if err != nil {
		return fmt.Errorf("renderer: object layout: %w", err)
	}

	b.globalBuffer, err = raw.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Global Uniform Buffer",
		Size:  GlobalUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("renderer: global buffer: %w", err)
	}
	b.objectBuffer, err = raw.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Object Uniform Buffer",
		Size:  uint64(b.objectCapacity) * ObjectStride,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("renderer: object buffer: %w", err)
	}

	b.globalBindGroup, err = raw.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Global Bind Group",
		Layout:  b.globalLayout,
		Entries: []wgpu.BindGroupEntry{{Binding: 0, Buffer: b.globalBuffer, Offset: 0, Size: GlobalUniformSize}},
	})
	if err != nil {
		return fmt.Errorf("renderer: global bind group: %w", err)
	}
	b.objectBindGroup, err = raw.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   "Object Bind Group",
		Layout:  b.objectLayout,
		Entries: []wgpu.BindGroupEntry{{Binding: 0, Buffer: b.objectBuffer, Offset: 0, Size: ObjectDataSize}},
	})
	if err != nil {
		return fmt.Errorf("renderer: object bind group: %w", err)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) createPipeline() error {
	raw := b.dev.Raw()

	module, err := raw.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "Default Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: defaultShaderSource,
		},
	})
	if err != nil {
		return fmt.Errorf("renderer: shader module: %w", err)
	}
	defer module.Release()

	layout, err := raw.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Default Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{b.globalLayout, b.objectLayout},
	})
	if err != nil {
		return fmt.Errorf("renderer: pipeline layout: %w", err)
	}
	defer layout.Release()

	b.pipeline, err = raw.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  "Default Render Pipeline",
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: "vs_main",
			Buffers:    []wgpu.VertexBufferLayout{vertexBufferLayout()},
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format:    b.surfaceFormat,
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: uint32(b.sampleCount),
			Mask:  0xFFFFFFFF,
		},
		DepthStencil: &wgpu.DepthStencilState{
			Format:            wgpu.TextureFormatDepth24Plus,
			DepthWriteEnabled: true,
			DepthCompare:      wgpu.CompareFunctionLess,
			StencilFront: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
			StencilBack: wgpu.StencilFaceState{
				Compare: wgpu.CompareFunctionAlways,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("renderer: render pipeline: %w", err)
	}
	return nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseAttachments()
	if width <= 0 || height <= 0 {
		b.surfaceReady = false
		return nil
	}

	capabilities := b.dev.Surface().GetCapabilities(b.dev.Adapter())
	b.dev.Surface().Configure(b.dev.Adapter(), b.dev.Raw(), &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(b.sampleCount)
	msaaEnabled := count > 1
	var err error

	if msaaEnabled {
		b.msaaTexture, b.msaaTextureView, err = b.createAttachment("MSAA Texture", width, height, b.surfaceFormat)
		if err != nil {
			return err
		}
	}
	b.depthTexture, b.depthTextureView, err = b.createAttachment("Depth Texture", width, height, wgpu.TextureFormatDepth24Plus)
	if err != nil {
		return err
	}

	// with MSAA the swapchain view is the resolve target, set per frame
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	b.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    b.msaaTextureView,
			LoadOp:  wgpu.LoadOpClear,
			StoreOp: storeOp,
			ClearValue: wgpu.Color{
				R: 0.1, G: 0.1, B: 0.1, A: 1.0,
			},
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            b.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
	b.surfaceReady = true

	b.logger.Debug("surface configured",
		zap.Int("width", width),
		zap.Int("height", height),
		zap.Uint32("samples", count),
	)
	return nil
}

func (b *wgpuRendererBackendImpl) createAttachment(label string, width, height int, format wgpu.TextureFormat) (*wgpu.Texture, *wgpu.TextureView, error) {
	texture, err := b.dev.Raw().CreateTexture(&wgpu.TextureDescriptor{
		Label: label,
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   uint32(b.sampleCount),
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("renderer: %s: %w", label, err)
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, nil, fmt.Errorf("renderer: %s view: %w", label, err)
	}
	return texture, view, nil
}

func (b *wgpuRendererBackendImpl) releaseAttachments() {
	if b.msaaTextureView != nil {
		b.msaaTextureView.Release()
		b.msaaTextureView = nil
	}
	if b.msaaTexture != nil {
		b.msaaTexture.Release()
		b.msaaTexture = nil
	}
	if b.depthTextureView != nil {
		b.depthTextureView.Release()
		b.depthTextureView = nil
	}
	if b.depthTexture != nil {
		b.depthTexture.Release()
		b.depthTexture = nil
	}
	b.renderPassDescriptor = nil
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) WriteGlobals(data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.dev.Queue().WriteBuffer(b.globalBuffer, 0, data)
}

func (b *wgpuRendererBackendImpl) GlobalBindGroup() any {
	return b.globalBindGroup
}

func (b *wgpuRendererBackendImpl) BeginFrame() (device.CommandTarget, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.surfaceReady {
		return nil, nil
	}
	if b.frameSurface != nil {
		return nil, errors.New("renderer: previous frame surface not yet presented")
	}

	surfaceTexture, err := b.dev.Surface().GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return nil, err
	}
	encoder, err := b.dev.Raw().CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return nil, err
	}

	if b.sampleCount > 1 {
		b.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		b.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(b.renderPassDescriptor)
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, b.globalBindGroup, nil)

	b.frameEncoder = encoder
	b.framePass = pass
	b.frameSurface = surfaceTexture
	b.frameView = view
	b.frameSlot = 0

	return &wgpuFrameTarget{b: b}, nil
}

func (b *wgpuRendererBackendImpl) EndFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.framePass == nil {
		return nil
	}
	b.framePass.End()
	b.framePass = nil

	commandBuffer, err := b.frameEncoder.Finish(nil)
	b.frameEncoder.Release()
	b.frameEncoder = nil
	if err != nil {
		b.releaseFrameImage()
		return fmt.Errorf("renderer: finish frame: %w", err)
	}

	b.dev.Queue().Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frameSurface == nil {
		return
	}
	b.dev.Surface().Present()
	b.releaseFrameImage()
}

func (b *wgpuRendererBackendImpl) releaseFrameImage() {
	if b.frameView != nil {
		b.frameView.Release()
		b.frameView = nil
	}
	if b.frameSurface != nil {
		b.frameSurface.Release()
		b.frameSurface = nil
	}
}

func (b *wgpuRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.releaseFrameImage()
	b.releaseAttachments()
	if b.pipeline != nil {
		b.pipeline.Release()
		b.pipeline = nil
	}
	if b.objectBindGroup != nil {
		b.objectBindGroup.Release()
		b.objectBindGroup = nil
	}
	if b.globalBindGroup != nil {
		b.globalBindGroup.Release()
		b.globalBindGroup = nil
	}
	if b.objectBuffer != nil {
		b.objectBuffer.Destroy()
		b.objectBuffer.Release()
		b.objectBuffer = nil
	}
	if b.globalBuffer != nil {
		b.globalBuffer.Destroy()
		b.globalBuffer.Release()
		b.globalBuffer = nil
	}
	if b.objectLayout != nil {
		b.objectLayout.Release()
		b.objectLayout = nil
	}
	if b.globalLayout != nil {
		b.globalLayout.Release()
		b.globalLayout = nil
	}
}

func (t *wgpuFrameTarget) BindVertexBuffer(buf device.Buffer) {
	if raw := rawBuffer(buf); raw != nil {
		t.b.framePass.SetVertexBuffer(0, raw, 0, wgpu.WholeSize)
	}
}

func (t *wgpuFrameTarget) BindIndexBuffer(buf device.Buffer) {
	if raw := rawBuffer(buf); raw != nil {
		t.b.framePass.SetIndexBuffer(raw, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	}
}

func (t *wgpuFrameTarget) Draw(vertexCount uint32) {
	t.b.framePass.Draw(vertexCount, 1, 0, 0)
}

func (t *wgpuFrameTarget) DrawIndexed(indexCount uint32) {
	t.b.framePass.DrawIndexed(indexCount, 1, 0, 0, 0)
}

func (t *wgpuFrameTarget) PushConstants(data []byte) error {
	b := t.b
	if len(data) > ObjectDataSize {
		return fmt.Errorf("renderer: %d bytes of object data exceed %d", len(data), ObjectDataSize)
	}
	if b.frameSlot >= b.objectCapacity {
		return ErrObjectCapacity
	}
	offset := uint64(b.frameSlot) * ObjectStride
	b.dev.Queue().WriteBuffer(b.objectBuffer, offset, data)
	b.framePass.SetBindGroup(1, b.objectBindGroup, []uint32{uint32(offset)})
	b.frameSlot++
	return nil
}

func rawBuffer(buf device.Buffer) *wgpu.Buffer {
	if b, ok := buf.(*webgpu.Buffer); ok {
		return b.Raw()
	}
	return nil
}

func vertexBufferLayout() wgpu.VertexBufferLayout {
	return wgpu.VertexBufferLayout{
		ArrayStride: model.VertexStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes: []wgpu.VertexAttribute{
			{Format: wgpu.VertexFormatFloat32x3, Offset: model.VertexPositionOffset, ShaderLocation: 0},
			{Format: wgpu.VertexFormatFloat32x3, Offset: model.VertexColorOffset, ShaderLocation: 1},
			{Format: wgpu.VertexFormatFloat32x3, Offset: model.VertexNormalOffset, ShaderLocation: 2},
			{Format: wgpu.VertexFormatFloat32x2, Offset: model.VertexUVOffset, ShaderLocation: 3},
		},
	}
}
