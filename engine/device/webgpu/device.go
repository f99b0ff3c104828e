// Package webgpu implements device.Device on top of wgpu-native through cogentcore/webgpu.
package webgpu

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/cmx-go/engine/device"
	"github.com/Carmen-Shannon/cmx-go/engine/logger"
	"github.com/cogentcore/webgpu/wgpu"
	"go.uber.org/zap"
)

// copyAlignment is the size granularity wgpu requires for mapped ranges and buffer copies.
const copyAlignment = 4

// Device is a device.Device backed by a wgpu adapter and logical device.
// It also exposes the raw wgpu handles the renderer needs to configure the surface and pipelines.
type Device interface {
	device.Device

	// Instance returns the wgpu instance the device was created from.
	Instance() *wgpu.Instance

	// Adapter returns the physical adapter backing the device.
	Adapter() *wgpu.Adapter

	// Raw returns the wgpu logical device.
	Raw() *wgpu.Device

	// Queue returns the device's submission queue.
	Queue() *wgpu.Queue

	// Surface returns the presentation surface, or nil if the device was created headless.
	Surface() *wgpu.Surface
}

type deviceImpl struct {
	label                string
	surfaceDescriptor    *wgpu.SurfaceDescriptor
	forceFallbackAdapter bool
	logger               *zap.Logger

	instance *wgpu.Instance
	surface  *wgpu.Surface
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
}

var _ Device = &deviceImpl{}

// Buffer is the device.Buffer handed out by this package.
type Buffer struct {
	raw    *wgpu.Buffer
	label  string
	size   uint64
	usage  device.Usage
	memory device.Memory
	mapped bool
}

var _ device.Buffer = &Buffer{}

func (b *Buffer) Label() string         { return b.label }
func (b *Buffer) Size() uint64          { return b.size }
func (b *Buffer) Usage() device.Usage   { return b.usage }
func (b *Buffer) Memory() device.Memory { return b.memory }

// Raw returns the wgpu buffer handle.
func (b *Buffer) Raw() *wgpu.Buffer { return b.raw }

// NewDevice creates the wgpu instance, requests an adapter compatible with the configured surface and
// opens a logical device on it.
//
// Parameters:
//   - options: variadic list of DeviceBuilderOption functions
//
// Returns:
//   - Device: the opened device
//   - error: an error if no adapter or device could be obtained
func NewDevice(options ...DeviceBuilderOption) (Device, error) {
	d := &deviceImpl{
		label: "Main Device",
	}
	for _, opt := range options {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logger.Named("device")
	}

	d.instance = wgpu.CreateInstance(nil)
	if d.surfaceDescriptor != nil {
		d.surface = d.instance.CreateSurface(d.surfaceDescriptor)
	}

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("webgpu: request adapter: %w", err)
	}
	d.adapter = a

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: d.label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		d.Release()
		return nil, fmt.Errorf("webgpu: request device: %w", err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	d.logger.Info("device opened",
		zap.String("label", d.label),
		zap.Bool("headless", d.surface == nil),
	)
	return d, nil
}

func (d *deviceImpl) CreateBuffer(label string, size uint64, usage device.Usage, memory device.Memory) (device.Buffer, error) {
	if size == 0 {
		return nil, fmt.Errorf("webgpu: buffer %q has zero size", label)
	}

	desc := &wgpu.BufferDescriptor{
		Label: label,
		Size:  alignUp(size),
		Usage: toBufferUsage(usage),
	}
	if memory == device.MemoryHostVisible {
		desc.Usage |= wgpu.BufferUsageMapWrite
		desc.MappedAtCreation = true
	}

	raw, err := d.device.CreateBuffer(desc)
	if err != nil {
		return nil, err
	}
	return &Buffer{
		raw:    raw,
		label:  label,
		size:   size,
		usage:  usage,
		memory: memory,
		mapped: desc.MappedAtCreation,
	}, nil
}

// WriteBuffer fills a host-visible buffer through its creation-time mapping and unmaps it, so each
// host-visible buffer accepts exactly one write.
func (d *deviceImpl) WriteBuffer(buf device.Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*Buffer)
	if !ok {
		return fmt.Errorf("webgpu: foreign buffer %q", buf.Label())
	}
	if b.memory != device.MemoryHostVisible {
		return fmt.Errorf("webgpu: write to %s buffer %q", b.memory, b.label)
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("webgpu: write of %d bytes at %d overflows %q (%d bytes)", len(data), offset, b.label, b.size)
	}
	if !b.mapped {
		return fmt.Errorf("webgpu: buffer %q is no longer mapped", b.label)
	}

	mapped := b.raw.GetMappedRange(0, uint(alignUp(b.size)))
	copy(mapped[offset:], data)
	b.mapped = false
	return b.raw.Unmap()
}

func (d *deviceImpl) CopyBuffer(src, dst device.Buffer, size uint64) error {
	s, ok := src.(*Buffer)
	if !ok {
		return fmt.Errorf("webgpu: foreign buffer %q", src.Label())
	}
	t, ok := dst.(*Buffer)
	if !ok {
		return fmt.Errorf("webgpu: foreign buffer %q", dst.Label())
	}
	if s.mapped {
		return fmt.Errorf("webgpu: copy from mapped buffer %q", s.label)
	}

	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "Transfer Encoder"})
	if err != nil {
		return err
	}
	defer encoder.Release()

	if err := encoder.CopyBufferToBuffer(s.raw, 0, t.raw, 0, alignUp(size)); err != nil {
		return err
	}

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return err
	}
	d.queue.Submit(commandBuffer)
	commandBuffer.Release()

	d.device.Poll(true, nil)
	return nil
}

func (d *deviceImpl) DestroyBuffer(buf device.Buffer) {
	b, ok := buf.(*Buffer)
	if !ok || b.raw == nil {
		return
	}
	if b.mapped {
		_ = b.raw.Unmap()
		b.mapped = false
	}
	b.raw.Destroy()
	b.raw.Release()
	b.raw = nil
}

func (d *deviceImpl) WaitIdle() error {
	if d.device == nil {
		return errors.New("webgpu: device not open")
	}
	d.device.Poll(true, nil)
	return nil
}

func (d *deviceImpl) Release() {
	if d.queue != nil {
		d.queue.Release()
		d.queue = nil
	}
	if d.device != nil {
		d.device.Release()
		d.device = nil
	}
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

func (d *deviceImpl) Instance() *wgpu.Instance {
	return d.instance
}

func (d *deviceImpl) Adapter() *wgpu.Adapter {
	return d.adapter
}

func (d *deviceImpl) Raw() *wgpu.Device {
	return d.device
}

func (d *deviceImpl) Queue() *wgpu.Queue {
	return d.queue
}

func (d *deviceImpl) Surface() *wgpu.Surface {
	return d.surface
}

func toBufferUsage(u device.Usage) wgpu.BufferUsage {
	var out wgpu.BufferUsage
	if u.Has(device.UsageVertex) {
		out |= wgpu.BufferUsageVertex
	}
	if u.Has(device.UsageIndex) {
		out |= wgpu.BufferUsageIndex
	}
	if u.Has(device.UsageUniform) {
		out |= wgpu.BufferUsageUniform
	}
	if u.Has(device.UsageStorage) {
		out |= wgpu.BufferUsageStorage
	}
	if u.Has(device.UsageTransferSrc) {
		out |= wgpu.BufferUsageCopySrc
	}
	if u.Has(device.UsageTransferDst) {
		out |= wgpu.BufferUsageCopyDst
	}
	return out
}

func alignUp(size uint64) uint64 {
	return (size + copyAlignment - 1) &^ (copyAlignment - 1)
}
