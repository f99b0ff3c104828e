// Package devicetest provides in-memory device.Device and device.CommandTarget implementations
// that record every call, for tests of packages that allocate or draw with GPU buffers.
package devicetest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/cmx-go/engine/device"
)

// Buffer is the buffer type handed out by Device. Data holds the current contents.
type Buffer struct {
	ID        int
	label     string
	usage     device.Usage
	memory    device.Memory
	Data      []byte
	Destroyed bool
}

var _ device.Buffer = &Buffer{}

func (b *Buffer) Label() string         { return b.label }
func (b *Buffer) Size() uint64          { return uint64(len(b.Data)) }
func (b *Buffer) Usage() device.Usage   { return b.usage }
func (b *Buffer) Memory() device.Memory { return b.memory }

// Device records calls in Ops as short strings such as "create Model Vertex Buffer",
// "write Model Vertex Buffer Staging", "copy Model Vertex Buffer Staging -> Model Vertex Buffer",
// "destroy Model Vertex Buffer Staging" and "wait".
type Device struct {
	mu      sync.Mutex
	Ops     []string
	Buffers []*Buffer

	// FailCreate makes CreateBuffer fail for the given label.
	FailCreate string
	// FailCopy makes every CopyBuffer call fail.
	FailCopy bool
	Released bool
}

var _ device.Device = &Device{}

// New returns an empty recording device.
func New() *Device {
	return &Device{}
}

func (d *Device) CreateBuffer(label string, size uint64, usage device.Usage, memory device.Memory) (device.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if label == d.FailCreate {
		return nil, fmt.Errorf("devicetest: create %q refused", label)
	}
	if size == 0 {
		return nil, fmt.Errorf("devicetest: zero sized buffer %q", label)
	}
	b := &Buffer{ID: len(d.Buffers), label: label, usage: usage, memory: memory, Data: make([]byte, size)}
	d.Buffers = append(d.Buffers, b)
	d.Ops = append(d.Ops, "create "+label)
	return b, nil
}

func (d *Device) WriteBuffer(buf device.Buffer, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := buf.(*Buffer)
	if b.memory != device.MemoryHostVisible {
		return fmt.Errorf("devicetest: write to %s buffer %q", b.memory, b.label)
	}
	if offset+uint64(len(data)) > uint64(len(b.Data)) {
		return fmt.Errorf("devicetest: write overflows %q", b.label)
	}
	copy(b.Data[offset:], data)
	d.Ops = append(d.Ops, "write "+b.label)
	return nil
}

func (d *Device) CopyBuffer(src, dst device.Buffer, size uint64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.FailCopy {
		return fmt.Errorf("devicetest: copy refused")
	}
	s, t := src.(*Buffer), dst.(*Buffer)
	if !s.usage.Has(device.UsageTransferSrc) || !t.usage.Has(device.UsageTransferDst) {
		return fmt.Errorf("devicetest: copy %q -> %q without transfer usage", s.label, t.label)
	}
	copy(t.Data[:size], s.Data[:size])
	d.Ops = append(d.Ops, "copy "+s.label+" -> "+t.label)
	return nil
}

func (d *Device) DestroyBuffer(buf device.Buffer) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b := buf.(*Buffer)
	b.Destroyed = true
	d.Ops = append(d.Ops, "destroy "+b.label)
}

func (d *Device) WaitIdle() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Ops = append(d.Ops, "wait")
	return nil
}

func (d *Device) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.Released = true
}

// Live returns the buffers that have not been destroyed.
func (d *Device) Live() []*Buffer {
	d.mu.Lock()
	defer d.mu.Unlock()

	var live []*Buffer
	for _, b := range d.Buffers {
		if !b.Destroyed {
			live = append(live, b)
		}
	}
	return live
}

// Target records draw commands as short strings such as "vertex <label>", "index <label>",
// "draw 3", "drawIndexed 6" and "push 128".
type Target struct {
	Commands []string
	Pushed   [][]byte

	// PushLimit makes PushConstants fail with device.ErrTargetFull once this many pushes were recorded.
	// 0 disables the limit.
	PushLimit int

	// PushSize makes PushConstants reject data longer than this many bytes. 0 disables the check.
	PushSize int
}

var _ device.CommandTarget = &Target{}

func (t *Target) BindVertexBuffer(buf device.Buffer) {
	t.Commands = append(t.Commands, "vertex "+buf.Label())
}

func (t *Target) BindIndexBuffer(buf device.Buffer) {
	t.Commands = append(t.Commands, "index "+buf.Label())
}

func (t *Target) Draw(vertexCount uint32) {
	t.Commands = append(t.Commands, fmt.Sprintf("draw %d", vertexCount))
}

func (t *Target) DrawIndexed(indexCount uint32) {
	t.Commands = append(t.Commands, fmt.Sprintf("drawIndexed %d", indexCount))
}

func (t *Target) PushConstants(data []byte) error {
	if t.PushSize > 0 && len(data) > t.PushSize {
		return fmt.Errorf("devicetest: %d bytes of object data exceed %d", len(data), t.PushSize)
	}
	if t.PushLimit > 0 && len(t.Pushed) >= t.PushLimit {
		return fmt.Errorf("devicetest: push limit %d reached: %w", t.PushLimit, device.ErrTargetFull)
	}
	t.Pushed = append(t.Pushed, append([]byte(nil), data...))
	t.Commands = append(t.Commands, fmt.Sprintf("push %d", len(data)))
	return nil
}
