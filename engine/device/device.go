// Package device abstracts the GPU device used for buffer allocation and transfers, and the
// command target that draw calls are recorded into. Concrete implementations live in subpackages.
package device

import (
	"errors"
	"strings"
)

// ErrTargetFull is returned by CommandTarget.PushConstants when the current frame has no per-object slot left.
// The condition clears when the next frame begins.
var ErrTargetFull = errors.New("device: command target full")

// Usage is a set of buffer usage flags.
type Usage uint32

const (
	UsageVertex Usage = 1 << iota
	UsageIndex
	UsageUniform
	UsageStorage
	UsageTransferSrc
	UsageTransferDst
)

func (u Usage) Has(flag Usage) bool {
	return u&flag == flag
}

func (u Usage) String() string {
	names := []string{"vertex", "index", "uniform", "storage", "transfer-src", "transfer-dst"}
	var parts []string
	for i, name := range names {
		if u&(1<<i) != 0 {
			parts = append(parts, name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Memory selects where a buffer's storage lives.
type Memory int

const (
	// MemoryDeviceLocal buffers are only reachable from the GPU and are filled through transfers.
	MemoryDeviceLocal Memory = iota
	// MemoryHostVisible buffers accept writes from the CPU.
	MemoryHostVisible
)

func (m Memory) String() string {
	if m == MemoryHostVisible {
		return "host-visible"
	}
	return "device-local"
}

// Buffer is a GPU buffer handle created by a Device.
type Buffer interface {
	// Label returns the debug label the buffer was created with.
	Label() string

	// Size returns the buffer size in bytes.
	Size() uint64

	// Usage returns the usage flags the buffer was created with.
	Usage() Usage

	// Memory returns the memory type the buffer was allocated in.
	Memory() Memory
}

// Device allocates GPU buffers and executes transfers between them.
// All methods must be called from the goroutine that owns the frame loop.
type Device interface {
	// CreateBuffer allocates a buffer.
	//
	// Parameters:
	//   - label: debug label attached to the buffer
	//   - size: size of the buffer in bytes, must be greater than zero
	//   - usage: usage flags
	//   - memory: memory type to allocate in
	//
	// Returns:
	//   - Buffer: the new buffer
	//   - error: an error if allocation fails
	CreateBuffer(label string, size uint64, usage Usage, memory Memory) (Buffer, error)

	// WriteBuffer copies host data into a host-visible buffer.
	//
	// Parameters:
	//   - buf: destination buffer, must be MemoryHostVisible
	//   - offset: byte offset into the destination
	//   - data: bytes to copy
	//
	// Returns:
	//   - error: an error if the buffer is not host-visible or the write overflows it
	WriteBuffer(buf Buffer, offset uint64, data []byte) error

	// CopyBuffer records a single-use copy command, submits it and waits for it to complete.
	//
	// Parameters:
	//   - src: source buffer, must carry UsageTransferSrc
	//   - dst: destination buffer, must carry UsageTransferDst
	//   - size: number of bytes to copy from the start of src to the start of dst
	//
	// Returns:
	//   - error: an error if recording or submission fails
	CopyBuffer(src, dst Buffer, size uint64) error

	// DestroyBuffer frees a buffer. The caller guarantees the GPU no longer uses it.
	//
	// Parameters:
	//   - buf: the buffer to free
	DestroyBuffer(buf Buffer)

	// WaitIdle blocks until all submitted GPU work has completed.
	//
	// Returns:
	//   - error: an error if the device was lost
	WaitIdle() error

	// Release frees the device. All buffers must be destroyed first.
	Release()
}

// CommandTarget receives the draw commands recorded while a component renders.
type CommandTarget interface {
	// BindVertexBuffer binds the vertex buffer at slot 0.
	//
	// Parameters:
	//   - buf: a buffer carrying UsageVertex
	BindVertexBuffer(buf Buffer)

	// BindIndexBuffer binds a buffer of uint32 indices.
	//
	// Parameters:
	//   - buf: a buffer carrying UsageIndex
	BindIndexBuffer(buf Buffer)

	// Draw records a non-indexed draw of the bound vertex buffer.
	//
	// Parameters:
	//   - vertexCount: number of vertices to draw
	Draw(vertexCount uint32)

	// DrawIndexed records an indexed draw using the bound index buffer.
	//
	// Parameters:
	//   - indexCount: number of indices to draw
	DrawIndexed(indexCount uint32)

	// PushConstants sets the per-object data for subsequent draws.
	//
	// Parameters:
	//   - data: raw per-object data, at most the target's per-object size
	//
	// Returns:
	//   - error: an error if the data is too large, or one wrapping ErrTargetFull if the frame ran out of per-object slots
	PushConstants(data []byte) error
}
