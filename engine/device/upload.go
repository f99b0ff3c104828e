package device

import (
	"errors"
	"fmt"
)

// ErrEmptyUpload is returned when UploadBuffer is called without data.
var ErrEmptyUpload = errors.New("device: empty upload")

// UploadBuffer moves data into a new device-local buffer through a host-visible staging buffer.
// The staging buffer is created with transfer-src usage, filled, copied into a device-local buffer
// created with usage|UsageTransferDst, and destroyed once the copy has completed. The staging
// buffer is also destroyed when any later step fails.
//
// Parameters:
//   - dev: the device to allocate on
//   - label: debug label of the target buffer; the staging buffer gets a " Staging" suffix
//   - data: the bytes to upload
//   - usage: usage flags of the target buffer
//
// Returns:
//   - Buffer: the device-local buffer holding a copy of data
//   - error: ErrEmptyUpload, or the first allocation, write or copy error
func UploadBuffer(dev Device, label string, data []byte, usage Usage) (Buffer, error) {
	if len(data) == 0 {
		return nil, ErrEmptyUpload
	}
	size := uint64(len(data))

	staging, err := dev.CreateBuffer(label+" Staging", size, UsageTransferSrc, MemoryHostVisible)
	if err != nil {
		return nil, fmt.Errorf("device: create staging buffer for %q: %w", label, err)
	}
	defer dev.DestroyBuffer(staging)

	if err := dev.WriteBuffer(staging, 0, data); err != nil {
		return nil, fmt.Errorf("device: fill staging buffer for %q: %w", label, err)
	}

	target, err := dev.CreateBuffer(label, size, usage|UsageTransferDst, MemoryDeviceLocal)
	if err != nil {
		return nil, fmt.Errorf("device: create buffer %q: %w", label, err)
	}

	if err := dev.CopyBuffer(staging, target, size); err != nil {
		dev.DestroyBuffer(target)
		return nil, fmt.Errorf("device: copy into %q: %w", label, err)
	}
	return target, nil
}
