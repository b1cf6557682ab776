// Package transfer moves host data into device memory. Every operation
// records a one-shot command buffer, submits it and blocks until the queue
// is idle before returning.
package transfer

import (
	"fmt"
	"unsafe"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
	"github.com/PrimozLavric/LogiPathTracer/log"
)

// MinBufferSize is the size of the zero-filled buffer allocated for empty uploads.
const MinBufferSize = 16

// Uploader copies data to the device using an injected allocator, command
// pool and queue. It must not be used concurrently, and the injected
// handles must not be used by anything else while an upload is running.
type Uploader struct {
	logger log.Logger

	allocator gpu.Allocator
	pool      gpu.CommandPool
	queue     gpu.Queue
}

// NewUploader creates an uploader.
func NewUploader(allocator gpu.Allocator, pool gpu.CommandPool, queue gpu.Queue) *Uploader {
	return &Uploader{
		logger:    log.New("transfer"),
		allocator: allocator,
		pool:      pool,
		queue:     queue,
	}
}

// Allocator returns the allocator used by the uploader.
func (u *Uploader) Allocator() gpu.Allocator {
	return u.allocator
}

// CopyToGPU copies data into a new device-local buffer with the given usage.
// The data is first written to a host-visible staging buffer which is
// released once the copy completes.
func (u *Uploader) CopyToGPU(data []byte, usage gpu.BufferUsage) (gpu.Buffer, error) {
	size := uint64(len(data))
	if size == 0 {
		size = MinBufferSize
	}

	staging, err := u.allocator.CreateBuffer(gpu.BufferInfo{
		Size:     size,
		Usage:    gpu.BufferUsageTransferSrc,
		Location: gpu.HostVisible,
	})
	if err != nil {
		return nil, fmt.Errorf("transfer: allocating %d byte staging buffer: %w", size, err)
	}
	defer staging.Destroy()

	if err = staging.Write(0, data); err != nil {
		return nil, fmt.Errorf("transfer: writing staging buffer: %w", err)
	}

	dst, err := u.allocator.CreateBuffer(gpu.BufferInfo{
		Size:     size,
		Usage:    usage | gpu.BufferUsageTransferDst,
		Location: gpu.DeviceLocal,
	})
	if err != nil {
		return nil, fmt.Errorf("transfer: allocating %d byte device buffer: %w", size, err)
	}

	err = u.submit(func(cmd gpu.CommandBuffer) {
		cmd.CopyBuffer(staging, dst, size)
	})
	if err != nil {
		dst.Destroy()
		return nil, err
	}

	return dst, nil
}

// CreateHostBuffer creates a host-visible buffer holding data without
// staging it.
func (u *Uploader) CreateHostBuffer(data []byte, usage gpu.BufferUsage) (gpu.Buffer, error) {
	size := uint64(len(data))
	if size == 0 {
		size = MinBufferSize
	}

	buf, err := u.allocator.CreateBuffer(gpu.BufferInfo{
		Size:     size,
		Usage:    usage,
		Location: gpu.HostVisible,
	})
	if err != nil {
		return nil, fmt.Errorf("transfer: allocating %d byte host buffer: %w", size, err)
	}
	if err = buf.Write(0, data); err != nil {
		buf.Destroy()
		return nil, fmt.Errorf("transfer: writing host buffer: %w", err)
	}
	return buf, nil
}

// submit records a one-shot command buffer, submits it to the queue and
// waits for the queue to become idle.
func (u *Uploader) submit(record func(cmd gpu.CommandBuffer)) error {
	cmd, err := u.pool.AllocateCommandBuffer()
	if err != nil {
		return fmt.Errorf("transfer: allocating command buffer: %w", err)
	}
	defer cmd.Destroy()

	if err = cmd.Begin(); err != nil {
		return fmt.Errorf("transfer: beginning command buffer: %w", err)
	}
	record(cmd)
	if err = cmd.End(); err != nil {
		return fmt.Errorf("transfer: recording command buffer: %w", err)
	}

	if err = u.queue.Submit(cmd); err != nil {
		return fmt.Errorf("transfer: submitting command buffer: %w", err)
	}
	if err = u.queue.WaitIdle(); err != nil {
		return fmt.Errorf("transfer: waiting for queue: %w", err)
	}
	return nil
}

// CopySlice copies a slice of fixed-layout records into a new device-local buffer.
func CopySlice[T any](u *Uploader, items []T, usage gpu.BufferUsage) (gpu.Buffer, error) {
	return u.CopyToGPU(Bytes(items), usage)
}

// Bytes reinterprets a slice of fixed-layout records as raw bytes. The
// returned slice aliases items. T must not contain pointers.
func Bytes[T any](items []T) []byte {
	if len(items) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&items[0])), len(items)*int(unsafe.Sizeof(zero)))
}
