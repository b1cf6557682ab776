package renderer

import (
	"fmt"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
	"github.com/PrimozLavric/LogiPathTracer/gpu/host"
	"github.com/PrimozLavric/LogiPathTracer/gpu/vulkan"
	"github.com/PrimozLavric/LogiPathTracer/transfer"
)

// Device bundles the allocator, command pool and queue of an opened backend.
type Device struct {
	Name string

	gpu.Allocator
	gpu.CommandPool
	gpu.Queue

	close func() error
}

// NewDevice opens the backend selected by opts.
func NewDevice(opts Options) (*Device, error) {
	switch opts.Backend {
	case BackendHost:
		dev := host.NewDevice(host.WithMemoryLimit(opts.MemoryLimit))
		return &Device{
			Name:        dev.Name(),
			Allocator:   dev,
			CommandPool: dev,
			Queue:       dev,
			close:       dev.Close,
		}, nil
	case BackendVulkan:
		dev, err := vulkan.Open(opts.Device)
		if err != nil {
			return nil, err
		}
		return &Device{
			Name:        dev.Name(),
			Allocator:   dev,
			CommandPool: dev,
			Queue:       dev,
			close:       dev.Close,
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown backend %q", ErrInvalidOptions, opts.Backend)
}

// Uploader returns a transfer uploader bound to the device.
func (d *Device) Uploader() *transfer.Uploader {
	return transfer.NewUploader(d.Allocator, d.CommandPool, d.Queue)
}

// Close releases the device.
func (d *Device) Close() error {
	return d.close()
}
