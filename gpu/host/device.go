// Package host implements the gpu device abstraction in process memory. It
// executes transfers and emulates acceleration structure builds so scene
// conversion can run, and be inspected, without a physical device.
package host

import (
	"fmt"
	"sync"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
)

// Stats tracks device resource usage.
type Stats struct {
	LiveBuffers        int
	LiveImages         int
	LiveImageViews     int
	LiveSamplers       int
	LiveStructures     int
	LiveCommandBuffers int

	BufferAllocations    int
	ImageAllocations     int
	StructureAllocations int

	LiveBytes uint64
	PeakBytes uint64

	Submits   int
	WaitIdles int
}

// Option configures a Device.
type Option func(*Device)

// WithMemoryLimit makes allocations that would push live memory past limit
// fail with gpu.ErrOutOfDeviceMemory. A zero limit disables the check.
func WithMemoryLimit(limit uint64) Option {
	return func(d *Device) {
		d.memoryLimit = limit
	}
}

// WithName sets the device name.
func WithName(name string) Option {
	return func(d *Device) {
		d.name = name
	}
}

// Device is an in-memory gpu device. It implements gpu.Allocator,
// gpu.CommandPool and gpu.Queue. Submitted command buffers execute when
// WaitIdle is called.
type Device struct {
	mu sync.Mutex

	name        string
	memoryLimit uint64
	stats       Stats

	nextHandle uint64
	structures map[uint64]*AccelerationStructure

	pending []*CommandBuffer
}

var (
	_ gpu.Allocator   = (*Device)(nil)
	_ gpu.CommandPool = (*Device)(nil)
	_ gpu.Queue       = (*Device)(nil)
)

// NewDevice creates a new in-memory device.
func NewDevice(opts ...Option) *Device {
	d := &Device{
		name:       "host",
		structures: make(map[uint64]*AccelerationStructure),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the device name.
func (d *Device) Name() string {
	return d.name
}

// Stats returns a snapshot of the device resource usage.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Close releases the device. It returns an error if resources are still alive.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := d.stats
	if s.LiveBuffers+s.LiveImages+s.LiveImageViews+s.LiveSamplers+s.LiveStructures+s.LiveCommandBuffers != 0 {
		return fmt.Errorf("host device (%s): closed with live resources: %d buffers, %d images, %d views, %d samplers, %d structures, %d command buffers",
			d.name, s.LiveBuffers, s.LiveImages, s.LiveImageViews, s.LiveSamplers, s.LiveStructures, s.LiveCommandBuffers)
	}
	return nil
}

// reserve accounts for size bytes of new device memory.
func (d *Device) reserve(size uint64) error {
	if d.memoryLimit != 0 && d.stats.LiveBytes+size > d.memoryLimit {
		return fmt.Errorf("host device (%s): allocating %d bytes with %d of %d in use: %w",
			d.name, size, d.stats.LiveBytes, d.memoryLimit, gpu.ErrOutOfDeviceMemory)
	}
	d.stats.LiveBytes += size
	if d.stats.LiveBytes > d.stats.PeakBytes {
		d.stats.PeakBytes = d.stats.LiveBytes
	}
	return nil
}

func (d *Device) release(size uint64) {
	d.stats.LiveBytes -= size
}

// CreateBuffer allocates a zero-filled buffer.
func (d *Device) CreateBuffer(info gpu.BufferInfo) (gpu.Buffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.reserve(info.Size); err != nil {
		return nil, err
	}
	d.stats.LiveBuffers++
	d.stats.BufferAllocations++

	return &Buffer{
		dev:  d,
		info: info,
		data: make([]byte, info.Size),
	}, nil
}

// CreateImage allocates a zero-filled image in the undefined layout.
func (d *Device) CreateImage(info gpu.ImageInfo) (gpu.Image, error) {
	bpp := info.Format.BytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("host device (%s): creating image with format %s: %w", d.name, info.Format, gpu.ErrUnsupportedFormat)
	}
	size := uint64(info.Extent.Width) * uint64(info.Extent.Height) * uint64(bpp)

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.reserve(size); err != nil {
		return nil, err
	}
	d.stats.LiveImages++
	d.stats.ImageAllocations++

	return &Image{
		dev:    d,
		info:   info,
		data:   make([]byte, size),
		layout: gpu.ImageLayoutUndefined,
	}, nil
}

// CreateImageView creates a view over image.
func (d *Device) CreateImageView(image gpu.Image) (gpu.ImageView, error) {
	img, ok := image.(*Image)
	if !ok || img.destroyed {
		return nil, fmt.Errorf("host device (%s): creating image view: %w", d.name, gpu.ErrInvalidHandle)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.LiveImageViews++

	return &ImageView{dev: d, image: img}, nil
}

// CreateSampler creates a sampler.
func (d *Device) CreateSampler(info gpu.SamplerInfo) (gpu.Sampler, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.LiveSamplers++

	return &Sampler{dev: d, info: info}, nil
}

// AllocateCommandBuffer allocates a command buffer in the initial state.
func (d *Device) AllocateCommandBuffer() (gpu.CommandBuffer, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stats.LiveCommandBuffers++

	return &CommandBuffer{dev: d}, nil
}

// Submit queues an executable command buffer. It runs on the next WaitIdle.
func (d *Device) Submit(cmd gpu.CommandBuffer) error {
	cb, ok := cmd.(*CommandBuffer)
	if !ok || cb.destroyed {
		return fmt.Errorf("host device (%s): submit: %w", d.name, gpu.ErrInvalidHandle)
	}
	if cb.state != stateExecutable {
		return fmt.Errorf("host device (%s): submit: %w", d.name, gpu.ErrNotExecutable)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	cb.state = statePending
	d.pending = append(d.pending, cb)
	d.stats.Submits++
	return nil
}

// WaitIdle executes all submitted command buffers in submission order and
// returns the first execution error.
func (d *Device) WaitIdle() error {
	d.mu.Lock()
	pending := d.pending
	d.pending = nil
	d.stats.WaitIdles++
	d.mu.Unlock()

	var firstErr error
	for _, cb := range pending {
		if err := cb.execute(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("host device (%s): %w", d.name, err)
		}
	}
	return firstErr
}

// ReadBuffer returns a copy of the buffer contents regardless of its memory location.
func (d *Device) ReadBuffer(buf gpu.Buffer) ([]byte, error) {
	b, ok := buf.(*Buffer)
	if !ok || b.destroyed {
		return nil, gpu.ErrInvalidHandle
	}
	return append([]byte(nil), b.data...), nil
}

// ReadImage returns a copy of the image texels.
func (d *Device) ReadImage(image gpu.Image) ([]byte, error) {
	img, ok := image.(*Image)
	if !ok || img.destroyed {
		return nil, gpu.ErrInvalidHandle
	}
	return append([]byte(nil), img.data...), nil
}

// Structure looks up a live acceleration structure by device handle.
func (d *Device) Structure(handle uint64) (*AccelerationStructure, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	as, ok := d.structures[handle]
	return as, ok
}
