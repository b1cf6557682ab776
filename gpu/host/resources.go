package host

import (
	"fmt"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
)

// Buffer is an in-memory buffer.
type Buffer struct {
	dev       *Device
	info      gpu.BufferInfo
	data      []byte
	destroyed bool
}

func (b *Buffer) Size() uint64                 { return b.info.Size }
func (b *Buffer) Usage() gpu.BufferUsage       { return b.info.Usage }
func (b *Buffer) Location() gpu.MemoryLocation { return b.info.Location }

// Write copies data into a host-visible buffer.
func (b *Buffer) Write(offset uint64, data []byte) error {
	switch {
	case b.destroyed:
		return gpu.ErrInvalidHandle
	case b.info.Location != gpu.HostVisible:
		return gpu.ErrNotHostVisible
	case offset+uint64(len(data)) > b.info.Size:
		return fmt.Errorf("writing %d bytes at offset %d into buffer of size %d: %w", len(data), offset, b.info.Size, gpu.ErrWriteOutOfRange)
	}
	copy(b.data[offset:], data)
	return nil
}

// Destroy releases the buffer memory. Destroying a buffer twice is a no-op.
func (b *Buffer) Destroy() {
	b.dev.mu.Lock()
	defer b.dev.mu.Unlock()

	if b.destroyed {
		return
	}
	b.destroyed = true
	b.dev.release(b.info.Size)
	b.dev.stats.LiveBuffers--
	b.data = nil
}

// Image is an in-memory image with tracked layout.
type Image struct {
	dev       *Device
	info      gpu.ImageInfo
	data      []byte
	layout    gpu.ImageLayout
	destroyed bool
}

func (img *Image) Extent() gpu.Extent { return img.info.Extent }
func (img *Image) Format() gpu.Format { return img.info.Format }

// Layout returns the layout the image was last transitioned to.
func (img *Image) Layout() gpu.ImageLayout { return img.layout }

// Destroy releases the image memory.
func (img *Image) Destroy() {
	img.dev.mu.Lock()
	defer img.dev.mu.Unlock()

	if img.destroyed {
		return
	}
	img.destroyed = true
	img.dev.release(uint64(len(img.data)))
	img.dev.stats.LiveImages--
	img.data = nil
}

// ImageView is a view over an Image.
type ImageView struct {
	dev       *Device
	image     *Image
	destroyed bool
}

// Image returns the viewed image.
func (v *ImageView) Image() *Image { return v.image }

func (v *ImageView) Destroy() {
	v.dev.mu.Lock()
	defer v.dev.mu.Unlock()

	if v.destroyed {
		return
	}
	v.destroyed = true
	v.dev.stats.LiveImageViews--
}

// Sampler stores the sampler description it was created with.
type Sampler struct {
	dev       *Device
	info      gpu.SamplerInfo
	destroyed bool
}

// Info returns the sampler description.
func (s *Sampler) Info() gpu.SamplerInfo { return s.info }

func (s *Sampler) Destroy() {
	s.dev.mu.Lock()
	defer s.dev.mu.Unlock()

	if s.destroyed {
		return
	}
	s.destroyed = true
	s.dev.stats.LiveSamplers--
}
