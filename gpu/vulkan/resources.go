package vulkan

import (
	"fmt"
	"unsafe"

	vk "github.com/goki/vulkan"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
)

// Buffer is a VkBuffer bound to its own memory allocation.
type Buffer struct {
	dev    *Device
	info   gpu.BufferInfo
	handle vk.Buffer
	memory vk.DeviceMemory
}

func (b *Buffer) Size() uint64                 { return b.info.Size }
func (b *Buffer) Usage() gpu.BufferUsage       { return b.info.Usage }
func (b *Buffer) Location() gpu.MemoryLocation { return b.info.Location }

// Write maps the buffer memory and copies data at offset.
func (b *Buffer) Write(offset uint64, data []byte) error {
	switch {
	case b.handle == vk.NullBuffer:
		return gpu.ErrInvalidHandle
	case b.info.Location != gpu.HostVisible:
		return gpu.ErrNotHostVisible
	case offset+uint64(len(data)) > b.info.Size:
		return fmt.Errorf("writing %d bytes at offset %d into buffer of size %d: %w", len(data), offset, b.info.Size, gpu.ErrWriteOutOfRange)
	case len(data) == 0:
		return nil
	}

	var ptr unsafe.Pointer
	err := vk.Error(vk.MapMemory(b.dev.device, b.memory, vk.DeviceSize(offset), vk.DeviceSize(len(data)), 0, &ptr))
	if err != nil {
		return fmt.Errorf("vulkan: mapping buffer memory: %w", err)
	}
	vk.Memcopy(ptr, data)
	vk.UnmapMemory(b.dev.device, b.memory)
	return nil
}

func (b *Buffer) Destroy() {
	if b.handle == vk.NullBuffer {
		return
	}
	vk.DestroyBuffer(b.dev.device, b.handle, nil)
	vk.FreeMemory(b.dev.device, b.memory, nil)
	b.handle = vk.NullBuffer
	b.memory = vk.NullDeviceMemory
}

// CreateBuffer creates a buffer and binds it to memory of the requested location.
func (d *Device) CreateBuffer(info gpu.BufferInfo) (gpu.Buffer, error) {
	var handle vk.Buffer
	err := vk.Error(vk.CreateBuffer(d.device, &vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(info.Size),
		Usage:       bufferUsage(info.Usage),
		SharingMode: vk.SharingModeExclusive,
	}, nil, &handle))
	if err != nil {
		return nil, fmt.Errorf("vulkan: creating buffer of %d bytes: %w", info.Size, err)
	}

	var req vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.device, handle, &req)
	req.Deref()

	mem, err := d.allocate(req, info.Location)
	if err != nil {
		vk.DestroyBuffer(d.device, handle, nil)
		return nil, err
	}
	if err = vk.Error(vk.BindBufferMemory(d.device, handle, mem, 0)); err != nil {
		vk.DestroyBuffer(d.device, handle, nil)
		vk.FreeMemory(d.device, mem, nil)
		return nil, fmt.Errorf("vulkan: binding buffer memory: %w", err)
	}

	return &Buffer{dev: d, info: info, handle: handle, memory: mem}, nil
}

// Image is a 2D, single mip level, optimally tiled VkImage.
type Image struct {
	dev    *Device
	info   gpu.ImageInfo
	handle vk.Image
	memory vk.DeviceMemory
}

func (img *Image) Extent() gpu.Extent { return img.info.Extent }
func (img *Image) Format() gpu.Format { return img.info.Format }

func (img *Image) Destroy() {
	if img.handle == vk.NullImage {
		return
	}
	vk.DestroyImage(img.dev.device, img.handle, nil)
	vk.FreeMemory(img.dev.device, img.memory, nil)
	img.handle = vk.NullImage
	img.memory = vk.NullDeviceMemory
}

// CreateImage creates an image in device-local memory.
func (d *Device) CreateImage(info gpu.ImageInfo) (gpu.Image, error) {
	format, ok := imageFormat(info.Format)
	if !ok {
		return nil, fmt.Errorf("vulkan: creating image with format %s: %w", info.Format, gpu.ErrUnsupportedFormat)
	}

	var handle vk.Image
	err := vk.Error(vk.CreateImage(d.device, &vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType2d,
		Format:    format,
		Extent: vk.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  1,
		},
		MipLevels:     1,
		ArrayLayers:   1,
		Samples:       vk.SampleCount1Bit,
		Tiling:        vk.ImageTilingOptimal,
		Usage:         imageUsage(info.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}, nil, &handle))
	if err != nil {
		return nil, fmt.Errorf("vulkan: creating %dx%d image: %w", info.Extent.Width, info.Extent.Height, err)
	}

	var req vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.device, handle, &req)
	req.Deref()

	mem, err := d.allocate(req, gpu.DeviceLocal)
	if err != nil {
		vk.DestroyImage(d.device, handle, nil)
		return nil, err
	}
	if err = vk.Error(vk.BindImageMemory(d.device, handle, mem, 0)); err != nil {
		vk.DestroyImage(d.device, handle, nil)
		vk.FreeMemory(d.device, mem, nil)
		return nil, fmt.Errorf("vulkan: binding image memory: %w", err)
	}

	return &Image{dev: d, info: info, handle: handle, memory: mem}, nil
}

// ImageView wraps a VkImageView.
type ImageView struct {
	dev    *Device
	handle vk.ImageView
}

func (v *ImageView) Destroy() {
	if v.handle == vk.NullImageView {
		return
	}
	vk.DestroyImageView(v.dev.device, v.handle, nil)
	v.handle = vk.NullImageView
}

// CreateImageView creates a 2D color view over the whole image.
func (d *Device) CreateImageView(image gpu.Image) (gpu.ImageView, error) {
	img, ok := image.(*Image)
	if !ok || img.handle == vk.NullImage {
		return nil, fmt.Errorf("vulkan: creating image view: %w", gpu.ErrInvalidHandle)
	}
	format, _ := imageFormat(img.info.Format)

	var handle vk.ImageView
	err := vk.Error(vk.CreateImageView(d.device, &vk.ImageViewCreateInfo{
		SType:            vk.StructureTypeImageViewCreateInfo,
		Image:            img.handle,
		ViewType:         vk.ImageViewType2d,
		Format:           format,
		SubresourceRange: colorSubresourceRange(),
	}, nil, &handle))
	if err != nil {
		return nil, fmt.Errorf("vulkan: creating image view: %w", err)
	}
	return &ImageView{dev: d, handle: handle}, nil
}

// Sampler wraps a VkSampler.
type Sampler struct {
	dev    *Device
	handle vk.Sampler
}

func (s *Sampler) Destroy() {
	if s.handle == vk.NullSampler {
		return
	}
	vk.DestroySampler(s.dev.device, s.handle, nil)
	s.handle = vk.NullSampler
}

// CreateSampler creates a sampler from info.
func (d *Device) CreateSampler(info gpu.SamplerInfo) (gpu.Sampler, error) {
	var handle vk.Sampler
	createInfo := samplerCreateInfo(info)
	if err := vk.Error(vk.CreateSampler(d.device, &createInfo, nil, &handle)); err != nil {
		return nil, fmt.Errorf("vulkan: creating sampler: %w", err)
	}
	return &Sampler{dev: d, handle: handle}, nil
}

// CreateAccelerationStructure is not available through these bindings.
func (d *Device) CreateAccelerationStructure(info gpu.AccelerationStructureInfo) (gpu.AccelerationStructure, error) {
	return nil, fmt.Errorf("vulkan: creating %s structure on %q: %w", info.Type, d.name, gpu.ErrRayTracingUnsupported)
}

func colorSubresourceRange() vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
		LevelCount: 1,
		LayerCount: 1,
	}
}
