package gpu

import "fmt"

// MemoryLocation selects where an allocation lives.
type MemoryLocation uint8

const (
	// DeviceLocal memory is fast for the device and not mappable by the host.
	DeviceLocal MemoryLocation = iota

	// HostVisible memory is mappable by the host and coherent.
	HostVisible
)

func (l MemoryLocation) String() string {
	switch l {
	case DeviceLocal:
		return "device-local"
	case HostVisible:
		return "host-visible"
	}
	return fmt.Sprintf("MemoryLocation(%d)", uint8(l))
}

// BufferUsage is a set of flags describing how a buffer is used.
type BufferUsage uint32

const (
	BufferUsageTransferSrc BufferUsage = 1 << iota
	BufferUsageTransferDst
	BufferUsageStorage
	BufferUsageVertex
	BufferUsageIndex
	BufferUsageRayTracing
)

// Has returns true if all flags in f are set.
func (u BufferUsage) Has(f BufferUsage) bool {
	return u&f == f
}

// ImageUsage is a set of flags describing how an image is used.
type ImageUsage uint32

const (
	ImageUsageTransferDst ImageUsage = 1 << iota
	ImageUsageSampled
)

// Format describes the layout of a texel or vertex attribute.
type Format uint32

const (
	FormatUndefined Format = iota
	FormatR8Unorm
	FormatR8G8B8A8Unorm
	FormatR32Sfloat
	FormatR32G32B32Sfloat
	FormatR32G32B32A32Sfloat
)

// BytesPerPixel returns the size of a single element of this format.
func (f Format) BytesPerPixel() int {
	switch f {
	case FormatR8Unorm:
		return 1
	case FormatR8G8B8A8Unorm, FormatR32Sfloat:
		return 4
	case FormatR32G32B32Sfloat:
		return 12
	case FormatR32G32B32A32Sfloat:
		return 16
	}
	return 0
}

func (f Format) String() string {
	switch f {
	case FormatUndefined:
		return "undefined"
	case FormatR8Unorm:
		return "R8_UNORM"
	case FormatR8G8B8A8Unorm:
		return "R8G8B8A8_UNORM"
	case FormatR32Sfloat:
		return "R32_SFLOAT"
	case FormatR32G32B32Sfloat:
		return "R32G32B32_SFLOAT"
	case FormatR32G32B32A32Sfloat:
		return "R32G32B32A32_SFLOAT"
	}
	return fmt.Sprintf("Format(%d)", uint32(f))
}

// ImageLayout is the access layout an image is in.
type ImageLayout uint8

const (
	ImageLayoutUndefined ImageLayout = iota
	ImageLayoutTransferDst
	ImageLayoutShaderReadOnly
)

func (l ImageLayout) String() string {
	switch l {
	case ImageLayoutUndefined:
		return "undefined"
	case ImageLayoutTransferDst:
		return "transfer-dst"
	case ImageLayoutShaderReadOnly:
		return "shader-read-only"
	}
	return fmt.Sprintf("ImageLayout(%d)", uint8(l))
}

// Extent is the size of a 2D image.
type Extent struct {
	Width  uint32
	Height uint32
}

// IndexType is the element type of an index buffer.
type IndexType uint8

const (
	IndexTypeNone IndexType = iota
	IndexTypeUint16
	IndexTypeUint32
)

// IndexTypeForSize selects the index type that matches an index element
// byte width. Widths other than 2 and 4 yield IndexTypeNone.
func IndexTypeForSize(elementSize int) IndexType {
	switch elementSize {
	case 2:
		return IndexTypeUint16
	case 4:
		return IndexTypeUint32
	}
	return IndexTypeNone
}

// BufferInfo describes a buffer allocation.
type BufferInfo struct {
	Size     uint64
	Usage    BufferUsage
	Location MemoryLocation
}

// ImageInfo describes a 2D, single mip level image allocation.
type ImageInfo struct {
	Extent Extent
	Format Format
	Usage  ImageUsage
}
