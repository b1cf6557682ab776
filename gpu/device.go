// Package gpu defines the device abstraction used to upload scene data and
// build acceleration structures. Backends live in sub-packages.
package gpu

// Resource is a device object that must be explicitly destroyed.
type Resource interface {
	Destroy()
}

// Buffer is a linear device allocation.
type Buffer interface {
	Resource

	Size() uint64
	Usage() BufferUsage
	Location() MemoryLocation

	// Write copies data into the buffer at offset. Only host-visible
	// buffers can be written; other buffers return ErrNotHostVisible.
	Write(offset uint64, data []byte) error
}

// Image is a 2D device image.
type Image interface {
	Resource

	Extent() Extent
	Format() Format
}

// ImageView is a view over an Image that shaders can bind.
type ImageView interface {
	Resource
}

// Sampler controls how shaders read an image view.
type Sampler interface {
	Resource
}

// AccelerationStructure is an opaque ray tracing structure.
type AccelerationStructure interface {
	Resource

	Info() AccelerationStructureInfo

	// Handle returns the 64-bit device handle referenced by top-level
	// instance records.
	Handle() uint64

	// ScratchSize returns the size of the scratch buffer needed to build
	// the structure.
	ScratchSize() uint64
}

// Allocator creates device resources.
type Allocator interface {
	CreateBuffer(info BufferInfo) (Buffer, error)
	CreateImage(info ImageInfo) (Image, error)
	CreateImageView(image Image) (ImageView, error)
	CreateSampler(info SamplerInfo) (Sampler, error)

	// CreateAccelerationStructure allocates the backing memory for a
	// structure. It returns ErrRayTracingUnsupported on devices without
	// ray tracing support.
	CreateAccelerationStructure(info AccelerationStructureInfo) (AccelerationStructure, error)
}

// CommandBuffer records device commands.
//
// Recording methods do not return errors. The first recording error is
// kept and returned by End.
type CommandBuffer interface {
	Resource

	// Begin starts recording a command buffer that will be submitted once.
	Begin() error

	CopyBuffer(src, dst Buffer, size uint64)
	CopyBufferToImage(src Buffer, dst Image)

	// ImageBarrier transitions image from one layout to another.
	ImageBarrier(image Image, from, to ImageLayout)

	// BuildAccelerationStructure records a build of dst. Instances is only
	// used for top-level structures and may be nil otherwise.
	BuildAccelerationStructure(info AccelerationStructureInfo, instances Buffer, dst AccelerationStructure, scratch Buffer)

	// AccelerationStructureBarrier makes acceleration structure writes
	// visible to subsequent acceleration structure reads.
	AccelerationStructureBarrier()

	End() error
}

// CommandPool allocates command buffers.
type CommandPool interface {
	AllocateCommandBuffer() (CommandBuffer, error)
}

// Queue executes recorded command buffers.
type Queue interface {
	Submit(cmd CommandBuffer) error

	// WaitIdle blocks until all submitted work has completed.
	WaitIdle() error
}
