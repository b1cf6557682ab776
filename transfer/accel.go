package transfer

import (
	"fmt"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
)

// CreateAccelerationStructure allocates and builds an acceleration
// structure. Top-level structures read instanceCount records from
// instances, which must stay alive until this call returns. The build uses
// a temporary scratch buffer and blocks until the queue is idle, so builds
// never overlap each other.
func (u *Uploader) CreateAccelerationStructure(asType gpu.AccelerationStructureType, geometries []gpu.Geometry, instanceCount uint32, instances gpu.Buffer) (gpu.AccelerationStructure, error) {
	info := gpu.AccelerationStructureInfo{
		Type:          asType,
		Flags:         gpu.BuildPreferFastTrace,
		Geometries:    geometries,
		InstanceCount: instanceCount,
	}

	as, err := u.allocator.CreateAccelerationStructure(info)
	if err != nil {
		return nil, fmt.Errorf("transfer: allocating %s acceleration structure: %w", asType, err)
	}

	scratch, err := u.allocator.CreateBuffer(gpu.BufferInfo{
		Size:     as.ScratchSize(),
		Usage:    gpu.BufferUsageRayTracing,
		Location: gpu.DeviceLocal,
	})
	if err != nil {
		as.Destroy()
		return nil, fmt.Errorf("transfer: allocating %d byte scratch buffer: %w", as.ScratchSize(), err)
	}
	defer scratch.Destroy()

	err = u.submit(func(cmd gpu.CommandBuffer) {
		cmd.BuildAccelerationStructure(info, instances, as, scratch)
		cmd.AccelerationStructureBarrier()
	})
	if err != nil {
		as.Destroy()
		return nil, err
	}

	return as, nil
}
