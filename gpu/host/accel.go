package host

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
)

const (
	structureBaseSize     = 4096
	bytesPerPrimitive     = 128
	bytesPerInstance      = 128
	scratchBytesPerEntity = 64
)

// AccelerationStructure is an emulated acceleration structure. Building it
// validates its inputs and records what it references.
type AccelerationStructure struct {
	dev       *Device
	info      gpu.AccelerationStructureInfo
	handle    uint64
	size      uint64
	built     bool
	destroyed bool

	instances []gpu.Instance
}

// CreateAccelerationStructure allocates the memory of an emulated structure.
func (d *Device) CreateAccelerationStructure(info gpu.AccelerationStructureInfo) (gpu.AccelerationStructure, error) {
	size := structureBaseSize + entityCount(info)*bytesPerPrimitive
	if info.Type == gpu.TopLevel {
		size = structureBaseSize + uint64(info.InstanceCount)*bytesPerInstance
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.reserve(size); err != nil {
		return nil, err
	}
	d.nextHandle++
	as := &AccelerationStructure{
		dev:    d,
		info:   info,
		handle: d.nextHandle,
		size:   size,
	}
	d.structures[as.handle] = as
	d.stats.LiveStructures++
	d.stats.StructureAllocations++
	return as, nil
}

func entityCount(info gpu.AccelerationStructureInfo) uint64 {
	if info.Type == gpu.TopLevel {
		return uint64(info.InstanceCount)
	}
	var prims uint64
	for _, geom := range info.Geometries {
		if geom.Triangles.IndexType != gpu.IndexTypeNone {
			prims += uint64(geom.Triangles.IndexCount) / 3
		} else {
			prims += uint64(geom.Triangles.VertexCount) / 3
		}
	}
	return prims
}

func (as *AccelerationStructure) Info() gpu.AccelerationStructureInfo { return as.info }
func (as *AccelerationStructure) Handle() uint64                      { return as.handle }

// ScratchSize returns the emulated build scratch requirement.
func (as *AccelerationStructure) ScratchSize() uint64 {
	return structureBaseSize + entityCount(as.info)*scratchBytesPerEntity
}

// Built returns true once a build command for the structure has executed.
func (as *AccelerationStructure) Built() bool { return as.built }

// Instances returns the instance records a top-level structure was built from.
func (as *AccelerationStructure) Instances() []gpu.Instance {
	return append([]gpu.Instance(nil), as.instances...)
}

func (as *AccelerationStructure) Destroy() {
	as.dev.mu.Lock()
	defer as.dev.mu.Unlock()

	if as.destroyed {
		return
	}
	as.destroyed = true
	delete(as.dev.structures, as.handle)
	as.dev.release(as.size)
	as.dev.stats.LiveStructures--
}

func (as *AccelerationStructure) build(info gpu.AccelerationStructureInfo, instances, scratch *Buffer) error {
	switch {
	case as.destroyed || scratch.destroyed:
		return fmt.Errorf("build acceleration structure: %w", gpu.ErrInvalidHandle)
	case info.Type != as.info.Type:
		return fmt.Errorf("build acceleration structure: building %s structure into %s allocation", info.Type, as.info.Type)
	case scratch.info.Size < as.ScratchSize():
		return fmt.Errorf("build acceleration structure: scratch buffer holds %d bytes; need %d", scratch.info.Size, as.ScratchSize())
	}

	if info.Type == gpu.BottomLevel {
		for i, geom := range info.Geometries {
			if err := validateTriangles(geom.Triangles); err != nil {
				return fmt.Errorf("build acceleration structure: geometry %d: %w", i, err)
			}
		}
		as.built = true
		return nil
	}

	records, err := decodeInstances(instances, info.InstanceCount)
	if err != nil {
		return fmt.Errorf("build acceleration structure: %w", err)
	}
	for i, rec := range records {
		blas, ok := as.dev.Structure(rec.Handle)
		if !ok || blas.info.Type != gpu.BottomLevel || !blas.built {
			return fmt.Errorf("build acceleration structure: instance %d references unknown bottom-level handle %d", i, rec.Handle)
		}
	}
	as.instances = records
	as.built = true
	return nil
}

func validateTriangles(tris gpu.Triangles) error {
	vb, ok := tris.VertexData.(*Buffer)
	if !ok || vb.destroyed {
		return fmt.Errorf("vertex data: %w", gpu.ErrInvalidHandle)
	}
	if tris.VertexFormat != gpu.FormatR32G32B32Sfloat {
		return fmt.Errorf("vertex format %s: %w", tris.VertexFormat, gpu.ErrUnsupportedFormat)
	}
	if need := tris.VertexOffset + uint64(tris.VertexCount)*tris.VertexStride; need > vb.info.Size {
		return fmt.Errorf("vertex data needs %d bytes; buffer holds %d", need, vb.info.Size)
	}

	if tris.IndexType == gpu.IndexTypeNone {
		return nil
	}
	ib, ok := tris.IndexData.(*Buffer)
	if !ok || ib.destroyed {
		return fmt.Errorf("index data: %w", gpu.ErrInvalidHandle)
	}
	elemSize := uint64(2)
	if tris.IndexType == gpu.IndexTypeUint32 {
		elemSize = 4
	}
	if need := tris.IndexOffset + uint64(tris.IndexCount)*elemSize; need > ib.info.Size {
		return fmt.Errorf("index data needs %d bytes; buffer holds %d", need, ib.info.Size)
	}
	return nil
}

func decodeInstances(buf *Buffer, count uint32) ([]gpu.Instance, error) {
	if count == 0 {
		return nil, nil
	}
	if buf == nil || buf.destroyed {
		return nil, fmt.Errorf("instance buffer: %w", gpu.ErrInvalidHandle)
	}
	if need := uint64(count) * gpu.InstanceSize; need > buf.info.Size {
		return nil, fmt.Errorf("instance buffer needs %d bytes; buffer holds %d", need, buf.info.Size)
	}

	records := make([]gpu.Instance, count)
	if err := binary.Read(bytes.NewReader(buf.data), binary.LittleEndian, records); err != nil {
		return nil, fmt.Errorf("decoding instance records: %w", err)
	}
	return records, nil
}
