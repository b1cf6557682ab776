package gpu

// AccelerationStructureType selects between bottom-level (triangles) and
// top-level (instances) structures.
type AccelerationStructureType uint8

const (
	BottomLevel AccelerationStructureType = iota
	TopLevel
)

func (t AccelerationStructureType) String() string {
	if t == TopLevel {
		return "top-level"
	}
	return "bottom-level"
}

// BuildFlags are acceleration structure build hints.
type BuildFlags uint32

const (
	BuildPreferFastTrace BuildFlags = 1 << iota
	BuildPreferFastBuild
)

// GeometryFlags describe a geometry inside a bottom-level structure.
type GeometryFlags uint32

const (
	GeometryOpaque GeometryFlags = 1 << iota
)

// InstanceFlags are stored in the top 8 bits of an instance record.
type InstanceFlags uint8

const (
	InstanceTriangleCullDisable InstanceFlags = 1 << iota
	InstanceTriangleFrontCounterClockwise
	InstanceForceOpaque
	InstanceForceNoOpaque
)

// Triangles describes an indexed or non-indexed triangle list living in
// device buffers.
type Triangles struct {
	VertexData   Buffer
	VertexOffset uint64
	VertexCount  uint32
	VertexStride uint64
	VertexFormat Format

	// IndexData is nil when IndexType is IndexTypeNone.
	IndexData   Buffer
	IndexOffset uint64
	IndexCount  uint32
	IndexType   IndexType
}

// Geometry is a single geometry entry of a bottom-level structure.
type Geometry struct {
	Triangles Triangles
	Flags     GeometryFlags
}

// AccelerationStructureInfo describes the contents of an acceleration structure.
type AccelerationStructureInfo struct {
	Type  AccelerationStructureType
	Flags BuildFlags

	// Geometries is only used by bottom-level structures.
	Geometries []Geometry

	// InstanceCount is only used by top-level structures.
	InstanceCount uint32
}

// InstanceSize is the size in bytes of an encoded Instance.
const InstanceSize = 64

// Instance is the device layout of a top-level acceleration structure
// instance record: a row-major 3x4 transform, a 24-bit instance id with an
// 8-bit visibility mask, a 24-bit hit group offset with 8 bits of
// InstanceFlags and the handle of the referenced bottom-level structure.
type Instance struct {
	Transform      [12]float32
	IDAndMask      uint32
	OffsetAndFlags uint32
	Handle         uint64
}

// NewInstance packs an instance record. Ids and offsets are truncated to 24 bits.
func NewInstance(transform [12]float32, id uint32, mask uint8, offset uint32, flags InstanceFlags, handle uint64) Instance {
	return Instance{
		Transform:      transform,
		IDAndMask:      id&0xFFFFFF | uint32(mask)<<24,
		OffsetAndFlags: offset&0xFFFFFF | uint32(flags)<<24,
		Handle:         handle,
	}
}

func (i Instance) ID() uint32           { return i.IDAndMask & 0xFFFFFF }
func (i Instance) Mask() uint8          { return uint8(i.IDAndMask >> 24) }
func (i Instance) Offset() uint32       { return i.OffsetAndFlags & 0xFFFFFF }
func (i Instance) Flags() InstanceFlags { return InstanceFlags(i.OffsetAndFlags >> 24) }
