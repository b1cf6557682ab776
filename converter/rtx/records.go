package rtx

import (
	"unsafe"

	"github.com/PrimozLavric/LogiPathTracer/gpu"
	"github.com/PrimozLavric/LogiPathTracer/types"
)

const (
	materialSize = int(unsafe.Sizeof(Material{}))
	vertexSize   = int(unsafe.Sizeof(Vertex{}))

	// Bottom-level geometry reads tightly packed positions.
	positionStride = uint64(unsafe.Sizeof(types.Vec3{}))
)

// Material is the device record of one bottom-level instance. The hit
// shaders read it by instance id.
type Material struct {
	BaseColorFactor types.Vec4
	EmissionFactor  types.Vec3

	MetallicFactor     float32
	RoughnessFactor    float32
	TransmissionFactor float32
	IOR                float32

	ColorTexture             uint32
	EmissionTexture          uint32
	MetallicRoughnessTexture uint32
	TransmissionTexture      uint32

	// Index of the first vertex of the instance in the vertex array.
	VerticesOffset uint32
}

// Vertex holds the shading attributes of one triangle corner. Positions live
// in the per-mesh vertex buffers referenced by the acceleration structures.
type Vertex struct {
	Normal types.Vec3
	_      float32
	UV     types.Vec2
	_      [2]float32
}

// Mesh holds the device resources of one converted submesh.
type Mesh struct {
	Name string

	Vertices gpu.Buffer
	Indices  gpu.Buffer
	Normals  gpu.Buffer

	IndexType     gpu.IndexType
	VertexCount   uint32
	IndexCount    uint32
	TriangleCount uint32

	// World matrix truncated to 3x4, row major.
	Transform [12]float32

	BottomLevel gpu.AccelerationStructure
}

func (m *Mesh) destroy() {
	for _, res := range []gpu.Resource{m.BottomLevel, m.Vertices, m.Indices, m.Normals} {
		if res != nil {
			res.Destroy()
		}
	}
}
