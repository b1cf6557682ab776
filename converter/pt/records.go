package pt

import (
	"fmt"
	"unsafe"

	"github.com/PrimozLavric/LogiPathTracer/bvh"
	"github.com/PrimozLavric/LogiPathTracer/types"
)

const (
	objectDataSize = int(unsafe.Sizeof(ObjectData{}))
	bvhNodeSize    = int(unsafe.Sizeof(BVHNode{}))
)

// Flags stored in ObjectData.Flags.
const (
	// The object's vertices carry texture coordinates.
	ObjectHasUV uint32 = 1 << iota
)

// ObjectData is the device record of one converted submesh. Its layout
// matches the std430 struct read by the tracer kernels.
type ObjectData struct {
	WorldMatrix    types.Mat4
	InvWorldMatrix types.Mat4

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

	// Index of the root of the submesh BVH in the mesh node array.
	BVHOffset uint32

	// Index of the first submesh vertex in the vertex array.
	VerticesOffset uint32

	Flags uint32
	_     [2]uint32
}

// VertexPNT is an object space vertex with texture coordinates.
type VertexPNT struct {
	Position types.Vec3
	_        float32
	Normal   types.Vec3
	_        float32
	UV       types.Vec2
	_        [2]float32
}

// VertexPN is an object space vertex without texture coordinates.
type VertexPN struct {
	Position types.Vec3
	_        float32
	Normal   types.Vec3
	_        float32
}

// BVHNode is the device representation of a bvh.Node. Internal nodes store
// their child indices and leaves store their first primitive and primitive
// count in Indices. Indices are local to the owning tree: mesh node children
// are offset by ObjectData.BVHOffset and mesh primitive k starts at vertex
// ObjectData.VerticesOffset + 3k.
type BVHNode struct {
	Min     types.Vec3
	_       float32
	Max     types.Vec3
	IsLeaf  uint32
	Indices [2]uint32
	_       [2]uint32
}

func newBVHNode(n bvh.Node) BVHNode {
	node := BVHNode{
		Min:     n.Bounds.Min,
		Max:     n.Bounds.Max,
		Indices: n.Indices,
	}
	if n.Leaf {
		node.IsLeaf = 1
	}
	return node
}

// Layout identifies the vertex layout of the vertex buffer. All vertices of a
// scene share the same layout.
type Layout uint8

const (
	LayoutPN Layout = iota
	LayoutPNT
)

// Stride returns the size of one vertex in bytes.
func (l Layout) Stride() int {
	if l == LayoutPNT {
		return 48
	}
	return 32
}

func (l Layout) String() string {
	switch l {
	case LayoutPN:
		return "position+normal"
	case LayoutPNT:
		return "position+normal+uv"
	}
	return fmt.Sprintf("Layout(%d)", uint8(l))
}
