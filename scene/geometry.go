package scene

import (
	"encoding/binary"

	"github.com/PrimozLavric/LogiPathTracer/types"
)

// IndexBuffer holds little-endian triangle list indices. ElementSize is the
// byte width of each index and is either 2 or 4.
type IndexBuffer struct {
	Data        []byte
	ElementSize int
}

// NewIndexBuffer packs indices using 16-bit elements when every index fits,
// and 32-bit elements otherwise.
func NewIndexBuffer(indices []uint32) *IndexBuffer {
	for _, idx := range indices {
		if idx > 0xFFFF {
			return NewIndexBuffer32(indices)
		}
	}

	ib := &IndexBuffer{Data: make([]byte, 2*len(indices)), ElementSize: 2}
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(ib.Data[2*i:], uint16(idx))
	}
	return ib
}

// NewIndexBuffer32 packs indices using 32-bit elements.
func NewIndexBuffer32(indices []uint32) *IndexBuffer {
	ib := &IndexBuffer{Data: make([]byte, 4*len(indices)), ElementSize: 4}
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(ib.Data[4*i:], idx)
	}
	return ib
}

// Count returns the number of indices.
func (ib *IndexBuffer) Count() int {
	if ib == nil || ib.ElementSize == 0 {
		return 0
	}
	return len(ib.Data) / ib.ElementSize
}

// At returns the i-th index.
func (ib *IndexBuffer) At(i int) uint32 {
	if ib.ElementSize == 2 {
		return uint32(binary.LittleEndian.Uint16(ib.Data[2*i:]))
	}
	return binary.LittleEndian.Uint32(ib.Data[4*i:])
}

// Geometry stores the vertex channels of a triangle list.
type Geometry struct {
	Positions []types.Vec3
	Normals   []types.Vec3

	// UVs holds one coordinate set per texture channel.
	UVs [][]types.Vec2

	// Indices is nil for non-indexed geometry.
	Indices *IndexBuffer
}

// HasVertices reports whether the geometry defines vertex positions.
func (g *Geometry) HasVertices() bool {
	return len(g.Positions) != 0
}

// HasNormals reports whether every vertex has a normal.
func (g *Geometry) HasNormals() bool {
	return len(g.Positions) != 0 && len(g.Normals) == len(g.Positions)
}

// HasUVs reports whether every vertex has a coordinate in the given channel.
func (g *Geometry) HasUVs(channel int) bool {
	return channel < len(g.UVs) && len(g.Positions) != 0 && len(g.UVs[channel]) == len(g.Positions)
}

// HasIndices reports whether the geometry is indexed.
func (g *Geometry) HasIndices() bool {
	return g.Indices.Count() != 0
}

// TriangleCount returns the number of triangles.
func (g *Geometry) TriangleCount() int {
	if g.HasIndices() {
		return g.Indices.Count() / 3
	}
	return len(g.Positions) / 3
}

// Bounds returns the bounding box of all vertex positions.
func (g *Geometry) Bounds() types.AABB {
	bounds := types.EmptyAABB()
	for _, p := range g.Positions {
		bounds = bounds.Extend(p)
	}
	return bounds
}

// Triangles returns an accessor for triangle corner positions.
func (g *Geometry) Triangles() TriangleAccessor[types.Vec3] {
	return TriangleAccessor[types.Vec3]{data: g.Positions, indices: g.Indices}
}

// TriangleNormals returns an accessor for triangle corner normals.
func (g *Geometry) TriangleNormals() TriangleAccessor[types.Vec3] {
	return TriangleAccessor[types.Vec3]{data: g.Normals, indices: g.Indices}
}

// TriangleUVs returns an accessor for triangle corner coordinates of a UV channel.
func (g *Geometry) TriangleUVs(channel int) TriangleAccessor[types.Vec2] {
	var uvs []types.Vec2
	if channel < len(g.UVs) {
		uvs = g.UVs[channel]
	}
	return TriangleAccessor[types.Vec2]{data: uvs, indices: g.Indices}
}

// GenerateNormals replaces the geometry normals with area weighted vertex
// normals computed from the triangle faces.
func (g *Geometry) GenerateNormals() {
	normals := make([]types.Vec3, len(g.Positions))
	tris := g.Triangles()
	for i := 0; i < tris.Count(); i++ {
		ia, ib, ic := tris.Indices(i)
		p := tris.At(i)
		faceNormal := p[1].Sub(p[0]).Cross(p[2].Sub(p[0]))
		normals[ia] = normals[ia].Add(faceNormal)
		normals[ib] = normals[ib].Add(faceNormal)
		normals[ic] = normals[ic].Add(faceNormal)
	}
	for i := range normals {
		normals[i] = normals[i].Normalize()
	}
	g.Normals = normals
}

// TriangleAccessor reads per-corner data of a triangle list, resolving
// indices when the geometry is indexed.
type TriangleAccessor[T any] struct {
	data    []T
	indices *IndexBuffer
}

// Count returns the number of triangles.
func (a TriangleAccessor[T]) Count() int {
	if a.indices.Count() != 0 {
		return a.indices.Count() / 3
	}
	return len(a.data) / 3
}

// Indices returns the vertex indices of the corners of triangle i.
func (a TriangleAccessor[T]) Indices(i int) (uint32, uint32, uint32) {
	if a.indices.Count() != 0 {
		return a.indices.At(3 * i), a.indices.At(3*i + 1), a.indices.At(3*i + 2)
	}
	base := uint32(3 * i)
	return base, base + 1, base + 2
}

// At returns the corner values of triangle i.
func (a TriangleAccessor[T]) At(i int) [3]T {
	ia, ib, ic := a.Indices(i)
	return [3]T{a.data[ia], a.data[ib], a.data[ic]}
}
