// Package bvh builds flat bounding volume hierarchies over triangles or boxes.
package bvh

import "github.com/PrimozLavric/LogiPathTracer/types"

// The BoundedVolume interface is implemented by all primitives that can
// be partitioned by the bvh builder.
type BoundedVolume interface {
	BBox() types.AABB
	Center() types.Vec3
}

// Node is a single entry of a flattened BVH.
//
// Internal nodes store the indices of their left and right children in
// Indices. Leaf nodes store the first entry and the number of entries they
// own in the tree's Primitives list.
type Node struct {
	Bounds  types.AABB
	Leaf    bool
	Indices [2]uint32
}

// Children returns the child node indices of an internal node.
func (n Node) Children() (left, right uint32) {
	return n.Indices[0], n.Indices[1]
}

// Range returns the primitive range of a leaf node.
func (n Node) Range() (first, count uint32) {
	return n.Indices[0], n.Indices[1]
}

// Tree is a flattened BVH. Nodes are stored depth first with the root at
// index 0. Primitives maps leaf order to the index of each primitive in the
// list passed to Build.
type Tree struct {
	Nodes      []Node
	Primitives []uint32
	Bounds     types.AABB
}

// LeafCount returns the number of leaf nodes.
func (t *Tree) LeafCount() int {
	leafs := 0
	for _, n := range t.Nodes {
		if n.Leaf {
			leafs++
		}
	}
	return leafs
}

type box struct {
	bounds types.AABB
}

func (b box) BBox() types.AABB   { return b.bounds }
func (b box) Center() types.Vec3 { return b.bounds.Center() }

type triangle struct {
	bounds types.AABB
	center types.Vec3
}

func (t triangle) BBox() types.AABB   { return t.bounds }
func (t triangle) Center() types.Vec3 { return t.center }

// Boxes wraps a list of bounding boxes so it can be passed to Build.
func Boxes(boxes []types.AABB) []BoundedVolume {
	out := make([]BoundedVolume, len(boxes))
	for i, b := range boxes {
		out[i] = box{bounds: b}
	}
	return out
}

// Triangles wraps a list of triangles so it can be passed to Build. Triangles
// are partitioned by their centroid.
func Triangles(tris [][3]types.Vec3) []BoundedVolume {
	out := make([]BoundedVolume, len(tris))
	for i, tri := range tris {
		out[i] = triangle{
			bounds: types.EmptyAABB().Extend(tri[0]).Extend(tri[1]).Extend(tri[2]),
			center: tri[0].Add(tri[1]).Add(tri[2]).Mul(1.0 / 3.0),
		}
	}
	return out
}
