package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrimozLavric/LogiPathTracer/types"
)

func buildTree() *Scene {
	sc := NewScene("root")
	a := sc.Add(NewObject("a"))
	a.AddChild(NewObject("a1"))
	a.AddChild(NewObject("a2")).AddChild(NewObject("a2x"))
	sc.Add(NewObject("b"))
	return sc
}

func visitedNames(traverse func(func(*Object) bool), stopAt string) []string {
	var names []string
	traverse(func(obj *Object) bool {
		names = append(names, obj.Name)
		return obj.Name != stopAt
	})
	return names
}

func TestTraversalOrder(t *testing.T) {
	sc := buildTree()

	assert.Equal(t, []string{"root", "a", "a1", "a2", "a2x", "b"}, visitedNames(sc.TraverseDown, ""))
	assert.Equal(t, []string{"a", "a1", "a2", "a2x", "b"}, visitedNames(sc.TraverseDownExcl, ""))
	assert.Equal(t, []string{"a", "a1", "a2"}, visitedNames(sc.TraverseDownExcl, "a2"))
	assert.Len(t, sc.Children(), 2)
}

func TestReparenting(t *testing.T) {
	sc := buildTree()
	a := sc.Children()[0]
	b := sc.Children()[1]

	moved := a.Children()[0]
	b.AddChild(moved)

	assert.Len(t, a.Children(), 1)
	assert.Same(t, b, moved.Parent())
}

func TestWorldMatrixComposition(t *testing.T) {
	sc := NewScene("root")
	parent := sc.Add(NewObject("parent"))
	parent.SetTransform(types.Translate4(types.Vec3{1, 0, 0}))

	// Objects without a transform do not contribute.
	middle := parent.AddChild(NewObject("middle"))
	child := middle.AddChild(NewObject("child"))
	child.SetTransform(types.Scale4(types.Vec3{2, 2, 2}))

	got := WorldMatrix(child).TransformPoint(types.Vec3{1, 1, 1})
	assert.Equal(t, types.Vec3{3, 2, 2}, got)
	assert.Equal(t, types.Ident4(), WorldMatrix(middle))

	require.True(t, child.Transform.IsDirty())
	child.Transform.ClearDirty()
	assert.False(t, child.Transform.IsDirty())
	child.Transform.SetLocal(types.Ident4())
	assert.True(t, child.Transform.IsDirty())
}

func TestIndexBufferElementSize(t *testing.T) {
	small := NewIndexBuffer([]uint32{0, 1, 2, 65535})
	assert.Equal(t, 2, small.ElementSize)
	assert.Equal(t, 4, small.Count())
	assert.Equal(t, uint32(65535), small.At(3))

	large := NewIndexBuffer([]uint32{0, 1, 70000})
	assert.Equal(t, 4, large.ElementSize)
	assert.Equal(t, uint32(70000), large.At(2))

	var none *IndexBuffer
	assert.Equal(t, 0, none.Count())
}

func TestTriangleAccessors(t *testing.T) {
	quad := &Geometry{
		Positions: []types.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		UVs:       [][]types.Vec2{{{0, 0}, {1, 0}, {1, 1}, {0, 1}}},
		Indices:   NewIndexBuffer([]uint32{0, 1, 2, 0, 2, 3}),
	}

	require.True(t, quad.HasVertices())
	require.False(t, quad.HasNormals())
	require.True(t, quad.HasUVs(0))
	require.False(t, quad.HasUVs(1))
	require.Equal(t, 2, quad.TriangleCount())

	tris := quad.Triangles()
	require.Equal(t, 2, tris.Count())
	assert.Equal(t, [3]types.Vec3{{0, 0, 0}, {1, 1, 0}, {0, 1, 0}}, tris.At(1))
	assert.Equal(t, [3]types.Vec2{{0, 0}, {1, 1}, {0, 1}}, quad.TriangleUVs(0).At(1))

	quad.GenerateNormals()
	require.True(t, quad.HasNormals())
	for _, n := range quad.Normals {
		assert.Equal(t, types.Vec3{0, 0, 1}, n)
	}

	assert.Equal(t, types.AABB{Min: types.Vec3{0, 0, 0}, Max: types.Vec3{1, 1, 0}}, quad.Bounds())
}

func TestMaterialKinds(t *testing.T) {
	tex := &Texture{Name: "shared"}
	mr := NewMetallicRoughnessMaterial("mr")
	mr.BaseColorTexture = tex
	mr.EmissiveTexture = tex

	materials := []Material{mr, NewSpecularGlossinessMaterial("sg"), NewUnlitMaterial("unlit", types.Vec4{1, 0, 0, 1})}
	kinds := make([]MaterialKind, 0, len(materials))
	for _, m := range materials {
		kinds = append(kinds, m.Kind())
	}

	assert.Equal(t, []MaterialKind{MetallicRoughness, SpecularGlossiness, Unlit}, kinds)
	assert.Equal(t, []*Texture{tex, tex}, mr.Textures())
	assert.Equal(t, float32(1.5), mr.IOR)
}

func TestStats(t *testing.T) {
	img, err := NewImage(2, 2, Rgba8, make([]byte, 16))
	require.NoError(t, err)
	tex := &Texture{Name: "t", Image: img}

	mat := NewMetallicRoughnessMaterial("m")
	mat.BaseColorTexture = tex
	mat.EmissiveTexture = tex

	sc := NewScene("stats")
	obj := sc.Add(NewObject("mesh"))
	obj.Mesh = &Mesh{SubMeshes: []*SubMesh{{
		Geometry: &Geometry{Positions: make([]types.Vec3, 6)},
		Material: mat,
	}}}
	sc.Add(NewObject("camera")).Camera = NewPerspectiveCamera(45)

	sum := sc.Summarize()
	assert.Equal(t, 2, sum.Objects)
	assert.Equal(t, 1, sum.Cameras)
	assert.Equal(t, 2, sum.Triangles)
	assert.Equal(t, 1, sum.Materials[MetallicRoughness])
	assert.Equal(t, 1, sum.Textures)
	assert.Equal(t, 16, sum.TextureBytes)

	out := sc.Stats()
	assert.Contains(t, out, "Triangles")
	assert.Contains(t, out, "metallic-roughness")
}

func TestNewImageValidatesSize(t *testing.T) {
	_, err := NewImage(2, 2, Rgba8, make([]byte, 15))
	assert.Error(t, err)
}
