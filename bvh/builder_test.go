package bvh

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/PrimozLavric/LogiPathTracer/types"
)

func fourBoxes() []BoundedVolume {
	return Boxes([]types.AABB{
		{Min: types.Vec3{-2, 0, -2}, Max: types.Vec3{-1, 1, -1}},
		{Min: types.Vec3{1, 0, -2}, Max: types.Vec3{2, 1, -1}},
		{Min: types.Vec3{-2, 0, 1}, Max: types.Vec3{-1, 1, 2}},
		{Min: types.Vec3{1, 0, 1}, Max: types.Vec3{2, 1, 2}},
	})
}

func TestLeafPartitioning(t *testing.T) {
	itemList := fourBoxes()

	// Partition each item in a single leaf
	tree := Build(itemList, 1, SurfaceAreaHeuristic)
	if expCount := 7; len(tree.Nodes) != expCount {
		t.Fatalf("expected bvh tree to have %d nodes; got %d", expCount, len(tree.Nodes))
	}
	if expCount := 4; tree.LeafCount() != expCount {
		t.Fatalf("expected bvh tree to have %d leafs; got %d", expCount, tree.LeafCount())
	}
	assertTreeInvariants(t, tree, itemList)

	// Partition two items in a single leaf
	tree = Build(itemList, 2, SurfaceAreaHeuristic)
	if expCount := 3; len(tree.Nodes) != expCount {
		t.Fatalf("expected bvh tree to have %d nodes; got %d", expCount, len(tree.Nodes))
	}
	for _, node := range tree.Nodes {
		if _, count := node.Range(); node.Leaf && count != 2 {
			t.Fatalf("expected each leaf to hold 2 items; got %d", count)
		}
	}
	assertTreeInvariants(t, tree, itemList)
}

func TestEmptyAndSingleItem(t *testing.T) {
	tree := Build(nil, 1, SurfaceAreaHeuristic)
	if len(tree.Nodes) != 0 || len(tree.Primitives) != 0 {
		t.Fatalf("expected empty tree; got %d nodes and %d primitives", len(tree.Nodes), len(tree.Primitives))
	}
	if !tree.Bounds.IsEmpty() {
		t.Fatalf("expected empty tree bounds; got %v", tree.Bounds)
	}

	items := fourBoxes()[:1]
	tree = Build(items, 1, SurfaceAreaHeuristic)
	if len(tree.Nodes) != 1 || !tree.Nodes[0].Leaf {
		t.Fatalf("expected a single leaf node; got %+v", tree.Nodes)
	}
	if tree.Bounds != items[0].BBox() {
		t.Fatalf("expected tree bounds %v; got %v", items[0].BBox(), tree.Bounds)
	}
}

func TestTriangleBuildIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tris := make([][3]types.Vec3, 2000)
	for i := range tris {
		base := types.Vec3{rng.Float32() * 100, rng.Float32() * 100, rng.Float32() * 100}
		tris[i] = [3]types.Vec3{
			base,
			base.Add(types.Vec3{rng.Float32(), 0, 0}),
			base.Add(types.Vec3{0, rng.Float32(), rng.Float32()}),
		}
	}
	items := Triangles(tris)

	first := Build(items, 4, SurfaceAreaHeuristic)
	assertTreeInvariants(t, first, items)

	for i := 0; i < 3; i++ {
		again := Build(items, 4, SurfaceAreaHeuristic)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("expected repeated builds over the same input to produce identical trees")
		}
	}
}

func TestBuildFarFromOrigin(t *testing.T) {
	items := Boxes([]types.AABB{
		{Min: types.Vec3{20000, 20000, 20000}, Max: types.Vec3{20000.1, 20000.1, 20000.1}},
		{Min: types.Vec3{20000.3, 20000.3, 20000.3}, Max: types.Vec3{20000.4, 20000.4, 20000.4}},
	})

	done := make(chan *Tree, 1)
	go func() {
		done <- Build(items, 1, SurfaceAreaHeuristic)
	}()

	select {
	case tree := <-done:
		if expCount := 2; tree.LeafCount() != expCount {
			t.Fatalf("expected bvh tree to have %d leafs; got %d", expCount, tree.LeafCount())
		}
		assertTreeInvariants(t, tree, items)
	case <-time.After(5 * time.Second):
		t.Fatal("expected build over boxes near x=20000 to complete")
	}
}

func assertTreeInvariants(t *testing.T, tree *Tree, items []BoundedVolume) {
	t.Helper()

	if len(tree.Primitives) != len(items) {
		t.Fatalf("expected %d primitives in leaf order; got %d", len(items), len(tree.Primitives))
	}

	seen := make([]bool, len(items))
	for _, prim := range tree.Primitives {
		if seen[prim] {
			t.Fatalf("expected primitive %d to appear once in leaf order", prim)
		}
		seen[prim] = true
	}

	var visit func(index uint32, parent types.AABB)
	visit = func(index uint32, parent types.AABB) {
		node := tree.Nodes[index]
		if parent.Union(node.Bounds) != parent {
			t.Fatalf("expected node %d bounds %v to be enclosed by parent %v", index, node.Bounds, parent)
		}
		if node.Leaf {
			first, count := node.Range()
			for _, prim := range tree.Primitives[first : first+count] {
				if node.Bounds.Union(items[prim].BBox()) != node.Bounds {
					t.Fatalf("expected leaf %d to enclose primitive %d", index, prim)
				}
			}
			return
		}
		left, right := node.Children()
		if left <= index || right <= index {
			t.Fatalf("expected children of node %d to be stored after it; got %d, %d", index, left, right)
		}
		visit(left, node.Bounds)
		visit(right, node.Bounds)
	}
	visit(0, tree.Bounds)
}
