package types

import "testing"

func TestMatrixInverse(t *testing.T) {
	m := Translate4(Vec3{1, 2, 3}).Mul4(Scale4(Vec3{2, 2, 2})).Mul4(QuatFromEuler(30, 45, 10).Mat4())

	got := m.Mul4(m.Inv())
	if !got.ApproxEqual(Ident4(), 1e-4) {
		t.Fatalf("expected m * inv(m) to be the identity; got %v", got)
	}

	if inv := (Mat4{}).Inv(); inv != (Mat4{}) {
		t.Fatalf("expected inverse of a singular matrix to be zero; got %v", inv)
	}
}

func TestTransformPoint(t *testing.T) {
	m := Translate4(Vec3{1, 2, 3}).Mul4(Scale4(Vec3{2, 3, 4}))

	got := m.TransformPoint(Vec3{1, 1, 1})
	exp := Vec3{3, 5, 7}
	if got != exp {
		t.Fatalf("expected transformed point to be %v; got %v", exp, got)
	}
}

func TestRowMajor3x4(t *testing.T) {
	m := Translate4(Vec3{5, 6, 7})

	exp := [12]float32{
		1, 0, 0, 5,
		0, 1, 0, 6,
		0, 0, 1, 7,
	}
	if got := m.RowMajor3x4(); got != exp {
		t.Fatalf("expected row-major 3x4 matrix %v; got %v", exp, got)
	}
}

func TestAABBTransform(t *testing.T) {
	box := AABB{Min: Vec3{-1, -1, -1}, Max: Vec3{1, 1, 1}}

	got := box.Transform(Translate4(Vec3{10, 0, 0}).Mul4(Scale4(Vec3{2, 1, 1})))
	exp := AABB{Min: Vec3{8, -1, -1}, Max: Vec3{12, 1, 1}}
	if got != exp {
		t.Fatalf("expected transformed box %v; got %v", exp, got)
	}

	if !EmptyAABB().Transform(Ident4()).IsEmpty() {
		t.Fatal("expected transformed empty box to remain empty")
	}
}

func TestAABBUnion(t *testing.T) {
	box := EmptyAABB().Extend(Vec3{1, 2, 3}).Union(AABB{Min: Vec3{-1, 0, 0}, Max: Vec3{0, 0, 0}})

	exp := AABB{Min: Vec3{-1, 0, 0}, Max: Vec3{1, 2, 3}}
	if box != exp {
		t.Fatalf("expected union %v; got %v", exp, box)
	}

	if area := box.SurfaceArea(); area != 2*(2*2+2*3+2*3) {
		t.Fatalf("expected surface area 32; got %f", area)
	}
}
