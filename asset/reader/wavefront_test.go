package reader

import (
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/PrimozLavric/LogiPathTracer/asset"
	"github.com/PrimozLavric/LogiPathTracer/scene"
	"github.com/PrimozLavric/LogiPathTracer/types"
)

func TestFloat32Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 1 argument; got 0`
	_, err := parseFloat32([]string{"v"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	if _, err = parseFloat32([]string{"v", "not-a-float"}); err == nil {
		t.Fatal("expected to get a parse error")
	}

	v, err := parseFloat32([]string{"v", "3.14"})
	if err != nil {
		t.Fatal(err)
	}
	if v != 3.14 {
		t.Fatalf("expected parsed value to be 3.14; got %f", v)
	}
}

func TestVec3Parser(t *testing.T) {
	expError := `unsupported syntax for "v"; expected 3 arguments; got 1`
	_, err := parseVec3([]string{"v", "1"})
	if err == nil || err.Error() != expError {
		t.Fatalf("expected to get %s; got %v", expError, err)
	}

	v, err := parseVec3([]string{"v", "1", "-2", "3.5"})
	if err != nil {
		t.Fatal(err)
	}
	if exp := (types.Vec3{1, -2, 3.5}); v != exp {
		t.Fatalf("expected parsed value to be %v; got %v", exp, v)
	}
}

func TestSelectFaceCoordinate(t *testing.T) {
	specs := []struct {
		token     string
		listLen   int
		relOffset int
		exp       int
		expErr    bool
	}{
		{"1", 3, 0, 0, false},
		{"3", 3, 0, 2, false},
		{"-1", 3, 0, 2, false},
		{"-3", 3, 0, 0, false},
		{"1", 6, 3, 3, false},
		{"4", 3, 0, -1, true},
		{"-4", 3, 0, -1, true},
		{"0", 3, 0, -1, true},
		{"x", 3, 0, -1, true},
	}

	for i, spec := range specs {
		got, err := selectFaceCoordIndex(spec.token, spec.listLen, spec.relOffset)
		if spec.expErr {
			if err == nil {
				t.Errorf("[spec %d] expected an error for token %q", i, spec.token)
			}
			continue
		}
		if err != nil || got != spec.exp {
			t.Errorf("[spec %d] expected index %d; got %d (%v)", i, spec.exp, got, err)
		}
	}
}

func TestParseSingleFacedObject(t *testing.T) {
	payload := `
o testObj
v 0 0 0
v 1 0 0
v 0 1 0
vn 1 0 0
vt 0 0
vn 0 1 0
vt 0 1
vn 0 1 0
vt 1 0
vn 0 0 1
# Comment
f 1/1/1 2/2/2 -1/-1/-1
`
	sc := mustRead(t, payload)

	objects := sc.Children()
	if len(objects) != 1 || objects[0].Name != "testObj" {
		t.Fatalf("expected a single testObj object; got %d objects", len(objects))
	}
	if objects[0].Transform != nil {
		t.Fatal("expected default instance to have no transform")
	}

	mesh := objects[0].Mesh
	if len(mesh.SubMeshes) != 1 {
		t.Fatalf("expected 1 submesh; got %d", len(mesh.SubMeshes))
	}
	sub := mesh.SubMeshes[0]
	if sub.Material.Name() != defaultMaterialName || sub.Material.Kind() != scene.MetallicRoughness {
		t.Fatalf("expected default metallic-roughness material; got %q (%s)", sub.Material.Name(), sub.Material.Kind())
	}

	geom := sub.Geometry
	expPoints := []types.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}
	expNormals := []types.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	expUVs := []types.Vec2{{0, 0}, {0, 1}, {1, 0}}
	if !reflect.DeepEqual(geom.Positions, expPoints) {
		t.Fatalf("expected positions %v; got %v", expPoints, geom.Positions)
	}
	if !reflect.DeepEqual(geom.Normals, expNormals) {
		t.Fatalf("expected normals %v; got %v", expNormals, geom.Normals)
	}
	if !geom.HasUVs(0) || !reflect.DeepEqual(geom.UVs[0], expUVs) {
		t.Fatalf("expected uvs %v; got %v", expUVs, geom.UVs)
	}
	if geom.TriangleCount() != 1 || geom.Indices.ElementSize != 2 {
		t.Fatalf("expected 1 triangle with 16-bit indices; got %d (%d bytes)", geom.TriangleCount(), geom.Indices.ElementSize)
	}
}

func TestQuadWithoutNormals(t *testing.T) {
	payload := `
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
f 1 2 3 4
`
	sc := mustRead(t, payload)

	objects := sc.Children()
	if len(objects) != 1 || objects[0].Name != "default" {
		t.Fatalf("expected faces without an object to land in the default mesh; got %d objects", len(objects))
	}

	geom := objects[0].Mesh.SubMeshes[0].Geometry
	if geom.TriangleCount() != 2 {
		t.Fatalf("expected quad to be split in 2 triangles; got %d", geom.TriangleCount())
	}
	if geom.HasUVs(0) {
		t.Fatal("expected geometry without uv channel")
	}

	exp := []uint32{0, 1, 2, 0, 2, 3}
	for i, idx := range exp {
		if got := geom.Indices.At(i); got != idx {
			t.Fatalf("expected index %d to be %d; got %d", i, idx, got)
		}
	}
	for i, n := range geom.Normals {
		if !n.ApproxEqual(types.Vec3{0, 0, 1}, 1e-6) {
			t.Fatalf("expected generated normal %d to face +Z; got %v", i, n)
		}
	}
}

func TestSharedCornersAreDeduplicated(t *testing.T) {
	payload := `
o strip
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vn 0 0 1
f 1//1 2//1 3//1
f 1//1 3//1 4//1
`
	geom := mustRead(t, payload).Children()[0].Mesh.SubMeshes[0].Geometry
	if len(geom.Positions) != 4 {
		t.Fatalf("expected shared corners to be stored once; got %d vertices", len(geom.Positions))
	}
}

func TestSubMeshesPerMaterial(t *testing.T) {
	files := map[string]string{
		"scene.obj": `
mtllib scene.mtl
o box
v 0 0 0
v 1 0 0
v 0 1 0
usemtl red
f 1 2 3
usemtl blue
f 1 3 2
usemtl red
f 2 1 3
`,
		"scene.mtl": `
newmtl red
Kd 1 0 0
newmtl blue
Kd 0 0 1
`,
	}
	sc, _ := mustLoad(t, files)

	mesh := sc.Children()[0].Mesh
	if len(mesh.SubMeshes) != 2 {
		t.Fatalf("expected a submesh per material; got %d", len(mesh.SubMeshes))
	}
	if mesh.SubMeshes[0].Material.Name() != "red" || mesh.SubMeshes[0].Geometry.TriangleCount() != 2 {
		t.Fatalf("expected first submesh to hold both red faces")
	}
	if mesh.SubMeshes[1].Material.Name() != "blue" {
		t.Fatalf("expected second submesh to use blue; got %q", mesh.SubMeshes[1].Material.Name())
	}
}

func TestCameraDirectives(t *testing.T) {
	payload := `
camera_fov 60
camera_eye 0 0 5
camera_look 0 0 0
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
`
	sc := mustRead(t, payload)

	cam := sc.Children()[0]
	if cam.Camera == nil {
		t.Fatal("expected first scene object to be the camera")
	}
	if cam.Camera.FOV != 60 {
		t.Fatalf("expected camera fov 60; got %f", cam.Camera.FOV)
	}
	exp := scene.LookAt(types.Vec3{0, 0, 5}, types.Vec3{}, types.Vec3{0, 1, 0})
	if !scene.WorldMatrix(cam).ApproxEqual(exp, 1e-6) {
		t.Fatalf("expected camera world matrix %v; got %v", exp, scene.WorldMatrix(cam))
	}
}

func TestMeshInstancing(t *testing.T) {
	payload := `
o tri
v 0 0 0
v 1 0 0
v 0 1 0
f 1 2 3
instance tri 1 2 3 0 0 0 1 1 1
instance tri -1 0 0 0 90 0 2 2 2
`
	sc := mustRead(t, payload)

	objects := sc.Children()
	if len(objects) != 2 {
		t.Fatalf("expected 2 instances; got %d objects", len(objects))
	}
	if objects[0].Mesh != objects[1].Mesh {
		t.Fatal("expected instances to share the mesh")
	}

	p := scene.WorldMatrix(objects[0]).TransformPoint(types.Vec3{})
	if !p.ApproxEqual(types.Vec3{1, 2, 3}, 1e-6) {
		t.Fatalf("expected first instance origin at (1, 2, 3); got %v", p)
	}

	// Scaled by 2, rotated 90 degrees around Y then translated.
	p = scene.WorldMatrix(objects[1]).TransformPoint(types.Vec3{1, 0, 0})
	if !p.ApproxEqual(types.Vec3{-1, 0, -2}, 1e-5) {
		t.Fatalf("expected transformed point (-1, 0, -2); got %v", p)
	}
}

func TestUnknownInstanceMesh(t *testing.T) {
	_, err := newWavefrontReader().Read(asset.NewResourceFromStream("embedded", strings.NewReader("instance nope 0 0 0 0 0 0 1 1 1")))

	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.Line != 1 {
		t.Fatalf("expected a parse error on line 1; got %v", err)
	}
	if !strings.Contains(err.Error(), `unknown mesh with name "nope"`) {
		t.Fatalf("expected unknown mesh error; got %v", err)
	}
}

func TestMaterialLoaderErrors(t *testing.T) {
	specs := []struct {
		payload  string
		expError string
	}{
		{`Kd 1.0 1.0 1.0`, `[embedded: 1] error: got "Kd" without a "newmtl"`},
		{"newmtl foo\nKd 1.0", `[embedded: 2] error: unsupported syntax for "Kd"; expected 3 arguments; got 1`},
		{"newmtl foo\nNi", `[embedded: 2] error: unsupported syntax for "Ni"; expected 1 argument; got 0`},
		{"newmtl foo\nnewmtl foo", `[embedded: 2] error: material "foo" already defined`},
		{"newmtl foo\ninclude bar", `[embedded: 2] error: could not include unknown material "bar"`},
	}

	for i, spec := range specs {
		err := newWavefrontReader().parseMaterials(asset.NewResourceFromStream("embedded", strings.NewReader(spec.payload)))
		if err == nil || err.Error() != spec.expError {
			t.Errorf("[spec %d] expected error %q; got %v", i, spec.expError, err)
		}
	}
}

func TestMaterialMapping(t *testing.T) {
	files := map[string]string{
		"scene.obj": `
mtllib scene.mtl
v 0 0 0
v 1 0 0
v 0 1 0
o glass
usemtl glass
f 1 2 3
o lamp
usemtl lamp
f 1 2 3
o flat
usemtl flat
f 1 2 3
o copy
usemtl copy
f 1 2 3
`,
		"scene.mtl": `
newmtl glass
Kd 0.9 0.9 1
d 0.5
Tf 0.2 0.8 0.4
Ni 1.33
Pm 0.25
Pr 0.1

newmtl lamp
Ke 1 1 0.5
KeScaler 4

newmtl flat
illum 0
Kd 0 1 0

newmtl copy
include glass
`,
	}
	sc, _ := mustLoad(t, files)

	materials := make(map[string]scene.Material)
	for _, obj := range sc.Children() {
		materials[obj.Name] = obj.Mesh.SubMeshes[0].Material
	}

	glass, ok := materials["glass"].(*scene.MetallicRoughnessMaterial)
	if !ok {
		t.Fatalf("expected glass to be metallic-roughness; got %T", materials["glass"])
	}
	if glass.BaseColorFactor != (types.Vec4{0.9, 0.9, 1, 0.5}) {
		t.Fatalf("expected base color with dissolve alpha; got %v", glass.BaseColorFactor)
	}
	if glass.TransmissionFactor != 0.8 || glass.IOR != 1.33 {
		t.Fatalf("expected transmission 0.8 and IOR 1.33; got %f and %f", glass.TransmissionFactor, glass.IOR)
	}
	if glass.MetallicFactor != 0.25 || glass.RoughnessFactor != 0.1 {
		t.Fatalf("expected metallic 0.25 and roughness 0.1; got %f and %f", glass.MetallicFactor, glass.RoughnessFactor)
	}

	lamp := materials["lamp"].(*scene.MetallicRoughnessMaterial)
	if lamp.EmissiveFactor != (types.Vec3{4, 4, 2}) {
		t.Fatalf("expected scaled emission; got %v", lamp.EmissiveFactor)
	}
	if lamp.IOR != 1.5 {
		t.Fatalf("expected default IOR when Ni is missing; got %f", lamp.IOR)
	}

	flat, ok := materials["flat"].(*scene.UnlitMaterial)
	if !ok {
		t.Fatalf("expected illum 0 to produce an unlit material; got %T", materials["flat"])
	}
	if flat.Color != (types.Vec4{0, 1, 0, 1}) {
		t.Fatalf("expected unlit color; got %v", flat.Color)
	}

	cp := materials["copy"].(*scene.MetallicRoughnessMaterial)
	if cp.Name() != "copy" || cp.IOR != 1.33 {
		t.Fatalf("expected included material to keep its name and copy IOR; got %q, %f", cp.Name(), cp.IOR)
	}
}

func TestTexturesAreCachedPerRead(t *testing.T) {
	files := map[string]string{
		"scene.obj": `
mtllib materials/scene.mtl
v 0 0 0
v 1 0 0
v 0 1 0
o a
usemtl a
f 1 2 3
o b
usemtl b
f 1 2 3
`,
		"materials/scene.mtl": `
newmtl a
map_Kd ../textures/wood.png
map_Ke ../textures/wood.png
newmtl b
map_Kd ../textures/wood.png
map_Tf missing.png
`,
	}
	dir := writeFiles(t, files)
	writePNG(t, filepath.Join(dir, "textures", "wood.png"))

	sc, deps, err := Load(filepath.Join(dir, "scene.obj"))
	if err != nil {
		t.Fatal(err)
	}

	a := sc.Children()[0].Mesh.SubMeshes[0].Material.(*scene.MetallicRoughnessMaterial)
	b := sc.Children()[1].Mesh.SubMeshes[0].Material.(*scene.MetallicRoughnessMaterial)
	if a.BaseColorTexture == nil || a.BaseColorTexture != a.EmissiveTexture || a.BaseColorTexture != b.BaseColorTexture {
		t.Fatal("expected every reference to wood.png to share one texture")
	}
	if b.TransmissionTexture != nil {
		t.Fatal("expected missing texture to leave the slot empty")
	}
	if summary := sc.Summarize(); summary.Textures != 1 {
		t.Fatalf("expected scene to reference 1 distinct texture; got %d", summary.Textures)
	}

	expDeps := []string{
		filepath.Join(dir, "scene.obj"),
		filepath.Join(dir, "materials", "scene.mtl"),
		filepath.Join(dir, "textures", "wood.png"),
	}
	if !reflect.DeepEqual(deps, expDeps) {
		t.Fatalf("expected dependencies %v; got %v", expDeps, deps)
	}
}

func TestIncludeErrorStack(t *testing.T) {
	files := map[string]string{
		"scene.obj": "call part.obj\n",
		"part.obj":  "v 0 0 0\nusemtl nope\n",
	}
	dir := writeFiles(t, files)

	_, err := ReadScene(filepath.Join(dir, "scene.obj"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected a parse error; got %v", err)
	}
	if !strings.HasSuffix(parseErr.File, "part.obj") || parseErr.Line != 2 {
		t.Fatalf("expected error at part.obj:2; got %s:%d", parseErr.File, parseErr.Line)
	}
	if len(parseErr.Stack) != 1 || !strings.Contains(parseErr.Stack[0], "scene.obj:1 [call]") {
		t.Fatalf("expected include frame in error stack; got %v", parseErr.Stack)
	}
}

func TestUnsupportedSceneFormat(t *testing.T) {
	dir := writeFiles(t, map[string]string{"scene.fbx": ""})
	if _, err := ReadScene(filepath.Join(dir, "scene.fbx")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat; got %v", err)
	}
}

func mustRead(t *testing.T, payload string) *scene.Scene {
	t.Helper()
	sc, err := newWavefrontReader().Read(asset.NewResourceFromStream("embedded", strings.NewReader(payload)))
	if err != nil {
		t.Fatal(err)
	}
	return sc
}

func mustLoad(t *testing.T, files map[string]string) (*scene.Scene, []string) {
	t.Helper()
	dir := writeFiles(t, files)
	sc, deps, err := Load(filepath.Join(dir, "scene.obj"))
	if err != nil {
		t.Fatal(err)
	}
	return sc, deps
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, payload := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
}
