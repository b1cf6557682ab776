package reader

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PrimozLavric/LogiPathTracer/asset"
	"github.com/PrimozLavric/LogiPathTracer/asset/texture"
	"github.com/PrimozLavric/LogiPathTracer/log"
	"github.com/PrimozLavric/LogiPathTracer/scene"
	"github.com/PrimozLavric/LogiPathTracer/types"
)

const defaultMaterialName = "default"

type wavefrontMaterial struct {
	Name string

	// Diffuse/Albedo color and dissolve (opacity).
	Kd types.Vec3
	D  float32

	// Emissive color and scaler.
	Ke       types.Vec3
	KeScaler float32

	// Transmission filter and index of refraction.
	Tf types.Vec3
	Ni float32

	// PBR extension: metallic and roughness.
	Pm float32
	Pr float32

	// Illumination model; 0 selects an unlit material.
	Illum int

	// Textures for modulating above parameters.
	KdTex string
	KeTex string
	PrTex string
	TfTex string

	// Textures are resolved relative to the library that defined the material.
	lib *asset.Resource

	built scene.Material
}

func newWavefrontMaterial(name string, lib *asset.Resource) *wavefrontMaterial {
	return &wavefrontMaterial{
		Name:  name,
		Kd:    types.Vec3{0.7, 0.7, 0.7},
		D:     1,
		Pr:    1,
		Illum: 2,
		lib:   lib,
	}
}

// Identifies a face corner by its absolute coordinate indices; -1 marks a
// missing uv or normal.
type vertexKey struct {
	v, vt, vn int
}

type subMeshBuilder struct {
	material *wavefrontMaterial

	positions []types.Vec3
	normals   []types.Vec3
	uvs       []types.Vec2
	hasUVs    bool
	indices   []uint32

	lookup map[vertexKey]uint32
}

// addVertex returns the index of a corner. Corners with generated normals
// are never shared since their normal depends on the face.
func (b *subMeshBuilder) addVertex(key vertexKey, pos, normal types.Vec3, uv types.Vec2) uint32 {
	if key.vn >= 0 {
		if index, ok := b.lookup[key]; ok {
			return index
		}
	}

	index := uint32(len(b.positions))
	b.positions = append(b.positions, pos)
	b.normals = append(b.normals, normal)
	b.uvs = append(b.uvs, uv)
	if key.vt >= 0 {
		b.hasUVs = true
	}
	if key.vn >= 0 {
		b.lookup[key] = index
	}
	return index
}

type meshBuilder struct {
	name       string
	subMeshes  []*subMeshBuilder
	byMaterial map[*wavefrontMaterial]*subMeshBuilder
	mesh       *scene.Mesh
}

func newMeshBuilder(name string) *meshBuilder {
	return &meshBuilder{
		name:       name,
		byMaterial: make(map[*wavefrontMaterial]*subMeshBuilder),
	}
}

func (m *meshBuilder) subMesh(mat *wavefrontMaterial) *subMeshBuilder {
	if b, ok := m.byMaterial[mat]; ok {
		return b
	}
	b := &subMeshBuilder{material: mat, lookup: make(map[vertexKey]uint32)}
	m.byMaterial[mat] = b
	m.subMeshes = append(m.subMeshes, b)
	return b
}

func (m *meshBuilder) triangleCount() int {
	count := 0
	for _, b := range m.subMeshes {
		count += len(b.indices) / 3
	}
	return count
}

type meshInstance struct {
	mesh      *meshBuilder
	transform types.Mat4
}

type wavefrontCamera struct {
	defined bool
	fov     float32
	eye     types.Vec3
	look    types.Vec3
	up      types.Vec3
}

type wavefrontSceneReader struct {
	logger log.Logger

	meshes    []*meshBuilder
	instances []meshInstance
	camera    wavefrontCamera

	// Parsed materials by name and the currently selected one.
	materials   map[string]*wavefrontMaterial
	curMaterial *wavefrontMaterial

	// Decoded textures by resolved path.
	textures map[string]*scene.Texture

	// Vertices, normals and uv coords shared by all included files.
	vertexList []types.Vec3
	normalList []types.Vec3
	uvList     []types.Vec2

	// Local files read so far.
	files []string

	// An error stack that provides additional error information when
	// scene files include other files (models, mat libs e.t.c)
	errStack []string
}

func newWavefrontReader() *wavefrontSceneReader {
	return &wavefrontSceneReader{
		logger:    log.New("reader"),
		materials: make(map[string]*wavefrontMaterial),
		textures:  make(map[string]*scene.Texture),
		camera: wavefrontCamera{
			fov:  45,
			look: types.Vec3{0, 0, -1},
			up:   types.Vec3{0, 1, 0},
		},
	}
}

// Read parses a wavefront scene and assembles its scene graph.
func (r *wavefrontSceneReader) Read(sceneRes *asset.Resource) (*scene.Scene, error) {
	r.logger.Noticef(`parsing scene from "%s"`, sceneRes.Path())
	start := time.Now()

	if err := r.parse(sceneRes); err != nil {
		return nil, err
	}

	sc := r.assemble(sceneRes.Name())

	r.logger.Noticef("parsed scene in %d ms", time.Since(start).Milliseconds())
	return sc, nil
}

func (r *wavefrontSceneReader) track(res *asset.Resource) {
	if path, ok := res.LocalPath(); ok {
		r.files = append(r.files, path)
	}
}

func (r *wavefrontSceneReader) emitError(file string, line int, err error) error {
	return &ParseError{
		File:  file,
		Line:  line,
		Err:   err,
		Stack: append([]string(nil), r.errStack...),
	}
}

// Push a frame to the error stack.
func (r *wavefrontSceneReader) pushFrame(msg string) {
	r.errStack = append([]string{msg}, r.errStack...)
}

// Pop a frame from the error stack.
func (r *wavefrontSceneReader) popFrame() {
	r.errStack = r.errStack[1:]
}

// Select the default material for surfaces not using one, creating it on first use.
func (r *wavefrontSceneReader) defaultMaterial() *wavefrontMaterial {
	mat, exists := r.materials[defaultMaterialName]
	if !exists {
		mat = newWavefrontMaterial(defaultMaterialName, nil)
		r.materials[defaultMaterialName] = mat
	}
	return mat
}

// Parse wavefront object scene format.
func (r *wavefrontSceneReader) parse(res *asset.Resource) error {
	r.track(res)

	// An included obj file uses 1-based indices relative to its own
	// coordinates, so offsets into the shared lists are tracked per file.
	relVertexOffset := len(r.vertexList)
	relUvOffset := len(r.uvList)
	relNormalOffset := len(r.normalList)

	lineNum := 0
	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		var err error
		switch lineTokens[0] {
		case "call", "mtllib":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1))
			}
			if err = r.include(res, lineNum, lineTokens[0], lineTokens[1]); err != nil {
				return err
			}
		case "usemtl":
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, fmt.Errorf(`unsupported syntax for "usemtl"; expected 1 argument; got %d`, len(lineTokens)-1))
			}
			mat, exists := r.materials[lineTokens[1]]
			if !exists {
				return r.emitError(res.Path(), lineNum, fmt.Errorf(`undefined material with name "%s"`, lineTokens[1]))
			}
			r.curMaterial = mat
		case "v":
			var v types.Vec3
			if v, err = parseVec3(lineTokens); err == nil {
				r.vertexList = append(r.vertexList, v)
			}
		case "vn":
			var v types.Vec3
			if v, err = parseVec3(lineTokens); err == nil {
				r.normalList = append(r.normalList, v)
			}
		case "vt":
			var v types.Vec2
			if v, err = parseVec2(lineTokens); err == nil {
				r.uvList = append(r.uvList, v)
			}
		case "g", "o":
			if len(lineTokens) < 2 {
				return r.emitError(res.Path(), lineNum, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument for object name; got %d`, lineTokens[0], len(lineTokens)-1))
			}
			r.dropEmptyMesh()
			r.meshes = append(r.meshes, newMeshBuilder(lineTokens[1]))
		case "f":
			err = r.parseFace(lineTokens, relVertexOffset, relUvOffset, relNormalOffset)
		case "camera_fov":
			r.camera.fov, err = parseFloat32(lineTokens)
			r.camera.defined = true
		case "camera_eye":
			r.camera.eye, err = parseVec3(lineTokens)
			r.camera.defined = true
		case "camera_look":
			r.camera.look, err = parseVec3(lineTokens)
			r.camera.defined = true
		case "camera_up":
			r.camera.up, err = parseVec3(lineTokens)
			r.camera.defined = true
		case "instance":
			var inst meshInstance
			if inst, err = r.parseMeshInstance(lineTokens); err == nil {
				r.instances = append(r.instances, inst)
			}
		}

		if err != nil {
			return r.emitError(res.Path(), lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, err)
	}

	r.dropEmptyMesh()
	return nil
}

func (r *wavefrontSceneReader) include(parent *asset.Resource, lineNum int, directive, target string) error {
	r.pushFrame(fmt.Sprintf("referenced from %s:%d [%s]", parent.Path(), lineNum, directive))

	incRes, err := asset.NewResource(target, parent)
	if err != nil {
		return r.emitError(parent.Path(), lineNum, err)
	}
	defer incRes.Close()

	if directive == "call" {
		err = r.parse(incRes)
	} else {
		err = r.parseMaterials(incRes)
	}
	if err != nil {
		return err
	}

	r.popFrame()
	return nil
}

// Drop the last parsed mesh if it contains no faces.
func (r *wavefrontSceneReader) dropEmptyMesh() {
	last := len(r.meshes) - 1
	if last >= 0 && r.meshes[last].triangleCount() == 0 {
		r.logger.Warningf(`dropping mesh "%s" as it contains no polygons`, r.meshes[last].name)
		r.meshes = r.meshes[:last]
	}
}

// Parse mesh instance definition. Definitions use the following format:
// instance mesh_name tX tY tZ yaw pitch roll sX sY sZ
// where:
// - tX, tY, tZ       : translation vector
// - yaw, pitch, roll : rotation angles in degrees
// - sX, sY, sZ       : scale
func (r *wavefrontSceneReader) parseMeshInstance(lineTokens []string) (meshInstance, error) {
	if len(lineTokens) != 11 {
		return meshInstance{}, fmt.Errorf(`unsupported syntax for "instance"; expected 10 arguments: mesh_name tX tY tZ yaw pitch roll sX sY sZ; got %d`, len(lineTokens)-1)
	}

	var mesh *meshBuilder
	for _, m := range r.meshes {
		if m.name == lineTokens[1] {
			mesh = m
			break
		}
	}
	if mesh == nil {
		return meshInstance{}, fmt.Errorf(`unknown mesh with name "%s"`, lineTokens[1])
	}

	var args [9]float32
	for i := range args {
		v, err := strconv.ParseFloat(lineTokens[i+2], 32)
		if err != nil {
			return meshInstance{}, err
		}
		args[i] = float32(v)
	}
	translation := types.Vec3{args[0], args[1], args[2]}
	scale := types.Vec3{args[6], args[7], args[8]}

	toRad := float32(math.Pi / 180.0)
	yawQuat := types.QuatFromAxisAngle(types.Vec3{1, 0, 0}, args[3]*toRad)
	pitchQuat := types.QuatFromAxisAngle(types.Vec3{0, 1, 0}, args[4]*toRad)
	rollQuat := types.QuatFromAxisAngle(types.Vec3{0, 0, 1}, args[5]*toRad)
	rotMat := rollQuat.Mul(pitchQuat.Mul(yawQuat)).Normalize().Mat4()

	// M = T * R * S
	return meshInstance{
		mesh:      mesh,
		transform: types.Translate4(translation).Mul4(rotMat.Mul4(types.Scale4(scale))),
	}, nil
}

// Parse face definition. Each face definitions consists of 3 or 4 arguments,
// one for each vertex. Each one of the vertex arguments is comprised of
// 1, 2 or 3 args separated by a slash character. The following formats are
// supported:
// - vertexIndex
// - vertexIndex/uvIndex
// - vertexIndex//normalIndex
// - vertexIndex/uvIndex/normalIndex
//
// Indices start from 1 and may be negative to indicate
// an offset off the end of the vertex/uv list. Quads are split in two triangles.
func (r *wavefrontSceneReader) parseFace(lineTokens []string, relVertexOffset, relUvOffset, relNormalOffset int) error {
	if len(lineTokens) < 4 || len(lineTokens) > 5 {
		return fmt.Errorf(`unsupported syntax for "f"; expected 3 arguments for triangular face or 4 arguments for a quad face; got %d. Select the triangulation option in your exporter`, len(lineTokens)-1)
	}

	var (
		keys       [4]vertexKey
		vertices   [4]types.Vec3
		normals    [4]types.Vec3
		uvs        [4]types.Vec2
		expIndices int
		err        error
	)
	hasNormals := true
	for arg := 0; arg < len(lineTokens)-1; arg++ {
		vTokens := strings.Split(lineTokens[arg+1], "/")

		// The first arg defines the format for the following args
		if arg == 0 {
			expIndices = len(vTokens)
		} else if len(vTokens) != expIndices {
			return fmt.Errorf("expected each face argument to contain %d indices; arg %d contains %d indices", expIndices, arg, len(vTokens))
		}

		// Faces must at least define a vertex coord
		if vTokens[0] == "" {
			return fmt.Errorf("face argument %d does not include a vertex index", arg)
		}

		key := vertexKey{v: -1, vt: -1, vn: -1}
		if key.v, err = selectFaceCoordIndex(vTokens[0], len(r.vertexList), relVertexOffset); err != nil {
			return fmt.Errorf("could not parse vertex coord for face argument %d: %w", arg, err)
		}
		vertices[arg] = r.vertexList[key.v]

		if expIndices > 1 && vTokens[1] != "" {
			if key.vt, err = selectFaceCoordIndex(vTokens[1], len(r.uvList), relUvOffset); err != nil {
				return fmt.Errorf("could not parse tex coord for face argument %d: %w", arg, err)
			}
			uvs[arg] = r.uvList[key.vt]
		}

		if expIndices > 2 && vTokens[2] != "" {
			if key.vn, err = selectFaceCoordIndex(vTokens[2], len(r.normalList), relNormalOffset); err != nil {
				return fmt.Errorf("could not parse normal coord for face argument %d: %w", arg, err)
			}
			normals[arg] = r.normalList[key.vn]
		} else {
			hasNormals = false
		}
		keys[arg] = key
	}

	// If any corner lacks a normal the whole face uses its face normal.
	if !hasNormals {
		faceNormal := vertices[1].Sub(vertices[0]).Cross(vertices[2].Sub(vertices[0])).Normalize()
		for i := range normals {
			normals[i] = faceNormal
			keys[i].vn = -1
		}
	}

	if r.curMaterial == nil {
		r.curMaterial = r.defaultMaterial()
	}

	// If no object has been defined create a default one
	if len(r.meshes) == 0 {
		r.meshes = append(r.meshes, newMeshBuilder("default"))
	}
	sub := r.meshes[len(r.meshes)-1].subMesh(r.curMaterial)

	var corners [4]uint32
	for i := 0; i < len(lineTokens)-1; i++ {
		corners[i] = sub.addVertex(keys[i], vertices[i], normals[i], uvs[i])
	}
	sub.indices = append(sub.indices, corners[0], corners[1], corners[2])
	if len(lineTokens) == 5 {
		sub.indices = append(sub.indices, corners[0], corners[2], corners[3])
	}
	return nil
}

// Parse a wavefront material library.
func (r *wavefrontSceneReader) parseMaterials(res *asset.Resource) error {
	r.logger.Infof(`parsing material library "%s"`, res.Path())
	r.track(res)

	var curMaterial *wavefrontMaterial
	lineNum := 0
	scanner := bufio.NewScanner(res)
	for scanner.Scan() {
		lineNum++
		lineTokens := strings.Fields(scanner.Text())
		if len(lineTokens) == 0 || strings.HasPrefix(lineTokens[0], "#") {
			continue
		}

		if lineTokens[0] == "newmtl" {
			if len(lineTokens) != 2 {
				return r.emitError(res.Path(), lineNum, fmt.Errorf(`unsupported syntax for "newmtl"; expected 1 argument; got %d`, len(lineTokens)-1))
			}
			matName := lineTokens[1]
			if _, exists := r.materials[matName]; exists {
				return r.emitError(res.Path(), lineNum, fmt.Errorf(`material "%s" already defined`, matName))
			}
			curMaterial = newWavefrontMaterial(matName, res)
			r.materials[matName] = curMaterial
			continue
		}

		if curMaterial == nil {
			return r.emitError(res.Path(), lineNum, fmt.Errorf(`got "%s" without a "newmtl"`, lineTokens[0]))
		}
		if err := r.parseMaterialParam(curMaterial, lineTokens); err != nil {
			return r.emitError(res.Path(), lineNum, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return r.emitError(res.Path(), lineNum, err)
	}
	return nil
}

func (r *wavefrontSceneReader) parseMaterialParam(mat *wavefrontMaterial, lineTokens []string) error {
	var err error
	switch lineTokens[0] {
	case "include":
		if len(lineTokens) < 2 {
			return fmt.Errorf(`unsupported syntax for "include"; expected 1 argument; got %d`, len(lineTokens)-1)
		}
		base, exists := r.materials[lineTokens[1]]
		if !exists {
			return fmt.Errorf(`could not include unknown material "%s"`, lineTokens[1])
		}

		// Overwrite material but keep the original name
		name := mat.Name
		*mat = *base
		mat.Name = name
		mat.built = nil
	case "Kd":
		mat.Kd, err = parseVec3(lineTokens)
	case "Ke":
		mat.Ke, err = parseVec3(lineTokens)
	case "Tf":
		mat.Tf, err = parseVec3(lineTokens)
	case "d":
		mat.D, err = parseFloat32(lineTokens)
	case "Ni":
		mat.Ni, err = parseFloat32(lineTokens)
	case "Pm":
		mat.Pm, err = parseFloat32(lineTokens)
	case "Pr":
		mat.Pr, err = parseFloat32(lineTokens)
	case "KeScaler":
		mat.KeScaler, err = parseFloat32(lineTokens)
	case "illum":
		var v float32
		if v, err = parseFloat32(lineTokens); err == nil {
			mat.Illum = int(v)
		}
	case "map_Kd", "map_Ke", "map_Pr", "map_Tf":
		if len(lineTokens) < 2 {
			return fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
		}
		// Options such as -bm precede the file name.
		file := lineTokens[len(lineTokens)-1]
		switch lineTokens[0] {
		case "map_Kd":
			mat.KdTex = file
		case "map_Ke":
			mat.KeTex = file
		case "map_Pr":
			mat.PrTex = file
		case "map_Tf":
			mat.TfTex = file
		}
	default:
		r.logger.Debugf(`ignoring unsupported material parameter "%s"`, lineTokens[0])
	}
	return err
}

// assemble converts the parsed meshes, instances and camera into a scene graph.
func (r *wavefrontSceneReader) assemble(name string) *scene.Scene {
	sc := scene.NewScene(name)

	if r.camera.defined {
		cam := scene.NewObject("camera")
		cam.Camera = scene.NewPerspectiveCamera(r.camera.fov)
		cam.SetTransform(scene.LookAt(r.camera.eye, r.camera.look, r.camera.up))
		sc.Add(cam)
	}

	for _, mb := range r.meshes {
		mb.mesh = r.buildMesh(mb)
	}

	// Without instance directives every mesh is placed once at the origin.
	if len(r.instances) == 0 {
		for _, mb := range r.meshes {
			obj := scene.NewObject(mb.name)
			obj.Mesh = mb.mesh
			sc.Add(obj)
		}
		return sc
	}

	for i, inst := range r.instances {
		if inst.mesh.mesh == nil {
			r.logger.Warningf(`skipping instance of empty mesh "%s"`, inst.mesh.name)
			continue
		}
		obj := scene.NewObject(fmt.Sprintf("%s#%d", inst.mesh.name, i))
		obj.Mesh = inst.mesh.mesh
		obj.SetTransform(inst.transform)
		sc.Add(obj)
	}
	return sc
}

func (r *wavefrontSceneReader) buildMesh(mb *meshBuilder) *scene.Mesh {
	mesh := &scene.Mesh{Name: mb.name}
	for _, b := range mb.subMeshes {
		geom := &scene.Geometry{
			Positions: b.positions,
			Normals:   b.normals,
			Indices:   scene.NewIndexBuffer(b.indices),
		}
		if b.hasUVs {
			geom.UVs = [][]types.Vec2{b.uvs}
		}
		mesh.SubMeshes = append(mesh.SubMeshes, &scene.SubMesh{Geometry: geom, Material: r.buildMaterial(b.material)})
	}
	return mesh
}

// buildMaterial maps a wavefront material onto a scene material. Materials
// are built once so submeshes sharing a material share the scene object.
func (r *wavefrontSceneReader) buildMaterial(wf *wavefrontMaterial) scene.Material {
	if wf.built != nil {
		return wf.built
	}

	if wf.Illum == 0 {
		unlit := scene.NewUnlitMaterial(wf.Name, wf.Kd.Vec4(wf.D))
		unlit.ColorTexture = r.texture(wf, wf.KdTex)
		wf.built = unlit
		return unlit
	}

	mat := scene.NewMetallicRoughnessMaterial(wf.Name)
	mat.BaseColorFactor = wf.Kd.Vec4(wf.D)
	mat.BaseColorTexture = r.texture(wf, wf.KdTex)
	mat.EmissiveFactor = wf.Ke
	if wf.KeScaler != 0 {
		mat.EmissiveFactor = wf.Ke.Mul(wf.KeScaler)
	}
	mat.EmissiveTexture = r.texture(wf, wf.KeTex)
	mat.MetallicFactor = wf.Pm
	mat.RoughnessFactor = wf.Pr
	mat.MetallicRoughnessTexture = r.texture(wf, wf.PrTex)
	mat.TransmissionFactor = wf.Tf.MaxComponent()
	mat.TransmissionTexture = r.texture(wf, wf.TfTex)
	if wf.Ni != 0 {
		mat.IOR = wf.Ni
	}

	wf.built = mat
	return mat
}

// texture loads a texture referenced by a material. Textures are cached by
// resolved path so a file referenced twice yields the same texture. Missing
// or undecodable textures are logged and leave the slot empty.
func (r *wavefrontSceneReader) texture(wf *wavefrontMaterial, file string) *scene.Texture {
	if file == "" {
		return nil
	}

	res, err := asset.NewResource(file, wf.lib)
	if err != nil {
		r.logger.Warningf(`material "%s": skipping texture "%s": %v`, wf.Name, file, err)
		return nil
	}
	defer res.Close()

	if tex, ok := r.textures[res.Path()]; ok {
		return tex
	}
	r.track(res)

	tex, err := texture.Load(res)
	if err != nil {
		r.logger.Warningf(`material "%s": skipping texture "%s": %v`, wf.Name, file, err)
		return nil
	}
	r.textures[res.Path()] = tex
	return tex
}

var errIndexOutOfBounds = errors.New("index out of bounds")

// Given an index for a face coord type (vertex, normal, tex) calculate the
// proper offset into the coord list. Wavefront format can also use negative
// indices to reference elements from the end of the coord list.
func selectFaceCoordIndex(indexToken string, coordListLen int, relOffset int) (int, error) {
	index, err := strconv.ParseInt(indexToken, 10, 32)
	if err != nil {
		return -1, err
	}

	var vOffset int
	if index < 0 {
		vOffset = coordListLen + int(index)
	} else {
		vOffset = relOffset + int(index-1)
	}
	if vOffset < 0 || vOffset >= coordListLen {
		return -1, errIndexOutOfBounds
	}
	return vOffset, nil
}

// Parse a float scalar value.
func parseFloat32(lineTokens []string) (float32, error) {
	if len(lineTokens) < 2 {
		return 0, fmt.Errorf(`unsupported syntax for "%s"; expected 1 argument; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	val, err := strconv.ParseFloat(lineTokens[1], 32)
	if err != nil {
		return 0, err
	}
	return float32(val), nil
}

// Parse a Vec3 row.
func parseVec3(lineTokens []string) (types.Vec3, error) {
	if len(lineTokens) < 4 {
		return types.Vec3{}, fmt.Errorf(`unsupported syntax for "%s"; expected 3 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec3{}
	for tokIdx := 1; tokIdx <= 3; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}

// Parse a Vec2 row.
func parseVec2(lineTokens []string) (types.Vec2, error) {
	if len(lineTokens) < 3 {
		return types.Vec2{}, fmt.Errorf(`unsupported syntax for "%s"; expected 2 arguments; got %d`, lineTokens[0], len(lineTokens)-1)
	}

	v := types.Vec2{}
	for tokIdx := 1; tokIdx <= 2; tokIdx++ {
		coord, err := strconv.ParseFloat(lineTokens[tokIdx], 32)
		if err != nil {
			return v, err
		}
		v[tokIdx-1] = float32(coord)
	}
	return v, nil
}
