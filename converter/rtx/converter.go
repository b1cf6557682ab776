// Package rtx converts scene graphs into hardware ray tracing resources: one
// bottom-level acceleration structure per submesh, a top-level structure
// instancing them and the material and vertex attribute arrays read by the
// hit shaders.
package rtx

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/PrimozLavric/LogiPathTracer/arena"
	"github.com/PrimozLavric/LogiPathTracer/converter"
	"github.com/PrimozLavric/LogiPathTracer/gpu"
	"github.com/PrimozLavric/LogiPathTracer/log"
	"github.com/PrimozLavric/LogiPathTracer/scene"
	"github.com/PrimozLavric/LogiPathTracer/transfer"
	"github.com/PrimozLavric/LogiPathTracer/types"
)

// Every instance is visible to every ray.
const instanceMask = 0xFF

// Converter is the hardware tracer scene converter.
type Converter struct {
	logger   log.Logger
	uploader *transfer.Uploader
	opts     converter.Options

	state   converter.State
	cameras []*scene.Object

	textures  *transfer.TextureRegistry
	meshes    []*Mesh
	materials *arena.Arena[Material]
	vertices  *arena.Arena[Vertex]
	instances []gpu.Instance

	topLevel        gpu.AccelerationStructure
	materialsBuffer gpu.Buffer
	vertexBuffer    gpu.Buffer

	skipped  int
	loadTime time.Duration
}

var _ converter.Converter = (*Converter)(nil)

// New creates a converter that uploads and builds through u.
func New(u *transfer.Uploader, opts converter.Options) *Converter {
	return &Converter{
		logger:    log.New("converter/rtx"),
		uploader:  u,
		opts:      opts.WithDefaults(),
		textures:  transfer.NewTextureRegistry(),
		materials: arena.New[Material](0),
		vertices:  arena.New[Vertex](0),
	}
}

// LoadScene converts sc into acceleration structures and attribute buffers,
// replacing the previous scene. A scene without cameras leaves the converter
// Ready but empty.
func (c *Converter) LoadScene(sc *scene.Scene) error {
	c.reset()
	c.state = converter.Loading

	start := time.Now()
	c.logger.Noticef("converting scene %q", sc.Name)

	if err := c.load(sc); err != nil {
		c.reset()
		c.state = converter.Failed
		return err
	}

	c.loadTime = time.Since(start)
	c.state = converter.Ready
	c.logger.Noticef(
		"converted scene %q in %d ms (%d bottom-level structures, %d vertices, %d textures, %d skipped submeshes)",
		sc.Name, c.loadTime.Milliseconds(), len(c.meshes), c.vertices.Len(), c.textures.Len(), c.skipped,
	)
	return nil
}

func (c *Converter) load(sc *scene.Scene) error {
	var err error
	sc.TraverseDownExcl(func(obj *scene.Object) bool {
		if obj.Camera != nil {
			c.cameras = append(c.cameras, obj)
		}
		if obj.Mesh == nil {
			return true
		}

		world := scene.WorldMatrix(obj)
		for index, sub := range obj.Mesh.SubMeshes {
			if err = c.convertSubMesh(obj.Name, sub, world); err != nil {
				if errors.Is(err, converter.ErrUnsupportedMaterial) || errors.Is(err, converter.ErrMissingGeometry) {
					c.logger.Warningf("%q: skipping submesh %d: %v", obj.Name, index, err)
					c.skipped++
					err = nil
					continue
				}
				err = fmt.Errorf("rtx: object %q submesh %d: %w", obj.Name, index, err)
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}

	if len(c.cameras) == 0 {
		c.logger.Warning("the scene defines no cameras; nothing will be rendered")
		c.reset()
		return nil
	}

	if err = c.buildBottomLevel(); err != nil {
		return err
	}
	if err = c.buildTopLevel(); err != nil {
		return err
	}

	if c.materialsBuffer, err = transfer.CopySlice(c.uploader, c.materials.Items(), gpu.BufferUsageStorage); err != nil {
		return fmt.Errorf("rtx: uploading materials: %w", err)
	}
	if c.vertexBuffer, err = transfer.CopySlice(c.uploader, c.vertices.Items(), gpu.BufferUsageStorage); err != nil {
		return fmt.Errorf("rtx: uploading vertices: %w", err)
	}
	return nil
}

// Upload the buffers of one submesh and record its material and shading
// attributes. The acceleration structure is built once every submesh has
// been uploaded.
func (c *Converter) convertSubMesh(name string, sub *scene.SubMesh, world types.Mat4) error {
	mat, err := converter.ResolveMaterial(sub.Material)
	if err != nil {
		return err
	}
	if err = converter.ValidateGeometry(sub); err != nil {
		return err
	}

	tex, err := converter.UploadTextures(c.uploader, c.textures, mat, c.opts.MaxAnisotropy)
	if err != nil {
		return err
	}

	geom := sub.Geometry
	mesh := &Mesh{
		Name:          name,
		VertexCount:   uint32(len(geom.Positions)),
		TriangleCount: uint32(geom.TriangleCount()),
		Transform:     world.RowMajor3x4(),
	}
	// Track the mesh right away so a failed upload releases what was
	// already allocated.
	c.meshes = append(c.meshes, mesh)

	if mesh.Vertices, err = transfer.CopySlice(c.uploader, geom.Positions, gpu.BufferUsageVertex|gpu.BufferUsageStorage|gpu.BufferUsageRayTracing); err != nil {
		return fmt.Errorf("uploading vertex buffer: %w", err)
	}
	if geom.HasIndices() {
		mesh.IndexType = gpu.IndexTypeForSize(geom.Indices.ElementSize)
		mesh.IndexCount = uint32(geom.Indices.Count())
		if mesh.Indices, err = c.uploader.CopyToGPU(geom.Indices.Data, gpu.BufferUsageIndex|gpu.BufferUsageStorage|gpu.BufferUsageRayTracing); err != nil {
			return fmt.Errorf("uploading index buffer: %w", err)
		}
	}
	if mesh.Normals, err = transfer.CopySlice(c.uploader, geom.Normals, gpu.BufferUsageVertex|gpu.BufferUsageStorage); err != nil {
		return fmt.Errorf("uploading normal buffer: %w", err)
	}

	normals := geom.TriangleNormals()
	uvs := geom.TriangleUVs(0)
	hasUV := geom.HasUVs(0)
	verts := make([]Vertex, 0, 3*normals.Count())
	for i := 0; i < normals.Count(); i++ {
		n := normals.At(i)
		var uv [3]types.Vec2
		if hasUV {
			uv = uvs.At(i)
		}
		for corner := 0; corner < 3; corner++ {
			verts = append(verts, Vertex{Normal: n[corner], UV: uv[corner]})
		}
	}

	c.materials.Append(Material{
		BaseColorFactor:          mat.BaseColorFactor,
		EmissionFactor:           mat.EmissiveFactor,
		MetallicFactor:           mat.MetallicFactor,
		RoughnessFactor:          mat.RoughnessFactor,
		TransmissionFactor:       mat.TransmissionFactor,
		IOR:                      mat.IOR,
		ColorTexture:             tex.Color,
		EmissionTexture:          tex.Emission,
		MetallicRoughnessTexture: tex.MetallicRoughness,
		TransmissionTexture:      tex.Transmission,
		VerticesOffset:           c.vertices.Append(verts...),
	})
	return nil
}

func (c *Converter) buildBottomLevel() error {
	for _, mesh := range c.meshes {
		geometry := gpu.Geometry{
			Triangles: gpu.Triangles{
				VertexData:   mesh.Vertices,
				VertexCount:  mesh.VertexCount,
				VertexStride: positionStride,
				VertexFormat: gpu.FormatR32G32B32Sfloat,
				IndexData:    mesh.Indices,
				IndexCount:   mesh.IndexCount,
				IndexType:    mesh.IndexType,
			},
			Flags: gpu.GeometryOpaque,
		}

		blas, err := c.uploader.CreateAccelerationStructure(gpu.BottomLevel, []gpu.Geometry{geometry}, 0, nil)
		if err != nil {
			return fmt.Errorf("rtx: building bottom-level structure for %q: %w", mesh.Name, err)
		}
		mesh.BottomLevel = blas
	}
	return nil
}

// Instance every bottom-level structure and build the top-level structure.
// The instance buffer only lives for the duration of the build.
func (c *Converter) buildTopLevel() error {
	c.instances = make([]gpu.Instance, len(c.meshes))
	for i, mesh := range c.meshes {
		c.instances[i] = gpu.NewInstance(mesh.Transform, uint32(i), instanceMask, 0, gpu.InstanceTriangleCullDisable, mesh.BottomLevel.Handle())
	}

	instanceBuffer, err := c.uploader.CreateHostBuffer(transfer.Bytes(c.instances), gpu.BufferUsageRayTracing)
	if err != nil {
		return fmt.Errorf("rtx: uploading instances: %w", err)
	}
	defer instanceBuffer.Destroy()

	if c.topLevel, err = c.uploader.CreateAccelerationStructure(gpu.TopLevel, nil, uint32(len(c.instances)), instanceBuffer); err != nil {
		return fmt.Errorf("rtx: building top-level structure: %w", err)
	}
	return nil
}

// Release the previous generation. Handles are moved out before they are
// destroyed and the top-level structure goes before the structures it
// references.
func (c *Converter) reset() {
	topLevel, meshes := c.topLevel, c.meshes
	materialsBuffer, vertexBuffer := c.materialsBuffer, c.vertexBuffer
	c.topLevel, c.meshes, c.materialsBuffer, c.vertexBuffer = nil, nil, nil, nil

	if topLevel != nil {
		topLevel.Destroy()
	}
	for _, mesh := range meshes {
		mesh.destroy()
	}
	for _, buf := range []gpu.Buffer{materialsBuffer, vertexBuffer} {
		if buf != nil {
			buf.Destroy()
		}
	}

	c.textures.Reset()
	c.materials.Reset()
	c.vertices.Reset()
	c.instances = nil
	c.cameras = nil
	c.skipped = 0
	c.loadTime = 0
}

// Destroy releases all device resources and returns the converter to Idle.
func (c *Converter) Destroy() {
	c.reset()
	c.state = converter.Idle
}

func (c *Converter) State() converter.State {
	return c.state
}

func (c *Converter) Cameras() []*scene.Object {
	return append([]*scene.Object(nil), c.cameras...)
}

func (c *Converter) Textures() []transfer.Texture {
	return c.textures.Entries()
}

// TopLevel returns the top-level acceleration structure.
func (c *Converter) TopLevel() (gpu.AccelerationStructure, error) {
	if c.state != converter.Ready || c.topLevel == nil {
		return nil, converter.ErrNotLoaded
	}
	return c.topLevel, nil
}

// MaterialsBuffer returns the material record buffer, indexed by instance id.
func (c *Converter) MaterialsBuffer() (gpu.Buffer, error) {
	if c.state != converter.Ready || c.materialsBuffer == nil {
		return nil, converter.ErrNotLoaded
	}
	return c.materialsBuffer, nil
}

// VertexBuffer returns the shading attribute buffer.
func (c *Converter) VertexBuffer() (gpu.Buffer, error) {
	if c.state != converter.Ready || c.vertexBuffer == nil {
		return nil, converter.ErrNotLoaded
	}
	return c.vertexBuffer, nil
}

// Meshes returns the converted submeshes in instance order.
func (c *Converter) Meshes() []*Mesh {
	return append([]*Mesh(nil), c.meshes...)
}

// Instances returns a copy of the top-level instance records.
func (c *Converter) Instances() []gpu.Instance {
	return append([]gpu.Instance(nil), c.instances...)
}

// Materials returns a copy of the material records.
func (c *Converter) Materials() []Material {
	return append([]Material(nil), c.materials.Items()...)
}

// Vertices returns a copy of the shading attributes.
func (c *Converter) Vertices() []Vertex {
	return append([]Vertex(nil), c.vertices.Items()...)
}

// Stats renders a table describing the last load.
func (c *Converter) Stats() string {
	triangles := 0
	for _, mesh := range c.meshes {
		triangles += int(mesh.TriangleCount)
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Resource", "Entries", "Size"})
	table.Append([]string{"Bottom-level structures", fmt.Sprint(len(c.meshes)), fmt.Sprintf("%d triangles", triangles)})
	table.Append([]string{"Instances", fmt.Sprint(len(c.instances)), scene.FormatBytes(len(c.instances) * gpu.InstanceSize)})
	table.Append([]string{"Materials", fmt.Sprint(c.materials.Len()), scene.FormatBytes(c.materials.Len() * materialSize)})
	table.Append([]string{"Vertices", fmt.Sprint(c.vertices.Len()), scene.FormatBytes(c.vertices.Len() * vertexSize)})
	table.Append([]string{"Textures", fmt.Sprint(c.textures.Len()), " "})
	table.SetFooter([]string{"State", c.state.String(), fmt.Sprintf("%d ms", c.loadTime.Milliseconds())})
	table.Render()
	return buf.String()
}
